package store

import (
	"errors"

	"gorm.io/gorm"
)

var (
	// ErrNotFound is returned when the requested row does not exist, or when
	// a predicate-guarded write matched no row.
	ErrNotFound = errors.New("record not found")

	// ErrDuplicate is returned when an insert collides with a unique key.
	ErrDuplicate = errors.New("duplicate record")
)

// translate maps GORM errors onto the store's sentinels at the persistence
// boundary so callers never depend on gorm error values directly.
func translate(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return ErrNotFound
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return ErrDuplicate
	default:
		return err
	}
}
