package validation

import (
	"strings"

	"github.com/threadboard/backend/internal/models"
)

const minPasswordLen = 6

// Register checks registration input and returns field-level errors, or nil
// when the input is acceptable. Uniqueness is not checked here; the store
// reports collisions and the handler maps them onto the same error shape.
func Register(username, email, password string) []models.FieldError {
	var errs []models.FieldError

	if strings.Contains(username, "@") {
		errs = append(errs, models.FieldError{Field: "username", Message: "invalid username"})
	}
	if !strings.Contains(email, "@") {
		errs = append(errs, models.FieldError{Field: "email", Message: "invalid email"})
	}
	if len(password) < minPasswordLen {
		errs = append(errs, models.FieldError{Field: "password", Message: "password must be at least 6 characters"})
	}
	return errs
}

// NewPassword checks a password submitted through the reset flow.
func NewPassword(password string) []models.FieldError {
	if len(password) < minPasswordLen {
		return []models.FieldError{{Field: "new_password", Message: "password must be at least 6 characters"}}
	}
	return nil
}
