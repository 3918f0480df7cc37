package handlers

import (
	"testing"
	"time"
)

func TestParseCursor(t *testing.T) {
	t.Run("empty means first page", func(t *testing.T) {
		cursor, err := parseCursor("")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if cursor != nil {
			t.Errorf("expected nil cursor, got %v", cursor)
		}
	})

	t.Run("millisecond timestamp", func(t *testing.T) {
		want := time.Date(2026, 3, 15, 12, 0, 0, 0, time.UTC)
		cursor, err := parseCursor("1773576000000")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if cursor == nil || !cursor.Equal(want) {
			t.Errorf("expected %v, got %v", want, cursor)
		}
	})

	t.Run("garbage is rejected", func(t *testing.T) {
		if _, err := parseCursor("not-a-timestamp"); err == nil {
			t.Error("expected an error")
		}
	})
}
