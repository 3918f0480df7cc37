package models

import (
	"strings"
	"testing"
)

func TestShortText(t *testing.T) {
	tests := []struct {
		name string
		text string
		want string
	}{
		{"short body unchanged", "hello", "hello"},
		{"exactly fifty chars unchanged", strings.Repeat("a", 50), strings.Repeat("a", 50)},
		{"long body truncated", strings.Repeat("a", 51), strings.Repeat("a", 50) + "..."},
		{"empty body", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := Post{Text: tt.text}
			if got := p.ShortText(); got != tt.want {
				t.Errorf("ShortText() = %q, want %q", got, tt.want)
			}
		})
	}
}
