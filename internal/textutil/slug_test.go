package textutil

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSlug(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"plain", "Det velkendte", "det-velkendte"},
		{"danish oe", "Grønne", "groenne"},
		{"full danish with punctuation", "Det grønne køkken & café!", "det-groenne-koekken-cafe"},
		{"ae", "Kærlighed", "kaerlighed"},
		{"aa", "Smørrebrød på rugbrød", "smoerrebroed-paa-rugbroed"},
		{"collapses repeated separators", "Den   Grønne -- Menu", "den-groenne-menu"},
		{"trims edge hyphens", "!Special!", "special"},
		{"empty", "", ""},
		{"whitespace only", "   ", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Slug(tt.in))
		})
	}
}

func TestSlugIsIdempotent(t *testing.T) {
	names := []string{"Det velkendte", "Den Grønne", "Det grønne køkken & café!"}
	for _, name := range names {
		once := Slug(name)
		assert.Equal(t, once, Slug(once), "slug of a slug must be stable for %q", name)
	}
}
