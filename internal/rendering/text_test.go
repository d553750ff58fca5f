package rendering

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFoldText_EmptyString(t *testing.T) {
	assert.Equal(t, "", FoldText(""))
}

func TestFoldText_PlainTextUnchanged(t *testing.T) {
	text := "Dear Hiring Manager, I'm excited to apply."
	assert.Equal(t, text, FoldText(text))
}

func TestFoldText_Cp1252RunesKept(t *testing.T) {
	// curly quotes, dashes, euro and accented letters exist in cp1252
	text := "“Café” – €5 — naïve…"
	assert.Equal(t, text, FoldText(text))
}

func TestFoldText_Replacements(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"tab", "a\tb", "a b"},
		{"non-breaking hyphen", "co\u2011founder", "co-founder"},
		{"minus sign", "−5%", "-5%"},
		{"arrow", "Go → Rust", "Go -> Rust"},
		{"comparison", "≥5 years", ">=5 years"},
		{"check mark", "✓ shipped", "* shipped"},
		{"zero width", "re\u200bsume", "resume"},
		{"thin space", "10\u2009000", "10 000"},
		{"bullet variants", "● item", "• item"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, FoldText(tt.input))
		})
	}
}
