package layout

import (
	"strings"
	"unicode/utf8"
)

// FontMetrics measures rendered text width in millimeters for the configured font.
type FontMetrics interface {
	StringWidth(s string) float64
}

const epsilon = 1e-9

// WrapText breaks text into lines no wider than width. Newlines are hard
// breaks, runs of whitespace collapse to one space, and a word wider than the
// line is split between runes.
func WrapText(text string, width float64, metrics FontMetrics) []string {
	var out []string
	for _, raw := range strings.Split(text, "\n") {
		words := strings.Fields(raw)
		if len(words) == 0 {
			out = append(out, "")
			continue
		}

		line := ""
		for _, word := range words {
			for metrics.StringWidth(word) > width+epsilon && utf8.RuneCountInString(word) > 1 {
				if line != "" {
					out = append(out, line)
					line = ""
				}
				head, tail := splitToWidth(word, width, metrics)
				out = append(out, head)
				word = tail
			}

			if line == "" {
				line = word
				continue
			}
			candidate := line + " " + word
			if metrics.StringWidth(candidate) > width+epsilon {
				out = append(out, line)
				line = word
			} else {
				line = candidate
			}
		}
		out = append(out, line)
	}
	return out
}

// splitToWidth returns the longest rune prefix of word that fits width (at
// least one rune) and the remainder.
func splitToWidth(word string, width float64, metrics FontMetrics) (string, string) {
	cut := 0
	for i, r := range word {
		end := i + utf8.RuneLen(r)
		if cut > 0 && metrics.StringWidth(word[:end]) > width+epsilon {
			break
		}
		cut = end
	}
	return word[:cut], word[cut:]
}
