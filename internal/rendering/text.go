package rendering

import "strings"

// FoldText replaces runes the cp1252 core fonts cannot draw with close ASCII
// equivalents. Runes with no equivalent are left for the code page translator.
func FoldText(text string) string {
	if text == "" {
		return ""
	}

	var result strings.Builder
	result.Grow(len(text))

	for _, r := range text {
		switch r {
		case '\t':
			result.WriteByte(' ')
		case '\u2010', '\u2011', '\u2012', '\u2212', '\u2043':
			result.WriteByte('-')
		case '′':
			result.WriteByte('\'')
		case '″':
			result.WriteByte('"')
		case '←':
			result.WriteString("<-")
		case '→', '➜', '➤':
			result.WriteString("->")
		case '↔':
			result.WriteString("<->")
		case '≤':
			result.WriteString("<=")
		case '≥':
			result.WriteString(">=")
		case '≠':
			result.WriteString("!=")
		case '≈':
			result.WriteByte('~')
		case '•', '▪', '●', '◦', '‣':
			result.WriteRune('•')
		case '✓', '✔', '✅':
			result.WriteByte('*')
		case '\u200b', '\u200c', '\u200d', '\u2060', '\ufeff':
			// zero-width, drop
		case '\u2002', '\u2003', '\u2007', '\u2009', '\u202f', '\u3000':
			result.WriteByte(' ')
		default:
			result.WriteRune(r)
		}
	}

	return result.String()
}
