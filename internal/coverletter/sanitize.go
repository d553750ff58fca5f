package coverletter

import "strings"

// SanitizeToken turns value into a filename-safe token made of [A-Za-z0-9_].
// Every other rune becomes an underscore. Blank values yield fallback.
func SanitizeToken(value, fallback string) string {
	value = strings.TrimSpace(value)
	if value == "" {
		value = fallback
	}
	return strings.Map(func(r rune) rune {
		if isASCIIAlnum(r) {
			return r
		}
		return '_'
	}, value)
}

func isASCIIAlnum(r rune) bool {
	return (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9')
}
