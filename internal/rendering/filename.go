package rendering

import (
	"fmt"
	"regexp"
	"time"
)

var (
	nameStrip      = regexp.MustCompile(`[^a-zA-Z0-9\s]`)
	nameWhitespace = regexp.MustCompile(`\s+`)
)

// fallbackName is used when nothing of the applicant's name survives sanitizing.
const fallbackName = "Applicant"

// SanitizeName removes everything but ASCII letters, digits and whitespace,
// then joins whitespace runs with underscores.
func SanitizeName(name string) string {
	cleaned := nameStrip.ReplaceAllString(name, "")
	return nameWhitespace.ReplaceAllString(cleaned, "_")
}

// FileName returns CoverLetter_<name>_<company>_<role>_<YYYYMMDD>.pdf.
// company and role are expected to be sanitized already. The date is taken in UTC.
func FileName(name, company, role string, date time.Time) string {
	clean := SanitizeName(name)
	if clean == "" || clean == "_" {
		clean = fallbackName
	}
	return fmt.Sprintf("CoverLetter_%s_%s_%s_%s.pdf", clean, company, role, date.UTC().Format("20060102"))
}
