// Package ingestion turns job postings and resumes from files, URLs and
// readers into cleaned plain text.
package ingestion

import (
	"regexp"
	"strings"
)

var (
	horizontalSpace = regexp.MustCompile(`[ \t\f\v\x{00A0}]+`)
	blankLineRun    = regexp.MustCompile(`\n{3,}`)
)

// CleanText normalizes line endings, collapses runs of spaces inside lines,
// keeps leading indentation, headings and bullets, and reduces runs of blank
// lines to one. The result is trimmed.
func CleanText(content string) string {
	if content == "" {
		return ""
	}
	content = normalizeNewlines(content)

	lines := strings.Split(content, "\n")
	for i, line := range lines {
		lines[i] = cleanLine(line)
	}
	return strings.TrimSpace(blankLineRun.ReplaceAllString(strings.Join(lines, "\n"), "\n\n"))
}

func cleanLine(line string) string {
	trimmed := strings.TrimLeft(line, " \t")
	if strings.TrimSpace(trimmed) == "" {
		return ""
	}
	if strings.HasPrefix(trimmed, "#") {
		return strings.TrimRight(trimmed, " \t")
	}
	indent := strings.Repeat(" ", len(line)-len(trimmed))
	return indent + horizontalSpace.ReplaceAllString(strings.TrimSpace(trimmed), " ")
}

// NormalizePDFText tidies text pulled out of a PDF: horizontal whitespace runs
// become one space, lines are trimmed, and runs of blank lines become one.
func NormalizePDFText(text string) string {
	text = normalizeNewlines(text)
	lines := strings.Split(text, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimSpace(horizontalSpace.ReplaceAllString(line, " "))
	}
	return strings.TrimSpace(blankLineRun.ReplaceAllString(strings.Join(lines, "\n"), "\n\n"))
}

func normalizeNewlines(s string) string {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	return strings.ReplaceAll(s, "\r", "\n")
}
