package layout

import (
	"fmt"
	"math"
	"strings"
	"unicode/utf8"
)

// Line is one wrapped line and its baseline position in millimeters.
type Line struct {
	Text string
	X    float64
	Y    float64
}

// Page holds the lines placed on one page and the cursor after the last block.
type Page struct {
	Lines  []Line
	Cursor float64
}

// Document is the laid out text. It always has at least one page.
type Document struct {
	Pages  []Page
	Config Config
}

// LineCount returns the number of lines across all pages.
func (d *Document) LineCount() int {
	n := 0
	for _, p := range d.Pages {
		n += len(p.Lines)
	}
	return n
}

// Layout splits text into paragraphs on blank lines and places them on pages.
//
// A paragraph moves to a new page when cursor + lines × LineHeight would pass
// the bottom margin; reaching it exactly stays on the page. Paragraphs taller
// than a whole page, or than the first page after its LeadingOffset, are split
// between lines instead, so no page is left empty. The same input always
// yields the same Document.
func Layout(text string, cfg Config, metrics FontMetrics) (*Document, error) {
	if err := validateConfig(cfg, metrics); err != nil {
		return nil, err
	}
	if err := validateText(text); err != nil {
		return nil, err
	}

	e := newEngine(cfg, metrics)
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = strings.ReplaceAll(text, "\r", "\n")
	for _, paragraph := range strings.Split(text, "\n\n") {
		paragraph = strings.TrimSpace(paragraph)
		if paragraph == "" {
			continue
		}
		e.placeParagraph(WrapText(paragraph, cfg.Geometry.ContentWidth(), metrics))
	}
	return e.finish(), nil
}

type engine struct {
	cfg      Config
	metrics  FontMetrics
	pages    []Page
	current  Page
	cursor   float64
	bottom   float64
	capacity int
}

func newEngine(cfg Config, metrics FontMetrics) *engine {
	g, t := cfg.Geometry, cfg.Typography
	capacity := int(math.Floor((g.ContentBottom()-g.MarginTop)/t.LineHeight + epsilon))
	if capacity < 1 {
		capacity = 1
	}
	return &engine{
		cfg:      cfg,
		metrics:  metrics,
		cursor:   g.MarginTop + t.LeadingOffset,
		bottom:   g.ContentBottom(),
		capacity: capacity,
	}
}

func (e *engine) fits(n int) bool {
	return e.cursor+float64(n)*e.cfg.Typography.LineHeight <= e.bottom+epsilon
}

func (e *engine) newPage() {
	e.current.Cursor = e.cursor
	e.pages = append(e.pages, e.current)
	e.current = Page{}
	e.cursor = e.cfg.Geometry.MarginTop
}

func (e *engine) placeParagraph(lines []string) {
	fits := e.fits(len(lines))
	if len(lines) <= e.capacity && (fits || len(e.current.Lines) > 0) {
		if !fits {
			e.newPage()
		}
		e.place(lines)
		e.cursor += e.cfg.Typography.ParagraphSpacing
		return
	}

	// Taller than the room on an empty page: split between lines.
	if len(e.current.Lines) > 0 {
		e.newPage()
	}
	remaining := lines
	for len(remaining) > 0 {
		room := int(math.Floor((e.bottom-e.cursor)/e.cfg.Typography.LineHeight + epsilon))
		if room < 1 {
			if len(e.current.Lines) > 0 {
				e.newPage()
				continue
			}
			room = 1
		}
		if room > len(remaining) {
			room = len(remaining)
		}
		e.place(remaining[:room])
		remaining = remaining[room:]
		if len(remaining) > 0 {
			e.newPage()
		}
	}
	e.cursor += e.cfg.Typography.ParagraphSpacing
}

func (e *engine) place(lines []string) {
	step := e.cfg.Typography.InLineSpacing()
	for i, text := range lines {
		e.current.Lines = append(e.current.Lines, Line{
			Text: text,
			X:    e.cfg.Geometry.MarginLeft,
			Y:    e.cursor + float64(i)*step,
		})
	}
	e.cursor += float64(len(lines)) * e.cfg.Typography.LineHeight
}

func (e *engine) finish() *Document {
	e.current.Cursor = e.cursor
	pages := append(e.pages, e.current)
	return &Document{Pages: pages, Config: e.cfg}
}

func validateConfig(cfg Config, metrics FontMetrics) error {
	g, t := cfg.Geometry, cfg.Typography
	switch {
	case metrics == nil:
		return configError("font metrics are required")
	case g.ContentWidth() <= 0:
		return configError("content width must be positive, got %.2fmm", g.ContentWidth())
	case g.ContentBottom() <= g.MarginTop:
		return configError("content height must be positive, got %.2fmm", g.ContentBottom()-g.MarginTop)
	case t.FontSize <= 0:
		return configError("font size must be positive, got %.2f", t.FontSize)
	case t.LineHeight <= 0:
		return configError("line height must be positive, got %.2fmm", t.LineHeight)
	case t.ParagraphSpacing < 0:
		return configError("paragraph spacing must not be negative, got %.2fmm", t.ParagraphSpacing)
	}
	return nil
}

// validateText rejects invalid UTF-8 and control characters other than
// newline, carriage return and tab.
func validateText(text string) error {
	for i := 0; i < len(text); {
		r, size := utf8.DecodeRuneInString(text[i:])
		if r == utf8.RuneError && size == 1 {
			return &InputError{Message: "text is not valid UTF-8", Offset: i}
		}
		if isDisallowedControl(r) {
			return &InputError{Message: fmt.Sprintf("text contains control character %U", r), Offset: i}
		}
		i += size
	}
	return nil
}

func isDisallowedControl(r rune) bool {
	if r == '\n' || r == '\r' || r == '\t' {
		return false
	}
	return r < 0x20 || r == 0x7f || (r >= 0x80 && r < 0xa0)
}
