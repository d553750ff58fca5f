// Package observability provides formatted output utilities for verbose CLI mode.
package observability

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/jonathan/cover-letter-generator/internal/layout"
	"github.com/jonathan/cover-letter-generator/internal/llm"
	"github.com/jonathan/cover-letter-generator/internal/types"
)

const (
	// boxWidth is the default width for formatted output boxes
	boxWidth = 60
	// maxItemsToShow is the default number of items to display in lists
	maxItemsToShow = 5
)

var (
	boxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("39")).
			Padding(0, 1)

	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("39"))

	dimStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240"))
)

// Printer handles formatted output for verbose mode
type Printer struct {
	out io.Writer
}

// NewPrinter creates a new Printer that writes to the given writer
func NewPrinter(out io.Writer) *Printer {
	return &Printer{out: out}
}

// printBox prints a bordered box with a title and content
//
//nolint:errcheck // writing to stderr; errors are not recoverable
func (p *Printer) printBox(title string, content string) {
	inner := boxWidth - 4
	lines := strings.Split(content, "\n")
	for i, line := range lines {
		lines[i] = truncate(line, inner)
	}
	body := titleStyle.Render(title) + "\n" + strings.Join(lines, "\n")
	fmt.Fprintln(p.out, boxStyle.Width(boxWidth-2).Render(body))
}

func truncate(s string, width int) string {
	r := []rune(s)
	if len(r) <= width {
		return s
	}
	return string(r[:width-3]) + "..."
}

// PrintProvider shows which provider a run will call and why.
func (p *Printer) PrintProvider(target llm.Target, rule string) {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Provider: %s\n", target.Provider))
	model := target.Model
	if model == "" {
		model = dimStyle.Render("(provider default)")
	}
	sb.WriteString(fmt.Sprintf("Model:    %s", model))
	if rule != "" {
		sb.WriteString(fmt.Sprintf("\nMatched:  %s", rule))
	}
	p.printBox("PROVIDER", sb.String())
}

// PrintJobInfo outputs the company and role used for the file name.
func (p *Printer) PrintJobInfo(info types.ExtractedJobInfo) {
	content := fmt.Sprintf("Company:  %s\nRole:     %s", info.Company, info.Role)
	if info == types.FallbackJobInfo() {
		content += "\n" + dimStyle.Render("(fallback values, extraction failed)")
	}
	p.printBox("EXTRACTED JOB INFO", content)
}

// PrintLayout outputs page and line counts for a laid out letter.
func (p *Printer) PrintLayout(doc *layout.Document) {
	if doc == nil {
		return
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Pages: %d   Lines: %d\n", len(doc.Pages), doc.LineCount()))
	sb.WriteString(fmt.Sprintf("Font:  %s %.1fpt", doc.Config.Typography.FontFamily, doc.Config.Typography.FontSize))
	for i, page := range doc.Pages {
		sb.WriteString(fmt.Sprintf("\n  page %d: %d lines", i+1, len(page.Lines)))
	}
	p.printBox("LAYOUT", sb.String())
}

// PrintProviders outputs the provider table. detected is highlighted when set.
func (p *Printer) PrintProviders(providers []llm.ProviderSummary, detected llm.ProviderID) {
	if len(providers) == 0 {
		return
	}

	var sb strings.Builder
	for i, s := range providers {
		marker := "  "
		if s.ID == detected {
			marker = "→ "
		}
		sb.WriteString(fmt.Sprintf("%s%-11s %-18s %s", marker, s.ID, s.DisplayName, dimStyle.Render(s.DefaultModel)))
		if i < len(providers)-1 {
			sb.WriteString("\n")
		}
	}
	p.printBox("PROVIDERS", sb.String())
}

// PrintProfile outputs a short summary of a parsed resume profile.
func (p *Printer) PrintProfile(profile *types.ResumeProfile) {
	if profile == nil {
		return
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Name:   %s\n", profile.Name))
	if profile.Email != "" {
		sb.WriteString(fmt.Sprintf("Email:  %s\n", profile.Email))
	}
	if profile.Skills != "" {
		sb.WriteString(fmt.Sprintf("Skills: %s\n", profile.Skills))
	}

	if len(profile.Experience) > 0 {
		sb.WriteString("\nExperience:\n")
		count := min(len(profile.Experience), maxItemsToShow)
		for i := 0; i < count; i++ {
			exp := profile.Experience[i]
			sb.WriteString(fmt.Sprintf("  • %s, %s", exp.Title, exp.Company))
			if exp.Duration != "" {
				sb.WriteString(fmt.Sprintf(" (%s)", exp.Duration))
			}
			sb.WriteString("\n")
		}
		if len(profile.Experience) > maxItemsToShow {
			sb.WriteString(fmt.Sprintf("  ... and %d more\n", len(profile.Experience)-maxItemsToShow))
		}
	}

	if len(profile.Projects) > 0 {
		sb.WriteString(fmt.Sprintf("\nProjects: %d\n", len(profile.Projects)))
	}

	p.printBox("RESUME PROFILE", strings.TrimSuffix(sb.String(), "\n"))
}
