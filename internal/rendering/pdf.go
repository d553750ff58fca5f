package rendering

import (
	"bytes"
	"fmt"
	"io"
	"time"

	"github.com/go-pdf/fpdf"
	"github.com/jonathan/cover-letter-generator/internal/layout"
)

// Creator is written into the PDF metadata.
const Creator = "cover-letter-generator"

// PDFRenderer draws layout documents with the fpdf core fonts.
type PDFRenderer struct {
	cfg          layout.Config
	creationDate time.Time
	title        string
	author       string
}

// PDFOption configures a PDFRenderer.
type PDFOption func(*PDFRenderer)

// WithCreationDate pins the creation and modification dates so identical
// input renders identical bytes.
func WithCreationDate(t time.Time) PDFOption {
	return func(r *PDFRenderer) { r.creationDate = t }
}

// WithMetadata sets the document title and author.
func WithMetadata(title, author string) PDFOption {
	return func(r *PDFRenderer) {
		r.title = title
		r.author = author
	}
}

// NewPDFRenderer creates a renderer for pages described by cfg.
func NewPDFRenderer(cfg layout.Config, opts ...PDFOption) *PDFRenderer {
	r := &PDFRenderer{cfg: cfg}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Config returns the page configuration the renderer draws with.
func (r *PDFRenderer) Config() layout.Config {
	return r.cfg
}

func (r *PDFRenderer) newDocument() *fpdf.Fpdf {
	g, t := r.cfg.Geometry, r.cfg.Typography
	pdf := fpdf.NewCustom(&fpdf.InitType{
		OrientationStr: "P",
		UnitStr:        "mm",
		Size:           fpdf.SizeType{Wd: g.PageWidth, Ht: g.PageHeight},
	})
	pdf.SetMargins(g.MarginLeft, g.MarginTop, g.MarginRight)
	// page breaks are decided by the layout engine
	pdf.SetAutoPageBreak(false, g.MarginBottom)
	pdf.SetFont(t.FontFamily, "", t.FontSize)
	return pdf
}

// Metrics returns font metrics that match what Render draws, so wrapping
// decisions agree with the output. The result is not safe for concurrent use.
func (r *PDFRenderer) Metrics() layout.FontMetrics {
	pdf := r.newDocument()
	return &fpdfMetrics{pdf: pdf, translate: pdf.UnicodeTranslatorFromDescriptor("")}
}

type fpdfMetrics struct {
	pdf       *fpdf.Fpdf
	translate func(string) string
}

func (m *fpdfMetrics) StringWidth(s string) float64 {
	return m.pdf.GetStringWidth(m.translate(FoldText(s)))
}

// Render writes doc as a PDF to w, one output page per layout page.
func (r *PDFRenderer) Render(doc *layout.Document, w io.Writer) error {
	if doc == nil || len(doc.Pages) == 0 {
		return &RenderError{Message: "document has no pages"}
	}

	pdf := r.newDocument()
	pdf.SetCreator(Creator, true)
	pdf.SetCatalogSort(true)
	if r.title != "" {
		pdf.SetTitle(r.title, true)
	}
	if r.author != "" {
		pdf.SetAuthor(r.author, true)
	}
	if !r.creationDate.IsZero() {
		pdf.SetCreationDate(r.creationDate)
		pdf.SetModificationDate(r.creationDate)
	}
	translate := pdf.UnicodeTranslatorFromDescriptor("")

	for _, page := range doc.Pages {
		pdf.AddPage()
		for _, line := range page.Lines {
			if line.Text == "" {
				continue
			}
			pdf.Text(line.X, line.Y, translate(FoldText(line.Text)))
		}
	}

	if err := pdf.Error(); err != nil {
		return &RenderError{Message: "failed to draw document", Cause: err}
	}
	if err := pdf.Output(w); err != nil {
		return &RenderError{Message: "failed to write PDF", Cause: err}
	}
	return nil
}

// RenderBytes renders doc into memory.
func (r *PDFRenderer) RenderBytes(doc *layout.Document) ([]byte, error) {
	var buf bytes.Buffer
	if err := r.Render(doc, &buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// LayoutAndRender lays text out with this renderer's metrics and renders it.
func (r *PDFRenderer) LayoutAndRender(text string) ([]byte, *layout.Document, error) {
	doc, err := layout.Layout(text, r.cfg, r.Metrics())
	if err != nil {
		return nil, nil, fmt.Errorf("failed to lay out cover letter: %w", err)
	}
	data, err := r.RenderBytes(doc)
	if err != nil {
		return nil, nil, err
	}
	return data, doc, nil
}
