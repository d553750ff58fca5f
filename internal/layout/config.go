// Package layout places cover letter prose onto fixed-size pages: it wraps
// paragraphs to the content width, positions each line and decides page breaks.
// It is pure and performs no rendering; rendering.PDFRenderer draws the result.
package layout

// MillimetersPerPoint converts typographic points to millimeters.
const MillimetersPerPoint = 25.4 / 72

// Geometry is the page size and margins in millimeters.
type Geometry struct {
	PageWidth    float64 `json:"page_width" yaml:"page_width"`
	PageHeight   float64 `json:"page_height" yaml:"page_height"`
	MarginTop    float64 `json:"margin_top" yaml:"margin_top"`
	MarginRight  float64 `json:"margin_right" yaml:"margin_right"`
	MarginBottom float64 `json:"margin_bottom" yaml:"margin_bottom"`
	MarginLeft   float64 `json:"margin_left" yaml:"margin_left"`
}

// USLetter returns US Letter geometry with one-inch margins.
func USLetter() Geometry {
	return Geometry{
		PageWidth:    215.9,
		PageHeight:   279.4,
		MarginTop:    25.4,
		MarginRight:  25.4,
		MarginBottom: 25.4,
		MarginLeft:   25.4,
	}
}

// ContentWidth is the usable line width.
func (g Geometry) ContentWidth() float64 {
	return g.PageWidth - g.MarginLeft - g.MarginRight
}

// ContentBottom is the lowest y a block may reach.
func (g Geometry) ContentBottom() float64 {
	return g.PageHeight - g.MarginBottom
}

// Typography controls font and vertical rhythm. LineHeight and ParagraphSpacing
// are explicit millimeter values, not derived from font metrics.
type Typography struct {
	FontFamily string  `json:"font_family" yaml:"font_family"`
	FontSize   float64 `json:"font_size" yaml:"font_size"`
	// LineHeight is how far the cursor advances per line.
	LineHeight float64 `json:"line_height" yaml:"line_height"`
	// LineSpacingFactor spaces lines within a block at FontSize × factor.
	LineSpacingFactor float64 `json:"line_spacing_factor" yaml:"line_spacing_factor"`
	ParagraphSpacing  float64 `json:"paragraph_spacing" yaml:"paragraph_spacing"`
	// LeadingOffset is added below the top margin on the first page only.
	LeadingOffset float64 `json:"leading_offset" yaml:"leading_offset"`
}

// DefaultFontSize is the body font size in points.
const DefaultFontSize = 12

// DefaultTypography returns Times at fontSize, with line height and paragraph
// spacing scaled from the 12pt values of 7mm and 5mm.
func DefaultTypography(fontSize float64) Typography {
	if fontSize <= 0 {
		fontSize = DefaultFontSize
	}
	return Typography{
		FontFamily:        "Times",
		FontSize:          fontSize,
		LineHeight:        fontSize * 7 / 12,
		LineSpacingFactor: 1.5,
		ParagraphSpacing:  fontSize * 5 / 12,
		LeadingOffset:     5,
	}
}

// InLineSpacing is the distance between lines of the same block in millimeters.
func (t Typography) InLineSpacing() float64 {
	return t.FontSize * t.LineSpacingFactor * MillimetersPerPoint
}

// Config combines geometry and typography.
type Config struct {
	Geometry   Geometry   `json:"geometry" yaml:"geometry"`
	Typography Typography `json:"typography" yaml:"typography"`
}

// DefaultConfig returns US Letter with 12pt Times.
func DefaultConfig() Config {
	return Config{Geometry: USLetter(), Typography: DefaultTypography(DefaultFontSize)}
}
