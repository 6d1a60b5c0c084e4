// Package render turns a classified OCR document into an output artifact.
// Math-flagged blocks get distinct styling in every format.
package render

import (
	"fmt"

	"github.com/joseph-ayodele/scandocx/internal/ocr"
)

// Output formats selectable via job settings.
const (
	FormatDocx = "docx"
	FormatHTML = "html"
)

// Config holds the shared rendering options.
type Config struct {
	Title          string // document heading, default "OCR Output"
	FontName       string // default "Times New Roman"
	FontSizePt     int    // default 12
	MathFontName   string // default "Cambria Math"
	MathFontSizePt int    // default FontSizePt
}

func (c Config) withDefaults() Config {
	if c.Title == "" {
		c.Title = "OCR Output"
	}
	if c.FontName == "" {
		c.FontName = "Times New Roman"
	}
	if c.FontSizePt <= 0 {
		c.FontSizePt = 12
	}
	if c.MathFontName == "" {
		c.MathFontName = "Cambria Math"
	}
	if c.MathFontSizePt <= 0 {
		c.MathFontSizePt = c.FontSizePt
	}
	return c
}

// Renderer writes one artifact for a classified document.
type Renderer interface {
	Render(doc ocr.Document, outPath string) error
}

// ForFormat selects a renderer for the given output format.
func ForFormat(format string, cfg Config) (Renderer, error) {
	switch format {
	case "", FormatDocx:
		return NewDocxRenderer(cfg), nil
	case FormatHTML:
		return NewHTMLRenderer(cfg), nil
	default:
		return nil, fmt.Errorf("unsupported output format: %q", format)
	}
}

// ArtifactExt returns the file extension for a format, dot included.
func ArtifactExt(format string) string {
	if format == FormatHTML {
		return ".html"
	}
	return ".docx"
}
