package render

import (
	"archive/zip"
	"encoding/xml"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/joseph-ayodele/scandocx/internal/ocr"
)

// DocxRenderer assembles a minimal OOXML wordprocessing package: the
// [Content_Types].xml and _rels parts plus one word/document.xml with a
// title heading, a heading and paragraphs per page, and a page break
// between pages. Math blocks are emitted as runs in the math font.
type DocxRenderer struct {
	cfg Config
}

func NewDocxRenderer(cfg Config) *DocxRenderer {
	return &DocxRenderer{cfg: cfg.withDefaults()}
}

const contentTypesXML = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<Types xmlns="http://schemas.openxmlformats.org/package/2006/content-types"><Default Extension="rels" ContentType="application/vnd.openxmlformats-package.relationships+xml"/><Default Extension="xml" ContentType="application/xml"/><Override PartName="/word/document.xml" ContentType="application/vnd.openxmlformats-officedocument.wordprocessingml.document.main+xml"/></Types>
`

const relsXML = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships"><Relationship Id="rId1" Type="http://schemas.openxmlformats.org/officeDocument/2006/relationships/officeDocument" Target="word/document.xml"/></Relationships>
`

// Render writes the DOCX artifact to outPath.
func (r *DocxRenderer) Render(doc ocr.Document, outPath string) error {
	if err := os.MkdirAll(filepath.Dir(outPath), 0o755); err != nil {
		return err
	}
	f, err := os.Create(outPath)
	if err != nil {
		return err
	}
	defer f.Close()

	zw := zip.NewWriter(f)
	parts := []struct {
		name, body string
	}{
		{"[Content_Types].xml", contentTypesXML},
		{"_rels/.rels", relsXML},
		{"word/document.xml", r.documentXML(doc)},
	}
	for _, p := range parts {
		w, err := zw.Create(p.name)
		if err != nil {
			return err
		}
		if _, err := w.Write([]byte(p.body)); err != nil {
			return err
		}
	}
	if err := zw.Close(); err != nil {
		return err
	}
	return f.Close()
}

func (r *DocxRenderer) documentXML(doc ocr.Document) string {
	var b strings.Builder
	b.WriteString(`<?xml version="1.0" encoding="UTF-8" standalone="yes"?>` + "\n")
	b.WriteString(`<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main"><w:body>`)

	r.writeHeading(&b, r.cfg.Title, r.cfg.FontSizePt+6)

	for i, page := range doc.Pages {
		r.writeHeading(&b, fmt.Sprintf("Page %d", page.PageIndex), r.cfg.FontSizePt+2)
		for _, blk := range page.Blocks {
			text := strings.TrimSpace(blk.Text)
			if text == "" {
				continue
			}
			font, size := r.cfg.FontName, r.cfg.FontSizePt
			if blk.IsMath {
				font, size = r.cfg.MathFontName, r.cfg.MathFontSizePt
			}
			b.WriteString(`<w:p><w:r><w:rPr>`)
			writeRunProps(&b, font, size, false)
			b.WriteString(`</w:rPr><w:t xml:space="preserve">`)
			b.WriteString(escapeXML(text))
			b.WriteString(`</w:t></w:r></w:p>`)
		}
		if i < len(doc.Pages)-1 {
			b.WriteString(`<w:p><w:r><w:br w:type="page"/></w:r></w:p>`)
		}
	}

	b.WriteString(`</w:body></w:document>` + "\n")
	return b.String()
}

func (r *DocxRenderer) writeHeading(b *strings.Builder, text string, sizePt int) {
	b.WriteString(`<w:p><w:r><w:rPr>`)
	writeRunProps(b, r.cfg.FontName, sizePt, true)
	b.WriteString(`</w:rPr><w:t xml:space="preserve">`)
	b.WriteString(escapeXML(text))
	b.WriteString(`</w:t></w:r></w:p>`)
}

func writeRunProps(b *strings.Builder, font string, sizePt int, bold bool) {
	fmt.Fprintf(b, `<w:rFonts w:ascii="%s" w:hAnsi="%s"/>`, escapeXML(font), escapeXML(font))
	if bold {
		b.WriteString(`<w:b/>`)
	}
	// w:sz is measured in half-points.
	fmt.Fprintf(b, `<w:sz w:val="%d"/>`, sizePt*2)
}

func escapeXML(s string) string {
	var b strings.Builder
	_ = xml.EscapeText(&b, []byte(s))
	return b.String()
}
