package render

import (
	"bytes"
	"fmt"
	"html"
	"os"
	"path/filepath"
	"strings"

	treeblood "github.com/wyatt915/goldmark-treeblood"
	"github.com/yuin/goldmark"

	"github.com/joseph-ayodele/scandocx/internal/ocr"
)

// HTMLRenderer builds a markdown view of the document and converts it with
// goldmark. Math blocks are wrapped in display-math delimiters so the
// treeblood extension renders them to MathML, which is how they get their
// distinct styling in browsers.
type HTMLRenderer struct {
	cfg Config
	md  goldmark.Markdown
}

func NewHTMLRenderer(cfg Config) *HTMLRenderer {
	return &HTMLRenderer{
		cfg: cfg.withDefaults(),
		md: goldmark.New(
			goldmark.WithExtensions(
				treeblood.MathML(),
			),
		),
	}
}

// Render writes the HTML artifact to outPath.
func (r *HTMLRenderer) Render(doc ocr.Document, outPath string) error {
	source := r.markdown(doc)

	var body bytes.Buffer
	if err := r.md.Convert([]byte(source), &body); err != nil {
		return fmt.Errorf("markdown convert: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(outPath), 0o755); err != nil {
		return err
	}

	var out bytes.Buffer
	out.WriteString("<!DOCTYPE html>\n<html>\n<head>\n<meta charset=\"utf-8\">\n")
	fmt.Fprintf(&out, "<title>%s</title>\n", html.EscapeString(r.cfg.Title))
	fmt.Fprintf(&out, "<style>body { font-family: %q; font-size: %dpt; }</style>\n", r.cfg.FontName, r.cfg.FontSizePt)
	out.WriteString("</head>\n<body>\n")
	out.Write(body.Bytes())
	out.WriteString("</body>\n</html>\n")

	return os.WriteFile(outPath, out.Bytes(), 0o644)
}

func (r *HTMLRenderer) markdown(doc ocr.Document) string {
	var b strings.Builder
	// The title is caller-supplied; escape it so it can never smuggle
	// markup into the artifact.
	fmt.Fprintf(&b, "# %s\n\n", html.EscapeString(r.cfg.Title))
	for _, page := range doc.Pages {
		fmt.Fprintf(&b, "## Page %d\n\n", page.PageIndex)
		for _, blk := range page.Blocks {
			text := strings.TrimSpace(blk.Text)
			if text == "" {
				continue
			}
			if blk.IsMath {
				fmt.Fprintf(&b, "$$%s$$\n\n", text)
			} else {
				b.WriteString(text)
				b.WriteString("\n\n")
			}
		}
		b.WriteString("---\n\n")
	}
	return b.String()
}
