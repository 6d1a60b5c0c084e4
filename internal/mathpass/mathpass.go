// Package mathpass tags OCR blocks as math-like. It is a deterministic
// signal-count heuristic, not a recognizer; real math recognition (OMML and
// friends) would slot in behind the same pass later.
package mathpass

import (
	"regexp"
	"unicode"

	"github.com/joseph-ayodele/scandocx/internal/ocr"
)

var (
	mathCharsRE = regexp.MustCompile(`[=+\-*/^_∑∫√≈≠≤≥∞πθλμΩαβγΔ→←↔]`)
	mathWordsRE = regexp.MustCompile(`(?i)\b(sin|cos|tan|log|ln|lim|dx|dy|dz)\b`)
	equationRE  = regexp.MustCompile(`\w\s*=\s*[\w(]`)
)

// symbolDensityLimit is the fraction of non-alphanumeric, non-space runes
// above which a block counts as symbol-heavy.
const symbolDensityLimit = 0.15

// Config controls how many signals make a block math-like.
type Config struct {
	MinSignals int // default 1
}

// Classifier scores blocks for math-likeness.
type Classifier struct {
	cfg Config
}

func NewClassifier(cfg Config) *Classifier {
	if cfg.MinSignals <= 0 {
		cfg.MinSignals = 1
	}
	return &Classifier{cfg: cfg}
}

// Tag returns a copy of doc with IsMath set on every block. The input
// document is not mutated.
func (c *Classifier) Tag(doc ocr.Document) ocr.Document {
	out := doc
	out.Pages = make([]ocr.Page, len(doc.Pages))
	for i, page := range doc.Pages {
		pageCopy := page
		pageCopy.Blocks = make([]ocr.Block, len(page.Blocks))
		for j, b := range page.Blocks {
			b.IsMath = c.LooksLikeMath(b.Text)
			pageCopy.Blocks[j] = b
		}
		out.Pages[i] = pageCopy
	}
	return out
}

// LooksLikeMath counts the four signals against the threshold:
// a math operator/symbol character, a recognized math function word, an
// equation-like "x = y" pattern, and overall symbol density.
func (c *Classifier) LooksLikeMath(text string) bool {
	if text == "" {
		return false
	}

	signals := 0
	if mathCharsRE.MatchString(text) {
		signals++
	}
	if mathWordsRE.MatchString(text) {
		signals++
	}
	if equationRE.MatchString(text) {
		signals++
	}

	var symbols, total int
	for _, r := range text {
		total++
		if !unicode.IsLetter(r) && !unicode.IsDigit(r) && !unicode.IsSpace(r) {
			symbols++
		}
	}
	if total > 0 && float64(symbols)/float64(total) > symbolDensityLimit {
		signals++
	}

	return signals >= c.cfg.MinSignals
}
