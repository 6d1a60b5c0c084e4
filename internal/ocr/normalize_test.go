package ocr

import (
	"math"
	"testing"
)

func quad(x0, y0, x1, y1 float64) []Point {
	return []Point{{x0, y0}, {x1, y0}, {x1, y1}, {x0, y1}}
}

func TestNormalizeDerivesGeometry(t *testing.T) {
	n := Normalizer{}
	blocks := n.Normalize([]RawDetection{
		{Box: quad(10, 20, 110, 60), Text: " hello ", Confidence: 0.9},
	})
	if len(blocks) != 1 {
		t.Fatalf("expected 1 block, got %d", len(blocks))
	}
	b := blocks[0]
	if b.Text != "hello" {
		t.Errorf("expected trimmed text, got %q", b.Text)
	}
	if b.XMin != 10 || b.YMin != 20 || b.XMax != 110 || b.YMax != 60 {
		t.Errorf("unexpected rect: %+v", b)
	}
	if b.CX != 60 || b.CY != 40 {
		t.Errorf("unexpected center: cx=%v cy=%v", b.CX, b.CY)
	}
	if b.W != 100 || b.H != 40 {
		t.Errorf("unexpected size: w=%v h=%v", b.W, b.H)
	}
}

func TestNormalizeDropsEmptyText(t *testing.T) {
	n := Normalizer{}
	blocks := n.Normalize([]RawDetection{
		{Box: quad(0, 0, 10, 10), Text: "   ", Confidence: 0.9},
		{Box: quad(0, 0, 10, 10), Text: "", Confidence: 0.9},
		{Box: quad(0, 0, 10, 10), Text: "keep", Confidence: 0.9},
	})
	if len(blocks) != 1 || blocks[0].Text != "keep" {
		t.Fatalf("expected only the non-empty block, got %+v", blocks)
	}
}

func TestNormalizeConfidenceFloor(t *testing.T) {
	n := Normalizer{} // default floor 0.30
	blocks := n.Normalize([]RawDetection{
		{Box: quad(0, 0, 10, 10), Text: "low", Confidence: 0.29},
		{Box: quad(0, 0, 10, 10), Text: "edge", Confidence: 0.30},
		{Box: quad(0, 0, 10, 10), Text: "high", Confidence: 0.95},
	})
	if len(blocks) != 2 {
		t.Fatalf("expected 2 blocks past the floor, got %d", len(blocks))
	}
	if blocks[0].Text != "edge" || blocks[1].Text != "high" {
		t.Errorf("unexpected survivors: %+v", blocks)
	}

	loose := Normalizer{MinConfidence: -1}
	if got := loose.Normalize([]RawDetection{{Box: quad(0, 0, 1, 1), Text: "any", Confidence: 0.01}}); len(got) != 1 {
		t.Errorf("disabled floor should keep everything, got %d", len(got))
	}
}

func TestNormalizeMalformedBoxKeepsText(t *testing.T) {
	n := Normalizer{}
	cases := [][]Point{
		nil,
		{},
		{{math.NaN(), 5}, {10, 5}, {10, 10}, {0, 10}},
		{{math.Inf(1), 0}, {1, 0}, {1, 1}, {0, 1}},
	}
	for i, box := range cases {
		blocks := n.Normalize([]RawDetection{{Box: box, Text: "survivor", Confidence: 0.8}})
		if len(blocks) != 1 {
			t.Fatalf("case %d: malformed geometry must not erase the text span", i)
		}
		b := blocks[0]
		if b.XMin != 0 || b.YMin != 0 || b.XMax != 0 || b.YMax != 0 || b.W != 0 || b.H != 0 {
			t.Errorf("case %d: expected degenerate zero box, got %+v", i, b)
		}
	}
}

func TestNormalizeNonRectangularQuad(t *testing.T) {
	// A skewed quadrilateral still yields the axis-aligned min/max bounds.
	n := Normalizer{}
	blocks := n.Normalize([]RawDetection{
		{Box: []Point{{5, 0}, {20, 2}, {18, 12}, {3, 9}}, Text: "skew", Confidence: 0.8},
	})
	if len(blocks) != 1 {
		t.Fatal("expected 1 block")
	}
	b := blocks[0]
	if b.XMin != 3 || b.YMin != 0 || b.XMax != 20 || b.YMax != 12 {
		t.Errorf("unexpected bounds: %+v", b)
	}
}
