package ocr

import (
	"math"
	"strings"
)

// DefaultMinConfidence is the default confidence floor for keeping a block.
const DefaultMinConfidence = 0.30

// Normalizer converts raw detections into Blocks and filters out the ones
// not worth keeping.
type Normalizer struct {
	// MinConfidence drops blocks whose engine confidence is below the floor.
	// Zero means DefaultMinConfidence; a negative value disables the filter.
	MinConfidence float64
}

func (n Normalizer) floor() float64 {
	if n.MinConfidence == 0 {
		return DefaultMinConfidence
	}
	if n.MinConfidence < 0 {
		return 0
	}
	return n.MinConfidence
}

// Normalize derives one Block per detection. Detections whose text is empty
// after trimming are dropped; detections below the confidence floor are
// dropped; a detection with unusable corner geometry is still kept, with a
// degenerate zero-sized box, so a recognized text span is never silently
// erased by bad geometry.
func (n Normalizer) Normalize(dets []RawDetection) []Block {
	floor := n.floor()
	blocks := make([]Block, 0, len(dets))

	for _, d := range dets {
		text := strings.TrimSpace(d.Text)
		if text == "" {
			continue
		}
		if d.Confidence < floor {
			continue
		}

		xMin, yMin, xMax, yMax := boxToRect(d.Box)
		blocks = append(blocks, Block{
			Text:       text,
			Confidence: d.Confidence,
			XMin:       xMin,
			YMin:       yMin,
			XMax:       xMax,
			YMax:       yMax,
			CX:         (xMin + xMax) / 2.0,
			CY:         (yMin + yMax) / 2.0,
			W:          xMax - xMin,
			H:          yMax - yMin,
		})
	}
	return blocks
}

// boxToRect converts a corner quadrilateral into axis-aligned rectangle
// bounds. Malformed boxes (no corners, NaN/Inf coordinates) fall back to a
// zero-sized rect at the origin.
func boxToRect(box []Point) (xMin, yMin, xMax, yMax float64) {
	if len(box) == 0 {
		return 0, 0, 0, 0
	}
	xMin, yMin = math.Inf(1), math.Inf(1)
	xMax, yMax = math.Inf(-1), math.Inf(-1)
	for _, pt := range box {
		x, y := pt[0], pt[1]
		if math.IsNaN(x) || math.IsInf(x, 0) || math.IsNaN(y) || math.IsInf(y, 0) {
			return 0, 0, 0, 0
		}
		xMin = math.Min(xMin, x)
		yMin = math.Min(yMin, y)
		xMax = math.Max(xMax, x)
		yMax = math.Max(yMax, y)
	}
	return xMin, yMin, xMax, yMax
}
