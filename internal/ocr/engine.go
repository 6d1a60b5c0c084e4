// Package ocr turns raw per-engine detections into normalized, ordered text
// blocks. The inference engine itself sits behind the Engine interface.
package ocr

import "context"

// Point is one corner of a detection quadrilateral, (x, y).
type Point [2]float64

// RawDetection is one engine detection: a quadrilateral (usually four
// corners), the recognized text, and the engine's confidence in [0,1].
type RawDetection struct {
	Box        []Point
	Text       string
	Confidence float64
}

// Engine produces raw detections for one page image. Implementations are
// treated as synchronous and stateless per call.
type Engine interface {
	RecognizeImage(ctx context.Context, imagePath string) ([]RawDetection, error)
}

// Block is a normalized, positioned unit of recognized text on one page.
type Block struct {
	Text       string  `json:"text"`
	Confidence float64 `json:"confidence"`
	XMin       float64 `json:"x_min"`
	YMin       float64 `json:"y_min"`
	XMax       float64 `json:"x_max"`
	YMax       float64 `json:"y_max"`
	CX         float64 `json:"cx"`
	CY         float64 `json:"cy"`
	W          float64 `json:"w"`
	H          float64 `json:"h"`
	IsMath     bool    `json:"is_math"`
}

// Page is the ordered container of blocks for one rasterized page. Block
// order is reading order and must be preserved through to rendering.
type Page struct {
	PageIndex int     `json:"page_index"` // 1-based
	ImagePath string  `json:"image_path"`
	Blocks    []Block `json:"blocks"`
}

// Document aggregates the per-page OCR results for one job.
type Document struct {
	PageCount   int    `json:"page_count"`
	TotalBlocks int    `json:"total_blocks"`
	Pages       []Page `json:"pages"`
}
