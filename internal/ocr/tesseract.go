//go:build ocr

package ocr

import (
	"context"
	"errors"
	"fmt"

	"github.com/otiai10/gosseract/v2"
)

// ErrOCRNotEnabled matches the stub build; with the "ocr" tag it is never
// returned but callers may still reference it.
var ErrOCRNotEnabled = errors.New("OCR support not enabled; rebuild with -tags ocr")

// TesseractEngine runs Tesseract via gosseract and adapts its line boxes
// into raw detections. Requires the "ocr" build tag and a system Tesseract
// install; without the tag the stub in tesseract_stub.go is compiled.
type TesseractEngine struct {
	Language    string // "+"-separated, default "eng"
	TessdataDir string
}

func NewTesseractEngine(language, tessdataDir string) (*TesseractEngine, error) {
	if language == "" {
		language = "eng"
	}
	// Fail fast at construction if Tesseract is unusable.
	client := gosseract.NewClient()
	defer client.Close()
	if err := client.SetLanguage(language); err != nil {
		return nil, fmt.Errorf("tesseract unavailable: %w", err)
	}
	return &TesseractEngine{Language: language, TessdataDir: tessdataDir}, nil
}

// RecognizeImage OCRs one page image. A fresh client per call keeps the
// engine stateless, so concurrent pages never share Tesseract state.
func (e *TesseractEngine) RecognizeImage(ctx context.Context, imagePath string) ([]RawDetection, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	client := gosseract.NewClient()
	defer client.Close()

	if err := client.SetLanguage(e.Language); err != nil {
		return nil, fmt.Errorf("set language: %w", err)
	}
	if e.TessdataDir != "" {
		if err := client.SetTessdataPrefix(e.TessdataDir); err != nil {
			return nil, fmt.Errorf("set tessdata prefix: %w", err)
		}
	}
	if err := client.SetImage(imagePath); err != nil {
		return nil, fmt.Errorf("set image: %w", err)
	}

	boxes, err := client.GetBoundingBoxes(gosseract.RIL_TEXTLINE)
	if err != nil {
		return nil, fmt.Errorf("get bounding boxes: %w", err)
	}

	dets := make([]RawDetection, 0, len(boxes))
	for _, bb := range boxes {
		r := bb.Box
		dets = append(dets, RawDetection{
			Box: []Point{
				{float64(r.Min.X), float64(r.Min.Y)},
				{float64(r.Max.X), float64(r.Min.Y)},
				{float64(r.Max.X), float64(r.Max.Y)},
				{float64(r.Min.X), float64(r.Max.Y)},
			},
			Text:       bb.Word,
			Confidence: bb.Confidence / 100.0, // tesseract reports 0..100
		})
	}
	return dets, nil
}
