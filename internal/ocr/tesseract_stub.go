//go:build !ocr

package ocr

import (
	"context"
	"errors"
)

// ErrOCRNotEnabled is returned when the Tesseract engine is requested but
// OCR support was not compiled in. Rebuild with -tags ocr to enable it;
// Tesseract must be installed on the system (apt-get install tesseract-ocr,
// brew install tesseract).
var ErrOCRNotEnabled = errors.New("OCR support not enabled; rebuild with -tags ocr")

// TesseractEngine is the stub used without the "ocr" build tag.
type TesseractEngine struct {
	Language    string
	TessdataDir string
}

func NewTesseractEngine(language, tessdataDir string) (*TesseractEngine, error) {
	return nil, ErrOCRNotEnabled
}

func (e *TesseractEngine) RecognizeImage(ctx context.Context, imagePath string) ([]RawDetection, error) {
	return nil, ErrOCRNotEnabled
}
