//go:build !cgo

package ocr

import (
	"context"
	"image"
)

// Tesseract is unavailable in builds without cgo.
type Tesseract struct{}

// NewTesseract always fails with ErrOCRUnavailable.
func NewTesseract(cfg TesseractConfig) (*Tesseract, error) {
	return nil, ErrOCRUnavailable
}

func (t *Tesseract) Recognize(ctx context.Context, region image.Image, hint Hint) ([]Candidate, error) {
	return nil, ErrOCRUnavailable
}

func (t *Tesseract) ExtractLines(ctx context.Context, img image.Image, language string) (*OCRResult, error) {
	return nil, ErrOCRUnavailable
}

func (t *Tesseract) ExtractText(ctx context.Context, path, language string) (*OCRResult, error) {
	return nil, ErrOCRUnavailable
}

func (t *Tesseract) Close() error { return nil }

// Info reports that OCR is not available.
func Info() OCRInfo {
	return OCRInfo{Available: false, Backend: "none", Error: ErrOCRUnavailable.Error()}
}
