// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

//go:build !ocr

package ocr

import "context"

// Enabled reports whether Tesseract support is compiled in.
const Enabled = false

// TesseractEngine is the stub used when the "ocr" build tag is not set.
// Recognize always returns ErrOCRNotEnabled; use the container backend or
// rebuild with -tags ocr.
type TesseractEngine struct{}

// NewTesseractEngine returns the stub engine.
func NewTesseractEngine(string) *TesseractEngine {
	return &TesseractEngine{}
}

// Recognize implements Engine.
func (*TesseractEngine) Recognize(context.Context, string) (string, error) {
	return "", ErrOCRNotEnabled
}
