// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

//go:build ocr

package ocr

import (
	"context"
	"fmt"
	"strings"

	"github.com/otiai10/gosseract/v2"
)

// Enabled reports whether Tesseract support is compiled in.
const Enabled = true

// TesseractEngine recognizes images with the Tesseract library. Each call
// uses its own gosseract client, so one engine serves concurrent pages.
type TesseractEngine struct {
	languages []string
}

// NewTesseractEngine returns an engine for a Tesseract language string
// such as "spa+eng".
func NewTesseractEngine(language string) *TesseractEngine {
	var langs []string
	for _, l := range strings.Split(language, "+") {
		if l = strings.TrimSpace(l); l != "" {
			langs = append(langs, l)
		}
	}
	return &TesseractEngine{languages: langs}
}

// Recognize implements Engine. Tesseract itself cannot be interrupted, so
// ctx is checked only before the page starts.
func (e *TesseractEngine) Recognize(ctx context.Context, imagePath string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	client := gosseract.NewClient()
	defer client.Close()

	if len(e.languages) > 0 {
		if err := client.SetLanguage(e.languages...); err != nil {
			return "", fmt.Errorf("setting OCR language: %w", err)
		}
	}
	if err := client.SetImage(imagePath); err != nil {
		return "", fmt.Errorf("failed to set image: %w", err)
	}

	text, err := client.Text()
	if err != nil {
		return "", fmt.Errorf("OCR failed: %w", err)
	}
	return text, nil
}
