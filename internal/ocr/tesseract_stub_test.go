// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

//go:build !ocr

package ocr

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTesseractStub(t *testing.T) {
	assert.False(t, Enabled)
	_, err := NewTesseractEngine("spa+eng").Recognize(context.Background(), "page.png")
	assert.ErrorIs(t, err, ErrOCRNotEnabled)
}

func TestRun_StubEngineFails(t *testing.T) {
	_, err := Run(context.Background(), NewTesseractEngine("eng"), []string{"a.png", "b.png"}, 1)
	assert.ErrorIs(t, err, ErrOCRNotEnabled)
	var pe *PageError
	assert.ErrorAs(t, err, &pe)
	assert.Equal(t, 1, pe.Page)
}
