// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package ocr recognizes text in note images and concatenates the pages in
// input order, each preceded by a page separator.
//
// Two engines are available: TesseractEngine links the Tesseract library
// through gosseract (build tag "ocr"), and ContainerEngine runs the
// tesseract binary inside a docker or podman container.
package ocr

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/pdiddy/notemorph/internal/container"
	"github.com/pdiddy/notemorph/pkg/types"
)

// ErrOCRNotEnabled is returned by TesseractEngine when Tesseract support
// was not compiled in. Rebuild with -tags ocr to enable it.
var ErrOCRNotEnabled = errors.New("OCR support not enabled; rebuild with -tags ocr")

// Engine recognizes the text of one image file.
type Engine interface {
	Recognize(ctx context.Context, imagePath string) (string, error)
}

// PageError reports the page whose recognition failed.
type PageError struct {
	Page int // 1-based
	Path string
	Err  error
}

func (e *PageError) Error() string {
	return fmt.Sprintf("page %d (%s): %v", e.Page, e.Path, e.Err)
}

func (e *PageError) Unwrap() error { return e.Err }

// PageSeparator returns the marker written before page n (1-based).
func PageSeparator(n int) string {
	return fmt.Sprintf("\n\n--- PAGE %d ---\n\n", n)
}

// Run recognizes paths with up to concurrency pages in flight and returns
// their text in input order, each page preceded by PageSeparator. The
// first failure cancels the remaining pages and is returned as a
// *PageError.
func Run(ctx context.Context, engine Engine, paths []string, concurrency int) (string, error) {
	if concurrency <= 0 {
		concurrency = 1
	}
	concurrency = min(concurrency, max(len(paths), 1))

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	texts := make([]string, len(paths))
	errs := make([]error, len(paths))
	jobs := make(chan int)

	var wg sync.WaitGroup
	for range concurrency {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				text, err := engine.Recognize(ctx, paths[i])
				if err != nil {
					errs[i] = &PageError{Page: i + 1, Path: paths[i], Err: err}
					cancel()
					continue
				}
				texts[i] = text
			}
		}()
	}

feed:
	for i := range paths {
		select {
		case jobs <- i:
		case <-ctx.Done():
			break feed
		}
	}
	close(jobs)
	wg.Wait()

	// Report the earliest page that failed for its own reason rather than
	// because a sibling cancelled it.
	var first error
	for _, err := range errs {
		if err == nil {
			continue
		}
		if first == nil {
			first = err
		}
		if !errors.Is(err, context.Canceled) {
			return "", err
		}
	}
	if first != nil {
		return "", first
	}
	if err := ctx.Err(); err != nil && len(paths) > 0 {
		// Parent cancelled before every page was dispatched.
		return "", err
	}

	var b strings.Builder
	for i, text := range texts {
		b.WriteString(PageSeparator(i + 1))
		b.WriteString(text)
	}
	return b.String(), nil
}

// NewEngine builds the engine selected by cfg.Backend.
func NewEngine(ctx context.Context, cfg types.OCRConfig, log *slog.Logger) (Engine, error) {
	switch cfg.Backend {
	case types.OCRTesseract, "":
		return NewTesseractEngine(cfg.Language), nil
	case types.OCRContainer:
		rt, err := container.DetectRuntime(ctx)
		if err != nil {
			return nil, err
		}
		return NewContainerEngine(ctx, rt, cfg.Image, cfg.Language, log)
	}
	return nil, fmt.Errorf("unknown OCR backend %q", cfg.Backend)
}
