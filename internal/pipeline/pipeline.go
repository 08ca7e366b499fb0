// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package pipeline wires the notes stages together: OCR, normalization,
// and rendering to a document file and an HTML preview.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/pdiddy/notemorph/internal/docx"
	"github.com/pdiddy/notemorph/internal/history"
	"github.com/pdiddy/notemorph/internal/logging"
	"github.com/pdiddy/notemorph/internal/normalize"
	"github.com/pdiddy/notemorph/internal/ocr"
	"github.com/pdiddy/notemorph/internal/preview"
	"github.com/pdiddy/notemorph/pkg/types"
)

var (
	// ErrInput reports unusable input images. Every input error wraps it.
	ErrInput = errors.New("invalid input")

	// ErrNoImages is returned when no image paths are given.
	ErrNoImages = fmt.Errorf("%w: no images provided", ErrInput)

	// ErrOCR wraps any failure of the OCR stage.
	ErrOCR = errors.New("OCR failed")
)

// imageExtensions lists the accepted image file extensions.
var imageExtensions = map[string]bool{
	".png":  true,
	".jpg":  true,
	".jpeg": true,
	".tif":  true,
	".tiff": true,
	".bmp":  true,
	".gif":  true,
	".webp": true,
}

// Recorder stores run records. *history.Store implements it.
type Recorder interface {
	Record(ctx context.Context, run history.Run) error
}

// Deps holds the stage implementations a Pipeline runs. History and Log
// are optional.
type Deps struct {
	OCR        ocr.Engine
	Normalizer *normalize.Normalizer
	Exporter   *docx.Exporter
	History    Recorder
	Log        *slog.Logger
}

// Pipeline processes batches of note images. It holds no per-run state, so
// one Pipeline serves concurrent calls.
type Pipeline struct {
	cfg        types.PipelineConfig
	engine     ocr.Engine
	normalizer *normalize.Normalizer
	exporter   *docx.Exporter
	history    Recorder
	log        *slog.Logger
	newID      func() string
	now        func() time.Time
}

// New builds a Pipeline from cfg and deps.
func New(cfg types.PipelineConfig, deps Deps) (*Pipeline, error) {
	if deps.OCR == nil {
		return nil, errors.New("pipeline: OCR engine is required")
	}
	if deps.Normalizer == nil {
		return nil, errors.New("pipeline: normalizer is required")
	}
	if deps.Exporter == nil {
		return nil, errors.New("pipeline: exporter is required")
	}
	log := deps.Log
	if log == nil {
		log = logging.Discard()
	}
	return &Pipeline{
		cfg:        cfg,
		engine:     deps.OCR,
		normalizer: deps.Normalizer,
		exporter:   deps.Exporter,
		history:    deps.History,
		log:        log,
		newID:      uuid.NewString,
		now:        time.Now,
	}, nil
}

// ProcessImages runs OCR over paths in order, normalizes the text, and
// renders the result. A degraded normalization is reported through
// ProcessResult.Degraded, not as an error. Every run, failed or not, is
// recorded in the history store when one is configured.
func (p *Pipeline) ProcessImages(ctx context.Context, paths []string) (result *types.ProcessResult, err error) {
	runID := p.newID()
	ctx = logging.WithRunID(ctx, runID)
	log := logging.FromContext(ctx, p.log)

	run := history.Run{ID: runID, CreatedAt: p.now(), ImageCount: len(paths)}
	defer func() {
		if err != nil {
			run.Error = err.Error()
			log.Error("run failed", "error", err)
		}
		p.record(context.WithoutCancel(ctx), log, run)
	}()

	if err := p.checkImages(paths); err != nil {
		return nil, err
	}

	log.Info("running OCR", "images", len(paths))
	raw, err := ocr.Run(ctx, p.engine, paths, p.cfg.OCR.Concurrency)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrOCR, err)
	}

	doc, outcome, err := p.normalizer.Normalize(ctx, raw)
	if err != nil {
		return nil, err
	}
	if outcome.Degraded {
		log.Warn("notes left unstructured", "reason", outcome.Reason)
	}

	result, err = p.RenderDocument(ctx, doc)
	if err != nil {
		return nil, err
	}
	result.RunID = runID
	result.Degraded = outcome.Degraded

	run.DocxFileName = result.DocxFileName
	run.SectionCount = len(doc.Sections)
	run.Degraded = outcome.Degraded
	if doc.HasTitle() {
		run.Title = *doc.Title
	}
	return result, nil
}

// RenderDocument writes doc with the pipeline's exporter and renders its
// preview. See Render.
func (p *Pipeline) RenderDocument(ctx context.Context, doc *types.StructuredDocument) (*types.ProcessResult, error) {
	return Render(ctx, p.exporter, doc)
}

// Render writes doc as a document file through exporter and renders its
// preview. Both renderers read the same document, so headings and block
// order agree.
func Render(ctx context.Context, exporter *docx.Exporter, doc *types.StructuredDocument) (*types.ProcessResult, error) {
	art, err := exporter.Export(ctx, doc)
	if err != nil {
		return nil, fmt.Errorf("exporting document: %w", err)
	}
	return &types.ProcessResult{
		PreviewHTML:  preview.Render(doc),
		DocxFileName: art.FileName,
		DocxPath:     art.Path,
	}, nil
}

func (p *Pipeline) checkImages(paths []string) error {
	if len(paths) == 0 {
		return ErrNoImages
	}
	if limit := p.cfg.OCR.MaxImages; limit > 0 && len(paths) > limit {
		return fmt.Errorf("%w: %d images exceeds the limit of %d", ErrInput, len(paths), limit)
	}
	for _, path := range paths {
		ext := strings.ToLower(filepath.Ext(path))
		if !imageExtensions[ext] {
			return fmt.Errorf("%w: %s is not a supported image type", ErrInput, filepath.Base(path))
		}
		info, err := os.Stat(path)
		if err != nil {
			return fmt.Errorf("%w: %w", ErrInput, err)
		}
		if info.IsDir() {
			return fmt.Errorf("%w: %s is a directory", ErrInput, path)
		}
	}
	return nil
}

// record stores run, logging rather than returning a store failure so the
// run's own outcome reaches the caller.
func (p *Pipeline) record(ctx context.Context, log *slog.Logger, run history.Run) {
	if p.history == nil {
		return
	}
	if err := p.history.Record(ctx, run); err != nil {
		log.Warn("recording run history", "error", err)
	}
}
