// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/notemorph/internal/docx"
	"github.com/pdiddy/notemorph/internal/history"
	"github.com/pdiddy/notemorph/internal/normalize"
	"github.com/pdiddy/notemorph/internal/ocr"
	"github.com/pdiddy/notemorph/internal/pipeline"
	"github.com/pdiddy/notemorph/pkg/types"
)

// newPipeline resolves the configuration and builds every stage. The
// returned cleanup closes the history store.
func newPipeline(ctx context.Context) (*pipeline.Pipeline, func(), error) {
	cfg, err := loadConfig(viper.GetViper(), loadedSecrets)
	if err != nil {
		return nil, nil, err
	}

	engine, err := ocr.NewEngine(ctx, cfg.OCR, logger)
	if err != nil {
		return nil, nil, fmt.Errorf("setting up OCR: %w", err)
	}

	normalizer, err := newNormalizer(cfg)
	if err != nil {
		return nil, nil, err
	}

	deps := pipeline.Deps{
		OCR:        engine,
		Normalizer: normalizer,
		Exporter:   docx.NewExporter(cfg.Export, logger),
		Log:        logger,
	}

	cleanup := func() {}
	if cfg.History.Enabled {
		store, err := history.Open(cfg.History.DBPath)
		if err != nil {
			return nil, nil, fmt.Errorf("opening run history: %w", err)
		}
		deps.History = store
		cleanup = func() { store.Close() }
	}

	p, err := pipeline.New(cfg, deps)
	if err != nil {
		cleanup()
		return nil, nil, err
	}
	return p, cleanup, nil
}

func newNormalizer(cfg types.PipelineConfig) (*normalize.Normalizer, error) {
	n, err := normalize.New(cfg.AI, logger)
	if err != nil {
		return nil, err
	}
	if n.Degraded() {
		logger.Warn("no AI key configured, notes will be left unstructured", "provider", cfg.AI.Provider)
	}
	return n, nil
}

// loadDocument reads a structured document from a .json, .yaml, or .yml
// file.
func loadDocument(path string) (*types.StructuredDocument, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var doc types.StructuredDocument
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		err = json.Unmarshal(data, &doc)
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, &doc)
	default:
		return nil, fmt.Errorf("unsupported document format %q (want .json, .yaml, or .yml)", filepath.Ext(path))
	}
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	return &doc, nil
}

// writeDocumentYAML encodes doc as YAML with two-space indentation.
func writeDocumentYAML(w io.Writer, doc *types.StructuredDocument) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(doc); err != nil {
		return err
	}
	return enc.Close()
}

// openOutput returns stdout for "" or "-", otherwise a created file.
func openOutput(path string) (io.WriteCloser, error) {
	if path == "" || path == "-" {
		return nopCloser{os.Stdout}, nil
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, err
		}
	}
	return os.Create(path)
}

type nopCloser struct{ io.Writer }

func (nopCloser) Close() error { return nil }
