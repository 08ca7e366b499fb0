// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package docx

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/notemorph/pkg/types"
)

const filePrefix = "notes-"

// Artifact identifies a written document file.
type Artifact struct {
	Path        string `json:"path"`
	FileName    string `json:"file_name"`
	SidecarPath string `json:"sidecar_path,omitempty"`
}

// Exporter writes rendered documents into an output directory.
type Exporter struct {
	cfg types.ExportConfig
	log *slog.Logger
	now func() time.Time
}

// NewExporter creates an exporter for cfg. A nil logger discards output.
func NewExporter(cfg types.ExportConfig, log *slog.Logger) *Exporter {
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	return &Exporter{cfg: cfg, log: log, now: time.Now}
}

// Export renders doc and writes it as notes-<uuid>.docx. The file appears
// under its final name only once completely written; on any failure no
// artifact is left behind.
func (e *Exporter) Export(ctx context.Context, doc *types.StructuredDocument) (Artifact, error) {
	fileBlocks := Render(doc)
	if err := Validate(fileBlocks); err != nil {
		return Artifact{}, err
	}

	if err := os.MkdirAll(e.cfg.OutputDir, 0o755); err != nil {
		return Artifact{}, fmt.Errorf("creating output directory: %w", err)
	}

	id := uuid.NewString()
	art := Artifact{FileName: filePrefix + id + ".docx"}
	art.Path = filepath.Join(e.cfg.OutputDir, art.FileName)

	meta := Meta{Created: e.now()}
	if doc != nil {
		if doc.HasTitle() {
			meta.Title = *doc.Title
		}
		if doc.Language != nil {
			meta.Language = string(*doc.Language)
		}
	}

	err := writeAtomic(ctx, art.Path, func(w io.Writer) error {
		return Write(w, fileBlocks, meta)
	})
	if err != nil {
		return Artifact{}, err
	}

	if e.cfg.WriteSidecar && doc != nil {
		sidecar := filepath.Join(e.cfg.OutputDir, filePrefix+id+".yaml")
		err := writeAtomic(ctx, sidecar, func(w io.Writer) error {
			enc := yaml.NewEncoder(w)
			enc.SetIndent(2)
			if err := enc.Encode(doc); err != nil {
				return fmt.Errorf("encoding sidecar: %w", err)
			}
			return enc.Close()
		})
		if err != nil {
			os.Remove(art.Path)
			return Artifact{}, err
		}
		art.SidecarPath = sidecar
	}

	e.log.Info("document written", "file", art.FileName, "blocks", len(fileBlocks))
	return art, nil
}

// writeAtomic writes through a temp file in the target directory and
// renames it into place. The temp file is removed on every failure path,
// including cancellation of ctx before the rename.
func writeAtomic(ctx context.Context, path string, fill func(io.Writer) error) (err error) {
	tmp, err := os.CreateTemp(filepath.Dir(path), ".tmp-"+filepath.Base(path)+"-*")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	defer func() {
		if err != nil {
			tmp.Close()
			os.Remove(tmp.Name())
		}
	}()

	if err := fill(tmp); err != nil {
		return fmt.Errorf("writing %s: %w", filepath.Base(path), err)
	}
	if err := tmp.Sync(); err != nil {
		return fmt.Errorf("syncing %s: %w", filepath.Base(path), err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("closing %s: %w", filepath.Base(path), err)
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := os.Chmod(tmp.Name(), 0o644); err != nil {
		return fmt.Errorf("setting permissions: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("moving %s into place: %w", filepath.Base(path), err)
	}
	return nil
}
