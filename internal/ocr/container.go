// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package ocr

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/pdiddy/notemorph/internal/container"
)

// ContainerEngine pipes each image through the tesseract binary of a
// container image. It depends on a container.Runtime (docker or podman)
// injected at construction time.
type ContainerEngine struct {
	runtime  container.Runtime
	image    string
	language string
}

// NewContainerEngine verifies that image exists locally in rt and returns
// an engine recognizing language (e.g. "spa+eng").
func NewContainerEngine(ctx context.Context, rt container.Runtime, image, language string, log *slog.Logger) (*ContainerEngine, error) {
	if err := rt.ImageExists(ctx, image); err != nil {
		return nil, fmt.Errorf("OCR image not available in %s: %w", rt.Name(), err)
	}
	if log != nil {
		log.Debug("container OCR ready", "runtime", rt.Name(), "image", image, "language", language)
	}
	return &ContainerEngine{runtime: rt, image: image, language: language}, nil
}

// Recognize implements Engine.
func (e *ContainerEngine) Recognize(ctx context.Context, imagePath string) (string, error) {
	f, err := os.Open(imagePath)
	if err != nil {
		return "", fmt.Errorf("opening image: %w", err)
	}
	defer f.Close()

	cmd := []string{"tesseract", "stdin", "stdout"}
	if e.language != "" {
		cmd = append(cmd, "-l", e.language)
	}

	var out bytes.Buffer
	if err := e.runtime.Run(ctx, e.image, cmd, f, &out); err != nil {
		return "", err
	}
	return out.String(), nil
}
