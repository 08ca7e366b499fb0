// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package pipeline

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/pdiddy/notemorph/internal/docx"
	"github.com/pdiddy/notemorph/internal/history"
	"github.com/pdiddy/notemorph/internal/normalize"
	"github.com/pdiddy/notemorph/internal/ocr"
	"github.com/pdiddy/notemorph/internal/preview"
	"github.com/pdiddy/notemorph/pkg/types"
)

// --- fakes ---

type pageEngine struct {
	texts map[string]string
	err   error
}

func (e *pageEngine) Recognize(_ context.Context, path string) (string, error) {
	if e.err != nil {
		return "", e.err
	}
	return e.texts[filepath.Base(path)], nil
}

type fakeBackend struct {
	response string
	err      error
	got      string
}

func (b *fakeBackend) Name() string { return "fake" }

func (b *fakeBackend) Complete(_ context.Context, raw string) (string, error) {
	b.got = raw
	return b.response, b.err
}

const structuredJSON = `{
  "title": "Biología",
  "language": "es",
  "sections": [
    {"heading": "La célula", "level": 1, "content": "Unidad básica.\n\n- núcleo\n- membrana"},
    {"heading": "Tipos", "level": 2, "content": "| Tipo | Núcleo |\n|---|---|\n| procariota | no |\n| eucariota | sí |"},
    {"heading": null, "level": 1, "content": "1. observar\n2. describir"}
  ]
}`

// --- helpers ---

type fixture struct {
	pipeline  *Pipeline
	backend   *fakeBackend
	engine    *pageEngine
	store     *history.Store
	outputDir string
	imageDir  string
}

func newFixture(t *testing.T, backend *fakeBackend) *fixture {
	t.Helper()
	root := t.TempDir()
	f := &fixture{
		backend:   backend,
		engine:    &pageEngine{texts: map[string]string{}},
		outputDir: filepath.Join(root, "output"),
		imageDir:  filepath.Join(root, "images"),
	}
	require.NoError(t, os.MkdirAll(f.imageDir, 0o755))

	store, err := history.Open(filepath.Join(root, "history.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	f.store = store

	cfg := types.DefaultPipelineConfig()
	cfg.Export.OutputDir = f.outputDir
	cfg.AI.MaxRetries = 0

	var nb normalize.Backend
	if backend != nil {
		nb = backend
	}
	p, err := New(cfg, Deps{
		OCR:        f.engine,
		Normalizer: normalize.NewWithBackend(nb, cfg.AI, nil),
		Exporter:   docx.NewExporter(cfg.Export, nil),
		History:    store,
	})
	require.NoError(t, err)
	f.pipeline = p
	return f
}

// image creates an image file and registers the text OCR returns for it.
func (f *fixture) image(t *testing.T, name, text string) string {
	t.Helper()
	path := filepath.Join(f.imageDir, name)
	require.NoError(t, os.WriteFile(path, []byte("img"), 0o644))
	f.engine.texts[name] = text
	return path
}

func (f *fixture) runs(t *testing.T) []history.Run {
	t.Helper()
	runs, err := f.store.List(context.Background(), 0)
	require.NoError(t, err)
	return runs
}

func (f *fixture) outputFiles(t *testing.T) []string {
	t.Helper()
	entries, err := os.ReadDir(f.outputDir)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	require.NoError(t, err)
	var names []string
	for _, e := range entries {
		names = append(names, e.Name())
	}
	return names
}

// --- ProcessImages ---

func TestProcessImages(t *testing.T) {
	f := newFixture(t, &fakeBackend{response: structuredJSON})
	paths := []string{
		f.image(t, "p1.png", "la celula"),
		f.image(t, "p2.JPG", "tipos"),
	}

	res, err := f.pipeline.ProcessImages(context.Background(), paths)
	require.NoError(t, err)

	assert.Equal(t,
		"\n\n--- PAGE 1 ---\n\nla celula\n\n--- PAGE 2 ---\n\ntipos",
		f.backend.got)
	assert.False(t, res.Degraded)
	assert.NotEmpty(t, res.RunID)
	assert.True(t, strings.HasPrefix(res.DocxFileName, "notes-"))
	assert.Equal(t, filepath.Join(f.outputDir, res.DocxFileName), res.DocxPath)
	assert.FileExists(t, res.DocxPath)

	assert.True(t, strings.HasPrefix(res.PreviewHTML, "<h1>Biología</h1><h2>La célula</h2><p>Unidad básica.</p>"))
	assert.Contains(t, res.PreviewHTML, "<ul><li>núcleo</li><li>membrana</li></ul>")
	assert.Contains(t, res.PreviewHTML, "<ol><li>observar</li><li>describir</li></ol>")

	runs := f.runs(t)
	require.Len(t, runs, 1)
	assert.Equal(t, res.RunID, runs[0].ID)
	assert.Equal(t, 2, runs[0].ImageCount)
	assert.Equal(t, res.DocxFileName, runs[0].DocxFileName)
	assert.Equal(t, "Biología", runs[0].Title)
	assert.Equal(t, 3, runs[0].SectionCount)
	assert.False(t, runs[0].Failed())
}

func TestProcessImages_DegradedWithoutService(t *testing.T) {
	f := newFixture(t, nil)
	raw := "a < b & c"

	res, err := f.pipeline.ProcessImages(context.Background(), []string{f.image(t, "p.png", raw)})
	require.NoError(t, err)

	assert.True(t, res.Degraded)
	assert.Contains(t, res.PreviewHTML, "<h2>"+types.FallbackHeading+"</h2>")
	assert.Contains(t, res.PreviewHTML, "<p>a &lt; b &amp; c</p>")
	assert.NotContains(t, res.PreviewHTML, "<h1>")
	assert.FileExists(t, res.DocxPath)

	runs := f.runs(t)
	require.Len(t, runs, 1)
	assert.True(t, runs[0].Degraded)
	assert.Equal(t, 1, runs[0].SectionCount)
}

func TestProcessImages_DegradedOnQuota(t *testing.T) {
	f := newFixture(t, &fakeBackend{err: &normalize.ServiceError{Provider: "fake", StatusCode: 429}})

	res, err := f.pipeline.ProcessImages(context.Background(), []string{f.image(t, "p.png", "texto")})
	require.NoError(t, err)
	assert.True(t, res.Degraded)
	assert.Contains(t, res.PreviewHTML, "texto")
}

func TestProcessImages_InputErrors(t *testing.T) {
	f := newFixture(t, &fakeBackend{response: structuredJSON})
	ok := f.image(t, "ok.png", "x")
	notImage := f.image(t, "notes.pdf", "x")

	var tooMany []string
	for i := range 11 {
		tooMany = append(tooMany, f.image(t, fmt.Sprintf("p%d.png", i), "x"))
	}

	tests := []struct {
		name  string
		paths []string
	}{
		{"none", nil},
		{"unsupported type", []string{ok, notImage}},
		{"missing file", []string{filepath.Join(f.imageDir, "gone.png")}},
		{"directory", []string{filepath.Join(t.TempDir(), "dir.png")}},
		{"too many", tooMany},
	}
	require.NoError(t, os.Mkdir(tests[3].paths[0], 0o755))

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.pipeline.ProcessImages(context.Background(), tt.paths)
			assert.ErrorIs(t, err, ErrInput)
		})
	}

	assert.Empty(t, f.backend.got)
	assert.Empty(t, f.outputFiles(t))

	runs := f.runs(t)
	require.Len(t, runs, len(tests))
	for _, r := range runs {
		assert.True(t, r.Failed())
	}
}

func TestProcessImages_NoImages(t *testing.T) {
	f := newFixture(t, nil)
	_, err := f.pipeline.ProcessImages(context.Background(), []string{})
	assert.ErrorIs(t, err, ErrNoImages)
}

func TestProcessImages_OCRFailure(t *testing.T) {
	f := newFixture(t, &fakeBackend{response: structuredJSON})
	path := f.image(t, "p.png", "")
	f.engine.err = errors.New("tesseract crashed")

	_, err := f.pipeline.ProcessImages(context.Background(), []string{path})
	require.ErrorIs(t, err, ErrOCR)

	var pe *ocr.PageError
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, 1, pe.Page)
	assert.Empty(t, f.backend.got)

	runs := f.runs(t)
	require.Len(t, runs, 1)
	assert.Contains(t, runs[0].Error, "tesseract crashed")
}

func TestProcessImages_NormalizationFailure(t *testing.T) {
	tests := []struct {
		name    string
		backend *fakeBackend
	}{
		{"service error", &fakeBackend{err: &normalize.ServiceError{Provider: "fake", StatusCode: 400, Message: "bad request"}}},
		{"not JSON", &fakeBackend{response: "Sure! Here are your notes."}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, tt.backend)
			_, err := f.pipeline.ProcessImages(context.Background(), []string{f.image(t, "p.png", "x")})
			assert.ErrorIs(t, err, normalize.ErrNormalization)
			assert.Empty(t, f.outputFiles(t))
		})
	}
}

func TestProcessImages_HistoryFailureDoesNotFailRun(t *testing.T) {
	f := newFixture(t, nil)
	require.NoError(t, f.store.Close())

	res, err := f.pipeline.ProcessImages(context.Background(), []string{f.image(t, "p.png", "x")})
	require.NoError(t, err)
	assert.True(t, res.Degraded)
}

func TestProcessImages_FixedIDAndClock(t *testing.T) {
	f := newFixture(t, nil)
	at := time.Date(2026, 5, 4, 12, 0, 0, 0, time.UTC)
	f.pipeline.newID = func() string { return "run-fixed" }
	f.pipeline.now = func() time.Time { return at }

	res, err := f.pipeline.ProcessImages(context.Background(), []string{f.image(t, "p.png", "x")})
	require.NoError(t, err)
	assert.Equal(t, "run-fixed", res.RunID)

	run, err := f.store.Get(context.Background(), "run-fixed")
	require.NoError(t, err)
	assert.True(t, at.Equal(run.CreatedAt))
}

// --- New ---

func TestNew_RequiresStages(t *testing.T) {
	cfg := types.DefaultPipelineConfig()
	n := normalize.NewWithBackend(nil, cfg.AI, nil)
	e := docx.NewExporter(cfg.Export, nil)
	engine := &pageEngine{}

	_, err := New(cfg, Deps{Normalizer: n, Exporter: e})
	assert.Error(t, err)
	_, err = New(cfg, Deps{OCR: engine, Exporter: e})
	assert.Error(t, err)
	_, err = New(cfg, Deps{OCR: engine, Normalizer: n})
	assert.Error(t, err)
	_, err = New(cfg, Deps{OCR: engine, Normalizer: n, Exporter: e})
	assert.NoError(t, err)
}

// --- renderer agreement ---

type heading struct {
	text  string
	level int // 0 = title
}

func fileHeadings(doc *types.StructuredDocument) []heading {
	var out []heading
	for _, b := range docx.Render(doc) {
		if h, ok := b.(docx.Heading); ok {
			out = append(out, heading{h.Text, h.Level})
		}
	}
	return out
}

func previewHeadings(doc *types.StructuredDocument) []heading {
	levels := map[atom.Atom]int{atom.H1: 0, atom.H2: 1, atom.H3: 2, atom.H4: 3}
	var out []heading
	for _, n := range preview.Nodes(doc) {
		if lvl, ok := levels[n.DataAtom]; ok && n.Type == html.ElementNode {
			out = append(out, heading{n.FirstChild.Data, lvl})
		}
	}
	return out
}

func TestRenderersAgreeOnHeadings(t *testing.T) {
	docs := map[string]*types.StructuredDocument{
		"titled": {
			Title: types.StringPtr("Notas"),
			Sections: []types.Section{
				{Heading: types.StringPtr("Uno"), Level: 1, Content: "a"},
				{Heading: types.StringPtr("Dos"), Level: 2},
				{Heading: types.StringPtr("Tres"), Level: 3, Content: "- x"},
				{Heading: types.StringPtr("Clamped high"), Level: 9},
				{Heading: types.StringPtr("Clamped low"), Level: -2},
				{Heading: types.StringPtr("Unset"), Content: "b"},
				{Heading: nil, Level: 2, Content: "untitled"},
				{Heading: types.StringPtr(""), Level: 2, Content: "empty heading"},
			},
		},
		"untitled": {
			Sections: []types.Section{{Heading: types.StringPtr("Solo"), Level: 2}},
		},
		"fallback": types.FallbackDocument("raw <text>"),
		"empty":    {},
	}

	for name, doc := range docs {
		t.Run(name, func(t *testing.T) {
			assert.Equal(t, fileHeadings(doc), previewHeadings(doc))
		})
	}

	assert.Equal(t, []heading{
		{"Notas", 0}, {"Uno", 1}, {"Dos", 2}, {"Tres", 3},
		{"Clamped high", 3}, {"Clamped low", 1}, {"Unset", 1},
	}, fileHeadings(docs["titled"]))
}

func TestRenderDocument(t *testing.T) {
	f := newFixture(t, nil)
	doc := &types.StructuredDocument{
		Title:    types.StringPtr("T"),
		Sections: []types.Section{{Heading: types.StringPtr("S"), Level: 1, Content: "texto"}},
	}

	res, err := f.pipeline.RenderDocument(context.Background(), doc)
	require.NoError(t, err)
	assert.Equal(t, "<h1>T</h1><h2>S</h2><p>texto</p>", res.PreviewHTML)
	assert.FileExists(t, res.DocxPath)
	assert.Empty(t, res.RunID)
	assert.Empty(t, f.runs(t))
}
