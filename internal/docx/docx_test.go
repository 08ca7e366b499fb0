// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package docx

import (
	"archive/zip"
	"bytes"
	"context"
	"encoding/xml"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/notemorph/pkg/types"
)

// --- test helpers ---

func doc(title string, sections ...types.Section) *types.StructuredDocument {
	d := &types.StructuredDocument{Sections: sections}
	if title != "" {
		d.Title = types.StringPtr(title)
	}
	return d
}

func section(heading string, level int, content string) types.Section {
	s := types.Section{Level: level, Content: content}
	if heading != "" {
		s.Heading = types.StringPtr(heading)
	}
	return s
}

// readPart returns the named part of a .docx package.
func readPart(t *testing.T, data []byte, name string) []byte {
	t.Helper()
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	require.NoError(t, err)
	for _, f := range zr.File {
		if f.Name != name {
			continue
		}
		rc, err := f.Open()
		require.NoError(t, err)
		defer rc.Close()
		out, err := io.ReadAll(rc)
		require.NoError(t, err)
		return out
	}
	t.Fatalf("part %s not found", name)
	return nil
}

// paragraphTexts returns the concatenated w:t text of each w:p in
// document.xml, in order, including paragraphs inside table cells.
func paragraphTexts(t *testing.T, documentXML []byte) []string {
	t.Helper()
	dec := xml.NewDecoder(bytes.NewReader(documentXML))
	var out []string
	var cur strings.Builder
	inText := false
	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		require.NoError(t, err)
		switch v := tok.(type) {
		case xml.StartElement:
			switch v.Name.Local {
			case "p":
				cur.Reset()
			case "t":
				inText = true
			}
		case xml.EndElement:
			switch v.Name.Local {
			case "p":
				out = append(out, cur.String())
			case "t":
				inText = false
			}
		case xml.CharData:
			if inText {
				cur.Write(v)
			}
		}
	}
	return out
}

// --- Render ---

func TestRender(t *testing.T) {
	tests := []struct {
		name string
		doc  *types.StructuredDocument
		want []FileBlock
	}{
		{
			name: "nil document",
			doc:  nil,
			want: nil,
		},
		{
			name: "empty document",
			doc:  &types.StructuredDocument{},
			want: nil,
		},
		{
			name: "title and clamped levels",
			doc:  doc("Notes", section("A", 0, ""), section("B", 2, ""), section("C", 9, "")),
			want: []FileBlock{
				Heading{Text: "Notes", Level: LevelTitle},
				Heading{Text: "A", Level: 1},
				Heading{Text: "B", Level: 2},
				Heading{Text: "C", Level: 3},
			},
		},
		{
			name: "lists blank and paragraph",
			doc:  doc("", section("", 1, "- a\n- b\n\n1. x\n2. y\nend")),
			want: []FileBlock{
				ListItem{Text: "a", Kind: ListBullet, Index: 1},
				ListItem{Text: "b", Kind: ListBullet, Index: 2},
				Paragraph{},
				ListItem{Text: "x", Kind: ListNumber, Index: 1},
				ListItem{Text: "y", Kind: ListNumber, Index: 2},
				Paragraph{Text: "end"},
			},
		},
		{
			name: "numbering restarts after interruption",
			doc:  doc("", section("", 1, "1. a\n2. b\ntext\n3. c")),
			want: []FileBlock{
				ListItem{Text: "a", Kind: ListNumber, Index: 1},
				ListItem{Text: "b", Kind: ListNumber, Index: 2},
				Paragraph{Text: "text"},
				ListItem{Text: "c", Kind: ListNumber, Index: 1},
			},
		},
		{
			name: "table widths divide each row",
			doc:  doc("", section("", 1, "|A|B|\n|---|---|\n|1|2|\n| only |")),
			want: []FileBlock{
				Table{Rows: []TableRow{
					{Cells: []TableCell{{Text: "A", WidthPercent: 50}, {Text: "B", WidthPercent: 50}}},
					{Cells: []TableCell{{Text: "1", WidthPercent: 50}, {Text: "2", WidthPercent: 50}}},
					{Cells: []TableCell{{Text: "only", WidthPercent: 100}}},
				}},
			},
		},
		{
			name: "empty table omitted",
			doc:  doc("", section("H", 1, "|---|")),
			want: []FileBlock{Heading{Text: "H", Level: 1}},
		},
		{
			name: "empty heading skipped",
			doc:  doc("", section("", 2, "body")),
			want: []FileBlock{Paragraph{Text: "body"}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Render(tt.doc))
		})
	}
}

// --- Validate ---

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		blocks  []FileBlock
		wantErr bool
	}{
		{"empty", nil, false},
		{"well formed", Render(doc("T", section("H", 1, "- a\n|x|y|"))), false},
		{"heading level too deep", []FileBlock{Heading{Text: "x", Level: 4}}, true},
		{"negative heading level", []FileBlock{Heading{Text: "x", Level: -1}}, true},
		{"list index zero", []FileBlock{ListItem{Text: "x", Kind: ListBullet}}, true},
		{"unknown list kind", []FileBlock{ListItem{Text: "x", Kind: ListKind(7), Index: 1}}, true},
		{"table without rows", []FileBlock{Table{}}, true},
		{"row without cells", []FileBlock{Table{Rows: []TableRow{{}}}}, true},
		{"zero width cell", []FileBlock{Table{Rows: []TableRow{{Cells: []TableCell{{Text: "a"}}}}}}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Validate(tt.blocks)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrRender)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

// --- Write ---

func TestWrite_PackageParts(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Write(&buf, Render(doc("T", section("H", 1, "text"))), Meta{Title: "T", Language: "es"}))

	zr, err := zip.NewReader(bytes.NewReader(buf.Bytes()), int64(buf.Len()))
	require.NoError(t, err)
	var names []string
	for _, f := range zr.File {
		names = append(names, f.Name)
	}
	assert.Equal(t, []string{
		"[Content_Types].xml",
		"_rels/.rels",
		"docProps/core.xml",
		"docProps/app.xml",
		"word/_rels/document.xml.rels",
		"word/styles.xml",
		"word/numbering.xml",
		"word/document.xml",
	}, names)

	for _, name := range names {
		data := readPart(t, buf.Bytes(), name)
		dec := xml.NewDecoder(bytes.NewReader(data))
		for {
			_, err := dec.Token()
			if err == io.EOF {
				break
			}
			require.NoError(t, err, "part %s is not well-formed XML", name)
		}
	}

	assert.Contains(t, string(readPart(t, buf.Bytes(), "word/styles.xml")), `<w:lang w:val="es-ES"/>`)
	core := string(readPart(t, buf.Bytes(), "docProps/core.xml"))
	assert.Contains(t, core, "<dc:title>T</dc:title>")
	assert.Contains(t, core, "<dc:language>es-ES</dc:language>")
}

func TestWrite_TextOrderAndEscaping(t *testing.T) {
	d := doc("Title & <more>",
		section("First", 1, "para one\n- bullet"),
		section("Second", 2, "|A|B|\n|---|---|\n|1|2|"),
	)
	var buf bytes.Buffer
	require.NoError(t, Write(&buf, Render(d), Meta{}))

	got := paragraphTexts(t, readPart(t, buf.Bytes(), "word/document.xml"))
	assert.Equal(t, []string{
		"Title & <more>", "First", "para one", "bullet", "Second",
		"A", "B", "1", "2",
		"", // trailing paragraph after a final table
	}, got)
}

func TestWrite_HeadingStyles(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Write(&buf, Render(doc("T", section("A", 1, ""), section("B", 3, ""))), Meta{}))
	body := string(readPart(t, buf.Bytes(), "word/document.xml"))
	assert.Contains(t, body, `<w:pStyle w:val="Title"></w:pStyle>`)
	assert.Contains(t, body, `<w:pStyle w:val="Heading1"></w:pStyle>`)
	assert.Contains(t, body, `<w:pStyle w:val="Heading3"></w:pStyle>`)
	assert.NotContains(t, body, "Heading2")
}

func TestWrite_NumberedRunsRestart(t *testing.T) {
	var buf bytes.Buffer
	fileBlocks := Render(doc("", section("", 1, "1. a\n2. b\n- c\n1. d")))
	require.NoError(t, Write(&buf, fileBlocks, Meta{}))

	body := string(readPart(t, buf.Bytes(), "word/document.xml"))
	assert.Equal(t, 2, strings.Count(body, `<w:numId w:val="2"></w:numId>`))
	assert.Equal(t, 1, strings.Count(body, `<w:numId w:val="1"></w:numId>`))
	assert.Equal(t, 1, strings.Count(body, `<w:numId w:val="3"></w:numId>`))

	numbering := string(readPart(t, buf.Bytes(), "word/numbering.xml"))
	assert.Equal(t, 3, strings.Count(numbering, "<w:num "))
	assert.Equal(t, 2, strings.Count(numbering, "<w:startOverride"))
}

func TestWrite_EmptyDocument(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Write(&buf, nil, Meta{}))
	assert.Empty(t, paragraphTexts(t, readPart(t, buf.Bytes(), "word/document.xml")))
}

func TestWrite_InvalidBlocks(t *testing.T) {
	var buf bytes.Buffer
	err := Write(&buf, []FileBlock{Table{}}, Meta{})
	assert.ErrorIs(t, err, ErrRender)
	assert.Zero(t, buf.Len())
}

// --- Exporter ---

func TestExport(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "out")
	e := NewExporter(types.ExportConfig{OutputDir: dir}, nil)

	art, err := e.Export(context.Background(), doc("T", section("H", 1, "x")))
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(art.FileName, "notes-"))
	assert.True(t, strings.HasSuffix(art.FileName, ".docx"))
	assert.Equal(t, filepath.Join(dir, art.FileName), art.Path)
	assert.Empty(t, art.SidecarPath)

	data, err := os.ReadFile(art.Path)
	require.NoError(t, err)
	assert.Equal(t, []string{"T", "H", "x"}, paragraphTexts(t, readPart(t, data, "word/document.xml")))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1, "no temp files left behind")
}

func TestExport_UniqueNames(t *testing.T) {
	e := NewExporter(types.ExportConfig{OutputDir: t.TempDir()}, nil)
	a, err := e.Export(context.Background(), doc("A"))
	require.NoError(t, err)
	b, err := e.Export(context.Background(), doc("A"))
	require.NoError(t, err)
	assert.NotEqual(t, a.FileName, b.FileName)
}

func TestExport_Sidecar(t *testing.T) {
	dir := t.TempDir()
	e := NewExporter(types.ExportConfig{OutputDir: dir, WriteSidecar: true}, nil)
	lang := types.LanguageSpanish
	d := doc("T", section("H", 2, "- a"))
	d.Language = &lang

	art, err := e.Export(context.Background(), d)
	require.NoError(t, err)
	require.Equal(t, strings.TrimSuffix(art.Path, ".docx")+".yaml", art.SidecarPath)

	data, err := os.ReadFile(art.SidecarPath)
	require.NoError(t, err)
	var back types.StructuredDocument
	require.NoError(t, yaml.Unmarshal(data, &back))
	assert.Equal(t, *d, back)
}

func TestExport_CancelledLeavesNothing(t *testing.T) {
	dir := t.TempDir()
	e := NewExporter(types.ExportConfig{OutputDir: dir}, nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := e.Export(ctx, doc("T"))
	require.ErrorIs(t, err, context.Canceled)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestExport_FixedClockInCoreProperties(t *testing.T) {
	e := NewExporter(types.ExportConfig{OutputDir: t.TempDir()}, nil)
	e.now = func() time.Time { return time.Date(2026, 3, 1, 10, 30, 0, 0, time.UTC) }

	art, err := e.Export(context.Background(), doc("T"))
	require.NoError(t, err)
	data, err := os.ReadFile(art.Path)
	require.NoError(t, err)
	assert.Contains(t, string(readPart(t, data, "docProps/core.xml")), "2026-03-01T10:30:00Z")
}
