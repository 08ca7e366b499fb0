// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package docx renders a structured notes document into WordprocessingML
// (.docx) files.
//
// Rendering happens in two steps. Render maps the document to a flat
// sequence of FileBlocks (headings, paragraphs, list items, tables) using
// the shared mini-syntax parser; Write serializes that sequence into a
// .docx package. Exporter ties both to an output directory.
package docx

import (
	"github.com/pdiddy/notemorph/internal/blocks"
	"github.com/pdiddy/notemorph/pkg/types"
)

// LevelTitle is the heading level used for the document title.
const LevelTitle = 0

// FileBlock is one body element of the output document. The concrete types
// are Heading, Paragraph, ListItem, and Table.
type FileBlock interface {
	fileBlock()
}

// Heading is a title (Level 0) or section heading (Level 1-3).
type Heading struct {
	Text  string
	Level int
}

// Paragraph is a body paragraph. Empty text produces vertical space.
type Paragraph struct {
	Text string
}

// ListKind selects the list marker.
type ListKind int

const (
	ListBullet ListKind = iota
	ListNumber
)

func (k ListKind) String() string {
	if k == ListNumber {
		return "number"
	}
	return "bullet"
}

// ListItem is one list entry. Index is its 1-based position within the
// contiguous run of items it belongs to; numbered lists restart at 1.
type ListItem struct {
	Text  string
	Kind  ListKind
	Index int
}

// Table is a grid of text cells.
type Table struct {
	Rows []TableRow
}

// TableRow is one table row.
type TableRow struct {
	Cells []TableCell
}

// TableCell is one cell. WidthPercent divides the row evenly.
type TableCell struct {
	Text         string
	WidthPercent float64
}

func (Heading) fileBlock()   {}
func (Paragraph) fileBlock() {}
func (ListItem) fileBlock()  {}
func (Table) fileBlock()     {}

// Render maps doc to file blocks: an optional title heading, then for each
// section its heading followed by its parsed content. Tables without rows
// are omitted. A nil or empty document yields no blocks.
func Render(doc *types.StructuredDocument) []FileBlock {
	if doc == nil {
		return nil
	}

	var out []FileBlock
	if doc.HasTitle() {
		out = append(out, Heading{Text: *doc.Title, Level: LevelTitle})
	}

	for _, sec := range doc.Sections {
		if sec.HasHeading() {
			out = append(out, Heading{Text: *sec.Heading, Level: sec.EffectiveLevel()})
		}
		out = append(out, contentBlocks(blocks.Parse(sec.Content))...)
	}
	return out
}

func contentBlocks(bs []blocks.Block) []FileBlock {
	var out []FileBlock
	var prev blocks.Kind = -1
	index := 0

	for _, b := range bs {
		if b.Kind() != prev {
			index = 0
		}
		prev = b.Kind()

		switch v := b.(type) {
		case blocks.Blank:
			out = append(out, Paragraph{})
		case blocks.Paragraph:
			out = append(out, Paragraph{Text: v.Text})
		case blocks.BulletItem:
			index++
			out = append(out, ListItem{Text: v.Text, Kind: ListBullet, Index: index})
		case blocks.NumberedItem:
			index++
			out = append(out, ListItem{Text: v.Text, Kind: ListNumber, Index: index})
		case blocks.Table:
			if len(v.Rows) > 0 {
				out = append(out, tableBlock(v))
			}
		}
	}
	return out
}

func tableBlock(t blocks.Table) Table {
	rows := make([]TableRow, len(t.Rows))
	for i, cells := range t.Rows {
		width := 100 / float64(len(cells))
		row := TableRow{Cells: make([]TableCell, len(cells))}
		for j, c := range cells {
			row.Cells[j] = TableCell{Text: c, WidthPercent: width}
		}
		rows[i] = row
	}
	return Table{Rows: rows}
}
