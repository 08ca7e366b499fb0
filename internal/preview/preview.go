// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package preview renders a structured notes document as an HTML fragment
// for on-screen review.
//
// The fragment is assembled as an x/net/html node tree and serialized with
// html.Render, so every text node is escaped on output. Section content goes
// through blocks.Parse, the same parser the document-file renderer uses.
package preview

import (
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/pdiddy/notemorph/internal/blocks"
	"github.com/pdiddy/notemorph/pkg/types"
)

// sectionHeadings maps section levels 1-3 to h2-h4; h1 is the title.
var sectionHeadings = map[int]atom.Atom{
	1: atom.H2,
	2: atom.H3,
	3: atom.H4,
}

// Render returns the HTML preview of doc. A nil or empty document renders
// as the empty string.
func Render(doc *types.StructuredDocument) string {
	var b strings.Builder
	for _, n := range Nodes(doc) {
		// strings.Builder never fails and no void element gets children.
		_ = html.Render(&b, n)
	}
	return b.String()
}

// Nodes returns the top-level nodes of the preview fragment in document
// order.
func Nodes(doc *types.StructuredDocument) []*html.Node {
	if doc == nil {
		return nil
	}

	var out []*html.Node
	if doc.HasTitle() {
		out = append(out, textElement(atom.H1, *doc.Title))
	}

	for _, sec := range doc.Sections {
		if sec.HasHeading() {
			out = append(out, textElement(sectionHeadings[sec.EffectiveLevel()], *sec.Heading))
		}
		out = append(out, renderBlocks(blocks.Parse(sec.Content))...)
	}
	return out
}

// renderBlocks maps blocks to nodes, wrapping each contiguous run of list
// items in a single ul or ol.
func renderBlocks(bs []blocks.Block) []*html.Node {
	var (
		out      []*html.Node
		list     *html.Node
		listKind blocks.Kind
	)

	for _, b := range bs {
		switch v := b.(type) {
		case blocks.BulletItem, blocks.NumberedItem:
			kind := v.Kind()
			if list == nil || listKind != kind {
				list = element(listAtom(kind))
				listKind = kind
				out = append(out, list)
			}
			list.AppendChild(textElement(atom.Li, itemText(v)))
			continue
		case blocks.Blank:
			out = append(out, element(atom.Br))
		case blocks.Paragraph:
			out = append(out, textElement(atom.P, v.Text))
		case blocks.Table:
			if t := tableNode(v); t != nil {
				out = append(out, t)
			}
		}
		list = nil
	}
	return out
}

// tableNode renders the first row as header cells. Tables without rows are
// omitted.
func tableNode(t blocks.Table) *html.Node {
	if len(t.Rows) == 0 {
		return nil
	}
	table := element(atom.Table)
	for i, row := range t.Rows {
		cellAtom := atom.Td
		if i == 0 {
			cellAtom = atom.Th
		}
		tr := element(atom.Tr)
		for _, cell := range row {
			tr.AppendChild(textElement(cellAtom, cell))
		}
		table.AppendChild(tr)
	}
	return table
}

func listAtom(kind blocks.Kind) atom.Atom {
	if kind == blocks.KindNumbered {
		return atom.Ol
	}
	return atom.Ul
}

func itemText(b blocks.Block) string {
	switch v := b.(type) {
	case blocks.BulletItem:
		return v.Text
	case blocks.NumberedItem:
		return v.Text
	}
	return ""
}

func element(a atom.Atom) *html.Node {
	return &html.Node{Type: html.ElementNode, DataAtom: a, Data: a.String()}
}

func textElement(a atom.Atom, text string) *html.Node {
	n := element(a)
	n.AppendChild(&html.Node{Type: html.TextNode, Data: text})
	return n
}
