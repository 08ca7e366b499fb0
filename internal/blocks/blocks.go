// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package blocks parses the plain-text mini-syntax embedded in a section's
// content into an ordered sequence of typed content blocks.
//
// The syntax is line oriented:
//
//	(empty line)          Blank
//	- item / * item       BulletItem (also "•")
//	1. item / 1) item     NumberedItem (the numeral is discarded)
//	| a | b |             Table row (any line with two or more pipes)
//	|---|---|             Table separator, dropped
//	anything else         Paragraph, consecutive lines joined by a space
//
// Both the document-file renderer and the preview renderer build on Parse,
// so they always agree on the block sequence for a given input.
package blocks

import (
	"regexp"
	"strings"
)

// Kind identifies the variant of a Block.
type Kind int

const (
	KindBlank Kind = iota
	KindParagraph
	KindBullet
	KindNumbered
	KindTable
)

var kindNames = map[Kind]string{
	KindBlank:     "blank",
	KindParagraph: "paragraph",
	KindBullet:    "bullet",
	KindNumbered:  "numbered",
	KindTable:     "table",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return "unknown"
}

// Block is one parsed unit of content. The concrete types are Blank,
// Paragraph, BulletItem, NumberedItem, and Table.
type Block interface {
	Kind() Kind
}

// Blank marks deliberate vertical space, produced from an empty line.
type Blank struct{}

// Paragraph is a run of ordinary lines joined with single spaces.
type Paragraph struct {
	Text string
}

// BulletItem is one unordered list entry with its prefix stripped.
type BulletItem struct {
	Text string
}

// NumberedItem is one ordered list entry with its numeral stripped.
// Renderers derive the ordinal from the item's position in its run.
type NumberedItem struct {
	Text string
}

// Table is a pipe-delimited table. Rows never contain empty cells.
// A table made only of separator lines has no rows.
type Table struct {
	Rows [][]string
}

func (Blank) Kind() Kind        { return KindBlank }
func (Paragraph) Kind() Kind    { return KindParagraph }
func (BulletItem) Kind() Kind   { return KindBullet }
func (NumberedItem) Kind() Kind { return KindNumbered }
func (Table) Kind() Kind        { return KindTable }

// Columns returns the widest row's cell count.
func (t Table) Columns() int {
	n := 0
	for _, row := range t.Rows {
		if len(row) > n {
			n = len(row)
		}
	}
	return n
}

var (
	newlinePattern  = regexp.MustCompile(`\r\n|\r|\n`)
	bulletPattern   = regexp.MustCompile(`^[-*•]\s+`)
	numberedPattern = regexp.MustCompile(`^\d+[.)]\s+`)
	separatorCell   = regexp.MustCompile(`^:?-+:?$`)
)

// Parse converts content into blocks. It never fails; empty content yields
// no blocks. The result depends only on the input text.
func Parse(content string) []Block {
	lines := splitLines(content)
	var out []Block

	for i := 0; i < len(lines); {
		kind := classify(lines[i])

		if kind == KindBlank {
			out = append(out, Blank{})
			i++
			continue
		}

		run, next := consumeRun(lines, i, kind)
		i = next

		switch kind {
		case KindTable:
			out = append(out, buildTable(run))
		case KindBullet:
			for _, line := range run {
				out = append(out, BulletItem{Text: stripPrefix(bulletPattern, line)})
			}
		case KindNumbered:
			for _, line := range run {
				out = append(out, NumberedItem{Text: stripPrefix(numberedPattern, line)})
			}
		default:
			out = append(out, Paragraph{Text: strings.Join(run, " ")})
		}
	}

	return out
}

// splitLines splits on any newline convention and trims every line. A single
// trailing terminator does not produce an extra empty line.
func splitLines(content string) []string {
	if content == "" {
		return nil
	}
	lines := newlinePattern.Split(content, -1)
	if lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	}
	for i, l := range lines {
		lines[i] = strings.TrimSpace(l)
	}
	return lines
}

// classify returns the kind of a trimmed line. Checks run in priority order:
// blank, table, bullet, numbered, paragraph.
func classify(line string) Kind {
	switch {
	case line == "":
		return KindBlank
	case IsTableLine(line):
		return KindTable
	case bulletPattern.MatchString(line):
		return KindBullet
	case numberedPattern.MatchString(line):
		return KindNumbered
	default:
		return KindParagraph
	}
}

// consumeRun collects the maximal run of lines starting at i that share kind.
func consumeRun(lines []string, i int, kind Kind) ([]string, int) {
	start := i
	for i < len(lines) && classify(lines[i]) == kind {
		i++
	}
	return lines[start:i], i
}

func stripPrefix(re *regexp.Regexp, line string) string {
	loc := re.FindStringIndex(line)
	if loc == nil {
		return line
	}
	return line[loc[1]:]
}

// IsTableLine reports whether a trimmed line belongs to a pipe table.
func IsTableLine(line string) bool {
	return strings.Count(line, "|") >= 2
}

// IsSeparatorLine reports whether a table line only separates the header
// from the body, e.g. "|---|:---:|".
func IsSeparatorLine(line string) bool {
	cells := splitCells(line)
	if len(cells) == 0 {
		return false
	}
	for _, c := range cells {
		if !separatorCell.MatchString(c) {
			return false
		}
	}
	return true
}

func buildTable(lines []string) Table {
	var t Table
	for _, line := range lines {
		if IsSeparatorLine(line) {
			continue
		}
		cells := splitCells(line)
		if len(cells) == 0 {
			continue
		}
		t.Rows = append(t.Rows, cells)
	}
	return t
}

// splitCells splits a table line on pipes and drops cells that are empty
// after trimming.
func splitCells(line string) []string {
	var cells []string
	for _, c := range strings.Split(line, "|") {
		c = strings.TrimSpace(c)
		if c != "" {
			cells = append(cells, c)
		}
	}
	return cells
}
