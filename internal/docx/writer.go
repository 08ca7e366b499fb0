// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package docx

import (
	"archive/zip"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"time"
)

// ErrRender reports a malformed block sequence. Render never produces one;
// seeing it means a caller built blocks by hand incorrectly.
var ErrRender = errors.New("malformed document blocks")

const (
	nsW  = "http://schemas.openxmlformats.org/wordprocessingml/2006/main"
	nsR  = "http://schemas.openxmlformats.org/officeDocument/2006/relationships"
	nsCP = "http://schemas.openxmlformats.org/package/2006/metadata/core-properties"
	nsDC = "http://purl.org/dc/elements/1.1/"
	nsDT = "http://purl.org/dc/terms/"
	nsXS = "http://www.w3.org/2001/XMLSchema-instance"

	// pctFull is 100% in the fiftieths-of-a-percent unit used by w:tblW/w:tcW.
	pctFull = 5000

	// textWidthTwips is the usable width of an A4 page with 1" margins.
	textWidthTwips = 9026

	bulletNumID = 1
	// numbered runs get their own w:num starting here so each restarts at 1.
	firstNumberedNumID = 2

	generator = "notemorph"
)

// Meta carries document properties written to docProps/core.xml and the
// default proofing language.
type Meta struct {
	Title    string
	Language string // es, en, mixed, or empty
	Created  time.Time
}

// Validate checks that a block sequence is well formed.
func Validate(fileBlocks []FileBlock) error {
	for i, b := range fileBlocks {
		switch v := b.(type) {
		case Heading:
			if v.Level < LevelTitle || v.Level > 3 {
				return fmt.Errorf("%w: block %d: heading level %d", ErrRender, i, v.Level)
			}
		case Paragraph:
		case ListItem:
			if v.Index < 1 {
				return fmt.Errorf("%w: block %d: list index %d", ErrRender, i, v.Index)
			}
			if v.Kind != ListBullet && v.Kind != ListNumber {
				return fmt.Errorf("%w: block %d: list kind %d", ErrRender, i, v.Kind)
			}
		case Table:
			if len(v.Rows) == 0 {
				return fmt.Errorf("%w: block %d: table without rows", ErrRender, i)
			}
			for r, row := range v.Rows {
				if len(row.Cells) == 0 {
					return fmt.Errorf("%w: block %d: table row %d has no cells", ErrRender, i, r)
				}
				for _, c := range row.Cells {
					if c.WidthPercent <= 0 || c.WidthPercent > 100 {
						return fmt.Errorf("%w: block %d: table row %d cell width %.2f%%", ErrRender, i, r, c.WidthPercent)
					}
				}
			}
		default:
			return fmt.Errorf("%w: block %d: unsupported type %T", ErrRender, i, b)
		}
	}
	return nil
}

// Write serializes fileBlocks as a .docx package to w.
func Write(w io.Writer, fileBlocks []FileBlock, meta Meta) error {
	if err := Validate(fileBlocks); err != nil {
		return err
	}
	if meta.Created.IsZero() {
		meta.Created = time.Now()
	}
	meta.Created = meta.Created.UTC().Truncate(time.Second)

	body, numberedRuns := buildBody(fileBlocks)

	parts := []struct {
		name string
		data func() ([]byte, error)
	}{
		{"[Content_Types].xml", static(contentTypesXML)},
		{"_rels/.rels", static(packageRelsXML)},
		{"docProps/core.xml", func() ([]byte, error) { return marshalPart(newCoreProperties(meta)) }},
		{"docProps/app.xml", static(appXML)},
		{"word/_rels/document.xml.rels", static(documentRelsXML)},
		{"word/styles.xml", func() ([]byte, error) { return []byte(stylesXML(meta.Language)), nil }},
		{"word/numbering.xml", func() ([]byte, error) { return marshalPart(newNumbering(numberedRuns)) }},
		{"word/document.xml", func() ([]byte, error) {
			return marshalPart(&documentXML{W: nsW, R: nsR, Body: body})
		}},
	}

	zw := zip.NewWriter(w)
	for _, p := range parts {
		data, err := p.data()
		if err != nil {
			return fmt.Errorf("building %s: %w", p.name, err)
		}
		fw, err := zw.CreateHeader(&zip.FileHeader{
			Name:     p.name,
			Method:   zip.Deflate,
			Modified: meta.Created,
		})
		if err != nil {
			return fmt.Errorf("adding %s: %w", p.name, err)
		}
		if _, err := fw.Write(data); err != nil {
			return fmt.Errorf("writing %s: %w", p.name, err)
		}
	}
	if err := zw.Close(); err != nil {
		return fmt.Errorf("finalizing archive: %w", err)
	}
	return nil
}

func static(s string) func() ([]byte, error) {
	return func() ([]byte, error) { return []byte(s), nil }
}

func marshalPart(v any) ([]byte, error) {
	data, err := xml.Marshal(v)
	if err != nil {
		return nil, err
	}
	return append([]byte(xml.Header), data...), nil
}

// --- word/document.xml ---

type documentXML struct {
	XMLName xml.Name `xml:"w:document"`
	W       string   `xml:"xmlns:w,attr"`
	R       string   `xml:"xmlns:r,attr"`
	Body    bodyXML  `xml:"w:body"`
}

type bodyXML struct {
	Content []any
	SectPr  sectPropXML `xml:"w:sectPr"`
}

type valXML struct {
	Val string `xml:"w:val,attr"`
}

type paragraphXML struct {
	XMLName xml.Name      `xml:"w:p"`
	Props   *paraPropsXML `xml:"w:pPr,omitempty"`
	Runs    []runXML      `xml:"w:r"`
}

type paraPropsXML struct {
	Style *valXML   `xml:"w:pStyle,omitempty"`
	NumPr *numPrXML `xml:"w:numPr,omitempty"`
}

type numPrXML struct {
	ILvl  valXML `xml:"w:ilvl"`
	NumID valXML `xml:"w:numId"`
}

type runXML struct {
	Text textXML `xml:"w:t"`
}

type textXML struct {
	Space string `xml:"xml:space,attr,omitempty"`
	Value string `xml:",chardata"`
}

type tableXML struct {
	XMLName xml.Name      `xml:"w:tbl"`
	Props   tablePropsXML `xml:"w:tblPr"`
	Grid    []gridColXML  `xml:"w:tblGrid>w:gridCol"`
	Rows    []tableRowXML `xml:"w:tr"`
}

type tablePropsXML struct {
	Style valXML   `xml:"w:tblStyle"`
	Width widthXML `xml:"w:tblW"`
}

type widthXML struct {
	W    string `xml:"w:w,attr"`
	Type string `xml:"w:type,attr"`
}

type gridColXML struct {
	W string `xml:"w:w,attr"`
}

type tableRowXML struct {
	Cells []tableCellXML `xml:"w:tc"`
}

type tableCellXML struct {
	Props     tableCellPropsXML `xml:"w:tcPr"`
	Paragraph paragraphXML
}

type tableCellPropsXML struct {
	Width widthXML `xml:"w:tcW"`
}

type sectPropXML struct {
	PageSize   pageSizeXML   `xml:"w:pgSz"`
	PageMargin pageMarginXML `xml:"w:pgMar"`
}

type pageSizeXML struct {
	W string `xml:"w:w,attr"`
	H string `xml:"w:h,attr"`
}

type pageMarginXML struct {
	Top    string `xml:"w:top,attr"`
	Right  string `xml:"w:right,attr"`
	Bottom string `xml:"w:bottom,attr"`
	Left   string `xml:"w:left,attr"`
}

var headingStyles = map[int]string{
	LevelTitle: "Title",
	1:          "Heading1",
	2:          "Heading2",
	3:          "Heading3",
}

// buildBody converts blocks to body content and returns how many numbered
// list runs it found; each run gets its own numbering instance.
func buildBody(fileBlocks []FileBlock) (bodyXML, int) {
	var body bodyXML
	numberedRuns := 0
	numID := 0
	inNumbered := false

	for _, b := range fileBlocks {
		item, isItem := b.(ListItem)
		numbered := isItem && item.Kind == ListNumber
		if numbered && (item.Index == 1 || !inNumbered) {
			numID = firstNumberedNumID + numberedRuns
			numberedRuns++
		}
		inNumbered = numbered

		switch v := b.(type) {
		case Heading:
			body.Content = append(body.Content, styledParagraph(v.Text, headingStyles[v.Level], nil))
		case Paragraph:
			body.Content = append(body.Content, styledParagraph(v.Text, "", nil))
		case ListItem:
			id := bulletNumID
			if v.Kind == ListNumber {
				id = numID
			}
			numPr := &numPrXML{ILvl: valXML{Val: "0"}, NumID: valXML{Val: strconv.Itoa(id)}}
			body.Content = append(body.Content, styledParagraph(v.Text, "ListParagraph", numPr))
		case Table:
			body.Content = append(body.Content, buildTable(v))
		}
	}

	// A body must not end with a table.
	if n := len(body.Content); n > 0 {
		if _, ok := body.Content[n-1].(tableXML); ok {
			body.Content = append(body.Content, styledParagraph("", "", nil))
		}
	}

	body.SectPr = sectPropXML{
		PageSize:   pageSizeXML{W: "11906", H: "16838"},
		PageMargin: pageMarginXML{Top: "1440", Right: "1440", Bottom: "1440", Left: "1440"},
	}
	return body, numberedRuns
}

func styledParagraph(text, style string, numPr *numPrXML) paragraphXML {
	p := paragraphXML{}
	if style != "" || numPr != nil {
		p.Props = &paraPropsXML{NumPr: numPr}
		if style != "" {
			p.Props.Style = &valXML{Val: style}
		}
	}
	if text != "" {
		p.Runs = []runXML{{Text: textXML{Space: "preserve", Value: text}}}
	}
	return p
}

func buildTable(t Table) tableXML {
	cols := 0
	for _, row := range t.Rows {
		if len(row.Cells) > cols {
			cols = len(row.Cells)
		}
	}

	tbl := tableXML{
		Props: tablePropsXML{
			Style: valXML{Val: "TableGrid"},
			Width: widthXML{W: strconv.Itoa(pctFull), Type: "pct"},
		},
	}
	colWidth := strconv.Itoa(textWidthTwips / cols)
	for i := 0; i < cols; i++ {
		tbl.Grid = append(tbl.Grid, gridColXML{W: colWidth})
	}

	for _, row := range t.Rows {
		var tr tableRowXML
		for _, c := range row.Cells {
			width := int(math.Round(c.WidthPercent * pctFull / 100))
			tr.Cells = append(tr.Cells, tableCellXML{
				Props:     tableCellPropsXML{Width: widthXML{W: strconv.Itoa(width), Type: "pct"}},
				Paragraph: styledParagraph(c.Text, "", nil),
			})
		}
		tbl.Rows = append(tbl.Rows, tr)
	}
	return tbl
}

// --- word/numbering.xml ---

type numberingXML struct {
	XMLName  xml.Name         `xml:"w:numbering"`
	W        string           `xml:"xmlns:w,attr"`
	Abstract []abstractNumXML `xml:"w:abstractNum"`
	Nums     []numXML         `xml:"w:num"`
}

type abstractNumXML struct {
	ID  string `xml:"w:abstractNumId,attr"`
	Lvl lvlXML `xml:"w:lvl"`
}

type lvlXML struct {
	ILvl    string     `xml:"w:ilvl,attr"`
	Start   valXML     `xml:"w:start"`
	NumFmt  valXML     `xml:"w:numFmt"`
	LvlText valXML     `xml:"w:lvlText"`
	LvlJc   valXML     `xml:"w:lvlJc"`
	PPr     lvlPropXML `xml:"w:pPr"`
}

type lvlPropXML struct {
	Ind indXML `xml:"w:ind"`
}

type indXML struct {
	Left    string `xml:"w:left,attr"`
	Hanging string `xml:"w:hanging,attr"`
}

type numXML struct {
	ID       string          `xml:"w:numId,attr"`
	Abstract valXML          `xml:"w:abstractNumId"`
	Override *lvlOverrideXML `xml:"w:lvlOverride,omitempty"`
}

type lvlOverrideXML struct {
	ILvl  string `xml:"w:ilvl,attr"`
	Start valXML `xml:"w:startOverride"`
}

const (
	bulletAbstractID  = "0"
	decimalAbstractID = "1"
)

func newNumbering(numberedRuns int) *numberingXML {
	ind := lvlPropXML{Ind: indXML{Left: "720", Hanging: "360"}}
	n := &numberingXML{
		W: nsW,
		Abstract: []abstractNumXML{
			{ID: bulletAbstractID, Lvl: lvlXML{
				ILvl: "0", Start: valXML{"1"}, NumFmt: valXML{"bullet"},
				LvlText: valXML{"•"}, LvlJc: valXML{"left"}, PPr: ind,
			}},
			{ID: decimalAbstractID, Lvl: lvlXML{
				ILvl: "0", Start: valXML{"1"}, NumFmt: valXML{"decimal"},
				LvlText: valXML{"%1."}, LvlJc: valXML{"left"}, PPr: ind,
			}},
		},
		Nums: []numXML{
			{ID: strconv.Itoa(bulletNumID), Abstract: valXML{bulletAbstractID}},
		},
	}
	for i := 0; i < numberedRuns; i++ {
		n.Nums = append(n.Nums, numXML{
			ID:       strconv.Itoa(firstNumberedNumID + i),
			Abstract: valXML{decimalAbstractID},
			Override: &lvlOverrideXML{ILvl: "0", Start: valXML{"1"}},
		})
	}
	return n
}

// --- docProps/core.xml ---

type corePropertiesXML struct {
	XMLName  xml.Name   `xml:"cp:coreProperties"`
	CP       string     `xml:"xmlns:cp,attr"`
	DC       string     `xml:"xmlns:dc,attr"`
	DCTerms  string     `xml:"xmlns:dcterms,attr"`
	XSI      string     `xml:"xmlns:xsi,attr"`
	Title    string     `xml:"dc:title,omitempty"`
	Creator  string     `xml:"dc:creator"`
	Language string     `xml:"dc:language,omitempty"`
	Created  w3cDateXML `xml:"dcterms:created"`
	Modified w3cDateXML `xml:"dcterms:modified"`
}

type w3cDateXML struct {
	Type  string `xml:"xsi:type,attr"`
	Value string `xml:",chardata"`
}

func newCoreProperties(meta Meta) *corePropertiesXML {
	date := w3cDateXML{Type: "dcterms:W3CDTF", Value: meta.Created.Format(time.RFC3339)}
	return &corePropertiesXML{
		CP:       nsCP,
		DC:       nsDC,
		DCTerms:  nsDT,
		XSI:      nsXS,
		Title:    meta.Title,
		Creator:  generator,
		Language: proofingLanguage(meta.Language),
		Created:  date,
		Modified: date,
	}
}

// proofingLanguage maps a notes language to a BCP 47 tag. Mixed and unknown
// languages get no tag.
func proofingLanguage(lang string) string {
	switch lang {
	case "es":
		return "es-ES"
	case "en":
		return "en-US"
	}
	return ""
}
