// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package docx

import (
	"fmt"
	"strings"
)

// Package parts that never vary between documents.

const contentTypesXML = xml10 +
	`<Types xmlns="http://schemas.openxmlformats.org/package/2006/content-types">` +
	`<Default Extension="rels" ContentType="application/vnd.openxmlformats-package.relationships+xml"/>` +
	`<Default Extension="xml" ContentType="application/xml"/>` +
	`<Override PartName="/word/document.xml" ContentType="application/vnd.openxmlformats-officedocument.wordprocessingml.document.main+xml"/>` +
	`<Override PartName="/word/styles.xml" ContentType="application/vnd.openxmlformats-officedocument.wordprocessingml.styles+xml"/>` +
	`<Override PartName="/word/numbering.xml" ContentType="application/vnd.openxmlformats-officedocument.wordprocessingml.numbering+xml"/>` +
	`<Override PartName="/docProps/core.xml" ContentType="application/vnd.openxmlformats-package.core-properties+xml"/>` +
	`<Override PartName="/docProps/app.xml" ContentType="application/vnd.openxmlformats-officedocument.extended-properties+xml"/>` +
	`</Types>`

const packageRelsXML = xml10 +
	`<Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships">` +
	`<Relationship Id="rId1" Type="http://schemas.openxmlformats.org/officeDocument/2006/relationships/officeDocument" Target="word/document.xml"/>` +
	`<Relationship Id="rId2" Type="http://schemas.openxmlformats.org/package/2006/relationships/metadata/core-properties" Target="docProps/core.xml"/>` +
	`<Relationship Id="rId3" Type="http://schemas.openxmlformats.org/officeDocument/2006/relationships/extended-properties" Target="docProps/app.xml"/>` +
	`</Relationships>`

const appXML = xml10 +
	`<Properties xmlns="http://schemas.openxmlformats.org/officeDocument/2006/extended-properties">` +
	`<Application>` + generator + `</Application>` +
	`</Properties>`

const documentRelsXML = xml10 +
	`<Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships">` +
	`<Relationship Id="rId1" Type="http://schemas.openxmlformats.org/officeDocument/2006/relationships/styles" Target="styles.xml"/>` +
	`<Relationship Id="rId2" Type="http://schemas.openxmlformats.org/officeDocument/2006/relationships/numbering" Target="numbering.xml"/>` +
	`</Relationships>`

const xml10 = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>` + "\n"

// paragraphStyle is one w:style of type paragraph. Sizes are half-points.
type paragraphStyle struct {
	id, name   string
	basedOn    string
	bold       bool
	size       int
	spaceBef   int
	spaceAft   int
	outline    int // -1 for body styles
	contextual bool
}

var paragraphStyles = []paragraphStyle{
	{id: "Title", name: "Title", basedOn: "Normal", bold: true, size: 40, spaceAft: 240, outline: -1},
	{id: "Heading1", name: "heading 1", basedOn: "Normal", bold: true, size: 32, spaceBef: 240, spaceAft: 120, outline: 0},
	{id: "Heading2", name: "heading 2", basedOn: "Normal", bold: true, size: 28, spaceBef: 200, spaceAft: 100, outline: 1},
	{id: "Heading3", name: "heading 3", basedOn: "Normal", bold: true, size: 24, spaceBef: 160, spaceAft: 80, outline: 2},
	{id: "ListParagraph", name: "List Paragraph", basedOn: "Normal", outline: -1, contextual: true},
}

// stylesXML builds word/styles.xml. lang sets the default proofing
// language; an unmapped language leaves it to the reader's defaults.
func stylesXML(lang string) string {
	var b strings.Builder
	b.WriteString(xml10)
	b.WriteString(`<w:styles xmlns:w="` + nsW + `">`)

	b.WriteString(`<w:docDefaults><w:rPrDefault><w:rPr>`)
	b.WriteString(`<w:rFonts w:ascii="Calibri" w:hAnsi="Calibri" w:eastAsia="Calibri" w:cs="Calibri"/>`)
	b.WriteString(`<w:sz w:val="22"/><w:szCs w:val="22"/>`)
	if tag := proofingLanguage(lang); tag != "" {
		fmt.Fprintf(&b, `<w:lang w:val="%s"/>`, tag)
	}
	b.WriteString(`</w:rPr></w:rPrDefault>`)
	b.WriteString(`<w:pPrDefault><w:pPr><w:spacing w:after="120" w:line="264" w:lineRule="auto"/></w:pPr></w:pPrDefault>`)
	b.WriteString(`</w:docDefaults>`)

	b.WriteString(`<w:style w:type="paragraph" w:default="1" w:styleId="Normal"><w:name w:val="Normal"/><w:qFormat/></w:style>`)
	for _, s := range paragraphStyles {
		fmt.Fprintf(&b, `<w:style w:type="paragraph" w:styleId="%s"><w:name w:val="%s"/><w:basedOn w:val="%s"/>`, s.id, s.name, s.basedOn)
		if s.outline >= 0 {
			b.WriteString(`<w:next w:val="Normal"/>`)
		}
		b.WriteString(`<w:qFormat/><w:pPr>`)
		if s.outline >= 0 {
			b.WriteString(`<w:keepNext/>`)
		}
		if s.spaceBef > 0 || s.spaceAft > 0 {
			fmt.Fprintf(&b, `<w:spacing w:before="%d" w:after="%d"/>`, s.spaceBef, s.spaceAft)
		}
		if s.contextual {
			b.WriteString(`<w:ind w:left="720"/><w:contextualSpacing/>`)
		}
		if s.outline >= 0 {
			fmt.Fprintf(&b, `<w:outlineLvl w:val="%d"/>`, s.outline)
		}
		b.WriteString(`</w:pPr>`)
		if s.bold || s.size > 0 {
			b.WriteString(`<w:rPr>`)
			if s.bold {
				b.WriteString(`<w:b/><w:bCs/>`)
			}
			if s.size > 0 {
				fmt.Fprintf(&b, `<w:sz w:val="%d"/><w:szCs w:val="%d"/>`, s.size, s.size)
			}
			b.WriteString(`</w:rPr>`)
		}
		b.WriteString(`</w:style>`)
	}

	b.WriteString(`<w:style w:type="table" w:default="1" w:styleId="TableNormal"><w:name w:val="Normal Table"/>`)
	b.WriteString(`<w:tblPr><w:tblInd w:w="0" w:type="dxa"/><w:tblCellMar>`)
	b.WriteString(`<w:top w:w="0" w:type="dxa"/><w:left w:w="108" w:type="dxa"/><w:bottom w:w="0" w:type="dxa"/><w:right w:w="108" w:type="dxa"/>`)
	b.WriteString(`</w:tblCellMar></w:tblPr></w:style>`)

	b.WriteString(`<w:style w:type="table" w:styleId="TableGrid"><w:name w:val="Table Grid"/><w:basedOn w:val="TableNormal"/>`)
	b.WriteString(`<w:pPr><w:spacing w:after="0" w:line="240" w:lineRule="auto"/></w:pPr>`)
	b.WriteString(`<w:tblPr><w:tblBorders>`)
	for _, edge := range []string{"top", "left", "bottom", "right", "insideH", "insideV"} {
		fmt.Fprintf(&b, `<w:%s w:val="single" w:sz="4" w:space="0" w:color="auto"/>`, edge)
	}
	b.WriteString(`</w:tblBorders></w:tblPr></w:style>`)

	b.WriteString(`</w:styles>`)
	return b.String()
}
