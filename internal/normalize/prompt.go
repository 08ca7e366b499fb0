// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package normalize

import (
	"bytes"
	"text/template"

	"github.com/pdiddy/notemorph/pkg/types"
)

// systemPromptTmpl instructs the service to rebuild clean notes from noisy
// OCR text. The list and table conventions it asks for are exactly the
// ones blocks.Parse understands.
var systemPromptTmpl = template.Must(template.New("system").Parse(`You are an expert at rebuilding study notes from noisy OCR text.

Goal:
- From OCR text (possibly with recognition errors, odd line breaks, or mixed columns) rebuild CLEAN, well structured, readable notes.
- ALWAYS return a JSON object with exactly this schema:

{
  "title": string | null,
  "language": "es" | "en" | "mixed" | null,
  "sections": [
    {
      "heading": string | null,
      "level": {{range $i, $l := .Levels}}{{if $i}} | {{end}}{{$l}}{{end}} | null,
      "content": string
    }
  ]
}

Rules:

1) Pages:
   - The text contains separators like "--- PAGE 1 ---", "--- PAGE 2 ---".
   - Use them only to understand ORDER. Never include them in the output.

2) OCR cleanup:
   - Fix obvious OCR mistakes (split words, stray symbols, spaces inside words).
   - Join lines that clearly belong to the same sentence.
   - Keep paragraphs reasonable; do not put every sentence in its own paragraph.
   - Separate paragraphs with one empty line.

3) Structure:
   - Detect titles and subtitles and put them in "heading" and "level":
       * level 1: main sections
       * level 2: subsections
       * level 3: sub-subsections
   - Each section's "content" holds its full text WITHOUT the heading itself.
   - Keep sections in the narrative order of the notes.

4) Lists:
   - Write every bullet item on its own line starting with "- " (dash and space), whatever marker the notes used.
   - Write every numbered item on its own line as "1. ", "2. ", and so on.

5) Tables:
   - When content looks tabular, write it as a pipe table, one row per line, with a separator line after the header row:

       | Column 1 | Column 2 | Column 3 |
       |----------|----------|----------|
       | Value 1  | Value 2  | Value 3  |

   - Every table line must contain at least two "|" characters. Never use "|" in ordinary sentences.

6) Columns:
   - If the OCR mixed two text columns, reorder the content so a human reads it in logical order.

7) Formulas and code:
   - Preserve them as closely as possible as plain text inside "content".

8) Language:
   - Set "language" to {{range $i, $l := .Languages}}{{if $i}}, {{end}}"{{$l}}"{{end}} or null by the predominant language.

Very important:
- Return ONLY the JSON object. No explanations, no markdown fences.
- Fewer clean sections are better than many noisy ones.
`))

var userPromptTmpl = template.Must(template.New("user").Parse(`This is the OCR text of several note images. Respect the page order, but improve everything you can so the notes are clear, ordered and readable.

OCR_TEXT:
"""
{{.Text}}
"""
`))

type systemPromptData struct {
	Levels    []int
	Languages []types.Language
}

// Prompt renders the system and user messages for rawText.
func Prompt(rawText string) (system, user string, err error) {
	var buf bytes.Buffer
	data := systemPromptData{
		Levels:    []int{1, 2, 3},
		Languages: []types.Language{types.LanguageSpanish, types.LanguageEnglish, types.LanguageMixed},
	}
	if err := systemPromptTmpl.Execute(&buf, data); err != nil {
		return "", "", err
	}
	system = buf.String()

	buf.Reset()
	if err := userPromptTmpl.Execute(&buf, struct{ Text string }{Text: rawText}); err != nil {
		return "", "", err
	}
	return system, buf.String(), nil
}
