// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package types defines shared data structures for the notemorph pipeline:
// the structured notes document produced by normalization, the result of a
// processing run, and the configuration of each stage.
package types

// Language identifies the dominant language of a set of notes.
type Language string

const (
	LanguageSpanish Language = "es"
	LanguageEnglish Language = "en"
	LanguageMixed   Language = "mixed"
)

// Valid reports whether l is one of the known language codes.
func (l Language) Valid() bool {
	switch l {
	case LanguageSpanish, LanguageEnglish, LanguageMixed:
		return true
	}
	return false
}

const (
	// MinLevel and MaxLevel bound section heading levels.
	MinLevel = 1
	MaxLevel = 3

	// FallbackHeading is the heading of the single section emitted in
	// degraded mode.
	FallbackHeading = "Unprocessed notes (fallback)"
)

// StructuredDocument is the normalized, hierarchical form of a set of notes.
// It is built once per pipeline invocation and then only read by the
// renderers.
type StructuredDocument struct {
	// Title is the document title, nil when the notes have none.
	Title *string `json:"title" yaml:"title"`

	// Language is the dominant language, nil when unknown.
	Language *Language `json:"language" yaml:"language"`

	// Sections preserves the narrative order emitted by the normalizer.
	Sections []Section `json:"sections" yaml:"sections"`
}

// Section is one heading-delimited part of a StructuredDocument.
type Section struct {
	// Heading is the section heading, nil for untitled sections.
	Heading *string `json:"heading" yaml:"heading"`

	// Level is the heading depth (1-3). Zero means unset and reads as 1.
	Level int `json:"level" yaml:"level"`

	// Content is the section body. It may embed list and table markers and
	// never repeats the heading text.
	Content string `json:"content" yaml:"content"`
}

// EffectiveLevel returns the section level clamped to MinLevel..MaxLevel,
// treating an unset level as MinLevel.
func (s Section) EffectiveLevel() int {
	return ClampLevel(s.Level)
}

// ClampLevel maps any integer to the nearest valid heading level.
func ClampLevel(level int) int {
	if level < MinLevel {
		return MinLevel
	}
	if level > MaxLevel {
		return MaxLevel
	}
	return level
}

// HasTitle reports whether the document carries a non-empty title.
func (d *StructuredDocument) HasTitle() bool {
	return d != nil && d.Title != nil && *d.Title != ""
}

// HasHeading reports whether the section carries a non-empty heading.
func (s Section) HasHeading() bool {
	return s.Heading != nil && *s.Heading != ""
}

// FallbackDocument builds the degraded-mode document: a single level-1
// section holding the raw text verbatim.
func FallbackDocument(raw string) *StructuredDocument {
	lang := LanguageSpanish
	heading := FallbackHeading
	return &StructuredDocument{
		Language: &lang,
		Sections: []Section{
			{Heading: &heading, Level: MinLevel, Content: raw},
		},
	}
}

// StringPtr returns a pointer to s. Convenient for building documents in
// code and tests.
func StringPtr(s string) *string {
	return &s
}

// ProcessResult is the outcome of processing one batch of note images.
type ProcessResult struct {
	// RunID identifies the run in the history store.
	RunID string `json:"run_id" yaml:"run_id"`

	// PreviewHTML is the escaped HTML preview of the notes.
	PreviewHTML string `json:"preview_html" yaml:"preview_html"`

	// DocxFileName is the generated document file name.
	DocxFileName string `json:"docx_file_name" yaml:"docx_file_name"`

	// DocxPath is the full path of the generated document file.
	DocxPath string `json:"docx_path" yaml:"docx_path"`

	// Degraded is true when normalization fell back to the unprocessed
	// single-section document.
	Degraded bool `json:"degraded" yaml:"degraded"`
}
