// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package normalize

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/pdiddy/notemorph/pkg/types"
)

// ErrInvalidResponse reports service output that is not a structured
// notes document.
var ErrInvalidResponse = errors.New("invalid structured response")

// wireDocument mirrors the JSON the service is asked to produce. Pointer
// fields distinguish a missing or null value from a zero one.
type wireDocument struct {
	Title    *string        `json:"title"`
	Language *string        `json:"language"`
	Sections *[]wireSection `json:"sections"`
}

type wireSection struct {
	Heading *string  `json:"heading"`
	Level   *float64 `json:"level"`
	Content *string  `json:"content"`
}

// ParseResponse validates service output against the structured document
// shape and applies defaults: a missing heading or title stays nil, a
// missing level becomes 1, missing content becomes empty, and a missing or
// unknown language becomes nil. Output wrapped in a markdown code fence is
// accepted. Anything else that is not a JSON object of that shape fails
// with ErrInvalidResponse.
func ParseResponse(text string) (*types.StructuredDocument, error) {
	body := stripFence(strings.TrimSpace(text))
	if !strings.HasPrefix(body, "{") {
		return nil, fmt.Errorf("%w: not a JSON object", ErrInvalidResponse)
	}

	var wire wireDocument
	if err := json.Unmarshal([]byte(body), &wire); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidResponse, err)
	}

	doc := &types.StructuredDocument{Title: wire.Title}
	if wire.Language != nil {
		if lang := types.Language(*wire.Language); lang.Valid() {
			doc.Language = &lang
		}
	}

	if wire.Sections == nil {
		return doc, nil
	}
	for i, ws := range *wire.Sections {
		sec := types.Section{Heading: ws.Heading, Level: types.MinLevel}
		if ws.Level != nil {
			if *ws.Level != math.Trunc(*ws.Level) {
				return nil, fmt.Errorf("%w: section %d: level %v is not an integer", ErrInvalidResponse, i, *ws.Level)
			}
			sec.Level = types.ClampLevel(int(*ws.Level))
		}
		if ws.Content != nil {
			sec.Content = *ws.Content
		}
		doc.Sections = append(doc.Sections, sec)
	}
	return doc, nil
}

// stripFence removes a surrounding ``` or ```json fence.
func stripFence(s string) string {
	if !strings.HasPrefix(s, "```") || !strings.HasSuffix(s, "```") || len(s) < 6 {
		return s
	}
	inner := strings.TrimSuffix(s[3:], "```")
	if nl := strings.IndexByte(inner, '\n'); nl >= 0 {
		// Drop the info string, e.g. "json".
		if !strings.Contains(inner[:nl], "{") {
			inner = inner[nl+1:]
		}
	}
	return strings.TrimSpace(inner)
}
