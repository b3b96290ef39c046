// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package export

import (
	"encoding/json"
	"time"

	"github.com/bionova/seqdiff/internal/align"
	"github.com/bionova/seqdiff/internal/verify"
)

// =============================================================================
// JSON EXPORTER
// =============================================================================

// JSONExporter exports comparisons to JSON format.
type JSONExporter struct {
	options *Options
}

// NewJSONExporter creates a new JSON exporter.
func NewJSONExporter(opts *Options) *JSONExporter {
	if opts == nil {
		opts = DefaultOptions()
	}
	return &JSONExporter{options: opts}
}

type jsonDocument struct {
	ID           string          `json:"id,omitempty"`
	CreatedAt    time.Time       `json:"created_at"`
	OriginalName string          `json:"original_name,omitempty"`
	EditedName   string          `json:"edited_name,omitempty"`
	Original     string          `json:"original,omitempty"`
	Edited       string          `json:"edited,omitempty"`
	Summary      string          `json:"summary"`
	EditScript   string          `json:"edit_script"`
	ResultHash   string          `json:"result_hash"`
	Result       *align.Result   `json:"result"`
	Receipt      *verify.Receipt `json:"receipt,omitempty"`
}

// Export converts a comparison to indented JSON. The alignment itself always
// uses the canonical result encoding; IncludeSequences controls the raw sequences.
func (e *JSONExporter) Export(c *Comparison) ([]byte, error) {
	if err := c.validate(); err != nil {
		return nil, err
	}

	doc := jsonDocument{
		ID:           c.ID,
		CreatedAt:    c.CreatedAt,
		OriginalName: c.OriginalName,
		EditedName:   c.EditedName,
		Summary:      c.Result.Summary(),
		EditScript:   c.Result.EditScript().String(),
		ResultHash:   c.Hash(),
		Result:       c.Result,
		Receipt:      c.Receipt,
	}
	if e.options.IncludeSequences {
		doc.Original = c.Original.String()
		doc.Edited = c.Edited.String()
	}

	return json.MarshalIndent(doc, "", "  ")
}

// FileExtension returns the file extension for JSON.
func (e *JSONExporter) FileExtension() string {
	return ".json"
}

// MimeType returns the MIME type for JSON.
func (e *JSONExporter) MimeType() string {
	return "application/json"
}
