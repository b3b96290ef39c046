// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package export

import (
	"fmt"
	"strings"

	"github.com/bionova/seqdiff/internal/align"
)

// TextExporter writes a plain-text report suitable for terminals and email.
type TextExporter struct {
	options *Options
}

// NewTextExporter creates a new plain-text exporter.
func NewTextExporter(opts *Options) *TextExporter {
	if opts == nil {
		opts = DefaultOptions()
	}
	return &TextExporter{options: opts}
}

// Export converts a comparison to a plain-text report.
func (e *TextExporter) Export(c *Comparison) ([]byte, error) {
	if err := c.validate(); err != nil {
		return nil, err
	}
	res := c.Result

	var sb strings.Builder
	sb.WriteString(c.Title() + "\n")
	sb.WriteString(strings.Repeat("=", len(c.Title())) + "\n\n")

	if e.options.IncludeMetadata {
		if c.ID != "" {
			fmt.Fprintf(&sb, "ID:          %s\n", c.ID)
		}
		if !c.CreatedAt.IsZero() {
			fmt.Fprintf(&sb, "Created:     %s\n", formatTimestamp(c.CreatedAt))
		}
		fmt.Fprintf(&sb, "Hash:        %s\n", c.Hash())
	}
	fmt.Fprintf(&sb, "Lengths:     %d -> %d\n", res.OriginalLen, res.EditedLen)
	fmt.Fprintf(&sb, "Summary:     %s\n", res.Summary())
	if script := res.EditScript().String(); script != "" {
		fmt.Fprintf(&sb, "Edit script: %s\n", script)
	}
	if c.Receipt != nil {
		fmt.Fprintf(&sb, "Verified:    %s tx %s\n", c.Receipt.Network, c.Receipt.TxHash)
		if c.Receipt.ExplorerURL != "" {
			fmt.Fprintf(&sb, "Explorer:    %s\n", c.Receipt.ExplorerURL)
		}
	}

	if hunks := res.Hunks(hunkContext(e.options)); len(hunks) > 0 {
		sb.WriteString("\n")
		sb.WriteString(align.FormatHunks(hunks))
	}

	if pairwise := align.FormatPairwise(res, blockSize(e.options)); pairwise != "" {
		sb.WriteString("\n")
		sb.WriteString(pairwise)
	}

	return []byte(sb.String()), nil
}

// FileExtension returns the file extension for text.
func (e *TextExporter) FileExtension() string {
	return ".txt"
}

// MimeType returns the MIME type for text.
func (e *TextExporter) MimeType() string {
	return "text/plain"
}
