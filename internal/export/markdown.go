// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package export

import (
	"fmt"
	"strings"
	"time"

	"github.com/bionova/seqdiff/internal/align"
)

// =============================================================================
// MARKDOWN EXPORTER
// =============================================================================

// MarkdownExporter exports comparisons to Markdown format.
type MarkdownExporter struct {
	options *Options
}

// NewMarkdownExporter creates a new Markdown exporter.
func NewMarkdownExporter(opts *Options) *MarkdownExporter {
	if opts == nil {
		opts = DefaultOptions()
	}
	return &MarkdownExporter{options: opts}
}

// Export converts a comparison to Markdown format.
func (e *MarkdownExporter) Export(c *Comparison) ([]byte, error) {
	if err := c.validate(); err != nil {
		return nil, err
	}
	res := c.Result

	var sb strings.Builder

	// YAML frontmatter with metadata
	if e.options.IncludeMetadata {
		sb.WriteString("---\n")
		sb.WriteString(fmt.Sprintf("title: %s\n", escapeYAML(c.Title())))
		if c.ID != "" {
			sb.WriteString(fmt.Sprintf("id: %s\n", c.ID))
		}
		if !c.CreatedAt.IsZero() {
			sb.WriteString(fmt.Sprintf("date: %s\n", c.CreatedAt.Format(time.RFC3339)))
		}
		sb.WriteString(fmt.Sprintf("similarity: %.4f\n", res.Similarity))
		sb.WriteString(fmt.Sprintf("edit_distance: %d\n", res.EditDistance()))
		sb.WriteString(fmt.Sprintf("result_hash: %s\n", c.Hash()))
		sb.WriteString("generator: seqdiff\n")
		sb.WriteString("---\n\n")
	}

	sb.WriteString(fmt.Sprintf("# %s\n\n", escapeMarkdown(c.Title())))
	sb.WriteString(fmt.Sprintf("**%s**\n\n", res.Summary()))

	// Statistics table
	sb.WriteString("## Statistics\n\n")
	sb.WriteString("| Metric | Value |\n")
	sb.WriteString("|--------|-------|\n")
	sb.WriteString(fmt.Sprintf("| Original length | %d |\n", res.OriginalLen))
	sb.WriteString(fmt.Sprintf("| Edited length | %d |\n", res.EditedLen))
	sb.WriteString(fmt.Sprintf("| Matches | %d |\n", res.Counts.Matches))
	sb.WriteString(fmt.Sprintf("| Substitutions | %d |\n", res.Counts.Substitutions))
	sb.WriteString(fmt.Sprintf("| Insertions | %d |\n", res.Counts.Insertions))
	sb.WriteString(fmt.Sprintf("| Deletions | %d |\n", res.Counts.Deletions))
	sb.WriteString(fmt.Sprintf("| Similarity | %s |\n", percent(res.Similarity)))
	if script := res.EditScript().String(); script != "" {
		sb.WriteString(fmt.Sprintf("| Edit script | `%s` |\n", script))
	}
	sb.WriteString("\n")

	// Changes
	if hunks := res.Hunks(hunkContext(e.options)); len(hunks) > 0 {
		sb.WriteString("## Changes\n\n")
		sb.WriteString("```diff\n")
		sb.WriteString(align.FormatHunks(hunks))
		sb.WriteString("```\n\n")
	}

	// Full alignment
	if pairwise := align.FormatPairwise(res, blockSize(e.options)); pairwise != "" {
		sb.WriteString("## Alignment\n\n")
		sb.WriteString("```text\n")
		sb.WriteString(pairwise)
		sb.WriteString("```\n\n")
	}

	if e.options.IncludeSequences {
		sb.WriteString("## Sequences\n\n")
		sb.WriteString(fmt.Sprintf("**%s** (%d bp)\n\n```text\n%s\n```\n\n",
			escapeMarkdown(nameOr(c.OriginalName, "original")), c.Original.Len(), c.Original.String()))
		sb.WriteString(fmt.Sprintf("**%s** (%d bp)\n\n```text\n%s\n```\n\n",
			escapeMarkdown(nameOr(c.EditedName, "edited")), c.Edited.Len(), c.Edited.String()))
	}

	if c.Receipt != nil {
		sb.WriteString("## Verification\n\n")
		sb.WriteString(fmt.Sprintf("- **Network**: %s\n", c.Receipt.Network))
		sb.WriteString(fmt.Sprintf("- **Transaction**: `%s`\n", c.Receipt.TxHash))
		if c.Receipt.ExplorerURL != "" {
			sb.WriteString(fmt.Sprintf("- **Explorer**: <%s>\n", c.Receipt.ExplorerURL))
		}
		if !c.Receipt.SubmittedAt.IsZero() {
			sb.WriteString(fmt.Sprintf("- **Submitted**: %s\n", formatTimestamp(c.Receipt.SubmittedAt)))
		}
		sb.WriteString("\n")
	}

	// Footer
	sb.WriteString("---\n\n")
	sb.WriteString(fmt.Sprintf("*Exported from seqdiff on %s*\n",
		time.Now().Format("January 2, 2006 at 3:04 PM")))

	return []byte(sb.String()), nil
}

// FileExtension returns the file extension for Markdown.
func (e *MarkdownExporter) FileExtension() string {
	return ".md"
}

// MimeType returns the MIME type for Markdown.
func (e *MarkdownExporter) MimeType() string {
	return "text/markdown"
}

// =============================================================================
// ESCAPING HELPERS
// =============================================================================

func nameOr(name, fallback string) string {
	if name == "" {
		return fallback
	}
	return name
}

// escapeMarkdown escapes special Markdown characters in plain text.
func escapeMarkdown(s string) string {
	s = strings.ReplaceAll(s, "#", "\\#")
	s = strings.ReplaceAll(s, "*", "\\*")
	s = strings.ReplaceAll(s, "_", "\\_")
	s = strings.ReplaceAll(s, "[", "\\[")
	s = strings.ReplaceAll(s, "]", "\\]")
	return s
}

// escapeYAML escapes special YAML characters in values.
func escapeYAML(s string) string {
	if strings.ContainsAny(s, ":#|>@`\"'[]{}!%&*\n\r\\") || strings.HasPrefix(s, " ") || strings.HasSuffix(s, " ") {
		s = strings.ReplaceAll(s, "\\", "\\\\")
		s = strings.ReplaceAll(s, "\"", "\\\"")
		s = strings.ReplaceAll(s, "\n", "\\n")
		s = strings.ReplaceAll(s, "\r", "\\r")
		return fmt.Sprintf("\"%s\"", s)
	}
	return s
}
