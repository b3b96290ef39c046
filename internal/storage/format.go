// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package storage

import (
	"fmt"
	"strings"

	"github.com/mattn/go-runewidth"

	"github.com/bionova/seqdiff/internal/util"
)

// =============================================================================
// HISTORY FORMATTING
// =============================================================================

// FormatComparisonList formats comparisons as a table for the terminal.
func FormatComparisonList(comparisons []*Comparison) string {
	if len(comparisons) == 0 {
		return "No saved comparisons."
	}

	var sb strings.Builder
	sb.WriteString("Comparisons:\n")
	sb.WriteString("----------------------------------------------------------------------\n")
	sb.WriteString(pad("ID", 20) + " " + pad("Created", 16) + " " + pad("Length", 11) + " " + pad("Similar", 8) + " Script\n")
	sb.WriteString("----------------------------------------------------------------------\n")

	for _, c := range comparisons {
		length := fmt.Sprintf("%d/%d", c.OriginalLength, c.EditedLength)
		similar := fmt.Sprintf("%.1f%%", c.Similarity*100)
		script := c.EditScript
		if script == "" {
			script = "(identical)"
		}

		sb.WriteString(pad(c.ID, 20) + " " +
			pad(c.CreatedAt.Local().Format("2006-01-02 15:04"), 16) + " " +
			pad(length, 11) + " " +
			pad(similar, 8) + " " +
			util.TruncateRunes(script, 24) + "\n")
	}
	return sb.String()
}

// FormatVerificationList formats verification attempts one per line.
func FormatVerificationList(verifications []Verification) string {
	if len(verifications) == 0 {
		return "No verifications."
	}

	var sb strings.Builder
	for _, v := range verifications {
		line := fmt.Sprintf("%s  %-8s  task %s", v.FinishedAt.Local().Format("2006-01-02 15:04"), v.Status, util.ShortID(v.TaskID))
		switch {
		case v.TxHash != "":
			line += fmt.Sprintf("  %s tx %s", v.Network, util.Elide(v.TxHash, 10))
			if v.ExplorerURL != "" {
				line += "\n    " + v.ExplorerURL
			}
		case v.Error != "":
			line += "  " + v.Error
		}
		sb.WriteString(line + "\n")
	}
	return sb.String()
}

func pad(s string, width int) string {
	return runewidth.FillRight(runewidth.Truncate(s, width, ""), width)
}
