// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package export writes comparison reports for sharing outside the terminal.
//
// # Formats
//
//   - json: the canonical alignment result plus hash, script and receipt
//   - markdown: statistics table, diff hunks and pairwise blocks
//   - html: standalone page with colored columns and a theme toggle
//   - text: plain report, the same layout the CLI prints
//
// # Usage
//
//	c := export.New(original, edited)
//	exporter, err := export.ForFormat("html", nil)
//	if err != nil {
//	    return err
//	}
//	path, err := export.ToFile(c, exporter, opts)
//
// Files are written atomically with a timestamped name in Options.OutputDir.
package export
