// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package align computes pairwise alignments between nucleotide sequences.
//
// Alignment is a unit-cost edit-distance dynamic program with a fixed
// traceback preference (diagonal, then deletion, then insertion), so equal
// inputs always produce byte-identical results.
//
// # Key Types
//
//   - OpKind: Match, Substitution, Insertion or Deletion
//   - Op: One aligned column with the bases involved and their positions
//   - Result: Ordered ops, per-kind counts and the similarity ratio
//   - Hunk: Contiguous edits with surrounding matches, for highlighting
//   - EditScript: Compact s/i/d encoding of the edits
//
// # Usage
//
// Align two validated sequences:
//
//	res := align.Align(original, edited)
//	fmt.Println(res.Summary())
//
// Align raw user input (validates first):
//
//	res, err := align.Strings("ACGT", "AGT")
//
// Render the gapped pairwise view:
//
//	fmt.Print(align.FormatPairwise(res, 60))
package align
