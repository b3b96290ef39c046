// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package sequence

// Demo pair: a 43-base construct and an edited copy with three point
// substitutions (1-based positions 9, 21 and 23).
const (
	DemoOriginal = "ATGCTAGCTAGCTAGCTAGCTAGCTAGCTAGGCATCGATCGAT"
	DemoEdited   = "ATGCTAGCGAGCTAGCTAGCAAACTAGCTAGGCATCGATCGAT"
)
