// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package align

import (
	"fmt"
	"strings"
)

// GapChar fills a row where one side has no base.
const GapChar = '-'

// DefaultContext is the number of matches kept around each hunk.
const DefaultContext = 3

// =============================================================================
// ROWS
// =============================================================================

// Rows is the three-line gapped view of a run of ops.
type Rows struct {
	Original string // Original bases with GapChar at insertions
	Markers  string // OpKind.Marker per column
	Edited   string // Edited bases with GapChar at deletions
}

// RowsOf builds the gapped view of ops.
func RowsOf(ops []Op) Rows {
	var orig, marks, edit strings.Builder
	orig.Grow(len(ops))
	marks.Grow(len(ops))
	edit.Grow(len(ops))

	for _, op := range ops {
		if op.HasOriginal() {
			orig.WriteByte(op.Original)
		} else {
			orig.WriteByte(GapChar)
		}
		marks.WriteByte(op.Kind.Marker())
		if op.HasEdited() {
			edit.WriteByte(op.Edited)
		} else {
			edit.WriteByte(GapChar)
		}
	}

	return Rows{Original: orig.String(), Markers: marks.String(), Edited: edit.String()}
}

// Rows returns the gapped view of the whole alignment.
func (r *Result) Rows() Rows {
	return RowsOf(r.Ops)
}

// =============================================================================
// BLOCKS
// =============================================================================

// Block is a fixed-width slice of the alignment with 1-based coordinates.
// When a side has no bases in the block, Start is one past the preceding
// base and End is Start-1.
type Block struct {
	Ops           []Op
	OriginalStart int
	OriginalEnd   int
	EditedStart   int
	EditedEnd     int
}

// Rows returns the gapped view of the block.
func (b Block) Rows() Rows {
	return RowsOf(b.Ops)
}

// Blocks cuts the alignment into columns of at most width ops.
func (r *Result) Blocks(width int) []Block {
	if width <= 0 {
		width = len(r.Ops)
	}

	var blocks []Block
	origPos, editPos := 0, 0
	for start := 0; start < len(r.Ops); start += width {
		end := min(start+width, len(r.Ops))
		block := Block{
			Ops:           r.Ops[start:end],
			OriginalStart: origPos + 1,
			EditedStart:   editPos + 1,
		}
		for _, op := range block.Ops {
			if op.HasOriginal() {
				origPos++
			}
			if op.HasEdited() {
				editPos++
			}
		}
		block.OriginalEnd = origPos
		block.EditedEnd = editPos
		blocks = append(blocks, block)
	}
	return blocks
}

// FormatPairwise renders the alignment as wrapped three-row blocks:
//
//	original  1 ATGCTAGCTA 10
//	            ||||||||*|
//	edited    1 ATGCTAGCGA 10
func FormatPairwise(r *Result, width int) string {
	blocks := r.Blocks(width)
	if len(blocks) == 0 {
		return ""
	}

	numWidth := len(fmt.Sprint(max(r.OriginalLen, r.EditedLen, 1)))
	labelWidth := len("original")

	var sb strings.Builder
	for i, b := range blocks {
		if i > 0 {
			sb.WriteString("\n")
		}
		rows := b.Rows()
		fmt.Fprintf(&sb, "%-*s %*d %s %d\n", labelWidth, "original", numWidth, b.OriginalStart, rows.Original, b.OriginalEnd)
		fmt.Fprintf(&sb, "%-*s %*s %s\n", labelWidth, "", numWidth, "", rows.Markers)
		fmt.Fprintf(&sb, "%-*s %*d %s %d\n", labelWidth, "edited", numWidth, b.EditedStart, rows.Edited, b.EditedEnd)
	}
	return sb.String()
}

// =============================================================================
// HUNKS
// =============================================================================

// Hunk is a contiguous run of edits plus up to context matches on each side.
// Starts are 1-based; a side with zero count reports the position after
// which the change applies, as unified diffs do.
type Hunk struct {
	OriginalStart int
	OriginalCount int
	EditedStart   int
	EditedCount   int
	Ops           []Op
}

// Header returns the unified-diff style header "@@ -o,n +e,m @@".
func (h Hunk) Header() string {
	return fmt.Sprintf("@@ -%d,%d +%d,%d @@", h.OriginalStart, h.OriginalCount, h.EditedStart, h.EditedCount)
}

// Hunks groups edits that lie within 2*context columns of each other.
// A negative context is treated as DefaultContext.
func (r *Result) Hunks(context int) []Hunk {
	if context < 0 {
		context = DefaultContext
	}

	// Column ranges [lo, hi) around each edit, merged when they touch
	type span struct{ lo, hi int }
	var spans []span
	for k, op := range r.Ops {
		if !op.Kind.IsEdit() {
			continue
		}
		lo := max(0, k-context)
		hi := min(len(r.Ops), k+context+1)
		if n := len(spans); n > 0 && lo <= spans[n-1].hi {
			spans[n-1].hi = max(spans[n-1].hi, hi)
			continue
		}
		spans = append(spans, span{lo, hi})
	}
	if len(spans) == 0 {
		return nil
	}

	// Prefix counts of bases consumed before each column
	origBefore := make([]int, len(r.Ops)+1)
	editBefore := make([]int, len(r.Ops)+1)
	for k, op := range r.Ops {
		origBefore[k+1] = origBefore[k]
		editBefore[k+1] = editBefore[k]
		if op.HasOriginal() {
			origBefore[k+1]++
		}
		if op.HasEdited() {
			editBefore[k+1]++
		}
	}

	hunks := make([]Hunk, 0, len(spans))
	for _, s := range spans {
		h := Hunk{
			Ops:           r.Ops[s.lo:s.hi],
			OriginalCount: origBefore[s.hi] - origBefore[s.lo],
			EditedCount:   editBefore[s.hi] - editBefore[s.lo],
			OriginalStart: origBefore[s.lo],
			EditedStart:   editBefore[s.lo],
		}
		if h.OriginalCount > 0 {
			h.OriginalStart++
		}
		if h.EditedCount > 0 {
			h.EditedStart++
		}
		hunks = append(hunks, h)
	}
	return hunks
}

// FormatHunks renders hunks as header lines followed by their gapped rows.
func FormatHunks(hunks []Hunk) string {
	var sb strings.Builder
	for _, h := range hunks {
		rows := RowsOf(h.Ops)
		sb.WriteString(h.Header())
		sb.WriteString("\n")
		sb.WriteString(rows.Original)
		sb.WriteString("\n")
		sb.WriteString(rows.Markers)
		sb.WriteString("\n")
		sb.WriteString(rows.Edited)
		sb.WriteString("\n")
	}
	return sb.String()
}
