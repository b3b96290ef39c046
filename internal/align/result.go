// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package align

import (
	"encoding/json"
	"fmt"
	"strings"
)

// =============================================================================
// RESULT
// =============================================================================

// Counts tallies ops by kind.
type Counts struct {
	Matches       int `json:"matches"`
	Substitutions int `json:"substitutions"`
	Insertions    int `json:"insertions"`
	Deletions     int `json:"deletions"`
}

// Edits returns substitutions + insertions + deletions.
func (c Counts) Edits() int {
	return c.Substitutions + c.Insertions + c.Deletions
}

// Result is a complete pairwise alignment. Every original base and every
// edited base is covered by exactly one op. Treat it as read-only.
type Result struct {
	Ops         []Op
	Counts      Counts
	OriginalLen int
	EditedLen   int
	Similarity  float64
}

func newResult(ops []Op, originalLen, editedLen int) *Result {
	r := &Result{
		Ops:         ops,
		OriginalLen: originalLen,
		EditedLen:   editedLen,
	}
	for _, op := range ops {
		switch op.Kind {
		case OpMatch:
			r.Counts.Matches++
		case OpSubstitution:
			r.Counts.Substitutions++
		case OpInsertion:
			r.Counts.Insertions++
		case OpDeletion:
			r.Counts.Deletions++
		}
	}
	r.Similarity = SimilarityRatio(r)
	return r
}

// SimilarityRatio is the package-level SimilarityRatio applied to r.
func (r *Result) SimilarityRatio() float64 {
	return SimilarityRatio(r)
}

// EditDistance returns the number of non-match ops.
func (r *Result) EditDistance() int {
	return r.Counts.Edits()
}

// IsIdentical reports whether the alignment contains no edits.
func (r *Result) IsIdentical() bool {
	return r.EditDistance() == 0
}

// OriginalString rebuilds the original sequence from the ops.
func (r *Result) OriginalString() string {
	var sb strings.Builder
	sb.Grow(r.OriginalLen)
	for _, op := range r.Ops {
		if op.HasOriginal() {
			sb.WriteByte(op.Original)
		}
	}
	return sb.String()
}

// EditedString rebuilds the edited sequence from the ops.
func (r *Result) EditedString() string {
	var sb strings.Builder
	sb.Grow(r.EditedLen)
	for _, op := range r.Ops {
		if op.HasEdited() {
			sb.WriteByte(op.Edited)
		}
	}
	return sb.String()
}

// =============================================================================
// SUMMARY
// =============================================================================

// Summary returns a human-readable one-liner such as
// "3 substitutions, 1 insertion (93.0% similar)".
func (r *Result) Summary() string {
	if r.IsIdentical() {
		return fmt.Sprintf("Identical (%d bp)", r.OriginalLen)
	}

	var parts []string
	if r.Counts.Substitutions > 0 {
		parts = append(parts, plural(r.Counts.Substitutions, "substitution"))
	}
	if r.Counts.Insertions > 0 {
		parts = append(parts, plural(r.Counts.Insertions, "insertion"))
	}
	if r.Counts.Deletions > 0 {
		parts = append(parts, plural(r.Counts.Deletions, "deletion"))
	}

	return fmt.Sprintf("%s (%.1f%% similar)", strings.Join(parts, ", "), r.Similarity*100)
}

func plural(n int, noun string) string {
	if n == 1 {
		return fmt.Sprintf("1 %s", noun)
	}
	return fmt.Sprintf("%d %ss", n, noun)
}

// =============================================================================
// JSON
// =============================================================================

type opJSON struct {
	Kind        OpKind `json:"kind"`
	Original    string `json:"original,omitempty"`
	Edited      string `json:"edited,omitempty"`
	OriginalPos int    `json:"original_pos"`
	EditedPos   int    `json:"edited_pos"`
}

// MarshalJSON encodes bases as one-letter strings.
func (o Op) MarshalJSON() ([]byte, error) {
	out := opJSON{
		Kind:        o.Kind,
		OriginalPos: o.OriginalPos,
		EditedPos:   o.EditedPos,
	}
	if o.HasOriginal() {
		out.Original = string(o.Original)
	}
	if o.HasEdited() {
		out.Edited = string(o.Edited)
	}
	return json.Marshal(out)
}

// UnmarshalJSON decodes the form written by MarshalJSON.
func (o *Op) UnmarshalJSON(data []byte) error {
	var in opJSON
	if err := json.Unmarshal(data, &in); err != nil {
		return err
	}
	if len(in.Original) > 1 || len(in.Edited) > 1 {
		return fmt.Errorf("op bases must be single characters")
	}

	*o = Op{Kind: in.Kind, OriginalPos: in.OriginalPos, EditedPos: in.EditedPos}
	if in.Original != "" {
		o.Original = in.Original[0]
	}
	if in.Edited != "" {
		o.Edited = in.Edited[0]
	}
	return nil
}

type resultJSON struct {
	Ops          []Op    `json:"ops"`
	Counts       Counts  `json:"counts"`
	OriginalLen  int     `json:"original_length"`
	EditedLen    int     `json:"edited_length"`
	Similarity   float64 `json:"similarity"`
	EditDistance int     `json:"edit_distance"`
}

// MarshalJSON encodes the result with snake_case keys and the edit distance.
func (r *Result) MarshalJSON() ([]byte, error) {
	ops := r.Ops
	if ops == nil {
		ops = []Op{}
	}
	return json.Marshal(resultJSON{
		Ops:          ops,
		Counts:       r.Counts,
		OriginalLen:  r.OriginalLen,
		EditedLen:    r.EditedLen,
		Similarity:   r.Similarity,
		EditDistance: r.EditDistance(),
	})
}

// UnmarshalJSON decodes a result; counts and similarity are recomputed from
// the ops rather than trusted.
func (r *Result) UnmarshalJSON(data []byte) error {
	var in resultJSON
	if err := json.Unmarshal(data, &in); err != nil {
		return err
	}
	*r = *newResult(in.Ops, in.OriginalLen, in.EditedLen)
	return nil
}
