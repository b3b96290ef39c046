// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package align

import (
	"fmt"
	"strings"

	"github.com/bionova/seqdiff/internal/sequence"
)

// =============================================================================
// OP KINDS
// =============================================================================

// OpKind classifies one aligned column.
type OpKind int

const (
	// OpMatch is the same base on both sides
	OpMatch OpKind = iota
	// OpSubstitution is differing bases on both sides
	OpSubstitution
	// OpInsertion is a base present only in the edited sequence
	OpInsertion
	// OpDeletion is a base present only in the original sequence
	OpDeletion
)

// String returns the lowercase name of the kind.
func (k OpKind) String() string {
	switch k {
	case OpMatch:
		return "match"
	case OpSubstitution:
		return "substitution"
	case OpInsertion:
		return "insertion"
	case OpDeletion:
		return "deletion"
	default:
		return "unknown"
	}
}

// Marker returns the character drawn between the two rows of a pairwise view.
func (k OpKind) Marker() byte {
	switch k {
	case OpMatch:
		return '|'
	case OpSubstitution:
		return '*'
	default:
		return ' '
	}
}

// IsEdit reports whether the kind contributes to the edit distance.
func (k OpKind) IsEdit() bool {
	return k != OpMatch
}

// MarshalText encodes the kind by name.
func (k OpKind) MarshalText() ([]byte, error) {
	if k < OpMatch || k > OpDeletion {
		return nil, fmt.Errorf("invalid op kind %d", int(k))
	}
	return []byte(k.String()), nil
}

// UnmarshalText decodes a kind name.
func (k *OpKind) UnmarshalText(text []byte) error {
	switch strings.ToLower(string(text)) {
	case "match":
		*k = OpMatch
	case "substitution":
		*k = OpSubstitution
	case "insertion":
		*k = OpInsertion
	case "deletion":
		*k = OpDeletion
	default:
		return fmt.Errorf("unknown op kind %q", string(text))
	}
	return nil
}

// =============================================================================
// OP
// =============================================================================

// Op is one column of an alignment. Original is 0 for insertions and Edited
// is 0 for deletions; the matching position is -1 in those cases.
type Op struct {
	Kind        OpKind
	Original    byte // Base from the original sequence
	Edited      byte // Base from the edited sequence
	OriginalPos int  // 0-based index into the original, -1 if none
	EditedPos   int  // 0-based index into the edited, -1 if none
}

// HasOriginal reports whether the op consumes an original base.
func (o Op) HasOriginal() bool {
	return o.Kind != OpInsertion
}

// HasEdited reports whether the op consumes an edited base.
func (o Op) HasEdited() bool {
	return o.Kind != OpDeletion
}

// =============================================================================
// ALIGNMENT
// =============================================================================

// Align computes the minimum-edit alignment of edited against original.
//
// Cost is 1 per substitution, insertion or deletion and 0 per match. When
// several predecessors explain a cell equally well, traceback prefers the
// diagonal, then a deletion, then an insertion.
func Align(original, edited sequence.Sequence) *Result {
	a, b := original.String(), edited.String()
	n, m := len(a), len(b)
	width := m + 1

	// Flat (n+1)x(m+1) matrix, row-major
	cost := make([]int32, (n+1)*width)
	for i := 0; i <= n; i++ {
		cost[i*width] = int32(i)
	}
	for j := 0; j <= m; j++ {
		cost[j] = int32(j)
	}

	for i := 1; i <= n; i++ {
		row := i * width
		prev := row - width
		for j := 1; j <= m; j++ {
			if a[i-1] == b[j-1] {
				cost[row+j] = cost[prev+j-1]
				continue
			}
			best := cost[prev+j-1] // substitution
			if del := cost[prev+j]; del < best {
				best = del
			}
			if ins := cost[row+j-1]; ins < best {
				best = ins
			}
			cost[row+j] = best + 1
		}
	}

	ops := make([]Op, 0, max(n, m))
	i, j := n, m
	for i > 0 || j > 0 {
		here := cost[i*width+j]

		if i > 0 && j > 0 {
			step := int32(0)
			if a[i-1] != b[j-1] {
				step = 1
			}
			if cost[(i-1)*width+j-1]+step == here {
				kind := OpMatch
				if step == 1 {
					kind = OpSubstitution
				}
				ops = append(ops, Op{
					Kind:        kind,
					Original:    a[i-1],
					Edited:      b[j-1],
					OriginalPos: i - 1,
					EditedPos:   j - 1,
				})
				i--
				j--
				continue
			}
		}

		if i > 0 && cost[(i-1)*width+j]+1 == here {
			ops = append(ops, Op{
				Kind:        OpDeletion,
				Original:    a[i-1],
				OriginalPos: i - 1,
				EditedPos:   -1,
			})
			i--
			continue
		}

		ops = append(ops, Op{
			Kind:        OpInsertion,
			Edited:      b[j-1],
			OriginalPos: -1,
			EditedPos:   j - 1,
		})
		j--
	}

	// Traceback runs right to left
	for l, r := 0, len(ops)-1; l < r; l, r = l+1, r-1 {
		ops[l], ops[r] = ops[r], ops[l]
	}

	return newResult(ops, n, m)
}

// Strings validates both raw inputs and aligns them. Validation errors are
// *sequence.ValidationError with Field set to "original" or "edited".
func Strings(original, edited string) (*Result, error) {
	orig, err := sequence.ParseField("original", original)
	if err != nil {
		return nil, err
	}
	edit, err := sequence.ParseField("edited", edited)
	if err != nil {
		return nil, err
	}
	return Align(orig, edit), nil
}

// SimilarityRatio returns matches divided by the longer input length, or 1.0
// when both inputs were empty.
func SimilarityRatio(r *Result) float64 {
	longest := max(r.OriginalLen, r.EditedLen)
	if longest == 0 {
		return 1.0
	}
	return float64(r.Counts.Matches) / float64(longest)
}
