// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package sequence

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/unicode/norm"
)

// Alphabet is the set of accepted nucleotide bases, in canonical order.
const Alphabet = "ACGT"

// IsBase reports whether b is one of A, C, G or T (uppercase only).
func IsBase(b byte) bool {
	switch b {
	case 'A', 'C', 'G', 'T':
		return true
	}
	return false
}

// =============================================================================
// SEQUENCE
// =============================================================================

// Sequence is an immutable, validated run of uppercase nucleotide bases.
// The zero value is the empty sequence.
type Sequence struct {
	name  string
	bases string
}

// Len returns the number of bases.
func (s Sequence) Len() int {
	return len(s.bases)
}

// At returns the base at position i (0-based).
func (s Sequence) At(i int) byte {
	return s.bases[i]
}

// String returns the bases as an uppercase string.
func (s Sequence) String() string {
	return s.bases
}

// Name returns the optional label (FASTA header or caller supplied).
func (s Sequence) Name() string {
	return s.name
}

// WithName returns a copy of s carrying the given label.
func (s Sequence) WithName(name string) Sequence {
	return Sequence{name: name, bases: s.bases}
}

// IsEmpty reports whether the sequence has no bases.
func (s Sequence) IsEmpty() bool {
	return len(s.bases) == 0
}

// =============================================================================
// NORMALIZATION & PARSING
// =============================================================================

// foldRune NFKC-folds and uppercases a single input symbol, so full-width
// and lowercase bases validate. Nothing is dropped.
func foldRune(r rune) string {
	if r < utf8.RuneSelf {
		return string(unicode.ToUpper(r))
	}
	return strings.ToUpper(norm.NFKC.String(string(r)))
}

// Parse normalizes raw and validates it against the alphabet.
func Parse(raw string) (Sequence, error) {
	return ParseField("", raw)
}

// ParseField is Parse with a field label attached to any validation error.
// The error index counts symbols (runes) of raw, so it points at the
// character the caller actually supplied.
func ParseField(field, raw string) (Sequence, error) {
	bases := make([]byte, 0, len(raw))

	index := 0
	for _, r := range raw {
		folded := foldRune(r)
		if len(folded) != 1 || !IsBase(folded[0]) {
			symbol := unicode.ToUpper(r)
			if utf8.RuneCountInString(folded) == 1 {
				symbol, _ = utf8.DecodeRuneInString(folded)
			}
			return Sequence{}, &ValidationError{
				Kind:   KindInvalidCharacter,
				Field:  field,
				Symbol: symbol,
				Index:  index,
			}
		}
		bases = append(bases, folded[0])
		index++
	}

	return Sequence{bases: string(bases)}, nil
}

// ParseNullable is ParseField for inputs that may be absent, such as
// optional JSON fields. A nil raw yields a KindMissingInput error.
func ParseNullable(field string, raw *string) (Sequence, error) {
	if raw == nil {
		return Sequence{}, &ValidationError{Kind: KindMissingInput, Field: field}
	}
	return ParseField(field, *raw)
}

// MustParse is Parse that panics on error. Intended for fixtures.
func MustParse(raw string) Sequence {
	seq, err := Parse(raw)
	if err != nil {
		panic(err)
	}
	return seq
}
