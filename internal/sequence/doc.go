// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package sequence provides the nucleotide sequence value type.
//
// Sequences are ingested from user input, normalized (Unicode folding and
// uppercasing) and validated against the {A, C, G, T} alphabet before
// anything else sees them. Nothing is stripped: a space or quote is an
// invalid character reported at its position in the input.
//
// # Key Types
//
//   - Sequence: Immutable, validated run of nucleotide bases
//   - ValidationError: Invalid-character or missing-input failure
//
// # Usage
//
// Parse user input:
//
//	seq, err := sequence.Parse("acgtacgt")
//	if err != nil {
//	    var verr *sequence.ValidationError
//	    if errors.As(err, &verr) {
//	        fmt.Printf("bad base %q at %d\n", verr.Symbol, verr.Index)
//	    }
//	}
//
// Read a FASTA or plain-text file:
//
//	seq, err := sequence.ReadFile("sample.fa")
package sequence
