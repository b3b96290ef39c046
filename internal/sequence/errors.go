// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package sequence

import (
	"errors"
	"fmt"
)

// =============================================================================
// SENTINEL ERRORS
// =============================================================================

var (
	// ErrInvalidCharacter is matched by validation errors for non-ACGT symbols.
	ErrInvalidCharacter = errors.New("invalid character")

	// ErrMissingInput is matched by validation errors for absent sequences.
	ErrMissingInput = errors.New("missing input")
)

// =============================================================================
// VALIDATION ERROR
// =============================================================================

// ErrorKind classifies a validation failure.
type ErrorKind int

const (
	// KindInvalidCharacter means a symbol outside the alphabet was found.
	KindInvalidCharacter ErrorKind = iota
	// KindMissingInput means the sequence argument was absent.
	KindMissingInput
)

// String returns the wire name of the kind.
func (k ErrorKind) String() string {
	switch k {
	case KindInvalidCharacter:
		return "invalid_character"
	case KindMissingInput:
		return "missing_input"
	default:
		return "unknown"
	}
}

// ValidationError describes why an input could not become a Sequence.
// Symbol and Index are only meaningful for KindInvalidCharacter; Index is
// 0-based and counts runes of the normalized input.
type ValidationError struct {
	Kind   ErrorKind
	Field  string // Which input failed ("original", "edited", a file path), may be empty
	Symbol rune
	Index  int
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	prefix := ""
	if e.Field != "" {
		prefix = e.Field + ": "
	}

	switch e.Kind {
	case KindInvalidCharacter:
		return fmt.Sprintf("%sinvalid base %q at index %d; allowed: A C G T", prefix, e.Symbol, e.Index)
	case KindMissingInput:
		return prefix + "sequence is required"
	default:
		return prefix + "invalid sequence"
	}
}

// Unwrap lets errors.Is match the kind sentinels.
func (e *ValidationError) Unwrap() error {
	switch e.Kind {
	case KindInvalidCharacter:
		return ErrInvalidCharacter
	case KindMissingInput:
		return ErrMissingInput
	default:
		return nil
	}
}

// IsValidationError reports whether err carries a *ValidationError.
func IsValidationError(err error) bool {
	var verr *ValidationError
	return errors.As(err, &verr)
}
