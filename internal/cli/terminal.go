// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// terminal.go - Terminal detection and color mode for seqdiff output.
//
// Interactive terminals get colors, prompts and width-fitted alignments;
// piped output gets plain text at the configured wrap width. --color
// overrides the detection the same way diff and git diff do.

package cli

import (
	"os"
	"strings"
	"sync"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
	"golang.org/x/term"
)

// =============================================================================
// TTY DETECTION
// =============================================================================

// IsTTY returns true if stdin is a terminal.
func IsTTY() bool {
	return term.IsTerminal(int(os.Stdin.Fd()))
}

// IsStdoutTTY returns true if stdout is a terminal.
func IsStdoutTTY() bool {
	return term.IsTerminal(int(os.Stdout.Fd()))
}

// CanPrompt returns true if sequences and confirmations can be read
// interactively.
func CanPrompt() bool {
	return IsTTY()
}

// RequiresTTY returns an error if stdin is not a terminal.
func RequiresTTY(operation string) error {
	if !IsTTY() {
		return &TTYRequiredError{Operation: operation}
	}
	return nil
}

// TTYRequiredError is returned when an operation needs a terminal.
type TTYRequiredError struct {
	Operation string
}

func (e *TTYRequiredError) Error() string {
	if e.Operation != "" {
		return "stdin is not a terminal; cannot " + e.Operation + " interactively"
	}
	return "stdin is not a terminal; interactive input not available"
}

// =============================================================================
// WIDTH
// =============================================================================

const (
	// DefaultTerminalWidth is the fallback width when detection fails
	DefaultTerminalWidth = 80

	// MinTerminalWidth is the narrowest width an alignment is rendered at
	MinTerminalWidth = 40
)

// GetTerminalWidth returns the width of stdout, or fallback when stdout is
// not a terminal (fallback <= 0 means DefaultTerminalWidth). The result is
// never below MinTerminalWidth.
func GetTerminalWidth(fallback int) int {
	if fallback <= 0 {
		fallback = DefaultTerminalWidth
	}
	if width, _, err := term.GetSize(int(os.Stdout.Fd())); err == nil && width > 0 {
		return max(width, MinTerminalWidth)
	}
	return max(fallback, MinTerminalWidth)
}

// =============================================================================
// COLOR MODE
// =============================================================================

// ColorMode selects when output is colored.
type ColorMode string

const (
	// ColorAuto colors terminals and honors NO_COLOR and FORCE_COLOR
	ColorAuto   ColorMode = "auto"
	ColorAlways ColorMode = "always"
	ColorNever  ColorMode = "never"
)

// ParseColorMode parses a --color value. Empty means auto.
func ParseColorMode(s string) (ColorMode, error) {
	switch ColorMode(strings.ToLower(strings.TrimSpace(s))) {
	case "", ColorAuto:
		return ColorAuto, nil
	case ColorAlways, "force":
		return ColorAlways, nil
	case ColorNever, "none", "off":
		return ColorNever, nil
	default:
		return "", NewValidationErrorWithExample("color", s, "must be auto, always or never", "--color=never")
	}
}

var (
	colorMu      sync.Mutex
	colorMode    = ColorAuto
	colorsCached *bool
)

// SetColorMode applies mode to everything rendered afterwards, including
// the lipgloss styles shared with the alignment viewer.
func SetColorMode(mode ColorMode) {
	colorMu.Lock()
	colorMode = mode
	colorsCached = nil
	colorMu.Unlock()

	lipgloss.SetColorProfile(GetColorProfile())
}

// ColorsEnabled reports whether output should be colored.
func ColorsEnabled() bool {
	colorMu.Lock()
	defer colorMu.Unlock()

	if colorsCached == nil {
		enabled := detectColors(colorMode)
		colorsCached = &enabled
	}
	return *colorsCached
}

func detectColors(mode ColorMode) bool {
	switch mode {
	case ColorAlways:
		return true
	case ColorNever:
		return false
	}
	// https://no-color.org/
	if os.Getenv("NO_COLOR") != "" {
		return false
	}
	if os.Getenv("FORCE_COLOR") != "" {
		return true
	}
	return IsStdoutTTY()
}

// GetColorProfile returns the termenv profile for the current mode.
// --color=always on a pipe still emits 256 colors.
func GetColorProfile() termenv.Profile {
	if !ColorsEnabled() {
		return termenv.Ascii
	}
	if profile := termenv.ColorProfile(); profile != termenv.Ascii {
		return profile
	}
	return termenv.ANSI256
}
