// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package styles

import (
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
)

// Theme holds the styled components shared by the viewer and the
// interactive comparer. It records the terminal's color capability.
type Theme struct {
	// Terminal capabilities
	IsDark       bool
	HasTrueColor bool
	ColorProfile termenv.Profile

	// Layout
	Width  int
	Height int

	// Chrome
	Title     lipgloss.Style
	Subtitle  lipgloss.Style
	Container lipgloss.Style
	Separator lipgloss.Style

	// Tabs
	Tab       lipgloss.Style
	ActiveTab lipgloss.Style

	// Inputs
	Label        lipgloss.Style
	FocusedLabel lipgloss.Style

	// Coordinates and hunk headers
	Coordinate lipgloss.Style
	HunkHeader lipgloss.Style

	// Footer
	Help      lipgloss.Style
	ErrorText lipgloss.Style
}

// NewTheme creates a theme for the detected terminal.
func NewTheme() *Theme {
	return NewThemeWithProfile(termenv.ColorProfile())
}

// NewThemeWithProfile creates a theme for an explicit color profile.
func NewThemeWithProfile(profile termenv.Profile) *Theme {
	t := &Theme{
		IsDark:       termenv.HasDarkBackground(),
		HasTrueColor: profile == termenv.TrueColor,
		ColorProfile: profile,
		Width:        80,
		Height:       24,
	}
	t.initStyles()
	return t
}

func (t *Theme) initStyles() {
	t.Title = lipgloss.NewStyle().
		Foreground(Purple).
		Bold(true).
		Underline(true)

	t.Subtitle = lipgloss.NewStyle().
		Foreground(TextSecondary).
		Italic(true)

	t.Container = lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(Purple).
		Padding(1, 2)

	t.Separator = lipgloss.NewStyle().
		Foreground(Overlay)

	t.Tab = lipgloss.NewStyle().
		Foreground(TextMuted).
		Padding(0, 2)

	t.ActiveTab = lipgloss.NewStyle().
		Foreground(Cyan).
		Background(SurfaceDim).
		Bold(true).
		Padding(0, 2)

	t.Label = lipgloss.NewStyle().
		Foreground(TextSecondary)

	t.FocusedLabel = lipgloss.NewStyle().
		Foreground(Cyan).
		Bold(true)

	t.Coordinate = lipgloss.NewStyle().
		Foreground(TextMuted)

	t.HunkHeader = lipgloss.NewStyle().
		Foreground(Cyan).
		Background(SurfaceDim).
		Bold(true).
		Padding(0, 1)

	t.Help = lipgloss.NewStyle().
		Foreground(TextMuted).
		Italic(true)

	t.ErrorText = lipgloss.NewStyle().
		Foreground(ErrorHighContrast).
		Bold(true)
}

// SetSize records the terminal dimensions.
func (t *Theme) SetSize(width, height int) {
	t.Width = width
	t.Height = height
}
