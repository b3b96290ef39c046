// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

/*
Package styles provides the visual styling system for seqdiff.

All colors use Lip Gloss AdaptiveColor for automatic light/dark terminal
detection. Color is never the only signal: alignment views keep the marker
row and status lines carry ASCII indicators.

# Color System (colors.go)

  - Purple - Titles and container borders
  - Cyan - Coordinates, hunk headers, focused inputs
  - Amber - Substitutions
  - Emerald - Insertions and success
  - Rose - Deletions and errors

OpColor and OpStyle map an align.OpKind to its color and cell style.

# Theme (theme.go)

Theme bundles the lipgloss styles of the interactive comparer and records
the terminal color profile.

# Bars (bars.go)

RenderBar draws the ASCII similarity bar.
*/
package styles
