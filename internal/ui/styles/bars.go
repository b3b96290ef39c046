// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package styles

import "strings"

// Bar characters for similarity and progress displays.
var (
	BarFull    = "#"
	BarEmpty   = "-"
	BarPartial = []string{".", ":", "+"}
)

// RenderBar draws a fixed-width bar filled to percent (0-100).
func RenderBar(width int, percent float64) string {
	if width <= 0 {
		return ""
	}
	if percent < 0 {
		percent = 0
	}
	if percent > 100 {
		percent = 100
	}

	filled := float64(width) * percent / 100
	full := int(filled)
	partial := int((filled - float64(full)) * float64(len(BarPartial)+1))

	var sb strings.Builder
	sb.Grow(width)

	for i := 0; i < full && i < width; i++ {
		sb.WriteString(BarFull)
	}
	if full < width && partial > 0 {
		sb.WriteString(BarPartial[partial-1])
		full++
	}
	for i := full; i < width; i++ {
		sb.WriteString(BarEmpty)
	}

	return sb.String()
}
