// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

/*
Package components provides the terminal renderers shared by the seqdiff CLI
and the interactive comparer.

# Components

AlignmentViewer (alignment_viewer.go) - Colored pairwise alignment with
coordinates, a match bar, optional hunks, a legend and a statistics header.
Blocks wrap to the terminal width unless a block size is fixed.

Highlight (codeblock.go) - Chroma syntax highlighting for JSON, Markdown and
HTML exports written to a terminal.

RenderMarkdown (explanation.go) - Glamour rendering, used by
"seqdiff verify --explain".

# Usage

	viewer := components.NewAlignmentViewer(result)
	viewer.SetSize(100)
	viewer.SetNames("reference", "construct")
	viewer.ShowHunks(true)
	fmt.Println(viewer.View())

Color follows the lipgloss color profile, so output piped to a file or a
non-TTY is plain text.
*/
package components
