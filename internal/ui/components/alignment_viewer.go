// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package components provides UI components for seqdiff.
package components

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"

	"github.com/bionova/seqdiff/internal/align"
	"github.com/bionova/seqdiff/internal/ui/styles"
)

const (
	// maxLabelWidth bounds sequence names in the row gutter
	maxLabelWidth = 16
	// minBlockSize is the narrowest block the viewer will wrap to
	minBlockSize = 10
)

// =============================================================================
// ALIGNMENT VIEWER
// =============================================================================

// AlignmentViewer renders an alignment result as color-coded, wrapped
// three-row blocks. It never recomputes the alignment.
type AlignmentViewer struct {
	result       *align.Result
	originalName string
	editedName   string
	title        string
	width        int
	blockSize    int
	showHunks    bool
	showLegend   bool
	bordered     bool
}

// NewAlignmentViewer creates a viewer for res.
func NewAlignmentViewer(res *align.Result) *AlignmentViewer {
	return &AlignmentViewer{
		result:       res,
		originalName: "original",
		editedName:   "edited",
		title:        "Sequence Comparison",
		width:        80,
		showLegend:   true,
		bordered:     true,
	}
}

// SetSize sets the total render width.
func (av *AlignmentViewer) SetSize(width int) {
	av.width = width
}

// SetBlockSize fixes the number of columns per block (0 derives it from width).
func (av *AlignmentViewer) SetBlockSize(n int) {
	av.blockSize = n
}

// SetNames sets the row labels. Empty names keep the defaults.
func (av *AlignmentViewer) SetNames(original, edited string) {
	if original != "" {
		av.originalName = original
	}
	if edited != "" {
		av.editedName = edited
	}
}

// SetTitle sets the header text.
func (av *AlignmentViewer) SetTitle(title string) {
	av.title = title
}

// ShowHunks switches from the full alignment to changed regions only.
func (av *AlignmentViewer) ShowHunks(show bool) {
	av.showHunks = show
}

// SetBordered toggles the rounded container.
func (av *AlignmentViewer) SetBordered(bordered bool) {
	av.bordered = bordered
}

// SetLegend toggles the color legend line.
func (av *AlignmentViewer) SetLegend(show bool) {
	av.showLegend = show
}

// =============================================================================
// RENDERING
// =============================================================================

// View renders the viewer.
func (av *AlignmentViewer) View() string {
	if av.result == nil {
		return "No comparison available"
	}

	var content strings.Builder

	content.WriteString(av.renderHeader())
	content.WriteString("\n\n")
	content.WriteString(av.renderStats())
	content.WriteString("\n")

	if av.showLegend {
		content.WriteString(av.renderLegend())
		content.WriteString("\n")
	}

	separatorStyle := lipgloss.NewStyle().Foreground(styles.Overlay)
	content.WriteString(separatorStyle.Render(strings.Repeat("-", max(av.innerWidth(), 10))))
	content.WriteString("\n\n")

	if av.showHunks {
		content.WriteString(av.renderHunks())
	} else {
		content.WriteString(av.renderBlocks())
	}

	body := strings.TrimRight(content.String(), "\n")
	if !av.bordered {
		return body
	}

	containerStyle := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(styles.Purple).
		Padding(1, 2)

	return containerStyle.Render(body)
}

func (av *AlignmentViewer) renderHeader() string {
	titleStyle := lipgloss.NewStyle().
		Foreground(styles.Purple).
		Bold(true).
		Underline(true)

	return titleStyle.Render(av.title)
}

// renderStats renders the counts, similarity and a similarity bar.
func (av *AlignmentViewer) renderStats() string {
	res := av.result
	mutedStyle := lipgloss.NewStyle().
		Foreground(styles.TextMuted).
		Italic(true)

	lengths := fmt.Sprintf("%d bp vs %d bp", res.OriginalLen, res.EditedLen)
	parts := []string{mutedStyle.Render(lengths)}

	if res.IsIdentical() {
		parts = append(parts, styles.RenderSuccess("identical"))
	} else {
		counts := []struct {
			n     int
			label string
			kind  align.OpKind
		}{
			{res.Counts.Substitutions, "sub", align.OpSubstitution},
			{res.Counts.Insertions, "ins", align.OpInsertion},
			{res.Counts.Deletions, "del", align.OpDeletion},
		}
		for _, c := range counts {
			if c.n == 0 {
				continue
			}
			style := lipgloss.NewStyle().Foreground(styles.OpColor(c.kind)).Bold(true)
			parts = append(parts, style.Render(fmt.Sprintf("%d %s", c.n, c.label)))
		}
	}

	pct := res.Similarity * 100
	similarity := fmt.Sprintf("%5.1f%% [%s]", pct, styles.RenderBar(20, pct))
	parts = append(parts, lipgloss.NewStyle().Foreground(styles.Cyan).Render(similarity))

	return strings.Join(parts, "  ")
}

func (av *AlignmentViewer) renderLegend() string {
	var parts []string
	for _, kind := range []align.OpKind{align.OpMatch, align.OpSubstitution, align.OpInsertion, align.OpDeletion} {
		parts = append(parts, styles.OpStyle(kind).Render(kind.String()))
	}
	return strings.Join(parts, " ")
}

// renderBlocks renders the whole alignment in wrapped blocks.
func (av *AlignmentViewer) renderBlocks() string {
	blocks := av.result.Blocks(av.columns())
	if len(blocks) == 0 {
		return lipgloss.NewStyle().
			Foreground(styles.TextMuted).
			Italic(true).
			Render("Both sequences are empty")
	}

	var content strings.Builder
	for i, b := range blocks {
		if i > 0 {
			content.WriteString("\n")
		}
		content.WriteString(av.renderBlock(b))
	}
	return content.String()
}

// renderHunks renders only changed regions, each under its header.
func (av *AlignmentViewer) renderHunks() string {
	hunks := av.result.Hunks(align.DefaultContext)
	if len(hunks) == 0 {
		return lipgloss.NewStyle().
			Foreground(styles.TextMuted).
			Italic(true).
			Render("No changes")
	}

	headerStyle := lipgloss.NewStyle().
		Foreground(styles.Cyan).
		Background(styles.SurfaceDim).
		Bold(true).
		Padding(0, 1)

	var content strings.Builder
	for i, h := range hunks {
		if i > 0 {
			content.WriteString("\n")
		}
		content.WriteString(headerStyle.Render(h.Header()))
		content.WriteString("\n")

		// Re-wrap each hunk at the viewer's block size
		sub := &align.Result{Ops: h.Ops}
		origStart, editStart := h.OriginalStart, h.EditedStart
		if h.OriginalCount == 0 {
			origStart++
		}
		if h.EditedCount == 0 {
			editStart++
		}
		for _, b := range sub.Blocks(av.columns()) {
			b.OriginalStart += origStart - 1
			b.OriginalEnd += origStart - 1
			b.EditedStart += editStart - 1
			b.EditedEnd += editStart - 1
			content.WriteString(av.renderBlock(b))
		}
	}
	return content.String()
}

// renderBlock renders the original row, marker row and edited row.
func (av *AlignmentViewer) renderBlock(b align.Block) string {
	labelWidth := av.labelWidth()
	numWidth := av.numWidth()
	coordStyle := lipgloss.NewStyle().Foreground(styles.TextMuted)
	labelStyle := lipgloss.NewStyle().Foreground(styles.TextSecondary)

	gutter := func(label string, pos int) string {
		name := runewidth.FillRight(runewidth.Truncate(label, labelWidth, "~"), labelWidth)
		return labelStyle.Render(name) + " " + coordStyle.Render(fmt.Sprintf("%*d", numWidth, pos)) + " "
	}
	blank := strings.Repeat(" ", labelWidth+numWidth+2)

	var sb strings.Builder
	sb.WriteString(gutter(av.originalName, b.OriginalStart))
	sb.WriteString(renderRow(b.Ops, originalCell))
	sb.WriteString(" " + coordStyle.Render(fmt.Sprint(b.OriginalEnd)))
	sb.WriteString("\n")

	sb.WriteString(blank)
	sb.WriteString(renderRow(b.Ops, markerCell))
	sb.WriteString("\n")

	sb.WriteString(gutter(av.editedName, b.EditedStart))
	sb.WriteString(renderRow(b.Ops, editedCell))
	sb.WriteString(" " + coordStyle.Render(fmt.Sprint(b.EditedEnd)))
	sb.WriteString("\n")

	return sb.String()
}

func originalCell(op align.Op) byte {
	if op.HasOriginal() {
		return op.Original
	}
	return align.GapChar
}

func editedCell(op align.Op) byte {
	if op.HasEdited() {
		return op.Edited
	}
	return align.GapChar
}

func markerCell(op align.Op) byte {
	return op.Kind.Marker()
}

// renderRow styles runs of same-kind ops together.
func renderRow(ops []align.Op, cell func(align.Op) byte) string {
	var sb strings.Builder
	var run []byte
	for i, op := range ops {
		run = append(run, cell(op))
		if i == len(ops)-1 || ops[i+1].Kind != op.Kind {
			sb.WriteString(styles.OpStyle(op.Kind).Render(string(run)))
			run = run[:0]
		}
	}
	return sb.String()
}

// =============================================================================
// LAYOUT
// =============================================================================

func (av *AlignmentViewer) innerWidth() int {
	if av.bordered {
		// Border (2) + padding (4)
		return av.width - 6
	}
	return av.width
}

func (av *AlignmentViewer) labelWidth() int {
	w := max(runewidth.StringWidth(av.originalName), runewidth.StringWidth(av.editedName))
	return min(w, maxLabelWidth)
}

func (av *AlignmentViewer) numWidth() int {
	return len(fmt.Sprint(max(av.result.OriginalLen, av.result.EditedLen, 1)))
}

// columns returns the block size that fits the configured width.
func (av *AlignmentViewer) columns() int {
	if av.blockSize > 0 {
		return av.blockSize
	}
	// gutter + trailing coordinate
	cols := av.innerWidth() - av.labelWidth() - 2*av.numWidth() - 3
	return max(cols, minBlockSize)
}
