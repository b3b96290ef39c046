// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"os"
	"strings"
	"testing"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"

	"github.com/bionova/seqdiff/internal/align"
)

func TestMain(m *testing.M) {
	// Plain output keeps assertions independent of the test terminal
	lipgloss.SetColorProfile(termenv.Ascii)
	os.Exit(m.Run())
}

func mustAlign(t *testing.T, original, edited string) *align.Result {
	t.Helper()
	res, err := align.Strings(original, edited)
	if err != nil {
		t.Fatalf("align failed: %v", err)
	}
	return res
}

func TestNewAlignmentViewer(t *testing.T) {
	res := mustAlign(t, "ACGT", "AGT")
	viewer := NewAlignmentViewer(res)

	if viewer.result != res {
		t.Error("Result not set correctly")
	}
	if viewer.originalName != "original" || viewer.editedName != "edited" {
		t.Errorf("Unexpected default names %s/%s", viewer.originalName, viewer.editedName)
	}
	if !viewer.bordered || !viewer.showLegend {
		t.Error("Should be bordered with legend by default")
	}
}

func TestAlignmentViewer_Title(t *testing.T) {
	viewer := NewAlignmentViewer(mustAlign(t, "ACGT", "AGT"))
	if !strings.Contains(viewer.View(), "Sequence Comparison") {
		t.Error("Expected the default title")
	}

	viewer.SetTitle("Comparison cmp_3f2a")
	view := viewer.View()
	if !strings.Contains(view, "cmp_3f2a") || strings.Contains(view, "Sequence Comparison") {
		t.Errorf("Expected the custom title, got:\n%s", view)
	}
}

func TestAlignmentViewer_NilResult(t *testing.T) {
	viewer := NewAlignmentViewer(nil)
	if viewer.View() != "No comparison available" {
		t.Errorf("Unexpected view for nil result: %s", viewer.View())
	}
}

func TestAlignmentViewer_RendersRows(t *testing.T) {
	viewer := NewAlignmentViewer(mustAlign(t, "ACGTACGTAC", "ACTTACGAC"))
	viewer.SetBordered(false)
	viewer.SetLegend(false)
	viewer.SetBlockSize(6)

	view := viewer.View()

	for _, want := range []string{
		"Sequence Comparison",
		"10 bp vs 9 bp",
		"1 sub",
		"1 del",
		"original  1 ACGTAC 6",
		"||*|||",
		"edited    1 ACTTAC 6",
		"original  7 GTAC 10",
		"edited    7 G-AC 9",
	} {
		if !strings.Contains(view, want) {
			t.Errorf("Expected view to contain %q\n%s", want, view)
		}
	}
}

func TestAlignmentViewer_Identical(t *testing.T) {
	viewer := NewAlignmentViewer(mustAlign(t, "ACGT", "ACGT"))
	view := viewer.View()

	if !strings.Contains(view, "[OK] identical") {
		t.Errorf("Expected identical badge, got\n%s", view)
	}
	if !strings.Contains(view, "100.0%") {
		t.Errorf("Expected 100%% similarity, got\n%s", view)
	}
}

func TestAlignmentViewer_Empty(t *testing.T) {
	view := NewAlignmentViewer(mustAlign(t, "", "")).View()
	if !strings.Contains(view, "Both sequences are empty") {
		t.Errorf("Expected empty notice, got\n%s", view)
	}
}

func TestAlignmentViewer_Hunks(t *testing.T) {
	viewer := NewAlignmentViewer(mustAlign(t,
		"ATGCTAGCTAGCTAGCTAGCTAGCTAGCTAGGCATCGATCGAT",
		"ATGCTAGCGAGCTAGCTAGCAAACTAGCTAGGCATCGATCGAT"))
	viewer.ShowHunks(true)
	viewer.SetBordered(false)

	view := viewer.View()
	if !strings.Contains(view, "@@ -6,7 +6,7 @@") || !strings.Contains(view, "@@ -18,9 +18,9 @@") {
		t.Errorf("Expected both hunk headers, got\n%s", view)
	}
	if !strings.Contains(view, "original  6 AGCTAGC 12") {
		t.Errorf("Expected hunk rows with absolute coordinates, got\n%s", view)
	}
}

func TestAlignmentViewer_HunksIdentical(t *testing.T) {
	viewer := NewAlignmentViewer(mustAlign(t, "ACGT", "ACGT"))
	viewer.ShowHunks(true)
	if !strings.Contains(viewer.View(), "No changes") {
		t.Error("Expected 'No changes' for identical sequences")
	}
}

func TestAlignmentViewer_Names(t *testing.T) {
	viewer := NewAlignmentViewer(mustAlign(t, "ACGT", "ACGA"))
	viewer.SetNames("wild-type", "")
	viewer.SetBordered(false)

	view := viewer.View()
	if !strings.Contains(view, "wild-type 1 ACGT 4") {
		t.Errorf("Expected custom original label, got\n%s", view)
	}
	if !strings.Contains(view, "edited    1 ACGA 4") {
		t.Errorf("Expected padded edited label, got\n%s", view)
	}
}

func TestAlignmentViewer_ColumnsFromWidth(t *testing.T) {
	viewer := NewAlignmentViewer(mustAlign(t, strings.Repeat("A", 200), strings.Repeat("A", 200)))

	viewer.SetSize(80)
	// 80 - 6 (border) - 8 (label) - 2*3 (coords) - 3 (spaces)
	if got := viewer.columns(); got != 57 {
		t.Errorf("Expected 57 columns, got %d", got)
	}

	viewer.SetSize(10)
	if got := viewer.columns(); got != minBlockSize {
		t.Errorf("Expected minimum %d columns, got %d", minBlockSize, got)
	}
}

func TestHighlight_UnknownLanguage(t *testing.T) {
	code := "ACGT"
	if got := Highlight(code, "no-such-language-xyz"); !strings.Contains(got, "ACGT") {
		t.Errorf("Highlight should keep content, got %q", got)
	}
}

func TestHighlightJSON_KeepsContent(t *testing.T) {
	got := HighlightJSON(`{"similarity": 0.93}`)
	if !strings.Contains(got, "similarity") || !strings.Contains(got, "0.93") {
		t.Errorf("Highlighted JSON lost content: %q", got)
	}
}

func TestRenderMarkdown_KeepsText(t *testing.T) {
	out := ExplainVerification("Base", 60)
	if !strings.Contains(out, "Base") || !strings.Contains(out, "Keccak") {
		t.Errorf("Explanation missing key text:\n%s", out)
	}
}
