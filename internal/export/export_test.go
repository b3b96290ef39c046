// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package export

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/bionova/seqdiff/internal/sequence"
	"github.com/bionova/seqdiff/internal/storage"
	"github.com/bionova/seqdiff/internal/verify"
)

const (
	demoOriginal = "ATGCTAGCTAGCTAGCTAGCTAGCTAGCTAGGCATCGATCGAT"
	demoEdited   = "ATGCTAGCGAGCTAGCTAGCAAACTAGCTAGGCATCGATCGAT"
)

func demoComparison() *Comparison {
	c := New(
		sequence.MustParse(demoOriginal).WithName("wild-type"),
		sequence.MustParse(demoEdited).WithName("edited-1"),
	)
	c.ID = "cmp_0123456789abcdef"
	c.CreatedAt = time.Date(2025, 6, 1, 9, 30, 0, 0, time.UTC)
	return c
}

func TestForFormat(t *testing.T) {
	tests := []struct {
		name string
		ext  string
		mime string
	}{
		{"json", ".json", "application/json"},
		{"md", ".md", "text/markdown"},
		{"Markdown", ".md", "text/markdown"},
		{"html", ".html", "text/html"},
		{"txt", ".txt", "text/plain"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e, err := ForFormat(tt.name, nil)
			require.NoError(t, err)
			if e.FileExtension() != tt.ext {
				t.Errorf("Expected extension %q, got %q", tt.ext, e.FileExtension())
			}
			if e.MimeType() != tt.mime {
				t.Errorf("Expected mime %q, got %q", tt.mime, e.MimeType())
			}
		})
	}

	_, err := ForFormat("pdf", nil)
	if !errors.Is(err, ErrUnknownFormat) {
		t.Errorf("Expected ErrUnknownFormat, got %v", err)
	}
}

func TestExporters_RejectNil(t *testing.T) {
	for _, name := range Formats() {
		e, err := ForFormat(name, nil)
		require.NoError(t, err)
		if _, err := e.Export(nil); err == nil {
			t.Errorf("%s: expected error for nil comparison", name)
		}
		if _, err := e.Export(&Comparison{}); err == nil {
			t.Errorf("%s: expected error for missing result", name)
		}
	}
}

func TestJSONExport(t *testing.T) {
	c := demoComparison()
	out, err := NewJSONExporter(nil).Export(c)
	require.NoError(t, err)

	var doc map[string]interface{}
	require.NoError(t, json.Unmarshal(out, &doc))
	require.Equal(t, "s8Gs12As2A", doc["edit_script"])
	require.Equal(t, c.Hash(), doc["result_hash"])
	require.Equal(t, demoOriginal, doc["original"])
	require.Contains(t, doc, "result")
	require.NotContains(t, doc, "receipt")

	opts := DefaultOptions()
	opts.IncludeSequences = false
	out, err = NewJSONExporter(opts).Export(c)
	require.NoError(t, err)
	require.NotContains(t, string(out), `"original":`)
}

func TestMarkdownExport(t *testing.T) {
	out, err := NewMarkdownExporter(nil).Export(demoComparison())
	require.NoError(t, err)
	md := string(out)

	for _, want := range []string{
		"title: wild-type vs edited-1",
		"# wild-type vs edited-1",
		"3 substitutions (93.0% similar)",
		"| Substitutions | 3 |",
		"`s8Gs12As2A`",
		"@@ -6,7 +6,7 @@",
		"@@ -18,9 +18,9 @@",
		"```diff",
	} {
		if !strings.Contains(md, want) {
			t.Errorf("Expected markdown to contain %q", want)
		}
	}
}

// TestYAMLNewlineInjection tests that newlines are escaped in YAML frontmatter.
func TestYAMLNewlineInjection(t *testing.T) {
	c := demoComparison()
	c.OriginalName = "wt\ninjected: true"

	out, err := NewMarkdownExporter(nil).Export(c)
	require.NoError(t, err)
	if strings.Contains(string(out), "\ninjected: true") {
		t.Error("YAML injection: newline in name not escaped")
	}
}

// TestHTMLEscapesNames tests that sequence names are escaped in HTML output.
func TestHTMLEscapesNames(t *testing.T) {
	c := demoComparison()
	c.OriginalName = "<script>alert('xss')</script>"

	out, err := NewHTMLExporter(nil).Export(c)
	require.NoError(t, err)
	result := string(out)

	if strings.Contains(result, "<script>alert('xss')</script>") {
		t.Error("XSS vulnerability: script tag not escaped in title")
	}
	if !strings.Contains(result, "&lt;script&gt;") {
		t.Error("Expected escaped script tag in output")
	}
}

func TestHTMLExport_MarksEdits(t *testing.T) {
	out, err := NewHTMLExporter(nil).Export(demoComparison())
	require.NoError(t, err)
	result := string(out)

	if got := strings.Count(result, `<span class="op-sub">`); got != 6 {
		t.Errorf("Expected 6 substitution cells (3 per row), got %d", got)
	}
	if !strings.Contains(result, `class="dark-theme"`) {
		t.Error("Expected dark theme by default")
	}
}

func TestHTMLExport_Empty(t *testing.T) {
	c := New(sequence.MustParse(""), sequence.MustParse(""))
	out, err := NewHTMLExporter(nil).Export(c)
	require.NoError(t, err)
	require.Contains(t, string(out), "Both sequences are empty.")
}

func TestTextExport_WithReceipt(t *testing.T) {
	c := demoComparison()
	c.Receipt = &verify.Receipt{TxHash: "0xabc", Network: "Base", ExplorerURL: "https://basescan.org/tx/0xabc"}

	out, err := NewTextExporter(nil).Export(c)
	require.NoError(t, err)
	text := string(out)

	for _, want := range []string{"Edit script: s8Gs12As2A", "Verified:    Base tx 0xabc", "original  1 "} {
		if !strings.Contains(text, want) {
			t.Errorf("Expected text to contain %q:\n%s", want, text)
		}
	}
}

func TestFromStored(t *testing.T) {
	c := demoComparison()
	sc, err := storage.NewComparison(c.Original, c.Edited, c.Result)
	require.NoError(t, err)
	sc.ID = "cmp_1"

	submitted := time.Now().UTC()
	got, err := FromStored(sc, []storage.Verification{
		{Status: "Complete", TxHash: "0xold", Network: "Base", SubmittedAt: &submitted},
		{Status: "Complete", TxHash: "0xnew", Network: "Base"},
		{Status: "Failed", Error: "boom"},
	})
	require.NoError(t, err)
	require.Equal(t, "cmp_1", got.ID)
	require.Equal(t, c.Hash(), got.Hash())
	require.NotNil(t, got.Receipt)
	require.Equal(t, "0xnew", got.Receipt.TxHash)

	_, err = FromStored(nil, nil)
	require.Error(t, err)
}

func TestToFile(t *testing.T) {
	dir := t.TempDir()
	opts := DefaultOptions()
	opts.OutputDir = filepath.Join(dir, "reports")

	path, err := ToFile(demoComparison(), NewTextExporter(opts), opts)
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(filepath.Base(path), "comparison_cmp_0123456789abcdef_"))
	require.Equal(t, ".txt", filepath.Ext(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Contains(t, string(data), "wild-type vs edited-1")
}

func TestSanitizeFilename(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"wt vs ed", "wt_vs_ed"},
		{"a/b\\c:d", "a-b-c-d"},
		{"", "comparison"},
		{strings.Repeat("x", 80), strings.Repeat("x", 50)},
	}
	for _, tt := range tests {
		if got := sanitizeFilename(tt.in); got != tt.want {
			t.Errorf("sanitizeFilename(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
