// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package export

import (
	"errors"
	"fmt"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/bionova/seqdiff/internal/align"
	"github.com/bionova/seqdiff/internal/sequence"
	"github.com/bionova/seqdiff/internal/storage"
	"github.com/bionova/seqdiff/internal/util"
	"github.com/bionova/seqdiff/internal/verify"
)

// =============================================================================
// EXPORT INTERFACE
// =============================================================================

// Exporter defines the interface for comparison exporters.
type Exporter interface {
	// Export converts a comparison to the target format and returns the content.
	Export(c *Comparison) ([]byte, error)

	// FileExtension returns the appropriate file extension (e.g., ".md", ".html").
	FileExtension() string

	// MimeType returns the MIME type for the exported format.
	MimeType() string
}

// ErrUnknownFormat is returned by ForFormat for unsupported format names.
var ErrUnknownFormat = errors.New("unsupported export format")

// =============================================================================
// COMPARISON BUNDLE
// =============================================================================

// Comparison is everything an exporter renders: the two sequences, their
// alignment and, once verified, the receipt.
type Comparison struct {
	ID        string
	CreatedAt time.Time

	OriginalName string
	EditedName   string
	Original     sequence.Sequence
	Edited       sequence.Sequence

	Result  *align.Result
	Receipt *verify.Receipt
}

// New aligns original against edited and bundles the result.
func New(original, edited sequence.Sequence) *Comparison {
	return &Comparison{
		CreatedAt:    time.Now(),
		OriginalName: original.Name(),
		EditedName:   edited.Name(),
		Original:     original,
		Edited:       edited,
		Result:       align.Align(original, edited),
	}
}

// FromStored rebuilds a bundle from a ledger record. The receipt of the most
// recent successful verification, if any, is attached.
func FromStored(sc *storage.Comparison, verifications []storage.Verification) (*Comparison, error) {
	if sc == nil {
		return nil, errors.New("comparison is nil")
	}
	original, err := sequence.ParseField("original", sc.Original)
	if err != nil {
		return nil, err
	}
	edited, err := sequence.ParseField("edited", sc.Edited)
	if err != nil {
		return nil, err
	}

	c := &Comparison{
		ID:           sc.ID,
		CreatedAt:    sc.CreatedAt,
		OriginalName: sc.OriginalName,
		EditedName:   sc.EditedName,
		Original:     original,
		Edited:       edited,
		Result:       align.Align(original, edited),
	}
	for i := len(verifications) - 1; i >= 0; i-- {
		v := verifications[i]
		if v.TxHash == "" {
			continue
		}
		r := verify.Receipt{TxHash: v.TxHash, ExplorerURL: v.ExplorerURL, Network: v.Network}
		if v.SubmittedAt != nil {
			r.SubmittedAt = *v.SubmittedAt
		}
		c.Receipt = &r
		break
	}
	return c, nil
}

// Title returns a human readable name for the comparison.
func (c *Comparison) Title() string {
	o, e := c.OriginalName, c.EditedName
	if o == "" {
		o = "original"
	}
	if e == "" {
		e = "edited"
	}
	return o + " vs " + e
}

// Hash returns the content hash of the alignment, or "" if it cannot be computed.
func (c *Comparison) Hash() string {
	h, err := c.Result.Hash()
	if err != nil {
		return ""
	}
	return h
}

func (c *Comparison) validate() error {
	if c == nil {
		return errors.New("comparison is nil")
	}
	if c.Result == nil {
		return errors.New("comparison has no alignment result")
	}
	return nil
}

// =============================================================================
// EXPORT OPTIONS
// =============================================================================

// Options configures export behavior.
type Options struct {
	// OutputDir is the directory where files will be saved.
	// Default: current working directory
	OutputDir string

	// OpenAfterExport opens the file in the default application.
	OpenAfterExport bool

	// IncludeMetadata includes the metadata header (timestamp, hash, counts).
	IncludeMetadata bool

	// IncludeSequences includes the full original and edited sequences.
	IncludeSequences bool

	// BlockSize is the number of alignment columns per block.
	BlockSize int

	// Context is the number of matching bases shown around each hunk.
	Context int

	// Theme for HTML export ("light" or "dark").
	// Default: "dark"
	Theme string
}

// DefaultOptions returns default export options.
func DefaultOptions() *Options {
	return &Options{
		OutputDir:        ".",
		OpenAfterExport:  false,
		IncludeMetadata:  true,
		IncludeSequences: true,
		BlockSize:        60,
		Context:          align.DefaultContext,
		Theme:            "dark",
	}
}

// ForFormat returns the exporter for a format name.
func ForFormat(format string, opts *Options) (Exporter, error) {
	switch strings.ToLower(strings.TrimSpace(format)) {
	case "json":
		return NewJSONExporter(opts), nil
	case "markdown", "md":
		return NewMarkdownExporter(opts), nil
	case "html", "htm":
		return NewHTMLExporter(opts), nil
	case "text", "txt":
		return NewTextExporter(opts), nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownFormat, format)
	}
}

// Formats lists the supported format names.
func Formats() []string {
	return []string{"json", "markdown", "html", "text"}
}

// =============================================================================
// EXPORT FUNCTIONS
// =============================================================================

// ToFile exports a comparison to a file using the specified exporter.
// Returns the output file path or an error.
func ToFile(c *Comparison, exporter Exporter, opts *Options) (string, error) {
	if opts == nil {
		opts = DefaultOptions()
	}

	content, err := exporter.Export(c)
	if err != nil {
		return "", fmt.Errorf("export failed: %w", err)
	}

	name := c.ID
	if name == "" {
		name = c.Title()
	}
	filename := fmt.Sprintf("comparison_%s_%s%s",
		sanitizeFilename(name),
		time.Now().Format("20060102_150405"),
		exporter.FileExtension(),
	)

	outputPath := filepath.Join(opts.OutputDir, filename)
	if err := util.AtomicWriteFile(outputPath, content, 0644); err != nil {
		return "", fmt.Errorf("write file: %w", err)
	}

	if opts.OpenAfterExport {
		if err := openFile(outputPath); err != nil {
			// Non-fatal - file was still created successfully
			fmt.Printf("Warning: Could not open file: %v\n", err)
		}
	}

	return outputPath, nil
}

// =============================================================================
// HELPER FUNCTIONS
// =============================================================================

// sanitizeFilename removes or replaces characters that are invalid in filenames.
func sanitizeFilename(s string) string {
	maxLen := 50
	runes := []rune(s)
	if len(runes) > maxLen {
		runes = runes[:maxLen]
	}

	result := make([]rune, 0, len(runes))
	for _, r := range runes {
		switch {
		case strings.ContainsRune(`/\:*?"<>|`, r):
			result = append(result, '-')
		case r == ' ' || r == '\t' || r == '\n' || r == '\r':
			result = append(result, '_')
		case r < 32 || r == 127:
			result = append(result, '-')
		default:
			result = append(result, r)
		}
	}

	if len(result) == 0 {
		return "comparison"
	}
	return string(result)
}

// openFile opens a file in the default application for the OS.
func openFile(path string) error {
	var cmd *exec.Cmd

	switch runtime.GOOS {
	case "windows":
		cmd = exec.Command("cmd", "/c", "start", `""`, path)
	case "darwin":
		cmd = exec.Command("open", path)
	case "linux":
		cmd = exec.Command("xdg-open", path)
	default:
		return fmt.Errorf("unsupported platform: %s", runtime.GOOS)
	}

	return cmd.Start()
}

// formatTimestamp formats a timestamp for display.
func formatTimestamp(t time.Time) string {
	return t.Format("2006-01-02 15:04:05")
}

func percent(f float64) string {
	return fmt.Sprintf("%.1f%%", f*100)
}

func blockSize(opts *Options) int {
	if opts.BlockSize <= 0 {
		return 60
	}
	return opts.BlockSize
}

func hunkContext(opts *Options) int {
	if opts.Context < 0 {
		return align.DefaultContext
	}
	return opts.Context
}
