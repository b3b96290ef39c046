// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// compare_cmd.go - Compare and demo commands.
//
// Command: compare ORIGINAL EDITED
// Short:   Align two sequences and show every difference
// Aliases: cmp, diff
//
// Examples:
//   seqdiff compare ATGCTAGC ATGGTAGC
//   seqdiff compare --file-a ref.fasta --file-b edited.fasta --save
//   seqdiff compare ATGC ATGG --format md --output report.md
//   seqdiff compare ATGC ATGG --format script        Prints "s3G"
//   seqdiff compare ATGC ATGG --json
package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/bionova/seqdiff/internal/align"
	"github.com/bionova/seqdiff/internal/config"
	"github.com/bionova/seqdiff/internal/export"
	"github.com/bionova/seqdiff/internal/sequence"
	"github.com/bionova/seqdiff/internal/storage"
	"github.com/bionova/seqdiff/internal/ui/components"
	"github.com/bionova/seqdiff/internal/util"
)

const compareUsage = "seqdiff compare ATGCTAGC ATGGTAGC"

// compareSwitches are the boolean flags of compare and demo.
var compareSwitches = []string{"save", "hunks", "no-legend", "plain"}

// compareFormats are the values accepted by --format.
var compareFormats = []string{"text", "json", "md", "html", "script"}

// compareOptions are the parsed compare flags.
type compareOptions struct {
	format  string
	output  string
	width   int
	context int
	save    bool
	hunks   bool
	legend  bool
	border  bool
}

// parseCompareOptions reads the compare flags, falling back to cfg.UI.
func parseCompareOptions(p *ArgParser, cfg *config.Config) (compareOptions, error) {
	opts := compareOptions{
		format: strings.ToLower(p.FlagOrDefault("format", "text")),
		output: p.Flag("output"),
		save:   p.BoolFlag("save"),
		hunks:  p.BoolFlag("hunks"),
		legend: !p.BoolFlag("no-legend"),
		border: !p.BoolFlag("plain"),
	}
	if opts.format == "markdown" {
		opts.format = "md"
	}
	if opts.format == "txt" {
		opts.format = "text"
	}

	valid := false
	for _, f := range compareFormats {
		if opts.format == f {
			valid = true
			break
		}
	}
	if !valid {
		return opts, ErrUnsupportedFormat(opts.format, compareFormats)
	}

	var err error
	if opts.width, err = p.FlagIntOrDefault("width", 0); err != nil {
		return opts, err
	}
	if opts.context, err = p.FlagIntOrDefault("context", cfg.UI.Context); err != nil {
		return opts, err
	}
	return opts, nil
}

// HandleCompare handles the "compare" command.
func HandleCompare(args Args) error {
	p := NewArgParser(args.Raw, compareSwitches...)

	cfg, err := loadConfig(args)
	if err != nil {
		return err
	}

	opts, err := parseCompareOptions(p, cfg)
	if err != nil {
		return err
	}

	original, edited, err := resolveSequences(p, 0, compareUsage)
	if err != nil {
		return err
	}
	if err := checkMaxLength(cfg, original, edited); err != nil {
		return err
	}

	return runCompare(args, cfg, opts, export.New(original, edited))
}

// HandleDemo compares the built-in demo pair.
func HandleDemo(args Args) error {
	p := NewArgParser(args.Raw, compareSwitches...)

	cfg, err := loadConfig(args)
	if err != nil {
		return err
	}

	opts, err := parseCompareOptions(p, cfg)
	if err != nil {
		return err
	}

	original := sequence.MustParse(sequence.DemoOriginal).WithName("demo-original")
	edited := sequence.MustParse(sequence.DemoEdited).WithName("demo-edited")
	c := export.New(original, edited)

	if !args.JSON && !args.Quiet && opts.format == "text" && opts.output == "" {
		fmt.Println(DimStyle.Render("Demo: a 43-base construct against a copy with three point substitutions."))
		fmt.Println()
	}
	return runCompare(args, cfg, opts, c)
}

// runCompare renders, optionally saves, and writes a comparison.
func runCompare(args Args, cfg *config.Config, opts compareOptions, c *export.Comparison) error {
	if opts.save {
		id, err := saveComparison(cfg, c)
		if err != nil {
			return err
		}
		c.ID = id
		if !args.JSON && !args.Quiet {
			StderrPrint("%s saved as %s\n", SuccessStyle.Render("[OK]"), util.ShortID(id))
		}
	}

	if args.JSON {
		data, err := compareData(c, opts.context)
		if err != nil {
			return err
		}
		if opts.output != "" {
			if err := writeRendered(c, cfg, opts, io.Discard); err != nil {
				return err
			}
			data.OutputFile = opts.output
		}
		return NewJSONResponse("compare", data).Print()
	}

	return writeRendered(c, cfg, opts, os.Stdout)
}

// writeRendered renders c in opts.format to --output or stdout.
func writeRendered(c *export.Comparison, cfg *config.Config, opts compareOptions, stdout io.Writer) error {
	content, err := render(c, cfg, opts)
	if err != nil {
		return err
	}

	if opts.output == "" {
		_, err := io.WriteString(stdout, content)
		return err
	}

	if err := util.AtomicWriteFile(opts.output, []byte(content), 0644); err != nil {
		return NewCommandError("compare", "write", opts.output, err)
	}
	if stdout != io.Discard {
		StderrPrint("%s wrote %s\n", SuccessStyle.Render("[OK]"), opts.output)
	}
	return nil
}

// render produces the output text for opts.format.
func render(c *export.Comparison, cfg *config.Config, opts compareOptions) (string, error) {
	switch opts.format {
	case "script":
		return c.Result.EditScript().String() + "\n", nil

	case "text":
		// Files get the plain text export; terminals get the color viewer
		if opts.output != "" {
			return exportAs("text", c, cfg, opts)
		}
		viewer := components.NewAlignmentViewer(c.Result)
		viewer.SetSize(renderWidth(cfg, opts))
		viewer.SetBlockSize(cfg.UI.BlockSize)
		viewer.SetNames(c.OriginalName, c.EditedName)
		if c.ID != "" {
			viewer.SetTitle("Comparison " + util.ShortID(c.ID))
		}
		viewer.ShowHunks(opts.hunks)
		viewer.SetLegend(opts.legend)
		viewer.SetBordered(opts.border)
		return viewer.View() + "\n", nil

	default:
		return exportAs(opts.format, c, cfg, opts)
	}
}

// exportAs renders c with the export package.
func exportAs(format string, c *export.Comparison, cfg *config.Config, opts compareOptions) (string, error) {
	eo := export.DefaultOptions()
	eo.Context = opts.context
	if cfg.UI.BlockSize > 0 {
		eo.BlockSize = cfg.UI.BlockSize
	}
	exporter, err := export.ForFormat(format, eo)
	if err != nil {
		return "", ErrUnsupportedFormat(format, export.Formats())
	}
	content, err := exporter.Export(c)
	if err != nil {
		return "", err
	}
	return string(content), nil
}

// renderWidth picks the viewer width: --width, the terminal, then ui.wrap_width.
func renderWidth(cfg *config.Config, opts compareOptions) int {
	if opts.width > 0 {
		return opts.width
	}
	return GetTerminalWidth(cfg.UI.WrapWidth)
}

// compareData builds the --json payload.
func compareData(c *export.Comparison, hunkContext int) (CompareData, error) {
	res := c.Result
	hash, err := res.Hash()
	if err != nil {
		return CompareData{}, err
	}

	hunks := res.Hunks(hunkContext)
	headers := make([]string, len(hunks))
	for i, h := range hunks {
		headers[i] = h.Header()
	}

	return CompareData{
		ID:           c.ID,
		Summary:      res.Summary(),
		EditScript:   res.EditScript().String(),
		ResultHash:   hash,
		Similarity:   res.Similarity,
		EditDistance: res.EditDistance(),
		Counts:       res.Counts,
		Hunks:        headers,
		Result:       res,
	}, nil
}

// saveComparison stores c in the ledger and returns its ID.
func saveComparison(cfg *config.Config, c *export.Comparison) (string, error) {
	store, err := openStore(cfg)
	if err != nil {
		return "", err
	}
	defer store.Close()

	return saveTo(context.Background(), store, c.Original, c.Edited, c.Result)
}

// saveTo stores an alignment in store.
func saveTo(ctx context.Context, store *storage.Store, original, edited sequence.Sequence, res *align.Result) (string, error) {
	rec, err := storage.NewComparison(original, edited, res)
	if err != nil {
		return "", err
	}
	id, err := store.SaveComparison(ctx, rec)
	if err != nil {
		return "", NewCommandError("compare", "save", "could not write history", err)
	}
	return id, nil
}
