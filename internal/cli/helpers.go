// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// helpers.go - Shared helpers used across multiple CLI commands.
package cli

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/bionova/seqdiff/internal/align"
	"github.com/bionova/seqdiff/internal/config"
	"github.com/bionova/seqdiff/internal/sequence"
	"github.com/bionova/seqdiff/internal/storage"
	"github.com/bionova/seqdiff/internal/ui/components"
	"github.com/bionova/seqdiff/internal/verify"
)

// =============================================================================
// CONFIG & SERVICES
// =============================================================================

// loadConfig loads the config named by --config, or the default location.
// A broken default file is reported on stderr and defaults are used.
func loadConfig(args Args) (*config.Config, error) {
	if args.ConfigPath != "" {
		cfg, err := config.LoadFromPath(args.ConfigPath)
		if err != nil {
			return nil, fmt.Errorf("load config %s: %w", args.ConfigPath, err)
		}
		return cfg, nil
	}

	cfg, err := config.Load()
	if cfg == nil {
		return nil, err
	}
	if err != nil && !args.Quiet {
		fmt.Fprintf(os.Stderr, "%s %v (using defaults)\n", WarningStyle.Render("Warning:"), err)
	}
	return cfg, nil
}

// configFilePath returns the file config commands read and write.
func configFilePath(args Args) (string, error) {
	if args.ConfigPath != "" {
		return args.ConfigPath, nil
	}
	return config.ConfigPathTOML()
}

// openStore opens the comparison ledger configured in cfg.
func openStore(cfg *config.Config) (*storage.Store, error) {
	path, err := cfg.DatabasePath()
	if err != nil {
		return nil, err
	}
	store, err := storage.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open history: %w", err)
	}
	return store, nil
}

// newSubmitter builds the Submitter selected by verify.mode.
func newSubmitter(cfg *config.Config) verify.Submitter {
	if strings.EqualFold(cfg.Verify.Mode, config.ModeGateway) {
		opts := []verify.HTTPOption{
			verify.WithNetwork(cfg.Verify.Network, cfg.Verify.ExplorerURL),
		}
		if cfg.Verify.GatewayToken != "" {
			opts = append(opts, verify.WithToken(cfg.Verify.GatewayToken))
		}
		return verify.NewHTTPSubmitter(cfg.Verify.GatewayURL, opts...)
	}
	return &verify.Simulator{
		Network:     cfg.Verify.Network,
		ExplorerURL: cfg.Verify.ExplorerURL,
		Delay:       750 * time.Millisecond,
	}
}

// newVerifyService wires a verification service from cfg. recorder may be nil.
// The caller starts and stops it.
func newVerifyService(cfg *config.Config, recorder verify.Recorder) *verify.Service {
	opts := verify.ServiceOptions{
		Workers:   cfg.Verify.Workers,
		Timeout:   cfg.VerifyTimeout(),
		MaxQueued: 256,
		Approver:  verify.NewApprover(cfg.Verify.TOTPSecret),
	}
	if recorder != nil {
		opts.Recorder = recorder
	}
	return verify.NewService(newSubmitter(cfg), opts)
}

// newPayload builds the verification payload honoring verify.include_sequences.
func newPayload(cfg *config.Config, original, edited sequence.Sequence, res *align.Result) (verify.Payload, error) {
	payload, err := verify.NewPayload(original, edited, res, cfg.Verify.Wallet)
	if err != nil {
		return verify.Payload{}, err
	}
	if !cfg.Verify.IncludeSequences {
		payload = payload.WithoutSequences()
	}
	return payload, nil
}

// =============================================================================
// SEQUENCE INPUT
// =============================================================================

// sides names the two inputs with their file flags.
var sides = [2]struct {
	field    string
	fileFlag string
}{
	{"original", "file-a"},
	{"edited", "file-b"},
}

// errNoInput marks a side with neither a file nor a positional argument.
var errNoInput = errors.New("no input given")

// resolveSequences reads the original and edited sequences from --file-a /
// --file-b or the positional arguments starting at posOffset. Missing sides
// are prompted for on a terminal. "-" as a file reads stdin.
func resolveSequences(p *ArgParser, posOffset int, usage string) (sequence.Sequence, sequence.Sequence, error) {
	var (
		seqs    [2]sequence.Sequence
		missing [2]bool
	)

	for i, side := range sides {
		seq, err := readOne(p, side.fileFlag, posOffset+i, side.field)
		switch {
		case errors.Is(err, errNoInput):
			missing[i] = true
		case err != nil:
			return seqs[0], seqs[1], err
		default:
			seqs[i] = seq
		}
	}

	if !missing[0] && !missing[1] {
		return seqs[0], seqs[1], nil
	}
	if !CanPrompt() {
		return seqs[0], seqs[1], ErrMissingArgument("sequences", usage)
	}

	prompt := NewSequencePrompt()
	defer prompt.Close()

	for i, side := range sides {
		if !missing[i] {
			continue
		}
		seq, err := prompt.ReadSequence(side.field)
		if err != nil {
			return seqs[0], seqs[1], err
		}
		seqs[i] = seq
	}
	return seqs[0], seqs[1], nil
}

// readOne reads one side of the comparison.
func readOne(p *ArgParser, fileFlag string, pos int, field string) (sequence.Sequence, error) {
	if path := p.Flag(fileFlag); path != "" {
		if path == "-" {
			return sequence.Read(os.Stdin)
		}
		return sequence.ReadFile(path)
	}

	if pos < p.PositionalCount() {
		return sequence.ParseField(field, p.Positional(pos))
	}

	return sequence.Sequence{}, errNoInput
}

// checkMaxLength enforces align.max_length on both inputs.
func checkMaxLength(cfg *config.Config, original, edited sequence.Sequence) error {
	limit := cfg.Align.MaxLength
	if limit <= 0 {
		return nil
	}
	for _, s := range []struct {
		field string
		seq   sequence.Sequence
	}{{"original", original}, {"edited", edited}} {
		if s.seq.Len() > limit {
			return NewValidationErrorWithExample(s.field,
				fmt.Sprintf("%d bases", s.seq.Len()),
				fmt.Sprintf("longer than align.max_length (%d)", limit),
				"seqdiff config set align.max_length 0")
		}
	}
	return nil
}

// =============================================================================
// OUTPUT HELPERS
// =============================================================================

// highlightJSON colors JSON for terminal display.
func highlightJSON(s string) string {
	return components.HighlightJSON(s)
}

// formatDurationShort formats a short duration string.
func formatDurationShort(d time.Duration) string {
	if d < time.Second {
		return fmt.Sprintf("%dms", d.Milliseconds())
	}
	if d < time.Minute {
		return fmt.Sprintf("%.1fs", d.Seconds())
	}
	m := int(d.Minutes())
	s := int(d.Seconds()) % 60
	return fmt.Sprintf("%dm%ds", m, s)
}

// formatPercent renders a 0..1 ratio as a percentage.
func formatPercent(ratio float64) string {
	return fmt.Sprintf("%.1f%%", ratio*100)
}

// maskSecret hides a credential for display.
func maskSecret(value string) string {
	if value == "" {
		return "(not set)"
	}
	return "********"
}
