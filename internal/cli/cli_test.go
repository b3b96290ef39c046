// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/bionova/seqdiff/internal/align"
	"github.com/bionova/seqdiff/internal/config"
	"github.com/bionova/seqdiff/internal/export"
	"github.com/bionova/seqdiff/internal/sequence"
	"github.com/bionova/seqdiff/internal/storage"
	"github.com/bionova/seqdiff/internal/tasks"
	"github.com/bionova/seqdiff/internal/verify"
)

// =============================================================================
// COMMAND PARSING TESTS (cli.go)
// =============================================================================

func TestParseArgs(t *testing.T) {
	tests := []struct {
		name       string
		argv       []string
		wantCmd    Command
		wantSub    string
		wantJSON   bool
		wantConfig string
		wantRaw    []string
	}{
		{"no args shows help", nil, CmdHelp, "", false, "", nil},
		{"compare", []string{"compare", "ACGT", "AGT"}, CmdCompare, "", false, "", []string{"ACGT", "AGT"}},
		{"diff alias", []string{"diff", "A", "C"}, CmdCompare, "", false, "", []string{"A", "C"}},
		{"demo with json", []string{"--json", "demo"}, CmdDemo, "", true, "", []string{}},
		{"anchor alias", []string{"anchor", "--id", "ab12"}, CmdVerify, "", false, "", []string{"--id", "ab12"}},
		{"history subcommand", []string{"history", "Show", "ab12"}, CmdHistory, "show", false, "", []string{"Show", "ab12"}},
		{"config path flag", []string{"config", "get", "server.port", "--config", "/tmp/c.toml"}, CmdConfig, "get", false, "/tmp/c.toml", []string{"get", "server.port"}},
		{"config equals flag", []string{"--config=/tmp/c.toml", "serve"}, CmdServe, "", false, "/tmp/c.toml", []string{}},
		{"tui alias", []string{"ui"}, CmdTUI, "", false, "", []string{}},
		{"version flag", []string{"--version"}, CmdVersion, "", false, "", []string{}},
		{"help flag", []string{"-h"}, CmdHelp, "", false, "", []string{}},
		{"unknown", []string{"compair"}, CmdUnknown, "", false, "", []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cmd, args := ParseArgs(tt.argv)
			if cmd != tt.wantCmd {
				t.Errorf("cmd = %s, want %s", cmd, tt.wantCmd)
			}
			if args.Subcommand != tt.wantSub {
				t.Errorf("Subcommand = %q, want %q", args.Subcommand, tt.wantSub)
			}
			if args.JSON != tt.wantJSON {
				t.Errorf("JSON = %v, want %v", args.JSON, tt.wantJSON)
			}
			if args.ConfigPath != tt.wantConfig {
				t.Errorf("ConfigPath = %q, want %q", args.ConfigPath, tt.wantConfig)
			}
			if tt.wantRaw != nil && strings.Join(args.Raw, " ") != strings.Join(tt.wantRaw, " ") {
				t.Errorf("Raw = %v, want %v", args.Raw, tt.wantRaw)
			}
		})
	}
}

func TestParseArgs_ColorFlags(t *testing.T) {
	tests := []struct {
		argv []string
		want string
	}{
		{[]string{"demo"}, ""},
		{[]string{"demo", "--no-color"}, "never"},
		{[]string{"--color", "always", "demo"}, "always"},
		{[]string{"demo", "--color=never"}, "never"},
	}
	for _, tt := range tests {
		_, args := ParseArgs(tt.argv)
		if args.Color != tt.want {
			t.Errorf("ParseArgs(%v).Color = %q, want %q", tt.argv, args.Color, tt.want)
		}
		if len(args.Raw) != 0 {
			t.Errorf("ParseArgs(%v).Raw = %v, want none", tt.argv, args.Raw)
		}
	}
}

func TestParseColorMode(t *testing.T) {
	tests := []struct {
		in      string
		want    ColorMode
		wantErr bool
	}{
		{"", ColorAuto, false},
		{"AUTO", ColorAuto, false},
		{"always", ColorAlways, false},
		{"never", ColorNever, false},
		{"off", ColorNever, false},
		{"sometimes", "", true},
	}
	for _, tt := range tests {
		got, err := ParseColorMode(tt.in)
		if (err != nil) != tt.wantErr {
			t.Fatalf("ParseColorMode(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
		}
		if got != tt.want {
			t.Errorf("ParseColorMode(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}

	_, err := ParseColorMode("sometimes")
	require.Equal(t, ExitUsageError, GetExitCode(err))
}

func TestRun_UnknownCommandIsUsageError(t *testing.T) {
	err := unknownCommand("compair")
	require.Error(t, err)
	require.Equal(t, ExitUsageError, GetExitCode(err))

	var ve *ValidationError
	require.True(t, errors.As(err, &ve))
	require.Equal(t, "seqdiff compare", ve.Example)
}

// =============================================================================
// ARG PARSER TESTS (args.go)
// =============================================================================

func TestArgParser_BasicParsing(t *testing.T) {
	tests := []struct {
		name     string
		args     []string
		switches []string
		wantSub  string
		validate func(*testing.T, *ArgParser)
	}{
		{
			name:    "simple subcommand",
			args:    []string{"Show"},
			wantSub: "show",
		},
		{
			name:    "flag with equals",
			args:    []string{"export", "--format=html"},
			wantSub: "export",
			validate: func(t *testing.T, p *ArgParser) {
				if p.Flag("format") != "html" {
					t.Errorf("Flag(format) = %q, want html", p.Flag("format"))
				}
			},
		},
		{
			name:     "switch does not consume a sequence",
			args:     []string{"--save", "ACGT", "ACGA", "--width", "60"},
			switches: []string{"save"},
			wantSub:  "acgt",
			validate: func(t *testing.T, p *ArgParser) {
				if !p.BoolFlag("save") {
					t.Error("BoolFlag(save) should be true")
				}
				if p.PositionalCount() != 2 || p.Positional(0) != "ACGT" || p.Positional(1) != "ACGA" {
					t.Errorf("positionals = %v", p.PositionalFrom(0))
				}
				if p.Flag("width") != "60" {
					t.Errorf("Flag(width) = %q, want 60", p.Flag("width"))
				}
			},
		},
		{
			name:    "non-switch flag consumes the next value",
			args:    []string{"--save", "ACGT", "ACGA"},
			wantSub: "acga",
			validate: func(t *testing.T, p *ArgParser) {
				if p.Flag("save") != "ACGT" {
					t.Errorf("Flag(save) = %q, want ACGT", p.Flag("save"))
				}
			},
		},
		{
			name:    "double dash ends flags",
			args:    []string{"--", "-ACGT", "--x"},
			wantSub: "-acgt",
			validate: func(t *testing.T, p *ArgParser) {
				if p.PositionalCount() != 2 {
					t.Errorf("PositionalCount() = %d, want 2", p.PositionalCount())
				}
				if p.HasFlag("x") {
					t.Error("--x after -- must be positional")
				}
			},
		},
		{
			name:    "lone dash is a flag value",
			args:    []string{"--file-a", "-", "ACGT"},
			wantSub: "acgt",
			validate: func(t *testing.T, p *ArgParser) {
				if p.Flag("file-a") != "-" {
					t.Errorf("Flag(file-a) = %q, want -", p.Flag("file-a"))
				}
			},
		},
		{
			name:    "explicit false",
			args:    []string{"--hunks=false"},
			wantSub: "",
			validate: func(t *testing.T, p *ArgParser) {
				if p.BoolFlag("hunks") || !p.HasFlag("hunks") {
					t.Error("--hunks=false should be present and false")
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := NewArgParser(tt.args, tt.switches...)
			if p.Subcommand() != tt.wantSub {
				t.Errorf("Subcommand() = %q, want %q", p.Subcommand(), tt.wantSub)
			}
			if tt.validate != nil {
				tt.validate(t, p)
			}
		})
	}
}

func TestArgParser_FlagIntOrDefault(t *testing.T) {
	p := NewArgParser([]string{"--width", "72", "--limit", "lots"})

	width, err := p.FlagIntOrDefault("width", 80)
	require.NoError(t, err)
	require.Equal(t, 72, width)

	def, err := p.FlagIntOrDefault("block", 60)
	require.NoError(t, err)
	require.Equal(t, 60, def)

	_, err = p.FlagIntOrDefault("limit", 20)
	require.Error(t, err)
	require.Equal(t, ExitUsageError, GetExitCode(err))
}

func TestArgParser_FlagDuration(t *testing.T) {
	tests := []struct {
		args    []string
		want    time.Duration
		wantErr bool
	}{
		{nil, 45 * time.Second, false},
		{[]string{"--timeout", "90"}, 90 * time.Second, false},
		{[]string{"--timeout", "2m"}, 2 * time.Minute, false},
		{[]string{"--timeout", "soon"}, 0, true},
	}

	for _, tt := range tests {
		t.Run(strings.Join(tt.args, " "), func(t *testing.T) {
			got, err := NewArgParser(tt.args).FlagDuration("timeout", 45*time.Second)
			if (err != nil) != tt.wantErr {
				t.Fatalf("FlagDuration() error = %v, wantErr %v", err, tt.wantErr)
			}
			if !tt.wantErr && got != tt.want {
				t.Errorf("FlagDuration() = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestParseBoolString(t *testing.T) {
	for _, v := range []string{"true", "YES", "y", "1", "On"} {
		got, err := ParseBoolString(v)
		if err != nil || !got {
			t.Errorf("ParseBoolString(%q) = %v, %v; want true", v, got, err)
		}
	}
	for _, v := range []string{"false", "No", "n", "0", "off"} {
		got, err := ParseBoolString(v)
		if err != nil || got {
			t.Errorf("ParseBoolString(%q) = %v, %v; want false", v, got, err)
		}
	}
	if _, err := ParseBoolString("maybe"); err == nil {
		t.Error("ParseBoolString(maybe) should error")
	}
}

// =============================================================================
// EXIT CODE TESTS (errors.go)
// =============================================================================

func TestGetExitCode(t *testing.T) {
	_, seqErr := sequence.ParseField("original", "ACGU")

	tests := []struct {
		name string
		err  error
		want int
	}{
		{"nil", nil, ExitSuccess},
		{"invalid base", seqErr, ExitValidationError},
		{"wrapped invalid base", fmt.Errorf("compare: %w", seqErr), ExitValidationError},
		{"usage", ErrMissingArgument("sequences", compareUsage), ExitUsageError},
		{"unsupported format", ErrUnsupportedFormat("pdf", compareFormats), ExitUsageError},
		{"comparison not found", fmt.Errorf("get: %w", storage.ErrNotFound), ExitNotFoundError},
		{"task not found", tasks.ErrNotFound, ExitNotFoundError},
		{"ambiguous id", storage.ErrAmbiguousID, ExitUsageError},
		{"approval missing", verify.ErrApprovalRequired, ExitAuthError},
		{"approval wrong", verify.ErrApprovalInvalid, ExitAuthError},
		{"config", config.ValidateErrors{{Field: "server.port", Message: "out of range"}}, ExitConfigError},
		{"timeout", fmt.Errorf("wait: %w", context.DeadlineExceeded), ExitTimeoutError},
		{"gateway", &verify.GatewayError{StatusCode: 502}, ExitNetworkError},
		{"generic", errors.New("boom"), ExitGeneralError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := GetExitCode(tt.err); got != tt.want {
				t.Errorf("GetExitCode(%v) = %d, want %d", tt.err, got, tt.want)
			}
		})
	}
}

func TestErrorDetails_InvalidBase(t *testing.T) {
	_, err := sequence.ParseField("edited", "ACXT")
	details := errorDetails(err)

	require.Equal(t, "invalid_character", details["error_type"])
	require.Equal(t, "edited", details["field"])
	require.Equal(t, 2, details["index"])
	require.Equal(t, ExitValidationError, details["exit_code"])
}

// =============================================================================
// SUGGESTION TESTS (suggest.go)
// =============================================================================

func TestSuggestCommand(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"compar", "compare"},
		{"histroy", "history"},
		{"verfy", "verify"},
		{"sevre", "serve"},
		{"x", ""},
		{"xylophone", ""},
		{"compare", ""},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if got := SuggestCommand(tt.input); got != tt.want {
				t.Errorf("SuggestCommand(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestLevenshteinDistance(t *testing.T) {
	tests := []struct {
		a, b string
		want int
	}{
		{"", "", 0},
		{"", "abc", 3},
		{"kitten", "sitting", 3},
		{"serve", "server", 1},
	}
	for _, tt := range tests {
		if got := levenshteinDistance(tt.a, tt.b); got != tt.want {
			t.Errorf("levenshteinDistance(%q, %q) = %d, want %d", tt.a, tt.b, got, tt.want)
		}
	}
}

// =============================================================================
// SEQUENCE INPUT TESTS (helpers.go)
// =============================================================================

func TestResolveSequences_Positional(t *testing.T) {
	p := NewArgParser([]string{"gattaca", "GCATGCT"})
	original, edited, err := resolveSequences(p, 0, compareUsage)

	require.NoError(t, err)
	require.Equal(t, "GATTACA", original.String())
	require.Equal(t, "GCATGCT", edited.String())
}

func TestResolveSequences_Files(t *testing.T) {
	dir := t.TempDir()
	fileA := filepath.Join(dir, "ref.fasta")
	fileB := filepath.Join(dir, "edit.fasta")
	require.NoError(t, os.WriteFile(fileA, []byte(">ref construct\nATGC\nTAGC\n"), 0644))
	require.NoError(t, os.WriteFile(fileB, []byte("ATGGTAGC\n"), 0644))

	p := NewArgParser([]string{"--file-a", fileA, "--file-b", fileB})
	original, edited, err := resolveSequences(p, 0, compareUsage)

	require.NoError(t, err)
	require.Equal(t, "ATGCTAGC", original.String())
	require.Equal(t, "ref construct", original.Name())
	require.Equal(t, "ATGGTAGC", edited.String())
}

func TestResolveSequences_InvalidBase(t *testing.T) {
	p := NewArgParser([]string{"ACGT", "ACGN"})
	_, _, err := resolveSequences(p, 0, compareUsage)

	require.Error(t, err)
	require.Equal(t, ExitValidationError, GetExitCode(err))
	require.Contains(t, err.Error(), "edited")
}

func TestResolveSequences_MissingWithoutTerminal(t *testing.T) {
	if CanPrompt() {
		t.Skip("stdin is a terminal")
	}
	p := NewArgParser([]string{"ACGT"})
	_, _, err := resolveSequences(p, 0, compareUsage)

	require.Error(t, err)
	require.Equal(t, ExitUsageError, GetExitCode(err))
}

func TestCheckMaxLength(t *testing.T) {
	cfg := config.Default()
	cfg.Align.MaxLength = 4
	short := sequence.MustParse("ACGT")
	long := sequence.MustParse("ACGTA")

	require.NoError(t, checkMaxLength(cfg, short, short))

	err := checkMaxLength(cfg, short, long)
	require.Error(t, err)
	require.Equal(t, ExitUsageError, GetExitCode(err))

	cfg.Align.MaxLength = 0
	require.NoError(t, checkMaxLength(cfg, long, long))
}

// =============================================================================
// COMPARE TESTS (compare_cmd.go)
// =============================================================================

func demoComparison() *export.Comparison {
	return export.New(sequence.MustParse(sequence.DemoOriginal), sequence.MustParse(sequence.DemoEdited))
}

func TestCompareData_Demo(t *testing.T) {
	data, err := compareData(demoComparison(), 3)
	require.NoError(t, err)

	require.Equal(t, "3 substitutions (93.0% similar)", data.Summary)
	require.Equal(t, "s8Gs12As2A", data.EditScript)
	require.Equal(t, 3, data.EditDistance)
	require.Equal(t, 3, data.Counts.Substitutions)
	require.InDelta(t, 40.0/43.0, data.Similarity, 1e-9)
	require.True(t, strings.HasPrefix(data.ResultHash, "0x"))
	require.NotEmpty(t, data.Hunks)
}

func TestParseCompareOptions(t *testing.T) {
	cfg := config.Default()

	opts, err := parseCompareOptions(NewArgParser([]string{"--format", "Markdown", "--hunks"}, compareSwitches...), cfg)
	require.NoError(t, err)
	require.Equal(t, "md", opts.format)
	require.True(t, opts.hunks)
	require.True(t, opts.legend)
	require.Equal(t, cfg.UI.Context, opts.context)

	_, err = parseCompareOptions(NewArgParser([]string{"--format", "pdf"}, compareSwitches...), cfg)
	require.Error(t, err)
	require.Equal(t, ExitUsageError, GetExitCode(err))
}

func TestRender_Formats(t *testing.T) {
	cfg := config.Default()
	c := demoComparison()

	script, err := render(c, cfg, compareOptions{format: "script"})
	require.NoError(t, err)
	require.Equal(t, "s8Gs12As2A\n", script)

	md, err := render(c, cfg, compareOptions{format: "md", context: 3})
	require.NoError(t, err)
	require.Contains(t, md, "93.0%")

	js, err := render(c, cfg, compareOptions{format: "json"})
	require.NoError(t, err)
	require.True(t, json.Valid([]byte(js)), "json export should be valid JSON")

	text, err := render(c, cfg, compareOptions{format: "text", width: 100, legend: true})
	require.NoError(t, err)
	require.Contains(t, text, "ATGCTAGC")
}

func TestRender_TextToFileIsPlain(t *testing.T) {
	out := filepath.Join(t.TempDir(), "report.txt")
	opts := compareOptions{format: "text", output: out}

	require.NoError(t, writeRendered(demoComparison(), config.Default(), opts, &bytes.Buffer{}))

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	require.NotContains(t, string(data), "\x1b[", "file output must not carry ANSI escapes")
	require.Contains(t, string(data), "3 substitutions")
}

// =============================================================================
// VERIFY TESTS (verify_cmd.go)
// =============================================================================

func openTestStore(t *testing.T) *storage.Store {
	t.Helper()
	store, err := storage.Open(filepath.Join(t.TempDir(), "history.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func TestResolveVerifyInput_SavedComparison(t *testing.T) {
	ctx := context.Background()
	store := openTestStore(t)

	original := sequence.MustParse("GATTACA")
	edited := sequence.MustParse("GCATGCT")
	id, err := saveTo(ctx, store, original, edited, align.Align(original, edited))
	require.NoError(t, err)

	p := NewArgParser([]string{"--id", id[:6]})
	in, err := resolveVerifyInput(ctx, p, config.Default(), store)
	require.NoError(t, err)

	require.Equal(t, id, in.comparisonID)
	require.Equal(t, "s1CAs3Gs2T", in.result.EditScript().String())
}

func TestResolveVerifyInput_SavesNewPair(t *testing.T) {
	ctx := context.Background()
	store := openTestStore(t)

	p := NewArgParser([]string{"ACGT", "AGT"})
	in, err := resolveVerifyInput(ctx, p, config.Default(), store)
	require.NoError(t, err)
	require.NotEmpty(t, in.comparisonID)

	count, err := store.CountComparisons(ctx)
	require.NoError(t, err)
	require.Equal(t, 1, count)
}

func TestResolveVerifyInput_UnknownID(t *testing.T) {
	store := openTestStore(t)

	_, err := resolveVerifyInput(context.Background(), NewArgParser([]string{"--id", "nope"}), config.Default(), store)
	require.Error(t, err)
	require.True(t, IsNotFoundError(err))
	require.Equal(t, "comparison not found: nope", err.Error())
	require.Equal(t, ExitNotFoundError, GetExitCode(err))
}

// =============================================================================
// HISTORY TESTS (history_cmd.go)
// =============================================================================

func TestLoadComparison(t *testing.T) {
	ctx := context.Background()
	store := openTestStore(t)

	original := sequence.MustParse("ACGT")
	id, err := saveTo(ctx, store, original, original, align.Align(original, original))
	require.NoError(t, err)

	sc, err := loadComparison(ctx, store, id[:8])
	require.NoError(t, err)
	require.Equal(t, id, sc.ID)

	_, err = loadComparison(ctx, store, "cmp_missing")
	var notFound *NotFoundError
	require.True(t, errors.As(err, &notFound))
	require.Equal(t, "comparison", notFound.Resource)
	require.Equal(t, "cmp_missing", notFound.ID)
}

func TestVerificationState(t *testing.T) {
	require.Equal(t, "unverified", verificationState(nil))
	require.Equal(t, "Complete", verificationState([]storage.Verification{
		{Status: "Failed"},
		{Status: "Complete"},
	}))
}

func TestRenderStatus(t *testing.T) {
	tests := []struct {
		status string
		want   string
	}{
		{string(tasks.TaskStatusComplete), "[VERIFIED]"},
		{string(tasks.TaskStatusFailed), "[FAILED]"},
		{string(tasks.TaskStatusQueued), "[QUEUED]"},
		{string(tasks.TaskStatusRunning), "[RUNNING]"},
		{string(tasks.TaskStatusCanceled), "[CANCELED]"},
		{"unverified", "[UNVERIFIED]"},
	}
	for _, tt := range tests {
		t.Run(tt.status, func(t *testing.T) {
			require.Contains(t, RenderStatus(tt.status), tt.want)
		})
	}
}

func startService(t *testing.T, sim *verify.Simulator) *verify.Service {
	t.Helper()
	svc := verify.NewService(sim, verify.ServiceOptions{Workers: 1})
	ctx, cancel := context.WithCancel(context.Background())
	svc.Start(ctx)
	t.Cleanup(func() {
		cancel()
		svc.Stop()
	})
	return svc
}

func submitDemo(t *testing.T, svc *verify.Service) string {
	t.Helper()
	c := demoComparison()
	payload, err := verify.NewPayload(c.Original, c.Edited, c.Result, "")
	require.NoError(t, err)
	taskID, err := svc.Submit(verify.Request{Payload: payload})
	require.NoError(t, err)
	return taskID
}

func TestAwaitReceipt(t *testing.T) {
	svc := startService(t, &verify.Simulator{Network: "sepolia", ExplorerURL: "https://sepolia.example/tx/"})
	taskID := submitDemo(t, svc)

	receipt, err := awaitReceipt(context.Background(), svc, taskID, 5*time.Second)
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(receipt.TxHash, "0x"))
	require.Equal(t, "sepolia", receipt.Network)
	require.Contains(t, receipt.ExplorerURL, receipt.TxHash)
}

func TestAwaitReceipt_TimeoutCancelsTask(t *testing.T) {
	svc := startService(t, &verify.Simulator{Delay: time.Hour})
	taskID := submitDemo(t, svc)

	_, err := awaitReceipt(context.Background(), svc, taskID, 20*time.Millisecond)
	require.Error(t, err)
	require.True(t, errors.Is(err, context.DeadlineExceeded))
	require.Equal(t, ExitTimeoutError, GetExitCode(err))

	require.Eventually(t, func() bool {
		st, err := svc.Status(taskID)
		return err == nil && st.State == tasks.TaskStatusCanceled
	}, 2*time.Second, 10*time.Millisecond)
}

// =============================================================================
// SERVE & CONFIG TESTS
// =============================================================================

func TestApplyServeFlags(t *testing.T) {
	cfg := config.Default()
	require.NoError(t, applyServeFlags(NewArgParser([]string{"--host", "0.0.0.0", "--port", "9000"}), cfg))
	require.Equal(t, "0.0.0.0:9000", cfg.Addr())

	err := applyServeFlags(NewArgParser([]string{"--port", "70000"}), cfg)
	require.Error(t, err)
	require.Equal(t, ExitUsageError, GetExitCode(err))
}

func TestConfigSetAndGet(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	args := Args{ConfigPath: path, Quiet: true}

	require.NoError(t, handleConfigSet(args, "server.port", "9100", true))
	require.NoError(t, handleConfigSet(args, "verify.gateway_token", "s3cret", true))

	cfg, err := config.LoadFromPath(path)
	require.NoError(t, err)
	require.Equal(t, 9100, cfg.Server.Port)
	require.Equal(t, "s3cret", cfg.Verify.GatewayToken)
	require.Equal(t, "********", displayValue(cfg, "verify.gateway_token"))

	err = handleConfigSet(args, "server.prot", "1", true)
	require.Error(t, err)
	var ve *ValidationError
	require.True(t, errors.As(err, &ve))
	require.Equal(t, "seqdiff config get server.port", ve.Example)

	err = handleConfigSet(args, "server.port", "0", true)
	require.Error(t, err)
	require.Equal(t, ExitConfigError, GetExitCode(err))
}

// =============================================================================
// CONFIRMATION & OUTPUT TESTS
// =============================================================================

func TestRequireConfirmation(t *testing.T) {
	ok, err := RequireConfirmation(true, "delete", false)
	require.NoError(t, err)
	require.True(t, ok)

	_, err = RequireConfirmation(false, "delete", true)
	require.Error(t, err)
	require.Equal(t, ExitUsageError, GetExitCode(err))
}

func TestPromptConfirm(t *testing.T) {
	tests := []struct {
		input string
		want  bool
	}{
		{"y\n", true},
		{"YES\n", true},
		{"\n", false},
		{"nope\n", false},
		{"y", true},
	}
	for _, tt := range tests {
		var out bytes.Buffer
		got, err := promptConfirm(strings.NewReader(tt.input), &out, "delete comparison")
		require.NoError(t, err)
		if got != tt.want {
			t.Errorf("promptConfirm(%q) = %v, want %v", tt.input, got, tt.want)
		}
		require.Contains(t, out.String(), "delete comparison")
	}
}

func TestJSONResponse_Fprint(t *testing.T) {
	var buf bytes.Buffer
	resp := NewJSONResponse("compare", map[string]int{"edit_distance": 3})
	require.NoError(t, resp.Fprint(&buf, false))

	var decoded struct {
		Success bool           `json:"success"`
		Command string         `json:"command"`
		Data    map[string]int `json:"data"`
	}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
	require.True(t, decoded.Success)
	require.Equal(t, "compare", decoded.Command)
	require.Equal(t, 3, decoded.Data["edit_distance"])
}

func TestJSONErrorResponse(t *testing.T) {
	resp := NewJSONErrorResponse("verify", verify.ErrApprovalRequired)
	require.False(t, resp.Success)
	require.NotNil(t, resp.Error)
	require.Equal(t, "approval code required", *resp.Error)
}
