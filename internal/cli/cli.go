// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// cli.go - CLI parsing and shared command plumbing for seqdiff.
package cli

import (
	"fmt"
	"io"
	"log"
	"os"
	"runtime"
	"strings"
)

// Version information (can be overridden at build time)
var (
	Version   = "0.1.0"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

// Command represents the CLI command to execute.
type Command int

const (
	CmdHelp Command = iota
	CmdCompare
	CmdDemo
	CmdServe
	CmdVerify
	CmdHistory
	CmdConfig
	CmdTUI
	CmdVersion
	CmdUnknown
)

// String returns the command name used in JSON responses.
func (c Command) String() string {
	switch c {
	case CmdCompare:
		return "compare"
	case CmdDemo:
		return "demo"
	case CmdServe:
		return "serve"
	case CmdVerify:
		return "verify"
	case CmdHistory:
		return "history"
	case CmdConfig:
		return "config"
	case CmdTUI:
		return "tui"
	case CmdVersion:
		return "version"
	case CmdHelp:
		return "help"
	default:
		return "unknown"
	}
}

// Args holds parsed CLI arguments.
type Args struct {
	// Global flags
	Quiet      bool
	Verbose    bool
	JSON       bool   // Output in JSON format
	ConfigPath string // --config FILE overrides the default config location
	Color      string // --color auto|always|never (empty = auto)

	// Subcommand is the first positional argument for history and config
	Subcommand string

	// Name is the command as typed (used for suggestions on CmdUnknown)
	Name string

	// Raw holds the command's arguments after global flags were removed
	Raw []string
}

const usageText = `seqdiff - DNA sequence comparison

Aligns an original and an edited DNA sequence, shows every substitution,
insertion and deletion, and can anchor the result on a public ledger.

Usage:
  seqdiff compare ORIGINAL EDITED   Align two sequences
  seqdiff demo                      Compare the built-in demo pair
  seqdiff verify ORIGINAL EDITED    Submit a comparison for verification
  seqdiff history [subcommand]      Saved comparisons
  seqdiff serve                     Run the HTTP API
  seqdiff config [subcommand]       Configuration
  seqdiff tui                       Interactive comparer
  seqdiff version                   Version information
  seqdiff help                      This help

Compare:
  seqdiff compare ATGC ATGG
  seqdiff compare --file-a ref.fasta --file-b edit.fasta
    --format text|json|md|html|script Output format (default: text)
    --output FILE                     Write to FILE instead of stdout
    --width N                         Render width (default: terminal width)
    --context N                       Unchanged bases around each hunk
    --save                            Save to the comparison history
  With no sequences on a terminal, seqdiff prompts for both.

Verify:
  seqdiff verify ORIGINAL EDITED
  seqdiff verify --id COMPARISON_ID  Verify a saved comparison
    --explain                        Explain what verification records
    --code N                         Approval code (when verify.totp_secret is set)
    --timeout DURATION               Give up waiting after DURATION (default: verify.timeout_secs)
  The receipt is printed when the submission completes. Ctrl+C cancels it.

History:
  seqdiff history list [--limit N]   Saved comparisons, newest first
  seqdiff history show ID            One comparison (ID or unique prefix)
  seqdiff history export ID          Export a saved comparison
    --format json|md|html|text       Export format (default: md)
  seqdiff history delete ID          Delete a comparison
    --confirm                        Skip the confirmation prompt

Serve:
  seqdiff serve [--host H] [--port N] [--watch]
    --watch                          Reload tunables when the config file changes

Config:
  seqdiff config show                Show current configuration
  seqdiff config get KEY             Print one value (dot notation)
  seqdiff config set KEY VALUE       Set and save a value
  seqdiff config reset               Reset to defaults
  seqdiff config path                Show the config file path
  seqdiff config keys                List settable keys
  seqdiff config approval-setup      Generate a TOTP secret for verification approval

Global Flags:
  --json          Output the standard JSON envelope
  --config FILE   Use FILE instead of ~/.seqdiff/config.toml
  --color MODE    auto, always or never (--no-color = never; NO_COLOR is honored)
  -q, --quiet     Minimal output
  -v, --verbose   Debug output

Exit Codes:
  0 success, 1 general error, 2 usage error, 3 config error, 4 approval error,
  5 network error, 7 not found, 8 timeout, 9 invalid sequence

Version: %s
`

// PrintUsage prints the usage/help text.
func PrintUsage() {
	fmt.Printf(usageText, Version)
}

// PrintVersion prints version information.
func PrintVersion() {
	fmt.Printf("seqdiff version %s\n", Version)
	fmt.Printf("  Git commit: %s\n", GitCommit)
	fmt.Printf("  Build date: %s\n", BuildDate)
}

// Parse parses os.Args and returns the command and args.
func Parse() (Command, Args) {
	return ParseArgs(os.Args[1:])
}

// ParseArgs parses the given arguments (without the program name).
func ParseArgs(argv []string) (Command, Args) {
	remaining, parsedArgs := parseGlobalFlags(argv)

	if len(remaining) == 0 {
		return CmdHelp, parsedArgs
	}

	name := strings.ToLower(remaining[0])
	remaining = remaining[1:]
	parsedArgs.Name = name
	parsedArgs.Raw = remaining

	switch name {
	case "compare", "cmp", "diff":
		return CmdCompare, parsedArgs

	case "demo":
		return CmdDemo, parsedArgs

	case "verify", "anchor":
		return CmdVerify, parsedArgs

	case "history", "hist":
		parsedArgs.Subcommand = firstPositional(remaining)
		return CmdHistory, parsedArgs

	case "serve", "server":
		return CmdServe, parsedArgs

	case "config":
		parsedArgs.Subcommand = firstPositional(remaining)
		return CmdConfig, parsedArgs

	case "tui", "ui":
		return CmdTUI, parsedArgs

	case "version", "--version":
		return CmdVersion, parsedArgs

	case "help", "-h", "--help":
		return CmdHelp, parsedArgs

	default:
		return CmdUnknown, parsedArgs
	}
}

// parseGlobalFlags extracts global flags from args and returns remaining args.
// Global flags are recognized anywhere on the command line.
func parseGlobalFlags(args []string) ([]string, Args) {
	var remaining []string
	var parsedArgs Args

	for i := 0; i < len(args); i++ {
		arg := args[i]

		switch arg {
		case "-q", "--quiet":
			parsedArgs.Quiet = true
		case "-v", "--verbose":
			parsedArgs.Verbose = true
		case "--json":
			parsedArgs.JSON = true
		case "--no-color":
			parsedArgs.Color = string(ColorNever)
		case "--config", "--color":
			if i+1 < len(args) {
				i++
				if arg == "--config" {
					parsedArgs.ConfigPath = args[i]
				} else {
					parsedArgs.Color = args[i]
				}
			}
		default:
			switch {
			case strings.HasPrefix(arg, "--config="):
				parsedArgs.ConfigPath = strings.TrimPrefix(arg, "--config=")
			case strings.HasPrefix(arg, "--color="):
				parsedArgs.Color = strings.TrimPrefix(arg, "--color=")
			default:
				remaining = append(remaining, arg)
			}
		}
	}

	return remaining, parsedArgs
}

// firstPositional returns the first argument that isn't a flag.
func firstPositional(args []string) string {
	for _, a := range args {
		if !strings.HasPrefix(a, "-") {
			return strings.ToLower(a)
		}
	}
	return ""
}

// =============================================================================
// COMMAND DISPATCH
// =============================================================================

// Run executes cmd and returns the process exit code.
// Errors are displayed here so handlers only return them.
func Run(cmd Command, args Args) int {
	configureLogging(cmd, args)

	mode, err := ParseColorMode(args.Color)
	if err != nil {
		DisplayError(cmd.String(), err, args.JSON)
		return GetExitCode(err)
	}
	if mode != ColorAuto {
		SetColorMode(mode)
	}

	switch cmd {
	case CmdCompare:
		err = HandleCompare(args)
	case CmdDemo:
		err = HandleDemo(args)
	case CmdVerify:
		err = HandleVerify(args)
	case CmdHistory:
		err = HandleHistory(args)
	case CmdServe:
		err = HandleServe(args)
	case CmdConfig:
		err = HandleConfig(args)
	case CmdTUI:
		err = HandleTUI(args)
	case CmdVersion:
		HandleVersionWithJSON(args)
	case CmdHelp:
		HandleHelp()
	default:
		err = unknownCommand(args.Name)
	}

	if err == nil {
		return ExitSuccess
	}
	DisplayError(cmd.String(), err, args.JSON)
	return GetExitCode(err)
}

// configureLogging keeps event logs on stderr for serve and --verbose.
// Other commands print their own results, so events are dropped.
func configureLogging(cmd Command, args Args) {
	if cmd == CmdServe || args.Verbose {
		log.SetOutput(os.Stderr)
		return
	}
	log.SetOutput(io.Discard)
}

// unknownCommand builds the error for an unrecognized command, with a
// suggestion when one is close.
func unknownCommand(name string) error {
	example := "seqdiff help"
	if suggestion := SuggestCommand(name); suggestion != "" {
		example = "seqdiff " + suggestion
	}
	return NewValidationErrorWithExample("command", name, "unknown command", example)
}

// HandleVersionWithJSON handles the "version" command with JSON output support.
func HandleVersionWithJSON(args Args) {
	if args.JSON {
		data := VersionData{
			Version:   Version,
			GitCommit: GitCommit,
			BuildDate: BuildDate,
			GoVersion: runtime.Version(),
		}
		resp := NewJSONResponse("version", data)
		resp.Print()
		return
	}
	PrintVersion()
}

// HandleHelp handles the "help" command.
func HandleHelp() {
	PrintUsage()
}
