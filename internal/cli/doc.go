// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package cli provides command-line parsing and execution for seqdiff.
//
// # Key Types
//
//   - Command: Enumeration of all available CLI commands
//   - Args: Parsed global flags plus the raw command arguments
//   - ArgParser: Per-command flag and positional parsing
//   - JSONResponse: The envelope every --json command prints
//
// # Usage
//
//	os.Exit(cli.Run(cli.Parse()))
//
// # Commands Overview
//
//   - compare: Align two sequences (positional, --file-a/--file-b, or prompted)
//   - demo: Compare the built-in demo pair
//   - verify: Anchor a comparison hash and print the receipt
//   - history: List, show, export and delete saved comparisons
//   - serve: Run the HTTP API
//   - config: Show and edit ~/.seqdiff/config.toml
//   - tui: Interactive comparer
//
// Every command returns an error; Run maps it to an exit code with
// GetExitCode, so scripts can tell invalid sequences (9) from usage
// errors (2) and missing records (7).
package cli
