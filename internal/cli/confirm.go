// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// confirm.go - Confirmation for destructive history commands.
//
// The flow is the same everywhere:
//  1. --confirm proceeds without prompting
//  2. --json requires --confirm (no interactive prompts in JSON mode)
//  3. a non-terminal stdin requires --confirm
//  4. otherwise ask on the terminal
package cli

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"
)

// RequireConfirmation checks if the user has confirmed a destructive action.
// It returns false without error when the user declines.
func RequireConfirmation(confirmFlag bool, action string, jsonMode bool) (bool, error) {
	if confirmFlag {
		return true, nil
	}

	if jsonMode {
		return false, NewValidationErrorWithExample("confirm", "", "confirmation required in JSON mode", "add --confirm")
	}

	if !IsTTY() {
		return false, NewValidationErrorWithExample("confirm", "", "confirmation required but stdin is not a terminal", "add --confirm")
	}

	return promptConfirm(os.Stdin, os.Stdout, action)
}

// RequireConfirmationWithDetails is like RequireConfirmation but shows
// labeled details before prompting.
func RequireConfirmationWithDetails(confirmFlag bool, action string, details [][2]string, jsonMode bool) (bool, error) {
	if !confirmFlag && !jsonMode && IsTTY() {
		fmt.Println()
		for _, d := range details {
			fmt.Println(RenderField(d[0], d[1]))
		}
	}
	return RequireConfirmation(confirmFlag, action, jsonMode)
}

// promptConfirm asks a yes/no question on out and reads the answer from in.
func promptConfirm(in io.Reader, out io.Writer, action string) (bool, error) {
	fmt.Fprintln(out)
	fmt.Fprintf(out, "Are you sure you want to %s? [y/N]: ", action)

	input, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && input == "" {
		return false, fmt.Errorf("failed to read confirmation: %w", err)
	}

	response := strings.ToLower(strings.TrimSpace(input))
	return response == "y" || response == "yes", nil
}
