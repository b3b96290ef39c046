// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// tui_cmd.go - Interactive comparer.
//
// Command: tui
// Short:   Edit two sequences and browse their alignment full screen
// Aliases: ui
package cli

import (
	"github.com/bionova/seqdiff/internal/ui/compare"
)

// HandleTUI handles the "tui" command.
func HandleTUI(args Args) error {
	if err := RequiresTTY("run the interactive comparer"); err != nil {
		return err
	}
	cfg, err := loadConfig(args)
	if err != nil {
		return err
	}
	return compare.Run(cfg)
}
