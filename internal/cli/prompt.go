// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// prompt.go - Interactive sequence entry with line editing and history.
package cli

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/peterh/liner"

	"github.com/bionova/seqdiff/internal/config"
	"github.com/bionova/seqdiff/internal/sequence"
)

// ErrPromptAborted is returned when the user presses Ctrl+C or Ctrl+D at a prompt.
var ErrPromptAborted = errors.New("input aborted")

// SequencePrompt reads sequences from the terminal. Arrow keys recall
// earlier entries, which persist across runs.
type SequencePrompt struct {
	line        *liner.State
	historyFile string
}

// NewSequencePrompt creates a prompt with history loaded from the config directory.
func NewSequencePrompt() *SequencePrompt {
	line := liner.NewLiner()
	line.SetCtrlCAborts(true)

	configDir, err := config.ConfigDir()
	if err != nil {
		configDir = os.TempDir()
	}

	p := &SequencePrompt{
		line:        line,
		historyFile: filepath.Join(configDir, "sequence_history"),
	}
	p.loadHistory()
	return p
}

func (p *SequencePrompt) loadHistory() {
	if f, err := os.Open(p.historyFile); err == nil {
		p.line.ReadHistory(f)
		f.Close()
	}
}

// ReadSequence prompts for one sequence until it validates.
// Invalid input is explained and asked for again.
func (p *SequencePrompt) ReadSequence(field string) (sequence.Sequence, error) {
	for {
		input, err := p.line.Prompt(PromptStyle.Render(fmt.Sprintf("%s> ", field)))
		if err != nil {
			if errors.Is(err, liner.ErrPromptAborted) || errors.Is(err, io.EOF) {
				return sequence.Sequence{}, ErrPromptAborted
			}
			return sequence.Sequence{}, fmt.Errorf("read %s sequence: %w", field, err)
		}

		if strings.TrimSpace(input) == "" {
			continue
		}

		seq, err := sequence.ParseField(field, input)
		if err != nil {
			fmt.Fprintf(os.Stderr, "%s %v\n", ErrorStyle.Render("[!]"), err)
			continue
		}

		p.line.AppendHistory(seq.String())
		return seq, nil
	}
}

// Close saves history with owner-only permissions and restores the terminal.
func (p *SequencePrompt) Close() {
	if err := os.MkdirAll(filepath.Dir(p.historyFile), 0700); err == nil {
		if f, err := os.OpenFile(p.historyFile, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600); err == nil {
			p.line.WriteHistory(f)
			f.Close()
		}
	}
	p.line.Close()
}

// ReadApprovalCode asks for a one-time approval code without echoing it.
func ReadApprovalCode() (string, error) {
	line := liner.NewLiner()
	defer line.Close()
	line.SetCtrlCAborts(true)

	code, err := line.PasswordPrompt("approval code> ")
	if err != nil {
		if errors.Is(err, liner.ErrPromptAborted) || errors.Is(err, io.EOF) {
			return "", ErrPromptAborted
		}
		return "", fmt.Errorf("read approval code: %w", err)
	}
	return strings.TrimSpace(code), nil
}
