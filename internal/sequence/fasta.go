// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package sequence

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"
)

// maxLineSize bounds a single input line; unwrapped genomes can be long.
const maxLineSize = 4 * 1024 * 1024

// Read parses a sequence from r. FASTA input ('>' header lines) yields the
// first record with its header as the name; ';' lines are comments. Anything
// else is treated as plain text and all lines are concatenated.
func Read(r io.Reader) (Sequence, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineSize)

	var (
		name    string
		body    strings.Builder
		inFasta bool
	)

	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, ";") {
			continue
		}
		if strings.HasPrefix(line, ">") {
			if inFasta {
				// Second record, stop at the first one
				break
			}
			inFasta = true
			name = strings.TrimSpace(strings.TrimPrefix(line, ">"))
			continue
		}
		body.WriteString(line)
	}
	if err := scanner.Err(); err != nil {
		return Sequence{}, fmt.Errorf("read sequence: %w", err)
	}

	seq, err := ParseField(name, body.String())
	if err != nil {
		return Sequence{}, err
	}
	return seq.WithName(name), nil
}

// ReadFile opens path and parses it with Read.
func ReadFile(path string) (Sequence, error) {
	f, err := os.Open(path)
	if err != nil {
		return Sequence{}, fmt.Errorf("open sequence file: %w", err)
	}
	defer f.Close()

	seq, err := Read(f)
	if err != nil {
		if verr, ok := err.(*ValidationError); ok && verr.Field == "" {
			verr.Field = path
		}
		return Sequence{}, err
	}
	return seq, nil
}
