// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package align

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/bionova/seqdiff/internal/sequence"
)

// =============================================================================
// EDIT SCRIPT
// =============================================================================

// ErrMalformedScript is returned by ParseEditScript and EditScript.Apply.
var ErrMalformedScript = errors.New("malformed edit script")

// Mod is one run of same-kind edits. Start and End index the original
// sequence (End exclusive); they are equal for insertions.
type Mod struct {
	Kind  OpKind
	Start int
	End   int
	Bases string // New bases; empty for deletions
}

// EditScript is the compact form of an alignment's edits. Its string form
// concatenates one token per mod:
//
//	s<offset><bases>   substitute len(bases) bases
//	i<offset><bases>   insert bases
//	d<offset><dashes>  delete len(dashes) bases
//
// where offset is the distance from the previous mod's start (or from 0).
type EditScript struct {
	Mods []Mod
}

// EditScript derives the edit script of the alignment.
func (r *Result) EditScript() *EditScript {
	script := &EditScript{}

	var (
		cur     *Mod
		bases   strings.Builder
		origPos int
	)
	flush := func() {
		if cur != nil {
			cur.Bases = bases.String()
			script.Mods = append(script.Mods, *cur)
			cur = nil
			bases.Reset()
		}
	}

	for _, op := range r.Ops {
		if op.Kind == OpMatch {
			flush()
			origPos++
			continue
		}
		if cur == nil || cur.Kind != op.Kind {
			flush()
			cur = &Mod{Kind: op.Kind, Start: origPos, End: origPos}
		}
		switch op.Kind {
		case OpSubstitution:
			bases.WriteByte(op.Edited)
			cur.End++
			origPos++
		case OpInsertion:
			bases.WriteByte(op.Edited)
		case OpDeletion:
			cur.End++
			origPos++
		}
	}
	flush()

	return script
}

// String encodes the script in its compact form.
func (e *EditScript) String() string {
	var sb strings.Builder
	last := 0
	for _, m := range e.Mods {
		dist := m.Start - last
		last = m.Start
		switch m.Kind {
		case OpSubstitution:
			fmt.Fprintf(&sb, "s%d%s", dist, m.Bases)
		case OpInsertion:
			fmt.Fprintf(&sb, "i%d%s", dist, m.Bases)
		case OpDeletion:
			fmt.Fprintf(&sb, "d%d%s", dist, strings.Repeat("-", m.End-m.Start))
		}
	}
	return sb.String()
}

// Len returns the number of mods.
func (e *EditScript) Len() int {
	return len(e.Mods)
}

// ParseEditScript decodes the compact form produced by EditScript.String.
func ParseEditScript(s string) (*EditScript, error) {
	script := &EditScript{}
	last := 0

	for i := 0; i < len(s); {
		var kind OpKind
		switch s[i] {
		case 's':
			kind = OpSubstitution
		case 'i':
			kind = OpInsertion
		case 'd':
			kind = OpDeletion
		default:
			return nil, fmt.Errorf("%w: expected 's', 'i' or 'd' at column %d, got %q", ErrMalformedScript, i, s[i])
		}
		tokenStart := i
		i++

		digitsStart := i
		for i < len(s) && s[i] >= '0' && s[i] <= '9' {
			i++
		}
		if i == digitsStart {
			return nil, fmt.Errorf("%w: expected an offset after %q at column %d", ErrMalformedScript, s[tokenStart], tokenStart)
		}
		offset, err := strconv.Atoi(s[digitsStart:i])
		if err != nil {
			return nil, fmt.Errorf("%w: offset at column %d: %v", ErrMalformedScript, digitsStart, err)
		}

		bodyStart := i
		for i < len(s) && s[i] != 's' && s[i] != 'i' && s[i] != 'd' {
			if s[i] >= '0' && s[i] <= '9' {
				return nil, fmt.Errorf("%w: unexpected digit at column %d", ErrMalformedScript, i)
			}
			i++
		}
		body := s[bodyStart:i]
		if body == "" {
			return nil, fmt.Errorf("%w: empty %q token at column %d", ErrMalformedScript, s[tokenStart], tokenStart)
		}

		m := Mod{Kind: kind, Start: last + offset}
		last = m.Start
		switch kind {
		case OpDeletion:
			if strings.Trim(body, "-") != "" {
				return nil, fmt.Errorf("%w: deletion at column %d must use '-'", ErrMalformedScript, tokenStart)
			}
			m.End = m.Start + len(body)
		default:
			for k := 0; k < len(body); k++ {
				if !sequence.IsBase(body[k]) {
					return nil, fmt.Errorf("%w: invalid base %q at column %d", ErrMalformedScript, body[k], bodyStart+k)
				}
			}
			m.Bases = body
			m.End = m.Start
			if kind == OpSubstitution {
				m.End += len(body)
			}
		}
		script.Mods = append(script.Mods, m)
	}

	return script, nil
}

// Apply replays the script over original and returns the edited sequence.
func (e *EditScript) Apply(original string) (string, error) {
	var sb strings.Builder
	sb.Grow(len(original))

	lastEnd := 0
	for k, m := range e.Mods {
		if m.Start < lastEnd || m.End > len(original) || m.End < m.Start {
			return "", fmt.Errorf("%w: mod %d spans [%d,%d) over %d bases", ErrMalformedScript, k, m.Start, m.End, len(original))
		}
		sb.WriteString(original[lastEnd:m.Start])
		sb.WriteString(m.Bases)
		lastEnd = m.End
	}
	sb.WriteString(original[lastEnd:])

	return sb.String(), nil
}
