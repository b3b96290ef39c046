// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package verify

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/bionova/seqdiff/internal/align"
	"github.com/bionova/seqdiff/internal/sequence"
)

// PayloadType identifies comparison records on the network.
const PayloadType = "sequence-comparison"

// Payload is the record handed to a Submitter.
type Payload struct {
	Type string `json:"type"`

	// Original and Edited are only present when the owner opts in
	Original string `json:"original,omitempty"`
	Edited   string `json:"edited,omitempty"`

	// ResultHash is the Keccak-256 of the canonical alignment result
	ResultHash     string  `json:"result_hash"`
	EditScript     string  `json:"edit_script"`
	Similarity     float64 `json:"similarity"`
	EditDistance   int     `json:"edit_distance"`
	OriginalLength int     `json:"original_length"`
	EditedLength   int     `json:"edited_length"`

	Wallet    string    `json:"wallet,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// NewPayload builds a payload for an alignment of original against edited.
// The sequences are included; call WithoutSequences to submit the hash only.
func NewPayload(original, edited sequence.Sequence, res *align.Result, wallet string) (Payload, error) {
	if res == nil {
		return Payload{}, errors.New("verify: nil alignment result")
	}

	hash, err := res.Hash()
	if err != nil {
		return Payload{}, fmt.Errorf("verify: hash result: %w", err)
	}

	return Payload{
		Type:           PayloadType,
		Original:       original.String(),
		Edited:         edited.String(),
		ResultHash:     hash,
		EditScript:     res.EditScript().String(),
		Similarity:     res.Similarity,
		EditDistance:   res.EditDistance(),
		OriginalLength: res.OriginalLen,
		EditedLength:   res.EditedLen,
		Wallet:         wallet,
		CreatedAt:      time.Now().UTC().Truncate(time.Second),
	}, nil
}

// WithoutSequences returns a copy with the raw sequences removed.
func (p Payload) WithoutSequences() Payload {
	p.Original = ""
	p.Edited = ""
	return p
}

// Validate checks the fields every submitter relies on.
func (p Payload) Validate() error {
	if p.Type != PayloadType {
		return fmt.Errorf("verify: unexpected payload type %q", p.Type)
	}
	if len(p.ResultHash) != 66 || p.ResultHash[:2] != "0x" {
		return fmt.Errorf("verify: malformed result hash %q", p.ResultHash)
	}
	if p.Similarity < 0 || p.Similarity > 1 {
		return fmt.Errorf("verify: similarity %v out of range", p.Similarity)
	}
	return nil
}

// Canonical returns the deterministic JSON encoding that submitters sign or hash.
func (p Payload) Canonical() ([]byte, error) {
	p.CreatedAt = p.CreatedAt.UTC()
	return json.Marshal(p)
}

// Receipt is what the network hands back for an accepted record.
type Receipt struct {
	TxHash      string    `json:"tx_hash"`
	ExplorerURL string    `json:"explorer_url,omitempty"`
	Network     string    `json:"network"`
	SubmittedAt time.Time `json:"submitted_at"`
}

// explorerLink joins the explorer prefix and tx hash; an empty prefix gives no link.
func explorerLink(prefix, txHash string) string {
	if prefix == "" {
		return ""
	}
	return prefix + txHash
}
