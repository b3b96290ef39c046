// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package align

import (
	"encoding/hex"
	"encoding/json"
	"fmt"

	"golang.org/x/crypto/sha3"
)

// Hash returns the 0x-prefixed Keccak-256 digest of the result's JSON form.
// Struct field order makes the encoding canonical, so equal alignments hash
// equally across processes.
func (r *Result) Hash() (string, error) {
	data, err := json.Marshal(r)
	if err != nil {
		return "", fmt.Errorf("encode alignment: %w", err)
	}
	return Keccak256Hex(data), nil
}

// Keccak256Hex hashes data with legacy Keccak-256, as used for EVM
// transaction and content identifiers.
func Keccak256Hex(data []byte) string {
	h := sha3.NewLegacyKeccak256()
	h.Write(data)
	return "0x" + hex.EncodeToString(h.Sum(nil))
}
