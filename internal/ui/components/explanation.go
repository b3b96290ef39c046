// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"fmt"

	"github.com/charmbracelet/glamour"
)

// verificationExplanation is formatted with the network name.
const verificationExplanation = `# Verifying a comparison

Verification anchors a comparison on the **%s** network so anyone can later
check that these two sequences produced this exact alignment.

1. **Content hash.** The alignment is encoded canonically and hashed with
   Keccak-256. Only the hash, the edit script and the similarity are
   submitted; the sequences stay with you unless you choose to share them.
2. **Ownership.** The record is submitted from your wallet address, which
   proves who registered the comparison.
3. **Receipt.** The network returns a transaction hash and a block explorer
   link. Anyone holding the sequences can recompute the hash and compare.

Submitting a record requires a small network fee.
`

// RenderMarkdown renders markdown for the terminal, wrapping at width.
// Rendering failures return the source unchanged.
func RenderMarkdown(source string, width int) string {
	if width <= 0 {
		width = 80
	}

	renderer, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(width),
	)
	if err != nil {
		return source
	}

	rendered, err := renderer.Render(source)
	if err != nil {
		return source
	}
	return rendered
}

// ExplainVerification renders the verification walkthrough for network.
func ExplainVerification(network string, width int) string {
	return RenderMarkdown(fmt.Sprintf(verificationExplanation, network), width)
}
