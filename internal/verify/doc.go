// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package verify anchors comparison results on a public ledger.
//
// A Payload carries the Keccak-256 content hash of an alignment result, its
// edit script and similarity, and optionally the raw sequences. A Submitter
// turns it into a Receipt (transaction hash and explorer link). Simulator
// works offline; HTTPSubmitter relays through a gateway service.
//
// Service runs submissions as background tasks: Submit returns a task ID,
// Wait blocks for the receipt or the failure, and Cancel abandons it.
package verify
