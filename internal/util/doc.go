// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package util provides small helpers shared across seqdiff packages.
//
//   - AtomicWriteFile: crash-safe file replacement (config, exports)
//   - TruncateRunes, TruncateWidth: display truncation
//   - ShortID, Elide: compact identifiers and sequences for tables
package util
