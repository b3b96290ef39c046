// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package storage provides the comparison ledger for seqdiff.
//
// Comparisons and verification outcomes are kept in a single SQLite file
// using the pure Go modernc.org/sqlite driver, so no cgo toolchain is needed.
//
// # Key Types
//
//   - Store: The ledger; implements verify.Recorder
//   - Comparison: A saved alignment with its content hash and edit script
//   - Verification: One finished verification attempt
//
// # Usage
//
//	store, err := storage.Open(path)
//	if err != nil {
//	    return err
//	}
//	defer store.Close()
//
//	c, _ := storage.NewComparison(original, edited, result)
//	id, err := store.SaveComparison(ctx, c)
//
// # Storage Location
//
// The ledger defaults to ~/.seqdiff/seqdiff.db (storage.path in config).
package storage
