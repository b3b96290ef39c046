// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package storage

const (
	// SchemaVersion tracks the database schema version for migrations
	SchemaVersion = 1
)

// Schema is the SQLite schema for the comparison ledger.
const Schema = `
CREATE TABLE IF NOT EXISTS metadata (
    key TEXT PRIMARY KEY,
    value TEXT NOT NULL
) WITHOUT ROWID;

-- One row per saved comparison
CREATE TABLE IF NOT EXISTS comparisons (
    id TEXT PRIMARY KEY,
    created_at INTEGER NOT NULL,      -- Unix milliseconds
    original_name TEXT NOT NULL DEFAULT '',
    edited_name TEXT NOT NULL DEFAULT '',
    original TEXT NOT NULL,
    edited TEXT NOT NULL,
    original_length INTEGER NOT NULL,
    edited_length INTEGER NOT NULL,
    edit_distance INTEGER NOT NULL,
    substitutions INTEGER NOT NULL,
    insertions INTEGER NOT NULL,
    deletions INTEGER NOT NULL,
    similarity REAL NOT NULL,
    result_hash TEXT NOT NULL,
    edit_script TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_comparisons_created_at ON comparisons(created_at);
CREATE INDEX IF NOT EXISTS idx_comparisons_result_hash ON comparisons(result_hash);

-- One row per finished verification attempt
CREATE TABLE IF NOT EXISTS verifications (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    comparison_id TEXT,
    task_id TEXT NOT NULL,
    status TEXT NOT NULL,             -- Complete, Failed, Canceled
    tx_hash TEXT NOT NULL DEFAULT '',
    explorer_url TEXT NOT NULL DEFAULT '',
    network TEXT NOT NULL DEFAULT '',
    error TEXT NOT NULL DEFAULT '',
    submitted_at INTEGER,             -- Unix milliseconds, receipt time
    finished_at INTEGER NOT NULL,
    FOREIGN KEY(comparison_id) REFERENCES comparisons(id) ON DELETE CASCADE
);

CREATE INDEX IF NOT EXISTS idx_verifications_comparison_id ON verifications(comparison_id);
CREATE INDEX IF NOT EXISTS idx_verifications_task_id ON verifications(task_id);
`

// InitMetadata initializes the metadata table with default values
const InitMetadata = `
INSERT OR IGNORE INTO metadata (key, value) VALUES ('schema_version', '1');
INSERT OR IGNORE INTO metadata (key, value) VALUES ('created_at', strftime('%s', 'now'));
`
