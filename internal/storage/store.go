// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite" // Pure Go SQLite driver

	"github.com/bionova/seqdiff/internal/align"
	"github.com/bionova/seqdiff/internal/sequence"
	"github.com/bionova/seqdiff/internal/verify"
)

// =============================================================================
// ERRORS
// =============================================================================

var (
	// ErrNotFound is returned when a comparison doesn't exist.
	ErrNotFound = errors.New("comparison not found")

	// ErrAmbiguousID is returned when an ID prefix matches several comparisons.
	ErrAmbiguousID = errors.New("comparison id prefix is ambiguous")
)

// =============================================================================
// RECORD TYPES
// =============================================================================

// Comparison is a saved alignment of two sequences.
type Comparison struct {
	ID           string    `json:"id"`
	CreatedAt    time.Time `json:"created_at"`
	OriginalName string    `json:"original_name,omitempty"`
	EditedName   string    `json:"edited_name,omitempty"`
	Original     string    `json:"original"`
	Edited       string    `json:"edited"`

	OriginalLength int          `json:"original_length"`
	EditedLength   int          `json:"edited_length"`
	EditDistance   int          `json:"edit_distance"`
	Counts         align.Counts `json:"counts"`
	Similarity     float64      `json:"similarity"`
	ResultHash     string       `json:"result_hash"`
	EditScript     string       `json:"edit_script"`
}

// NewComparison builds an unsaved record from an alignment result.
func NewComparison(original, edited sequence.Sequence, res *align.Result) (*Comparison, error) {
	if res == nil {
		return nil, errors.New("storage: nil alignment result")
	}
	hash, err := res.Hash()
	if err != nil {
		return nil, fmt.Errorf("storage: hash result: %w", err)
	}
	return &Comparison{
		OriginalName:   original.Name(),
		EditedName:     edited.Name(),
		Original:       original.String(),
		Edited:         edited.String(),
		OriginalLength: res.OriginalLen,
		EditedLength:   res.EditedLen,
		EditDistance:   res.EditDistance(),
		Counts:         res.Counts,
		Similarity:     res.Similarity,
		ResultHash:     hash,
		EditScript:     res.EditScript().String(),
	}, nil
}

// Result re-aligns the stored sequences.
func (c *Comparison) Result() (*align.Result, error) {
	return align.Strings(c.Original, c.Edited)
}

// Verification is a finished verification attempt.
type Verification struct {
	ID           int64      `json:"id"`
	ComparisonID string     `json:"comparison_id,omitempty"`
	TaskID       string     `json:"task_id"`
	Status       string     `json:"status"`
	TxHash       string     `json:"tx_hash,omitempty"`
	ExplorerURL  string     `json:"explorer_url,omitempty"`
	Network      string     `json:"network,omitempty"`
	Error        string     `json:"error,omitempty"`
	SubmittedAt  *time.Time `json:"submitted_at,omitempty"`
	FinishedAt   time.Time  `json:"finished_at"`
}

// =============================================================================
// STORE
// =============================================================================

// Store is the SQLite comparison ledger. It is safe for concurrent use.
type Store struct {
	db   *sql.DB
	path string
}

// Open opens (creating if needed) the ledger at path.
// ":memory:" opens a private in-memory database.
func Open(path string) (*Store, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite only supports one writer at a time, so limit connections
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA foreign_keys=ON",
		"PRAGMA busy_timeout=5000",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to set pragma: %w", err)
		}
	}

	if _, err := db.Exec(Schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}
	if _, err := db.Exec(InitMetadata); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize metadata: %w", err)
	}

	return &Store{db: db, path: path}, nil
}

// Path returns the database location.
func (s *Store) Path() string {
	return s.path
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// =============================================================================
// COMPARISONS
// =============================================================================

const comparisonColumns = `id, created_at, original_name, edited_name, original, edited,
	original_length, edited_length, edit_distance, substitutions, insertions, deletions,
	similarity, result_hash, edit_script`

// SaveComparison inserts c, assigning ID and CreatedAt when unset.
func (s *Store) SaveComparison(ctx context.Context, c *Comparison) (string, error) {
	if c.ID == "" {
		c.ID = newComparisonID()
	}
	if c.CreatedAt.IsZero() {
		c.CreatedAt = time.Now().UTC()
	}

	_, err := s.db.ExecContext(ctx, `INSERT INTO comparisons (`+comparisonColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		c.ID, c.CreatedAt.UnixMilli(), c.OriginalName, c.EditedName, c.Original, c.Edited,
		c.OriginalLength, c.EditedLength, c.EditDistance,
		c.Counts.Substitutions, c.Counts.Insertions, c.Counts.Deletions,
		c.Similarity, c.ResultHash, c.EditScript,
	)
	if err != nil {
		return "", fmt.Errorf("storage: save comparison: %w", err)
	}
	return c.ID, nil
}

// GetComparison returns the comparison whose ID equals or uniquely starts with id.
func (s *Store) GetComparison(ctx context.Context, id string) (*Comparison, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, ErrNotFound
	}

	rows, err := s.db.QueryContext(ctx, `SELECT `+comparisonColumns+`
		FROM comparisons WHERE id = ? OR id LIKE ? ESCAPE '\' ORDER BY (id = ?) DESC LIMIT 2`,
		id, escapeLike(id)+"%", id)
	if err != nil {
		return nil, fmt.Errorf("storage: get comparison: %w", err)
	}
	defer rows.Close()

	var found []*Comparison
	for rows.Next() {
		c, err := scanComparison(rows)
		if err != nil {
			return nil, err
		}
		found = append(found, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("storage: get comparison: %w", err)
	}

	switch {
	case len(found) == 0:
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	case found[0].ID == id || len(found) == 1:
		return found[0], nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrAmbiguousID, id)
	}
}

// ListComparisons returns the newest comparisons first (limit <= 0 = all).
func (s *Store) ListComparisons(ctx context.Context, limit int) ([]*Comparison, error) {
	query := `SELECT ` + comparisonColumns + ` FROM comparisons ORDER BY created_at DESC, rowid DESC`
	args := []interface{}{}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("storage: list comparisons: %w", err)
	}
	defer rows.Close()

	var out []*Comparison
	for rows.Next() {
		c, err := scanComparison(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("storage: list comparisons: %w", err)
	}
	return out, nil
}

// DeleteComparison removes a comparison and its verifications.
func (s *Store) DeleteComparison(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM comparisons WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("storage: delete comparison: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("storage: delete comparison: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return nil
}

// CountComparisons returns the number of saved comparisons.
func (s *Store) CountComparisons(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM comparisons`).Scan(&n); err != nil {
		return 0, fmt.Errorf("storage: count comparisons: %w", err)
	}
	return n, nil
}

type scanner interface {
	Scan(dest ...interface{}) error
}

func scanComparison(row scanner) (*Comparison, error) {
	var c Comparison
	var createdAt int64
	err := row.Scan(&c.ID, &createdAt, &c.OriginalName, &c.EditedName, &c.Original, &c.Edited,
		&c.OriginalLength, &c.EditedLength, &c.EditDistance,
		&c.Counts.Substitutions, &c.Counts.Insertions, &c.Counts.Deletions,
		&c.Similarity, &c.ResultHash, &c.EditScript)
	if err != nil {
		return nil, fmt.Errorf("storage: scan comparison: %w", err)
	}
	c.CreatedAt = time.UnixMilli(createdAt).UTC()
	// Every original base is a match, substitution or deletion
	c.Counts.Matches = c.OriginalLength - c.Counts.Substitutions - c.Counts.Deletions
	return &c, nil
}

// =============================================================================
// VERIFICATIONS
// =============================================================================

// RecordVerification stores a verification outcome. It implements verify.Recorder.
// Outcomes for unknown or deleted comparisons are stored unlinked.
func (s *Store) RecordVerification(ctx context.Context, rec verify.Record) error {
	v := Verification{
		TaskID:     rec.TaskID,
		Status:     rec.Status.String(),
		Error:      rec.Error,
		FinishedAt: rec.FinishedAt,
	}
	if rec.Receipt != nil {
		v.TxHash = rec.Receipt.TxHash
		v.ExplorerURL = rec.Receipt.ExplorerURL
		v.Network = rec.Receipt.Network
		submitted := rec.Receipt.SubmittedAt
		v.SubmittedAt = &submitted
	}
	if rec.ComparisonID != "" {
		if _, err := s.GetComparison(ctx, rec.ComparisonID); err == nil {
			v.ComparisonID = rec.ComparisonID
		}
	}
	_, err := s.AddVerification(ctx, v)
	return err
}

// AddVerification inserts v and returns its row ID.
func (s *Store) AddVerification(ctx context.Context, v Verification) (int64, error) {
	if v.FinishedAt.IsZero() {
		v.FinishedAt = time.Now().UTC()
	}

	var comparisonID, submittedAt interface{}
	if v.ComparisonID != "" {
		comparisonID = v.ComparisonID
	}
	if v.SubmittedAt != nil {
		submittedAt = v.SubmittedAt.UnixMilli()
	}

	res, err := s.db.ExecContext(ctx, `INSERT INTO verifications
		(comparison_id, task_id, status, tx_hash, explorer_url, network, error, submitted_at, finished_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		comparisonID, v.TaskID, v.Status, v.TxHash, v.ExplorerURL, v.Network, v.Error,
		submittedAt, v.FinishedAt.UnixMilli())
	if err != nil {
		return 0, fmt.Errorf("storage: record verification: %w", err)
	}
	return res.LastInsertId()
}

// ListVerifications returns the verifications of a comparison, oldest first.
// An empty comparisonID lists every verification.
func (s *Store) ListVerifications(ctx context.Context, comparisonID string) ([]Verification, error) {
	query := `SELECT id, COALESCE(comparison_id, ''), task_id, status, tx_hash, explorer_url,
		network, error, submitted_at, finished_at FROM verifications`
	var args []interface{}
	if comparisonID != "" {
		query += ` WHERE comparison_id = ?`
		args = append(args, comparisonID)
	}
	query += ` ORDER BY id`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("storage: list verifications: %w", err)
	}
	defer rows.Close()

	var out []Verification
	for rows.Next() {
		var v Verification
		var submittedAt sql.NullInt64
		var finishedAt int64
		if err := rows.Scan(&v.ID, &v.ComparisonID, &v.TaskID, &v.Status, &v.TxHash, &v.ExplorerURL,
			&v.Network, &v.Error, &submittedAt, &finishedAt); err != nil {
			return nil, fmt.Errorf("storage: scan verification: %w", err)
		}
		if submittedAt.Valid {
			t := time.UnixMilli(submittedAt.Int64).UTC()
			v.SubmittedAt = &t
		}
		v.FinishedAt = time.UnixMilli(finishedAt).UTC()
		out = append(out, v)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("storage: list verifications: %w", err)
	}
	return out, nil
}

// =============================================================================
// HELPER FUNCTIONS
// =============================================================================

// newComparisonID creates a unique comparison ID.
func newComparisonID() string {
	return "cmp_" + strings.ReplaceAll(uuid.NewString(), "-", "")[:16]
}

func escapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}
