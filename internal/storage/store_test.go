// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package storage

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/bionova/seqdiff/internal/align"
	"github.com/bionova/seqdiff/internal/sequence"
	"github.com/bionova/seqdiff/internal/tasks"
	"github.com/bionova/seqdiff/internal/verify"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(filepath.Join(t.TempDir(), "ledger", "seqdiff.db"))
	if err != nil {
		t.Fatalf("Failed to open store: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func testComparison(t *testing.T, original, edited string) *Comparison {
	t.Helper()
	o := sequence.MustParse(original).WithName("wild-type")
	e := sequence.MustParse(edited)
	c, err := NewComparison(o, e, align.Align(o, e))
	require.NoError(t, err)
	return c
}

// =============================================================================
// COMPARISON TESTS
// =============================================================================

func TestStore_SaveAndGet(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	c := testComparison(t, "ACGTACGTAC", "ACTTACGAC")
	id, err := store.SaveComparison(ctx, c)
	require.NoError(t, err)
	if !strings.HasPrefix(id, "cmp_") {
		t.Errorf("ID should start with 'cmp_', got %q", id)
	}

	got, err := store.GetComparison(ctx, id)
	require.NoError(t, err)
	require.Equal(t, "wild-type", got.OriginalName)
	require.Equal(t, "ACGTACGTAC", got.Original)
	require.Equal(t, "ACTTACGAC", got.Edited)
	require.Equal(t, 2, got.EditDistance)
	require.Equal(t, "s2Td5-", got.EditScript)
	require.Equal(t, c.ResultHash, got.ResultHash)
	require.Equal(t, c.Counts, got.Counts, "matches are derived on read")
	require.WithinDuration(t, c.CreatedAt, got.CreatedAt, time.Millisecond)

	res, err := got.Result()
	require.NoError(t, err)
	hash, err := res.Hash()
	require.NoError(t, err)
	require.Equal(t, got.ResultHash, hash, "stored sequences must reproduce the stored hash")
}

func TestStore_GetByPrefix(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	c := testComparison(t, "ACGT", "AGT")
	c.ID = "cmp_aaaa1111"
	_, err := store.SaveComparison(ctx, c)
	require.NoError(t, err)

	d := testComparison(t, "ACGT", "ACGA")
	d.ID = "cmp_aaaa2222"
	_, err = store.SaveComparison(ctx, d)
	require.NoError(t, err)

	got, err := store.GetComparison(ctx, "cmp_aaaa1")
	require.NoError(t, err)
	require.Equal(t, "cmp_aaaa1111", got.ID)

	_, err = store.GetComparison(ctx, "cmp_aaaa")
	require.ErrorIs(t, err, ErrAmbiguousID)

	_, err = store.GetComparison(ctx, "cmp_zzzz")
	require.ErrorIs(t, err, ErrNotFound)

	// Underscore must not act as a LIKE wildcard
	_, err = store.GetComparison(ctx, "cmpXaaaa1")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestStore_ListNewestFirst(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	for i, edited := range []string{"ACGA", "ACGC", "ACGG"} {
		c := testComparison(t, "ACGT", edited)
		c.CreatedAt = base.Add(time.Duration(i) * time.Hour)
		_, err := store.SaveComparison(ctx, c)
		require.NoError(t, err)
	}

	all, err := store.ListComparisons(ctx, 0)
	require.NoError(t, err)
	require.Len(t, all, 3)
	require.Equal(t, "ACGG", all[0].Edited)
	require.Equal(t, "ACGA", all[2].Edited)

	limited, err := store.ListComparisons(ctx, 2)
	require.NoError(t, err)
	require.Len(t, limited, 2)

	n, err := store.CountComparisons(ctx)
	require.NoError(t, err)
	require.Equal(t, 3, n)
}

func TestStore_Delete(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	c := testComparison(t, "ACGT", "TGCA")
	id, err := store.SaveComparison(ctx, c)
	require.NoError(t, err)

	_, err = store.AddVerification(ctx, Verification{ComparisonID: id, TaskID: "t1", Status: "Complete"})
	require.NoError(t, err)

	require.NoError(t, store.DeleteComparison(ctx, id))
	_, err = store.GetComparison(ctx, id)
	require.True(t, errors.Is(err, ErrNotFound))

	vs, err := store.ListVerifications(ctx, "")
	require.NoError(t, err)
	require.Empty(t, vs, "verifications cascade with their comparison")

	require.ErrorIs(t, store.DeleteComparison(ctx, id), ErrNotFound)
}

// =============================================================================
// VERIFICATION TESTS
// =============================================================================

func TestStore_RecordVerification(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	id, err := store.SaveComparison(ctx, testComparison(t, "GATTACA", "GCATGCT"))
	require.NoError(t, err)

	submitted := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	var recorder verify.Recorder = store
	require.NoError(t, recorder.RecordVerification(ctx, verify.Record{
		TaskID:       "task-1",
		ComparisonID: id,
		Status:       tasks.TaskStatusComplete,
		Receipt: &verify.Receipt{
			TxHash:      "0xfeed",
			ExplorerURL: "https://basescan.org/tx/0xfeed",
			Network:     "Base",
			SubmittedAt: submitted,
		},
		FinishedAt: submitted.Add(time.Second),
	}))
	require.NoError(t, recorder.RecordVerification(ctx, verify.Record{
		TaskID:       "task-2",
		ComparisonID: id,
		Status:       tasks.TaskStatusFailed,
		Error:        "gateway returned 503",
		FinishedAt:   submitted.Add(2 * time.Second),
	}))

	vs, err := store.ListVerifications(ctx, id)
	require.NoError(t, err)
	require.Len(t, vs, 2)

	require.Equal(t, "Complete", vs[0].Status)
	require.Equal(t, "0xfeed", vs[0].TxHash)
	require.NotNil(t, vs[0].SubmittedAt)
	require.True(t, vs[0].SubmittedAt.Equal(submitted))

	require.Equal(t, "Failed", vs[1].Status)
	require.Nil(t, vs[1].SubmittedAt)
	require.Equal(t, "gateway returned 503", vs[1].Error)
}

func TestStore_RecordVerificationUnknownComparison(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.RecordVerification(ctx, verify.Record{
		TaskID:       "task-x",
		ComparisonID: "cmp_gone",
		Status:       tasks.TaskStatusCanceled,
		FinishedAt:   time.Now(),
	}))

	vs, err := store.ListVerifications(ctx, "")
	require.NoError(t, err)
	require.Len(t, vs, 1)
	require.Empty(t, vs[0].ComparisonID)
}

func TestOpen_InMemory(t *testing.T) {
	store, err := Open(":memory:")
	require.NoError(t, err)
	defer store.Close()

	_, err = store.SaveComparison(context.Background(), testComparison(t, "A", "A"))
	require.NoError(t, err)
}

// =============================================================================
// FORMATTING TESTS
// =============================================================================

func TestFormatComparisonList(t *testing.T) {
	if got := FormatComparisonList(nil); got != "No saved comparisons." {
		t.Errorf("Unexpected empty list output: %q", got)
	}

	c := testComparison(t, "ACGT", "ACGT")
	c.ID = "cmp_0123456789abcdef"
	c.CreatedAt = time.Now()
	out := FormatComparisonList([]*Comparison{c})

	for _, want := range []string{"cmp_0123456789abcdef", "4/4", "100.0%", "(identical)"} {
		if !strings.Contains(out, want) {
			t.Errorf("Expected list to contain %q:\n%s", want, out)
		}
	}
}

func TestFormatVerificationList(t *testing.T) {
	out := FormatVerificationList([]Verification{
		{TaskID: "0123456789", Status: "Complete", TxHash: "0x" + strings.Repeat("ab", 32), Network: "Base", ExplorerURL: "https://x/tx", FinishedAt: time.Now()},
		{TaskID: "abcdefabcd", Status: "Failed", Error: "boom", FinishedAt: time.Now()},
	})
	for _, want := range []string{"task 01234567", "Base tx 0xababab", "https://x/tx", "boom"} {
		if !strings.Contains(out, want) {
			t.Errorf("Expected output to contain %q:\n%s", want, out)
		}
	}
}
