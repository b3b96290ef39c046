// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package align

import (
	"encoding/json"
	"errors"
	"math/rand"
	"strings"
	"testing"

	"github.com/bionova/seqdiff/internal/sequence"
)

const (
	demoOriginal = "ATGCTAGCTAGCTAGCTAGCTAGCTAGCTAGGCATCGATCGAT"
	demoEdited   = "ATGCTAGCGAGCTAGCTAGCAAACTAGCTAGGCATCGATCGAT"
)

func mustAlign(t *testing.T, original, edited string) *Result {
	t.Helper()
	res, err := Strings(original, edited)
	if err != nil {
		t.Fatalf("Strings(%q, %q) failed: %v", original, edited, err)
	}
	return res
}

// kinds renders op kinds as a compact string (M, S, I, D).
func kinds(res *Result) string {
	var sb strings.Builder
	for _, op := range res.Ops {
		sb.WriteString(strings.ToUpper(op.Kind.String()[:1]))
	}
	return sb.String()
}

// levenshtein is an independent two-row implementation used as an oracle.
func levenshtein(a, b string) int {
	prev := make([]int, len(b)+1)
	curr := make([]int, len(b)+1)
	for j := range prev {
		prev[j] = j
	}
	for i := 1; i <= len(a); i++ {
		curr[0] = i
		for j := 1; j <= len(b); j++ {
			cost := 1
			if a[i-1] == b[j-1] {
				cost = 0
			}
			curr[j] = min(prev[j-1]+cost, prev[j]+1, curr[j-1]+1)
		}
		prev, curr = curr, prev
	}
	return prev[len(b)]
}

func randomBases(rng *rand.Rand, n int) string {
	b := make([]byte, n)
	for i := range b {
		b[i] = sequence.Alphabet[rng.Intn(len(sequence.Alphabet))]
	}
	return string(b)
}

// =============================================================================
// CONCRETE SCENARIOS
// =============================================================================

func TestAlign_Identity(t *testing.T) {
	res := mustAlign(t, "ACGTACGT", "acgtacgt")

	if kinds(res) != "MMMMMMMM" {
		t.Errorf("Expected all matches, got %s", kinds(res))
	}
	if res.EditDistance() != 0 {
		t.Errorf("Expected edit distance 0, got %d", res.EditDistance())
	}
	if res.Similarity != 1.0 {
		t.Errorf("Expected similarity 1.0, got %f", res.Similarity)
	}
	if !res.IsIdentical() {
		t.Error("Expected IsIdentical")
	}
}

func TestAlign_EmptyEmpty(t *testing.T) {
	res := mustAlign(t, "", "")

	if len(res.Ops) != 0 {
		t.Errorf("Expected no ops, got %d", len(res.Ops))
	}
	if SimilarityRatio(res) != 1.0 {
		t.Errorf("Expected similarity 1.0, got %f", SimilarityRatio(res))
	}
}

func TestAlign_EmptyVsNonEmpty(t *testing.T) {
	res := mustAlign(t, "", "ACGT")

	if kinds(res) != "IIII" {
		t.Errorf("Expected 4 insertions, got %s", kinds(res))
	}
	if res.EditDistance() != 4 {
		t.Errorf("Expected edit distance 4, got %d", res.EditDistance())
	}
	if res.Similarity != 0.0 {
		t.Errorf("Expected similarity 0.0, got %f", res.Similarity)
	}
	for i, op := range res.Ops {
		if op.EditedPos != i || op.OriginalPos != -1 {
			t.Errorf("Op %d: expected positions (-1,%d), got (%d,%d)", i, i, op.OriginalPos, op.EditedPos)
		}
	}
}

func TestAlign_NonEmptyVsEmpty(t *testing.T) {
	res := mustAlign(t, "ACG", "")

	if kinds(res) != "DDD" {
		t.Errorf("Expected 3 deletions, got %s", kinds(res))
	}
	if res.Counts.Deletions != 3 {
		t.Errorf("Expected 3 deletions counted, got %d", res.Counts.Deletions)
	}
}

func TestAlign_DemoFixture(t *testing.T) {
	res := mustAlign(t, demoOriginal, demoEdited)

	if res.Counts.Substitutions != 3 {
		t.Errorf("Expected 3 substitutions, got %d", res.Counts.Substitutions)
	}
	if res.Counts.Insertions != 0 || res.Counts.Deletions != 0 {
		t.Errorf("Expected no indels, got %d insertions and %d deletions", res.Counts.Insertions, res.Counts.Deletions)
	}
	if res.Similarity >= 1.0 || res.Similarity < 0.9 {
		t.Errorf("Expected similarity just under 1.0, got %f", res.Similarity)
	}

	expected := []struct {
		pos      int
		from, to byte
	}{
		{8, 'T', 'G'},
		{20, 'T', 'A'},
		{22, 'G', 'A'},
	}
	var subs []Op
	for _, op := range res.Ops {
		if op.Kind == OpSubstitution {
			subs = append(subs, op)
		}
	}
	if len(subs) != len(expected) {
		t.Fatalf("Expected %d substitutions, got %d", len(expected), len(subs))
	}
	for i, want := range expected {
		got := subs[i]
		if got.OriginalPos != want.pos || got.EditedPos != want.pos || got.Original != want.from || got.Edited != want.to {
			t.Errorf("Substitution %d: expected %c->%c at %d, got %c->%c at (%d,%d)",
				i, want.from, want.to, want.pos, got.Original, got.Edited, got.OriginalPos, got.EditedPos)
		}
	}
}

func TestAlign_TieBreak(t *testing.T) {
	tests := []struct {
		name     string
		original string
		edited   string
		kinds    string
	}{
		{"single deletion", "ACGT", "AGT", "MDMM"},
		{"single insertion", "AGT", "ACGT", "MIMM"},
		{"deletions leftmost in a run", "AAAA", "AA", "DDMM"},
		{"insertion in a repeat", "ACGTACGT", "ACGTTACGT", "MMMIMMMMM"},
		{"deletion in a repeat", "ACCGT", "ACGT", "MDMMM"},
		{"substitution preferred over indel pair", "ACGT", "TGCA", "SSSS"},
		{"mixed", "GATTACA", "GCATGCT", "MSSMSMS"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := mustAlign(t, tt.original, tt.edited)
			if got := kinds(res); got != tt.kinds {
				t.Errorf("Expected %s, got %s", tt.kinds, got)
			}
		})
	}
}

func TestAlign_InvalidCharacter(t *testing.T) {
	_, err := Strings("ACGX", "ACGT")
	if err == nil {
		t.Fatal("Expected validation error")
	}

	var verr *sequence.ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("Expected *sequence.ValidationError, got %T", err)
	}
	if verr.Symbol != 'X' || verr.Index != 3 {
		t.Errorf("Expected 'X' at index 3, got %q at %d", verr.Symbol, verr.Index)
	}
	if verr.Field != "original" {
		t.Errorf("Expected field 'original', got '%s'", verr.Field)
	}
}

func TestAlign_InvalidEdited(t *testing.T) {
	_, err := Strings("ACGT", "ACNT")
	if !errors.Is(err, sequence.ErrInvalidCharacter) {
		t.Fatalf("Expected ErrInvalidCharacter, got %v", err)
	}

	var verr *sequence.ValidationError
	errors.As(err, &verr)
	if verr.Field != "edited" || verr.Index != 2 {
		t.Errorf("Expected edited index 2, got %s index %d", verr.Field, verr.Index)
	}
}

func TestAlign_WhitespaceIsInvalid(t *testing.T) {
	tests := []struct {
		original string
		edited   string
		field    string
		symbol   rune
		index    int
	}{
		{"A C G T", "ACGT", "original", ' ', 1},
		{"AC GX", "ACGT", "original", ' ', 2},
		{"ACGT", `ACG"T'`, "edited", '"', 3},
	}

	for _, tt := range tests {
		t.Run(tt.original+"/"+tt.edited, func(t *testing.T) {
			res, err := Strings(tt.original, tt.edited)
			if err == nil {
				t.Fatalf("Expected validation error, got distance %d", res.EditDistance())
			}

			var verr *sequence.ValidationError
			if !errors.As(err, &verr) {
				t.Fatalf("Expected *sequence.ValidationError, got %T", err)
			}
			if verr.Field != tt.field || verr.Symbol != tt.symbol || verr.Index != tt.index {
				t.Errorf("Expected %s %q at %d, got %s %q at %d",
					tt.field, tt.symbol, tt.index, verr.Field, verr.Symbol, verr.Index)
			}
		})
	}
}

func TestAlign_InvalidIndexPointsAtRawInput(t *testing.T) {
	// Lowercase and full-width input validate in place; X is the fifth symbol
	_, err := Strings("acＧtX", "ACGT")

	var verr *sequence.ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("Expected *sequence.ValidationError, got %v", err)
	}
	if verr.Symbol != 'X' || verr.Index != 4 {
		t.Errorf("Expected 'X' at index 4, got %q at %d", verr.Symbol, verr.Index)
	}
}

// =============================================================================
// PROPERTIES
// =============================================================================

func TestAlign_Properties(t *testing.T) {
	rng := rand.New(rand.NewSource(42))

	for iter := 0; iter < 300; iter++ {
		a := randomBases(rng, rng.Intn(40))
		b := randomBases(rng, rng.Intn(40))
		if iter%3 == 0 && len(a) > 0 {
			// Derive b from a with a few point edits so near-identical pairs are covered
			bb := []byte(a)
			for k := 0; k < 3; k++ {
				bb[rng.Intn(len(bb))] = sequence.Alphabet[rng.Intn(4)]
			}
			b = string(bb)
		}

		res := mustAlign(t, a, b)

		if got := res.OriginalString(); got != a {
			t.Fatalf("Original reconstruction failed: %q vs %q", got, a)
		}
		if got := res.EditedString(); got != b {
			t.Fatalf("Edited reconstruction failed: %q vs %q", got, b)
		}

		want := levenshtein(a, b)
		if res.EditDistance() != want {
			t.Fatalf("Edit distance of %q/%q: expected %d, got %d", a, b, want, res.EditDistance())
		}

		swapped := mustAlign(t, b, a)
		if swapped.EditDistance() != res.EditDistance() {
			t.Fatalf("Distance not symmetric for %q/%q: %d vs %d", a, b, res.EditDistance(), swapped.EditDistance())
		}
		if swapped.Counts.Insertions+swapped.Counts.Deletions != res.Counts.Insertions+res.Counts.Deletions {
			t.Fatalf("Indel totals differ under swap for %q/%q", a, b)
		}

		if res.Counts.Matches+res.Counts.Substitutions+res.Counts.Deletions != len(a) {
			t.Fatalf("Original coverage mismatch for %q", a)
		}
		if res.Counts.Matches+res.Counts.Substitutions+res.Counts.Insertions != len(b) {
			t.Fatalf("Edited coverage mismatch for %q", b)
		}

		sim := res.SimilarityRatio()
		if sim < 0 || sim > 1 {
			t.Fatalf("Similarity out of range: %f", sim)
		}
	}
}

func TestAlign_Deterministic(t *testing.T) {
	first, err := json.Marshal(mustAlign(t, demoOriginal, demoEdited))
	if err != nil {
		t.Fatalf("Marshal failed: %v", err)
	}
	for i := 0; i < 5; i++ {
		again, _ := json.Marshal(mustAlign(t, demoOriginal, demoEdited))
		if string(again) != string(first) {
			t.Fatalf("Run %d produced different output", i)
		}
	}
}

func TestAlign_PositionsAreSequential(t *testing.T) {
	res := mustAlign(t, "GATTACA", "GCATGCTT")

	nextOrig, nextEdit := 0, 0
	for i, op := range res.Ops {
		if op.HasOriginal() {
			if op.OriginalPos != nextOrig {
				t.Errorf("Op %d: expected original pos %d, got %d", i, nextOrig, op.OriginalPos)
			}
			nextOrig++
		}
		if op.HasEdited() {
			if op.EditedPos != nextEdit {
				t.Errorf("Op %d: expected edited pos %d, got %d", i, nextEdit, op.EditedPos)
			}
			nextEdit++
		}
	}
}

// =============================================================================
// RESULT HELPERS
// =============================================================================

func TestOpKindString(t *testing.T) {
	tests := []struct {
		kind     OpKind
		expected string
		marker   byte
	}{
		{OpMatch, "match", '|'},
		{OpSubstitution, "substitution", '*'},
		{OpInsertion, "insertion", ' '},
		{OpDeletion, "deletion", ' '},
		{OpKind(99), "unknown", ' '},
	}

	for _, tt := range tests {
		if tt.kind.String() != tt.expected {
			t.Errorf("Expected '%s', got '%s'", tt.expected, tt.kind.String())
		}
		if tt.kind.Marker() != tt.marker {
			t.Errorf("Expected marker %q for %s, got %q", tt.marker, tt.expected, tt.kind.Marker())
		}
	}
}

func TestSummary(t *testing.T) {
	tests := []struct {
		original string
		edited   string
		expected string
	}{
		{"ACGT", "ACGT", "Identical (4 bp)"},
		{demoOriginal, demoEdited, "3 substitutions (93.0% similar)"},
		{"ACGT", "AGT", "1 deletion (75.0% similar)"},
		{"AGT", "ACGT", "1 insertion (75.0% similar)"},
	}

	for _, tt := range tests {
		res := mustAlign(t, tt.original, tt.edited)
		if res.Summary() != tt.expected {
			t.Errorf("Summary(%s, %s): expected '%s', got '%s'", tt.original, tt.edited, tt.expected, res.Summary())
		}
	}
}

func TestResultJSON(t *testing.T) {
	res := mustAlign(t, "ACGT", "AGT")

	data, err := json.Marshal(res)
	if err != nil {
		t.Fatalf("Marshal failed: %v", err)
	}
	out := string(data)
	for _, want := range []string{
		`{"kind":"deletion","original":"C","original_pos":1,"edited_pos":-1}`,
		`"edit_distance":1`,
		`"original_length":4`,
		`"edited_length":3`,
	} {
		if !strings.Contains(out, want) {
			t.Errorf("Expected JSON to contain %s, got %s", want, out)
		}
	}

	var back Result
	if err := json.Unmarshal(data, &back); err != nil {
		t.Fatalf("Unmarshal failed: %v", err)
	}
	if back.EditedString() != "AGT" || back.Counts.Deletions != 1 || back.Similarity != res.Similarity {
		t.Errorf("Decoded result differs: %+v", back)
	}
}

func TestResultJSON_EmptyOps(t *testing.T) {
	data, err := json.Marshal(&Result{})
	if err != nil {
		t.Fatalf("Marshal failed: %v", err)
	}
	if !strings.Contains(string(data), `"ops":[]`) {
		t.Errorf("Expected empty ops array, got %s", data)
	}
}

func TestHash(t *testing.T) {
	a, err := mustAlign(t, demoOriginal, demoEdited).Hash()
	if err != nil {
		t.Fatalf("Hash failed: %v", err)
	}
	b, _ := mustAlign(t, demoOriginal, demoEdited).Hash()
	c, _ := mustAlign(t, demoOriginal, demoOriginal).Hash()

	if a != b {
		t.Error("Equal alignments should hash equally")
	}
	if a == c {
		t.Error("Different alignments should hash differently")
	}
	if !strings.HasPrefix(a, "0x") || len(a) != 66 {
		t.Errorf("Expected 0x-prefixed 32-byte hex digest, got %s", a)
	}
}

func TestKeccak256Hex_KnownVector(t *testing.T) {
	// Keccak-256 of the empty input
	const empty = "0xc5d2460186f7233c927e7db2dcc703c0e500b653ca82273b7bfad8045d85a470"
	if got := Keccak256Hex(nil); got != empty {
		t.Errorf("Expected %s, got %s", empty, got)
	}
}
