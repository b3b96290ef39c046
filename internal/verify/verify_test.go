// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package verify

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/pquerna/otp/totp"
	"github.com/stretchr/testify/require"

	"github.com/bionova/seqdiff/internal/align"
	"github.com/bionova/seqdiff/internal/sequence"
	"github.com/bionova/seqdiff/internal/tasks"
)

func testPayload(t *testing.T) Payload {
	t.Helper()
	original := sequence.MustParse("GATTACA")
	edited := sequence.MustParse("GCATGCT")
	p, err := NewPayload(original, edited, align.Align(original, edited), "0xwallet")
	require.NoError(t, err)
	p.CreatedAt = time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	return p
}

func TestNewPayload(t *testing.T) {
	p := testPayload(t)

	require.Equal(t, PayloadType, p.Type)
	require.Equal(t, "GATTACA", p.Original)
	require.Equal(t, "GCATGCT", p.Edited)
	require.Equal(t, "s1CAs3Gs2T", p.EditScript)
	require.Equal(t, 4, p.EditDistance)
	require.True(t, strings.HasPrefix(p.ResultHash, "0x"))
	require.Len(t, p.ResultHash, 66)
	require.NoError(t, p.Validate())

	if _, err := NewPayload(sequence.Sequence{}, sequence.Sequence{}, nil, ""); err == nil {
		t.Error("Expected error for nil result")
	}
}

func TestPayload_WithoutSequences(t *testing.T) {
	p := testPayload(t).WithoutSequences()

	data, err := p.Canonical()
	require.NoError(t, err)
	if strings.Contains(string(data), "GATTACA") {
		t.Errorf("Sequences leaked into hash-only payload: %s", data)
	}
	if !strings.Contains(string(data), p.ResultHash) {
		t.Error("Hash-only payload must still carry the result hash")
	}
}

func TestPayload_Validate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Payload)
	}{
		{"wrong type", func(p *Payload) { p.Type = "other" }},
		{"short hash", func(p *Payload) { p.ResultHash = "0x1234" }},
		{"no prefix", func(p *Payload) { p.ResultHash = strings.Repeat("a", 66) }},
		{"similarity above one", func(p *Payload) { p.Similarity = 1.5 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := testPayload(t)
			tt.mutate(&p)
			if err := p.Validate(); err == nil {
				t.Error("Expected validation error")
			}
		})
	}
}

func TestSimulator_Deterministic(t *testing.T) {
	fixed := time.Date(2025, 3, 1, 12, 0, 5, 0, time.UTC)
	sim := &Simulator{Network: "Base", ExplorerURL: "https://basescan.org/tx/", Now: func() time.Time { return fixed }}

	p := testPayload(t)
	r1, err := sim.Submit(context.Background(), p)
	require.NoError(t, err)
	r2, err := sim.Submit(context.Background(), p)
	require.NoError(t, err)

	require.Equal(t, r1, r2)
	require.Equal(t, "https://basescan.org/tx/"+r1.TxHash, r1.ExplorerURL)
	require.Equal(t, fixed, r1.SubmittedAt)

	data, _ := p.Canonical()
	require.Equal(t, align.Keccak256Hex(data), r1.TxHash)

	p.Wallet = "0xother"
	r3, err := sim.Submit(context.Background(), p)
	require.NoError(t, err)
	require.NotEqual(t, r1.TxHash, r3.TxHash)
}

func TestSimulator_HonorsCancel(t *testing.T) {
	sim := &Simulator{Network: "Base", Delay: time.Hour}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := sim.Submit(ctx, testPayload(t))
	require.ErrorIs(t, err, context.Canceled)
}

func TestHTTPSubmitter_Success(t *testing.T) {
	var got Payload
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer tok" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"tx_hash":"0xabc123"}`))
	}))
	defer srv.Close()

	sub := NewHTTPSubmitter(srv.URL,
		WithToken("tok"),
		WithNetwork("Base Sepolia", "https://sepolia.basescan.org/tx/"),
		WithRateLimit(100, 10),
	)

	p := testPayload(t)
	receipt, err := sub.Submit(context.Background(), p)
	require.NoError(t, err)
	require.Equal(t, "0xabc123", receipt.TxHash)
	require.Equal(t, "Base Sepolia", receipt.Network)
	require.Equal(t, "https://sepolia.basescan.org/tx/0xabc123", receipt.ExplorerURL)
	require.Equal(t, p.ResultHash, got.ResultHash)
}

func TestHTTPSubmitter_GatewayErrors(t *testing.T) {
	tests := []struct {
		name      string
		status    int
		body      string
		wantMsg   string
		temporary bool
	}{
		{"json error", http.StatusBadRequest, `{"error":"duplicate record"}`, "duplicate record", false},
		{"plain text", http.StatusBadGateway, "upstream down", "upstream down", true},
		{"rate limited", http.StatusTooManyRequests, "", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			_, err := NewHTTPSubmitter(srv.URL).Submit(context.Background(), testPayload(t))

			var gwErr *GatewayError
			require.True(t, errors.As(err, &gwErr), "expected GatewayError, got %v", err)
			require.Equal(t, tt.status, gwErr.StatusCode)
			require.Equal(t, tt.wantMsg, gwErr.Message)
			require.Equal(t, tt.temporary, gwErr.Temporary())
		})
	}
}

func TestHTTPSubmitter_MissingTxHash(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	_, err := NewHTTPSubmitter(srv.URL).Submit(context.Background(), testPayload(t))
	require.ErrorContains(t, err, "tx_hash")
}

func TestHTTPSubmitter_ContextCanceled(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()
	defer close(release)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := NewHTTPSubmitter(srv.URL).Submit(ctx, testPayload(t))
	require.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestApprover(t *testing.T) {
	var disabled *Approver
	require.False(t, disabled.Enabled())
	require.NoError(t, disabled.Check(""))

	key, err := GenerateApprovalKey("lab@example.com")
	require.NoError(t, err)
	require.Contains(t, key.URL(), "seqdiff")

	a := NewApprover(key.Secret())
	require.True(t, a.Enabled())
	require.ErrorIs(t, a.Check(""), ErrApprovalRequired)
	require.ErrorIs(t, a.Check("000000x"), ErrApprovalInvalid)

	code, err := totp.GenerateCode(key.Secret(), time.Now())
	require.NoError(t, err)
	require.NoError(t, a.Check(code))
}

type memoryRecorder struct {
	mu      sync.Mutex
	records []Record
}

func (m *memoryRecorder) RecordVerification(ctx context.Context, rec Record) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.records = append(m.records, rec)
	return nil
}

func (m *memoryRecorder) all() []Record {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]Record(nil), m.records...)
}

func newTestService(t *testing.T, sub Submitter, opts ServiceOptions) *Service {
	t.Helper()
	svc := NewService(sub, opts)
	svc.Start(context.Background())
	t.Cleanup(svc.Stop)
	return svc
}

func TestService_SubmitAndWait(t *testing.T) {
	rec := &memoryRecorder{}
	svc := newTestService(t, &Simulator{Network: "Base"}, ServiceOptions{Workers: 2, Timeout: time.Second, Recorder: rec})

	id, err := svc.Submit(Request{Payload: testPayload(t), ComparisonID: "cmp-1"})
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	receipt, err := svc.Wait(ctx, id)
	require.NoError(t, err)
	require.Equal(t, "Base", receipt.Network)

	st, err := svc.Status(id)
	require.NoError(t, err)
	require.True(t, st.Done())
	require.Equal(t, tasks.TaskStatusComplete, st.State)
	require.Equal(t, "cmp-1", st.ComparisonID)
	require.NotNil(t, st.Receipt)
	require.Equal(t, receipt.TxHash, st.Receipt.TxHash)

	require.Eventually(t, func() bool { return len(rec.all()) == 1 }, 2*time.Second, 10*time.Millisecond)
	records := rec.all()
	require.Equal(t, tasks.TaskStatusComplete, records[0].Status)
	require.Equal(t, "cmp-1", records[0].ComparisonID)
	require.NotNil(t, records[0].Receipt)
	require.Equal(t, receipt.TxHash, records[0].Receipt.TxHash)
}

type failingSubmitter struct{ err error }

func (f failingSubmitter) Submit(ctx context.Context, p Payload) (Receipt, error) {
	return Receipt{}, f.err
}

func TestService_Failure(t *testing.T) {
	rec := &memoryRecorder{}
	gwErr := &GatewayError{StatusCode: 503, Message: "maintenance"}
	svc := newTestService(t, failingSubmitter{err: gwErr}, ServiceOptions{Workers: 1, Recorder: rec})

	id, err := svc.Submit(Request{Payload: testPayload(t)})
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_, err = svc.Wait(ctx, id)

	var target *GatewayError
	require.True(t, errors.As(err, &target))

	st, _ := svc.Status(id)
	require.Equal(t, tasks.TaskStatusFailed, st.State)
	require.Contains(t, st.Error, "maintenance")

	svc.Stop()
	records := rec.all()
	require.Len(t, records, 1)
	require.Equal(t, tasks.TaskStatusFailed, records[0].Status)
	require.Nil(t, records[0].Receipt)
}

func TestService_Cancel(t *testing.T) {
	rec := &memoryRecorder{}
	svc := newTestService(t, &Simulator{Network: "Base", Delay: time.Hour}, ServiceOptions{Workers: 1, Recorder: rec})

	id, err := svc.Submit(Request{Payload: testPayload(t)})
	require.NoError(t, err)
	require.NoError(t, svc.Cancel(id))

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_, err = svc.Wait(ctx, id)
	require.ErrorIs(t, err, tasks.ErrCanceled)

	require.Error(t, svc.Cancel(id), "second cancel should fail")
	require.True(t, IsNotFound(svc.Cancel("no-such-task")))

	svc.Stop()
	records := rec.all()
	require.Len(t, records, 1)
	require.Equal(t, tasks.TaskStatusCanceled, records[0].Status)
}

// lateSubmitter gets its receipt only after the task context ends.
type lateSubmitter struct {
	started chan struct{}
}

func (l lateSubmitter) Submit(ctx context.Context, p Payload) (Receipt, error) {
	close(l.started)
	<-ctx.Done()
	return Receipt{TxHash: "0xlate", Network: "Base"}, nil
}

func TestService_CancelDuringSubmitRecordsOnce(t *testing.T) {
	rec := &memoryRecorder{}
	sub := lateSubmitter{started: make(chan struct{})}
	svc := newTestService(t, sub, ServiceOptions{Workers: 1, Recorder: rec})

	id, err := svc.Submit(Request{Payload: testPayload(t), ComparisonID: "cmp-late"})
	require.NoError(t, err)

	select {
	case <-sub.started:
	case <-time.After(5 * time.Second):
		t.Fatal("submission never started")
	}
	require.NoError(t, svc.Cancel(id))
	svc.Stop()

	st, err := svc.Status(id)
	require.NoError(t, err)
	require.Equal(t, tasks.TaskStatusCanceled, st.State)
	require.Nil(t, st.Receipt)

	records := rec.all()
	require.Len(t, records, 1, "one outcome per task")
	require.Equal(t, tasks.TaskStatusCanceled, records[0].Status)
	require.Equal(t, "cmp-late", records[0].ComparisonID)
	require.Nil(t, records[0].Receipt)
}

func TestService_ManySubmissionsDrainNotifications(t *testing.T) {
	var logs bytes.Buffer
	log.SetOutput(&logs)
	t.Cleanup(func() { log.SetOutput(os.Stderr) })

	rec := &memoryRecorder{}
	svc := newTestService(t, &Simulator{Network: "Base"}, ServiceOptions{Workers: 4, Recorder: rec})

	const n = 150
	ids := make([]string, 0, n)
	for i := 0; i < n; i++ {
		id, err := svc.Submit(Request{Payload: testPayload(t)})
		require.NoError(t, err)
		ids = append(ids, id)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	for _, id := range ids {
		_, err := svc.Wait(ctx, id)
		require.NoError(t, err)
	}
	svc.Stop()

	require.Len(t, rec.all(), n)
	require.NotContains(t, logs.String(), "TASK_NOTIFY_DROPPED")
	require.Equal(t, n, svc.Stats().Complete)
}

func TestService_RequiresApproval(t *testing.T) {
	key, err := GenerateApprovalKey("ops")
	require.NoError(t, err)

	svc := newTestService(t, &Simulator{Network: "Base"}, ServiceOptions{Approver: NewApprover(key.Secret())})
	require.True(t, svc.ApprovalRequired())

	_, err = svc.Submit(Request{Payload: testPayload(t)})
	require.ErrorIs(t, err, ErrApprovalRequired)

	code, err := totp.GenerateCode(key.Secret(), time.Now())
	require.NoError(t, err)
	_, err = svc.Submit(Request{Payload: testPayload(t), ApprovalCode: code})
	require.NoError(t, err)
	require.Len(t, svc.List(), 1)
}

func TestService_RejectsInvalidPayload(t *testing.T) {
	svc := newTestService(t, &Simulator{}, ServiceOptions{})
	_, err := svc.Submit(Request{Payload: Payload{Type: PayloadType}})
	require.Error(t, err)
}
