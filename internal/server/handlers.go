// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/bionova/seqdiff/internal/align"
	"github.com/bionova/seqdiff/internal/sequence"
	"github.com/bionova/seqdiff/internal/storage"
	"github.com/bionova/seqdiff/internal/tasks"
	"github.com/bionova/seqdiff/internal/verify"
)

// ============================================================================
// REQUEST / RESPONSE TYPES
// ============================================================================

// CompareRequest is the body of POST /v1/compare. A null or absent sequence
// is a missing_input error; an empty string is a valid empty sequence.
type CompareRequest struct {
	Original     *string `json:"original"`
	Edited       *string `json:"edited"`
	OriginalName string  `json:"original_name,omitempty"`
	EditedName   string  `json:"edited_name,omitempty"`
	// Save stores the comparison in the ledger when one is configured
	Save bool `json:"save,omitempty"`
}

// HunkResponse is one changed region in unified-diff form.
type HunkResponse struct {
	Header   string `json:"header"`
	Original string `json:"original"`
	Markers  string `json:"markers"`
	Edited   string `json:"edited"`
}

// CompareResponse is the body returned by POST /v1/compare.
type CompareResponse struct {
	ID         string         `json:"id,omitempty"`
	Summary    string         `json:"summary"`
	EditScript string         `json:"edit_script"`
	ResultHash string         `json:"result_hash"`
	Similarity float64        `json:"similarity"`
	Distance   int            `json:"edit_distance"`
	Counts     align.Counts   `json:"counts"`
	Hunks      []HunkResponse `json:"hunks"`
	Result     *align.Result  `json:"result"`
}

// VerifyRequest is the body of POST /v1/verify. Either ComparisonID names a
// saved comparison or Original and Edited are given inline.
type VerifyRequest struct {
	ComparisonID string  `json:"comparison_id,omitempty"`
	Original     *string `json:"original,omitempty"`
	Edited       *string `json:"edited,omitempty"`
}

// VerifyAccepted is the 202 body of POST /v1/verify.
type VerifyAccepted struct {
	TaskID    string `json:"task_id"`
	State     string `json:"state"`
	StatusURL string `json:"status_url"`
}

// ComparisonDetail is the body of GET /v1/comparisons/{id}.
type ComparisonDetail struct {
	*storage.Comparison
	Verifications []storage.Verification `json:"verifications"`
}

// HealthResponse is the body of GET /health.
type HealthResponse struct {
	Status        string `json:"status"`
	Version       string `json:"version"`
	Storage       string `json:"storage"`
	VerifyMode    string `json:"verify_mode"`
	UptimeSeconds int64  `json:"uptime_seconds"`
	// VerifyQueue counts verification tasks by state
	VerifyQueue *tasks.Stats `json:"verify_queue,omitempty"`
}

// ============================================================================
// COMPARE
// ============================================================================

// handleCompare handles POST /v1/compare.
func (s *Server) handleCompare(w http.ResponseWriter, r *http.Request) {
	var req CompareRequest
	if !s.decodeBody(w, r, &req) {
		return
	}

	original, edited, ok := s.parsePair(w, req.Original, req.Edited)
	if !ok {
		return
	}
	original = original.WithName(req.OriginalName)
	edited = edited.WithName(req.EditedName)

	res := align.Align(original, edited)
	hash, err := res.Hash()
	if err != nil {
		log.Printf("COMPARE_HASH_FAILED | error=%v", err)
		writeError(w, http.StatusInternalServerError, "internal", "Comparison failed")
		return
	}

	resp := CompareResponse{
		Summary:    res.Summary(),
		EditScript: res.EditScript().String(),
		ResultHash: hash,
		Similarity: res.Similarity,
		Distance:   res.EditDistance(),
		Counts:     res.Counts,
		Hunks:      hunksOf(res, s.config().UI.Context),
		Result:     res,
	}

	if req.Save {
		if s.store == nil {
			writeError(w, http.StatusServiceUnavailable, "storage_unavailable", "Storage is not configured")
			return
		}
		c, err := storage.NewComparison(original, edited, res)
		if err == nil {
			resp.ID, err = s.store.SaveComparison(r.Context(), c)
		}
		if err != nil {
			log.Printf("COMPARE_SAVE_FAILED | error=%v", err)
			writeError(w, http.StatusInternalServerError, "internal", "Could not save comparison")
			return
		}
		log.Printf("COMPARISON_SAVED | id=%s distance=%d", resp.ID, resp.Distance)
	}

	writeJSON(w, http.StatusOK, resp)
}

func hunksOf(res *align.Result, context int) []HunkResponse {
	hunks := res.Hunks(context)
	out := make([]HunkResponse, 0, len(hunks))
	for _, h := range hunks {
		rows := align.RowsOf(h.Ops)
		out = append(out, HunkResponse{
			Header:   h.Header(),
			Original: rows.Original,
			Markers:  rows.Markers,
			Edited:   rows.Edited,
		})
	}
	return out
}

// ============================================================================
// VERIFY
// ============================================================================

// handleVerify handles POST /v1/verify.
func (s *Server) handleVerify(w http.ResponseWriter, r *http.Request) {
	if s.verifier == nil {
		writeError(w, http.StatusServiceUnavailable, "verify_unavailable", "Verification is not configured")
		return
	}

	var req VerifyRequest
	if !s.decodeBody(w, r, &req) {
		return
	}

	var original, edited sequence.Sequence
	switch {
	case req.ComparisonID != "":
		c, ok := s.lookupComparison(r.Context(), w, req.ComparisonID)
		if !ok {
			return
		}
		req.ComparisonID = c.ID
		if original, edited, ok = storedPair(w, c); !ok {
			return
		}
	default:
		var ok bool
		original, edited, ok = s.parsePair(w, req.Original, req.Edited)
		if !ok {
			return
		}
	}

	cfg := s.config()
	payload, err := verify.NewPayload(original, edited, align.Align(original, edited), cfg.Verify.Wallet)
	if err != nil {
		log.Printf("VERIFY_PAYLOAD_FAILED | error=%v", err)
		writeError(w, http.StatusInternalServerError, "internal", "Could not build verification payload")
		return
	}
	if !cfg.Verify.IncludeSequences {
		payload = payload.WithoutSequences()
	}

	taskID, err := s.verifier.Submit(verify.Request{
		Payload:      payload,
		ComparisonID: req.ComparisonID,
		ApprovalCode: r.Header.Get(ApprovalHeader),
	})
	switch {
	case errors.Is(err, verify.ErrApprovalRequired):
		writeError(w, http.StatusUnauthorized, "approval_required", "An approval code is required in the "+ApprovalHeader+" header")
		return
	case errors.Is(err, verify.ErrApprovalInvalid):
		log.Printf("VERIFY_APPROVAL_DENIED | ip=%s", GetClientIP(r))
		writeError(w, http.StatusForbidden, "approval_invalid", "Approval code is invalid or expired")
		return
	case errors.Is(err, tasks.ErrQueueFull):
		w.Header().Set("Retry-After", "5")
		writeError(w, http.StatusServiceUnavailable, "queue_full", "Verification queue is full")
		return
	case err != nil:
		writeError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}

	writeJSON(w, http.StatusAccepted, VerifyAccepted{
		TaskID:    taskID,
		State:     tasks.TaskStatusQueued.String(),
		StatusURL: "/v1/verify/" + taskID,
	})
}

// handleVerifyList handles GET /v1/verify[?comparison_id=ID].
func (s *Server) handleVerifyList(w http.ResponseWriter, r *http.Request) {
	if s.verifier == nil {
		writeError(w, http.StatusServiceUnavailable, "verify_unavailable", "Verification is not configured")
		return
	}
	statuses := s.verifier.List()
	if id := r.URL.Query().Get("comparison_id"); id != "" {
		statuses = s.verifier.ForComparison(id)
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"tasks": statuses})
}

// handleVerifyStatus handles GET /v1/verify/{id}.
func (s *Server) handleVerifyStatus(w http.ResponseWriter, r *http.Request) {
	if s.verifier == nil {
		writeError(w, http.StatusServiceUnavailable, "verify_unavailable", "Verification is not configured")
		return
	}
	id := r.PathValue("id")

	if r.URL.Query().Get("wait") != "" {
		if d, err := time.ParseDuration(r.URL.Query().Get("wait")); err == nil && d > 0 {
			ctx, cancel := context.WithTimeout(r.Context(), min(d, 30*time.Second))
			_, _ = s.verifier.Wait(ctx, id)
			cancel()
		}
	}

	status, err := s.verifier.Status(id)
	if verify.IsNotFound(err) {
		writeError(w, http.StatusNotFound, "not_found", "Unknown verification task")
		return
	}
	writeJSON(w, http.StatusOK, status)
}

// handleVerifyCancel handles DELETE /v1/verify/{id}.
func (s *Server) handleVerifyCancel(w http.ResponseWriter, r *http.Request) {
	if s.verifier == nil {
		writeError(w, http.StatusServiceUnavailable, "verify_unavailable", "Verification is not configured")
		return
	}
	id := r.PathValue("id")

	err := s.verifier.Cancel(id)
	switch {
	case verify.IsNotFound(err):
		writeError(w, http.StatusNotFound, "not_found", "Unknown verification task")
		return
	case err != nil:
		writeError(w, http.StatusConflict, "already_finished", err.Error())
		return
	}

	status, _ := s.verifier.Status(id)
	writeJSON(w, http.StatusOK, status)
}

// ============================================================================
// COMPARISONS
// ============================================================================

// handleListComparisons handles GET /v1/comparisons?limit=N.
func (s *Server) handleListComparisons(w http.ResponseWriter, r *http.Request) {
	if s.store == nil {
		writeError(w, http.StatusServiceUnavailable, "storage_unavailable", "Storage is not configured")
		return
	}

	limit := DefaultListLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			writeError(w, http.StatusBadRequest, "invalid_request", "limit must be a positive integer")
			return
		}
		limit = min(n, MaxListLimit)
	}

	list, err := s.store.ListComparisons(r.Context(), limit)
	if err != nil {
		log.Printf("COMPARISON_LIST_FAILED | error=%v", err)
		writeError(w, http.StatusInternalServerError, "internal", "Could not list comparisons")
		return
	}
	if list == nil {
		list = []*storage.Comparison{}
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"comparisons": list})
}

// handleGetComparison handles GET /v1/comparisons/{id}.
func (s *Server) handleGetComparison(w http.ResponseWriter, r *http.Request) {
	if s.store == nil {
		writeError(w, http.StatusServiceUnavailable, "storage_unavailable", "Storage is not configured")
		return
	}

	c, ok := s.lookupComparison(r.Context(), w, r.PathValue("id"))
	if !ok {
		return
	}
	vs, err := s.store.ListVerifications(r.Context(), c.ID)
	if err != nil {
		log.Printf("VERIFICATION_LIST_FAILED | id=%s error=%v", c.ID, err)
		writeError(w, http.StatusInternalServerError, "internal", "Could not load verifications")
		return
	}
	if vs == nil {
		vs = []storage.Verification{}
	}
	writeJSON(w, http.StatusOK, ComparisonDetail{Comparison: c, Verifications: vs})
}

// handleDeleteComparison handles DELETE /v1/comparisons/{id}.
func (s *Server) handleDeleteComparison(w http.ResponseWriter, r *http.Request) {
	if s.store == nil {
		writeError(w, http.StatusServiceUnavailable, "storage_unavailable", "Storage is not configured")
		return
	}
	err := s.store.DeleteComparison(r.Context(), r.PathValue("id"))
	switch {
	case errors.Is(err, storage.ErrNotFound):
		writeError(w, http.StatusNotFound, "not_found", "Comparison not found")
	case err != nil:
		log.Printf("COMPARISON_DELETE_FAILED | error=%v", err)
		writeError(w, http.StatusInternalServerError, "internal", "Could not delete comparison")
	default:
		w.WriteHeader(http.StatusNoContent)
	}
}

// ============================================================================
// HEALTH
// ============================================================================

// handleHealth handles GET /health.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	health := HealthResponse{
		Status:        "ok",
		Version:       Version,
		Storage:       "not_configured",
		VerifyMode:    "disabled",
		UptimeSeconds: int64(time.Since(s.started).Seconds()),
	}

	if s.store != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if _, err := s.store.CountComparisons(ctx); err == nil {
			health.Storage = "ok"
		} else {
			health.Storage = "unavailable"
			health.Status = "degraded"
		}
	}
	if s.verifier != nil {
		health.VerifyMode = s.config().Verify.Mode
		stats := s.verifier.Stats()
		health.VerifyQueue = &stats
	}

	writeJSON(w, http.StatusOK, health)
}

// ============================================================================
// HELPERS
// ============================================================================

// decodeBody reads a size-limited JSON body into v, writing the error
// response itself when it returns false.
func (s *Server) decodeBody(w http.ResponseWriter, r *http.Request, v interface{}) bool {
	limit := s.config().Server.MaxBodyBytes
	if limit <= 0 {
		limit = 1 << 20
	}
	r.Body = http.MaxBytesReader(w, r.Body, limit)
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()

	if err := dec.Decode(v); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, "too_large",
				fmt.Sprintf("Request body exceeds maximum size of %d bytes", tooLarge.Limit))
			return false
		}
		writeError(w, http.StatusBadRequest, "invalid_request", "Invalid JSON body")
		return false
	}
	return true
}

// parsePair validates both sequences and the configured length limit.
func (s *Server) parsePair(w http.ResponseWriter, rawOriginal, rawEdited *string) (sequence.Sequence, sequence.Sequence, bool) {
	original, err := sequence.ParseNullable("original", rawOriginal)
	if err != nil {
		writeValidationError(w, err)
		return sequence.Sequence{}, sequence.Sequence{}, false
	}
	edited, err := sequence.ParseNullable("edited", rawEdited)
	if err != nil {
		writeValidationError(w, err)
		return sequence.Sequence{}, sequence.Sequence{}, false
	}

	if limit := s.config().Align.MaxLength; limit > 0 && (original.Len() > limit || edited.Len() > limit) {
		writeError(w, http.StatusUnprocessableEntity, "too_long",
			fmt.Sprintf("Sequences are limited to %d bases (got %d and %d)", limit, original.Len(), edited.Len()))
		return sequence.Sequence{}, sequence.Sequence{}, false
	}
	return original, edited, true
}

// storedPair re-validates the sequences of a ledger row. Rows are validated
// on save, so a failure means the row was altered and is reported as a 500.
func storedPair(w http.ResponseWriter, c *storage.Comparison) (sequence.Sequence, sequence.Sequence, bool) {
	original, err := sequence.ParseField("original", c.Original)
	if err == nil {
		var edited sequence.Sequence
		if edited, err = sequence.ParseField("edited", c.Edited); err == nil {
			return original.WithName(c.OriginalName), edited.WithName(c.EditedName), true
		}
	}
	log.Printf("COMPARISON_CORRUPT | id=%s error=%v", c.ID, err)
	writeError(w, http.StatusInternalServerError, "comparison_corrupt", "Stored comparison is not a valid sequence pair")
	return sequence.Sequence{}, sequence.Sequence{}, false
}

// lookupComparison resolves an ID or unique prefix, writing 404/409 itself.
func (s *Server) lookupComparison(ctx context.Context, w http.ResponseWriter, id string) (*storage.Comparison, bool) {
	if s.store == nil {
		writeError(w, http.StatusServiceUnavailable, "storage_unavailable", "Storage is not configured")
		return nil, false
	}
	c, err := s.store.GetComparison(ctx, id)
	switch {
	case errors.Is(err, storage.ErrNotFound):
		writeError(w, http.StatusNotFound, "not_found", "Comparison not found")
		return nil, false
	case errors.Is(err, storage.ErrAmbiguousID):
		writeError(w, http.StatusConflict, "ambiguous_id", "Comparison ID prefix matches several comparisons")
		return nil, false
	case err != nil:
		log.Printf("COMPARISON_GET_FAILED | id=%s error=%v", id, err)
		writeError(w, http.StatusInternalServerError, "internal", "Could not load comparison")
		return nil, false
	}
	return c, true
}

// writeValidationError maps a *sequence.ValidationError to a 400 envelope.
func writeValidationError(w http.ResponseWriter, err error) {
	var verr *sequence.ValidationError
	if !errors.As(err, &verr) {
		writeError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}

	body := ErrorBody{
		Kind:    verr.Kind.String(),
		Message: verr.Error(),
		Field:   verr.Field,
	}
	if verr.Kind == sequence.KindInvalidCharacter {
		index := verr.Index
		body.Symbol = string(verr.Symbol)
		body.Index = &index
	}
	writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: body})
}
