// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package verify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/bionova/seqdiff/internal/align"
)

// Submitter anchors a payload and returns the network's receipt.
// Implementations must return promptly once ctx is canceled.
type Submitter interface {
	Submit(ctx context.Context, p Payload) (Receipt, error)
}

// =============================================================================
// SIMULATOR
// =============================================================================

// Simulator is an offline Submitter for demos and tests. Its transaction hash
// is the Keccak-256 of the payload's canonical encoding, so identical payloads
// produce identical receipts.
type Simulator struct {
	Network     string
	ExplorerURL string
	// Delay emulates block confirmation time
	Delay time.Duration
	// Now stamps receipts; nil uses time.Now
	Now func() time.Time
}

// Submit implements Submitter.
func (s *Simulator) Submit(ctx context.Context, p Payload) (Receipt, error) {
	if err := p.Validate(); err != nil {
		return Receipt{}, err
	}

	data, err := p.Canonical()
	if err != nil {
		return Receipt{}, fmt.Errorf("verify: encode payload: %w", err)
	}

	if s.Delay > 0 {
		timer := time.NewTimer(s.Delay)
		defer timer.Stop()
		select {
		case <-ctx.Done():
			return Receipt{}, ctx.Err()
		case <-timer.C:
		}
	} else if err := ctx.Err(); err != nil {
		return Receipt{}, err
	}

	now := time.Now
	if s.Now != nil {
		now = s.Now
	}

	txHash := align.Keccak256Hex(data)
	return Receipt{
		TxHash:      txHash,
		ExplorerURL: explorerLink(s.ExplorerURL, txHash),
		Network:     s.Network,
		SubmittedAt: now().UTC(),
	}, nil
}

// =============================================================================
// HTTP GATEWAY
// =============================================================================

// GatewayError is a non-2xx response from the verification gateway.
type GatewayError struct {
	StatusCode int
	Message    string
}

func (e *GatewayError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("gateway returned %d %s", e.StatusCode, http.StatusText(e.StatusCode))
	}
	return fmt.Sprintf("gateway returned %d: %s", e.StatusCode, e.Message)
}

// Temporary reports whether retrying later may succeed.
func (e *GatewayError) Temporary() bool {
	return e.StatusCode == http.StatusTooManyRequests || e.StatusCode >= 500
}

// HTTPSubmitter posts payloads to a gateway that relays them to the network.
//
// The gateway contract is POST <url> with the payload as JSON, answered by
// {"tx_hash": "...", "explorer_url": "...", "network": "..."}.
type HTTPSubmitter struct {
	url         string
	token       string
	network     string
	explorerURL string
	client      *http.Client
	limiter     *rate.Limiter
}

// HTTPOption configures an HTTPSubmitter.
type HTTPOption func(*HTTPSubmitter)

// WithToken sets the bearer token.
func WithToken(token string) HTTPOption {
	return func(h *HTTPSubmitter) { h.token = token }
}

// WithHTTPClient replaces the default client.
func WithHTTPClient(c *http.Client) HTTPOption {
	return func(h *HTTPSubmitter) { h.client = c }
}

// WithRateLimit throttles submissions client-side.
func WithRateLimit(perSecond float64, burst int) HTTPOption {
	return func(h *HTTPSubmitter) {
		h.limiter = rate.NewLimiter(rate.Limit(perSecond), max(burst, 1))
	}
}

// WithNetwork sets the network name and explorer prefix used when the
// gateway response omits them.
func WithNetwork(network, explorerURL string) HTTPOption {
	return func(h *HTTPSubmitter) {
		h.network = network
		h.explorerURL = explorerURL
	}
}

// NewHTTPSubmitter creates a gateway submitter for url.
func NewHTTPSubmitter(url string, opts ...HTTPOption) *HTTPSubmitter {
	h := &HTTPSubmitter{
		url:     url,
		client:  &http.Client{Timeout: 30 * time.Second},
		limiter: rate.NewLimiter(rate.Limit(1), 3),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

type gatewayResponse struct {
	TxHash      string `json:"tx_hash"`
	ExplorerURL string `json:"explorer_url"`
	Network     string `json:"network"`
	Error       string `json:"error"`
}

// Submit implements Submitter.
func (h *HTTPSubmitter) Submit(ctx context.Context, p Payload) (Receipt, error) {
	if err := p.Validate(); err != nil {
		return Receipt{}, err
	}

	if err := h.limiter.Wait(ctx); err != nil {
		return Receipt{}, fmt.Errorf("verify: rate limit: %w", err)
	}

	body, err := p.Canonical()
	if err != nil {
		return Receipt{}, fmt.Errorf("verify: encode payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, h.url, bytes.NewReader(body))
	if err != nil {
		return Receipt{}, fmt.Errorf("verify: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if h.token != "" {
		req.Header.Set("Authorization", "Bearer "+h.token)
	}

	resp, err := h.client.Do(req)
	if err != nil {
		return Receipt{}, fmt.Errorf("verify: gateway request: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return Receipt{}, fmt.Errorf("verify: read gateway response: %w", err)
	}

	var gr gatewayResponse
	decodeErr := json.Unmarshal(raw, &gr)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg := gr.Error
		if decodeErr != nil || msg == "" {
			msg = strings.TrimSpace(string(raw))
			if len(msg) > 200 {
				msg = msg[:200]
			}
		}
		return Receipt{}, &GatewayError{StatusCode: resp.StatusCode, Message: msg}
	}
	if decodeErr != nil {
		return Receipt{}, fmt.Errorf("verify: decode gateway response: %w", decodeErr)
	}
	if gr.TxHash == "" {
		return Receipt{}, fmt.Errorf("verify: gateway response has no tx_hash")
	}

	receipt := Receipt{
		TxHash:      gr.TxHash,
		ExplorerURL: gr.ExplorerURL,
		Network:     gr.Network,
		SubmittedAt: time.Now().UTC(),
	}
	if receipt.Network == "" {
		receipt.Network = h.network
	}
	if receipt.ExplorerURL == "" {
		receipt.ExplorerURL = explorerLink(h.explorerURL, gr.TxHash)
	}
	return receipt, nil
}
