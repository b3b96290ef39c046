// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package server

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/bionova/seqdiff/internal/config"
	"github.com/bionova/seqdiff/internal/storage"
	"github.com/bionova/seqdiff/internal/verify"
)

// ============================================================================
// CONSTANTS
// ============================================================================

const (
	// ApprovalHeader carries the TOTP code for POST /v1/verify.
	ApprovalHeader = "X-Approval-Code"

	// DefaultListLimit is the page size for GET /v1/comparisons.
	DefaultListLimit = 50

	// MaxListLimit caps the limit query parameter.
	MaxListLimit = 500
)

// Version is reported by GET /health (set by main).
var Version = "dev"

// ============================================================================
// SERVER
// ============================================================================

// Server is the seqdiff HTTP API.
type Server struct {
	cfg      *config.Config
	store    *storage.Store
	verifier *verify.Service

	router  *http.ServeMux
	limiter *RateLimiter
	logger  *log.Logger
	started time.Time

	server *http.Server

	mu sync.RWMutex
}

// Option configures a Server.
type Option func(*Server)

// WithStore enables saving and listing comparisons.
func WithStore(store *storage.Store) Option {
	return func(s *Server) { s.store = store }
}

// WithVerifier enables the /v1/verify endpoints.
func WithVerifier(v *verify.Service) Option {
	return func(s *Server) { s.verifier = v }
}

// WithLogger sets the request logger (default log.Default()).
func WithLogger(l *log.Logger) Option {
	return func(s *Server) { s.logger = l }
}

// New creates a Server. cfg is copied; use ApplyConfig to change it later.
func New(cfg *config.Config, opts ...Option) *Server {
	if cfg == nil {
		cfg = config.Default()
	}
	cfg = cfg.Clone()

	s := &Server{
		cfg:     cfg,
		router:  http.NewServeMux(),
		limiter: NewRateLimiter(cfg.Server.RateLimit, cfg.Server.RateBurst),
		logger:  log.Default(),
		started: time.Now(),
	}
	for _, opt := range opts {
		opt(s)
	}

	s.setupRoutes()
	return s
}

// config returns the current configuration snapshot.
func (s *Server) config() *config.Config {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cfg
}

// ApplyConfig swaps in new tunables: align.max_length, body limit, CORS
// origins and rate limits. Listen address changes need a restart.
func (s *Server) ApplyConfig(cfg *config.Config) {
	if cfg == nil {
		return
	}
	next := cfg.Clone()

	s.mu.Lock()
	prev := s.cfg
	s.cfg = next
	s.mu.Unlock()

	s.limiter.SetLimit(next.Server.RateLimit, next.Server.RateBurst)

	if prev.Addr() != next.Addr() {
		log.Printf("CONFIG_RELOAD | note=listen address change ignored until restart addr=%s", prev.Addr())
	}
	log.Printf("CONFIG_RELOAD | max_length=%d rate_limit=%g rate_burst=%d max_body_bytes=%d",
		next.Align.MaxLength, next.Server.RateLimit, next.Server.RateBurst, next.Server.MaxBodyBytes)
}

// ============================================================================
// ROUTES
// ============================================================================

func (s *Server) setupRoutes() {
	s.router.HandleFunc("POST /v1/compare", s.handleCompare)

	s.router.HandleFunc("POST /v1/verify", s.handleVerify)
	s.router.HandleFunc("GET /v1/verify", s.handleVerifyList)
	s.router.HandleFunc("GET /v1/verify/{id}", s.handleVerifyStatus)
	s.router.HandleFunc("DELETE /v1/verify/{id}", s.handleVerifyCancel)

	s.router.HandleFunc("GET /v1/comparisons", s.handleListComparisons)
	s.router.HandleFunc("GET /v1/comparisons/{id}", s.handleGetComparison)
	s.router.HandleFunc("DELETE /v1/comparisons/{id}", s.handleDeleteComparison)

	s.router.HandleFunc("GET /health", s.handleHealth)
}

// Handler returns the routes wrapped in the middleware chain.
func (s *Server) Handler() http.Handler {
	return Chain(
		RecoveryMiddleware(),
		SecurityHeadersMiddleware(),
		CORSMiddleware(func() *CORSConfig { return DefaultCORSConfig(s.config().Server.CORSOrigins) }),
		LoggingMiddleware(s.logger),
		RateLimitMiddleware(s.limiter),
	)(s.router)
}

// ============================================================================
// SERVER LIFECYCLE
// ============================================================================

// ListenAndServe serves on the configured address until Shutdown.
func (s *Server) ListenAndServe() error {
	ln, err := net.Listen("tcp", s.config().Addr())
	if err != nil {
		return err
	}
	return s.Serve(ln)
}

// Serve accepts connections on ln until Shutdown.
func (s *Server) Serve(ln net.Listener) error {
	s.mu.Lock()
	s.server = &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
	srv := s.server
	s.mu.Unlock()

	log.Printf("SERVER_START | addr=%s version=%s", ln.Addr(), Version)
	err := srv.Serve(ln)
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.mu.RLock()
	srv := s.server
	s.mu.RUnlock()
	if srv == nil {
		return nil
	}

	log.Printf("SERVER_SHUTDOWN | starting graceful shutdown")
	return srv.Shutdown(ctx)
}

// ============================================================================
// HELPERS
// ============================================================================

// ErrorBody is the "error" member of every error response.
type ErrorBody struct {
	Kind    string `json:"kind"`
	Message string `json:"message"`
	Field   string `json:"field,omitempty"`
	Symbol  string `json:"symbol,omitempty"`
	Index   *int   `json:"index,omitempty"`
}

// ErrorResponse is the JSON error envelope.
type ErrorResponse struct {
	Error ErrorBody `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("RESPONSE_ENCODE_FAILED | error=%v", err)
	}
}

func writeError(w http.ResponseWriter, status int, kind, message string) {
	writeJSON(w, status, ErrorResponse{Error: ErrorBody{Kind: kind, Message: message}})
}
