// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package server provides the seqdiff HTTP API.
//
// # Endpoints
//
//   - POST   /v1/compare           - Align two sequences (optionally save)
//   - POST   /v1/verify            - Queue a verification, 202 + task id
//   - GET    /v1/verify            - List verification tasks
//   - GET    /v1/verify/{id}       - Task status and receipt (?wait=5s blocks)
//   - DELETE /v1/verify/{id}       - Cancel a pending verification
//   - GET    /v1/comparisons       - Saved comparisons, newest first
//   - GET    /v1/comparisons/{id}  - One comparison (ID or unique prefix)
//   - DELETE /v1/comparisons/{id}  - Delete a comparison
//   - GET    /health               - Health check
//
// Errors use one envelope:
//
//	{"error":{"kind":"invalid_character","field":"edited","symbol":"X","index":2,"message":"..."}}
//
// # Middleware
//
// Recovery, security headers, CORS, request logging and per-IP token
// bucket rate limiting (golang.org/x/time/rate), in that order.
//
// # Usage
//
//	srv := server.New(cfg, server.WithStore(store), server.WithVerifier(svc))
//	go srv.ListenAndServe()
//	defer srv.Shutdown(ctx)
//
// ApplyConfig swaps tunables at runtime; the serve command wires it to
// config.Watch for hot reload.
package server
