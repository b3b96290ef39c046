// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package config provides configuration loading and management for seqdiff.
//
// Supports both TOML and JSON configuration formats, with sensible defaults,
// environment variable overrides, and validation.
//
// # Key Types
//
//   - Config: Main configuration structure with all settings
//   - ServerConfig: HTTP API listen address, rate limits and CORS
//   - VerifyConfig: Verification mode, gateway and wallet
//   - Watcher: Reloads a config file when it changes
//
// # Configuration Precedence
//
// Configuration is loaded from (in order of precedence):
//   - Environment variables (SEQDIFF_*)
//   - ~/.seqdiff/config.toml
//   - ~/.seqdiff/config.json
//   - Built-in defaults
//
// There is no process-wide instance: the loaded *Config is passed to the
// components that need it.
//
// # Usage
//
//	cfg, err := config.Load()
//	if err != nil {
//	    log.Printf("config: %v (using defaults)", err)
//	}
//	srv := server.New(cfg, store, verifier)
package config
