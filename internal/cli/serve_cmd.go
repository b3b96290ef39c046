// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// serve_cmd.go - Run the HTTP API.
//
// Command: serve [--host H] [--port N] [--watch]
// Short:   Serve comparisons, history and verification over HTTP
// Aliases: server
//
// SIGINT or SIGTERM drains in-flight requests, stops the verification
// workers and closes the history database.
package cli

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/bionova/seqdiff/internal/config"
	"github.com/bionova/seqdiff/internal/server"
)

// shutdownTimeout bounds graceful shutdown.
const shutdownTimeout = 15 * time.Second

// serveSwitches are the boolean flags of serve.
var serveSwitches = []string{"watch"}

// HandleServe handles the "serve" command.
func HandleServe(args Args) error {
	p := NewArgParser(args.Raw, serveSwitches...)

	cfg, err := loadConfig(args)
	if err != nil {
		return err
	}
	if err := applyServeFlags(p, cfg); err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	store, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer store.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	svc := newVerifyService(cfg, store)
	svc.Start(ctx)
	defer svc.Stop()

	srv := server.New(cfg, server.WithStore(store), server.WithVerifier(svc))

	if p.BoolFlag("watch") {
		if err := watchConfig(ctx, args, p, srv); err != nil {
			return err
		}
	}

	if !args.Quiet && !args.JSON {
		fmt.Fprintf(os.Stderr, "%s seqdiff API on http://%s (verify mode: %s)\n",
			SuccessStyle.Render("[OK]"), cfg.Addr(), cfg.Verify.Mode)
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return NewCommandError("serve", "listen", cfg.Addr(), err)
		}
		return nil
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return <-errCh
}

// applyServeFlags copies --host and --port over the loaded config.
func applyServeFlags(p *ArgParser, cfg *config.Config) error {
	if host := p.Flag("host"); host != "" {
		cfg.Server.Host = host
	}
	if raw := p.Flag("port"); raw != "" {
		port, err := strconv.Atoi(raw)
		if err != nil || port < 1 || port > 65535 {
			return NewValidationErrorWithExample("port", raw, "must be 1-65535", "--port 8420")
		}
		cfg.Server.Port = port
	}
	return nil
}

// watchConfig reloads server tunables when the config file changes.
// Command-line overrides stay in effect across reloads.
func watchConfig(ctx context.Context, args Args, p *ArgParser, srv *server.Server) error {
	path, err := configFilePath(args)
	if err != nil {
		return err
	}
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return NewValidationErrorWithExample("watch", path, "config file does not exist",
			"seqdiff config set server.port 8420")
	}

	return config.Watch(ctx, path, func(next *config.Config, err error) {
		if err != nil {
			log.Printf("CONFIG_RELOAD_FAILED | path=%s error=%v", path, err)
			return
		}
		if err := applyServeFlags(p, next); err != nil {
			return
		}
		if err := next.Validate(); err != nil {
			log.Printf("CONFIG_RELOAD_REJECTED | path=%s error=%v", path, err)
			return
		}
		srv.ApplyConfig(next)
	})
}
