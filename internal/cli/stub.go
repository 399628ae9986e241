// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// stub.go - The "stub" command.
//
// Command: stub
// Aliases: serve
//
// Examples:
//   ckyc-assist stub                          Listen on 127.0.0.1:5000, in-memory log
//   ckyc-assist stub --addr :8080 --db ck.db  Listen on :8080, log to ck.db

package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"time"

	"github.com/jeranaias/ckyc-assist/internal/config"
	"github.com/jeranaias/ckyc-assist/internal/logging"
	"github.com/jeranaias/ckyc-assist/internal/stubserver"
)

// stubShutdownTimeout bounds the graceful shutdown of the stub backend.
const stubShutdownTimeout = 5 * time.Second

// HandleStub runs the development backend until ctx is done.
func HandleStub(ctx context.Context, w io.Writer, cfg *config.Config) error {
	srv, err := stubserver.New(stubserver.Config{
		Addr:           cfg.Stub.Addr,
		DBPath:         cfg.Stub.DBPath,
		AllowedOrigins: cfg.Stub.AllowedOrigins,
		FAQPath:        cfg.Stub.FAQPath,
		RateLimit:      cfg.Stub.RateLimit,
		Logger:         logging.Component("stub"),
	})
	if err != nil {
		return &CommandError{Command: "stub", Action: "start", Err: err}
	}

	l, err := net.Listen("tcp", srv.Addr())
	if err != nil {
		_ = srv.Shutdown(context.Background())
		return &CommandError{Command: "stub", Action: "listen", Err: err}
	}

	db := cfg.Stub.DBPath
	if db == "" {
		db = "in-memory"
	}
	fmt.Fprintf(w, "%s stub backend on http://%s (log: %s)\n", TitleStyle.Render("ckyc-assist"), l.Addr(), db)
	fmt.Fprintln(w, DimStyle.Render("Press Ctrl+C to stop."))

	errCh := make(chan error, 1)
	go func() { errCh <- srv.Serve(l) }()

	select {
	case err := <-errCh:
		_ = srv.Shutdown(context.Background())
		if err != nil {
			return &CommandError{Command: "stub", Action: "serve", Err: err}
		}
		return nil
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), stubShutdownTimeout)
	defer cancel()
	err = srv.Shutdown(shutdownCtx)
	if serveErr := <-errCh; serveErr != nil {
		err = errors.Join(err, serveErr)
	}
	if err != nil {
		return &CommandError{Command: "stub", Action: "shutdown", Err: err}
	}
	fmt.Fprintln(w, DimStyle.Render("stub backend stopped"))
	return nil
}
