// ckyc-assist - CKYC support assistant for the terminal.
//
// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later
package main

import (
	"context"
	"errors"
	"io"
	"net"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jeranaias/ckyc-assist/internal/cli"
	"github.com/jeranaias/ckyc-assist/internal/config"
	"github.com/jeranaias/ckyc-assist/internal/logging"
	"github.com/jeranaias/ckyc-assist/internal/telemetry"
	"github.com/jeranaias/ckyc-assist/internal/ui/widget"
)

// Version information (set at build time)
var (
	Version   = "0.1.0"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

func init() {
	// Sync version info with cli package
	cli.Version = Version
	cli.GitCommit = GitCommit
	cli.BuildDate = BuildDate
}

func main() {
	cmd, args, err := cli.Parse(os.Args[1:])
	if err != nil {
		exit(err, args.JSON)
	}

	switch cmd {
	case cli.CmdHelp:
		cli.PrintUsage(os.Stdout)
		return
	case cli.CmdVersion:
		exit(cli.HandleVersion(os.Stdout, args), args.JSON)
		return
	}

	exit(run(cmd, args), args.JSON)
}

// run loads the configuration, sets up logging and metrics, and runs cmd
// until it returns or the process is interrupted.
func run(cmd cli.Command, args cli.Args) error {
	cfg, err := config.Load()
	if cfg == nil {
		return err
	}
	loadErr := err
	if err := cli.ApplyOverrides(cfg, args); err != nil {
		return err
	}

	if cmd == cli.CmdConfig {
		return cli.HandleConfig(os.Stdout, args, cfg)
	}

	closeLog, err := setupLogging(cmd, cfg)
	if err != nil {
		return err
	}
	defer closeLog.Close()
	log := logging.Component("main")
	if loadErr != nil {
		log.WithError(loadErr).Warn("config file ignored, using defaults")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	stopMetrics, err := setupMetrics(ctx, cfg)
	if err != nil {
		return err
	}
	defer stopMetrics()

	log.WithField("command", cmd.String()).Debug("starting")

	switch cmd {
	case cli.CmdChat:
		return cli.HandleChat(ctx, os.Stdout, args, cfg)
	case cli.CmdStub:
		return cli.HandleStub(ctx, os.Stdout, cfg)
	default:
		return runTUI(ctx, cfg)
	}
}

// runTUI shows the widget.
func runTUI(ctx context.Context, cfg *config.Config) error {
	backend, err := cli.NewBackend(cfg)
	if err != nil {
		return err
	}
	exportDir, _ := cfg.ExportPath()

	return widget.Run(ctx, widget.Config{
		Backend:     backend,
		Language:    cfg.UI.Language,
		StartClosed: cfg.UI.StartClosed,
		Theme:       cfg.UI.Theme,
		PlainText:   cfg.UI.PlainText,
		ExportDir:   exportDir,
		Metrics:     telemetry.Default(),
		Logger:      logging.Component("widget"),
	})
}

// setupLogging installs the shared logger. The widget owns the terminal, so
// it always logs to a file; the other commands log to stderr unless a file
// is configured.
func setupLogging(cmd cli.Command, cfg *config.Config) (io.Closer, error) {
	file := cfg.Log.File
	if cmd == cli.CmdTUI {
		path, err := cfg.LogPath()
		if err != nil {
			return nil, err
		}
		file = path
	}
	closer, err := logging.Init(logging.Options{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		File:   file,
	})
	if err != nil {
		return nil, &cli.CommandError{Command: cmd.String(), Action: "open log", Err: err}
	}
	return closer, nil
}

// setupMetrics starts the Prometheus endpoint when one is configured. The
// returned function stops it and flushes the provider.
func setupMetrics(ctx context.Context, cfg *config.Config) (func(), error) {
	if cfg.Telemetry.MetricsAddr == "" {
		return func() {}, nil
	}

	shutdown, err := telemetry.InitProvider(ctx, telemetry.ProviderConfig{ServiceVersion: Version})
	if err != nil {
		return nil, &cli.CommandError{Command: "metrics", Action: "init", Err: err}
	}
	l, err := net.Listen("tcp", cfg.Telemetry.MetricsAddr)
	if err != nil {
		_ = shutdown(context.Background())
		return nil, &cli.CommandError{Command: "metrics", Action: "listen", Err: err}
	}

	srv := telemetry.NewServer(cfg.Telemetry.MetricsAddr)
	log := logging.Component("metrics")
	go func() {
		if err := srv.Serve(l); err != nil {
			log.WithError(err).Warn("metrics server stopped")
		}
	}()
	log.WithField("addr", l.Addr().String()).Info("serving /metrics")

	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = srv.Shutdown(ctx)
		_ = shutdown(ctx)
	}, nil
}

// exit displays err, if any, and exits with its code.
func exit(err error, jsonMode bool) {
	if err == nil {
		return
	}
	if errors.Is(err, context.Canceled) {
		os.Exit(cli.ExitSuccess)
	}
	cli.DisplayError(os.Stderr, err, jsonMode)
	os.Exit(cli.GetExitCode(err))
}
