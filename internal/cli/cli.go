// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"fmt"
	"io"
	"runtime"
	"strings"

	"github.com/jeranaias/ckyc-assist/internal/config"
	"github.com/jeranaias/ckyc-assist/internal/i18n"
)

// Version information (can be overridden at build time)
var (
	Version   = "0.1.0"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

// Command represents the CLI command to execute.
type Command int

const (
	CmdTUI Command = iota
	CmdChat
	CmdStub
	CmdConfig
	CmdVersion
	CmdHelp
)

// String returns the command name.
func (c Command) String() string {
	switch c {
	case CmdTUI:
		return "tui"
	case CmdChat:
		return "chat"
	case CmdStub:
		return "stub"
	case CmdConfig:
		return "config"
	case CmdVersion:
		return "version"
	case CmdHelp:
		return "help"
	default:
		return "unknown"
	}
}

// Args holds parsed CLI arguments.
type Args struct {
	// Global flags
	Backend   string
	Language  string
	PlainText bool
	Verbose   bool
	JSON      bool

	// Command-specific
	Subcommand string
	Addr       string
	DBPath     string
	FAQPath    string

	// Raw args after the command name.
	Raw []string
}

// Flags accepted anywhere on the command line.
var (
	valueFlags = []string{"backend", "lang", "addr", "db", "faq"}
	boolFlags  = []string{"plain-text", "verbose", "v", "json", "help", "h", "version"}
)

const usageText = `ckyc-assist - CKYC support assistant

Usage:
  ckyc-assist [tui]             Start the support widget (default)
  ckyc-assist chat              Line-mode chat for plain terminals
  ckyc-assist stub [--addr A]   Run the development backend
  ckyc-assist config [show|path] Show the effective configuration
  ckyc-assist version           Show version information
  ckyc-assist help              Show this help

Global flags:
  --backend URL     Backend base URL (default: http://127.0.0.1:5000)
  --lang CODE       Language the widget starts in (en, hi)
  --plain-text      Disable rich rendering of bot replies
  --verbose, -v     Debug logging
  --json            JSON output (config, version)

Stub flags:
  --addr HOST:PORT  Listen address (default: 127.0.0.1:5000)
  --db PATH         SQLite interaction log (default: in-memory)
  --faq PATH        FAQ document to serve instead of the built-in set

Line-mode commands (during chat):
  /help             Show available commands
  /menu             Back to the main menu
  /end              End the chat and leave feedback
  /new              Start over
  /export [FORMAT]  Save the transcript (html, md, json)
  /quit             Exit

Environment:
  CKYC_BACKEND_URL, CKYC_LANGUAGE, CKYC_THEME, CKYC_LOG_LEVEL,
  CKYC_LOG_FORMAT, CKYC_LOG_FILE, CKYC_METRICS_ADDR, CKYC_STUB_ADDR,
  CKYC_STUB_DB, CKYC_STUB_FAQ

Configuration file: ~/.ckyc-assist/config.toml
`

// PrintUsage writes the usage text.
func PrintUsage(w io.Writer) {
	fmt.Fprint(w, usageText)
}

// PrintVersion writes version information.
func PrintVersion(w io.Writer) {
	fmt.Fprintf(w, "ckyc-assist %s\n", Version)
	fmt.Fprintf(w, "  Commit:  %s\n", GitCommit)
	fmt.Fprintf(w, "  Built:   %s\n", BuildDate)
	fmt.Fprintf(w, "  Go:      %s %s/%s\n", runtime.Version(), runtime.GOOS, runtime.GOARCH)
}

// VersionInfo returns version information for JSON output.
func VersionInfo() map[string]string {
	return map[string]string{
		"version":    Version,
		"git_commit": GitCommit,
		"build_date": BuildDate,
		"go_version": runtime.Version(),
		"platform":   runtime.GOOS + "/" + runtime.GOARCH,
	}
}

// =============================================================================
// PARSING
// =============================================================================

// Parse parses argv (without the program name). Flags may appear before or
// after the command.
func Parse(argv []string) (Command, Args, error) {
	p := NewArgParser(argv, boolFlags...)

	known := append(append([]string{}, valueFlags...), boolFlags...)
	if unknown := p.Unknown(known...); len(unknown) > 0 {
		return CmdHelp, Args{}, &UsageError{Reason: "unknown flag --" + unknown[0]}
	}

	args := Args{
		Backend:   p.Flag("backend"),
		Language:  p.Flag("lang"),
		PlainText: p.BoolFlag("plain-text"),
		Verbose:   p.BoolFlag("verbose") || p.BoolFlag("v"),
		JSON:      p.BoolFlag("json"),
		Addr:      p.Flag("addr"),
		DBPath:    p.Flag("db"),
		FAQPath:   p.Flag("faq"),
		Raw:       p.PositionalFrom(1),
	}
	for _, name := range valueFlags {
		if p.BoolFlag(name) {
			return CmdHelp, args, &UsageError{Reason: "flag --" + name + " needs a value"}
		}
	}

	if p.BoolFlag("help") || p.BoolFlag("h") {
		return CmdHelp, args, nil
	}
	if p.BoolFlag("version") {
		return CmdVersion, args, nil
	}

	cmdName := strings.ToLower(p.Subcommand())
	args.Subcommand = strings.ToLower(p.Positional(1))

	var cmd Command
	switch cmdName {
	case "", "tui":
		cmd = CmdTUI
	case "chat":
		cmd = CmdChat
	case "stub", "serve":
		cmd = CmdStub
	case "config":
		cmd = CmdConfig
		switch args.Subcommand {
		case "":
			args.Subcommand = "show"
		case "show", "path":
		default:
			return CmdHelp, args, &UsageError{Command: "config", Reason: "unknown subcommand " + args.Subcommand}
		}
	case "version":
		cmd = CmdVersion
	case "help":
		cmd = CmdHelp
	default:
		return CmdHelp, args, &UsageError{Reason: "unknown command " + cmdName}
	}

	if cmd != CmdStub && (args.Addr != "" || args.DBPath != "" || args.FAQPath != "") {
		return CmdHelp, args, &UsageError{Command: cmdName, Reason: "--addr, --db and --faq only apply to stub"}
	}
	return cmd, args, nil
}

// ApplyOverrides applies the global flags on top of the loaded
// configuration and validates the result.
func ApplyOverrides(cfg *config.Config, args Args) error {
	if args.Backend != "" {
		cfg.Backend.URL = args.Backend
	}
	if args.Language != "" {
		lang, err := i18n.Normalize(args.Language)
		if err != nil {
			return &UsageError{Reason: err.Error()}
		}
		if !i18n.IsSupported(lang) {
			return &UsageError{Reason: fmt.Sprintf("unsupported language %q (supported: %s)", lang, strings.Join(i18n.Supported(), ", "))}
		}
		cfg.UI.Language = lang
	}
	if args.PlainText {
		cfg.UI.PlainText = true
	}
	if args.Verbose {
		cfg.Log.Level = "debug"
	}
	if args.Addr != "" {
		cfg.Stub.Addr = args.Addr
	}
	if args.DBPath != "" {
		cfg.Stub.DBPath = args.DBPath
	}
	if args.FAQPath != "" {
		cfg.Stub.FAQPath = args.FAQPath
	}
	return cfg.Validate()
}
