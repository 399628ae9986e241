// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// config.go - The "config" command.
//
// Command: config [show|path]
//
// Examples:
//   ckyc-assist config                Show the effective configuration (TOML)
//   ckyc-assist config show --json    Same, as JSON
//   ckyc-assist config path           Show where the config file is read from

package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/alecthomas/chroma/v2"
	"github.com/alecthomas/chroma/v2/formatters"
	"github.com/alecthomas/chroma/v2/lexers"
	chromaStyles "github.com/alecthomas/chroma/v2/styles"

	"github.com/jeranaias/ckyc-assist/internal/config"
	"github.com/jeranaias/ckyc-assist/internal/gateway"
	"github.com/jeranaias/ckyc-assist/internal/logging"
)

// HandleConfig runs the config command against the effective configuration
// (file, environment and flags applied).
func HandleConfig(w io.Writer, args Args, cfg *config.Config) error {
	switch args.Subcommand {
	case "", "show":
		if args.JSON {
			return writeJSON(w, map[string]any{
				"command": "config show",
				"success": true,
				"data":    cfg,
			})
		}
		path, _ := config.ConfigPathTOML()
		text := fmt.Sprintf("# %s\n%s", path, cfg.String())
		if ColorsEnabled() {
			text = highlightTOML(text)
		}
		fmt.Fprint(w, text)
		return nil

	case "path":
		return handleConfigPath(w, args.JSON)

	default:
		return &UsageError{Command: "config", Reason: "unknown subcommand " + args.Subcommand}
	}
}

// handleConfigPath shows the config file paths and whether they exist.
func handleConfigPath(w io.Writer, jsonMode bool) error {
	tomlPath, err := config.ConfigPathTOML()
	if err != nil {
		return &CommandError{Command: "config", Action: "path", Err: err}
	}
	jsonPath, _ := config.ConfigPathJSON()
	historyPath, _ := config.HistoryPath()

	if jsonMode {
		return writeJSON(w, map[string]any{
			"command": "config path",
			"success": true,
			"data": map[string]any{
				"path":         tomlPath,
				"exists":       fileExists(tomlPath),
				"json_path":    jsonPath,
				"json_exists":  fileExists(jsonPath),
				"history_path": historyPath,
			},
		})
	}

	fmt.Fprintln(w, tomlPath)
	if !fileExists(tomlPath) && !fileExists(jsonPath) {
		fmt.Fprintln(w, DimStyle.Render("(no config file; defaults and environment are in effect)"))
	}
	return nil
}

// HandleVersion writes version information.
func HandleVersion(w io.Writer, args Args) error {
	if args.JSON {
		return writeJSON(w, map[string]any{
			"command": "version",
			"success": true,
			"data":    VersionInfo(),
		})
	}
	PrintVersion(w)
	return nil
}

// NewBackend builds the gateway client for the configured backend.
func NewBackend(cfg *config.Config) (*gateway.Client, error) {
	client, err := gateway.NewClientWithConfig(gateway.Config{
		BaseURL:   cfg.Backend.URL,
		Timeout:   time.Duration(cfg.Backend.TimeoutSecs) * time.Second,
		UserAgent: cfg.Backend.UserAgent + "/" + Version,
		Logger:    logging.Component("gateway"),
	})
	if err != nil {
		return nil, &CommandError{Command: "backend", Action: "connect", Err: err}
	}
	return client, nil
}

// highlightTOML colours TOML for a 256-colour terminal. It returns src
// unchanged if highlighting fails.
func highlightTOML(src string) string {
	lexer := lexers.Get("toml")
	if lexer == nil {
		lexer = lexers.Fallback
	}
	lexer = chroma.Coalesce(lexer)

	style := chromaStyles.Get("monokai")
	if style == nil {
		style = chromaStyles.Fallback
	}
	formatter := formatters.Get("terminal256")
	if formatter == nil {
		formatter = formatters.Fallback
	}

	iterator, err := lexer.Tokenise(nil, src)
	if err != nil {
		return src
	}
	var buf strings.Builder
	if err := formatter.Format(&buf, style, iterator); err != nil {
		return src
	}
	return buf.String()
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func fileExists(path string) bool {
	if path == "" {
		return false
	}
	_, err := os.Stat(path)
	return err == nil
}
