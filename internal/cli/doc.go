// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package cli provides command-line parsing and the non-TUI commands of
// ckyc-assist.
//
// # Key Types
//
//   - Command: Enumeration of the CLI commands
//   - Args: Parsed global and command-specific flags
//   - ChatSession: The widget flow driven by line input
//
// # Usage
//
//	cmd, args, err := cli.Parse(os.Args[1:])
//	if err != nil {
//	    cli.DisplayError(os.Stderr, err, false)
//	    os.Exit(cli.GetExitCode(err))
//	}
//	switch cmd {
//	case cli.CmdChat:
//	    err = cli.HandleChat(ctx, os.Stdout, args, cfg)
//	case cli.CmdStub:
//	    err = cli.HandleStub(ctx, os.Stdout, cfg)
//	}
//
// # Commands Overview
//
//   - (none): Full-screen chat widget
//   - chat: Line-mode chat session
//   - stub: Development backend
//   - config: Show the effective configuration or its path
//   - version: Version information
//
// config and version support --json.
package cli
