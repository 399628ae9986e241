// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package transcript implements the chat message log shown on the chat screen.
//
// The flow controller only talks to the Renderer interface. Log keeps the
// entries in memory for the TUI and for tests, Printer writes them to a
// terminal in line mode, and Tee fans one stream out to several renderers.
//
// # Key Types
//
//   - Renderer: append/typing/clear contract used by the controller
//   - Entry: one transcript line (user, bot or typing placeholder)
//   - Log: in-memory ordered log with an autoscroll follower
//   - Printer: io.Writer renderer for line mode
//
// # Usage
//
//	log := transcript.NewLog()
//	log.SetFollower(func() { viewport.GotoBottom() })
//	log.AppendUser("hello")
//	log.ShowTyping()
//	log.HideTyping()
//	log.AppendBot("Hello! How can I help you today?")
package transcript
