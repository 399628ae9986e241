// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package export renders bot text as HTML and writes chat transcripts to
// files.
//
// Markup is the single place where assistant text is turned into HTML. The
// plain variant only escapes and converts newlines; the rich variant also
// understands a small markdown-like subset and runs the result through an
// allow-list sanitizer.
//
// # Key Types
//
//   - Transcript: exportable copy of a chat session
//   - Exporter: format interface (HTML, Markdown, JSON)
//   - Options: export configuration
//
// # Usage
//
//	html := export.Markup("**Status:** Accepted", true)
//
//	t := export.NewTranscript("CKYC Support", "en", log.Entries())
//	path, err := export.ExportHTML(t, export.DefaultOptions())
package export
