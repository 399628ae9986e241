// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package export

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/jeranaias/ckyc-assist/internal/transcript"
	"github.com/jeranaias/ckyc-assist/internal/util"
)

// =============================================================================
// TRANSCRIPT
// =============================================================================

// Transcript is an exportable copy of one chat session. Typing placeholders
// are never part of it.
type Transcript struct {
	Title      string             `json:"title"`
	Language   string             `json:"language"`
	ExportedAt time.Time          `json:"exported_at"`
	Entries    []transcript.Entry `json:"entries"`
}

// NewTranscript builds a transcript from log entries, dropping the typing
// placeholder.
func NewTranscript(title, language string, entries []transcript.Entry) *Transcript {
	kept := make([]transcript.Entry, 0, len(entries))
	for _, e := range entries {
		if e.Role == transcript.RoleTyping {
			continue
		}
		kept = append(kept, e)
	}
	return &Transcript{
		Title:      title,
		Language:   language,
		ExportedAt: time.Now(),
		Entries:    kept,
	}
}

// =============================================================================
// EXPORT INTERFACE
// =============================================================================

// Exporter defines the interface for transcript exporters.
type Exporter interface {
	// Export converts a transcript to the target format and returns the content.
	Export(t *Transcript) ([]byte, error)

	// FileExtension returns the appropriate file extension (e.g., ".md", ".html").
	FileExtension() string

	// MimeType returns the MIME type for the exported format.
	MimeType() string
}

// Options configures export behavior.
type Options struct {
	// OutputDir is the directory where files will be saved.
	OutputDir string

	// IncludeTimestamps includes per-entry timestamps.
	IncludeTimestamps bool

	// Rich renders bot text with the rich markup rules.
	Rich bool

	// UserLabel and BotLabel name the two speakers.
	UserLabel string
	BotLabel  string
}

// DefaultOptions returns default export options.
func DefaultOptions() *Options {
	return &Options{
		OutputDir:         ".",
		IncludeTimestamps: true,
		Rich:              true,
		UserLabel:         "You",
		BotLabel:          "CKYC Assistant",
	}
}

// =============================================================================
// EXPORT FUNCTIONS
// =============================================================================

// ExportToFile exports a transcript with the given exporter and writes it
// atomically under opts.OutputDir. It returns the written path.
func ExportToFile(t *Transcript, exporter Exporter, opts *Options) (string, error) {
	if opts == nil {
		opts = DefaultOptions()
	}

	content, err := exporter.Export(t)
	if err != nil {
		return "", fmt.Errorf("export failed: %w", err)
	}

	filename := fmt.Sprintf("transcript_%s_%s%s",
		sanitizeFilename(t.Title),
		t.ExportedAt.Format("20060102_150405"),
		exporter.FileExtension(),
	)

	outputPath := filepath.Join(opts.OutputDir, filename)
	if err := util.AtomicWriteFile(outputPath, content, 0644); err != nil {
		return "", fmt.Errorf("write file: %w", err)
	}
	return outputPath, nil
}

// ExportMarkdown exports to Markdown format.
func ExportMarkdown(t *Transcript, opts *Options) (string, error) {
	return ExportToFile(t, NewMarkdownExporter(opts), opts)
}

// ExportHTML exports to HTML format.
func ExportHTML(t *Transcript, opts *Options) (string, error) {
	return ExportToFile(t, NewHTMLExporter(opts), opts)
}

// ExportJSON exports to JSON format.
func ExportJSON(t *Transcript, opts *Options) (string, error) {
	return ExportToFile(t, NewJSONExporter(opts), opts)
}

// ForFormat returns the exporter for a format name ("html", "md", "markdown"
// or "json").
func ForFormat(format string, opts *Options) (Exporter, error) {
	switch format {
	case "html", "":
		return NewHTMLExporter(opts), nil
	case "md", "markdown":
		return NewMarkdownExporter(opts), nil
	case "json":
		return NewJSONExporter(opts), nil
	default:
		return nil, fmt.Errorf("unknown export format %q", format)
	}
}

// =============================================================================
// HELPER FUNCTIONS
// =============================================================================

// validate rejects transcripts that cannot be exported.
func validate(t *Transcript) error {
	if t == nil {
		return fmt.Errorf("transcript is nil")
	}
	if len(t.Entries) == 0 {
		return fmt.Errorf("transcript has no entries")
	}
	return nil
}

// sanitizeFilename removes or replaces characters that are invalid in filenames.
func sanitizeFilename(s string) string {
	runes := []rune(s)
	if len(runes) > 50 {
		runes = runes[:50]
	}

	result := make([]rune, 0, len(runes))
	for _, r := range runes {
		switch {
		case r == ' ' || r == '\t' || r == '\n' || r == '\r':
			result = append(result, '_')
		case r < 32 || r == 127:
			result = append(result, '-')
		case r == '/' || r == '\\' || r == ':' || r == '*' || r == '?' ||
			r == '"' || r == '<' || r == '>' || r == '|':
			result = append(result, '-')
		default:
			result = append(result, r)
		}
	}

	if len(result) == 0 {
		return "transcript"
	}
	return string(result)
}

// labelFor returns the speaker label for a role.
func labelFor(opts *Options, role transcript.Role) string {
	if role == transcript.RoleUser {
		return opts.UserLabel
	}
	return opts.BotLabel
}

// formatTimestamp formats a timestamp for display.
func formatTimestamp(t time.Time) string {
	return t.Format("2006-01-02 15:04:05")
}

// formatShortTimestamp formats a timestamp for inline display.
func formatShortTimestamp(t time.Time) string {
	return t.Format("15:04:05")
}
