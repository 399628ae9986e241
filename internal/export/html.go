// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package export

import (
	"fmt"
	"html"
	"strings"
	"time"

	"github.com/jeranaias/ckyc-assist/internal/transcript"
)

// =============================================================================
// HTML EXPORTER
// =============================================================================

// HTMLExporter exports transcripts to a standalone HTML page with embedded CSS.
type HTMLExporter struct {
	options *Options
}

// NewHTMLExporter creates a new HTML exporter.
func NewHTMLExporter(opts *Options) *HTMLExporter {
	if opts == nil {
		opts = DefaultOptions()
	}
	return &HTMLExporter{options: opts}
}

// Export converts a transcript to HTML format.
func (e *HTMLExporter) Export(t *Transcript) ([]byte, error) {
	if err := validate(t); err != nil {
		return nil, err
	}

	lang := t.Language
	if lang == "" {
		lang = "en"
	}

	var sb strings.Builder
	sb.WriteString("<!DOCTYPE html>\n")
	sb.WriteString(fmt.Sprintf("<html lang=\"%s\">\n", html.EscapeString(lang)))
	sb.WriteString("<head>\n")
	sb.WriteString("    <meta charset=\"UTF-8\">\n")
	sb.WriteString("    <meta name=\"viewport\" content=\"width=device-width, initial-scale=1.0\">\n")
	sb.WriteString(fmt.Sprintf("    <title>%s</title>\n", html.EscapeString(t.Title)))
	sb.WriteString("    <meta name=\"generator\" content=\"ckyc-assist\">\n")
	sb.WriteString(fmt.Sprintf("    <meta name=\"date\" content=\"%s\">\n", t.ExportedAt.Format(time.RFC3339)))
	sb.WriteString(css)
	sb.WriteString("</head>\n")
	sb.WriteString("<body>\n")
	sb.WriteString("    <div class=\"container\">\n")

	sb.WriteString("        <header class=\"header\">\n")
	sb.WriteString(fmt.Sprintf("            <h1>%s</h1>\n", html.EscapeString(t.Title)))
	sb.WriteString(fmt.Sprintf("            <span class=\"meta-item\">%s</span>\n", formatTimestamp(t.ExportedAt)))
	sb.WriteString("        </header>\n")

	sb.WriteString("        <main class=\"conversation\">\n")
	for _, entry := range t.Entries {
		sb.WriteString(e.renderEntry(entry))
	}
	sb.WriteString("        </main>\n")

	sb.WriteString("    </div>\n")
	sb.WriteString("</body>\n")
	sb.WriteString("</html>\n")

	return []byte(sb.String()), nil
}

// FileExtension returns the file extension for HTML.
func (e *HTMLExporter) FileExtension() string {
	return ".html"
}

// MimeType returns the MIME type for HTML.
func (e *HTMLExporter) MimeType() string {
	return "text/html"
}

// renderEntry renders one transcript entry. User text is always plain.
func (e *HTMLExporter) renderEntry(entry transcript.Entry) string {
	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("            <div class=\"message %s-message\">\n", entry.Role))
	sb.WriteString("                <div class=\"message-header\">\n")
	sb.WriteString(fmt.Sprintf("                    <span class=\"role-label\">%s</span>\n",
		html.EscapeString(labelFor(e.options, entry.Role))))
	if e.options.IncludeTimestamps && !entry.Time.IsZero() {
		sb.WriteString(fmt.Sprintf("                    <span class=\"timestamp\">%s</span>\n", formatShortTimestamp(entry.Time)))
	}
	sb.WriteString("                </div>\n")

	rich := e.options.Rich && entry.Role == transcript.RoleBot
	sb.WriteString("                <div class=\"message-content\">")
	sb.WriteString(Markup(entry.Text, rich))
	sb.WriteString("</div>\n")
	sb.WriteString("            </div>\n")

	return sb.String()
}

// css is the embedded stylesheet. Colors follow the widget palette.
const css = `    <style>
        * { margin: 0; padding: 0; box-sizing: border-box; }
        body {
            font-family: -apple-system, BlinkMacSystemFont, "Segoe UI", Roboto, "Noto Sans Devanagari", Arial, sans-serif;
            font-size: 15px;
            line-height: 1.6;
            color: #1f2937;
            background: #f3f4f6;
            padding: 20px;
        }
        .container {
            max-width: 720px;
            margin: 0 auto;
            background: #ffffff;
            border-radius: 12px;
            box-shadow: 0 4px 6px rgba(0, 0, 0, 0.1);
            overflow: hidden;
        }
        .header { padding: 20px 24px; background: #1e3a8a; color: #ffffff; }
        .header h1 { font-size: 20px; font-weight: 700; }
        .meta-item { font-size: 13px; opacity: 0.8; }
        .conversation { padding: 20px 24px; }
        .message { margin-bottom: 16px; padding: 12px 16px; border-radius: 8px; max-width: 85%; }
        .user-message { background: #dbeafe; margin-left: auto; }
        .bot-message { background: #f5f3ff; }
        .message-header { display: flex; justify-content: space-between; font-size: 13px; margin-bottom: 6px; }
        .role-label { font-weight: 600; }
        .timestamp { color: #6b7280; font-family: monospace; }
        .message-content ul { margin: 6px 0 6px 20px; }
        .message-content code { background: #e5e7eb; padding: 1px 4px; border-radius: 4px; font-family: monospace; }
        .message-content a { color: #1d4ed8; }
    </style>
`
