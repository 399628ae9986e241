// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package export

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jeranaias/ckyc-assist/internal/transcript"
)

// =============================================================================
// MARKUP
// =============================================================================

func TestMarkup_PlainEscapes(t *testing.T) {
	got := Markup("<script>alert(1)</script>\n**not bold**", false)

	assert.Equal(t, "&lt;script&gt;alert(1)&lt;/script&gt;<br>**not bold**", got)
}

func TestMarkup_RichInline(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"bold", "**Status:** Accepted", "<strong>Status:</strong> Accepted"},
		{"italic", "be *quick*", "be <em>quick</em>"},
		{"code", "run `ckyc`", "run <code>ckyc</code>"},
		{"code keeps emphasis literal", "`a*b*c`", "<code>a*b*c</code>"},
		{"code keeps bold literal", "`**x**`", "<code>**x**</code>"},
		{"code beside emphasis", "*hi* `a*b*` *yo*", "<em>hi</em> <code>a*b*</code> <em>yo</em>"},
		{"code keeps url literal", "`https://x.io`", "<code>https://x.io</code>"},
		{"newline", "a\nb", "a<br>b"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Markup(tt.in, true))
		})
	}
}

func TestMarkup_RichEscapesBeforeFormatting(t *testing.T) {
	got := Markup("**<b>x</b>** <img src=x onerror=alert(1)>", true)

	assert.Contains(t, got, "<strong>&lt;b&gt;x&lt;/b&gt;</strong>")
	assert.NotContains(t, got, "<img")
	assert.NotContains(t, got, "<b>")
}

func TestMarkup_RichLinks(t *testing.T) {
	got := Markup("Visit https://www.ckycindia.in/ckyc/index.php?a=1&b=2.", true)

	assert.Contains(t, got, `href="https://www.ckycindia.in/ckyc/index.php?a=1&amp;b=2"`)
	assert.Contains(t, got, `target="_blank"`)
	assert.Contains(t, got, `rel="noopener noreferrer"`)
	assert.True(t, strings.HasSuffix(got, "</a>."), "trailing period stays outside the link: %s", got)
}

func TestMarkup_RichLinkStopsAtEscapedDelimiter(t *testing.T) {
	got := Markup("<https://example.com>", true)

	assert.Contains(t, got, `href="https://example.com"`)
	assert.True(t, strings.HasSuffix(got, "</a>&gt;"), got)
}

func TestMarkup_RichJavascriptURLNotLinked(t *testing.T) {
	got := Markup("javascript:alert(1)", true)

	assert.NotContains(t, got, "<a")
}

func TestMarkup_RichList(t *testing.T) {
	got := Markup("Options:\n- one\n• two\nDone", true)

	assert.Equal(t, "Options:<ul><li>one</li><li>two</li></ul>Done", got)
}

// =============================================================================
// EXPORTERS
// =============================================================================

func sampleTranscript() *Transcript {
	at := time.Date(2026, 2, 5, 10, 30, 0, 0, time.UTC)
	tr := NewTranscript("CKYC Support", "en", []transcript.Entry{
		{Role: transcript.RoleBot, Text: "Hello! How can I help you today?", Time: at},
		{Role: transcript.RoleUser, Text: "what is <ckyc>?", Time: at},
		{Role: transcript.RoleTyping, Time: at},
		{Role: transcript.RoleBot, Text: "**Central KYC** registry\n- one\n- two", Time: at},
	})
	tr.ExportedAt = at
	return tr
}

func TestNewTranscript_DropsTyping(t *testing.T) {
	tr := sampleTranscript()

	require.Len(t, tr.Entries, 3)
	for _, e := range tr.Entries {
		assert.NotEqual(t, transcript.RoleTyping, e.Role)
	}
}

func TestHTMLExporter(t *testing.T) {
	out, err := NewHTMLExporter(nil).Export(sampleTranscript())
	require.NoError(t, err)

	html := string(out)
	assert.Contains(t, html, "<title>CKYC Support</title>")
	assert.Contains(t, html, "what is &lt;ckyc&gt;?")
	assert.Contains(t, html, "<strong>Central KYC</strong>")
	assert.Contains(t, html, "<ul><li>one</li><li>two</li></ul>")
	assert.Contains(t, html, "bot-message")
	assert.Contains(t, html, "10:30:00")
}

func TestHTMLExporter_PlainWhenNotRich(t *testing.T) {
	opts := DefaultOptions()
	opts.Rich = false

	out, err := NewHTMLExporter(opts).Export(sampleTranscript())
	require.NoError(t, err)
	assert.Contains(t, string(out), "**Central KYC** registry<br>- one")
}

func TestMarkdownExporter(t *testing.T) {
	out, err := NewMarkdownExporter(nil).Export(sampleTranscript())
	require.NoError(t, err)

	md := string(out)
	assert.True(t, strings.HasPrefix(md, "---\ntitle: CKYC Support\n"))
	assert.Contains(t, md, "### You")
	assert.Contains(t, md, "### CKYC Assistant")
	assert.Contains(t, md, "**Central KYC** registry  \n- one")
}

func TestJSONExporter(t *testing.T) {
	out, err := NewJSONExporter(nil).Export(sampleTranscript())
	require.NoError(t, err)

	var decoded struct {
		Title   string `json:"title"`
		Entries []struct {
			Role string `json:"role"`
			Text string `json:"text"`
		} `json:"entries"`
	}
	require.NoError(t, json.Unmarshal(out, &decoded))
	assert.Equal(t, "CKYC Support", decoded.Title)
	require.Len(t, decoded.Entries, 3)
	assert.Equal(t, "user", decoded.Entries[1].Role)
}

func TestExporters_RejectEmpty(t *testing.T) {
	empty := NewTranscript("x", "en", nil)
	for _, exp := range []Exporter{NewHTMLExporter(nil), NewMarkdownExporter(nil), NewJSONExporter(nil)} {
		_, err := exp.Export(empty)
		assert.Error(t, err)
		_, err = exp.Export(nil)
		assert.Error(t, err)
	}
}

func TestExportToFile(t *testing.T) {
	opts := DefaultOptions()
	opts.OutputDir = t.TempDir()

	path, err := ExportHTML(sampleTranscript(), opts)
	require.NoError(t, err)

	assert.Equal(t, opts.OutputDir, filepath.Dir(path))
	assert.Equal(t, "transcript_CKYC_Support_20260205_103000.html", filepath.Base(path))
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "<!DOCTYPE html>")
}

func TestForFormat(t *testing.T) {
	for format, ext := range map[string]string{"html": ".html", "md": ".md", "markdown": ".md", "json": ".json"} {
		exp, err := ForFormat(format, nil)
		require.NoError(t, err)
		assert.Equal(t, ext, exp.FileExtension())
	}
	_, err := ForFormat("pdf", nil)
	assert.Error(t, err)
}

func TestSanitizeFilename(t *testing.T) {
	assert.Equal(t, "a-b_c", sanitizeFilename("a/b c"))
	assert.Equal(t, "transcript", sanitizeFilename(""))
	assert.Len(t, []rune(sanitizeFilename(strings.Repeat("x", 80))), 50)
}
