// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package export

import (
	"html"
	"regexp"
	"strconv"
	"strings"
	"sync"

	"github.com/microcosm-cc/bluemonday"
)

// =============================================================================
// MARKUP
// =============================================================================

var (
	codeRe   = regexp.MustCompile("`([^`\n]+)`")
	boldRe   = regexp.MustCompile(`\*\*([^*\n]+)\*\*`)
	italicRe = regexp.MustCompile(`\*([^*\n]+)\*`)
	urlRe    = regexp.MustCompile(`https?://[^\s<]+`)
)

// escapedStops end a URL match inside already-escaped text.
var escapedStops = []string{"&lt;", "&gt;", "&#34;", "&#39;"}

var (
	policyOnce sync.Once
	policy     *bluemonday.Policy
)

// sanitizer returns the allow-list applied to rich output.
func sanitizer() *bluemonday.Policy {
	policyOnce.Do(func() {
		p := bluemonday.NewPolicy()
		p.AllowElements("br", "strong", "em", "code", "ul", "li")
		p.AllowURLSchemes("http", "https")
		p.RequireParseableURLs(true)
		p.AllowAttrs("href").OnElements("a")
		p.AllowAttrs("target").Matching(regexp.MustCompile(`^_blank$`)).OnElements("a")
		p.AllowAttrs("rel").Matching(regexp.MustCompile(`^noopener noreferrer$`)).OnElements("a")
		policy = p
	})
	return policy
}

// Markup converts assistant text to HTML.
//
// The text is HTML-escaped first and newlines become <br>. When rich is true
// it additionally renders **bold**, *italic*, `code`, bare http(s) URLs as
// links opening in a new tab, and lines starting with "-" or "•" as list
// items grouped in <ul>.
func Markup(text string, rich bool) string {
	escaped := html.EscapeString(text)
	if !rich {
		return strings.ReplaceAll(escaped, "\n", "<br>")
	}

	var sb strings.Builder
	inList := false
	pendingBreak := false

	for _, line := range strings.Split(escaped, "\n") {
		if item, ok := listItem(line); ok {
			if !inList {
				sb.WriteString("<ul>")
				inList = true
			}
			sb.WriteString("<li>")
			sb.WriteString(inline(item))
			sb.WriteString("</li>")
			pendingBreak = false
			continue
		}

		if inList {
			sb.WriteString("</ul>")
			inList = false
		} else if pendingBreak {
			sb.WriteString("<br>")
		}
		sb.WriteString(inline(line))
		pendingBreak = true
	}
	if inList {
		sb.WriteString("</ul>")
	}

	return sanitizer().Sanitize(sb.String())
}

// listItem reports whether line is a bullet and returns its content.
func listItem(line string) (string, bool) {
	trimmed := strings.TrimLeft(line, " \t")
	for _, marker := range []string{"-", "•"} {
		if strings.HasPrefix(trimmed, marker+" ") {
			return strings.TrimSpace(trimmed[len(marker):]), true
		}
	}
	return "", false
}

// inline applies the span-level substitutions to one escaped line. Code
// spans are set aside first so their contents stay literal.
func inline(s string) string {
	s = strings.ReplaceAll(s, "\x00", "")
	var spans []string
	s = codeRe.ReplaceAllStringFunc(s, func(m string) string {
		spans = append(spans, "<code>"+codeRe.FindStringSubmatch(m)[1]+"</code>")
		return codeSlot(len(spans) - 1)
	})

	s = boldRe.ReplaceAllString(s, "<strong>$1</strong>")
	s = italicRe.ReplaceAllString(s, "<em>$1</em>")
	s = urlRe.ReplaceAllStringFunc(s, linkify)

	for i, span := range spans {
		s = strings.Replace(s, codeSlot(i), span, 1)
	}
	return s
}

// codeSlot is the stand-in for the i-th code span of a line. inline strips
// NUL from the line first, so a slot cannot collide with text.
func codeSlot(i int) string {
	return "\x00" + strconv.Itoa(i) + "\x00"
}

// linkify wraps a matched URL in an anchor, leaving trailing punctuation and
// escaped delimiters outside the link.
func linkify(match string) string {
	url, rest := match, ""
	for _, stop := range escapedStops {
		if i := strings.Index(url, stop); i >= 0 {
			url, rest = url[:i], url[i:]+rest
		}
	}
	trimmed := strings.TrimRight(url, ".,;:!?)")
	rest = url[len(trimmed):] + rest
	url = trimmed
	if url == "" {
		return match
	}
	return `<a href="` + url + `" target="_blank" rel="noopener noreferrer">` + url + `</a>` + rest
}
