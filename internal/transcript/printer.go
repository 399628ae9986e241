// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package transcript

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
)

// =============================================================================
// PRINTER
// =============================================================================

// Printer is a Renderer that writes entries to a terminal as they arrive.
// Entries cannot be taken back once printed, so HideTyping and Clear only
// update the printer's bookkeeping and print a divider on Clear.
type Printer struct {
	w      io.Writer
	typing bool

	UserLabel string
	BotLabel  string

	userStyle   lipgloss.Style
	botStyle    lipgloss.Style
	mutedStyle  lipgloss.Style
	dividerText string
}

// NewPrinter creates a printer on w. When plain is true no ANSI styling is
// emitted.
func NewPrinter(w io.Writer, plain bool) *Printer {
	r := lipgloss.NewRenderer(w)
	if plain {
		r.SetColorProfile(termenv.Ascii)
	}

	return &Printer{
		w:           w,
		UserLabel:   "You",
		BotLabel:    "CKYC",
		userStyle:   r.NewStyle().Bold(true).Foreground(lipgloss.AdaptiveColor{Light: "#1E40AF", Dark: "#60A5FA"}),
		botStyle:    r.NewStyle().Bold(true).Foreground(lipgloss.AdaptiveColor{Light: "#5B4B8A", Dark: "#A78BFA"}),
		mutedStyle:  r.NewStyle().Faint(true),
		dividerText: strings.Repeat("-", 40),
	}
}

// AppendUser prints a user line.
func (p *Printer) AppendUser(text string) {
	p.line(p.userStyle.Render(p.UserLabel+":"), text)
}

// AppendBot prints a bot line.
func (p *Printer) AppendBot(text string) {
	p.line(p.botStyle.Render(p.BotLabel+":"), text)
}

// ShowTyping prints a typing hint once per placeholder.
func (p *Printer) ShowTyping() {
	if p.typing {
		return
	}
	p.typing = true
	fmt.Fprintln(p.w, p.mutedStyle.Render(p.BotLabel+" ..."))
}

// HideTyping forgets the placeholder.
func (p *Printer) HideTyping() {
	p.typing = false
}

// Clear prints a divider.
func (p *Printer) Clear() {
	p.typing = false
	fmt.Fprintln(p.w, p.mutedStyle.Render(p.dividerText))
}

// line prints label and text, indenting continuation lines under the text.
func (p *Printer) line(label, text string) {
	pad := strings.Repeat(" ", lipgloss.Width(label)+1)
	text = strings.ReplaceAll(text, "\n", "\n"+pad)
	fmt.Fprintf(p.w, "%s %s\n", label, text)
}
