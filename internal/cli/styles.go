// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// styles.go - Shared styles of the line-mode front-end.

package cli

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/jeranaias/ckyc-assist/internal/ui/styles"
)

func init() {
	lipgloss.SetColorProfile(GetColorProfile())
}

// =============================================================================
// SHARED STYLES
// =============================================================================

var (
	// TitleStyle is used for screen titles
	TitleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(styles.Brand)

	// PromptStyle is used for the question above an option list
	PromptStyle = lipgloss.NewStyle().
			Foreground(styles.TextSecondary)

	// OptionKeyStyle is used for option numbers
	OptionKeyStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(styles.Accent)

	// ResultStyle is used for lookup results
	ResultStyle = lipgloss.NewStyle().
			Foreground(styles.Emerald)

	// ErrorStyle is used for error messages and failures
	ErrorStyle = lipgloss.NewStyle().
			Foreground(styles.Rose).
			Bold(true)

	// WarningStyle is used for input warnings
	WarningStyle = lipgloss.NewStyle().
			Foreground(styles.Amber)

	// DimStyle is used for hints
	DimStyle = lipgloss.NewStyle().
			Foreground(styles.TextMuted)

	// SeparatorStyle is used for visual separators
	SeparatorStyle = lipgloss.NewStyle().
			Foreground(styles.Overlay)
)

// RenderSeparator renders a horizontal separator fitted to the terminal.
func RenderSeparator() string {
	width := GetTerminalWidth() - 10
	if width > 60 {
		width = 60
	}
	return SeparatorStyle.Render(strings.Repeat("-", width))
}

// chatStyles are the styles of one line-mode session.
type chatStyles struct {
	title, heading, prompt, key lipgloss.Style
	result, err, warning, dim   lipgloss.Style
	separator                   lipgloss.Style
}

// newChatStyles returns the shared styles, or unstyled ones when plain.
func newChatStyles(plain bool) chatStyles {
	if plain {
		s := lipgloss.NewStyle()
		return chatStyles{s, s, s, s, s, s, s, s, s}
	}
	return chatStyles{
		title:     TitleStyle,
		heading:   PromptStyle.Bold(true),
		prompt:    OptionKeyStyle,
		key:       OptionKeyStyle,
		result:    ResultStyle,
		err:       ErrorStyle,
		warning:   WarningStyle,
		dim:       DimStyle,
		separator: SeparatorStyle,
	}
}
