// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package styles

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
)

// Theme names accepted by NewTheme.
const (
	ThemeAuto  = "auto"
	ThemeDark  = "dark"
	ThemeLight = "light"
)

// Theme holds all the styled components of the widget.
// It detects the terminal's color capability and adjusts accordingly.
type Theme struct {
	// Name is the requested theme.
	Name string

	// Terminal capabilities
	IsDark       bool
	ColorProfile termenv.Profile

	renderer *lipgloss.Renderer

	// ==========================================================================
	// FRAME
	// ==========================================================================

	Frame       lipgloss.Style
	Header      lipgloss.Style
	HeaderTitle lipgloss.Style
	Subtitle    lipgloss.Style
	Footer      lipgloss.Style
	KeyHelp     lipgloss.Style

	// Launcher is the minimised widget; Badge the unread count on it.
	Launcher lipgloss.Style
	Badge    lipgloss.Style

	// ==========================================================================
	// MENUS AND BUTTONS
	// ==========================================================================

	Option         lipgloss.Style
	OptionSelected lipgloss.Style
	OptionKey      lipgloss.Style

	// ==========================================================================
	// TRANSCRIPT
	// ==========================================================================

	UserBubble lipgloss.Style
	BotBubble  lipgloss.Style
	Typing     lipgloss.Style

	// ==========================================================================
	// INPUTS AND RESULTS
	// ==========================================================================

	InputBox     lipgloss.Style
	InputPrompt  lipgloss.Style
	Result       lipgloss.Style
	ResultError  lipgloss.Style
	Warning      lipgloss.Style
	Pending      lipgloss.Style
	Confirmation lipgloss.Style
}

// NewTheme creates a theme writing to stdout. name is ThemeAuto, ThemeDark
// or ThemeLight; anything else is an error.
func NewTheme(name string) (*Theme, error) {
	return NewThemeFor(os.Stdout, name)
}

// NewThemeFor creates a theme for the terminal behind w.
func NewThemeFor(w io.Writer, name string) (*Theme, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "" {
		name = ThemeAuto
	}

	r := lipgloss.NewRenderer(w)
	switch name {
	case ThemeAuto:
	case ThemeDark:
		r.SetHasDarkBackground(true)
	case ThemeLight:
		r.SetHasDarkBackground(false)
	default:
		return nil, fmt.Errorf("unknown theme %q (want auto, dark or light)", name)
	}

	t := &Theme{
		Name:         name,
		IsDark:       r.HasDarkBackground(),
		ColorProfile: r.ColorProfile(),
		renderer:     r,
	}
	t.initStyles()
	return t, nil
}

// Renderer returns the lipgloss renderer the styles were built on.
func (t *Theme) Renderer() *lipgloss.Renderer {
	return t.renderer
}

// GlamourStyle returns the glamour standard style matching the background.
func (t *Theme) GlamourStyle() string {
	if t.ColorProfile == termenv.Ascii {
		return "notty"
	}
	if t.IsDark {
		return "dark"
	}
	return "light"
}

// initStyles initializes all the lip gloss styles.
func (t *Theme) initStyles() {
	s := t.renderer.NewStyle

	// Frame
	t.Frame = s().
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(Brand).
		Padding(0, 1)

	t.Header = s().
		Bold(true).
		Foreground(Brand).
		Background(BrandDeep).
		Padding(0, 1)

	t.HeaderTitle = s().
		Bold(true).
		Foreground(Brand)

	t.Subtitle = s().
		Foreground(TextSecondary).
		Italic(true)

	t.Footer = s().
		Foreground(TextMuted).
		Background(SurfaceDim).
		Padding(0, 1)

	t.KeyHelp = s().
		Foreground(TextMuted)

	t.Launcher = s().
		Bold(true).
		Foreground(TextInverse).
		Background(Brand).
		Padding(0, 2)

	t.Badge = s().
		Bold(true).
		Foreground(TextInverse).
		Background(Accent).
		Padding(0, 1)

	// Menus and buttons
	t.Option = s().
		Foreground(TextPrimary).
		Padding(0, 1)

	t.OptionSelected = s().
		Bold(true).
		Foreground(TextInverse).
		Background(Brand).
		Padding(0, 1)

	t.OptionKey = s().
		Bold(true).
		Foreground(Accent)

	// Transcript
	t.UserBubble = s().
		Foreground(UserBubbleFg).
		Background(UserBubbleBg).
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(UserBubbleBorder).
		Padding(0, 1).
		MarginLeft(6)

	t.BotBubble = s().
		Foreground(BotBubbleFg).
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(BotBubbleBorder).
		Padding(0, 1).
		MarginRight(6)

	t.Typing = s().
		Foreground(TextSecondary).
		Italic(true)

	// Inputs and results
	t.InputBox = s().
		BorderStyle(lipgloss.NormalBorder()).
		BorderTop(true).
		BorderForeground(Overlay)

	t.InputPrompt = s().
		Foreground(Brand).
		Bold(true)

	t.Result = s().
		Foreground(TextPrimary).
		BorderStyle(lipgloss.NormalBorder()).
		BorderLeft(true).
		BorderForeground(Emerald).
		PaddingLeft(1)

	t.ResultError = s().
		Foreground(Rose).
		BorderStyle(lipgloss.NormalBorder()).
		BorderLeft(true).
		BorderForeground(Rose).
		PaddingLeft(1)

	t.Warning = s().
		Foreground(Amber)

	t.Pending = s().
		Foreground(TextSecondary).
		Italic(true)

	t.Confirmation = s().
		Foreground(Emerald).
		Bold(true)
}
