// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

/*
Package styles provides the visual styling system of the support widget.

All colors use Lip Gloss AdaptiveColor for automatic light/dark terminal
detection. A Theme can also force either background.

# Color System (colors.go)

  - Brand - Header, launcher, selected options
  - Accent - Option keys, unread badge
  - Emerald - Lookup results, feedback confirmation
  - Amber - Inline warnings
  - Rose - Lookup errors

State is never conveyed by color alone; StatusIndicators pairs each state
with an ASCII marker.

# Theme (theme.go)

	theme, err := styles.NewTheme("auto")
	box := theme.Frame.Width(60).Render(content)

Themes are built on their own lipgloss.Renderer, so a forced background
does not leak into other renderers.

# Animations (animations.go)

DotsSpinner animates the chat typing placeholder and LineSpinner the
pending lookups; SpinnerConfig.Spinner converts either to a bubbles
spinner.
*/
package styles
