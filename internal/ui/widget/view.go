// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package widget

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/lipgloss"

	"github.com/jeranaias/ckyc-assist/internal/flow"
	"github.com/jeranaias/ckyc-assist/internal/i18n"
	"github.com/jeranaias/ckyc-assist/internal/transcript"
	"github.com/jeranaias/ckyc-assist/internal/ui/styles"
	"github.com/jeranaias/ckyc-assist/internal/util"
)

// =============================================================================
// VIEW
// =============================================================================

// View renders the widget.
func (m *Model) View() string {
	snap := m.ctrl.Snapshot()
	if !snap.Widget.Open {
		return m.renderLauncher(snap)
	}

	parts := []string{
		m.renderHeader(snap),
		m.renderBody(snap),
	}
	if m.status != "" {
		if m.statusError {
			parts = append(parts, m.theme.Warning.Render(m.status))
		} else {
			parts = append(parts, m.theme.Subtitle.Render(m.status))
		}
	}
	parts = append(parts, m.renderFooter())

	return m.theme.Frame.Width(m.frameWidth()).Render(lipgloss.JoinVertical(lipgloss.Left, parts...))
}

// renderLauncher draws the closed widget with its unread badge.
func (m *Model) renderLauncher(snap flow.Snapshot) string {
	launcher := m.theme.Launcher.Render(m.ctrl.Label("welcome_title"))
	if snap.Widget.Unread > 0 {
		launcher = lipgloss.JoinHorizontal(lipgloss.Center, launcher, " ", m.theme.Badge.Render(fmt.Sprint(snap.Widget.Unread)))
	}
	return launcher + "\n" + m.theme.KeyHelp.Render(helpLine([]key.Binding{m.keys.Toggle, m.keys.Quit}))
}

// renderHeader draws the title bar.
func (m *Model) renderHeader(snap flow.Snapshot) string {
	width := m.contentWidth()
	title := util.TruncateWidth(m.ctrl.Label("welcome_title"), width)
	sub := fmt.Sprintf("%s %s  %s", styles.StatusIndicators.Success, m.ctrl.Label("online"), i18n.DisplayName(snap.Session.Language))
	return m.theme.Header.Width(width).Render(
		m.theme.HeaderTitle.Render(title) + "\n" + m.theme.Subtitle.Render(sub),
	)
}

// renderFooter draws the key help.
func (m *Model) renderFooter() string {
	if m.showHelp {
		rows := make([]string, 0, 4)
		for _, group := range m.keys.FullHelp() {
			rows = append(rows, helpLine(group))
		}
		return m.theme.Footer.Render(m.theme.KeyHelp.Render(strings.Join(rows, "\n")))
	}
	return m.theme.Footer.Render(m.theme.KeyHelp.Render(helpLine(m.keys.ShortHelp())))
}

// =============================================================================
// SCREENS
// =============================================================================

// renderBody draws the active screen.
func (m *Model) renderBody(snap flow.Snapshot) string {
	c := m.ctrl
	var b strings.Builder

	switch snap.Session.Screen {
	case flow.ScreenLanguage:
		b.WriteString(c.Label("welcome_msg") + "\n\n")
		b.WriteString(m.theme.Subtitle.Render(c.Label("select_language")) + "\n")
		b.WriteString(m.renderOptions(snap))

	case flow.ScreenUserType:
		b.WriteString(m.theme.Subtitle.Render(c.Label("select_user_type")) + "\n")
		b.WriteString(m.renderOptions(snap))

	case flow.ScreenMenu:
		b.WriteString(m.theme.Subtitle.Render(c.Label("select_option")) + "\n")
		b.WriteString(m.renderOptions(snap))

	case flow.ScreenAPIHub:
		b.WriteString(m.theme.Subtitle.Render(c.Label("check_status")) + "\n")
		b.WriteString(m.renderOptions(snap))

	case flow.ScreenRegistration:
		b.WriteString(m.theme.Subtitle.Render(c.Label("status_registration")) + "\n")
		b.WriteString(m.renderInput() + "\n")
		b.WriteString(m.renderResult(snap.Registration))

	case flow.ScreenWallet:
		b.WriteString(m.theme.Subtitle.Render(c.Label("wallet_inquiry")) + "\n")
		b.WriteString(m.renderInput() + "\n")
		if snap.Wallet.Warning != "" {
			b.WriteString(m.theme.Warning.Render(styles.StatusIndicators.Warning+" "+snap.Wallet.Warning) + "\n")
		}
		if snap.Wallet.OptionsVisible {
			b.WriteString(m.renderOptions(snap))
		}
		b.WriteString(m.renderResult(snap.WalletResult))

	case flow.ScreenMismatch:
		b.WriteString(m.theme.Subtitle.Render(c.Label("mismatch_details")) + "\n")
		b.WriteString(m.renderInput() + "\n")
		b.WriteString(m.renderResult(snap.Mismatch))

	case flow.ScreenChat:
		b.WriteString(m.viewport.View() + "\n")
		b.WriteString(m.renderInput())

	case flow.ScreenFeedback:
		b.WriteString(m.renderFeedback(snap))

	case flow.ScreenThankYou:
		b.WriteString(m.theme.Confirmation.Render(c.Label("thank_you")) + "\n\n")
		b.WriteString(m.renderOptions(snap))
	}
	return strings.TrimRight(b.String(), "\n")
}

// renderOptions draws the option list with the cursor.
func (m *Model) renderOptions(snap flow.Snapshot) string {
	opts := m.ctrl.Choices()
	showCursor := !m.inputActive(snap)

	var b strings.Builder
	for i, o := range opts {
		num := m.theme.OptionKey.Render(fmt.Sprintf("%d", i+1))
		if showCursor && i == m.cursor {
			b.WriteString(m.theme.OptionSelected.Render(fmt.Sprintf("> %s %s", num, o.Label)))
		} else {
			b.WriteString(m.theme.Option.Render(fmt.Sprintf("  %s %s", num, o.Label)))
		}
		b.WriteString("\n")
	}
	return b.String()
}

// renderInput draws the text input box.
func (m *Model) renderInput() string {
	return m.theme.InputBox.Width(m.contentWidth() - 2).Render(m.input.View())
}

// renderResult draws the result box of a lookup.
func (m *Model) renderResult(res flow.LookupResult) string {
	switch {
	case !res.Visible:
		return ""
	case res.Pending:
		return m.theme.Pending.Render(m.spinner.View() + " " + res.Text)
	case res.IsError:
		return m.theme.ResultError.Render(styles.StatusIndicators.Error + " " + res.Text)
	default:
		return m.theme.Result.Width(m.contentWidth() - 2).Render(res.Text)
	}
}

// renderFeedback draws the rating buttons, free text and confirmation.
func (m *Model) renderFeedback(snap flow.Snapshot) string {
	fb := snap.Feedback
	var b strings.Builder

	b.WriteString(m.theme.Subtitle.Render(m.ctrl.Label("feedback_prompt")) + "\n")
	if fb.Subtitle != "" {
		b.WriteString(m.theme.Subtitle.Render(fb.Subtitle) + "\n")
	}
	if fb.ButtonsVisible {
		b.WriteString(m.renderOptions(snap))
	}
	if fb.TextBoxVisible {
		b.WriteString(m.renderInput() + "\n")
	}
	if fb.Submitting {
		b.WriteString(m.theme.Pending.Render(m.spinner.View()) + "\n")
	}
	if fb.ResponseVisible {
		b.WriteString(m.theme.Confirmation.Render(styles.StatusIndicators.Success+" "+fb.Response) + "\n")
	}
	return b.String()
}

// =============================================================================
// TRANSCRIPT
// =============================================================================

// renderLog draws the chat transcript as bubbles.
func (m *Model) renderLog() string {
	if m.log == nil || m.theme == nil {
		return ""
	}
	width := m.contentWidth()
	entries := m.log.Entries()
	out := make([]string, 0, len(entries))

	for _, e := range entries {
		switch e.Role {
		case transcript.RoleUser:
			out = append(out, lipgloss.PlaceHorizontal(width, lipgloss.Right, m.theme.UserBubble.Render(e.Text)))
		case transcript.RoleBot:
			out = append(out, m.theme.BotBubble.Render(m.renderBotText(e.Text)))
		case transcript.RoleTyping:
			out = append(out, m.theme.Typing.Render(styles.DotsSpinner.Frames[2]))
		}
	}
	return strings.Join(out, "\n")
}

// renderBotText renders a bot reply as markdown unless disabled.
func (m *Model) renderBotText(text string) string {
	r := m.renderer()
	if r == nil {
		return text
	}
	out, err := r.Render(text)
	if err != nil {
		return text
	}
	return strings.Trim(out, "\n")
}
