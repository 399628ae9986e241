// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package widget

import (
	"errors"
	"strings"

	"github.com/atotto/clipboard"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/jeranaias/ckyc-assist/internal/export"
	"github.com/jeranaias/ckyc-assist/internal/flow"
	"github.com/jeranaias/ckyc-assist/internal/transcript"
)

// =============================================================================
// UPDATE
// =============================================================================

// Update handles messages and returns the updated model.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case DispatchMsg:
		if msg.Fn != nil {
			msg.Fn()
		}
		m.sync()
		return m, nil

	case tea.WindowSizeMsg:
		m.resize(msg.Width, msg.Height)
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case exportedMsg:
		if msg.Err != nil {
			m.logger.WithError(msg.Err).Warn("transcript export failed")
			m.setStatus("Export failed: "+msg.Err.Error(), true)
		} else {
			m.setStatus("Saved "+msg.Path, false)
		}
		return m, nil

	case copiedMsg:
		if msg.Err != nil {
			m.logger.WithError(msg.Err).Warn("clipboard copy failed")
			m.setStatus("Copy failed: "+msg.Err.Error(), true)
		} else {
			m.setStatus("Copied transcript", false)
		}
		return m, nil

	case tea.MouseMsg:
		var cmd tea.Cmd
		m.viewport, cmd = m.viewport.Update(msg)
		return m, cmd

	case tea.KeyMsg:
		cmd := m.handleKey(msg)
		m.sync()
		return m, cmd
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// handleKey dispatches one key press.
func (m *Model) handleKey(msg tea.KeyMsg) tea.Cmd {
	snap := m.ctrl.Snapshot()

	switch {
	case key.Matches(msg, m.keys.Quit):
		return tea.Quit
	case key.Matches(msg, m.keys.Toggle):
		m.ctrl.ToggleWidget()
		return nil
	case key.Matches(msg, m.keys.Help):
		m.showHelp = !m.showHelp
		return nil
	}

	if !snap.Widget.Open {
		return nil
	}

	switch {
	case key.Matches(msg, m.keys.NewChat):
		m.ctrl.ResetSession()
		return nil
	case key.Matches(msg, m.keys.Back):
		m.apply(m.ctrl.ReturnToMenu())
		return nil
	case key.Matches(msg, m.keys.EndChat):
		m.apply(m.ctrl.EndChat())
		return nil
	case key.Matches(msg, m.keys.Export):
		return m.exportCmd(snap)
	case key.Matches(msg, m.keys.Copy):
		return m.copyCmd()
	case key.Matches(msg, m.keys.PageUp):
		m.viewport.HalfViewUp()
		return nil
	case key.Matches(msg, m.keys.PageDown):
		m.viewport.HalfViewDown()
		return nil
	case key.Matches(msg, m.keys.Focus):
		if m.hasOptions() && m.takesText(snap) {
			m.focusOptions = !m.focusOptions
			m.cursor = 0
		}
		return nil
	}

	if m.inputActive(snap) {
		if msg.Type == tea.KeyEnter {
			m.submitInput(snap)
			return nil
		}
		var cmd tea.Cmd
		m.input, cmd = m.input.Update(msg)
		return cmd
	}
	m.handleList(msg)
	return nil
}

// handleList moves the cursor or selects on list screens.
func (m *Model) handleList(msg tea.KeyMsg) {
	opts := m.ctrl.Choices()
	if len(opts) == 0 {
		return
	}
	if m.cursor >= len(opts) {
		m.cursor = len(opts) - 1
	}

	switch {
	case key.Matches(msg, m.keys.Up):
		m.cursor = (m.cursor - 1 + len(opts)) % len(opts)
	case key.Matches(msg, m.keys.Down):
		m.cursor = (m.cursor + 1) % len(opts)
	case key.Matches(msg, m.keys.Select):
		m.apply(opts[m.cursor].Select())
	case msg.Type == tea.KeyRunes && len(msg.Runes) == 1:
		r := msg.Runes[0]
		if r >= '1' && r <= '9' && int(r-'1') < len(opts) {
			m.cursor = int(r - '1')
			m.apply(opts[m.cursor].Select())
		}
	}
}

// submitInput handles Enter on a text screen.
func (m *Model) submitInput(snap flow.Snapshot) {
	value := m.input.Value()

	switch snap.Session.Screen {
	case flow.ScreenChat:
		m.input.Reset()
		m.apply(m.ctrl.SendChatMessage(value))
	case flow.ScreenRegistration:
		m.apply(m.ctrl.CheckRegistrationStatus(value))
	case flow.ScreenMismatch:
		m.apply(m.ctrl.CheckMismatch(value))
	case flow.ScreenWallet:
		if err := m.ctrl.RevealWalletOptions(value); err != nil {
			m.apply(err)
			return
		}
		if m.ctrl.Snapshot().Wallet.OptionsVisible {
			m.focusOptions = true
			m.cursor = 0
		}
	case flow.ScreenFeedback:
		if err := m.ctrl.SetFeedbackText(value); err != nil {
			m.apply(err)
			return
		}
		m.apply(m.ctrl.SubmitFeedback())
	}
}

// apply shows validation errors in the footer. Wrong-screen errors mean a
// key raced a screen change and are dropped.
func (m *Model) apply(err error) {
	switch {
	case err == nil:
		m.setStatus("", false)
	case flow.IsWrongScreen(err):
	case flow.IsValidation(err):
		var ve *flow.ValidationError
		if errors.As(err, &ve) && ve.Field == "re_number" {
			// The wallet screen shows its own warning.
			m.setStatus("", false)
			return
		}
		m.setStatus(err.Error(), true)
	default:
		m.logger.WithError(err).Warn("widget action failed")
		m.setStatus(err.Error(), true)
	}
}

// =============================================================================
// OPTIONS
// =============================================================================

// takesText reports whether the screen has a text input at all.
func (m *Model) takesText(snap flow.Snapshot) bool {
	switch snap.Session.Screen {
	case flow.ScreenWallet:
		return true
	case flow.ScreenFeedback:
		return snap.Feedback.TextBoxVisible
	default:
		return false
	}
}

// hasOptions reports whether the screen currently shows a list.
func (m *Model) hasOptions() bool {
	return len(m.ctrl.Choices()) > 0
}

// =============================================================================
// EXPORT
// =============================================================================

// exportCmd saves the chat transcript in the background.
func (m *Model) exportCmd(snap flow.Snapshot) tea.Cmd {
	entries := m.log.Entries()
	if len(entries) == 0 {
		m.setStatus("Nothing to save yet", false)
		return nil
	}

	opts := export.DefaultOptions()
	if m.exportDir != "" {
		opts.OutputDir = m.exportDir
	}
	opts.Rich = !m.plain
	format := m.exportFormat
	t := export.NewTranscript(m.ctrl.Label("welcome_title"), snap.Session.Language, entries)

	return func() tea.Msg {
		exporter, err := export.ForFormat(format, opts)
		if err != nil {
			return exportedMsg{Err: err}
		}
		path, err := export.ExportToFile(t, exporter, opts)
		return exportedMsg{Path: path, Err: err}
	}
}

// copyCmd puts the plain-text transcript on the system clipboard.
func (m *Model) copyCmd() tea.Cmd {
	entries := m.log.Entries()
	if len(entries) == 0 {
		m.setStatus("Nothing to copy yet", false)
		return nil
	}
	text := plainTranscript(entries)
	return func() tea.Msg {
		return copiedMsg{Err: clipboard.WriteAll(text)}
	}
}

// plainTranscript renders entries the way line mode prints them.
func plainTranscript(entries []transcript.Entry) string {
	var b strings.Builder
	p := transcript.NewPrinter(&b, true)
	for _, e := range entries {
		switch e.Role {
		case transcript.RoleUser:
			p.AppendUser(e.Text)
		case transcript.RoleBot:
			p.AppendBot(e.Text)
		}
	}
	return strings.TrimRight(b.String(), "\n")
}
