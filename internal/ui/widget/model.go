// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package widget

import (
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour"
	"github.com/sirupsen/logrus"

	"github.com/jeranaias/ckyc-assist/internal/flow"
	"github.com/jeranaias/ckyc-assist/internal/transcript"
	"github.com/jeranaias/ckyc-assist/internal/ui/styles"
)

const (
	// maxFrameWidth caps the widget width on wide terminals.
	maxFrameWidth = 72

	// minFrameWidth is the narrowest frame still drawn with borders.
	minFrameWidth = 32

	// chrome is the number of frame lines outside the chat log.
	chrome = 12
)

// =============================================================================
// MODEL
// =============================================================================

// Model is the Bubble Tea model of the support widget. It owns no flow
// state: everything it draws comes from the controller's Snapshot, and the
// controller is only driven from Update.
type Model struct {
	ctrl  *flow.Controller
	log   *transcript.Log
	theme *styles.Theme
	keys  KeyMap

	viewport viewport.Model
	input    textinput.Model
	spinner  spinner.Model
	markdown *glamour.TermRenderer

	plain        bool
	exportDir    string
	exportFormat string
	logger       *logrus.Entry

	width  int
	height int

	// epoch is the controller epoch the view was last reset for.
	epoch uint64

	cursor       int
	focusOptions bool
	showHelp     bool

	// follow is set by the transcript when an entry is appended.
	follow bool

	status      string
	statusError bool
}

// ModelConfig configures a Model.
type ModelConfig struct {
	Controller *flow.Controller
	Log        *transcript.Log
	Theme      *styles.Theme

	// PlainText disables markdown rendering of bot replies.
	PlainText bool

	// ExportDir and ExportFormat control the transcript export key.
	ExportDir    string
	ExportFormat string

	Logger *logrus.Entry
}

// NewModel creates a widget model for a controller and its transcript.
func NewModel(cfg ModelConfig) *Model {
	input := textinput.New()
	input.CharLimit = 500
	input.Prompt = "> "

	sp := spinner.New()
	sp.Spinner = styles.LineSpinner.Spinner()

	if cfg.ExportFormat == "" {
		cfg.ExportFormat = "html"
	}
	if cfg.Logger == nil {
		cfg.Logger = logrus.NewEntry(logrus.StandardLogger())
	}

	m := &Model{
		ctrl:         cfg.Controller,
		log:          cfg.Log,
		theme:        cfg.Theme,
		keys:         DefaultKeyMap(),
		viewport:     viewport.New(maxFrameWidth-4, 10),
		input:        input,
		spinner:      sp,
		plain:        cfg.PlainText,
		exportDir:    cfg.ExportDir,
		exportFormat: cfg.ExportFormat,
		logger:       cfg.Logger,
		width:        maxFrameWidth,
		height:       24,
	}
	if m.theme != nil {
		m.input.PromptStyle = m.theme.InputPrompt
		m.spinner.Style = m.theme.Pending
	}
	m.log.SetFollower(func() { m.follow = true })
	m.resetScreen(m.ctrl.Snapshot())
	return m
}

// Init starts the spinner.
func (m *Model) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, textinput.Blink)
}

// =============================================================================
// LAYOUT
// =============================================================================

// frameWidth returns the outer width of the widget frame.
func (m *Model) frameWidth() int {
	w := m.width - 2
	if w > maxFrameWidth {
		w = maxFrameWidth
	}
	if w < minFrameWidth {
		w = minFrameWidth
	}
	return w
}

// contentWidth is the width available inside the frame.
func (m *Model) contentWidth() int {
	return m.frameWidth() - 4
}

// resize applies a new terminal size.
func (m *Model) resize(width, height int) {
	m.width = width
	m.height = height

	m.viewport.Width = m.contentWidth()
	h := height - chrome
	if h < 3 {
		h = 3
	}
	m.viewport.Height = h
	m.input.Width = m.contentWidth() - len(m.input.Prompt) - 1
	m.markdown = nil
	m.refreshLog()
}

// renderer returns the markdown renderer for the current width, or nil in
// plain-text mode.
func (m *Model) renderer() *glamour.TermRenderer {
	if m.plain || m.theme == nil {
		return nil
	}
	if m.markdown != nil {
		return m.markdown
	}
	r, err := glamour.NewTermRenderer(
		glamour.WithStandardStyle(m.theme.GlamourStyle()),
		glamour.WithWordWrap(m.contentWidth()-8),
	)
	if err != nil {
		m.logger.WithError(err).Debug("markdown renderer unavailable, using plain text")
		m.plain = true
		return nil
	}
	m.markdown = r
	return r
}

// =============================================================================
// SCREEN STATE
// =============================================================================

// resetScreen resets the per-screen view state after the controller
// activated a screen.
func (m *Model) resetScreen(snap flow.Snapshot) {
	m.epoch = snap.Epoch
	m.cursor = 0
	m.focusOptions = false
	m.status = ""
	m.statusError = false
	m.input.Reset()

	switch snap.Session.Screen {
	case flow.ScreenChat:
		m.input.Placeholder = m.ctrl.Label("type_question")
	case flow.ScreenRegistration:
		m.input.Placeholder = m.ctrl.Label("enter_reg_number")
	case flow.ScreenWallet:
		m.input.Placeholder = m.ctrl.Label("enter_re_number")
	case flow.ScreenMismatch:
		m.input.Placeholder = m.ctrl.Label("enter_ckyc_number")
	default:
		m.input.Placeholder = ""
	}
	m.syncFocus(snap)
	m.refreshLog()
}

// sync brings the view in line with the controller after it ran.
func (m *Model) sync() {
	snap := m.ctrl.Snapshot()
	if snap.Epoch != m.epoch {
		m.resetScreen(snap)
		return
	}
	m.syncFocus(snap)
	if m.follow {
		m.refreshLog()
	}
}

// syncFocus focuses the input when the active screen takes text.
func (m *Model) syncFocus(snap flow.Snapshot) {
	if m.inputActive(snap) {
		m.input.Focus()
	} else {
		m.input.Blur()
	}
}

// inputActive reports whether keys go to the text input.
func (m *Model) inputActive(snap flow.Snapshot) bool {
	switch snap.Session.Screen {
	case flow.ScreenChat, flow.ScreenRegistration, flow.ScreenMismatch:
		return true
	case flow.ScreenWallet:
		return !(m.focusOptions && snap.Wallet.OptionsVisible)
	case flow.ScreenFeedback:
		return snap.Feedback.TextBoxVisible && snap.Feedback.ButtonsVisible && !m.focusOptions
	default:
		return false
	}
}

// refreshLog re-renders the transcript into the viewport.
func (m *Model) refreshLog() {
	follow := m.follow || m.viewport.AtBottom()
	m.follow = false
	m.viewport.SetContent(m.renderLog())
	if follow {
		m.viewport.GotoBottom()
	}
}

// setStatus shows a footer message.
func (m *Model) setStatus(msg string, isError bool) {
	m.status = msg
	m.statusError = isError
}
