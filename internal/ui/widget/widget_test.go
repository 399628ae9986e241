// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package widget

import (
	"bytes"
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jeranaias/ckyc-assist/internal/flow"
	"github.com/jeranaias/ckyc-assist/internal/gateway"
	"github.com/jeranaias/ckyc-assist/internal/i18n"
	"github.com/jeranaias/ckyc-assist/internal/transcript"
	"github.com/jeranaias/ckyc-assist/internal/ui/styles"
)

// =============================================================================
// TEST HARNESS
// =============================================================================

// queueRunner holds work and timers until the test delivers them through
// the model, the way the Loop dispatcher does.
type queueRunner struct {
	jobs   []func(ctx context.Context) func()
	timers []func()
}

func (r *queueRunner) Go(_ context.Context, work func(ctx context.Context) func()) {
	r.jobs = append(r.jobs, work)
}

func (r *queueRunner) After(_ time.Duration, fn func()) func() {
	r.timers = append(r.timers, fn)
	return func() {}
}

type fakeBackend struct {
	mu       sync.Mutex
	calls    []string
	feedback []gateway.Feedback
}

func (b *fakeBackend) record(format string, args ...any) {
	b.mu.Lock()
	b.calls = append(b.calls, fmt.Sprintf(format, args...))
	b.mu.Unlock()
}

func (b *fakeBackend) Calls() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]string(nil), b.calls...)
}

func (b *fakeBackend) SetLanguage(_ context.Context, code string) error {
	b.record("setLanguage %s", code)
	return nil
}

func (b *fakeBackend) Translations(_ context.Context, code string) (map[string]string, error) {
	b.record("translations %s", code)
	return i18n.Catalog(code), nil
}

func (b *fakeBackend) SetUserType(_ context.Context, t gateway.UserType) error {
	b.record("setUserType %s", t)
	return nil
}

func (b *fakeBackend) Chat(_ context.Context, message string) (gateway.ChatReply, error) {
	b.record("chat %s", message)
	return gateway.ChatReply{Response: "reply to " + message}, nil
}

func (b *fakeBackend) CheckStatus(_ context.Context, regNumber string) (gateway.LookupReply, error) {
	b.record("checkStatus %s", regNumber)
	return gateway.LookupReply{Response: "Status: Accepted"}, nil
}

func (b *fakeBackend) WalletInquiry(_ context.Context, reNumber string, option int) (gateway.LookupReply, error) {
	b.record("wallet %s %d", reNumber, option)
	return gateway.LookupReply{Response: fmt.Sprintf("Wallet figure %d", option)}, nil
}

func (b *fakeBackend) MismatchCheck(_ context.Context, ckycNumber string) (gateway.LookupReply, error) {
	b.record("mismatch %s", ckycNumber)
	return gateway.LookupReply{Response: "Record matches"}, nil
}

func (b *fakeBackend) SubmitFeedback(_ context.Context, fb gateway.Feedback) (gateway.FeedbackReply, error) {
	b.record("feedback %d", fb.RatingValue)
	b.mu.Lock()
	b.feedback = append(b.feedback, fb)
	b.mu.Unlock()
	return gateway.FeedbackReply{Response: "Thanks for the feedback"}, nil
}

func (b *fakeBackend) ResetSession(_ context.Context) error {
	b.record("reset")
	return nil
}

type harness struct {
	t       *testing.T
	model   *Model
	ctrl    *flow.Controller
	log     *transcript.Log
	runner  *queueRunner
	backend *fakeBackend
}

func newHarness(t *testing.T, open bool) *harness {
	t.Helper()
	logger, _ := test.NewNullLogger()
	runner := &queueRunner{}
	backend := &fakeBackend{}
	log := transcript.NewLog()

	ctrl, err := flow.New(flow.Config{
		Backend:    backend,
		Renderer:   log,
		Runner:     runner,
		WidgetOpen: open,
		Logger:     logrus.NewEntry(logger),
	})
	require.NoError(t, err)

	theme, err := styles.NewThemeFor(&bytes.Buffer{}, styles.ThemeDark)
	require.NoError(t, err)

	m := NewModel(ModelConfig{
		Controller: ctrl,
		Log:        log,
		Theme:      theme,
		PlainText:  true,
		ExportDir:  t.TempDir(),
		Logger:     logrus.NewEntry(logger),
	})
	m.Update(tea.WindowSizeMsg{Width: 80, Height: 30})

	return &harness{t: t, model: m, ctrl: ctrl, log: log, runner: runner, backend: backend}
}

// flush runs queued work and delivers its continuations as DispatchMsgs.
func (h *harness) flush() {
	for len(h.runner.jobs) > 0 {
		work := h.runner.jobs[0]
		h.runner.jobs = h.runner.jobs[1:]
		if cont := work(context.Background()); cont != nil {
			h.model.Update(DispatchMsg{Fn: cont})
		}
	}
}

// fireTimers delivers every scheduled timer.
func (h *harness) fireTimers() {
	timers := h.runner.timers
	h.runner.timers = nil
	for _, fn := range timers {
		h.model.Update(DispatchMsg{Fn: fn})
	}
	h.flush()
}

func (h *harness) key(k tea.KeyType) tea.Cmd {
	_, cmd := h.model.Update(tea.KeyMsg{Type: k})
	return cmd
}

func (h *harness) typeText(s string) {
	h.model.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)})
}

func (h *harness) screen() flow.Screen {
	return h.ctrl.Screen()
}

// toMenu walks from the language screen to the menu in English as a client.
func (h *harness) toMenu() {
	h.key(tea.KeyEnter)
	h.flush()
	require.Equal(h.t, flow.ScreenUserType, h.screen())
	h.typeText("2")
	h.flush()
	require.Equal(h.t, flow.ScreenMenu, h.screen())
}

// =============================================================================
// NAVIGATION
// =============================================================================

func TestWidget_LanguageToMenu(t *testing.T) {
	h := newHarness(t, true)

	view := h.model.View()
	assert.Contains(t, view, "English")
	assert.Contains(t, view, i18n.DisplayName(i18n.Hindi))

	h.toMenu()
	assert.Equal(t, []string{"setLanguage en", "translations en", "setUserType client"}, h.backend.Calls())
	assert.Equal(t, flow.UserTypeClient, h.ctrl.Session().UserType)
	assert.Contains(t, h.model.View(), h.ctrl.Label("ask_question"))
}

func TestWidget_CursorWrapsAndSelects(t *testing.T) {
	h := newHarness(t, true)

	h.key(tea.KeyUp)
	assert.Equal(t, 1, h.model.cursor)
	h.key(tea.KeyDown)
	assert.Equal(t, 0, h.model.cursor)
	h.key(tea.KeyDown)
	h.key(tea.KeyEnter)
	h.flush()

	assert.Equal(t, flow.ScreenUserType, h.screen())
	assert.Equal(t, i18n.Hindi, h.ctrl.Session().Language)
	assert.Equal(t, 0, h.model.cursor, "cursor resets on a new screen")
}

func TestWidget_EscReturnsToMenu(t *testing.T) {
	h := newHarness(t, true)
	h.toMenu()

	h.typeText("1")
	require.Equal(t, flow.ScreenAPIHub, h.screen())
	h.key(tea.KeyEsc)
	assert.Equal(t, flow.ScreenMenu, h.screen())
}

func TestWidget_EscIgnoredBeforeMenu(t *testing.T) {
	h := newHarness(t, true)

	h.key(tea.KeyEsc)
	assert.Equal(t, flow.ScreenLanguage, h.screen())
	assert.Empty(t, h.model.status)
}

// =============================================================================
// CHAT
// =============================================================================

func TestWidget_ChatRoundTrip(t *testing.T) {
	h := newHarness(t, true)
	h.toMenu()

	h.typeText("3")
	require.Equal(t, flow.ScreenChat, h.screen())
	assert.True(t, h.model.input.Focused())

	h.typeText("what is ckyc")
	h.key(tea.KeyEnter)
	assert.Empty(t, h.model.input.Value())
	assert.True(t, h.log.Typing())

	h.flush()
	assert.False(t, h.log.Typing())
	entries := h.log.Entries()
	require.Len(t, entries, 3)
	assert.Equal(t, transcript.RoleUser, entries[1].Role)
	assert.Equal(t, "reply to what is ckyc", entries[2].Text)
	assert.Contains(t, h.model.View(), "reply to what is ckyc")
}

func TestWidget_StaleReplyAfterEsc(t *testing.T) {
	h := newHarness(t, true)
	h.toMenu()
	h.typeText("3")

	h.typeText("hello")
	h.key(tea.KeyEnter)
	h.key(tea.KeyEsc)
	h.flush()

	assert.Equal(t, flow.ScreenMenu, h.screen())
	for _, e := range h.log.Entries() {
		assert.NotEqual(t, "reply to hello", e.Text)
	}
}

func TestWidget_EndChatShowsFeedback(t *testing.T) {
	h := newHarness(t, true)
	h.toMenu()
	h.typeText("3")

	h.key(tea.KeyCtrlE)
	require.Equal(t, flow.ScreenFeedback, h.screen())
	assert.Contains(t, h.model.View(), h.ctrl.Label("excellent"))
}

// =============================================================================
// LOOKUPS
// =============================================================================

func TestWidget_RegistrationLookup(t *testing.T) {
	h := newHarness(t, true)
	h.toMenu()
	h.typeText("1")
	h.typeText("1")
	require.Equal(t, flow.ScreenRegistration, h.screen())

	h.typeText("ACK42")
	h.key(tea.KeyEnter)
	assert.True(t, h.ctrl.Snapshot().Registration.Pending)

	h.flush()
	assert.Contains(t, h.backend.Calls(), "checkStatus ACK42")
	assert.Contains(t, h.model.View(), "Status: Accepted")
}

func TestWidget_WalletGateAndOptions(t *testing.T) {
	h := newHarness(t, true)
	h.toMenu()
	h.typeText("1")
	h.typeText("2")
	require.Equal(t, flow.ScreenWallet, h.screen())

	h.typeText("12a")
	h.key(tea.KeyEnter)
	snap := h.ctrl.Snapshot()
	assert.False(t, snap.Wallet.OptionsVisible)
	assert.Contains(t, h.model.View(), snap.Wallet.Warning)
	assert.Empty(t, h.model.status, "the wallet warning is shown inline")

	h.key(tea.KeyBackspace)
	h.key(tea.KeyEnter)
	require.True(t, h.ctrl.Snapshot().Wallet.OptionsVisible)
	assert.True(t, h.model.focusOptions)
	assert.False(t, h.model.input.Focused())

	h.typeText("2")
	h.flush()
	assert.Contains(t, h.backend.Calls(), "wallet 12 2")
	assert.Contains(t, h.model.View(), "Wallet figure 2")

	h.key(tea.KeyTab)
	assert.True(t, h.model.input.Focused())
}

// =============================================================================
// FEEDBACK
// =============================================================================

func TestWidget_LowRatingAsksForText(t *testing.T) {
	h := newHarness(t, true)
	h.toMenu()
	h.typeText("3")
	h.key(tea.KeyCtrlE)

	h.typeText("1")
	require.True(t, h.ctrl.Snapshot().Feedback.TextBoxVisible)
	assert.True(t, h.model.input.Focused())

	h.typeText("too slow")
	h.key(tea.KeyEnter)
	h.flush()

	require.Len(t, h.backend.feedback, 1)
	assert.Equal(t, 1, h.backend.feedback[0].RatingValue)
	assert.Equal(t, "too slow", h.backend.feedback[0].FeedbackText)
	assert.Contains(t, h.model.View(), "Thanks for the feedback")

	h.fireTimers()
	assert.Equal(t, flow.ScreenThankYou, h.screen())
}

func TestWidget_HighRatingSubmitsAtOnce(t *testing.T) {
	h := newHarness(t, true)
	h.toMenu()
	h.typeText("3")
	h.key(tea.KeyCtrlE)

	h.typeText("5")
	h.flush()
	require.Len(t, h.backend.feedback, 1)
	assert.Equal(t, h.ctrl.Label("excellent"), h.backend.feedback[0].Rating)
	assert.Empty(t, h.backend.feedback[0].FeedbackText)
}

func TestWidget_ThankYouStartsOver(t *testing.T) {
	h := newHarness(t, true)
	h.toMenu()
	h.typeText("3")
	h.key(tea.KeyCtrlE)
	h.typeText("4")
	h.flush()
	h.fireTimers()
	require.Equal(t, flow.ScreenThankYou, h.screen())

	h.key(tea.KeyEnter)
	h.flush()
	assert.Equal(t, flow.ScreenLanguage, h.screen())
	assert.Contains(t, h.backend.Calls(), "reset")
	assert.Zero(t, h.log.Len())
}

// =============================================================================
// WIDGET AND GLOBAL KEYS
// =============================================================================

func TestWidget_ClosedShowsUnreadBadge(t *testing.T) {
	h := newHarness(t, true)
	h.toMenu()
	h.typeText("3")
	h.typeText("hi")
	h.key(tea.KeyEnter)

	h.key(tea.KeyCtrlW)
	h.flush()
	snap := h.ctrl.Snapshot()
	require.False(t, snap.Widget.Open)
	assert.Equal(t, 1, snap.Widget.Unread)
	view := h.model.View()
	assert.Contains(t, view, "1")
	assert.NotContains(t, view, "reply to hi")

	h.typeText("x")
	assert.Equal(t, flow.ScreenChat, h.screen(), "keys other than toggle are ignored while closed")

	h.key(tea.KeyCtrlW)
	assert.Zero(t, h.ctrl.Snapshot().Widget.Unread)
	assert.Contains(t, h.model.View(), "reply to hi")
}

func TestWidget_NewChatResets(t *testing.T) {
	h := newHarness(t, true)
	h.toMenu()

	h.key(tea.KeyCtrlN)
	assert.Equal(t, flow.ScreenLanguage, h.screen())
}

func TestWidget_HelpToggle(t *testing.T) {
	h := newHarness(t, true)
	short := h.model.View()

	h.key(tea.KeyF1)
	assert.True(t, h.model.showHelp)
	full := h.model.View()
	assert.NotContains(t, short, "save transcript")
	assert.Contains(t, full, "save transcript")
}

func TestWidget_QuitKey(t *testing.T) {
	h := newHarness(t, true)

	cmd := h.key(tea.KeyCtrlC)
	require.NotNil(t, cmd)
	assert.IsType(t, tea.QuitMsg{}, cmd())
}

func TestWidget_ExportTranscript(t *testing.T) {
	h := newHarness(t, true)
	h.key(tea.KeyCtrlS)
	assert.Equal(t, "Nothing to save yet", h.model.status)

	h.toMenu()
	h.typeText("3")
	h.typeText("hello")
	h.key(tea.KeyEnter)
	h.flush()

	cmd := h.key(tea.KeyCtrlS)
	require.NotNil(t, cmd)
	msg := cmd()
	done, ok := msg.(exportedMsg)
	require.True(t, ok)
	require.NoError(t, done.Err)
	assert.FileExists(t, done.Path)

	h.model.Update(msg)
	assert.Contains(t, h.model.View(), "Saved")
}

func TestWidget_StartClosedShowsLauncher(t *testing.T) {
	h := newHarness(t, false)

	view := h.model.View()
	assert.Contains(t, view, h.ctrl.Label("welcome_title"))
	assert.NotContains(t, view, "English")
}

func TestWidget_CopyTranscript(t *testing.T) {
	h := newHarness(t, true)
	assert.Nil(t, h.key(tea.KeyCtrlY))
	assert.Equal(t, "Nothing to copy yet", h.model.status)

	h.model.Update(copiedMsg{})
	assert.Equal(t, "Copied transcript", h.model.status)
	assert.False(t, h.model.statusError)
}

func TestPlainTranscript(t *testing.T) {
	entries := []transcript.Entry{
		{Role: transcript.RoleUser, Text: "hello"},
		{Role: transcript.RoleTyping},
		{Role: transcript.RoleBot, Text: "Hi.\nHow can I help?"},
	}
	assert.Equal(t, "You: hello\nCKYC: Hi.\n      How can I help?", plainTranscript(entries))
}
