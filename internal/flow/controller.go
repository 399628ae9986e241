// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package flow

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/jeranaias/ckyc-assist/internal/gateway"
	"github.com/jeranaias/ckyc-assist/internal/i18n"
	"github.com/jeranaias/ckyc-assist/internal/logging"
	"github.com/jeranaias/ckyc-assist/internal/telemetry"
	"github.com/jeranaias/ckyc-assist/internal/transcript"
)

// Operation names, used in errors, logs and metrics.
const (
	OpSelectLanguage = "selectLanguage"
	OpSelectUserType = "selectUserType"
	OpSelectMenu     = "selectMenuOption"
	OpSelectLookup   = "selectLookup"
	OpReturnToMenu   = "returnToMenu"
	OpSendChat       = "sendChatMessage"
	OpQueryRedirect  = "queryRedirect"
	OpRevealWallet   = "revealWalletOptions"
	OpCheckStatus    = "checkRegistrationStatus"
	OpWalletInquiry  = "walletInquiry"
	OpCheckMismatch  = "checkMismatch"
	OpEndChat        = "endChat"
	OpSelectRating   = "selectRating"
	OpFeedbackText   = "setFeedbackText"
	OpSubmitFeedback = "submitFeedback"
	OpShowThankYou   = "showThankYou"
	OpResetSession   = "resetSession"
)

// Stale discard kinds.
const (
	kindContinuation = "continuation"
	kindTimer        = "timer"
)

// Backend is the subset of the gateway the controller calls.
// *gateway.Client implements it.
type Backend interface {
	SetLanguage(ctx context.Context, code string) error
	Translations(ctx context.Context, code string) (map[string]string, error)
	SetUserType(ctx context.Context, t gateway.UserType) error
	Chat(ctx context.Context, message string) (gateway.ChatReply, error)
	CheckStatus(ctx context.Context, regNumber string) (gateway.LookupReply, error)
	WalletInquiry(ctx context.Context, reNumber string, option int) (gateway.LookupReply, error)
	MismatchCheck(ctx context.Context, ckycNumber string) (gateway.LookupReply, error)
	SubmitFeedback(ctx context.Context, fb gateway.Feedback) (gateway.FeedbackReply, error)
	ResetSession(ctx context.Context) error
}

// sessionTagger is implemented by backends that forward the client
// correlation id.
type sessionTagger interface {
	SetSessionID(id string)
}

// =============================================================================
// CONFIGURATION
// =============================================================================

// Config wires a Controller to its collaborators.
type Config struct {
	Backend  Backend
	Renderer transcript.Renderer
	Runner   Runner

	// Cache holds the translations (default: a new cache for Language).
	Cache *i18n.Cache

	// Language is the language a fresh session starts in (default: en).
	Language string

	// WidgetOpen starts the widget open (the line-mode front-end and tests
	// set it; the TUI honours ui.start_closed).
	WidgetOpen bool

	// Metrics (default: telemetry.Default()).
	Metrics *telemetry.Metrics

	// Logger (default: logging.Component("flow")).
	Logger *logrus.Entry

	// NewID generates session correlation ids (default: uuid.NewString).
	NewID func() string
}

// =============================================================================
// CONTROLLER
// =============================================================================

// Controller is the conversation flow state machine.
type Controller struct {
	backend Backend
	render  transcript.Renderer
	runner  Runner
	cache   *i18n.Cache
	metrics *telemetry.Metrics
	log     *logrus.Entry
	newID   func() string

	defaultLanguage string

	session Session
	epoch   uint64

	// base outlives every screen; ctx is cancelled when its screen is left.
	base   context.Context
	ctx    context.Context
	cancel context.CancelFunc

	timers    map[uint64]func()
	nextTimer uint64

	registration LookupResult
	wallet       WalletState
	walletResult LookupResult
	mismatch     LookupResult
	lookupSeq    uint64

	feedback    FeedbackState
	widget      WidgetState
	chatPending int
}

// New creates a controller on the language screen.
func New(cfg Config) (*Controller, error) {
	if cfg.Backend == nil {
		return nil, errors.New("flow: backend is required")
	}
	if cfg.Renderer == nil {
		return nil, errors.New("flow: renderer is required")
	}
	if cfg.Runner == nil {
		return nil, errors.New("flow: runner is required")
	}
	if cfg.Language == "" {
		cfg.Language = i18n.DefaultLanguage
	}
	if cfg.Cache == nil {
		cfg.Cache = i18n.NewCache(cfg.Language)
	}
	if cfg.Metrics == nil {
		cfg.Metrics = telemetry.Default()
	}
	if cfg.Logger == nil {
		cfg.Logger = logging.Component("flow")
	}
	if cfg.NewID == nil {
		cfg.NewID = uuid.NewString
	}

	c := &Controller{
		backend:         cfg.Backend,
		render:          cfg.Renderer,
		runner:          cfg.Runner,
		cache:           cfg.Cache,
		metrics:         cfg.Metrics,
		log:             cfg.Logger,
		newID:           cfg.NewID,
		defaultLanguage: cfg.Language,
		base:            context.Background(),
		timers:          make(map[uint64]func()),
		feedback:        newFeedbackState(),
		widget:          WidgetState{Open: cfg.WidgetOpen},
	}
	c.ctx, c.cancel = context.WithCancel(c.base)
	c.session = newSession(c.newID(), cfg.Language)
	c.cache.SetLanguage(cfg.Language)
	c.tagBackend()
	return c, nil
}

// Screen returns the active screen.
func (c *Controller) Screen() Screen {
	return c.session.Screen
}

// Session returns a copy of the session.
func (c *Controller) Session() Session {
	return c.session
}

// Snapshot returns a copy of the full controller state.
func (c *Controller) Snapshot() Snapshot {
	return Snapshot{
		Session:      c.session,
		Epoch:        c.epoch,
		Registration: c.registration,
		Wallet:       c.wallet,
		WalletResult: c.walletResult,
		Mismatch:     c.mismatch,
		Feedback:     c.feedback,
		Widget:       c.widget,
		ChatPending:  c.chatPending > 0,
	}
}

// PendingTimers returns the number of scheduled callbacks that have not run
// yet. Line-mode front-ends wait for it to drop to zero before prompting.
func (c *Controller) PendingTimers() int {
	return len(c.timers)
}

// Label resolves a UI label in the language of the loaded translations.
// The fetched translations win; the built-in catalog is the fallback. The
// label language only moves once a translation fetch succeeds.
func (c *Controller) Label(key string) string {
	return c.cache.Get(key, i18n.Builtin(c.cache.Language(), key))
}

// =============================================================================
// NAVIGATION
// =============================================================================

// SelectLanguage chooses the conversation language. The choice is persisted
// in the background; the translations are fetched and, once they arrive (or
// fail to), the user type screen is shown. A failed fetch keeps the previous
// translations.
func (c *Controller) SelectLanguage(code string) error {
	if err := c.require(OpSelectLanguage, ScreenLanguage); err != nil {
		return err
	}
	lang, err := i18n.Normalize(code)
	if err != nil {
		return &ValidationError{Field: "language", Message: err.Error()}
	}
	if !i18n.IsSupported(lang) {
		return &ValidationError{Field: "language", Message: "unsupported language " + lang}
	}

	c.session.Language = lang
	log := c.opLog(OpSelectLanguage).WithField("language", lang)

	c.call(OpSelectLanguage, func(ctx context.Context) func() {
		if err := c.backend.SetLanguage(ctx, lang); err != nil {
			log.WithError(err).Warn("failed to persist language")
		}
		m, err := c.backend.Translations(ctx, lang)
		return func() {
			if err != nil {
				log.WithError(err).Warn("failed to fetch translations, keeping previous labels")
			} else {
				c.cache.SetLanguage(lang)
				c.cache.Load(m)
			}
			c.activate(ScreenUserType)
		}
	})
	return nil
}

// SelectUserType records the user type and shows the menu.
func (c *Controller) SelectUserType(t UserType) error {
	if err := c.require(OpSelectUserType, ScreenUserType); err != nil {
		return err
	}
	if t != UserTypeEntity && t != UserTypeClient {
		return &ValidationError{Field: "user_type", Message: "must be entityRep or client"}
	}

	c.session.UserType = t
	log := c.opLog(OpSelectUserType).WithField("user_type", t.String())

	c.call(OpSelectUserType, func(ctx context.Context) func() {
		if err := c.backend.SetUserType(ctx, t.Wire()); err != nil {
			log.WithError(err).Warn("failed to persist user type")
		}
		return func() {
			c.activate(ScreenMenu)
		}
	})
	return nil
}

// SelectMenuOption handles the three main menu entries.
func (c *Controller) SelectMenuOption(opt MenuOption) error {
	if err := c.require(OpSelectMenu, ScreenMenu); err != nil {
		return err
	}

	switch opt {
	case MenuStatus:
		c.activate(ScreenAPIHub)
	case MenuQuery:
		c.render.Clear()
		c.activate(ScreenChat)
		c.appendBot(c.Label("raise_query_redirect"))
		// The portal itself is never opened from here.
		c.schedule(OpQueryRedirect, QueryRedirectDelay, func() {
			c.appendBot(c.Label("portal_redirecting"))
		})
	case MenuChat:
		c.session.WrongAttempts = 0
		c.render.Clear()
		c.activate(ScreenChat)
		c.appendBot(c.Label("hello_response"))
	default:
		return &ValidationError{Field: "option", Message: "unknown menu option " + string(opt)}
	}
	return nil
}

// SelectLookup opens one of the API hub lookups with an empty result.
func (c *Controller) SelectLookup(kind LookupKind) error {
	if err := c.require(OpSelectLookup, ScreenAPIHub); err != nil {
		return err
	}
	screen, ok := kind.screen()
	if !ok {
		return &ValidationError{Field: "lookup", Message: "unknown lookup " + string(kind)}
	}

	c.activate(screen)
	c.resetLookup(screen)
	return nil
}

// ReturnToMenu goes back to the menu from any screen past user type
// selection.
func (c *Controller) ReturnToMenu() error {
	if s := c.session.Screen; s == ScreenLanguage || s == ScreenUserType {
		return &ScreenError{
			Op:   OpReturnToMenu,
			Want: []Screen{ScreenMenu, ScreenAPIHub, ScreenRegistration, ScreenWallet, ScreenMismatch, ScreenChat, ScreenFeedback, ScreenThankYou},
			Got:  s,
		}
	}
	c.session.WrongAttempts = 0
	c.activate(ScreenMenu)
	return nil
}

// ResetSession starts over from the language screen, from any screen. The
// backend is told in the background; its failure is only logged.
func (c *Controller) ResetSession() {
	log := c.opLog(OpResetSession)

	c.render.Clear()
	c.feedback = newFeedbackState()
	c.resetLookup(ScreenRegistration)
	c.resetLookup(ScreenWallet)
	c.resetLookup(ScreenMismatch)

	c.session = newSession(c.newID(), c.defaultLanguage)
	c.cache.SetLanguage(c.defaultLanguage)
	c.cache.Load(nil)
	c.tagBackend()
	c.activate(ScreenLanguage)

	c.runner.Go(c.base, func(ctx context.Context) func() {
		if err := c.backend.ResetSession(ctx); err != nil {
			log.WithError(err).Warn("failed to reset backend session")
		}
		return nil
	})
	log.Info("session reset")
}

// ToggleWidget opens or closes the widget. Opening clears the unread count.
func (c *Controller) ToggleWidget() {
	c.widget.Open = !c.widget.Open
	if c.widget.Open {
		c.widget.Unread = 0
	}
}

// =============================================================================
// INTERNALS
// =============================================================================

// require fails with a ScreenError unless one of want is active.
func (c *Controller) require(op string, want ...Screen) error {
	for _, s := range want {
		if c.session.Screen == s {
			return nil
		}
	}
	return &ScreenError{Op: op, Want: want, Got: c.session.Screen}
}

// activate makes s the only active screen. Work and timers issued for the
// previous screen are cancelled.
func (c *Controller) activate(s Screen) {
	from := c.session.Screen

	c.cancel()
	c.stopTimers()
	if c.chatPending > 0 {
		c.render.HideTyping()
		c.chatPending = 0
	}

	c.session.Screen = s
	c.epoch++
	c.ctx, c.cancel = context.WithCancel(c.base)

	c.metrics.RecordTransition(c.base, s.String())
	c.log.WithFields(logrus.Fields{
		"session": c.session.ID,
		"from":    from.String(),
		"screen":  s.String(),
		"epoch":   c.epoch,
	}).Debug("screen activated")
}

// guard captures the current epoch. The returned function runs fn only if
// no screen was activated since.
func (c *Controller) guard(kind, op string) func(fn func()) {
	epoch := c.epoch
	return func(fn func()) {
		if c.epoch != epoch {
			c.metrics.RecordStaleDiscard(c.base, kind, op)
			c.opLog(op).WithFields(logrus.Fields{
				"kind":  kind,
				"epoch": epoch,
			}).Debug("discarding stale result")
			return
		}
		fn()
	}
}

// call runs work in the background under the active screen's context. The
// continuation it returns is dropped if the screen was left meanwhile.
func (c *Controller) call(op string, work func(ctx context.Context) func()) {
	run := c.guard(kindContinuation, op)
	c.runner.Go(c.ctx, func(ctx context.Context) func() {
		cont := work(ctx)
		if cont == nil {
			return nil
		}
		return func() { run(cont) }
	})
}

// schedule runs fn after d unless the screen was left meanwhile.
func (c *Controller) schedule(op string, d time.Duration, fn func()) {
	run := c.guard(kindTimer, op)
	c.nextTimer++
	id := c.nextTimer
	c.timers[id] = c.runner.After(d, func() {
		delete(c.timers, id)
		run(fn)
	})
}

func (c *Controller) stopTimers() {
	for id, stop := range c.timers {
		stop()
		delete(c.timers, id)
	}
}

// appendBot appends a bot entry and counts it as unread while the widget
// is closed.
func (c *Controller) appendBot(text string) {
	c.render.AppendBot(text)
	if !c.widget.Open {
		c.widget.Unread++
	}
}

func (c *Controller) tagBackend() {
	if t, ok := c.backend.(sessionTagger); ok {
		t.SetSessionID(c.session.ID)
	}
}

func (c *Controller) opLog(op string) *logrus.Entry {
	return c.log.WithFields(logrus.Fields{
		"session": c.session.ID,
		"screen":  c.session.Screen.String(),
		"op":      op,
	})
}
