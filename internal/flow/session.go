// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package flow

// Session is the per-widget conversation state. The Controller is its only
// mutator.
type Session struct {
	// ID correlates client logs with backend requests. It is not the
	// backend's session cookie.
	ID string

	Language      string
	UserType      UserType
	Screen        Screen
	WrongAttempts int
}

func newSession(id, language string) Session {
	return Session{
		ID:       id,
		Language: language,
		Screen:   ScreenLanguage,
	}
}

// LookupResult is the result box of one lookup screen.
type LookupResult struct {
	Visible bool
	Pending bool
	Text    string
	IsError bool
}

// WalletState is the option gate of the wallet screen.
type WalletState struct {
	ReNumber       string
	OptionsVisible bool

	// Warning is the inline message shown for a non-numeric reference.
	Warning string
}

// FeedbackState is the feedback screen, including the draft being built.
type FeedbackState struct {
	// Selected is the chosen rating value, 0 when none.
	Selected    int
	RatingLabel string
	Text        string

	ButtonsVisible bool
	TextBoxVisible bool
	Submitting     bool

	Response        string
	ResponseVisible bool
	Subtitle        string
}

func newFeedbackState() FeedbackState {
	return FeedbackState{ButtonsVisible: true}
}

// WidgetState tracks whether the widget is open and how many bot messages
// arrived while it was closed.
type WidgetState struct {
	Open   bool
	Unread int
}

// Snapshot is a copy of everything a front-end needs to draw the widget.
type Snapshot struct {
	Session Session

	// Epoch increments on every screen activation.
	Epoch uint64

	Registration LookupResult
	Wallet       WalletState
	WalletResult LookupResult
	Mismatch     LookupResult

	Feedback FeedbackState
	Widget   WidgetState

	// ChatPending is set while a chat reply is outstanding.
	ChatPending bool
}

// Lookup returns the result box of a lookup screen.
func (s Snapshot) Lookup(screen Screen) LookupResult {
	switch screen {
	case ScreenRegistration:
		return s.Registration
	case ScreenWallet:
		return s.WalletResult
	case ScreenMismatch:
		return s.Mismatch
	default:
		return LookupResult{}
	}
}
