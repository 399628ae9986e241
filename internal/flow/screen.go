// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package flow

import (
	"fmt"
	"strings"
	"time"

	"github.com/jeranaias/ckyc-assist/internal/gateway"
)

// Fixed delays of the scripted flow.
const (
	// QueryRedirectDelay separates the two redirect announcements of the
	// raise-query option.
	QueryRedirectDelay = 1500 * time.Millisecond

	// ChatRedirectDelay is how long a redirect reply stays on screen
	// before the chat ends.
	ChatRedirectDelay = 2000 * time.Millisecond

	// ThankYouDelay is how long the feedback confirmation stays on screen.
	ThankYouDelay = 3000 * time.Millisecond
)

// =============================================================================
// SCREENS
// =============================================================================

// Screen identifies one mutually exclusive state of the widget.
type Screen int

const (
	ScreenLanguage Screen = iota
	ScreenUserType
	ScreenMenu
	ScreenAPIHub
	ScreenRegistration
	ScreenWallet
	ScreenMismatch
	ScreenChat
	ScreenFeedback
	ScreenThankYou
)

var screenNames = [...]string{
	ScreenLanguage:     "language",
	ScreenUserType:     "userType",
	ScreenMenu:         "menu",
	ScreenAPIHub:       "apiHub",
	ScreenRegistration: "registrationLookup",
	ScreenWallet:       "walletLookup",
	ScreenMismatch:     "mismatchLookup",
	ScreenChat:         "chat",
	ScreenFeedback:     "feedback",
	ScreenThankYou:     "thankYou",
}

// String returns the screen name.
func (s Screen) String() string {
	if s < 0 || int(s) >= len(screenNames) {
		return fmt.Sprintf("screen(%d)", int(s))
	}
	return screenNames[s]
}

// Screens returns every screen in declaration order.
func Screens() []Screen {
	out := make([]Screen, len(screenNames))
	for i := range screenNames {
		out[i] = Screen(i)
	}
	return out
}

// =============================================================================
// USER TYPE
// =============================================================================

// UserType is who the user says they are.
type UserType int

const (
	UserTypeUnset UserType = iota
	UserTypeEntity
	UserTypeClient
)

// String returns the user type name.
func (u UserType) String() string {
	switch u {
	case UserTypeEntity:
		return "entityRep"
	case UserTypeClient:
		return "client"
	default:
		return "unset"
	}
}

// Wire returns the backend value of the user type.
func (u UserType) Wire() gateway.UserType {
	if u == UserTypeEntity {
		return gateway.UserTypeEntity
	}
	return gateway.UserTypeClient
}

// ParseUserType accepts "re", "entity", "entityRep" and "client".
func ParseUserType(s string) (UserType, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "re", "entity", "entityrep":
		return UserTypeEntity, nil
	case "client":
		return UserTypeClient, nil
	default:
		return UserTypeUnset, &ValidationError{Field: "user_type", Message: fmt.Sprintf("unknown user type %q", s)}
	}
}

// =============================================================================
// MENU AND LOOKUPS
// =============================================================================

// MenuOption is one of the main menu entries.
type MenuOption string

const (
	MenuStatus MenuOption = "status"
	MenuQuery  MenuOption = "query"
	MenuChat   MenuOption = "chat"
)

// LookupKind is one of the API hub entries.
type LookupKind string

const (
	LookupRegistration LookupKind = "registration"
	LookupWallet       LookupKind = "wallet"
	LookupMismatch     LookupKind = "mismatch"
)

func (k LookupKind) screen() (Screen, bool) {
	switch k {
	case LookupRegistration:
		return ScreenRegistration, true
	case LookupWallet:
		return ScreenWallet, true
	case LookupMismatch:
		return ScreenMismatch, true
	default:
		return 0, false
	}
}

// WalletOption is one of the four wallet figures.
type WalletOption struct {
	Value int
	Label string
}

// WalletOptions lists the wallet inquiry options in display order.
var WalletOptions = []WalletOption{
	{1, "Available Balance"},
	{2, "TDS on Hold"},
	{3, "Threshold Limit"},
	{4, "Minimum Balance Limit"},
}

// =============================================================================
// RATINGS
// =============================================================================

// Rating is one feedback button. Key is the translation key of its label.
type Rating struct {
	Value int
	Key   string
}

// Ratings lists the feedback buttons from worst to best.
var Ratings = []Rating{
	{1, "very_bad"},
	{2, "bad"},
	{3, "good"},
	{4, "very_good"},
	{5, "excellent"},
}

// needsComment reports whether a rating asks for free text before it is
// submitted.
func needsComment(value int) bool {
	return value <= 2
}
