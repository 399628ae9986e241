// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package flow

import "github.com/jeranaias/ckyc-assist/internal/i18n"

// Choice is one entry of a screen's option list. Select performs the
// operation the entry stands for.
type Choice struct {
	Label  string
	Select func() error
}

// Choices returns the option list of the active screen in display order,
// with labels in the session language. It is nil on screens that take
// free text only, and for the wallet and feedback screens while their
// options are hidden.
func (c *Controller) Choices() []Choice {
	switch c.session.Screen {
	case ScreenLanguage:
		var out []Choice
		for _, code := range i18n.Supported() {
			out = append(out, Choice{i18n.DisplayName(code), func() error { return c.SelectLanguage(code) }})
		}
		return out

	case ScreenUserType:
		return []Choice{
			{c.Label("registered_entity"), func() error { return c.SelectUserType(UserTypeEntity) }},
			{c.Label("client"), func() error { return c.SelectUserType(UserTypeClient) }},
		}

	case ScreenMenu:
		return []Choice{
			{c.Label("check_status"), func() error { return c.SelectMenuOption(MenuStatus) }},
			{c.Label("raise_query"), func() error { return c.SelectMenuOption(MenuQuery) }},
			{c.Label("ask_question"), func() error { return c.SelectMenuOption(MenuChat) }},
		}

	case ScreenAPIHub:
		return []Choice{
			{c.Label("status_registration"), func() error { return c.SelectLookup(LookupRegistration) }},
			{c.Label("wallet_inquiry"), func() error { return c.SelectLookup(LookupWallet) }},
			{c.Label("mismatch_details"), func() error { return c.SelectLookup(LookupMismatch) }},
			{c.Label("back"), c.ReturnToMenu},
		}

	case ScreenWallet:
		if !c.wallet.OptionsVisible {
			return nil
		}
		var out []Choice
		for i, label := range c.WalletOptionLabels() {
			option := WalletOptions[i].Value
			out = append(out, Choice{label, func() error { return c.WalletInquiry(c.wallet.ReNumber, option) }})
		}
		return out

	case ScreenFeedback:
		if !c.feedback.ButtonsVisible || c.feedback.Submitting {
			return nil
		}
		var out []Choice
		for _, r := range Ratings {
			value := r.Value
			out = append(out, Choice{c.Label(r.Key), func() error { return c.SelectRating(value, "") }})
		}
		return out

	case ScreenThankYou:
		return []Choice{
			{c.Label("new_chat"), func() error { c.ResetSession(); return nil }},
			{c.Label("menu"), c.ReturnToMenu},
		}
	}
	return nil
}
