// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package flow

import (
	"context"
	"fmt"
	"strings"

	"github.com/jeranaias/ckyc-assist/internal/gateway"
	"github.com/jeranaias/ckyc-assist/internal/util"
)

// CheckRegistrationStatus looks up a registration/acknowledgment number.
// Empty input is ignored.
func (c *Controller) CheckRegistrationStatus(regNumber string) error {
	if err := c.require(OpCheckStatus, ScreenRegistration); err != nil {
		return err
	}
	regNumber = strings.TrimSpace(regNumber)
	if regNumber == "" {
		return nil
	}

	c.lookup(OpCheckStatus, &c.registration, func(ctx context.Context) (gateway.LookupReply, error) {
		return c.backend.CheckStatus(ctx, regNumber)
	})
	return nil
}

// RevealWalletOptions is the numeric gate of the wallet screen. Empty input
// is ignored; anything but digits sets the inline warning, keeps the
// options hidden and never reaches the backend.
func (c *Controller) RevealWalletOptions(reNumber string) error {
	if err := c.require(OpRevealWallet, ScreenWallet); err != nil {
		return err
	}
	reNumber = strings.TrimSpace(reNumber)
	if reNumber == "" {
		return nil
	}
	return c.gateWallet(reNumber)
}

// WalletInquiry asks for one wallet figure. The reference number goes
// through the same numeric gate as RevealWalletOptions.
func (c *Controller) WalletInquiry(reNumber string, option int) error {
	if err := c.require(OpWalletInquiry, ScreenWallet); err != nil {
		return err
	}
	reNumber = strings.TrimSpace(reNumber)
	if reNumber == "" {
		return nil
	}
	if err := c.gateWallet(reNumber); err != nil {
		return err
	}
	if option < 1 || option > len(WalletOptions) {
		return &ValidationError{Field: "option", Message: fmt.Sprintf("must be between 1 and %d", len(WalletOptions))}
	}

	c.lookup(OpWalletInquiry, &c.walletResult, func(ctx context.Context) (gateway.LookupReply, error) {
		return c.backend.WalletInquiry(ctx, reNumber, option)
	})
	return nil
}

// CheckMismatch looks up the record held for a CKYC number. Empty input is
// ignored; the 14-digit rule is the backend's to enforce.
func (c *Controller) CheckMismatch(ckycNumber string) error {
	if err := c.require(OpCheckMismatch, ScreenMismatch); err != nil {
		return err
	}
	ckycNumber = strings.TrimSpace(ckycNumber)
	if ckycNumber == "" {
		return nil
	}

	c.lookup(OpCheckMismatch, &c.mismatch, func(ctx context.Context) (gateway.LookupReply, error) {
		return c.backend.MismatchCheck(ctx, ckycNumber)
	})
	return nil
}

// gateWallet applies the numeric check to a trimmed, non-empty reference.
func (c *Controller) gateWallet(reNumber string) error {
	if !util.IsDigits(reNumber) {
		c.wallet.OptionsVisible = false
		c.wallet.Warning = c.Label("numeric_only")
		return &ValidationError{Field: "re_number", Message: "numeric value only"}
	}
	c.wallet = WalletState{ReNumber: reNumber, OptionsVisible: true}
	return nil
}

// lookup shows the pending text in res, runs fetch in the background and
// replaces the text with the reply or the error. Only the latest lookup of
// a screen may write its result.
func (c *Controller) lookup(op string, res *LookupResult, fetch func(ctx context.Context) (gateway.LookupReply, error)) {
	*res = LookupResult{Visible: true, Pending: true, Text: c.Label("checking")}
	c.lookupSeq++
	seq := c.lookupSeq
	log := c.opLog(op)

	c.call(op, func(ctx context.Context) func() {
		reply, err := fetch(ctx)
		return func() {
			if seq != c.lookupSeq {
				return
			}
			switch msg, remote := gateway.BackendMessage(err); {
			case err == nil:
				*res = LookupResult{Visible: true, Text: reply.Response}
			case remote:
				*res = LookupResult{Visible: true, Text: msg, IsError: true}
			default:
				log.WithError(err).Warn("lookup failed")
				*res = LookupResult{Visible: true, Text: c.Label("lookup_error"), IsError: true}
			}
		}
	})
}

// resetLookup hides the result of a lookup screen and, for the wallet,
// hides the options again.
func (c *Controller) resetLookup(s Screen) {
	switch s {
	case ScreenRegistration:
		c.registration = LookupResult{}
	case ScreenWallet:
		c.wallet = WalletState{}
		c.walletResult = LookupResult{}
	case ScreenMismatch:
		c.mismatch = LookupResult{}
	}
}

// WalletOptionLabels returns the localized labels of the wallet options,
// taken from the numbered lines of the "wallet_options" text.
func (c *Controller) WalletOptionLabels() []string {
	labels := make([]string, len(WalletOptions))
	for i, o := range WalletOptions {
		labels[i] = o.Label
	}
	for _, line := range strings.Split(c.Label("wallet_options"), "\n") {
		num, text, ok := strings.Cut(strings.TrimSpace(line), ".")
		if !ok || len(num) != 1 || num[0] < '1' || int(num[0]-'0') > len(labels) {
			continue
		}
		if text = strings.TrimSpace(text); text != "" {
			labels[num[0]-'1'] = text
		}
	}
	return labels
}
