// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package flow

import (
	"context"
	"strings"
)

// SendChatMessage sends one user message. Whitespace-only text is ignored.
//
// The message is appended, the typing placeholder shown and the backend
// asked once. A redirect reply ends the chat after ChatRedirectDelay; any
// failure shows the localized generic error instead of a reply. While any
// message is still waiting for its reply the placeholder stays last.
func (c *Controller) SendChatMessage(text string) error {
	if err := c.require(OpSendChat, ScreenChat); err != nil {
		return err
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}

	c.render.HideTyping()
	c.render.AppendUser(text)
	c.render.ShowTyping()
	c.chatPending++
	log := c.opLog(OpSendChat)

	c.call(OpSendChat, func(ctx context.Context) func() {
		reply, err := c.backend.Chat(ctx, text)
		return func() {
			c.chatPending--
			c.render.HideTyping()
			defer func() {
				if c.chatPending > 0 {
					c.render.ShowTyping()
				}
			}()

			if err != nil {
				log.WithError(err).Warn("chat request failed")
				c.appendBot(c.Label("generic_error"))
				return
			}

			c.appendBot(reply.Response)
			switch {
			case reply.Unmatched():
				c.session.WrongAttempts++
			case reply.Matched != nil:
				c.session.WrongAttempts = 0
			}

			if reply.ShowRedirect {
				c.session.WrongAttempts = 0
				c.schedule(OpEndChat, ChatRedirectDelay, c.endChat)
			}
		}
	})
	return nil
}

// EndChat leaves the chat for the feedback screen.
func (c *Controller) EndChat() error {
	if err := c.require(OpEndChat, ScreenChat); err != nil {
		return err
	}
	c.endChat()
	return nil
}

func (c *Controller) endChat() {
	c.activate(ScreenFeedback)
	c.feedback = newFeedbackState()
}
