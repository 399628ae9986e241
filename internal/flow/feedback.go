// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package flow

import (
	"context"
	"fmt"
	"strings"

	"github.com/jeranaias/ckyc-assist/internal/gateway"
)

// SelectRating selects one rating button. Ratings of 2 or less reveal the
// free-text box and wait for SubmitFeedback; higher ratings are submitted
// at once without free text. An empty label uses the button's own label.
func (c *Controller) SelectRating(value int, label string) error {
	if err := c.require(OpSelectRating, ScreenFeedback); err != nil {
		return err
	}
	if value < 1 || value > len(Ratings) {
		return &ValidationError{Field: "rating", Message: fmt.Sprintf("must be between 1 and %d", len(Ratings))}
	}
	if !c.feedback.ButtonsVisible || c.feedback.Submitting {
		return nil
	}
	if label == "" {
		label = c.Label(Ratings[value-1].Key)
	}

	c.feedback.Selected = value
	c.feedback.RatingLabel = label

	if needsComment(value) {
		c.feedback.TextBoxVisible = true
		return nil
	}
	c.submit("")
	return nil
}

// SetFeedbackText stores the free text of the draft.
func (c *Controller) SetFeedbackText(text string) error {
	if err := c.require(OpFeedbackText, ScreenFeedback); err != nil {
		return err
	}
	c.feedback.Text = text
	return nil
}

// SubmitFeedback sends the selected rating and the free text. It is a no-op
// without a selected rating or while a submission is outstanding.
//
// A failed submission is not shown to the user and not retried; it is
// logged and counted so operators can see it.
func (c *Controller) SubmitFeedback() error {
	if err := c.require(OpSubmitFeedback, ScreenFeedback); err != nil {
		return err
	}
	if c.feedback.Selected == 0 || c.feedback.Submitting || !c.feedback.ButtonsVisible {
		return nil
	}
	c.submit(strings.TrimSpace(c.feedback.Text))
	return nil
}

func (c *Controller) submit(text string) {
	fb := gateway.Feedback{
		Rating:       c.feedback.RatingLabel,
		RatingValue:  c.feedback.Selected,
		FeedbackText: text,
	}
	c.feedback.Submitting = true
	log := c.opLog(OpSubmitFeedback).WithField("rating", fb.RatingValue)

	c.call(OpSubmitFeedback, func(ctx context.Context) func() {
		reply, err := c.backend.SubmitFeedback(ctx, fb)
		return func() {
			c.feedback.Submitting = false
			c.metrics.RecordFeedback(c.base, fb.RatingValue, err)
			if err != nil {
				log.WithError(err).Warn("feedback submission failed (not shown to user)")
				return
			}

			c.feedback.Response = reply.Response
			c.feedback.ResponseVisible = true
			c.feedback.ButtonsVisible = false
			c.feedback.TextBoxVisible = false
			c.feedback.Subtitle = c.Label("feedback_submitted")
			log.Info("feedback submitted")

			c.schedule(OpShowThankYou, ThankYouDelay, func() {
				c.activate(ScreenThankYou)
			})
		}
	})
}
