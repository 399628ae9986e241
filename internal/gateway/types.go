// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package gateway

import "encoding/json"

// UserType is the wire value of the user type.
type UserType string

const (
	UserTypeEntity UserType = "re"
	UserTypeClient UserType = "client"
)

// ChatReply is the backend's answer to a chat message.
type ChatReply struct {
	Response string `json:"response"`

	// Matched is nil when the backend did not say.
	Matched *bool `json:"matched,omitempty"`

	// ShowRedirect asks the widget to end the chat after a delay.
	ShowRedirect bool `json:"show_redirect,omitempty"`
}

// Unmatched reports whether the backend explicitly said it did not
// understand the message.
func (r ChatReply) Unmatched() bool {
	return r.Matched != nil && !*r.Matched
}

// LookupReply is the text result of a status, wallet or mismatch lookup.
type LookupReply struct {
	Response string `json:"response"`
}

// Feedback is one feedback submission.
type Feedback struct {
	Rating       string `json:"rating"`
	RatingValue  int    `json:"rating_value"`
	FeedbackText string `json:"feedback_text"`
}

// FeedbackReply is the backend's confirmation text.
type FeedbackReply struct {
	Response string `json:"response"`
}

// =============================================================================
// REQUEST BODIES
// =============================================================================

type languageRequest struct {
	Language string `json:"language"`
}

type userTypeRequest struct {
	UserType UserType `json:"user_type"`
}

type chatRequest struct {
	Message string `json:"message"`
}

type statusRequest struct {
	RegNumber string `json:"reg_number"`
}

type walletRequest struct {
	RENumber string `json:"re_number"`
	Option   int    `json:"option"`
}

type mismatchRequest struct {
	CKYCNumber string `json:"ckyc_number"`
}

// errorEnvelope detects a structured error in any response body.
type errorEnvelope struct {
	Error json.RawMessage `json:"error"`
}

// message returns the error text and whether an error field was present.
func (e errorEnvelope) message() (string, bool) {
	if len(e.Error) == 0 || string(e.Error) == "null" {
		return "", false
	}
	var s string
	if err := json.Unmarshal(e.Error, &s); err == nil {
		return s, true
	}
	return string(e.Error), true
}
