// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package gateway

import (
	"errors"
	"fmt"
)

// ErrorType categorizes client errors for handling.
type ErrorType int

const (
	ErrTypeUnknown ErrorType = iota

	// ErrTypeTransport covers network failures, request construction and
	// undecodable responses.
	ErrTypeTransport

	// ErrTypeBackend covers structured {"error": ...} payloads and non-2xx
	// statuses.
	ErrTypeBackend
)

// String returns the error type name.
func (t ErrorType) String() string {
	switch t {
	case ErrTypeTransport:
		return "transport"
	case ErrTypeBackend:
		return "backend"
	default:
		return "unknown"
	}
}

// ClientError represents an error from a backend operation.
type ClientError struct {
	Type ErrorType
	Op   string

	// Status is the HTTP status, or 0 when no response was received.
	Status int

	// Message is the backend's error text when Remote is set, otherwise a
	// short description.
	Message string

	// Remote is set when Message came from the backend's error field.
	Remote bool

	Cause error
}

func (e *ClientError) Error() string {
	msg := fmt.Sprintf("%s: %s", e.Op, e.Message)
	if e.Cause != nil {
		msg += ": " + e.Cause.Error()
	}
	return msg
}

func (e *ClientError) Unwrap() error {
	return e.Cause
}

// IsTransport reports whether err is a transport failure.
func IsTransport(err error) bool {
	var ce *ClientError
	return errors.As(err, &ce) && ce.Type == ErrTypeTransport
}

// IsBackend reports whether err is a backend-signalled failure.
func IsBackend(err error) bool {
	var ce *ClientError
	return errors.As(err, &ce) && ce.Type == ErrTypeBackend
}

// BackendMessage returns the backend's error text when err carries one.
// A bare non-2xx status without an error payload has no message.
func BackendMessage(err error) (string, bool) {
	var ce *ClientError
	if !errors.As(err, &ce) || ce.Type != ErrTypeBackend || !ce.Remote {
		return "", false
	}
	return ce.Message, true
}

func transportError(op, msg string, cause error) *ClientError {
	return &ClientError{Type: ErrTypeTransport, Op: op, Message: msg, Cause: cause}
}
