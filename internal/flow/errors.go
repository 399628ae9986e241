// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package flow

import (
	"errors"
	"fmt"
	"strings"
)

// ErrWrongScreen is wrapped by every ScreenError.
var ErrWrongScreen = errors.New("operation not valid on the active screen")

// ScreenError is returned when an operation is called from a screen that
// does not allow it. The session is left untouched.
type ScreenError struct {
	Op   string
	Want []Screen
	Got  Screen
}

func (e *ScreenError) Error() string {
	want := make([]string, len(e.Want))
	for i, s := range e.Want {
		want[i] = s.String()
	}
	return fmt.Sprintf("%s: active screen is %s, want %s", e.Op, e.Got, strings.Join(want, " or "))
}

func (e *ScreenError) Unwrap() error {
	return ErrWrongScreen
}

// ValidationError is user input rejected before any backend call.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Message)
}

// IsWrongScreen reports whether err is a ScreenError.
func IsWrongScreen(err error) bool {
	return errors.Is(err, ErrWrongScreen)
}

// IsValidation reports whether err is a ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}
