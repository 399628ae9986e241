// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// errors.go - Error types and exit codes shared by all commands.
//
// Handlers always return errors; main displays them and picks the exit
// code.

package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/jeranaias/ckyc-assist/internal/config"
	"github.com/jeranaias/ckyc-assist/internal/gateway"
)

// =============================================================================
// EXIT CODES
// =============================================================================

const (
	// ExitSuccess indicates successful execution
	ExitSuccess = 0
	// ExitGeneralError indicates a general/unknown error
	ExitGeneralError = 1
	// ExitUsageError indicates invalid command usage or arguments
	ExitUsageError = 2
	// ExitConfigError indicates configuration file or settings error
	ExitConfigError = 3
	// ExitNetworkError indicates network or connectivity error
	ExitNetworkError = 5
)

// =============================================================================
// ERROR TYPES
// =============================================================================

// CommandError represents a CLI command error with context.
type CommandError struct {
	Command string // Command that failed (e.g., "stub", "chat")
	Action  string // Action being performed (e.g., "listen", "export")
	Err     error
}

func (e *CommandError) Error() string {
	return fmt.Sprintf("%s %s failed: %v", e.Command, e.Action, e.Err)
}

func (e *CommandError) Unwrap() error {
	return e.Err
}

// UsageError is a malformed command line.
type UsageError struct {
	Command string
	Reason  string
}

func (e *UsageError) Error() string {
	if e.Command != "" {
		return e.Command + ": " + e.Reason
	}
	return e.Reason
}

// =============================================================================
// DISPLAY
// =============================================================================

// DisplayError writes err in a consistent format. In JSON mode it writes a
// structured object instead.
func DisplayError(w io.Writer, err error, jsonMode bool) {
	if err == nil {
		return
	}
	if jsonMode {
		displayErrorJSON(w, err)
		return
	}
	fmt.Fprintf(w, "%s %s\n", ErrorStyle.Render("[ERROR]"), err.Error())

	var ue *UsageError
	if errors.As(err, &ue) {
		fmt.Fprintln(w, DimStyle.Render("Run 'ckyc-assist help' for usage."))
	}
}

func displayErrorJSON(w io.Writer, err error) {
	output := map[string]any{
		"error":   err.Error(),
		"success": false,
	}

	var (
		ue *UsageError
		ce *CommandError
		ve config.ValidateErrors
	)
	switch {
	case errors.As(err, &ue):
		output["error_type"] = "usage_error"
	case errors.As(err, &ve):
		output["error_type"] = "config_error"
		fields := make([]string, len(ve))
		for i, v := range ve {
			fields[i] = v.Field
		}
		output["fields"] = fields
	case errors.As(err, &ce):
		output["error_type"] = "command_error"
		output["command"] = ce.Command
		output["action"] = ce.Action
	default:
		output["error_type"] = "generic_error"
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	_ = enc.Encode(output)
}

// GetExitCode determines the exit code for an error.
func GetExitCode(err error) int {
	if err == nil {
		return ExitSuccess
	}

	var ue *UsageError
	if errors.As(err, &ue) {
		return ExitUsageError
	}
	var ve config.ValidateErrors
	if errors.As(err, &ve) {
		return ExitConfigError
	}
	if gateway.IsTransport(err) {
		return ExitNetworkError
	}
	return ExitGeneralError
}
