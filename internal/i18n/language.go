// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package i18n

import (
	"fmt"
	"strings"

	"golang.org/x/text/language"
)

// Supported language codes.
const (
	English = "en"
	Hindi   = "hi"

	DefaultLanguage = English
)

// supported lists the languages the widget ships built-in text for.
var supported = []string{English, Hindi}

// Supported returns the language codes with built-in text.
func Supported() []string {
	out := make([]string, len(supported))
	copy(out, supported)
	return out
}

// IsSupported reports whether code is one of the built-in languages.
func IsSupported(code string) bool {
	for _, s := range supported {
		if s == code {
			return true
		}
	}
	return false
}

// Normalize reduces a BCP 47 tag such as "EN", "en-US" or "hi-IN" to its
// base language code. It fails for malformed tags.
func Normalize(code string) (string, error) {
	code = strings.TrimSpace(code)
	if code == "" {
		return "", fmt.Errorf("empty language code")
	}
	tag, err := language.Parse(code)
	if err != nil {
		return "", fmt.Errorf("invalid language code %q: %w", code, err)
	}
	base, _ := tag.Base()
	return base.String(), nil
}

// DisplayName returns the name of a language written in that language, for
// the language selection screen.
func DisplayName(code string) string {
	switch code {
	case English:
		return "English"
	case Hindi:
		return "हिन्दी"
	default:
		return code
	}
}
