// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package i18n holds the translation cache used by the flow controller.
//
// The cache keeps the active language code and the key→string mapping
// fetched from the backend. A mapping is always replaced as a whole; lookups
// never fall back to an empty string implicitly, every caller passes the
// text to use when a key is missing.
//
// # Key Types
//
//   - Cache: active language plus the current translation map
//
// # Usage
//
//	cache := i18n.NewCache(i18n.DefaultLanguage)
//	cache.Load(fetched)
//	title := cache.Get("welcome_title", i18n.Builtin(cache.Language(), "welcome_title"))
package i18n
