// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package i18n

import "sync"

// Cache holds the active language and its translation map.
//
// Cache is safe for concurrent use, although the flow controller only ever
// touches it from its event loop.
type Cache struct {
	mu       sync.RWMutex
	language string
	strings  map[string]string
}

// NewCache creates an empty cache for the given language code.
func NewCache(language string) *Cache {
	if language == "" {
		language = DefaultLanguage
	}
	return &Cache{
		language: language,
		strings:  make(map[string]string),
	}
}

// SetLanguage replaces the active language code. The current map is kept
// until Load replaces it.
func (c *Cache) SetLanguage(code string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.language = code
}

// Language returns the active language code.
func (c *Cache) Language() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.language
}

// Load replaces the whole mapping. The caller's map is copied so later
// mutation on their side cannot leak into the cache.
func (c *Cache) Load(m map[string]string) {
	next := make(map[string]string, len(m))
	for k, v := range m {
		next[k] = v
	}

	c.mu.Lock()
	c.strings = next
	c.mu.Unlock()
}

// Get returns the string mapped to key, or fallback when the key is absent
// or maps to an empty string.
func (c *Cache) Get(key, fallback string) string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if v, ok := c.strings[key]; ok && v != "" {
		return v
	}
	return fallback
}

// Len returns the number of keys currently loaded.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.strings)
}
