// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package transcript

import (
	"sync"
	"time"
)

// =============================================================================
// TYPES
// =============================================================================

// Role identifies who produced a transcript entry.
type Role int

const (
	RoleUser Role = iota
	RoleBot
	RoleTyping
)

// String returns the role name.
func (r Role) String() string {
	switch r {
	case RoleUser:
		return "user"
	case RoleBot:
		return "bot"
	case RoleTyping:
		return "typing"
	default:
		return "unknown"
	}
}

// Entry is one line of the transcript.
type Entry struct {
	Role Role
	Text string
	Time time.Time
}

// Renderer is the message log contract the flow controller drives.
//
// At most one typing placeholder exists at a time. ShowTyping while one is
// shown and HideTyping while none is shown are both no-ops.
type Renderer interface {
	AppendUser(text string)
	AppendBot(text string)
	ShowTyping()
	HideTyping()
	Clear()
}

// =============================================================================
// LOG
// =============================================================================

// Log is an in-memory Renderer. The follower, if set, is called after every
// append so a view can keep the latest entry visible.
type Log struct {
	mu       sync.Mutex
	entries  []Entry
	follower func()
	now      func() time.Time
}

// NewLog creates an empty log.
func NewLog() *Log {
	return &Log{now: time.Now}
}

// SetFollower sets the function called after each append.
func (l *Log) SetFollower(fn func()) {
	l.mu.Lock()
	l.follower = fn
	l.mu.Unlock()
}

// AppendUser appends a user entry.
func (l *Log) AppendUser(text string) {
	l.append(Entry{Role: RoleUser, Text: text})
}

// AppendBot appends a bot entry.
func (l *Log) AppendBot(text string) {
	l.append(Entry{Role: RoleBot, Text: text})
}

// ShowTyping appends the typing placeholder unless one is already shown.
func (l *Log) ShowTyping() {
	l.mu.Lock()
	if l.typingIndex() >= 0 {
		l.mu.Unlock()
		return
	}
	l.mu.Unlock()
	l.append(Entry{Role: RoleTyping})
}

// HideTyping removes the typing placeholder if present.
func (l *Log) HideTyping() {
	l.mu.Lock()
	defer l.mu.Unlock()
	if i := l.typingIndex(); i >= 0 {
		l.entries = append(l.entries[:i], l.entries[i+1:]...)
	}
}

// Clear removes every entry.
func (l *Log) Clear() {
	l.mu.Lock()
	l.entries = nil
	l.mu.Unlock()
}

// Entries returns a copy of the current entries in order.
func (l *Log) Entries() []Entry {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]Entry, len(l.entries))
	copy(out, l.entries)
	return out
}

// Len returns the number of entries, including the typing placeholder.
func (l *Log) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.entries)
}

// Typing reports whether the typing placeholder is shown.
func (l *Log) Typing() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.typingIndex() >= 0
}

func (l *Log) append(e Entry) {
	l.mu.Lock()
	e.Time = l.now()
	l.entries = append(l.entries, e)
	follow := l.follower
	l.mu.Unlock()

	if follow != nil {
		follow()
	}
}

// typingIndex returns the index of the placeholder or -1. Caller holds mu.
func (l *Log) typingIndex() int {
	for i := len(l.entries) - 1; i >= 0; i-- {
		if l.entries[i].Role == RoleTyping {
			return i
		}
	}
	return -1
}

// =============================================================================
// TEE
// =============================================================================

// Tee returns a Renderer that forwards every call to each of rs in order.
func Tee(rs ...Renderer) Renderer {
	return tee(rs)
}

type tee []Renderer

func (t tee) AppendUser(text string) {
	for _, r := range t {
		r.AppendUser(text)
	}
}

func (t tee) AppendBot(text string) {
	for _, r := range t {
		r.AppendBot(text)
	}
}

func (t tee) ShowTyping() {
	for _, r := range t {
		r.ShowTyping()
	}
}

func (t tee) HideTyping() {
	for _, r := range t {
		r.HideTyping()
	}
}

func (t tee) Clear() {
	for _, r := range t {
		r.Clear()
	}
}
