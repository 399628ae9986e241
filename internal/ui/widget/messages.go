// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package widget

import tea "github.com/charmbracelet/bubbletea"

// DispatchMsg carries a controller continuation or timer callback onto the
// Bubble Tea goroutine.
type DispatchMsg struct {
	Fn func()
}

// Dispatcher returns a flow.Loop dispatcher that forwards events to p.
func Dispatcher(p *tea.Program) func(func()) {
	return func(fn func()) {
		p.Send(DispatchMsg{Fn: fn})
	}
}

// exportedMsg reports the result of a transcript export.
type exportedMsg struct {
	Path string
	Err  error
}

// copiedMsg reports the result of copying the transcript to the clipboard.
type copiedMsg struct {
	Err error
}
