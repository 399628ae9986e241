// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package flow implements the conversation flow controller of the support
// widget: a finite state machine over named screens, the input rules for
// each screen, and the orchestration of backend calls, the transcript and
// the translation cache.
//
// The Controller is not safe for concurrent use. Every method, and every
// continuation or timer callback it schedules, runs on one event goroutine.
// Backend calls run off that goroutine through a Runner; their results come
// back as continuations that are dropped when the screen that issued them
// is no longer active.
//
// # Key Types
//
//   - Controller: screens, transitions, validation and orchestration
//   - Runner: background work and timers, delivered on the event goroutine
//   - Loop: the production Runner (FIFO worker + event goroutine)
//   - Snapshot: read-only copy of the controller state for rendering
//
// # Screens
//
//	language -> userType -> menu -> apiHub -> registrationLookup
//	                             |          -> walletLookup
//	                             |          -> mismatchLookup
//	                             -> chat -> feedback -> thankYou
//
// ReturnToMenu is the back edge from every screen below menu.
// ResetSession returns to language from anywhere.
//
// # Usage
//
//	loop := flow.NewLoop()
//	loop.Start()
//	defer loop.Stop()
//
//	ctrl, err := flow.New(flow.Config{
//	    Backend:  client,
//	    Renderer: transcript.NewLog(),
//	    Cache:    i18n.NewCache("en"),
//	    Runner:   loop,
//	})
//	loop.Do(func() { _ = ctrl.SelectLanguage("en") })
package flow
