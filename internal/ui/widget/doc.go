// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package widget is the full-screen terminal front-end of the support
// widget, built on Bubble Tea.
//
// The flow controller is only touched from Update. Its background work runs
// on a flow.Loop whose dispatcher sends each continuation and timer back to
// the program as a DispatchMsg:
//
//	loop.SetDispatcher(widget.Dispatcher(p))
//
// List screens are driven with the arrow keys, Enter and the digit of an
// option; text screens take the typed input and submit on Enter.
package widget
