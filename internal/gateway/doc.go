// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package gateway is the HTTP client for the CKYC support backend.
//
// Every operation is a single request/response exchange with no retry. The
// backend keeps its conversation state in a cookie session, so a Client
// holds a cookie jar and should be shared by every call of one widget
// session.
//
// # Key Types
//
//   - Client: the nine backend operations
//   - Config: base URL, timeout and user agent
//   - ClientError: uniform failure type (transport or backend)
//
// # Usage
//
//	client, err := gateway.NewClientWithConfig(gateway.Config{BaseURL: "http://127.0.0.1:5000"})
//	reply, err := client.Chat(ctx, "what is ckyc")
//	if msg, ok := gateway.BackendMessage(err); ok {
//	    // show msg verbatim
//	}
package gateway
