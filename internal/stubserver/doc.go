// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package stubserver is a development backend for the support widget.
//
// It serves the endpoints the gateway client calls, with canned data:
//   - POST /api/set-language     - Store the session language
//   - GET  /api/translations     - Key to string map for ?lang=
//   - POST /api/set-user-type    - Store the user type ("re" or "client")
//   - POST /api/chat             - Greeting, FAQ keyword match or fallback
//   - POST /api/check-status     - Simulated registration status
//   - POST /api/wallet-inquiry   - Simulated wallet figures (options 1-4)
//   - POST /api/mismatch-check   - 14-digit check and a simulated record
//   - POST /api/feedback         - Rating acknowledgement
//   - POST /api/end-chat         - Closing text
//   - POST /api/reset            - Fresh session
//   - GET  /api/report           - Interaction totals for a period
//   - GET  /api/health           - Liveness
//
// Sessions are kept in memory behind an opaque cookie. Every interaction is
// logged to SQLite, in memory unless a database path is configured.
//
// FAQs are built in unless Config.FAQPath names a JSON file, which is then
// reloaded whenever it changes. Requests are rate limited per client host.
//
// Usage:
//
//	srv, err := stubserver.New(stubserver.Config{Addr: "127.0.0.1:5000"})
//	if err != nil {
//	    return err
//	}
//	go srv.Start()
//	defer srv.Shutdown(ctx)
package stubserver
