// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package flow

import (
	"context"
	"time"
)

// Runner is the scheduling seam of the Controller.
//
// Both methods are called on the event goroutine. Continuations returned by
// work and timer callbacks must be delivered back on that same goroutine.
type Runner interface {
	// Go runs work off the event goroutine, in submission order, then runs
	// the continuation it returns (if any) on the event goroutine.
	Go(ctx context.Context, work func(ctx context.Context) func())

	// After runs fn on the event goroutine once d has elapsed. The returned
	// function stops the timer; calling it after fn ran is a no-op.
	After(d time.Duration, fn func()) (stop func())
}
