// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package flow

import (
	"context"
	"sync"
	"sync/atomic"
	"time"
)

// =============================================================================
// LOOP
// =============================================================================

// Loop is the production Runner. It owns one event goroutine that runs every
// controller call and continuation, and one worker goroutine that runs
// background work strictly in submission order, so backend requests leave in
// the order the user caused them.
//
// When a dispatcher is set (for example a Bubble Tea program's Send), events
// are handed to it instead of the Loop's own event goroutine.
type Loop struct {
	events   chan func()
	dispatch func(func())

	mu    sync.Mutex
	queue []job
	wake  chan struct{}

	pending atomic.Int64
	started atomic.Bool
	done    chan struct{}
	wg      sync.WaitGroup
	once    sync.Once
}

type job struct {
	ctx  context.Context
	work func(ctx context.Context) func()
}

// NewLoop creates a stopped loop.
func NewLoop() *Loop {
	return &Loop{
		events: make(chan func(), 64),
		wake:   make(chan struct{}, 1),
		done:   make(chan struct{}),
	}
}

// SetDispatcher routes events to fn instead of the Loop's event goroutine.
// It must be called before Start.
func (l *Loop) SetDispatcher(fn func(func())) {
	l.dispatch = fn
}

// =============================================================================
// LIFECYCLE
// =============================================================================

// Start launches the worker, and the event goroutine unless a dispatcher is
// set. Calling Start twice is a no-op.
func (l *Loop) Start() {
	if !l.started.CompareAndSwap(false, true) {
		return
	}
	l.wg.Add(1)
	go l.workLoop()
	if l.dispatch == nil {
		l.wg.Add(1)
		go l.eventLoop()
	}
}

// Stop stops both goroutines. Queued work that has not started is dropped
// and pending timers deliver nothing.
func (l *Loop) Stop() {
	l.once.Do(func() {
		close(l.done)
	})
	l.wg.Wait()
}

func (l *Loop) eventLoop() {
	defer l.wg.Done()
	for {
		select {
		case <-l.done:
			return
		case fn := <-l.events:
			fn()
		}
	}
}

func (l *Loop) workLoop() {
	defer l.wg.Done()
	for {
		j, ok := l.next()
		if !ok {
			select {
			case <-l.done:
				return
			case <-l.wake:
			}
			continue
		}

		cont := j.work(j.ctx)
		l.Post(func() {
			defer l.pending.Add(-1)
			if cont != nil {
				cont()
			}
		})
	}
}

func (l *Loop) next() (job, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if len(l.queue) == 0 {
		return job{}, false
	}
	j := l.queue[0]
	l.queue[0] = job{}
	l.queue = l.queue[1:]
	return j, true
}

// =============================================================================
// RUNNER
// =============================================================================

// Go queues work for the worker.
func (l *Loop) Go(ctx context.Context, work func(ctx context.Context) func()) {
	l.pending.Add(1)
	l.mu.Lock()
	l.queue = append(l.queue, job{ctx: ctx, work: work})
	l.mu.Unlock()

	select {
	case l.wake <- struct{}{}:
	default:
	}
}

// After posts fn to the event goroutine once d has elapsed.
func (l *Loop) After(d time.Duration, fn func()) func() {
	t := time.AfterFunc(d, func() {
		l.Post(fn)
	})
	return func() { t.Stop() }
}

// Post runs fn on the event goroutine. It returns without running fn once
// the loop is stopped.
func (l *Loop) Post(fn func()) {
	select {
	case <-l.done:
		return
	default:
	}
	if l.dispatch != nil {
		l.dispatch(fn)
		return
	}
	select {
	case l.events <- fn:
	case <-l.done:
	}
}

// Do runs fn on the event goroutine and waits for it to return. It must not
// be called from the event goroutine itself.
func (l *Loop) Do(fn func()) {
	finished := make(chan struct{})
	l.Post(func() {
		defer close(finished)
		fn()
	})
	select {
	case <-finished:
	case <-l.done:
	}
}

// Pending returns the number of background jobs whose continuation has not
// run yet.
func (l *Loop) Pending() int {
	return int(l.pending.Load())
}

// WaitIdle blocks until no background job is pending or ctx is done.
// Timers are not waited for.
func (l *Loop) WaitIdle(ctx context.Context) error {
	ticker := time.NewTicker(10 * time.Millisecond)
	defer ticker.Stop()

	for l.Pending() > 0 {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-l.done:
			return nil
		case <-ticker.C:
		}
	}
	return nil
}
