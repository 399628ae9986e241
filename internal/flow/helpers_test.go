// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package flow

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"

	"github.com/jeranaias/ckyc-assist/internal/gateway"
	"github.com/jeranaias/ckyc-assist/internal/i18n"
	"github.com/jeranaias/ckyc-assist/internal/telemetry"
	"github.com/jeranaias/ckyc-assist/internal/transcript"
)

// =============================================================================
// MANUAL RUNNER
// =============================================================================

// manualRunner runs nothing until told to. Flush runs queued work and its
// continuations; Advance moves a virtual clock and fires due timers.
type manualRunner struct {
	jobs   []manualJob
	timers []*manualTimer
	now    time.Duration
}

type manualJob struct {
	ctx  context.Context
	work func(ctx context.Context) func()
}

type manualTimer struct {
	at      time.Duration
	delay   time.Duration
	fn      func()
	stopped bool
	fired   bool
}

func (r *manualRunner) Go(ctx context.Context, work func(ctx context.Context) func()) {
	r.jobs = append(r.jobs, manualJob{ctx: ctx, work: work})
}

func (r *manualRunner) After(d time.Duration, fn func()) func() {
	t := &manualTimer{at: r.now + d, delay: d, fn: fn}
	r.timers = append(r.timers, t)
	return func() { t.stopped = true }
}

// Flush runs every queued job and continuation, including jobs queued by
// continuations.
func (r *manualRunner) Flush() {
	for len(r.jobs) > 0 {
		j := r.jobs[0]
		r.jobs = r.jobs[1:]
		if cont := j.work(j.ctx); cont != nil {
			cont()
		}
	}
}

// RunWork runs queued work but returns the continuations instead of running
// them, to simulate a reply that arrives after the user moved on.
func (r *manualRunner) RunWork() []func() {
	var conts []func()
	for len(r.jobs) > 0 {
		j := r.jobs[0]
		r.jobs = r.jobs[1:]
		if cont := j.work(j.ctx); cont != nil {
			conts = append(conts, cont)
		}
	}
	return conts
}

// Advance moves the clock by d, firing due timers in time order.
func (r *manualRunner) Advance(d time.Duration) {
	target := r.now + d
	for {
		due := r.due(target)
		if len(due) == 0 {
			break
		}
		t := due[0]
		r.now = t.at
		t.fired = true
		t.fn()
		r.Flush()
	}
	r.now = target
}

func (r *manualRunner) due(limit time.Duration) []*manualTimer {
	var out []*manualTimer
	for _, t := range r.timers {
		if !t.stopped && !t.fired && t.at <= limit {
			out = append(out, t)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].at < out[j].at })
	return out
}

// activeTimers returns the delays of timers that are neither stopped nor
// fired.
func (r *manualRunner) activeTimers() []time.Duration {
	var out []time.Duration
	for _, t := range r.timers {
		if !t.stopped && !t.fired {
			out = append(out, t.delay)
		}
	}
	return out
}

// =============================================================================
// FAKE BACKEND
// =============================================================================

var errTransport = &gateway.ClientError{Type: gateway.ErrTypeTransport, Op: "test", Message: "connection refused"}

func backendErr(msg string) error {
	return &gateway.ClientError{Type: gateway.ErrTypeBackend, Op: "test", Status: 400, Message: msg, Remote: true}
}

type fakeBackend struct {
	mu sync.Mutex

	calls []string

	translations    map[string]map[string]string
	translationsErr error
	setLanguageErr  error

	chat func(message string) (gateway.ChatReply, error)

	lookupReply gateway.LookupReply
	lookupErr   error

	feedback      []gateway.Feedback
	feedbackReply gateway.FeedbackReply
	feedbackErr   error

	sessionIDs []string
}

func newFakeBackend() *fakeBackend {
	return &fakeBackend{
		translations: map[string]map[string]string{
			i18n.English: i18n.Catalog(i18n.English),
			i18n.Hindi:   i18n.Catalog(i18n.Hindi),
		},
		chat: func(string) (gateway.ChatReply, error) {
			return gateway.ChatReply{Response: "ok"}, nil
		},
		lookupReply:   gateway.LookupReply{Response: "Status: Accepted"},
		feedbackReply: gateway.FeedbackReply{Response: "thanks"},
	}
}

func (b *fakeBackend) record(format string, args ...any) {
	b.mu.Lock()
	b.calls = append(b.calls, fmt.Sprintf(format, args...))
	b.mu.Unlock()
}

func (b *fakeBackend) Calls() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]string(nil), b.calls...)
}

func (b *fakeBackend) SetSessionID(id string) {
	b.mu.Lock()
	b.sessionIDs = append(b.sessionIDs, id)
	b.mu.Unlock()
}

func (b *fakeBackend) SetLanguage(_ context.Context, code string) error {
	b.record("setLanguage %s", code)
	return b.setLanguageErr
}

func (b *fakeBackend) Translations(_ context.Context, code string) (map[string]string, error) {
	b.record("getTranslations %s", code)
	if b.translationsErr != nil {
		return nil, b.translationsErr
	}
	return b.translations[code], nil
}

func (b *fakeBackend) SetUserType(_ context.Context, t gateway.UserType) error {
	b.record("setUserType %s", t)
	return nil
}

func (b *fakeBackend) Chat(_ context.Context, message string) (gateway.ChatReply, error) {
	b.record("chat %s", message)
	return b.chat(message)
}

func (b *fakeBackend) CheckStatus(_ context.Context, regNumber string) (gateway.LookupReply, error) {
	b.record("checkStatus %s", regNumber)
	return b.lookupReply, b.lookupErr
}

func (b *fakeBackend) WalletInquiry(_ context.Context, reNumber string, option int) (gateway.LookupReply, error) {
	b.record("walletInquiry %s %d", reNumber, option)
	return b.lookupReply, b.lookupErr
}

func (b *fakeBackend) MismatchCheck(_ context.Context, ckycNumber string) (gateway.LookupReply, error) {
	b.record("mismatchCheck %s", ckycNumber)
	return b.lookupReply, b.lookupErr
}

func (b *fakeBackend) SubmitFeedback(_ context.Context, fb gateway.Feedback) (gateway.FeedbackReply, error) {
	b.record("submitFeedback %d", fb.RatingValue)
	b.mu.Lock()
	b.feedback = append(b.feedback, fb)
	b.mu.Unlock()
	return b.feedbackReply, b.feedbackErr
}

func (b *fakeBackend) ResetSession(_ context.Context) error {
	b.record("resetSession")
	return nil
}

// =============================================================================
// HARNESS
// =============================================================================

type harness struct {
	ctrl    *Controller
	backend *fakeBackend
	runner  *manualRunner
	log     *transcript.Log
	hook    *test.Hook
	reader  *sdkmetric.ManualReader
}

func newHarness(t *testing.T) *harness {
	t.Helper()

	logger, hook := test.NewNullLogger()
	logger.SetLevel(logrus.DebugLevel)

	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	t.Cleanup(func() { _ = mp.Shutdown(context.Background()) })
	metrics, err := telemetry.NewMetrics(mp)
	require.NoError(t, err)

	h := &harness{
		backend: newFakeBackend(),
		runner:  &manualRunner{},
		log:     transcript.NewLog(),
		hook:    hook,
		reader:  reader,
	}
	ids := 0
	h.ctrl, err = New(Config{
		Backend:    h.backend,
		Renderer:   h.log,
		Runner:     h.runner,
		WidgetOpen: true,
		Metrics:    metrics,
		Logger:     logrus.NewEntry(logger),
		NewID: func() string {
			ids++
			return fmt.Sprintf("session-%d", ids)
		},
	})
	require.NoError(t, err)
	return h
}

// toMenu drives a fresh controller to the menu as an English client.
func (h *harness) toMenu(t *testing.T) {
	t.Helper()
	require.NoError(t, h.ctrl.SelectLanguage("en"))
	h.runner.Flush()
	require.NoError(t, h.ctrl.SelectUserType(UserTypeClient))
	h.runner.Flush()
	require.Equal(t, ScreenMenu, h.ctrl.Screen())
}

func (h *harness) toChat(t *testing.T) {
	t.Helper()
	h.toMenu(t)
	require.NoError(t, h.ctrl.SelectMenuOption(MenuChat))
}

func (h *harness) toLookup(t *testing.T, kind LookupKind) {
	t.Helper()
	h.toMenu(t)
	require.NoError(t, h.ctrl.SelectMenuOption(MenuStatus))
	require.NoError(t, h.ctrl.SelectLookup(kind))
}

func (h *harness) toFeedback(t *testing.T) {
	t.Helper()
	h.toChat(t)
	require.NoError(t, h.ctrl.EndChat())
	require.Equal(t, ScreenFeedback, h.ctrl.Screen())
}

// counter sums an int64 counter's data points matching attrs.
func (h *harness) counter(t *testing.T, name string, attrs ...attribute.KeyValue) int64 {
	t.Helper()
	var rm metricdata.ResourceMetrics
	require.NoError(t, h.reader.Collect(context.Background(), &rm))

	var total int64
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			if m.Name != name {
				continue
			}
			sum, ok := m.Data.(metricdata.Sum[int64])
			require.True(t, ok)
			for _, dp := range sum.DataPoints {
				match := true
				for _, a := range attrs {
					if v, ok := dp.Attributes.Value(a.Key); !ok || v != a.Value {
						match = false
					}
				}
				if match {
					total += dp.Value
				}
			}
		}
	}
	return total
}

func entries(l *transcript.Log) []string {
	var out []string
	for _, e := range l.Entries() {
		out = append(out, e.Role.String()+": "+e.Text)
	}
	return out
}

func hasCall(calls []string, prefix string) bool {
	for _, c := range calls {
		if strings.HasPrefix(c, prefix) {
			return true
		}
	}
	return false
}
