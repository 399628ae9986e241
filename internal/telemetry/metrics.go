// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package telemetry

import (
	"context"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// meterName is the instrumentation scope for every ckyc-assist metric.
const meterName = "github.com/jeranaias/ckyc-assist"

// Status attribute values for gateway calls.
const (
	StatusOK        = "ok"
	StatusTransport = "transport_error"
	StatusBackend   = "backend_error"
)

// Metrics holds all OpenTelemetry metric instruments for the application.
// The OTel instruments do their own synchronisation.
type Metrics struct {
	// GatewayRequests counts backend calls by op and status.
	GatewayRequests metric.Int64Counter

	// GatewayDuration tracks backend call latency by op.
	GatewayDuration metric.Float64Histogram

	// StaleDiscards counts continuations and timers dropped because their
	// screen was left. Attribute kind is "continuation" or "timer".
	StaleDiscards metric.Int64Counter

	// Transitions counts screen activations by target screen.
	Transitions metric.Int64Counter

	// FeedbackFailures counts feedback submissions that failed.
	FeedbackFailures metric.Int64Counter

	// FeedbackRatings counts submitted ratings by value.
	FeedbackRatings metric.Int64Counter

	// HTTPRequestDuration tracks stub backend request time by method and route.
	HTTPRequestDuration metric.Float64Histogram
}

// latencyBuckets are histogram bucket boundaries in seconds.
var latencyBuckets = []float64{
	0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10,
}

// NewMetrics creates every instrument on the given provider.
func NewMetrics(mp metric.MeterProvider) (*Metrics, error) {
	m := mp.Meter(meterName)
	var err error
	met := &Metrics{}

	if met.GatewayRequests, err = m.Int64Counter("ckyc.gateway.requests",
		metric.WithDescription("Backend requests by operation and status."),
	); err != nil {
		return nil, err
	}
	if met.GatewayDuration, err = m.Float64Histogram("ckyc.gateway.duration",
		metric.WithDescription("Backend request latency by operation."),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(latencyBuckets...),
	); err != nil {
		return nil, err
	}
	if met.StaleDiscards, err = m.Int64Counter("ckyc.flow.stale_discards",
		metric.WithDescription("Continuations and timers discarded after a screen change."),
	); err != nil {
		return nil, err
	}
	if met.Transitions, err = m.Int64Counter("ckyc.flow.transitions",
		metric.WithDescription("Screen activations by target screen."),
	); err != nil {
		return nil, err
	}
	if met.FeedbackFailures, err = m.Int64Counter("ckyc.feedback.failures",
		metric.WithDescription("Feedback submissions that failed."),
	); err != nil {
		return nil, err
	}
	if met.FeedbackRatings, err = m.Int64Counter("ckyc.feedback.ratings",
		metric.WithDescription("Feedback ratings submitted by value."),
	); err != nil {
		return nil, err
	}
	if met.HTTPRequestDuration, err = m.Float64Histogram("ckyc.http.request.duration",
		metric.WithDescription("Stub backend request latency by method and route."),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(latencyBuckets...),
	); err != nil {
		return nil, err
	}

	return met, nil
}

var (
	defaultMetrics     *Metrics
	defaultMetricsOnce sync.Once
)

// Default returns the package-level Metrics, created on first call from
// otel.GetMeterProvider. Call InitProvider first if the metrics should be
// exported.
func Default() *Metrics {
	defaultMetricsOnce.Do(func() {
		var err error
		defaultMetrics, err = NewMetrics(otel.GetMeterProvider())
		if err != nil {
			panic("telemetry: failed to create default metrics: " + err.Error())
		}
	})
	return defaultMetrics
}

// RecordGatewayCall records one backend call.
func (m *Metrics) RecordGatewayCall(ctx context.Context, op, status string, d time.Duration) {
	m.GatewayRequests.Add(ctx, 1,
		metric.WithAttributes(
			attribute.String("op", op),
			attribute.String("status", status),
		),
	)
	m.GatewayDuration.Record(ctx, d.Seconds(),
		metric.WithAttributes(attribute.String("op", op)),
	)
}

// RecordStaleDiscard records a dropped continuation or timer.
func (m *Metrics) RecordStaleDiscard(ctx context.Context, kind, op string) {
	m.StaleDiscards.Add(ctx, 1,
		metric.WithAttributes(
			attribute.String("kind", kind),
			attribute.String("op", op),
		),
	)
}

// RecordTransition records a screen activation.
func (m *Metrics) RecordTransition(ctx context.Context, screen string) {
	m.Transitions.Add(ctx, 1,
		metric.WithAttributes(attribute.String("screen", screen)),
	)
}

// RecordFeedback records a feedback submission outcome.
func (m *Metrics) RecordFeedback(ctx context.Context, rating int, err error) {
	if err != nil {
		m.FeedbackFailures.Add(ctx, 1)
		return
	}
	m.FeedbackRatings.Add(ctx, 1,
		metric.WithAttributes(attribute.Int("rating", rating)),
	)
}

// RecordHTTPRequest records one request served by the stub backend. route is
// the matched route pattern, not the raw path.
func (m *Metrics) RecordHTTPRequest(ctx context.Context, method, route string, status int, d time.Duration) {
	m.HTTPRequestDuration.Record(ctx, d.Seconds(),
		metric.WithAttributes(
			attribute.String("method", method),
			attribute.String("route", route),
			attribute.Int("status", status),
		),
	)
}
