// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package telemetry provides the OpenTelemetry metric instruments used by
// ckyc-assist and the optional Prometheus endpoint that exposes them.
//
// Components take a *Metrics at construction time. Default returns a
// process-wide instance built on the global meter provider; tests build
// their own with NewMetrics and a ManualReader.
//
// # Key Types
//
//   - Metrics: gateway, flow, feedback and stub HTTP instruments
//   - Server: /metrics endpoint backed by the Prometheus exporter
//
// # Usage
//
//	shutdown, err := telemetry.InitProvider(ctx, telemetry.ProviderConfig{ServiceVersion: version})
//	defer shutdown(ctx)
//
//	srv := telemetry.NewServer(cfg.Telemetry.MetricsAddr)
//	go srv.ListenAndServe()
//
//	m := telemetry.Default()
//	m.RecordGatewayCall(ctx, "chat", telemetry.StatusOK, time.Since(start))
package telemetry
