// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package config provides configuration loading and management for ckyc-assist.
//
// Supports both TOML and JSON configuration formats, with defaults filled
// for zero values, .env files, environment variable overrides, and
// validation that reports every problem at once.
//
// # Key Types
//
//   - Config: main configuration structure
//   - BackendConfig: backend base URL and request timeout
//   - UIConfig: language, theme and rendering options
//   - LogConfig, TelemetryConfig, StubConfig: ambient settings
//
// # Configuration Precedence
//
// Configuration is loaded from (in order of precedence):
//   - Environment variables (CKYC_*), including values from .env files
//   - ~/.ckyc-assist/config.toml
//   - ~/.ckyc-assist/config.json
//   - Built-in defaults
//
// # Usage
//
//	cfg, err := config.Load()
//	if err != nil {
//	    log.Fatal(err)
//	}
//	client := gateway.NewClientWithConfig(gateway.Config{BaseURL: cfg.Backend.URL})
package config
