// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package util provides small helpers shared across ckyc-assist.
//
// # Key Functions
//
//   - TruncateWidth: truncation measured in terminal cells
//   - IsDigits: ASCII digit check used by the numeric input gates
//   - AtomicWriteFile: crash-safe file writing with fsync
//
// # Usage
//
//	label := util.TruncateWidth(text, 40)
//	err := util.AtomicWriteFile(path, data, 0644)
package util
