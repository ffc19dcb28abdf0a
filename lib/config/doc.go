// Copyright 2026 The Vixen Authors
// SPDX-License-Identifier: Apache-2.0

// Package config provides YAML configuration loading for vixen
// commands.
//
// Configuration is loaded from a single file specified by either the
// VIXEN_CONFIG environment variable (via [Load]) or a --config flag
// (via [LoadFile]). There are no fallbacks, no ~/.config discovery,
// and no automatic file search; with no file set, built-in defaults
// apply. The file is the single source of truth — no environment
// variable overrides individual values.
//
// The tunables bound what the decode layer accepts (table lengths,
// array element counts, refnum list sizes), set the threshold above
// which flat numeric array content collapses into one opaque blob,
// and pick the companion-file compression used on export.
//
// Key exports:
//
//   - [Config] -- master struct with Limits and Blob sections
//   - [Default] -- returns the built-in defaults
//   - [Load] and [LoadFile] -- the two entry points for loading
package config
