// Copyright 2026 The Vixen Authors
// SPDX-License-Identifier: Apache-2.0

// Package testutil provides shared test helpers for Vixen packages.
//
// [WriteFile] writes a binary fixture into a test's temp directory
// and returns its path, for tests that exercise the file-level entry
// points (container load, extraction, rebuild).
//
// [RequireBytesEqual] compares two byte slices and reports the first
// differing offset with hex context on mismatch. Byte-identical
// round-trips are the core contract of this codebase, and "slices
// differ" without an offset is useless output when the slices are
// kilobytes of container data.
//
// [UniqueID] generates monotonically increasing identifiers for test
// disambiguation. Use it instead of time.Now() when tests need
// unique section names or file names.
//
// All helpers call t.Fatalf on failure rather than returning errors,
// since test setup failures are not recoverable.
//
// This package has no Vixen-internal dependencies.
package testutil
