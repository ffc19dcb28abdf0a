// Copyright 2026 The Vixen Authors
// SPDX-License-Identifier: Apache-2.0

package testutil

import (
	"bytes"
	"fmt"
)

// failer is the subset of testing.TB the helpers need. Taking an
// interface keeps the package importable from both tests and
// benchmarks without depending on a concrete *testing.T.
type failer interface {
	Helper()
	Fatalf(format string, args ...any)
}

// RequireBytesEqual fails the test unless got and want are identical,
// reporting the first differing offset with surrounding hex context.
//
//	testutil.RequireBytesEqual(t, rebuilt, original, "container re-encode")
func RequireBytesEqual(t failer, got, want []byte, msgAndArgs ...any) {
	t.Helper()

	if bytes.Equal(got, want) {
		return
	}

	if len(got) != len(want) {
		t.Fatalf("%s: length mismatch: got %d bytes, want %d bytes",
			formatMessage(msgAndArgs), len(got), len(want))
	}

	offset := 0
	for offset < len(got) && got[offset] == want[offset] {
		offset++
	}

	t.Fatalf("%s: bytes differ at offset %d (0x%X):\n  got  %s\n  want %s",
		formatMessage(msgAndArgs), offset, offset,
		hexContext(got, offset), hexContext(want, offset))
}

// hexContext renders up to 8 bytes on either side of offset, with
// the differing byte bracketed.
func hexContext(data []byte, offset int) string {
	start := offset - 8
	if start < 0 {
		start = 0
	}
	end := offset + 9
	if end > len(data) {
		end = len(data)
	}

	var out bytes.Buffer
	for i := start; i < end; i++ {
		if i > start {
			out.WriteByte(' ')
		}
		if i == offset {
			fmt.Fprintf(&out, "[%02X]", data[i])
		} else {
			fmt.Fprintf(&out, "%02X", data[i])
		}
	}
	return out.String()
}

// formatMessage formats optional message arguments into a string.
// Accepts either a single string or a format string followed by args.
func formatMessage(msgAndArgs []any) string {
	if len(msgAndArgs) == 0 {
		return "(no message)"
	}
	if len(msgAndArgs) == 1 {
		if s, ok := msgAndArgs[0].(string); ok {
			return s
		}
		return fmt.Sprintf("%v", msgAndArgs[0])
	}
	if format, ok := msgAndArgs[0].(string); ok {
		return fmt.Sprintf(format, msgAndArgs[1:]...)
	}
	return fmt.Sprintf("%v", msgAndArgs)
}
