// Copyright 2026 The Vixen Authors
// SPDX-License-Identifier: Apache-2.0

// Package diag defines the error taxonomy of the typed-value codec
// and the logger used for sanity warnings.
//
// Three outcomes are distinguished. A StructuralError is fatal for
// the node that raised it: the bytes cannot be understood and the
// enclosing section load generally aborts. A sanity warning records
// a consistent-but-suspect observation (declared size mismatch,
// reserved field non-zero); it is logged and decoding continues. An
// UnsupportedError marks a construct the codec recognizes but does
// not implement; callers fall back to opaque byte preservation so
// nothing is lost silently.
package diag

import (
	"fmt"
	"log/slog"
)

// StructuralError is a fatal decode or encode failure. File names
// the source document, Index the failing node's position in the
// consolidated type list (-1 for nested nodes), and Kind the node's
// type tag rendered as text.
type StructuralError struct {
	File  string
	Index int
	Kind  string
	Op    string
	Err   error
}

func (e *StructuralError) Error() string {
	return fmt.Sprintf("%s: type %d (%s): %s: %v", e.File, e.Index, e.Kind, e.Op, e.Err)
}

func (e *StructuralError) Unwrap() error { return e.Err }

// Structural wraps err with node identity. A nil err returns nil.
func Structural(file string, index int, kind, op string, err error) error {
	if err == nil {
		return nil
	}
	return &StructuralError{File: file, Index: index, Kind: kind, Op: op, Err: err}
}

// UnsupportedError marks a recognized but unimplemented construct.
type UnsupportedError struct {
	What string
}

func (e *UnsupportedError) Error() string {
	return fmt.Sprintf("%s: not implemented", e.What)
}

// Unsupported returns an UnsupportedError for what.
func Unsupported(what string) error { return &UnsupportedError{What: what} }

// logger receives sanity warnings. Defaults to slog's package
// default; replace with SetLogger for test capture or silencing.
var logger = slog.Default()

// SetLogger replaces the sanity-warning logger and returns the
// previous one.
func SetLogger(l *slog.Logger) *slog.Logger {
	prev := logger
	logger = l
	return prev
}

// Sanity logs a consistent-but-suspect observation. Decoding always
// continues past a sanity warning, and warnings never block encode.
func Sanity(msg string, args ...any) {
	logger.Warn(msg, args...)
}
