// Copyright 2026 The Vixen Authors
// SPDX-License-Identifier: Apache-2.0

package binio

import (
	"encoding/binary"
	"math"
)

// Writer is an append-only big-endian buffer. Writes cannot fail;
// the finished bytes are read back with Bytes.
type Writer struct {
	buf []byte
}

// NewWriter returns an empty Writer.
func NewWriter() *Writer { return &Writer{} }

// Len returns the number of bytes written so far.
func (w *Writer) Len() int { return len(w.buf) }

// Bytes returns the accumulated buffer. The slice aliases the
// writer's storage; further writes may reallocate it.
func (w *Writer) Bytes() []byte { return w.buf }

// Raw appends b verbatim.
func (w *Writer) Raw(b []byte) { w.buf = append(w.buf, b...) }

// U8 appends one byte.
func (w *Writer) U8(v uint8) { w.buf = append(w.buf, v) }

// U16 appends a big-endian uint16.
func (w *Writer) U16(v uint16) { w.buf = binary.BigEndian.AppendUint16(w.buf, v) }

// U32 appends a big-endian uint32.
func (w *Writer) U32(v uint32) { w.buf = binary.BigEndian.AppendUint32(w.buf, v) }

// U64 appends a big-endian uint64.
func (w *Writer) U64(v uint64) { w.buf = binary.BigEndian.AppendUint64(w.buf, v) }

// I8 appends one signed byte.
func (w *Writer) I8(v int8) { w.U8(uint8(v)) }

// I16 appends a big-endian int16.
func (w *Writer) I16(v int16) { w.U16(uint16(v)) }

// I32 appends a big-endian int32.
func (w *Writer) I32(v int32) { w.U32(uint32(v)) }

// I64 appends a big-endian int64.
func (w *Writer) I64(v int64) { w.U64(uint64(v)) }

// F32 appends a big-endian IEEE 754 single.
func (w *Writer) F32(v float32) { w.U32(math.Float32bits(v)) }

// F64 appends a big-endian IEEE 754 double.
func (w *Writer) F64(v float64) { w.U64(math.Float64bits(v)) }

// PadTo appends zero bytes until the buffer length is a multiple of
// align (counted from origin zero).
func (w *Writer) PadTo(align int) {
	for len(w.buf)%align != 0 {
		w.buf = append(w.buf, 0)
	}
}
