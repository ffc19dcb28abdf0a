// Copyright 2026 The Vixen Authors
// SPDX-License-Identifier: Apache-2.0

package datafill

import (
	"encoding/binary"
	"math"
)

// The extended-precision format stores 16 bytes per value: sign bit,
// 15-bit exponent (bias 16383), 112-bit fraction. Go has no native
// 128-bit float, so values convert through float64 for display and
// arithmetic while the original 16 bytes are preserved for
// byte-identical re-encode. No library in the ecosystem decodes this
// format; the conversion below is hand-rolled.

const (
	ext128ExpBias  = 16383
	float64ExpBias = 1023
)

// ext128ToFloat64 converts the 16-byte extended value to the nearest
// float64. Precision beyond 52 fraction bits is lost; callers keep
// the raw bytes when exact re-encode matters.
func ext128ToFloat64(b [16]byte) float64 {
	hi := binary.BigEndian.Uint64(b[:8])
	lo := binary.BigEndian.Uint64(b[8:])

	sign := hi >> 63
	exp := int64(hi>>48) & 0x7FFF
	// Top 48 fraction bits live in hi; take 4 more from lo to fill
	// float64's 52.
	frac := (hi&0x0000FFFFFFFFFFFF)<<4 | lo>>60

	switch {
	case exp == 0x7FFF:
		if frac != 0 || lo<<4 != 0 {
			return math.NaN()
		}
		return math.Inf(1 - 2*int(sign))
	case exp == 0:
		// Subnormal extended values are far below float64 range.
		if sign != 0 {
			return math.Copysign(0, -1)
		}
		return 0
	}

	e64 := exp - ext128ExpBias + float64ExpBias
	switch {
	case e64 <= 0:
		if sign != 0 {
			return math.Copysign(0, -1)
		}
		return 0
	case e64 >= 0x7FF:
		return math.Inf(1 - 2*int(sign))
	}
	return math.Float64frombits(sign<<63 | uint64(e64)<<52 | frac)
}

// float64ToExt128 converts a float64 to the 16-byte extended format.
// Exact for every finite float64.
func float64ToExt128(f float64) [16]byte {
	var out [16]byte
	bits := math.Float64bits(f)
	sign := bits >> 63
	exp := int64(bits>>52) & 0x7FF
	frac := bits & 0x000FFFFFFFFFFFFF

	var hi, lo uint64
	switch {
	case exp == 0x7FF:
		hi = sign<<63 | 0x7FFF<<48
		if frac != 0 {
			hi |= frac >> 4
			lo = frac << 60
		}
	case exp == 0 && frac == 0:
		hi = sign << 63
	case exp == 0:
		// Normalize the float64 subnormal; the extended exponent
		// range absorbs it.
		e := int64(-1074)
		for frac&(1<<52) == 0 {
			frac <<= 1
			e--
		}
		frac &= 0x000FFFFFFFFFFFFF
		e += 52
		hi = sign<<63 | uint64(e+ext128ExpBias)<<48 | frac>>4
		lo = frac << 60
	default:
		e := exp - float64ExpBias
		hi = sign<<63 | uint64(e+ext128ExpBias)<<48 | frac>>4
		lo = frac << 60
	}
	binary.BigEndian.PutUint64(out[:8], hi)
	binary.BigEndian.PutUint64(out[8:], lo)
	return out
}
