// Copyright 2026 The Vixen Authors
// SPDX-License-Identifier: Apache-2.0

package typedesc

import "fmt"

// MeasureData flavor tags. The flavor, not the descriptor's client
// list, determines the value layout of a MeasureData instance; the
// data-fill codec synthesizes a cluster shape per flavor.
const (
	FlavorOldFloat64Waveform uint16 = 1
	FlavorInt16Waveform      uint16 = 2
	FlavorFloat64Waveform    uint16 = 3
	FlavorFloat32Waveform    uint16 = 5
	FlavorTimeStamp          uint16 = 6
	FlavorDigitalData        uint16 = 7
	FlavorDigitalWaveform    uint16 = 8
	FlavorDynamicData        uint16 = 9
	FlavorFloatExtWaveform   uint16 = 10
	FlavorUInt8Waveform      uint16 = 11
	FlavorUInt16Waveform     uint16 = 12
	FlavorUInt32Waveform     uint16 = 13
	FlavorInt8Waveform       uint16 = 14
	FlavorInt32Waveform      uint16 = 15
	FlavorComplex64Waveform  uint16 = 16
	FlavorComplex128Waveform uint16 = 17
	FlavorComplexExtWaveform uint16 = 18
	FlavorInt64Waveform      uint16 = 19
	FlavorUInt64Waveform     uint16 = 20
)

var flavorNames = map[uint16]string{
	FlavorOldFloat64Waveform: "OldFloat64Waveform",
	FlavorInt16Waveform:      "Int16Waveform",
	FlavorFloat64Waveform:    "Float64Waveform",
	FlavorFloat32Waveform:    "Float32Waveform",
	FlavorTimeStamp:          "TimeStamp",
	FlavorDigitalData:        "DigitalData",
	FlavorDigitalWaveform:    "DigitalWaveform",
	FlavorDynamicData:        "DynamicData",
	FlavorFloatExtWaveform:   "FloatExtWaveform",
	FlavorUInt8Waveform:      "UInt8Waveform",
	FlavorUInt16Waveform:     "UInt16Waveform",
	FlavorUInt32Waveform:     "UInt32Waveform",
	FlavorInt8Waveform:       "Int8Waveform",
	FlavorInt32Waveform:      "Int32Waveform",
	FlavorComplex64Waveform:  "Complex64Waveform",
	FlavorComplex128Waveform: "Complex128Waveform",
	FlavorComplexExtWaveform: "ComplexExtWaveform",
	FlavorInt64Waveform:      "Int64Waveform",
	FlavorUInt64Waveform:     "UInt64Waveform",
}

var flavorsByName = func() map[string]uint16 {
	m := make(map[string]uint16, len(flavorNames))
	for v, n := range flavorNames {
		m[n] = v
	}
	return m
}()

// FlavorName returns the flavor's display name, used as the XML
// element vocabulary for MeasureData.
func FlavorName(flavor uint16) string {
	if n, ok := flavorNames[flavor]; ok {
		return n
	}
	return fmt.Sprintf("Flavor(%d)", flavor)
}

// FlavorFromName resolves a flavor display name.
func FlavorFromName(name string) (uint16, bool) {
	v, ok := flavorsByName[name]
	return v, ok
}

// FlavorInnerKind returns the numeric kind of the waveform Y-array
// elements for a given flavor, and whether the flavor is a waveform
// at all (TimeStamp, DigitalData and DynamicData are not).
func FlavorInnerKind(flavor uint16) (Kind, bool) {
	switch flavor {
	case FlavorOldFloat64Waveform, FlavorFloat64Waveform:
		return KindNumFloat64, true
	case FlavorInt16Waveform:
		return KindNumInt16, true
	case FlavorFloat32Waveform:
		return KindNumFloat32, true
	case FlavorFloatExtWaveform:
		return KindNumFloatExt, true
	case FlavorUInt8Waveform:
		return KindNumUInt8, true
	case FlavorUInt16Waveform:
		return KindNumUInt16, true
	case FlavorUInt32Waveform:
		return KindNumUInt32, true
	case FlavorInt8Waveform:
		return KindNumInt8, true
	case FlavorInt32Waveform:
		return KindNumInt32, true
	case FlavorComplex64Waveform:
		return KindNumComplex64, true
	case FlavorComplex128Waveform:
		return KindNumComplex128, true
	case FlavorComplexExtWaveform:
		return KindNumComplexExt, true
	case FlavorInt64Waveform:
		return KindNumInt64, true
	case FlavorUInt64Waveform:
		return KindNumUInt64, true
	}
	return KindVoid, false
}
