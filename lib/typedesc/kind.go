// Copyright 2026 The Vixen Authors
// SPDX-License-Identifier: Apache-2.0

package typedesc

import "fmt"

// Kind is the 1-byte type tag from a descriptor header. The values
// are format constants recovered from binary inspection; the set is
// closed.
type Kind uint8

const (
	KindVoid Kind = 0x00

	KindNumInt8      Kind = 0x01
	KindNumInt16     Kind = 0x02
	KindNumInt32     Kind = 0x03
	KindNumInt64     Kind = 0x04
	KindNumUInt8     Kind = 0x05
	KindNumUInt16    Kind = 0x06
	KindNumUInt32    Kind = 0x07
	KindNumUInt64    Kind = 0x08
	KindNumFloat32   Kind = 0x09
	KindNumFloat64   Kind = 0x0A
	KindNumFloatExt  Kind = 0x0B
	KindNumComplex64  Kind = 0x0C
	KindNumComplex128 Kind = 0x0D
	KindNumComplexExt Kind = 0x0E

	KindUnitInt8      Kind = 0x11
	KindUnitInt16     Kind = 0x12
	KindUnitInt32     Kind = 0x13
	KindUnitInt64     Kind = 0x14
	KindUnitUInt8     Kind = 0x15
	KindUnitUInt16    Kind = 0x16
	KindUnitUInt32    Kind = 0x17
	KindUnitUInt64    Kind = 0x18
	KindUnitFloat32   Kind = 0x19
	KindUnitFloat64   Kind = 0x1A
	KindUnitFloatExt  Kind = 0x1B
	KindUnitComplex64  Kind = 0x1C
	KindUnitComplex128 Kind = 0x1D
	KindUnitComplexExt Kind = 0x1E

	KindBooleanU16 Kind = 0x20
	KindBoolean    Kind = 0x21

	KindString    Kind = 0x30
	KindPath      Kind = 0x32
	KindPicture   Kind = 0x33
	KindCString   Kind = 0x34
	KindPasString Kind = 0x35
	KindTag       Kind = 0x37
	KindSubString Kind = 0x3F

	KindArray        Kind = 0x40
	KindArrayDataPtr Kind = 0x41
	KindSubArray     Kind = 0x4F

	KindCluster        Kind = 0x50
	KindLVVariant      Kind = 0x53
	KindMeasureData    Kind = 0x54
	KindComplexFixedPt Kind = 0x5E
	KindFixedPoint     Kind = 0x5F

	KindBlock         Kind = 0x60
	KindTypeBlock     Kind = 0x61
	KindVoidBlock     Kind = 0x62
	KindAlignedBlock  Kind = 0x63
	KindRepeatedBlock Kind = 0x64
	KindAlignMarker   Kind = 0x65

	KindRefnum Kind = 0x70

	KindPtr     Kind = 0x80
	KindPtrTo   Kind = 0x83
	KindExtData Kind = 0x84

	KindFunction Kind = 0xF0
	KindTypeDef  Kind = 0xF1
	KindPolyVI   Kind = 0xF2
)

// MainKind is the coarse bucket a Kind falls in, used as the second
// stage of constructor dispatch when no exact-kind codec exists.
// Buckets are the high nibble of the tag.
type MainKind uint8

const (
	MainNumber   MainKind = 0x00
	MainUnit     MainKind = 0x10
	MainBool     MainKind = 0x20
	MainBlob     MainKind = 0x30
	MainArray    MainKind = 0x40
	MainCluster  MainKind = 0x50
	MainBlock    MainKind = 0x60
	MainRef      MainKind = 0x70
	MainPtr      MainKind = 0x80
	MainAdvanced MainKind = 0xF0
)

// Main returns k's dispatch bucket.
func (k Kind) Main() MainKind { return MainKind(k & 0xF0) }

var kindNames = map[Kind]string{
	KindVoid:           "Void",
	KindNumInt8:        "NumInt8",
	KindNumInt16:       "NumInt16",
	KindNumInt32:       "NumInt32",
	KindNumInt64:       "NumInt64",
	KindNumUInt8:       "NumUInt8",
	KindNumUInt16:      "NumUInt16",
	KindNumUInt32:      "NumUInt32",
	KindNumUInt64:      "NumUInt64",
	KindNumFloat32:     "NumFloat32",
	KindNumFloat64:     "NumFloat64",
	KindNumFloatExt:    "NumFloatExt",
	KindNumComplex64:   "NumComplex64",
	KindNumComplex128:  "NumComplex128",
	KindNumComplexExt:  "NumComplexExt",
	KindUnitInt8:       "UnitInt8",
	KindUnitInt16:      "UnitInt16",
	KindUnitInt32:      "UnitInt32",
	KindUnitInt64:      "UnitInt64",
	KindUnitUInt8:      "UnitUInt8",
	KindUnitUInt16:     "UnitUInt16",
	KindUnitUInt32:     "UnitUInt32",
	KindUnitUInt64:     "UnitUInt64",
	KindUnitFloat32:    "UnitFloat32",
	KindUnitFloat64:    "UnitFloat64",
	KindUnitFloatExt:   "UnitFloatExt",
	KindUnitComplex64:  "UnitComplex64",
	KindUnitComplex128: "UnitComplex128",
	KindUnitComplexExt: "UnitComplexExt",
	KindBooleanU16:     "BooleanU16",
	KindBoolean:        "Boolean",
	KindString:         "String",
	KindPath:           "Path",
	KindPicture:        "Picture",
	KindCString:        "CString",
	KindPasString:      "PasString",
	KindTag:            "Tag",
	KindSubString:      "SubString",
	KindArray:          "Array",
	KindArrayDataPtr:   "ArrayDataPtr",
	KindSubArray:       "SubArray",
	KindCluster:        "Cluster",
	KindLVVariant:      "LVVariant",
	KindMeasureData:    "MeasureData",
	KindComplexFixedPt: "ComplexFixedPt",
	KindFixedPoint:     "FixedPoint",
	KindBlock:          "Block",
	KindTypeBlock:      "TypeBlock",
	KindVoidBlock:      "VoidBlock",
	KindAlignedBlock:   "AlignedBlock",
	KindRepeatedBlock:  "RepeatedBlock",
	KindAlignMarker:    "AlignMarker",
	KindRefnum:         "Refnum",
	KindPtr:            "Ptr",
	KindPtrTo:          "PtrTo",
	KindExtData:        "ExtData",
	KindFunction:       "Function",
	KindTypeDef:        "TypeDef",
	KindPolyVI:         "PolyVI",
}

// String returns the canonical kind name, or "Kind(0xNN)" for values
// outside the known set.
func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("Kind(%#02x)", uint8(k))
}

// xmlNames maps kinds to the element names used in the XML surface.
// Numeric kinds use the short mnemonics users of the original
// environment know; everything else renders by kind name.
var xmlNames = map[Kind]string{
	KindNumInt8:        "I8",
	KindNumInt16:       "I16",
	KindNumInt32:       "I32",
	KindNumInt64:       "I64",
	KindNumUInt8:       "U8",
	KindNumUInt16:      "U16",
	KindNumUInt32:      "U32",
	KindNumUInt64:      "U64",
	KindNumFloat32:     "SGL",
	KindNumFloat64:     "DBL",
	KindNumFloatExt:    "EXT",
	KindNumComplex64:   "CSG",
	KindNumComplex128:  "CDB",
	KindNumComplexExt:  "CXT",
	KindUnitInt8:       "UnitI8",
	KindUnitInt16:      "UnitI16",
	KindUnitInt32:      "UnitI32",
	KindUnitInt64:      "UnitI64",
	KindUnitUInt8:      "UnitU8",
	KindUnitUInt16:     "UnitU16",
	KindUnitUInt32:     "UnitU32",
	KindUnitUInt64:     "UnitU64",
	KindUnitFloat32:    "UnitSGL",
	KindUnitFloat64:    "UnitDBL",
	KindUnitFloatExt:   "UnitEXT",
	KindUnitComplex64:  "UnitCSG",
	KindUnitComplex128: "UnitCDB",
	KindUnitComplexExt: "UnitCXT",
}

// XMLName returns the XML element name for k.
func (k Kind) XMLName() string {
	if name, ok := xmlNames[k]; ok {
		return name
	}
	return k.String()
}

// kindsByXMLName is the inverse of XMLName over the known set,
// built once at init.
var kindsByXMLName = func() map[string]Kind {
	m := make(map[string]Kind, len(kindNames))
	for k := range kindNames {
		m[k.XMLName()] = k
	}
	return m
}()

// KindFromXMLName resolves an XML element name back to its kind.
func KindFromXMLName(name string) (Kind, bool) {
	k, ok := kindsByXMLName[name]
	return k, ok
}

// IsNumber reports whether k is a plain or unit numeric kind.
func (k Kind) IsNumber() bool {
	return k.Main() == MainNumber && k != KindVoid || k.Main() == MainUnit
}

// FixedSize returns the flat data size in bytes of a fixed-size
// numeric kind, and whether k has one. This drives the array
// smart-content optimization.
func (k Kind) FixedSize() (int, bool) {
	base := k
	if k.Main() == MainUnit {
		base = k - 0x10
	}
	switch base {
	case KindNumInt8, KindNumUInt8:
		return 1, true
	case KindNumInt16, KindNumUInt16:
		return 2, true
	case KindNumInt32, KindNumUInt32, KindNumFloat32:
		return 4, true
	case KindNumInt64, KindNumUInt64, KindNumFloat64, KindNumComplex64:
		return 8, true
	case KindNumFloatExt, KindNumComplex128:
		return 16, true
	case KindNumComplexExt:
		return 32, true
	}
	return 0, false
}
