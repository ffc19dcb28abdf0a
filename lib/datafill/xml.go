// Copyright 2026 The Vixen Authors
// SPDX-License-Identifier: Apache-2.0

package datafill

import (
	"bytes"
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"

	"github.com/beevik/etree"

	"github.com/vixen-tools/vixen/lib/binhash"
	"github.com/vixen-tools/vixen/lib/blobstore"
	"github.com/vixen-tools/vixen/lib/diag"
	"github.com/vixen-tools/vixen/lib/textenc"
	"github.com/vixen-tools/vixen/lib/typedesc"
)

// ExportXML renders fill as a child element of parent. Elements are
// named like their descriptor: kind mnemonic, ref-type name for
// refnums, flavor name for measurement data.
func ExportXML(fill DataFill, parent *etree.Element, ctx *Context) (*etree.Element, error) {
	name := xmlName(fill.TD())
	el := parent.CreateElement(name)
	if err := fill.exportXML(el, ctx); err != nil {
		return nil, fmt.Errorf("exporting element %s: %w", name, err)
	}
	return el, nil
}

// ImportXML reconstructs a fill from el against its descriptor. The
// descriptor, not the element name, selects the variant; the name is
// only checked for gross mismatch.
func ImportXML(el *etree.Element, td typedesc.TypeDesc, ctx *Context) (DataFill, error) {
	fill, err := newForKind(td.Kind())
	if err != nil {
		return nil, fmt.Errorf("element %s: %w", el.Tag, err)
	}
	if err := fill.SetTD(td, ctx); err != nil {
		return nil, err
	}
	if want := xmlName(td); el.Tag != want {
		diag.Sanity("value element name does not match its descriptor",
			"file", ctx.File, "element", el.Tag, "descriptor", want)
	}
	if err := fill.importXML(el, ctx); err != nil {
		return nil, fmt.Errorf("element %s: %w", el.Tag, err)
	}
	return fill, nil
}

func xmlName(td typedesc.TypeDesc) string {
	switch t := td.(type) {
	case *typedesc.Refnum:
		return t.Ref.XMLName()
	case *typedesc.MeasureData:
		return typedesc.FlavorName(t.Flavor)
	}
	return td.Kind().XMLName()
}

// setData stores raw bytes on el: a companion file when a blob store
// is configured and the run exceeds the externalize threshold, text
// content when every byte is printable ASCII, a Hex attribute
// otherwise.
func setData(el *etree.Element, data []byte, ctx *Context) error {
	if ctx.Blobs != nil && len(data) > ctx.Limits.StoreAsDataAbove {
		ref, err := ctx.Blobs.Put(data)
		if err != nil {
			return err
		}
		el.CreateAttr("File", ref.File)
		el.CreateAttr("Format", "bin")
		el.CreateAttr("Size", strconv.Itoa(ref.Size))
		el.CreateAttr("Hash", binhash.FormatDigest(ref.Hash))
		el.CreateAttr("Compression", ref.Compression.String())
		return nil
	}
	printable := true
	for _, c := range data {
		if c < 0x20 || c > 0x7E {
			printable = false
			break
		}
	}
	if printable && len(data) > 0 {
		el.SetText(string(data))
		return nil
	}
	if len(data) > 0 {
		el.CreateAttr("Hex", hex.EncodeToString(data))
	}
	return nil
}

// getData reads bytes stored by setData. A companion-file reference
// wins over a Hex attribute, which wins over text content.
func getData(el *etree.Element, ctx *Context) ([]byte, error) {
	if file := el.SelectAttrValue("File", ""); file != "" {
		if ctx.Blobs == nil {
			return nil, fmt.Errorf("companion file %s referenced but no blob store configured", file)
		}
		size, err := strconv.Atoi(el.SelectAttrValue("Size", ""))
		if err != nil {
			return nil, fmt.Errorf("companion file %s: bad Size attribute: %w", file, err)
		}
		digest, err := binhash.ParseDigest(el.SelectAttrValue("Hash", ""))
		if err != nil {
			return nil, fmt.Errorf("companion file %s: bad Hash attribute: %w", file, err)
		}
		tag, err := blobstore.ParseTag(el.SelectAttrValue("Compression", "none"))
		if err != nil {
			return nil, fmt.Errorf("companion file %s: %w", file, err)
		}
		return ctx.Blobs.Get(blobstore.Ref{
			File:        file,
			Hash:        digest,
			Size:        size,
			Compression: tag,
		})
	}
	if attr := el.SelectAttr("Hex"); attr != nil {
		return hex.DecodeString(attr.Value)
	}
	return []byte(el.Text()), nil
}

func parseUint(s string, bits int) (uint64, error) {
	if strings.HasPrefix(s, "0x") || strings.HasPrefix(s, "0X") {
		return strconv.ParseUint(s[2:], 16, bits)
	}
	return strconv.ParseUint(s, 10, bits)
}

func requireAttr(el *etree.Element, name string) (string, error) {
	if attr := el.SelectAttr(name); attr != nil {
		return attr.Value, nil
	}
	return "", fmt.Errorf("missing attribute %s", name)
}

// requireUint fetches and parses a mandatory numeric attribute.
func requireUint(el *etree.Element, name string, bits int) (uint64, error) {
	s, err := requireAttr(el, name)
	if err != nil {
		return 0, err
	}
	v, err := parseUint(s, bits)
	if err != nil {
		return 0, fmt.Errorf("attribute %s: %w", name, err)
	}
	return v, nil
}

func (f *VoidFill) exportXML(el *etree.Element, ctx *Context) error { return nil }
func (f *VoidFill) importXML(el *etree.Element, ctx *Context) error { return nil }

func (f *IntFill) exportXML(el *etree.Element, ctx *Context) error {
	if f.signed {
		el.CreateAttr("Value", strconv.FormatInt(f.Int64(), 10))
	} else {
		el.CreateAttr("Value", strconv.FormatUint(f.Value, 10))
	}
	return nil
}

func (f *IntFill) importXML(el *etree.Element, ctx *Context) error {
	s, err := requireAttr(el, "Value")
	if err != nil {
		return err
	}
	bits := 8 * f.size
	if f.signed {
		v, err := strconv.ParseInt(s, 10, bits)
		if err != nil {
			return fmt.Errorf("attribute Value: %w", err)
		}
		f.Value = uint64(v)
	} else {
		v, err := parseUint(s, bits)
		if err != nil {
			return fmt.Errorf("attribute Value: %w", err)
		}
		f.Value = v
	}
	if bits < 64 {
		f.Value &= 1<<uint(bits) - 1
	}
	return nil
}

func (f *FloatFill) exportXML(el *etree.Element, ctx *Context) error {
	el.CreateAttr("Value", strconv.FormatFloat(f.Value, 'g', -1, 8*f.size))
	return nil
}

func (f *FloatFill) importXML(el *etree.Element, ctx *Context) error {
	s, err := requireAttr(el, "Value")
	if err != nil {
		return err
	}
	v, err := strconv.ParseFloat(s, 8*f.size)
	if err != nil {
		return fmt.Errorf("attribute Value: %w", err)
	}
	f.Value = v
	return nil
}

// ExtFill exports both a readable approximation and the exact bytes;
// import trusts the bytes.
func (f *ExtFill) exportXML(el *etree.Element, ctx *Context) error {
	el.CreateAttr("Value", strconv.FormatFloat(f.Value, 'g', -1, 64))
	el.CreateAttr("Hex", hex.EncodeToString(f.Raw[:]))
	return nil
}

func (f *ExtFill) importXML(el *etree.Element, ctx *Context) error {
	if attr := el.SelectAttr("Hex"); attr != nil {
		b, err := hex.DecodeString(attr.Value)
		if err != nil {
			return fmt.Errorf("attribute Hex: %w", err)
		}
		if len(b) != 16 {
			return fmt.Errorf("attribute Hex holds %d bytes, want 16", len(b))
		}
		copy(f.Raw[:], b)
		f.Value = ext128ToFloat64(f.Raw)
		return nil
	}
	s, err := requireAttr(el, "Value")
	if err != nil {
		return err
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return fmt.Errorf("attribute Value: %w", err)
	}
	f.SetValue(v)
	return nil
}

func (f *ComplexFill) exportXML(el *etree.Element, ctx *Context) error {
	el.CreateAttr("Re", strconv.FormatFloat(f.Re, 'g', -1, 64))
	el.CreateAttr("Im", strconv.FormatFloat(f.Im, 'g', -1, 64))
	if f.compSize == 16 {
		el.CreateAttr("HexRe", hex.EncodeToString(f.RawRe[:]))
		el.CreateAttr("HexIm", hex.EncodeToString(f.RawIm[:]))
	}
	return nil
}

func (f *ComplexFill) importXML(el *etree.Element, ctx *Context) error {
	parsePart := func(valAttr, hexAttr string, raw *[16]byte, out *float64) error {
		if f.compSize == 16 {
			if attr := el.SelectAttr(hexAttr); attr != nil {
				b, err := hex.DecodeString(attr.Value)
				if err != nil {
					return fmt.Errorf("attribute %s: %w", hexAttr, err)
				}
				if len(b) != 16 {
					return fmt.Errorf("attribute %s holds %d bytes, want 16", hexAttr, len(b))
				}
				copy(raw[:], b)
				*out = ext128ToFloat64(*raw)
				return nil
			}
		}
		s, err := requireAttr(el, valAttr)
		if err != nil {
			return err
		}
		v, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return fmt.Errorf("attribute %s: %w", valAttr, err)
		}
		*out = v
		if f.compSize == 16 {
			*raw = float64ToExt128(v)
		}
		return nil
	}
	if err := parsePart("Re", "HexRe", &f.RawRe, &f.Re); err != nil {
		return err
	}
	return parsePart("Im", "HexIm", &f.RawIm, &f.Im)
}

// BoolFill keeps the stored word verbatim; "true" values other than
// 1 exist in the wild and must survive.
func (f *BoolFill) exportXML(el *etree.Element, ctx *Context) error {
	el.CreateAttr("Value", strconv.FormatUint(uint64(f.Raw), 10))
	return nil
}

func (f *BoolFill) importXML(el *etree.Element, ctx *Context) error {
	v, err := requireUint(el, "Value", 16)
	if err != nil {
		return err
	}
	f.Raw = uint16(v)
	return nil
}

func (f *StringFill) exportXML(el *etree.Element, ctx *Context) error {
	return setData(el, f.Value, ctx)
}

func (f *StringFill) importXML(el *etree.Element, ctx *Context) error {
	b, err := getData(el, ctx)
	if err != nil {
		return err
	}
	f.Value = b
	return nil
}

func (f *CStringFill) exportXML(el *etree.Element, ctx *Context) error {
	el.CreateAttr("Value", strconv.FormatUint(uint64(f.Value), 10))
	return nil
}

func (f *CStringFill) importXML(el *etree.Element, ctx *Context) error {
	v, err := requireUint(el, "Value", 32)
	if err != nil {
		return err
	}
	f.Value = uint32(v)
	return nil
}

func (f *PathFill) exportXML(el *etree.Element, ctx *Context) error {
	el.CreateAttr("ClassTag", textenc.Default.Decode(f.ClassTag[:]))
	return setData(el, f.Content, ctx)
}

func (f *PathFill) importXML(el *etree.Element, ctx *Context) error {
	s, err := requireAttr(el, "ClassTag")
	if err != nil {
		return err
	}
	tag, err := textenc.Default.Encode(s)
	if err != nil {
		return fmt.Errorf("attribute ClassTag: %w", err)
	}
	if len(tag) != 4 {
		return fmt.Errorf("attribute ClassTag holds %d bytes, want 4", len(tag))
	}
	copy(f.ClassTag[:], tag)
	f.Content, err = getData(el, ctx)
	return err
}

func (f *FixedPointFill) exportXML(el *etree.Element, ctx *Context) error {
	for i := range f.Values {
		v := el.CreateElement("Value")
		v.CreateAttr("Hex", hex.EncodeToString(f.Values[i][:]))
		if i < len(f.OvFlags) {
			v.CreateAttr("OvFlag", strconv.FormatUint(uint64(f.OvFlags[i]), 10))
		}
	}
	return nil
}

func (f *FixedPointFill) importXML(el *etree.Element, ctx *Context) error {
	f.Values = nil
	f.OvFlags = nil
	for _, v := range el.SelectElements("Value") {
		b, err := hex.DecodeString(v.SelectAttrValue("Hex", ""))
		if err != nil {
			return fmt.Errorf("Value Hex: %w", err)
		}
		if len(b) != 8 {
			return fmt.Errorf("Value holds %d bytes, want 8", len(b))
		}
		var val [8]byte
		copy(val[:], b)
		f.Values = append(f.Values, val)
		if attr := v.SelectAttr("OvFlag"); attr != nil {
			flag, err := parseUint(attr.Value, 8)
			if err != nil {
				return fmt.Errorf("Value OvFlag: %w", err)
			}
			f.OvFlags = append(f.OvFlags, uint8(flag))
		}
	}
	want := f.components()
	if len(f.Values) != want {
		return fmt.Errorf("%d Value elements, want %d", len(f.Values), want)
	}
	return nil
}

func (f *ClusterFill) exportXML(el *etree.Element, ctx *Context) error {
	if f.Special {
		el.CreateAttr("TMFlags", fmt.Sprintf("0x%04X", f.TMFlags))
	}
	for i, child := range f.Children {
		if comment, ok := f.Comments[i]; ok {
			el.CreateComment(comment)
		}
		if _, err := ExportXML(child, el, ctx); err != nil {
			return err
		}
	}
	return nil
}

func (f *ClusterFill) importXML(el *etree.Element, ctx *Context) error {
	if attr := el.SelectAttr("TMFlags"); attr != nil {
		v, err := parseUint(attr.Value, 16)
		if err != nil {
			return fmt.Errorf("attribute TMFlags: %w", err)
		}
		f.Special = true
		f.TMFlags = uint16(v)
	}
	idx := f.activeIndices(ctx)
	f.Children = nil
	f.Comments = nil
	pos := 0
	var pending string
	for _, tok := range el.Child {
		switch t := tok.(type) {
		case *etree.Comment:
			pending = t.Data
		case *etree.Element:
			if pos >= len(idx) {
				return fmt.Errorf("element %s: more value children than active cluster elements", t.Tag)
			}
			ct, err := resolveClient(f.td, idx[pos], ctx)
			if err != nil {
				return err
			}
			child, err := ImportXML(t, ct, ctx)
			if err != nil {
				return err
			}
			if pending != "" {
				if f.Comments == nil {
					f.Comments = make(map[int]string)
				}
				f.Comments[pos] = pending
				pending = ""
			}
			f.Children = append(f.Children, child)
			pos++
		}
	}
	if pos != len(idx) {
		return fmt.Errorf("%d value children for %d active cluster elements", pos, len(idx))
	}
	return nil
}

func (f *TypeDefFill) exportXML(el *etree.Element, ctx *Context) error {
	if f.Child == nil {
		return fmt.Errorf("typedef fill with no value")
	}
	_, err := ExportXML(f.Child, el, ctx)
	return err
}

func (f *TypeDefFill) importXML(el *etree.Element, ctx *Context) error {
	children := el.ChildElements()
	if len(children) != 1 {
		return fmt.Errorf("%d value children, want 1", len(children))
	}
	ct, err := resolveClient(f.td, 0, ctx)
	if err != nil {
		return err
	}
	f.Child, err = ImportXML(children[0], ct, ctx)
	return err
}

// containerMagic marks an embedded resource container inside a flat
// block run.
var containerMagic = []byte("RSRC")

// splitAtContainerMagic cuts data before each embedded container
// signature past the start, so every embedded container begins its
// own chunk.
func splitAtContainerMagic(data []byte) [][]byte {
	var chunks [][]byte
	rest := data
	for len(rest) > 0 {
		i := bytes.Index(rest[1:], containerMagic)
		if i < 0 {
			chunks = append(chunks, rest)
			break
		}
		cut := i + 1
		chunks = append(chunks, rest[:cut])
		rest = rest[cut:]
	}
	return chunks
}

func (f *BlockFill) exportXML(el *etree.Element, ctx *Context) error {
	// Long runs embedding container signatures split at the magic,
	// one chunk per embedded container, so each resolves to its own
	// companion file or inline run.
	if len(f.Data) > ctx.Limits.StoreAsDataAbove {
		if chunks := splitAtContainerMagic(f.Data); len(chunks) > 1 {
			for _, c := range chunks {
				chunk := el.CreateElement("Chunk")
				if err := setData(chunk, c, ctx); err != nil {
					return err
				}
			}
			return nil
		}
	}
	return setData(el, f.Data, ctx)
}

func (f *BlockFill) importXML(el *etree.Element, ctx *Context) error {
	var b []byte
	if chunks := el.SelectElements("Chunk"); len(chunks) > 0 {
		for _, c := range chunks {
			part, err := getData(c, ctx)
			if err != nil {
				return err
			}
			b = append(b, part...)
		}
	} else {
		var err error
		b, err = getData(el, ctx)
		if err != nil {
			return err
		}
	}
	size, err := f.declaredSize()
	if err != nil {
		return err
	}
	if len(b) != size {
		return fmt.Errorf("%d data bytes, descriptor declares %d", len(b), size)
	}
	f.Data = b
	return nil
}

func (f *RepeatedBlockFill) exportXML(el *etree.Element, ctx *Context) error {
	for _, child := range f.Children {
		if _, err := ExportXML(child, el, ctx); err != nil {
			return err
		}
	}
	return nil
}

func (f *RepeatedBlockFill) importXML(el *etree.Element, ctx *Context) error {
	n, err := f.repeats()
	if err != nil {
		return err
	}
	ct, err := resolveClient(f.td, 0, ctx)
	if err != nil {
		return err
	}
	children := el.ChildElements()
	if len(children) != n {
		return fmt.Errorf("%d value children for %d repeats", len(children), n)
	}
	f.Children = nil
	for _, c := range children {
		child, err := ImportXML(c, ct, ctx)
		if err != nil {
			return err
		}
		f.Children = append(f.Children, child)
	}
	return nil
}

func (f *ArrayFill) exportXML(el *etree.Element, ctx *Context) error {
	for _, d := range f.Dims {
		dim := el.CreateElement("Dim")
		dim.CreateAttr("Size", fmt.Sprintf("0x%08X", d))
	}
	if f.Mode != SmartNone {
		data := el.CreateElement("Data")
		if f.Mode == SmartRSRC {
			data.CreateAttr("Mode", "RSRC")
		} else {
			data.CreateAttr("Mode", "Data")
		}
		return setData(data, f.Blob, ctx)
	}
	for _, child := range f.Children {
		if _, err := ExportXML(child, el, ctx); err != nil {
			return err
		}
	}
	return nil
}

func (f *ArrayFill) importXML(el *etree.Element, ctx *Context) error {
	f.Dims = nil
	for _, dim := range el.SelectElements("Dim") {
		v, err := requireUint(dim, "Size", 32)
		if err != nil {
			return err
		}
		f.Dims = append(f.Dims, uint32(v))
	}
	if data := el.SelectElement("Data"); data != nil {
		b, err := getData(data, ctx)
		if err != nil {
			return err
		}
		f.Blob = b
		f.Children = nil
		// Bytes arriving through the XML side never qualify for the
		// raw-section mode, whatever the attribute says.
		if data.SelectAttrValue("Mode", "") == "RSRC" {
			diag.Sanity("raw-section array mode requested from structured input, using data mode",
				"file", ctx.File)
		}
		f.Mode = SmartData
		return nil
	}
	elem, _, err := f.elemInfo(ctx)
	if err != nil {
		return err
	}
	f.Mode = SmartNone
	f.Blob = nil
	f.Children = nil
	for _, c := range el.ChildElements() {
		if c.Tag == "Dim" {
			continue
		}
		child, err := ImportXML(c, elem, ctx)
		if err != nil {
			return err
		}
		f.Children = append(f.Children, child)
	}
	if len(f.Children) != f.Count() {
		return fmt.Errorf("%d value children for %d declared elements", len(f.Children), f.Count())
	}
	return nil
}

func (f *VariantFill) exportXML(el *etree.Element, ctx *Context) error {
	if f.LegacyTD != nil {
		legacy := el.CreateElement("LegacyType")
		if _, err := typedesc.ExportXML(f.LegacyTD, legacy, ctx); err != nil {
			return err
		}
		val := el.CreateElement("Value")
		if _, err := ExportXML(f.LegacyValue, val, ctx); err != nil {
			return err
		}
		if f.ExtraValue != nil {
			extra := el.CreateElement("ExtraValue")
			if _, err := ExportXML(f.ExtraValue, extra, ctx); err != nil {
				return err
			}
		}
		return nil
	}
	el.CreateAttr("Version", fmt.Sprintf("0x%08X", f.InnerVersion))
	types := el.CreateElement("Types")
	for _, td := range f.Types {
		if _, err := typedesc.ExportXML(td, types, ctx); err != nil {
			return err
		}
	}
	if f.ValueIndex != noValueIndex {
		val := el.CreateElement("Value")
		val.CreateAttr("TypeIndex", strconv.FormatUint(uint64(f.ValueIndex), 10))
		if _, err := ExportXML(f.Value, val, ctx); err != nil {
			return err
		}
	}
	for _, a := range f.Attrs {
		attr := el.CreateElement("Attribute")
		attr.CreateAttr("Name", textenc.Default.Decode(a.Name))
		attr.CreateAttr("TypeIndex", strconv.FormatUint(uint64(a.TypeIndex), 10))
		if _, err := ExportXML(a.Value, attr, ctx); err != nil {
			return err
		}
	}
	return nil
}

// importOneFill expects exactly one value child under el.
func importOneFill(el *etree.Element, td typedesc.TypeDesc, ctx *Context) (DataFill, error) {
	children := el.ChildElements()
	if len(children) != 1 {
		return nil, fmt.Errorf("element %s: %d value children, want 1", el.Tag, len(children))
	}
	return ImportXML(children[0], td, ctx)
}

func (f *VariantFill) importXML(el *etree.Element, ctx *Context) error {
	if legacy := el.SelectElement("LegacyType"); legacy != nil {
		types := legacy.ChildElements()
		if len(types) != 1 {
			return fmt.Errorf("LegacyType holds %d descriptors, want 1", len(types))
		}
		td, err := typedesc.ImportXML(types[0], ctx)
		if err != nil {
			return err
		}
		f.LegacyTD = td
		val := el.SelectElement("Value")
		if val == nil {
			return fmt.Errorf("legacy variant with no Value element")
		}
		if f.LegacyValue, err = importOneFill(val, td, ctx); err != nil {
			return err
		}
		if extra := el.SelectElement("ExtraValue"); extra != nil {
			if f.ExtraValue, err = importOneFill(extra, td, ctx); err != nil {
				return err
			}
		}
		return nil
	}
	v, err := requireUint(el, "Version", 32)
	if err != nil {
		return err
	}
	f.InnerVersion = uint32(v)
	f.Types = nil
	if types := el.SelectElement("Types"); types != nil {
		for _, c := range types.ChildElements() {
			td, err := typedesc.ImportXML(c, ctx)
			if err != nil {
				return err
			}
			f.Types = append(f.Types, td)
		}
	}
	f.ValueIndex = noValueIndex
	f.Value = nil
	if val := el.SelectElement("Value"); val != nil {
		idx, err := requireUint(val, "TypeIndex", 16)
		if err != nil {
			return err
		}
		if int(idx) >= len(f.Types) {
			return fmt.Errorf("Value TypeIndex %d outside %d types", idx, len(f.Types))
		}
		f.ValueIndex = uint16(idx)
		if f.Value, err = importOneFill(val, f.Types[idx], ctx); err != nil {
			return err
		}
	}
	f.Attrs = nil
	for _, attr := range el.SelectElements("Attribute") {
		name, err := requireAttr(attr, "Name")
		if err != nil {
			return err
		}
		raw, err := textenc.Default.Encode(name)
		if err != nil {
			return fmt.Errorf("Attribute Name: %w", err)
		}
		idx, err := requireUint(attr, "TypeIndex", 16)
		if err != nil {
			return err
		}
		if int(idx) >= len(f.Types) {
			return fmt.Errorf("Attribute %q TypeIndex %d outside %d types", name, idx, len(f.Types))
		}
		val, err := importOneFill(attr, f.Types[idx], ctx)
		if err != nil {
			return err
		}
		f.Attrs = append(f.Attrs, VariantAttr{Name: raw, TypeIndex: uint16(idx), Value: val})
	}
	return nil
}

func (f *MeasureDataFill) exportXML(el *etree.Element, ctx *Context) error {
	for _, child := range f.Children {
		if _, err := ExportXML(child, el, ctx); err != nil {
			return err
		}
	}
	return nil
}

func (f *MeasureDataFill) importXML(el *etree.Element, ctx *Context) error {
	flavor, err := f.flavor()
	if err != nil {
		return err
	}
	shape, err := synthShape(flavor)
	if err != nil {
		return err
	}
	children := el.ChildElements()
	if len(children) != len(shape) {
		return fmt.Errorf("%d value children for %d shape members", len(children), len(shape))
	}
	f.Children = nil
	for i, c := range children {
		child, err := ImportXML(c, shape[i], ctx)
		if err != nil {
			return err
		}
		f.Children = append(f.Children, child)
	}
	return nil
}

func (f *RefnumFill) exportXML(el *etree.Element, ctx *Context) error {
	rt, err := f.refType()
	if err != nil {
		return err
	}
	switch valueLayout(rt) {
	case refLayoutIO:
		el.CreateAttr("Handle", strconv.FormatUint(uint64(f.Handle), 10))
		el.CreateAttr("Tag", textenc.Default.Decode(f.Tag))
	case refLayoutUDTag:
		val := el.CreateElement("TagValue")
		if err := setData(val, f.TagValue, ctx); err != nil {
			return err
		}
		for _, field := range f.UsrDef {
			ud := el.CreateElement("UsrDef")
			if err := setData(ud, field, ctx); err != nil {
				return err
			}
		}
	case refLayoutUDClassInst:
		el.CreateAttr("LibName", textenc.Default.Decode(f.LibName))
		for _, rec := range f.Records {
			v := el.CreateElement("Version")
			v.CreateAttr("Value", fmt.Sprintf("%d.%d.%d.%d", rec[0], rec[1], rec[2], rec[3]))
		}
		for _, blk := range f.Blocks {
			b := el.CreateElement("Block")
			if err := setData(b, blk, ctx); err != nil {
				return err
			}
		}
	default:
		el.CreateAttr("Handle", strconv.FormatUint(uint64(f.Handle), 10))
	}
	return nil
}

func (f *RefnumFill) importXML(el *etree.Element, ctx *Context) error {
	rt, err := f.refType()
	if err != nil {
		return err
	}
	switch valueLayout(rt) {
	case refLayoutIO:
		v, err := requireUint(el, "Handle", 32)
		if err != nil {
			return err
		}
		f.Handle = uint32(v)
		tag, err := textenc.Default.Encode(el.SelectAttrValue("Tag", ""))
		if err != nil {
			return fmt.Errorf("attribute Tag: %w", err)
		}
		f.Tag = tag
	case refLayoutUDTag:
		val := el.SelectElement("TagValue")
		if val == nil {
			return fmt.Errorf("missing TagValue element")
		}
		if f.TagValue, err = getData(val, ctx); err != nil {
			return err
		}
		f.UsrDef = nil
		for _, ud := range el.SelectElements("UsrDef") {
			field, err := getData(ud, ctx)
			if err != nil {
				return err
			}
			f.UsrDef = append(f.UsrDef, field)
		}
		if len(f.UsrDef) > maxUsrDefFields {
			return fmt.Errorf("%d UsrDef elements exceeds bound %d", len(f.UsrDef), maxUsrDefFields)
		}
	case refLayoutUDClassInst:
		name, err := textenc.Default.Encode(el.SelectAttrValue("LibName", ""))
		if err != nil {
			return fmt.Errorf("attribute LibName: %w", err)
		}
		f.LibName = name
		f.Records = nil
		for _, v := range el.SelectElements("Version") {
			s, err := requireAttr(v, "Value")
			if err != nil {
				return err
			}
			var rec ClassInstRecord
			if _, err := fmt.Sscanf(s, "%d.%d.%d.%d", &rec[0], &rec[1], &rec[2], &rec[3]); err != nil {
				return fmt.Errorf("Version %q: %w", s, err)
			}
			f.Records = append(f.Records, rec)
		}
		f.Blocks = nil
		for _, b := range el.SelectElements("Block") {
			blk, err := getData(b, ctx)
			if err != nil {
				return err
			}
			f.Blocks = append(f.Blocks, blk)
		}
	default:
		v, err := requireUint(el, "Handle", 32)
		if err != nil {
			return err
		}
		f.Handle = uint32(v)
	}
	return nil
}
