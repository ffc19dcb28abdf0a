// Copyright 2026 The Vixen Authors
// SPDX-License-Identifier: Apache-2.0

package typedesc

import (
	"fmt"

	"github.com/beevik/etree"

	"github.com/vixen-tools/vixen/lib/binio"
	"github.com/vixen-tools/vixen/lib/blobstore"
	"github.com/vixen-tools/vixen/lib/diag"
	"github.com/vixen-tools/vixen/lib/lvver"
)

// FlagHasLabel is the descriptor flag bit marking that a label string
// follows the body.
const FlagHasLabel = 0x40

// SourceKind says where the bytes being decoded came from. The array
// smart-content optimization has one sub-mode that is only legal for
// raw binary input.
type SourceKind int

const (
	// SourceRSRC marks bytes read from an uncompressed binary
	// document section.
	SourceRSRC SourceKind = iota
	// SourceXML marks bytes reconstructed from the XML tree (inline
	// hex or companion files).
	SourceXML
)

// Limits holds the decode safety bounds. Zero values select the
// defaults; the config layer populates them from the tunables file.
type Limits struct {
	// TypeListLimit caps the number of entries in a consolidated
	// type list.
	TypeListLimit int
	// ArrayDataLimit caps the total element count of an array
	// default value.
	ArrayDataLimit int
	// StoreAsDataAbove is the byte threshold over which flat numeric
	// array content collapses into one opaque blob.
	StoreAsDataAbove int
	// ConnectorListLimit caps client counts inside refnum payloads.
	ConnectorListLimit int
}

// withDefaults fills zero fields with the built-in bounds.
func (l Limits) withDefaults() Limits {
	if l.TypeListLimit == 0 {
		l.TypeListLimit = 4095
	}
	if l.ArrayDataLimit == 0 {
		l.ArrayDataLimit = 0x1000000
	}
	if l.StoreAsDataAbove == 0 {
		l.StoreAsDataAbove = 127
	}
	if l.ConnectorListLimit == 0 {
		l.ConnectorListLimit = 500
	}
	return l
}

// Context carries everything per-node codecs need: the document
// version for feature gating, the consolidated list for index
// resolution, the source identity for diagnostics, and the safety
// limits.
type Context struct {
	// File identifies the source document in errors and warnings.
	File string
	// Version is the document file-version tuple.
	Version lvver.Version
	// List is the document's consolidated type list. May be nil when
	// decoding a fully nested standalone descriptor.
	List *ConsolidatedList
	// Source is where the current bytes came from.
	Source SourceKind
	// Limits are the decode safety bounds.
	Limits Limits
	// Blobs is the companion-file store for raw byte runs above the
	// externalize threshold. Nil keeps every run inline in the XML.
	Blobs *blobstore.Store
}

// NewContext returns a Context with default limits.
func NewContext(file string, ver lvver.Version) *Context {
	return &Context{File: file, Version: ver, Limits: Limits{}.withDefaults()}
}

// structural wraps err with node identity taken from ctx and td.
func (ctx *Context) structural(td TypeDesc, op string, err error) error {
	index, kind := -1, "unknown"
	if td != nil {
		index, kind = td.Index(), td.Kind().String()
	}
	return diag.Structural(ctx.File, index, kind, op, err)
}

// TypeDesc is one node of the type-descriptor graph. The kind of a
// node never changes after construction; the client list's length
// and ownership form are fixed once parsed, though client contents
// may be rewritten during XML reconstruction.
type TypeDesc interface {
	// Kind returns the node's type tag.
	Kind() Kind
	// Flags returns the header flag byte.
	Flags() uint8
	// Index returns the node's position in the consolidated list,
	// or -1 for a nested node.
	Index() int
	// SetIndex records the node's table position. Called by the
	// consolidated list when the node is appended.
	SetIndex(int)
	// Label returns the optional label, nil when absent.
	Label() []byte
	// SetLabel sets the label and maintains the header flag bit.
	SetLabel([]byte)
	// Clients returns the node's child references. Callers must not
	// grow or shrink the slice.
	Clients() []Client
	// SetClients replaces the node's child references. Used when
	// building descriptors programmatically; decode fills clients
	// itself.
	SetClients([]Client)
	// SanityCheck validates structural bounds. Failures are
	// warnings, not errors; decode and encode proceed regardless.
	SanityCheck() error

	decodeBody(r *binio.Reader, ctx *Context) error
	encodeBody(w *binio.Writer, ctx *Context) error
	exportBody(el *etree.Element, ctx *Context) error
	importBody(el *etree.Element, ctx *Context) error

	setHeader(flags uint8, kind Kind)
}

// Client is one child reference of a container descriptor: either an
// exclusively-owned nested descriptor (Index == -1, Nested non-nil)
// or a weak index into the consolidated list. Flags carries per-use
// bits for the kinds that store them (function parameters).
type Client struct {
	Index  int
	Nested TypeDesc
	Flags  uint32
}

// NestedClient wraps td as an owned child reference.
func NestedClient(td TypeDesc) Client { return Client{Index: -1, Nested: td} }

// IndexedClient references table entry index.
func IndexedClient(index int) Client { return Client{Index: index} }

// IsNested reports whether c owns its child inline.
func (c Client) IsNested() bool { return c.Index == -1 }

// Resolve returns the descriptor c references: the nested child, or
// the consolidated-list entry at c.Index. Resolution is lazy so that
// forward references (a client pointing at a slot appended later)
// work.
func (c Client) Resolve(ctx *Context) (TypeDesc, error) {
	if c.IsNested() {
		if c.Nested == nil {
			return nil, fmt.Errorf("nested client with no descriptor")
		}
		return c.Nested, nil
	}
	if ctx.List == nil {
		return nil, fmt.Errorf("indexed client %d with no consolidated list", c.Index)
	}
	return ctx.List.At(c.Index)
}

// base carries the fields every descriptor kind shares.
type base struct {
	kind    Kind
	flags   uint8
	index   int
	label   []byte
	clients []Client
}

func (b *base) Kind() Kind          { return b.kind }
func (b *base) Flags() uint8        { return b.flags }
func (b *base) Index() int          { return b.index }
func (b *base) SetIndex(i int)      { b.index = i }
func (b *base) Label() []byte       { return b.label }
func (b *base) Clients() []Client   { return b.clients }

func (b *base) SetClients(cs []Client) { b.clients = cs }
func (b *base) SanityCheck() error  { return nil }

func (b *base) SetLabel(label []byte) {
	b.label = label
	if label != nil {
		b.flags |= FlagHasLabel
	} else {
		b.flags &^= FlagHasLabel
	}
}

func (b *base) setHeader(flags uint8, kind Kind) {
	b.flags = flags
	b.kind = kind
	b.index = -1
}

// constructors is the exact-kind dispatch stage. Kinds sharing an
// implementation map to the same factory on purpose; the sharing is
// part of the format contract.
var constructors = map[Kind]func() TypeDesc{}

// mainConstructors is the coarse fallback stage, consulted only when
// no exact-kind factory exists. The two stages stay separate lookups;
// merging them would change which kinds reach the raw fallback.
var mainConstructors = map[MainKind]func() TypeDesc{}

func register(f func() TypeDesc, kinds ...Kind) {
	for _, k := range kinds {
		constructors[k] = f
	}
}

func registerMain(f func() TypeDesc, mains ...MainKind) {
	for _, m := range mains {
		mainConstructors[m] = f
	}
}

// newForKind instantiates the codec for kind k: exact stage, then
// main-kind bucket, then the raw pass-through that round-trips bytes
// without interpretation.
func newForKind(k Kind) TypeDesc {
	if f, ok := constructors[k]; ok {
		return f()
	}
	if f, ok := mainConstructors[k.Main()]; ok {
		return f()
	}
	return newRaw()
}

// New constructs an empty descriptor node of the given kind, ready
// to be populated programmatically. The same two-stage dispatch used
// by decode applies, so unregistered kinds come back as raw nodes.
func New(kind Kind) TypeDesc {
	td := newForKind(kind)
	td.setHeader(0, kind)
	return td
}

// headerOverhead is flags byte + kind byte.
const headerOverhead = 2

// Decode reads one full type descriptor at the cursor: header,
// body, optional label tail.
func Decode(r *binio.Reader, ctx *Context) (TypeDesc, error) {
	return decodeAdjusted(r, ctx, 0)
}

// decodeAdjusted decodes a descriptor whose stored length field
// exceeds the true record length by lenAdjust bytes. Nested clients
// in post-8.0 documents store length 4 bytes high.
func decodeAdjusted(r *binio.Reader, ctx *Context, lenAdjust int) (TypeDesc, error) {
	start := r.Pos()
	length, err := r.ReadSmallIndex()
	if err != nil {
		return nil, ctx.structural(nil, "header length", err)
	}
	lenFieldSize := r.Pos() - start
	flagsByte, err := r.U8()
	if err != nil {
		return nil, ctx.structural(nil, "header flags", err)
	}
	kindByte, err := r.U8()
	if err != nil {
		return nil, ctx.structural(nil, "header kind", err)
	}
	kind := Kind(kindByte)

	bodyLen := int(length) - lenAdjust - lenFieldSize - headerOverhead
	if bodyLen < 0 {
		return nil, ctx.structural(nil, "header",
			fmt.Errorf("declared length %d smaller than header (%s)", length, kind))
	}
	body, err := r.Bytes(bodyLen)
	if err != nil {
		return nil, ctx.structural(nil, "body", fmt.Errorf("%s: %w", kind, err))
	}

	td := newForKind(kind)
	td.setHeader(flagsByte, kind)

	var label []byte
	if flagsByte&FlagHasLabel != 0 {
		body, label = splitLabel(body)
		if label == nil {
			// Keep the flag bit as stored so the record re-encodes
			// the way it arrived.
			diag.Sanity("label flag set but no label found",
				"file", ctx.File, "kind", kind.String())
		} else {
			td.SetLabel(label)
		}
	}

	br := binio.NewReader(body)
	if err := td.decodeBody(br, ctx); err != nil {
		return nil, ctx.structural(td, "decode", err)
	}
	if br.Remaining() > 0 {
		diag.Sanity("trailing bytes after descriptor body",
			"file", ctx.File, "kind", kind.String(), "bytes", br.Remaining())
	}
	if err := td.SanityCheck(); err != nil {
		diag.Sanity("descriptor failed sanity check",
			"file", ctx.File, "kind", kind.String(), "err", err.Error())
	}
	return td, nil
}

// Encode writes one full type descriptor: header, body, label tail,
// padded to even total length.
func Encode(w *binio.Writer, td TypeDesc, ctx *Context) error {
	return encodeAdjusted(w, td, ctx, 0)
}

func encodeAdjusted(w *binio.Writer, td TypeDesc, ctx *Context, lenAdjust int) error {
	bw := binio.NewWriter()
	if err := td.encodeBody(bw, ctx); err != nil {
		return ctx.structural(td, "encode", err)
	}
	body := bw.Bytes()

	label := td.Label()
	total := headerOverhead + len(body)
	if label != nil {
		total += 1 + len(label)
	}
	// The record is padded to even length. The pad byte goes before
	// the label so the label-recovery scan still finds the label
	// flush against the record end.
	pad := 0
	lenFieldSize := 2
	if lenFieldSize+total > binio.MaxSmallIndex {
		lenFieldSize = 4
	}
	if (lenFieldSize+total)%2 != 0 {
		pad = 1
		total++
		if lenFieldSize == 2 && lenFieldSize+total > binio.MaxSmallIndex {
			lenFieldSize = 4
		}
	}

	if err := w.WriteSmallIndex(uint32(lenFieldSize + total + lenAdjust)); err != nil {
		return ctx.structural(td, "encode length", err)
	}
	w.U8(td.Flags())
	w.U8(uint8(td.Kind()))
	w.Raw(body)
	if pad != 0 {
		w.U8(0)
	}
	if label != nil {
		w.U8(uint8(len(label)))
		w.Raw(label)
	}
	return nil
}

// clientsIndexed reports whether containers of kind k store their
// clients as table indices under version ver. Before the 8.0 format
// revision all container kinds nested their children inline.
func clientsIndexed(k Kind, ver lvver.Version) bool {
	switch k {
	case KindCluster, KindArray, KindArrayDataPtr, KindSubArray,
		KindTypeDef, KindAlignedBlock, KindRepeatedBlock, KindFunction:
		return lvver.Has(ver, lvver.FeatIndexedClients)
	}
	return false
}

// decodeClient reads one child reference in the layout k's
// containers use under ctx.Version.
func decodeClient(r *binio.Reader, ctx *Context, k Kind) (Client, error) {
	if clientsIndexed(k, ctx.Version) {
		idx, err := r.ReadSmallIndex()
		if err != nil {
			return Client{}, err
		}
		return IndexedClient(int(idx)), nil
	}
	adjust := 0
	if lvver.Has(ctx.Version, lvver.FeatNestedLenOffset4) {
		adjust = 4
	}
	nested, err := decodeAdjusted(r, ctx, adjust)
	if err != nil {
		return Client{}, err
	}
	return NestedClient(nested), nil
}

// encodeClient writes one child reference in the layout k's
// containers use under ctx.Version.
func encodeClient(w *binio.Writer, ctx *Context, k Kind, c Client) error {
	if clientsIndexed(k, ctx.Version) {
		if c.IsNested() {
			return fmt.Errorf("nested client in indexed-client container %s", k)
		}
		return w.WriteSmallIndex(uint32(c.Index))
	}
	if !c.IsNested() {
		return fmt.Errorf("indexed client %d in nested-client container %s", c.Index, k)
	}
	adjust := 0
	if lvver.Has(ctx.Version, lvver.FeatNestedLenOffset4) {
		adjust = 4
	}
	return encodeAdjusted(w, c.Nested, ctx, adjust)
}
