// Copyright 2026 The Vixen Authors
// SPDX-License-Identifier: Apache-2.0

package typedesc

import (
	"fmt"

	"github.com/vixen-tools/vixen/lib/binio"
	"github.com/vixen-tools/vixen/lib/lvver"
)

func init() {
	register(func() TypeDesc { return &Function{} }, KindFunction)
}

// maxFunctionClients is the structural sanity bound on regular
// function parameters.
const maxFunctionClients = 125

// Function flag bits. Recovered constants; each gates a trailing
// optional section of the body.
const (
	// FuncFlagThrall marks the presence of per-parameter thrall
	// source chains.
	FuncFlagThrall = 0x0800
	// FuncFlagExtra marks 8 extra bytes after the chains.
	FuncFlagExtra = 0x4000
	// FuncFlagSpecialClient marks one additional client stored
	// outside the regular parameter list.
	FuncFlagSpecialClient = 0x8000
)

// Function describes a callable signature. Body: u16 parameter
// count, the parameter clients, u16 fflags, u16 pattern, one flag
// field per parameter (2 bytes, widened to 4 at the 8.0 revision),
// then flag-gated trailing sections.
type Function struct {
	base
	FFlags  uint16
	Pattern uint16
	// Thrall holds one zero-terminated source chain per parameter
	// when FuncFlagThrall is set. Chain values are stored offset by
	// one from the 8.5 revision onward; the decoded form is always
	// the true value.
	Thrall [][]uint8
	// Extra is the 8-byte tail present when FuncFlagExtra is set.
	Extra []byte
	// Special is the out-of-list client present when
	// FuncFlagSpecialClient is set.
	Special *Client
}

func (t *Function) decodeBody(r *binio.Reader, ctx *Context) error {
	count, err := r.U16()
	if err != nil {
		return err
	}
	if count > maxFunctionClients {
		return fmt.Errorf("function of %d parameters exceeds bound %d",
			count, maxFunctionClients)
	}
	t.clients = make([]Client, 0, count)
	for i := 0; i < int(count); i++ {
		c, err := decodeClient(r, ctx, t.kind)
		if err != nil {
			return fmt.Errorf("parameter %d: %w", i, err)
		}
		t.clients = append(t.clients, c)
	}
	if t.FFlags, err = r.U16(); err != nil {
		return err
	}
	if t.Pattern, err = r.U16(); err != nil {
		return err
	}

	wide := lvver.Has(ctx.Version, lvver.FeatFuncClientFlagsWide)
	for i := range t.clients {
		if wide {
			v, err := r.U32()
			if err != nil {
				return fmt.Errorf("parameter %d flags: %w", i, err)
			}
			t.clients[i].Flags = v
		} else {
			v, err := r.U16()
			if err != nil {
				return fmt.Errorf("parameter %d flags: %w", i, err)
			}
			t.clients[i].Flags = uint32(v)
		}
	}

	if t.FFlags&FuncFlagThrall != 0 {
		shift := uint8(0)
		if lvver.Has(ctx.Version, lvver.FeatThrallValueShift) {
			shift = 1
		}
		t.Thrall = make([][]uint8, len(t.clients))
		for i := range t.clients {
			for {
				v, err := r.U8()
				if err != nil {
					return fmt.Errorf("parameter %d thrall chain: %w", i, err)
				}
				if v == 0 {
					break
				}
				t.Thrall[i] = append(t.Thrall[i], v-shift)
			}
		}
	}

	if t.FFlags&FuncFlagExtra != 0 {
		b, err := r.Bytes(8)
		if err != nil {
			return err
		}
		t.Extra = append([]byte(nil), b...)
	}

	if t.FFlags&FuncFlagSpecialClient != 0 {
		c, err := decodeClient(r, ctx, t.kind)
		if err != nil {
			return fmt.Errorf("special client: %w", err)
		}
		t.Special = &c
	}
	return nil
}

func (t *Function) encodeBody(w *binio.Writer, ctx *Context) error {
	w.U16(uint16(len(t.clients)))
	for i, c := range t.clients {
		if err := encodeClient(w, ctx, t.kind, c); err != nil {
			return fmt.Errorf("parameter %d: %w", i, err)
		}
	}
	w.U16(t.FFlags)
	w.U16(t.Pattern)

	wide := lvver.Has(ctx.Version, lvver.FeatFuncClientFlagsWide)
	for _, c := range t.clients {
		if wide {
			w.U32(c.Flags)
		} else {
			w.U16(uint16(c.Flags))
		}
	}

	if t.FFlags&FuncFlagThrall != 0 {
		shift := uint8(0)
		if lvver.Has(ctx.Version, lvver.FeatThrallValueShift) {
			shift = 1
		}
		for i := range t.clients {
			var chain []uint8
			if i < len(t.Thrall) {
				chain = t.Thrall[i]
			}
			for _, v := range chain {
				w.U8(v + shift)
			}
			w.U8(0)
		}
	}

	if t.FFlags&FuncFlagExtra != 0 {
		if len(t.Extra) != 8 {
			return fmt.Errorf("extra section is %d bytes, want 8", len(t.Extra))
		}
		w.Raw(t.Extra)
	}

	if t.FFlags&FuncFlagSpecialClient != 0 {
		if t.Special == nil {
			return fmt.Errorf("special-client flag set with no client")
		}
		if err := encodeClient(w, ctx, t.kind, *t.Special); err != nil {
			return fmt.Errorf("special client: %w", err)
		}
	}
	return nil
}

func (t *Function) SanityCheck() error {
	if len(t.clients) > maxFunctionClients {
		return fmt.Errorf("%d parameters exceeds bound %d", len(t.clients), maxFunctionClients)
	}
	return nil
}
