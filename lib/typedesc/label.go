// Copyright 2026 The Vixen Authors
// SPDX-License-Identifier: Apache-2.0

package typedesc

// maxLabelScan bounds how far back from the record end the label
// scan looks. A label is a pascal string, so it can occupy at most
// 256 bytes.
const maxLabelScan = 256

// splitLabel recovers the label tail from a descriptor body. The
// format appends the label after variant-specific data without any
// offset field, so the only way to find it is a scan: a position i
// is the label start when 1+body[i] equals the bytes remaining from
// i and everything after the length byte is printable text.
//
// This is a best-effort heuristic inherited from the reverse
// engineering of the format. It can mis-split bodies whose trailing
// bytes happen to look like a pascal string, and it can miss labels
// containing unusual bytes. Both behaviors are kept as-is; "fixing"
// either side without new evidence about the original writer would
// break byte-identical round trips on real documents.
func splitLabel(body []byte) (rest, label []byte) {
	lo := 0
	if len(body) > maxLabelScan {
		lo = len(body) - maxLabelScan
	}
	for i := lo; i < len(body); i++ {
		n := int(body[i])
		if 1+n != len(body)-i {
			continue
		}
		if !printableLabel(body[i+1:]) {
			continue
		}
		return body[:i], body[i+1:]
	}
	return body, nil
}

// printableLabel reports whether every byte is printable ASCII or
// one of CR, LF, TAB.
func printableLabel(b []byte) bool {
	for _, c := range b {
		if c >= 0x20 && c < 0x7F {
			continue
		}
		if c == '\r' || c == '\n' || c == '\t' {
			continue
		}
		return false
	}
	return true
}
