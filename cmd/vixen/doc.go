// Copyright 2026 The Vixen Authors
// SPDX-License-Identifier: Apache-2.0

// Vixen is the CLI for the resource-container typed-value codec. It
// provides subcommands for unpacking a compiled virtual-instrument
// file into an editable XML tree (extract), reassembling a
// byte-identical binary from that tree (build), inspecting container
// metadata (info), and emitting the decoded type graph for
// structural diffing (dump).
package main
