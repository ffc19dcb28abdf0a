// Copyright 2026 The Vixen Authors
// SPDX-License-Identifier: Apache-2.0

package commands

import (
	"fmt"
	"os"

	"github.com/spf13/pflag"

	"github.com/vixen-tools/vixen/cmd/vixen/cli"
	"github.com/vixen-tools/vixen/lib/binio"
	"github.com/vixen-tools/vixen/lib/codec"
	"github.com/vixen-tools/vixen/lib/config"
	"github.com/vixen-tools/vixen/lib/diag"
	"github.com/vixen-tools/vixen/lib/rsrc"
	"github.com/vixen-tools/vixen/lib/typedesc"
)

// dumpClient is one client edge in the dump tree: either a table
// index reference or an owned nested node.
type dumpClient struct {
	Index  *int      `json:"index,omitempty"`
	Nested *dumpNode `json:"nested,omitempty"`
}

// dumpNode is one decoded type-table entry.
type dumpNode struct {
	Kind    string       `json:"kind"`
	Label   string       `json:"label,omitempty"`
	Clients []dumpClient `json:"clients,omitempty"`
}

// dumpDoc is the full machine-readable dump.
type dumpDoc struct {
	File     string     `json:"file"`
	Version  string     `json:"version"`
	TopTypes []int      `json:"top_types"`
	Types    []dumpNode `json:"types"`
}

func dumpCommand() *cli.Command {
	var asCBOR bool
	var asJSON bool
	var configPath string

	return &cli.Command{
		Name:    "dump",
		Summary: "Emit the decoded type tree as JSON or deterministic CBOR",
		Usage:   "vixen dump FILE.vi [flags]",
		Description: `Dump decodes the consolidated type table and writes the resulting
tree to stdout. The default output is indented JSON; --cbor selects
Core Deterministic Encoding CBOR, which produces identical bytes for
identical trees and is meant for structural diffing between two
files.`,
		Examples: []cli.Example{
			{Command: "vixen dump panel.vi"},
			{
				Description: "Diff two files structurally",
				Command:     "vixen dump a.vi --cbor > a.cbor && vixen dump b.vi --cbor > b.cbor && cmp a.cbor b.cbor",
			},
		},
		Flags: func() *pflag.FlagSet {
			flagSet := pflag.NewFlagSet("dump", pflag.ContinueOnError)
			flagSet.BoolVar(&asCBOR, "cbor", false, "deterministic CBOR output")
			flagSet.BoolVar(&asJSON, "json", false, "JSON output (the default)")
			flagSet.StringVar(&configPath, "config", "", "tunables file (YAML)")
			return flagSet
		},
		Run: func(args []string) error {
			if len(args) != 1 {
				return fmt.Errorf("dump takes exactly one file argument")
			}
			if asCBOR && asJSON {
				return fmt.Errorf("--cbor and --json are mutually exclusive")
			}

			cfg, err := loadConfig(configPath)
			if err != nil {
				return err
			}

			logger := cli.NewCommandLogger().With("command", "dump", "file", args[0])
			diag.SetLogger(logger)

			result, err := dumpFile(args[0], cfg)
			if err != nil {
				return err
			}

			if asCBOR {
				data, err := codec.Marshal(result)
				if err != nil {
					return err
				}
				_, err = os.Stdout.Write(data)
				return err
			}
			return cli.WriteJSON(result)
		},
	}
}

// dumpFile loads the container and decodes the type table into the
// dump tree.
func dumpFile(path string, cfg *config.Config) (*dumpDoc, error) {
	doc, err := rsrc.Load(path)
	if err != nil {
		return nil, err
	}
	ver, err := doc.FileVersion()
	if err != nil {
		return nil, err
	}
	section, err := doc.MustSection(typeListSection)
	if err != nil {
		return nil, err
	}

	ctx := typedesc.NewContext(doc.File(), ver)
	ctx.Limits = cfg.DecodeLimits()
	list, err := typedesc.DecodeList(binio.NewReader(section.Data()), ctx)
	if err != nil {
		return nil, err
	}

	result := &dumpDoc{
		File:     doc.File(),
		Version:  ver.String(),
		TopTypes: list.TopTypes,
	}
	if result.TopTypes == nil {
		result.TopTypes = []int{}
	}
	for _, td := range list.All() {
		result.Types = append(result.Types, dumpType(td))
	}
	return result, nil
}

// dumpType converts one descriptor and its owned subtree.
func dumpType(td typedesc.TypeDesc) dumpNode {
	node := dumpNode{
		Kind:  td.Kind().String(),
		Label: string(td.Label()),
	}
	for _, client := range td.Clients() {
		if client.IsNested() {
			nested := dumpType(client.Nested)
			node.Clients = append(node.Clients, dumpClient{Nested: &nested})
		} else {
			index := client.Index
			node.Clients = append(node.Clients, dumpClient{Index: &index})
		}
	}
	return node
}
