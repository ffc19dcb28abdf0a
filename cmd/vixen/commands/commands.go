// Copyright 2026 The Vixen Authors
// SPDX-License-Identifier: Apache-2.0

// Package commands builds the complete vixen CLI command tree.
package commands

import (
	"fmt"

	"github.com/vixen-tools/vixen/cmd/vixen/cli"
	"github.com/vixen-tools/vixen/lib/version"
)

// Root builds and returns the complete vixen CLI command tree.
func Root() *cli.Command {
	return &cli.Command{
		Name: "vixen",
		Description: `Vixen: typed-value codec for compiled virtual-instrument files.

Unpack the binary resource container into an editable XML tree with
companion files, edit it, and rebuild a byte-identical binary.`,
		Subcommands: []*cli.Command{
			extractCommand(),
			buildCommand(),
			infoCommand(),
			dumpCommand(),
			{
				Name:    "version",
				Summary: "Print version information",
				Run: func(args []string) error {
					fmt.Printf("vixen %s\n", version.Full())
					return nil
				},
			},
		},
	}
}
