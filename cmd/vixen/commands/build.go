// Copyright 2026 The Vixen Authors
// SPDX-License-Identifier: Apache-2.0

package commands

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/pflag"

	"github.com/vixen-tools/vixen/cmd/vixen/cli"
	"github.com/vixen-tools/vixen/lib/diag"
)

func buildCommand() *cli.Command {
	var outFile string
	var configPath string

	return &cli.Command{
		Name:    "build",
		Summary: "Rebuild a binary from an extracted XML tree",
		Usage:   "vixen build DIR [flags]",
		Description: `Build reads manifest.xml from an extraction directory, resolves
inline hex and companion files, re-encodes the consolidated type
table, and writes the reassembled resource container. Rebuilding an
untouched extraction reproduces the original file byte for byte.`,
		Examples: []cli.Example{
			{
				Description: "Rebuild using the file name recorded in the manifest",
				Command:     "vixen build work/panel",
			},
			{
				Description: "Rebuild into an explicit output file",
				Command:     "vixen build work/panel --out fixed.vi",
			},
		},
		Flags: func() *pflag.FlagSet {
			flagSet := pflag.NewFlagSet("build", pflag.ContinueOnError)
			flagSet.StringVarP(&outFile, "out", "o", "", "output file (default: the File name from the manifest)")
			flagSet.StringVar(&configPath, "config", "", "tunables file (YAML)")
			return flagSet
		},
		Run: func(args []string) error {
			if len(args) != 1 {
				return fmt.Errorf("build takes exactly one directory argument")
			}
			dir := args[0]

			// Accept a direct manifest path as well as its directory.
			if strings.HasSuffix(dir, ".xml") {
				dir = filepath.Dir(dir)
			}

			cfg, err := loadConfig(configPath)
			if err != nil {
				return err
			}

			logger := cli.NewCommandLogger().With("command", "build", "dir", dir)
			diag.SetLogger(logger)

			doc, err := readManifest(dir, cfg)
			if err != nil {
				return err
			}

			image, err := doc.Encode()
			if err != nil {
				return err
			}

			if outFile == "" {
				outFile = doc.File()
			}
			if err := os.WriteFile(outFile, image, 0o644); err != nil {
				return fmt.Errorf("writing %s: %w", outFile, err)
			}

			logger.Info("built", "sections", len(doc.Sections()), "bytes", len(image), "out", outFile)
			return nil
		},
	}
}
