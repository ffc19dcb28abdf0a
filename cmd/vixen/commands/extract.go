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
	"github.com/vixen-tools/vixen/lib/config"
	"github.com/vixen-tools/vixen/lib/diag"
	"github.com/vixen-tools/vixen/lib/rsrc"
)

// loadConfig resolves the tunables file: an explicit --config path
// wins, otherwise the VIXEN_CONFIG environment variable, otherwise
// built-in defaults.
func loadConfig(path string) (*config.Config, error) {
	if path != "" {
		return config.LoadFile(path)
	}
	return config.Load()
}

func extractCommand() *cli.Command {
	var outDir string
	var configPath string

	return &cli.Command{
		Name:    "extract",
		Summary: "Unpack a binary into an XML tree with companion files",
		Usage:   "vixen extract FILE.vi [flags]",
		Description: `Extract parses the resource container, decodes the consolidated
type table into an editable XML element tree, and writes manifest.xml
plus companion files for oversized payloads into the output
directory. Sections the tool does not decode survive verbatim, so an
untouched extraction rebuilds byte-identically.`,
		Examples: []cli.Example{
			{
				Description: "Extract into a directory named after the file",
				Command:     "vixen extract panel.vi",
			},
			{
				Description: "Extract into an explicit directory",
				Command:     "vixen extract panel.vi --out work/panel",
			},
		},
		Flags: func() *pflag.FlagSet {
			flagSet := pflag.NewFlagSet("extract", pflag.ContinueOnError)
			flagSet.StringVarP(&outDir, "out", "o", "", "output directory (default: file name without extension)")
			flagSet.StringVar(&configPath, "config", "", "tunables file (YAML)")
			return flagSet
		},
		Run: func(args []string) error {
			if len(args) != 1 {
				return fmt.Errorf("extract takes exactly one file argument")
			}
			path := args[0]

			cfg, err := loadConfig(configPath)
			if err != nil {
				return err
			}

			logger := cli.NewCommandLogger().With("command", "extract", "file", path)
			diag.SetLogger(logger)

			doc, err := rsrc.Load(path)
			if err != nil {
				return err
			}

			if outDir == "" {
				outDir = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
			}
			if err := os.MkdirAll(outDir, 0o755); err != nil {
				return fmt.Errorf("creating output directory: %w", err)
			}

			if err := writeManifest(doc, outDir, cfg, logger); err != nil {
				return err
			}

			logger.Info("extracted", "sections", len(doc.Sections()), "out", outDir)
			return nil
		},
	}
}
