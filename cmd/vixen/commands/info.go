// Copyright 2026 The Vixen Authors
// SPDX-License-Identifier: Apache-2.0

package commands

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/pflag"

	"github.com/vixen-tools/vixen/cmd/vixen/cli"
	"github.com/vixen-tools/vixen/lib/binhash"
	"github.com/vixen-tools/vixen/lib/rsrc"
)

// sectionInfo is one row of the info report.
type sectionInfo struct {
	Name       string `json:"name"`
	Size       int    `json:"size"`
	Compressed bool   `json:"compressed"`
	Digest     string `json:"digest"`
}

// fileInfo is the full info report.
type fileInfo struct {
	File     string        `json:"file"`
	FileType string        `json:"file_type"`
	Creator  string        `json:"creator"`
	Version  string        `json:"version,omitempty"`
	Sections []sectionInfo `json:"sections"`
}

func infoCommand() *cli.Command {
	var asJSON bool

	return &cli.Command{
		Name:    "info",
		Summary: "Show container identity, version, and section table",
		Usage:   "vixen info FILE.vi [flags]",
		Examples: []cli.Example{
			{Command: "vixen info panel.vi"},
			{Command: "vixen info panel.vi --json"},
		},
		Flags: func() *pflag.FlagSet {
			flagSet := pflag.NewFlagSet("info", pflag.ContinueOnError)
			flagSet.BoolVar(&asJSON, "json", false, "output as JSON")
			return flagSet
		},
		Run: func(args []string) error {
			if len(args) != 1 {
				return fmt.Errorf("info takes exactly one file argument")
			}

			doc, err := rsrc.Load(args[0])
			if err != nil {
				return err
			}

			report := fileInfo{
				File:     doc.File(),
				FileType: fourCC(doc.FileType),
				Creator:  fourCC(doc.Creator),
			}
			if ver, err := doc.FileVersion(); err == nil {
				report.Version = ver.String()
			}
			for _, section := range doc.Sections() {
				digest := binhash.HashBytes(section.Data())
				report.Sections = append(report.Sections, sectionInfo{
					Name:       section.Name,
					Size:       len(section.Data()),
					Compressed: section.Compressed,
					Digest:     binhash.FormatDigest(digest),
				})
			}

			if asJSON {
				return cli.WriteJSON(report)
			}

			fmt.Printf("%s: type %s, creator %s", report.File, report.FileType, report.Creator)
			if report.Version != "" {
				fmt.Printf(", version %s", report.Version)
			}
			fmt.Println()

			tw := tabwriter.NewWriter(os.Stdout, 2, 0, 3, ' ', 0)
			fmt.Fprintln(tw, "  SECTION\tSIZE\tZLIB\tBLAKE3")
			for _, s := range report.Sections {
				compressed := "-"
				if s.Compressed {
					compressed = "yes"
				}
				fmt.Fprintf(tw, "  %s\t%d\t%s\t%s\n", s.Name, s.Size, compressed, s.Digest[:16])
			}
			return tw.Flush()
		},
	}
}
