// Copyright 2026 The Vixen Authors
// SPDX-License-Identifier: Apache-2.0

package cli

import (
	"bytes"
	"strings"
	"testing"

	"github.com/spf13/pflag"
)

func TestCommand_Execute_DispatchesToSubcommand(t *testing.T) {
	var called string

	root := &Command{
		Name: "vixen",
		Subcommands: []*Command{
			{
				Name: "version",
				Run: func(args []string) error {
					called = "version"
					return nil
				},
			},
			{
				Name: "info",
				Run: func(args []string) error {
					called = "info"
					return nil
				},
			},
		},
	}

	if err := root.Execute([]string{"info"}); err != nil {
		t.Fatalf("Execute() error: %v", err)
	}
	if called != "info" {
		t.Errorf("dispatched to %q, want %q", called, "info")
	}
}

func TestCommand_Execute_FlagParsing(t *testing.T) {
	var outDir string
	var target string

	command := &Command{
		Name: "extract",
		Flags: func() *pflag.FlagSet {
			flagSet := pflag.NewFlagSet("extract", pflag.ContinueOnError)
			flagSet.StringVar(&outDir, "out", ".", "output directory")
			return flagSet
		},
		Run: func(args []string) error {
			if len(args) > 0 {
				target = args[0]
			}
			return nil
		},
	}

	if err := command.Execute([]string{"--out", "/tmp/work", "panel.vi"}); err != nil {
		t.Fatalf("Execute() error: %v", err)
	}
	if outDir != "/tmp/work" {
		t.Errorf("outDir = %q, want %q", outDir, "/tmp/work")
	}
	if target != "panel.vi" {
		t.Errorf("target = %q, want %q", target, "panel.vi")
	}
}

func TestCommand_Execute_UnknownCommandSuggestion(t *testing.T) {
	root := &Command{
		Name: "vixen",
		Subcommands: []*Command{
			{Name: "extract", Run: func(args []string) error { return nil }},
			{Name: "build", Run: func(args []string) error { return nil }},
		},
	}

	err := root.Execute([]string{"extrct"})
	if err == nil {
		t.Fatal("expected error for unknown command")
	}
	if !strings.Contains(err.Error(), `did you mean "extract"`) {
		t.Errorf("error %q should suggest extract", err.Error())
	}
}

func TestCommand_Execute_UnknownFlagSuggestion(t *testing.T) {
	command := &Command{
		Name: "dump",
		Flags: func() *pflag.FlagSet {
			flagSet := pflag.NewFlagSet("dump", pflag.ContinueOnError)
			flagSet.Bool("cbor", false, "CBOR output")
			flagSet.Bool("json", false, "JSON output")
			return flagSet
		},
		Run: func(args []string) error { return nil },
	}

	err := command.Execute([]string{"--cbro"})
	if err == nil {
		t.Fatal("expected error for unknown flag")
	}
	if !strings.Contains(err.Error(), "--cbor") {
		t.Errorf("error %q should suggest --cbor", err.Error())
	}
}

func TestCommand_Execute_SubcommandRequired(t *testing.T) {
	root := &Command{
		Name: "vixen",
		Subcommands: []*Command{
			{Name: "info", Run: func(args []string) error { return nil }},
		},
	}

	if err := root.Execute(nil); err == nil {
		t.Fatal("expected error when no subcommand given")
	}
}

func TestCommand_PrintHelp_ListsSubcommands(t *testing.T) {
	root := &Command{
		Name:    "vixen",
		Summary: "resource codec tool",
		Subcommands: []*Command{
			{Name: "extract", Summary: "unpack a binary into XML"},
			{Name: "build", Summary: "rebuild a binary from XML"},
		},
	}

	var out bytes.Buffer
	root.PrintHelp(&out)

	help := out.String()
	for _, want := range []string{"extract", "build", "unpack a binary into XML"} {
		if !strings.Contains(help, want) {
			t.Errorf("help output missing %q:\n%s", want, help)
		}
	}
}

func TestCommand_Execute_HelpFlag(t *testing.T) {
	ran := false
	command := &Command{
		Name:    "info",
		Summary: "show container metadata",
		Run: func(args []string) error {
			ran = true
			return nil
		},
	}

	if err := command.Execute([]string{"--help"}); err != nil {
		t.Fatalf("Execute(--help) error: %v", err)
	}
	if ran {
		t.Error("--help should not run the command")
	}
}

func TestLevenshtein(t *testing.T) {
	tests := []struct {
		a, b string
		want int
	}{
		{"", "", 0},
		{"extract", "extract", 0},
		{"extrct", "extract", 1},
		{"biuld", "build", 2},
		{"dump", "info", 4},
	}

	for _, test := range tests {
		if got := levenshtein(test.a, test.b); got != test.want {
			t.Errorf("levenshtein(%q, %q) = %d, want %d", test.a, test.b, got, test.want)
		}
	}
}
