// Copyright 2026 The KFD Project Authors
// SPDX-License-Identifier: Apache-2.0

package cli

import (
	"strings"
	"testing"
	"time"
)

func TestExecuteDispatch(t *testing.T) {
	ran := ""
	root := &Command{
		Name: "kfdinfo",
		Subcommands: []*Command{
			{Name: "info", Run: func(args []string) error { ran = "info"; return nil }},
			{Name: "snapshot", Run: func(args []string) error { ran = "snapshot"; return nil }},
		},
	}

	if err := root.Execute([]string{"snapshot"}); err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if ran != "snapshot" {
		t.Errorf("ran %q, want snapshot", ran)
	}
}

func TestExecuteSuggestsCommand(t *testing.T) {
	root := &Command{
		Name: "kfdinfo",
		Subcommands: []*Command{
			{Name: "topology", Run: func([]string) error { return nil }},
		},
	}

	err := root.Execute([]string{"topolgy"})
	if err == nil {
		t.Fatal("expected error for unknown command")
	}
	if !strings.Contains(err.Error(), `did you mean "topology"`) {
		t.Errorf("error lacks suggestion: %v", err)
	}
}

func TestExecuteRootRunWithSubcommands(t *testing.T) {
	// The root runs its default action when no subcommand matches.
	ran := false
	root := &Command{
		Name:        "kfdinfo",
		Run:         func(args []string) error { ran = true; return nil },
		Subcommands: []*Command{{Name: "version", Run: func([]string) error { return nil }}},
	}
	if err := root.Execute(nil); err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if !ran {
		t.Error("root Run did not execute")
	}
}

func TestFlagsFromParams(t *testing.T) {
	type params struct {
		JSONOutput
		Output   string        `flag:"output,o" desc:"output file"`
		Interval time.Duration `flag:"interval" desc:"sample interval" default:"1s"`
		Verbose  bool          `flag:"verbose" desc:"more detail"`
	}

	var p params
	flagSet := FlagsFromParams("test", &p)
	if err := flagSet.Parse([]string{"--output", "snap.cbor", "--json", "--interval", "250ms"}); err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if p.Output != "snap.cbor" {
		t.Errorf("Output = %q", p.Output)
	}
	if !p.OutputJSON {
		t.Error("embedded --json flag not bound")
	}
	if p.Interval != 250*time.Millisecond {
		t.Errorf("Interval = %s", p.Interval)
	}
	if p.Verbose {
		t.Error("Verbose should default to false")
	}
}

func TestFlagDefault(t *testing.T) {
	type params struct {
		Interval time.Duration `flag:"interval" default:"1s"`
	}
	var p params
	flagSet := FlagsFromParams("test", &p)
	if err := flagSet.Parse(nil); err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if p.Interval != time.Second {
		t.Errorf("Interval default = %s, want 1s", p.Interval)
	}
}

func TestSuggestFlag(t *testing.T) {
	type params struct {
		Output string `flag:"output" desc:"output file"`
	}
	var p params
	suggestion := suggestFlag([]string{"--ouput", "x"}, FlagsFromParams("test", &p))
	if suggestion != "--output" {
		t.Errorf("suggestion = %q, want --output", suggestion)
	}
}

func TestLevenshtein(t *testing.T) {
	cases := []struct {
		a, b string
		want int
	}{
		{"", "abc", 3},
		{"abc", "abc", 0},
		{"topolgy", "topology", 1},
		{"info", "infos", 1},
		{"kitten", "sitting", 3},
	}
	for _, c := range cases {
		if got := levenshtein(c.a, c.b); got != c.want {
			t.Errorf("levenshtein(%q, %q) = %d, want %d", c.a, c.b, got, c.want)
		}
	}
}

func TestExitError(t *testing.T) {
	err := &ExitError{Code: 2}
	if err.ExitCode() != 2 {
		t.Errorf("ExitCode() = %d", err.ExitCode())
	}
	if err.Error() != "exit code 2" {
		t.Errorf("Error() = %q", err.Error())
	}
}
