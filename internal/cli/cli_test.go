// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"testing"
)

func TestParseArgs_Commands(t *testing.T) {
	tests := []struct {
		name string
		argv []string
		want Command
	}{
		{"no args defaults to TUI", nil, CmdTUI},
		{"explicit tui", []string{"tui"}, CmdTUI},
		{"chat", []string{"chat"}, CmdChat},
		{"serve", []string{"serve"}, CmdServe},
		{"server alias", []string{"server"}, CmdServe},
		{"config", []string{"config", "show"}, CmdConfig},
		{"transcripts", []string{"transcripts"}, CmdTranscripts},
		{"history alias", []string{"history"}, CmdTranscripts},
		{"version", []string{"version"}, CmdVersion},
		{"version flag", []string{"--version"}, CmdVersion},
		{"help", []string{"help"}, CmdHelp},
		{"ask", []string{"ask", "where", "is", "my", "order"}, CmdAsk},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cmd, _ := ParseArgs(tt.argv)
			if cmd != tt.want {
				t.Errorf("ParseArgs(%v) = %v, want %v", tt.argv, cmd, tt.want)
			}
		})
	}
}

func TestParseArgs_AskQuery(t *testing.T) {
	cmd, args := ParseArgs([]string{"ask", "where", "is", "my", "order?"})
	if cmd != CmdAsk {
		t.Fatalf("cmd = %v, want CmdAsk", cmd)
	}
	if args.Query != "where is my order?" {
		t.Errorf("Query = %q", args.Query)
	}
}

func TestParseArgs_BareQuestionBecomesAsk(t *testing.T) {
	cmd, args := ParseArgs([]string{"my", "package", "never", "arrived"})
	if cmd != CmdAsk {
		t.Fatalf("cmd = %v, want CmdAsk", cmd)
	}
	if args.Query != "my package never arrived" {
		t.Errorf("Query = %q", args.Query)
	}
}

func TestParseArgs_GlobalFlags(t *testing.T) {
	cmd, args := ParseArgs([]string{"--quiet", "--model", "gpt-4o", "--no-store", "chat"})
	if cmd != CmdChat {
		t.Fatalf("cmd = %v, want CmdChat", cmd)
	}
	if !args.Quiet {
		t.Error("Quiet not set")
	}
	if args.Model != "gpt-4o" {
		t.Errorf("Model = %q", args.Model)
	}
	if !args.NoStore {
		t.Error("NoStore not set")
	}
}

func TestParseArgs_EqualsFlagForms(t *testing.T) {
	_, args := ParseArgs([]string{"--model=gpt-4o", "--config=/tmp/c.toml", "tui"})
	if args.Model != "gpt-4o" {
		t.Errorf("Model = %q", args.Model)
	}
	if args.Config != "/tmp/c.toml" {
		t.Errorf("Config = %q", args.Config)
	}
}

func TestParseArgs_ConfigSubcommands(t *testing.T) {
	_, args := ParseArgs([]string{"config", "set", "ui.theme", "light"})
	if args.Subcommand != "set" {
		t.Errorf("Subcommand = %q", args.Subcommand)
	}
	if args.ConfigKey != "ui.theme" {
		t.Errorf("ConfigKey = %q", args.ConfigKey)
	}
	if args.ConfigVal != "light" {
		t.Errorf("ConfigVal = %q", args.ConfigVal)
	}

	_, args = ParseArgs([]string{"config"})
	if args.Subcommand != "show" {
		t.Errorf("default config Subcommand = %q, want show", args.Subcommand)
	}
}

func TestParseArgs_ServeAddr(t *testing.T) {
	_, args := ParseArgs([]string{"serve", "--addr", "0.0.0.0:9000"})
	if args.Addr != "0.0.0.0:9000" {
		t.Errorf("Addr = %q", args.Addr)
	}

	_, args = ParseArgs([]string{"serve", "--addr=127.0.0.1:1234"})
	if args.Addr != "127.0.0.1:1234" {
		t.Errorf("Addr = %q", args.Addr)
	}
}

func TestParseArgs_TranscriptID(t *testing.T) {
	_, args := ParseArgs([]string{"transcripts", "show", "conv_abc123"})
	if args.Subcommand != "show" {
		t.Errorf("Subcommand = %q", args.Subcommand)
	}
	if args.ConfigKey != "conv_abc123" {
		t.Errorf("id = %q", args.ConfigKey)
	}

	_, args = ParseArgs([]string{"transcripts", "export", "conv_abc123", "json"})
	if args.Subcommand != "export" {
		t.Errorf("Subcommand = %q", args.Subcommand)
	}
	if args.ConfigVal != "json" {
		t.Errorf("format = %q", args.ConfigVal)
	}
}
