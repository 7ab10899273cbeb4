// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"fmt"
	"os"
	"runtime"
	"strings"
)

// Version information (can be overridden at build time)
var (
	Version   = "0.1.0"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

// Command represents the CLI command to execute.
type Command int

const (
	CmdTUI Command = iota
	CmdAsk
	CmdChat
	CmdServe
	CmdConfig
	CmdTranscripts
	CmdVersion
	CmdHelp
)

// Args holds parsed CLI arguments.
type Args struct {
	// Global flags
	Quiet   bool
	NoStore bool
	Model   string
	Config  string // explicit config file path

	// Command-specific
	Query      string
	Subcommand string
	ConfigKey  string
	ConfigVal  string
	Addr       string

	// Raw args (remaining after flag parsing)
	Raw []string
}

const usageText = `helpline - terminal customer support chat

Helpline is a support-chat widget for the terminal. It talks to a
chat-completion backend, renders the agent's quick replies and links,
and throttles outgoing messages so one impatient visitor cannot flood
the upstream.

Usage:
  helpline                       Start the TUI (default)
  helpline chat                  Plain-terminal chat (no TUI)
  helpline ask "question"        Ask a single question and exit
  helpline serve                 Start the companion API server
    --addr HOST:PORT             Listen address override
  helpline config show           Print the active configuration
  helpline config get <key>      Print one value
  helpline config set <key> <v>  Update one value
  helpline config path           Print the config file location
  helpline config init           Write a default config file
  helpline transcripts list      List saved conversations
  helpline transcripts show <id> Print one conversation
  helpline transcripts export <id> [md|json]
  helpline transcripts delete <id>
  helpline version               Print version information
  helpline help                  Show this help

Global flags:
  --config PATH   Use a specific config file
  --model NAME    Override the backend model
  --no-store      Disable transcript persistence
  --quiet, -q     Suppress informational output

Environment:
  HELPLINE_API_KEY    Backend API key (preferred over the config file)
  HELPLINE_BASE_URL   Backend base URL
  HELPLINE_MODEL      Backend model
`

// PrintUsage prints the usage text.
func PrintUsage() {
	fmt.Print(usageText)
}

// PrintVersion prints version information.
func PrintVersion() {
	fmt.Printf("helpline %s\n", Version)
	fmt.Printf("  commit:  %s\n", GitCommit)
	fmt.Printf("  built:   %s\n", BuildDate)
	fmt.Printf("  runtime: %s %s/%s\n", runtime.Version(), runtime.GOOS, runtime.GOARCH)
}

// Parse parses os.Args into a command and its arguments.
func Parse() (Command, Args) {
	return ParseArgs(os.Args[1:])
}

// ParseArgs parses the given arguments. Split out for tests.
func ParseArgs(argv []string) (Command, Args) {
	remaining, args := parseGlobalFlags(argv)

	if len(remaining) == 0 {
		return CmdTUI, args
	}

	cmd := strings.ToLower(remaining[0])
	remaining = remaining[1:]
	args.Raw = remaining

	switch cmd {
	case "tui":
		return CmdTUI, args

	case "ask":
		args.Query = strings.Join(remaining, " ")
		return CmdAsk, args

	case "chat":
		return CmdChat, args

	case "serve", "server":
		parseServeArgs(&args, remaining)
		return CmdServe, args

	case "config":
		parseConfigArgs(&args, remaining)
		return CmdConfig, args

	case "transcripts", "transcript", "history":
		parseTranscriptArgs(&args, remaining)
		return CmdTranscripts, args

	case "version", "-v", "--version":
		return CmdVersion, args

	case "help", "-h", "--help":
		return CmdHelp, args

	default:
		// Unknown word: treat the whole line as an ask query.
		args.Query = strings.Join(append([]string{cmd}, remaining...), " ")
		return CmdAsk, args
	}
}

// parseGlobalFlags strips global flags and returns the rest.
func parseGlobalFlags(argv []string) ([]string, Args) {
	var args Args
	var remaining []string

	i := 0
	for i < len(argv) {
		switch arg := argv[i]; arg {
		case "--quiet", "-q":
			args.Quiet = true
			i++
		case "--no-store":
			args.NoStore = true
			i++
		case "--model":
			if i+1 < len(argv) {
				args.Model = argv[i+1]
				i += 2
			} else {
				i++
			}
		case "--config":
			if i+1 < len(argv) {
				args.Config = argv[i+1]
				i += 2
			} else {
				i++
			}
		default:
			if strings.HasPrefix(arg, "--model=") {
				args.Model = strings.TrimPrefix(arg, "--model=")
				i++
				continue
			}
			if strings.HasPrefix(arg, "--config=") {
				args.Config = strings.TrimPrefix(arg, "--config=")
				i++
				continue
			}
			remaining = append(remaining, arg)
			i++
		}
	}

	return remaining, args
}

func parseServeArgs(args *Args, remaining []string) {
	for i := 0; i < len(remaining); i++ {
		switch arg := remaining[i]; {
		case arg == "--addr" && i+1 < len(remaining):
			args.Addr = remaining[i+1]
			i++
		case strings.HasPrefix(arg, "--addr="):
			args.Addr = strings.TrimPrefix(arg, "--addr=")
		}
	}
}

func parseConfigArgs(args *Args, remaining []string) {
	if len(remaining) == 0 {
		args.Subcommand = "show"
		return
	}
	args.Subcommand = strings.ToLower(remaining[0])
	if len(remaining) > 1 {
		args.ConfigKey = remaining[1]
	}
	if len(remaining) > 2 {
		args.ConfigVal = strings.Join(remaining[2:], " ")
	}
}

func parseTranscriptArgs(args *Args, remaining []string) {
	if len(remaining) == 0 {
		args.Subcommand = "list"
		return
	}
	args.Subcommand = strings.ToLower(remaining[0])
	if len(remaining) > 1 {
		args.ConfigKey = remaining[1]
	}
	if len(remaining) > 2 {
		// Export format for "transcripts export <id> <format>".
		args.ConfigVal = remaining[2]
	}
}
