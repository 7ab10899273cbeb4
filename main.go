// helpline TUI - A terminal front-end for the helpline support chat.
//
// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later
package main

import (
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"golang.org/x/term"

	"github.com/jeranaias/helpline-tui/internal/cli"
	"github.com/jeranaias/helpline-tui/internal/config"
	"github.com/jeranaias/helpline-tui/internal/storage"
	"github.com/jeranaias/helpline-tui/internal/throttle"
	"github.com/jeranaias/helpline-tui/internal/ui/chat"
	"github.com/jeranaias/helpline-tui/internal/ui/styles"
)

func main() {
	cmd, args := cli.Parse()

	switch cmd {
	case cli.CmdTUI:
		runTUI(args)
	case cli.CmdAsk:
		exitOnErr(cli.HandleAsk(args))
	case cli.CmdChat:
		exitOnErr(cli.HandleChat(args))
	case cli.CmdServe:
		exitOnErr(cli.HandleServe(args))
	case cli.CmdConfig:
		exitOnErr(cli.HandleConfig(args))
	case cli.CmdTranscripts:
		exitOnErr(cli.HandleTranscripts(args))
	case cli.CmdVersion:
		cli.PrintVersion()
	case cli.CmdHelp:
		cli.PrintUsage()
	default:
		runTUI(args)
	}
}

func exitOnErr(err error) {
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// runTUI starts the full-screen chat interface.
func runTUI(args cli.Args) {
	cfg, err := cli.LoadConfig(args)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	// Without a terminal there is no TUI to draw; fall back to the
	// line-oriented chat loop so piped input still works.
	if !term.IsTerminal(int(os.Stdout.Fd())) {
		exitOnErr(cli.HandleChat(args))
		return
	}

	client, err := cli.NewBackendClient(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	session := cli.NewSession(cfg, client)
	theme := styles.NewTheme()

	m := chat.New(theme, session, chat.Options{
		Title:             "helpline",
		Markdown:          cfg.UI.Markdown,
		ShowTimestamps:    cfg.UI.ShowTimestamps,
		MaxMessageLength:  cfg.Widget.MaxMessageLength,
		RateLimitCooldown: cfg.Widget.RateLimitCooldown(),
	})

	// Pick up config edits while the TUI is running. Only the gate
	// limits can change live; everything else applies on restart.
	watcher, err := config.NewWatcher(func(next *config.Config) {
		session.Gate().SetLimits(throttle.Config{
			MinMessageGap:     next.Widget.MinMessageGap(),
			MaxMessageLength:  next.Widget.MaxMessageLength,
			RateLimitCooldown: next.Widget.RateLimitCooldown(),
		})
	}, nil)
	if err == nil {
		defer watcher.Close()
	}

	p := tea.NewProgram(m, tea.WithAltScreen())
	final, err := p.Run()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error running helpline: %v\n", err)
		os.Exit(1)
	}

	if cfg.Storage.Enabled {
		if fm, ok := final.(chat.Model); ok {
			saveTranscript(cfg, fm)
		}
	}
}

// saveTranscript persists the finished conversation. Failures are
// reported but never change the exit status; the chat already happened.
func saveTranscript(cfg *config.Config, m chat.Model) {
	conv := m.Session().Conversation()
	if conv.MessageCount() <= 1 {
		// Nothing beyond the welcome message.
		return
	}
	path, err := cfg.StoragePath()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: could not resolve transcript path: %v\n", err)
		return
	}
	store, err := storage.Open(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: could not open transcript store: %v\n", err)
		return
	}
	defer store.Close()
	if err := store.Save(conv); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: could not save transcript: %v\n", err)
	}
}
