// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/peterh/liner"

	"github.com/jeranaias/helpline-tui/internal/config"
	"github.com/jeranaias/helpline-tui/internal/directive"
	"github.com/jeranaias/helpline-tui/internal/model"
	"github.com/jeranaias/helpline-tui/internal/widget"
)

// =============================================================================
// INPUT HISTORY
// =============================================================================

// ChatCLI provides input history and line editing for interactive chat.
// USABILITY: Supports arrow keys for history navigation and line editing.
type ChatCLI struct {
	line        *liner.State
	historyFile string
}

// NewChatCLI creates a new ChatCLI with input history support.
func NewChatCLI() *ChatCLI {
	line := liner.NewLiner()
	line.SetCtrlCAborts(true)

	configDir, err := config.ConfigDir()
	if err != nil {
		configDir = os.TempDir()
	}

	cli := &ChatCLI{
		line:        line,
		historyFile: filepath.Join(configDir, "chat_history"),
	}
	cli.LoadHistory()
	return cli
}

// LoadHistory loads command history from file.
func (c *ChatCLI) LoadHistory() {
	if f, err := os.Open(c.historyFile); err == nil {
		c.line.ReadHistory(f)
		f.Close()
	}
}

// ReadInput reads a line of input with the given prompt.
func (c *ChatCLI) ReadInput(prompt string) (string, error) {
	input, err := c.line.Prompt(prompt)
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(input) != "" {
		c.line.AppendHistory(input)
	}
	return input, nil
}

// SaveHistory persists command history with secure permissions.
func (c *ChatCLI) SaveHistory() {
	if err := config.EnsureConfigDir(); err != nil {
		return
	}
	f, err := os.OpenFile(c.historyFile, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
	if err != nil {
		return
	}
	defer f.Close()
	c.line.WriteHistory(f)
}

// Close saves history and closes the liner.
func (c *ChatCLI) Close() {
	c.SaveHistory()
	c.line.Close()
}

// =============================================================================
// CHAT COMMAND
// =============================================================================

// HandleChat runs the plain-terminal REPL over the widget session.
func HandleChat(args Args) error {
	cfg, err := LoadConfig(args)
	if err != nil {
		return err
	}
	client, err := NewBackendClient(cfg)
	if err != nil {
		return err
	}
	session := NewSession(cfg, client)

	input := NewChatCLI()
	defer input.Close()

	if !args.Quiet {
		fmt.Println(agentStyle.Render("Support: ") + cfg.Widget.WelcomeMessage)
		fmt.Println(commandStyle.Render("(type /help for commands, /quit to exit)"))
		fmt.Println()
	}

	// Choices offered by the last reply; a bare digit picks one.
	var choices []directive.Choice

	for {
		raw, err := input.ReadInput(promptStyle.Render("you> "))
		if err != nil {
			// Ctrl+C or EOF: exit gracefully.
			fmt.Println()
			return nil
		}

		line := strings.TrimSpace(raw)
		if line == "" {
			continue
		}

		if strings.HasPrefix(line, "/") {
			keepGoing, err := handleSlashCommand(line, session)
			if err != nil {
				fmt.Fprintf(os.Stderr, "%s %v\n", errorStyle.Render("[Error]"), err)
			}
			if !keepGoing {
				return nil
			}
			choices = nil
			continue
		}
		if strings.EqualFold(line, "exit") || strings.EqualFold(line, "quit") {
			return nil
		}

		// A bare digit picks the numbered quick reply.
		if n, convErr := strconv.Atoi(line); convErr == nil && n >= 1 && n <= len(choices) {
			line = choices[n-1].Label
		}

		reply, ok := exchange(session, cfg, line)
		if !ok {
			if notice := cooldownNotice(session); notice != "" {
				fmt.Println(noticeStyle.Render(notice))
			}
			continue
		}
		choices = printReply(reply)
	}
}

// exchange submits one message and dispatches it. The returned message
// is the finalized reply; ok is false when the message was dropped or
// the dispatch failed.
func exchange(session *widget.Session, cfg *config.Config, text string) (*model.Message, bool) {
	if _, ok := session.Submit(text); !ok {
		return nil, false
	}

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Backend.RequestTimeout())
	defer cancel()

	if _, ok := session.Dispatch(ctx, nil); !ok {
		return nil, false
	}
	return session.Conversation().GetLastAssistantMessage(), true
}

// printReply prints a finalized reply with its directives extracted,
// and returns the choices for digit selection.
func printReply(reply *model.Message) []directive.Choice {
	if reply == nil {
		return nil
	}
	cleaned, choices, links := directive.Extract(reply.Content)

	fmt.Println(agentStyle.Render("Support: ") + cleaned)
	for i, choice := range choices {
		fmt.Printf("  %s %s\n", choiceStyle.Render(fmt.Sprintf("[%d]", i+1)), choice.Label)
	}
	for _, link := range links {
		fmt.Printf("  %s %s\n", commandStyle.Render(link.Label+":"), linkStyle.Render(link.URL))
	}
	fmt.Println()
	return choices
}

// cooldownNotice describes the active cooldown, if any.
func cooldownNotice(session *widget.Session) string {
	snap := session.Gate().Snapshot()
	if !snap.CoolingDown {
		return ""
	}
	secs := int(snap.CooldownRemaining.Round(time.Second).Seconds())
	if snap.RateLimited {
		return fmt.Sprintf("Too many messages - wait %ds before sending again.", secs)
	}
	return fmt.Sprintf("Something went wrong - retry in %ds.", secs)
}

// =============================================================================
// SLASH COMMANDS
// =============================================================================

func handleSlashCommand(cmd string, session *widget.Session) (bool, error) {
	parts := strings.Fields(cmd)
	if len(parts) == 0 {
		return true, nil
	}

	switch strings.ToLower(parts[0]) {
	case "/help", "/h", "/?":
		printChatHelp()
		return true, nil

	case "/clear", "/c":
		session.Clear()
		fmt.Println(commandStyle.Render("[Conversation cleared]"))
		return true, nil

	case "/history":
		printChatHistory(session)
		return true, nil

	case "/quit", "/q", "/exit":
		return false, nil

	default:
		return true, fmt.Errorf("unknown command: %s (type /help for commands)", parts[0])
	}
}

func printChatHelp() {
	fmt.Println(commandStyle.Render(`Commands:
  /clear     Start a new conversation
  /history   Show the transcript so far
  /help      Show this help
  /quit      Exit

Replies may offer numbered quick replies; type the number to pick one.`))
}

func printChatHistory(session *widget.Session) {
	for _, msg := range session.Conversation().GetHistory() {
		if msg.Role == model.RoleSystem || msg.IsStreaming {
			continue
		}
		label := msg.Role.DisplayName() + ": "
		if msg.Role == model.RoleUser {
			fmt.Println(promptStyle.Render(label) + msg.Content)
			continue
		}
		cleaned, _, _ := directive.Extract(msg.Content)
		fmt.Println(agentStyle.Render(label) + cleaned)
	}
}
