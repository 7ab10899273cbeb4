// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"fmt"
	"os"
	"strings"
)

// HandleAsk sends a single question and prints the reply.
func HandleAsk(args Args) error {
	query := strings.TrimSpace(args.Query)
	if query == "" {
		return fmt.Errorf("usage: helpline ask \"question\"")
	}

	cfg, err := LoadConfig(args)
	if err != nil {
		return err
	}
	client, err := NewBackendClient(cfg)
	if err != nil {
		return err
	}
	session := NewSession(cfg, client)

	reply, ok := exchange(session, cfg, query)
	if !ok {
		if notice := cooldownNotice(session); notice != "" {
			fmt.Fprintln(os.Stderr, noticeStyle.Render(notice))
		}
		return fmt.Errorf("request failed")
	}

	printReply(reply)
	return nil
}
