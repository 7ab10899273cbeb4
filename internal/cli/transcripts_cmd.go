// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"fmt"

	"github.com/jeranaias/helpline-tui/internal/directive"
	"github.com/jeranaias/helpline-tui/internal/export"
	"github.com/jeranaias/helpline-tui/internal/model"
	"github.com/jeranaias/helpline-tui/internal/storage"
	"github.com/jeranaias/helpline-tui/internal/util"
)

// HandleTranscripts handles the transcripts subcommands.
func HandleTranscripts(args Args) error {
	cfg, err := LoadConfig(args)
	if err != nil {
		return err
	}
	path, err := cfg.StoragePath()
	if err != nil {
		return err
	}
	store, err := storage.Open(path)
	if err != nil {
		return err
	}
	defer store.Close()

	switch args.Subcommand {
	case "", "list":
		return transcriptsList(store)
	case "show":
		return transcriptsShow(store, args.ConfigKey)
	case "export":
		return transcriptsExport(store, args.ConfigKey, args.ConfigVal)
	case "delete", "rm":
		return transcriptsDelete(store, args.ConfigKey)
	default:
		return fmt.Errorf("unknown transcripts subcommand: %s (want list, show, export, or delete)", args.Subcommand)
	}
}

func transcriptsList(store *storage.Store) error {
	metas, err := store.List()
	if err != nil {
		return err
	}
	if len(metas) == 0 {
		fmt.Println("No saved conversations.")
		return nil
	}
	for _, m := range metas {
		fmt.Printf("%s  %s  %2d msgs  %s\n",
			m.ID,
			m.UpdatedAt.Format("2006-01-02 15:04"),
			m.MessageCount,
			util.TruncateWidth(m.Preview, 60))
	}
	return nil
}

func transcriptsShow(store *storage.Store, id string) error {
	if id == "" {
		return fmt.Errorf("usage: helpline transcripts show <id>")
	}
	conv, err := store.Load(id)
	if err != nil {
		return err
	}
	for _, msg := range conv.Messages {
		if msg.Role == model.RoleSystem {
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
	return nil
}

func transcriptsExport(store *storage.Store, id, format string) error {
	if id == "" {
		return fmt.Errorf("usage: helpline transcripts export <id> [md|json]")
	}
	conv, err := store.Load(id)
	if err != nil {
		return err
	}
	opts := export.DefaultOptions()
	exporter, err := export.ForFormat(format, opts)
	if err != nil {
		return err
	}
	path, err := export.ExportToFile(conv, exporter, opts)
	if err != nil {
		return err
	}
	fmt.Printf("Exported to %s\n", path)
	return nil
}

func transcriptsDelete(store *storage.Store, id string) error {
	if id == "" {
		return fmt.Errorf("usage: helpline transcripts delete <id>")
	}
	if err := store.Delete(id); err != nil {
		return err
	}
	fmt.Printf("Deleted %s\n", id)
	return nil
}
