// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"fmt"
	"os"

	"github.com/jeranaias/helpline-tui/internal/config"
)

// HandleConfig handles the config subcommands.
func HandleConfig(args Args) error {
	switch args.Subcommand {
	case "", "show":
		return configShow(args)
	case "get":
		return configGet(args)
	case "set":
		return configSet(args)
	case "path":
		return configPath()
	case "init":
		return configInit()
	default:
		return fmt.Errorf("unknown config subcommand: %s (want show, get, set, path, or init)", args.Subcommand)
	}
}

func configShow(args Args) error {
	cfg, err := LoadConfig(args)
	if err != nil {
		return err
	}
	for _, key := range config.AllKeys() {
		val, err := cfg.Get(key)
		if err != nil {
			continue
		}
		fmt.Printf("%-35s %s\n", key, val)
	}
	return nil
}

func configGet(args Args) error {
	if args.ConfigKey == "" {
		return fmt.Errorf("usage: helpline config get <key>")
	}
	cfg, err := LoadConfig(args)
	if err != nil {
		return err
	}
	val, err := cfg.Get(args.ConfigKey)
	if err != nil {
		return err
	}
	fmt.Println(val)
	return nil
}

func configSet(args Args) error {
	if args.ConfigKey == "" || args.ConfigVal == "" {
		return fmt.Errorf("usage: helpline config set <key> <value>")
	}
	cfg, err := LoadConfig(args)
	if err != nil {
		return err
	}
	if err := cfg.Set(args.ConfigKey, args.ConfigVal); err != nil {
		return err
	}
	if err := config.Save(cfg); err != nil {
		return err
	}
	fmt.Printf("%s = %s\n", args.ConfigKey, args.ConfigVal)
	return nil
}

func configPath() error {
	path, err := config.ConfigPathTOML()
	if err != nil {
		return err
	}
	fmt.Println(path)
	return nil
}

func configInit() error {
	path, err := config.ConfigPathTOML()
	if err != nil {
		return err
	}
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config file already exists: %s", path)
	}
	if err := config.Save(config.Default()); err != nil {
		return err
	}
	fmt.Printf("Wrote default config to %s\n", path)
	return nil
}
