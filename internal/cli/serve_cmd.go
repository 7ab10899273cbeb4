// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/jeranaias/helpline-tui/internal/gate"
	"github.com/jeranaias/helpline-tui/internal/server"
)

// HandleServe starts the companion API server. It blocks until the
// process receives SIGINT or SIGTERM, then shuts down gracefully.
func HandleServe(args Args) error {
	cfg, err := LoadConfig(args)
	if err != nil {
		return err
	}
	client, err := NewBackendClient(cfg)
	if err != nil {
		return err
	}

	addr := cfg.Server.ListenAddr
	if args.Addr != "" {
		addr = args.Addr
	}

	gateCfg := gate.Config{
		RequestsPerMinute: cfg.Gate.RequestsPerMinute,
		Burst:             cfg.Gate.Burst,
		MaxPayloadBytes:   cfg.Gate.MaxPayloadBytes,
	}

	g := gate.New(gateCfg)
	defer g.Close()

	srv := server.New(server.Config{
		Addr:            addr,
		Gate:            gateCfg,
		MaxBodyBytes:    cfg.Server.MaxBodyBytes,
		ShutdownTimeout: cfg.Server.ShutdownTimeout(),
	}, g, client)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if !args.Quiet {
		fmt.Printf("helpline server listening on %s\n", addr)
	}
	return srv.ListenAndServe(ctx)
}
