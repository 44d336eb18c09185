// Copyright (C) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package cmd

import (
	"context"
	"io"
	"net"
	"os"
	"os/signal"
	"syscall"

	"github.com/akamensky/argparse"
	"github.com/ava-labs/avalanchego/utils/logging"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/ava-labs/hyperprog/config"
	"github.com/ava-labs/hyperprog/node"
	"github.com/ava-labs/hyperprog/rpc"
	"github.com/ava-labs/hyperprog/server"
)

// MetricsEndpoint is served next to the JSON-RPC endpoint.
const MetricsEndpoint = "/metrics"

var _ Cmd = (*serveCmd)(nil)

type serveCmd struct {
	cmd *argparse.Command

	listen *string
}

func newServeCmd(parser *argparse.Parser) *serveCmd {
	c := &serveCmd{cmd: parser.NewCommand("serve", "Serve the JSON-RPC API")}
	c.listen = c.cmd.String("l", "listen", &argparse.Options{
		Help: "listen address, overrides the config",
	})
	return c
}

func (c *serveCmd) Happened() bool {
	return c.cmd.Happened()
}

func (c *serveCmd) Run(ctx context.Context, cfg *config.Config, log logging.Logger, _ io.Writer) error {
	if *c.listen != "" {
		cfg.API.ListenAddress = *c.listen
	}
	n, err := node.New(cfg, log)
	if err != nil {
		return err
	}
	defer func() {
		if err := n.Close(); err != nil {
			log.Error("failed to close node", zap.Error(err))
		}
	}()

	listener, err := net.Listen("tcp", cfg.API.ListenAddress)
	if err != nil {
		return err
	}
	srv := server.New(log, listener, server.Config{
		AllowedOrigins:  cfg.API.AllowedOrigins,
		ReadTimeout:     cfg.API.ReadTimeout,
		WriteTimeout:    cfg.API.WriteTimeout,
		ShutdownTimeout: cfg.API.ShutdownTimeout,
	})
	handler, err := rpc.NewJSONRPCHandler(rpc.Name, rpc.NewJSONRPCServer(n))
	if err != nil {
		return err
	}
	if err := srv.AddRoute(handler, rpc.Name, rpc.JSONRPCEndpoint); err != nil {
		return err
	}
	metrics := promhttp.HandlerFor(n.Gatherer(), promhttp.HandlerOpts{})
	if err := srv.AddRoute(metrics, rpc.Name, MetricsEndpoint); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()
	return srv.Serve(ctx)
}
