// Copyright (C) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package cmd

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/akamensky/argparse"
	"github.com/ava-labs/avalanchego/utils/logging"

	"github.com/ava-labs/hyperprog/config"
)

const (
	configShort = "c"
	configLong  = "config"
)

type Cmd interface {
	Run(ctx context.Context, cfg *config.Config, log logging.Logger, out io.Writer) error
	Happened() bool
}

// Execute parses [args] (including the program name) and runs the selected
// command. Command output goes to [out].
func Execute(ctx context.Context, args []string, out io.Writer) error {
	parser := argparse.NewParser("hyperprog", "Counter and derived-authority transfer programs")
	configPath := parser.String(configShort, configLong, &argparse.Options{
		Help: "path to a JSON config file",
	})

	cmds := []Cmd{
		newServeCmd(parser),
		newRunCmd(parser),
		newKeyCmd(parser),
		newDeriveCmd(parser),
	}
	if err := parser.Parse(commandFirst(args)); err != nil {
		return fmt.Errorf("%w\n%s", err, parser.Usage(nil))
	}

	cfg := config.NewDefaultConfig()
	if *configPath != "" {
		var err error
		cfg, err = config.Load(*configPath)
		if err != nil {
			return err
		}
	}
	log := cfg.Logger()
	defer log.Stop()

	for _, c := range cmds {
		if c.Happened() {
			return c.Run(ctx, cfg, log, out)
		}
	}
	return fmt.Errorf("no command given\n%s", parser.Usage(nil))
}

// commandFirst moves the command name directly after the program name so
// global flags may precede it. argparse only matches a command in that
// position; flags registered on the parser are still accepted after it.
func commandFirst(args []string) []string {
	if len(args) < 2 {
		return args
	}
	for i := 1; i < len(args); i++ {
		arg := args[i]
		switch {
		case arg == "-"+configShort || arg == "--"+configLong:
			i++ // skip the value
		case strings.HasPrefix(arg, "-"):
		default:
			if i == 1 {
				return args
			}
			reordered := make([]string, 0, len(args))
			reordered = append(reordered, args[0], arg)
			reordered = append(reordered, args[1:i]...)
			return append(reordered, args[i+1:]...)
		}
	}
	return args
}
