// Copyright (C) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package cmd

import (
	"context"
	"encoding/json"
	"io"

	"github.com/akamensky/argparse"
	"github.com/ava-labs/avalanchego/utils/logging"

	"github.com/ava-labs/hyperprog/codec"
	"github.com/ava-labs/hyperprog/config"
	"github.com/ava-labs/hyperprog/crypto/ed25519"
	"github.com/ava-labs/hyperprog/pda"
	"github.com/ava-labs/hyperprog/transfer"
)

var (
	_ Cmd = (*keyCmd)(nil)
	_ Cmd = (*deriveCmd)(nil)
)

type keyCmd struct {
	cmd *argparse.Command
}

func newKeyCmd(parser *argparse.Parser) *keyCmd {
	return &keyCmd{cmd: parser.NewCommand("key", "Generate an ed25519 key")}
}

func (c *keyCmd) Happened() bool {
	return c.cmd.Happened()
}

type keyOutput struct {
	Address    codec.Address `json:"address"`
	PrivateKey string        `json:"privateKey"`
}

func (*keyCmd) Run(_ context.Context, _ *config.Config, _ logging.Logger, out io.Writer) error {
	pk, err := ed25519.GeneratePrivateKey()
	if err != nil {
		return err
	}
	return json.NewEncoder(out).Encode(&keyOutput{
		Address:    pk.PublicKey().Address(),
		PrivateKey: pk.String(),
	})
}

type deriveCmd struct {
	cmd *argparse.Command

	program *string
	seeds   *[]string
}

func newDeriveCmd(parser *argparse.Parser) *deriveCmd {
	c := &deriveCmd{cmd: parser.NewCommand("derive", "Derive a program address")}
	c.program = c.cmd.String("p", "program", &argparse.Options{
		Help: "base58 program id, defaults to the transfer program",
	})
	c.seeds = c.cmd.StringList("s", "seed", &argparse.Options{
		Help: "seed, may be repeated",
	})
	return c
}

func (c *deriveCmd) Happened() bool {
	return c.cmd.Happened()
}

type deriveOutput struct {
	Address codec.Address `json:"address"`
	Bump    uint8         `json:"bump"`
}

func (c *deriveCmd) Run(_ context.Context, cfg *config.Config, _ logging.Logger, out io.Writer) error {
	programID := cfg.TransferProgramID
	if *c.program != "" {
		var err error
		programID, err = codec.ParseAddress(*c.program)
		if err != nil {
			return err
		}
	}
	seeds := make([][]byte, len(*c.seeds))
	for i, s := range *c.seeds {
		seeds[i] = []byte(s)
	}
	if len(seeds) == 0 {
		seeds = transfer.AuthoritySeeds()
	}
	auth, err := pda.Find(seeds, programID)
	if err != nil {
		return err
	}
	return json.NewEncoder(out).Encode(&deriveOutput{Address: auth.Address, Bump: auth.Bump})
}
