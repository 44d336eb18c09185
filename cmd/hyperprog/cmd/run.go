// Copyright (C) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package cmd

import (
	"context"
	"encoding/json"
	"io"
	"os"

	"github.com/akamensky/argparse"
	"github.com/ava-labs/avalanchego/utils/logging"
	"go.uber.org/zap"

	"github.com/ava-labs/hyperprog/codec"
	"github.com/ava-labs/hyperprog/config"
	"github.com/ava-labs/hyperprog/counter"
	"github.com/ava-labs/hyperprog/crypto/ed25519"
	"github.com/ava-labs/hyperprog/node"
	"github.com/ava-labs/hyperprog/runtime"
)

var _ Cmd = (*runCmd)(nil)

type runCmd struct {
	cmd *argparse.Command

	path *string
}

func newRunCmd(parser *argparse.Parser) *runCmd {
	c := &runCmd{cmd: parser.NewCommand("run", "Run a counter plan against a local node")}
	c.path = c.cmd.String("p", "plan", &argparse.Options{
		Help:     "path to a JSON or YAML plan",
		Required: true,
	})
	return c
}

func (c *runCmd) Happened() bool {
	return c.cmd.Happened()
}

func (c *runCmd) Run(ctx context.Context, cfg *config.Config, log logging.Logger, out io.Writer) error {
	b, err := os.ReadFile(*c.path)
	if err != nil {
		return err
	}
	plan, err := unmarshalPlan(b)
	if err != nil {
		return err
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
	_, err = runPlan(ctx, n, plan, out)
	return err
}

type planRunner struct {
	n         *node.Node
	counter   codec.Address
	authority ed25519.PrivateKey
	stranger  ed25519.PrivateKey
}

func (r *planRunner) execute(ctx context.Context, ix *runtime.Instruction, signers ...ed25519.PrivateKey) error {
	tx, err := runtime.NewTransaction(ix, signers...)
	if err != nil {
		return err
	}
	return r.n.Execute(ctx, tx)
}

func (r *planRunner) value(ctx context.Context) (uint64, error) {
	a, err := r.n.GetAccount(ctx, r.counter)
	if err != nil {
		return 0, err
	}
	state, err := r.n.CounterLayout().Decode(a.Data)
	if err != nil {
		return 0, err
	}
	return state.Value, nil
}

func (r *planRunner) step(ctx context.Context, s *Step) error {
	ix, err := s.Instruction()
	if err != nil {
		return err
	}
	signer := r.authority
	if s.Signer == StrangerSigner {
		signer = r.stranger
	}
	update, err := counter.NewUpdate(r.n.Config().CounterProgramID, r.n.CounterLayout(), r.counter, signer.PublicKey().Address(), ix)
	if err != nil {
		return err
	}
	return r.execute(ctx, update, signer)
}

// runPlan creates a counter owned by a fresh authority and applies every
// step, writing one JSON [Response] per step to [out].
func runPlan(ctx context.Context, n *node.Node, plan *Plan, out io.Writer) ([]*Response, error) {
	keys := make([]ed25519.PrivateKey, 3)
	for i := range keys {
		pk, err := ed25519.GeneratePrivateKey()
		if err != nil {
			return nil, err
		}
		keys[i] = pk
	}
	counterKey := keys[0]
	r := &planRunner{
		n:         n,
		counter:   counterKey.PublicKey().Address(),
		authority: keys[1],
		stranger:  keys[2],
	}

	cfg := n.Config()
	initialize := counter.NewInitialize(cfg.CounterProgramID, r.counter, r.authority.PublicKey().Address(), cfg.SystemProgramID)
	if err := r.execute(ctx, initialize, counterKey, r.authority); err != nil {
		return nil, err
	}
	n.Logger().Info("running plan",
		zap.String("name", plan.Name),
		zap.Stringer("counter", r.counter),
		zap.Int("steps", len(plan.Steps)),
	)

	enc := json.NewEncoder(out)
	responses := make([]*Response, 0, len(plan.Steps))
	for i := range plan.Steps {
		s := &plan.Steps[i]
		resp := &Response{ID: i}
		if err := r.step(ctx, s); err != nil {
			resp.Error = err.Error()
		}
		value, err := r.value(ctx)
		if err != nil {
			return responses, err
		}
		resp.Value = value
		responses = append(responses, resp)
		if err := enc.Encode(resp); err != nil {
			return responses, err
		}
		if err := s.check(resp); err != nil {
			return responses, err
		}
	}
	return responses, nil
}
