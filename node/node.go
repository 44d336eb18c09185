// Copyright (C) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package node assembles a runnable host from a [config.Config]: storage,
// runtime, the built-in programs and the executor.
package node

import (
	"bytes"
	"context"
	"slices"

	"github.com/ava-labs/avalanchego/trace"
	"github.com/ava-labs/avalanchego/utils/logging"
	"github.com/ava-labs/avalanchego/utils/wrappers"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
	"golang.org/x/exp/maps"

	"github.com/ava-labs/hyperprog/account"
	"github.com/ava-labs/hyperprog/ata"
	"github.com/ava-labs/hyperprog/codec"
	"github.com/ava-labs/hyperprog/config"
	"github.com/ava-labs/hyperprog/counter"
	"github.com/ava-labs/hyperprog/instruction"
	"github.com/ava-labs/hyperprog/runtime"
	"github.com/ava-labs/hyperprog/storage"
	"github.com/ava-labs/hyperprog/system"
	"github.com/ava-labs/hyperprog/token"
	"github.com/ava-labs/hyperprog/transfer"

	htrace "github.com/ava-labs/hyperprog/trace"
)

type Node struct {
	cfg      *config.Config
	log      logging.Logger
	tracer   trace.Tracer
	registry *prometheus.Registry
	store    *storage.Store
	runtime  *runtime.Runtime
	executor *runtime.Executor
	counter  *counter.Program
	programs map[codec.Address]string
}

func New(cfg *config.Config, log logging.Logger) (*Node, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	tracer, err := htrace.New(&cfg.Trace)
	if err != nil {
		return nil, err
	}
	registry := prometheus.NewRegistry()
	r, err := runtime.New(&runtime.Config{MaxInvokeDepth: cfg.MaxInvokeDepth}, log, tracer, registry)
	if err != nil {
		return nil, err
	}

	mode, err := counter.ParseMode(cfg.CounterMode)
	if err != nil {
		return nil, err
	}
	counterProgram, err := counter.New(counter.Config{
		Mode:            mode,
		Width:           instruction.Width(cfg.CounterWidth),
		SystemProgramID: cfg.SystemProgramID,
	}, log)
	if err != nil {
		return nil, err
	}
	transferProgram := transfer.New(transfer.Config{
		TokenProgramID:           cfg.TokenProgramID,
		SystemProgramID:          cfg.SystemProgramID,
		AssociatedTokenProgramID: cfg.AssociatedTokenProgramID,
	}, log)
	ataProgram := ata.New(ata.Config{
		SystemProgramID: cfg.SystemProgramID,
		TokenProgramID:  cfg.TokenProgramID,
	}, log)

	n := &Node{
		cfg:      cfg,
		log:      log,
		tracer:   tracer,
		registry: registry,
		runtime:  r,
		counter:  counterProgram,
		programs: map[codec.Address]string{},
	}
	for _, p := range []struct {
		name    string
		id      codec.Address
		program runtime.Program
	}{
		{name: "system", id: cfg.SystemProgramID, program: system.New(log)},
		{name: "token", id: cfg.TokenProgramID, program: token.New(log)},
		{name: "associated_token", id: cfg.AssociatedTokenProgramID, program: ataProgram},
		{name: "counter", id: cfg.CounterProgramID, program: counterProgram},
		{name: "transfer", id: cfg.TransferProgramID, program: transferProgram},
	} {
		if err := r.Register(p.id, p.program); err != nil {
			return nil, err
		}
		n.programs[p.id] = p.name
	}

	n.store, err = storage.New(cfg.Storage, cfg.SystemProgramID, registry)
	if err != nil {
		return nil, err
	}
	n.executor = runtime.NewExecutor(r, n.store, cfg.Parallelism, log)

	log.Info("node initialized",
		zap.String("counterMode", cfg.CounterMode),
		zap.Uint8("counterWidth", cfg.CounterWidth),
		zap.String("storage", cfg.Storage.Backend),
		zap.Int("programs", len(n.programs)),
	)
	return n, nil
}

func (n *Node) Config() *config.Config {
	return n.cfg
}

func (n *Node) Logger() logging.Logger {
	return n.log
}

func (n *Node) Tracer() trace.Tracer {
	return n.tracer
}

// Gatherer exposes the node's metrics.
func (n *Node) Gatherer() prometheus.Gatherer {
	return n.registry
}

func (n *Node) Store() *storage.Store {
	return n.store
}

func (n *Node) Runtime() *runtime.Runtime {
	return n.runtime
}

// CounterLayout is the account layout counters are created with.
func (n *Node) CounterLayout() counter.Layout {
	return n.counter.Layout()
}

// Programs returns the registered program IDs in address order.
func (n *Node) Programs() []codec.Address {
	ids := maps.Keys(n.programs)
	slices.SortFunc(ids, func(a, b codec.Address) int {
		return bytes.Compare(a[:], b[:])
	})
	return ids
}

// ProgramName returns the name of the built-in program registered at [id].
func (n *Node) ProgramName(id codec.Address) (string, bool) {
	name, ok := n.programs[id]
	return name, ok
}

func (n *Node) Execute(ctx context.Context, tx *runtime.Transaction) error {
	return n.executor.Execute(ctx, tx)
}

func (n *Node) ExecuteAll(ctx context.Context, txs []*runtime.Transaction) []error {
	return n.executor.ExecuteAll(ctx, txs)
}

func (n *Node) Stats() (executed uint64, failed uint64) {
	return n.executor.Stats()
}

func (n *Node) GetAccount(ctx context.Context, addr codec.Address) (*account.Account, error) {
	return n.store.GetAccount(ctx, addr)
}

func (n *Node) Close() error {
	errs := wrappers.Errs{}
	errs.Add(
		n.store.Close(),
		n.tracer.Close(),
	)
	return errs.Err
}
