// Copyright (C) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package runtime

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/ava-labs/avalanchego/trace"
	"github.com/ava-labs/avalanchego/utils/logging"
	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"github.com/ava-labs/hyperprog/account"
	"github.com/ava-labs/hyperprog/codec"
	"github.com/ava-labs/hyperprog/pda"

	oteltrace "go.opentelemetry.io/otel/trace"
)

const DefaultMaxInvokeDepth = 4

type Config struct {
	MaxInvokeDepth int
}

func NewDefaultConfig() *Config {
	return &Config{MaxInvokeDepth: DefaultMaxInvokeDepth}
}

// Runtime hosts programs. Every top level invocation is atomic: when it
// fails, every account it was given is restored.
type Runtime struct {
	cfg     *Config
	log     logging.Logger
	tracer  trace.Tracer
	metrics *metrics

	l        sync.RWMutex
	programs map[codec.Address]Program
}

func New(cfg *Config, log logging.Logger, tracer trace.Tracer, registerer prometheus.Registerer) (*Runtime, error) {
	m, err := newMetrics(registerer)
	if err != nil {
		return nil, err
	}
	return &Runtime{
		cfg:      cfg,
		log:      log,
		tracer:   tracer,
		metrics:  m,
		programs: map[codec.Address]Program{},
	}, nil
}

// Register makes [program] callable at [id].
func (r *Runtime) Register(id codec.Address, program Program) error {
	r.l.Lock()
	defer r.l.Unlock()

	if _, ok := r.programs[id]; ok {
		return fmt.Errorf("%w: %s", ErrProgramRegistered, id)
	}
	r.programs[id] = program
	r.log.Debug("registered program", zap.Stringer("program", id))
	return nil
}

func (r *Runtime) program(id codec.Address) (Program, bool) {
	r.l.RLock()
	defer r.l.RUnlock()

	p, ok := r.programs[id]
	return p, ok
}

// Invoke runs [programID] over [accounts]. On error no account keeps any
// change made during the invocation, including changes made by programs it
// called.
func (r *Runtime) Invoke(
	ctx context.Context,
	programID codec.Address,
	entry string,
	accounts []*account.Account,
	data []byte,
) error {
	r.metrics.invocations.Inc()
	snapshots := snapshot(accounts)
	if err := r.invoke(ctx, programID, entry, accounts, data, 1); err != nil {
		r.metrics.invocationFailures.Inc()
		r.rollback(snapshots)
		programErr := IsProgramError(err)
		if !programErr {
			r.metrics.hostRejections.Inc()
		}
		r.log.Debug("invocation failed",
			zap.Stringer("program", programID),
			zap.String("entry", entry),
			zap.Bool("programError", programErr),
			zap.Error(err),
		)
		return err
	}
	return nil
}

func (r *Runtime) invoke(
	ctx context.Context,
	programID codec.Address,
	entry string,
	accounts []*account.Account,
	data []byte,
	depth int,
) error {
	if depth > r.cfg.MaxInvokeDepth {
		return fmt.Errorf("%w: %d > %d", ErrMaxDepthExceeded, depth, r.cfg.MaxInvokeDepth)
	}
	program, ok := r.program(programID)
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownProgram, programID)
	}

	ctx, span := r.tracer.Start(ctx, "Runtime.Invoke", oteltrace.WithAttributes(
		attribute.String("program", programID.String()),
		attribute.String("entry", entry),
		attribute.Int("depth", depth),
		attribute.Int("accounts", len(accounts)),
	))
	defer span.End()

	err := program.Process(ctx, &CallContext{
		ProgramID: programID,
		Accounts:  account.NewContext(accounts),
		Data:      data,
		Entry:     entry,
		Invoker: &invoker{
			r:        r,
			caller:   programID,
			accounts: accounts,
			depth:    depth,
		},
		Log:   r.log,
		Depth: depth,
	})
	if err != nil {
		span.RecordError(err)
	}
	return err
}

func snapshot(accounts []*account.Account) []*account.Snapshot {
	snapshots := make([]*account.Snapshot, len(accounts))
	for i, a := range accounts {
		snapshots[i] = a.Snapshot()
	}
	return snapshots
}

func (r *Runtime) rollback(snapshots []*account.Snapshot) {
	// Restore in reverse so an account listed twice ends with its first
	// captured state.
	for i := len(snapshots) - 1; i >= 0; i-- {
		s := snapshots[i]
		if s.Changed() {
			r.metrics.rollbacks.Inc()
		}
		s.Restore()
	}
}

type invoker struct {
	r        *Runtime
	caller   codec.Address
	accounts []*account.Account
	depth    int
}

func (i *invoker) Invoke(ctx context.Context, ix *Instruction) error {
	return i.InvokeSigned(ctx, ix, nil)
}

func (i *invoker) InvokeSigned(ctx context.Context, ix *Instruction, signerSeeds [][][]byte) error {
	i.r.metrics.cpiCalls.Inc()

	signers := make(map[codec.Address]struct{}, len(signerSeeds))
	for _, seeds := range signerSeeds {
		addr, err := pda.CreateAddress(seeds, i.caller)
		if err != nil {
			return err
		}
		signers[addr] = struct{}{}
	}

	callee, restore, err := i.resolve(ix.Accounts, signers)
	if err != nil {
		return err
	}
	defer restore()

	snapshots := snapshot(callee)
	if err := i.r.invoke(ctx, ix.ProgramID, ix.Entry, callee, ix.Data, i.depth+1); err != nil {
		i.r.rollback(snapshots)
		return err
	}
	return nil
}

type privileges struct {
	signer   bool
	writable bool
}

// resolve maps [metas] onto the caller's accounts and narrows each
// account's flags to what the callee asked for. The returned func restores
// the caller's view.
func (i *invoker) resolve(metas []account.Meta, signers map[codec.Address]struct{}) ([]*account.Account, func(), error) {
	var (
		callee    = make([]*account.Account, len(metas))
		requested = make(map[*account.Account]*privileges, len(metas))
	)
	for j, meta := range metas {
		acct, ok := i.find(meta.Address)
		if !ok {
			return nil, nil, fmt.Errorf("%w: %s not passed to caller %s", account.ErrMissingAccount, meta.Address, i.caller)
		}
		_, signed := signers[meta.Address]
		if meta.IsSigner && !acct.IsSigner && !signed {
			return nil, nil, fmt.Errorf("%w: %s is not a signer", ErrPrivilegeEscalation, meta.Address)
		}
		if meta.IsWritable && !acct.IsWritable {
			return nil, nil, fmt.Errorf("%w: %s is not writable", ErrPrivilegeEscalation, meta.Address)
		}
		callee[j] = acct
		p, ok := requested[acct]
		if !ok {
			p = &privileges{}
			requested[acct] = p
		}
		p.signer = p.signer || meta.IsSigner
		p.writable = p.writable || meta.IsWritable
	}

	original := make(map[*account.Account]privileges, len(requested))
	for acct, p := range requested {
		original[acct] = privileges{signer: acct.IsSigner, writable: acct.IsWritable}
		acct.IsSigner = p.signer
		acct.IsWritable = p.writable
	}
	return callee, func() {
		for acct, p := range original {
			acct.IsSigner = p.signer
			acct.IsWritable = p.writable
		}
	}, nil
}

func (i *invoker) find(addr codec.Address) (*account.Account, bool) {
	for _, a := range i.accounts {
		if a.Address == addr {
			return a, true
		}
	}
	return nil, false
}

// IsProgramError reports whether [err] came from a program rather than from
// the runtime itself. A program that propagates a runtime error from one of
// its calls does not make it a program error.
func IsProgramError(err error) bool {
	return err != nil &&
		!errors.Is(err, ErrUnknownProgram) &&
		!errors.Is(err, ErrMaxDepthExceeded) &&
		!errors.Is(err, ErrPrivilegeEscalation)
}
