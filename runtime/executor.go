// Copyright (C) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package runtime

import (
	"bytes"
	"context"
	"fmt"
	"slices"

	"github.com/ava-labs/avalanchego/utils/logging"
	"go.uber.org/atomic"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/ava-labs/hyperprog/account"
	"github.com/ava-labs/hyperprog/codec"
	"github.com/ava-labs/hyperprog/crypto/ed25519"
	"github.com/ava-labs/hyperprog/lockmap"
)

// AccountStore loads and persists accounts for the Executor.
type AccountStore interface {
	GetAccount(ctx context.Context, addr codec.Address) (*account.Account, error)
	PutAccounts(ctx context.Context, accounts []*account.Account) error
}

// Executor is the host entrypoint. It verifies signatures, serializes
// transactions that share an account, and persists the result of every
// successful invocation.
type Executor struct {
	r           *Runtime
	store       AccountStore
	locks       *lockmap.Lockmap[codec.Address]
	log         logging.Logger
	parallelism int

	executed atomic.Uint64
	failed   atomic.Uint64
}

func NewExecutor(r *Runtime, store AccountStore, parallelism int, log logging.Logger) *Executor {
	return &Executor{
		r:           r,
		store:       store,
		locks:       lockmap.New[codec.Address](parallelism * 8),
		log:         log,
		parallelism: parallelism,
	}
}

func (e *Executor) verify(tx *Transaction) error {
	msg, err := tx.Message()
	if err != nil {
		return err
	}
	for _, m := range tx.Accounts {
		if !m.IsSigner {
			continue
		}
		sig, ok := tx.Signatures[m.Address]
		if !ok {
			return fmt.Errorf("%w: %s", ErrMissingSignature, m.Address)
		}
		if !ed25519.Verify(msg, ed25519.PublicKey(m.Address), sig) {
			return fmt.Errorf("%w: %s", ErrInvalidSignature, m.Address)
		}
	}
	return nil
}

// touched merges duplicate metas and orders them by address, which is the
// order locks are taken in.
func touched(metas []account.Meta) []account.Meta {
	merged := make(map[codec.Address]account.Meta, len(metas))
	for _, m := range metas {
		prev := merged[m.Address]
		merged[m.Address] = account.Meta{
			Address:    m.Address,
			IsSigner:   prev.IsSigner || m.IsSigner,
			IsWritable: prev.IsWritable || m.IsWritable,
		}
	}
	out := make([]account.Meta, 0, len(merged))
	for _, m := range merged {
		out = append(out, m)
	}
	slices.SortFunc(out, func(a, b account.Meta) int {
		return bytes.Compare(a.Address[:], b.Address[:])
	})
	return out
}

func (e *Executor) lock(metas []account.Meta) func() {
	for _, m := range metas {
		if m.IsWritable {
			e.locks.Lock(m.Address)
		} else {
			e.locks.RLock(m.Address)
		}
	}
	return func() {
		for i := len(metas) - 1; i >= 0; i-- {
			m := metas[i]
			if m.IsWritable {
				e.locks.Unlock(m.Address)
			} else {
				e.locks.RUnlock(m.Address)
			}
		}
	}
}

// Stats reports how many transactions were executed and how many of those
// failed.
func (e *Executor) Stats() (executed uint64, failed uint64) {
	return e.executed.Load(), e.failed.Load()
}

// Execute runs [tx]. Writable accounts are persisted only when the
// invocation succeeds.
func (e *Executor) Execute(ctx context.Context, tx *Transaction) error {
	e.executed.Inc()
	if err := e.execute(ctx, tx); err != nil {
		e.failed.Inc()
		return err
	}
	return nil
}

func (e *Executor) execute(ctx context.Context, tx *Transaction) error {
	ctx, span := e.r.tracer.Start(ctx, "Executor.Execute")
	defer span.End()

	if err := e.verify(tx); err != nil {
		return err
	}

	metas := touched(tx.Accounts)
	unlock := e.lock(metas)
	defer unlock()

	loaded := make(map[codec.Address]*account.Account, len(metas))
	for _, m := range metas {
		a, err := e.store.GetAccount(ctx, m.Address)
		if err != nil {
			return err
		}
		a.IsSigner = m.IsSigner
		a.IsWritable = m.IsWritable
		loaded[m.Address] = a
	}
	accounts := make([]*account.Account, len(tx.Accounts))
	for i, m := range tx.Accounts {
		accounts[i] = loaded[m.Address]
	}

	if err := e.r.Invoke(ctx, tx.ProgramID, tx.Entry, accounts, tx.Data); err != nil {
		return err
	}

	writes := make([]*account.Account, 0, len(metas))
	for _, m := range metas {
		if m.IsWritable {
			writes = append(writes, loaded[m.Address])
		}
	}
	if err := e.store.PutAccounts(ctx, writes); err != nil {
		return err
	}
	e.log.Debug("executed transaction",
		zap.Stringer("program", tx.ProgramID),
		zap.String("entry", tx.Entry),
		zap.Int("writes", len(writes)),
	)
	return nil
}

// ExecuteAll runs independent transactions concurrently. Each transaction
// succeeds or fails on its own; the returned slice holds the result of
// txs[i] at index i.
func (e *Executor) ExecuteAll(ctx context.Context, txs []*Transaction) []error {
	errs := make([]error, len(txs))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.parallelism)
	for i, tx := range txs {
		i, tx := i, tx
		g.Go(func() error {
			errs[i] = e.Execute(gctx, tx)
			return nil
		})
	}
	_ = g.Wait()
	return errs
}
