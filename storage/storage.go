// Copyright (C) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package storage persists accounts in any avalanchego key-value store.
package storage

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/ava-labs/avalanchego/database"
	"github.com/ava-labs/avalanchego/database/memdb"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/ava-labs/hyperprog/account"
	"github.com/ava-labs/hyperprog/codec"
	"github.com/ava-labs/hyperprog/config"
	"github.com/ava-labs/hyperprog/filedb"
	"github.com/ava-labs/hyperprog/pebble"
)

var ErrCorruptAccount = errors.New("corrupt account record")

// record is the persisted form of an account. Signer and writable flags
// belong to an invocation, not to the account, and are never stored.
type record struct {
	Owner      codec.Address
	Balance    uint64
	Executable bool
	Data       []byte
}

// Batch is implemented by backends that can commit several writes
// atomically.
type Batch interface {
	Put(key []byte, value []byte) error
	Write() error
}

type batcher interface {
	NewBatch() Batch
}

type Store struct {
	db            database.KeyValueReaderWriterDeleter
	systemProgram codec.Address
	closer        io.Closer
}

// NewStore wraps [db]. Accounts that were never written are reported as
// empty accounts owned by [systemProgram].
func NewStore(db database.KeyValueReaderWriterDeleter, systemProgram codec.Address) *Store {
	s := &Store{db: db, systemProgram: systemProgram}
	if c, ok := db.(io.Closer); ok {
		s.closer = c
	}
	return s
}

// New opens the backend selected by [cfg]. Backends that report metrics
// register them on [registerer].
func New(cfg config.StorageConfig, systemProgram codec.Address, registerer prometheus.Registerer) (*Store, error) {
	switch cfg.Backend {
	case config.MemoryBackend:
		return NewStore(memdb.New(), systemProgram), nil
	case config.FileBackend:
		db, err := filedb.New(cfg.Path, filedb.Config{
			Sync:      cfg.Sync,
			Locks:     1_024,
			CacheSize: cfg.CacheSize,
		})
		if err != nil {
			return nil, err
		}
		return NewStore(fileBatcher{db}, systemProgram), nil
	case config.PebbleBackend:
		pcfg := pebble.NewDefaultConfig()
		pcfg.Sync = cfg.Sync
		if cfg.CacheSize > 0 {
			pcfg.CacheSize = int64(cfg.CacheSize)
		}
		db, err := pebble.New(cfg.Path, pcfg, registerer)
		if err != nil {
			return nil, err
		}
		return NewStore(pebbleBatcher{db}, systemProgram), nil
	default:
		return nil, fmt.Errorf("%w: %q", config.ErrInvalidBackend, cfg.Backend)
	}
}

func AccountKey(addr codec.Address) []byte {
	k := make([]byte, accountKeyLen)
	k[0] = accountPrefix
	copy(k[1:], addr[:])
	return k
}

func (s *Store) GetAccount(_ context.Context, addr codec.Address) (*account.Account, error) {
	v, err := s.db.Get(AccountKey(addr))
	if errors.Is(err, database.ErrNotFound) {
		return &account.Account{Address: addr, Owner: s.systemProgram}, nil
	}
	if err != nil {
		return nil, err
	}
	r, err := codec.Deserialize[record](v)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrCorruptAccount, addr, err)
	}
	return &account.Account{
		Address:    addr,
		Owner:      r.Owner,
		Balance:    r.Balance,
		Executable: r.Executable,
		Data:       r.Data,
	}, nil
}

func (s *Store) HasAccount(_ context.Context, addr codec.Address) (bool, error) {
	return s.db.Has(AccountKey(addr))
}

func encode(a *account.Account) ([]byte, error) {
	return codec.Serialize(record{
		Owner:      a.Owner,
		Balance:    a.Balance,
		Executable: a.Executable,
		Data:       a.Data,
	})
}

func (s *Store) PutAccount(_ context.Context, a *account.Account) error {
	v, err := encode(a)
	if err != nil {
		return err
	}
	return s.db.Put(AccountKey(a.Address), v)
}

// PutAccounts writes [accounts] atomically when the backend supports
// batches, and one at a time otherwise.
func (s *Store) PutAccounts(ctx context.Context, accounts []*account.Account) error {
	var batch Batch
	switch b := s.db.(type) {
	case database.Batcher:
		batch = b.NewBatch()
	case batcher:
		batch = b.NewBatch()
	default:
		for _, a := range accounts {
			if err := s.PutAccount(ctx, a); err != nil {
				return err
			}
		}
		return nil
	}
	for _, a := range accounts {
		v, err := encode(a)
		if err != nil {
			return err
		}
		if err := batch.Put(AccountKey(a.Address), v); err != nil {
			return err
		}
	}
	return batch.Write()
}

func (s *Store) DeleteAccount(_ context.Context, addr codec.Address) error {
	return s.db.Delete(AccountKey(addr))
}

func (s *Store) Close() error {
	if s.closer == nil {
		return nil
	}
	return s.closer.Close()
}

// pebbleBatcher narrows pebble's concrete batch to Batch.
type pebbleBatcher struct {
	*pebble.Database
}

func (p pebbleBatcher) NewBatch() Batch {
	return p.Database.NewBatch()
}

// fileBatcher narrows filedb's journaled batch to Batch.
type fileBatcher struct {
	*filedb.FileDB
}

func (f fileBatcher) NewBatch() Batch {
	return f.FileDB.NewBatch()
}
