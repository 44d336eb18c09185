// Copyright (C) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package filedb stores each key in its own file. It implements the
// key-value subset of avalanchego's database interface, so it can back an
// account store directly.
//
// Files are sharded into one directory per leading key byte and replaced
// atomically with a rename, so a crash mid-write never leaves a torn account.
// A Batch spans several files through a journal that is replayed on open.
package filedb

import (
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"sync"

	"github.com/ava-labs/avalanchego/cache"
	"github.com/ava-labs/avalanchego/database"

	"github.com/ava-labs/hyperprog/lockmap"
)

const (
	tmpSuffix   = ".tmp"
	emptyKey    = "_"
	journalName = "journal"
)

var (
	_ database.KeyValueReaderWriterDeleter = (*FileDB)(nil)

	ErrCorruptJournal = errors.New("corrupt journal")
	ErrJournalPending = errors.New("unapplied journal, reopen to recover")
)

type Config struct {
	// Sync fsyncs every file before it replaces the previous version.
	Sync bool
	// Locks is a size hint for the per-file lock table.
	Locks int
	// CacheSize bounds the bytes of file contents held in memory.
	CacheSize int
}

type FileDB struct {
	dir    string
	cfg    Config
	locks  *lockmap.Lockmap[string]
	values cache.Cacher[string, []byte]

	// journalLock serializes batch commits and guards pending.
	journalLock sync.RWMutex
	pending     error
}

// New opens the database in [dir], finishing any batch that was committed
// but not fully applied before the last shutdown.
func New(dir string, cfg Config) (*FileDB, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("%w: unable to create %s", err, dir)
	}
	f := &FileDB{
		dir:   dir,
		cfg:   cfg,
		locks: lockmap.New[string](cfg.Locks),
		values: cache.NewSizedLRU[string, []byte](cfg.CacheSize, func(name string, value []byte) int {
			return len(name) + len(value)
		}),
	}
	if err := f.recover(); err != nil {
		return nil, err
	}
	return f, nil
}

// locate returns the shard directory and file path of [key].
func (f *FileDB) locate(key []byte) (string, string) {
	if len(key) == 0 {
		return f.dir, filepath.Join(f.dir, emptyKey)
	}
	shard := filepath.Join(f.dir, hex.EncodeToString(key[:1]))
	return shard, filepath.Join(shard, hex.EncodeToString(key))
}

func (f *FileDB) Put(key []byte, value []byte) error {
	f.journalLock.RLock()
	defer f.journalLock.RUnlock()
	if f.pending != nil {
		return f.pending
	}

	shard, name := f.locate(key)
	f.locks.Lock(name)
	defer f.locks.Unlock(name)

	if err := os.MkdirAll(shard, 0o755); err != nil {
		return fmt.Errorf("%w: unable to create shard %s", err, shard)
	}
	if err := f.write(name, value); err != nil {
		return err
	}
	f.values.Put(name, slices.Clone(value))
	return nil
}

func (f *FileDB) write(name string, value []byte) error {
	tmp := name + tmpSuffix
	file, err := os.Create(tmp)
	if err != nil {
		return fmt.Errorf("%w: unable to create %s", err, tmp)
	}
	_, err = file.Write(value)
	if err == nil && f.cfg.Sync {
		err = file.Sync()
	}
	if cerr := file.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("%w: unable to write %s", err, tmp)
	}
	if err := os.Rename(tmp, name); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("%w: unable to replace %s", err, name)
	}
	return nil
}

func (f *FileDB) Get(key []byte) ([]byte, error) {
	_, name := f.locate(key)
	f.locks.RLock(name)
	defer f.locks.RUnlock(name)

	if value, ok := f.values.Get(name); ok {
		return slices.Clone(value), nil
	}
	value, err := os.ReadFile(name)
	switch {
	case errors.Is(err, os.ErrNotExist):
		return nil, database.ErrNotFound
	case err != nil:
		return nil, fmt.Errorf("%w: unable to read %s", err, name)
	}
	f.values.Put(name, value)
	return slices.Clone(value), nil
}

func (f *FileDB) Has(key []byte) (bool, error) {
	_, name := f.locate(key)
	f.locks.RLock(name)
	defer f.locks.RUnlock(name)

	if _, ok := f.values.Get(name); ok {
		return true, nil
	}
	_, err := os.Stat(name)
	switch {
	case errors.Is(err, os.ErrNotExist):
		return false, nil
	case err != nil:
		return false, err
	default:
		return true, nil
	}
}

// Delete removes [key]. Deleting a missing key is not an error.
func (f *FileDB) Delete(key []byte) error {
	f.journalLock.RLock()
	defer f.journalLock.RUnlock()
	if f.pending != nil {
		return f.pending
	}

	_, name := f.locate(key)
	f.locks.Lock(name)
	defer f.locks.Unlock(name)

	f.values.Evict(name)
	if err := os.Remove(name); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}

// Close drops the cached contents. Files on disk are unaffected.
func (f *FileDB) Close() error {
	f.values.Flush()
	return nil
}
