// Copyright (C) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package pebble

import (
	"errors"
	"slices"
	"sync"
	"time"

	"github.com/ava-labs/avalanchego/database"
	"github.com/cockroachdb/pebble"
	"github.com/prometheus/client_golang/prometheus"
)

var (
	_ database.KeyValueReaderWriterDeleter = (*Database)(nil)

	ErrClosed = errors.New("pebble: closed")
)

type Config struct {
	CacheSize                   int64 `json:"cacheSize"`
	BytesPerSync                int   `json:"bytesPerSync"`
	MemTableStopWritesThreshold int   `json:"memTableStopWritesThreshold"`
	MaxOpenFiles                int   `json:"maxOpenFiles"`
	Sync                        bool  `json:"sync"`
}

func NewDefaultConfig() Config {
	return Config{
		CacheSize:                   64 * 1024 * 1024,
		BytesPerSync:                1024 * 1024,
		MemTableStopWritesThreshold: 8,
		MaxOpenFiles:                4_096,
	}
}

// Database is a pebble store exposing avalanchego's key-value interface.
type Database struct {
	db      *pebble.DB
	metrics *metrics
	wo      *pebble.WriteOptions

	closeOnce sync.Once
	closing   chan struct{}
	closed    bool
	l         sync.RWMutex
}

// New opens (or creates) the store in [dir] and registers its metrics on
// [registerer].
func New(dir string, cfg Config, registerer prometheus.Registerer) (*Database, error) {
	m, err := newMetrics(registerer)
	if err != nil {
		return nil, err
	}
	db := &Database{
		metrics: m,
		closing: make(chan struct{}),
		wo:      pebble.NoSync,
	}
	if cfg.Sync {
		db.wo = pebble.Sync
	}
	opts := &pebble.Options{
		Cache:                       pebble.NewCache(cfg.CacheSize),
		BytesPerSync:                cfg.BytesPerSync,
		MemTableStopWritesThreshold: cfg.MemTableStopWritesThreshold,
		MaxOpenFiles:                cfg.MaxOpenFiles,
		EventListener: &pebble.EventListener{
			CompactionBegin: db.onCompactionBegin,
			CompactionEnd:   db.onCompactionEnd,
			WriteStallBegin: db.onWriteStallBegin,
			WriteStallEnd:   db.onWriteStallEnd,
		},
	}
	defer opts.Cache.Unref()

	pdb, err := pebble.Open(dir, opts)
	if err != nil {
		return nil, err
	}
	db.db = pdb
	go db.collectMetrics()
	return db, nil
}

func (db *Database) Has(key []byte) (bool, error) {
	_, err := db.Get(key)
	if errors.Is(err, database.ErrNotFound) {
		return false, nil
	}
	return err == nil, err
}

func (db *Database) Get(key []byte) ([]byte, error) {
	db.l.RLock()
	defer db.l.RUnlock()
	if db.closed {
		return nil, ErrClosed
	}
	defer db.observeRead(time.Now())

	value, closer, err := db.db.Get(key)
	if errors.Is(err, pebble.ErrNotFound) {
		return nil, database.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	defer closer.Close()
	return slices.Clone(value), nil
}

func (db *Database) Put(key []byte, value []byte) error {
	db.l.RLock()
	defer db.l.RUnlock()
	if db.closed {
		return ErrClosed
	}
	return db.db.Set(key, value, db.wo)
}

func (db *Database) Delete(key []byte) error {
	db.l.RLock()
	defer db.l.RUnlock()
	if db.closed {
		return ErrClosed
	}
	return db.db.Delete(key, db.wo)
}

// Batch collects writes that are applied atomically by Write.
type Batch struct {
	db    *Database
	batch *pebble.Batch
}

func (db *Database) NewBatch() *Batch {
	return &Batch{db: db, batch: db.db.NewBatch()}
}

func (b *Batch) Put(key []byte, value []byte) error {
	return b.batch.Set(key, value, nil)
}

func (b *Batch) Delete(key []byte) error {
	return b.batch.Delete(key, nil)
}

func (b *Batch) Write() error {
	b.db.l.RLock()
	defer b.db.l.RUnlock()
	if b.db.closed {
		return ErrClosed
	}
	if err := b.batch.Commit(b.db.wo); err != nil {
		return err
	}
	b.db.metrics.commits.Inc()
	return nil
}

func (db *Database) Close() error {
	var err error
	db.closeOnce.Do(func() {
		db.l.Lock()
		defer db.l.Unlock()

		db.closed = true
		close(db.closing)
		err = db.db.Close()
	})
	return err
}
