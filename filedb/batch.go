// Copyright (C) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package filedb

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"

	"golang.org/x/exp/maps"

	"github.com/ava-labs/hyperprog/codec"
)

type entry struct {
	Key   []byte
	Value []byte
}

// journal is the on-disk record of a committed batch. Renaming it into place
// is the commit point: a journal found at open is applied again, a
// half-written one is discarded.
type journal struct {
	Entries []entry
}

// Batch stages puts until Write commits all of them or none.
type Batch struct {
	db      *FileDB
	entries []entry
}

func (f *FileDB) NewBatch() *Batch {
	return &Batch{db: f}
}

func (b *Batch) Put(key []byte, value []byte) error {
	b.entries = append(b.entries, entry{Key: slices.Clone(key), Value: slices.Clone(value)})
	return nil
}

// Len is the number of staged puts.
func (b *Batch) Len() int {
	return len(b.entries)
}

func (b *Batch) Reset() {
	b.entries = b.entries[:0]
}

func (b *Batch) Write() error {
	return b.db.commit(b.entries)
}

func (f *FileDB) journalPath() string {
	return filepath.Join(f.dir, journalName)
}

func (f *FileDB) commit(entries []entry) error {
	if len(entries) == 0 {
		return nil
	}
	f.journalLock.Lock()
	defer f.journalLock.Unlock()
	if f.pending != nil {
		return f.pending
	}

	// The last put of a key wins.
	latest := make(map[string]entry, len(entries))
	for _, e := range entries {
		_, name := f.locate(e.Key)
		latest[name] = e
	}
	names := maps.Keys(latest)
	slices.Sort(names)
	for _, name := range names {
		f.locks.Lock(name)
	}
	defer func() {
		for i := len(names) - 1; i >= 0; i-- {
			f.locks.Unlock(names[i])
		}
	}()

	j := &journal{Entries: make([]entry, 0, len(names))}
	for _, name := range names {
		j.Entries = append(j.Entries, latest[name])
	}
	b, err := codec.Serialize(j)
	if err != nil {
		return err
	}
	if err := f.write(f.journalPath(), b); err != nil {
		return err
	}
	if err := f.apply(j); err != nil {
		f.pending = fmt.Errorf("%w: %w", ErrJournalPending, err)
		return f.pending
	}
	return f.removeJournal()
}

func (f *FileDB) apply(j *journal) error {
	for _, e := range j.Entries {
		shard, name := f.locate(e.Key)
		if err := os.MkdirAll(shard, 0o755); err != nil {
			return fmt.Errorf("%w: unable to create shard %s", err, shard)
		}
		if err := f.write(name, e.Value); err != nil {
			return err
		}
		f.values.Put(name, slices.Clone(e.Value))
	}
	return nil
}

func (f *FileDB) removeJournal() error {
	if err := os.Remove(f.journalPath()); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("%w: unable to remove journal", err)
	}
	return nil
}

// recover finishes a batch interrupted after its commit point.
func (f *FileDB) recover() error {
	path := f.journalPath()
	if err := os.Remove(path + tmpSuffix); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("%w: unable to discard partial journal", err)
	}
	b, err := os.ReadFile(path)
	switch {
	case errors.Is(err, os.ErrNotExist):
		return nil
	case err != nil:
		return fmt.Errorf("%w: unable to read journal", err)
	}
	j, err := codec.Deserialize[journal](b)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrCorruptJournal, err)
	}
	if err := f.apply(j); err != nil {
		return err
	}
	return f.removeJournal()
}
