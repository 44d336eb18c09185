// Copyright (C) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package filedb

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/ava-labs/avalanchego/database"
	"github.com/ava-labs/avalanchego/utils/units"
	"github.com/stretchr/testify/require"

	"github.com/ava-labs/hyperprog/codec"
)

func TestBatch(t *testing.T) {
	require := require.New(t)
	dir := t.TempDir()
	db, err := New(dir, Config{Sync: true, Locks: 16, CacheSize: units.KiB})
	require.NoError(err)

	b := db.NewBatch()
	require.NoError(b.Put([]byte{0x01}, []byte("a")))
	require.NoError(b.Put([]byte{0x02}, []byte("b")))
	require.NoError(b.Put([]byte{0x01}, []byte("c")))
	require.Equal(3, b.Len())

	// Nothing is visible before Write.
	_, err = db.Get([]byte{0x01})
	require.ErrorIs(err, database.ErrNotFound)

	require.NoError(b.Write())
	v, err := db.Get([]byte{0x01})
	require.NoError(err)
	require.Equal([]byte("c"), v)
	v, err = db.Get([]byte{0x02})
	require.NoError(err)
	require.Equal([]byte("b"), v)

	_, err = os.Stat(filepath.Join(dir, journalName))
	require.ErrorIs(err, os.ErrNotExist)
	require.Zero(db.locks.Locks())

	b.Reset()
	require.Zero(b.Len())
	require.NoError(b.Write())
}

func TestBatchRecovery(t *testing.T) {
	committed, err := codec.Serialize(&journal{Entries: []entry{
		{Key: []byte{0x01}, Value: []byte("a")},
		{Key: []byte{0x02}, Value: []byte("b")},
	}})
	require.NoError(t, err)

	tests := []struct {
		name        string
		file        string
		contents    []byte
		expected    map[byte][]byte
		expectedErr error
	}{
		{
			name:     "committed journal is applied",
			file:     journalName,
			contents: committed,
			expected: map[byte][]byte{0x01: []byte("a"), 0x02: []byte("b")},
		},
		{
			name:     "partial journal is discarded",
			file:     journalName + tmpSuffix,
			contents: committed,
			expected: map[byte][]byte{},
		},
		{
			name:        "corrupt journal",
			file:        journalName,
			contents:    []byte{0xff},
			expectedErr: ErrCorruptJournal,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require := require.New(t)
			dir := t.TempDir()
			require.NoError(os.WriteFile(filepath.Join(dir, tt.file), tt.contents, 0o600))

			db, err := New(dir, Config{Locks: 16, CacheSize: units.KiB})
			require.ErrorIs(err, tt.expectedErr)
			if tt.expectedErr != nil {
				return
			}

			for _, key := range []byte{0x01, 0x02} {
				v, err := db.Get([]byte{key})
				if expected, ok := tt.expected[key]; ok {
					require.NoError(err)
					require.Equal(expected, v)
				} else {
					require.ErrorIs(err, database.ErrNotFound)
				}
			}
			entries, err := os.ReadDir(dir)
			require.NoError(err)
			for _, e := range entries {
				require.NotContains(e.Name(), journalName)
			}
		})
	}
}

func TestBatchFailedApply(t *testing.T) {
	require := require.New(t)
	dir := t.TempDir()
	db, err := New(dir, Config{Locks: 16, CacheSize: units.KiB})
	require.NoError(err)

	// A regular file where the shard directory belongs fails the apply
	// after the journal is committed.
	blocker := filepath.Join(dir, "ab")
	require.NoError(os.WriteFile(blocker, nil, 0o600))

	b := db.NewBatch()
	require.NoError(b.Put([]byte{0x01}, []byte("a")))
	require.NoError(b.Put([]byte{0xab}, []byte("b")))
	require.ErrorIs(b.Write(), ErrJournalPending)

	// Later writes would be overwritten by the replay, so they are refused.
	require.ErrorIs(db.Put([]byte{0x02}, []byte("c")), ErrJournalPending)
	require.ErrorIs(db.Delete([]byte{0x01}), ErrJournalPending)
	retry := db.NewBatch()
	require.NoError(retry.Put([]byte{0x03}, []byte("d")))
	require.ErrorIs(retry.Write(), ErrJournalPending)

	require.NoError(os.Remove(blocker))
	db, err = New(dir, Config{Locks: 16, CacheSize: units.KiB})
	require.NoError(err)
	v, err := db.Get([]byte{0xab})
	require.NoError(err)
	require.Equal([]byte("b"), v)
	require.NoError(db.Put([]byte{0x02}, []byte("c")))
}
