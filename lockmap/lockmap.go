// Copyright (C) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package lockmap provides reference-counted read/write locks keyed by any
// comparable value. The executor holds one per touched account and filedb
// one per file.
package lockmap

import (
	"fmt"
	"sync"
)

type entry struct {
	waiters int
	rw      sync.RWMutex
}

// Lockmap allocates a lock on first use of a key and drops it once nobody
// holds or waits on it.
type Lockmap[K comparable] struct {
	l       sync.Mutex
	entries map[K]*entry
}

func New[K comparable](size int) *Lockmap[K] {
	return &Lockmap[K]{entries: make(map[K]*entry, size)}
}

func (m *Lockmap[K]) acquire(key K) *entry {
	m.l.Lock()
	defer m.l.Unlock()

	e, ok := m.entries[key]
	if !ok {
		e = &entry{}
		m.entries[key] = e
	}
	e.waiters++
	return e
}

func (m *Lockmap[K]) release(key K) *entry {
	m.l.Lock()
	defer m.l.Unlock()

	e, ok := m.entries[key]
	if !ok {
		panic(fmt.Sprintf("lockmap: unlock of unlocked key %v", key))
	}
	e.waiters--
	if e.waiters == 0 {
		delete(m.entries, key)
	}
	return e
}

// Lock blocks outside the map lock, so waiting on one key never stalls
// another.
func (m *Lockmap[K]) Lock(key K) {
	m.acquire(key).rw.Lock()
}

func (m *Lockmap[K]) Unlock(key K) {
	m.release(key).rw.Unlock()
}

func (m *Lockmap[K]) RLock(key K) {
	m.acquire(key).rw.RLock()
}

func (m *Lockmap[K]) RUnlock(key K) {
	m.release(key).rw.RUnlock()
}

// Locks is the number of keys currently held or waited on.
func (m *Lockmap[K]) Locks() int {
	m.l.Lock()
	defer m.l.Unlock()

	return len(m.entries)
}
