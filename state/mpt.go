// Package state implements the copy-on-write world-state cache that
// sits between command execution and the durable Merkle-Patricia-Trie
// backend, grounded on the teacher's account_cache.go/statedb.go/
// journal.go layering: a read-through/write-back cache in front of a
// pluggable handle, with a journal for snapshot/revert.
package state

import (
	"sync"

	"github.com/cockroachdb/pebble"
)

// MPTHandle is the durable key-value backend WorldStateCache reads
// through and writes back to on commit. The MPT itself (root hashing,
// proof generation) is out of scope for this engine (spec §1); only the
// get/put/delete surface the cache needs is modeled here.
type MPTHandle interface {
	Get(key []byte) ([]byte, bool, error)
	Put(key, value []byte) error
	Delete(key []byte) error
}

// MemoryHandle is an in-memory MPTHandle reference implementation, used
// by tests and by callers that do not need cross-process durability.
type MemoryHandle struct {
	mu   sync.RWMutex
	data map[string][]byte
}

// NewMemoryHandle returns an empty MemoryHandle.
func NewMemoryHandle() *MemoryHandle {
	return &MemoryHandle{data: make(map[string][]byte)}
}

func (m *MemoryHandle) Get(key []byte) ([]byte, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.data[string(key)]
	if !ok {
		return nil, false, nil
	}
	return append([]byte(nil), v...), true, nil
}

func (m *MemoryHandle) Put(key, value []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[string(key)] = append([]byte(nil), value...)
	return nil
}

func (m *MemoryHandle) Delete(key []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data, string(key))
	return nil
}

// PebbleHandle is an MPTHandle backed by a github.com/cockroachdb/pebble
// store, standing in for the production MPT backend this engine is
// deliberately decoupled from (spec §1). It is a thin adapter: pebble
// already gives durable, ordered, crash-safe key-value storage, which is
// all WorldStateCache's commit phase needs from its backend.
type PebbleHandle struct {
	db *pebble.DB
}

// OpenPebbleHandle opens (creating if absent) a pebble store at dir.
func OpenPebbleHandle(dir string) (*PebbleHandle, error) {
	db, err := pebble.Open(dir, &pebble.Options{})
	if err != nil {
		return nil, err
	}
	return &PebbleHandle{db: db}, nil
}

func (p *PebbleHandle) Get(key []byte) ([]byte, bool, error) {
	v, closer, err := p.db.Get(key)
	if err == pebble.ErrNotFound {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	out := append([]byte(nil), v...)
	closer.Close()
	return out, true, nil
}

func (p *PebbleHandle) Put(key, value []byte) error {
	return p.db.Set(key, value, pebble.Sync)
}

func (p *PebbleHandle) Delete(key []byte) error {
	return p.db.Delete(key, pebble.Sync)
}

// Close releases the underlying pebble store.
func (p *PebbleHandle) Close() error {
	return p.db.Close()
}
