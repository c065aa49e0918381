package wasmhost

import (
	"encoding/hex"
	"sync"

	lru "github.com/hashicorp/golang-lru"
	"golang.org/x/sync/singleflight"

	"github.com/parallelchain-io/pchain-runtime-sub000/types"
)

// ModuleStore is the on-disk (or otherwise durable) half of the
// content-addressed module cache: compiled Modules are looked up and
// stored by the sha256 content hash of their source bytecode, mirroring
// the teacher's own account_cache.go split between an in-process LRU
// and a backing persistent handle.
type ModuleStore interface {
	Load(hash types.Hash32) (code []byte, ok bool)
	Store(hash types.Hash32, code []byte) error
}

// MemoryModuleStore is a ModuleStore backed by a plain map, suitable
// for tests and single-process deployments where the Pebble handle
// already used for world state is not also pressed into service for
// compiled modules.
type MemoryModuleStore struct {
	mu   sync.Mutex
	data map[string][]byte
}

func NewMemoryModuleStore() *MemoryModuleStore {
	return &MemoryModuleStore{data: make(map[string][]byte)}
}

func (s *MemoryModuleStore) Load(hash types.Hash32) ([]byte, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.data[hex.EncodeToString(hash[:])]
	return v, ok
}

func (s *MemoryModuleStore) Store(hash types.Hash32, code []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[hex.EncodeToString(hash[:])] = append([]byte(nil), code...)
	return nil
}

// ModuleCache fronts a ModuleStore with an in-process LRU of parsed
// Modules, collapsing concurrent compile-misses for the same content
// hash through a singleflight group so that N commands deploying or
// calling the same contract within one block only parse it once
// (spec §4.6, "compiled module cache").
type ModuleCache struct {
	store   ModuleStore
	lru     *lru.Cache
	compile singleflight.Group
}

// NewModuleCache builds a cache holding up to size parsed Modules in
// memory, falling back to store for anything evicted.
func NewModuleCache(store ModuleStore, size int) (*ModuleCache, error) {
	l, err := lru.New(size)
	if err != nil {
		return nil, err
	}
	return &ModuleCache{store: store, lru: l}, nil
}

// Get returns the parsed Module for hash, compiling (parsing +
// validating) it from code on a cache miss. code is only consulted
// when neither the LRU nor the backing store already holds this hash;
// callers deploying new contracts should also call Put once the module
// is known good, so later callers never pay the parse cost again.
func (c *ModuleCache) Get(hash types.Hash32, code []byte) (*Module, error) {
	key := hex.EncodeToString(hash[:])
	if v, ok := c.lru.Get(key); ok {
		return v.(*Module), nil
	}

	v, err, _ := c.compile.Do(key, func() (interface{}, error) {
		if stored, ok := c.store.Load(hash); ok {
			m, err := Parse(stored)
			if err != nil {
				return nil, err
			}
			return m, nil
		}
		m, err := Parse(code)
		if err != nil {
			return nil, err
		}
		if err := c.store.Store(hash, code); err != nil {
			return nil, err
		}
		return m, nil
	})
	if err != nil {
		return nil, err
	}
	m := v.(*Module)
	c.lru.Add(key, m)
	return m, nil
}

// Put installs an already-validated module directly, used when a
// Deploy command has just compiled code and wants later Call commands
// in the same block to hit the cache rather than the store.
func (c *ModuleCache) Put(m *Module) error {
	key := hex.EncodeToString(m.Hash[:])
	c.lru.Add(key, m)
	return c.store.Store(m.Hash, m.Code)
}
