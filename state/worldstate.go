package state

import "github.com/parallelchain-io/pchain-runtime-sub000/gas"

// GasChange is the cost (and any refund it generates) of a single
// WorldStateCache operation, returned to the caller (GasMeter) to
// charge and accumulate respectively (spec §4.2/§4.3).
type GasChange struct {
	Charge uint64
	Refund uint64
}

// WorldStateCache is a read-through/write-back layer over an MPTHandle.
// It exists for the lifetime of one transaction and is either committed
// wholesale or discarded (spec §3 Lifecycles). A journal supports
// taking an internal snapshot (used around cross-contract calls) and
// reverting to it without losing writes made before the snapshot.
type WorldStateCache struct {
	mpt MPTHandle

	pendingWrites map[string][]byte
	deleted       map[string]bool
	readCache     map[string][]byte
	readSeen      map[string]bool

	journal *journal
}

// NewWorldStateCache wraps mpt for one transaction's lifetime.
func NewWorldStateCache(mpt MPTHandle) *WorldStateCache {
	return &WorldStateCache{
		mpt:           mpt,
		pendingWrites: make(map[string][]byte),
		deleted:       make(map[string]bool),
		readCache:     make(map[string][]byte),
		readSeen:      make(map[string]bool),
		journal:       newJournal(),
	}
}

// Get returns the value at key, consulting pending writes, then the
// read cache, then the MPT (in that order), charging the read cost
// exactly once per key per transaction (spec §4.2 invariant ii).
// isContractCode applies the 50% read discount contract-code lookups
// receive (spec §4.1).
func (c *WorldStateCache) Get(key []byte, isContractCode bool) (value []byte, found bool, change GasChange) {
	return c.getInternal(key, isContractCode, true)
}

func (c *WorldStateCache) getInternal(key []byte, isContractCode bool, journaled bool) (value []byte, found bool, change GasChange) {
	sk := string(key)
	if v, ok := c.pendingWrites[sk]; ok {
		return v, true, GasChange{}
	}
	if c.deleted[sk] {
		return nil, false, GasChange{}
	}
	if c.readSeen[sk] {
		v, ok := c.readCache[sk]
		return v, ok, GasChange{}
	}

	v, ok, err := c.mpt.Get(key)
	if err != nil {
		// The MPT backend is treated as infallible for the purposes of
		// this cache: a real handle only errors on corruption, which
		// this engine has no defined recovery for.
		v, ok = nil, false
	}
	c.readSeen[sk] = true
	if ok {
		c.readCache[sk] = v
	}
	if journaled {
		c.journal.append(readChange{key: sk})
	}

	valueLen := 0
	if ok {
		valueLen = len(v)
	}
	charge := gas.StorageReadCost(len(key), valueLen, isContractCode)
	return v, ok, GasChange{Charge: charge}
}

// Contains reports whether key has a value, charging only the
// key-traversal cost (spec §4.2).
func (c *WorldStateCache) Contains(key []byte) (bool, GasChange) {
	sk := string(key)
	var found bool
	if v, ok := c.pendingWrites[sk]; ok {
		found = v != nil
	} else if c.deleted[sk] {
		found = false
	} else if c.readSeen[sk] {
		_, found = c.readCache[sk]
	} else {
		_, found, _ = c.mpt.Get(key)
	}
	return found, GasChange{Charge: gas.ContainsCost(len(key))}
}

// Set installs value at key (or deletes it, when value is nil),
// charging the write formula with refund semantics (spec §4.2). The
// internal old-value lookup shares read idempotence with Get.
func (c *WorldStateCache) Set(key, value []byte, isContractCode bool) GasChange {
	sk := string(key)
	oldValue, hadOld, readChangeCost := c.getInternal(key, isContractCode, true)

	_, hadPendingWrite := c.pendingWrites[sk]
	wasDeleted := c.deleted[sk]
	c.journal.append(writeChange{
		key:         sk,
		hadPrev:     hadPendingWrite || wasDeleted,
		prevValue:   c.pendingWrites[sk],
		prevDeleted: wasDeleted,
	})

	if value == nil {
		c.deleted[sk] = true
		delete(c.pendingWrites, sk)
	} else {
		c.pendingWrites[sk] = append([]byte(nil), value...)
		delete(c.deleted, sk)
	}

	oldLen := 0
	if hadOld {
		oldLen = len(oldValue)
	}
	newLen := 0
	if value != nil {
		newLen = len(value)
	}
	writeCharge, refund := gas.StorageWriteCost(len(key), oldLen, newLen)

	return GasChange{
		Charge: gas.SafeAdd(readChangeCost.Charge, writeCharge),
		Refund: refund,
	}
}

// Delete removes key, equivalent to Set(key, nil, ...).
func (c *WorldStateCache) Delete(key []byte, isContractCode bool) GasChange {
	return c.Set(key, nil, isContractCode)
}

// Snapshot returns an identifier that RevertToSnapshot can later unwind
// to, used around cross-contract call reentry (spec §4.6).
func (c *WorldStateCache) Snapshot() int {
	return c.journal.snapshot()
}

// RevertToSnapshot undoes every write and read-cache entry made since
// id was taken, without disturbing anything recorded before it.
func (c *WorldStateCache) RevertToSnapshot(id int) {
	c.journal.revertToSnapshot(id, c)
}

// DiscardSnapshot forgets id without reverting to it, once the caller
// knows it will never roll back that far.
func (c *WorldStateCache) DiscardSnapshot(id int) {
	c.journal.discardSnapshot(id)
}

// Revert discards every pending write and cached read, returning the
// cache to its state when NewWorldStateCache was called. Used on
// non-includable transaction failures (spec §7).
func (c *WorldStateCache) Revert() {
	c.pendingWrites = make(map[string][]byte)
	c.deleted = make(map[string]bool)
	c.readCache = make(map[string][]byte)
	c.readSeen = make(map[string]bool)
	c.journal = newJournal()
}

// Commit applies every pending write, then every delete, to the
// underlying MPT handle in map iteration order. Order does not affect
// the resulting state since every key holds only its final value
// (spec §4.2).
func (c *WorldStateCache) Commit() error {
	for k, v := range c.pendingWrites {
		if err := c.mpt.Put([]byte(k), v); err != nil {
			return err
		}
	}
	for k := range c.deleted {
		if err := c.mpt.Delete([]byte(k)); err != nil {
			return err
		}
	}
	return nil
}
