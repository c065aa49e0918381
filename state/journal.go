package state

// journalEntry is a revertible change to a WorldStateCache, mirroring
// the teacher's state.journalEntry/revert(s) pattern.
type journalEntry interface {
	revert(c *WorldStateCache)
}

// journal tracks pending-write and read-cache mutations so a snapshot
// taken mid-transaction (e.g. before a cross-contract call) can be
// unwound without disturbing writes made before it.
type journal struct {
	entries   []journalEntry
	snapshots map[int]int
	nextID    int
}

func newJournal() *journal {
	return &journal{snapshots: make(map[int]int)}
}

func (j *journal) append(e journalEntry) {
	j.entries = append(j.entries, e)
}

func (j *journal) snapshot() int {
	id := j.nextID
	j.nextID++
	j.snapshots[id] = len(j.entries)
	return id
}

func (j *journal) revertToSnapshot(id int, c *WorldStateCache) {
	idx, ok := j.snapshots[id]
	if !ok {
		return
	}
	for i := len(j.entries) - 1; i >= idx; i-- {
		j.entries[i].revert(c)
	}
	j.entries = j.entries[:idx]
	for sid := range j.snapshots {
		if sid >= id {
			delete(j.snapshots, sid)
		}
	}
}

func (j *journal) discardSnapshot(id int) {
	delete(j.snapshots, id)
}

// writeChange undoes a pending write (or delete) installed by set().
type writeChange struct {
	key         string
	hadPrev     bool
	prevValue   []byte
	prevDeleted bool
}

func (ch writeChange) revert(c *WorldStateCache) {
	if !ch.hadPrev {
		delete(c.pendingWrites, ch.key)
		delete(c.deleted, ch.key)
		return
	}
	if ch.prevDeleted {
		c.deleted[ch.key] = true
		delete(c.pendingWrites, ch.key)
	} else {
		c.pendingWrites[ch.key] = ch.prevValue
		delete(c.deleted, ch.key)
	}
}

// readChange undoes the first-read bookkeeping a get() performed, so a
// reverted snapshot re-charges the read if retried.
type readChange struct {
	key string
}

func (ch readChange) revert(c *WorldStateCache) {
	delete(c.readSeen, ch.key)
}
