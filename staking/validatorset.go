package staking

import "github.com/parallelchain-io/pchain-runtime-sub000/types"

// PoolPower pairs a pool operator with its current power, the element
// type of nvp/vp/pvp (spec §3 "Validator sets").
type PoolPower struct {
	Operator types.Address
	Power    uint64
}

// ValidatorSet is an ordered, capped set of PoolPower, kept sorted
// ascending by Power (ties broken by Address) so the minimum element —
// the first eviction candidate when the set is full — is always at
// index 0. nvp is exactly this structure; vp/pvp are plain snapshots
// produced by Top and so do not need the same maintenance operations.
type ValidatorSet struct {
	entries []PoolPower
	maxSize int
}

func NewValidatorSet(maxSize int) *ValidatorSet {
	return &ValidatorSet{maxSize: maxSize}
}

func (v *ValidatorSet) Len() int { return len(v.entries) }

func (v *ValidatorSet) indexOf(addr types.Address) int {
	for i := range v.entries {
		if v.entries[i].Operator == addr {
			return i
		}
	}
	return -1
}

func (v *ValidatorSet) insertSorted(p PoolPower) {
	i := 0
	for i < len(v.entries) {
		cur := v.entries[i]
		if cur.Power > p.Power || (cur.Power == p.Power && p.Operator.Less(cur.Operator)) {
			break
		}
		i++
	}
	v.entries = append(v.entries, PoolPower{})
	copy(v.entries[i+1:], v.entries[i:])
	v.entries[i] = p
}

// Insert adds addr at power, evicting the current minimum if the set is
// already at maxSize. Returns the evicted entry (if any) and whether
// addr was actually inserted: insertion is refused when the set is full
// and addr's power would not exceed the current minimum.
func (v *ValidatorSet) Insert(addr types.Address, power uint64) (evicted *PoolPower, inserted bool) {
	if idx := v.indexOf(addr); idx >= 0 {
		v.entries = append(v.entries[:idx], v.entries[idx+1:]...)
	}
	if len(v.entries) >= v.maxSize && v.maxSize > 0 {
		min := v.entries[0]
		if power <= min.Power {
			// addr does not displace the incumbent minimum; leave it
			// evicted out of the set entirely (mirrors a CreatePool
			// arriving once nvp is already full).
			return nil, false
		}
		v.entries = v.entries[1:]
		evicted = &min
	}
	v.insertSorted(PoolPower{Operator: addr, Power: power})
	return evicted, true
}

// Remove deletes addr from the set if present.
func (v *ValidatorSet) Remove(addr types.Address) {
	if idx := v.indexOf(addr); idx >= 0 {
		v.entries = append(v.entries[:idx], v.entries[idx+1:]...)
	}
}

// UpdateKey changes addr's sort key (power) in place, re-sorting it to
// the new position. If addr is absent this is a no-op — callers that
// need insertion-on-absence should use Insert instead.
func (v *ValidatorSet) UpdateKey(addr types.Address, newPower uint64) {
	idx := v.indexOf(addr)
	if idx < 0 {
		return
	}
	v.entries = append(v.entries[:idx], v.entries[idx+1:]...)
	v.insertSorted(PoolPower{Operator: addr, Power: newPower})
}

// Power returns addr's current power and whether it is present.
func (v *ValidatorSet) Power(addr types.Address) (uint64, bool) {
	if idx := v.indexOf(addr); idx >= 0 {
		return v.entries[idx].Power, true
	}
	return 0, false
}

// Entries returns the set's contents in ascending-power order.
func (v *ValidatorSet) Entries() []PoolPower {
	return append([]PoolPower(nil), v.entries...)
}

// Top returns the n highest-power entries, descending, breaking ties by
// Address for determinism. Used to compute vp from nvp (spec §4.7 step 4).
func (v *ValidatorSet) Top(n int) []PoolPower {
	sorted := append([]PoolPower(nil), v.entries...)
	// v.entries is ascending; read from the back for descending order.
	// This also reverses insertSorted's address tie-break, so
	// equal-power entries come out in descending address order.
	out := make([]PoolPower, 0, n)
	for i := len(sorted) - 1; i >= 0 && len(out) < n; i-- {
		out = append(out, sorted[i])
	}
	return out
}

// Snapshot is an immutable committee list, used for vp and pvp, in the
// descending-power order Top produces: both are point-in-time copies
// rather than live capped sets (spec §3).
type Snapshot []PoolPower

func (s Snapshot) Power(addr types.Address) uint64 {
	for _, e := range s {
		if e.Operator == addr {
			return e.Power
		}
	}
	return 0
}

// Contains reports whether addr is a member of this committee snapshot.
func (s Snapshot) Contains(addr types.Address) bool {
	for _, e := range s {
		if e.Operator == addr {
			return true
		}
	}
	return false
}
