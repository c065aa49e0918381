package staking

import "github.com/parallelchain-io/pchain-runtime-sub000/types"

// Stake is one owner's delegation of power into a Pool. Invariant:
// Power > 0 — a Stake that would fall to zero is removed rather than
// kept at zero (spec §3).
type Stake struct {
	Owner types.Address
	Power uint64
}

// Pool is one operator's validator candidacy. DelegatedStakes is kept
// sorted by Power ascending, capped at MaxStakesPerPool; Power is
// maintained as the running sum of OperatorStake (if set) plus every
// delegated stake's power (spec §3 Pool invariant).
type Pool struct {
	Operator        types.Address
	CommissionRate  uint8
	Power           uint64
	OperatorStake   *Stake
	DelegatedStakes []Stake // sorted ascending by Power, ties broken by Owner
}

// recomputePower restores the Pool.Power invariant from its parts.
func (p *Pool) recomputePower() {
	var total uint64
	if p.OperatorStake != nil {
		total += p.OperatorStake.Power
	}
	for _, s := range p.DelegatedStakes {
		total += s.Power
	}
	p.Power = total
}

// findDelegated returns the index of owner's delegated stake, or -1.
func (p *Pool) findDelegated(owner types.Address) int {
	for i := range p.DelegatedStakes {
		if p.DelegatedStakes[i].Owner == owner {
			return i
		}
	}
	return -1
}

// stakeFor returns (stake, delegatedIndex) for owner, or (nil, -1) if
// owner holds no delegated stake in this pool; with isOperator set it
// returns (OperatorStake, -1). The
// operator's own stake is distinct from a delegated stake of the same
// address (spec §3).
func (p *Pool) stakeFor(owner types.Address, isOperator bool) (*Stake, int) {
	if isOperator {
		return p.OperatorStake, -1
	}
	idx := p.findDelegated(owner)
	if idx < 0 {
		return nil, -1
	}
	return &p.DelegatedStakes[idx], idx
}

// insertSorted inserts s into DelegatedStakes keeping ascending-Power
// order with Address as a deterministic tie-break.
func (p *Pool) insertSorted(s Stake) {
	i := 0
	for i < len(p.DelegatedStakes) {
		cur := p.DelegatedStakes[i]
		if cur.Power > s.Power || (cur.Power == s.Power && s.Owner.Less(cur.Owner)) {
			break
		}
		i++
	}
	p.DelegatedStakes = append(p.DelegatedStakes, Stake{})
	copy(p.DelegatedStakes[i+1:], p.DelegatedStakes[i:])
	p.DelegatedStakes[i] = s
}

// removeDelegatedAt deletes the stake at index i, preserving order.
func (p *Pool) removeDelegatedAt(i int) {
	p.DelegatedStakes = append(p.DelegatedStakes[:i], p.DelegatedStakes[i+1:]...)
}

// minDelegated returns the smallest-power delegated stake (the front of
// the sorted slice), or ok=false if there are none.
func (p *Pool) minDelegated() (Stake, bool) {
	if len(p.DelegatedStakes) == 0 {
		return Stake{}, false
	}
	return p.DelegatedStakes[0], true
}

// Deposit is one (operator, owner) relationship's withdrawable balance.
// Invariant: a Deposit with Balance == 0 does not exist — it is deleted
// from the store as soon as it would reach zero (spec §3).
type Deposit struct {
	Operator         types.Address
	Owner            types.Address
	Balance          uint64
	AutoStakeRewards bool
}

// DepositKey identifies one Deposit by its composite key.
type DepositKey struct {
	Operator types.Address
	Owner    types.Address
}
