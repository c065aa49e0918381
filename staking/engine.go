package staking

import "github.com/parallelchain-io/pchain-runtime-sub000/types"

// This file implements the command-level staking algorithms (spec
// §4.5) and the NextEpoch rotation (spec §4.7), grounded on
// _examples/original_source/src/execution/staking.rs for the exact
// shape of the reduce/increase-stake-power shared helpers the six
// deposit/stake commands all bottom out in.

// CreatePool registers operator as a new pool with the given
// commission rate, at zero power, in nvp (spec §4.5 CreatePool).
func CreatePool(store *Store, nvp *ValidatorSet, operator types.Address, rate uint8) error {
	if rate > 100 {
		return types.ErrInvalidPoolPolicy
	}
	if _, ok := store.GetPool(operator); ok {
		return types.ErrPoolAlreadyExists
	}
	store.PutPool(&Pool{Operator: operator, CommissionRate: rate})
	nvp.Insert(operator, 0)
	store.SaveNVP(nvp)
	return nil
}

// SetPoolSettings updates operator's commission rate.
func SetPoolSettings(store *Store, operator types.Address, rate uint8) error {
	if rate > 100 {
		return types.ErrInvalidPoolPolicy
	}
	pool, ok := store.GetPool(operator)
	if !ok {
		return types.ErrPoolNotExists
	}
	if pool.CommissionRate == rate {
		return types.ErrInvalidPoolPolicy
	}
	pool.CommissionRate = rate
	store.PutPool(pool)
	return nil
}

// DeletePool removes operator's pool from nvp and deletes the pool
// object. Stakes and deposits referencing it are deliberately not
// cascaded (spec §4.5, §9) — they become orphaned until explicitly
// withdrawn, matching the original implementation's documented
// inconsistency.
func DeletePool(store *Store, nvp *ValidatorSet, operator types.Address) error {
	if _, ok := store.GetPool(operator); !ok {
		return types.ErrPoolNotExists
	}
	nvp.Remove(operator)
	store.SaveNVP(nvp)
	store.DeletePool(operator)
	return nil
}

// CreateDeposit opens a new (operator, owner) deposit. The caller is
// responsible for debiting owner's balance by balance (spec §4.5:
// balance transfer is an account-level effect outside this package).
func CreateDeposit(store *Store, operator, owner types.Address, balance uint64, autoStake bool) error {
	if _, ok := store.GetPool(operator); !ok {
		return types.ErrPoolNotExists
	}
	key := DepositKey{Operator: operator, Owner: owner}
	if _, ok := store.GetDeposit(key); ok {
		return types.ErrDepositsAlreadyExists
	}
	store.PutDeposit(&Deposit{Operator: operator, Owner: owner, Balance: balance, AutoStakeRewards: autoStake})
	return nil
}

// SetDepositSettings updates an existing deposit's auto-stake flag.
func SetDepositSettings(store *Store, operator, owner types.Address, autoStake bool) error {
	key := DepositKey{Operator: operator, Owner: owner}
	d, ok := store.GetDeposit(key)
	if !ok {
		return types.ErrDepositsNotExists
	}
	if d.AutoStakeRewards == autoStake {
		return types.ErrInvalidDepositPolicy
	}
	d.AutoStakeRewards = autoStake
	store.PutDeposit(d)
	return nil
}

// TopUpDeposit saturating-adds amount to an existing deposit's balance.
func TopUpDeposit(store *Store, operator, owner types.Address, amount uint64) error {
	key := DepositKey{Operator: operator, Owner: owner}
	d, ok := store.GetDeposit(key)
	if !ok {
		return types.ErrDepositsNotExists
	}
	d.Balance = types.SaturatingAdd(d.Balance, amount)
	store.PutDeposit(d)
	return nil
}

// WithdrawDeposit withdraws up to maxAmount grays from (operator,
// owner)'s deposit, bounded by the stake power currently committed to
// the previous or current epoch committee (spec §4.5 WithdrawDeposit).
// The caller is responsible for crediting the withdrawn amount to
// owner's account balance.
func WithdrawDeposit(store *Store, nvp *ValidatorSet, vp, pvp Snapshot, operator, owner types.Address, maxAmount uint64) (uint64, error) {
	key := DepositKey{Operator: operator, Owner: owner}
	d, ok := store.GetDeposit(key)
	if !ok {
		return 0, types.ErrDepositsNotExists
	}

	var stakePower uint64
	if pool, ok := store.GetPool(operator); ok {
		if s, _ := pool.stakeFor(owner, owner == operator); s != nil {
			stakePower = s.Power
		}
	}

	var locked uint64
	if vp.Contains(operator) {
		locked = stakePower
	}
	if pvp.Contains(operator) && stakePower > locked {
		locked = stakePower
	}

	if d.Balance <= locked {
		return 0, types.ErrInvalidStakeAmount
	}
	withdrawable := d.Balance - locked
	withdrawn := maxAmount
	if withdrawable < withdrawn {
		withdrawn = withdrawable
	}
	if withdrawn == 0 {
		return 0, types.ErrInvalidStakeAmount
	}

	d.Balance -= withdrawn
	store.PutDeposit(d)

	if stakePower > d.Balance {
		reduceStakePower(store, nvp, operator, owner, stakePower-d.Balance)
	}
	return withdrawn, nil
}

// StakeDeposit promotes up to maxAmount grays of (operator, owner)'s
// deposit balance into stake power (spec §4.5 StakeDeposit).
func StakeDeposit(store *Store, nvp *ValidatorSet, operator, owner types.Address, maxAmount uint64) (uint64, error) {
	key := DepositKey{Operator: operator, Owner: owner}
	d, ok := store.GetDeposit(key)
	if !ok {
		return 0, types.ErrDepositsNotExists
	}
	pool, ok := store.GetPool(operator)
	if !ok {
		return 0, types.ErrPoolNotExists
	}

	var currentPower uint64
	if s, _ := pool.stakeFor(owner, owner == operator); s != nil {
		currentPower = s.Power
	}
	if d.Balance <= currentPower {
		return 0, types.ErrInvalidStakeAmount
	}
	available := d.Balance - currentPower
	increment := maxAmount
	if available < increment {
		increment = available
	}
	if increment == 0 {
		return 0, types.ErrInvalidStakeAmount
	}
	if err := increaseStakePower(store, nvp, operator, owner, increment); err != nil {
		return 0, err
	}
	return increment, nil
}

// UnstakeDeposit demotes up to maxAmount grays of stake power back to
// unstaked deposit balance (spec §4.5 UnstakeDeposit).
func UnstakeDeposit(store *Store, nvp *ValidatorSet, operator, owner types.Address, maxAmount uint64) (uint64, error) {
	pool, ok := store.GetPool(operator)
	if !ok {
		return 0, types.ErrPoolNotExists
	}
	if s, _ := pool.stakeFor(owner, owner == operator); s == nil {
		return 0, types.ErrPoolHasNoStakes
	}
	return reduceStakePower(store, nvp, operator, owner, maxAmount)
}

// reduceStakePower is the shared algorithm behind UnstakeDeposit and
// WithdrawDeposit's stake cap (spec §4.5 "reduce_stake_power").
func reduceStakePower(store *Store, nvp *ValidatorSet, operator, owner types.Address, reduceBy uint64) (uint64, error) {
	pool, ok := store.GetPool(operator)
	if !ok {
		return 0, types.ErrPoolNotExists
	}
	isOperator := owner == operator
	stake, idx := pool.stakeFor(owner, isOperator)
	if stake == nil {
		return 0, types.ErrPoolHasNoStakes
	}

	var unstaked uint64
	if stake.Power <= reduceBy {
		unstaked = stake.Power
		if isOperator {
			pool.OperatorStake = nil
		} else {
			pool.removeDelegatedAt(idx)
		}
	} else {
		unstaked = reduceBy
		if isOperator {
			pool.OperatorStake.Power -= reduceBy
		} else {
			removed := pool.DelegatedStakes[idx]
			pool.removeDelegatedAt(idx)
			removed.Power -= reduceBy
			pool.insertSorted(removed)
		}
	}

	pool.recomputePower()
	if pool.Power == 0 {
		nvp.Remove(operator)
	} else {
		nvp.UpdateKey(operator, pool.Power)
	}
	store.PutPool(pool)
	store.SaveNVP(nvp)
	return unstaked, nil
}

// increaseStakePower is the shared algorithm behind StakeDeposit and
// crediting auto-staked rewards (spec §4.5 "increase_stake_power").
func increaseStakePower(store *Store, nvp *ValidatorSet, operator, owner types.Address, by uint64) error {
	pool, ok := store.GetPool(operator)
	if !ok {
		return types.ErrPoolNotExists
	}
	isOperator := owner == operator

	switch {
	case isOperator:
		if pool.OperatorStake == nil {
			pool.OperatorStake = &Stake{Owner: owner, Power: by}
		} else {
			pool.OperatorStake.Power = types.SaturatingAdd(pool.OperatorStake.Power, by)
		}
	default:
		if idx := pool.findDelegated(owner); idx >= 0 {
			existing := pool.DelegatedStakes[idx]
			pool.removeDelegatedAt(idx)
			existing.Power = types.SaturatingAdd(existing.Power, by)
			pool.insertSorted(existing)
		} else if len(pool.DelegatedStakes) >= MaxStakesPerPool {
			min, _ := pool.minDelegated()
			if by <= min.Power {
				return types.ErrInvalidStakeAmount
			}
			pool.removeDelegatedAt(0)
			pool.insertSorted(Stake{Owner: owner, Power: by})
		} else {
			pool.insertSorted(Stake{Owner: owner, Power: by})
		}
	}

	pool.recomputePower()
	if _, present := nvp.Power(operator); present {
		nvp.UpdateKey(operator, pool.Power)
	} else {
		nvp.Insert(operator, pool.Power)
	}
	store.PutPool(pool)
	store.SaveNVP(nvp)
	return nil
}

// computePoolReward prices one pool's epoch reward (spec §4.7 step 1).
// ANNUAL_YIELD_PCT is interpreted as a whole-number percentage (8 means
// 8% per year), an implementation choice since the concrete constant
// lives outside the retrieved original source.
func computePoolReward(power uint64, blocksProposed, blocksPerEpoch uint32) uint64 {
	if blocksPerEpoch == 0 || blocksProposed == 0 {
		return 0
	}
	reward := power * AnnualYieldPct / 100 / EpochsPerYear
	return reward * uint64(blocksProposed) / uint64(blocksPerEpoch)
}

// creditReward adds a reward share to (operator, owner)'s deposit and,
// if it auto-stakes rewards, promotes the same amount into stake power
// (spec §4.7 step 3). A recipient with no deposit on record (should not
// arise in practice, since only staked owners earn rewards) is skipped.
func creditReward(store *Store, nvp *ValidatorSet, operator, owner types.Address, amount uint64) {
	key := DepositKey{Operator: operator, Owner: owner}
	d, ok := store.GetDeposit(key)
	if !ok {
		return
	}
	d.Balance = types.SaturatingAdd(d.Balance, amount)
	store.PutDeposit(d)
	if d.AutoStakeRewards {
		increaseStakePower(store, nvp, operator, owner, amount)
	}
}

// RotateEpoch runs the full NextEpoch algorithm (spec §4.7): price and
// distribute rewards for the current committee, then rotate
// pvp<-vp<-top(nvp), returning the ValidatorChanges the caller attaches
// to the transaction's TransitionResult.
func RotateEpoch(store *Store, nvp *ValidatorSet, perf *types.ValidatorPerformance) *types.ValidatorChanges {
	vp := store.LoadVP()

	var blocksPerEpoch uint32
	var stats map[types.Address]uint32
	if perf != nil {
		blocksPerEpoch = perf.BlocksPerEpoch
		stats = perf.Stats
	}

	for _, pv := range vp {
		pool, ok := store.GetPool(pv.Operator)
		if !ok {
			// DeletePool does not cascade (spec §9): an orphaned
			// committee entry earns nothing.
			continue
		}
		reward := computePoolReward(pool.Power, stats[pv.Operator], blocksPerEpoch)
		if reward == 0 {
			continue
		}

		var operatorShare uint64
		if pool.OperatorStake != nil && pool.Power > 0 {
			operatorShare = reward * pool.OperatorStake.Power / pool.Power
		}
		delegatorShare := reward - operatorShare
		commission := delegatorShare * uint64(pool.CommissionRate) / 100
		delegatorShare -= commission
		operatorShare += commission

		if operatorShare > 0 {
			creditReward(store, nvp, pool.Operator, pool.Operator, operatorShare)
		}

		delegatedTotal := pool.Power
		if pool.OperatorStake != nil {
			delegatedTotal -= pool.OperatorStake.Power
		}
		if delegatedTotal > 0 {
			for _, s := range pool.DelegatedStakes {
				share := delegatorShare * s.Power / delegatedTotal
				if share > 0 {
					creditReward(store, nvp, pool.Operator, s.Owner, share)
				}
			}
		}
	}

	store.SavePVP(vp)
	newVP := Snapshot(nvp.Top(MaxValidatorSetSize))
	store.SaveVP(newVP)

	changes := &types.ValidatorChanges{Removed: removedSince(vp, newVP)}
	for _, e := range newVP {
		changes.NewCommittee = append(changes.NewCommittee, types.ValidatorPower{Address: e.Operator, Power: e.Power})
	}

	store.SetEpoch(store.CurrentEpoch() + 1)
	return changes
}

// removedSince returns the addresses present in oldVP but absent from
// newVP, in oldVP's order, for the ValidatorChanges.Removed list (spec
// §4.7 step 5).
func removedSince(oldVP, newVP Snapshot) []types.Address {
	var removed []types.Address
	for _, e := range oldVP {
		if !newVP.Contains(e.Operator) {
			removed = append(removed, e.Operator)
		}
	}
	return removed
}
