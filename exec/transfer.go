package exec

import (
	"github.com/parallelchain-io/pchain-runtime-sub000/meter"
	"github.com/parallelchain-io/pchain-runtime-sub000/types"
)

// Transfer debits amount from from and credits it to to, both charged
// through m. ok is false on gas exhaustion (the caller must abort);
// success is false when from's balance is insufficient, in which case
// no state is mutated (spec §4.5 Transfer "a value move is atomic: the
// debit only happens if it cannot underflow").
func Transfer(m *meter.GasMeter, from, to types.Address, amount uint64) (ok bool, success bool) {
	if amount == 0 {
		return true, true
	}

	fromBalance, ok := GetBalance(m, from)
	if !ok {
		return false, false
	}
	newFromBalance, underflowOk := types.CheckedSub(fromBalance, amount)
	if !underflowOk {
		return true, false
	}

	toBalance, ok := GetBalance(m, to)
	if !ok {
		return false, false
	}
	newToBalance := types.SaturatingAdd(toBalance, amount)

	if !SetBalance(m, from, newFromBalance) {
		return false, false
	}
	if !SetBalance(m, to, newToBalance) {
		return false, false
	}
	return true, true
}
