package pipeline

import (
	"github.com/parallelchain-io/pchain-runtime-sub000/codec"
	"github.com/parallelchain-io/pchain-runtime-sub000/exec"
	"github.com/parallelchain-io/pchain-runtime-sub000/gas"
	"github.com/parallelchain-io/pchain-runtime-sub000/log"
	"github.com/parallelchain-io/pchain-runtime-sub000/meter"
	"github.com/parallelchain-io/pchain-runtime-sub000/staking"
	"github.com/parallelchain-io/pchain-runtime-sub000/state"
	"github.com/parallelchain-io/pchain-runtime-sub000/types"
	"github.com/parallelchain-io/pchain-runtime-sub000/wasmhost"
)

var logger = log.Default().Module("pipeline")

// Params bundles the per-call configuration the pipeline needs beyond
// the world state and transaction themselves (spec §A "a plain Go
// struct passed by the caller").
type Params struct {
	Wasm     *wasmhost.WasmHost
	Schedule gas.Version
}

// nonIncludable builds the TransitionResult for a non-includable error
// (spec §7): no receipts, world state left untouched because the
// caller never committed the cache that produced it.
func nonIncludable(e types.TransitionError) types.TransitionResult {
	err := e
	return types.TransitionResult{Error: &err}
}

// Run executes tx against mpt under block, implementing the full
// pre-charge -> work-loop -> charge pipeline (spec §4.4), or the
// NextEpoch special case if tx consists solely of that command.
func Run(mpt state.MPTHandle, tx *types.Transaction, block *types.BlockParameters, params Params) types.TransitionResult {
	if len(tx.Commands) == 0 {
		return nonIncludable(types.ErrInvalidCommands)
	}
	if hasNextEpoch(tx.Commands) {
		return runNextEpoch(mpt, tx, block)
	}

	cache := state.NewWorldStateCache(mpt)
	m := meter.NewGasMeter(cache, tx.GasLimit)

	if err := preCharge(m, tx, params.Schedule); err != nil {
		logger.Warn("transaction non-includable", "signer", tx.Signer, "error", err)
		return nonIncludable(*err)
	}

	tc := NewTransitionContext(m)
	nvp := staking.NewStore(exec.NewStakingStorage(m)).LoadNVP()

	receipts, halted := runWorkLoop(m, tc, tx, block, nvp, params)

	charge(m, tx, block)
	if err := cache.Commit(); err != nil {
		logger.Error("world state commit failed", "error", err)
	}

	result := types.TransitionResult{Receipts: receipts}
	if halted {
		logger.Warn("transaction halted mid-queue", "signer", tx.Signer)
	}
	return result
}

func hasNextEpoch(cmds []types.Command) bool {
	for _, c := range cmds {
		if c.Kind == types.CmdNextEpoch {
			return true
		}
	}
	return false
}

// preCharge implements spec §4.4's pre-charge phase: nonce check,
// conservative balance bound, inclusion-cost floor, eager gas-limit
// debit, and the inclusion charge itself. A non-nil return means the
// transaction is non-includable; the caller must discard cache
// without committing it.
func preCharge(m *meter.GasMeter, tx *types.Transaction, schedule gas.Version) *types.TransitionError {
	nonce, ok := exec.GetNonce(m, tx.Signer)
	if !ok {
		err := types.ErrPreExecutionGasExhausted
		return &err
	}
	if nonce != tx.Nonce {
		err := types.ErrWrongNonce
		return &err
	}

	balance, ok := exec.GetBalance(m, tx.Signer)
	if !ok {
		err := types.ErrPreExecutionGasExhausted
		return &err
	}

	transferTotal := sumTransferAmounts(tx.Commands)
	upperBound := gas.SafeAdd(gas.SafeMul(tx.GasLimit, tx.MaxBaseFeePerGas), transferTotal)
	if balance < upperBound {
		err := types.ErrNotEnoughBalanceForGasLimit
		return &err
	}

	inclusion := gas.InclusionCost(len(codec.EncodeTransaction(tx)), gas.MinimumReceiptListSize(commandKinds(tx.Commands), schedule))
	if tx.GasLimit < inclusion {
		err := types.ErrPreExecutionGasExhausted
		return &err
	}

	if !exec.SetBalance(m, tx.Signer, balance-gas.SafeMul(tx.GasLimit, tx.MaxBaseFeePerGas)) {
		err := types.ErrPreExecutionGasExhausted
		return &err
	}
	if m.Charge(inclusion) == meter.ChargeExhausted {
		err := types.ErrPreExecutionGasExhausted
		return &err
	}
	return nil
}

func sumTransferAmounts(cmds []types.Command) uint64 {
	var total uint64
	for _, c := range cmds {
		switch c.Kind {
		case types.CmdTransfer:
			total = gas.SafeAdd(total, c.Transfer.Amount)
		case types.CmdCall:
			if c.Call.Amount != nil {
				total = gas.SafeAdd(total, *c.Call.Amount)
			}
		case types.CmdCreateDeposit:
			total = gas.SafeAdd(total, c.CreateDeposit.Balance)
		case types.CmdTopUpDeposit:
			total = gas.SafeAdd(total, c.TopUpDeposit.Amount)
		}
	}
	return total
}

func commandKinds(cmds []types.Command) []types.CommandKind {
	kinds := make([]types.CommandKind, len(cmds))
	for i, c := range cmds {
		kinds[i] = c.Kind
	}
	return kinds
}

// runWorkLoop drains the task queue seeded with tx's commands, pushing
// any deferred tasks a command queues to the front of the queue (in the
// order they were queued, ahead of the next top-level command), and
// merging every dispatched receipt into its originating task's
// accumulator (spec §4.4 steps 1-3). Cross-contract "child" calls never
// appear in this queue: Context.Call runs them synchronously, matching
// spec §4.4's "child tasks run immediately".
func runWorkLoop(m *meter.GasMeter, tc *TransitionContext, tx *types.Transaction, block *types.BlockParameters, nvp *staking.ValidatorSet, params Params) ([]types.CommandReceipt, bool) {
	accs := make([]*taskAccumulator, len(tx.Commands))
	for i, c := range tx.Commands {
		accs[i] = newTaskAccumulator(c.Kind)
	}

	queue := make([]queueItem, len(tx.Commands))
	for i, c := range tx.Commands {
		queue[i] = queueItem{taskID: i, cmd: c, actingAccount: tx.Signer}
	}

	halted := false
	for len(queue) > 0 {
		item := queue[0]
		queue = queue[1:]

		ctx := exec.NewTopLevelContext(m, params.Wasm, tx, block, tc, item.actingAccount, 0, "", nil).WithBorrow(tc)

		snap := m.Snapshot()

		tc.Lock()
		receipt := exec.Dispatch(ctx, item.cmd, nvp)
		tc.Unlock()

		deferred := tc.drainDeferred()

		if receipt.ExitStatus != types.ExitSuccess {
			// Spec §7: an includable failure rolls back every in-transaction
			// write the command made, except the fee settlement, which the
			// charge phase applies afterward from gas already tracked on m
			// independently of the reverted WorldStateCache journal. Any
			// deferred tasks the failed command queued belong to its
			// reverted execution and must not run.
			m.RevertToSnapshot(snap)
			deferred = nil
		}

		accs[item.taskID].merge(receipt)

		if len(deferred) > 0 {
			front := make([]queueItem, 0, len(deferred)+len(queue))
			for _, d := range deferred {
				front = append(front, queueItem{taskID: item.taskID, cmd: d.cmd, actingAccount: d.actingAccount})
			}
			queue = append(front, queue...)
		}

		if receipt.ExitStatus != types.ExitSuccess {
			halted = true
			break
		}
	}

	receipts := make([]types.CommandReceipt, len(accs))
	for i, a := range accs {
		receipts[i] = a.toReceipt()
	}
	return receipts, halted
}

// charge implements spec §4.4's charge phase: refund-capped actual gas
// used, unused-gas credit back to the signer, and the base-fee/priority-
// fee split between treasury and proposer.
func charge(m *meter.GasMeter, tx *types.Transaction, block *types.BlockParameters) {
	consumed := m.Consumed()
	cappedRefund := m.RefundAccumulated()
	if half := consumed / 2; cappedRefund > half {
		cappedRefund = half
	}
	actualGasUsed := consumed - cappedRefund

	unusedGas := tx.GasLimit - actualGasUsed
	unusedRefund := gas.SafeMul(unusedGas, tx.MaxBaseFeePerGas)
	if balance, ok := exec.GetBalance(m, tx.Signer); ok {
		exec.SetBalance(m, tx.Signer, types.SaturatingAdd(balance, unusedRefund))
	}

	baseFeeTotal := gas.SafeMul(actualGasUsed, block.BaseFeePerGas)
	treasuryShare := baseFeeTotal * gas.TreasuryCutOfBaseFee / gas.TotalBaseFee
	proposerShare := gas.SafeAdd(gas.SafeMul(actualGasUsed, tx.PriorityFeePerGas), baseFeeTotal-treasuryShare)

	if tBal, ok := exec.GetBalance(m, block.TreasuryAddress); ok {
		exec.SetBalance(m, block.TreasuryAddress, types.SaturatingAdd(tBal, treasuryShare))
	}
	if pBal, ok := exec.GetBalance(m, block.ProposerAddress); ok {
		exec.SetBalance(m, block.ProposerAddress, types.SaturatingAdd(pBal, proposerShare))
	}

	nonce, _ := exec.GetNonce(m, tx.Signer)
	exec.SetNonce(m, tx.Signer, nonce+1)
}

// runNextEpoch implements spec §4.4's NextEpoch special case: it must
// be the sole command in its transaction, bypasses the three-phase gas
// model entirely, and emits a synthetic zero-gas Success receipt.
func runNextEpoch(mpt state.MPTHandle, tx *types.Transaction, block *types.BlockParameters) types.TransitionResult {
	if len(tx.Commands) != 1 || tx.Commands[0].Kind != types.CmdNextEpoch {
		return nonIncludable(types.ErrInvalidNextEpochCommand)
	}

	cache := state.NewWorldStateCache(mpt)
	m := meter.NewGasMeter(cache, ^uint64(0))

	nonce, ok := exec.GetNonce(m, tx.Signer)
	if !ok || nonce != tx.Nonce {
		return nonIncludable(types.ErrWrongNonce)
	}

	store := staking.NewStore(exec.NewStakingStorage(m))
	nvp := store.LoadNVP()
	changes := staking.RotateEpoch(store, nvp, block.ValidatorPerformance)

	exec.SetNonce(m, tx.Signer, tx.Nonce+1)

	if err := cache.Commit(); err != nil {
		logger.Error("world state commit failed", "error", err)
	}

	logger.Debug("epoch rotated", "new_committee_size", len(changes.NewCommittee), "removed", len(changes.Removed))

	return types.TransitionResult{
		Receipts: []types.CommandReceipt{{Kind: types.CmdNextEpoch, ExitStatus: types.ExitSuccess}},
		Changes:  changes,
	}
}
