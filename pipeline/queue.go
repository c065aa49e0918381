package pipeline

import "github.com/parallelchain-io/pchain-runtime-sub000/types"

// queueItem is one unit of work in the task queue (spec §4.4): a
// command to dispatch, which top-level command's receipt it belongs to
// (taskID), and which account it executes as (the signer for a
// top-level command, or the deferring contract's address for a
// deferred command).
type queueItem struct {
	taskID        int
	cmd           types.Command
	actingAccount types.Address
}

// taskAccumulator merges every CommandReceipt dispatched under one
// task_id (a top-level command plus any deferred tasks it queued) into
// the single CommandReceipt that command contributes to the
// transaction's receipt list (spec §4.4 step 2): gas is summed, the
// most recent exit_status wins, and logs/return-value concatenate in
// dispatch order.
type taskAccumulator struct {
	kind        types.CommandKind
	touched     bool
	gasUsed     uint64
	exitStatus  types.ExitStatus
	returnValue []byte
	logs        []types.LogEntry

	amountWithdrawn uint64
	amountStaked    uint64
	amountUnstaked  uint64
}

func newTaskAccumulator(kind types.CommandKind) *taskAccumulator {
	return &taskAccumulator{kind: kind}
}

func (a *taskAccumulator) merge(r types.CommandReceipt) {
	a.touched = true
	a.gasUsed += r.GasUsed
	a.exitStatus = r.ExitStatus
	if len(r.ReturnValue) > 0 {
		a.returnValue = append(a.returnValue[:len(a.returnValue):len(a.returnValue)], r.ReturnValue...)
	}
	a.logs = append(a.logs, r.Logs...)
	a.amountWithdrawn += r.AmountWithdrawn
	a.amountStaked += r.AmountStaked
	a.amountUnstaked += r.AmountUnstaked
}

func (a *taskAccumulator) toReceipt() types.CommandReceipt {
	if !a.touched {
		return types.CommandReceipt{Kind: a.kind, ExitStatus: types.ExitNotExecuted}
	}
	return types.CommandReceipt{
		Kind:            a.kind,
		ExitStatus:      a.exitStatus,
		GasUsed:         a.gasUsed,
		ReturnValue:     a.returnValue,
		Logs:            a.logs,
		AmountWithdrawn: a.amountWithdrawn,
		AmountStaked:    a.amountStaked,
		AmountUnstaked:  a.amountUnstaked,
	}
}
