// Package pipeline orchestrates one Transition call: pre-charge, the
// command task queue's work loop, and the charge phase (spec §4.4),
// grounded on _examples/original_source/src/execution/execute.rs for
// the three-phase shape and on the teacher's StateProcessor-style
// "apply one transaction against one state, producing one receipt"
// entry point for how a single top-level orchestration function reads.
package pipeline

import (
	"sync"

	"github.com/parallelchain-io/pchain-runtime-sub000/meter"
	"github.com/parallelchain-io/pchain-runtime-sub000/types"
)

// deferredTask is one staking/deposit command a contract queued via a
// defer_* host function, scoped to the contract address that queued it
// (spec §4.6).
type deferredTask struct {
	actingAccount types.Address
	cmd           types.Command
}

// TransitionContext holds the GasMeter and the deferred-command queue
// for one transaction (spec §2), and doubles as the exclusive lock
// (exec.Context.Borrow) that runWorkLoop holds around each command's
// dispatch (spec §9 "single-owner with temporary exclusive borrow");
// host-function calls do not acquire it themselves. The lock is never
// contended in a single-threaded pipeline, but must exist so that
// Context.Call can release it before re-entering the WASM runtime and
// re-acquire it on return.
type TransitionContext struct {
	Meter *meter.GasMeter

	mu       sync.Mutex
	deferred []deferredTask
}

// NewTransitionContext builds the per-transaction context around m.
func NewTransitionContext(m *meter.GasMeter) *TransitionContext {
	return &TransitionContext{Meter: m}
}

// Defer implements exec.DeferredQueue: a contract's defer_* host
// function appends a staking/deposit command here, to be run after the
// enqueueing command's receipt is finalised but before the next
// top-level command (spec §4.4, §4.6).
func (tc *TransitionContext) Defer(actingAccount types.Address, cmd types.Command) {
	tc.deferred = append(tc.deferred, deferredTask{actingAccount: actingAccount, cmd: cmd})
}

// drainDeferred removes and returns every deferred task queued since
// the last drain.
func (tc *TransitionContext) drainDeferred() []deferredTask {
	d := tc.deferred
	tc.deferred = nil
	return d
}

// Lock and Unlock satisfy sync.Locker, so a TransitionContext can be
// handed directly to exec.Context.Borrow.
func (tc *TransitionContext) Lock()   { tc.mu.Lock() }
func (tc *TransitionContext) Unlock() { tc.mu.Unlock() }
