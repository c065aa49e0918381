// Package runtime is the engine's external interface (spec §6):
// Transition() and View() are the only two entry points a caller (block
// production, a view-call RPC handler, a test harness) ever needs. Both
// are plain functions over caller-supplied world state and parameters —
// there is no CLI, no environment variable, no network endpoint, and no
// process-wide singleton besides the compiled-module cache the caller
// constructs and injects via wasmhost.NewModuleCache/NewWasmHost.
package runtime

import (
	"github.com/parallelchain-io/pchain-runtime-sub000/gas"
	"github.com/parallelchain-io/pchain-runtime-sub000/pipeline"
	"github.com/parallelchain-io/pchain-runtime-sub000/state"
	"github.com/parallelchain-io/pchain-runtime-sub000/types"
	"github.com/parallelchain-io/pchain-runtime-sub000/wasmhost"
)

// Transition runs tx against world under block, returning the outcome
// (spec §6). On success or includable failure, world is mutated
// in-place with every committed write; on a non-includable error it is
// left untouched. wasm supplies the compiled-module cache shared
// across the caller's transactions (spec §4.6, §5 "read-mostly,
// writes serialised through a reader-writer lock").
func Transition(world state.MPTHandle, tx *types.Transaction, block *types.BlockParameters, wasm *wasmhost.WasmHost) types.TransitionResult {
	return pipeline.Run(world, tx, block, pipeline.Params{Wasm: wasm, Schedule: gas.V2})
}

// View runs a read-only invocation of target's method, never mutating
// world (spec §6).
func View(world state.MPTHandle, gasLimit uint64, wasm *wasmhost.WasmHost, target types.Address, method string, arguments [][]byte) types.CommandReceipt {
	return pipeline.View(world, gasLimit, wasm, target, method, arguments)
}
