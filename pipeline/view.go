package pipeline

import (
	"github.com/parallelchain-io/pchain-runtime-sub000/exec"
	"github.com/parallelchain-io/pchain-runtime-sub000/meter"
	"github.com/parallelchain-io/pchain-runtime-sub000/state"
	"github.com/parallelchain-io/pchain-runtime-sub000/types"
	"github.com/parallelchain-io/pchain-runtime-sub000/wasmhost"
)

// View implements the read-only entry point of spec §6: it never
// commits the cache it builds over mpt, and runs target's method under
// the view-mode importable (spec §4.6) that stubs every mutating host
// function.
func View(mpt state.MPTHandle, gasLimit uint64, wasm *wasmhost.WasmHost, target types.Address, method string, arguments [][]byte) types.CommandReceipt {
	cache := state.NewWorldStateCache(mpt)
	defer cache.Revert()

	m := meter.NewGasMeter(cache, gasLimit)

	code, found, ok := exec.GetContractCode(m, target)
	if !ok {
		return m.ExtractReceipt(types.CmdCall, types.ExitGasExhausted)
	}
	if !found {
		return exitWithError(m, types.ErrNoContractCode)
	}

	mod, err := wasmhost.Parse(code)
	if err != nil {
		return exitWithError(m, types.ErrCannotCompile)
	}

	ctx := exec.NewViewContext(m, wasm, target, method, arguments)
	ret, err := wasm.Execute(mod.Hash, code, ctx, exec.Entrypoint, nil)
	if err != nil {
		status := exec.StatusFor(err)
		if status == types.ExitSuccess {
			status = types.ExitFailed
		}
		r := m.ExtractReceipt(types.CmdCall, status)
		return r
	}
	if ret != nil {
		m.WriteReturnValue(ret)
	}
	return m.ExtractReceipt(types.CmdCall, types.ExitSuccess)
}

func exitWithError(m *meter.GasMeter, e types.TransitionError) types.CommandReceipt {
	return m.ExtractReceipt(types.CmdCall, e.ToExitStatus())
}
