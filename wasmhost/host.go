package wasmhost

import "github.com/parallelchain-io/pchain-runtime-sub000/types"

// WasmHost compiles and executes contract bytecode on behalf of the
// exec package. It owns the ModuleCache so repeated calls against the
// same deployed contract within a block reuse the parsed Module.
type WasmHost struct {
	cache *ModuleCache
}

func NewWasmHost(cache *ModuleCache) *WasmHost {
	return &WasmHost{cache: cache}
}

// Deploy parses and validates code, installing it in the cache under
// its content hash, and returns that hash for the caller to persist as
// the account's contract code reference.
func (h *WasmHost) Deploy(code []byte) (types.Hash32, error) {
	m, err := Parse(code)
	if err != nil {
		return types.Hash32{}, err
	}
	if err := h.cache.Put(m); err != nil {
		return types.Hash32{}, err
	}
	return m.Hash, nil
}

// Execute runs method on the contract addressed by hash (whose source
// bytecode is code — only needed on a genuine cache miss) against
// host, returning the contract's declared return value.
//
// Reentrancy: a cross-contract Call made from within host.Call takes
// an independent WasmHost.Execute invocation on a fresh execState; the
// only shared mutable resource is the WorldStateCache/GasMeter pair
// reachable through host, which exec.Context guards
// with its own exclusive-borrow discipline (spec §9) rather than this
// package taking any lock of its own.
func (h *WasmHost) Execute(hash types.Hash32, code []byte, host HostContext, method string, args []byte) ([]byte, error) {
	m, err := h.cache.Get(hash, code)
	if err != nil {
		return nil, err
	}
	return Run(m, host, method, args)
}
