package exec

import (
	"errors"
	"sync"

	"github.com/parallelchain-io/pchain-runtime-sub000/meter"
	"github.com/parallelchain-io/pchain-runtime-sub000/types"
	"github.com/parallelchain-io/pchain-runtime-sub000/wasmhost"
)

// ErrCallDepthExceeded bounds cross-contract call reentry (spec §4.6
// "Call depth is tracked via a counter").
var ErrCallDepthExceeded = errors.New("exec: cross-contract call depth exceeded")

// MaxCallDepth is the deepest a chain of cross-contract Call host
// function invocations may nest.
const MaxCallDepth = 16

// DeferredQueue is the narrow interface a contract's defer_* host
// functions append to. pipeline.TransitionContext implements this by
// appending to the transaction's deferred-task queue (spec §4.4, §4.6).
// actingAccount is the contract that called defer_*, since a deferred
// staking/deposit command is "scoped to current contract address"
// (spec §4.6) rather than to the transaction's signer.
type DeferredQueue interface {
	Defer(actingAccount types.Address, cmd types.Command)
}

// Context is the environment one running command (and any contracts
// it invokes) executes against: the gas meter, the wasm host, the
// transaction/block parameters in scope, and the call-frame state a
// contract observes through the host-function ABI. It implements
// wasmhost.HostContext directly, and is cloned-with-overrides
// (child) for each nested cross-contract call (spec §9
// "single-owner with temporary exclusive borrow" — there is only ever
// one GasMeter/WorldStateCache in play; each frame just changes which
// account is "current").
type Context struct {
	Meter    *meter.GasMeter
	Wasm     *wasmhost.WasmHost
	Tx       *types.Transaction
	Block    *types.BlockParameters
	Deferred DeferredQueue
	View     bool

	current   types.Address
	calling   types.Address
	method    string
	arguments [][]byte
	amount    uint64
	internal  bool
	invoked   bool
	depth     int

	// Borrow is the pipeline's TransitionContext exclusive lock (spec §9
	// "single-owner with temporary exclusive borrow"). It is nil in
	// tests that construct a Context directly. The pipeline holds it for
	// the whole of a command's dispatch; Call releases it before
	// re-entering the WASM runtime and re-acquires it on return.
	// Host-function calls do not acquire it themselves.
	Borrow sync.Locker
}

// WithBorrow attaches the pipeline's exclusive lock to an already
// constructed Context and returns it for chaining.
func (c *Context) WithBorrow(l sync.Locker) *Context {
	c.Borrow = l
	return c
}

var _ wasmhost.HostContext = (*Context)(nil)

// NewTopLevelContext builds the Context for a transaction's outermost
// command (depth 0, IsInternalCall()==false).
func NewTopLevelContext(m *meter.GasMeter, wasm *wasmhost.WasmHost, tx *types.Transaction, block *types.BlockParameters, deferred DeferredQueue, current types.Address, amount uint64, method string, args [][]byte) *Context {
	return &Context{
		Meter:     m,
		Wasm:      wasm,
		Tx:        tx,
		Block:     block,
		Deferred:  deferred,
		current:   current,
		calling:   tx.Signer,
		method:    method,
		arguments: args,
		amount:    amount,
	}
}

// NewViewContext builds the Context for a read-only view call (spec §6).
func NewViewContext(m *meter.GasMeter, wasm *wasmhost.WasmHost, current types.Address, method string, args [][]byte) *Context {
	return &Context{
		Meter:   m,
		Wasm:    wasm,
		View:    true,
		current: current,
		method:  method,
		arguments: args,
	}
}

// child builds the callee's Context. internal is derived from whether c
// itself is already a contract invocation (c.invoked): the pipeline's
// top-level dispatch hands execCall a pristine, never-invoked Context,
// so the first hop into a contract reports IsInternalCall()==false
// (spec §4.6 "0 for top-level"); any further hop — a contract calling
// another contract via the `call` host function — starts from an
// already-invoked Context and so reports true ("nonzero for
// cross-contract").
func (c *Context) child(target types.Address, method string, args [][]byte, amount uint64) *Context {
	child := *c
	child.calling = c.current
	child.current = target
	child.method = method
	child.arguments = args
	child.amount = amount
	child.internal = c.invoked
	child.invoked = true
	child.depth = c.depth + 1
	return &child
}

// --- wasmhost.HostContext ---

func (c *Context) Get(key []byte) ([]byte, bool) {
	v, found, _ := GetContractStorage(c.Meter, c.current, key)
	return v, found
}

func (c *Context) Set(key, value []byte) {
	SetContractStorage(c.Meter, c.current, key, value)
}

func (c *Context) GetNetworkStorage(key []byte) ([]byte, bool) {
	v, found, _ := GetContractStorage(c.Meter, types.NetworkAddress, key)
	return v, found
}

func (c *Context) Balance(addr types.Address) uint64 {
	bal, _ := GetBalance(c.Meter, addr)
	return bal
}

func (c *Context) BlockHeight() uint64 {
	if c.Block == nil {
		return 0
	}
	return c.Block.Height
}

func (c *Context) BlockTimestamp() uint32 {
	if c.Block == nil {
		return 0
	}
	return uint32(c.Block.Timestamp)
}

func (c *Context) PrevBlockHash() types.Hash32 {
	if c.Block == nil {
		return types.Hash32{}
	}
	return c.Block.PrevBlockHash
}

func (c *Context) CallingAccount() types.Address { return c.calling }
func (c *Context) CurrentAccount() types.Address { return c.current }
func (c *Context) Method() string                { return c.method }
func (c *Context) Arguments() [][]byte           { return c.arguments }
func (c *Context) Amount() uint64                { return c.amount }
func (c *Context) IsInternalCall() bool          { return c.internal }

func (c *Context) TransactionHash() types.Hash32 {
	if c.Tx == nil {
		return types.Hash32{}
	}
	return c.Tx.Hash
}

// Call implements the synchronous cross-contract call host function
// (spec §4.6). The child shares this Context's GasMeter/WorldStateCache
// — its writes are visible to the parent on return, matching "the
// child shares the same WorldStateCache" rather than snapshot-and-merge.
func (c *Context) Call(target types.Address, method string, args [][]byte, amount *uint64) ([]byte, error) {
	if c.View && amount != nil {
		// spec §9 open question: a view-mode call() supplying an
		// amount is rejected here as Internal, consistent with every
		// other mutating stub.
		return nil, errors.New("exec: view call may not transfer value")
	}
	if c.depth+1 >= MaxCallDepth {
		return nil, ErrCallDepthExceeded
	}

	var transferAmount uint64
	if amount != nil {
		transferAmount = *amount
		if err := c.Transfer(target, transferAmount); err != nil {
			return nil, err
		}
	}

	code, found, ok := GetContractCode(c.Meter, target)
	if !ok {
		return nil, c.gasExhaustedErr()
	}
	if !found {
		return nil, types.ErrNoContractCode
	}

	mod, err := wasmhost.Parse(code)
	if err != nil {
		return nil, err
	}

	// The child shares this Context's WorldStateCache rather than
	// snapshotting and merging (spec §5); on failure only its writes are
	// discarded, while the gas it already consumed still counts against
	// the parent.
	snap := c.Meter.Snapshot()
	child := c.child(target, method, args, transferAmount)

	// Release the exclusive borrow the pipeline took around this
	// command's dispatch before re-entering the WASM runtime, and
	// re-acquire it on return (spec §9, §4.6). The child's host-function
	// calls do not take the lock, so the child runs without holding it.
	if c.Borrow != nil {
		c.Borrow.Unlock()
	}
	ret, err := c.Wasm.Execute(mod.Hash, code, child, wasmEntrypoint, nil)
	if c.Borrow != nil {
		c.Borrow.Lock()
	}
	if err != nil {
		c.Meter.RevertToSnapshot(snap)
		return nil, err
	}
	return ret, nil
}

// Transfer implements the `transfer` host function: a value-only move
// from the current contract to target.
func (c *Context) Transfer(target types.Address, amount uint64) error {
	ok, success := Transfer(c.Meter, c.current, target, amount)
	if !ok {
		return c.gasExhaustedErr()
	}
	if !success {
		return types.ErrNotEnoughBalanceForTransfer
	}
	return nil
}

// gasExhaustedErr picks the internal-vs-top-level gas-exhaustion
// variant (spec §4.6 "errors raised inside a nested call are reported
// as their Internal counterpart") based on whether this frame is
// itself a cross-contract call target.
func (c *Context) gasExhaustedErr() types.TransitionError {
	if c.internal {
		return types.ErrInternalExecutionProperGasExhaustion
	}
	return types.ErrExecutionProperGasExhausted
}

func (c *Context) ReturnValue(v []byte) { c.Meter.WriteReturnValue(v) }
func (c *Context) Log(topic, value []byte) { c.Meter.WriteLog(topic, value) }

func (c *Context) DeferCommand(cmd types.Command) {
	if c.Deferred != nil {
		c.Deferred.Defer(c.current, cmd)
	}
}

func (c *Context) Sha256(msg []byte) [32]byte {
	h, _ := c.Meter.HashSha256(msg)
	return h
}

func (c *Context) Keccak256(msg []byte) [32]byte {
	h, _ := c.Meter.HashKeccak(msg)
	return h
}

func (c *Context) Ripemd160(msg []byte) [20]byte {
	h, _ := c.Meter.HashRipemd(msg)
	return h
}

func (c *Context) VerifyEd25519(pub, msg, sig []byte) bool {
	ok, _ := c.Meter.VerifyEd25519(pub, msg, sig)
	return ok
}

func (c *Context) ChargeWasmGas(amount uint64) bool {
	return c.Meter.Charge(amount) == meter.ChargeOk
}

func (c *Context) ViewMode() bool { return c.View }

// wasmEntrypoint is the single export name every deployed contract
// must expose (spec §4.5 Deploy: "Require the module to export a
// function named entrypoint"); method dispatch within a contract's own
// code happens by reading Method() back out through the host ABI.
const wasmEntrypoint = "entrypoint"

// Entrypoint exposes wasmEntrypoint to the pipeline package's view-call
// entry point (spec §6), which invokes a contract directly rather than
// through execCall.
const Entrypoint = wasmEntrypoint
