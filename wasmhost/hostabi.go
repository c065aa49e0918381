package wasmhost

import "github.com/parallelchain-io/pchain-runtime-sub000/types"

// HostContext is everything a running contract can observe or mutate
// through the host-function ABI (spec §4.6). exec.Context
// implements this by delegating to the GasMeter, WorldStateCache, and
// the command/transaction/block parameters in scope.
type HostContext interface {
	// Storage.
	Get(key []byte) ([]byte, bool)
	Set(key, value []byte)
	GetNetworkStorage(key []byte) ([]byte, bool)

	// Context accessors.
	Balance(addr types.Address) uint64
	BlockHeight() uint64
	BlockTimestamp() uint32
	PrevBlockHash() types.Hash32
	CallingAccount() types.Address
	CurrentAccount() types.Address
	Method() string
	Arguments() [][]byte
	Amount() uint64
	IsInternalCall() bool
	TransactionHash() types.Hash32

	// Cross-contract call and value transfer.
	Call(target types.Address, method string, args [][]byte, amount *uint64) ([]byte, error)
	Transfer(target types.Address, amount uint64) error

	// Output.
	ReturnValue(v []byte)
	Log(topic, value []byte)

	// Deferred staking/deposit commands a contract queues for the
	// pipeline to run after this command (spec §4.4).
	DeferCommand(cmd types.Command)

	// Crypto.
	Sha256(msg []byte) [32]byte
	Keccak256(msg []byte) [32]byte
	Ripemd160(msg []byte) [20]byte
	VerifyEd25519(pub, msg, sig []byte) bool

	// Metering.
	ChargeWasmGas(amount uint64) bool

	// ViewMode reports whether this execution is a read-only view
	// call (spec §6): mutating host functions are stubbed out rather
	// than performed.
	ViewMode() bool
}

// viewModeMutationError is returned by mutating host functions when
// called under ViewMode, standing in for the stub substitution spec
// §6 requires: the call performs no effect, and the error aborts the
// contract's execution rather than returning control to it.
type viewModeMutationError struct{ fn string }

func (e *viewModeMutationError) Error() string {
	return "wasmhost: " + e.fn + " is unavailable in view mode"
}
