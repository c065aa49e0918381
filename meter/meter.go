package meter

import (
	"github.com/parallelchain-io/pchain-runtime-sub000/gas"
	"github.com/parallelchain-io/pchain-runtime-sub000/state"
	"github.com/parallelchain-io/pchain-runtime-sub000/types"
)

// ChargeResult reports whether a charge succeeded or exhausted the
// meter's remaining gas (spec §4.3).
type ChargeResult uint8

const (
	ChargeOk ChargeResult = iota
	ChargeExhausted
)

// GasMeter composes a state.WorldStateCache and a CommandOutputBuffer.
// It tracks wasm_gas_remaining (the WASM interpreter draws on it
// through the host's ChargeWasmGas, which calls Charge), non_wasm_gas_charged, read_gas, and
// write_gas, and guarantees every operation charges before its effect
// becomes visible: if a charge exhausts the meter, the underlying
// state change is never applied.
type GasMeter struct {
	world *state.WorldStateCache
	out   *CommandOutputBuffer

	limit     uint64
	remaining uint64

	chargedSinceReset uint64
	readGas           uint64
	writeGas          uint64
	refundAccumulated uint64
}

// NewGasMeter returns a meter with limit gas available, backed by
// world. limit is the gas budget of the whole transaction the pipeline
// assigns (tx.GasLimit), shared by all of its commands (spec §4.4).
func NewGasMeter(world *state.WorldStateCache, limit uint64) *GasMeter {
	return &GasMeter{
		world:     world,
		out:       newCommandOutputBuffer(),
		limit:     limit,
		remaining: limit,
	}
}

// Charge deducts amount from the remaining budget. All chargeable
// operations in this package flow through here.
func (m *GasMeter) Charge(amount uint64) ChargeResult {
	if amount > m.remaining {
		m.remaining = 0
		return ChargeExhausted
	}
	m.remaining -= amount
	m.chargedSinceReset = gas.SafeAdd(m.chargedSinceReset, amount)
	return ChargeOk
}

// Remaining reports the gas left in the budget.
func (m *GasMeter) Remaining() uint64 { return m.remaining }

// Consumed reports the gas spent so far.
func (m *GasMeter) Consumed() uint64 { return m.limit - m.remaining }

// RefundAccumulated reports the total refund earned over the whole
// transaction so far (never reset by ExtractReceipt, unlike the other
// per-command counters), applied by the pipeline's charge phase (spec
// §4.4), not by the meter itself.
func (m *GasMeter) RefundAccumulated() uint64 { return m.refundAccumulated }

// ReadStorage performs a WorldStateCache read, charging its cost
// before returning the value.
func (m *GasMeter) ReadStorage(key []byte, isContractCode bool) (value []byte, found bool, result ChargeResult) {
	v, ok, change := m.world.Get(key, isContractCode)
	if m.Charge(change.Charge) == ChargeExhausted {
		return nil, false, ChargeExhausted
	}
	m.readGas = gas.SafeAdd(m.readGas, change.Charge)
	return v, ok, ChargeOk
}

// WriteStorage writes value at key, charging the read (to learn the
// old value) and write cost up front; the mutation is only applied to
// the world state if both charges succeed, preserving the
// charge-before-effect ordering (spec §4.3).
func (m *GasMeter) WriteStorage(key, value []byte, isContractCode bool) ChargeResult {
	oldValue, hadOld, readChange := m.world.Get(key, isContractCode)
	if m.Charge(readChange.Charge) == ChargeExhausted {
		return ChargeExhausted
	}

	oldLen := 0
	if hadOld {
		oldLen = len(oldValue)
	}
	newLen := 0
	if value != nil {
		newLen = len(value)
	}
	writeCharge, _ := gas.StorageWriteCost(len(key), oldLen, newLen)
	if m.Charge(writeCharge) == ChargeExhausted {
		return ChargeExhausted
	}

	m.readGas = gas.SafeAdd(m.readGas, readChange.Charge)
	m.writeGas = gas.SafeAdd(m.writeGas, writeCharge)

	change := m.world.Set(key, value, isContractCode)
	m.refundAccumulated = gas.SafeAdd(m.refundAccumulated, change.Refund)
	return ChargeOk
}

// Snapshot marks a point in the underlying WorldStateCache's journal
// that RevertToSnapshot can later unwind to, used around cross-contract
// call reentry (spec §4.6, §5 "the child shares the same
// WorldStateCache ... failure semantics are achieved by tracking which
// entries were first-written by the child and reverting just those").
func (m *GasMeter) Snapshot() int {
	return m.world.Snapshot()
}

// RevertToSnapshot undoes every world-state write made since id was
// taken, without touching gas already charged: a failed child call's
// writes are discarded but its gas consumption still counts against
// the parent (spec §4.6 "charges the child's consumed gas to the
// parent's meter").
func (m *GasMeter) RevertToSnapshot(id int) {
	m.world.RevertToSnapshot(id)
}

// WriteLog charges and records a log entry emitted by the executing
// command.
func (m *GasMeter) WriteLog(topic, value []byte) ChargeResult {
	cost := gas.BlockchainWriteCost(len(topic) + len(value))
	if m.Charge(cost) == ChargeExhausted {
		return ChargeExhausted
	}
	m.out.appendLog(topic, value)
	return ChargeOk
}

// WriteReturnValue charges and records the command's return value.
func (m *GasMeter) WriteReturnValue(value []byte) ChargeResult {
	cost := gas.BlockchainWriteCost(len(value))
	if m.Charge(cost) == ChargeExhausted {
		return ChargeExhausted
	}
	m.out.setReturnValue(value)
	return ChargeOk
}

// ReadBytesWasm charges for a WASM linear-memory read of n bytes.
func (m *GasMeter) ReadBytesWasm(n int) ChargeResult {
	return m.Charge(gas.WasmBytesCost(n))
}

// WriteBytesWasm charges for a WASM linear-memory write of n bytes.
func (m *GasMeter) WriteBytesWasm(n int) ChargeResult {
	return m.Charge(gas.WasmBytesCost(n))
}

// ExtractReceipt drains the output buffer into a CommandReceipt and
// resets per-command counters, ready for the next command in the same
// transaction (spec §3 Lifecycles).
func (m *GasMeter) ExtractReceipt(kind types.CommandKind, exitStatus types.ExitStatus) types.CommandReceipt {
	r := types.CommandReceipt{
		Kind:        kind,
		ExitStatus:  exitStatus,
		GasUsed:     m.chargedSinceReset,
		ReturnValue: m.out.returnValue,
		Logs:        m.out.logs,
	}
	m.out.reset()
	m.chargedSinceReset = 0
	m.readGas = 0
	m.writeGas = 0
	return r
}
