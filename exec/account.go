// Package exec implements one CommandExecutor per command variant
// (spec §4.5): Transfer, Deploy, Call, and the staking/deposit
// commands, dispatched from a closed switch rather than the source's
// generic-over-storage trait hierarchy (spec §9 "prefer a closed
// tagged union of command variants plus a dispatch function").
package exec

import (
	"encoding/binary"

	"github.com/parallelchain-io/pchain-runtime-sub000/meter"
	"github.com/parallelchain-io/pchain-runtime-sub000/state"
	"github.com/parallelchain-io/pchain-runtime-sub000/types"
)

// Account-level read/write helpers, layered over meter.GasMeter's raw
// byte-key storage surface so every balance/nonce/code touch charges
// storage gas the same way a contract's own storage access does (spec
// §4.2/§4.3). ok reports whether the meter still has budget; a false
// return means GasExhausted and the caller must abort the command.

func GetBalance(m *meter.GasMeter, addr types.Address) (balance uint64, ok bool) {
	v, found, res := m.ReadStorage(state.BalanceKey(addr), false)
	if res == meter.ChargeExhausted {
		return 0, false
	}
	if !found {
		return 0, true
	}
	return decodeUint64(v), true
}

func SetBalance(m *meter.GasMeter, addr types.Address, balance uint64) bool {
	return m.WriteStorage(state.BalanceKey(addr), encodeUint64(balance), false) == meter.ChargeOk
}

func GetNonce(m *meter.GasMeter, addr types.Address) (nonce uint64, ok bool) {
	v, found, res := m.ReadStorage(state.NonceKey(addr), false)
	if res == meter.ChargeExhausted {
		return 0, false
	}
	if !found {
		return 0, true
	}
	return decodeUint64(v), true
}

func SetNonce(m *meter.GasMeter, addr types.Address, nonce uint64) bool {
	return m.WriteStorage(state.NonceKey(addr), encodeUint64(nonce), false) == meter.ChargeOk
}

func GetContractCode(m *meter.GasMeter, addr types.Address) (code []byte, found bool, ok bool) {
	v, found, res := m.ReadStorage(state.ContractCodeKey(addr), true)
	if res == meter.ChargeExhausted {
		return nil, false, false
	}
	return v, found, true
}

func SetContractCode(m *meter.GasMeter, addr types.Address, code []byte) bool {
	return m.WriteStorage(state.ContractCodeKey(addr), code, true) == meter.ChargeOk
}

func GetCbiVersion(m *meter.GasMeter, addr types.Address) (version uint32, found bool, ok bool) {
	v, found, res := m.ReadStorage(state.CbiVersionKey(addr), false)
	if res == meter.ChargeExhausted {
		return 0, false, false
	}
	if !found {
		return 0, false, true
	}
	return binary.LittleEndian.Uint32(v), true, true
}

func SetCbiVersion(m *meter.GasMeter, addr types.Address, version uint32) bool {
	var buf [4]byte
	binary.LittleEndian.PutUint32(buf[:], version)
	return m.WriteStorage(state.CbiVersionKey(addr), buf[:], false) == meter.ChargeOk
}

// IsContract reports whether addr already has contract code installed
// (spec §4.5 Deploy's "ContractAlreadyExists" check), without charging
// more than the one read it costs.
func IsContract(m *meter.GasMeter, addr types.Address) (exists bool, ok bool) {
	_, found, ok := GetContractCode(m, addr)
	return found, ok
}

// GetContractStorage/SetContractStorage back the `get`/`set` host
// functions, scoped to one contract's own storage keyspace (spec
// §4.6).
func GetContractStorage(m *meter.GasMeter, addr types.Address, key []byte) (value []byte, found bool, ok bool) {
	v, found, res := m.ReadStorage(state.StorageKey(addr, key), false)
	if res == meter.ChargeExhausted {
		return nil, false, false
	}
	return v, found, true
}

func SetContractStorage(m *meter.GasMeter, addr types.Address, key, value []byte) bool {
	return m.WriteStorage(state.StorageKey(addr, key), value, false) == meter.ChargeOk
}

func encodeUint64(v uint64) []byte {
	buf := make([]byte, 8)
	binary.LittleEndian.PutUint64(buf, v)
	return buf
}

func decodeUint64(b []byte) uint64 {
	if len(b) != 8 {
		return 0
	}
	return binary.LittleEndian.Uint64(b)
}
