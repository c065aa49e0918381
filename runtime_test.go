package runtime

import (
	"encoding/binary"
	"testing"

	"github.com/parallelchain-io/pchain-runtime-sub000/state"
	"github.com/parallelchain-io/pchain-runtime-sub000/types"
	"github.com/parallelchain-io/pchain-runtime-sub000/wasmhost"
)

func testAddr(b byte) types.Address {
	var a types.Address
	for i := range a {
		a[i] = b
	}
	return a
}

func newTestWasmHost(t *testing.T) *wasmhost.WasmHost {
	t.Helper()
	cache, err := wasmhost.NewModuleCache(wasmhost.NewMemoryModuleStore(), 16)
	if err != nil {
		t.Fatalf("NewModuleCache: %v", err)
	}
	return wasmhost.NewWasmHost(cache)
}

func setBalance(h *state.MemoryHandle, a types.Address, balance uint64) {
	var buf [8]byte
	binary.LittleEndian.PutUint64(buf[:], balance)
	if err := h.Put(state.BalanceKey(a), buf[:]); err != nil {
		panic(err)
	}
}

// TestTransitionEndToEnd exercises the package's sole mutating entry
// point, confirming it behaves the same whether called directly or
// through pipeline.Run (which it simply forwards to).
func TestTransitionEndToEnd(t *testing.T) {
	h := state.NewMemoryHandle()
	signer := testAddr(1)
	recipient := testAddr(2)
	setBalance(h, signer, 50_000_000)

	tx := &types.Transaction{
		Signer:           signer,
		Nonce:            0,
		GasLimit:         10_000_000,
		MaxBaseFeePerGas: 4,
		Commands:         []types.Command{types.NewTransfer(recipient, 1_000)},
	}
	block := &types.BlockParameters{
		Height:          7,
		BaseFeePerGas:   4,
		ProposerAddress: testAddr(0x10),
		TreasuryAddress: testAddr(0x20),
	}

	result := Transition(h, tx, block, newTestWasmHost(t))
	if result.Error != nil {
		t.Fatalf("unexpected error: %v", *result.Error)
	}
	if len(result.Receipts) != 1 || result.Receipts[0].ExitStatus != types.ExitSuccess {
		t.Fatalf("expected one Success receipt, got %+v", result.Receipts)
	}

	recipientVal, found, err := h.Get(state.BalanceKey(recipient))
	if err != nil || !found {
		t.Fatalf("recipient balance not committed: found=%v err=%v", found, err)
	}
	if got := binary.LittleEndian.Uint64(recipientVal); got != 1_000 {
		t.Fatalf("recipient balance = %d, want 1000", got)
	}
}

// TestViewNoContractCode exercises the read-only entry point against an
// address with no deployed code, and confirms it never mutates world.
func TestViewNoContractCode(t *testing.T) {
	h := state.NewMemoryHandle()
	target := testAddr(9)

	receipt := View(h, 1_000_000, newTestWasmHost(t), target, "entrypoint", nil)
	if receipt.ExitStatus == types.ExitSuccess {
		t.Fatalf("expected a non-success exit status for a missing contract, got %+v", receipt)
	}

	if _, found, _ := h.Get(state.BalanceKey(target)); found {
		t.Fatal("view call must never write to world state")
	}
}
