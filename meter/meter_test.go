package meter

import (
	"crypto/ed25519"
	"testing"

	"github.com/parallelchain-io/pchain-runtime-sub000/state"
)

func newTestMeter(limit uint64) *GasMeter {
	return NewGasMeter(state.NewWorldStateCache(state.NewMemoryHandle()), limit)
}

func TestChargeExhaustion(t *testing.T) {
	m := newTestMeter(10)
	if m.Charge(5) != ChargeOk {
		t.Fatal("expected Ok")
	}
	if m.Charge(6) != ChargeExhausted {
		t.Fatal("expected Exhausted")
	}
	if m.Remaining() != 0 {
		t.Fatalf("remaining should clamp to 0, got %d", m.Remaining())
	}
}

func TestWriteStorageExhaustedLeavesNoEffect(t *testing.T) {
	m := newTestMeter(1) // too little gas for any write
	result := m.WriteStorage([]byte("key"), []byte("value"), false)
	if result != ChargeExhausted {
		t.Fatal("expected Exhausted")
	}
	if _, found, _ := m.world.Get([]byte("key"), false); found {
		t.Fatal("write should not have taken effect when gas was exhausted")
	}
}

func TestWriteStorageSuccessTakesEffect(t *testing.T) {
	m := newTestMeter(1_000_000)
	if m.WriteStorage([]byte("key"), []byte("value"), false) != ChargeOk {
		t.Fatal("expected Ok")
	}
	v, found, _ := m.world.Get([]byte("key"), false)
	if !found || string(v) != "value" {
		t.Fatalf("got %q, %v", v, found)
	}
}

func TestExtractReceiptResetsCounters(t *testing.T) {
	m := newTestMeter(1_000_000)
	m.WriteReturnValue([]byte("result"))
	m.WriteLog([]byte("topic"), []byte("value"))
	consumedBefore := m.Consumed()
	if consumedBefore == 0 {
		t.Fatal("expected nonzero consumption")
	}

	receipt := m.ExtractReceipt(0, 0)
	if string(receipt.ReturnValue) != "result" {
		t.Fatalf("got %q", receipt.ReturnValue)
	}
	if len(receipt.Logs) != 1 {
		t.Fatalf("got %d logs", len(receipt.Logs))
	}
	if receipt.GasUsed != consumedBefore {
		t.Fatalf("receipt gas_used %d != consumed %d", receipt.GasUsed, consumedBefore)
	}
}

func TestHashFunctionsCharge(t *testing.T) {
	m := newTestMeter(1_000_000)
	if _, r := m.HashSha256([]byte("hello")); r != ChargeOk {
		t.Fatal("expected Ok")
	}
	if _, r := m.HashKeccak([]byte("hello")); r != ChargeOk {
		t.Fatal("expected Ok")
	}
	if _, r := m.HashRipemd([]byte("hello")); r != ChargeOk {
		t.Fatal("expected Ok")
	}
	if m.Consumed() == 0 {
		t.Fatal("hashing should consume gas")
	}
}

func TestVerifyEd25519(t *testing.T) {
	pub, priv, err := ed25519.GenerateKey(nil)
	if err != nil {
		t.Fatal(err)
	}
	msg := []byte("transfer 100 to bob")
	sig := ed25519.Sign(priv, msg)

	m := newTestMeter(10_000_000)
	ok, result := m.VerifyEd25519(pub, msg, sig)
	if result != ChargeOk {
		t.Fatal("expected Ok")
	}
	if !ok {
		t.Fatal("valid signature should verify")
	}

	ok, _ = m.VerifyEd25519(pub, []byte("tampered"), sig)
	if ok {
		t.Fatal("tampered message should not verify")
	}
}
