package gas

import "testing"

func TestStorageWriteCostOverwriteRefund(t *testing.T) {
	charge, refund := StorageWriteCost(8, 100, 50)
	wantCharge := SafeMul(50, WriteByteCost) + SafeMul(8, RehashByteCost)
	wantRefund := SafeMul(100, WriteByteCost) * RefundRatePercent / 100
	if charge != wantCharge {
		t.Fatalf("charge: got %d, want %d", charge, wantCharge)
	}
	if refund != wantRefund {
		t.Fatalf("refund: got %d, want %d", refund, wantRefund)
	}
}

func TestStorageWriteCostDelete(t *testing.T) {
	_, refund := StorageWriteCost(8, 100, 0)
	want := SafeMul(108, WriteByteCost) * RefundRatePercent / 100
	if refund != want {
		t.Fatalf("delete refund: got %d, want %d", refund, want)
	}
}

func TestStorageWriteCostFreshKeyNoRefund(t *testing.T) {
	_, refund := StorageWriteCost(8, 0, 50)
	if refund != 0 {
		t.Fatalf("fresh write should not refund, got %d", refund)
	}
}

func TestWasmBytesCostMinimumOne(t *testing.T) {
	if got := WasmBytesCost(0); got != 1 {
		t.Fatalf("got %d, want 1", got)
	}
	if got := WasmBytesCost(1); got != 1 {
		t.Fatalf("got %d, want 1", got)
	}
	if got := WasmBytesCost(8); got != 3 {
		t.Fatalf("got %d, want 3", got)
	}
	if got := WasmBytesCost(9); got != 6 {
		t.Fatalf("got %d, want 6", got)
	}
}

func TestHashCostLinear(t *testing.T) {
	if got := HashCost(10); got != 160 {
		t.Fatalf("got %d, want 160", got)
	}
}

func TestEd25519VerifyCostBaseDominates(t *testing.T) {
	got := Ed25519VerifyCost(32)
	want := Ed25519VerifyBaseCost + 32*CryptoHashPerByteCost
	if got != want {
		t.Fatalf("got %d, want %d", got, want)
	}
}

func TestSafeAddCapsAtMax(t *testing.T) {
	const max = ^uint64(0)
	if got := SafeAdd(max, 1); got != max {
		t.Fatalf("got %d, want %d", got, max)
	}
}

func TestSafeMulCapsAtMax(t *testing.T) {
	const max = ^uint64(0)
	if got := SafeMul(max, 2); got != max {
		t.Fatalf("got %d, want %d", got, max)
	}
}
