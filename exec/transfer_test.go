package exec

import "testing"

func TestTransferMovesValue(t *testing.T) {
	m := newTestMeter(1_000_000)
	from, to := testAddr(1), testAddr(2)
	SetBalance(m, from, 100)
	SetBalance(m, to, 50)

	ok, success := Transfer(m, from, to, 30)
	if !ok || !success {
		t.Fatalf("Transfer should succeed, got ok=%v success=%v", ok, success)
	}
	if bal, _ := GetBalance(m, from); bal != 70 {
		t.Fatalf("from balance = %d, want 70", bal)
	}
	if bal, _ := GetBalance(m, to); bal != 80 {
		t.Fatalf("to balance = %d, want 80", bal)
	}
}

func TestTransferInsufficientBalanceLeavesStateUnchanged(t *testing.T) {
	m := newTestMeter(1_000_000)
	from, to := testAddr(3), testAddr(4)
	SetBalance(m, from, 10)
	SetBalance(m, to, 5)

	ok, success := Transfer(m, from, to, 11)
	if !ok || success {
		t.Fatalf("expected ok=true success=false for insufficient balance, got ok=%v success=%v", ok, success)
	}
	if bal, _ := GetBalance(m, from); bal != 10 {
		t.Fatalf("from balance must be unchanged, got %d", bal)
	}
	if bal, _ := GetBalance(m, to); bal != 5 {
		t.Fatalf("to balance must be unchanged, got %d", bal)
	}
}

func TestTransferZeroAmountIsNoOp(t *testing.T) {
	m := newTestMeter(1_000_000)
	from, to := testAddr(5), testAddr(6)
	SetBalance(m, from, 10)

	ok, success := Transfer(m, from, to, 0)
	if !ok || !success {
		t.Fatalf("zero-amount transfer should trivially succeed, got ok=%v success=%v", ok, success)
	}
	if bal, _ := GetBalance(m, to); bal != 0 {
		t.Fatalf("to balance should remain untouched by a zero transfer, got %d", bal)
	}
}
