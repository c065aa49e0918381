package gas

import (
	"testing"

	"github.com/parallelchain-io/pchain-runtime-sub000/types"
)

func TestMinimumCommandReceiptSizeV1IsUniform(t *testing.T) {
	kinds := []types.CommandKind{types.CmdTransfer, types.CmdCall, types.CmdCreatePool, types.CmdStakeDeposit}
	for _, k := range kinds {
		if got := MinimumCommandReceiptSize(k, V1); got != 17 {
			t.Fatalf("kind %v: got %d, want 17", k, got)
		}
	}
}

func TestMinimumCommandReceiptSizeV2SplitsBasicAndExtended(t *testing.T) {
	if got := MinimumCommandReceiptSize(types.CmdTransfer, V2); got != 9 {
		t.Fatalf("basic: got %d, want 9", got)
	}
	if got := MinimumCommandReceiptSize(types.CmdCall, V2); got != 17 {
		t.Fatalf("call (extended): got %d, want 17", got)
	}
	if got := MinimumCommandReceiptSize(types.CmdWithdrawDeposit, V2); got != 17 {
		t.Fatalf("withdraw (extended): got %d, want 17", got)
	}
	if got := MinimumCommandReceiptSize(types.CmdStakeDeposit, V2); got != 17 {
		t.Fatalf("stake (extended): got %d, want 17", got)
	}
	if got := MinimumCommandReceiptSize(types.CmdUnstakeDeposit, V2); got != 17 {
		t.Fatalf("unstake (extended): got %d, want 17", got)
	}
}

func TestMinimumReceiptListSize(t *testing.T) {
	kinds := []types.CommandKind{types.CmdTransfer, types.CmdCall}
	if got := MinimumReceiptListSize(kinds, V1); got != 4+17+17 {
		t.Fatalf("v1: got %d, want %d", got, 4+17+17)
	}
	if got := MinimumReceiptListSize(kinds, V2); got != 13+9+17 {
		t.Fatalf("v2: got %d, want %d", got, 13+9+17)
	}
}
