package codec

import (
	"bytes"
	"testing"

	"github.com/parallelchain-io/pchain-runtime-sub000/types"
)

func TestCommandRoundTrip(t *testing.T) {
	amount := uint64(42)
	tests := []types.Command{
		types.NewTransfer(types.Address{1, 2, 3}, 100),
		types.NewDeploy([]byte{0x00, 0x61, 0x73, 0x6d}, 1),
		types.NewCall(types.Address{9}, "transfer", [][]byte{{1}, {2, 3}}, &amount),
		types.NewCall(types.Address{9}, "noop", nil, nil),
		types.NewCreatePool(10),
		types.NewSetPoolSettings(20),
		types.NewDeletePool(),
		types.NewCreateDeposit(types.Address{5}, 1000, true),
		types.NewSetDepositSettings(types.Address{5}, false),
		types.NewTopUpDeposit(types.Address{5}, 50),
		types.NewWithdrawDeposit(types.Address{5}, 25),
		types.NewStakeDeposit(types.Address{5}, 25),
		types.NewUnstakeDeposit(types.Address{5}, 25),
		types.NewNextEpoch(),
	}
	for _, cmd := range tests {
		w := NewWriter()
		if err := EncodeCommand(w, cmd); err != nil {
			t.Fatalf("encode %s: %v", cmd.Kind, err)
		}
		got, err := DecodeCommand(NewReader(w.Bytes()))
		if err != nil {
			t.Fatalf("decode %s: %v", cmd.Kind, err)
		}
		if got.Kind != cmd.Kind {
			t.Fatalf("kind mismatch: got %s, want %s", got.Kind, cmd.Kind)
		}
	}
}

func TestTransactionRoundTrip(t *testing.T) {
	tx := &types.Transaction{
		Signer:            types.Address{1},
		Nonce:             7,
		Hash:              types.Hash32{2},
		GasLimit:          1_000_000,
		MaxBaseFeePerGas:  10,
		PriorityFeePerGas: 1,
		Commands: []types.Command{
			types.NewTransfer(types.Address{3}, 55),
			types.NewNextEpoch(),
		},
	}
	encoded := EncodeTransaction(tx)
	got, err := DecodeTransaction(encoded)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got.Signer != tx.Signer || got.Nonce != tx.Nonce || len(got.Commands) != len(tx.Commands) {
		t.Fatalf("round trip mismatch: got %+v, want %+v", got, tx)
	}
}

func TestDecodeTransactionTruncated(t *testing.T) {
	tx := &types.Transaction{Signer: types.Address{1}, Commands: []types.Command{types.NewNextEpoch()}}
	encoded := EncodeTransaction(tx)
	if _, err := DecodeTransaction(encoded[:len(encoded)-1]); err == nil {
		t.Fatal("expected truncation error")
	}
}

func TestReceiptRoundTrip(t *testing.T) {
	receipts := []types.CommandReceipt{
		{Kind: types.CmdTransfer, ExitStatus: types.ExitSuccess, GasUsed: 21000},
		{
			Kind:            types.CmdWithdrawDeposit,
			ExitStatus:      types.ExitSuccess,
			GasUsed:         5000,
			AmountWithdrawn: 500,
			Logs:            []types.LogEntry{{Topic: []byte("t"), Value: []byte("v")}},
		},
	}

	v1 := EncodeV1(receipts)
	gotV1, err := DecodeV1(v1)
	if err != nil {
		t.Fatalf("decode v1: %v", err)
	}
	if len(gotV1) != 2 || gotV1[1].AmountWithdrawn != 0 {
		t.Fatalf("v1 should drop extended fields, got %+v", gotV1)
	}

	v2 := EncodeV2(receipts)
	gotV2, err := DecodeV2(v2)
	if err != nil {
		t.Fatalf("decode v2: %v", err)
	}
	if gotV2[1].AmountWithdrawn != 500 {
		t.Fatalf("v2 should preserve extended fields, got %+v", gotV2)
	}
	if !bytes.Equal(gotV2[1].Logs[0].Topic, []byte("t")) {
		t.Fatalf("log topic mismatch: %+v", gotV2[1].Logs)
	}
}

func TestEncodeV1DowngradesNotExecuted(t *testing.T) {
	receipts := []types.CommandReceipt{{Kind: types.CmdCall, ExitStatus: types.ExitNotExecuted}}
	got, err := DecodeV1(EncodeV1(receipts))
	if err != nil {
		t.Fatal(err)
	}
	if got[0].ExitStatus != types.ExitFailed {
		t.Fatalf("got %s, want Failed", got[0].ExitStatus)
	}
}
