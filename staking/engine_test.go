package staking

import (
	"testing"

	"github.com/parallelchain-io/pchain-runtime-sub000/types"
)

func testAddr(b byte) types.Address {
	var a types.Address
	for i := range a {
		a[i] = b
	}
	return a
}

// memStorage is a plain in-memory Storage, standing in for the metered
// adapter exec wires against a GasMeter in production.
type memStorage struct {
	data map[string][]byte
}

func newMemStorage() *memStorage { return &memStorage{data: make(map[string][]byte)} }

func (m *memStorage) Get(key []byte) ([]byte, bool) {
	v, ok := m.data[string(key)]
	return v, ok
}

func (m *memStorage) Set(key []byte, value []byte) {
	m.data[string(key)] = append([]byte(nil), value...)
}

func newTestStore() *Store { return NewStore(newMemStorage()) }

func TestCreatePool(t *testing.T) {
	store := newTestStore()
	nvp := NewValidatorSet(MaxValidatorSetSize)
	operator := testAddr(1)

	if err := CreatePool(store, nvp, operator, 10); err != nil {
		t.Fatalf("CreatePool: %v", err)
	}
	pool, ok := store.GetPool(operator)
	if !ok || pool.CommissionRate != 10 {
		t.Fatalf("pool not persisted correctly: %+v ok=%v", pool, ok)
	}
	if p, ok := nvp.Power(operator); !ok || p != 0 {
		t.Fatalf("expected operator inserted at zero power, got %d ok=%v", p, ok)
	}

	if err := CreatePool(store, nvp, operator, 20); err != types.ErrPoolAlreadyExists {
		t.Fatalf("expected ErrPoolAlreadyExists, got %v", err)
	}
}

func TestCreatePoolRejectsInvalidCommission(t *testing.T) {
	store := newTestStore()
	nvp := NewValidatorSet(MaxValidatorSetSize)
	if err := CreatePool(store, nvp, testAddr(2), 101); err != types.ErrInvalidPoolPolicy {
		t.Fatalf("expected ErrInvalidPoolPolicy, got %v", err)
	}
}

func TestSetPoolSettingsRejectsNoOpAndMissingPool(t *testing.T) {
	store := newTestStore()
	nvp := NewValidatorSet(MaxValidatorSetSize)
	operator := testAddr(3)

	if err := SetPoolSettings(store, operator, 5); err != types.ErrPoolNotExists {
		t.Fatalf("expected ErrPoolNotExists, got %v", err)
	}

	if err := CreatePool(store, nvp, operator, 5); err != nil {
		t.Fatalf("CreatePool: %v", err)
	}
	if err := SetPoolSettings(store, operator, 5); err != types.ErrInvalidPoolPolicy {
		t.Fatalf("expected ErrInvalidPoolPolicy for a no-op rate change, got %v", err)
	}
	if err := SetPoolSettings(store, operator, 6); err != nil {
		t.Fatalf("SetPoolSettings: %v", err)
	}
	pool, _ := store.GetPool(operator)
	if pool.CommissionRate != 6 {
		t.Fatalf("commission rate = %d, want 6", pool.CommissionRate)
	}
}

func TestDeletePoolRemovesFromNVPButNotDeposits(t *testing.T) {
	store := newTestStore()
	nvp := NewValidatorSet(MaxValidatorSetSize)
	operator := testAddr(4)
	owner := testAddr(5)

	if err := CreatePool(store, nvp, operator, 0); err != nil {
		t.Fatalf("CreatePool: %v", err)
	}
	if err := CreateDeposit(store, operator, owner, 1000, false); err != nil {
		t.Fatalf("CreateDeposit: %v", err)
	}

	if err := DeletePool(store, nvp, operator); err != nil {
		t.Fatalf("DeletePool: %v", err)
	}
	if _, ok := nvp.Power(operator); ok {
		t.Fatal("operator should no longer be present in nvp")
	}
	if _, ok := store.GetPool(operator); ok {
		t.Fatal("pool object should be deleted")
	}
	if _, ok := store.GetDeposit(DepositKey{Operator: operator, Owner: owner}); !ok {
		t.Fatal("deposit must survive pool deletion, orphaned rather than cascaded")
	}
}

func TestCreateDepositRequiresExistingPool(t *testing.T) {
	store := newTestStore()
	if err := CreateDeposit(store, testAddr(6), testAddr(7), 100, false); err != types.ErrPoolNotExists {
		t.Fatalf("expected ErrPoolNotExists, got %v", err)
	}
}

func TestCreateDepositTwiceFails(t *testing.T) {
	store := newTestStore()
	nvp := NewValidatorSet(MaxValidatorSetSize)
	operator := testAddr(8)
	owner := testAddr(9)
	if err := CreatePool(store, nvp, operator, 0); err != nil {
		t.Fatalf("CreatePool: %v", err)
	}
	if err := CreateDeposit(store, operator, owner, 100, false); err != nil {
		t.Fatalf("first CreateDeposit: %v", err)
	}
	if err := CreateDeposit(store, operator, owner, 100, false); err != types.ErrDepositsAlreadyExists {
		t.Fatalf("expected ErrDepositsAlreadyExists, got %v", err)
	}
}

func TestTopUpDepositSaturates(t *testing.T) {
	store := newTestStore()
	nvp := NewValidatorSet(MaxValidatorSetSize)
	operator := testAddr(10)
	owner := testAddr(11)
	if err := CreatePool(store, nvp, operator, 0); err != nil {
		t.Fatalf("CreatePool: %v", err)
	}
	if err := CreateDeposit(store, operator, owner, 100, false); err != nil {
		t.Fatalf("CreateDeposit: %v", err)
	}
	if err := TopUpDeposit(store, operator, owner, ^uint64(0)); err != nil {
		t.Fatalf("TopUpDeposit: %v", err)
	}
	d, _ := store.GetDeposit(DepositKey{Operator: operator, Owner: owner})
	if d.Balance != ^uint64(0) {
		t.Fatalf("expected saturated balance, got %d", d.Balance)
	}
}

func TestValidatorSetInsertEvictsLowestPower(t *testing.T) {
	nvp := NewValidatorSet(2)
	nvp.Insert(testAddr(1), 10)
	nvp.Insert(testAddr(2), 20)
	evicted, inserted := nvp.Insert(testAddr(3), 5)
	if inserted {
		t.Fatal("a lower-power entry than every existing member must not be inserted once the set is full")
	}
	if evicted != nil {
		t.Fatalf("nothing should have been evicted, got %+v", evicted)
	}

	evicted, inserted = nvp.Insert(testAddr(4), 15)
	if !inserted {
		t.Fatal("expected the new, higher-power entry to be inserted")
	}
	if evicted == nil || evicted.Operator != testAddr(1) {
		t.Fatalf("expected testAddr(1) (power 10) evicted, got %+v", evicted)
	}
	if nvp.Len() != 2 {
		t.Fatalf("validator set size = %d, want 2", nvp.Len())
	}
}

func TestRotateEpochWithNoPoolsProducesEmptyCommittee(t *testing.T) {
	store := newTestStore()
	nvp := NewValidatorSet(MaxValidatorSetSize)
	changes := RotateEpoch(store, nvp, nil)
	if len(changes.NewCommittee) != 0 {
		t.Fatalf("expected an empty committee, got %+v", changes.NewCommittee)
	}
}
