package state

import "testing"

func TestReadYourWrites(t *testing.T) {
	c := NewWorldStateCache(NewMemoryHandle())
	c.Set([]byte("k"), []byte("v1"), false)
	v, found, change := c.Get([]byte("k"), false)
	if !found || string(v) != "v1" {
		t.Fatalf("got %q, %v", v, found)
	}
	if change.Charge != 0 {
		t.Fatalf("read-your-writes should not charge, got %d", change.Charge)
	}
}

func TestDoubleReadIdempotence(t *testing.T) {
	mpt := NewMemoryHandle()
	mpt.Put([]byte("k"), []byte("v"))
	c := NewWorldStateCache(mpt)

	_, _, first := c.Get([]byte("k"), false)
	if first.Charge == 0 {
		t.Fatal("first read should charge")
	}
	_, _, second := c.Get([]byte("k"), false)
	if second.Charge != 0 {
		t.Fatalf("second read should not re-charge, got %d", second.Charge)
	}
}

func TestSetSameValueStillCharges(t *testing.T) {
	mpt := NewMemoryHandle()
	mpt.Put([]byte("k"), []byte("v"))
	c := NewWorldStateCache(mpt)
	c.Get([]byte("k"), false) // prime read-seen so the internal get in Set doesn't re-charge
	change := c.Set([]byte("k"), []byte("v"), false)
	if change.Charge == 0 {
		t.Fatal("set to identical value should still charge a write")
	}
}

func TestRevertToSnapshot(t *testing.T) {
	c := NewWorldStateCache(NewMemoryHandle())
	c.Set([]byte("a"), []byte("1"), false)
	snap := c.Snapshot()
	c.Set([]byte("b"), []byte("2"), false)
	c.RevertToSnapshot(snap)

	if _, found, _ := c.Get([]byte("a"), false); !found {
		t.Fatal("write before snapshot should survive revert")
	}
	if _, found, _ := c.Get([]byte("b"), false); found {
		t.Fatal("write after snapshot should be undone")
	}
}

func TestDeleteRefund(t *testing.T) {
	mpt := NewMemoryHandle()
	mpt.Put([]byte("k"), []byte("0123456789"))
	c := NewWorldStateCache(mpt)
	change := c.Set([]byte("k"), nil, false)
	if change.Refund == 0 {
		t.Fatal("deleting an existing value should refund")
	}
	if _, found, _ := c.Get([]byte("k"), false); found {
		t.Fatal("deleted key should read as absent")
	}
}

func TestCommitPersistsToHandle(t *testing.T) {
	mpt := NewMemoryHandle()
	c := NewWorldStateCache(mpt)
	c.Set([]byte("k"), []byte("v"), false)
	if err := c.Commit(); err != nil {
		t.Fatal(err)
	}
	v, ok, _ := mpt.Get([]byte("k"))
	if !ok || string(v) != "v" {
		t.Fatalf("commit did not persist: %q, %v", v, ok)
	}
}

func TestRevertDiscardsAllWrites(t *testing.T) {
	mpt := NewMemoryHandle()
	c := NewWorldStateCache(mpt)
	c.Set([]byte("k"), []byte("v"), false)
	c.Revert()
	if err := c.Commit(); err != nil {
		t.Fatal(err)
	}
	if _, ok, _ := mpt.Get([]byte("k")); ok {
		t.Fatal("reverted write should never reach the handle")
	}
}
