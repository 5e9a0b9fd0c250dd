package core

import (
	"errors"
	"testing"
)

func TestBST(t *testing.T) {
	storage := newTestStorage(1024)
	bst1, err := CreateBST[int32, int64](storage, Int32Codec{}, Int64Codec{})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if !bst1.IsEmpty() {
		t.Fatalf("fresh tree is not empty")
	}

	mustInsertNew := func(k int32, v int64) {
		t.Helper()
		if _, existed, err := bst1.Insert(k, v); err != nil || existed {
			t.Fatalf("insert %d: existed=%v err=%v", k, existed, err)
		}
	}
	mustInsertNew(1, 10)
	mustInsertNew(3, 30)
	mustInsertNew(2, 20)

	old, existed, err := bst1.Insert(1, 100)
	if err != nil {
		t.Fatalf("re-insert: %v", err)
	}
	if !existed || old != 10 {
		t.Fatalf("re-insert of 1: existed=%v old=%d", existed, old)
	}

	bst2, err := LoadBST[int32, int64](storage, Int32Codec{}, Int64Codec{}, bst1.Offset())
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if bst2.Len() != 3 {
		t.Fatalf("len = %d, want 3", bst2.Len())
	}

	mustFind := func(k int32, want int64) {
		t.Helper()
		v, found, err := bst2.Find(k)
		if err != nil || !found || v != want {
			t.Fatalf("find %d: %d %v %v", k, v, found, err)
		}
	}
	mustFind(2, 20)
	mustFind(3, 30)
	mustFind(1, 100)

	if _, found, err := bst2.Find(4); err != nil || found {
		t.Fatalf("find 4: found=%v err=%v", found, err)
	}
	if ok, err := bst2.ContainsKey(-1); err != nil || ok {
		t.Fatalf("contains -1: %v %v", ok, err)
	}
	if ok, err := bst2.ContainsKey(2); err != nil || !ok {
		t.Fatalf("contains 2: %v %v", ok, err)
	}
}

func TestBSTLenCountsDistinctKeys(t *testing.T) {
	storage := newTestStorage(4 * 1024)
	bst, err := CreateBST[int32, int64](storage, Int32Codec{}, Int64Codec{})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	keys := []int32{5, -3, 9, 0, 5, -3, 12, 9, 5}
	distinct := map[int32]bool{}
	for i, k := range keys {
		if _, _, err := bst.Insert(k, int64(i)); err != nil {
			t.Fatalf("insert %d: %v", k, err)
		}
		distinct[k] = true
	}
	if bst.Len() != uint32(len(distinct)) {
		t.Fatalf("len = %d, want %d", bst.Len(), len(distinct))
	}
	// The last write wins.
	v, found, err := bst.Find(5)
	if err != nil || !found || v != 8 {
		t.Fatalf("find 5: %d %v %v", v, found, err)
	}
}

func TestBSTAddressKeys(t *testing.T) {
	storage := newTestStorage(8 * 1024)
	bc := NewMockBlockchain()
	bst, err := CreateBST[Address, int64](storage, AddressCodec{}, Int64Codec{})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	addrs := make([]Address, 10)
	for i := range addrs {
		addrs[i] = bc.GenerateNewAddress()
		if _, _, err := bst.Insert(addrs[i], int64(i)*11); err != nil {
			t.Fatalf("insert: %v", err)
		}
	}
	for i, a := range addrs {
		v, found, err := bst.Find(a)
		if err != nil || !found || v != int64(i)*11 {
			t.Fatalf("find %s: %d %v %v", a, v, found, err)
		}
	}
	if ok, err := bst.ContainsKey(AddressZero); err != nil || ok {
		t.Fatalf("zero address should be absent: %v %v", ok, err)
	}
}

func TestBSTCodecMismatch(t *testing.T) {
	storage := newTestStorage(1024)
	bst, err := CreateBST[int32, int64](storage, Int32Codec{}, Int64Codec{})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	_, err = LoadBST[int64, int64](storage, Int64Codec{}, Int64Codec{}, bst.Offset())
	var mismatch *CodecMismatchError
	if !errors.As(err, &mismatch) {
		t.Fatalf("expected CodecMismatchError, got %v", err)
	}
	if mismatch.Field != "key_len" {
		t.Fatalf("mismatch on %q, want key_len", mismatch.Field)
	}
}

func TestBSTOutOfSpaceKeepsState(t *testing.T) {
	// Region with room for the prefix, the header and exactly 5 nodes.
	const n = 5
	nodeLen := Int32Codec{}.PackedLen() + Int64Codec{}.PackedLen() + 2*OffsetSize
	size := reservedPrefix + bstHeaderLen + n*nodeLen

	storage := newTestStorage(size)
	bst, err := CreateBST[int32, int64](storage, Int32Codec{}, Int64Codec{})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	for i := int32(0); i < n; i++ {
		if _, _, err := bst.Insert(i, int64(i)*10); err != nil {
			t.Fatalf("insert %d: %v", i, err)
		}
	}

	if _, _, err := bst.Insert(n, 999); !errors.Is(err, ErrOutOfSpace) {
		t.Fatalf("expected ErrOutOfSpace, got %v", err)
	}

	// The failed insert must not be visible: len stays at n and the new key
	// is absent.
	if bst.Len() != n {
		t.Fatalf("len after failed insert = %d, want %d", bst.Len(), n)
	}
	if ok, err := bst.ContainsKey(n); err != nil || ok {
		t.Fatalf("failed insert is visible: %v %v", ok, err)
	}
	for i := int32(0); i < n; i++ {
		v, found, err := bst.Find(i)
		if err != nil || !found || v != int64(i)*10 {
			t.Fatalf("find %d after failed insert: %d %v %v", i, v, found, err)
		}
	}
}
