package core

import (
	"errors"
	"testing"
)

func TestLinkedList(t *testing.T) {
	storage := newTestStorage(4 * 1024)
	list1, err := CreateLinkedList[int32](storage, Int32Codec{})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if !list1.IsEmpty() {
		t.Fatalf("fresh list is not empty")
	}
	for _, v := range []int32{1, 2, 3} {
		if err := list1.PushBack(v); err != nil {
			t.Fatalf("push %d: %v", v, err)
		}
	}

	list2, err := LoadLinkedList[int32](storage, Int32Codec{}, list1.Offset())
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if list2.Len() != 3 {
		t.Fatalf("len = %d, want 3", list2.Len())
	}

	var collected []int32
	it := list2.Iterate()
	for it.Next() {
		collected = append(collected, it.Item())
	}
	if err := it.Err(); err != nil {
		t.Fatalf("iterate: %v", err)
	}
	if len(collected) != 3 || collected[0] != 1 || collected[1] != 2 || collected[2] != 3 {
		t.Fatalf("iteration yielded %v, want [1 2 3]", collected)
	}

	// A fresh iterator starts over from the head.
	it = list2.Iterate()
	if !it.Next() || it.Item() != 1 {
		t.Fatalf("restarted iterator did not yield the head")
	}
}

func TestLinkedListOrderUnderLoad(t *testing.T) {
	storage := newTestStorage(64 * 1024)
	list, err := CreateLinkedList[int64](storage, Int64Codec{})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	const n = 500
	for i := int64(0); i < n; i++ {
		if err := list.PushBack(i * 3); err != nil {
			t.Fatalf("push %d: %v", i, err)
		}
	}
	if list.Len() != n {
		t.Fatalf("len = %d, want %d", list.Len(), n)
	}

	it := list.Iterate()
	var i int64
	for it.Next() {
		if it.Item() != i*3 {
			t.Fatalf("item %d = %d, want %d", i, it.Item(), i*3)
		}
		i++
	}
	if err := it.Err(); err != nil {
		t.Fatalf("iterate: %v", err)
	}
	if i != n {
		t.Fatalf("iterated %d items, want %d", i, n)
	}
}

func TestLinkedListCodecMismatch(t *testing.T) {
	storage := newTestStorage(1024)
	list, err := CreateLinkedList[int32](storage, Int32Codec{})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	_, err = LoadLinkedList[int64](storage, Int64Codec{}, list.Offset())
	var mismatch *CodecMismatchError
	if !errors.As(err, &mismatch) {
		t.Fatalf("expected CodecMismatchError, got %v", err)
	}
	if mismatch.Field != "item_len" {
		t.Fatalf("mismatch on %q, want item_len", mismatch.Field)
	}
}

func TestLinkedListOutOfSpace(t *testing.T) {
	// Room for the header and two nodes only.
	nodeLen := Int64Codec{}.PackedLen() + OffsetSize
	storage := newTestStorage(reservedPrefix + listHeaderLen + 2*nodeLen)

	list, err := CreateLinkedList[int64](storage, Int64Codec{})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := list.PushBack(1); err != nil {
		t.Fatalf("push 1: %v", err)
	}
	if err := list.PushBack(2); err != nil {
		t.Fatalf("push 2: %v", err)
	}
	if err := list.PushBack(3); !errors.Is(err, ErrOutOfSpace) {
		t.Fatalf("expected ErrOutOfSpace, got %v", err)
	}
	if list.Len() != 2 {
		t.Fatalf("len after failed push = %d, want 2", list.Len())
	}
}
