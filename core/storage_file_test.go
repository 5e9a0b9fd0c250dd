package core

import (
	"testing"

	"wasmkit/internal/testutil"
)

func newSandbox(t *testing.T) *testutil.Sandbox {
	t.Helper()
	sb, err := testutil.NewSandbox()
	if err != nil {
		t.Fatalf("sandbox: %v", err)
	}
	t.Cleanup(func() { sb.Cleanup() })
	return sb
}

// TestFileStorageReload proves the container-reload property across a real
// close/reopen of the substrate: everything created before Commit is intact
// and answers identically afterwards.
func TestFileStorageReload(t *testing.T) {
	sb := newSandbox(t)
	path := sb.Path("region.bin")
	const size = 8 * 1024

	region, err := OpenFileStorage(path, size)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	storage := NewStorage(region, nil)

	bst, err := CreateBST[int32, int64](storage, Int32Codec{}, Int64Codec{})
	if err != nil {
		t.Fatalf("create bst: %v", err)
	}
	for _, kv := range [][2]int64{{1, 10}, {3, 30}, {2, 20}} {
		if _, _, err := bst.Insert(int32(kv[0]), kv[1]); err != nil {
			t.Fatalf("insert: %v", err)
		}
	}
	list, err := CreateLinkedList[int32](storage, Int32Codec{})
	if err != nil {
		t.Fatalf("create list: %v", err)
	}
	for _, v := range []int32{7, 8, 9} {
		if err := list.PushBack(v); err != nil {
			t.Fatalf("push: %v", err)
		}
	}
	if err := storage.FillStackAt(1, bst.Offset()); err != nil {
		t.Fatalf("publish bst: %v", err)
	}
	if err := storage.FillStackAt(2, list.Offset()); err != nil {
		t.Fatalf("publish list: %v", err)
	}
	if err := region.Commit(); err != nil {
		t.Fatalf("commit: %v", err)
	}

	// The committed image is a full region of exactly the declared size.
	raw, err := sb.ReadFile("region.bin")
	if err != nil {
		t.Fatalf("read committed region: %v", err)
	}
	if uint32(len(raw)) != size {
		t.Fatalf("committed region is %d bytes, want %d", len(raw), size)
	}

	// Reopen the region as a later invocation would.
	region2, err := OpenFileStorage(path, size)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	storage2 := NewStorage(region2, nil)

	bstOffset, err := storage2.ReadStackAt(1)
	if err != nil {
		t.Fatalf("stack 1: %v", err)
	}
	bst2, err := LoadBST[int32, int64](storage2, Int32Codec{}, Int64Codec{}, bstOffset)
	if err != nil {
		t.Fatalf("load bst: %v", err)
	}
	if bst2.Len() != 3 {
		t.Fatalf("bst len = %d", bst2.Len())
	}
	v, found, err := bst2.Find(2)
	if err != nil || !found || v != 20 {
		t.Fatalf("find 2: %d %v %v", v, found, err)
	}

	listOffset, err := storage2.ReadStackAt(2)
	if err != nil {
		t.Fatalf("stack 2: %v", err)
	}
	list2, err := LoadLinkedList[int32](storage2, Int32Codec{}, listOffset)
	if err != nil {
		t.Fatalf("load list: %v", err)
	}
	var collected []int32
	it := list2.Iterate()
	for it.Next() {
		collected = append(collected, it.Item())
	}
	if err := it.Err(); err != nil {
		t.Fatalf("iterate: %v", err)
	}
	if len(collected) != 3 || collected[0] != 7 || collected[2] != 9 {
		t.Fatalf("list after reload: %v", collected)
	}
}

// TestFileStorageDiscard checks the commit model: mutations made after the
// last Commit are invisible once the region is reopened.
func TestFileStorageDiscard(t *testing.T) {
	sb := newSandbox(t)
	path := sb.Path("region.bin")
	const size = 4 * 1024

	region, err := OpenFileStorage(path, size)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	storage := NewStorage(region, nil)
	if err := storage.FillStackAt(1, 42); err != nil {
		t.Fatalf("fill: %v", err)
	}
	if err := region.Commit(); err != nil {
		t.Fatalf("commit: %v", err)
	}

	// Uncommitted mutation.
	if err := storage.FillStackAt(1, 43); err != nil {
		t.Fatalf("fill: %v", err)
	}

	region2, err := OpenFileStorage(path, size)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	got, err := NewStorage(region2, nil).ReadStackAt(1)
	if err != nil || got != 42 {
		t.Fatalf("slot 1 after discard = %d %v, want 42", got, err)
	}
}

func TestFileStorageSizeMismatch(t *testing.T) {
	sb := newSandbox(t)

	// Seed a region image whose size disagrees with the caller's declared
	// region length.
	if err := sb.WriteFile("region.bin", make([]byte, 1024), 0o600); err != nil {
		t.Fatalf("seed region: %v", err)
	}
	if _, err := OpenFileStorage(sb.Path("region.bin"), 2048); err == nil {
		t.Fatalf("expected size mismatch error")
	}
	// The declared size matching the image is accepted.
	if _, err := OpenFileStorage(sb.Path("region.bin"), 1024); err != nil {
		t.Fatalf("open with matching size: %v", err)
	}
}
