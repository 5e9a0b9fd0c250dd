package core

// StorageBST — an ordered key/value map whose nodes are packed records linked
// by offsets inside the storage region. No in-memory reference graph is ever
// materialized: nodes are read on demand, mutated, and written back.

import "encoding/binary"

// bstHeaderLen is the packed size of a BST header:
// items:u32 | key_len:u16 | value_len:u16 | root_offset:u32.
const bstHeaderLen uint32 = 12

type bstHeader struct {
	items      uint32
	keyLen     uint16
	valueLen   uint16
	rootOffset Offset
}

func (h *bstHeader) encode(buf []byte) {
	binary.LittleEndian.PutUint32(buf[0:], h.items)
	binary.LittleEndian.PutUint16(buf[4:], h.keyLen)
	binary.LittleEndian.PutUint16(buf[6:], h.valueLen)
	binary.LittleEndian.PutUint32(buf[8:], h.rootOffset)
}

func decodeBSTHeader(buf []byte) bstHeader {
	return bstHeader{
		items:      binary.LittleEndian.Uint32(buf[0:]),
		keyLen:     binary.LittleEndian.Uint16(buf[4:]),
		valueLen:   binary.LittleEndian.Uint16(buf[6:]),
		rootOffset: binary.LittleEndian.Uint32(buf[8:]),
	}
}

// StorageBST is an unbalanced binary search tree living in contract storage.
// Keys are unique; inserting an existing key updates the value in place.
// There is no deletion, no rebalancing and no ordered iteration.
type StorageBST[K, V any] struct {
	storage      *Storage
	keyCodec     KeyCodec[K]
	valueCodec   Codec[V]
	headerOffset Offset

	// In-memory copy of the header; flushed to storage on every mutation.
	header bstHeader
}

// bstNode mirrors the packed node layout: key | value | left:u32 | right:u32.
type bstNode[K, V any] struct {
	key   K
	value V
	left  Offset
	right Offset
}

// CreateBST allocates an empty tree and writes its header.
func CreateBST[K, V any](storage *Storage, kc KeyCodec[K], vc Codec[V]) (*StorageBST[K, V], error) {
	headerOffset, err := storage.Allocate(bstHeaderLen)
	if err != nil {
		return nil, err
	}
	bst := &StorageBST[K, V]{
		storage:      storage,
		keyCodec:     kc,
		valueCodec:   vc,
		headerOffset: headerOffset,
		header: bstHeader{
			keyLen:   uint16(kc.PackedLen()),
			valueLen: uint16(vc.PackedLen()),
		},
	}
	if err := bst.flushHeader(); err != nil {
		return nil, err
	}
	return bst, nil
}

// LoadBST reopens the tree whose header sits at offset. The persisted key and
// value widths must match the caller's codecs.
func LoadBST[K, V any](storage *Storage, kc KeyCodec[K], vc Codec[V], offset Offset) (*StorageBST[K, V], error) {
	raw, err := storage.ReadBytes(offset, bstHeaderLen)
	if err != nil {
		return nil, err
	}
	header := decodeBSTHeader(raw)
	if header.keyLen != uint16(kc.PackedLen()) {
		return nil, &CodecMismatchError{Field: "key_len", Want: uint16(kc.PackedLen()), Got: header.keyLen}
	}
	if header.valueLen != uint16(vc.PackedLen()) {
		return nil, &CodecMismatchError{Field: "value_len", Want: uint16(vc.PackedLen()), Got: header.valueLen}
	}
	return &StorageBST[K, V]{
		storage:      storage,
		keyCodec:     kc,
		valueCodec:   vc,
		headerOffset: offset,
		header:       header,
	}, nil
}

// Offset returns the header offset, used to persist this container's handle.
func (t *StorageBST[K, V]) Offset() Offset { return t.headerOffset }

// Len returns the number of elements in the tree.
func (t *StorageBST[K, V]) Len() uint32 { return t.header.items }

// IsEmpty reports whether the tree contains no elements.
func (t *StorageBST[K, V]) IsEmpty() bool { return t.Len() == 0 }

// Insert adds a key/value pair. If the key was present, the value is updated
// in place and the previous value is returned with existed == true.
func (t *StorageBST[K, V]) Insert(key K, value V) (old V, existed bool, err error) {
	var zero V
	if t.header.items == 0 {
		offset, err := t.storage.Allocate(t.nodeLen())
		if err != nil {
			return zero, false, err
		}
		t.header.items = 1
		t.header.rootOffset = offset
		if err := t.flushHeader(); err != nil {
			return zero, false, err
		}
		if err := t.writeNode(offset, &bstNode[K, V]{key: key, value: value}); err != nil {
			return zero, false, err
		}
		return zero, false, nil
	}

	offset := t.header.rootOffset
	node, err := t.readNode(offset)
	if err != nil {
		return zero, false, err
	}
	for {
		cmp := t.keyCodec.Compare(node.key, key)
		if cmp == 0 {
			oldValue := node.value
			node.value = value
			if err := t.writeNode(offset, node); err != nil {
				return zero, false, err
			}
			return oldValue, true, nil
		}
		// Descent rule: an existing key less than or equal to the new key
		// sends us left. Find must use the same rule or the traversals
		// diverge.
		var child *Offset
		if cmp <= 0 {
			child = &node.left
		} else {
			child = &node.right
		}
		if *child == 0 {
			newOffset, err := t.storage.Allocate(t.nodeLen())
			if err != nil {
				return zero, false, err
			}
			t.header.items++
			if err := t.flushHeader(); err != nil {
				return zero, false, err
			}
			*child = newOffset
			if err := t.writeNode(offset, node); err != nil {
				return zero, false, err
			}
			if err := t.writeNode(newOffset, &bstNode[K, V]{key: key, value: value}); err != nil {
				return zero, false, err
			}
			return zero, false, nil
		}
		offset = *child
		node, err = t.readNode(offset)
		if err != nil {
			return zero, false, err
		}
	}
}

// Find returns the value stored under key, or found == false when the key is
// absent. An absent key is not an error.
func (t *StorageBST[K, V]) Find(key K) (value V, found bool, err error) {
	var zero V
	if t.header.items == 0 {
		return zero, false, nil
	}
	offset := t.header.rootOffset
	for offset != 0 {
		node, err := t.readNode(offset)
		if err != nil {
			return zero, false, err
		}
		cmp := t.keyCodec.Compare(node.key, key)
		switch {
		case cmp == 0:
			return node.value, true, nil
		case cmp <= 0:
			offset = node.left
		default:
			offset = node.right
		}
	}
	return zero, false, nil
}

// ContainsKey reports whether the tree holds a value for key.
func (t *StorageBST[K, V]) ContainsKey(key K) (bool, error) {
	_, found, err := t.Find(key)
	return found, err
}

//---------------------------------------------------------------------
// Node and header plumbing
//---------------------------------------------------------------------

func (t *StorageBST[K, V]) nodeLen() uint32 {
	return t.keyCodec.PackedLen() + t.valueCodec.PackedLen() + 2*OffsetSize
}

func (t *StorageBST[K, V]) flushHeader() error {
	var buf [bstHeaderLen]byte
	t.header.encode(buf[:])
	return t.storage.WriteBytes(t.headerOffset, buf[:])
}

func (t *StorageBST[K, V]) readNode(offset Offset) (*bstNode[K, V], error) {
	raw, err := t.storage.ReadBytes(offset, t.nodeLen())
	if err != nil {
		return nil, err
	}
	kLen := t.keyCodec.PackedLen()
	vLen := t.valueCodec.PackedLen()
	key, err := t.keyCodec.Decode(raw[:kLen])
	if err != nil {
		return nil, err
	}
	value, err := t.valueCodec.Decode(raw[kLen : kLen+vLen])
	if err != nil {
		return nil, err
	}
	return &bstNode[K, V]{
		key:   key,
		value: value,
		left:  binary.LittleEndian.Uint32(raw[kLen+vLen:]),
		right: binary.LittleEndian.Uint32(raw[kLen+vLen+OffsetSize:]),
	}, nil
}

func (t *StorageBST[K, V]) writeNode(offset Offset, node *bstNode[K, V]) error {
	kLen := t.keyCodec.PackedLen()
	vLen := t.valueCodec.PackedLen()
	buf := make([]byte, t.nodeLen())
	t.keyCodec.Encode(buf[:kLen], node.key)
	t.valueCodec.Encode(buf[kLen:kLen+vLen], node.value)
	binary.LittleEndian.PutUint32(buf[kLen+vLen:], node.left)
	binary.LittleEndian.PutUint32(buf[kLen+vLen+OffsetSize:], node.right)
	return t.storage.WriteBytes(offset, buf)
}
