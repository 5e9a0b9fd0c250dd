package core

// StorageHashTable — a fixed-size hash map whose buckets are offsets of
// StorageBSTs. The table never resizes; load factor is the caller's concern.

import (
	"encoding/binary"
	"hash/fnv"
)

// hashTableHeaderLen is the packed size of a hash-table header:
// items:u32 | key_len:u16 | value_len:u16 | table_offset:u32 | table_size:u32.
const hashTableHeaderLen uint32 = 16

type hashTableHeader struct {
	items       uint32
	keyLen      uint16
	valueLen    uint16
	tableOffset Offset
	tableSize   uint32
}

func (h *hashTableHeader) encode(buf []byte) {
	binary.LittleEndian.PutUint32(buf[0:], h.items)
	binary.LittleEndian.PutUint16(buf[4:], h.keyLen)
	binary.LittleEndian.PutUint16(buf[6:], h.valueLen)
	binary.LittleEndian.PutUint32(buf[8:], h.tableOffset)
	binary.LittleEndian.PutUint32(buf[12:], h.tableSize)
}

func decodeHashTableHeader(buf []byte) hashTableHeader {
	return hashTableHeader{
		items:       binary.LittleEndian.Uint32(buf[0:]),
		keyLen:      binary.LittleEndian.Uint16(buf[4:]),
		valueLen:    binary.LittleEndian.Uint16(buf[6:]),
		tableOffset: binary.LittleEndian.Uint32(buf[8:]),
		tableSize:   binary.LittleEndian.Uint32(buf[12:]),
	}
}

// StorageHashTable is a hash map in contract storage. Each non-empty bucket
// holds the offset of a StorageBST carrying the keys that hash there.
type StorageHashTable[K, V any] struct {
	storage      *Storage
	keyCodec     KeyCodec[K]
	valueCodec   Codec[V]
	headerOffset Offset

	// In-memory copy of the header; flushed to storage on every mutation.
	header hashTableHeader
}

// CreateHashTable allocates a header and a zeroed bucket array of tableSize
// offsets.
func CreateHashTable[K, V any](storage *Storage, kc KeyCodec[K], vc Codec[V], tableSize uint32) (*StorageHashTable[K, V], error) {
	headerOffset, err := storage.Allocate(hashTableHeaderLen)
	if err != nil {
		return nil, err
	}
	tableOffset, err := storage.Allocate(tableSize * OffsetSize)
	if err != nil {
		return nil, err
	}
	// The allocator does not promise zeroed memory on every backing, so the
	// bucket array is cleared explicitly.
	if err := storage.WriteBytes(tableOffset, make([]byte, tableSize*OffsetSize)); err != nil {
		return nil, err
	}
	ht := &StorageHashTable[K, V]{
		storage:      storage,
		keyCodec:     kc,
		valueCodec:   vc,
		headerOffset: headerOffset,
		header: hashTableHeader{
			keyLen:      uint16(kc.PackedLen()),
			valueLen:    uint16(vc.PackedLen()),
			tableOffset: tableOffset,
			tableSize:   tableSize,
		},
	}
	if err := ht.flushHeader(); err != nil {
		return nil, err
	}
	return ht, nil
}

// LoadHashTable reopens the table whose header sits at offset. The persisted
// key and value widths must match the caller's codecs.
func LoadHashTable[K, V any](storage *Storage, kc KeyCodec[K], vc Codec[V], offset Offset) (*StorageHashTable[K, V], error) {
	raw, err := storage.ReadBytes(offset, hashTableHeaderLen)
	if err != nil {
		return nil, err
	}
	header := decodeHashTableHeader(raw)
	if header.keyLen != uint16(kc.PackedLen()) {
		return nil, &CodecMismatchError{Field: "key_len", Want: uint16(kc.PackedLen()), Got: header.keyLen}
	}
	if header.valueLen != uint16(vc.PackedLen()) {
		return nil, &CodecMismatchError{Field: "value_len", Want: uint16(vc.PackedLen()), Got: header.valueLen}
	}
	return &StorageHashTable[K, V]{
		storage:      storage,
		keyCodec:     kc,
		valueCodec:   vc,
		headerOffset: offset,
		header:       header,
	}, nil
}

// Offset returns the header offset, used to persist this container's handle.
func (h *StorageHashTable[K, V]) Offset() Offset { return h.headerOffset }

// Len returns the number of elements in the table.
func (h *StorageHashTable[K, V]) Len() uint32 { return h.header.items }

// IsEmpty reports whether the table contains no elements.
func (h *StorageHashTable[K, V]) IsEmpty() bool { return h.Len() == 0 }

// Insert adds a key/value pair, delegating to the bucket's BST. If the key
// was present, the value is updated in place and the previous value is
// returned with existed == true.
func (h *StorageHashTable[K, V]) Insert(key K, value V) (old V, existed bool, err error) {
	var zero V
	bucketOffset := h.bucketOffset(key)
	bstOffset, err := h.storage.ReadUint32(bucketOffset)
	if err != nil {
		return zero, false, err
	}
	if bstOffset == 0 {
		bst, err := CreateBST(h.storage, h.keyCodec, h.valueCodec)
		if err != nil {
			return zero, false, err
		}
		if _, _, err := bst.Insert(key, value); err != nil {
			return zero, false, err
		}
		if err := h.storage.WriteUint32(bucketOffset, bst.Offset()); err != nil {
			return zero, false, err
		}
		h.header.items++
		if err := h.flushHeader(); err != nil {
			return zero, false, err
		}
		return zero, false, nil
	}

	bst, err := LoadBST(h.storage, h.keyCodec, h.valueCodec, bstOffset)
	if err != nil {
		return zero, false, err
	}
	old, existed, err = bst.Insert(key, value)
	if err != nil {
		return zero, false, err
	}
	if !existed {
		h.header.items++
		if err := h.flushHeader(); err != nil {
			return zero, false, err
		}
	}
	return old, existed, nil
}

// Find returns the value stored under key, or found == false when the key is
// absent.
func (h *StorageHashTable[K, V]) Find(key K) (value V, found bool, err error) {
	var zero V
	if h.header.items == 0 {
		return zero, false, nil
	}
	bstOffset, err := h.storage.ReadUint32(h.bucketOffset(key))
	if err != nil {
		return zero, false, err
	}
	if bstOffset == 0 {
		return zero, false, nil
	}
	bst, err := LoadBST(h.storage, h.keyCodec, h.valueCodec, bstOffset)
	if err != nil {
		return zero, false, err
	}
	return bst.Find(key)
}

// ContainsKey reports whether the table holds a value for key.
func (h *StorageHashTable[K, V]) ContainsKey(key K) (bool, error) {
	_, found, err := h.Find(key)
	return found, err
}

//---------------------------------------------------------------------
// Hashing and header plumbing
//---------------------------------------------------------------------

// hashKey is a 64-bit FNV-1a over the key's canonical packed encoding,
// truncated to 32 bits. Sufficient for non-adversarial keys; there is no
// countermeasure against crafted collisions.
func (h *StorageHashTable[K, V]) hashKey(key K) uint32 {
	buf := make([]byte, h.keyCodec.PackedLen())
	h.keyCodec.Encode(buf, key)
	hasher := fnv.New64a()
	hasher.Write(buf)
	return uint32(hasher.Sum64())
}

func (h *StorageHashTable[K, V]) bucketOffset(key K) Offset {
	bucket := h.hashKey(key) % h.header.tableSize
	return h.header.tableOffset + bucket*OffsetSize
}

func (h *StorageHashTable[K, V]) flushHeader() error {
	var buf [hashTableHeaderLen]byte
	h.header.encode(buf[:])
	return h.storage.WriteBytes(h.headerOffset, buf[:])
}
