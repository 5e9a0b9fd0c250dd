package core

// StorageLinkedList — an append-only FIFO sequence of packed records linked
// by offsets, with forward single-pass iteration.

import "encoding/binary"

// listHeaderLen is the packed size of a linked-list header:
// items:u32 | item_len:u16 | head_offset:u32 | tail_offset:u32.
const listHeaderLen uint32 = 14

type listHeader struct {
	items      uint32
	itemLen    uint16
	headOffset Offset
	tailOffset Offset
}

func (h *listHeader) encode(buf []byte) {
	binary.LittleEndian.PutUint32(buf[0:], h.items)
	binary.LittleEndian.PutUint16(buf[4:], h.itemLen)
	binary.LittleEndian.PutUint32(buf[6:], h.headOffset)
	binary.LittleEndian.PutUint32(buf[10:], h.tailOffset)
}

func decodeListHeader(buf []byte) listHeader {
	return listHeader{
		items:      binary.LittleEndian.Uint32(buf[0:]),
		itemLen:    binary.LittleEndian.Uint16(buf[4:]),
		headOffset: binary.LittleEndian.Uint32(buf[6:]),
		tailOffset: binary.LittleEndian.Uint32(buf[10:]),
	}
}

// StorageLinkedList is a singly linked list in contract storage. Items can
// only be appended; there is no pop, no indexing and no removal.
type StorageLinkedList[T any] struct {
	storage      *Storage
	codec        Codec[T]
	headerOffset Offset

	// In-memory copy of the header; flushed to storage on every mutation.
	header listHeader
}

// CreateLinkedList allocates an empty list and writes its header.
func CreateLinkedList[T any](storage *Storage, codec Codec[T]) (*StorageLinkedList[T], error) {
	headerOffset, err := storage.Allocate(listHeaderLen)
	if err != nil {
		return nil, err
	}
	list := &StorageLinkedList[T]{
		storage:      storage,
		codec:        codec,
		headerOffset: headerOffset,
		header:       listHeader{itemLen: uint16(codec.PackedLen())},
	}
	if err := list.flushHeader(); err != nil {
		return nil, err
	}
	return list, nil
}

// LoadLinkedList reopens the list whose header sits at offset. The persisted
// item width must match the caller's codec.
func LoadLinkedList[T any](storage *Storage, codec Codec[T], offset Offset) (*StorageLinkedList[T], error) {
	raw, err := storage.ReadBytes(offset, listHeaderLen)
	if err != nil {
		return nil, err
	}
	header := decodeListHeader(raw)
	if header.itemLen != uint16(codec.PackedLen()) {
		return nil, &CodecMismatchError{Field: "item_len", Want: uint16(codec.PackedLen()), Got: header.itemLen}
	}
	return &StorageLinkedList[T]{
		storage:      storage,
		codec:        codec,
		headerOffset: offset,
		header:       header,
	}, nil
}

// Offset returns the header offset, used to persist this container's handle.
func (l *StorageLinkedList[T]) Offset() Offset { return l.headerOffset }

// Len returns the number of elements in the list.
func (l *StorageLinkedList[T]) Len() uint32 { return l.header.items }

// IsEmpty reports whether the list contains no elements.
func (l *StorageLinkedList[T]) IsEmpty() bool { return l.Len() == 0 }

// PushBack appends an item. The push touches only the new node, the current
// tail and the header; it never traverses the list.
func (l *StorageLinkedList[T]) PushBack(item T) error {
	offset, err := l.storage.Allocate(l.nodeLen())
	if err != nil {
		return err
	}
	if l.header.items == 0 {
		l.header.headOffset = offset
	} else {
		// Re-link the current tail to the new node.
		tailItem, _, err := l.readNode(l.header.tailOffset)
		if err != nil {
			return err
		}
		if err := l.writeNode(l.header.tailOffset, tailItem, offset); err != nil {
			return err
		}
	}
	if err := l.writeNode(offset, item, 0); err != nil {
		return err
	}
	l.header.items++
	l.header.tailOffset = offset
	return l.flushHeader()
}

// Iterate returns a forward iterator positioned at the head. The iterator is
// single-pass and non-restartable; call Iterate again for a new pass.
func (l *StorageLinkedList[T]) Iterate() *ListIterator[T] {
	return &ListIterator[T]{list: l, cur: l.header.headOffset}
}

//---------------------------------------------------------------------
// Iterator
//---------------------------------------------------------------------

// ListIterator walks a StorageLinkedList front to back.
//
//	it := list.Iterate()
//	for it.Next() {
//		use(it.Item())
//	}
//	if err := it.Err(); err != nil { ... }
type ListIterator[T any] struct {
	list *StorageLinkedList[T]
	cur  Offset
	item T
	err  error
}

// Next advances to the next item. It returns false at the end of the list or
// on the first storage error, which Err reports.
func (it *ListIterator[T]) Next() bool {
	if it.err != nil || it.cur == 0 {
		return false
	}
	item, next, err := it.list.readNode(it.cur)
	if err != nil {
		it.err = err
		return false
	}
	it.item = item
	it.cur = next
	return true
}

// Item returns the item read by the last successful Next.
func (it *ListIterator[T]) Item() T { return it.item }

// Err returns the storage error that stopped iteration, if any.
func (it *ListIterator[T]) Err() error { return it.err }

//---------------------------------------------------------------------
// Node and header plumbing
//---------------------------------------------------------------------

func (l *StorageLinkedList[T]) nodeLen() uint32 {
	return l.codec.PackedLen() + OffsetSize
}

func (l *StorageLinkedList[T]) flushHeader() error {
	var buf [listHeaderLen]byte
	l.header.encode(buf[:])
	return l.storage.WriteBytes(l.headerOffset, buf[:])
}

func (l *StorageLinkedList[T]) readNode(offset Offset) (item T, next Offset, err error) {
	var zero T
	raw, err := l.storage.ReadBytes(offset, l.nodeLen())
	if err != nil {
		return zero, 0, err
	}
	item, err = l.codec.Decode(raw[:l.codec.PackedLen()])
	if err != nil {
		return zero, 0, err
	}
	return item, binary.LittleEndian.Uint32(raw[l.codec.PackedLen():]), nil
}

func (l *StorageLinkedList[T]) writeNode(offset Offset, item T, next Offset) error {
	buf := make([]byte, l.nodeLen())
	l.codec.Encode(buf[:l.codec.PackedLen()], item)
	binary.LittleEndian.PutUint32(buf[l.codec.PackedLen():], next)
	return l.storage.WriteBytes(offset, buf)
}
