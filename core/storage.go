package core

// Storage substrate — a flat, byte-addressable region that survives across
// contract invocations. Every structural link in the containers above is a
// 32-bit offset into this region; offset 0 is the null sentinel and is never
// handed out by the allocator.

import (
	"encoding/binary"
	"fmt"

	"github.com/sirupsen/logrus"
)

// Offset is a 32-bit index into the storage region. Zero means "absent".
type Offset = uint32

const (
	// OffsetSize is the packed width of an Offset.
	OffsetSize uint32 = 4

	// StackSlots is the number of root-offset slots held in the region's
	// reserved prefix. Slot indices run 1..StackSlots.
	StackSlots uint32 = 16

	// watermarkOffset is where the allocator persists its bump pointer.
	watermarkOffset uint32 = 0

	// stackOffset is where the root-offset stack begins.
	stackOffset uint32 = OffsetSize

	// reservedPrefix is the first user-allocatable offset. Constant for a
	// given contract binary.
	reservedPrefix uint32 = stackOffset + StackSlots*OffsetSize
)

// StorageAPI is the raw backing of a storage region: a host-provided byte
// region on chain, an in-memory buffer in tests, or a region file under the
// CLI. Implementations do not interpret the bytes; the substrate does.
type StorageAPI interface {
	// Read copies length bytes starting at offset.
	Read(offset Offset, length uint32) ([]byte, error)

	// Write copies data into the region starting at offset.
	Write(offset Offset, data []byte) error

	// Size returns the total region length in bytes.
	Size() uint32
}

// Storage is the substrate handle shared by every container within one
// invocation. It owns the bump allocator and the root-offset stack; it is
// strictly single-invocation and performs no locking.
type Storage struct {
	api    StorageAPI
	logger *logrus.Logger
}

// NewStorage wires a Storage over the given backing region.
func NewStorage(api StorageAPI, lg *logrus.Logger) *Storage {
	if lg == nil {
		lg = logrus.StandardLogger()
	}
	return &Storage{api: api, logger: lg}
}

// API exposes the backing region. Tests downcast it to reach the mock.
func (s *Storage) API() StorageAPI { return s.api }

// Size returns the region length in bytes.
func (s *Storage) Size() uint32 { return s.api.Size() }

//---------------------------------------------------------------------
// Allocator
//---------------------------------------------------------------------

// Allocate reserves length bytes and returns their offset. Allocations are
// monotone and irreversible; there is no free. The watermark itself lives in
// the region, so a reloading invocation continues where the last one stopped.
func (s *Storage) Allocate(length uint32) (Offset, error) {
	watermark, err := s.ReadUint32(watermarkOffset)
	if err != nil {
		return 0, err
	}
	if watermark == 0 {
		// Fresh region: user allocations begin after the reserved prefix.
		watermark = reservedPrefix
	}
	if watermark+length < watermark || watermark+length > s.api.Size() {
		return 0, fmt.Errorf("%w: need %d bytes at %d, region is %d",
			ErrOutOfSpace, length, watermark, s.api.Size())
	}
	if err := s.WriteUint32(watermarkOffset, watermark+length); err != nil {
		return 0, err
	}
	s.logger.Debugf("storage: allocated %d bytes at offset %d", length, watermark)
	return watermark, nil
}

//---------------------------------------------------------------------
// Primitive read / write
//---------------------------------------------------------------------

// ReadBytes reads length bytes starting at offset.
func (s *Storage) ReadBytes(offset Offset, length uint32) ([]byte, error) {
	if err := s.checkBounds(offset, length); err != nil {
		return nil, err
	}
	return s.api.Read(offset, length)
}

// WriteBytes writes data starting at offset.
func (s *Storage) WriteBytes(offset Offset, data []byte) error {
	if err := s.checkBounds(offset, uint32(len(data))); err != nil {
		return err
	}
	return s.api.Write(offset, data)
}

// ReadUint32 reads a 4-byte little-endian integer at offset.
func (s *Storage) ReadUint32(offset Offset) (uint32, error) {
	b, err := s.ReadBytes(offset, OffsetSize)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(b), nil
}

// WriteUint32 writes a 4-byte little-endian integer at offset.
func (s *Storage) WriteUint32(offset Offset, v uint32) error {
	var b [4]byte
	binary.LittleEndian.PutUint32(b[:], v)
	return s.WriteBytes(offset, b[:])
}

func (s *Storage) checkBounds(offset Offset, length uint32) error {
	end := uint64(offset) + uint64(length)
	if end > uint64(s.api.Size()) {
		return fmt.Errorf("%w: [%d, %d) exceeds region of %d bytes",
			ErrOutOfBounds, offset, end, s.api.Size())
	}
	return nil
}

//---------------------------------------------------------------------
// Root-offset stack
//---------------------------------------------------------------------

// ReadStackAt returns the offset published at slot index (1..StackSlots).
// The stack is the symbol table by which a reloading invocation finds its
// top-level containers.
func (s *Storage) ReadStackAt(index uint32) (Offset, error) {
	slot, err := stackSlot(index)
	if err != nil {
		return 0, err
	}
	return s.ReadUint32(slot)
}

// FillStackAt publishes offset at slot index (1..StackSlots).
func (s *Storage) FillStackAt(index uint32, offset Offset) error {
	slot, err := stackSlot(index)
	if err != nil {
		return err
	}
	s.logger.Debugf("storage: stack slot %d <- offset %d", index, offset)
	return s.WriteUint32(slot, offset)
}

func stackSlot(index uint32) (Offset, error) {
	if index < 1 || index > StackSlots {
		return 0, fmt.Errorf("%w: slot %d, stack holds %d", ErrStackOverflow, index, StackSlots)
	}
	return stackOffset + (index-1)*OffsetSize, nil
}

//---------------------------------------------------------------------
// Typed read / write
//---------------------------------------------------------------------

// ReadRecord reads a packed record of exactly codec.PackedLen() bytes.
func ReadRecord[T any](s *Storage, codec Codec[T], offset Offset) (T, error) {
	var zero T
	b, err := s.ReadBytes(offset, codec.PackedLen())
	if err != nil {
		return zero, err
	}
	return codec.Decode(b)
}

// WriteRecord writes a packed record of exactly codec.PackedLen() bytes.
func WriteRecord[T any](s *Storage, codec Codec[T], offset Offset, v T) error {
	buf := make([]byte, codec.PackedLen())
	codec.Encode(buf, v)
	return s.WriteBytes(offset, buf)
}
