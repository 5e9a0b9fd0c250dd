package core

import (
	"cmp"
	"encoding/binary"
	"fmt"
)

// A Codec defines the fixed, deterministic byte encoding a type must have to
// live inside a storage container node. Encodings are little-endian with no
// padding; two encodings of the same value are bit-identical. Variable-length
// values are not codecs — they are stored behind an indirection such as
// StorageString.
//
// Codecs are plain values, passed to containers at Create/Load time. PackedLen
// must be constant for the lifetime of the codec.
type Codec[T any] interface {
	// PackedLen returns the exact number of bytes Encode produces.
	PackedLen() uint32

	// Encode writes the value into buf. buf is always exactly PackedLen
	// bytes long.
	Encode(buf []byte, v T)

	// Decode reconstructs a value from buf (exactly PackedLen bytes).
	Decode(buf []byte) (T, error)
}

// A KeyCodec is a Codec whose values carry a total order, making the type
// usable as a container key.
type KeyCodec[T any] interface {
	Codec[T]

	// Compare returns a negative number when a sorts before b, zero when
	// they are equal and a positive number otherwise.
	Compare(a, b T) int
}

//---------------------------------------------------------------------
// Integer codecs
//---------------------------------------------------------------------

// Int8Codec encodes an int8 as a single byte.
type Int8Codec struct{}

func (Int8Codec) PackedLen() uint32            { return 1 }
func (Int8Codec) Encode(buf []byte, v int8)    { buf[0] = byte(v) }
func (Int8Codec) Decode(buf []byte) (int8, error) { return int8(buf[0]), nil }
func (Int8Codec) Compare(a, b int8) int        { return cmp.Compare(a, b) }

// Uint8Codec encodes a uint8 as a single byte.
type Uint8Codec struct{}

func (Uint8Codec) PackedLen() uint32             { return 1 }
func (Uint8Codec) Encode(buf []byte, v uint8)    { buf[0] = v }
func (Uint8Codec) Decode(buf []byte) (uint8, error) { return buf[0], nil }
func (Uint8Codec) Compare(a, b uint8) int        { return cmp.Compare(a, b) }

// Int16Codec encodes an int16 as two little-endian bytes.
type Int16Codec struct{}

func (Int16Codec) PackedLen() uint32 { return 2 }
func (Int16Codec) Encode(buf []byte, v int16) {
	binary.LittleEndian.PutUint16(buf, uint16(v))
}
func (Int16Codec) Decode(buf []byte) (int16, error) {
	return int16(binary.LittleEndian.Uint16(buf)), nil
}
func (Int16Codec) Compare(a, b int16) int { return cmp.Compare(a, b) }

// Uint16Codec encodes a uint16 as two little-endian bytes.
type Uint16Codec struct{}

func (Uint16Codec) PackedLen() uint32 { return 2 }
func (Uint16Codec) Encode(buf []byte, v uint16) {
	binary.LittleEndian.PutUint16(buf, v)
}
func (Uint16Codec) Decode(buf []byte) (uint16, error) {
	return binary.LittleEndian.Uint16(buf), nil
}
func (Uint16Codec) Compare(a, b uint16) int { return cmp.Compare(a, b) }

// Int32Codec encodes an int32 as four little-endian bytes.
type Int32Codec struct{}

func (Int32Codec) PackedLen() uint32 { return 4 }
func (Int32Codec) Encode(buf []byte, v int32) {
	binary.LittleEndian.PutUint32(buf, uint32(v))
}
func (Int32Codec) Decode(buf []byte) (int32, error) {
	return int32(binary.LittleEndian.Uint32(buf)), nil
}
func (Int32Codec) Compare(a, b int32) int { return cmp.Compare(a, b) }

// Uint32Codec encodes a uint32 as four little-endian bytes.
type Uint32Codec struct{}

func (Uint32Codec) PackedLen() uint32 { return 4 }
func (Uint32Codec) Encode(buf []byte, v uint32) {
	binary.LittleEndian.PutUint32(buf, v)
}
func (Uint32Codec) Decode(buf []byte) (uint32, error) {
	return binary.LittleEndian.Uint32(buf), nil
}
func (Uint32Codec) Compare(a, b uint32) int { return cmp.Compare(a, b) }

// Int64Codec encodes an int64 as eight little-endian bytes.
type Int64Codec struct{}

func (Int64Codec) PackedLen() uint32 { return 8 }
func (Int64Codec) Encode(buf []byte, v int64) {
	binary.LittleEndian.PutUint64(buf, uint64(v))
}
func (Int64Codec) Decode(buf []byte) (int64, error) {
	return int64(binary.LittleEndian.Uint64(buf)), nil
}
func (Int64Codec) Compare(a, b int64) int { return cmp.Compare(a, b) }

// Uint64Codec encodes a uint64 as eight little-endian bytes.
type Uint64Codec struct{}

func (Uint64Codec) PackedLen() uint32 { return 8 }
func (Uint64Codec) Encode(buf []byte, v uint64) {
	binary.LittleEndian.PutUint64(buf, v)
}
func (Uint64Codec) Decode(buf []byte) (uint64, error) {
	return binary.LittleEndian.Uint64(buf), nil
}
func (Uint64Codec) Compare(a, b uint64) int { return cmp.Compare(a, b) }

//---------------------------------------------------------------------
// Bool codec
//---------------------------------------------------------------------

// BoolCodec encodes a bool as a single 0/1 byte. Any other byte value is
// rejected on decode.
type BoolCodec struct{}

func (BoolCodec) PackedLen() uint32 { return 1 }

func (BoolCodec) Encode(buf []byte, v bool) {
	if v {
		buf[0] = 1
	} else {
		buf[0] = 0
	}
}

func (BoolCodec) Decode(buf []byte) (bool, error) {
	switch buf[0] {
	case 0:
		return false, nil
	case 1:
		return true, nil
	default:
		return false, fmt.Errorf("%w: %#02x is not a bool", ErrInvalidEncoding, buf[0])
	}
}

func (BoolCodec) Compare(a, b bool) int {
	switch {
	case a == b:
		return 0
	case !a:
		return -1
	default:
		return 1
	}
}
