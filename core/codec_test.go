package core

import (
	"bytes"
	"errors"
	"testing"
)

func TestIntCodecRoundTrip(t *testing.T) {
	check := func(name string, packed uint32, encode func([]byte), decode func([]byte) (any, error), want any) {
		buf := make([]byte, packed)
		encode(buf)
		got, err := decode(buf)
		if err != nil {
			t.Fatalf("%s: decode: %v", name, err)
		}
		if got != want {
			t.Fatalf("%s: round trip got %v want %v", name, got, want)
		}
	}

	check("int8", Int8Codec{}.PackedLen(),
		func(b []byte) { Int8Codec{}.Encode(b, -5) },
		func(b []byte) (any, error) { return Int8Codec{}.Decode(b) }, int8(-5))
	check("uint8", Uint8Codec{}.PackedLen(),
		func(b []byte) { Uint8Codec{}.Encode(b, 250) },
		func(b []byte) (any, error) { return Uint8Codec{}.Decode(b) }, uint8(250))
	check("int16", Int16Codec{}.PackedLen(),
		func(b []byte) { Int16Codec{}.Encode(b, -12345) },
		func(b []byte) (any, error) { return Int16Codec{}.Decode(b) }, int16(-12345))
	check("uint16", Uint16Codec{}.PackedLen(),
		func(b []byte) { Uint16Codec{}.Encode(b, 54321) },
		func(b []byte) (any, error) { return Uint16Codec{}.Decode(b) }, uint16(54321))
	check("int32", Int32Codec{}.PackedLen(),
		func(b []byte) { Int32Codec{}.Encode(b, -7_000_000) },
		func(b []byte) (any, error) { return Int32Codec{}.Decode(b) }, int32(-7_000_000))
	check("uint32", Uint32Codec{}.PackedLen(),
		func(b []byte) { Uint32Codec{}.Encode(b, 4_000_000_000) },
		func(b []byte) (any, error) { return Uint32Codec{}.Decode(b) }, uint32(4_000_000_000))
	check("int64", Int64Codec{}.PackedLen(),
		func(b []byte) { Int64Codec{}.Encode(b, -1<<40) },
		func(b []byte) (any, error) { return Int64Codec{}.Decode(b) }, int64(-1<<40))
	check("uint64", Uint64Codec{}.PackedLen(),
		func(b []byte) { Uint64Codec{}.Encode(b, 1<<60) },
		func(b []byte) (any, error) { return Uint64Codec{}.Decode(b) }, uint64(1<<60))
}

func TestIntCodecLittleEndian(t *testing.T) {
	buf := make([]byte, 4)
	Int32Codec{}.Encode(buf, 0x01020304)
	if !bytes.Equal(buf, []byte{0x04, 0x03, 0x02, 0x01}) {
		t.Fatalf("int32 encoding is not little-endian: % x", buf)
	}
}

func TestBoolCodec(t *testing.T) {
	buf := make([]byte, 1)
	BoolCodec{}.Encode(buf, true)
	if buf[0] != 1 {
		t.Fatalf("true encoded as %#02x", buf[0])
	}
	v, err := BoolCodec{}.Decode(buf)
	if err != nil || !v {
		t.Fatalf("decode true: %v %v", v, err)
	}
	BoolCodec{}.Encode(buf, false)
	v, err = BoolCodec{}.Decode(buf)
	if err != nil || v {
		t.Fatalf("decode false: %v %v", v, err)
	}

	// Anything other than 0/1 is an invalid encoding.
	if _, err := (BoolCodec{}).Decode([]byte{2}); !errors.Is(err, ErrInvalidEncoding) {
		t.Fatalf("expected ErrInvalidEncoding, got %v", err)
	}
}

func TestAddressCodec(t *testing.T) {
	bc := NewMockBlockchain()
	addr := bc.GenerateNewAddress()

	buf := make([]byte, AddressCodec{}.PackedLen())
	AddressCodec{}.Encode(buf, addr)
	got, err := AddressCodec{}.Decode(buf)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got != addr {
		t.Fatalf("round trip mismatch: %s != %s", got, addr)
	}
	if (AddressCodec{}).Compare(addr, addr) != 0 {
		t.Fatalf("address does not compare equal to itself")
	}
}

func TestAddressHex(t *testing.T) {
	bc := NewMockBlockchain()
	addr := bc.GenerateNewAddress()

	parsed, err := AddressFromHex(addr.Hex())
	if err != nil {
		t.Fatalf("parse hex: %v", err)
	}
	if parsed != addr {
		t.Fatalf("hex round trip mismatch: %s != %s", parsed, addr)
	}

	if _, err := AddressFromHex("0xdead"); err == nil {
		t.Fatalf("expected error for short address")
	}
}

func FuzzInt64CodecRoundTrip(f *testing.F) {
	for _, seed := range []int64{0, 1, -1, 1 << 62, -1 << 62} {
		f.Add(seed)
	}
	f.Fuzz(func(t *testing.T, v int64) {
		buf := make([]byte, 8)
		Int64Codec{}.Encode(buf, v)
		got, err := Int64Codec{}.Decode(buf)
		if err != nil {
			t.Fatalf("decode: %v", err)
		}
		if got != v {
			t.Fatalf("round trip mismatch: got %d want %d", got, v)
		}
	})
}
