package core

// Blockchain capability facade. Contract code never talks to the host
// directly; it goes through a Blockchain handle whose backing is either the
// real host imports (on chain) or an in-memory mock (in tests).

import (
	"bytes"
	"fmt"

	"github.com/ethereum/go-ethereum/common/hexutil"
)

// AddressSize is the byte width of an account address. It is a host constant;
// the containers treat addresses as opaque fixed-size byte arrays.
const AddressSize = 20

// Address identifies an account on the chain.
type Address [AddressSize]byte

// AddressZero is the all-zero address.
var AddressZero Address

// AddressFromBytes builds an Address from a slice of exactly AddressSize bytes.
func AddressFromBytes(b []byte) (Address, error) {
	var a Address
	if len(b) != AddressSize {
		return a, fmt.Errorf("%w: address needs %d bytes, got %d", ErrInvalidEncoding, AddressSize, len(b))
	}
	copy(a[:], b)
	return a, nil
}

// AddressFromHex parses a 0x-prefixed hex address.
func AddressFromHex(s string) (Address, error) {
	b, err := hexutil.Decode(s)
	if err != nil {
		return Address{}, fmt.Errorf("%w: %v", ErrInvalidEncoding, err)
	}
	return AddressFromBytes(b)
}

// Bytes returns the address as a byte slice.
func (a Address) Bytes() []byte { return a[:] }

// Hex returns the 0x-prefixed hex form of the address.
func (a Address) Hex() string { return hexutil.Encode(a[:]) }

func (a Address) String() string { return a.Hex() }

// MarshalText implements encoding.TextMarshaler so addresses render as hex in
// JSON messages.
func (a Address) MarshalText() ([]byte, error) {
	return []byte(a.Hex()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (a *Address) UnmarshalText(text []byte) error {
	parsed, err := AddressFromHex(string(text))
	if err != nil {
		return err
	}
	*a = parsed
	return nil
}

// AddressCodec packs an Address as its raw AddressSize bytes. Addresses order
// lexicographically, which makes them usable as container keys.
type AddressCodec struct{}

func (AddressCodec) PackedLen() uint32 { return AddressSize }

func (AddressCodec) Encode(buf []byte, v Address) { copy(buf, v[:]) }

func (AddressCodec) Decode(buf []byte) (Address, error) {
	return AddressFromBytes(buf[:AddressSize])
}

func (AddressCodec) Compare(a, b Address) int { return bytes.Compare(a[:], b[:]) }

//---------------------------------------------------------------------
// Host parameters
//---------------------------------------------------------------------

// Parameter identifiers understood by the host. The facade exposes typed
// accessors for the common ones; GetParam remains available for the rest.
const (
	// ParamMessageSender is the address that signed the current message.
	ParamMessageSender uint32 = 0x0001
)

// BlockchainAPI is the capability set the host exposes to contracts. Errors
// cross this boundary as a single opaque code.
type BlockchainAPI interface {
	// GetParam returns the raw bytes of a host parameter.
	GetParam(paramID uint32) ([]byte, error)
}

// Blockchain is the facade contract code holds. It wraps a BlockchainAPI and
// decodes the common parameters.
type Blockchain struct {
	api BlockchainAPI
}

// NewBlockchain wraps a host backing in the facade.
func NewBlockchain(api BlockchainAPI) *Blockchain {
	return &Blockchain{api: api}
}

// API exposes the backing capability set. Tests downcast it to reach the mock.
func (b *Blockchain) API() BlockchainAPI { return b.api }

// GetParam returns the raw bytes of a host parameter.
func (b *Blockchain) GetParam(paramID uint32) ([]byte, error) {
	return b.api.GetParam(paramID)
}

// GetMessageSender returns the address of the account that sent the current
// message.
func (b *Blockchain) GetMessageSender() (Address, error) {
	raw, err := b.api.GetParam(ParamMessageSender)
	if err != nil {
		return Address{}, err
	}
	return AddressFromBytes(raw)
}
