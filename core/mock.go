package core

// In-memory mocks for contract tests. The storage mock is a plain byte
// buffer; the blockchain mock keeps a param map and hands out deterministic
// pseudo-random addresses so tests stay reproducible.

import (
	"fmt"
	"math/rand"

	"github.com/sirupsen/logrus"
)

//---------------------------------------------------------------------
// MockStorage
//---------------------------------------------------------------------

// MockStorage is a StorageAPI backed by an in-memory buffer.
type MockStorage struct {
	data []byte
}

// NewMockStorage creates a zeroed in-memory region of the given size.
func NewMockStorage(size uint32) *MockStorage {
	return &MockStorage{data: make([]byte, size)}
}

// Read implements StorageAPI.
func (m *MockStorage) Read(offset Offset, length uint32) ([]byte, error) {
	end := uint64(offset) + uint64(length)
	if end > uint64(len(m.data)) {
		return nil, fmt.Errorf("%w: mock read [%d, %d)", ErrOutOfBounds, offset, end)
	}
	out := make([]byte, length)
	copy(out, m.data[offset:end])
	return out, nil
}

// Write implements StorageAPI.
func (m *MockStorage) Write(offset Offset, data []byte) error {
	end := uint64(offset) + uint64(len(data))
	if end > uint64(len(m.data)) {
		return fmt.Errorf("%w: mock write [%d, %d)", ErrOutOfBounds, offset, end)
	}
	copy(m.data[offset:end], data)
	return nil
}

// Size implements StorageAPI.
func (m *MockStorage) Size() uint32 { return uint32(len(m.data)) }

// Bytes exposes the raw region for white-box assertions.
func (m *MockStorage) Bytes() []byte { return m.data }

//---------------------------------------------------------------------
// MockBlockchain
//---------------------------------------------------------------------

// hostCodeParamNotFound is the opaque code the mock surfaces for a missing
// parameter, mirroring how a real host rejects unknown param ids.
const hostCodeParamNotFound int32 = 1

// MockBlockchain is a BlockchainAPI backed by a param map.
type MockBlockchain struct {
	params      map[uint32][]byte
	addrGenSeed int64
}

// NewMockBlockchain creates an empty blockchain mock.
func NewMockBlockchain() *MockBlockchain {
	return &MockBlockchain{params: make(map[uint32][]byte)}
}

// GetParam implements BlockchainAPI.
func (m *MockBlockchain) GetParam(paramID uint32) ([]byte, error) {
	raw, ok := m.params[paramID]
	if !ok {
		return nil, &HostError{Code: hostCodeParamNotFound}
	}
	out := make([]byte, len(raw))
	copy(out, raw)
	return out, nil
}

// SetParam installs raw parameter bytes for the next calls.
func (m *MockBlockchain) SetParam(paramID uint32, raw []byte) {
	m.params[paramID] = raw
}

// SetMessageSender installs addr as the current message sender.
func (m *MockBlockchain) SetMessageSender(addr Address) {
	m.SetParam(ParamMessageSender, addr.Bytes())
}

// GenerateNewAddress returns a fresh deterministic pseudo-random address.
// The generator is seeded by an incrementing counter, so the n-th address is
// the same in every test run.
func (m *MockBlockchain) GenerateNewAddress() Address {
	m.addrGenSeed++
	rng := rand.New(rand.NewSource(m.addrGenSeed))
	var a Address
	rng.Read(a[:])
	return a
}

//---------------------------------------------------------------------
// MockContext
//---------------------------------------------------------------------

// MockContext owns the mocked subsystems and hands out Context values for
// entry points under test.
type MockContext struct {
	Storage    *Storage
	Blockchain *Blockchain
}

// NewMockContext builds a context over a fresh in-memory region of
// storageSize bytes and an empty blockchain mock.
func NewMockContext(storageSize uint32) *MockContext {
	lg := logrus.New()
	lg.SetLevel(logrus.WarnLevel)
	return &MockContext{
		Storage:    NewStorage(NewMockStorage(storageSize), lg),
		Blockchain: NewBlockchain(NewMockBlockchain()),
	}
}

// Context returns the aggregation passed to contract entry points.
func (m *MockContext) Context() *Context {
	return &Context{Storage: m.Storage, Blockchain: m.Blockchain}
}

// MockedStorage downcasts the storage backing to the mock.
func (m *MockContext) MockedStorage() *MockStorage {
	return m.Storage.API().(*MockStorage)
}

// MockedBlockchain downcasts the blockchain backing to the mock.
func (m *MockContext) MockedBlockchain() *MockBlockchain {
	return m.Blockchain.API().(*MockBlockchain)
}
