package core

// Gas schedule for host calls made by WASM contracts. Gas is charged before
// the host call executes; the numbers reflect the relative storage and CPU
// cost of each operation.

import "fmt"

// HostOp identifies a host call for gas pricing.
type HostOp uint32

const (
	OpStorageRead HostOp = iota
	OpStorageWrite
	OpStorageAllocate
	OpStackRead
	OpStackFill
	OpGetParam
)

// DefaultGasCost is charged for any host op missing from the table. The value
// is deliberately punitive.
const DefaultGasCost uint64 = 10_000

var gasTable = map[HostOp]uint64{
	OpStorageRead:     30,
	OpStorageWrite:    100,
	OpStorageAllocate: 200,
	OpStackRead:       30,
	OpStackFill:       100,
	OpGetParam:        20,
}

// GasCost returns the base gas cost for a host op.
func GasCost(op HostOp) uint64 {
	if c, ok := gasTable[op]; ok {
		return c
	}
	return DefaultGasCost
}

// GasMeter tracks gas usage and enforces the invocation gas limit.
type GasMeter struct {
	used  uint64 // gas consumed so far
	limit uint64 // total gas available
}

// NewGasMeter returns a meter with the given limit.
func NewGasMeter(limit uint64) *GasMeter {
	return &GasMeter{used: 0, limit: limit}
}

// Consume charges the base cost of op, failing once the limit is crossed.
func (g *GasMeter) Consume(op HostOp) error {
	c := GasCost(op)
	if g.used+c > g.limit {
		return fmt.Errorf("out-of-gas (%d/%d)", g.used+c, g.limit)
	}
	g.used += c
	return nil
}

// Used returns the gas consumed so far.
func (g *GasMeter) Used() uint64 { return g.used }

// Remaining returns the gas still available.
func (g *GasMeter) Remaining() uint64 { return g.limit - g.used }
