package core

// Contract entry surface. A contract exposes exactly three entry points:
// instantiate runs once at creation and is the only place top-level
// containers may be created and published to the root stack; process and
// query always load containers from published slots. The host serializes
// invocations and treats each one's storage mutations as a single commit.

import "fmt"

// Entry names the contract entry point an invocation targets.
type Entry string

const (
	EntryInstantiate Entry = "instantiate"
	EntryProcess     Entry = "process"
	EntryQuery       Entry = "query"
)

// Contract is the interface a native (host-side) contract implements.
// Messages arrive as raw bytes; the contract owns their encoding.
type Contract interface {
	// Instantiate creates the contract's top-level containers and
	// publishes their offsets to the root stack.
	Instantiate(ctx *Context, msg []byte) ([]byte, error)

	// Process executes a state-mutating message.
	Process(ctx *Context, msg []byte) ([]byte, error)

	// Query answers a read-only message.
	Query(ctx *Context, msg []byte) ([]byte, error)
}

// Dispatch routes an invocation to the named entry point.
func Dispatch(c Contract, ctx *Context, entry Entry, msg []byte) ([]byte, error) {
	switch entry {
	case EntryInstantiate:
		return c.Instantiate(ctx, msg)
	case EntryProcess:
		return c.Process(ctx, msg)
	case EntryQuery:
		return c.Query(ctx, msg)
	default:
		return nil, fmt.Errorf("unknown entry point %q", entry)
	}
}

// Receipt is the outcome of a contract invocation.
type Receipt struct {
	Status     bool   `json:"status"`
	GasUsed    uint64 `json:"gas_used"`
	ReturnData []byte `json:"return_data,omitempty"`
	Error      string `json:"error,omitempty"`
}
