package core

// Host-side WASM runtime. Contracts compiled to WASM import the storage and
// blockchain capabilities registered here; the runtime compiles the module
// with Wasmer, wires the imports against a Storage/Blockchain pair, and calls
// one of the three exported entry points per invocation.
//
// Guest ABI (namespace "env"):
//   storage_read(offset, ptr, len)  -> i32   0 | -1
//   storage_write(offset, ptr, len) -> i32   0 | -1
//   storage_allocate(len)           -> i64   offset | -1
//   stack_read(index)               -> i64   offset | -1
//   stack_fill(index, offset)       -> i32   0 | -1
//   get_param(id, dst_ptr)          -> i32   length | -1
//   set_return(ptr, len)            -> i32   0
//
// The guest must export `memory`, an `allocate(size) -> ptr` helper for the
// message buffer, and the entry functions `instantiate`, `process`, `query`,
// each taking (msg_ptr, msg_len) and returning an i32 status (0 = ok).

import (
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"
	"github.com/wasmerio/wasmer-go/wasmer"
)

// Runtime executes contract WASM against a storage region and a blockchain
// backing. One Runtime serves one contract binary; each Execute call is one
// invocation.
type Runtime struct {
	engine     *wasmer.Engine
	storage    *Storage
	blockchain *Blockchain
	gasLimit   uint64
	logger     *logrus.Logger
}

// NewRuntime wires a Runtime over the given subsystems.
func NewRuntime(storage *Storage, blockchain *Blockchain, gasLimit uint64, lg *logrus.Logger) *Runtime {
	if lg == nil {
		lg = logrus.StandardLogger()
	}
	return &Runtime{
		engine:     wasmer.NewEngine(),
		storage:    storage,
		blockchain: blockchain,
		gasLimit:   gasLimit,
		logger:     lg,
	}
}

// vmCtx carries the per-invocation state shared by the host closures.
type vmCtx struct {
	mem        *wasmer.Memory
	storage    *Storage
	blockchain *Blockchain
	gas        *GasMeter
	rec        *Receipt
}

// Execute runs one invocation of the given entry point with msg as the
// message payload. A false Status on the returned receipt means the guest
// trapped or reported an error; the caller must then discard the region's
// mutations instead of committing them.
func (r *Runtime) Execute(code []byte, entry Entry, msg []byte) (*Receipt, error) {
	rec := &Receipt{Status: true}

	store := wasmer.NewStore(r.engine)
	mod, err := wasmer.NewModule(store, code)
	if err != nil {
		return nil, fmt.Errorf("compile contract: %w", err)
	}

	hctx := &vmCtx{
		storage:    r.storage,
		blockchain: r.blockchain,
		gas:        NewGasMeter(r.gasLimit),
		rec:        rec,
	}
	imports := registerHost(store, hctx)

	instance, err := wasmer.NewInstance(mod, imports)
	if err != nil {
		return nil, fmt.Errorf("instantiate contract: %w", err)
	}

	mem, err := instance.Exports.GetMemory("memory")
	if err != nil {
		return nil, errors.New("wasm memory export missing")
	}
	hctx.mem = mem

	msgPtr, err := copyMessage(instance, mem, msg)
	if err != nil {
		return nil, err
	}

	entryFn, err := instance.Exports.GetFunction(string(entry))
	if err != nil {
		return nil, fmt.Errorf("entry %q not exported", entry)
	}
	ret, err := entryFn(msgPtr, int32(len(msg)))
	if err != nil {
		rec.Status = false
		rec.Error = err.Error()
	} else if status, ok := ret.(int32); ok && status != 0 {
		rec.Status = false
		rec.Error = fmt.Sprintf("contract returned status %d", status)
	}

	rec.GasUsed = hctx.gas.Used()
	r.logger.Debugf("vm: %s finished, status=%v gas=%d", entry, rec.Status, rec.GasUsed)
	return rec, nil
}

// copyMessage places msg into guest memory via the exported allocator and
// returns the guest pointer.
func copyMessage(instance *wasmer.Instance, mem *wasmer.Memory, msg []byte) (int32, error) {
	allocate, err := instance.Exports.GetFunction("allocate")
	if err != nil {
		return 0, errors.New("allocate export missing")
	}
	raw, err := allocate(int32(len(msg)))
	if err != nil {
		return 0, fmt.Errorf("guest allocate: %w", err)
	}
	ptr, ok := raw.(int32)
	if !ok {
		return 0, errors.New("guest allocate returned a non-i32")
	}
	copy(mem.Data()[ptr:], msg)
	return ptr, nil
}

// registerHost converts the storage and blockchain capabilities into Wasm
// imports under the "env" namespace.
func registerHost(store *wasmer.Store, h *vmCtx) *wasmer.ImportObject {
	imports := wasmer.NewImportObject()

	read := func(ptr, ln int32) []byte {
		out := make([]byte, ln)
		copy(out, h.mem.Data()[ptr:ptr+ln])
		return out
	}
	write := func(ptr int32, data []byte) { copy(h.mem.Data()[ptr:], data) }

	i32 := wasmer.ValueKind(wasmer.I32)
	i64 := wasmer.ValueKind(wasmer.I64)

	fail32 := func() []wasmer.Value { return []wasmer.Value{wasmer.NewI32(-1)} }
	fail64 := func() []wasmer.Value { return []wasmer.Value{wasmer.NewI64(int64(-1))} }

	// storage_read(offset, ptr, len) -> i32
	storageRead := wasmer.NewFunction(
		store,
		wasmer.NewFunctionType(
			wasmer.NewValueTypes(i32, i32, i32),
			wasmer.NewValueTypes(i32),
		),
		func(args []wasmer.Value) ([]wasmer.Value, error) {
			if err := h.gas.Consume(OpStorageRead); err != nil {
				return fail32(), nil
			}
			offset, ptr, ln := uint32(args[0].I32()), args[1].I32(), uint32(args[2].I32())
			data, err := h.storage.ReadBytes(offset, ln)
			if err != nil {
				return fail32(), nil
			}
			write(ptr, data)
			return []wasmer.Value{wasmer.NewI32(0)}, nil
		},
	)

	// storage_write(offset, ptr, len) -> i32
	storageWrite := wasmer.NewFunction(
		store,
		wasmer.NewFunctionType(
			wasmer.NewValueTypes(i32, i32, i32),
			wasmer.NewValueTypes(i32),
		),
		func(args []wasmer.Value) ([]wasmer.Value, error) {
			if err := h.gas.Consume(OpStorageWrite); err != nil {
				return fail32(), nil
			}
			offset, ptr, ln := uint32(args[0].I32()), args[1].I32(), args[2].I32()
			if err := h.storage.WriteBytes(offset, read(ptr, ln)); err != nil {
				return fail32(), nil
			}
			return []wasmer.Value{wasmer.NewI32(0)}, nil
		},
	)

	// storage_allocate(len) -> i64
	storageAllocate := wasmer.NewFunction(
		store,
		wasmer.NewFunctionType(
			wasmer.NewValueTypes(i32),
			wasmer.NewValueTypes(i64),
		),
		func(args []wasmer.Value) ([]wasmer.Value, error) {
			if err := h.gas.Consume(OpStorageAllocate); err != nil {
				return fail64(), nil
			}
			offset, err := h.storage.Allocate(uint32(args[0].I32()))
			if err != nil {
				return fail64(), nil
			}
			return []wasmer.Value{wasmer.NewI64(int64(offset))}, nil
		},
	)

	// stack_read(index) -> i64
	stackRead := wasmer.NewFunction(
		store,
		wasmer.NewFunctionType(
			wasmer.NewValueTypes(i32),
			wasmer.NewValueTypes(i64),
		),
		func(args []wasmer.Value) ([]wasmer.Value, error) {
			if err := h.gas.Consume(OpStackRead); err != nil {
				return fail64(), nil
			}
			offset, err := h.storage.ReadStackAt(uint32(args[0].I32()))
			if err != nil {
				return fail64(), nil
			}
			return []wasmer.Value{wasmer.NewI64(int64(offset))}, nil
		},
	)

	// stack_fill(index, offset) -> i32
	stackFill := wasmer.NewFunction(
		store,
		wasmer.NewFunctionType(
			wasmer.NewValueTypes(i32, i32),
			wasmer.NewValueTypes(i32),
		),
		func(args []wasmer.Value) ([]wasmer.Value, error) {
			if err := h.gas.Consume(OpStackFill); err != nil {
				return fail32(), nil
			}
			if err := h.storage.FillStackAt(uint32(args[0].I32()), uint32(args[1].I32())); err != nil {
				return fail32(), nil
			}
			return []wasmer.Value{wasmer.NewI32(0)}, nil
		},
	)

	// get_param(id, dst_ptr) -> i32 (length written, or -1)
	getParam := wasmer.NewFunction(
		store,
		wasmer.NewFunctionType(
			wasmer.NewValueTypes(i32, i32),
			wasmer.NewValueTypes(i32),
		),
		func(args []wasmer.Value) ([]wasmer.Value, error) {
			if err := h.gas.Consume(OpGetParam); err != nil {
				return fail32(), nil
			}
			raw, err := h.blockchain.GetParam(uint32(args[0].I32()))
			if err != nil {
				return fail32(), nil
			}
			write(args[1].I32(), raw)
			return []wasmer.Value{wasmer.NewI32(int32(len(raw)))}, nil
		},
	)

	// set_return(ptr, len) -> i32
	setReturn := wasmer.NewFunction(
		store,
		wasmer.NewFunctionType(
			wasmer.NewValueTypes(i32, i32),
			wasmer.NewValueTypes(i32),
		),
		func(args []wasmer.Value) ([]wasmer.Value, error) {
			h.rec.ReturnData = read(args[0].I32(), args[1].I32())
			return []wasmer.Value{wasmer.NewI32(0)}, nil
		},
	)

	imports.Register("env", map[string]wasmer.IntoExtern{
		"storage_read":     storageRead,
		"storage_write":    storageWrite,
		"storage_allocate": storageAllocate,
		"stack_read":       stackRead,
		"stack_fill":       stackFill,
		"get_param":        getParam,
		"set_return":       setReturn,
	})

	return imports
}
