package core

import (
	"github.com/wasmerio/wasmer-go/wasmer"
)

// HeavyVM runs a manifest-declared WASM module through wasmer-go. It is the
// only tier that accepts an arbitrary guest-compiled module; the host
// surface it exposes is intentionally the same three primitives the light
// interpreter gets for free (storage, capability calls, logging), so a
// manifest's declared capability set means the same thing under either
// tier.
type HeavyVM struct {
	engine *wasmer.Engine
}

// NewHeavyVM constructs the wasmer-backed tier.
func NewHeavyVM() (*HeavyVM, error) {
	return &HeavyVM{engine: wasmer.NewEngine()}, nil
}

type heavyHost struct {
	mem *wasmer.Memory
	ctx *VMContext
	res *ExecResult
}

func (vm *HeavyVM) Execute(code []byte, ctx *VMContext) (*ExecResult, error) {
	store := wasmer.NewStore(vm.engine)
	mod, err := wasmer.NewModule(store, code)
	if err != nil {
		return nil, WrapCoded(CodeBadCBOR, "invalid wasm module", err)
	}

	res := &ExecResult{}
	host := &heavyHost{ctx: ctx, res: res}
	imports := vm.registerHost(store, host)

	instance, err := wasmer.NewInstance(mod, imports)
	if err != nil {
		return nil, WrapCoded(CodeInvalid, "wasm instantiation failed", err)
	}
	mem, err := instance.Exports.GetMemory("memory")
	if err != nil {
		return nil, NewCodedError(CodeInvalid, "wasm module must export linear memory")
	}
	host.mem = mem

	start, err := instance.Exports.GetFunction("_start")
	if err != nil {
		return nil, NewCodedError(CodeInvalid, "wasm module must export _start")
	}
	if _, err := start(); err != nil {
		return &ExecResult{Reverted: true, RevertMsg: err.Error()}, nil
	}
	res.Logs = ctx.State.TakeLogs()
	return res, nil
}

func (h *heavyHost) read(ptr, ln int32) []byte {
	data := h.mem.Data()
	out := make([]byte, ln)
	copy(out, data[ptr:ptr+ln])
	return out
}

func (h *heavyHost) write(ptr int32, data []byte) {
	copy(h.mem.Data()[ptr:], data)
}

// registerHost exposes host_consume_gas, host_capability_call, host_sload,
// host_sstore and host_log to the guest module, grounded on the same
// import-object wiring style used for the interpreter's built-in opcodes.
func (vm *HeavyVM) registerHost(store *wasmer.Store, h *heavyHost) *wasmer.ImportObject {
	imports := wasmer.NewImportObject()
	i32 := wasmer.NewValueTypes(wasmer.I32)
	i32x4 := wasmer.NewValueTypes(wasmer.I32, wasmer.I32, wasmer.I32, wasmer.I32)
	i32Ret := wasmer.NewValueTypes(wasmer.I32)
	noRet := wasmer.NewValueTypes()

	hostConsumeGas := wasmer.NewFunction(store, wasmer.NewFunctionType(i32, i32Ret),
		func(args []wasmer.Value) ([]wasmer.Value, error) {
			amt := uint64(args[0].I32())
			if err := h.ctx.GasMeter.Consume(amt); err != nil {
				return []wasmer.Value{wasmer.NewI32(-1)}, nil
			}
			return []wasmer.Value{wasmer.NewI32(0)}, nil
		})

	hostSLoad := wasmer.NewFunction(store, wasmer.NewFunctionType(
		wasmer.NewValueTypes(wasmer.I32, wasmer.I32, wasmer.I32), i32Ret),
		func(args []wasmer.Value) ([]wasmer.Value, error) {
			kPtr, kLen, dPtr := args[0].I32(), args[1].I32(), args[2].I32()
			key := h.read(kPtr, kLen)
			val, ok := h.ctx.State.GetStorage(h.ctx.Contract, key)
			if !ok {
				return []wasmer.Value{wasmer.NewI32(-1)}, nil
			}
			h.write(dPtr, val)
			return []wasmer.Value{wasmer.NewI32(int32(len(val)))}, nil
		})

	hostSStore := wasmer.NewFunction(store, wasmer.NewFunctionType(i32x4, i32Ret),
		func(args []wasmer.Value) ([]wasmer.Value, error) {
			kPtr, kLen, vPtr, vLen := args[0].I32(), args[1].I32(), args[2].I32(), args[3].I32()
			key := h.read(kPtr, kLen)
			val := h.read(vPtr, vLen)
			if err := h.ctx.State.SetStorage(h.ctx.Contract, key, val); err != nil {
				return []wasmer.Value{wasmer.NewI32(-1)}, nil
			}
			return []wasmer.Value{wasmer.NewI32(0)}, nil
		})

	hostLog := wasmer.NewFunction(store, wasmer.NewFunctionType(i32x4, noRet),
		func(args []wasmer.Value) ([]wasmer.Value, error) {
			namePtr, nameLen, dataPtr, dataLen := args[0].I32(), args[1].I32(), args[2].I32(), args[3].I32()
			name := h.read(namePtr, nameLen)
			data := h.read(dataPtr, dataLen)
			h.ctx.State.AddLog(Log{
				Address: h.ctx.Contract,
				Name:    name,
				Fields:  []EventField{{Key: []byte("data"), Value: data}},
			})
			return []wasmer.Value{}, nil
		})

	hostCapabilityCall := wasmer.NewFunction(store, wasmer.NewFunctionType(
		wasmer.NewValueTypes(wasmer.I32, wasmer.I32, wasmer.I32, wasmer.I32, wasmer.I32), i32Ret),
		func(args []wasmer.Value) ([]wasmer.Value, error) {
			namePtr, nameLen := args[0].I32(), args[1].I32()
			inPtr, inLen := args[2].I32(), args[3].I32()
			outPtr := args[4].I32()
			name := string(h.read(namePtr, nameLen))
			if !declaredCapabilitySet(h.ctx.Manifest)[name] {
				return []wasmer.Value{wasmer.NewI32(-1)}, nil
			}
			out, gasCost, err := dispatchCapability(h.ctx, name, h.read(inPtr, inLen))
			if err != nil {
				return []wasmer.Value{wasmer.NewI32(-1)}, nil
			}
			if err := h.ctx.GasMeter.Consume(gasCost); err != nil {
				return []wasmer.Value{wasmer.NewI32(-1)}, nil
			}
			h.write(outPtr, out)
			return []wasmer.Value{wasmer.NewI32(int32(len(out)))}, nil
		})

	imports.Register("env", map[string]wasmer.IntoExtern{
		"host_consume_gas":     hostConsumeGas,
		"host_sload":           hostSLoad,
		"host_sstore":          hostSStore,
		"host_log":             hostLog,
		"host_capability_call": hostCapabilityCall,
	})
	return imports
}
