package core

import "math/big"

// Capability names for the abi, treasury and syscalls modules (see
// vm_hash.go for the hash.* names). Together with "storage" and "events"
// these six module prefixes are the entire closed capability surface;
// vm_analyzer.go's validCapabilityName rejects anything outside this set at
// deploy time.
const (
	CapAbiRequire         = "abi.require"
	CapAbiRevert          = "abi.revert"
	CapAbiCaller          = "abi.caller"
	CapAbiSender          = "abi.sender"
	CapAbiBlockHeight     = "abi.block_height"
	CapAbiContractAddress = "abi.contract_address"
	CapAbiChainID         = "abi.chain_id"

	CapTreasuryBalance  = "treasury.balance"
	CapTreasuryTransfer = "treasury.transfer"

	CapSyscallBlobPin         = "syscalls.blob_pin"
	CapSyscallAiEnqueue       = "syscalls.ai_enqueue"
	CapSyscallQuantumEnqueue  = "syscalls.quantum_enqueue"
	CapSyscallReadResult      = "syscalls.read_result"
	CapSyscallZkVerify        = "syscalls.zk_verify"
	CapSyscallRandomBytes     = "syscalls.random_bytes"
)

// moduleCapabilityGas prices every abi/treasury/syscalls capability; hash.*
// pricing stays in builtinCapabilityGas (vm_syscalls.go) since that module
// still goes through CapabilityProvider.
var moduleCapabilityGas = map[string]uint64{
	CapAbiRequire:         200,
	CapAbiRevert:          100,
	CapAbiCaller:          50,
	CapAbiSender:          50,
	CapAbiBlockHeight:     50,
	CapAbiContractAddress: 50,
	CapAbiChainID:         50,

	CapTreasuryBalance:  400,
	CapTreasuryTransfer: 9_000,

	CapSyscallBlobPin:        2_000,
	CapSyscallAiEnqueue:      5_000,
	CapSyscallQuantumEnqueue: 5_000,
	CapSyscallReadResult:     500,
	CapSyscallZkVerify:       3_000,
	CapSyscallRandomBytes:    300,
}

// SyscallHost is the off-chain compute provider for the syscalls module
// (spec §4.D.6): durable task anchoring plus the two synchronous calls
// (blob_pin, zk_verify). core/vm_syscalls_mem.go supplies the in-memory,
// fully deterministic implementation this runtime wires by default.
type SyscallHost interface {
	BlobPin(ns uint64, data []byte) (commitment []byte, err error)
	Enqueue(chainID, blockHeight uint64, txHash Hash, caller Address, payload []byte) (taskID []byte, err error)
	ReadResult(taskID []byte, currentHeight uint64) (status, output []byte, err error)
	ZkVerify(circuit, proof, public []byte) (bool, error)
	RandomBytes(chainID, blockHeight uint64, txHash Hash, caller Address, counter uint64, n uint64) ([]byte, error)
}

// dispatchCapability is the single place that executes a CAPABILITY call
// once vm_analyzer.go/declaredCapabilitySet have already cleared the name.
// Both VM tiers (LightVM.Execute and HeavyVM's host_capability_call import)
// call this so a manifest's declared capability set behaves identically
// under either tier.
func dispatchCapability(ctx *VMContext, name string, input []byte) ([]byte, uint64, error) {
	switch {
	case name == CapHashSha3256 || name == CapHashSha3512 || name == CapHashKeccak256:
		return ctx.Capabilities.Call(name, input)
	case name == CapAbiRequire || name == CapAbiRevert || name == CapAbiCaller ||
		name == CapAbiSender || name == CapAbiBlockHeight || name == CapAbiContractAddress ||
		name == CapAbiChainID:
		return dispatchAbi(ctx, name, input)
	case name == CapTreasuryBalance || name == CapTreasuryTransfer:
		return dispatchTreasury(ctx, name, input)
	case name == CapSyscallBlobPin || name == CapSyscallAiEnqueue || name == CapSyscallQuantumEnqueue ||
		name == CapSyscallReadResult || name == CapSyscallZkVerify || name == CapSyscallRandomBytes:
		return dispatchSyscall(ctx, name, input)
	default:
		return nil, 0, NewCodedError(CodeForbiddenCap, "unknown capability: "+name)
	}
}

func dispatchAbi(ctx *VMContext, name string, input []byte) ([]byte, uint64, error) {
	gas := moduleCapabilityGas[name]
	switch name {
	case CapAbiRequire:
		args, err := lvDecode(input, 2)
		if err != nil {
			return nil, 0, err
		}
		cond, reason := args[0], args[1]
		if len(cond) == 0 || isZero(cond) {
			return nil, 0, NewCodedError(CodeRevert, string(reason))
		}
		return nil, gas, nil
	case CapAbiRevert:
		return nil, 0, NewCodedError(CodeRevert, string(input))
	case CapAbiCaller:
		return append([]byte(nil), ctx.Sender.Bytes()...), gas, nil
	case CapAbiSender:
		return append([]byte(nil), ctx.TxSender.Bytes()...), gas, nil
	case CapAbiBlockHeight:
		return uint64ToBytes(ctx.BlockHeight), gas, nil
	case CapAbiContractAddress:
		return append([]byte(nil), ctx.Contract.Bytes()...), gas, nil
	case CapAbiChainID:
		return uint64ToBytes(ctx.ChainID), gas, nil
	default:
		return nil, 0, NewCodedError(CodeForbiddenCap, "unknown abi capability: "+name)
	}
}

func dispatchTreasury(ctx *VMContext, name string, input []byte) ([]byte, uint64, error) {
	gas := moduleCapabilityGas[name]
	switch name {
	case CapTreasuryBalance:
		addr := ctx.Contract
		if len(input) > 0 {
			a, err := AddressFromBytes(input)
			if err != nil {
				return nil, 0, err
			}
			addr = a
		}
		bal := ctx.State.GetBalance(addr)
		out := bal.Bytes()
		if out == nil {
			out = []byte{0x00}
		}
		return out, gas, nil
	case CapTreasuryTransfer:
		args, err := lvDecode(input, 2)
		if err != nil {
			return nil, 0, err
		}
		to, err := AddressFromBytes(args[0])
		if err != nil {
			return nil, 0, err
		}
		amount, err := NewAmountFromBigEndian(args[1])
		if err != nil {
			return nil, 0, err
		}
		if err := ctx.State.Transfer(ctx.Contract, to, amount); err != nil {
			return nil, 0, err
		}
		return nil, gas, nil
	default:
		return nil, 0, NewCodedError(CodeForbiddenCap, "unknown treasury capability: "+name)
	}
}

func dispatchSyscall(ctx *VMContext, name string, input []byte) ([]byte, uint64, error) {
	if ctx.Syscalls == nil {
		return nil, 0, NewCodedError(CodeForbiddenCap, "no syscall host wired")
	}
	gas := moduleCapabilityGas[name]
	switch name {
	case CapSyscallBlobPin:
		args, err := lvDecode(input, 2)
		if err != nil {
			return nil, 0, err
		}
		ns := new(big.Int).SetBytes(args[0]).Uint64()
		commitment, err := ctx.Syscalls.BlobPin(ns, args[1])
		if err != nil {
			return nil, 0, err
		}
		return commitment, gas, nil

	case CapSyscallAiEnqueue, CapSyscallQuantumEnqueue:
		args, err := lvDecode(input, 2)
		if err != nil {
			return nil, 0, err
		}
		payload := lvEncode(args[0], args[1])
		taskID, err := ctx.Syscalls.Enqueue(ctx.ChainID, ctx.BlockHeight, ctx.TxHash, ctx.Contract, payload)
		if err != nil {
			return nil, 0, err
		}
		return taskID, gas, nil

	case CapSyscallReadResult:
		status, output, err := ctx.Syscalls.ReadResult(input, ctx.BlockHeight)
		if err != nil {
			return nil, 0, err
		}
		return lvEncode(status, output), gas, nil

	case CapSyscallZkVerify:
		args, err := lvDecode(input, 3)
		if err != nil {
			return nil, 0, err
		}
		ok, err := ctx.Syscalls.ZkVerify(args[0], args[1], args[2])
		if err != nil {
			return nil, 0, err
		}
		return boolBytes(ok), gas, nil

	case CapSyscallRandomBytes:
		args, err := lvDecode(input, 1)
		if err != nil {
			return nil, 0, err
		}
		n := new(big.Int).SetBytes(args[0]).Uint64()
		var counter uint64
		if ctx.randCounter != nil {
			counter = *ctx.randCounter
			*ctx.randCounter++
		}
		out, err := ctx.Syscalls.RandomBytes(ctx.ChainID, ctx.BlockHeight, ctx.TxHash, ctx.Contract, counter, n)
		if err != nil {
			return nil, 0, err
		}
		return out, gas, nil

	default:
		return nil, 0, NewCodedError(CodeForbiddenCap, "unknown syscall: "+name)
	}
}

// lvEncode concatenates parts as a sequence of 1-byte-length-prefixed
// segments, the wire shape every multi-argument capability call uses in
// place of the stack machine's single-blob CAPABILITY input. Each part must
// be under 256 bytes; every call site here respects that.
func lvEncode(parts ...[]byte) []byte {
	var out []byte
	for _, p := range parts {
		out = append(out, byte(len(p)))
		out = append(out, p...)
	}
	return out
}

// lvDecode splits input into exactly n length-prefixed segments, rejecting
// truncated input and trailing bytes.
func lvDecode(input []byte, n int) ([][]byte, error) {
	out := make([][]byte, 0, n)
	i := 0
	for len(out) < n {
		if i >= len(input) {
			return nil, NewCodedError(CodeBadLength, "truncated capability argument")
		}
		l := int(input[i])
		i++
		if i+l > len(input) {
			return nil, NewCodedError(CodeBadLength, "truncated capability argument")
		}
		out = append(out, input[i:i+l])
		i += l
	}
	if i != len(input) {
		return nil, NewCodedError(CodeBadLength, "trailing bytes in capability argument")
	}
	return out, nil
}

// uint64ToBytes renders v as fixed-width big-endian bytes, the shape the abi
// lookups (block_height, chain_id) return.
func uint64ToBytes(v uint64) []byte {
	b := make([]byte, 8)
	for i := 7; i >= 0; i-- {
		b[i] = byte(v)
		v >>= 8
	}
	return b
}
