package core

import (
	"bytes"
	"math/big"
	"sort"
)

// LightVM is the default bytecode interpreter: a small stack machine whose
// instruction set is deliberately narrow (see vm_opcodes.go) because
// contract logic is expected to live mostly behind capability calls rather
// than in hand-written arithmetic loops.
type LightVM struct{}

// Event field value tags, the wire shape a contract pushes an emit() field
// value in: the first byte selects how the remainder normalizes per
// spec.md §4.D.4, since the stack machine only ever holds raw byte strings.
const (
	eventTagBytes   = 0x00
	eventTagBool    = 0x01
	eventTagUint    = 0x02
	eventTagNegInt  = 0x03
)

// normalizeEventValue applies the deterministic event-field normalization:
// bool collapses to a single 0x01/0x00 byte, a non-negative int collapses to
// its minimal big-endian magnitude (zero encodes as a single 0x00 byte),
// bytes pass through unchanged, and a negative int is rejected outright.
func normalizeEventValue(tagged []byte) ([]byte, error) {
	if len(tagged) == 0 {
		return nil, NewCodedError(CodeInvalid, "empty tagged event field value")
	}
	tag, raw := tagged[0], tagged[1:]
	switch tag {
	case eventTagBytes:
		return append([]byte(nil), raw...), nil
	case eventTagBool:
		return boolBytes(!isZero(raw)), nil
	case eventTagUint:
		n := bigFrom(raw)
		if n.Sign() == 0 {
			return []byte{0x00}, nil
		}
		return n.Bytes(), nil
	case eventTagNegInt:
		return nil, NewCodedError(CodeInvalid, "negative int event field value is not allowed")
	default:
		return nil, NewCodedError(CodeInvalid, "unknown event field value tag")
	}
}

// sortEventFields orders fields by key, the canonical order a Log's Fields
// are always stored and persisted in.
func sortEventFields(fields []EventField) {
	sort.Slice(fields, func(i, j int) bool {
		return bytes.Compare(fields[i].Key, fields[j].Key) < 0
	})
}

type interpState struct {
	stack [][]byte
}

func (s *interpState) push(b []byte) { s.stack = append(s.stack, b) }

func (s *interpState) pop() ([]byte, error) {
	if len(s.stack) == 0 {
		return nil, NewCodedError(CodeInvalid, "stack underflow")
	}
	v := s.stack[len(s.stack)-1]
	s.stack = s.stack[:len(s.stack)-1]
	return v, nil
}

func bigFrom(b []byte) *big.Int { return new(big.Int).SetBytes(b) }

func padTo(a, b []byte) ([]byte, []byte) {
	n := len(a)
	if len(b) > n {
		n = len(b)
	}
	pa := make([]byte, n)
	copy(pa[n-len(a):], a)
	pb := make([]byte, n)
	copy(pb[n-len(b):], b)
	return pa, pb
}

func boolBytes(v bool) []byte {
	if v {
		return []byte{0x01}
	}
	return []byte{0x00}
}

func isZero(b []byte) bool {
	for _, x := range b {
		if x != 0 {
			return false
		}
	}
	return true
}

// Execute runs code against ctx until it returns, reverts, runs out of gas
// or hits a malformed instruction stream.
func (vm *LightVM) Execute(code []byte, ctx *VMContext) (*ExecResult, error) {
	st := &interpState{}
	pc := 0
	for pc < len(code) {
		op := Opcode(code[pc])
		pc++
		if err := ctx.GasMeter.ConsumeOpcode(op); err != nil {
			return nil, err
		}
		switch op {
		case OpStop:
			return &ExecResult{}, nil

		case OpPush:
			if pc >= len(code) {
				return nil, NewCodedError(CodeBadCBOR, "truncated PUSH")
			}
			l := int(code[pc])
			pc++
			if pc+l > len(code) {
				return nil, NewCodedError(CodeBadCBOR, "PUSH operand out of bounds")
			}
			st.push(append([]byte(nil), code[pc:pc+l]...))
			pc += l

		case OpPop:
			if _, err := st.pop(); err != nil {
				return nil, err
			}

		case OpDup:
			top, err := st.pop()
			if err != nil {
				return nil, err
			}
			st.push(top)
			st.push(append([]byte(nil), top...))

		case OpSwap:
			a, err := st.pop()
			if err != nil {
				return nil, err
			}
			b, err := st.pop()
			if err != nil {
				return nil, err
			}
			st.push(a)
			st.push(b)

		case OpAdd, OpSub, OpMul, OpDiv, OpMod:
			a, err := st.pop()
			if err != nil {
				return nil, err
			}
			b, err := st.pop()
			if err != nil {
				return nil, err
			}
			x, y := bigFrom(a), bigFrom(b)
			var r big.Int
			switch op {
			case OpAdd:
				r.Add(x, y)
			case OpSub:
				r.Sub(x, y)
				if r.Sign() < 0 {
					return nil, NewCodedError(CodeInvalid, "SUB underflow")
				}
			case OpMul:
				r.Mul(x, y)
			case OpDiv:
				if y.Sign() == 0 {
					return nil, NewCodedError(CodeInvalid, "division by zero")
				}
				r.Div(x, y)
			case OpMod:
				if y.Sign() == 0 {
					return nil, NewCodedError(CodeInvalid, "modulo by zero")
				}
				r.Mod(x, y)
			}
			st.push(r.Bytes())

		case OpAnd, OpOr, OpXor:
			a, err := st.pop()
			if err != nil {
				return nil, err
			}
			b, err := st.pop()
			if err != nil {
				return nil, err
			}
			pa, pb := padTo(a, b)
			out := make([]byte, len(pa))
			for i := range out {
				switch op {
				case OpAnd:
					out[i] = pa[i] & pb[i]
				case OpOr:
					out[i] = pa[i] | pb[i]
				case OpXor:
					out[i] = pa[i] ^ pb[i]
				}
			}
			st.push(out)

		case OpNot:
			a, err := st.pop()
			if err != nil {
				return nil, err
			}
			out := make([]byte, len(a))
			for i := range a {
				out[i] = ^a[i]
			}
			st.push(out)

		case OpLt, OpGt, OpEq:
			a, err := st.pop()
			if err != nil {
				return nil, err
			}
			b, err := st.pop()
			if err != nil {
				return nil, err
			}
			x, y := bigFrom(a), bigFrom(b)
			cmp := x.Cmp(y)
			switch op {
			case OpLt:
				st.push(boolBytes(cmp < 0))
			case OpGt:
				st.push(boolBytes(cmp > 0))
			case OpEq:
				st.push(boolBytes(cmp == 0))
			}

		case OpJump:
			dest, err := st.pop()
			if err != nil {
				return nil, err
			}
			target := int(bigFrom(dest).Int64())
			if target < 0 || target > len(code) {
				return nil, NewCodedError(CodeInvalid, "jump target out of bounds")
			}
			pc = target

		case OpJumpI:
			dest, err := st.pop()
			if err != nil {
				return nil, err
			}
			cond, err := st.pop()
			if err != nil {
				return nil, err
			}
			if !isZero(cond) {
				target := int(bigFrom(dest).Int64())
				if target < 0 || target > len(code) {
					return nil, NewCodedError(CodeInvalid, "jump target out of bounds")
				}
				pc = target
			}

		case OpSLoad:
			key, err := st.pop()
			if err != nil {
				return nil, err
			}
			v, _ := ctx.State.GetStorage(ctx.Contract, key)
			st.push(append([]byte(nil), v...))

		case OpSStore:
			key, err := st.pop()
			if err != nil {
				return nil, err
			}
			val, err := st.pop()
			if err != nil {
				return nil, err
			}
			if err := ctx.GasMeter.Consume(uint64(len(val)) * GasDataNonzero); err != nil {
				return nil, err
			}
			if err := ctx.State.SetStorage(ctx.Contract, key, val); err != nil {
				return nil, err
			}

		case OpLog:
			// emit(name, fields): pop name, then a field count, then that
			// many (key, tagged value) pairs. Field order on the stack
			// doesn't matter: fields are always sorted by key before they
			// land on the Log, and only that sorted form is ever observed.
			name, err := st.pop()
			if err != nil {
				return nil, err
			}
			countB, err := st.pop()
			if err != nil {
				return nil, err
			}
			count := int(bigFrom(countB).Int64())
			if count < 0 {
				return nil, NewCodedError(CodeInvalid, "negative emit field count")
			}
			fields := make([]EventField, 0, count)
			gasBytes := uint64(len(name))
			for i := 0; i < count; i++ {
				key, err := st.pop()
				if err != nil {
					return nil, err
				}
				tagged, err := st.pop()
				if err != nil {
					return nil, err
				}
				val, err := normalizeEventValue(tagged)
				if err != nil {
					return nil, err
				}
				gasBytes += uint64(len(key)) + uint64(len(val))
				fields = append(fields, EventField{Key: key, Value: val})
			}
			if err := ctx.GasMeter.Consume(gasBytes * GasDataNonzero); err != nil {
				return nil, err
			}
			sortEventFields(fields)
			ctx.State.AddLog(Log{Address: ctx.Contract, Name: name, Fields: fields})

		case OpHash:
			data, err := st.pop()
			if err != nil {
				return nil, err
			}
			st.push(hashSha3256(data))

		case OpCapabilityOp:
			nameB, err := st.pop()
			if err != nil {
				return nil, err
			}
			input, err := st.pop()
			if err != nil {
				return nil, err
			}
			name := string(nameB)
			if !declaredCapabilitySet(ctx.Manifest)[name] {
				return nil, NewCodedError(CodeForbiddenCap, "capability not declared in manifest: "+name)
			}
			out, gasCost, err := dispatchCapability(ctx, name, input)
			if err != nil {
				return nil, err
			}
			if err := ctx.GasMeter.Consume(gasCost); err != nil {
				return nil, err
			}
			st.push(out)

		case OpCall:
			addrB, err := st.pop()
			if err != nil {
				return nil, err
			}
			input, err := st.pop()
			if err != nil {
				return nil, err
			}
			addr, err := AddressFromBytes(addrB)
			if err != nil {
				return nil, err
			}
			sub, err := vm.call(ctx, addr, input)
			if err != nil {
				return nil, err
			}
			st.push(sub)

		case OpReturn:
			data, err := st.pop()
			if err != nil {
				return nil, err
			}
			return &ExecResult{ReturnData: data, Logs: ctx.State.TakeLogs()}, nil

		case OpRevert:
			data, err := st.pop()
			if err != nil {
				return nil, err
			}
			return &ExecResult{Reverted: true, RevertMsg: string(data)}, nil

		default:
			return nil, NewCodedError(CodeBadKind, "unknown opcode: "+op.String())
		}
	}
	return &ExecResult{Logs: ctx.State.TakeLogs()}, nil
}

// call invokes an already-deployed contract from within another execution,
// sharing the caller's gas meter and state so nested calls cannot mint gas
// or escape the enclosing transaction's atomicity.
func (vm *LightVM) call(ctx *VMContext, to Address, input []byte) ([]byte, error) {
	code := ctx.State.GetCode(to)
	manifest := ctx.State.GetManifest(to)
	if manifest == nil {
		manifest = &Manifest{Tier: TierLight}
	}
	sub := &VMContext{
		ChainID:      ctx.ChainID,
		Sender:       ctx.Contract,
		Contract:     to,
		Input:        input,
		GasMeter:     ctx.GasMeter,
		State:        ctx.State,
		Capabilities: ctx.Capabilities,
		Manifest:     manifest,
		Syscalls:     ctx.Syscalls,
		BlockHeight:  ctx.BlockHeight,
		TxHash:       ctx.TxHash,
		TxSender:     ctx.TxSender,
		randCounter:  ctx.randCounter,
	}
	res, err := vm.Execute(code, sub)
	if err != nil {
		return nil, err
	}
	if res.Reverted {
		return nil, NewCodedError(CodeRevert, res.RevertMsg)
	}
	return res.ReturnData, nil
}
