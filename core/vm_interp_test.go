package core

import (
	"bytes"
	"testing"
)

func newTestContext(state StateRW, caps CapabilityProvider, gasLimit uint64) *VMContext {
	var contract Address
	contract[0] = 0x55
	return &VMContext{
		ChainID:      1,
		Contract:     contract,
		GasMeter:     NewGasMeter(gasLimit),
		State:        state,
		Capabilities: caps,
		Manifest:     &Manifest{Tier: TierLight},
	}
}

func push(b byte, data []byte) []byte {
	out := []byte{b, byte(len(data))}
	return append(out, data...)
}

func TestLightVMAddAndReturn(t *testing.T) {
	vm := &LightVM{}
	state := NewMemoryState()
	ctx := newTestContext(state, NewInMemoryCapabilities(), 1_000_000)

	var code []byte
	code = append(code, push(byte(OpPush), []byte{2})...)
	code = append(code, push(byte(OpPush), []byte{3})...)
	code = append(code, byte(OpAdd))
	code = append(code, byte(OpReturn))

	res, err := vm.Execute(code, ctx)
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if res.Reverted {
		t.Fatalf("unexpected revert: %s", res.RevertMsg)
	}
	if len(res.ReturnData) == 0 || res.ReturnData[len(res.ReturnData)-1] != 5 {
		t.Fatalf("expected ADD(2,3)=5, got % x", res.ReturnData)
	}
}

func TestLightVMSStoreSLoadRoundTrip(t *testing.T) {
	vm := &LightVM{}
	state := NewMemoryState()
	ctx := newTestContext(state, NewInMemoryCapabilities(), 1_000_000)

	var code []byte
	code = append(code, push(byte(OpPush), []byte("hello"))...) // value
	code = append(code, push(byte(OpPush), []byte("k"))...)     // key
	code = append(code, byte(OpSStore))
	code = append(code, push(byte(OpPush), []byte("k"))...) // key again
	code = append(code, byte(OpSLoad))
	code = append(code, byte(OpReturn))

	res, err := vm.Execute(code, ctx)
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if !bytes.Equal(res.ReturnData, []byte("hello")) {
		t.Fatalf("expected SLOAD to return %q, got %q", "hello", res.ReturnData)
	}
}

func TestLightVMRevert(t *testing.T) {
	vm := &LightVM{}
	state := NewMemoryState()
	ctx := newTestContext(state, NewInMemoryCapabilities(), 1_000_000)

	var code []byte
	code = append(code, push(byte(OpPush), []byte("nope"))...)
	code = append(code, byte(OpRevert))

	res, err := vm.Execute(code, ctx)
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if !res.Reverted || res.RevertMsg != "nope" {
		t.Fatalf("expected reverted with message 'nope', got %#v", res)
	}
}

func TestLightVMOutOfGas(t *testing.T) {
	vm := &LightVM{}
	state := NewMemoryState()
	ctx := newTestContext(state, NewInMemoryCapabilities(), 1) // not even enough for one ADD

	var code []byte
	code = append(code, push(byte(OpPush), []byte{1})...)
	code = append(code, push(byte(OpPush), []byte{1})...)
	code = append(code, byte(OpAdd))

	_, err := vm.Execute(code, ctx)
	if CodeOf(err) != CodeOutOfGas {
		t.Fatalf("expected OOG, got %v", err)
	}
}

func TestLightVMCapabilityCallRequiresDeclaration(t *testing.T) {
	vm := &LightVM{}
	state := NewMemoryState()
	ctx := newTestContext(state, NewInMemoryCapabilities(), 1_000_000)
	ctx.Manifest = &Manifest{Tier: TierLight} // no declared capabilities

	var code []byte
	code = append(code, push(byte(OpPush), []byte("input"))...)
	code = append(code, push(byte(OpPush), []byte(CapHashSha3256))...)
	code = append(code, byte(OpCapabilityOp))

	_, err := vm.Execute(code, ctx)
	if CodeOf(err) != CodeForbiddenCap {
		t.Fatalf("expected FORBIDDEN_CAPABILITY, got %v", err)
	}
}

func TestLightVMCapabilityCallSucceedsWhenDeclared(t *testing.T) {
	vm := &LightVM{}
	state := NewMemoryState()
	ctx := newTestContext(state, NewInMemoryCapabilities(), 1_000_000)
	ctx.Manifest = &Manifest{Tier: TierLight, Capabilities: []string{CapHashSha3256}}

	var code []byte
	code = append(code, push(byte(OpPush), []byte("input"))...)
	code = append(code, push(byte(OpPush), []byte(CapHashSha3256))...)
	code = append(code, byte(OpCapabilityOp))
	code = append(code, byte(OpReturn))

	res, err := vm.Execute(code, ctx)
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	want := hashSha3256([]byte("input"))
	if !bytes.Equal(res.ReturnData, want) {
		t.Fatalf("expected capability call to return the hash, got % x want % x", res.ReturnData, want)
	}
}

func TestLightVMEmitNamedEventWithFields(t *testing.T) {
	vm := &LightVM{}
	state := NewMemoryState()
	ctx := newTestContext(state, NewInMemoryCapabilities(), 1_000_000)

	// emit("Inc", {by: 5, value: 5}); the push order below is the reverse of
	// OpLog's pop order (name, count, then key/value pairs), since the stack
	// is LIFO.
	var code []byte
	code = append(code, push(byte(OpPush), []byte{eventTagUint, 5})...) // value's tagged value
	code = append(code, push(byte(OpPush), []byte("value"))...)
	code = append(code, push(byte(OpPush), []byte{eventTagUint, 5})...) // by's tagged value
	code = append(code, push(byte(OpPush), []byte("by"))...)
	code = append(code, push(byte(OpPush), []byte{2})...) // field count
	code = append(code, push(byte(OpPush), []byte("Inc"))...)
	code = append(code, byte(OpLog))
	code = append(code, byte(OpStop))

	if _, err := vm.Execute(code, ctx); err != nil {
		t.Fatalf("Execute: %v", err)
	}
	logs := state.TakeLogs()
	if len(logs) != 1 {
		t.Fatalf("expected 1 log, got %d", len(logs))
	}
	lg := logs[0]
	if string(lg.Name) != "Inc" {
		t.Fatalf("expected event name Inc, got %q", lg.Name)
	}
	if len(lg.Fields) != 2 {
		t.Fatalf("expected 2 fields, got %d", len(lg.Fields))
	}
	if string(lg.Fields[0].Key) != "by" || !bytes.Equal(lg.Fields[0].Value, []byte{5}) {
		t.Fatalf("expected fields[0]=by:5, got %q=% x", lg.Fields[0].Key, lg.Fields[0].Value)
	}
	if string(lg.Fields[1].Key) != "value" || !bytes.Equal(lg.Fields[1].Value, []byte{5}) {
		t.Fatalf("expected fields[1]=value:5, got %q=% x", lg.Fields[1].Key, lg.Fields[1].Value)
	}
}

func TestLightVMEmitSortsFieldsByKeyRegardlessOfPushOrder(t *testing.T) {
	vm := &LightVM{}
	state := NewMemoryState()
	ctx := newTestContext(state, NewInMemoryCapabilities(), 1_000_000)

	// Push "value" before "by" on the stack (reverse alphabetical order);
	// the stored Log must still carry fields sorted "by" < "value".
	var code []byte
	code = append(code, push(byte(OpPush), []byte{eventTagUint, 1})...)
	code = append(code, push(byte(OpPush), []byte("by"))...)
	code = append(code, push(byte(OpPush), []byte{eventTagUint, 2})...)
	code = append(code, push(byte(OpPush), []byte("value"))...)
	code = append(code, push(byte(OpPush), []byte{2})...)
	code = append(code, push(byte(OpPush), []byte("Inc"))...)
	code = append(code, byte(OpLog))
	code = append(code, byte(OpStop))

	if _, err := vm.Execute(code, ctx); err != nil {
		t.Fatalf("Execute: %v", err)
	}
	logs := state.TakeLogs()
	if string(logs[0].Fields[0].Key) != "by" || string(logs[0].Fields[1].Key) != "value" {
		t.Fatalf("expected fields sorted by key, got %q then %q", logs[0].Fields[0].Key, logs[0].Fields[1].Key)
	}
}

func TestSuperLightVMRejectsNonEmptyCode(t *testing.T) {
	vm := &SuperLightVM{}
	ctx := newTestContext(NewMemoryState(), NewInMemoryCapabilities(), 1_000)
	if _, err := vm.Execute([]byte{byte(OpStop)}, ctx); err == nil {
		t.Fatal("expected superlight tier to reject non-empty code")
	}
}

func TestSuperLightVMAcceptsEmptyCode(t *testing.T) {
	vm := &SuperLightVM{}
	ctx := newTestContext(NewMemoryState(), NewInMemoryCapabilities(), 1_000)
	res, err := vm.Execute(nil, ctx)
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if res.Reverted {
		t.Fatal("expected success")
	}
}
