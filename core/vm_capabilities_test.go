package core

import (
	"bytes"
	"testing"
)

func newCapTestCtx(state StateRW, syscalls SyscallHost) *VMContext {
	var contract, txSender Address
	contract[0] = 0x66
	txSender[0] = 0x77
	var counter uint64
	return &VMContext{
		ChainID:     7,
		Sender:      contract,
		Contract:    contract,
		GasMeter:    NewGasMeter(1_000_000),
		State:       state,
		Manifest:    &Manifest{Tier: TierLight},
		Syscalls:    syscalls,
		BlockHeight: 10,
		TxSender:    txSender,
		randCounter: &counter,
	}
}

func TestDispatchAbiRequirePassesOnNonZeroCondition(t *testing.T) {
	ctx := newCapTestCtx(NewMemoryState(), nil)
	input := lvEncode([]byte{1}, []byte("should not fire"))
	if _, _, err := dispatchAbi(ctx, CapAbiRequire, input); err != nil {
		t.Fatalf("expected require to pass, got %v", err)
	}
}

func TestDispatchAbiRequireRevertsOnZeroCondition(t *testing.T) {
	ctx := newCapTestCtx(NewMemoryState(), nil)
	input := lvEncode([]byte{0}, []byte("insufficient balance"))
	_, _, err := dispatchAbi(ctx, CapAbiRequire, input)
	if CodeOf(err) != CodeRevert || err.Error() != "REVERT: insufficient balance" {
		t.Fatalf("expected revert with reason, got %v", err)
	}
}

func TestDispatchAbiCallerSenderAndEnvelope(t *testing.T) {
	ctx := newCapTestCtx(NewMemoryState(), nil)
	out, _, err := dispatchAbi(ctx, CapAbiCaller, nil)
	if err != nil || !bytes.Equal(out, ctx.Sender.Bytes()) {
		t.Fatalf("abi.caller mismatch: %v %x", err, out)
	}
	out, _, err = dispatchAbi(ctx, CapAbiSender, nil)
	if err != nil || !bytes.Equal(out, ctx.TxSender.Bytes()) {
		t.Fatalf("abi.sender mismatch: %v %x", err, out)
	}
	out, _, err = dispatchAbi(ctx, CapAbiBlockHeight, nil)
	if err != nil || !bytes.Equal(out, uint64ToBytes(10)) {
		t.Fatalf("abi.block_height mismatch: %v %x", err, out)
	}
	out, _, err = dispatchAbi(ctx, CapAbiChainID, nil)
	if err != nil || !bytes.Equal(out, uint64ToBytes(7)) {
		t.Fatalf("abi.chain_id mismatch: %v %x", err, out)
	}
}

func TestDispatchTreasuryBalanceAndTransfer(t *testing.T) {
	state := NewMemoryState()
	ctx := newCapTestCtx(state, nil)
	var to Address
	to[0] = 0x99
	if err := state.SetBalance(ctx.Contract, NewAmountFromUint64(1000)); err != nil {
		t.Fatalf("SetBalance: %v", err)
	}

	out, _, err := dispatchTreasury(ctx, CapTreasuryBalance, nil)
	if err != nil {
		t.Fatalf("treasury.balance: %v", err)
	}
	bal, err := NewAmountFromBigEndian(out)
	if err != nil || bal.Cmp(NewAmountFromUint64(1000)) != 0 {
		t.Fatalf("expected balance 1000, got %v (err=%v)", bal, err)
	}

	input := lvEncode(to.Bytes(), NewAmountFromUint64(400).Bytes())
	if _, _, err := dispatchTreasury(ctx, CapTreasuryTransfer, input); err != nil {
		t.Fatalf("treasury.transfer: %v", err)
	}
	if got := state.GetBalance(to); got.Cmp(NewAmountFromUint64(400)) != 0 {
		t.Fatalf("expected recipient balance 400, got %s", got.String())
	}
	if got := state.GetBalance(ctx.Contract); got.Cmp(NewAmountFromUint64(600)) != 0 {
		t.Fatalf("expected sender balance 600, got %s", got.String())
	}
}

func TestDispatchSyscallWithoutHostIsForbidden(t *testing.T) {
	ctx := newCapTestCtx(NewMemoryState(), nil)
	if _, _, err := dispatchSyscall(ctx, CapSyscallBlobPin, lvEncode([]byte{1}, []byte("x"))); CodeOf(err) != CodeForbiddenCap {
		t.Fatalf("expected FORBIDDEN_CAPABILITY with no syscall host, got %v", err)
	}
}

func TestDispatchCapabilityRejectsUnknownName(t *testing.T) {
	ctx := newCapTestCtx(NewMemoryState(), nil)
	ctx.Capabilities = NewInMemoryCapabilities()
	if _, _, err := dispatchCapability(ctx, "net.dial", nil); CodeOf(err) != CodeForbiddenCap {
		t.Fatalf("expected FORBIDDEN_CAPABILITY for out-of-surface name, got %v", err)
	}
}

func TestLvEncodeDecodeRoundTrip(t *testing.T) {
	enc := lvEncode([]byte("abc"), []byte{}, []byte("z"))
	parts, err := lvDecode(enc, 3)
	if err != nil {
		t.Fatalf("lvDecode: %v", err)
	}
	if string(parts[0]) != "abc" || len(parts[1]) != 0 || string(parts[2]) != "z" {
		t.Fatalf("unexpected round trip: %#v", parts)
	}
}

func TestLvDecodeRejectsTruncatedAndTrailing(t *testing.T) {
	if _, err := lvDecode([]byte{3, 'a', 'b'}, 1); CodeOf(err) != CodeBadLength {
		t.Fatalf("expected BAD_LENGTH for truncated segment, got %v", err)
	}
	enc := lvEncode([]byte("a"))
	enc = append(enc, 0xFF)
	if _, err := lvDecode(enc, 1); CodeOf(err) != CodeBadLength {
		t.Fatalf("expected BAD_LENGTH for trailing bytes, got %v", err)
	}
}
