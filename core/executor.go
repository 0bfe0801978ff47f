package core

// Executor applies verified transactions against a Ledger's contract state,
// producing a Receipt per transaction. It is the one caller of the VM
// subsystem (vm.go / vm_interp.go / vm_heavy.go): block building and
// mempool admission both go through ApplyTx rather than touching the VM
// directly.
type Executor struct {
	ledger   *Ledger
	caps     CapabilityProvider
	syscalls SyscallHost
}

// NewExecutor builds an executor bound to ledger, using the default
// in-memory capability host and the default in-memory syscall host.
func NewExecutor(ledger *Ledger) *Executor {
	return &Executor{
		ledger:   ledger,
		caps:     NewInMemoryCapabilities(),
		syscalls: NewInMemorySyscallHost(),
	}
}

// WithCapabilities swaps in a richer capability host (e.g. one backed by an
// oracle feed or external proof verifier) in place of the default.
func (e *Executor) WithCapabilities(caps CapabilityProvider) *Executor {
	e.caps = caps
	return e
}

// WithSyscalls swaps in a richer off-chain compute host (e.g. one backed by
// a real AI/quantum task queue) in place of the default in-memory one.
func (e *Executor) WithSyscalls(h SyscallHost) *Executor {
	e.syscalls = h
	return e
}

// ApplyTx verifies tx's signatures, checks intrinsic gas, checks that the
// sender's balance covers gas_price*gas_limit, applies the kind-specific
// effect (value transfer, contract deploy or call), then charges
// gas_price*gas_used to TreasuryAddress, increments the sender's nonce and
// returns the resulting Receipt. The tx's nonce is not compared with the
// sender's stored nonce. Execution failures inside a CALL/DEPLOY are
// captured as a reverted/out-of-gas Receipt rather than a Go error; a Go
// error return means the transaction could not be admitted at all (bad
// signature, intrinsic gas above the limit, insufficient balance for gas).
func (e *Executor) ApplyTx(tx Tx, blockHeight, blockTime uint64) (Receipt, error) {
	if err := tx.Verify(); err != nil {
		return Receipt{}, err
	}
	u := tx.Unsigned
	if err := CheckIntrinsicGas(u); err != nil {
		return Receipt{}, err
	}
	txHash, err := tx.TxID()
	if err != nil {
		return Receipt{}, err
	}

	state := e.ledger.State()
	sender := u.Sender
	price := NewAmountFromUint64(u.GasPrice)
	maxCost, err := price.mulUint64(u.GasLimit)
	if err != nil {
		return Receipt{}, err
	}
	if state.GetBalance(sender).Cmp(maxCost) < 0 {
		return Receipt{}, NewCodedError(CodeInvalid, "insufficient balance for gas")
	}

	meter := NewGasMeter(u.GasLimit)
	if err := meter.Consume(IntrinsicGas(u)); err != nil {
		return Receipt{}, err
	}

	env := txEnv{blockHeight: blockHeight, txHash: txHash, txSender: sender}

	var result *ExecResult
	var execErr error
	snapErr := state.Snapshot(func() error {
		switch u.Kind {
		case KindTransfer:
			result, execErr = e.applyTransfer(state, sender, u, meter)
		case KindDeploy:
			result, execErr = e.applyDeploy(state, sender, u, meter, env)
		case KindCall:
			result, execErr = e.applyCall(state, sender, u, meter, env)
		default:
			execErr = NewCodedError(CodeBadKind, "unknown tx kind")
		}
		if execErr != nil {
			return execErr
		}
		if result != nil && result.Reverted {
			return NewCodedError(CodeRevert, result.RevertMsg)
		}
		return nil
	})
	if execErr == nil && snapErr != nil && CodeOf(snapErr) != CodeRevert {
		execErr = snapErr
	}

	status := StatusSuccess
	var logs []Log
	if execErr != nil {
		if CodeOf(execErr) == CodeOutOfGas {
			status = StatusOOG
		} else {
			status = StatusRevert
		}
	} else if result != nil {
		if result.Reverted {
			status = StatusRevert
		} else {
			logs = result.Logs
		}
	}

	gasUsed := meter.Used()
	gasCost, err := price.mulUint64(gasUsed)
	if err != nil {
		return Receipt{}, err
	}
	if err := state.Transfer(sender, TreasuryAddress, gasCost); err != nil {
		return Receipt{}, err
	}
	state.SetNonce(sender, state.NonceOf(sender)+1)

	if status != StatusSuccess {
		logs = nil
	}
	return Receipt{Status: status, GasUsed: gasUsed, Logs: logs}, nil
}

func (e *Executor) applyTransfer(state StateRW, sender Address, u UnsignedTx, meter *GasMeter) (*ExecResult, error) {
	p, ok := u.Payload.(TransferPayload)
	if !ok {
		return nil, NewCodedError(CodeBadKind, "transfer payload mismatch")
	}
	if err := state.Transfer(sender, p.To, p.Amount); err != nil {
		return nil, err
	}
	return &ExecResult{}, nil
}

// txEnv carries the block/transaction envelope fields a VMContext needs but
// that applyTransfer/applyDeploy/applyCall don't otherwise have a home for:
// the block height and tx hash capability lookups (abi.block_height,
// syscalls task_id derivation) and caller-chain determinism rely on.
type txEnv struct {
	blockHeight uint64
	txHash      Hash
	txSender    Address
}

func (e *Executor) applyDeploy(state StateRW, sender Address, u UnsignedTx, meter *GasMeter, env txEnv) (*ExecResult, error) {
	p, ok := u.Payload.(DeployPayload)
	if !ok {
		return nil, NewCodedError(CodeBadKind, "deploy payload mismatch")
	}
	manifest, err := ParseManifest(p.Manifest)
	if err != nil {
		return nil, err
	}
	if err := AnalyzeCode(p.Code, manifest); err != nil {
		return nil, err
	}
	contract := deriveContractAddress(sender, state.NonceOf(sender))
	if err := state.SetCode(contract, p.Code); err != nil {
		return nil, err
	}
	if err := state.SetManifest(contract, manifest); err != nil {
		return nil, err
	}
	vm, err := SelectVM(manifest.Tier, state, e.caps)
	if err != nil {
		return nil, err
	}
	var counter uint64
	ctx := &VMContext{
		ChainID: u.ChainID, Sender: sender, Contract: contract,
		GasMeter: meter, State: state, Capabilities: e.caps, Manifest: manifest,
		Syscalls: e.syscalls, BlockHeight: env.blockHeight, TxHash: env.txHash, TxSender: env.txSender,
		randCounter: &counter,
	}
	return vm.Execute(p.Code, ctx)
}

func (e *Executor) applyCall(state StateRW, sender Address, u UnsignedTx, meter *GasMeter, env txEnv) (*ExecResult, error) {
	p, ok := u.Payload.(CallPayload)
	if !ok {
		return nil, NewCodedError(CodeBadKind, "call payload mismatch")
	}
	code := state.GetCode(p.To)
	manifest := state.GetManifest(p.To)
	if manifest == nil {
		manifest = &Manifest{Tier: TierLight}
	}
	var counter uint64
	ctx := &VMContext{
		ChainID: u.ChainID, Sender: sender, Contract: p.To, Input: p.Data,
		GasMeter: meter, State: state, Capabilities: e.caps, Manifest: manifest,
		Syscalls: e.syscalls, BlockHeight: env.blockHeight, TxHash: env.txHash, TxSender: env.txSender,
		randCounter: &counter,
	}
	vm, err := SelectVM(manifest.Tier, state, e.caps)
	if err != nil {
		return nil, err
	}
	return vm.Execute(code, ctx)
}

// deriveContractAddress derives a deterministic contract address from the
// deployer and their nonce, the same "hash(sender || nonce)" shape used
// elsewhere in this codebase's account-address derivation.
func deriveContractAddress(sender Address, nonce uint64) Address {
	buf := make([]byte, AddressLen+8)
	copy(buf, sender[:])
	for i := 0; i < 8; i++ {
		buf[AddressLen+i] = byte(nonce >> (56 - 8*i))
	}
	h := hashSha3256(buf)
	var addr Address
	copy(addr[:], h)
	return addr
}
