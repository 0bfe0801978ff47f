package core

// Intrinsic gas schedule. Values are fixed by consensus, not configuration.
const (
	GasBaseTx      uint64 = 21_000
	GasCreateExtra uint64 = 32_000
	GasDataZero    uint64 = 4
	GasDataNonzero uint64 = 16
	GasAccessAddr  uint64 = 2_400
	GasAccessSlot  uint64 = 1_900
)

// IntrinsicGas computes the minimum gas a transaction must purchase before
// the VM ever runs: a flat base cost, a per-byte payload cost that charges
// less for zero bytes than non-zero ones, a surcharge for DEPLOY, and a
// charge for every address and storage key named in the access list.
func IntrinsicGas(u UnsignedTx) uint64 {
	gas := GasBaseTx
	for _, b := range intrinsicPayloadBytes(u.Payload) {
		if b == 0 {
			gas += GasDataZero
		} else {
			gas += GasDataNonzero
		}
	}
	if u.Kind == KindDeploy {
		gas += GasCreateExtra
	}
	for _, entry := range u.AccessList {
		gas += GasAccessAddr
		gas += uint64(len(entry.StorageKeys)) * GasAccessSlot
	}
	return gas
}

// intrinsicPayloadBytes returns the payload bytes IntrinsicGas charges for:
// the data/code bytes a sender pays to place on the wire, not the return
// value or any manifest-only metadata.
func intrinsicPayloadBytes(p TxPayload) []byte {
	switch x := p.(type) {
	case TransferPayload:
		return x.Data
	case DeployPayload:
		return x.Code
	case CallPayload:
		return x.Data
	default:
		return nil
	}
}

// CheckIntrinsicGas reports whether u's gas limit covers its intrinsic cost.
func CheckIntrinsicGas(u UnsignedTx) error {
	need := IntrinsicGas(u)
	if u.GasLimit < need {
		return NewCodedError(CodeIntrinsicGasHigh, "gas_limit below intrinsic gas requirement")
	}
	return nil
}

