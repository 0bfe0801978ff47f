package core

import "animica/codec"

// Manifest is a contract's declared execution surface, carried alongside its
// code in DeployPayload.Manifest. Contract-language design is out of scope
// for this runtime; instead of parsing source, admission is governed
// entirely by what a manifest declares: the VM tier to run under and the
// set of capability names the code is allowed to invoke.
type Manifest struct {
	Tier         VMTier
	Capabilities []string
}

func (m Manifest) toObj() codec.Value {
	caps := make([]codec.Value, len(m.Capabilities))
	for i, c := range m.Capabilities {
		caps[i] = c
	}
	return codec.Map{
		{Key: codec.TextKey("tier"), Val: string(m.Tier)},
		{Key: codec.TextKey("capabilities"), Val: caps},
	}
}

// EncodeManifest renders a Manifest as canonical CBOR, the form stored in
// DeployPayload.Manifest.
func EncodeManifest(m Manifest) ([]byte, error) { return codec.Encode(m.toObj()) }

// ParseManifest decodes a DeployPayload.Manifest.
func ParseManifest(raw []byte) (*Manifest, error) {
	v, err := codec.Decode(raw)
	if err != nil {
		return nil, WrapCoded(CodeBadCBOR, "decode manifest", err)
	}
	m, ok := v.(codec.DecodedMap)
	if !ok {
		return nil, NewCodedError(CodeBadCBOR, "manifest must be a map")
	}
	allowed := map[string]bool{"tier": true, "capabilities": true}
	for _, k := range m.Keys() {
		if !allowed[k] {
			return nil, NewCodedError(CodeUnknownField, "unknown manifest field: "+k)
		}
	}
	tierV, ok := m.Get("tier")
	if !ok {
		return nil, NewCodedError(CodeBadCBOR, "manifest missing tier")
	}
	tierStr, ok := tierV.(string)
	if !ok {
		return nil, NewCodedError(CodeBadCBOR, "manifest tier must be a string")
	}
	tier := VMTier(tierStr)
	if tier != TierSuperLight && tier != TierLight && tier != TierHeavy {
		return nil, NewCodedError(CodeBadKind, "unknown manifest tier: "+tierStr)
	}
	var caps []string
	if capsV, ok := m.Get("capabilities"); ok {
		arr, ok := capsV.([]codec.Value)
		if !ok {
			return nil, NewCodedError(CodeBadCBOR, "manifest capabilities must be an array")
		}
		for _, c := range arr {
			s, ok := c.(string)
			if !ok {
				return nil, NewCodedError(CodeBadCBOR, "manifest capability name must be a string")
			}
			caps = append(caps, s)
		}
	}
	return &Manifest{Tier: tier, Capabilities: caps}, nil
}

// declaredCapabilitySet returns m's capabilities as a lookup set; a nil
// Manifest declares the empty set.
func declaredCapabilitySet(m *Manifest) map[string]bool {
	out := map[string]bool{}
	if m == nil {
		return out
	}
	for _, c := range m.Capabilities {
		out[c] = true
	}
	return out
}

// closedCapabilitySurface is the entire set of capability names this runtime
// will ever recognize: the bare storage/events module markers (their
// opcodes, SSTORE/SLOAD and LOG, are always available and never gated by a
// CAPABILITY call, but a manifest may still declare them for documentation),
// plus every concrete hash/abi/treasury/syscalls entry point. Nothing
// outside this set is importable, per spec.md §4.D.5; validCapabilityName
// is the single source of truth AnalyzeCode uses to enforce that at
// analysis time rather than at runtime.
var closedCapabilitySurface = map[string]bool{
	"storage": true,
	"events":  true,

	CapHashSha3256:   true,
	CapHashSha3512:   true,
	CapHashKeccak256: true,

	CapAbiRequire:         true,
	CapAbiRevert:          true,
	CapAbiCaller:          true,
	CapAbiSender:          true,
	CapAbiBlockHeight:     true,
	CapAbiContractAddress: true,
	CapAbiChainID:         true,

	CapTreasuryBalance:  true,
	CapTreasuryTransfer: true,

	CapSyscallBlobPin:       true,
	CapSyscallAiEnqueue:     true,
	CapSyscallQuantumEnqueue: true,
	CapSyscallReadResult:    true,
	CapSyscallZkVerify:      true,
	CapSyscallRandomBytes:   true,
}

// validCapabilityName reports whether name is one of the closed surface's
// entries.
func validCapabilityName(name string) bool { return closedCapabilitySurface[name] }

// AnalyzeCode performs the static checks contract admission requires: every
// name the manifest declares, and every capability name a CAPABILITY
// instruction can reach, must fall within the closed capability surface
// (§4.D.5), and every used name must also be declared. A capability name is
// only recognized when it is pushed as an immediate literal directly before
// the CAPABILITY opcode; anything else (a computed or indirect capability
// name) is rejected outright, since it cannot be verified without running
// the code. Rejecting an out-of-surface name here, rather than only at the
// point dispatchCapability would otherwise refuse it, is what makes the
// failure deterministic at deploy time instead of at call time.
func AnalyzeCode(code []byte, manifest *Manifest) error {
	declared := declaredCapabilitySet(manifest)
	for name := range declared {
		if !validCapabilityName(name) {
			return NewCodedError(CodeForbiddenCap, "manifest declares capability outside the closed surface: "+name)
		}
	}

	var lastPush []byte
	i := 0
	for i < len(code) {
		op := Opcode(code[i])
		i++
		switch op {
		case OpPush:
			if i >= len(code) {
				return NewCodedError(CodeBadCBOR, "truncated PUSH in code")
			}
			l := int(code[i])
			i++
			if i+l > len(code) {
				return NewCodedError(CodeBadCBOR, "PUSH operand out of bounds")
			}
			lastPush = code[i : i+l]
			i += l
		case OpCapabilityOp:
			if lastPush == nil {
				return NewCodedError(CodeForbiddenCap, "CAPABILITY call with no literal capability name")
			}
			name := string(lastPush)
			if !validCapabilityName(name) {
				return NewCodedError(CodeForbiddenCap, "capability outside the closed surface: "+name)
			}
			if !declared[name] {
				return NewCodedError(CodeForbiddenCap, "capability not declared in manifest: "+name)
			}
			lastPush = nil
		default:
			lastPush = nil
		}
	}
	return nil
}
