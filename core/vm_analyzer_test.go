package core

import "testing"

func TestManifestRoundTrip(t *testing.T) {
	m := Manifest{Tier: TierHeavy, Capabilities: []string{CapHashSha3256, CapAbiCaller}}
	enc, err := EncodeManifest(m)
	if err != nil {
		t.Fatalf("EncodeManifest: %v", err)
	}
	got, err := ParseManifest(enc)
	if err != nil {
		t.Fatalf("ParseManifest: %v", err)
	}
	if got.Tier != m.Tier || len(got.Capabilities) != 2 {
		t.Fatalf("unexpected round trip: %#v", got)
	}
}

func TestParseManifestRejectsUnknownTier(t *testing.T) {
	if _, err := ParseManifest(mustEncodeRawManifest(t, "quantum", nil)); CodeOf(err) != CodeBadKind {
		t.Fatalf("expected BAD_KIND for unknown tier, got %v", err)
	}
}

func mustEncodeRawManifest(t *testing.T, tier string, caps []string) []byte {
	t.Helper()
	m := Manifest{Tier: VMTier(tier), Capabilities: caps}
	enc, err := EncodeManifest(m)
	if err != nil {
		t.Fatalf("EncodeManifest: %v", err)
	}
	return enc
}

func TestAnalyzeCodeAllowsDeclaredCapability(t *testing.T) {
	m := &Manifest{Tier: TierLight, Capabilities: []string{CapHashSha3256}}
	var code []byte
	code = append(code, push(byte(OpPush), []byte("x"))...)
	code = append(code, push(byte(OpPush), []byte(CapHashSha3256))...)
	code = append(code, byte(OpCapabilityOp))
	if err := AnalyzeCode(code, m); err != nil {
		t.Fatalf("expected declared capability to be allowed, got %v", err)
	}
}

func TestAnalyzeCodeRejectsUndeclaredCapability(t *testing.T) {
	m := &Manifest{Tier: TierLight}
	var code []byte
	code = append(code, push(byte(OpPush), []byte("x"))...)
	code = append(code, push(byte(OpPush), []byte(CapHashSha3256))...)
	code = append(code, byte(OpCapabilityOp))
	if err := AnalyzeCode(code, m); CodeOf(err) != CodeForbiddenCap {
		t.Fatalf("expected FORBIDDEN_CAPABILITY, got %v", err)
	}
}

func TestAnalyzeCodeRejectsCapabilityWithNoLiteral(t *testing.T) {
	m := &Manifest{Tier: TierLight, Capabilities: []string{CapHashSha3256}}
	// SLOAD between the PUSH and the CAPABILITY call erases the literal,
	// since only an immediately-preceding PUSH counts.
	var code []byte
	code = append(code, push(byte(OpPush), []byte(CapHashSha3256))...)
	code = append(code, byte(OpSLoad))
	code = append(code, byte(OpCapabilityOp))
	if err := AnalyzeCode(code, m); CodeOf(err) != CodeForbiddenCap {
		t.Fatalf("expected FORBIDDEN_CAPABILITY for indirect capability name, got %v", err)
	}
}
