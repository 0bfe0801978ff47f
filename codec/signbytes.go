package codec

// Domain separation tags for the SignBytes envelope. Only these four values
// are accepted; SignBytes rejects anything else with an EncodeError.
const (
	DomainTxSignV1     = "animica/tx/sign/v1"
	DomainHeaderSignV1 = "animica/header/sign/v1"
	DomainTxHashV1     = "animica/tx/hash/v1"
	DomainHeaderHashV1 = "animica/header/hash/v1"
)

var allowedDomains = map[string]struct{}{
	DomainTxSignV1:     {},
	DomainHeaderSignV1: {},
	DomainTxHashV1:     {},
	DomainHeaderHashV1: {},
}

// ValidDomain reports whether domain is one of the closed set of SignBytes
// domains.
func ValidDomain(domain string) bool {
	_, ok := allowedDomains[domain]
	return ok
}

// SignBytes builds the canonical, domain-separated byte string that PQ
// signatures and consensus hashes are computed over:
//
//	{1: domain, 2: chain_id, 3: payload, [4: extra]}
//
// payload is an already-built canonical Value (typically a Map produced by
// UnsignedTx.toObj/Header.toObj). extra is optional additional context
// (nil to omit field 4 entirely).
func SignBytes(domain string, chainID uint64, payload Value, extra []byte) ([]byte, error) {
	if !ValidDomain(domain) {
		return nil, &EncodeError{Msg: "domain not in the allowed SignBytes domain set"}
	}
	m := Map{
		{Key: IntKey(1), Val: domain},
		{Key: IntKey(2), Val: chainID},
		{Key: IntKey(3), Val: payload},
	}
	if extra != nil {
		m = append(m, Entry{Key: IntKey(4), Val: extra})
	}
	return Encode(m)
}
