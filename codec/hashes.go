package codec

import "golang.org/x/crypto/sha3"

// Sha3_256 returns the 32-byte sha3_256 digest of data. This is the primary
// hash contract for transaction ids, header hashes and state/txs/receipts
// roots, grounded on the same golang.org/x/crypto/sha3 package the teacher
// uses for its Keccak-256 helper.
func Sha3_256(data []byte) [32]byte {
	return sha3.Sum256(data)
}

// Sha3_512 returns the 64-byte sha3_512 digest, available for tooling that
// wants the extended-security digest but is not part of the consensus hash
// contract (which is sha3_256-only).
func Sha3_512(data []byte) [64]byte {
	return sha3.Sum512(data)
}

// HashSignBytesDigest selects between the two supported digest algorithms
// over a SignBytes envelope.
type HashSignBytesDigest string

const (
	DigestSHA3_256 HashSignBytesDigest = "sha3_256"
	DigestSHA3_512 HashSignBytesDigest = "sha3_512"
)

// HashSignBytes builds the SignBytes envelope for (domain, payload, chainID,
// extra) and hashes it with the requested digest.
func HashSignBytes(domain string, chainID uint64, payload Value, extra []byte, digest HashSignBytesDigest) ([]byte, error) {
	sb, err := SignBytes(domain, chainID, payload, extra)
	if err != nil {
		return nil, err
	}
	switch digest {
	case DigestSHA3_256:
		h := Sha3_256(sb)
		return h[:], nil
	case DigestSHA3_512:
		h := Sha3_512(sb)
		return h[:], nil
	default:
		return nil, &EncodeError{Msg: "unsupported digest"}
	}
}
