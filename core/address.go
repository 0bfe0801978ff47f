package core

import (
	"bytes"
	"encoding/hex"
)

// AddressLen is the fixed width of an Animica account/contract address.
// Unlike the 20-byte Ethereum-style address this codebase's teacher used,
// addresses here are 32 bytes wide to leave room for post-quantum key
// material hashed down to an address.
const AddressLen = 32

// HashLen is the fixed width of a canonical hash (sha3_256 digest).
const HashLen = 32

// Address identifies an account or a deployed contract.
type Address [AddressLen]byte

// Hash is a 32-byte sha3_256 digest, used for block/tx/header identifiers
// and storage roots.
type Hash [HashLen]byte

// ZeroAddress is the all-zero address, reserved and never assignable to a
// signer.
var ZeroAddress Address

// IsZero reports whether the address is the all-zero sentinel.
func (a Address) IsZero() bool { return a == ZeroAddress }

// Bytes returns the address as a freshly allocated byte slice.
func (a Address) Bytes() []byte {
	b := make([]byte, AddressLen)
	copy(b, a[:])
	return b
}

// Hex renders the address as a lowercase "0x"-prefixed hex string.
func (a Address) Hex() string { return "0x" + hex.EncodeToString(a[:]) }

func (a Address) String() string { return a.Hex() }

// AddressFromBytes builds an Address from exactly AddressLen bytes. It
// returns a BAD_LENGTH CodedError otherwise rather than silently truncating
// or left-padding, since address length is a consensus-relevant invariant.
func AddressFromBytes(b []byte) (Address, error) {
	var a Address
	if len(b) != AddressLen {
		return a, NewCodedError(CodeBadLength, "address must be 32 bytes")
	}
	copy(a[:], b)
	return a, nil
}

// Bytes returns the hash as a freshly allocated byte slice.
func (h Hash) Bytes() []byte {
	b := make([]byte, HashLen)
	copy(b, h[:])
	return b
}

// Hex renders the hash as a lowercase "0x"-prefixed hex string.
func (h Hash) Hex() string { return "0x" + hex.EncodeToString(h[:]) }

func (h Hash) String() string { return h.Hex() }

// IsZero reports whether this is the all-zero hash sentinel (used as the
// parent hash of the genesis block).
func (h Hash) IsZero() bool { return h == Hash{} }

// HashFromBytes builds a Hash from exactly HashLen bytes.
func HashFromBytes(b []byte) (Hash, error) {
	var h Hash
	if len(b) != HashLen {
		return h, NewCodedError(CodeBadLength, "hash must be 32 bytes")
	}
	copy(h[:], b)
	return h, nil
}

// Less implements the lexicographic byte comparison used by fork choice's
// tie-break rule: shorter byte slices are never produced since hashes are
// fixed-length here, so this reduces to a plain lexicographic compare.
func (h Hash) Less(o Hash) bool { return bytes.Compare(h[:], o[:]) < 0 }

// Compare returns -1, 0 or 1 the way bytes.Compare does.
func (h Hash) Compare(o Hash) int { return bytes.Compare(h[:], o[:]) }
