package core

import (
	"github.com/holiman/uint256"
)

// Amount is a non-negative 256-bit unsigned integer, the wire and in-memory
// representation for balances, transfer amounts and allowances. Built on
// holiman/uint256 rather than math/big: fixed-width arithmetic that cannot
// silently grow, and the same library the teacher's indirect dependency set
// already carries for U256 account balances.
type Amount struct {
	v uint256.Int
}

// ZeroAmount is the additive identity.
var ZeroAmount = Amount{}

// NewAmountFromUint64 builds an Amount from a machine-width integer.
func NewAmountFromUint64(v uint64) Amount {
	var a Amount
	a.v.SetUint64(v)
	return a
}

// NewAmountFromBigEndian builds an Amount from the big-endian magnitude bytes of a
// non-negative integer, as decoded from a CBOR bignum. Returns BAD_LENGTH if
// the magnitude does not fit in 256 bits.
func NewAmountFromBigEndian(b []byte) (Amount, error) {
	var a Amount
	if len(b) > 32 {
		return a, NewCodedError(CodeBadLength, "amount exceeds U256_MAX")
	}
	a.v.SetBytes(b)
	return a, nil
}

// Uint64 returns the amount truncated to 64 bits; callers must only use this
// where the value is already known to fit (e.g. gas-related quantities,
// never balances).
func (a Amount) Uint64() uint64 { return a.v.Uint64() }

// Bytes returns the minimal big-endian magnitude, with no leading zero byte
// (zero itself encodes as an empty slice); this is the shape the canonical
// CBOR bignum encoder expects.
func (a Amount) Bytes() []byte {
	if a.v.IsZero() {
		return nil
	}
	buf := a.v.Bytes()
	return buf
}

// Add returns a+b, wrapping is never observed because both operands and the
// U256_MAX ceiling are checked by construction contracts upstream; overflow
// here would indicate a consensus bug and is reported rather than silently
// wrapped.
func (a Amount) Add(b Amount) (Amount, error) {
	var out Amount
	overflow := out.v.AddOverflow(&a.v, &b.v)
	if overflow {
		return out, NewCodedError(CodeBadLength, "amount overflow")
	}
	return out, nil
}

// Sub returns a-b, or an error if the result would be negative.
func (a Amount) Sub(b Amount) (Amount, error) {
	if a.v.Lt(&b.v) {
		return Amount{}, NewCodedError(CodeBadLength, "amount underflow")
	}
	var out Amount
	out.v.Sub(&a.v, &b.v)
	return out, nil
}

// mulUint64 returns a*n, reporting overflow the same way Add does.
func (a Amount) mulUint64(n uint64) (Amount, error) {
	var out Amount
	var nn uint256.Int
	nn.SetUint64(n)
	overflow := out.v.MulOverflow(&a.v, &nn)
	if overflow {
		return out, NewCodedError(CodeBadLength, "amount overflow")
	}
	return out, nil
}

// Cmp compares two amounts the way bytes.Compare does.
func (a Amount) Cmp(b Amount) int { return a.v.Cmp(&b.v) }

// IsZero reports whether the amount is exactly zero.
func (a Amount) IsZero() bool { return a.v.IsZero() }

func (a Amount) String() string { return a.v.Dec() }
