package core

import (
	"math/big"
	"strconv"

	"animica/codec"
)

// asInt coerces a decoded CBOR scalar (uint64 or int64, as produced by
// codec.Decode for small ints) to an int64.
func asInt(v codec.Value) (int64, error) {
	switch x := v.(type) {
	case int64:
		return x, nil
	case uint64:
		if x > 1<<63-1 {
			return 0, NewCodedError(CodeBadLength, "value out of int64 range")
		}
		return int64(x), nil
	default:
		return 0, NewCodedError(CodeBadCBOR, "expected integer")
	}
}

// asUint coerces a decoded CBOR scalar to a uint64, rejecting negatives.
func asUint(v codec.Value) (uint64, error) {
	switch x := v.(type) {
	case uint64:
		return x, nil
	case int64:
		if x < 0 {
			return 0, NewCodedError(CodeBadLength, "expected non-negative integer")
		}
		return uint64(x), nil
	default:
		return 0, NewCodedError(CodeBadCBOR, "expected integer")
	}
}

// asBytes coerces a decoded CBOR value to a byte slice.
func asBytes(v codec.Value) ([]byte, error) {
	b, ok := v.([]byte)
	if !ok {
		return nil, NewCodedError(CodeBadCBOR, "expected byte string")
	}
	return b, nil
}

// bigFromBytes wraps the big-endian magnitude bytes of an Amount into the
// *big.Int shape codec.Encode expects for the bignum tag path.
func bigFromBytes(b []byte) *big.Int {
	return new(big.Int).SetBytes(b)
}

// amountFromCBORValue decodes a CBOR scalar or bignum into an Amount.
func amountFromCBORValue(v codec.Value) (Amount, error) {
	switch x := v.(type) {
	case uint64:
		return NewAmountFromUint64(x), nil
	case *big.Int:
		if x.Sign() < 0 {
			return Amount{}, NewCodedError(CodeBadLength, "amount must be non-negative")
		}
		return NewAmountFromBigEndian(x.Bytes())
	default:
		return Amount{}, NewCodedError(CodeBadCBOR, "expected amount (uint or bignum)")
	}
}

func itoa(n int) string { return strconv.Itoa(n) }
