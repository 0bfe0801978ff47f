// Package codec implements the canonical CBOR encoding used for every
// consensus object in this codebase: transactions, headers, blocks and
// receipts. It follows RFC 8949 "Deterministic Encoding" for a deliberately
// narrow subset of CBOR, the same subset the reference implementation this
// runtime was distilled from used, so that two independent implementations
// produce byte-identical output for the same logical value.
//
// Supported value shapes: nil, bool, unsigned/signed machine ints, arbitrary
// precision non-negative/negative integers via *big.Int (bignum tags 2/3),
// byte strings, UTF-8 text, arrays and maps with int/string/byte-string keys.
// Floats, indefinite-length items and any other CBOR simple value are
// rejected on both encode and decode: a hand-rolled codec is the only way to
// guarantee that rejection holds byte-for-byte, which is why this is not
// built on a general-purpose CBOR library (see DESIGN.md).
package codec

import (
	"errors"
	"fmt"
	"math/big"
	"sort"
	"unicode/utf8"
)

// EncodeError reports a value that canonical CBOR cannot represent.
type EncodeError struct{ Msg string }

func (e *EncodeError) Error() string { return "cbor encode: " + e.Msg }

// DecodeError reports malformed or non-canonical input.
type DecodeError struct{ Msg string }

func (e *DecodeError) Error() string { return "cbor decode: " + e.Msg }

// Key is a canonical CBOR map key: an int64, a uint64, a string or a byte
// string. Only these are permitted as map keys, matching the encoder.
type Key struct {
	kind byte // 'i' int64, 'u' uint64, 's' string, 'b' []byte
	i    int64
	u    uint64
	s    string
	b    []byte
}

func IntKey(v int64) Key   { return Key{kind: 'i', i: v} }
func UintKey(v uint64) Key { return Key{kind: 'u', u: v} }
func TextKey(v string) Key { return Key{kind: 's', s: v} }
func ByteKey(v []byte) Key { return Key{kind: 'b', b: append([]byte(nil), v...)} }

// AsText reports the string form of a text-kind Key, for callers that need
// to walk a DecodedMap's entries directly (e.g. applying a decode-only alias
// table before checking against an allowed field set).
func (k Key) AsText() (string, bool) {
	if k.kind != 's' {
		return "", false
	}
	return k.s, true
}

func (k Key) toValue() Value {
	switch k.kind {
	case 'i':
		return k.i
	case 'u':
		return k.u
	case 's':
		return k.s
	case 'b':
		return k.b
	}
	return nil
}

// Entry is one key/value pair of a Map.
type Entry struct {
	Key Key
	Val Value
}

// Map is an ordered list of entries; Encode sorts them canonically, so
// callers may build Map in any convenient order.
type Map []Entry

// Get returns the value for a text key, and whether it was present.
func (m Map) Get(k string) (Value, bool) {
	for _, e := range m {
		if e.Key.kind == 's' && e.Key.s == k {
			return e.Val, true
		}
	}
	return nil, false
}

// GetInt returns the value for an int key, and whether it was present.
func (m Map) GetInt(k int64) (Value, bool) {
	for _, e := range m {
		if e.Key.kind == 'i' && e.Key.i == k {
			return e.Val, true
		}
		if e.Key.kind == 'u' && k >= 0 && e.Key.u == uint64(k) {
			return e.Val, true
		}
	}
	return nil, false
}

// Keys reports the set of text keys present, for "unknown field" checks.
func (m Map) Keys() []string {
	out := make([]string, 0, len(m))
	for _, e := range m {
		if e.Key.kind == 's' {
			out = append(out, e.Key.s)
		}
	}
	return out
}

// Value is the dynamic type accepted by Encode: nil, bool, int64, uint64,
// *big.Int, []byte, string, []Value (array) or Map.
type Value = interface{}

func aiBytes(major byte, n uint64) []byte {
	switch {
	case n < 24:
		return []byte{(major << 5) | byte(n)}
	case n <= 0xFF:
		return []byte{(major << 5) | 24, byte(n)}
	case n <= 0xFFFF:
		return []byte{(major << 5) | 25, byte(n >> 8), byte(n)}
	case n <= 0xFFFFFFFF:
		return []byte{(major << 5) | 26, byte(n >> 24), byte(n >> 16), byte(n >> 8), byte(n)}
	default:
		return []byte{(major << 5) | 27,
			byte(n >> 56), byte(n >> 48), byte(n >> 40), byte(n >> 32),
			byte(n >> 24), byte(n >> 16), byte(n >> 8), byte(n)}
	}
}

func encodeUint(n uint64) []byte { return aiBytes(0, n) }

// encodeNint encodes a negative int64 as major type 1, argument -1-n.
func encodeNint(n int64) []byte {
	arg := uint64(-1 - n)
	return aiBytes(1, arg)
}

func encodeBytes(b []byte) []byte {
	out := aiBytes(2, uint64(len(b)))
	return append(out, b...)
}

func encodeText(s string) ([]byte, error) {
	if !utf8.ValidString(s) {
		return nil, &EncodeError{Msg: "invalid UTF-8 string"}
	}
	b := []byte(s)
	out := aiBytes(3, uint64(len(b)))
	return append(out, b...), nil
}

func encodeTag(tag uint64, payload []byte) []byte {
	out := aiBytes(6, tag)
	return append(out, payload...)
}

// toBignumBytes returns the minimal big-endian magnitude of a non-negative
// big.Int; zero encodes as a single 0x00 byte.
func toBignumBytes(n *big.Int) []byte {
	if n.Sign() == 0 {
		return []byte{0x00}
	}
	return n.Bytes() // big.Int.Bytes() is already minimal, no leading zeros
}

// Encode renders v as canonical CBOR bytes.
func Encode(v Value) ([]byte, error) {
	switch x := v.(type) {
	case nil:
		return []byte{0xF6}, nil
	case bool:
		if x {
			return []byte{0xF5}, nil
		}
		return []byte{0xF4}, nil
	case int:
		return Encode(int64(x))
	case int64:
		if x >= 0 {
			return encodeUint(uint64(x)), nil
		}
		return encodeNint(x), nil
	case uint64:
		return encodeUint(x), nil
	case uint:
		return encodeUint(uint64(x)), nil
	case *big.Int:
		if x == nil {
			return nil, &EncodeError{Msg: "nil *big.Int"}
		}
		if x.Sign() >= 0 {
			return encodeTag(2, encodeBytes(toBignumBytes(x))), nil
		}
		mag := new(big.Int).Neg(x)
		mag.Sub(mag, big.NewInt(1)) // -1 - n, n negative so this is |n|-1
		return encodeTag(3, encodeBytes(toBignumBytes(mag))), nil
	case []byte:
		return encodeBytes(x), nil
	case string:
		return encodeText(x)
	case []Value:
		items := make([][]byte, len(x))
		for i, it := range x {
			enc, err := Encode(it)
			if err != nil {
				return nil, err
			}
			items[i] = enc
		}
		out := aiBytes(4, uint64(len(items)))
		for _, it := range items {
			out = append(out, it...)
		}
		return out, nil
	case Map:
		return encodeMap(x)
	case DecodedMap:
		return encodeMap(Map(x))
	default:
		return nil, &EncodeError{Msg: fmt.Sprintf("unsupported type for canonical CBOR: %T", v)}
	}
}

type kv struct{ k, v []byte }

func encodeMap(m Map) ([]byte, error) {
	pairs := make([]kv, 0, len(m))
	for _, e := range m {
		kenc, err := Encode(e.Key.toValue())
		if err != nil {
			return nil, err
		}
		venc, err := Encode(e.Val)
		if err != nil {
			return nil, err
		}
		pairs = append(pairs, kv{k: kenc, v: venc})
	}
	sort.Slice(pairs, func(i, j int) bool {
		return bytesLess(pairs[i].k, pairs[j].k)
	})
	for i := 1; i < len(pairs); i++ {
		if bytesEqual(pairs[i-1].k, pairs[i].k) {
			return nil, &EncodeError{Msg: "duplicate map keys after canonicalization"}
		}
	}
	out := aiBytes(5, uint64(len(pairs)))
	for _, p := range pairs {
		out = append(out, p.k...)
		out = append(out, p.v...)
	}
	return out, nil
}

func bytesLess(a, b []byte) bool {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	for i := 0; i < n; i++ {
		if a[i] != b[i] {
			return a[i] < b[i]
		}
	}
	return len(a) < len(b)
}

func bytesEqual(a, b []byte) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

var errTruncated = errors.New("truncated")
