package codec

import (
	"bytes"
	"math/big"
	"testing"
)

func mustEncode(t *testing.T, v Value) []byte {
	t.Helper()
	b, err := Encode(v)
	if err != nil {
		t.Fatalf("Encode(%#v): %v", v, err)
	}
	return b
}

func TestEncodeScalars(t *testing.T) {
	cases := []struct {
		name string
		in   Value
		want []byte
	}{
		{"nil", nil, []byte{0xF6}},
		{"false", false, []byte{0xF4}},
		{"true", true, []byte{0xF5}},
		{"uint0", uint64(0), []byte{0x00}},
		{"uint23", uint64(23), []byte{0x17}},
		{"uint24", uint64(24), []byte{0x18, 0x18}},
		{"uint256", uint64(256), []byte{0x19, 0x01, 0x00}},
		{"negative1", int64(-1), []byte{0x20}},
		{"negative100", int64(-100), []byte{0x38, 0x63}},
		{"bytes_empty", []byte{}, []byte{0x40}},
		{"bytes_abc", []byte("abc"), []byte{0x43, 'a', 'b', 'c'}},
		{"text_abc", "abc", []byte{0x63, 'a', 'b', 'c'}},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			got := mustEncode(t, c.in)
			if !bytes.Equal(got, c.want) {
				t.Fatalf("got % x want % x", got, c.want)
			}
		})
	}
}

func TestEncodeBignum(t *testing.T) {
	n := new(big.Int)
	n.SetString("18446744073709551616", 10) // 2^64
	got := mustEncode(t, n)
	// tag(2) + bstr(9 bytes: 0x01 followed by 8 zero bytes)
	want := append([]byte{0xC2, 0x49, 0x01}, make([]byte, 8)...)
	if !bytes.Equal(got, want) {
		t.Fatalf("got % x want % x", got, want)
	}
}

func TestEncodeBignumZero(t *testing.T) {
	got := mustEncode(t, new(big.Int))
	want := []byte{0xC2, 0x41, 0x00}
	if !bytes.Equal(got, want) {
		t.Fatalf("got % x want % x", got, want)
	}
}

func TestMapKeyOrderingIsCanonical(t *testing.T) {
	m1 := Map{{Key: TextKey("b"), Val: int64(1)}, {Key: TextKey("a"), Val: int64(2)}}
	m2 := Map{{Key: TextKey("a"), Val: int64(2)}, {Key: TextKey("b"), Val: int64(1)}}
	e1 := mustEncode(t, m1)
	e2 := mustEncode(t, m2)
	if !bytes.Equal(e1, e2) {
		t.Fatalf("map encoding depends on insertion order: % x vs % x", e1, e2)
	}
}

func TestDuplicateKeysRejected(t *testing.T) {
	m := Map{{Key: TextKey("a"), Val: int64(1)}, {Key: TextKey("a"), Val: int64(2)}}
	if _, err := Encode(m); err == nil {
		t.Fatal("expected EncodeError for duplicate keys")
	}
}

func TestRoundTripArrayAndMap(t *testing.T) {
	v := Map{
		{Key: IntKey(1), Val: []Value{uint64(1), uint64(2), "three"}},
		{Key: IntKey(2), Val: []byte{0xDE, 0xAD}},
	}
	enc := mustEncode(t, v)
	dec, err := Decode(enc)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	m, ok := dec.(DecodedMap)
	if !ok {
		t.Fatalf("expected DecodedMap, got %T", dec)
	}
	arr, ok := m.GetInt(1)
	if !ok {
		t.Fatal("missing key 1")
	}
	lst, ok := arr.([]Value)
	if !ok || len(lst) != 3 {
		t.Fatalf("unexpected array decode: %#v", arr)
	}
	re, err := Encode(dec)
	if err != nil {
		t.Fatalf("re-encode: %v", err)
	}
	if !bytes.Equal(enc, re) {
		t.Fatalf("round trip not byte-identical: % x vs % x", enc, re)
	}
}

func TestDecodeRejectsTrailingBytes(t *testing.T) {
	enc := mustEncode(t, uint64(1))
	enc = append(enc, 0x00)
	if _, err := Decode(enc); err == nil {
		t.Fatal("expected trailing-bytes DecodeError")
	}
}

func TestDecodeRejectsNonCanonicalMapOrder(t *testing.T) {
	// Manually construct a map with keys "b" then "a" (wrong order).
	bKey := mustEncode(t, "b")
	aKey := mustEncode(t, "a")
	val := mustEncode(t, uint64(1))
	raw := append([]byte{0xA2}, bKey...)
	raw = append(raw, val...)
	raw = append(raw, aKey...)
	raw = append(raw, val...)
	if _, err := Decode(raw); err == nil {
		t.Fatal("expected non-canonical order to be rejected")
	}
}

func TestDecodeRejectsDuplicateMapKey(t *testing.T) {
	aKey := mustEncode(t, "a")
	val := mustEncode(t, uint64(1))
	raw := append([]byte{0xA2}, aKey...)
	raw = append(raw, val...)
	raw = append(raw, aKey...)
	raw = append(raw, val...)
	if _, err := Decode(raw); err == nil {
		t.Fatal("expected duplicate key to be rejected")
	}
}

func TestDecodeRejectsFloatSimple(t *testing.T) {
	// 0xFA = major 7, ai 26 (float32); not in the allowed simple-value set.
	raw := []byte{0xFA, 0x00, 0x00, 0x00, 0x00}
	if _, err := Decode(raw); err == nil {
		t.Fatal("expected float rejection")
	}
}

func TestDecodeRejectsBadUTF8(t *testing.T) {
	// text length 1, invalid byte 0xFF
	raw := []byte{0x61, 0xFF}
	if _, err := Decode(raw); err == nil {
		t.Fatal("expected invalid UTF-8 rejection")
	}
}

func TestDecodeRejectsIndefiniteLength(t *testing.T) {
	raw := []byte{0x5F} // bytes, ai=31 (indefinite)
	if _, err := Decode(raw); err == nil {
		t.Fatal("expected indefinite length rejection")
	}
}

func TestDecodeRejectsEmptyBignumMagnitude(t *testing.T) {
	raw := []byte{0xC2, 0x40} // tag(2) + empty byte string
	if _, err := Decode(raw); err == nil {
		t.Fatal("expected empty bignum magnitude rejection")
	}
}

func TestDecodeRejectsUnsupportedTag(t *testing.T) {
	raw := []byte{0xC1, 0x00} // tag(1) + uint 0
	if _, err := Decode(raw); err == nil {
		t.Fatal("expected unsupported tag rejection")
	}
}

func TestSignBytesRejectsUnknownDomain(t *testing.T) {
	if _, err := SignBytes("not-a-real-domain", 1, Map{}, nil); err == nil {
		t.Fatal("expected unknown domain to be rejected")
	}
}

func TestSignBytesDeterministic(t *testing.T) {
	payload := Map{{Key: TextKey("x"), Val: uint64(1)}}
	a, err := SignBytes(DomainTxSignV1, 7, payload, nil)
	if err != nil {
		t.Fatalf("SignBytes: %v", err)
	}
	b, err := SignBytes(DomainTxSignV1, 7, payload, nil)
	if err != nil {
		t.Fatalf("SignBytes: %v", err)
	}
	if !bytes.Equal(a, b) {
		t.Fatal("SignBytes must be deterministic for identical inputs")
	}
}
