package codec

import (
	"math/big"
	"unicode/utf8"
)

// DecodedMap is what Decode returns for a CBOR map: the entries in the order
// they appeared on the wire, which (having passed the strictly-increasing
// key check) is already canonical order.
type DecodedMap []Entry

// Get mirrors Map.Get for decoded output.
func (m DecodedMap) Get(k string) (Value, bool) {
	for _, e := range m {
		if e.Key.kind == 's' && e.Key.s == k {
			return e.Val, true
		}
	}
	return nil, false
}

func (m DecodedMap) GetInt(k int64) (Value, bool) {
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

// Keys returns the text keys present in the map, for unknown-field checks.
func (m DecodedMap) Keys() []string {
	out := make([]string, 0, len(m))
	for _, e := range m {
		if e.Key.kind == 's' {
			out = append(out, e.Key.s)
		}
	}
	return out
}

type buf struct {
	b []byte
	i int
}

func (p *buf) get(n int) ([]byte, error) {
	if n < 0 || p.i+n > len(p.b) {
		return nil, &DecodeError{Msg: "truncated"}
	}
	out := p.b[p.i : p.i+n]
	p.i += n
	return out, nil
}

func (p *buf) get1() (byte, error) {
	if p.i >= len(p.b) {
		return 0, &DecodeError{Msg: "truncated"}
	}
	v := p.b[p.i]
	p.i++
	return v, nil
}

func readAI(p *buf) (major byte, ai uint64, err error) {
	ib, err := p.get1()
	if err != nil {
		return 0, 0, err
	}
	major = ib >> 5
	lo := ib & 0x1F
	switch {
	case lo < 24:
		return major, uint64(lo), nil
	case lo == 24:
		b, err := p.get(1)
		if err != nil {
			return 0, 0, err
		}
		return major, uint64(b[0]), nil
	case lo == 25:
		b, err := p.get(2)
		if err != nil {
			return 0, 0, err
		}
		return major, uint64(b[0])<<8 | uint64(b[1]), nil
	case lo == 26:
		b, err := p.get(4)
		if err != nil {
			return 0, 0, err
		}
		var v uint64
		for _, x := range b {
			v = v<<8 | uint64(x)
		}
		return major, v, nil
	case lo == 27:
		b, err := p.get(8)
		if err != nil {
			return 0, 0, err
		}
		var v uint64
		for _, x := range b {
			v = v<<8 | uint64(x)
		}
		return major, v, nil
	default:
		return 0, 0, &DecodeError{Msg: "indefinite lengths are not allowed"}
	}
}

func decodeValue(p *buf) (Value, error) {
	major, ai, err := readAI(p)
	if err != nil {
		return nil, err
	}
	switch major {
	case 0:
		return ai, nil // uint64
	case 1:
		if ai > 1<<63-1 {
			// magnitude too large for int64; represent as *big.Int.
			n := new(big.Int).SetUint64(ai)
			n.Add(n, big.NewInt(1))
			n.Neg(n)
			return n, nil
		}
		return -1 - int64(ai), nil
	case 2:
		data, err := p.get(int(ai))
		if err != nil {
			return nil, err
		}
		out := make([]byte, len(data))
		copy(out, data)
		return out, nil
	case 3:
		data, err := p.get(int(ai))
		if err != nil {
			return nil, err
		}
		if !utf8.Valid(data) {
			return nil, &DecodeError{Msg: "invalid UTF-8"}
		}
		return string(data), nil
	case 4:
		out := make([]Value, 0, ai)
		for i := uint64(0); i < ai; i++ {
			v, err := decodeValue(p)
			if err != nil {
				return nil, err
			}
			out = append(out, v)
		}
		return out, nil
	case 5:
		out := make(DecodedMap, 0, ai)
		var lastKeyEnc []byte
		for i := uint64(0); i < ai; i++ {
			keyStart := p.i
			keyVal, err := decodeValue(p)
			if err != nil {
				return nil, err
			}
			keyEnc := p.b[keyStart:p.i]
			if lastKeyEnc != nil && bytesLessOrEqual(keyEnc, lastKeyEnc) {
				return nil, &DecodeError{Msg: "map keys not in deterministic order"}
			}
			lastKeyEnc = keyEnc
			val, err := decodeValue(p)
			if err != nil {
				return nil, err
			}
			key, err := toKey(keyVal)
			if err != nil {
				return nil, err
			}
			out = append(out, Entry{Key: key, Val: val})
		}
		return out, nil
	case 6:
		tag := ai
		if tag != 2 && tag != 3 {
			return nil, &DecodeError{Msg: "unsupported tag"}
		}
		mMajor, mLen, err := readAI(p)
		if err != nil {
			return nil, err
		}
		if mMajor != 2 {
			return nil, &DecodeError{Msg: "bignum tag payload must be a byte string"}
		}
		mag, err := p.get(int(mLen))
		if err != nil {
			return nil, err
		}
		if len(mag) == 0 {
			return nil, &DecodeError{Msg: "invalid bignum magnitude"}
		}
		n := new(big.Int).SetBytes(mag)
		if tag == 2 {
			return n, nil
		}
		out := new(big.Int).Neg(n)
		out.Sub(out, big.NewInt(1))
		return out, nil
	case 7:
		switch ai {
		case 20:
			return false, nil
		case 21:
			return true, nil
		case 22:
			return nil, nil
		default:
			return nil, &DecodeError{Msg: "floating point/simple values are not allowed"}
		}
	default:
		return nil, &DecodeError{Msg: "unknown major type"}
	}
}

func bytesLessOrEqual(a, b []byte) bool {
	return !bytesLess(b, a)
}

func toKey(v Value) (Key, error) {
	switch x := v.(type) {
	case uint64:
		if x <= 1<<63-1 {
			return IntKey(int64(x)), nil
		}
		return UintKey(x), nil
	case int64:
		return IntKey(x), nil
	case string:
		return TextKey(x), nil
	case []byte:
		return ByteKey(x), nil
	default:
		return Key{}, &DecodeError{Msg: "unsupported map key type"}
	}
}

// Decode parses canonical CBOR bytes, enforcing the same subset and ordering
// rules Encode produces. It rejects any trailing bytes after the top-level
// value.
func Decode(b []byte) (Value, error) {
	p := &buf{b: b}
	v, err := decodeValue(p)
	if err != nil {
		return nil, err
	}
	if p.i != len(p.b) {
		return nil, &DecodeError{Msg: "trailing bytes"}
	}
	return v, nil
}
