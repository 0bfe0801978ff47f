package core

import "animica/codec"

// MaxTheta is the upper bound on Header.Theta.
const MaxTheta = 1_000_000_000_000

// MaxNonceOrMixSeedLen bounds Header.Nonce and Header.MixSeed.
const MaxNonceOrMixSeedLen = 64

// Header carries the consensus-relevant metadata of a block. The canonical
// field set is snake_case; a decode-only alias table (headerFieldAliases)
// accepts the camelCase spellings some producers emit, but re-encoding
// always uses the canonical names below.
type Header struct {
	ChainID      uint64
	Height       uint64
	ParentHash   Hash
	Timestamp    uint64
	StateRoot    Hash
	TxsRoot      Hash
	ReceiptsRoot Hash
	ProofsRoot   Hash
	DaRoot       Hash
	Theta        uint64
	MixSeed      []byte
	Nonce        []byte
}

// headerFieldAliases maps a decode-time alternate spelling to the canonical
// field name. Grounded on original_source/core/chain/block_import.py's
// snake/camel tolerance helpers; re-encoding never produces these.
var headerFieldAliases = map[string]string{
	"chainId":      "chain_id",
	"parentHash":   "parent_hash",
	"stateRoot":    "state_root",
	"txsRoot":      "txs_root",
	"receiptsRoot": "receipts_root",
	"proofsRoot":   "proofs_root",
	"daRoot":       "da_root",
	"mixSeed":      "mix_seed",
}

var headerCanonicalFields = map[string]bool{
	"chain_id": true, "height": true, "parent_hash": true, "timestamp": true,
	"state_root": true, "txs_root": true, "receipts_root": true,
	"proofs_root": true, "da_root": true, "theta": true, "mix_seed": true,
	"nonce": true,
}

func (h Header) toObj() codec.Value {
	return codec.Map{
		{Key: codec.TextKey("chain_id"), Val: h.ChainID},
		{Key: codec.TextKey("height"), Val: h.Height},
		{Key: codec.TextKey("parent_hash"), Val: h.ParentHash.Bytes()},
		{Key: codec.TextKey("timestamp"), Val: h.Timestamp},
		{Key: codec.TextKey("state_root"), Val: h.StateRoot.Bytes()},
		{Key: codec.TextKey("txs_root"), Val: h.TxsRoot.Bytes()},
		{Key: codec.TextKey("receipts_root"), Val: h.ReceiptsRoot.Bytes()},
		{Key: codec.TextKey("proofs_root"), Val: h.ProofsRoot.Bytes()},
		{Key: codec.TextKey("da_root"), Val: h.DaRoot.Bytes()},
		{Key: codec.TextKey("theta"), Val: h.Theta},
		{Key: codec.TextKey("mix_seed"), Val: h.MixSeed},
		{Key: codec.TextKey("nonce"), Val: h.Nonce},
	}
}

// ToCBOR encodes the header as canonical CBOR.
func (h Header) ToCBOR() ([]byte, error) { return codec.Encode(h.toObj()) }

// SignBytes returns the domain-separated bytes HeaderHash is computed over.
func (h Header) SignBytes() ([]byte, error) {
	return codec.SignBytes(codec.DomainHeaderSignV1, h.ChainID, h.toObj(), nil)
}

// HeaderHash returns sha3_256(SignBytes()).
func (h Header) HeaderHash() (Hash, error) {
	sb, err := h.SignBytes()
	if err != nil {
		return Hash{}, err
	}
	return codec.Sha3_256(sb), nil
}

// Validate performs the structural sanity checks the importer requires
// before persisting a header: 32-byte roots, theta within bounds, nonce and
// mix_seed within their byte caps.
func (h Header) Validate() error {
	if h.Theta > MaxTheta {
		return NewCodedError(CodeInvalid, "theta exceeds maximum")
	}
	if len(h.MixSeed) > MaxNonceOrMixSeedLen {
		return NewCodedError(CodeBadLength, "mix_seed exceeds 64 bytes")
	}
	if len(h.Nonce) > MaxNonceOrMixSeedLen {
		return NewCodedError(CodeBadLength, "nonce exceeds 64 bytes")
	}
	return nil
}

// HeaderFromCBOR decodes a Header, applying the decode-only alias table and
// rejecting any field not in the canonical or alias sets.
func HeaderFromCBOR(b []byte) (Header, error) {
	v, err := codec.Decode(b)
	if err != nil {
		return Header{}, WrapCoded(CodeBadCBOR, "decode Header", err)
	}
	m, ok := v.(codec.DecodedMap)
	if !ok {
		return Header{}, NewCodedError(CodeBadCBOR, "Header must be a map")
	}
	canon := map[string]codec.Value{}
	for _, e := range m {
		key, ok := e.Key.AsText()
		if !ok {
			return Header{}, NewCodedError(CodeBadCBOR, "Header keys must be strings")
		}
		name := key
		if alias, ok := headerFieldAliases[key]; ok {
			name = alias
		}
		if !headerCanonicalFields[name] {
			return Header{}, NewCodedError(CodeUnknownField, "unknown header field: "+key)
		}
		if _, dup := canon[name]; dup {
			return Header{}, NewCodedError(CodeUnknownField, "header field given under two spellings: "+name)
		}
		canon[name] = e.Val
	}
	get := func(name string) (codec.Value, bool) { v, ok := canon[name]; return v, ok }
	req := func(name string) (codec.Value, error) {
		v, ok := get(name)
		if !ok {
			return nil, NewCodedError(CodeBadCBOR, "Header missing "+name)
		}
		return v, nil
	}

	var h Header
	chainIDV, err := req("chain_id")
	if err != nil {
		return Header{}, err
	}
	if h.ChainID, err = asUint(chainIDV); err != nil {
		return Header{}, err
	}
	heightV, err := req("height")
	if err != nil {
		return Header{}, err
	}
	if h.Height, err = asUint(heightV); err != nil {
		return Header{}, err
	}
	parentV, err := req("parent_hash")
	if err != nil {
		return Header{}, err
	}
	parentB, err := asBytes(parentV)
	if err != nil {
		return Header{}, err
	}
	if h.ParentHash, err = HashFromBytes(parentB); err != nil {
		return Header{}, err
	}
	tsV, err := req("timestamp")
	if err != nil {
		return Header{}, err
	}
	if h.Timestamp, err = asUint(tsV); err != nil {
		return Header{}, err
	}
	for _, pair := range []struct {
		name string
		dst  *Hash
	}{
		{"state_root", &h.StateRoot},
		{"txs_root", &h.TxsRoot},
		{"receipts_root", &h.ReceiptsRoot},
		{"proofs_root", &h.ProofsRoot},
		{"da_root", &h.DaRoot},
	} {
		v, err := req(pair.name)
		if err != nil {
			return Header{}, err
		}
		b, err := asBytes(v)
		if err != nil {
			return Header{}, err
		}
		hh, err := HashFromBytes(b)
		if err != nil {
			return Header{}, err
		}
		*pair.dst = hh
	}
	thetaV, err := req("theta")
	if err != nil {
		return Header{}, err
	}
	if h.Theta, err = asUint(thetaV); err != nil {
		return Header{}, err
	}
	mixV, err := req("mix_seed")
	if err != nil {
		return Header{}, err
	}
	if h.MixSeed, err = asBytes(mixV); err != nil {
		return Header{}, err
	}
	nonceV, err := req("nonce")
	if err != nil {
		return Header{}, err
	}
	if h.Nonce, err = asBytes(nonceV); err != nil {
		return Header{}, err
	}
	if err := h.Validate(); err != nil {
		return Header{}, err
	}
	return h, nil
}

// Block is a header plus its transactions and optional proofs/receipts.
type Block struct {
	Header   Header
	Txs      []Tx
	Proofs   []byte
	Receipts []Receipt
}

func (b Block) toObj() codec.Value {
	txs := make([]codec.Value, len(b.Txs))
	for i, tx := range b.Txs {
		txs[i] = tx.toObj()
	}
	m := codec.Map{
		{Key: codec.TextKey("header"), Val: b.Header.toObj()},
		{Key: codec.TextKey("txs"), Val: txs},
	}
	if b.Proofs != nil {
		m = append(m, codec.Entry{Key: codec.TextKey("proofs"), Val: b.Proofs})
	}
	if b.Receipts != nil {
		receipts := make([]codec.Value, len(b.Receipts))
		for i, r := range b.Receipts {
			receipts[i] = r.toObj()
		}
		m = append(m, codec.Entry{Key: codec.TextKey("receipts"), Val: receipts})
	}
	return m
}

// ToCBOR encodes the block as canonical CBOR.
func (b Block) ToCBOR() ([]byte, error) { return codec.Encode(b.toObj()) }

// BlockFromCBOR decodes a Block, requiring at least header and txs.
func BlockFromCBOR(raw []byte) (Block, error) {
	v, err := codec.Decode(raw)
	if err != nil {
		return Block{}, WrapCoded(CodeBadCBOR, "decode Block", err)
	}
	return blockFromValue(v)
}

func blockFromValue(v codec.Value) (Block, error) {
	m, ok := v.(codec.DecodedMap)
	if !ok {
		return Block{}, NewCodedError(CodeBadCBOR, "Block must be a map")
	}
	allowed := map[string]bool{"header": true, "txs": true, "proofs": true, "receipts": true}
	for _, k := range m.Keys() {
		if !allowed[k] {
			return Block{}, NewCodedError(CodeUnknownField, "unknown block field: "+k)
		}
	}
	headerV, ok := m.Get("header")
	if !ok {
		return Block{}, NewCodedError(CodeBadCBOR, "block missing header")
	}
	headerEnc, err := codec.Encode(headerV)
	if err != nil {
		return Block{}, err
	}
	header, err := HeaderFromCBOR(headerEnc)
	if err != nil {
		return Block{}, err
	}
	txsV, ok := m.Get("txs")
	if !ok {
		return Block{}, NewCodedError(CodeBadCBOR, "block missing txs")
	}
	txsArr, ok := txsV.([]codec.Value)
	if !ok {
		return Block{}, NewCodedError(CodeBadCBOR, "txs must be an array")
	}
	txs := make([]Tx, 0, len(txsArr))
	for _, txV := range txsArr {
		txEnc, err := codec.Encode(txV)
		if err != nil {
			return Block{}, err
		}
		tx, err := TxFromCBOR(txEnc)
		if err != nil {
			return Block{}, err
		}
		txs = append(txs, tx)
	}
	blk := Block{Header: header, Txs: txs}
	if pV, ok := m.Get("proofs"); ok {
		pb, err := asBytes(pV)
		if err != nil {
			return Block{}, err
		}
		blk.Proofs = pb
	}
	if rV, ok := m.Get("receipts"); ok {
		rArr, ok := rV.([]codec.Value)
		if !ok {
			return Block{}, NewCodedError(CodeBadCBOR, "receipts must be an array")
		}
		for _, r := range rArr {
			renc, err := codec.Encode(r)
			if err != nil {
				return Block{}, err
			}
			rc, err := ReceiptFromCBOR(renc)
			if err != nil {
				return Block{}, err
			}
			blk.Receipts = append(blk.Receipts, rc)
		}
	}
	return blk, nil
}
