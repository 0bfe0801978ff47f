package core

import (
	"bytes"
	"testing"

	"animica/codec"
)

func sampleHeader() Header {
	return Header{
		ChainID:      1,
		Height:       0,
		ParentHash:   Hash{},
		Timestamp:    1700000000,
		StateRoot:    Hash{0x01},
		TxsRoot:      Hash{0x02},
		ReceiptsRoot: Hash{0x03},
		ProofsRoot:   Hash{0x04},
		DaRoot:       Hash{0x05},
		Theta:        1000,
		MixSeed:      []byte{0xAA, 0xBB},
		Nonce:        []byte{0x01},
	}
}

func TestHeaderRoundTrip(t *testing.T) {
	h := sampleHeader()
	enc, err := h.ToCBOR()
	if err != nil {
		t.Fatalf("ToCBOR: %v", err)
	}
	back, err := HeaderFromCBOR(enc)
	if err != nil {
		t.Fatalf("HeaderFromCBOR: %v", err)
	}
	reenc, err := back.ToCBOR()
	if err != nil {
		t.Fatalf("re-encode: %v", err)
	}
	if !bytes.Equal(enc, reenc) {
		t.Fatalf("header round trip not byte-identical: % x vs % x", enc, reenc)
	}
}

func TestHeaderCamelCaseAliasAccepted(t *testing.T) {
	h := sampleHeader()
	m := codec.Map{
		{Key: codec.TextKey("chainId"), Val: h.ChainID},
		{Key: codec.TextKey("height"), Val: h.Height},
		{Key: codec.TextKey("parentHash"), Val: h.ParentHash.Bytes()},
		{Key: codec.TextKey("timestamp"), Val: h.Timestamp},
		{Key: codec.TextKey("stateRoot"), Val: h.StateRoot.Bytes()},
		{Key: codec.TextKey("txsRoot"), Val: h.TxsRoot.Bytes()},
		{Key: codec.TextKey("receiptsRoot"), Val: h.ReceiptsRoot.Bytes()},
		{Key: codec.TextKey("proofsRoot"), Val: h.ProofsRoot.Bytes()},
		{Key: codec.TextKey("daRoot"), Val: h.DaRoot.Bytes()},
		{Key: codec.TextKey("theta"), Val: h.Theta},
		{Key: codec.TextKey("mixSeed"), Val: h.MixSeed},
		{Key: codec.TextKey("nonce"), Val: h.Nonce},
	}
	enc, err := codec.Encode(m)
	if err != nil {
		t.Fatalf("encode aliased header: %v", err)
	}
	got, err := HeaderFromCBOR(enc)
	if err != nil {
		t.Fatalf("HeaderFromCBOR with camelCase aliases: %v", err)
	}
	if got.ChainID != h.ChainID || got.Height != h.Height || got.Timestamp != h.Timestamp {
		t.Fatalf("aliased decode mismatch: %#v", got)
	}
}

func TestHeaderRejectsDualSpelling(t *testing.T) {
	h := sampleHeader()
	m := codec.Map{
		{Key: codec.TextKey("chain_id"), Val: h.ChainID},
		{Key: codec.TextKey("chainId"), Val: h.ChainID},
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
	enc, err := codec.Encode(m)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	if _, err := HeaderFromCBOR(enc); err == nil {
		t.Fatal("expected dual-spelling header field to be rejected")
	} else if CodeOf(err) != CodeUnknownField {
		t.Fatalf("expected UNKNOWN_FIELD, got %v", err)
	}
}

func TestHeaderRejectsUnknownField(t *testing.T) {
	h := sampleHeader()
	obj := h.toObj().(codec.Map)
	obj = append(obj, codec.Entry{Key: codec.TextKey("extra"), Val: uint64(1)})
	enc, err := codec.Encode(obj)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	if _, err := HeaderFromCBOR(enc); err == nil {
		t.Fatal("expected unknown field rejection")
	}
}

func TestHeaderValidateRejectsOversizedTheta(t *testing.T) {
	h := sampleHeader()
	h.Theta = MaxTheta + 1
	if err := h.Validate(); err == nil {
		t.Fatal("expected theta-too-large rejection")
	}
}

func TestHeaderValidateRejectsOversizedNonce(t *testing.T) {
	h := sampleHeader()
	h.Nonce = bytes.Repeat([]byte{0x01}, MaxNonceOrMixSeedLen+1)
	if err := h.Validate(); err == nil {
		t.Fatal("expected oversized nonce rejection")
	}
}

func TestHeaderHashDeterministic(t *testing.T) {
	h := sampleHeader()
	a, err := h.HeaderHash()
	if err != nil {
		t.Fatalf("HeaderHash: %v", err)
	}
	b, err := h.HeaderHash()
	if err != nil {
		t.Fatalf("HeaderHash: %v", err)
	}
	if a != b {
		t.Fatal("HeaderHash must be deterministic")
	}
}

func TestBlockRoundTrip(t *testing.T) {
	blk := Block{Header: sampleHeader()}
	enc, err := blk.ToCBOR()
	if err != nil {
		t.Fatalf("ToCBOR: %v", err)
	}
	back, err := BlockFromCBOR(enc)
	if err != nil {
		t.Fatalf("BlockFromCBOR: %v", err)
	}
	reenc, err := back.ToCBOR()
	if err != nil {
		t.Fatalf("re-encode: %v", err)
	}
	if !bytes.Equal(enc, reenc) {
		t.Fatalf("block round trip not byte-identical")
	}
}
