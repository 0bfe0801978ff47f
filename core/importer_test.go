package core

import (
	"bytes"
	"testing"
)

// TestUnsignedTxTransferRoundTrip matches spec scenario S1.
func TestUnsignedTxTransferRoundTrip(t *testing.T) {
	var sender, to Address
	sender[0] = 0x11
	to[0] = 0x22
	u, err := BuildTransfer(1, 0, 1000, 50000, sender, to, NewAmountFromUint64(123456789), nil)
	if err != nil {
		t.Fatalf("BuildTransfer: %v", err)
	}
	enc, err := u.ToCBOR()
	if err != nil {
		t.Fatalf("ToCBOR: %v", err)
	}
	dec, err := UnsignedTxFromCBOR(enc)
	if err != nil {
		t.Fatalf("UnsignedTxFromCBOR: %v", err)
	}
	reenc, err := dec.ToCBOR()
	if err != nil {
		t.Fatalf("re-encode: %v", err)
	}
	if !bytes.Equal(enc, reenc) {
		t.Fatalf("encode(decode(encode(u))) != encode(u): % x vs % x", reenc, enc)
	}
	h1, err := u.UnsignedHash()
	if err != nil {
		t.Fatalf("UnsignedHash: %v", err)
	}
	h2, err := u.UnsignedHash()
	if err != nil {
		t.Fatalf("UnsignedHash: %v", err)
	}
	if h1 != h2 {
		t.Fatal("UnsignedHash must be stable across reruns")
	}
}

func genesisBlock(chainID uint64) Block {
	return Block{Header: Header{ChainID: chainID, Height: 0}}
}

// TestImportGenesisThenDuplicate matches spec scenario S3.
func TestImportGenesisThenDuplicate(t *testing.T) {
	ledger := NewLedger()
	im := NewBlockImporter(ledger)

	blk := genesisBlock(1337)
	res := im.Import(blk)
	if res.Status != ImportAccepted {
		t.Fatalf("expected ACCEPTED, got %s (%v)", res.Status, res.Err)
	}
	wantHash, err := blk.Header.HeaderHash()
	if err != nil {
		t.Fatalf("HeaderHash: %v", err)
	}
	if res.Hash != wantHash {
		t.Fatalf("unexpected hash: got %x want %x", res.Hash, wantHash)
	}
	head, ok := ledger.Head()
	if !ok || head.Height != 0 || head.Hash != wantHash {
		t.Fatalf("unexpected head after genesis import: %#v (ok=%v)", head, ok)
	}

	res2 := im.Import(blk)
	if res2.Status != ImportDuplicate {
		t.Fatalf("expected DUPLICATE on re-import, got %s", res2.Status)
	}
	head2, ok := ledger.Head()
	if !ok || head2 != head {
		t.Fatalf("expected head unchanged after duplicate import, got %#v", head2)
	}
}

func TestImportGenesisRejectsNonZeroParent(t *testing.T) {
	ledger := NewLedger()
	im := NewBlockImporter(ledger)
	blk := Block{Header: Header{ChainID: 1, Height: 0, ParentHash: Hash{0x01}}}
	res := im.Import(blk)
	if res.Status != ImportRejected {
		t.Fatalf("expected REJECTED for non-zero genesis parent, got %s", res.Status)
	}
}

func TestImportOrphanWhenParentMissing(t *testing.T) {
	ledger := NewLedger()
	im := NewBlockImporter(ledger)
	blk := Block{Header: Header{ChainID: 1, Height: 5, ParentHash: Hash{0xAB}}}
	res := im.Import(blk)
	if res.Status != ImportOrphan {
		t.Fatalf("expected ORPHAN, got %s", res.Status)
	}
	if CodeOf(res.Err) != CodeParentMissing {
		t.Fatalf("expected PARENT_MISSING, got %v", res.Err)
	}
}

func TestImportRejectsHeightMismatch(t *testing.T) {
	ledger := NewLedger()
	im := NewBlockImporter(ledger)
	genesis := genesisBlock(1)
	if res := im.Import(genesis); res.Status != ImportAccepted {
		t.Fatalf("genesis import failed: %s (%v)", res.Status, res.Err)
	}
	genesisHash, _ := genesis.Header.HeaderHash()

	bad := Block{Header: Header{ChainID: 1, Height: 2, ParentHash: genesisHash}}
	res := im.Import(bad)
	if res.Status != ImportRejected {
		t.Fatalf("expected REJECTED for height mismatch, got %s", res.Status)
	}
	if CodeOf(res.Err) != CodeHeightMismatch {
		t.Fatalf("expected HEIGHT_MISMATCH, got %v", res.Err)
	}
}

func TestImportRejectsChainIDMismatch(t *testing.T) {
	ledger := NewLedger()
	im := NewBlockImporter(ledger)
	if res := im.Import(genesisBlock(1)); res.Status != ImportAccepted {
		t.Fatalf("genesis import failed: %s", res.Status)
	}
	other := genesisBlock(2)
	res := im.Import(other)
	if res.Status != ImportRejected || CodeOf(res.Err) != CodeBadChainID {
		t.Fatalf("expected chain_id mismatch rejection, got %s (%v)", res.Status, res.Err)
	}
}

func TestImportAdvancesHeadAcrossHeights(t *testing.T) {
	ledger := NewLedger()
	im := NewBlockImporter(ledger)
	genesis := genesisBlock(9)
	im.Import(genesis)
	genesisHash, _ := genesis.Header.HeaderHash()

	child := Block{Header: Header{ChainID: 9, Height: 1, ParentHash: genesisHash}}
	res := im.Import(child)
	if res.Status != ImportAccepted {
		t.Fatalf("expected ACCEPTED, got %s (%v)", res.Status, res.Err)
	}
	head, ok := ledger.Head()
	childHash, _ := child.Header.HeaderHash()
	if !ok || head.Height != 1 || head.Hash != childHash {
		t.Fatalf("expected head to advance to child, got %#v", head)
	}
}

func TestImportBytesRejectsGarbage(t *testing.T) {
	ledger := NewLedger()
	im := NewBlockImporter(ledger)
	res := im.ImportBytes([]byte{0xFF, 0xFF, 0xFF})
	if res.Status != ImportRejected {
		t.Fatalf("expected REJECTED for malformed bytes, got %s", res.Status)
	}
}
