package core

import "github.com/sirupsen/logrus"

// ImportStatus is the outcome of a single Import call.
type ImportStatus string

const (
	ImportAccepted  ImportStatus = "ACCEPTED"
	ImportDuplicate ImportStatus = "DUPLICATE"
	ImportOrphan    ImportStatus = "ORPHAN"
	ImportRejected  ImportStatus = "REJECTED"
)

// ImportResult reports what happened to one submitted block.
type ImportResult struct {
	Status ImportStatus
	Hash   Hash
	Head   HeadRef
	Err    error
}

// BlockImporter validates and persists incoming blocks against a Ledger. It
// is the single entry point a syncing peer or a local miner goes through;
// nothing touches the ledger's block store directly.
type BlockImporter struct {
	ledger *Ledger
}

// NewBlockImporter builds an importer bound to ledger.
func NewBlockImporter(ledger *Ledger) *BlockImporter {
	return &BlockImporter{ledger: ledger}
}

// ImportBytes decodes raw wire bytes and imports the resulting block.
func (im *BlockImporter) ImportBytes(raw []byte) ImportResult {
	blk, err := BlockFromCBOR(raw)
	if err != nil {
		return ImportResult{Status: ImportRejected, Err: err}
	}
	return im.Import(blk)
}

// Import runs the full admission pipeline for a decoded block:
//
//  1. compute HeaderHash
//  2. reject if already stored (DUPLICATE)
//  3. reject chain_id mismatch against any existing genesis
//  4. genesis (height 0) must have an all-zero parent_hash (its roots are not checked);
//     non-genesis must reference a parent already stored, else ORPHAN
//  5. non-genesis height must be parent height + 1
//  6. structural sanity (Header.Validate: root widths, theta, nonce/mix_seed)
//  7. persist header+block keyed by HeaderHash
//  8. index the block's transactions
//  9. run fork choice against the current head
//  10. update the canonical head if fork choice selected this block
func (im *BlockImporter) Import(blk Block) ImportResult {
	hash, err := blk.Header.HeaderHash()
	if err != nil {
		return ImportResult{Status: ImportRejected, Err: err}
	}

	if im.ledger.HasHeader(hash) {
		head, _ := im.ledger.Head()
		return ImportResult{Status: ImportDuplicate, Hash: hash, Head: head}
	}

	if genesis, ok := im.ledger.GenesisHash(); ok {
		if genesisHdr, ok := im.ledger.GetHeader(genesis); ok && blk.Header.ChainID != genesisHdr.ChainID {
			return ImportResult{Status: ImportRejected, Hash: hash,
				Err: NewCodedError(CodeBadChainID, "block chain_id does not match genesis")}
		}
	}

	if blk.Header.Height == 0 {
		if !blk.Header.ParentHash.IsZero() {
			return ImportResult{Status: ImportRejected, Hash: hash,
				Err: NewCodedError(CodeInvalid, "genesis parent_hash must be all-zero")}
		}
	} else {
		parent, ok := im.ledger.GetHeader(blk.Header.ParentHash)
		if !ok {
			return ImportResult{Status: ImportOrphan, Hash: hash,
				Err: NewCodedError(CodeParentMissing, "parent header not found")}
		}
		if blk.Header.Height != parent.Height+1 {
			return ImportResult{Status: ImportRejected, Hash: hash,
				Err: NewCodedError(CodeHeightMismatch, "height is not parent height + 1")}
		}
	}

	if err := blk.Header.Validate(); err != nil {
		return ImportResult{Status: ImportRejected, Hash: hash, Err: err}
	}

	im.ledger.PutBlock(hash, blk)
	if err := im.ledger.IndexTxs(blk.Header.Height, blk.Txs); err != nil {
		return ImportResult{Status: ImportRejected, Hash: hash, Err: err}
	}

	current, hasCurrent := im.ledger.Head()
	candidate := HeadRef{Height: blk.Header.Height, Hash: hash}
	newHead := ChooseHead(current, hasCurrent, candidate)
	if !hasCurrent || newHead != current {
		im.ledger.SetHead(newHead)
	}

	logrus.WithFields(logrus.Fields{
		"height": blk.Header.Height,
		"hash":   hash.Hex(),
	}).Info("importer: block accepted")

	head, _ := im.ledger.Head()
	return ImportResult{Status: ImportAccepted, Hash: hash, Head: head}
}
