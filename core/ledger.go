package core

import (
	"sync"

	"github.com/sirupsen/logrus"
)

// HeadRef is the canonical chain tip: a height and the HeaderHash at that
// height.
type HeadRef struct {
	Height uint64
	Hash   Hash
}

// Ledger is the node's persisted view of the chain: blocks keyed by their
// HeaderHash (a block is stored at most once), a transaction index, the
// current head, and the execution-time contract state. The in-memory maps
// here stand in for whatever on-disk KV store a deployment wires in; the
// access patterns (get/put by fixed key, never by range scan except the
// index, which is append-only) are chosen so that substitution is
// mechanical.
type Ledger struct {
	mu sync.RWMutex

	headerByHash map[Hash]Header
	blockByHash  map[Hash]Block
	childrenOf   map[Hash][]Hash // parent hash -> known children, for fork choice

	head       HeadRef
	hasHead    bool
	txIndex    map[Hash]TxLocation
	state      *MemoryState
	genesis    Hash
	hasGenesis bool
}

// TxLocation is where a transaction landed once its block was accepted.
type TxLocation struct {
	Height uint64
	Index  int
}

// NewLedger builds an empty ledger backed by in-memory contract state.
func NewLedger() *Ledger {
	return &Ledger{
		headerByHash: make(map[Hash]Header),
		blockByHash:  make(map[Hash]Block),
		childrenOf:   make(map[Hash][]Hash),
		txIndex:      make(map[Hash]TxLocation),
		state:        NewMemoryState(),
	}
}

// State exposes the contract-storage view, e.g. for RPC balance queries.
func (l *Ledger) State() *MemoryState { return l.state }

// Head returns the current canonical tip, and whether one has been set yet.
func (l *Ledger) Head() (HeadRef, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.head, l.hasHead
}

// HasHeader reports whether a header with this hash is already stored,
// independent of whether it is on the canonical chain.
func (l *Ledger) HasHeader(h Hash) bool {
	l.mu.RLock()
	defer l.mu.RUnlock()
	_, ok := l.headerByHash[h]
	return ok
}

// GetHeader returns the stored header for h, if any.
func (l *Ledger) GetHeader(h Hash) (Header, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	hdr, ok := l.headerByHash[h]
	return hdr, ok
}

// GetBlock returns the stored block for h, if any.
func (l *Ledger) GetBlock(h Hash) (Block, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	b, ok := l.blockByHash[h]
	return b, ok
}

// ChildrenOf returns the known headers whose parent_hash is h.
func (l *Ledger) ChildrenOf(h Hash) []Hash {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return append([]Hash(nil), l.childrenOf[h]...)
}

// PutBlock persists a block keyed by its HeaderHash, recording the
// parent/child edge for fork choice. It does not move the canonical head;
// callers do that separately via SetHead once fork choice has run.
func (l *Ledger) PutBlock(hash Hash, b Block) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.headerByHash[hash] = b.Header
	l.blockByHash[hash] = b
	l.childrenOf[b.Header.ParentHash] = append(l.childrenOf[b.Header.ParentHash], hash)
	if b.Header.Height == 0 {
		l.genesis = hash
		l.hasGenesis = true
	}
}

// IndexTxs records txhash -> (height,index) for every transaction in a
// block. BlockImporter calls it for every accepted block, before fork
// choice runs, whether or not that block becomes canonical.
func (l *Ledger) IndexTxs(height uint64, txs []Tx) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	for i, tx := range txs {
		id, err := tx.TxID()
		if err != nil {
			return err
		}
		l.txIndex[id] = TxLocation{Height: height, Index: i}
	}
	return nil
}

// LookupTx returns the block height and index of a previously indexed
// transaction.
func (l *Ledger) LookupTx(id Hash) (TxLocation, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	loc, ok := l.txIndex[id]
	return loc, ok
}

// SetHead updates the canonical tip. Callers are expected to have already
// decided, via fork choice, that head is the correct new tip.
func (l *Ledger) SetHead(head HeadRef) {
	l.mu.Lock()
	defer l.mu.Unlock()
	prev := l.head
	l.head = head
	l.hasHead = true
	logrus.WithFields(logrus.Fields{
		"height": head.Height,
		"hash":   head.Hash.Hex(),
		"prev":   prev.Hash.Hex(),
	}).Info("ledger: head updated")
}

// GenesisHash returns the stored genesis block's hash, if one has been
// imported.
func (l *Ledger) GenesisHash() (Hash, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.genesis, l.hasGenesis
}
