package core

import (
	"sync"

	"animica/codec"
)

// InMemorySyscallHost is the default SyscallHost: a deterministic, anchored
// off-chain compute stand-in with no external I/O, grounded the same way
// InMemoryCapabilities stands in for the hash module. Every enqueued task
// id is derived purely from the transaction envelope that enqueued it
// (deriveTaskID), and its eventual (status, output) is derived purely from
// the task id itself, so any two nodes that replay the same block sequence
// anchor and release the same results without coordinating anything beyond
// the chain's canonical state. Nothing here may consult wall-clock time or
// any other non-replayable input: rate-limiting submission of
// syscalls-bearing transactions belongs at mempool admission (see
// cmd/animicad), never inside this deterministic execution path.
type InMemorySyscallHost struct {
	mu      sync.Mutex
	anchors map[string]uint64 // hex(task_id) -> block height it was enqueued at
	blobs   map[string][]byte // hex(commitment) -> pinned data, for local inspection only
}

// NewInMemorySyscallHost builds an empty syscall host.
func NewInMemorySyscallHost() *InMemorySyscallHost {
	return &InMemorySyscallHost{
		anchors: make(map[string]uint64),
		blobs:   make(map[string][]byte),
	}
}

// deriveTaskID computes sha3_256 of the canonical CBOR envelope
// {1:chain_id, 2:block_height, 3:tx_hash, 4:caller, 5:payload}, the
// deterministic anchor every *_enqueue syscall uses. It deliberately does
// not go through codec.SignBytes: that envelope is reserved for the closed
// set of signing/hashing domains, and a task id is neither.
func deriveTaskID(chainID, blockHeight uint64, txHash Hash, caller Address, payload []byte) ([]byte, error) {
	m := codec.Map{
		{Key: codec.IntKey(1), Val: chainID},
		{Key: codec.IntKey(2), Val: blockHeight},
		{Key: codec.IntKey(3), Val: txHash.Bytes()},
		{Key: codec.IntKey(4), Val: caller.Bytes()},
		{Key: codec.IntKey(5), Val: payload},
	}
	enc, err := codec.Encode(m)
	if err != nil {
		return nil, err
	}
	h := codec.Sha3_256(enc)
	return h[:], nil
}

// deriveFrom mixes a tag into a task id (or random-bytes seed) to produce an
// independent deterministic digest, the same "hash(anchor || purpose)"
// shape used throughout this codebase to avoid cross-purpose collisions.
func deriveFrom(anchor []byte, tag string) []byte {
	buf := append(append([]byte(nil), anchor...), tag...)
	h := codec.Sha3_256(buf)
	return h[:]
}

func (h *InMemorySyscallHost) BlobPin(ns uint64, data []byte) ([]byte, error) {
	nsB := uint64ToBytes(ns)
	commitment := deriveFrom(append(append([]byte(nil), nsB...), data...), "blob_pin")
	h.mu.Lock()
	h.blobs[string(commitment)] = append([]byte(nil), data...)
	h.mu.Unlock()
	return commitment, nil
}

func (h *InMemorySyscallHost) Enqueue(chainID, blockHeight uint64, txHash Hash, caller Address, payload []byte) ([]byte, error) {
	id, err := deriveTaskID(chainID, blockHeight, txHash, caller, payload)
	if err != nil {
		return nil, err
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	key := string(id)
	if _, exists := h.anchors[key]; !exists {
		h.anchors[key] = blockHeight
	}
	return id, nil
}

// ReadResult enforces §4.D.6's availability rule: a task's result is never
// visible in the block that enqueued it, only from enqueue_block+1 onward.
// The (status, output) pair itself is a pure function of the task id, so
// every node that reaches the same height sees the same bytes.
func (h *InMemorySyscallHost) ReadResult(taskID []byte, currentHeight uint64) ([]byte, []byte, error) {
	h.mu.Lock()
	anchorHeight, ok := h.anchors[string(taskID)]
	h.mu.Unlock()
	if !ok {
		return nil, nil, NewCodedError(CodeNoResultYet, "unknown task_id")
	}
	if currentHeight < anchorHeight+1 {
		return nil, nil, NewCodedError(CodeNoResultYet, "result not available before the block after enqueue")
	}
	status := deriveFrom(taskID, "status")[:4]
	output := deriveFrom(taskID, "output")
	return status, output, nil
}

// ZkVerify is a deterministic stand-in verifier: a proof is accepted iff it
// equals sha3_256(circuit || public). There is no real zk-SNARK/STARK
// backend wired into this runtime (see DESIGN.md); this keeps the capability
// callable and fully deterministic without claiming cryptographic soundness.
func (h *InMemorySyscallHost) ZkVerify(circuit, proof, public []byte) (bool, error) {
	want := deriveFrom(append(append([]byte(nil), circuit...), public...), "zk")
	if len(proof) != len(want) {
		return false, nil
	}
	for i := range proof {
		if proof[i] != want[i] {
			return false, nil
		}
	}
	return true, nil
}

func (h *InMemorySyscallHost) RandomBytes(chainID, blockHeight uint64, txHash Hash, caller Address, counter uint64, n uint64) ([]byte, error) {
	seed := codec.Map{
		{Key: codec.IntKey(1), Val: chainID},
		{Key: codec.IntKey(2), Val: blockHeight},
		{Key: codec.IntKey(3), Val: txHash.Bytes()},
		{Key: codec.IntKey(4), Val: caller.Bytes()},
		{Key: codec.IntKey(5), Val: counter},
	}
	enc, err := codec.Encode(seed)
	if err != nil {
		return nil, err
	}
	out := make([]byte, 0, n)
	block := 0
	for uint64(len(out)) < n {
		digest := deriveFrom(enc, itoa(block))
		out = append(out, digest...)
		block++
	}
	return out[:n], nil
}
