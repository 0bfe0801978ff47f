package core

import "sync"

// StateRW is the storage view a VM execution reads and writes through. It is
// scoped to one contract's key space per spec's persisted-state layout:
// "(contract_address,key) -> value".
type StateRW interface {
	GetBalance(addr Address) Amount
	SetBalance(addr Address, amt Amount) error
	Transfer(from, to Address, amt Amount) error

	GetCode(addr Address) []byte
	SetCode(addr Address, code []byte) error

	// GetManifest returns the manifest a contract was deployed with, or nil
	// if addr has no deployed contract. Every call path that re-enters a
	// contract (nested OpCall, a top-level CALL transaction) must look the
	// manifest up here rather than assume one, so a callee's declared
	// capability set is enforced the same way on every entry, not only on
	// its original DEPLOY.
	GetManifest(addr Address) *Manifest
	SetManifest(addr Address, m *Manifest) error

	GetStorage(contract Address, key []byte) ([]byte, bool)
	SetStorage(contract Address, key, value []byte) error
	DeleteStorage(contract Address, key []byte) error

	NonceOf(addr Address) uint64
	SetNonce(addr Address, nonce uint64)

	AddLog(l Log)
	TakeLogs() []Log

	// Snapshot runs fn; if fn returns an error every mutation made during fn
	// (balances, storage, code, nonces, logs) is rolled back before the
	// error is returned. Used to discard effects of a reverted contract
	// call without discarding the outer transaction's other effects.
	Snapshot(fn func() error) error
}

type storageKey struct {
	contract Address
	key      string
}

// MemoryState is an in-memory StateRW, the execution-time working set the
// ledger stages a transaction's effects into before they are committed to
// the persistent contract-storage table.
type MemoryState struct {
	mu        sync.Mutex
	balances  map[Address]Amount
	code      map[Address][]byte
	manifests map[Address]*Manifest
	storage   map[storageKey][]byte
	nonces    map[Address]uint64
	logs      []Log
}

// NewMemoryState builds an empty in-memory state.
func NewMemoryState() *MemoryState {
	return &MemoryState{
		balances:  make(map[Address]Amount),
		code:      make(map[Address][]byte),
		manifests: make(map[Address]*Manifest),
		storage:   make(map[storageKey][]byte),
		nonces:    make(map[Address]uint64),
	}
}

func (s *MemoryState) GetBalance(addr Address) Amount {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.balances[addr]
}

func (s *MemoryState) SetBalance(addr Address, amt Amount) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.balances[addr] = amt
	return nil
}

func (s *MemoryState) Transfer(from, to Address, amt Amount) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	bal := s.balances[from]
	if bal.Cmp(amt) < 0 {
		return NewCodedError(CodeInvalid, "insufficient balance")
	}
	newFrom, err := bal.Sub(amt)
	if err != nil {
		return err
	}
	newTo, err := s.balances[to].Add(amt)
	if err != nil {
		return err
	}
	s.balances[from] = newFrom
	s.balances[to] = newTo
	return nil
}

func (s *MemoryState) GetCode(addr Address) []byte {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.code[addr]
}

func (s *MemoryState) SetCode(addr Address, code []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.code[addr] = append([]byte(nil), code...)
	return nil
}

func (s *MemoryState) GetManifest(addr Address) *Manifest {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.manifests[addr]
}

func (s *MemoryState) SetManifest(addr Address, m *Manifest) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.manifests[addr] = m
	return nil
}

func (s *MemoryState) GetStorage(contract Address, key []byte) ([]byte, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.storage[storageKey{contract, string(key)}]
	return v, ok
}

func (s *MemoryState) SetStorage(contract Address, key, value []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.storage[storageKey{contract, string(key)}] = append([]byte(nil), value...)
	return nil
}

func (s *MemoryState) DeleteStorage(contract Address, key []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.storage, storageKey{contract, string(key)})
	return nil
}

func (s *MemoryState) NonceOf(addr Address) uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.nonces[addr]
}

func (s *MemoryState) SetNonce(addr Address, nonce uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nonces[addr] = nonce
}

func (s *MemoryState) AddLog(l Log) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.logs = append(s.logs, l)
}

func (s *MemoryState) TakeLogs() []Log {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := s.logs
	s.logs = nil
	return out
}

func (s *MemoryState) Snapshot(fn func() error) error {
	s.mu.Lock()
	balances := cloneAmountMap(s.balances)
	code := cloneBytesMap(s.code)
	manifests := cloneManifestMap(s.manifests)
	storage := make(map[storageKey][]byte, len(s.storage))
	for k, v := range s.storage {
		storage[k] = v
	}
	nonces := make(map[Address]uint64, len(s.nonces))
	for k, v := range s.nonces {
		nonces[k] = v
	}
	logs := append([]Log(nil), s.logs...)
	s.mu.Unlock()

	err := fn()
	if err != nil {
		s.mu.Lock()
		s.balances = balances
		s.code = code
		s.manifests = manifests
		s.storage = storage
		s.nonces = nonces
		s.logs = logs
		s.mu.Unlock()
	}
	return err
}

func cloneManifestMap(m map[Address]*Manifest) map[Address]*Manifest {
	out := make(map[Address]*Manifest, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

func cloneAmountMap(m map[Address]Amount) map[Address]Amount {
	out := make(map[Address]Amount, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

func cloneBytesMap(m map[Address][]byte) map[Address][]byte {
	out := make(map[Address][]byte, len(m))
	for k, v := range m {
		out[k] = append([]byte(nil), v...)
	}
	return out
}
