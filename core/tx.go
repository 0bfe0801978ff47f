package core

import (
	"animica/codec"
)

// Size caps on PQ signature material, per spec.
const (
	PubKeyMax = 2048
	SigMax    = 4096
)

// PqSignature is the fixed-byte-contract post-quantum signature envelope:
// an algorithm tag plus the raw public key and signature bytes the chosen
// algorithm's oracle (core/pq.go) produces and verifies.
type PqSignature struct {
	AlgID  int
	PubKey []byte
	Sig    []byte
}

// Validate enforces the size caps construction contracts require.
func (s PqSignature) Validate() error {
	if s.AlgID != AlgDilithium3 && s.AlgID != AlgSphincsSHAKE128s {
		return NewCodedError(CodeBadKind, "unknown PQ signature alg_id")
	}
	if len(s.PubKey) == 0 || len(s.PubKey) > PubKeyMax {
		return NewCodedError(CodeBadLength, "pubkey exceeds PUBKEY_MAX")
	}
	if len(s.Sig) == 0 || len(s.Sig) > SigMax {
		return NewCodedError(CodeBadLength, "sig exceeds SIG_MAX")
	}
	return nil
}

func (s PqSignature) toObj() codec.Value {
	return codec.Map{
		{Key: codec.TextKey("alg"), Val: int64(s.AlgID)},
		{Key: codec.TextKey("pubkey"), Val: s.PubKey},
		{Key: codec.TextKey("sig"), Val: s.Sig},
	}
}

func pqSignatureFromValue(v codec.Value) (PqSignature, error) {
	m, ok := v.(codec.DecodedMap)
	if !ok {
		return PqSignature{}, NewCodedError(CodeBadCBOR, "signature must be a map")
	}
	allowed := map[string]bool{"alg": true, "pubkey": true, "sig": true}
	for _, k := range m.Keys() {
		if !allowed[k] {
			return PqSignature{}, NewCodedError(CodeUnknownField, "unknown signature field: "+k)
		}
	}
	alg, ok := m.Get("alg")
	if !ok {
		return PqSignature{}, NewCodedError(CodeBadCBOR, "signature missing alg")
	}
	algID, err := asInt(alg)
	if err != nil {
		return PqSignature{}, err
	}
	pub, ok := m.Get("pubkey")
	if !ok {
		return PqSignature{}, NewCodedError(CodeBadCBOR, "signature missing pubkey")
	}
	pubB, err := asBytes(pub)
	if err != nil {
		return PqSignature{}, err
	}
	sig, ok := m.Get("sig")
	if !ok {
		return PqSignature{}, NewCodedError(CodeBadCBOR, "signature missing sig")
	}
	sigB, err := asBytes(sig)
	if err != nil {
		return PqSignature{}, err
	}
	out := PqSignature{AlgID: int(algID), PubKey: pubB, Sig: sigB}
	if err := out.Validate(); err != nil {
		return PqSignature{}, err
	}
	return out, nil
}

// AccessEntry declares an address and the storage keys of that address a
// transaction intends to touch, for intrinsic gas accounting.
type AccessEntry struct {
	Addr        Address
	StorageKeys [][]byte
}

func (e AccessEntry) toObj() codec.Value {
	keys := make([]codec.Value, len(e.StorageKeys))
	for i, k := range e.StorageKeys {
		keys[i] = k
	}
	return codec.Map{
		{Key: codec.TextKey("addr"), Val: e.Addr.Bytes()},
		{Key: codec.TextKey("storageKeys"), Val: keys},
	}
}

func accessEntryFromValue(v codec.Value) (AccessEntry, error) {
	m, ok := v.(codec.DecodedMap)
	if !ok {
		return AccessEntry{}, NewCodedError(CodeBadCBOR, "access entry must be a map")
	}
	allowed := map[string]bool{"addr": true, "storageKeys": true}
	for _, k := range m.Keys() {
		if !allowed[k] {
			return AccessEntry{}, NewCodedError(CodeUnknownField, "unknown access entry field: "+k)
		}
	}
	addrV, ok := m.Get("addr")
	if !ok {
		return AccessEntry{}, NewCodedError(CodeBadCBOR, "access entry missing addr")
	}
	addrB, err := asBytes(addrV)
	if err != nil {
		return AccessEntry{}, err
	}
	addr, err := AddressFromBytes(addrB)
	if err != nil {
		return AccessEntry{}, err
	}
	var keys [][]byte
	if ksV, ok := m.Get("storageKeys"); ok {
		ksArr, ok := ksV.([]codec.Value)
		if !ok {
			return AccessEntry{}, NewCodedError(CodeBadCBOR, "storageKeys must be an array")
		}
		for _, k := range ksArr {
			kb, err := asBytes(k)
			if err != nil {
				return AccessEntry{}, err
			}
			keys = append(keys, kb)
		}
	}
	return AccessEntry{Addr: addr, StorageKeys: keys}, nil
}

// TxKind identifies which payload shape an UnsignedTx carries.
type TxKind int

const (
	KindTransfer TxKind = 0
	KindDeploy   TxKind = 1
	KindCall     TxKind = 2
)

// TxPayload is implemented by TransferPayload, DeployPayload and CallPayload.
type TxPayload interface {
	Kind() TxKind
	toObj() codec.Value
}

// TransferPayload moves Amount from sender to To, optionally carrying an
// opaque data blob interpreted by the receiving contract, if any.
type TransferPayload struct {
	To     Address
	Amount Amount
	Data   []byte
}

func (TransferPayload) Kind() TxKind { return KindTransfer }

func (p TransferPayload) toObj() codec.Value {
	return codec.Map{
		{Key: codec.TextKey("to"), Val: p.To.Bytes()},
		{Key: codec.TextKey("amount"), Val: amountToCBOR(p.Amount)},
		{Key: codec.TextKey("data"), Val: p.Data},
	}
}

// DeployPayload deploys a new contract; both Code and Manifest are required
// and non-empty. Manifest declares the capability surface the contract will
// be allowed to use (core/vm_analyzer.go).
type DeployPayload struct {
	Code     []byte
	Manifest []byte
}

func (DeployPayload) Kind() TxKind { return KindDeploy }

func (p DeployPayload) toObj() codec.Value {
	return codec.Map{
		{Key: codec.TextKey("code"), Val: p.Code},
		{Key: codec.TextKey("manifest"), Val: p.Manifest},
	}
}

// CallPayload invokes an existing contract at To with an opaque Data blob.
type CallPayload struct {
	To   Address
	Data []byte
}

func (CallPayload) Kind() TxKind { return KindCall }

func (p CallPayload) toObj() codec.Value {
	return codec.Map{
		{Key: codec.TextKey("to"), Val: p.To.Bytes()},
		{Key: codec.TextKey("data"), Val: p.Data},
	}
}

// UnsignedTx is the consensus-relevant content of a transaction, before any
// PQ signatures are attached.
type UnsignedTx struct {
	ChainID    uint64
	Nonce      uint64
	GasPrice   uint64
	GasLimit   uint64
	Sender     Address
	Kind       TxKind
	Payload    TxPayload
	AccessList []AccessEntry
}

// BuildTransfer constructs a well-formed TRANSFER UnsignedTx.
func BuildTransfer(chainID, nonce, gasPrice, gasLimit uint64, sender, to Address, amount Amount, data []byte) (UnsignedTx, error) {
	u := UnsignedTx{
		ChainID: chainID, Nonce: nonce, GasPrice: gasPrice, GasLimit: gasLimit,
		Sender: sender, Kind: KindTransfer,
		Payload: TransferPayload{To: to, Amount: amount, Data: data},
	}
	return u, u.Validate()
}

// BuildDeploy constructs a well-formed DEPLOY UnsignedTx.
func BuildDeploy(chainID, nonce, gasPrice, gasLimit uint64, sender Address, code, manifest []byte) (UnsignedTx, error) {
	u := UnsignedTx{
		ChainID: chainID, Nonce: nonce, GasPrice: gasPrice, GasLimit: gasLimit,
		Sender: sender, Kind: KindDeploy,
		Payload: DeployPayload{Code: code, Manifest: manifest},
	}
	return u, u.Validate()
}

// BuildCall constructs a well-formed CALL UnsignedTx.
func BuildCall(chainID, nonce, gasPrice, gasLimit uint64, sender, to Address, data []byte) (UnsignedTx, error) {
	u := UnsignedTx{
		ChainID: chainID, Nonce: nonce, GasPrice: gasPrice, GasLimit: gasLimit,
		Sender: sender, Kind: KindCall,
		Payload: CallPayload{To: to, Data: data},
	}
	return u, u.Validate()
}

// Validate enforces the UnsignedTx construction contracts: chain_id > 0,
// gas_limit > 0, gas_price >= 0 (always true for uint64), kind-specific
// payload shape, and well-formed access list entries.
func (u UnsignedTx) Validate() error {
	if u.ChainID == 0 {
		return NewCodedError(CodeBadChainID, "chain_id must be > 0")
	}
	if u.GasLimit == 0 {
		return NewCodedError(CodeInvalid, "gas_limit must be > 0")
	}
	switch p := u.Payload.(type) {
	case TransferPayload:
		if u.Kind != KindTransfer {
			return NewCodedError(CodeBadKind, "payload/kind mismatch")
		}
		_ = p
	case DeployPayload:
		if u.Kind != KindDeploy {
			return NewCodedError(CodeBadKind, "payload/kind mismatch")
		}
		if len(p.Code) == 0 || len(p.Manifest) == 0 {
			return NewCodedError(CodeInvalid, "deploy requires non-empty code and manifest")
		}
	case CallPayload:
		if u.Kind != KindCall {
			return NewCodedError(CodeBadKind, "payload/kind mismatch")
		}
		if len(p.Data) == 0 {
			return NewCodedError(CodeInvalid, "call requires non-empty data")
		}
	default:
		return NewCodedError(CodeBadKind, "unknown payload type")
	}
	for _, e := range u.AccessList {
		if e.Addr.IsZero() {
			return NewCodedError(CodeInvalid, "access list entry has zero address")
		}
	}
	return nil
}

func amountToCBOR(a Amount) codec.Value {
	b := a.Bytes()
	if b == nil {
		return uint64(0)
	}
	return bigFromBytes(b)
}

func (u UnsignedTx) toObj() codec.Value {
	al := make([]codec.Value, len(u.AccessList))
	for i, e := range u.AccessList {
		al[i] = e.toObj()
	}
	return codec.Map{
		{Key: codec.TextKey("v"), Val: int64(1)},
		{Key: codec.TextKey("chainId"), Val: u.ChainID},
		{Key: codec.TextKey("from"), Val: u.Sender.Bytes()},
		{Key: codec.TextKey("nonce"), Val: u.Nonce},
		{Key: codec.TextKey("gas"), Val: codec.Map{
			{Key: codec.TextKey("price"), Val: u.GasPrice},
			{Key: codec.TextKey("limit"), Val: u.GasLimit},
		}},
		{Key: codec.TextKey("payload"), Val: codec.Map{
			{Key: codec.TextKey("t"), Val: int64(u.Kind)},
			{Key: codec.TextKey("v"), Val: u.Payload.toObj()},
		}},
		{Key: codec.TextKey("accessList"), Val: al},
	}
}

// ToCBOR encodes the UnsignedTx as canonical CBOR.
func (u UnsignedTx) ToCBOR() ([]byte, error) { return codec.Encode(u.toObj()) }

// SignBytes returns the domain-separated bytes a PQ signature over this
// UnsignedTx must cover.
func (u UnsignedTx) SignBytes() ([]byte, error) {
	return codec.SignBytes(codec.DomainTxSignV1, u.ChainID, u.toObj(), nil)
}

// UnsignedHash returns sha3_256(ToCBOR()).
func (u UnsignedTx) UnsignedHash() (Hash, error) {
	b, err := u.ToCBOR()
	if err != nil {
		return Hash{}, err
	}
	return codec.Sha3_256(b), nil
}

// UnsignedTxFromCBOR decodes and validates an UnsignedTx, rejecting unknown
// fields, unknown version tags and unknown kind integers.
func UnsignedTxFromCBOR(b []byte) (UnsignedTx, error) {
	v, err := codec.Decode(b)
	if err != nil {
		return UnsignedTx{}, WrapCoded(CodeBadCBOR, "decode UnsignedTx", err)
	}
	return unsignedTxFromValue(v)
}

func unsignedTxFromValue(v codec.Value) (UnsignedTx, error) {
	m, ok := v.(codec.DecodedMap)
	if !ok {
		return UnsignedTx{}, NewCodedError(CodeBadCBOR, "UnsignedTx must be a map")
	}
	allowed := map[string]bool{"v": true, "chainId": true, "from": true, "nonce": true, "gas": true, "payload": true, "accessList": true}
	for _, k := range m.Keys() {
		if !allowed[k] {
			return UnsignedTx{}, NewCodedError(CodeUnknownField, "unknown UnsignedTx field: "+k)
		}
	}
	ver, ok := m.Get("v")
	if !ok {
		return UnsignedTx{}, NewCodedError(CodeBadVersion, "UnsignedTx missing version")
	}
	verI, err := asInt(ver)
	if err != nil || verI != 1 {
		return UnsignedTx{}, NewCodedError(CodeBadVersion, "unsupported UnsignedTx version")
	}
	chainIDV, ok := m.Get("chainId")
	if !ok {
		return UnsignedTx{}, NewCodedError(CodeBadChainID, "UnsignedTx missing chainId")
	}
	chainID, err := asUint(chainIDV)
	if err != nil {
		return UnsignedTx{}, err
	}
	fromV, ok := m.Get("from")
	if !ok {
		return UnsignedTx{}, NewCodedError(CodeBadCBOR, "UnsignedTx missing from")
	}
	fromB, err := asBytes(fromV)
	if err != nil {
		return UnsignedTx{}, err
	}
	sender, err := AddressFromBytes(fromB)
	if err != nil {
		return UnsignedTx{}, err
	}
	nonceV, ok := m.Get("nonce")
	if !ok {
		return UnsignedTx{}, NewCodedError(CodeBadCBOR, "UnsignedTx missing nonce")
	}
	nonce, err := asUint(nonceV)
	if err != nil {
		return UnsignedTx{}, err
	}
	gasV, ok := m.Get("gas")
	if !ok {
		return UnsignedTx{}, NewCodedError(CodeBadCBOR, "UnsignedTx missing gas")
	}
	gasM, ok := gasV.(codec.DecodedMap)
	if !ok {
		return UnsignedTx{}, NewCodedError(CodeBadCBOR, "gas must be a map")
	}
	for _, k := range gasM.Keys() {
		if k != "price" && k != "limit" {
			return UnsignedTx{}, NewCodedError(CodeUnknownField, "unknown gas field: "+k)
		}
	}
	priceV, ok := gasM.Get("price")
	if !ok {
		return UnsignedTx{}, NewCodedError(CodeBadCBOR, "gas missing price")
	}
	price, err := asUint(priceV)
	if err != nil {
		return UnsignedTx{}, err
	}
	limitV, ok := gasM.Get("limit")
	if !ok {
		return UnsignedTx{}, NewCodedError(CodeBadCBOR, "gas missing limit")
	}
	limit, err := asUint(limitV)
	if err != nil {
		return UnsignedTx{}, err
	}
	payloadV, ok := m.Get("payload")
	if !ok {
		return UnsignedTx{}, NewCodedError(CodeBadCBOR, "UnsignedTx missing payload")
	}
	payloadM, ok := payloadV.(codec.DecodedMap)
	if !ok {
		return UnsignedTx{}, NewCodedError(CodeBadCBOR, "payload must be a map")
	}
	for _, k := range payloadM.Keys() {
		if k != "t" && k != "v" {
			return UnsignedTx{}, NewCodedError(CodeUnknownField, "unknown payload field: "+k)
		}
	}
	tV, ok := payloadM.Get("t")
	if !ok {
		return UnsignedTx{}, NewCodedError(CodeBadKind, "payload missing t")
	}
	tI, err := asInt(tV)
	if err != nil {
		return UnsignedTx{}, err
	}
	innerV, ok := payloadM.Get("v")
	if !ok {
		return UnsignedTx{}, NewCodedError(CodeBadCBOR, "payload missing v")
	}
	var payload TxPayload
	kind := TxKind(tI)
	switch kind {
	case KindTransfer:
		payload, err = transferPayloadFromValue(innerV)
	case KindDeploy:
		payload, err = deployPayloadFromValue(innerV)
	case KindCall:
		payload, err = callPayloadFromValue(innerV)
	default:
		return UnsignedTx{}, NewCodedError(CodeBadKind, "unknown tx kind integer")
	}
	if err != nil {
		return UnsignedTx{}, err
	}
	var accessList []AccessEntry
	if alV, ok := m.Get("accessList"); ok {
		alArr, ok := alV.([]codec.Value)
		if !ok {
			return UnsignedTx{}, NewCodedError(CodeBadCBOR, "accessList must be an array")
		}
		for _, e := range alArr {
			ae, err := accessEntryFromValue(e)
			if err != nil {
				return UnsignedTx{}, err
			}
			accessList = append(accessList, ae)
		}
	}
	u := UnsignedTx{
		ChainID: chainID, Nonce: nonce, GasPrice: price, GasLimit: limit,
		Sender: sender, Kind: kind, Payload: payload, AccessList: accessList,
	}
	if err := u.Validate(); err != nil {
		return UnsignedTx{}, err
	}
	return u, nil
}

func transferPayloadFromValue(v codec.Value) (TransferPayload, error) {
	m, ok := v.(codec.DecodedMap)
	if !ok {
		return TransferPayload{}, NewCodedError(CodeBadCBOR, "transfer payload must be a map")
	}
	allowed := map[string]bool{"to": true, "amount": true, "data": true}
	for _, k := range m.Keys() {
		if !allowed[k] {
			return TransferPayload{}, NewCodedError(CodeUnknownField, "unknown transfer field: "+k)
		}
	}
	toV, ok := m.Get("to")
	if !ok {
		return TransferPayload{}, NewCodedError(CodeBadCBOR, "transfer missing to")
	}
	toB, err := asBytes(toV)
	if err != nil {
		return TransferPayload{}, err
	}
	to, err := AddressFromBytes(toB)
	if err != nil {
		return TransferPayload{}, err
	}
	amountV, ok := m.Get("amount")
	if !ok {
		return TransferPayload{}, NewCodedError(CodeBadCBOR, "transfer missing amount")
	}
	amt, err := amountFromCBORValue(amountV)
	if err != nil {
		return TransferPayload{}, err
	}
	var data []byte
	if dv, ok := m.Get("data"); ok {
		data, err = asBytes(dv)
		if err != nil {
			return TransferPayload{}, err
		}
	}
	return TransferPayload{To: to, Amount: amt, Data: data}, nil
}

func deployPayloadFromValue(v codec.Value) (DeployPayload, error) {
	m, ok := v.(codec.DecodedMap)
	if !ok {
		return DeployPayload{}, NewCodedError(CodeBadCBOR, "deploy payload must be a map")
	}
	allowed := map[string]bool{"code": true, "manifest": true}
	for _, k := range m.Keys() {
		if !allowed[k] {
			return DeployPayload{}, NewCodedError(CodeUnknownField, "unknown deploy field: "+k)
		}
	}
	codeV, ok := m.Get("code")
	if !ok {
		return DeployPayload{}, NewCodedError(CodeBadCBOR, "deploy missing code")
	}
	codeB, err := asBytes(codeV)
	if err != nil {
		return DeployPayload{}, err
	}
	manV, ok := m.Get("manifest")
	if !ok {
		return DeployPayload{}, NewCodedError(CodeBadCBOR, "deploy missing manifest")
	}
	manB, err := asBytes(manV)
	if err != nil {
		return DeployPayload{}, err
	}
	return DeployPayload{Code: codeB, Manifest: manB}, nil
}

func callPayloadFromValue(v codec.Value) (CallPayload, error) {
	m, ok := v.(codec.DecodedMap)
	if !ok {
		return CallPayload{}, NewCodedError(CodeBadCBOR, "call payload must be a map")
	}
	allowed := map[string]bool{"to": true, "data": true}
	for _, k := range m.Keys() {
		if !allowed[k] {
			return CallPayload{}, NewCodedError(CodeUnknownField, "unknown call field: "+k)
		}
	}
	toV, ok := m.Get("to")
	if !ok {
		return CallPayload{}, NewCodedError(CodeBadCBOR, "call missing to")
	}
	toB, err := asBytes(toV)
	if err != nil {
		return CallPayload{}, err
	}
	to, err := AddressFromBytes(toB)
	if err != nil {
		return CallPayload{}, err
	}
	dataV, ok := m.Get("data")
	if !ok {
		return CallPayload{}, NewCodedError(CodeBadCBOR, "call missing data")
	}
	data, err := asBytes(dataV)
	if err != nil {
		return CallPayload{}, err
	}
	return CallPayload{To: to, Data: data}, nil
}

// Tx is an UnsignedTx plus the PQ signatures authorizing it.
type Tx struct {
	Unsigned UnsignedTx
	Sigs     []PqSignature
}

func (tx Tx) toObj() codec.Value {
	sigs := make([]codec.Value, len(tx.Sigs))
	for i, s := range tx.Sigs {
		sigs[i] = s.toObj()
	}
	return codec.Map{
		{Key: codec.TextKey("tx"), Val: tx.Unsigned.toObj()},
		{Key: codec.TextKey("sigs"), Val: sigs},
	}
}

// ToCBOR encodes the signed Tx as canonical CBOR.
func (tx Tx) ToCBOR() ([]byte, error) { return codec.Encode(tx.toObj()) }

// TxID returns sha3_256(ToCBOR()) — the identifier of the signed tx.
func (tx Tx) TxID() (Hash, error) {
	b, err := tx.ToCBOR()
	if err != nil {
		return Hash{}, err
	}
	return codec.Sha3_256(b), nil
}

// WithSignature returns a copy of tx with sig appended.
func (tx Tx) WithSignature(sig PqSignature) Tx {
	out := tx
	out.Sigs = append(append([]PqSignature(nil), tx.Sigs...), sig)
	return out
}

// RequireMinSigs reports whether tx carries at least n signatures.
func (tx Tx) RequireMinSigs(n int) error {
	if len(tx.Sigs) < n {
		return NewCodedError(CodeBadSignature, "insufficient signatures")
	}
	return nil
}

// Verify checks every attached signature against the tx's SignBytes using
// the PQ oracle, requiring at least one valid signature from the declared
// sender's key material is the caller's responsibility (address binding is
// checked by whoever derives Sender from PubKey, which is deployment
// specific); Verify only checks the signature predicate itself.
func (tx Tx) Verify() error {
	if err := tx.RequireMinSigs(1); err != nil {
		return err
	}
	sb, err := tx.Unsigned.SignBytes()
	if err != nil {
		return err
	}
	for _, s := range tx.Sigs {
		if err := s.Validate(); err != nil {
			return err
		}
		if !VerifyPqSignature(s, sb) {
			return NewCodedError(CodeBadSignature, "signature verification failed")
		}
	}
	return nil
}

// TxFromCBOR decodes and validates a signed Tx.
func TxFromCBOR(b []byte) (Tx, error) {
	v, err := codec.Decode(b)
	if err != nil {
		return Tx{}, WrapCoded(CodeBadCBOR, "decode Tx", err)
	}
	m, ok := v.(codec.DecodedMap)
	if !ok {
		return Tx{}, NewCodedError(CodeBadCBOR, "Tx must be a map")
	}
	allowed := map[string]bool{"tx": true, "sigs": true}
	for _, k := range m.Keys() {
		if !allowed[k] {
			return Tx{}, NewCodedError(CodeUnknownField, "unknown Tx field: "+k)
		}
	}
	uV, ok := m.Get("tx")
	if !ok {
		return Tx{}, NewCodedError(CodeBadCBOR, "Tx missing tx")
	}
	unsigned, err := unsignedTxFromValue(uV)
	if err != nil {
		return Tx{}, err
	}
	var sigs []PqSignature
	if sV, ok := m.Get("sigs"); ok {
		sArr, ok := sV.([]codec.Value)
		if !ok {
			return Tx{}, NewCodedError(CodeBadCBOR, "sigs must be an array")
		}
		for _, s := range sArr {
			sig, err := pqSignatureFromValue(s)
			if err != nil {
				return Tx{}, err
			}
			sigs = append(sigs, sig)
		}
	}
	return Tx{Unsigned: unsigned, Sigs: sigs}, nil
}

// Summary renders a short human-readable projection of the tx, for CLI/RPC
// display. Never used in any consensus-relevant path.
func (tx Tx) Summary() string {
	id, _ := tx.TxID()
	switch p := tx.Unsigned.Payload.(type) {
	case TransferPayload:
		return "Tx<TRANSFER " + id.Hex() + " to=" + p.To.Hex() + " amount=" + p.Amount.String() + ">"
	case DeployPayload:
		codeHash := codec.Sha3_256(p.Code)
		manHash := codec.Sha3_256(p.Manifest)
		return "Tx<DEPLOY " + id.Hex() + " codeHash=" + Hash(codeHash).Hex() + " manifestHash=" + Hash(manHash).Hex() + ">"
	case CallPayload:
		return "Tx<CALL " + id.Hex() + " to=" + p.To.Hex() + " dataLen=" + itoa(len(p.Data)) + ">"
	default:
		return "Tx<" + id.Hex() + ">"
	}
}
