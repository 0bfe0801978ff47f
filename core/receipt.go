package core

import (
	"bytes"

	"animica/codec"
)

// ReceiptStatus is the terminal outcome of executing a transaction.
type ReceiptStatus int

const (
	StatusSuccess ReceiptStatus = 0
	StatusRevert  ReceiptStatus = 1
	StatusOOG     ReceiptStatus = 2
)

// EventField is one already-normalized key/value pair of an emitted event.
// Fields are sorted by Key (lexicographic byte order) before they are ever
// attached to a Log, so decode only has to check that invariant rather than
// re-sort.
type EventField struct {
	Key   []byte
	Value []byte
}

// Log is the deterministic event record a contract produces by calling
// emit(name, fields); see events capability in vm_interp.go.
type Log struct {
	Address Address
	Name    []byte
	Fields  []EventField
}

func (l Log) toObj() codec.Value {
	fields := make([]codec.Value, len(l.Fields))
	for i, f := range l.Fields {
		fields[i] = []codec.Value{f.Key, f.Value}
	}
	return codec.Map{
		{Key: codec.TextKey("address"), Val: l.Address.Bytes()},
		{Key: codec.TextKey("name"), Val: l.Name},
		{Key: codec.TextKey("fields"), Val: fields},
	}
}

func logFromValue(v codec.Value) (Log, error) {
	m, ok := v.(codec.DecodedMap)
	if !ok {
		return Log{}, NewCodedError(CodeBadCBOR, "log must be a map")
	}
	allowed := map[string]bool{"address": true, "name": true, "fields": true}
	for _, k := range m.Keys() {
		if !allowed[k] {
			return Log{}, NewCodedError(CodeUnknownField, "unknown log field: "+k)
		}
	}
	addrV, ok := m.Get("address")
	if !ok {
		return Log{}, NewCodedError(CodeBadCBOR, "log missing address")
	}
	addrB, err := asBytes(addrV)
	if err != nil {
		return Log{}, err
	}
	addr, err := AddressFromBytes(addrB)
	if err != nil {
		return Log{}, err
	}
	nameV, ok := m.Get("name")
	if !ok {
		return Log{}, NewCodedError(CodeBadCBOR, "log missing name")
	}
	name, err := asBytes(nameV)
	if err != nil {
		return Log{}, err
	}
	var fields []EventField
	if fV, ok := m.Get("fields"); ok {
		fArr, ok := fV.([]codec.Value)
		if !ok {
			return Log{}, NewCodedError(CodeBadCBOR, "fields must be an array")
		}
		for _, entryV := range fArr {
			pair, ok := entryV.([]codec.Value)
			if !ok || len(pair) != 2 {
				return Log{}, NewCodedError(CodeBadCBOR, "field must be a [key,value] pair")
			}
			key, err := asBytes(pair[0])
			if err != nil {
				return Log{}, err
			}
			val, err := asBytes(pair[1])
			if err != nil {
				return Log{}, err
			}
			if len(fields) > 0 && bytes.Compare(fields[len(fields)-1].Key, key) >= 0 {
				return Log{}, NewCodedError(CodeInvalid, "event fields must be sorted by key with no duplicates")
			}
			fields = append(fields, EventField{Key: key, Value: val})
		}
	}
	return Log{Address: addr, Name: name, Fields: fields}, nil
}

// Receipt is the minimal, deterministic outcome of executing a transaction:
// final status, total gas consumed, and the logs emitted (empty on
// non-success, per the VM's staging-area discard rule).
type Receipt struct {
	Status  ReceiptStatus
	GasUsed uint64
	Logs    []Log
}

// Ok reports whether the transaction succeeded.
func (r Receipt) Ok() bool { return r.Status == StatusSuccess }

func (r Receipt) toObj() codec.Value {
	logs := make([]codec.Value, len(r.Logs))
	for i, l := range r.Logs {
		logs[i] = l.toObj()
	}
	return codec.Map{
		{Key: codec.TextKey("v"), Val: int64(1)},
		{Key: codec.TextKey("status"), Val: int64(r.Status)},
		{Key: codec.TextKey("gasUsed"), Val: r.GasUsed},
		{Key: codec.TextKey("logs"), Val: logs},
	}
}

// ToCBOR encodes the receipt as canonical CBOR.
func (r Receipt) ToCBOR() ([]byte, error) { return codec.Encode(r.toObj()) }

// ReceiptFromCBOR decodes and validates a Receipt.
func ReceiptFromCBOR(b []byte) (Receipt, error) {
	v, err := codec.Decode(b)
	if err != nil {
		return Receipt{}, WrapCoded(CodeBadCBOR, "decode Receipt", err)
	}
	m, ok := v.(codec.DecodedMap)
	if !ok {
		return Receipt{}, NewCodedError(CodeBadCBOR, "Receipt must be a map")
	}
	allowed := map[string]bool{"v": true, "status": true, "gasUsed": true, "logs": true}
	for _, k := range m.Keys() {
		if !allowed[k] {
			return Receipt{}, NewCodedError(CodeUnknownField, "unknown Receipt field: "+k)
		}
	}
	verV, ok := m.Get("v")
	if !ok {
		return Receipt{}, NewCodedError(CodeBadVersion, "Receipt missing version")
	}
	ver, err := asInt(verV)
	if err != nil || ver != 1 {
		return Receipt{}, NewCodedError(CodeBadVersion, "unsupported Receipt version")
	}
	statusV, ok := m.Get("status")
	if !ok {
		return Receipt{}, NewCodedError(CodeBadCBOR, "Receipt missing status")
	}
	statusI, err := asInt(statusV)
	if err != nil {
		return Receipt{}, err
	}
	if statusI < int64(StatusSuccess) || statusI > int64(StatusOOG) {
		return Receipt{}, NewCodedError(CodeInvalid, "unknown receipt status")
	}
	gasV, ok := m.Get("gasUsed")
	if !ok {
		return Receipt{}, NewCodedError(CodeBadCBOR, "Receipt missing gasUsed")
	}
	gas, err := asUint(gasV)
	if err != nil {
		return Receipt{}, err
	}
	var logs []Log
	if lV, ok := m.Get("logs"); ok {
		lArr, ok := lV.([]codec.Value)
		if !ok {
			return Receipt{}, NewCodedError(CodeBadCBOR, "logs must be an array")
		}
		for _, l := range lArr {
			lg, err := logFromValue(l)
			if err != nil {
				return Receipt{}, err
			}
			logs = append(logs, lg)
		}
	}
	return Receipt{Status: ReceiptStatus(statusI), GasUsed: gas, Logs: logs}, nil
}
