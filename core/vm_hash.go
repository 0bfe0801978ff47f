package core

import (
	gethcrypto "github.com/ethereum/go-ethereum/crypto"

	"animica/codec"
)

// CapHashSha3256, CapHashSha3512 and CapHashKeccak256 are the three hash
// capabilities exposed to contracts through the capability host. sha3_256
// (and its wider sha3_512 sibling) matches the domain
// hashing this runtime uses for txs and headers; keccak256 is offered
// separately since it is the hash several deployed contract ecosystems
// expect when verifying external proofs.
const (
	CapHashSha3256   = "hash.sha3_256"
	CapHashSha3512   = "hash.sha3_512"
	CapHashKeccak256 = "hash.keccak256"
)

func hashSha3256(data []byte) []byte {
	h := codec.Sha3_256(data)
	return h[:]
}

func hashSha3512(data []byte) []byte {
	h := codec.Sha3_512(data)
	return h[:]
}

func hashKeccak256(data []byte) []byte {
	return gethcrypto.Keccak256(data)
}
