package core

import (
	"crypto"
	"crypto/rand"

	"github.com/cloudflare/circl/sign/dilithium/mode3"
	"github.com/cloudflare/circl/sign/sphincs"
)

// Post-quantum signature algorithm identifiers, matching the alg_id field of
// PqSignature on the wire.
const (
	AlgDilithium3 = 1
	AlgSphincsSHAKE128s = 2
)

// sphincsParams is the fixed SPHINCS+ parameter set this runtime accepts:
// SHAKE-based, "small" (s) variant at the 128-bit security level, matching
// the sphincs_shake_128s algorithm name the rest of the stack (RPC test
// harness, wallet tooling) already refers to.
var sphincsParams = sphincs.Shake128sSimple

// DilithiumKeypair generates a fresh Dilithium3 keypair, grounded directly on
// the teacher's core/security.go DilithiumKeypair helper.
func DilithiumKeypair() (pub, priv []byte, err error) {
	pk, sk, err := mode3.GenerateKey(rand.Reader)
	if err != nil {
		return nil, nil, err
	}
	return pk.Bytes(), sk.Bytes(), nil
}

// DilithiumSign signs msg with a Dilithium3 private key.
func DilithiumSign(priv, msg []byte) ([]byte, error) {
	var sk mode3.PrivateKey
	if err := sk.UnmarshalBinary(priv); err != nil {
		return nil, WrapCoded(CodeBadSignature, "unmarshal dilithium private key", err)
	}
	return sk.Sign(rand.Reader, msg, crypto.Hash(0))
}

// DilithiumVerify verifies a Dilithium3 signature.
func DilithiumVerify(pub, msg, sig []byte) bool {
	var pk mode3.PublicKey
	if err := pk.UnmarshalBinary(pub); err != nil {
		return false
	}
	return mode3.Verify(&pk, msg, sig)
}

// SphincsKeypair generates a fresh SPHINCS+-SHAKE-128s keypair.
func SphincsKeypair() (pub, priv []byte, err error) {
	pk, sk, err := sphincsParams.GenerateKey(rand.Reader)
	if err != nil {
		return nil, nil, err
	}
	return pk.Bytes(), sk.Bytes(), nil
}

// SphincsSign signs msg with a SPHINCS+-SHAKE-128s private key.
func SphincsSign(priv, msg []byte) ([]byte, error) {
	sk, err := sphincsParams.PrivateKeyFromBytes(priv)
	if err != nil {
		return nil, WrapCoded(CodeBadSignature, "unmarshal sphincs private key", err)
	}
	return sk.Sign(rand.Reader, msg, crypto.Hash(0))
}

// SphincsVerify verifies a SPHINCS+-SHAKE-128s signature.
func SphincsVerify(pub, msg, sig []byte) bool {
	pk, err := sphincsParams.PublicKeyFromBytes(pub)
	if err != nil {
		return false
	}
	return sphincsParams.Verify(pk, msg, sig)
}

// VerifyPqSignature is the single oracle every signature check in this
// runtime (tx admission, header signing where applicable) goes through. It
// dispatches on alg_id and never treats an unknown algorithm as valid.
func VerifyPqSignature(sig PqSignature, msg []byte) bool {
	switch sig.AlgID {
	case AlgDilithium3:
		return DilithiumVerify(sig.PubKey, msg, sig.Sig)
	case AlgSphincsSHAKE128s:
		return SphincsVerify(sig.PubKey, msg, sig.Sig)
	default:
		return false
	}
}
