package core

import "testing"

// buildSignedTransferTx builds a well-formed, validly-signed TRANSFER Tx from
// a freshly generated Dilithium3 keypair. nonce lets callers build a chain of
// txs from the same sender.
func buildSignedTransferTx(t *testing.T, nonce uint64) Tx {
	t.Helper()
	var sender, to Address
	sender[0] = 0x11
	to[0] = 0x22

	u, err := BuildTransfer(1, nonce, 1000, 50000, sender, to, NewAmountFromUint64(123456789), nil)
	if err != nil {
		t.Fatalf("BuildTransfer: %v", err)
	}
	return signTx(t, u)
}

func signTx(t *testing.T, u UnsignedTx) Tx {
	t.Helper()
	pub, priv, err := DilithiumKeypair()
	if err != nil {
		t.Fatalf("DilithiumKeypair: %v", err)
	}
	tx := Tx{Unsigned: u}
	sb, err := u.SignBytes()
	if err != nil {
		t.Fatalf("SignBytes: %v", err)
	}
	sig, err := DilithiumSign(priv, sb)
	if err != nil {
		t.Fatalf("DilithiumSign: %v", err)
	}
	return tx.WithSignature(PqSignature{AlgID: AlgDilithium3, PubKey: pub, Sig: sig})
}
