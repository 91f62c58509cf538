package types

import (
	"crypto/ecdsa"
	"encoding/json"
	"errors"
	"math/big"

	ethcrypto "github.com/ethereum/go-ethereum/crypto"
)

// Transaction is the signed envelope the runtime's block driver dispatches
// one per loop iteration: authorization.check_authorization validates it,
// governance pledges/settles its fee, and (service, method, payload) names
// the user's actual call.
type Transaction struct {
	Sender      Address `json:"sender"`
	Nonce       uint64  `json:"nonce"`
	Service     string  `json:"service"`
	Method      string  `json:"method"`
	Payload     string  `json:"payload"`
	CyclesLimit uint64  `json:"cycles_limit"`
	CyclesPrice uint64  `json:"cycles_price"`

	R *big.Int `json:"r"`
	S *big.Int `json:"s"`
	V *big.Int `json:"v"`

	hash *Hash
}

// signingFields is the subset hashed and signed over; excluding R/S/V keeps
// the signature from covering itself.
type signingFields struct {
	Sender      Address `json:"sender"`
	Nonce       uint64  `json:"nonce"`
	Service     string  `json:"service"`
	Method      string  `json:"method"`
	Payload     string  `json:"payload"`
	CyclesLimit uint64  `json:"cycles_limit"`
	CyclesPrice uint64  `json:"cycles_price"`
}

// Hash deterministically digests the transaction's signable fields,
// memoized on first computation.
func (tx *Transaction) Hash() (Hash, error) {
	if tx.hash != nil {
		return *tx.hash, nil
	}
	raw, err := json.Marshal(signingFields{
		Sender: tx.Sender, Nonce: tx.Nonce, Service: tx.Service, Method: tx.Method,
		Payload: tx.Payload, CyclesLimit: tx.CyclesLimit, CyclesPrice: tx.CyclesPrice,
	})
	if err != nil {
		return Hash{}, err
	}
	h := ComputeHash(raw)
	tx.hash = &h
	return h, nil
}

// Sign fills in R/S/V from an ECDSA signature over the transaction's hash.
func (tx *Transaction) Sign(priv *ecdsa.PrivateKey) error {
	hash, err := tx.Hash()
	if err != nil {
		return err
	}
	sig, err := ethcrypto.Sign(hash.Bytes(), priv)
	if err != nil {
		return err
	}
	tx.R = new(big.Int).SetBytes(sig[:32])
	tx.S = new(big.Int).SetBytes(sig[32:64])
	tx.V = new(big.Int).SetBytes([]byte{sig[64] + 27})
	return nil
}

// RecoverSigner recovers the address that produced R/S/V over the
// transaction's hash, per the same secp256k1 recovery the teacher uses for
// its own transaction envelope.
func (tx *Transaction) RecoverSigner() (Address, error) {
	if tx.R == nil || tx.S == nil || tx.V == nil {
		return Address{}, errors.New("transaction missing signature")
	}
	hash, err := tx.Hash()
	if err != nil {
		return Address{}, err
	}
	sig := make([]byte, 65)
	rBytes, sBytes := tx.R.Bytes(), tx.S.Bytes()
	copy(sig[32-len(rBytes):32], rBytes)
	copy(sig[64-len(sBytes):64], sBytes)
	v := tx.V.Uint64()
	if v >= 27 {
		v -= 27
	}
	sig[64] = byte(v)
	pubKey, err := ethcrypto.SigToPub(hash.Bytes(), sig)
	if err != nil {
		return Address{}, err
	}
	return BytesToAddress(ethcrypto.PubkeyToAddress(*pubKey).Bytes()), nil
}
