package near

import (
	"crypto/sha256"
	"encoding/base64"
	"math/big"

	"github.com/cockroachdb/errors"
	"github.com/mr-tron/base58"
)

// Action variant tags, in nearcore's enum order.
const (
	actionFunctionCall uint8 = 2
	actionTransfer     uint8 = 3
)

type Action interface {
	encode(w *borshWriter) error
}

type TransferAction struct {
	Deposit *big.Int
}

func (a TransferAction) encode(w *borshWriter) error {
	w.u8(actionTransfer)
	return w.u128(a.Deposit)
}

type FunctionCallAction struct {
	MethodName string
	Args       []byte
	Gas        uint64
	Deposit    *big.Int
}

func (a FunctionCallAction) encode(w *borshWriter) error {
	w.u8(actionFunctionCall)
	w.string(a.MethodName)
	w.bytes(a.Args)
	w.u64(a.Gas)
	return w.u128(a.Deposit)
}

type Transaction struct {
	SignerID   string
	PublicKey  PublicKey
	Nonce      uint64
	ReceiverID string
	BlockHash  [32]byte
	Actions    []Action
}

func (tx *Transaction) Serialize() ([]byte, error) {
	w := &borshWriter{}
	w.string(tx.SignerID)
	w.publicKey(tx.PublicKey)
	w.u64(tx.Nonce)
	w.string(tx.ReceiverID)
	w.fixed(tx.BlockHash[:])
	w.u32(uint32(len(tx.Actions)))
	for i, a := range tx.Actions {
		if err := a.encode(w); err != nil {
			return nil, errors.Wrapf(err, "action %d", i)
		}
	}
	return w.buf, nil
}

// Hash is the SHA-256 of the Borsh encoding; it is what gets signed.
func (tx *Transaction) Hash() ([32]byte, []byte, error) {
	raw, err := tx.Serialize()
	if err != nil {
		return [32]byte{}, nil, err
	}
	return sha256.Sum256(raw), raw, nil
}

type SignedTransaction struct {
	Transaction *Transaction
	Signature   Signature
	hash        [32]byte
	raw         []byte
}

func SignTransaction(tx *Transaction, kp KeyPair) (*SignedTransaction, error) {
	if !tx.PublicKey.Equal(kp.PublicKey()) {
		return nil, errors.New("transaction public key does not match signer key")
	}

	hash, raw, err := tx.Hash()
	if err != nil {
		return nil, err
	}
	sig, err := kp.Sign(hash[:])
	if err != nil {
		return nil, err
	}
	return &SignedTransaction{Transaction: tx, Signature: sig, hash: hash, raw: raw}, nil
}

// HashString is the base58 transaction hash shown by explorers.
func (s *SignedTransaction) HashString() string {
	return base58.Encode(s.hash[:])
}

func (s *SignedTransaction) Serialize() []byte {
	w := &borshWriter{buf: append([]byte(nil), s.raw...)}
	w.signature(s.Signature)
	return w.buf
}

func (s *SignedTransaction) Base64() string {
	return base64.StdEncoding.EncodeToString(s.Serialize())
}

func decodeBlockHash(encoded string) ([32]byte, error) {
	var out [32]byte
	raw, err := base58.Decode(encoded)
	if err != nil {
		return out, errors.Wrapf(err, "decode block hash %q", encoded)
	}
	if len(raw) != len(out) {
		return out, errors.Newf("block hash must be %d bytes, got %d", len(out), len(raw))
	}
	copy(out[:], raw)
	return out, nil
}
