package near

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/cloudflare/circl/sign"
	"github.com/cloudflare/circl/sign/schemes"
	"github.com/cockroachdb/errors"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/mr-tron/base58"
)

type KeyType byte

const (
	KeyTypeED25519   KeyType = 0
	KeyTypeSECP256K1 KeyType = 1
)

const (
	ed25519Prefix   = "ed25519"
	secp256k1Prefix = "secp256k1"

	secp256k1PublicKeySize = 64
	secp256k1SecretSize    = 32
)

var ErrInvalidKey = errors.New("invalid key")

var edScheme sign.Scheme

func init() {
	edScheme = schemes.ByName("Ed25519")
	if edScheme == nil {
		panic("Ed25519 scheme not found in CIRCL")
	}
}

func (t KeyType) String() string {
	switch t {
	case KeyTypeED25519:
		return ed25519Prefix
	case KeyTypeSECP256K1:
		return secp256k1Prefix
	default:
		return fmt.Sprintf("keytype(%d)", byte(t))
	}
}

// PublicKey is a typed public key in NEAR's "<curve>:<base58>" text form.
type PublicKey struct {
	Type KeyType
	Data []byte
}

func (p PublicKey) String() string {
	return p.Type.String() + ":" + base58.Encode(p.Data)
}

func (p PublicKey) Equal(o PublicKey) bool {
	return p.Type == o.Type && bytes.Equal(p.Data, o.Data)
}

// Signature carries the curve tag so it can be Borsh-encoded as an enum.
type Signature struct {
	Type KeyType
	Data []byte
}

// KeyPair signs 32-byte transaction hashes on behalf of an account.
type KeyPair interface {
	PublicKey() PublicKey
	Sign(digest []byte) (Signature, error)
	Verify(digest []byte, sig Signature) bool
}

// ParseKeyPair decodes "ed25519:<base58>" (32-byte seed or 64-byte seed||public)
// or "secp256k1:<base58>" (32-byte secret).
func ParseKeyPair(encoded string) (KeyPair, error) {
	curve, raw, err := splitKey(encoded)
	if err != nil {
		return nil, err
	}

	switch curve {
	case ed25519Prefix:
		return newEd25519KeyPair(raw)
	case secp256k1Prefix:
		return newSecp256k1KeyPair(raw)
	default:
		return nil, errors.Wrapf(ErrInvalidKey, "unsupported curve %q", curve)
	}
}

func ParsePublicKey(encoded string) (PublicKey, error) {
	curve, raw, err := splitKey(encoded)
	if err != nil {
		return PublicKey{}, err
	}

	switch curve {
	case ed25519Prefix:
		if len(raw) != edScheme.PublicKeySize() {
			return PublicKey{}, errors.Wrapf(ErrInvalidKey, "ed25519 public key must be %d bytes, got %d", edScheme.PublicKeySize(), len(raw))
		}
		return PublicKey{Type: KeyTypeED25519, Data: raw}, nil
	case secp256k1Prefix:
		if len(raw) != secp256k1PublicKeySize {
			return PublicKey{}, errors.Wrapf(ErrInvalidKey, "secp256k1 public key must be %d bytes, got %d", secp256k1PublicKeySize, len(raw))
		}
		return PublicKey{Type: KeyTypeSECP256K1, Data: raw}, nil
	default:
		return PublicKey{}, errors.Wrapf(ErrInvalidKey, "unsupported curve %q", curve)
	}
}

func splitKey(encoded string) (string, []byte, error) {
	s := strings.TrimSpace(encoded)
	if s == "" {
		return "", nil, errors.Wrap(ErrInvalidKey, "empty key")
	}

	// keys without a prefix are ed25519, matching near-api-js
	curve, body, found := strings.Cut(s, ":")
	if !found {
		curve, body = ed25519Prefix, s
	}
	curve = strings.ToLower(curve)

	raw, err := base58.Decode(body)
	if err != nil {
		return "", nil, errors.Wrapf(ErrInvalidKey, "base58: %v", err)
	}
	return curve, raw, nil
}

type ed25519KeyPair struct {
	pub PublicKey
	sk  sign.PrivateKey
	pk  sign.PublicKey
}

func newEd25519KeyPair(raw []byte) (*ed25519KeyPair, error) {
	seedSize := edScheme.SeedSize()
	switch len(raw) {
	case seedSize, edScheme.PrivateKeySize():
	default:
		return nil, errors.Wrapf(ErrInvalidKey, "ed25519 secret key must be %d or %d bytes, got %d",
			seedSize, edScheme.PrivateKeySize(), len(raw))
	}

	pk, sk := edScheme.DeriveKey(raw[:seedSize])
	pkBytes, err := pk.MarshalBinary()
	if err != nil {
		return nil, errors.Wrap(err, "marshal ed25519 public key")
	}

	// 64-byte form embeds the public half; it must agree with the seed
	if len(raw) == edScheme.PrivateKeySize() && !bytes.Equal(raw[seedSize:], pkBytes) {
		return nil, errors.Wrap(ErrInvalidKey, "ed25519 secret key does not match its public half")
	}

	return &ed25519KeyPair{
		pub: PublicKey{Type: KeyTypeED25519, Data: pkBytes},
		sk:  sk,
		pk:  pk,
	}, nil
}

func (k *ed25519KeyPair) PublicKey() PublicKey { return k.pub }

func (k *ed25519KeyPair) Sign(digest []byte) (Signature, error) {
	sig := edScheme.Sign(k.sk, digest, nil)
	if sig == nil {
		return Signature{}, errors.New("ed25519 sign failed")
	}
	return Signature{Type: KeyTypeED25519, Data: sig}, nil
}

func (k *ed25519KeyPair) Verify(digest []byte, sig Signature) bool {
	if sig.Type != KeyTypeED25519 {
		return false
	}
	return edScheme.Verify(k.pk, digest, sig.Data, nil)
}

type secp256k1KeyPair struct {
	pub    PublicKey
	secret []byte
}

func newSecp256k1KeyPair(raw []byte) (*secp256k1KeyPair, error) {
	if len(raw) != secp256k1SecretSize {
		return nil, errors.Wrapf(ErrInvalidKey, "secp256k1 secret key must be %d bytes, got %d", secp256k1SecretSize, len(raw))
	}

	priv, err := crypto.ToECDSA(raw)
	if err != nil {
		return nil, errors.Wrapf(ErrInvalidKey, "secp256k1: %v", err)
	}

	// drop the 0x04 uncompressed marker
	pub := crypto.FromECDSAPub(&priv.PublicKey)[1:]

	return &secp256k1KeyPair{
		pub:    PublicKey{Type: KeyTypeSECP256K1, Data: pub},
		secret: append([]byte(nil), raw...),
	}, nil
}

func (k *secp256k1KeyPair) PublicKey() PublicKey { return k.pub }

func (k *secp256k1KeyPair) Sign(digest []byte) (Signature, error) {
	priv, err := crypto.ToECDSA(k.secret)
	if err != nil {
		return Signature{}, errors.Wrap(err, "secp256k1 key")
	}
	sig, err := crypto.Sign(digest, priv)
	if err != nil {
		return Signature{}, errors.Wrap(err, "secp256k1 sign")
	}
	return Signature{Type: KeyTypeSECP256K1, Data: sig}, nil
}

func (k *secp256k1KeyPair) Verify(digest []byte, sig Signature) bool {
	if sig.Type != KeyTypeSECP256K1 || len(sig.Data) != crypto.SignatureLength {
		return false
	}
	uncompressed := append([]byte{0x04}, k.pub.Data...)
	return crypto.VerifySignature(uncompressed, digest, sig.Data[:crypto.SignatureLength-1])
}
