package near

import (
	"bytes"
	"crypto/sha256"
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/mr-tron/base58"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testSeed() []byte {
	return bytes.Repeat([]byte{0x11}, 32)
}

func testEd25519Key(t *testing.T) KeyPair {
	t.Helper()
	kp, err := ParseKeyPair("ed25519:" + base58.Encode(testSeed()))
	require.NoError(t, err)
	return kp
}

func TestParseEd25519SeedAndFullForm(t *testing.T) {
	fromSeed := testEd25519Key(t)
	pub := fromSeed.PublicKey()
	assert.Equal(t, KeyTypeED25519, pub.Type)
	assert.Len(t, pub.Data, 32)

	full := append(testSeed(), pub.Data...)
	fromFull, err := ParseKeyPair("ed25519:" + base58.Encode(full))
	require.NoError(t, err)
	assert.True(t, pub.Equal(fromFull.PublicKey()))

	// no prefix defaults to ed25519
	bare, err := ParseKeyPair(base58.Encode(full))
	require.NoError(t, err)
	assert.True(t, pub.Equal(bare.PublicKey()))
}

func TestParseEd25519RejectsMismatchedPublicHalf(t *testing.T) {
	full := append(testSeed(), bytes.Repeat([]byte{0x22}, 32)...)
	_, err := ParseKeyPair("ed25519:" + base58.Encode(full))
	assert.True(t, errors.Is(err, ErrInvalidKey))
}

func TestParseKeyPairErrors(t *testing.T) {
	for _, in := range []string{"", "ed25519:", "ed25519:0OIl", "rsa:abc", "ed25519:" + base58.Encode([]byte{1, 2, 3})} {
		_, err := ParseKeyPair(in)
		assert.Error(t, err, in)
	}
}

func TestEd25519SignVerify(t *testing.T) {
	kp := testEd25519Key(t)
	digest := sha256.Sum256([]byte("near-transfer"))

	sig, err := kp.Sign(digest[:])
	require.NoError(t, err)
	assert.Equal(t, KeyTypeED25519, sig.Type)
	assert.Len(t, sig.Data, 64)
	assert.True(t, kp.Verify(digest[:], sig))

	other := sha256.Sum256([]byte("tampered"))
	assert.False(t, kp.Verify(other[:], sig))
}

func TestSecp256k1KeyPair(t *testing.T) {
	priv, err := crypto.GenerateKey()
	require.NoError(t, err)

	kp, err := ParseKeyPair("secp256k1:" + base58.Encode(crypto.FromECDSA(priv)))
	require.NoError(t, err)

	pub := kp.PublicKey()
	assert.Equal(t, KeyTypeSECP256K1, pub.Type)
	assert.Equal(t, crypto.FromECDSAPub(&priv.PublicKey)[1:], pub.Data)

	digest := sha256.Sum256([]byte("near-transfer"))
	sig, err := kp.Sign(digest[:])
	require.NoError(t, err)
	assert.Len(t, sig.Data, 65)
	assert.True(t, kp.Verify(digest[:], sig))
}

func TestPublicKeyRoundTrip(t *testing.T) {
	kp := testEd25519Key(t)
	s := kp.PublicKey().String()
	assert.Contains(t, s, "ed25519:")

	parsed, err := ParsePublicKey(s)
	require.NoError(t, err)
	assert.True(t, parsed.Equal(kp.PublicKey()))

	_, err = ParsePublicKey("secp256k1:" + base58.Encode([]byte{1}))
	assert.True(t, errors.Is(err, ErrInvalidKey))
}
