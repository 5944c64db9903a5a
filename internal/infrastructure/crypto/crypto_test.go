package crypto

import (
	"bytes"
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/hex"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testKeyHex = "6368616e676520746869732070617373776f726420746f206120736563726574"

func newTestCipher(t *testing.T) *Cipher {
	t.Helper()
	c, err := NewCipher(testKeyHex)
	require.NoError(t, err)
	return c
}

func TestNewCipher(t *testing.T) {
	t.Run("RejectsNonHex", func(t *testing.T) {
		_, err := NewCipher("not-hex")
		assert.Error(t, err)
	})

	t.Run("RejectsWrongLength", func(t *testing.T) {
		_, err := NewCipher("deadbeef")
		assert.Error(t, err)
	})
}

func TestCipherRoundTrip(t *testing.T) {
	c := newTestCipher(t)

	plaintext := `{"iban":"DE89370400440532013000","holder":"J. Doe"}`
	encrypted, err := c.Encrypt(plaintext)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(encrypted, "v2:"))
	assert.NotContains(t, encrypted, plaintext)

	decrypted, err := c.Decrypt(encrypted)
	require.NoError(t, err)
	assert.Equal(t, plaintext, decrypted)
}

func TestCipherNoncesDiffer(t *testing.T) {
	c := newTestCipher(t)

	a, err := c.Encrypt("same input")
	require.NoError(t, err)
	b, err := c.Encrypt("same input")
	require.NoError(t, err)
	assert.NotEqual(t, a, b)
}

func TestCipherRejectsUntagged(t *testing.T) {
	c := newTestCipher(t)

	_, err := c.Decrypt("deadbeefcafe")
	assert.ErrorIs(t, err, ErrUntaggedCiphertext)
}

func TestCipherRejectsTampered(t *testing.T) {
	c := newTestCipher(t)

	encrypted, err := c.Encrypt("secret payload")
	require.NoError(t, err)

	// flip the last hex digit
	tampered := encrypted[:len(encrypted)-1]
	if strings.HasSuffix(encrypted, "0") {
		tampered += "1"
	} else {
		tampered += "0"
	}
	_, err = c.Decrypt(tampered)
	assert.ErrorIs(t, err, ErrInvalidCiphertext)
}

func TestCipherLegacyCBC(t *testing.T) {
	c := newTestCipher(t)
	plaintext := "legacy payment details"

	// build a v1 ciphertext the way the pre-migration writer did
	key, _ := hex.DecodeString(testKeyHex)
	block, err := aes.NewCipher(key)
	require.NoError(t, err)

	pad := aes.BlockSize - len(plaintext)%aes.BlockSize
	padded := append([]byte(plaintext), bytes.Repeat([]byte{byte(pad)}, pad)...)

	iv := make([]byte, aes.BlockSize)
	_, err = io.ReadFull(rand.Reader, iv)
	require.NoError(t, err)

	out := make([]byte, len(padded))
	cipher.NewCBCEncrypter(block, iv).CryptBlocks(out, padded)
	legacy := "v1:" + hex.EncodeToString(append(iv, out...))

	decrypted, err := c.Decrypt(legacy)
	require.NoError(t, err)
	assert.Equal(t, plaintext, decrypted)

	t.Run("TruncatedInput", func(t *testing.T) {
		short := make([]byte, aes.BlockSize+1)
		_, err := c.Decrypt("v1:" + hex.EncodeToString(short))
		assert.ErrorIs(t, err, ErrInvalidCiphertext)
	})
}

func TestSafeDecrypt(t *testing.T) {
	c := newTestCipher(t)

	encrypted, err := c.Encrypt("visible")
	require.NoError(t, err)
	assert.Equal(t, "visible", c.SafeDecrypt(encrypted))
	assert.Equal(t, "", c.SafeDecrypt("garbage"))
	assert.Equal(t, "", c.SafeDecrypt("v2:zzzz"))
}
