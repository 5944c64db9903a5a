package crypto

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"strings"
)

// Ciphertexts carry an explicit algorithm tag so the reader never has to
// sniff the format. v2 (AES-256-GCM) is the only algorithm used for new
// writes; v1 (AES-256-CBC) is accepted for decryption of rows written before
// the migration.
const (
	tagGCM = "v2:"
	tagCBC = "v1:"
)

var (
	ErrUntaggedCiphertext = errors.New("ciphertext has no algorithm tag")
	ErrInvalidCiphertext  = errors.New("invalid ciphertext")
)

type Cipher struct {
	key []byte
}

// NewCipher expects a 32-byte key encoded as 64 hex characters.
func NewCipher(keyHex string) (*Cipher, error) {
	key, err := hex.DecodeString(keyHex)
	if err != nil {
		return nil, fmt.Errorf("encryption key is not valid hex: %w", err)
	}
	if len(key) != 32 {
		return nil, fmt.Errorf("encryption key must be 32 bytes, got %d", len(key))
	}
	return &Cipher{key: key}, nil
}

// Encrypt seals plaintext with AES-256-GCM and returns a v2-tagged,
// hex-encoded ciphertext with the nonce prefixed.
func (c *Cipher) Encrypt(plaintext string) (string, error) {
	block, err := aes.NewCipher(c.key)
	if err != nil {
		return "", err
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return "", err
	}
	nonce := make([]byte, gcm.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", err
	}
	sealed := gcm.Seal(nonce, nonce, []byte(plaintext), nil)
	return tagGCM + hex.EncodeToString(sealed), nil
}

// Decrypt dispatches on the algorithm tag. Untagged input is rejected rather
// than guessed at.
func (c *Cipher) Decrypt(ciphertext string) (string, error) {
	switch {
	case strings.HasPrefix(ciphertext, tagGCM):
		return c.decryptGCM(strings.TrimPrefix(ciphertext, tagGCM))
	case strings.HasPrefix(ciphertext, tagCBC):
		return c.decryptCBC(strings.TrimPrefix(ciphertext, tagCBC))
	}
	return "", ErrUntaggedCiphertext
}

// SafeDecrypt is for display paths: it returns the empty string instead of an
// error when decryption fails.
func (c *Cipher) SafeDecrypt(ciphertext string) string {
	plain, err := c.Decrypt(ciphertext)
	if err != nil {
		return ""
	}
	return plain
}

func (c *Cipher) decryptGCM(encoded string) (string, error) {
	raw, err := hex.DecodeString(encoded)
	if err != nil {
		return "", ErrInvalidCiphertext
	}
	block, err := aes.NewCipher(c.key)
	if err != nil {
		return "", err
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return "", err
	}
	if len(raw) < gcm.NonceSize() {
		return "", ErrInvalidCiphertext
	}
	nonce, sealed := raw[:gcm.NonceSize()], raw[gcm.NonceSize():]
	plain, err := gcm.Open(nil, nonce, sealed, nil)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidCiphertext, err)
	}
	return string(plain), nil
}

// decryptCBC handles legacy rows: IV-prefixed AES-256-CBC with PKCS#7
// padding. Decrypt-only; nothing writes this format anymore.
func (c *Cipher) decryptCBC(encoded string) (string, error) {
	raw, err := hex.DecodeString(encoded)
	if err != nil {
		return "", ErrInvalidCiphertext
	}
	block, err := aes.NewCipher(c.key)
	if err != nil {
		return "", err
	}
	if len(raw) < aes.BlockSize || len(raw)%aes.BlockSize != 0 {
		return "", ErrInvalidCiphertext
	}
	iv, data := raw[:aes.BlockSize], raw[aes.BlockSize:]
	if len(data) == 0 {
		return "", ErrInvalidCiphertext
	}
	mode := cipher.NewCBCDecrypter(block, iv)
	plain := make([]byte, len(data))
	mode.CryptBlocks(plain, data)

	pad := int(plain[len(plain)-1])
	if pad == 0 || pad > aes.BlockSize || pad > len(plain) {
		return "", ErrInvalidCiphertext
	}
	for _, b := range plain[len(plain)-pad:] {
		if int(b) != pad {
			return "", ErrInvalidCiphertext
		}
	}
	return string(plain[:len(plain)-pad]), nil
}
