package cryptox

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"errors"
	"fmt"
	"io"
)

// ErrDecrypt is returned when ciphertext cannot be opened with the master key.
var ErrDecrypt = errors.New("cryptox: decrypt failed")

// KeyCipher seals private key material at rest with AES-256-GCM.
// The output format is: [12-byte nonce][ciphertext + 16-byte tag].
type KeyCipher struct {
	aead cipher.AEAD
}

// NewKeyCipher derives a 32-byte AES key from the master key material.
func NewKeyCipher(material []byte) (*KeyCipher, error) {
	if len(material) == 0 {
		return nil, errors.New("cryptox: master key is empty")
	}

	key := sha256.Sum256(material)
	block, err := aes.NewCipher(key[:])
	if err != nil {
		return nil, fmt.Errorf("cryptox: create cipher: %w", err)
	}
	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("cryptox: create GCM: %w", err)
	}
	return &KeyCipher{aead: aead}, nil
}

// LoadKeyCipher builds a KeyCipher from the master key file at path,
// creating the file when it does not exist yet.
func LoadKeyCipher(path string) (*KeyCipher, error) {
	material, err := LoadOrCreateSecret(path, TokenSize256)
	if err != nil {
		return nil, err
	}
	return NewKeyCipher(material)
}

// Encrypt seals plaintext under a fresh random nonce.
func (c *KeyCipher) Encrypt(plaintext []byte) ([]byte, error) {
	nonce := make([]byte, c.aead.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return nil, fmt.Errorf("cryptox: generate nonce: %w", err)
	}
	return c.aead.Seal(nonce, nonce, plaintext, nil), nil
}

// Decrypt opens data produced by Encrypt.
func (c *KeyCipher) Decrypt(data []byte) ([]byte, error) {
	ns := c.aead.NonceSize()
	if len(data) < ns+c.aead.Overhead() {
		return nil, fmt.Errorf("%w: ciphertext too short", ErrDecrypt)
	}

	plaintext, err := c.aead.Open(nil, data[:ns], data[ns:], nil)
	if err != nil {
		return nil, ErrDecrypt
	}
	return plaintext, nil
}
