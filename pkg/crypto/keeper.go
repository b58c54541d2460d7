// Package crypto encrypts sync payloads before they are persisted. The
// hosted service never stores roster data in the clear.
package crypto

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"errors"
	"fmt"
	"io"
	"os"
)

const keySize = 32 // AES-256

// Keeper seals and opens payload blobs with AES-GCM.
type Keeper struct {
	aead cipher.AEAD
}

// New builds a Keeper from a raw 32-byte key.
func New(key []byte) (*Keeper, error) {
	if len(key) != keySize {
		return nil, fmt.Errorf("crypto: key must be %d bytes, got %d", keySize, len(key))
	}
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}
	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, err
	}
	return &Keeper{aead: aead}, nil
}

// LoadOrCreate reads the key file, generating a fresh key on first use.
func LoadOrCreate(path string) (*Keeper, error) {
	key, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		key = make([]byte, keySize)
		if _, err := io.ReadFull(rand.Reader, key); err != nil {
			return nil, fmt.Errorf("crypto: generate key: %w", err)
		}
		if err := os.WriteFile(path, key, 0o600); err != nil {
			return nil, fmt.Errorf("crypto: write key file: %w", err)
		}
	} else if err != nil {
		return nil, fmt.Errorf("crypto: read key file: %w", err)
	}
	return New(key)
}

// Encrypt seals the plaintext with a random nonce prefixed to the result.
func (k *Keeper) Encrypt(plain []byte) ([]byte, error) {
	nonce := make([]byte, k.aead.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return nil, err
	}
	return k.aead.Seal(nonce, nonce, plain, nil), nil
}

// Decrypt opens a blob produced by Encrypt.
func (k *Keeper) Decrypt(blob []byte) ([]byte, error) {
	if len(blob) < k.aead.NonceSize() {
		return nil, errors.New("crypto: blob shorter than nonce")
	}
	nonce, sealed := blob[:k.aead.NonceSize()], blob[k.aead.NonceSize():]
	plain, err := k.aead.Open(nil, nonce, sealed, nil)
	if err != nil {
		return nil, fmt.Errorf("crypto: decrypt: %w", err)
	}
	return plain, nil
}
