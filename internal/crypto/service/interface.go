// Package service implements the field-encryption services: AEAD ciphers
// (AES-256-GCM, ChaCha20-Poly1305), per-account key generation, and the
// wrapping of account keys under the process master key.
package service

import (
	"context"

	cryptoDomain "github.com/parlorchat/parlor/internal/crypto/domain"
)

// AEAD defines the interface for Authenticated Encryption with Associated Data.
type AEAD interface {
	// Encrypt encrypts plaintext with optional AAD and returns ciphertext and nonce.
	Encrypt(plaintext, aad []byte) (ciphertext, nonce []byte, err error)

	// Decrypt decrypts ciphertext using the provided nonce and AAD.
	Decrypt(ciphertext, nonce, aad []byte) ([]byte, error)

	// NonceSize returns the nonce length in bytes.
	NonceSize() int
}

// AEADManager defines the interface for creating AEAD cipher instances.
type AEADManager interface {
	// CreateCipher creates an AEAD cipher instance for the specified algorithm.
	CreateCipher(key []byte, alg cryptoDomain.Algorithm) (AEAD, error)
}

// FieldCipher encrypts and decrypts individual profile fields with a
// per-account symmetric key, and wraps those keys under the master key for
// storage. Every Encrypt call draws a fresh random nonce, so encrypting the
// same plaintext twice yields different blobs.
type FieldCipher interface {
	// GenerateKey returns a new random per-account field key.
	GenerateKey() ([]byte, error)

	// EncryptField seals plaintext with the given key. The returned blob is
	// nonce||ciphertext and is only readable via DecryptField with the same key.
	EncryptField(plaintext, key []byte) ([]byte, error)

	// DecryptField opens a blob produced by EncryptField. Any tampering,
	// truncation, or wrong key surfaces as ErrIntegrityCheckFailed.
	DecryptField(blob, key []byte) ([]byte, error)

	// WrapKey encrypts an account key under the active master key and returns
	// the serialized envelope for storage.
	WrapKey(key []byte) (string, error)

	// UnwrapKey decrypts a stored envelope back into the account key.
	UnwrapKey(wrapped string) ([]byte, error)
}

// KMSKeeper decrypts ciphertexts held by an external key-management service.
// *secrets.Keeper from gocloud.dev implements this.
type KMSKeeper interface {
	Decrypt(ctx context.Context, ciphertext []byte) ([]byte, error)
	Close() error
}
