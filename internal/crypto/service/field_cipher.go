package service

import (
	"crypto/rand"

	cryptoDomain "github.com/parlorchat/parlor/internal/crypto/domain"
	apperrors "github.com/parlorchat/parlor/internal/errors"
)

// fieldCipherService implements FieldCipher over an AEADManager and the
// process master key chain.
//
// Stored blob layout for profile fields: nonce || ciphertext+tag. The nonce is
// bound into the blob so that two encryptions of the same plaintext with the
// same key never compare equal.
type fieldCipherService struct {
	aeadManager AEADManager
	alg         cryptoDomain.Algorithm
	masterKeys  *cryptoDomain.MasterKeyChain
}

// NewFieldCipher creates a FieldCipher using the given algorithm for both
// field encryption and key wrapping.
func NewFieldCipher(
	aeadManager AEADManager,
	alg cryptoDomain.Algorithm,
	masterKeys *cryptoDomain.MasterKeyChain,
) FieldCipher {
	return &fieldCipherService{
		aeadManager: aeadManager,
		alg:         alg,
		masterKeys:  masterKeys,
	}
}

// GenerateKey returns a new random 32-byte per-account field key.
func (f *fieldCipherService) GenerateKey() ([]byte, error) {
	key := make([]byte, cryptoDomain.KeySize)
	if _, err := rand.Read(key); err != nil {
		return nil, apperrors.Wrap(err, "failed to generate field key")
	}
	return key, nil
}

// EncryptField seals plaintext with the account key and returns nonce||ciphertext.
func (f *fieldCipherService) EncryptField(plaintext, key []byte) ([]byte, error) {
	aead, err := f.aeadManager.CreateCipher(key, f.alg)
	if err != nil {
		return nil, err
	}

	ciphertext, nonce, err := aead.Encrypt(plaintext, nil)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to encrypt field")
	}

	blob := make([]byte, 0, len(nonce)+len(ciphertext))
	blob = append(blob, nonce...)
	blob = append(blob, ciphertext...)
	return blob, nil
}

// DecryptField opens a nonce||ciphertext blob. All failure modes (truncated
// blob, flipped bit, wrong key) surface as ErrIntegrityCheckFailed; partial
// plaintext is never returned.
func (f *fieldCipherService) DecryptField(blob, key []byte) ([]byte, error) {
	aead, err := f.aeadManager.CreateCipher(key, f.alg)
	if err != nil {
		return nil, err
	}

	nonceSize := aead.NonceSize()
	if len(blob) < nonceSize {
		return nil, cryptoDomain.ErrIntegrityCheckFailed
	}

	plaintext, err := aead.Decrypt(blob[nonceSize:], blob[:nonceSize], nil)
	if err != nil {
		return nil, apperrors.Wrap(cryptoDomain.ErrIntegrityCheckFailed, err.Error())
	}
	return plaintext, nil
}

// WrapKey encrypts the account key under the active master key and returns
// the serialized envelope recording which master key and algorithm were used.
func (f *fieldCipherService) WrapKey(key []byte) (string, error) {
	masterKey, err := f.masterKeys.Active()
	if err != nil {
		return "", err
	}

	aead, err := f.aeadManager.CreateCipher(masterKey.Key, f.alg)
	if err != nil {
		return "", err
	}

	ciphertext, nonce, err := aead.Encrypt(key, []byte(masterKey.ID))
	if err != nil {
		return "", apperrors.Wrap(err, "failed to wrap field key")
	}

	blob := make([]byte, 0, len(nonce)+len(ciphertext))
	blob = append(blob, nonce...)
	blob = append(blob, ciphertext...)

	wrapped := cryptoDomain.WrappedKey{
		MasterKeyID: masterKey.ID,
		Algorithm:   f.alg,
		Blob:        blob,
	}
	return wrapped.String(), nil
}

// UnwrapKey parses a stored envelope and decrypts the account key with the
// master key the envelope names. Envelopes written before a master-key
// rotation unwrap with the old key as long as it stays in the chain.
func (f *fieldCipherService) UnwrapKey(wrapped string) ([]byte, error) {
	wk, err := cryptoDomain.ParseWrappedKey(wrapped)
	if err != nil {
		return nil, err
	}

	masterKey, ok := f.masterKeys.Get(wk.MasterKeyID)
	if !ok {
		return nil, apperrors.Wrap(cryptoDomain.ErrMasterKeyNotFound, wk.MasterKeyID)
	}

	aead, err := f.aeadManager.CreateCipher(masterKey.Key, wk.Algorithm)
	if err != nil {
		return nil, err
	}

	nonceSize := aead.NonceSize()
	if len(wk.Blob) < nonceSize {
		return nil, cryptoDomain.ErrIntegrityCheckFailed
	}

	key, err := aead.Decrypt(wk.Blob[nonceSize:], wk.Blob[:nonceSize], []byte(wk.MasterKeyID))
	if err != nil {
		return nil, apperrors.Wrap(cryptoDomain.ErrIntegrityCheckFailed, err.Error())
	}
	return key, nil
}
