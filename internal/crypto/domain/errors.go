package domain

import (
	"github.com/parlorchat/parlor/internal/errors"
)

// Cryptographic errors.
var (
	// ErrInvalidKeySize indicates a key is not exactly KeySize bytes.
	ErrInvalidKeySize = errors.New("invalid key size")

	// ErrUnsupportedAlgorithm indicates an unknown AEAD algorithm name.
	ErrUnsupportedAlgorithm = errors.New("unsupported algorithm")

	// ErrIntegrityCheckFailed indicates ciphertext failed authentication:
	// tampered, truncated, or decrypted with the wrong key. Decryption never
	// returns partial or garbled plaintext alongside this error.
	ErrIntegrityCheckFailed = errors.New("ciphertext integrity check failed")

	// ErrInvalidWrappedKeyFormat indicates a stored wrapped key could not be parsed.
	ErrInvalidWrappedKeyFormat = errors.New("invalid wrapped key format")
)

// Master key loading errors.
var (
	// ErrMasterKeysNotSet indicates the MASTER_KEYS environment variable is missing.
	ErrMasterKeysNotSet = errors.New("MASTER_KEYS is not set")

	// ErrActiveMasterKeyIDNotSet indicates ACTIVE_MASTER_KEY_ID is missing.
	ErrActiveMasterKeyIDNotSet = errors.New("ACTIVE_MASTER_KEY_ID is not set")

	// ErrInvalidMasterKeysFormat indicates a MASTER_KEYS entry is not "id:base64key".
	ErrInvalidMasterKeysFormat = errors.New("invalid MASTER_KEYS format")

	// ErrInvalidMasterKeyBase64 indicates a master key is not valid base64.
	ErrInvalidMasterKeyBase64 = errors.New("invalid master key base64")

	// ErrActiveMasterKeyNotFound indicates ACTIVE_MASTER_KEY_ID names a key
	// absent from MASTER_KEYS.
	ErrActiveMasterKeyNotFound = errors.New("active master key not found")

	// ErrMasterKeyNotFound indicates a wrapped key references an unknown master key.
	ErrMasterKeyNotFound = errors.New("master key not found")
)
