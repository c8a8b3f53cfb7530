package domain

import (
	"encoding/base64"
	"fmt"
	"strings"
)

// WrappedKey is the stored envelope for an account's field-encryption key:
// the key material encrypted under a master key, together with the master key
// ID and algorithm needed to unwrap it later.
//
// Serialized form: "masterKeyID:algorithm:base64(nonce||ciphertext)".
type WrappedKey struct {
	MasterKeyID string
	Algorithm   Algorithm
	Blob        []byte
}

// ParseWrappedKey parses the serialized "masterKeyID:algorithm:blob-base64" form.
func ParseWrappedKey(content string) (WrappedKey, error) {
	parts := strings.SplitN(content, ":", 3)
	if len(parts) != 3 {
		return WrappedKey{}, fmt.Errorf(
			"%w: expected 'masterKeyID:algorithm:blob', got %d parts",
			ErrInvalidWrappedKeyFormat, len(parts),
		)
	}

	if parts[0] == "" {
		return WrappedKey{}, fmt.Errorf("%w: empty master key id", ErrInvalidWrappedKeyFormat)
	}

	alg, err := ParseAlgorithm(parts[1])
	if err != nil {
		return WrappedKey{}, fmt.Errorf("%w: %v", ErrInvalidWrappedKeyFormat, err)
	}

	blob, err := base64.StdEncoding.DecodeString(parts[2])
	if err != nil {
		return WrappedKey{}, fmt.Errorf("%w: %v", ErrInvalidWrappedKeyFormat, err)
	}

	return WrappedKey{MasterKeyID: parts[0], Algorithm: alg, Blob: blob}, nil
}

// String serializes the WrappedKey for storage.
func (w WrappedKey) String() string {
	return fmt.Sprintf("%s:%s:%s", w.MasterKeyID, w.Algorithm, base64.StdEncoding.EncodeToString(w.Blob))
}
