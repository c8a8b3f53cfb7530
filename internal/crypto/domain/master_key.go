// Package domain defines cryptographic primitives shared by the field
// encryption services: AEAD algorithm identifiers, master keys, and the
// wrapped-key envelope stored alongside each account.
package domain

import (
	"context"
	"encoding/base64"
	"fmt"
	"os"
	"strings"
	"sync"
)

// MasterKey is a process-level key used exclusively to wrap (encrypt) the
// per-account field-encryption keys before they are persisted.
//
// Master keys never encrypt profile data directly and are never stored in the
// database. They load from the environment; in production the environment
// entries may themselves be KMS ciphertexts (see KeyDecrypter).
type MasterKey struct {
	ID  string
	Key []byte
}

// KeyDecrypter decrypts a KMS-wrapped master key entry. A nil KeyDecrypter
// means entries are plain base64 key material.
type KeyDecrypter func(ctx context.Context, ciphertext []byte) ([]byte, error)

// MasterKeyChain holds all configured master keys with one designated active.
//
// Rotation works by adding a new key and switching ACTIVE_MASTER_KEY_ID: new
// account keys are wrapped with the active master key while old wrapped keys
// remain decryptable by ID.
type MasterKeyChain struct {
	activeID string
	keys     sync.Map
}

// ActiveMasterKeyID returns the ID of the master key used for new wraps.
func (m *MasterKeyChain) ActiveMasterKeyID() string {
	return m.activeID
}

// Active returns the active master key.
func (m *MasterKeyChain) Active() (*MasterKey, error) {
	key, ok := m.Get(m.activeID)
	if !ok {
		return nil, ErrActiveMasterKeyNotFound
	}
	return key, nil
}

// Get retrieves a master key by ID. Old IDs stay resolvable so that wrapped
// keys written before a rotation can still be unwrapped.
func (m *MasterKeyChain) Get(id string) (*MasterKey, bool) {
	if masterKey, ok := m.keys.Load(id); ok {
		return masterKey.(*MasterKey), ok
	}
	return nil, false
}

// Close clears all master keys from memory and resets the keychain.
func (m *MasterKeyChain) Close() {
	m.keys.Range(func(id, key any) bool {
		zero(key.(*MasterKey).Key)
		return true
	})
	m.activeID = ""
	m.keys.Clear()
}

// LoadMasterKeyChainFromEnv loads master keys from environment variables.
//
// MASTER_KEYS is a comma-separated list of "id:base64key" entries and
// ACTIVE_MASTER_KEY_ID selects the key used to wrap new account keys:
//
//	MASTER_KEYS="2025a:aGVsbG8...,2026a:d29ybGQ..."
//	ACTIVE_MASTER_KEY_ID="2026a"
//
// When decrypt is non-nil, each decoded entry is treated as a KMS ciphertext
// and passed through decrypt before use. Every resulting key must be exactly
// KeySize bytes.
func LoadMasterKeyChainFromEnv(ctx context.Context, decrypt KeyDecrypter) (*MasterKeyChain, error) {
	raw := os.Getenv("MASTER_KEYS")
	if raw == "" {
		return nil, ErrMasterKeysNotSet
	}

	active := os.Getenv("ACTIVE_MASTER_KEY_ID")
	if active == "" {
		return nil, ErrActiveMasterKeyIDNotSet
	}

	mkc := &MasterKeyChain{activeID: active}

	for _, part := range strings.Split(raw, ",") {
		p := strings.SplitN(strings.TrimSpace(part), ":", 2)
		if len(p) != 2 {
			mkc.Close()
			return nil, fmt.Errorf("%w: %q", ErrInvalidMasterKeysFormat, part)
		}
		id := p[0]

		key, err := base64.StdEncoding.DecodeString(p[1])
		if err != nil {
			mkc.Close()
			return nil, fmt.Errorf("%w for %s: %v", ErrInvalidMasterKeyBase64, id, err)
		}

		if decrypt != nil {
			plain, err := decrypt(ctx, key)
			zero(key)
			if err != nil {
				mkc.Close()
				return nil, fmt.Errorf("failed to decrypt master key %s: %w", id, err)
			}
			key = plain
		}

		if len(key) != KeySize {
			zero(key)
			mkc.Close()
			return nil, fmt.Errorf(
				"%w: master key %s must be %d bytes, got %d",
				ErrInvalidKeySize, id, KeySize, len(key),
			)
		}

		stored := make([]byte, KeySize)
		copy(stored, key)
		zero(key)
		mkc.keys.Store(id, &MasterKey{ID: id, Key: stored})
	}

	if _, ok := mkc.Get(active); !ok {
		mkc.Close()
		return nil, fmt.Errorf("%w: %s", ErrActiveMasterKeyNotFound, active)
	}

	return mkc, nil
}
