package domain

// Algorithm represents the AEAD algorithm used for field encryption.
//
// Both supported algorithms provide authenticated encryption: ciphertexts are
// bound to a 128-bit tag and any tampering is detected at decryption time.
type Algorithm string

const (
	// AESGCM represents the AES-256-GCM authenticated encryption algorithm.
	// Preferred on CPUs with AES-NI hardware acceleration.
	AESGCM Algorithm = "aes-gcm"

	// ChaCha20 represents the ChaCha20-Poly1305 authenticated encryption
	// algorithm. Constant-time in software, preferred without AES-NI.
	ChaCha20 Algorithm = "chacha20-poly1305"
)

// KeySize is the key length in bytes required by both supported algorithms.
const KeySize = 32

// ParseAlgorithm converts a configuration string into an Algorithm.
func ParseAlgorithm(s string) (Algorithm, error) {
	switch Algorithm(s) {
	case AESGCM:
		return AESGCM, nil
	case ChaCha20:
		return ChaCha20, nil
	default:
		return "", ErrUnsupportedAlgorithm
	}
}
