package commands

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"io"
	"log/slog"
	"time"

	cryptoDomain "github.com/parlorchat/parlor/internal/crypto/domain"
	cryptoService "github.com/parlorchat/parlor/internal/crypto/service"
)

// RunCreateMasterKey generates a 32-byte master key for wrapping per-account
// field keys and prints the environment variables to configure it.
//
// When kmsKeyURI is empty, the key is printed as plain base64 suitable for
// MASTER_KEYS. When a KMS key URI is given, the key is encrypted with KMS
// first and KMS_KEY_URI is included in the output so the server can unwrap it
// at startup.
//
// If keyID is empty, a default ID in the format "master-key-YYYY-MM-DD" is
// generated. Key material is zeroed from memory after encoding.
func RunCreateMasterKey(
	ctx context.Context,
	kmsService cryptoService.KMSService,
	logger *slog.Logger,
	w io.Writer,
	keyID string,
	kmsKeyURI string,
) error {
	if keyID == "" {
		keyID = fmt.Sprintf("master-key-%s", time.Now().Format("2006-01-02"))
	}

	masterKey := make([]byte, cryptoDomain.KeySize)
	if _, err := rand.Read(masterKey); err != nil {
		return fmt.Errorf("failed to generate master key: %w", err)
	}
	defer cryptoDomain.Zero(masterKey)

	output := masterKey
	if kmsKeyURI != "" {
		keeperInterface, err := kmsService.OpenKeeper(ctx, kmsKeyURI)
		if err != nil {
			return fmt.Errorf("failed to open KMS keeper: %w", err)
		}
		defer func() {
			if closeErr := keeperInterface.Close(); closeErr != nil {
				logger.Warn("failed to close KMS keeper", slog.Any("error", closeErr))
			}
		}()

		keeper, ok := keeperInterface.(interface {
			Encrypt(ctx context.Context, plaintext []byte) ([]byte, error)
		})
		if !ok {
			return fmt.Errorf("KMS keeper does not support encryption")
		}

		ciphertext, err := keeper.Encrypt(ctx, masterKey)
		if err != nil {
			return fmt.Errorf("failed to encrypt master key with KMS: %w", err)
		}
		output = ciphertext
	}

	encodedKey := base64.StdEncoding.EncodeToString(output)

	fmt.Fprintln(w, "# Master Key Configuration")
	fmt.Fprintln(w, "# Copy these environment variables to your .env file or secrets manager")
	fmt.Fprintln(w)
	if kmsKeyURI != "" {
		fmt.Fprintf(w, "KMS_KEY_URI=%q\n", kmsKeyURI)
	}
	fmt.Fprintf(w, "MASTER_KEYS=%q\n", keyID+":"+encodedKey)
	fmt.Fprintf(w, "ACTIVE_MASTER_KEY_ID=%q\n", keyID)
	fmt.Fprintln(w)
	fmt.Fprintln(w, "# For key rotation, append the new entry to MASTER_KEYS and point")
	fmt.Fprintln(w, "# ACTIVE_MASTER_KEY_ID at it. Keep old entries until every account")
	fmt.Fprintln(w, "# key wrapped under them has been rewrapped.")

	return nil
}
