package app

import (
	"context"
	"fmt"

	cryptoDomain "github.com/parlorchat/parlor/internal/crypto/domain"
	cryptoService "github.com/parlorchat/parlor/internal/crypto/service"
)

// KMSService returns the KMS service.
func (c *Container) KMSService() cryptoService.KMSService {
	c.kmsServiceInit.Do(func() {
		c.kmsService = cryptoService.NewKMSService()
	})
	return c.kmsService
}

// MasterKeyChain returns the master key chain loaded from environment variables.
func (c *Container) MasterKeyChain() (*cryptoDomain.MasterKeyChain, error) {
	var err error
	c.masterKeyChainInit.Do(func() {
		c.masterKeyChain, err = c.initMasterKeyChain()
		if err != nil {
			c.initErrors["masterKeyChain"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["masterKeyChain"]; exists {
		return nil, storedErr
	}
	return c.masterKeyChain, nil
}

// AEADManager returns the AEAD manager service.
func (c *Container) AEADManager() cryptoService.AEADManager {
	c.aeadManagerInit.Do(func() {
		c.aeadManager = cryptoService.NewAEADManager()
	})
	return c.aeadManager
}

// FieldCipher returns the field cipher used for profile field encryption and
// per-account key wrapping.
func (c *Container) FieldCipher() (cryptoService.FieldCipher, error) {
	var err error
	c.fieldCipherInit.Do(func() {
		c.fieldCipher, err = c.initFieldCipher()
		if err != nil {
			c.initErrors["fieldCipher"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["fieldCipher"]; exists {
		return nil, storedErr
	}
	return c.fieldCipher, nil
}

// initMasterKeyChain loads the master key chain, unwrapping entries through
// KMS when KMS_KEY_URI is configured.
func (c *Container) initMasterKeyChain() (*cryptoDomain.MasterKeyChain, error) {
	ctx := context.Background()

	var decrypt cryptoDomain.KeyDecrypter
	if c.config.KMSKeyURI != "" {
		keeper, err := c.KMSService().OpenKeeper(ctx, c.config.KMSKeyURI)
		if err != nil {
			return nil, fmt.Errorf("failed to open KMS keeper: %w", err)
		}
		// Kept on the container so Shutdown can close it.
		c.kmsKeeper = keeper
		decrypt = keeper.Decrypt

		c.Logger().Info("master keys unwrapped through KMS")
	}

	chain, err := cryptoDomain.LoadMasterKeyChainFromEnv(ctx, decrypt)
	if err != nil {
		return nil, fmt.Errorf("failed to load master key chain: %w", err)
	}

	return chain, nil
}

// initFieldCipher creates the field cipher from the configured algorithm.
func (c *Container) initFieldCipher() (cryptoService.FieldCipher, error) {
	alg, err := cryptoDomain.ParseAlgorithm(c.config.FieldCipherAlgorithm)
	if err != nil {
		return nil, fmt.Errorf("invalid field cipher algorithm: %w", err)
	}

	masterKeyChain, err := c.MasterKeyChain()
	if err != nil {
		return nil, fmt.Errorf("failed to get master key chain for field cipher: %w", err)
	}

	return cryptoService.NewFieldCipher(c.AEADManager(), alg, masterKeyChain), nil
}
