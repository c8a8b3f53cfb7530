package app

import (
	"fmt"

	accountRepository "github.com/parlorchat/parlor/internal/account/repository"
	accountService "github.com/parlorchat/parlor/internal/account/service"
	accountUsecase "github.com/parlorchat/parlor/internal/account/usecase"
	outboxRepository "github.com/parlorchat/parlor/internal/outbox/repository"
	outboxUsecase "github.com/parlorchat/parlor/internal/outbox/usecase"
	appValidation "github.com/parlorchat/parlor/internal/validation"
)

// PasswordService returns the Argon2id password hashing service.
func (c *Container) PasswordService() (accountService.PasswordService, error) {
	var err error
	c.passwordServiceInit.Do(func() {
		c.passwordService, err = accountService.NewPasswordService()
		if err != nil {
			c.initErrors["passwordService"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["passwordService"]; exists {
		return nil, storedErr
	}
	return c.passwordService, nil
}

// AccountRepository returns the account repository instance.
func (c *Container) AccountRepository() (accountUsecase.AccountRepository, error) {
	var err error
	c.accountRepoInit.Do(func() {
		c.accountRepo, err = c.initAccountRepository()
		if err != nil {
			c.initErrors["accountRepo"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["accountRepo"]; exists {
		return nil, storedErr
	}
	return c.accountRepo, nil
}

// OutboxRepository returns the outbox event repository instance.
func (c *Container) OutboxRepository() (outboxUsecase.OutboxEventRepository, error) {
	var err error
	c.outboxRepoInit.Do(func() {
		c.outboxRepo, err = c.initOutboxRepository()
		if err != nil {
			c.initErrors["outboxRepo"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["outboxRepo"]; exists {
		return nil, storedErr
	}
	return c.outboxRepo, nil
}

// AccountUseCase returns the account use case.
func (c *Container) AccountUseCase() (accountUsecase.UseCase, error) {
	var err error
	c.accountUseCaseInit.Do(func() {
		c.accountUseCase, err = c.initAccountUseCase()
		if err != nil {
			c.initErrors["accountUseCase"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["accountUseCase"]; exists {
		return nil, storedErr
	}
	return c.accountUseCase, nil
}

// initAccountRepository creates the account repository based on the database driver.
func (c *Container) initAccountRepository() (accountUsecase.AccountRepository, error) {
	db, err := c.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database for account repository: %w", err)
	}

	switch c.config.DBDriver {
	case "mysql":
		return accountRepository.NewMySQLAccountRepository(db), nil
	case "postgres":
		return accountRepository.NewPostgreSQLAccountRepository(db), nil
	default:
		return nil, fmt.Errorf("unsupported database driver: %s", c.config.DBDriver)
	}
}

// initOutboxRepository creates the outbox event repository based on the database driver.
func (c *Container) initOutboxRepository() (outboxUsecase.OutboxEventRepository, error) {
	db, err := c.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database for outbox repository: %w", err)
	}

	switch c.config.DBDriver {
	case "mysql":
		return outboxRepository.NewMySQLOutboxEventRepository(db), nil
	case "postgres":
		return outboxRepository.NewPostgreSQLOutboxEventRepository(db), nil
	default:
		return nil, fmt.Errorf("unsupported database driver: %s", c.config.DBDriver)
	}
}

// initAccountUseCase creates the account use case with all its dependencies.
func (c *Container) initAccountUseCase() (accountUsecase.UseCase, error) {
	txManager, err := c.TxManager()
	if err != nil {
		return nil, fmt.Errorf("failed to get tx manager for account use case: %w", err)
	}

	accountRepo, err := c.AccountRepository()
	if err != nil {
		return nil, fmt.Errorf("failed to get account repository for account use case: %w", err)
	}

	outboxRepo, err := c.OutboxRepository()
	if err != nil {
		return nil, fmt.Errorf("failed to get outbox repository for account use case: %w", err)
	}

	passwordService, err := c.PasswordService()
	if err != nil {
		return nil, fmt.Errorf("failed to get password service for account use case: %w", err)
	}

	fieldCipher, err := c.FieldCipher()
	if err != nil {
		return nil, fmt.Errorf("failed to get field cipher for account use case: %w", err)
	}

	passwordPolicy := appValidation.PasswordStrength{
		MinLength:      c.config.PasswordMinLength,
		RequireUpper:   c.config.PasswordRequireUpper,
		RequireLower:   c.config.PasswordRequireLower,
		RequireNumber:  c.config.PasswordRequireNumber,
		RequireSpecial: c.config.PasswordRequireSpecial,
	}

	useCase, err := accountUsecase.NewAccountUseCase(
		txManager,
		accountRepo,
		outboxRepo,
		passwordService,
		fieldCipher,
		passwordPolicy,
		c.Logger(),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create account use case: %w", err)
	}

	businessMetrics, err := c.BusinessMetrics()
	if err != nil {
		return nil, fmt.Errorf("failed to get business metrics for account use case: %w", err)
	}

	return accountUsecase.NewAccountUseCaseWithMetrics(useCase, businessMetrics), nil
}
