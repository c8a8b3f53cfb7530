package app

import (
	"fmt"

	sessionRepository "github.com/parlorchat/parlor/internal/session/repository"
	sessionService "github.com/parlorchat/parlor/internal/session/service"
	sessionUsecase "github.com/parlorchat/parlor/internal/session/usecase"
)

// TokenService returns the session token service.
func (c *Container) TokenService() sessionService.TokenService {
	c.tokenServiceInit.Do(func() {
		c.tokenService = sessionService.NewTokenService()
	})
	return c.tokenService
}

// SessionRepository returns the Redis-backed session repository.
func (c *Container) SessionRepository() sessionUsecase.SessionRepository {
	c.sessionRepoInit.Do(func() {
		c.sessionRepo = sessionRepository.NewRedisSessionRepository(
			c.RedisClient(),
			c.config.SessionStoreTimeout,
		)
	})
	return c.sessionRepo
}

// SessionUseCase returns the session use case.
func (c *Container) SessionUseCase() (sessionUsecase.UseCase, error) {
	var err error
	c.sessionUseCaseInit.Do(func() {
		c.sessionUseCase, err = c.initSessionUseCase()
		if err != nil {
			c.initErrors["sessionUseCase"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["sessionUseCase"]; exists {
		return nil, storedErr
	}
	return c.sessionUseCase, nil
}

// initSessionUseCase creates the session use case with all its dependencies.
func (c *Container) initSessionUseCase() (sessionUsecase.UseCase, error) {
	accountUseCase, err := c.AccountUseCase()
	if err != nil {
		return nil, fmt.Errorf("failed to get account use case for session use case: %w", err)
	}

	useCaseConfig := sessionUsecase.Config{
		TTL:         c.config.SessionTTL,
		RememberTTL: c.config.SessionRememberTTL,
	}

	useCase := sessionUsecase.NewSessionUseCase(
		useCaseConfig,
		c.SessionRepository(),
		c.TokenService(),
		accountUseCase,
		c.Logger(),
	)

	businessMetrics, err := c.BusinessMetrics()
	if err != nil {
		return nil, fmt.Errorf("failed to get business metrics for session use case: %w", err)
	}

	return sessionUsecase.NewSessionUseCaseWithMetrics(useCase, businessMetrics), nil
}
