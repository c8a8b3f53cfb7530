// Package app provides the dependency injection container for assembling
// application components.
package app

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	accountHTTP "github.com/parlorchat/parlor/internal/account/http"
	accountService "github.com/parlorchat/parlor/internal/account/service"
	accountUsecase "github.com/parlorchat/parlor/internal/account/usecase"
	"github.com/parlorchat/parlor/internal/config"
	cryptoDomain "github.com/parlorchat/parlor/internal/crypto/domain"
	cryptoService "github.com/parlorchat/parlor/internal/crypto/service"
	"github.com/parlorchat/parlor/internal/database"
	"github.com/parlorchat/parlor/internal/http"
	"github.com/parlorchat/parlor/internal/metrics"
	outboxUsecase "github.com/parlorchat/parlor/internal/outbox/usecase"
	sessionHTTP "github.com/parlorchat/parlor/internal/session/http"
	sessionService "github.com/parlorchat/parlor/internal/session/service"
	sessionUsecase "github.com/parlorchat/parlor/internal/session/usecase"
)

// Container holds all application dependencies and provides methods to access them.
// It follows the lazy initialization pattern - components are created on first access.
type Container struct {
	// Configuration
	config *config.Config

	// Infrastructure
	logger      *slog.Logger
	db          *sql.DB
	redisClient redis.UniversalClient

	// Managers
	txManager database.TxManager

	// Crypto
	kmsService     cryptoService.KMSService
	kmsKeeper      cryptoService.KMSKeeper
	masterKeyChain *cryptoDomain.MasterKeyChain
	aeadManager    cryptoService.AEADManager
	fieldCipher    cryptoService.FieldCipher

	// Services
	passwordService accountService.PasswordService
	tokenService    sessionService.TokenService

	// Repositories
	accountRepo accountUsecase.AccountRepository
	outboxRepo  outboxUsecase.OutboxEventRepository
	sessionRepo sessionUsecase.SessionRepository

	// Use Cases
	accountUseCase accountUsecase.UseCase
	sessionUseCase sessionUsecase.UseCase
	outboxUseCase  outboxUsecase.UseCase

	// Metrics
	metricsProvider *metrics.Provider
	businessMetrics metrics.BusinessMetrics

	// Servers
	httpServer    *http.Server
	metricsServer *http.MetricsServer

	// Initialization flags and mutex for thread-safety
	mu                  sync.Mutex
	loggerInit          sync.Once
	dbInit              sync.Once
	redisClientInit     sync.Once
	txManagerInit       sync.Once
	kmsServiceInit      sync.Once
	masterKeyChainInit  sync.Once
	aeadManagerInit     sync.Once
	fieldCipherInit     sync.Once
	passwordServiceInit sync.Once
	tokenServiceInit    sync.Once
	accountRepoInit     sync.Once
	outboxRepoInit      sync.Once
	sessionRepoInit     sync.Once
	accountUseCaseInit  sync.Once
	sessionUseCaseInit  sync.Once
	outboxUseCaseInit   sync.Once
	metricsProviderInit sync.Once
	businessMetricsInit sync.Once
	httpServerInit      sync.Once
	metricsServerInit   sync.Once
	initErrors          map[string]error
}

// NewContainer creates a new dependency injection container with the provided configuration.
func NewContainer(cfg *config.Config) *Container {
	return &Container{
		config:     cfg,
		initErrors: make(map[string]error),
	}
}

// Config returns the application configuration.
func (c *Container) Config() *config.Config {
	return c.config
}

// Logger returns the application logger, initializing it if necessary.
func (c *Container) Logger() *slog.Logger {
	c.loggerInit.Do(func() {
		c.logger = c.initLogger()
	})
	return c.logger
}

// DB returns the database connection, initializing it if necessary.
func (c *Container) DB() (*sql.DB, error) {
	var err error
	c.dbInit.Do(func() {
		c.db, err = c.initDB()
		if err != nil {
			c.initErrors["db"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["db"]; exists {
		return nil, storedErr
	}
	return c.db, nil
}

// RedisClient returns the Redis client backing the session store.
func (c *Container) RedisClient() redis.UniversalClient {
	c.redisClientInit.Do(func() {
		c.redisClient = redis.NewClient(&redis.Options{
			Addr:     c.config.RedisAddr,
			Password: c.config.RedisPassword,
			DB:       c.config.RedisDB,
		})
	})
	return c.redisClient
}

// TxManager returns the transaction manager, initializing it if necessary.
func (c *Container) TxManager() (database.TxManager, error) {
	var err error
	c.txManagerInit.Do(func() {
		c.txManager, err = c.initTxManager()
		if err != nil {
			c.initErrors["txManager"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["txManager"]; exists {
		return nil, storedErr
	}
	return c.txManager, nil
}

// MetricsProvider returns the metrics provider, or nil when metrics are disabled.
func (c *Container) MetricsProvider() (*metrics.Provider, error) {
	var err error
	c.metricsProviderInit.Do(func() {
		if !c.config.MetricsEnabled {
			return
		}
		c.metricsProvider, err = metrics.NewProvider(c.config.MetricsNamespace)
		if err != nil {
			c.initErrors["metricsProvider"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["metricsProvider"]; exists {
		return nil, storedErr
	}
	return c.metricsProvider, nil
}

// BusinessMetrics returns the business metrics recorder. When metrics are
// disabled it returns a no-op implementation so call sites never branch.
func (c *Container) BusinessMetrics() (metrics.BusinessMetrics, error) {
	var err error
	c.businessMetricsInit.Do(func() {
		c.businessMetrics, err = c.initBusinessMetrics()
		if err != nil {
			c.initErrors["businessMetrics"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["businessMetrics"]; exists {
		return nil, storedErr
	}
	return c.businessMetrics, nil
}

// HTTPServer returns the API server with all its dependencies wired.
func (c *Container) HTTPServer() (*http.Server, error) {
	var err error
	c.httpServerInit.Do(func() {
		c.httpServer, err = c.initHTTPServer()
		if err != nil {
			c.initErrors["httpServer"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["httpServer"]; exists {
		return nil, storedErr
	}
	return c.httpServer, nil
}

// MetricsServer returns the metrics server, or nil when metrics are disabled.
func (c *Container) MetricsServer() (*http.MetricsServer, error) {
	var err error
	c.metricsServerInit.Do(func() {
		if !c.config.MetricsEnabled {
			return
		}
		c.metricsServer, err = c.initMetricsServer()
		if err != nil {
			c.initErrors["metricsServer"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["metricsServer"]; exists {
		return nil, storedErr
	}
	return c.metricsServer, nil
}

// OutboxUseCase returns the outbox worker use case.
func (c *Container) OutboxUseCase() (outboxUsecase.UseCase, error) {
	var err error
	c.outboxUseCaseInit.Do(func() {
		c.outboxUseCase, err = c.initOutboxUseCase()
		if err != nil {
			c.initErrors["outboxUseCase"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["outboxUseCase"]; exists {
		return nil, storedErr
	}
	return c.outboxUseCase, nil
}

// Shutdown performs cleanup of all initialized resources.
// It should be called when the application is shutting down.
func (c *Container) Shutdown(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	var shutdownErrors []error

	if c.httpServer != nil {
		if err := c.httpServer.Shutdown(ctx); err != nil {
			shutdownErrors = append(shutdownErrors, fmt.Errorf("http server shutdown: %w", err))
		}
	}

	if c.metricsServer != nil {
		if err := c.metricsServer.Shutdown(ctx); err != nil {
			shutdownErrors = append(shutdownErrors, fmt.Errorf("metrics server shutdown: %w", err))
		}
	}

	if c.metricsProvider != nil {
		if err := c.metricsProvider.Shutdown(ctx); err != nil {
			shutdownErrors = append(shutdownErrors, fmt.Errorf("metrics provider shutdown: %w", err))
		}
	}

	if c.db != nil {
		if err := c.db.Close(); err != nil {
			shutdownErrors = append(shutdownErrors, fmt.Errorf("database close: %w", err))
		}
	}

	if c.redisClient != nil {
		if err := c.redisClient.Close(); err != nil {
			shutdownErrors = append(shutdownErrors, fmt.Errorf("redis close: %w", err))
		}
	}

	if c.kmsKeeper != nil {
		if err := c.kmsKeeper.Close(); err != nil {
			shutdownErrors = append(shutdownErrors, fmt.Errorf("kms keeper close: %w", err))
		}
	}

	// Wipe master key material last so nothing above still needs it.
	if c.masterKeyChain != nil {
		c.masterKeyChain.Close()
	}

	if len(shutdownErrors) > 0 {
		return fmt.Errorf("shutdown errors: %v", shutdownErrors)
	}

	return nil
}

// initLogger creates and configures a structured logger based on the log level.
func (c *Container) initLogger() *slog.Logger {
	var logLevel slog.Level
	switch c.config.LogLevel {
	case "debug":
		logLevel = slog.LevelDebug
	case "info":
		logLevel = slog.LevelInfo
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	default:
		logLevel = slog.LevelInfo
	}

	handler := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: logLevel,
	})

	return slog.New(handler)
}

// initDB creates and configures the database connection.
func (c *Container) initDB() (*sql.DB, error) {
	db, err := database.Connect(database.Config{
		Driver:             c.config.DBDriver,
		ConnectionString:   c.config.DBConnectionString,
		MaxOpenConnections: c.config.DBMaxOpenConnections,
		MaxIdleConnections: c.config.DBMaxIdleConnections,
		ConnMaxLifetime:    c.config.DBConnMaxLifetime,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	return db, nil
}

// initTxManager creates the transaction manager using the database connection.
func (c *Container) initTxManager() (database.TxManager, error) {
	db, err := c.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database for tx manager: %w", err)
	}
	return database.NewTxManager(db), nil
}

// initBusinessMetrics creates the business metrics recorder.
func (c *Container) initBusinessMetrics() (metrics.BusinessMetrics, error) {
	if !c.config.MetricsEnabled {
		return metrics.NewNoOpBusinessMetrics(), nil
	}

	provider, err := c.MetricsProvider()
	if err != nil {
		return nil, fmt.Errorf("failed to get metrics provider for business metrics: %w", err)
	}

	businessMetrics, err := metrics.NewBusinessMetrics(provider.MeterProvider(), c.config.MetricsNamespace)
	if err != nil {
		return nil, fmt.Errorf("failed to create business metrics: %w", err)
	}

	return businessMetrics, nil
}

// initHTTPServer assembles the router and creates the API server.
func (c *Container) initHTTPServer() (*http.Server, error) {
	logger := c.Logger()

	accountUseCase, err := c.AccountUseCase()
	if err != nil {
		return nil, fmt.Errorf("failed to get account use case for http server: %w", err)
	}

	sessionUseCase, err := c.SessionUseCase()
	if err != nil {
		return nil, fmt.Errorf("failed to get session use case for http server: %w", err)
	}

	db, err := c.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database for http server: %w", err)
	}

	metricsProvider, err := c.MetricsProvider()
	if err != nil {
		return nil, fmt.Errorf("failed to get metrics provider for http server: %w", err)
	}

	redisClient := c.RedisClient()

	rateLimitRPS := c.config.RateLimitLoginRequestsPerSec
	if !c.config.RateLimitLoginEnabled {
		rateLimitRPS = 0
	}

	router := http.NewRouter(http.RouterConfig{
		Logger:         logger,
		AccountHandler: accountHTTP.NewAccountHandler(accountUseCase, logger),
		SessionHandler: sessionHTTP.NewSessionHandler(sessionUseCase, logger),
		AccessGuard:    sessionHTTP.AccessGuardMiddleware(sessionUseCase, logger),
		ReadinessCheck: func(ginCtx *gin.Context) error {
			reqCtx := ginCtx.Request.Context()
			if err := db.PingContext(reqCtx); err != nil {
				return fmt.Errorf("database not ready: %w", err)
			}
			if err := redisClient.Ping(reqCtx).Err(); err != nil {
				return fmt.Errorf("session store not ready: %w", err)
			}
			return nil
		},
		LoginRateLimitRPS:   rateLimitRPS,
		LoginRateLimitBurst: c.config.RateLimitLoginBurst,
		CORSEnabled:         c.config.CORSEnabled,
		CORSAllowOrigins:    c.config.CORSAllowOrigins,
		MetricsProvider:     metricsProvider,
		MetricsNamespace:    c.config.MetricsNamespace,
	})

	return http.NewServer(c.config.ServerHost, c.config.ServerPort, router, logger), nil
}

// initMetricsServer creates the metrics server exposing /metrics.
func (c *Container) initMetricsServer() (*http.MetricsServer, error) {
	provider, err := c.MetricsProvider()
	if err != nil {
		return nil, fmt.Errorf("failed to get metrics provider for metrics server: %w", err)
	}

	return http.NewMetricsServer(c.config.ServerHost, c.config.MetricsPort, c.Logger(), provider), nil
}

// initOutboxUseCase creates the outbox use case with all its dependencies.
func (c *Container) initOutboxUseCase() (outboxUsecase.UseCase, error) {
	logger := c.Logger()

	txManager, err := c.TxManager()
	if err != nil {
		return nil, fmt.Errorf("failed to get tx manager for outbox use case: %w", err)
	}

	outboxRepo, err := c.OutboxRepository()
	if err != nil {
		return nil, fmt.Errorf("failed to get outbox repository for outbox use case: %w", err)
	}

	useCaseConfig := outboxUsecase.Config{
		Interval:      c.config.WorkerInterval,
		BatchSize:     c.config.WorkerBatchSize,
		MaxRetries:    c.config.WorkerMaxRetries,
		RetryInterval: c.config.WorkerRetryInterval,
	}

	eventProcessor := outboxUsecase.NewDefaultEventProcessor(logger)
	useCase := outboxUsecase.NewOutboxUseCase(useCaseConfig, txManager, outboxRepo, eventProcessor, logger)

	return useCase, nil
}
