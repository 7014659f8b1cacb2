// Package app provides dependency injection container for assembling application components.
package app

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"sync"

	authHTTP "github.com/allisson/authguard/internal/auth/http"
	authService "github.com/allisson/authguard/internal/auth/service"
	authUseCase "github.com/allisson/authguard/internal/auth/usecase"
	behaviorService "github.com/allisson/authguard/internal/behavior/service"
	behaviorUseCase "github.com/allisson/authguard/internal/behavior/usecase"
	biometricUseCase "github.com/allisson/authguard/internal/biometric/usecase"
	"github.com/allisson/authguard/internal/cache"
	"github.com/allisson/authguard/internal/config"
	"github.com/allisson/authguard/internal/database"
	"github.com/allisson/authguard/internal/events"
	"github.com/allisson/authguard/internal/http"
	"github.com/allisson/authguard/internal/metrics"
	mfaUseCase "github.com/allisson/authguard/internal/mfa/usecase"
	ratelimitUseCase "github.com/allisson/authguard/internal/ratelimit/usecase"
	userRepository "github.com/allisson/authguard/internal/user/repository"
)

// Container holds all application dependencies and provides methods to access them.
// It follows the lazy initialization pattern - components are created on first access.
type Container struct {
	// Configuration
	config *config.Config

	// Infrastructure
	logger      *slog.Logger
	db          *sql.DB
	cacheClient *cache.Memory
	eventBus    *events.Bus

	// Metrics
	metricsProvider *metrics.Provider
	businessMetrics metrics.BusinessMetrics

	// Services
	tokenSigner     authService.TokenSigner
	passwordService authService.PasswordService
	riskScorer      behaviorService.RiskScorer

	// Repositories
	userRepository userRepository.Repository

	// Use Cases
	tokenUseCase     authUseCase.TokenUseCase
	loginUseCase     authUseCase.LoginUseCase
	analyzerUseCase  behaviorUseCase.AnalyzerUseCase
	limiterUseCase   ratelimitUseCase.LimiterUseCase
	challengeUseCase mfaUseCase.ChallengeUseCase
	verifierUseCase  biometricUseCase.VerifierUseCase

	// Handlers
	authHandler      *authHTTP.AuthHandler
	tokenHandler     *authHTTP.TokenHandler
	mfaHandler       *authHTTP.MFAHandler
	biometricHandler *authHTTP.BiometricHandler
	riskHandler      *authHTTP.RiskHandler

	// Servers
	httpServer    *http.Server
	metricsServer *http.MetricsServer

	// Initialization flags and mutex for thread-safety
	mu                   sync.Mutex
	loggerInit           sync.Once
	dbInit               sync.Once
	cacheInit            sync.Once
	eventBusInit         sync.Once
	metricsProviderInit  sync.Once
	businessMetricsInit  sync.Once
	tokenSignerInit      sync.Once
	passwordServiceInit  sync.Once
	riskScorerInit       sync.Once
	userRepositoryInit   sync.Once
	tokenUseCaseInit     sync.Once
	loginUseCaseInit     sync.Once
	analyzerUseCaseInit  sync.Once
	limiterUseCaseInit   sync.Once
	challengeUseCaseInit sync.Once
	verifierUseCaseInit  sync.Once
	authHandlerInit      sync.Once
	tokenHandlerInit     sync.Once
	mfaHandlerInit       sync.Once
	biometricHandlerInit sync.Once
	riskHandlerInit      sync.Once
	httpServerInit       sync.Once
	metricsServerInit    sync.Once
	initErrors           map[string]error
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

// Logger returns the application logger instance.
func (c *Container) Logger() *slog.Logger {
	c.loggerInit.Do(func() {
		c.logger = c.initLogger()
	})
	return c.logger
}

// DB returns the database connection instance.
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

// Cache returns the shared TTL cache instance.
func (c *Container) Cache() *cache.Memory {
	c.cacheInit.Do(func() {
		c.cacheClient = cache.NewMemory(c.config.CacheCleanupInterval)
	})
	return c.cacheClient
}

// EventBus returns the in-process security event bus with the startup
// subscriptions registered.
func (c *Container) EventBus() *events.Bus {
	c.eventBusInit.Do(func() {
		c.eventBus = c.initEventBus()
	})
	return c.eventBus
}

// MetricsProvider returns the OpenTelemetry metrics provider, or nil when
// metrics are disabled.
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

// BusinessMetrics returns the business metrics recorder. A no-op recorder is
// used when metrics are disabled.
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

// HTTPServer returns the HTTP server instance.
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

// MetricsServer returns the metrics server instance, or nil when metrics are
// disabled.
func (c *Container) MetricsServer() (*http.MetricsServer, error) {
	var err error
	c.metricsServerInit.Do(func() {
		if !c.config.MetricsEnabled {
			return
		}
		var provider *metrics.Provider
		provider, err = c.MetricsProvider()
		if err != nil {
			c.initErrors["metricsServer"] = err
			return
		}
		c.metricsServer = http.NewMetricsServer(
			c.config.ServerHost,
			c.config.MetricsPort,
			c.Logger(),
			provider,
		)
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["metricsServer"]; exists {
		return nil, storedErr
	}
	return c.metricsServer, nil
}

// Shutdown performs cleanup of all initialized resources.
// It should be called when the application is shutting down.
func (c *Container) Shutdown(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	var shutdownErrors []error

	if c.db != nil {
		if err := c.db.Close(); err != nil {
			shutdownErrors = append(shutdownErrors, fmt.Errorf("database close: %w", err))
		}
	}

	if c.cacheClient != nil {
		c.cacheClient.Close()
	}

	if c.metricsProvider != nil {
		if err := c.metricsProvider.Shutdown(ctx); err != nil {
			shutdownErrors = append(shutdownErrors, fmt.Errorf("metrics provider shutdown: %w", err))
		}
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

// initEventBus creates the event bus and registers the startup subscriptions:
// an audit trail subscriber that logs every security event, and the step-up
// escalation that flags high-risk subjects for mandatory MFA on their next
// login.
func (c *Container) initEventBus() *events.Bus {
	logger := c.Logger()
	bus := events.NewBus(logger)

	auditKinds := []string{
		events.KindBehaviorAnalyzed,
		events.KindHighRiskBehavior,
		events.KindRateLimitExceeded,
		events.KindBiometricVerified,
		events.KindMFAChallengeCreated,
		events.KindMFAVerified,
		events.KindTokenIssued,
		events.KindTokenRevoked,
	}
	for _, kind := range auditKinds {
		bus.Subscribe(kind, func(_ context.Context, event events.Event) error {
			logger.Info("security event",
				slog.String("kind", event.Kind),
				slog.String("subject_id", event.SubjectID),
				slog.Any("payload", event.Payload),
			)
			return nil
		})
	}

	cacheClient := c.Cache()
	stepUpTTL := c.config.StepUpTTL
	bus.Subscribe(events.KindHighRiskBehavior, func(ctx context.Context, event events.Event) error {
		return cacheClient.Set(ctx, cache.StepUpKey(event.SubjectID), []byte("1"), stepUpTTL)
	})

	return bus
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

// initUserRepository creates the user repository instance.
func (c *Container) initUserRepository() (userRepository.Repository, error) {
	db, err := c.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database for user repository: %w", err)
	}

	// Select the appropriate repository based on the database driver
	switch c.config.DBDriver {
	case "mysql":
		return userRepository.NewMySQLUserRepository(db), nil
	case "postgres":
		return userRepository.NewPostgreSQLUserRepository(db), nil
	default:
		return nil, fmt.Errorf("unsupported database driver: %s", c.config.DBDriver)
	}
}

// initHTTPServer creates the HTTP server with all its dependencies.
func (c *Container) initHTTPServer() (*http.Server, error) {
	logger := c.Logger()

	authHandler, err := c.AuthHandler()
	if err != nil {
		return nil, fmt.Errorf("failed to get auth handler for http server: %w", err)
	}

	tokenHandler, err := c.TokenHandler()
	if err != nil {
		return nil, fmt.Errorf("failed to get token handler for http server: %w", err)
	}

	mfaHandler, err := c.MFAHandler()
	if err != nil {
		return nil, fmt.Errorf("failed to get mfa handler for http server: %w", err)
	}

	biometricHandler, err := c.BiometricHandler()
	if err != nil {
		return nil, fmt.Errorf("failed to get biometric handler for http server: %w", err)
	}

	riskHandler, err := c.RiskHandler()
	if err != nil {
		return nil, fmt.Errorf("failed to get risk handler for http server: %w", err)
	}

	tokenUseCase, err := c.TokenUseCase()
	if err != nil {
		return nil, fmt.Errorf("failed to get token use case for http server: %w", err)
	}

	limiterUseCase, err := c.LimiterUseCase()
	if err != nil {
		return nil, fmt.Errorf("failed to get limiter use case for http server: %w", err)
	}

	metricsProvider, err := c.MetricsProvider()
	if err != nil {
		return nil, fmt.Errorf("failed to get metrics provider for http server: %w", err)
	}

	routerConfig := &http.RouterConfig{
		AuthHandler:      authHandler,
		TokenHandler:     tokenHandler,
		MFAHandler:       mfaHandler,
		BiometricHandler: biometricHandler,
		RiskHandler:      riskHandler,

		TokenUseCase: tokenUseCase,
		Limiter:      limiterUseCase,

		MetricsProvider:  metricsProvider,
		MetricsNamespace: c.config.MetricsNamespace,

		CORSEnabled:      c.config.CORSEnabled,
		CORSAllowOrigins: c.config.CORSAllowOrigins,

		IPRateLimitEnabled: c.config.RateLimitIPEnabled,
		IPRequestsPerSec:   c.config.RateLimitIPRequestsPerSec,
		IPBurst:            c.config.RateLimitIPBurst,
	}

	server := http.NewServer(
		routerConfig,
		c.config.ServerHost,
		c.config.ServerPort,
		logger,
	)

	return server, nil
}
