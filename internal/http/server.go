// Package http provides HTTP server implementation and request handlers.
package http

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-contrib/requestid"
	"github.com/gin-gonic/gin"

	authHTTP "github.com/allisson/authguard/internal/auth/http"
	authUseCase "github.com/allisson/authguard/internal/auth/usecase"
	"github.com/allisson/authguard/internal/metrics"
	ratelimitDomain "github.com/allisson/authguard/internal/ratelimit/domain"
	ratelimitUseCase "github.com/allisson/authguard/internal/ratelimit/usecase"
)

// RouterConfig carries the handlers and middleware collaborators the API
// router wires together.
type RouterConfig struct {
	AuthHandler      *authHTTP.AuthHandler
	TokenHandler     *authHTTP.TokenHandler
	MFAHandler       *authHTTP.MFAHandler
	BiometricHandler *authHTTP.BiometricHandler
	RiskHandler      *authHTTP.RiskHandler

	TokenUseCase authUseCase.TokenUseCase
	Limiter      ratelimitUseCase.LimiterUseCase

	MetricsProvider  *metrics.Provider
	MetricsNamespace string

	CORSEnabled      bool
	CORSAllowOrigins string

	IPRateLimitEnabled bool
	IPRequestsPerSec   float64
	IPBurst            int
}

// Server represents the HTTP server.
type Server struct {
	server *http.Server
	router *gin.Engine
	logger *slog.Logger
}

// NewServer creates a new HTTP server with all API routes registered.
func NewServer(
	cfg *RouterConfig,
	host string,
	port int,
	logger *slog.Logger,
) *Server {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(requestid.New())
	router.Use(CustomLoggerMiddleware(logger))

	router.GET("/health", HealthHandler())

	if cfg != nil {
		if cfg.MetricsProvider != nil {
			router.Use(metrics.HTTPMetricsMiddleware(
				cfg.MetricsProvider.MeterProvider(),
				cfg.MetricsNamespace,
			))
		}

		if corsMiddleware := createCORSMiddleware(cfg.CORSEnabled, cfg.CORSAllowOrigins, logger); corsMiddleware != nil {
			router.Use(corsMiddleware)
		}

		registerRoutes(router, cfg, logger)
	}

	return &Server{
		router: router,
		logger: logger,
		server: &http.Server{
			Addr:         fmt.Sprintf("%s:%d", host, port),
			Handler:      router,
			ReadTimeout:  15 * time.Second,
			WriteTimeout: 15 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
	}
}

// registerRoutes mounts the API surface.
//
// The unauthenticated group (login, MFA completion, refresh) is guarded by
// the per-IP limiter; everything behind the bearer middleware runs through
// the subject's risk-adjusted budget instead.
func registerRoutes(router *gin.Engine, cfg *RouterConfig, logger *slog.Logger) {
	v1 := router.Group("/v1")

	public := v1.Group("")
	if cfg.IPRateLimitEnabled {
		public.Use(authHTTP.IPRateLimitMiddleware(cfg.IPRequestsPerSec, cfg.IPBurst, logger))
	}
	if cfg.AuthHandler != nil {
		public.POST("/auth/login", cfg.AuthHandler.LoginHandler)
		public.POST("/auth/mfa/complete", cfg.AuthHandler.CompleteMFAHandler)
	}
	if cfg.TokenHandler != nil {
		public.POST("/auth/refresh", cfg.TokenHandler.RefreshTokenHandler)
	}

	protected := v1.Group("")
	protected.Use(authHTTP.AuthenticationMiddleware(cfg.TokenUseCase, logger))

	if cfg.TokenHandler != nil {
		protected.POST("/auth/logout", cfg.TokenHandler.RevokeTokenHandler)
	}
	if cfg.MFAHandler != nil {
		mfaLimited := protected.Group("")
		mfaLimited.Use(authHTTP.RateLimitMiddleware(cfg.Limiter, ratelimitDomain.ActionMFA, logger))
		mfaLimited.POST("/mfa/challenge", cfg.MFAHandler.GenerateChallengeHandler)
		mfaLimited.POST("/mfa/verify", cfg.MFAHandler.VerifyChallengeHandler)
	}
	if cfg.BiometricHandler != nil {
		biometricLimited := protected.Group("")
		biometricLimited.Use(authHTTP.RateLimitMiddleware(cfg.Limiter, ratelimitDomain.ActionBiometric, logger))
		biometricLimited.POST("/biometric/verify", cfg.BiometricHandler.VerifyHandler)
	}
	if cfg.RiskHandler != nil {
		riskLimited := protected.Group("")
		riskLimited.Use(authHTTP.APIRateLimitMiddleware(cfg.Limiter, logger))
		riskLimited.GET("/risk/score", cfg.RiskHandler.CurrentRiskHandler)
	}
}

// GetHandler returns the http.Handler for testing purposes.
func (s *Server) GetHandler() http.Handler {
	return s.router
}

// Start starts the HTTP server.
func (s *Server) Start(ctx context.Context) error {
	// Readiness flips once the application context is cancelled.
	s.router.GET("/ready", ReadinessHandler(ctx))

	s.logger.Info("starting http server", slog.String("addr", s.server.Addr))

	if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("failed to start server: %w", err)
	}

	return nil
}

// Shutdown gracefully shuts down the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down http server")
	return s.server.Shutdown(ctx)
}
