package app

import (
	"fmt"

	ratelimitUseCase "github.com/allisson/authguard/internal/ratelimit/usecase"
)

// LimiterUseCase returns the risk-adjusted rate limiter use case.
func (c *Container) LimiterUseCase() (ratelimitUseCase.LimiterUseCase, error) {
	var err error
	c.limiterUseCaseInit.Do(func() {
		c.limiterUseCase, err = c.initLimiterUseCase()
		if err != nil {
			c.initErrors["limiterUseCase"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["limiterUseCase"]; exists {
		return nil, storedErr
	}
	return c.limiterUseCase, nil
}

// initLimiterUseCase creates the limiter use case with all its dependencies.
// The analyzer serves both as the risk source for quota adjustment and as
// the recorder for rejected attempts.
func (c *Container) initLimiterUseCase() (ratelimitUseCase.LimiterUseCase, error) {
	analyzer, err := c.AnalyzerUseCase()
	if err != nil {
		return nil, fmt.Errorf("failed to get analyzer use case for limiter use case: %w", err)
	}

	quotas := ratelimitUseCase.Quotas{
		Login:     c.config.RateLimitLoginQuota,
		API:       c.config.RateLimitAPIQuota,
		MFA:       c.config.RateLimitMFAQuota,
		Biometric: c.config.RateLimitBiometricQuota,
	}

	return ratelimitUseCase.NewLimiterUseCase(
		c.Cache(),
		analyzer,
		analyzer,
		c.EventBus(),
		c.Logger(),
		quotas,
		c.config.RateLimitWindow,
		c.config.RateLimitCooldown,
	), nil
}
