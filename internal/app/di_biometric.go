package app

import (
	"fmt"

	authHTTP "github.com/allisson/authguard/internal/auth/http"
	biometricService "github.com/allisson/authguard/internal/biometric/service"
	biometricUseCase "github.com/allisson/authguard/internal/biometric/usecase"
)

// VerifierUseCase returns the biometric verifier use case.
func (c *Container) VerifierUseCase() (biometricUseCase.VerifierUseCase, error) {
	var err error
	c.verifierUseCaseInit.Do(func() {
		c.verifierUseCase, err = c.initVerifierUseCase()
		if err != nil {
			c.initErrors["verifierUseCase"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["verifierUseCase"]; exists {
		return nil, storedErr
	}
	return c.verifierUseCase, nil
}

// BiometricHandler returns the biometric HTTP handler.
func (c *Container) BiometricHandler() (*authHTTP.BiometricHandler, error) {
	var err error
	c.biometricHandlerInit.Do(func() {
		var verifier biometricUseCase.VerifierUseCase
		verifier, err = c.VerifierUseCase()
		if err != nil {
			c.initErrors["biometricHandler"] = err
			return
		}
		c.biometricHandler = authHTTP.NewBiometricHandler(verifier, c.Logger())
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["biometricHandler"]; exists {
		return nil, storedErr
	}
	return c.biometricHandler, nil
}

// initVerifierUseCase creates the verifier use case with all its dependencies.
// The behavior analyzer feeds the fraud assessor, so behavioral risk lowers
// biometric confidence.
func (c *Container) initVerifierUseCase() (biometricUseCase.VerifierUseCase, error) {
	templates, err := c.UserRepository()
	if err != nil {
		return nil, fmt.Errorf("failed to get user repository for verifier use case: %w", err)
	}

	analyzer, err := c.AnalyzerUseCase()
	if err != nil {
		return nil, fmt.Errorf("failed to get analyzer use case for verifier use case: %w", err)
	}

	return biometricUseCase.NewVerifierUseCase(
		templates,
		biometricService.NewHashMatcher(),
		biometricService.NewEntropyLiveness(),
		biometricService.NewRiskFraudAssessor(analyzer),
		c.EventBus(),
		c.Logger(),
		c.config.BiometricConfidenceThreshold,
		c.config.BiometricLivenessThreshold,
	), nil
}
