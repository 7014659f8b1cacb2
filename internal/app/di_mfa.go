package app

import (
	"fmt"

	authHTTP "github.com/allisson/authguard/internal/auth/http"
	mfaService "github.com/allisson/authguard/internal/mfa/service"
	mfaUseCase "github.com/allisson/authguard/internal/mfa/usecase"
)

// ChallengeUseCase returns the MFA challenge use case.
func (c *Container) ChallengeUseCase() (mfaUseCase.ChallengeUseCase, error) {
	c.challengeUseCaseInit.Do(func() {
		c.challengeUseCase = mfaUseCase.NewChallengeUseCase(
			mfaService.NewCodeService(),
			mfaService.NewLogSender(c.Logger()),
			c.Cache(),
			c.EventBus(),
			c.Logger(),
			c.config.MFACodeExpiration,
			c.config.MFAMaxAttempts,
		)
	})
	return c.challengeUseCase, nil
}

// MFAHandler returns the MFA HTTP handler.
func (c *Container) MFAHandler() (*authHTTP.MFAHandler, error) {
	var err error
	c.mfaHandlerInit.Do(func() {
		var challenges mfaUseCase.ChallengeUseCase
		challenges, err = c.ChallengeUseCase()
		if err != nil {
			c.initErrors["mfaHandler"] = fmt.Errorf("failed to get challenge use case for mfa handler: %w", err)
			return
		}
		c.mfaHandler = authHTTP.NewMFAHandler(challenges, c.Cache(), c.Logger())
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["mfaHandler"]; exists {
		return nil, storedErr
	}
	return c.mfaHandler, nil
}
