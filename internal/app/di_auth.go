package app

import (
	"context"
	"fmt"

	authHTTP "github.com/allisson/authguard/internal/auth/http"
	authService "github.com/allisson/authguard/internal/auth/service"
	authUseCase "github.com/allisson/authguard/internal/auth/usecase"
	userRepository "github.com/allisson/authguard/internal/user/repository"
)

// TokenSigner returns the session credential signer.
func (c *Container) TokenSigner() (authService.TokenSigner, error) {
	var err error
	c.tokenSignerInit.Do(func() {
		c.tokenSigner, err = c.initTokenSigner()
		if err != nil {
			c.initErrors["tokenSigner"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["tokenSigner"]; exists {
		return nil, storedErr
	}
	return c.tokenSigner, nil
}

// PasswordService returns the password hashing service.
func (c *Container) PasswordService() authService.PasswordService {
	c.passwordServiceInit.Do(func() {
		c.passwordService = authService.NewPasswordService()
	})
	return c.passwordService
}

// UserRepository returns the user repository based on database driver.
func (c *Container) UserRepository() (userRepository.Repository, error) {
	var err error
	c.userRepositoryInit.Do(func() {
		c.userRepository, err = c.initUserRepository()
		if err != nil {
			c.initErrors["userRepository"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["userRepository"]; exists {
		return nil, storedErr
	}
	return c.userRepository, nil
}

// TokenUseCase returns the token use case.
func (c *Container) TokenUseCase() (authUseCase.TokenUseCase, error) {
	var err error
	c.tokenUseCaseInit.Do(func() {
		c.tokenUseCase, err = c.initTokenUseCase()
		if err != nil {
			c.initErrors["tokenUseCase"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["tokenUseCase"]; exists {
		return nil, storedErr
	}
	return c.tokenUseCase, nil
}

// LoginUseCase returns the login use case.
func (c *Container) LoginUseCase() (authUseCase.LoginUseCase, error) {
	var err error
	c.loginUseCaseInit.Do(func() {
		c.loginUseCase, err = c.initLoginUseCase()
		if err != nil {
			c.initErrors["loginUseCase"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["loginUseCase"]; exists {
		return nil, storedErr
	}
	return c.loginUseCase, nil
}

// AuthHandler returns the login HTTP handler.
func (c *Container) AuthHandler() (*authHTTP.AuthHandler, error) {
	var err error
	c.authHandlerInit.Do(func() {
		var loginUseCase authUseCase.LoginUseCase
		loginUseCase, err = c.LoginUseCase()
		if err != nil {
			c.initErrors["authHandler"] = err
			return
		}
		c.authHandler = authHTTP.NewAuthHandler(loginUseCase, c.Logger())
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["authHandler"]; exists {
		return nil, storedErr
	}
	return c.authHandler, nil
}

// TokenHandler returns the token HTTP handler.
func (c *Container) TokenHandler() (*authHTTP.TokenHandler, error) {
	var err error
	c.tokenHandlerInit.Do(func() {
		var tokenUseCase authUseCase.TokenUseCase
		tokenUseCase, err = c.TokenUseCase()
		if err != nil {
			c.initErrors["tokenHandler"] = err
			return
		}
		c.tokenHandler = authHTTP.NewTokenHandler(tokenUseCase, c.Logger())
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["tokenHandler"]; exists {
		return nil, storedErr
	}
	return c.tokenHandler, nil
}

// initTokenSigner loads the signing secrets (decrypting through KMS when
// configured) and builds the signer.
func (c *Container) initTokenSigner() (authService.TokenSigner, error) {
	secrets, err := authService.LoadSigningSecrets(
		context.Background(),
		c.config.KMSKeyURI,
		c.config.AccessTokenSecret,
		c.config.RefreshTokenSecret,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to load signing secrets: %w", err)
	}

	signer, err := authService.NewTokenSigner(
		secrets.Access,
		secrets.Refresh,
		c.config.AccessTokenExpiration,
		c.config.RefreshTokenExpiration,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create token signer: %w", err)
	}
	return signer, nil
}

// initTokenUseCase creates the token use case with all its dependencies.
func (c *Container) initTokenUseCase() (authUseCase.TokenUseCase, error) {
	signer, err := c.TokenSigner()
	if err != nil {
		return nil, fmt.Errorf("failed to get token signer for token use case: %w", err)
	}

	businessMetrics, err := c.BusinessMetrics()
	if err != nil {
		return nil, fmt.Errorf("failed to get business metrics for token use case: %w", err)
	}

	useCase := authUseCase.NewTokenUseCase(
		signer,
		c.Cache(),
		c.EventBus(),
		c.Logger(),
	)

	return authUseCase.NewTokenUseCaseWithMetrics(useCase, businessMetrics), nil
}

// initLoginUseCase creates the login use case with all its dependencies.
func (c *Container) initLoginUseCase() (authUseCase.LoginUseCase, error) {
	users, err := c.UserRepository()
	if err != nil {
		return nil, fmt.Errorf("failed to get user repository for login use case: %w", err)
	}

	tokens, err := c.TokenUseCase()
	if err != nil {
		return nil, fmt.Errorf("failed to get token use case for login use case: %w", err)
	}

	analyzer, err := c.AnalyzerUseCase()
	if err != nil {
		return nil, fmt.Errorf("failed to get analyzer use case for login use case: %w", err)
	}

	limiter, err := c.LimiterUseCase()
	if err != nil {
		return nil, fmt.Errorf("failed to get limiter use case for login use case: %w", err)
	}

	challenges, err := c.ChallengeUseCase()
	if err != nil {
		return nil, fmt.Errorf("failed to get challenge use case for login use case: %w", err)
	}

	businessMetrics, err := c.BusinessMetrics()
	if err != nil {
		return nil, fmt.Errorf("failed to get business metrics for login use case: %w", err)
	}

	useCase := authUseCase.NewLoginUseCase(
		users,
		c.PasswordService(),
		tokens,
		analyzer,
		limiter,
		challenges,
		c.Cache(),
		c.Logger(),
	)

	return authUseCase.NewLoginUseCaseWithMetrics(useCase, businessMetrics), nil
}
