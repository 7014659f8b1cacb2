package app

import (
	authHTTP "github.com/allisson/authguard/internal/auth/http"
	behaviorService "github.com/allisson/authguard/internal/behavior/service"
	behaviorUseCase "github.com/allisson/authguard/internal/behavior/usecase"
)

// RiskScorer returns the behavioral risk scoring service.
func (c *Container) RiskScorer() behaviorService.RiskScorer {
	c.riskScorerInit.Do(func() {
		c.riskScorer = behaviorService.NewRuleScorer(c.config.BehaviorRiskThreshold)
	})
	return c.riskScorer
}

// AnalyzerUseCase returns the behavior analyzer use case.
func (c *Container) AnalyzerUseCase() (behaviorUseCase.AnalyzerUseCase, error) {
	c.analyzerUseCaseInit.Do(func() {
		c.analyzerUseCase = behaviorUseCase.NewAnalyzerUseCase(
			c.RiskScorer(),
			c.Cache(),
			c.EventBus(),
			c.Logger(),
			c.config.BehaviorProfileTTL,
			c.config.BehaviorRiskThreshold,
		)
	})
	return c.analyzerUseCase, nil
}

// RiskHandler returns the risk inspection HTTP handler.
func (c *Container) RiskHandler() (*authHTTP.RiskHandler, error) {
	var err error
	c.riskHandlerInit.Do(func() {
		var analyzer behaviorUseCase.AnalyzerUseCase
		analyzer, err = c.AnalyzerUseCase()
		if err != nil {
			c.initErrors["riskHandler"] = err
			return
		}
		c.riskHandler = authHTTP.NewRiskHandler(analyzer, c.Logger())
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["riskHandler"]; exists {
		return nil, storedErr
	}
	return c.riskHandler, nil
}
