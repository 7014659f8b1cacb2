// Package domain defines the rate-limit model.
package domain

import "time"

// Action kinds with dedicated quotas. Unknown kinds fall back to the API
// quota.
const (
	ActionLogin      = "login"
	ActionAPIRequest = "api_request"
	ActionMFA        = "mfa_attempt"
	ActionBiometric  = "biometric_verify"
)

// Decision is the outcome of a rate-limit check.
type Decision struct {
	Allowed    bool          `json:"allowed"`
	Limit      int           `json:"limit"`
	Remaining  int           `json:"remaining"`
	RetryAfter time.Duration `json:"retry_after,omitempty"`
	RiskScore  float64       `json:"risk_score"`
}
