// Package service provides risk scorers for the behavioral analyzer.
package service

import (
	"time"

	behaviorDomain "github.com/allisson/authguard/internal/behavior/domain"
)

// Risk flags contributed by the rule scorer.
const (
	FlagRapidActions    = "rapid_actions"
	FlagNewDevice       = "new_device"
	FlagNewOrigin       = "new_origin"
	FlagOffHours        = "off_hours"
	FlagFailurePattern  = "failure_pattern"
	FlagDistantLocation = "distant_location"
)

// RiskScorer evaluates the most recent action of a profile. Implementations
// must be pure so scoring stays reproducible; a learned model can be swapped
// in behind this interface without touching the pipeline.
type RiskScorer interface {
	Evaluate(profile *behaviorDomain.Profile) behaviorDomain.Assessment
}

// ruleScorer is a bounded additive scorer: each tripped feature adds a fixed
// weight, capped at 1.0.
type ruleScorer struct {
	suspiciousThreshold float64
}

// Feature weights. The cap keeps the score in [0,1] regardless of how many
// features trip.
const (
	weightRapidActions    = 0.25
	weightNewDevice       = 0.30
	weightNewOrigin       = 0.20
	weightOffHours        = 0.15
	weightFailurePattern  = 0.30
	weightDistantLocation = 0.25

	rapidActionWindow = 60 * time.Second
	distantKilometers = 500.0
)

// NewRuleScorer creates the default rule-based risk scorer. suspiciousThreshold
// is the exclusive boundary above which an action is flagged.
func NewRuleScorer(suspiciousThreshold float64) RiskScorer {
	return &ruleScorer{suspiciousThreshold: suspiciousThreshold}
}

// Evaluate scores the profile's most recent action against the preceding
// window.
func (s *ruleScorer) Evaluate(profile *behaviorDomain.Profile) behaviorDomain.Assessment {
	if len(profile.Actions) == 0 {
		return behaviorDomain.Assessment{}
	}

	current := profile.Actions[len(profile.Actions)-1]
	recent := profile.Recent(behaviorDomain.ConsistencyWindowSize)

	var score float64
	var flags []string

	addFlag := func(flag string, weight float64) {
		score += weight
		flags = append(flags, flag)
	}

	if s.rapidActions(current, recent) {
		addFlag(FlagRapidActions, weightRapidActions)
	}
	if s.newDevice(current, recent) {
		addFlag(FlagNewDevice, weightNewDevice)
	}
	if s.newOrigin(current, recent) {
		addFlag(FlagNewOrigin, weightNewOrigin)
	}
	if s.offHours(current) {
		addFlag(FlagOffHours, weightOffHours)
	}
	if s.failurePattern(recent) {
		addFlag(FlagFailurePattern, weightFailurePattern)
	}
	if s.distantLocation(current, recent) {
		addFlag(FlagDistantLocation, weightDistantLocation)
	}

	if score > 1.0 {
		score = 1.0
	}

	return behaviorDomain.Assessment{
		Score:      score,
		Suspicious: score > s.suspiciousThreshold,
		Flags:      flags,
	}
}

// rapidActions reports whether at least one prior action landed within 60
// seconds of the current one.
func (s *ruleScorer) rapidActions(current behaviorDomain.Action, recent []behaviorDomain.Action) bool {
	for _, action := range recent {
		delta := current.Timestamp.Sub(action.Timestamp)
		if delta < 0 {
			delta = -delta
		}
		if delta <= rapidActionWindow {
			return true
		}
	}
	return false
}

// newDevice reports whether the current device id was never seen in the
// consistency window. A first action carries no history, so it never trips.
func (s *ruleScorer) newDevice(current behaviorDomain.Action, recent []behaviorDomain.Action) bool {
	if current.DeviceID == "" || len(recent) == 0 {
		return false
	}
	for _, action := range recent {
		if action.DeviceID == current.DeviceID {
			return false
		}
	}
	return true
}

// newOrigin reports whether the current network origin was never seen in the
// consistency window.
func (s *ruleScorer) newOrigin(current behaviorDomain.Action, recent []behaviorDomain.Action) bool {
	if current.Origin == "" || len(recent) == 0 {
		return false
	}
	for _, action := range recent {
		if action.Origin == current.Origin {
			return false
		}
	}
	return true
}

// offHours reports whether the action happened between 22:00 and 06:00.
func (s *ruleScorer) offHours(current behaviorDomain.Action) bool {
	hour := current.Timestamp.Hour()
	return hour < 6 || hour >= 22
}

// failurePattern reports whether more than 3 of the recent actions carried a
// failure marker.
func (s *ruleScorer) failurePattern(recent []behaviorDomain.Action) bool {
	failures := 0
	for _, action := range recent {
		if action.Failed {
			failures++
		}
	}
	return failures > 3
}

// distantLocation reports whether the current action is more than 500 km from
// the subject's usual location, taken as the most recent prior action that
// carried a coordinate.
func (s *ruleScorer) distantLocation(current behaviorDomain.Action, recent []behaviorDomain.Action) bool {
	if current.Location == nil {
		return false
	}
	for i := len(recent) - 1; i >= 0; i-- {
		if recent[i].Location != nil {
			return current.Location.Distance(*recent[i].Location) > distantKilometers
		}
	}
	return false
}
