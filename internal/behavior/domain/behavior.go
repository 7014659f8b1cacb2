// Package domain defines the behavior profile model used for risk scoring.
package domain

import (
	"math"
	"time"
)

// ProfileWindowSize caps the number of actions kept in a profile.
const ProfileWindowSize = 100

// ConsistencyWindowSize is how many recent actions device/origin/failure
// consistency checks look at.
const ConsistencyWindowSize = 20

// Coordinate is a geographic position. One consistent shape is used
// everywhere; distance math lives in Distance.
type Coordinate struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// Distance returns the great-circle distance to other in kilometers,
// computed with the Haversine formula.
func (c Coordinate) Distance(other Coordinate) float64 {
	const earthRadiusKm = 6371.0

	lat1 := c.Lat * math.Pi / 180
	lat2 := other.Lat * math.Pi / 180
	dLat := (other.Lat - c.Lat) * math.Pi / 180
	dLon := (other.Lon - c.Lon) * math.Pi / 180

	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1)*math.Cos(lat2)*math.Sin(dLon/2)*math.Sin(dLon/2)

	return earthRadiusKm * 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
}

// Action is one recorded subject action.
type Action struct {
	Kind      string         `json:"kind"`
	DeviceID  string         `json:"device_id,omitempty"`
	Origin    string         `json:"origin,omitempty"`
	Failed    bool           `json:"failed,omitempty"`
	Location  *Coordinate    `json:"location,omitempty"`
	Context   map[string]any `json:"context,omitempty"`
	Timestamp time.Time      `json:"timestamp"`
}

// Profile is a subject's rolling window of recent actions plus the score
// computed for the most recent one. Profiles are advisory risk state, not an
// audit log: concurrent writers for the same subject are last-writer-wins on
// the whole value and may drop an entry.
type Profile struct {
	SubjectID string    `json:"subject_id"`
	Actions   []Action  `json:"actions"`
	RiskScore float64   `json:"risk_score"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Append adds an action and trims the window to ProfileWindowSize.
func (p *Profile) Append(action Action) {
	p.Actions = append(p.Actions, action)
	if len(p.Actions) > ProfileWindowSize {
		p.Actions = p.Actions[len(p.Actions)-ProfileWindowSize:]
	}
}

// Recent returns up to n actions preceding the most recent one.
func (p *Profile) Recent(n int) []Action {
	if len(p.Actions) <= 1 {
		return nil
	}
	prior := p.Actions[:len(p.Actions)-1]
	if len(prior) <= n {
		return prior
	}
	return prior[len(prior)-n:]
}

// Assessment is the outcome of scoring one action.
type Assessment struct {
	Score      float64  `json:"score"`
	Suspicious bool     `json:"suspicious"`
	Flags      []string `json:"flags,omitempty"`
}
