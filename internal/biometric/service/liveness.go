package service

import (
	biometricDomain "github.com/allisson/authguard/internal/biometric/domain"
)

// entropySaturation is the distinct-byte count at which the liveness score
// reaches 1.0. Real captures are high-entropy; replayed or synthetic flat
// payloads score low.
const entropySaturation = 200

// entropyLiveness estimates liveness from capture entropy. Deterministic and
// cheap; a camera-level liveness model replaces it behind the interface.
type entropyLiveness struct{}

// NewEntropyLiveness creates the default liveness detector.
func NewEntropyLiveness() LivenessDetector {
	return &entropyLiveness{}
}

// Detect scores the sample by its distinct byte count.
func (d *entropyLiveness) Detect(sample biometricDomain.Sample) float64 {
	if len(sample.Data) == 0 {
		return 0
	}

	var seen [256]bool
	distinct := 0
	for _, b := range sample.Data {
		if !seen[b] {
			seen[b] = true
			distinct++
		}
	}

	score := float64(distinct) / entropySaturation
	if score > 1.0 {
		score = 1.0
	}
	return score
}
