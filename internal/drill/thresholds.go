package drill

import (
	"errors"
	"fmt"
)

// Default tuning constants.
const (
	DefaultStanceAngleDeg        = 145.0
	DefaultLateralToleranceRatio = 0.14
	DefaultHopVelocityPxPerSec   = 560.0
	DefaultMinBallConfidence     = 0.5
	DefaultStrikeRadiusPx        = 90.0
)

// Thresholds are the tunable constants of the evaluators. They are fixed
// for the lifetime of a session.
type Thresholds struct {
	// StanceAngleDeg is the mean knee angle above which "Stay Low" is cued.
	StanceAngleDeg float64 `json:"stance_angle_deg"`
	// LateralToleranceRatio bounds vertical hip travel, as a fraction of
	// frame height, for a frame to count toward lateral distance.
	LateralToleranceRatio float64 `json:"lateral_tolerance_ratio"`
	// HopVelocityPxPerSec is the upward speed that counts as a hop when crossed.
	HopVelocityPxPerSec float64 `json:"hop_velocity_px_s"`
	// MinBallConfidence gates dribble-zone classification.
	MinBallConfidence float64 `json:"min_ball_confidence"`
	// StrikeRadiusPx is the wrist-to-ball distance that counts as a hand strike.
	StrikeRadiusPx float64 `json:"strike_radius_px"`
}

// DefaultThresholds returns the stock tuning.
func DefaultThresholds() Thresholds {
	return Thresholds{
		StanceAngleDeg:        DefaultStanceAngleDeg,
		LateralToleranceRatio: DefaultLateralToleranceRatio,
		HopVelocityPxPerSec:   DefaultHopVelocityPxPerSec,
		MinBallConfidence:     DefaultMinBallConfidence,
		StrikeRadiusPx:        DefaultStrikeRadiusPx,
	}
}

// Validate checks every threshold is in range.
func (t Thresholds) Validate() error {
	var errs []error
	if t.StanceAngleDeg <= 0 || t.StanceAngleDeg > 180 {
		errs = append(errs, fmt.Errorf("stance angle must be in (0, 180], got %v", t.StanceAngleDeg))
	}
	if t.LateralToleranceRatio <= 0 || t.LateralToleranceRatio > 1 {
		errs = append(errs, fmt.Errorf("lateral tolerance ratio must be in (0, 1], got %v", t.LateralToleranceRatio))
	}
	if t.HopVelocityPxPerSec <= 0 {
		errs = append(errs, fmt.Errorf("hop velocity must be positive, got %v", t.HopVelocityPxPerSec))
	}
	if t.MinBallConfidence < 0 || t.MinBallConfidence > 1 {
		errs = append(errs, fmt.Errorf("min ball confidence must be in [0, 1], got %v", t.MinBallConfidence))
	}
	if t.StrikeRadiusPx <= 0 {
		errs = append(errs, fmt.Errorf("strike radius must be positive, got %v", t.StrikeRadiusPx))
	}
	return errors.Join(errs...)
}
