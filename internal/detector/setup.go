package detector

import (
	"fmt"

	"github.com/ayusman/courtside/internal/config"
)

// FromConfig builds the pose and ball detectors described by cfg. A disabled
// ball section yields a NullBallDetector.
func FromConfig(cfg config.DetectorConfig) (PoseDetector, BallDetector, error) {
	p, err := NewMediaPipeDetector(Config{
		Python:                cfg.Python,
		Script:                cfg.Script,
		MinLandmarkConfidence: cfg.MinLandmarkConfidence,
		IdleTimeout:           cfg.IdleTimeout(),
	})
	if err != nil {
		return nil, nil, fmt.Errorf("pose detector: %w", err)
	}

	if !cfg.Ball.Enabled {
		return p, NullBallDetector{}, nil
	}
	return p, NewHoughBallDetector(BallConfig{
		LowerHSV:  cfg.Ball.LowerHSV,
		UpperHSV:  cfg.Ball.UpperHSV,
		MinRadius: cfg.Ball.MinRadius,
		MaxRadius: cfg.Ball.MaxRadius,
	}), nil
}
