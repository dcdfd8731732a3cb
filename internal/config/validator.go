package config

import (
	"errors"
	"fmt"
	"strings"
)

// Validate checks if the configuration is valid
func Validate(cfg *Config) error {
	var errs []error

	if _, err := ParseLevel(cfg.LogLevel); err != nil {
		errs = append(errs, err)
	}

	if cfg.Server.Addr == "" {
		errs = append(errs, errors.New("server.addr is required"))
	}

	if cfg.Camera.FPS <= 0 {
		errs = append(errs, errors.New("camera.fps must be > 0"))
	}
	if cfg.Camera.Width <= 0 || cfg.Camera.Height <= 0 {
		errs = append(errs, errors.New("camera.width and camera.height must be > 0"))
	}
	switch cfg.Camera.Rotation {
	case 0, 90, 180, 270:
	default:
		errs = append(errs, fmt.Errorf("camera.rotation must be 0, 90, 180 or 270, got %d", cfg.Camera.Rotation))
	}

	if c := cfg.Detector.MinLandmarkConfidence; c < 0 || c > 1 {
		errs = append(errs, fmt.Errorf("detector.min_landmark_confidence must be in [0, 1], got %v", c))
	}
	if cfg.Detector.IdleTimeoutS <= 0 {
		errs = append(errs, errors.New("detector.idle_timeout_s must be > 0"))
	}
	if err := validateBall(cfg.Detector.Ball); err != nil {
		errs = append(errs, err)
	}

	if err := cfg.Thresholds().Validate(); err != nil {
		errs = append(errs, fmt.Errorf("drill: %w", err))
	}

	if cfg.Store.Path == "" {
		errs = append(errs, errors.New("store.path is required"))
	}

	if cfg.MQTT.Broker != "" {
		if cfg.MQTT.SnapshotEvery <= 0 {
			errs = append(errs, errors.New("mqtt.snapshot_every must be > 0"))
		}
		if strings.ContainsAny(cfg.MQTT.TopicPrefix, "#+") {
			errs = append(errs, errors.New("mqtt.topic_prefix must not contain wildcards"))
		}
		if cfg.MQTT.ClientID == "" {
			cfg.MQTT.ClientID = "courtside"
		}
	}

	if cfg.Hooks.Dir != "" && cfg.Hooks.TimeoutS <= 0 {
		errs = append(errs, errors.New("hooks.timeout_s must be > 0"))
	}

	return errors.Join(errs...)
}

func validateBall(b BallConfig) error {
	if !b.Enabled {
		return nil
	}
	if b.MinRadius <= 0 || b.MaxRadius < b.MinRadius {
		return fmt.Errorf("detector.ball radius range [%d, %d] is invalid", b.MinRadius, b.MaxRadius)
	}
	for i := range b.LowerHSV {
		if b.LowerHSV[i] > b.UpperHSV[i] {
			return fmt.Errorf("detector.ball lower_hsv[%d] exceeds upper_hsv[%d]", i, i)
		}
	}
	return nil
}
