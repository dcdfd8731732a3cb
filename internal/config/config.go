// Package config loads the courtside YAML configuration.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/ayusman/courtside/internal/drill"
)

// Config represents the complete courtside configuration
type Config struct {
	LogLevel string         `yaml:"log_level"` // debug, info, warn, error
	Tray     bool           `yaml:"tray"`
	Server   ServerConfig   `yaml:"server"`
	Camera   CameraConfig   `yaml:"camera"`
	Detector DetectorConfig `yaml:"detector"`
	Drill    DrillConfig    `yaml:"drill"`
	Store    StoreConfig    `yaml:"store"`
	MQTT     MQTTConfig     `yaml:"mqtt"`
	Hooks    HooksConfig    `yaml:"hooks"`
}

// ServerConfig contains HTTP server settings
type ServerConfig struct {
	Addr      string `yaml:"addr"`
	StaticDir string `yaml:"static_dir"`
}

// CameraConfig selects and tunes the frame source. A non-empty VideoFile
// replaces the camera device.
type CameraConfig struct {
	Device    int    `yaml:"device"`
	FPS       int    `yaml:"fps"`
	Width     int    `yaml:"width"`
	Height    int    `yaml:"height"`
	Rotation  int    `yaml:"rotation"` // 0, 90, 180, 270
	Front     bool   `yaml:"front"`
	VideoFile string `yaml:"video_file"`
}

// DetectorConfig contains pose and ball detection settings
type DetectorConfig struct {
	Python                string     `yaml:"python"`
	Script                string     `yaml:"script"`
	MinLandmarkConfidence float64    `yaml:"min_landmark_confidence"`
	IdleTimeoutS          int        `yaml:"idle_timeout_s"`
	Ball                  BallConfig `yaml:"ball"`
}

// BallConfig contains colour-based ball detection settings
type BallConfig struct {
	Enabled   bool       `yaml:"enabled"`
	LowerHSV  [3]float64 `yaml:"lower_hsv"`
	UpperHSV  [3]float64 `yaml:"upper_hsv"`
	MinRadius int        `yaml:"min_radius"`
	MaxRadius int        `yaml:"max_radius"`
}

// DrillConfig overrides individual drill thresholds. Nil fields keep the
// defaults.
type DrillConfig struct {
	StanceAngleDeg        *float64 `yaml:"stance_angle_deg,omitempty"`
	LateralToleranceRatio *float64 `yaml:"lateral_tolerance_ratio,omitempty"`
	HopVelocityPxPerSec   *float64 `yaml:"hop_velocity_px_s,omitempty"`
	MinBallConfidence     *float64 `yaml:"min_ball_confidence,omitempty"`
	StrikeRadiusPx        *float64 `yaml:"strike_radius_px,omitempty"`
}

// StoreConfig contains database settings
type StoreConfig struct {
	Path string `yaml:"path"`
}

// MQTTConfig contains MQTT broker settings. An empty Broker disables MQTT.
type MQTTConfig struct {
	Broker        string `yaml:"broker"`
	ClientID      string `yaml:"client_id"`
	TopicPrefix   string `yaml:"topic_prefix"`
	SnapshotEvery int    `yaml:"snapshot_every"`
}

// HooksConfig contains end-of-session hook settings. An empty Dir disables hooks.
type HooksConfig struct {
	Dir      string `yaml:"dir"`
	TimeoutS int    `yaml:"timeout_s"`
}

// DataDir is where courtside keeps its database, hooks and scripts.
func DataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".courtside"
	}
	return filepath.Join(home, ".courtside")
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	dataDir := DataDir()
	return &Config{
		LogLevel: "info",
		Server: ServerConfig{
			Addr: ":8080",
		},
		Camera: CameraConfig{
			FPS:    30,
			Width:  1280,
			Height: 720,
		},
		Detector: DetectorConfig{
			MinLandmarkConfidence: 0.5,
			IdleTimeoutS:          30,
			Ball: BallConfig{
				Enabled:   true,
				LowerHSV:  [3]float64{5, 120, 70},
				UpperHSV:  [3]float64{25, 255, 255},
				MinRadius: 8,
				MaxRadius: 120,
			},
		},
		Store: StoreConfig{
			Path: filepath.Join(dataDir, "courtside.db"),
		},
		MQTT: MQTTConfig{
			ClientID:      "courtside",
			TopicPrefix:   "courtside",
			SnapshotEvery: 15,
		},
		Hooks: HooksConfig{
			Dir:      filepath.Join(dataDir, "hooks"),
			TimeoutS: 10,
		},
	}
}

// Load reads a YAML configuration file over the defaults and validates it.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	return Parse(data)
}

// Parse decodes YAML over the defaults and validates the result. Unknown
// keys are rejected.
func Parse(data []byte) (*Config, error) {
	cfg := Default()

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// Thresholds applies the drill overrides to base.
func (c DrillConfig) Thresholds(base drill.Thresholds) drill.Thresholds {
	if c.StanceAngleDeg != nil {
		base.StanceAngleDeg = *c.StanceAngleDeg
	}
	if c.LateralToleranceRatio != nil {
		base.LateralToleranceRatio = *c.LateralToleranceRatio
	}
	if c.HopVelocityPxPerSec != nil {
		base.HopVelocityPxPerSec = *c.HopVelocityPxPerSec
	}
	if c.MinBallConfidence != nil {
		base.MinBallConfidence = *c.MinBallConfidence
	}
	if c.StrikeRadiusPx != nil {
		base.StrikeRadiusPx = *c.StrikeRadiusPx
	}
	return base
}

// Thresholds returns the default drill thresholds with the configured
// overrides applied.
func (c *Config) Thresholds() drill.Thresholds {
	return c.Drill.Thresholds(drill.DefaultThresholds())
}

// IdleTimeout returns the pose worker idle timeout.
func (c DetectorConfig) IdleTimeout() time.Duration {
	return time.Duration(c.IdleTimeoutS) * time.Second
}

// Timeout returns the per-hook execution timeout.
func (c HooksConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutS) * time.Second
}

// ParseLevel converts a log level name into a slog level.
func ParseLevel(s string) (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.TrimSpace(s))); err != nil {
		return slog.LevelInfo, fmt.Errorf("log_level: %w", err)
	}
	return level, nil
}
