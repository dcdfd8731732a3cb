// Package detector turns camera images into body landmarks and ball
// observations.
package detector

import (
	"time"

	"gocv.io/x/gocv"

	"github.com/ayusman/courtside/internal/pose"
)

// PoseDetector finds the landmarks of a single body in an image.
type PoseDetector interface {
	// Detect returns the landmarks found in img, in img pixel coordinates.
	// A nil map means no body was found. Landmarks that were not detected
	// are absent from the map.
	Detect(img *gocv.Mat) (pose.Landmarks, error)

	// Close releases any resources held by the detector.
	Close() error
}

// BallDetector finds the basketball in an image.
type BallDetector interface {
	// Detect returns the best ball candidate in img, or nil when there is none.
	// The caller stamps the observation time.
	Detect(img *gocv.Mat) (*pose.BallObservation, error)

	Close() error
}

// Config holds configuration options for pose detection.
type Config struct {
	// Python is the interpreter used to run the pose worker. Empty means a
	// virtualenv interpreter if one is found, else python3.
	Python string

	// Script is the pose worker script. Empty means search the usual locations.
	Script string

	// MinLandmarkConfidence drops landmarks whose visibility is below it (0.0-1.0).
	MinLandmarkConfidence float64

	// IdleTimeout stops the worker after this long without a request.
	IdleTimeout time.Duration
}

// DefaultConfig returns a Config with sensible default values.
func DefaultConfig() Config {
	return Config{
		MinLandmarkConfidence: 0.5,
		IdleTimeout:           30 * time.Second,
	}
}
