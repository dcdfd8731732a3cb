package detector

import (
	"image"
	"math"

	"gocv.io/x/gocv"

	"github.com/ayusman/courtside/internal/pose"
)

// BallConfig tunes the colour-and-shape ball detector.
type BallConfig struct {
	// LowerHSV and UpperHSV bound the ball colour in OpenCV HSV units
	// (H 0-180, S and V 0-255).
	LowerHSV [3]float64
	UpperHSV [3]float64

	MinRadius int
	MaxRadius int
}

// DefaultBallConfig matches a standard orange basketball under indoor light.
func DefaultBallConfig() BallConfig {
	return BallConfig{
		LowerHSV:  [3]float64{5, 120, 70},
		UpperHSV:  [3]float64{25, 255, 255},
		MinRadius: 8,
		MaxRadius: 120,
	}
}

// HoughBallDetector finds the ball as the best circle in a colour mask.
// Confidence is the share of the circle covered by ball-coloured pixels.
type HoughBallDetector struct {
	config BallConfig
	lower  gocv.Scalar
	upper  gocv.Scalar
}

// NewHoughBallDetector creates a ball detector.
func NewHoughBallDetector(config BallConfig) *HoughBallDetector {
	return &HoughBallDetector{
		config: config,
		lower:  gocv.NewScalar(config.LowerHSV[0], config.LowerHSV[1], config.LowerHSV[2], 0),
		upper:  gocv.NewScalar(config.UpperHSV[0], config.UpperHSV[1], config.UpperHSV[2], 0),
	}
}

// Detect returns the most ball-like circle in img, or nil.
func (d *HoughBallDetector) Detect(img *gocv.Mat) (*pose.BallObservation, error) {
	if img == nil || img.Empty() {
		return nil, nil
	}

	hsv := gocv.NewMat()
	defer hsv.Close()
	gocv.CvtColor(*img, &hsv, gocv.ColorBGRToHSV)

	mask := gocv.NewMat()
	defer mask.Close()
	gocv.InRangeWithScalar(hsv, d.lower, d.upper, &mask)

	if gocv.CountNonZero(mask) == 0 {
		return nil, nil
	}

	blurred := gocv.NewMat()
	defer blurred.Close()
	gocv.GaussianBlur(mask, &blurred, image.Pt(9, 9), 2, 2, gocv.BorderDefault)

	circles := gocv.NewMat()
	defer circles.Close()
	gocv.HoughCirclesWithParams(blurred, &circles, gocv.HoughGradient,
		1.2, float64(d.config.MinRadius*2), 100, 20, d.config.MinRadius, d.config.MaxRadius)

	var best *pose.BallObservation
	for i := 0; i < circles.Cols(); i++ {
		v := circles.GetVecfAt(0, i)
		x, y, r := float64(v[0]), float64(v[1]), float64(v[2])
		if r <= 0 {
			continue
		}

		conf := fillRatio(mask, x, y, r)
		if best == nil || conf > best.Confidence {
			best = &pose.BallObservation{CenterX: x, CenterY: y, Radius: r, Confidence: conf}
		}
	}
	return best, nil
}

// Close is a no-op; the detector holds no native resources between calls.
func (d *HoughBallDetector) Close() error {
	return nil
}

// fillRatio is the number of mask pixels inside the circle's bounding box
// divided by the circle area, capped at 1.
func fillRatio(mask gocv.Mat, x, y, r float64) float64 {
	rect := image.Rect(int(x-r), int(y-r), int(x+r)+1, int(y+r)+1).
		Intersect(image.Rect(0, 0, mask.Cols(), mask.Rows()))
	if rect.Empty() {
		return 0
	}

	roi := mask.Region(rect)
	defer roi.Close()

	ratio := float64(gocv.CountNonZero(roi)) / (math.Pi * r * r)
	return math.Min(ratio, 1)
}

// NullBallDetector never sees a ball. It is used when ball tracking is off.
type NullBallDetector struct{}

// Detect always returns nil.
func (NullBallDetector) Detect(*gocv.Mat) (*pose.BallObservation, error) { return nil, nil }

// Close is a no-op.
func (NullBallDetector) Close() error { return nil }
