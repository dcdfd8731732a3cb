// Package geometry provides the planar primitives used by the drill evaluators.
package geometry

import (
	"math"

	"github.com/golang/geo/r2"
	"gonum.org/v1/gonum/stat"
)

// minDenominator floors 2ab in the law of cosines so coincident vertices
// produce a bounded angle instead of NaN.
const minDenominator = 1e-4

// Distance returns the Euclidean distance between (ax, ay) and (bx, by).
func Distance(ax, ay, bx, by float64) float64 {
	return r2.Point{X: ax, Y: ay}.Sub(r2.Point{X: bx, Y: by}).Norm()
}

// AngleByLawOfCosines returns the interior angle at vertex B of triangle
// A-B-C in degrees. The result is always within [0, 180].
func AngleByLawOfCosines(ax, ay, bx, by, cx, cy float64) float64 {
	a := Distance(bx, by, cx, cy)
	b := Distance(bx, by, ax, ay)
	c := Distance(ax, ay, cx, cy)

	denominator := math.Max(2*a*b, minDenominator)
	cosTheta := (a*a + b*b - c*c) / denominator
	cosTheta = math.Max(-1, math.Min(1, cosTheta))

	return math.Acos(cosTheta) * 180 / math.Pi
}

// Velocity converts a displacement over dtMillis into units per second.
// Non-positive intervals yield 0.
func Velocity(delta float64, dtMillis int64) float64 {
	if dtMillis <= 0 {
		return 0
	}
	return delta / (float64(dtMillis) / 1000)
}

// Mean averages the given samples. It reports false when there are none.
func Mean(values ...float64) (float64, bool) {
	if len(values) == 0 {
		return 0, false
	}
	return stat.Mean(values, nil), true
}
