package drill

import (
	"math"

	"github.com/ayusman/courtside/internal/pose"
)

// evaluateLateral returns the updated cumulative lateral distance. Horizontal
// travel of the hip midpoint is accepted only while the hips stay within the
// vertical tolerance band of the previous frame, which keeps jumps and
// squats out of the slide total. The reference point moves every frame.
func (s *Session) evaluateLateral(f pose.Frame) float64 {
	total := s.metrics.LateralDistancePx

	left, ok := f.Point(pose.LeftHip)
	if !ok {
		return total
	}
	right, ok := f.Point(pose.RightHip)
	if !ok {
		return total
	}

	midX := (left.X + right.X) / 2
	midY := (left.Y + right.Y) / 2

	refX, refY := midX, midY
	if s.hip.valid {
		refX, refY = s.hip.x, s.hip.y
	}

	tolerance := float64(f.Height) * s.thresholds.LateralToleranceRatio
	if math.Abs(midY-refY) <= tolerance {
		total += math.Abs(midX - refX)
	}

	s.hip = hipReference{x: midX, y: midY, valid: true}
	return total
}
