package drill

import (
	"github.com/ayusman/courtside/internal/geometry"
	"github.com/ayusman/courtside/internal/pose"
)

// verticalSample picks the body height used for hop detection: the ankle
// midpoint when both ankles are visible, otherwise the hips. Consecutive
// samples are compared even when they come from different landmarks.
func verticalSample(f pose.Frame) (float64, bool) {
	la, lok := f.Point(pose.LeftAnkle)
	ra, rok := f.Point(pose.RightAnkle)
	if lok && rok {
		return (la.Y + ra.Y) / 2, true
	}

	lh, lok := f.Point(pose.LeftHip)
	rh, rok := f.Point(pose.RightHip)
	switch {
	case lok && rok:
		return (lh.Y + rh.Y) / 2, true
	case lok:
		return lh.Y, true
	case rok:
		return rh.Y, true
	}
	return 0, false
}

// evaluateJump returns 1 on the frame where upward velocity rises above the
// hop threshold, and 0 otherwise. Staying above the threshold does not count
// again until velocity has dropped back to or below it.
func (s *Session) evaluateJump(f pose.Frame) int {
	y, ok := verticalSample(f)
	if !ok {
		return 0
	}

	prevY := y
	if s.vertical.valid {
		prevY = s.vertical.y
	}

	dt := f.TimestampMs - s.prevTimestampMs
	if dt < 1 {
		dt = 1
	}
	// Image y grows downward, so rising is a positive prevY - y.
	velocity := geometry.Velocity(prevY-y, dt)

	threshold := s.thresholds.HopVelocityPxPerSec
	crossed := velocity > threshold && s.prevVelocity <= threshold

	s.prevVelocity = velocity
	s.prevTimestampMs = f.TimestampMs
	s.vertical = verticalReference{y: y, valid: true}

	if crossed {
		return 1
	}
	return 0
}
