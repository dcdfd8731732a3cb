package drill

import (
	"github.com/ayusman/courtside/internal/geometry"
	"github.com/ayusman/courtside/internal/pose"
)

type side int

const (
	sideUnknown side = iota
	sideLeft
	sideRight
)

// evaluateCrossover returns 1 when a hand strikes the ball on the opposite
// side of the body midline from the previous observation. The side is
// tracked on every frame with a ball, struck or not, and the first
// observation never counts.
func (s *Session) evaluateCrossover(f pose.Frame, ball *pose.BallObservation) int {
	if ball == nil {
		return 0
	}

	var xs []float64
	for _, t := range []pose.LandmarkType{pose.Nose, pose.LeftHip, pose.RightHip} {
		if p, ok := f.Point(t); ok {
			xs = append(xs, p.X)
		}
	}
	midline, ok := geometry.Mean(xs...)
	if !ok {
		return 0
	}

	current := sideRight
	if ball.CenterX < midline {
		current = sideLeft
	}

	strike := s.wristNear(f, pose.LeftWrist, ball) || s.wristNear(f, pose.RightWrist, ball)
	crossed := strike && s.prevBallSide != sideUnknown && current != s.prevBallSide

	s.prevBallSide = current
	if crossed {
		return 1
	}
	return 0
}

func (s *Session) wristNear(f pose.Frame, wrist pose.LandmarkType, ball *pose.BallObservation) bool {
	p, ok := f.Point(wrist)
	if !ok {
		return false
	}
	return geometry.Distance(p.X, p.Y, ball.CenterX, ball.CenterY) < s.thresholds.StrikeRadiusPx
}
