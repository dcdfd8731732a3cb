package drill

import "github.com/ayusman/courtside/internal/pose"

// meanY averages the y of two landmarks; both must be present.
func meanY(f pose.Frame, a, b pose.LandmarkType) (float64, bool) {
	pa, ok := f.Point(a)
	if !ok {
		return 0, false
	}
	pb, ok := f.Point(b)
	if !ok {
		return 0, false
	}
	return (pa.Y + pb.Y) / 2, true
}

// classifyDribble places a confident ball in a body-relative height band.
//
// Bands, in image coordinates where y grows downward:
//
//	LOW   ball below the knee line
//	HIGH  ball at or above the shoulder line
//	HIP   ball between the shoulder line and the knee/hip midpoint
//
// Anything else, including a ball between the waist and the knees or a body
// missing the landmarks a band needs, is NONE.
func (s *Session) classifyDribble(f pose.Frame, ball *pose.BallObservation) DribbleZone {
	if ball == nil || ball.Confidence < s.thresholds.MinBallConfidence {
		return ZoneNone
	}

	kneeY, kneeOK := meanY(f, pose.LeftKnee, pose.RightKnee)
	hipY, hipOK := meanY(f, pose.LeftHip, pose.RightHip)
	shoulderY, shoulderOK := meanY(f, pose.LeftShoulder, pose.RightShoulder)
	waistY := (kneeY + hipY) / 2
	waistOK := kneeOK && hipOK

	y := ball.CenterY
	switch {
	case kneeOK && y > kneeY:
		return ZoneLow
	case shoulderOK && y <= shoulderY:
		return ZoneHigh
	case shoulderOK && waistOK && y <= waistY:
		return ZoneHip
	}
	return ZoneNone
}
