package drill

import (
	"github.com/ayusman/courtside/internal/geometry"
	"github.com/ayusman/courtside/internal/pose"
)

// evaluateStance cues "Stay Low" when the mean knee angle of the visible
// legs is above the stance threshold.
func (s *Session) evaluateStance(f pose.Frame) string {
	var angles []float64
	if a, ok := kneeAngle(f, pose.LeftHip, pose.LeftKnee, pose.LeftAnkle); ok {
		angles = append(angles, a)
	}
	if a, ok := kneeAngle(f, pose.RightHip, pose.RightKnee, pose.RightAnkle); ok {
		angles = append(angles, a)
	}

	mean, ok := geometry.Mean(angles...)
	if ok && mean > s.thresholds.StanceAngleDeg {
		return StayLowCue
	}
	return ""
}

func kneeAngle(f pose.Frame, hipType, kneeType, ankleType pose.LandmarkType) (float64, bool) {
	hip, ok := f.Point(hipType)
	if !ok {
		return 0, false
	}
	knee, ok := f.Point(kneeType)
	if !ok {
		return 0, false
	}
	ankle, ok := f.Point(ankleType)
	if !ok {
		return 0, false
	}
	return geometry.AngleByLawOfCosines(hip.X, hip.Y, knee.X, knee.Y, ankle.X, ankle.Y), true
}
