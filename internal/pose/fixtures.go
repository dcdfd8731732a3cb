package pose

// Fixture frame dimensions used by the synthetic bodies below.
const (
	FixtureWidth  = 1280
	FixtureHeight = 720
)

func pt(x, y float64) LandmarkPoint {
	return LandmarkPoint{X: x, Y: y, Confidence: 0.98}
}

// UprightLandmarks returns a full body standing straight, facing the camera,
// centred horizontally at x=640. Hip, knee and ankle are collinear on both
// sides so the knee angle is 180 degrees.
func UprightLandmarks() Landmarks {
	return Landmarks{
		Nose:           pt(640, 120),
		LeftEye:        pt(630, 110),
		RightEye:       pt(650, 110),
		LeftEar:        pt(620, 115),
		RightEar:       pt(660, 115),
		LeftShoulder:   pt(600, 200),
		RightShoulder:  pt(680, 200),
		LeftElbow:      pt(590, 270),
		RightElbow:     pt(690, 270),
		LeftWrist:      pt(585, 340),
		RightWrist:     pt(695, 340),
		LeftHip:        pt(615, 380),
		RightHip:       pt(665, 380),
		LeftKnee:       pt(615, 500),
		RightKnee:      pt(665, 500),
		LeftAnkle:      pt(615, 620),
		RightAnkle:     pt(665, 620),
		LeftHeel:       pt(612, 630),
		RightHeel:      pt(668, 630),
		LeftFootIndex:  pt(625, 640),
		RightFootIndex: pt(655, 640),
	}
}

// DefensiveStanceLandmarks returns a low athletic stance: hips dropped and
// knees flexed outward to roughly 126 degrees.
func DefensiveStanceLandmarks() Landmarks {
	l := UprightLandmarks().Shift(0, 40)
	l[LeftHip] = pt(610, 420)
	l[RightHip] = pt(670, 420)
	l[LeftKnee] = pt(550, 520)
	l[RightKnee] = pt(730, 520)
	l[LeftAnkle] = pt(600, 640)
	l[RightAnkle] = pt(680, 640)
	return l
}

// FixtureFrame wraps landmarks in a Frame using the fixture dimensions.
func FixtureFrame(timestampMs int64, points Landmarks) Frame {
	return Frame{
		TimestampMs: timestampMs,
		Width:       FixtureWidth,
		Height:      FixtureHeight,
		Points:      points,
	}
}
