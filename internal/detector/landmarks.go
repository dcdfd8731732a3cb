package detector

import "github.com/ayusman/courtside/internal/pose"

// toLandmarks converts a worker response into pixel-space landmarks for an
// image of the given size. Unknown ids and landmarks below minConfidence are
// dropped. It returns nil when nothing survives.
func (r poseResponse) toLandmarks(width, height int, minConfidence float64) pose.Landmarks {
	if len(r.Landmarks) == 0 {
		return nil
	}

	w, h := float64(width), float64(height)
	out := make(pose.Landmarks, len(r.Landmarks))
	for _, lm := range r.Landmarks {
		t := pose.LandmarkType(lm.ID)
		if !t.Valid() || lm.Visibility < minConfidence {
			continue
		}
		out[t] = pose.LandmarkPoint{
			X:          lm.X * w,
			Y:          lm.Y * h,
			Z:          lm.Z * w,
			Confidence: clamp01(lm.Visibility),
		}
	}

	if len(out) == 0 {
		return nil
	}
	return out
}

func clamp01(v float64) float64 {
	switch {
	case v < 0:
		return 0
	case v > 1:
		return 1
	}
	return v
}
