package pose

// Frame is one sampled instant from the pose source.
type Frame struct {
	TimestampMs int64     `json:"timestamp_ms"`
	Width       int       `json:"width"`
	Height      int       `json:"height"`
	Rotation    int       `json:"rotation"`
	Front       bool      `json:"front"` // mirrors the preview only
	Points      Landmarks `json:"points"`
}

// Point returns the landmark of type t if it was detected.
func (f Frame) Point(t LandmarkType) (LandmarkPoint, bool) {
	p, ok := f.Points[t]
	return p, ok
}

// Has reports whether every listed landmark is present.
func (f Frame) Has(types ...LandmarkType) bool {
	for _, t := range types {
		if _, ok := f.Points[t]; !ok {
			return false
		}
	}
	return true
}

// ValidRotation reports whether deg is one of 0, 90, 180 or 270.
func ValidRotation(deg int) bool {
	switch deg {
	case 0, 90, 180, 270:
		return true
	}
	return false
}

// BallObservation is a detected ball for a single frame. A frame with no
// ball carries a nil *BallObservation, never a zero value.
type BallObservation struct {
	CenterX     float64 `json:"center_x"`
	CenterY     float64 `json:"center_y"`
	Radius      float64 `json:"radius"`
	Confidence  float64 `json:"confidence"`
	TimestampMs int64   `json:"timestamp_ms"`
}
