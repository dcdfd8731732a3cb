// Package pose defines the per-frame data contract between the pose and ball
// sources and the drill engine.
package pose

import "fmt"

// LandmarkType identifies a body keypoint.
// Numbering follows the 33-point BlazePose topology used by MediaPipe and ML Kit.
// See: https://developers.google.com/mediapipe/solutions/vision/pose_landmarker
type LandmarkType int

const (
	Nose LandmarkType = iota
	LeftEyeInner
	LeftEye
	LeftEyeOuter
	RightEyeInner
	RightEye
	RightEyeOuter
	LeftEar
	RightEar
	MouthLeft
	MouthRight
	LeftShoulder
	RightShoulder
	LeftElbow
	RightElbow
	LeftWrist
	RightWrist
	LeftPinky
	RightPinky
	LeftIndex
	RightIndex
	LeftThumb
	RightThumb
	LeftHip
	RightHip
	LeftKnee
	RightKnee
	LeftAnkle
	RightAnkle
	LeftHeel
	RightHeel
	LeftFootIndex
	RightFootIndex
	NumLandmarks
)

var landmarkNames = [NumLandmarks]string{
	"nose",
	"left_eye_inner", "left_eye", "left_eye_outer",
	"right_eye_inner", "right_eye", "right_eye_outer",
	"left_ear", "right_ear",
	"mouth_left", "mouth_right",
	"left_shoulder", "right_shoulder",
	"left_elbow", "right_elbow",
	"left_wrist", "right_wrist",
	"left_pinky", "right_pinky",
	"left_index", "right_index",
	"left_thumb", "right_thumb",
	"left_hip", "right_hip",
	"left_knee", "right_knee",
	"left_ankle", "right_ankle",
	"left_heel", "right_heel",
	"left_foot_index", "right_foot_index",
}

// Valid reports whether t is a known landmark.
func (t LandmarkType) Valid() bool {
	return t >= 0 && t < NumLandmarks
}

// String returns the snake_case landmark name.
func (t LandmarkType) String() string {
	if !t.Valid() {
		return fmt.Sprintf("landmark(%d)", int(t))
	}
	return landmarkNames[t]
}

// MarshalText encodes the landmark by name so JSON maps keyed by
// LandmarkType stay readable.
func (t LandmarkType) MarshalText() ([]byte, error) {
	if !t.Valid() {
		return nil, fmt.Errorf("unknown landmark %d", int(t))
	}
	return []byte(landmarkNames[t]), nil
}

// UnmarshalText decodes a landmark name.
func (t *LandmarkType) UnmarshalText(text []byte) error {
	lt, err := ParseLandmark(string(text))
	if err != nil {
		return err
	}
	*t = lt
	return nil
}

// ParseLandmark resolves a snake_case landmark name.
func ParseLandmark(name string) (LandmarkType, error) {
	for i, n := range landmarkNames {
		if n == name {
			return LandmarkType(i), nil
		}
	}
	return 0, fmt.Errorf("unknown landmark %q", name)
}

// LandmarkPoint is a single detected keypoint in frame pixel space.
type LandmarkPoint struct {
	X          float64 `json:"x"`
	Y          float64 `json:"y"`
	Z          float64 `json:"z"`
	Confidence float64 `json:"confidence"`
}

// Landmarks maps detected keypoints by type. A missing key means the
// landmark was not detected in this frame.
type Landmarks map[LandmarkType]LandmarkPoint

// Clone returns an independent copy.
func (l Landmarks) Clone() Landmarks {
	out := make(Landmarks, len(l))
	for k, v := range l {
		out[k] = v
	}
	return out
}

// Without returns a copy with the given landmarks removed.
func (l Landmarks) Without(types ...LandmarkType) Landmarks {
	out := l.Clone()
	for _, t := range types {
		delete(out, t)
	}
	return out
}

// Shift returns a copy with every landmark translated by (dx, dy).
func (l Landmarks) Shift(dx, dy float64) Landmarks {
	out := make(Landmarks, len(l))
	for k, v := range l {
		v.X += dx
		v.Y += dy
		out[k] = v
	}
	return out
}

// ShiftOnly returns a copy with only the given landmarks translated.
func (l Landmarks) ShiftOnly(dx, dy float64, types ...LandmarkType) Landmarks {
	out := l.Clone()
	for _, t := range types {
		if p, ok := out[t]; ok {
			p.X += dx
			p.Y += dy
			out[t] = p
		}
	}
	return out
}
