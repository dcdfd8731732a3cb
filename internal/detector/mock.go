package detector

import (
	"sync"

	"gocv.io/x/gocv"

	"github.com/ayusman/courtside/internal/pose"
)

// MockPoseDetector is a test implementation of PoseDetector.
// It allows tests to control the detection results.
type MockPoseDetector struct {
	mu        sync.Mutex
	landmarks pose.Landmarks
	err       error
	calls     int
}

// NewMockPoseDetector creates a new MockPoseDetector instance.
func NewMockPoseDetector() *MockPoseDetector {
	return &MockPoseDetector{}
}

// SetLandmarks sets the landmarks returned by Detect.
func (m *MockPoseDetector) SetLandmarks(l pose.Landmarks) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.landmarks = l
}

// SetError sets the error returned by Detect.
func (m *MockPoseDetector) SetError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.err = err
}

// Calls returns how many times Detect has been called.
func (m *MockPoseDetector) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

// Detect returns a copy of the pre-configured landmarks or error.
func (m *MockPoseDetector) Detect(*gocv.Mat) (pose.Landmarks, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	if m.err != nil {
		return nil, m.err
	}
	if m.landmarks == nil {
		return nil, nil
	}
	return m.landmarks.Clone(), nil
}

// Close is a no-op for the mock detector.
func (m *MockPoseDetector) Close() error {
	return nil
}

// MockBallDetector is a test implementation of BallDetector.
type MockBallDetector struct {
	mu   sync.Mutex
	ball *pose.BallObservation
	err  error
}

// NewMockBallDetector creates a new MockBallDetector instance.
func NewMockBallDetector() *MockBallDetector {
	return &MockBallDetector{}
}

// SetBall sets the observation returned by Detect. Nil means no ball.
func (m *MockBallDetector) SetBall(b *pose.BallObservation) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ball = b
}

// SetError sets the error returned by Detect.
func (m *MockBallDetector) SetError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.err = err
}

// Detect returns a copy of the pre-configured observation or error.
func (m *MockBallDetector) Detect(*gocv.Mat) (*pose.BallObservation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	if m.ball == nil {
		return nil, nil
	}
	b := *m.ball
	return &b, nil
}

// Close is a no-op for the mock detector.
func (m *MockBallDetector) Close() error {
	return nil
}
