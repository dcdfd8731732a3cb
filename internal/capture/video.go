package capture

import (
	"errors"
	"fmt"
	"math"
	"sync"

	"gocv.io/x/gocv"

	"github.com/ayusman/courtside/internal/pose"
)

// VideoFile reads frames from a recorded video. Timestamps come from the
// container position, so replay speed does not affect them.
type VideoFile struct {
	path     string
	rotation int
	front    bool

	mu      sync.Mutex
	capture *gocv.VideoCapture
	running bool
	lastTS  int64
	read    int
}

// NewVideoFile creates a video file source. rotation is applied to every
// frame, as for a camera.
func NewVideoFile(path string, rotation int, front bool) (*VideoFile, error) {
	if path == "" {
		return nil, errors.New("video path is empty")
	}
	if !pose.ValidRotation(rotation) {
		return nil, fmt.Errorf("invalid rotation %d", rotation)
	}
	return &VideoFile{path: path, rotation: rotation, front: front}, nil
}

// Open opens the file for reading.
func (v *VideoFile) Open() error {
	v.mu.Lock()
	defer v.mu.Unlock()

	if v.running {
		return nil
	}

	capture, err := gocv.VideoCaptureFile(v.path)
	if err != nil {
		return fmt.Errorf("open video %s: %w", v.path, err)
	}
	if !capture.IsOpened() {
		capture.Close()
		return fmt.Errorf("open video %s: not readable", v.path)
	}

	v.capture = capture
	v.running = true
	v.lastTS = -1
	v.read = 0
	return nil
}

// Close releases the file.
func (v *VideoFile) Close() error {
	v.mu.Lock()
	defer v.mu.Unlock()

	if !v.running || v.capture == nil {
		v.running = false
		return nil
	}

	err := v.capture.Close()
	v.capture = nil
	v.running = false
	return err
}

// Read returns the next frame, or ErrEndOfStream after the last one.
func (v *VideoFile) Read() (*Frame, error) {
	v.mu.Lock()
	defer v.mu.Unlock()

	if !v.running || v.capture == nil {
		return nil, ErrSourceNotOpen
	}

	mat := gocv.NewMat()
	if ok := v.capture.Read(&mat); !ok || mat.Empty() {
		mat.Close()
		return nil, ErrEndOfStream
	}

	pos := v.capture.Get(gocv.VideoCapturePosMsec)
	ts := int64(math.Round(pos))
	if pos <= 0 {
		ts = v.estimateTimestamp()
	}
	ts = monotonic(ts, v.lastTS)
	v.lastTS = ts
	v.read++

	return newFrame(mat, ts, v.rotation, v.front), nil
}

// estimateTimestamp derives a timestamp from the frame index for containers
// that do not report a position.
func (v *VideoFile) estimateTimestamp() int64 {
	fps := v.capture.Get(gocv.VideoCaptureFPS)
	if fps <= 0 {
		fps = DefaultFPS
	}
	return int64(math.Round(float64(v.read) * 1000 / fps))
}

// SetFPS is ignored; a file plays at the rate it was recorded.
func (v *VideoFile) SetFPS(int) {}

// FPS returns the recorded frame rate, or 0 when closed.
func (v *VideoFile) FPS() int {
	v.mu.Lock()
	defer v.mu.Unlock()

	if v.capture == nil {
		return 0
	}
	return int(math.Round(v.capture.Get(gocv.VideoCaptureFPS)))
}

// FrameCount returns the number of frames in the file as reported by the
// container, or 0 when unknown or closed.
func (v *VideoFile) FrameCount() int {
	v.mu.Lock()
	defer v.mu.Unlock()

	if v.capture == nil {
		return 0
	}
	n := v.capture.Get(gocv.VideoCaptureFrameCount)
	if n < 0 {
		return 0
	}
	return int(n)
}

// IsOpen reports whether the file is open.
func (v *VideoFile) IsOpen() bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.running
}
