// Package capture provides frame sources backed by GoCV (OpenCV): live
// camera devices and recorded video files.
package capture

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"gocv.io/x/gocv"

	"github.com/ayusman/courtside/internal/pose"
)

// Default camera settings
const (
	DefaultFPS    = 30
	DefaultWidth  = 1280
	DefaultHeight = 720
)

var (
	// ErrSourceNotOpen is returned when reading from a source that is not open.
	ErrSourceNotOpen = errors.New("source is not open")

	// ErrEndOfStream is returned by finite sources once every frame was read.
	ErrEndOfStream = errors.New("end of stream")
)

// Frame is a captured image with the metadata the analysis needs.
type Frame struct {
	// Image is upright: any configured rotation has already been applied.
	Image *gocv.Mat

	// TimestampMs is monotonic milliseconds since the source was opened.
	TimestampMs int64

	Width  int
	Height int

	// Rotation is the clockwise rotation applied to the raw image, in degrees.
	Rotation int

	// Front marks a user-facing camera. Previews mirror it; analysis does not.
	Front bool
}

// Close releases the image.
func (f *Frame) Close() error {
	if f == nil || f.Image == nil {
		return nil
	}
	return f.Image.Close()
}

// Source defines the interface for frame delivery implementations.
type Source interface {
	Open() error
	Close() error
	// Read returns the next frame. The caller is responsible for closing it.
	Read() (*Frame, error)
	SetFPS(fps int)
	FPS() int
	IsOpen() bool
}

// CameraOptions configure a device camera.
type CameraOptions struct {
	Width    int
	Height   int
	FPS      int
	Rotation int
	Front    bool
}

// DefaultCameraOptions returns the stock camera settings.
func DefaultCameraOptions() CameraOptions {
	return CameraOptions{
		Width:  DefaultWidth,
		Height: DefaultHeight,
		FPS:    DefaultFPS,
	}
}

// camera manages video capture from a camera device using GoCV.
type camera struct {
	deviceID int
	opts     CameraOptions
	capture  *gocv.VideoCapture
	mu       sync.Mutex
	running  bool
	openedAt time.Time
	lastTS   int64
}

// NewCamera creates a new camera Source for the given device ID.
// Zero-valued options fall back to the defaults.
func NewCamera(deviceID int, opts CameraOptions) (Source, error) {
	def := DefaultCameraOptions()
	if opts.Width <= 0 {
		opts.Width = def.Width
	}
	if opts.Height <= 0 {
		opts.Height = def.Height
	}
	if opts.FPS <= 0 {
		opts.FPS = def.FPS
	}
	if !pose.ValidRotation(opts.Rotation) {
		return nil, fmt.Errorf("invalid rotation %d", opts.Rotation)
	}

	return &camera{
		deviceID: deviceID,
		opts:     opts,
	}, nil
}

// Open opens the camera for capturing frames.
func (c *camera) Open() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.running {
		return nil
	}

	capture, err := gocv.OpenVideoCapture(c.deviceID)
	if err != nil {
		return fmt.Errorf("open camera %d: %w", c.deviceID, err)
	}

	capture.Set(gocv.VideoCaptureFrameWidth, float64(c.opts.Width))
	capture.Set(gocv.VideoCaptureFrameHeight, float64(c.opts.Height))
	capture.Set(gocv.VideoCaptureFPS, float64(c.opts.FPS))

	c.capture = capture
	c.running = true
	c.openedAt = time.Now()
	c.lastTS = -1

	return nil
}

// Close closes the camera and releases resources.
func (c *camera) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.running || c.capture == nil {
		c.running = false
		return nil
	}

	err := c.capture.Close()
	c.capture = nil
	c.running = false

	return err
}

// Read reads a single frame from the camera.
func (c *camera) Read() (*Frame, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.running || c.capture == nil {
		return nil, ErrSourceNotOpen
	}

	mat := gocv.NewMat()
	if ok := c.capture.Read(&mat); !ok {
		mat.Close()
		return nil, errors.New("failed to read frame from camera")
	}

	if mat.Empty() {
		mat.Close()
		return nil, errors.New("captured frame is empty")
	}

	ts := monotonic(time.Since(c.openedAt).Milliseconds(), c.lastTS)
	c.lastTS = ts

	return newFrame(mat, ts, c.opts.Rotation, c.opts.Front), nil
}

// SetFPS sets the frames per second for capture.
// Values less than or equal to 0 are ignored.
func (c *camera) SetFPS(fps int) {
	if fps <= 0 {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	c.opts.FPS = fps

	if c.capture != nil {
		c.capture.Set(gocv.VideoCaptureFPS, float64(fps))
	}
}

// FPS returns the current frames per second setting.
func (c *camera) FPS() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.opts.FPS
}

// IsOpen returns true if the camera is currently open and running.
func (c *camera) IsOpen() bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.running
}

// monotonic never lets a timestamp go backwards or repeat.
func monotonic(ts, last int64) int64 {
	if ts <= last {
		return last + 1
	}
	return ts
}
