package capture

import (
	"sync"

	"gocv.io/x/gocv"
)

// MockSource plays back pre-recorded images for testing. Timestamps advance
// by one frame interval per read.
type MockSource struct {
	frames  []*gocv.Mat
	index   int
	loop    bool
	fps     int
	ts      int64
	mu      sync.Mutex
	running bool
}

// NewMockSource creates a mock source over frames. When loop is false,
// reads past the end return ErrEndOfStream.
func NewMockSource(frames []*gocv.Mat, loop bool) *MockSource {
	return &MockSource{
		frames: frames,
		loop:   loop,
		fps:    DefaultFPS,
	}
}

func (c *MockSource) Open() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.running = true
	c.index = 0
	c.ts = 0
	return nil
}

func (c *MockSource) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.running = false
	return nil
}

func (c *MockSource) Read() (*Frame, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.running {
		return nil, ErrSourceNotOpen
	}

	if len(c.frames) == 0 {
		return nil, ErrEndOfStream
	}

	if c.index >= len(c.frames) {
		if !c.loop {
			return nil, ErrEndOfStream
		}
		c.index = 0
	}

	// Clone the image so the original isn't modified
	mat := c.frames[c.index].Clone()
	c.index++

	ts := c.ts
	c.ts += int64(1000 / c.fps)

	return newFrame(mat, ts, 0, false), nil
}

func (c *MockSource) SetFPS(fps int) {
	if fps <= 0 {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.fps = fps
}

func (c *MockSource) FPS() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.fps
}

func (c *MockSource) IsOpen() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.running
}

// SetFrames replaces the frame sequence
func (c *MockSource) SetFrames(frames []*gocv.Mat) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.frames = frames
	c.index = 0
}

// Reset restarts playback from the beginning
func (c *MockSource) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.index = 0
	c.ts = 0
}
