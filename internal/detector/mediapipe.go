package detector

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"gocv.io/x/gocv"

	"github.com/ayusman/courtside/internal/pose"
)

const scriptName = "pose_service.py"

// ErrScriptNotFound is returned when no pose worker script can be located.
var ErrScriptNotFound = errors.New(scriptName + " not found")

// MediaPipeDetector implements PoseDetector using a Python MediaPipe Pose
// subprocess. Requests and responses are msgpack messages with a 4-byte
// big-endian length prefix.
type MediaPipeDetector struct {
	config    Config
	script    string
	cmd       *exec.Cmd
	stdin     io.WriteCloser
	stdout    *bufio.Reader
	mu        sync.Mutex
	started   bool
	idleTimer *time.Timer
}

// NewMediaPipeDetector creates a new MediaPipe detector.
// The Python process is started lazily on first detection.
func NewMediaPipeDetector(config Config) (*MediaPipeDetector, error) {
	script := config.Script
	if script == "" {
		script = findPoseScript()
	}
	if script == "" {
		return nil, ErrScriptNotFound
	}
	if _, err := os.Stat(script); err != nil {
		return nil, fmt.Errorf("pose script: %w", err)
	}
	if config.IdleTimeout <= 0 {
		config.IdleTimeout = DefaultConfig().IdleTimeout
	}

	return &MediaPipeDetector{
		config: config,
		script: script,
	}, nil
}

// Detect sends the image to the worker and returns the landmarks in img
// pixel coordinates.
func (d *MediaPipeDetector) Detect(img *gocv.Mat) (pose.Landmarks, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if err := d.ensureStarted(); err != nil {
		return nil, err
	}

	buf, err := gocv.IMEncode(".jpg", *img)
	if err != nil {
		return nil, fmt.Errorf("encode frame: %w", err)
	}
	defer buf.Close()

	width, height := img.Cols(), img.Rows()
	req := poseRequest{Image: buf.GetBytes(), Width: width, Height: height}
	if err := writeMessage(d.stdin, req); err != nil {
		d.shutdown()
		return nil, err
	}

	var resp poseResponse
	if err := readMessage(d.stdout, &resp); err != nil {
		d.shutdown()
		return nil, err
	}
	if resp.Error != "" {
		return nil, fmt.Errorf("pose worker: %s", resp.Error)
	}

	d.resetIdleTimer()

	return resp.toLandmarks(width, height, d.config.MinLandmarkConfidence), nil
}

// Close shuts down the Python process.
func (d *MediaPipeDetector) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.shutdown()
}

func (d *MediaPipeDetector) ensureStarted() error {
	if d.started {
		return nil
	}

	python := d.config.Python
	if python == "" {
		python = findVenvPython()
	}
	if python == "" {
		python = "python3"
	}

	d.cmd = exec.Command(python, d.script)

	stdin, err := d.cmd.StdinPipe()
	if err != nil {
		return fmt.Errorf("create stdin pipe: %w", err)
	}

	stdout, err := d.cmd.StdoutPipe()
	if err != nil {
		return fmt.Errorf("create stdout pipe: %w", err)
	}

	stderr, err := d.cmd.StderrPipe()
	if err != nil {
		return fmt.Errorf("create stderr pipe: %w", err)
	}

	if err := d.cmd.Start(); err != nil {
		return fmt.Errorf("start pose worker: %w", err)
	}
	go logWorkerStderr(stderr)

	d.stdin = stdin
	d.stdout = bufio.NewReader(stdout)
	d.started = true

	slog.Info("pose worker started", "python", python, "script", d.script, "pid", d.cmd.Process.Pid)
	return nil
}

func (d *MediaPipeDetector) shutdown() error {
	if !d.started {
		return nil
	}

	if d.idleTimer != nil {
		d.idleTimer.Stop()
		d.idleTimer = nil
	}

	if d.stdin != nil {
		d.stdin.Close()
	}

	err := d.cmd.Wait()
	d.started = false
	d.cmd = nil
	d.stdin = nil
	d.stdout = nil

	slog.Info("pose worker stopped")
	return err
}

func (d *MediaPipeDetector) resetIdleTimer() {
	if d.idleTimer != nil {
		d.idleTimer.Stop()
	}
	d.idleTimer = time.AfterFunc(d.config.IdleTimeout, func() {
		d.mu.Lock()
		defer d.mu.Unlock()
		slog.Debug("pose worker idle", "timeout", d.config.IdleTimeout)
		d.shutdown()
	})
}

// logWorkerStderr forwards worker log lines to slog, mapping Python log
// levels where the line carries one.
func logWorkerStderr(r io.Reader) {
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := scanner.Text()
		switch {
		case strings.Contains(line, "[ERROR]"), strings.Contains(line, "[CRITICAL]"):
			slog.Error("pose worker error", "log", line)
		case strings.Contains(line, "[WARNING]"), strings.Contains(line, "[WARN]"):
			slog.Warn("pose worker warning", "log", line)
		default:
			slog.Debug("pose worker log", "log", line)
		}
	}
}

func findPoseScript() string {
	execPath, err := os.Executable()
	var execDir string
	if err == nil {
		execDir = filepath.Dir(execPath)
	}

	return firstExisting(
		filepath.Join("scripts", scriptName),
		filepath.Join("..", "scripts", scriptName),
		filepath.Join(execDir, "scripts", scriptName),
		filepath.Join(os.Getenv("HOME"), ".courtside", "scripts", scriptName),
	)
}

// findVenvPython looks for a Python interpreter in a virtual environment
// next to the working directory, the executable, or the user config dir.
func findVenvPython() string {
	execPath, err := os.Executable()
	if err != nil {
		return ""
	}
	execDir := filepath.Dir(execPath)

	return firstExisting(
		"venv/bin/python",
		"../venv/bin/python",
		filepath.Join(execDir, "venv/bin/python"),
		filepath.Join(os.Getenv("HOME"), ".courtside/venv/bin/python"),
	)
}

func firstExisting(candidates ...string) string {
	for _, path := range candidates {
		if _, err := os.Stat(path); err == nil {
			if abs, err := filepath.Abs(path); err == nil {
				return abs
			}
			return path
		}
	}
	return ""
}
