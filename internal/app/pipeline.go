package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/ayusman/courtside/internal/capture"
	"github.com/ayusman/courtside/internal/pose"
)

// readRetryDelay is the pause after a failed frame read.
const readRetryDelay = 100 * time.Millisecond

// Run opens the source and analyzes frames until ctx is cancelled or a
// finite source ends. Capture runs on its own goroutine and hands frames to
// the analysis loop through a single-slot mailbox, so at most one frame is
// being analyzed at any time and stale frames are dropped rather than
// queued.
func (a *App) Run(ctx context.Context) error {
	src := a.config.Source
	if err := src.Open(); err != nil {
		return fmt.Errorf("open source: %w", err)
	}
	defer src.Close()

	slog.Info("pipeline started", "fps", src.FPS())

	box := newMailbox()
	captureErr := make(chan error, 1)
	go func() {
		err := a.captureLoop(ctx, box)
		box.close()
		captureErr <- err
	}()

	for {
		f := box.take()
		if f == nil {
			break
		}
		a.process(f)
		f.Close()
	}

	err := <-captureErr
	slog.Info("pipeline stopped", "frames_processed", a.framesProcessed.Load(), "frames_dropped", a.framesDropped.Load())

	if errors.Is(err, context.Canceled) || errors.Is(err, capture.ErrEndOfStream) {
		return nil
	}
	return err
}

func (a *App) captureLoop(ctx context.Context, box *mailbox) error {
	src := a.config.Source
	start := time.Now()

	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		f, err := src.Read()
		if err != nil {
			if errors.Is(err, capture.ErrEndOfStream) {
				return err
			}
			a.captureErrors.Add(1)
			slog.Warn("frame read failed", "error", err)
			if !sleepCtx(ctx, readRetryDelay) {
				return ctx.Err()
			}
			continue
		}
		a.framesCaptured.Add(1)

		if a.config.Pace {
			due := start.Add(time.Duration(f.TimestampMs) * time.Millisecond)
			if !sleepCtx(ctx, time.Until(due)) {
				f.Close()
				return ctx.Err()
			}
		}

		if box.put(f) {
			a.framesDropped.Add(1)
		}
	}
}

// process runs detection and the engine on one frame.
func (a *App) process(f *capture.Frame) {
	began := time.Now()

	landmarks, err := a.config.Pose.Detect(f.Image)
	if err != nil {
		a.detectorErrors.Add(1)
		slog.Warn("pose detection failed", "error", err, "ts", f.TimestampMs)
		return
	}

	ball, err := a.config.Ball.Detect(f.Image)
	if err != nil {
		a.detectorErrors.Add(1)
		slog.Warn("ball detection failed", "error", err, "ts", f.TimestampMs)
		return
	}
	if ball != nil {
		ball.TimestampMs = f.TimestampMs
	}

	frame := pose.Frame{
		TimestampMs: f.TimestampMs,
		Width:       f.Width,
		Height:      f.Height,
		Rotation:    f.Rotation,
		Front:       f.Front,
		Points:      landmarks,
	}

	snap, ok := a.consume(frame, ball, began)
	a.framesProcessed.Add(1)

	if a.config.Preview {
		a.preview.update(f, frame, ball, snap, ok)
	}

	if ok {
		a.eachListener(func(l Listener) { l.OnSnapshot(snap) })
	}
}

// consume feeds the running session, if any. It reports false when no
// session is running.
func (a *App) consume(frame pose.Frame, ball *pose.BallObservation, began time.Time) (Snapshot, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()

	s := a.current
	if s == nil || s.finished {
		return Snapshot{}, false
	}

	state, metrics := s.engine.Consume(frame, ball)
	snap := Snapshot{
		SessionID:        s.id,
		ProfileID:        s.profileID,
		State:            state,
		Metrics:          metrics,
		FrameTimestampMs: frame.TimestampMs,
		ProcessingMs:     float64(time.Since(began).Microseconds()) / 1000,
	}
	a.latest, a.hasLatest = snap, true
	return snap, true
}

// sleepCtx waits for d or ctx. It reports false if ctx ended first.
func sleepCtx(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return ctx.Err() == nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
