package app

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gocv.io/x/gocv"

	"github.com/ayusman/courtside/internal/capture"
	"github.com/ayusman/courtside/internal/detector"
	"github.com/ayusman/courtside/internal/drill"
	"github.com/ayusman/courtside/internal/pose"
	"github.com/ayusman/courtside/internal/store"
)

// recorder is a Listener that keeps everything it receives.
type recorder struct {
	mu        sync.Mutex
	snapshots []Snapshot
	results   []SessionResult
}

func (r *recorder) OnSnapshot(s Snapshot) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.snapshots = append(r.snapshots, s)
}

func (r *recorder) OnSessionEnd(res SessionResult) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.results = append(r.results, res)
}

func (r *recorder) last() Snapshot {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.snapshots[len(r.snapshots)-1]
}

type fixture struct {
	app  *App
	pose *detector.MockPoseDetector
	ball *detector.MockBallDetector
	rec  *recorder
	img  gocv.Mat
}

func newFixture(t *testing.T, cfg Config) *fixture {
	t.Helper()

	img := gocv.NewMatWithSize(pose.FixtureHeight, pose.FixtureWidth, gocv.MatTypeCV8UC3)
	t.Cleanup(func() { img.Close() })

	fx := &fixture{
		pose: detector.NewMockPoseDetector(),
		ball: detector.NewMockBallDetector(),
		rec:  &recorder{},
		img:  img,
	}
	if cfg.Source == nil {
		cfg.Source = capture.NewMockSource([]*gocv.Mat{&fx.img}, false)
	}
	cfg.Pose = fx.pose
	cfg.Ball = fx.ball

	a, err := New(cfg)
	require.NoError(t, err)
	a.AddListener(fx.rec)
	fx.app = a
	return fx
}

// frame wraps a clone of the fixture image as a captured frame.
func (fx *fixture) frame(ts int64) *capture.Frame {
	img := fx.img.Clone()
	return &capture.Frame{Image: &img, TimestampMs: ts, Width: pose.FixtureWidth, Height: pose.FixtureHeight}
}

func (fx *fixture) process(ts int64, l pose.Landmarks) {
	fx.pose.SetLandmarks(l)
	f := fx.frame(ts)
	defer f.Close()
	fx.app.process(f)
}

func TestNew_Validation(t *testing.T) {
	src := capture.NewMockSource(nil, false)
	pd := detector.NewMockPoseDetector()

	_, err := New(Config{Pose: pd})
	assert.Error(t, err)

	_, err = New(Config{Source: src})
	assert.Error(t, err)

	_, err = New(Config{Source: src, Pose: pd, Thresholds: drill.Thresholds{StanceAngleDeg: 500}})
	assert.Error(t, err)

	a, err := New(Config{Source: src, Pose: pd})
	require.NoError(t, err)
	assert.Equal(t, drill.DefaultThresholds(), a.config.Thresholds)
	assert.IsType(t, detector.NullBallDetector{}, a.config.Ball)
	assert.NoError(t, a.Close())
}

func TestApp_SessionLifecycle(t *testing.T) {
	fx := newFixture(t, Config{})
	a := fx.app

	_, err := a.FinishSession()
	assert.ErrorIs(t, err, ErrNoSession)

	_, ok := a.Latest()
	assert.False(t, ok)

	snap, err := a.StartSession("")
	require.NoError(t, err)
	assert.Equal(t, drill.StateReady, snap.State)
	assert.NotEmpty(t, snap.SessionID)
	assert.True(t, a.SessionActive())
	assert.Equal(t, snap, fx.rec.last(), "start publishes the initial snapshot")

	_, err = a.StartSession("")
	assert.ErrorIs(t, err, ErrSessionActive)

	fx.process(1000, pose.UprightLandmarks())
	fx.process(1033, pose.UprightLandmarks().ShiftOnly(0, -30, pose.LeftAnkle, pose.RightAnkle))

	result, err := a.FinishSession()
	require.NoError(t, err)
	assert.Equal(t, snap.SessionID, result.SessionID)
	assert.Equal(t, 1, result.Summary.Hops)
	assert.Equal(t, int64(33), result.Summary.DurationMs)
	assert.False(t, result.FinishedAt.Before(result.StartedAt))
	assert.False(t, a.SessionActive())

	latest, ok := a.Latest()
	require.True(t, ok)
	assert.Equal(t, drill.StateSummary, latest.State)

	_, err = a.FinishSession()
	assert.ErrorIs(t, err, ErrNoSession)

	require.Len(t, fx.rec.results, 1)
	assert.Equal(t, result, fx.rec.results[0])

	t.Run("frames after finish are not fed", func(t *testing.T) {
		before := len(fx.rec.snapshots)
		fx.process(2000, pose.UprightLandmarks())
		assert.Len(t, fx.rec.snapshots, before)
	})

	t.Run("a new session starts from zero", func(t *testing.T) {
		next, err := a.StartSession("")
		require.NoError(t, err)
		assert.NotEqual(t, snap.SessionID, next.SessionID)
		assert.Zero(t, next.Metrics.Hops)
	})
}

func TestApp_ProcessWithoutSession(t *testing.T) {
	fx := newFixture(t, Config{})

	fx.process(0, pose.UprightLandmarks())

	assert.Empty(t, fx.rec.snapshots)
	assert.Equal(t, uint64(1), fx.app.Stats().FramesProcessed)
}

func TestApp_TenFrameHopSequence(t *testing.T) {
	fx := newFixture(t, Config{})
	_, err := fx.app.StartSession("")
	require.NoError(t, err)

	offsets := []float64{0, 0, -30, 0, 0, 0, -30, 0, 0, 0}
	for i, dy := range offsets {
		fx.process(int64(i*33), pose.UprightLandmarks().ShiftOnly(0, dy, pose.LeftAnkle, pose.RightAnkle))
	}

	last := fx.rec.last()
	assert.Equal(t, drill.StateActive, last.State)
	assert.Equal(t, 2, last.Metrics.Hops)
	assert.Equal(t, 2, last.Metrics.RepCount)
	assert.Zero(t, last.Metrics.CrossoverCount)
	assert.Zero(t, last.Metrics.PoundLow+last.Metrics.PoundHip+last.Metrics.PoundHigh)
	assert.Equal(t, int64(9*33), last.FrameTimestampMs)
}

func TestApp_BallObservationIsStamped(t *testing.T) {
	fx := newFixture(t, Config{})
	_, err := fx.app.StartSession("")
	require.NoError(t, err)

	fx.ball.SetBall(&pose.BallObservation{CenterX: 900, CenterY: 560, Radius: 20, Confidence: 0.9})
	fx.process(500, pose.UprightLandmarks())

	assert.Equal(t, 1, fx.rec.last().Metrics.PoundLow)
}

func TestApp_DetectorErrorsSkipFrame(t *testing.T) {
	fx := newFixture(t, Config{})
	_, err := fx.app.StartSession("")
	require.NoError(t, err)
	before := len(fx.rec.snapshots)

	fx.pose.SetError(errors.New("worker crashed"))
	fx.process(0, nil)

	fx.pose.SetError(nil)
	fx.ball.SetError(errors.New("bad image"))
	fx.process(33, pose.UprightLandmarks())

	assert.Len(t, fx.rec.snapshots, before, "failed frames never reach the engine")
	stats := fx.app.Stats()
	assert.Equal(t, uint64(2), stats.DetectorErrors)
	assert.Zero(t, stats.FramesProcessed)
}

func TestApp_NoBodyIsReady(t *testing.T) {
	fx := newFixture(t, Config{})
	_, err := fx.app.StartSession("")
	require.NoError(t, err)

	fx.process(0, nil)
	assert.Equal(t, drill.StateReady, fx.rec.last().State)
}

func TestApp_Preview(t *testing.T) {
	fx := newFixture(t, Config{Preview: true})

	data, seq := fx.app.Preview()
	assert.Nil(t, data)
	assert.Zero(t, seq)

	fx.process(0, pose.UprightLandmarks())

	data, seq = fx.app.Preview()
	assert.Equal(t, uint64(1), seq)
	require.Greater(t, len(data), 2)
	assert.Equal(t, []byte{0xff, 0xd8}, data[:2], "preview is a JPEG")
}

func TestApp_Profiles(t *testing.T) {
	st, err := store.New(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	defer st.Close()

	strict := drill.DefaultThresholds()
	strict.HopVelocityPxPerSec = 2000
	profile := &store.Profile{ID: uuid.NewString(), Name: "strict", Thresholds: strict}
	require.NoError(t, st.Profiles().Create(profile))

	fx := newFixture(t, Config{Store: st})
	a := fx.app

	t.Run("unknown profile", func(t *testing.T) {
		_, err := a.StartSession("missing")
		assert.ErrorIs(t, err, store.ErrNotFound)
		assert.False(t, a.SessionActive())
	})

	t.Run("no active profile uses configured thresholds", func(t *testing.T) {
		snap, err := a.StartSession("")
		require.NoError(t, err)
		assert.Empty(t, snap.ProfileID)
		res, err := a.FinishSession()
		require.NoError(t, err)
		assert.Equal(t, drill.DefaultThresholds(), res.Thresholds)
	})

	t.Run("explicit profile", func(t *testing.T) {
		snap, err := a.StartSession(profile.ID)
		require.NoError(t, err)
		assert.Equal(t, profile.ID, snap.ProfileID)

		// 909 px/s does not reach the strict 2000 px/s threshold.
		fx.process(1000, pose.UprightLandmarks())
		fx.process(1033, pose.UprightLandmarks().ShiftOnly(0, -30, pose.LeftAnkle, pose.RightAnkle))

		res, err := a.FinishSession()
		require.NoError(t, err)
		assert.Equal(t, strict, res.Thresholds)
		assert.Zero(t, res.Summary.Hops)
	})

	t.Run("active profile", func(t *testing.T) {
		require.NoError(t, st.SetActiveProfile(profile.ID))
		snap, err := a.StartSession("")
		require.NoError(t, err)
		assert.Equal(t, profile.ID, snap.ProfileID)
		_, err = a.FinishSession()
		require.NoError(t, err)
	})
}

func TestApp_Run(t *testing.T) {
	t.Run("finite source ends cleanly", func(t *testing.T) {
		fx := newFixture(t, Config{})
		src := capture.NewMockSource([]*gocv.Mat{&fx.img, &fx.img, &fx.img}, false)
		fx.app.config.Source = src
		fx.pose.SetLandmarks(pose.UprightLandmarks())

		_, err := fx.app.StartSession("")
		require.NoError(t, err)

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		require.NoError(t, fx.app.Run(ctx))

		stats := fx.app.Stats()
		assert.Equal(t, uint64(3), stats.FramesCaptured)
		assert.Equal(t, stats.FramesCaptured, stats.FramesProcessed+stats.FramesDropped)
		assert.GreaterOrEqual(t, stats.FramesProcessed, uint64(1), "the last frame is always analyzed")
		assert.False(t, src.IsOpen())
	})

	t.Run("cancellation stops a live source", func(t *testing.T) {
		fx := newFixture(t, Config{Pace: true})
		fx.app.config.Source = capture.NewMockSource([]*gocv.Mat{&fx.img}, true)

		ctx, cancel := context.WithCancel(context.Background())
		done := make(chan error, 1)
		go func() { done <- fx.app.Run(ctx) }()

		time.Sleep(100 * time.Millisecond)
		cancel()

		select {
		case err := <-done:
			assert.NoError(t, err)
		case <-time.After(2 * time.Second):
			t.Fatal("Run did not return after cancel")
		}
		assert.Greater(t, fx.app.Stats().FramesCaptured, uint64(0))
	})
}

func TestListenerFuncs(t *testing.T) {
	var got []string
	l := ListenerFuncs{Snapshot: func(Snapshot) { got = append(got, "snap") }}
	l.OnSnapshot(Snapshot{})
	l.OnSessionEnd(SessionResult{})
	assert.Equal(t, []string{"snap"}, got)
}
