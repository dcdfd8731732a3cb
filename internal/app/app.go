// Package app runs the analysis pipeline: frames from a capture source go
// through pose and ball detection into the drill engine, and the results
// fan out to listeners.
package app

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/ayusman/courtside/internal/capture"
	"github.com/ayusman/courtside/internal/detector"
	"github.com/ayusman/courtside/internal/drill"
	"github.com/ayusman/courtside/internal/store"
)

var (
	// ErrNoSession is returned when finishing while no session is running.
	ErrNoSession = errors.New("no active session")

	// ErrSessionActive is returned when starting while a session is running.
	ErrSessionActive = errors.New("session already active")
)

// Config holds configuration options for the application.
type Config struct {
	Source capture.Source
	Pose   detector.PoseDetector
	// Ball may be nil, in which case no ball is ever observed.
	Ball detector.BallDetector

	// Store supplies profiles. It may be nil.
	Store *store.Store

	// Thresholds are used when no profile applies. Zero means the defaults.
	Thresholds drill.Thresholds

	// Preview enables the annotated JPEG preview of the last analyzed frame.
	Preview bool

	// Pace holds frames back to their timestamps. Use it for file sources
	// that would otherwise read faster than real time.
	Pace bool
}

// Snapshot is the live state published after every analyzed frame.
type Snapshot struct {
	SessionID        string        `json:"session_id"`
	ProfileID        string        `json:"profile_id,omitempty"`
	State            drill.State   `json:"state"`
	Metrics          drill.Metrics `json:"metrics"`
	FrameTimestampMs int64         `json:"frame_timestamp_ms"`
	ProcessingMs     float64       `json:"processing_ms"`
}

// SessionResult describes a finished session.
type SessionResult struct {
	SessionID  string           `json:"session_id"`
	ProfileID  string           `json:"profile_id,omitempty"`
	Thresholds drill.Thresholds `json:"thresholds"`
	Summary    drill.Summary    `json:"summary"`
	StartedAt  time.Time        `json:"started_at"`
	FinishedAt time.Time        `json:"finished_at"`
}

// Listener receives pipeline output. Calls are made from the analysis
// goroutine or the caller of FinishSession, so implementations must be quick
// and safe for concurrent use.
type Listener interface {
	OnSnapshot(Snapshot)
	OnSessionEnd(SessionResult)
}

// ListenerFuncs adapts plain functions to Listener. Nil fields are skipped.
type ListenerFuncs struct {
	Snapshot   func(Snapshot)
	SessionEnd func(SessionResult)
}

func (l ListenerFuncs) OnSnapshot(s Snapshot) {
	if l.Snapshot != nil {
		l.Snapshot(s)
	}
}

func (l ListenerFuncs) OnSessionEnd(r SessionResult) {
	if l.SessionEnd != nil {
		l.SessionEnd(r)
	}
}

// Stats are pipeline counters since the app was created.
type Stats struct {
	FramesCaptured  uint64 `json:"frames_captured"`
	FramesProcessed uint64 `json:"frames_processed"`
	FramesDropped   uint64 `json:"frames_dropped"`
	CaptureErrors   uint64 `json:"capture_errors"`
	DetectorErrors  uint64 `json:"detector_errors"`
}

type session struct {
	id         string
	profileID  string
	thresholds drill.Thresholds
	engine     *drill.Engine
	startedAt  time.Time
	finished   bool
}

// App is the main application that orchestrates detection and drill analysis.
type App struct {
	config Config

	mu        sync.Mutex
	current   *session
	latest    Snapshot
	hasLatest bool

	listenersMu sync.RWMutex
	listeners   []Listener

	preview preview

	framesCaptured  atomic.Uint64
	framesProcessed atomic.Uint64
	framesDropped   atomic.Uint64
	captureErrors   atomic.Uint64
	detectorErrors  atomic.Uint64
}

// New creates a new App instance with the given configuration.
func New(config Config) (*App, error) {
	if config.Source == nil {
		return nil, errors.New("app: source is required")
	}
	if config.Pose == nil {
		return nil, errors.New("app: pose detector is required")
	}
	if config.Ball == nil {
		config.Ball = detector.NullBallDetector{}
	}
	if config.Thresholds == (drill.Thresholds{}) {
		config.Thresholds = drill.DefaultThresholds()
	}
	if err := config.Thresholds.Validate(); err != nil {
		return nil, fmt.Errorf("app: %w", err)
	}

	return &App{config: config}, nil
}

// AddListener registers l for snapshots and session results.
func (a *App) AddListener(l Listener) {
	a.listenersMu.Lock()
	defer a.listenersMu.Unlock()
	a.listeners = append(a.listeners, l)
}

func (a *App) eachListener(fn func(Listener)) {
	a.listenersMu.RLock()
	listeners := append([]Listener(nil), a.listeners...)
	a.listenersMu.RUnlock()

	for _, l := range listeners {
		fn(l)
	}
}

// StartSession begins a new drill session. profileID selects a stored
// profile; empty means the active profile, or the configured thresholds
// when none is active.
func (a *App) StartSession(profileID string) (Snapshot, error) {
	thresholds, profileID, err := a.resolveThresholds(profileID)
	if err != nil {
		return Snapshot{}, err
	}

	a.mu.Lock()
	if a.current != nil && !a.current.finished {
		a.mu.Unlock()
		return Snapshot{}, ErrSessionActive
	}

	s := &session{
		id:         uuid.NewString(),
		profileID:  profileID,
		thresholds: thresholds,
		engine:     drill.NewEngine(thresholds),
		startedAt:  time.Now(),
	}
	a.current = s
	snap := Snapshot{
		SessionID: s.id,
		ProfileID: s.profileID,
		State:     s.engine.State(),
		Metrics:   s.engine.Metrics(),
	}
	a.latest, a.hasLatest = snap, true
	a.mu.Unlock()

	slog.Info("session started", "session_id", s.id, "profile_id", profileID)
	a.eachListener(func(l Listener) { l.OnSnapshot(snap) })
	return snap, nil
}

// FinishSession ends the running session and returns its result. Listeners
// receive the final snapshot and the result.
func (a *App) FinishSession() (SessionResult, error) {
	a.mu.Lock()
	s := a.current
	if s == nil || s.finished {
		a.mu.Unlock()
		return SessionResult{}, ErrNoSession
	}

	summary := s.engine.FinishSession()
	s.finished = true
	result := SessionResult{
		SessionID:  s.id,
		ProfileID:  s.profileID,
		Thresholds: s.thresholds,
		Summary:    summary,
		StartedAt:  s.startedAt,
		FinishedAt: time.Now(),
	}
	snap := a.latest
	snap.SessionID = s.id
	snap.ProfileID = s.profileID
	snap.State = s.engine.State()
	snap.Metrics = s.engine.Metrics()
	a.latest, a.hasLatest = snap, true
	a.mu.Unlock()

	slog.Info("session finished",
		"session_id", s.id,
		"reps", summary.Reps,
		"hops", summary.Hops,
		"crossovers", summary.CrossoverCount,
		"duration_ms", summary.DurationMs,
	)
	a.eachListener(func(l Listener) {
		l.OnSnapshot(snap)
		l.OnSessionEnd(result)
	})
	return result, nil
}

// Latest returns the most recent snapshot, if any session has run.
func (a *App) Latest() (Snapshot, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.latest, a.hasLatest
}

// SessionActive reports whether a session is running and not finished.
func (a *App) SessionActive() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.current != nil && !a.current.finished
}

// Stats returns the pipeline counters.
func (a *App) Stats() Stats {
	return Stats{
		FramesCaptured:  a.framesCaptured.Load(),
		FramesProcessed: a.framesProcessed.Load(),
		FramesDropped:   a.framesDropped.Load(),
		CaptureErrors:   a.captureErrors.Load(),
		DetectorErrors:  a.detectorErrors.Load(),
	}
}

// Preview returns the latest annotated JPEG and its sequence number. The
// sequence is zero until the first frame has been analyzed.
func (a *App) Preview() ([]byte, uint64) {
	return a.preview.get()
}

// Close releases the detectors.
func (a *App) Close() error {
	return errors.Join(a.config.Pose.Close(), a.config.Ball.Close())
}

func (a *App) resolveThresholds(profileID string) (drill.Thresholds, string, error) {
	st := a.config.Store

	if profileID != "" {
		if st == nil {
			return drill.Thresholds{}, "", fmt.Errorf("profile %s: %w", profileID, store.ErrNotFound)
		}
		p, err := st.Profiles().GetByID(profileID)
		if err != nil {
			return drill.Thresholds{}, "", fmt.Errorf("profile %s: %w", profileID, err)
		}
		return p.Thresholds, p.ID, p.Thresholds.Validate()
	}

	if st != nil {
		p, err := st.ActiveProfile()
		switch {
		case err == nil:
			return p.Thresholds, p.ID, p.Thresholds.Validate()
		case !errors.Is(err, store.ErrNotFound):
			return drill.Thresholds{}, "", fmt.Errorf("active profile: %w", err)
		}
	}

	return a.config.Thresholds, "", nil
}
