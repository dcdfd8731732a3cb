package drill

import (
	"fmt"

	"github.com/ayusman/courtside/internal/pose"
)

// requiredLandmarks must all be present for a frame to count as ACTIVE.
var requiredLandmarks = []pose.LandmarkType{
	pose.Nose,
	pose.LeftHip,
	pose.RightHip,
	pose.LeftKnee,
	pose.RightKnee,
}

// Session is the complete engine state for one drill session. It is a plain
// value: Advance and Finish return an updated copy and never mutate their
// input, so starting over is just NewSession.
type Session struct {
	thresholds Thresholds
	state      State
	metrics    Metrics

	started     bool
	startedAtMs int64

	hip      hipReference
	vertical verticalReference

	prevTimestampMs int64
	prevVelocity    float64
	prevBallSide    side

	summary *Summary
}

type hipReference struct {
	x, y  float64
	valid bool
}

type verticalReference struct {
	y     float64
	valid bool
}

// NewSession returns an empty READY session using the given thresholds.
func NewSession(t Thresholds) Session {
	return Session{
		thresholds: t,
		state:      StateReady,
	}
}

// State returns the current session state.
func (s Session) State() State { return s.state }

// Metrics returns the current counters.
func (s Session) Metrics() Metrics { return s.metrics }

// Thresholds returns the tuning this session was created with.
func (s Session) Thresholds() Thresholds { return s.thresholds }

// Summary returns the frozen summary once the session has been finished.
func (s Session) Summary() (Summary, bool) {
	if s.summary == nil {
		return Summary{}, false
	}
	return *s.summary, true
}

func (s Session) snapshot() Snapshot {
	return Snapshot{State: s.state, Metrics: s.metrics}
}

// Advance consumes one frame and its optional ball observation.
//
// A frame lacking any required landmark puts the session in READY, clears
// the live cue and drops the motion references so the next qualifying frame
// starts fresh. Once finished, frames are ignored and the frozen metrics are
// returned unchanged.
func Advance(s Session, frame pose.Frame, ball *pose.BallObservation) (Session, Snapshot) {
	if s.state == StateSummary {
		return s, s.snapshot()
	}

	if !frame.Has(requiredLandmarks...) {
		s.state = StateReady
		s.resetLive()
		return s, s.snapshot()
	}

	s.state = StateActive
	if !s.started {
		s.started = true
		s.startedAtMs = frame.TimestampMs
	}

	cue := s.evaluateStance(frame)
	lateral := s.evaluateLateral(frame)
	hops := s.evaluateJump(frame)
	zone := s.classifyDribble(frame, ball)
	crossovers := s.evaluateCrossover(frame, ball)

	m := s.metrics
	m.StanceCue = cue
	m.LateralDistancePx = lateral
	m.Hops += hops
	switch zone {
	case ZoneLow:
		m.PoundLow++
	case ZoneHip:
		m.PoundHip++
	case ZoneHigh:
		m.PoundHigh++
	}
	m.CrossoverCount += crossovers
	m.RepCount += hops + crossovers
	m.ElapsedMs = frame.TimestampMs - s.startedAtMs
	m.DebugText = fmt.Sprintf("state=%s zone=%s", s.state, zone)
	s.metrics = m

	return s, s.snapshot()
}

// Finish ends the session. The summary is taken from the metrics at the
// first call; later calls return the same summary.
func Finish(s Session) (Session, Summary) {
	if s.summary != nil {
		return s, *s.summary
	}

	summary := Summary{
		DurationMs:     s.metrics.ElapsedMs,
		Reps:           s.metrics.RepCount,
		Hops:           s.metrics.Hops,
		CrossoverCount: s.metrics.CrossoverCount,
		LowDribbles:    s.metrics.PoundLow,
		HipDribbles:    s.metrics.PoundHip,
		HighDribbles:   s.metrics.PoundHigh,
	}
	s.state = StateSummary
	s.summary = &summary
	return s, summary
}

func (s *Session) resetLive() {
	s.metrics.StanceCue = ""
	s.metrics.DebugText = waitingText
	s.hip = hipReference{}
	s.vertical = verticalReference{}
	s.prevVelocity = 0
	s.prevTimestampMs = 0
}
