package drill

import "github.com/ayusman/courtside/internal/pose"

// Engine wraps a Session for callers that prefer a stateful object.
//
// Engine is not safe for concurrent use. Frames must be consumed one at a
// time, in timestamp order, by a single goroutine.
type Engine struct {
	session Session
}

// NewEngine creates an engine for a fresh session.
func NewEngine(t Thresholds) *Engine {
	return &Engine{session: NewSession(t)}
}

// Consume feeds one frame and its optional ball observation and returns the
// resulting state and a copy of the metrics.
func (e *Engine) Consume(frame pose.Frame, ball *pose.BallObservation) (State, Metrics) {
	var snap Snapshot
	e.session, snap = Advance(e.session, frame, ball)
	return snap.State, snap.Metrics
}

// FinishSession moves the engine to SUMMARY and returns the session summary.
func (e *Engine) FinishSession() Summary {
	var summary Summary
	e.session, summary = Finish(e.session)
	return summary
}

// State returns the current state.
func (e *Engine) State() State { return e.session.State() }

// Metrics returns the current metrics.
func (e *Engine) Metrics() Metrics { return e.session.Metrics() }

// Session returns a copy of the underlying session.
func (e *Engine) Session() Session { return e.session }
