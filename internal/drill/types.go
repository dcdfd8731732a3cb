// Package drill implements the drill-state and event-detection engine. It
// turns a stream of pose frames and optional ball observations into a
// session state, running counters and live coaching cues.
package drill

// State is the coarse session state.
type State string

const (
	// StateReady means no qualifying body is in frame.
	StateReady State = "READY"
	// StateActive means a full body is tracked and metrics accumulate.
	StateActive State = "ACTIVE"
	// StateSummary means the session was ended explicitly. It is terminal.
	StateSummary State = "SUMMARY"
)

// DribbleZone is the body-relative height band of the ball.
type DribbleZone string

const (
	ZoneNone DribbleZone = "NONE"
	ZoneLow  DribbleZone = "LOW"
	ZoneHip  DribbleZone = "HIP"
	ZoneHigh DribbleZone = "HIGH"
)

// StayLowCue is emitted while the legs are too straight.
const StayLowCue = "Stay Low"

// waitingText is shown in DebugText while no body qualifies.
const waitingText = "Waiting for full body in frame"

// Metrics holds the running counters of a session. Counters never decrease
// within a session. StanceCue is empty when there is no advice.
type Metrics struct {
	RepCount          int     `json:"rep_count"`
	Hops              int     `json:"hops"`
	CrossoverCount    int     `json:"crossover_count"`
	PoundLow          int     `json:"pound_low"`
	PoundHip          int     `json:"pound_hip"`
	PoundHigh         int     `json:"pound_high"`
	LateralDistancePx float64 `json:"lateral_distance_px"`
	ElapsedMs         int64   `json:"elapsed_ms"`
	StanceCue         string  `json:"stance_cue,omitempty"`
	DebugText         string  `json:"debug_text"`
}

// Summary is the frozen result of a finished session.
type Summary struct {
	DurationMs     int64 `json:"duration_ms"`
	Reps           int   `json:"reps"`
	Hops           int   `json:"hops"`
	CrossoverCount int   `json:"crossover_count"`
	LowDribbles    int   `json:"low_dribbles"`
	HipDribbles    int   `json:"hip_dribbles"`
	HighDribbles   int   `json:"high_dribbles"`
}

// Snapshot is the engine output for one consumed frame.
type Snapshot struct {
	State   State   `json:"state"`
	Metrics Metrics `json:"metrics"`
}
