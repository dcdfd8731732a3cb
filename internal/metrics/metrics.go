// Package metrics exposes pipeline and drill counters in Prometheus format.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/ayusman/courtside/internal/app"
	"github.com/ayusman/courtside/internal/drill"
)

const namespace = "courtside"

// StatsFunc returns the current pipeline counters.
type StatsFunc func() app.Stats

// Metrics is an app.Listener that mirrors the live session into gauges.
// Pipeline counters are read from stats at scrape time.
type Metrics struct {
	registry *prometheus.Registry

	state    *prometheus.GaugeVec
	counters *prometheus.GaugeVec
	lateral  prometheus.Gauge
	elapsed  prometheus.Gauge
	latency  prometheus.Histogram
	sessions prometheus.Counter
	lastReps prometheus.Gauge
}

// New creates Metrics with its own registry. stats may be nil.
func New(stats StatsFunc) *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		state: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "session_state",
			Help:      "1 for the current drill state, 0 otherwise",
		}, []string{"state"}),
		counters: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "session_events",
			Help:      "Running event counters of the current session",
		}, []string{"event"}),
		lateral: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "session_lateral_distance_px",
			Help:      "Accumulated lateral hip travel in pixels",
		}),
		elapsed: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "session_elapsed_seconds",
			Help:      "Elapsed time of the current session",
		}),
		latency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "frame_processing_seconds",
			Help:      "Detection plus engine time per analyzed frame",
			Buckets:   []float64{.005, .01, .02, .033, .05, .075, .1, .2, .5},
		}),
		sessions: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sessions_finished_total",
			Help:      "Sessions finished since start",
		}),
		lastReps: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "last_session_reps",
			Help:      "Reps of the most recently finished session",
		}),
	}

	m.registry.MustRegister(m.state, m.counters, m.lateral, m.elapsed, m.latency, m.sessions, m.lastReps)
	if stats != nil {
		m.registerStats(stats)
	}
	return m
}

func (m *Metrics) registerStats(stats StatsFunc) {
	counter := func(name, help string, get func(app.Stats) uint64) prometheus.Collector {
		return prometheus.NewCounterFunc(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      name,
			Help:      help,
		}, func() float64 { return float64(get(stats())) })
	}

	m.registry.MustRegister(
		counter("frames_captured_total", "Frames read from the source",
			func(s app.Stats) uint64 { return s.FramesCaptured }),
		counter("frames_processed_total", "Frames analyzed",
			func(s app.Stats) uint64 { return s.FramesProcessed }),
		counter("frames_dropped_total", "Frames replaced before analysis",
			func(s app.Stats) uint64 { return s.FramesDropped }),
		counter("capture_errors_total", "Failed frame reads",
			func(s app.Stats) uint64 { return s.CaptureErrors }),
		counter("detector_errors_total", "Frames skipped after a detector error",
			func(s app.Stats) uint64 { return s.DetectorErrors }),
	)
}

// OnSnapshot updates the session gauges.
func (m *Metrics) OnSnapshot(s app.Snapshot) {
	for _, st := range []drill.State{drill.StateReady, drill.StateActive, drill.StateSummary} {
		v := 0.0
		if s.State == st {
			v = 1
		}
		m.state.WithLabelValues(string(st)).Set(v)
	}

	mt := s.Metrics
	m.counters.WithLabelValues("reps").Set(float64(mt.RepCount))
	m.counters.WithLabelValues("hops").Set(float64(mt.Hops))
	m.counters.WithLabelValues("crossovers").Set(float64(mt.CrossoverCount))
	m.counters.WithLabelValues("pound_low").Set(float64(mt.PoundLow))
	m.counters.WithLabelValues("pound_hip").Set(float64(mt.PoundHip))
	m.counters.WithLabelValues("pound_high").Set(float64(mt.PoundHigh))
	m.lateral.Set(mt.LateralDistancePx)
	m.elapsed.Set(float64(mt.ElapsedMs) / 1000)

	if s.ProcessingMs > 0 {
		m.latency.Observe(s.ProcessingMs / 1000)
	}
}

// OnSessionEnd counts the finished session.
func (m *Metrics) OnSessionEnd(r app.SessionResult) {
	m.sessions.Inc()
	m.lastReps.Set(float64(r.Summary.Reps))
}

// Registry returns the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler returns the Prometheus HTTP handler.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
