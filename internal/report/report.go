// Package report renders a finished or running drill session as an HTML
// page of charts.
package report

import (
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"

	"github.com/ayusman/courtside/internal/app"
	"github.com/ayusman/courtside/internal/drill"
)

// sampleEveryMs is the minimum elapsed-time spacing between samples whose
// counters did not change.
const sampleEveryMs = 250

// Point is one sample of the session counters.
type Point struct {
	ElapsedMs  int64
	Reps       int
	Hops       int
	Crossovers int
	PoundLow   int
	PoundHip   int
	PoundHigh  int
	LateralPx  float64
}

func pointOf(m drill.Metrics) Point {
	return Point{
		ElapsedMs:  m.ElapsedMs,
		Reps:       m.RepCount,
		Hops:       m.Hops,
		Crossovers: m.CrossoverCount,
		PoundLow:   m.PoundLow,
		PoundHip:   m.PoundHip,
		PoundHigh:  m.PoundHigh,
		LateralPx:  m.LateralDistancePx,
	}
}

func (p Point) sameCounters(o Point) bool {
	q := o
	q.ElapsedMs = p.ElapsedMs
	return p == q
}

// Recorder accumulates counter timelines. As an app.Listener it follows the
// current session and starts over when a new session appears.
type Recorder struct {
	mu        sync.Mutex
	sessionID string
	points    []Point
	summary   *drill.Summary
}

// NewRecorder creates an empty Recorder.
func NewRecorder() *Recorder {
	return &Recorder{}
}

// Add records m. Samples are thinned while nothing changes.
func (r *Recorder) Add(m drill.Metrics) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.add(pointOf(m))
}

func (r *Recorder) add(p Point) {
	if n := len(r.points); n > 0 {
		last := r.points[n-1]
		if p.ElapsedMs < last.ElapsedMs {
			return
		}
		if p.sameCounters(last) && p.ElapsedMs-last.ElapsedMs < sampleEveryMs {
			return
		}
	}
	r.points = append(r.points, p)
}

// SetSummary attaches the final summary.
func (r *Recorder) SetSummary(s drill.Summary) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.summary = &s
}

// Points returns a copy of the recorded samples.
func (r *Recorder) Points() []Point {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Point(nil), r.points...)
}

// OnSnapshot records active snapshots of the current session.
func (r *Recorder) OnSnapshot(s app.Snapshot) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if s.SessionID != r.sessionID {
		r.sessionID = s.SessionID
		r.points = nil
		r.summary = nil
	}
	if s.State == drill.StateActive {
		r.add(pointOf(s.Metrics))
	}
}

// OnSessionEnd stores the summary of the current session.
func (r *Recorder) OnSessionEnd(res app.SessionResult) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if res.SessionID == r.sessionID {
		r.summary = &res.Summary
	}
}

// Render writes the report page to w.
func (r *Recorder) Render(w io.Writer, title string) error {
	r.mu.Lock()
	points := append([]Point(nil), r.points...)
	summary := r.summary
	r.mu.Unlock()

	if summary == nil && len(points) > 0 {
		last := points[len(points)-1]
		summary = &drill.Summary{
			DurationMs:     last.ElapsedMs,
			Reps:           last.Reps,
			Hops:           last.Hops,
			CrossoverCount: last.Crossovers,
			LowDribbles:    last.PoundLow,
			HipDribbles:    last.PoundHip,
			HighDribbles:   last.PoundHigh,
		}
	}

	page := components.NewPage()
	page.SetPageTitle(title)
	page.AddCharts(timeline(points, title, summary), zones(summary), lateral(points))
	return page.Render(w)
}

func subtitle(s *drill.Summary) string {
	if s == nil {
		return "no data"
	}
	d := time.Duration(s.DurationMs) * time.Millisecond
	return fmt.Sprintf("%s  reps=%d hops=%d crossovers=%d", d.Round(100*time.Millisecond), s.Reps, s.Hops, s.CrossoverCount)
}

func xAxis(points []Point) []string {
	x := make([]string, len(points))
	for i, p := range points {
		x[i] = fmt.Sprintf("%.1f", float64(p.ElapsedMs)/1000)
	}
	return x
}

func series(points []Point, get func(Point) int) []opts.LineData {
	data := make([]opts.LineData, len(points))
	for i, p := range points {
		data[i] = opts.LineData{Value: get(p)}
	}
	return data
}

func timeline(points []Point, title string, s *drill.Summary) *charts.Line {
	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{Width: "100%", Height: "420px"}),
		charts.WithTitleOpts(opts.Title{Title: title, Subtitle: subtitle(s)}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true), Trigger: "axis"}),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(true), Top: "bottom"}),
		charts.WithXAxisOpts(opts.XAxis{Name: "s", NameLocation: "middle", NameGap: 25}),
		charts.WithYAxisOpts(opts.YAxis{Name: "count"}),
	)

	step := charts.WithLineChartOpts(opts.LineChart{Step: "end", ShowSymbol: opts.Bool(false)})
	line.SetXAxis(xAxis(points)).
		AddSeries("reps", series(points, func(p Point) int { return p.Reps }), step).
		AddSeries("hops", series(points, func(p Point) int { return p.Hops }), step).
		AddSeries("crossovers", series(points, func(p Point) int { return p.Crossovers }), step).
		AddSeries("dribbles", series(points, func(p Point) int { return p.PoundLow + p.PoundHip + p.PoundHigh }), step)
	return line
}

func zones(s *drill.Summary) *charts.Bar {
	var low, hip, high int
	if s != nil {
		low, hip, high = s.LowDribbles, s.HipDribbles, s.HighDribbles
	}

	bar := charts.NewBar()
	bar.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{Width: "100%", Height: "320px"}),
		charts.WithTitleOpts(opts.Title{Title: "Dribble zones"}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
	)
	bar.SetXAxis([]string{string(drill.ZoneLow), string(drill.ZoneHip), string(drill.ZoneHigh)}).
		AddSeries("frames", []opts.BarData{{Value: low}, {Value: hip}, {Value: high}},
			charts.WithLabelOpts(opts.Label{Show: opts.Bool(true), Position: "top"}),
		)
	return bar
}

func lateral(points []Point) *charts.Line {
	data := make([]opts.LineData, len(points))
	for i, p := range points {
		data[i] = opts.LineData{Value: fmt.Sprintf("%.1f", p.LateralPx)}
	}

	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{Width: "100%", Height: "320px"}),
		charts.WithTitleOpts(opts.Title{Title: "Lateral travel"}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true), Trigger: "axis"}),
		charts.WithYAxisOpts(opts.YAxis{Name: "px"}),
	)
	line.SetXAxis(xAxis(points)).
		AddSeries("lateral", data, charts.WithLineChartOpts(opts.LineChart{ShowSymbol: opts.Bool(false)}))
	return line
}
