package main

import (
	"errors"
	"fmt"
	"io"

	"github.com/cheggaaa/pb/v3"

	"github.com/ayusman/courtside/internal/drill"
	"github.com/ayusman/courtside/internal/pose"
	"github.com/ayusman/courtside/internal/report"
)

// replayer feeds records through a fresh engine.
type replayer struct {
	thresholds drill.Thresholds
	recorder   *report.Recorder
	dump       *pose.LogWriter
	bar        *pb.ProgressBar
}

// replay consumes src until io.EOF and finishes the session. Records older
// than the previous one are skipped.
func (r *replayer) replay(src recordSource) (drill.Summary, int, error) {
	engine := drill.NewEngine(r.thresholds)
	frames := 0
	last := int64(-1)

	for {
		rec, err := src.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return drill.Summary{}, frames, err
		}
		if r.bar != nil {
			r.bar.Increment()
		}
		if rec.Frame.TimestampMs < last {
			continue
		}
		last = rec.Frame.TimestampMs

		if r.dump != nil {
			if err := r.dump.Write(rec); err != nil {
				return drill.Summary{}, frames, fmt.Errorf("dump: %w", err)
			}
		}

		state, metrics := engine.Consume(rec.Frame, rec.Ball)
		frames++
		if r.recorder != nil && state == drill.StateActive {
			r.recorder.Add(metrics)
		}
	}

	summary := engine.FinishSession()
	if r.recorder != nil {
		r.recorder.SetSummary(summary)
	}
	return summary, frames, nil
}
