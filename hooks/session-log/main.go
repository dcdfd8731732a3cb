// Package main is a hook that appends every finished session to a CSV file.
package main

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"time"

	"github.com/ayusman/courtside/internal/app"
	"github.com/ayusman/courtside/internal/hook"
)

// Config is read from the "config" block of hook.json.
type Config struct {
	File string `json:"file"`
}

var header = []string{
	"session_id", "profile_id", "started_at", "finished_at", "duration_ms",
	"reps", "hops", "crossovers", "low_dribbles", "hip_dribbles", "high_dribbles",
}

func main() {
	var req hook.Request
	if err := json.NewDecoder(os.Stdin).Decode(&req); err != nil {
		writeResponse(fmt.Errorf("decode request: %w", err))
		return
	}
	writeResponse(handle(&req))
}

func handle(req *hook.Request) error {
	if req.Event != hook.EventSessionEnd || req.Result == nil {
		return fmt.Errorf("unsupported event: %s", req.Event)
	}

	cfg := Config{File: "sessions.csv"}
	if len(req.Config) > 0 {
		if err := json.Unmarshal(req.Config, &cfg); err != nil {
			return fmt.Errorf("parse config: %w", err)
		}
	}

	f, err := os.OpenFile(cfg.File, os.O_CREATE|os.O_APPEND|os.O_RDWR, 0o644)
	if err != nil {
		return err
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return err
	}
	return appendRow(f, info.Size() == 0, req.Result)
}

func appendRow(w io.Writer, withHeader bool, r *app.SessionResult) error {
	cw := csv.NewWriter(w)
	if withHeader {
		if err := cw.Write(header); err != nil {
			return err
		}
	}

	s := r.Summary
	row := []string{
		r.SessionID,
		r.ProfileID,
		r.StartedAt.UTC().Format(time.RFC3339),
		r.FinishedAt.UTC().Format(time.RFC3339),
		strconv.FormatInt(s.DurationMs, 10),
		strconv.Itoa(s.Reps),
		strconv.Itoa(s.Hops),
		strconv.Itoa(s.CrossoverCount),
		strconv.Itoa(s.LowDribbles),
		strconv.Itoa(s.HipDribbles),
		strconv.Itoa(s.HighDribbles),
	}
	if err := cw.Write(row); err != nil {
		return err
	}
	cw.Flush()
	return cw.Error()
}

func writeResponse(err error) {
	resp := hook.Response{Success: err == nil}
	if err != nil {
		resp.Error = err.Error()
	}
	if encErr := json.NewEncoder(os.Stdout).Encode(resp); encErr != nil {
		fmt.Fprintln(os.Stderr, errors.Join(err, encErr))
	}
}
