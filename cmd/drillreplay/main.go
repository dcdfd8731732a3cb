// Command drillreplay analyzes a recorded drill offline. The input is either
// a video file, which goes through the pose and ball detectors, or a JSON
// lines frame log as written by -dump.
package main

import (
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/cheggaaa/pb/v3"

	"github.com/ayusman/courtside/internal/config"
	"github.com/ayusman/courtside/internal/drill"
	"github.com/ayusman/courtside/internal/pose"
	"github.com/ayusman/courtside/internal/report"
	"github.com/ayusman/courtside/internal/store"
)

func main() {
	configPath := flag.String("config", "", "Path to configuration file")
	profile := flag.String("profile", "", "Threshold profile name or id from the store")
	reportPath := flag.String("report", "", "Write an HTML report to this file")
	dumpPath := flag.String("dump", "", "Write the analyzed frames as a JSON lines log")
	rotation := flag.Int("rotation", 0, "Clockwise rotation applied to video frames")
	quiet := flag.Bool("quiet", false, "Hide the progress bar")
	debug := flag.Bool("debug", false, "Enable debug logging")
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "usage: drillreplay [flags] <video|frames.jsonl>\n")
		flag.PrintDefaults()
	}
	flag.Parse()

	level := slog.LevelWarn
	if *debug {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))

	if flag.NArg() != 1 {
		flag.Usage()
		os.Exit(2)
	}

	opts := options{
		input:      flag.Arg(0),
		profile:    *profile,
		reportPath: *reportPath,
		dumpPath:   *dumpPath,
		rotation:   *rotation,
		progress:   !*quiet,
	}
	if err := run(*configPath, opts, os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "drillreplay: %v\n", err)
		os.Exit(1)
	}
}

type options struct {
	input      string
	profile    string
	reportPath string
	dumpPath   string
	rotation   int
	progress   bool
}

// result is what drillreplay prints.
type result struct {
	Input      string           `json:"input"`
	Frames     int              `json:"frames"`
	Thresholds drill.Thresholds `json:"thresholds"`
	Summary    drill.Summary    `json:"summary"`
}

func run(configPath string, opts options, out io.Writer) error {
	cfg := config.Default()
	if configPath != "" {
		var err error
		if cfg, err = config.Load(configPath); err != nil {
			return err
		}
	}

	thresholds, err := resolveThresholds(cfg, opts.profile)
	if err != nil {
		return err
	}

	src, err := openInput(cfg, opts)
	if err != nil {
		return err
	}
	defer src.Close()

	r := replayer{
		thresholds: thresholds,
		recorder:   report.NewRecorder(),
	}

	if opts.dumpPath != "" {
		f, err := os.Create(opts.dumpPath)
		if err != nil {
			return fmt.Errorf("create dump: %w", err)
		}
		defer f.Close()
		r.dump = pose.NewLogWriter(f)
	}

	if opts.progress {
		r.bar = pb.New(src.Total()).SetWriter(os.Stderr).Start()
	}

	summary, frames, err := r.replay(src)
	if r.bar != nil {
		r.bar.Finish()
	}
	if err != nil {
		return err
	}

	if opts.reportPath != "" {
		if err := writeReport(r.recorder, opts.reportPath, filepath.Base(opts.input)); err != nil {
			return err
		}
	}

	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(result{
		Input:      opts.input,
		Frames:     frames,
		Thresholds: thresholds,
		Summary:    summary,
	})
}

// resolveThresholds applies a stored profile over the configured thresholds.
func resolveThresholds(cfg *config.Config, profile string) (drill.Thresholds, error) {
	if profile == "" {
		t := cfg.Thresholds()
		return t, t.Validate()
	}

	st, err := store.New(cfg.Store.Path)
	if err != nil {
		return drill.Thresholds{}, fmt.Errorf("open store: %w", err)
	}
	defer st.Close()

	p, err := st.Profiles().GetByName(profile)
	if errors.Is(err, store.ErrNotFound) {
		p, err = st.Profiles().GetByID(profile)
	}
	if err != nil {
		return drill.Thresholds{}, fmt.Errorf("profile %s: %w", profile, err)
	}
	return p.Thresholds, p.Thresholds.Validate()
}

func openInput(cfg *config.Config, opts options) (recordSource, error) {
	switch strings.ToLower(filepath.Ext(opts.input)) {
	case ".jsonl", ".ndjson", ".json":
		return openLog(opts.input)
	default:
		return openVideo(cfg, opts.input, opts.rotation)
	}
}

func writeReport(rec *report.Recorder, path, title string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create report: %w", err)
	}
	if err := rec.Render(f, title); err != nil {
		f.Close()
		return fmt.Errorf("render report: %w", err)
	}
	return f.Close()
}
