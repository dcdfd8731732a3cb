package main

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/ayusman/courtside/internal/capture"
	"github.com/ayusman/courtside/internal/config"
	"github.com/ayusman/courtside/internal/detector"
	"github.com/ayusman/courtside/internal/pose"
)

// recordSource yields frame records in order and io.EOF at the end.
type recordSource interface {
	Next() (pose.Record, error)
	// Total is the expected number of records, or 0 when unknown.
	Total() int
	Close() error
}

// logSource replays a decoded frame log.
type logSource struct {
	records []pose.Record
	next    int
}

func openLog(path string) (*logSource, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open log: %w", err)
	}
	defer f.Close()

	records, err := pose.NewLogReader(f).ReadAll()
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return &logSource{records: records}, nil
}

func (s *logSource) Next() (pose.Record, error) {
	if s.next >= len(s.records) {
		return pose.Record{}, io.EOF
	}
	rec := s.records[s.next]
	s.next++
	return rec, nil
}

func (s *logSource) Total() int   { return len(s.records) }
func (s *logSource) Close() error { return nil }

// videoSource runs the detectors over every frame of a video file.
type videoSource struct {
	video *capture.VideoFile
	pose  detector.PoseDetector
	ball  detector.BallDetector
}

func openVideo(cfg *config.Config, path string, rotation int) (*videoSource, error) {
	video, err := capture.NewVideoFile(path, rotation, false)
	if err != nil {
		return nil, err
	}
	if err := video.Open(); err != nil {
		return nil, err
	}

	poseDet, ballDet, err := detector.FromConfig(cfg.Detector)
	if err != nil {
		video.Close()
		return nil, err
	}
	return &videoSource{video: video, pose: poseDet, ball: ballDet}, nil
}

func (s *videoSource) Next() (pose.Record, error) {
	for {
		f, err := s.video.Read()
		if errors.Is(err, capture.ErrEndOfStream) {
			return pose.Record{}, io.EOF
		}
		if err != nil {
			return pose.Record{}, err
		}

		rec, err := s.detect(f)
		f.Close()
		if err != nil {
			slog.Warn("detection failed, skipping frame", "ts", f.TimestampMs, "error", err)
			continue
		}
		return rec, nil
	}
}

func (s *videoSource) detect(f *capture.Frame) (pose.Record, error) {
	landmarks, err := s.pose.Detect(f.Image)
	if err != nil {
		return pose.Record{}, fmt.Errorf("pose: %w", err)
	}
	ball, err := s.ball.Detect(f.Image)
	if err != nil {
		return pose.Record{}, fmt.Errorf("ball: %w", err)
	}
	if ball != nil {
		ball.TimestampMs = f.TimestampMs
	}

	return pose.Record{
		Frame: pose.Frame{
			TimestampMs: f.TimestampMs,
			Width:       f.Width,
			Height:      f.Height,
			Rotation:    f.Rotation,
			Front:       f.Front,
			Points:      landmarks,
		},
		Ball: ball,
	}, nil
}

func (s *videoSource) Total() int { return s.video.FrameCount() }

func (s *videoSource) Close() error {
	return errors.Join(s.pose.Close(), s.ball.Close(), s.video.Close())
}
