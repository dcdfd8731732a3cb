package pose

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
)

// Record pairs a pose frame with the ball observation seen on it.
type Record struct {
	Frame Frame            `json:"frame"`
	Ball  *BallObservation `json:"ball,omitempty"`
}

// LogReader decodes a JSON-lines frame log, one Record per line.
type LogReader struct {
	scanner *bufio.Scanner
	line    int
}

// NewLogReader creates a LogReader over r.
func NewLogReader(r io.Reader) *LogReader {
	s := bufio.NewScanner(r)
	s.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	return &LogReader{scanner: s}
}

// Next returns the next record or io.EOF when the log is exhausted.
// Blank lines are skipped.
func (r *LogReader) Next() (Record, error) {
	for r.scanner.Scan() {
		r.line++
		data := r.scanner.Bytes()
		if len(data) == 0 {
			continue
		}
		var rec Record
		if err := json.Unmarshal(data, &rec); err != nil {
			return Record{}, fmt.Errorf("parse line %d: %w", r.line, err)
		}
		return rec, nil
	}
	if err := r.scanner.Err(); err != nil {
		return Record{}, fmt.Errorf("read line %d: %w", r.line+1, err)
	}
	return Record{}, io.EOF
}

// ReadAll decodes every remaining record.
func (r *LogReader) ReadAll() ([]Record, error) {
	var out []Record
	for {
		rec, err := r.Next()
		if err == io.EOF {
			return out, nil
		}
		if err != nil {
			return out, err
		}
		out = append(out, rec)
	}
}

// LogWriter encodes records as JSON lines.
type LogWriter struct {
	enc *json.Encoder
}

// NewLogWriter creates a LogWriter on w.
func NewLogWriter(w io.Writer) *LogWriter {
	return &LogWriter{enc: json.NewEncoder(w)}
}

// Write appends one record.
func (w *LogWriter) Write(rec Record) error {
	if err := w.enc.Encode(rec); err != nil {
		return fmt.Errorf("encode record: %w", err)
	}
	return nil
}
