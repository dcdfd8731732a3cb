package hook

import (
	"encoding/json"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/ayusman/courtside/internal/app"
	"github.com/ayusman/courtside/internal/drill"
)

// recordingHook installs a hook that appends each request to requests.log
// in its own directory.
func recordingHook(t *testing.T, root, name string, events ...string) string {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("skipping test on Windows")
	}

	dir := writeManifest(t, root, Manifest{Name: name, Executable: "run.sh", Events: events})
	script := "#!/bin/sh\ncat >> requests.log\necho >> requests.log\necho '{\"success\":true}'\n"
	if err := os.WriteFile(filepath.Join(dir, "run.sh"), []byte(script), 0o755); err != nil {
		t.Fatal(err)
	}
	return filepath.Join(dir, "requests.log")
}

func readRequests(t *testing.T, path string) []Request {
	t.Helper()

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		t.Fatal(err)
	}

	var out []Request
	for _, line := range strings.Split(strings.TrimSpace(string(data)), "\n") {
		if line == "" {
			continue
		}
		var req Request
		if err := json.Unmarshal([]byte(line), &req); err != nil {
			t.Fatalf("bad request line %q: %v", line, err)
		}
		out = append(out, req)
	}
	return out
}

func TestRunner_SessionEvents(t *testing.T) {
	root := t.TempDir()
	endLog := recordingHook(t, root, "on-end", EventSessionEnd)
	startLog := recordingHook(t, root, "on-start", EventSessionStart)

	m := NewManager(root)
	if err := m.Discover(); err != nil {
		t.Fatal(err)
	}
	r := NewRunner(m, NewExecutor(5*time.Second))
	defer r.Close()

	var l app.Listener = r

	// Repeated snapshots of one session fire session_start once.
	l.OnSnapshot(app.Snapshot{SessionID: "s1", State: drill.StateReady})
	l.OnSnapshot(app.Snapshot{SessionID: "s1", State: drill.StateActive})
	l.OnSnapshot(app.Snapshot{SessionID: "s1", State: drill.StateActive})
	r.Wait()

	l.OnSessionEnd(app.SessionResult{SessionID: "s1", Summary: drill.Summary{Reps: 3, Hops: 3}})
	l.OnSnapshot(app.Snapshot{SessionID: "s2", State: drill.StateReady})
	r.Wait()

	starts := readRequests(t, startLog)
	if len(starts) != 2 {
		t.Fatalf("expected 2 session_start requests, got %d", len(starts))
	}
	if starts[0].Snapshot == nil || starts[0].Snapshot.SessionID != "s1" || starts[1].Snapshot.SessionID != "s2" {
		t.Errorf("unexpected start requests: %+v", starts)
	}

	ends := readRequests(t, endLog)
	if len(ends) != 1 {
		t.Fatalf("expected 1 session_end request, got %d", len(ends))
	}
	if ends[0].Result == nil || ends[0].Result.Summary.Reps != 3 {
		t.Errorf("unexpected end request: %+v", ends[0])
	}
}

func TestRunner_NoHooks(t *testing.T) {
	m := NewManager(t.TempDir())
	if err := m.Discover(); err != nil {
		t.Fatal(err)
	}
	r := NewRunner(m, NewExecutor(time.Second))

	r.OnSnapshot(app.Snapshot{SessionID: "s1"})
	r.OnSessionEnd(app.SessionResult{SessionID: "s1"})

	if err := r.Close(); err != nil {
		t.Fatalf("Close() failed: %v", err)
	}
}

func TestRunner_EventsAfterClose(t *testing.T) {
	root := t.TempDir()
	endLog := recordingHook(t, root, "on-end", EventSessionEnd)

	m := NewManager(root)
	if err := m.Discover(); err != nil {
		t.Fatal(err)
	}
	r := NewRunner(m, NewExecutor(5*time.Second))
	if err := r.Close(); err != nil {
		t.Fatalf("Close() failed: %v", err)
	}

	r.OnSessionEnd(app.SessionResult{SessionID: "s1"})
	r.Wait()

	if got := readRequests(t, endLog); len(got) != 0 {
		t.Errorf("expected no requests after Close, got %d", len(got))
	}
}

func TestRunner_CloseWhileFiring(t *testing.T) {
	root := t.TempDir()
	recordingHook(t, root, "on-end", EventSessionEnd)

	m := NewManager(root)
	if err := m.Discover(); err != nil {
		t.Fatal(err)
	}
	r := NewRunner(m, NewExecutor(5*time.Second))

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 5; j++ {
				r.OnSessionEnd(app.SessionResult{SessionID: "s1"})
			}
		}()
	}

	if err := r.Close(); err != nil {
		t.Fatalf("Close() failed: %v", err)
	}
	wg.Wait()
	r.Wait()
}
