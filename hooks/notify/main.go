// Package main is a macOS hook that shows a notification when a drill
// session starts or ends. It posts the notification via AppleScript.
package main

import (
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"strconv"
	"time"

	"github.com/ayusman/courtside/internal/hook"
)

func main() {
	var req hook.Request
	if err := json.NewDecoder(os.Stdin).Decode(&req); err != nil {
		writeResponse(fmt.Errorf("decode request: %w", err))
		return
	}

	title, body, err := message(&req)
	if err != nil {
		writeResponse(err)
		return
	}
	writeResponse(runAppleScript(notificationScript(title, body)))
}

// message builds the notification text for an event.
func message(req *hook.Request) (title, body string, err error) {
	switch req.Event {
	case hook.EventSessionStart:
		return "Courtside", "Drill started. Step into frame.", nil
	case hook.EventSessionEnd:
		if req.Result == nil {
			return "", "", fmt.Errorf("%s without result", req.Event)
		}
		s := req.Result.Summary
		d := time.Duration(s.DurationMs) * time.Millisecond
		return "Drill complete", fmt.Sprintf("%d reps in %s: %d hops, %d crossovers, %d/%d/%d low/hip/high dribbles",
			s.Reps, d.Round(time.Second), s.Hops, s.CrossoverCount, s.LowDribbles, s.HipDribbles, s.HighDribbles), nil
	default:
		return "", "", fmt.Errorf("unknown event: %s", req.Event)
	}
}

func notificationScript(title, body string) string {
	return fmt.Sprintf("display notification %s with title %s", strconv.Quote(body), strconv.Quote(title))
}

func writeResponse(err error) {
	resp := hook.Response{Success: err == nil}
	if err != nil {
		resp.Error = err.Error()
	}
	json.NewEncoder(os.Stdout).Encode(resp)
}

func runAppleScript(script string) error {
	cmd := exec.Command("osascript", "-e", script)
	output, err := cmd.CombinedOutput()
	if err != nil {
		return fmt.Errorf("%w: %s", err, string(output))
	}
	return nil
}
