// Package hook runs external programs when drill sessions start and end.
package hook

import (
	"encoding/json"
	"slices"

	"github.com/ayusman/courtside/internal/app"
)

// Events a hook can subscribe to.
const (
	EventSessionStart = "session_start"
	EventSessionEnd   = "session_end"
)

// ManifestFile is the name of the manifest inside a hook directory.
const ManifestFile = "hook.json"

// Manifest describes a hook's metadata and the events it handles.
type Manifest struct {
	Name        string   `json:"name"`
	Version     string   `json:"version"`
	Description string   `json:"description"`
	Executable  string   `json:"executable"`
	Events      []string `json:"events"`
	// Config is passed through to the hook untouched.
	Config json.RawMessage `json:"config,omitempty"`
}

// Request is written to the hook's stdin as JSON.
type Request struct {
	Event    string             `json:"event"`
	Config   json.RawMessage    `json:"config,omitempty"`
	Snapshot *app.Snapshot      `json:"snapshot,omitempty"`
	Result   *app.SessionResult `json:"result,omitempty"`
}

// Response is read from the hook's stdout.
type Response struct {
	Success bool            `json:"success"`
	Error   string          `json:"error,omitempty"`
	Data    json.RawMessage `json:"data,omitempty"`
}

// Hook is a discovered hook with its manifest and location.
type Hook struct {
	Manifest   Manifest
	Path       string
	Executable string
}

// Handles reports whether the hook subscribed to event.
func (h *Hook) Handles(event string) bool {
	return slices.Contains(h.Manifest.Events, event)
}
