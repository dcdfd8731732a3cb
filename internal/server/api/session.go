package api

import (
	"errors"
	"net/http"

	"github.com/ayusman/courtside/internal/app"
	"github.com/ayusman/courtside/internal/store"
)

// SessionController is the part of the app the session endpoints drive.
type SessionController interface {
	StartSession(profileID string) (app.Snapshot, error)
	FinishSession() (app.SessionResult, error)
	Latest() (app.Snapshot, bool)
	SessionActive() bool
	Stats() app.Stats
}

// SessionHandler serves /api/session, /api/session/start and
// /api/session/finish.
type SessionHandler struct {
	ctl SessionController
}

// NewSessionHandler creates a SessionHandler over ctl.
func NewSessionHandler(ctl SessionController) *SessionHandler {
	return &SessionHandler{ctl: ctl}
}

type sessionResponse struct {
	Active   bool          `json:"active"`
	Snapshot *app.Snapshot `json:"snapshot"`
	Stats    app.Stats     `json:"stats"`
}

type startRequest struct {
	ProfileID string `json:"profile_id"`
}

func (h *SessionHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	switch r.URL.Path {
	case "/api/session":
		if r.Method != http.MethodGet {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}
		h.status(w)
	case "/api/session/start":
		if r.Method != http.MethodPost {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}
		h.start(w, r)
	case "/api/session/finish":
		if r.Method != http.MethodPost {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}
		h.finish(w)
	default:
		http.NotFound(w, r)
	}
}

func (h *SessionHandler) status(w http.ResponseWriter) {
	resp := sessionResponse{Active: h.ctl.SessionActive(), Stats: h.ctl.Stats()}
	if snap, ok := h.ctl.Latest(); ok {
		resp.Snapshot = &snap
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *SessionHandler) start(w http.ResponseWriter, r *http.Request) {
	var req startRequest
	if err := decode(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	snap, err := h.ctl.StartSession(req.ProfileID)
	switch {
	case err == nil:
		writeJSON(w, http.StatusCreated, snap)
	case errors.Is(err, app.ErrSessionActive):
		writeError(w, http.StatusConflict, "Session already active")
	case errors.Is(err, store.ErrNotFound):
		writeError(w, http.StatusNotFound, "Profile not found")
	default:
		writeError(w, http.StatusInternalServerError, "Failed to start session")
	}
}

func (h *SessionHandler) finish(w http.ResponseWriter) {
	res, err := h.ctl.FinishSession()
	switch {
	case err == nil:
		writeJSON(w, http.StatusOK, res)
	case errors.Is(err, app.ErrNoSession):
		writeError(w, http.StatusConflict, "No active session")
	default:
		writeError(w, http.StatusInternalServerError, "Failed to finish session")
	}
}
