package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/ayusman/courtside/internal/drill"
	"github.com/ayusman/courtside/internal/store"
)

// ProfileHandler handles HTTP requests for drill profiles.
type ProfileHandler struct {
	store *store.Store
}

// NewProfileHandler creates a new ProfileHandler with the given store.
func NewProfileHandler(s *store.Store) *ProfileHandler {
	return &ProfileHandler{store: s}
}

// ServeHTTP routes /api/profiles, /api/profiles/{id} and
// /api/profiles/{id}/activate.
func (h *ProfileHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	path := strings.TrimPrefix(r.URL.Path, "/api/profiles")
	path = strings.Trim(path, "/")

	if path == "" {
		switch r.Method {
		case http.MethodGet:
			h.list(w, r)
		case http.MethodPost:
			h.create(w, r)
		default:
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		}
		return
	}

	if id, ok := strings.CutSuffix(path, "/activate"); ok {
		if r.Method != http.MethodPost {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}
		h.activate(w, r, id)
		return
	}
	if strings.Contains(path, "/") {
		http.NotFound(w, r)
		return
	}

	switch r.Method {
	case http.MethodGet:
		h.get(w, r, path)
	case http.MethodPut:
		h.update(w, r, path)
	case http.MethodDelete:
		h.delete(w, r, path)
	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

// thresholdsPatch holds optional threshold overrides.
type thresholdsPatch struct {
	StanceAngleDeg        *float64 `json:"stance_angle_deg"`
	LateralToleranceRatio *float64 `json:"lateral_tolerance_ratio"`
	HopVelocityPxPerSec   *float64 `json:"hop_velocity_px_s"`
	MinBallConfidence     *float64 `json:"min_ball_confidence"`
	StrikeRadiusPx        *float64 `json:"strike_radius_px"`
}

func (p *thresholdsPatch) apply(t drill.Thresholds) drill.Thresholds {
	if p == nil {
		return t
	}
	set := func(dst *float64, src *float64) {
		if src != nil {
			*dst = *src
		}
	}
	set(&t.StanceAngleDeg, p.StanceAngleDeg)
	set(&t.LateralToleranceRatio, p.LateralToleranceRatio)
	set(&t.HopVelocityPxPerSec, p.HopVelocityPxPerSec)
	set(&t.MinBallConfidence, p.MinBallConfidence)
	set(&t.StrikeRadiusPx, p.StrikeRadiusPx)
	return t
}

type profileRequest struct {
	Name       string           `json:"name"`
	Thresholds *thresholdsPatch `json:"thresholds"`
}

type profileResponse struct {
	ID         string           `json:"id"`
	Name       string           `json:"name"`
	Thresholds drill.Thresholds `json:"thresholds"`
	Active     bool             `json:"active"`
	CreatedAt  string           `json:"created_at"`
	UpdatedAt  string           `json:"updated_at"`
}

type listProfilesResponse struct {
	Profiles []profileResponse `json:"profiles"`
}

func toResponse(p *store.Profile, activeID string) profileResponse {
	return profileResponse{
		ID:         p.ID,
		Name:       p.Name,
		Thresholds: p.Thresholds,
		Active:     p.ID == activeID,
		CreatedAt:  p.CreatedAt.Format(time.RFC3339),
		UpdatedAt:  p.UpdatedAt.Format(time.RFC3339),
	}
}

func (h *ProfileHandler) activeID() string {
	id, err := h.store.Settings().Get(store.KeyActiveProfile)
	if err != nil {
		return ""
	}
	return id
}

func (h *ProfileHandler) list(w http.ResponseWriter, r *http.Request) {
	profiles, err := h.store.Profiles().List()
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list profiles")
		return
	}

	active := h.activeID()
	resp := listProfilesResponse{Profiles: make([]profileResponse, 0, len(profiles))}
	for _, p := range profiles {
		resp.Profiles = append(resp.Profiles, toResponse(p, active))
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *ProfileHandler) get(w http.ResponseWriter, r *http.Request, id string) {
	p, err := h.store.Profiles().GetByID(id)
	if err != nil {
		h.storeError(w, err, "Failed to get profile")
		return
	}
	writeJSON(w, http.StatusOK, toResponse(p, h.activeID()))
}

func (h *ProfileHandler) create(w http.ResponseWriter, r *http.Request) {
	var req profileRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON")
		return
	}
	if strings.TrimSpace(req.Name) == "" {
		writeError(w, http.StatusBadRequest, "Name is required")
		return
	}

	p := &store.Profile{
		ID:         uuid.New().String(),
		Name:       req.Name,
		Thresholds: req.Thresholds.apply(drill.DefaultThresholds()),
	}
	if err := p.Thresholds.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.store.Profiles().Create(p); err != nil {
		h.storeError(w, err, "Failed to create profile")
		return
	}
	writeJSON(w, http.StatusCreated, toResponse(p, h.activeID()))
}

func (h *ProfileHandler) update(w http.ResponseWriter, r *http.Request, id string) {
	p, err := h.store.Profiles().GetByID(id)
	if err != nil {
		h.storeError(w, err, "Failed to get profile")
		return
	}

	var req profileRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	if req.Name != "" {
		p.Name = req.Name
	}
	p.Thresholds = req.Thresholds.apply(p.Thresholds)
	if err := p.Thresholds.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.store.Profiles().Update(p); err != nil {
		h.storeError(w, err, "Failed to update profile")
		return
	}
	writeJSON(w, http.StatusOK, toResponse(p, h.activeID()))
}

func (h *ProfileHandler) delete(w http.ResponseWriter, r *http.Request, id string) {
	if err := h.store.Profiles().Delete(id); err != nil {
		h.storeError(w, err, "Failed to delete profile")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *ProfileHandler) activate(w http.ResponseWriter, r *http.Request, id string) {
	if err := h.store.SetActiveProfile(id); err != nil {
		h.storeError(w, err, "Failed to activate profile")
		return
	}
	p, err := h.store.Profiles().GetByID(id)
	if err != nil {
		h.storeError(w, err, "Failed to get profile")
		return
	}
	writeJSON(w, http.StatusOK, toResponse(p, id))
}

func (h *ProfileHandler) storeError(w http.ResponseWriter, err error, fallback string) {
	switch {
	case errors.Is(err, store.ErrNotFound):
		writeError(w, http.StatusNotFound, "Profile not found")
	case errors.Is(err, store.ErrDuplicateName):
		writeError(w, http.StatusConflict, "Profile name already exists")
	default:
		writeError(w, http.StatusInternalServerError, fallback)
	}
}
