package handler

import (
	"encoding/json"
	"net/http"
	"strconv"

	"chamber-v2/internal/domain"
	"chamber-v2/internal/service"
	"chamber-v2/pkg/errors"
	"chamber-v2/pkg/logger"

	"github.com/go-chi/chi/v5"
)

// PollHandler exposes the poll lifecycle over HTTP
type PollHandler struct {
	lifecycle *service.LifecycleService
	logger    *logger.Logger
}

func NewPollHandler(lifecycle *service.LifecycleService, log *logger.Logger) *PollHandler {
	return &PollHandler{
		lifecycle: lifecycle,
		logger:    log,
	}
}

// Create handles POST /api/v1/polls
func (h *PollHandler) Create(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req domain.CreatePollRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, errors.NewValidationError("invalid request body", nil))
		return
	}

	detail, err := h.lifecycle.CreatePoll(ctx, callerID(r), &req)
	if err != nil {
		respondError(w, err)
		return
	}

	respondJSON(w, http.StatusCreated, detail)
}

// List handles GET /api/v1/polls
func (h *PollHandler) List(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			respondError(w, errors.NewValidationError("limit must be a non-negative integer", nil))
			return
		}
		limit = n
	}

	polls, err := h.lifecycle.ListPolls(ctx, limit)
	if err != nil {
		respondError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"polls": polls,
		"count": len(polls),
	})
}

// Get handles GET /api/v1/polls/{pollID}
func (h *PollHandler) Get(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	pollID := chi.URLParam(r, "pollID")

	detail, err := h.lifecycle.GetPoll(ctx, pollID)
	if err != nil {
		respondError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, detail)
}

// Update handles PUT /api/v1/polls/{pollID}
func (h *PollHandler) Update(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	pollID := chi.URLParam(r, "pollID")

	var req domain.UpdatePollRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, errors.NewValidationError("invalid request body", nil))
		return
	}

	detail, err := h.lifecycle.UpdatePoll(ctx, callerID(r), pollID, &req)
	if err != nil {
		respondError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, detail)
}

// ListVoters handles GET /api/v1/voters. It exposes the current roster of
// eligible members, never anything about their ballots.
func (h *PollHandler) ListVoters(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	voters, err := h.lifecycle.ListEligibleVoters(ctx)
	if err != nil {
		respondError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"voters": voters,
		"count":  len(voters),
	})
}

// Deactivate handles POST /api/v1/polls/{pollID}/deactivate
func (h *PollHandler) Deactivate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	pollID := chi.URLParam(r, "pollID")

	detail, err := h.lifecycle.Deactivate(ctx, callerID(r), pollID)
	if err != nil {
		respondError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, detail)
}
