package handler

import (
	"encoding/json"
	"net/http"

	"chamber-v2/internal/domain"
	"chamber-v2/internal/service"
	"chamber-v2/pkg/errors"
	"chamber-v2/pkg/logger"

	"github.com/go-chi/chi/v5"
)

// VotingHandler exposes ballot casting over HTTP
type VotingHandler struct {
	voting *service.VotingService
	logger *logger.Logger
}

func NewVotingHandler(voting *service.VotingService, log *logger.Logger) *VotingHandler {
	return &VotingHandler{
		voting: voting,
		logger: log,
	}
}

// Cast handles POST /api/v1/polls/{pollID}/vote
func (h *VotingHandler) Cast(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	pollID := chi.URLParam(r, "pollID")

	var req domain.CastVoteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, errors.NewValidationError("invalid request body", nil))
		return
	}

	result, err := h.voting.CastVote(ctx, pollID, callerID(r), &req)
	if err != nil {
		respondError(w, err)
		return
	}

	respondJSON(w, http.StatusCreated, result)
}

// Status handles GET /api/v1/polls/{pollID}/vote/status. It reports whether
// the caller has voted, never what was voted.
func (h *VotingHandler) Status(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	pollID := chi.URLParam(r, "pollID")

	voted, err := h.voting.HasVoted(ctx, pollID, callerID(r))
	if err != nil {
		respondError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"poll_id":   pollID,
		"has_voted": voted,
	})
}
