package handler

import (
	"net/http"
	"strconv"
	"time"

	"chamber-v2/internal/domain"
	"chamber-v2/internal/service"
	"chamber-v2/pkg/errors"
	"chamber-v2/pkg/logger"
)

// AuditHandler exposes the append-only audit trail for review
type AuditHandler struct {
	audit  *service.AuditService
	logger *logger.Logger
}

func NewAuditHandler(audit *service.AuditService, log *logger.Logger) *AuditHandler {
	return &AuditHandler{
		audit:  audit,
		logger: log,
	}
}

// Query handles GET /api/v1/audit. Filters: actor_id, action, poll_id,
// from, to (RFC 3339), limit.
func (h *AuditHandler) Query(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	q := r.URL.Query()

	filter := &domain.AuditFilter{
		ActorID: q.Get("actor_id"),
		Action:  q.Get("action"),
		PollID:  q.Get("poll_id"),
	}

	if raw := q.Get("from"); raw != "" {
		t, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			respondError(w, errors.NewValidationError("from must be RFC 3339", nil))
			return
		}
		filter.From = t
	}
	if raw := q.Get("to"); raw != "" {
		t, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			respondError(w, errors.NewValidationError("to must be RFC 3339", nil))
			return
		}
		filter.To = t
	}
	if raw := q.Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			respondError(w, errors.NewValidationError("limit must be a non-negative integer", nil))
			return
		}
		filter.Limit = n
	}

	records, err := h.audit.Query(ctx, filter)
	if err != nil {
		respondError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"records": records,
		"count":   len(records),
	})
}
