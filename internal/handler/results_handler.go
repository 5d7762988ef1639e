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

// ResultsHandler exposes aggregated results and decision reports
type ResultsHandler struct {
	results *service.ResultsService
	reports *service.ReportService
	logger  *logger.Logger
}

func NewResultsHandler(results *service.ResultsService, reports *service.ReportService, log *logger.Logger) *ResultsHandler {
	return &ResultsHandler{
		results: results,
		reports: reports,
		logger:  log,
	}
}

// GetResults handles GET /api/v1/polls/{pollID}/results
func (h *ResultsHandler) GetResults(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	pollID := chi.URLParam(r, "pollID")

	stats, err := h.results.ComputeStatistics(ctx, pollID, callerID(r))
	if err != nil {
		respondError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, stats)
}

// GenerateReport handles POST /api/v1/polls/{pollID}/reports
func (h *ResultsHandler) GenerateReport(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	pollID := chi.URLParam(r, "pollID")

	var req domain.GenerateReportRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, errors.NewValidationError("invalid request body", nil))
		return
	}

	report, err := h.reports.GenerateReport(ctx, callerID(r), pollID, &req)
	if err != nil {
		respondError(w, err)
		return
	}

	respondJSON(w, http.StatusCreated, report)
}

// ListReports handles GET /api/v1/polls/{pollID}/reports
func (h *ResultsHandler) ListReports(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	pollID := chi.URLParam(r, "pollID")

	reports, err := h.reports.ListReports(ctx, pollID)
	if err != nil {
		respondError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"reports": reports,
		"count":   len(reports),
	})
}

// GetReport handles GET /api/v1/reports/{reportID}
func (h *ResultsHandler) GetReport(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	reportID := chi.URLParam(r, "reportID")

	report, err := h.reports.GetReport(ctx, reportID)
	if err != nil {
		respondError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, report)
}
