package domain

import "time"

// ReportKind selects what a generated report covers
type ReportKind string

const (
	ReportKindPollResults      ReportKind = "poll_results"
	ReportKindDecisionAnalysis ReportKind = "decision_analysis"
	ReportKindPeriodicSummary  ReportKind = "periodic_summary"
)

// ValidReportKind reports whether k is a known report kind
func ValidReportKind(k ReportKind) bool {
	switch k {
	case ReportKindPollResults, ReportKindDecisionAnalysis, ReportKindPeriodicSummary:
		return true
	}
	return false
}

// DecisionReport is a rendered markdown report. Immutable once stored.
// PollID is nil for periodic summaries spanning multiple polls.
type DecisionReport struct {
	ID           string     `json:"id"`
	PollID       *string    `json:"poll_id,omitempty"`
	Kind         ReportKind `json:"report_kind"`
	Title        string     `json:"title"`
	GeneratedBy  string     `json:"generated_by"`
	Content      string     `json:"content"`
	Confidential bool       `json:"confidential"`
	CreatedAt    time.Time  `json:"created_at"`
}

// GenerateReportRequest is the inbound payload of a report generation call
type GenerateReportRequest struct {
	Kind         ReportKind `json:"report_kind"`
	Confidential bool       `json:"confidential"`
	// PeriodStart/PeriodEnd bound periodic summaries; ignored for the
	// per-poll kinds.
	PeriodStart time.Time `json:"period_start,omitempty"`
	PeriodEnd   time.Time `json:"period_end,omitempty"`
}
