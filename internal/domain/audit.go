package domain

import "time"

// Audit actions recorded by the chamber. Security-relevant rejections get
// their own actions so they can be filtered during review.
const (
	AuditActionPollCreated     = "poll_created"
	AuditActionPollUpdated     = "poll_updated"
	AuditActionPollDeactivated = "poll_deactivated"
	AuditActionPollAutoClosed  = "poll_auto_completed"
	AuditActionVoteCast        = "vote_cast"
	AuditActionVoteRejected    = "vote_rejected"
	AuditActionReportGenerated = "report_generated"
	AuditActionCryptoFailure   = "crypto_failure"
)

// AuditRecord is one line of the append-only action log. Records are never
// updated or deleted; the descriptions never contain ballot content.
type AuditRecord struct {
	ID          int64     `json:"id"`
	ActorID     string    `json:"actor_id"`
	Action      string    `json:"action"`
	PollID      *string   `json:"poll_id,omitempty"`
	Description string    `json:"description"`
	CreatedAt   time.Time `json:"created_at"`
}

// AuditFilter narrows an audit log query. Zero values mean "no constraint".
type AuditFilter struct {
	ActorID string
	Action  string
	PollID  string
	From    time.Time
	To      time.Time
	Limit   int
}
