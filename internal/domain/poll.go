package domain

import (
	"strings"
	"time"
)

// PollType determines the ballot shape and the aggregation rule
type PollType string

const (
	PollTypeSingleChoice PollType = "single_choice"
	PollTypeMultiChoice  PollType = "multi_choice"
	PollTypeYesNo        PollType = "yes_no"
	PollTypeRating       PollType = "rating"
	PollTypeFreeText     PollType = "free_text"
	PollTypeRanking      PollType = "ranking"
	PollTypeApproval     PollType = "approval"
	PollTypeBudget       PollType = "budget"
)

// ValidPollType reports whether t is a known poll type
func ValidPollType(t PollType) bool {
	switch t {
	case PollTypeSingleChoice, PollTypeMultiChoice, PollTypeYesNo, PollTypeRating,
		PollTypeFreeText, PollTypeRanking, PollTypeApproval, PollTypeBudget:
		return true
	}
	return false
}

// HasOptions reports whether the poll type carries an option set
func (t PollType) HasOptions() bool {
	switch t {
	case PollTypeSingleChoice, PollTypeMultiChoice, PollTypeYesNo, PollTypeRanking, PollTypeBudget:
		return true
	}
	return false
}

// PollState is the computed lifecycle state of a poll
type PollState string

const (
	PollStateDraft         PollState = "draft"
	PollStateScheduled     PollState = "scheduled"
	PollStateOpen          PollState = "open"
	PollStateCompleted     PollState = "completed"
	PollStateAutoCompleted PollState = "auto_completed"
)

// Approval ballot choices
const (
	ApprovalApprove = "approve"
	ApprovalReject  = "reject"
	ApprovalAbstain = "abstain"
)

// Poll is the aggregation root for options and ballots. Title, description,
// type and voting window are immutable once the first ballot exists; only the
// Active flag may still change, and polls with ballots are never deleted.
type Poll struct {
	ID                 string     `json:"id"`
	Title              string     `json:"title"`
	Description        string     `json:"description"`
	Type               PollType   `json:"poll_type"`
	CreatedBy          string     `json:"created_by"`
	StartsAt           time.Time  `json:"starts_at"`
	EndsAt             time.Time  `json:"ends_at"`
	Active             bool       `json:"active"`
	Quorum             int        `json:"quorum"`
	RequireAllEligible bool       `json:"require_all_eligible"`
	AllowComments      bool       `json:"allow_comments"`
	ResultsPublic      bool       `json:"results_public"`
	CompletedAt        *time.Time `json:"completed_at,omitempty"`
	AutoCompleted      bool       `json:"auto_completed"`
	CreatedAt          time.Time  `json:"created_at"`
}

// Option belongs to exactly one poll. Text is unique within the poll and
// immutable once any ballot exists.
type Option struct {
	ID       string `json:"id"`
	PollID   string `json:"poll_id"`
	Text     string `json:"text"`
	Position int    `json:"position"`
}

// State computes the lifecycle state at the given instant. Terminal
// transitions recorded by the voting engine (CompletedAt) win over the clock,
// so auto-completion survives restarts; an expired window is terminal even
// before any writer has marked the row.
func (p *Poll) State(now time.Time) PollState {
	if p.CompletedAt != nil {
		if p.AutoCompleted {
			return PollStateAutoCompleted
		}
		return PollStateCompleted
	}
	if now.After(p.EndsAt) {
		return PollStateCompleted
	}
	if !p.Active {
		return PollStateDraft
	}
	if now.Before(p.StartsAt) {
		return PollStateScheduled
	}
	return PollStateOpen
}

// IsOpen reports whether ballots are accepted at the given instant
func (p *Poll) IsOpen(now time.Time) bool {
	return p.State(now) == PollStateOpen
}

// IsTerminal reports whether the poll accepts no further ballots, ever
func (p *Poll) IsTerminal(now time.Time) bool {
	state := p.State(now)
	return state == PollStateCompleted || state == PollStateAutoCompleted
}

// CanViewResults reports whether aggregates may be shown at the given instant:
// once the poll is terminal, or at any time for polls with public results.
func (p *Poll) CanViewResults(now time.Time) bool {
	return p.IsTerminal(now) || p.ResultsPublic
}

// CreatePollRequest is the validated input to poll creation. Draft polls are
// created inactive and stay in the draft state until activated through a
// pre-vote update.
type CreatePollRequest struct {
	Title              string    `json:"title"`
	Description        string    `json:"description"`
	Type               PollType  `json:"poll_type"`
	StartsAt           time.Time `json:"starts_at"`
	EndsAt             time.Time `json:"ends_at"`
	Quorum             int       `json:"quorum"`
	RequireAllEligible bool      `json:"require_all_eligible"`
	AllowComments      bool      `json:"allow_comments"`
	ResultsPublic      bool      `json:"results_public"`
	Draft              bool      `json:"draft"`
	Options            []string  `json:"options"`
}

// UpdatePollRequest rewrites poll metadata. Allowed only while no ballot
// exists; Active may flip a draft live or pull a scheduled poll back.
type UpdatePollRequest struct {
	Title              string    `json:"title"`
	Description        string    `json:"description"`
	StartsAt           time.Time `json:"starts_at"`
	EndsAt             time.Time `json:"ends_at"`
	Active             bool      `json:"active"`
	Quorum             int       `json:"quorum"`
	RequireAllEligible bool      `json:"require_all_eligible"`
	AllowComments      bool      `json:"allow_comments"`
	ResultsPublic      bool      `json:"results_public"`
}

// ValidatePollWindow checks the voting window and quorum constraints shared
// by poll creation and pre-vote metadata updates.
func ValidatePollWindow(startsAt, endsAt time.Time, quorum int, now time.Time) error {
	if !endsAt.After(startsAt) {
		return NewPollSpecError("voting window must end after it starts")
	}
	if !endsAt.After(now) {
		return NewPollSpecError("voting window must end in the future")
	}
	if quorum < 0 {
		return NewPollSpecError("quorum cannot be negative")
	}
	return nil
}

// ValidatePollSpec checks a creation request synchronously, before anything is
// persisted. Returns the first violated constraint.
func ValidatePollSpec(req *CreatePollRequest, now time.Time) error {
	if strings.TrimSpace(req.Title) == "" {
		return NewPollSpecError("title is required")
	}
	if !ValidPollType(req.Type) {
		return NewPollSpecError("unknown poll type")
	}
	if err := ValidatePollWindow(req.StartsAt, req.EndsAt, req.Quorum, now); err != nil {
		return err
	}

	if req.Type == PollTypeYesNo {
		// Options are fixed for yes/no polls; the caller supplies none.
		if len(req.Options) != 0 {
			return NewPollSpecError("yes/no polls carry a fixed option pair")
		}
		return nil
	}

	if !req.Type.HasOptions() {
		if len(req.Options) != 0 {
			return NewPollSpecError("poll type does not take options")
		}
		return nil
	}

	if len(req.Options) < 2 {
		return NewPollSpecError("at least two options are required")
	}
	seen := make(map[string]bool, len(req.Options))
	for _, text := range req.Options {
		trimmed := strings.TrimSpace(text)
		if trimmed == "" {
			return NewPollSpecError("option text cannot be empty")
		}
		if seen[trimmed] {
			return NewPollSpecError("option text must be unique within a poll")
		}
		seen[trimmed] = true
	}
	return nil
}

// YesNoOptionTexts is the fixed option pair created for yes/no polls
func YesNoOptionTexts() []string {
	return []string{"Yes", "No"}
}

// PollSpecError reports a poll creation request that violates an invariant
type PollSpecError struct {
	Message string
}

func (e *PollSpecError) Error() string {
	return e.Message
}

// NewPollSpecError creates a poll spec validation error
func NewPollSpecError(message string) *PollSpecError {
	return &PollSpecError{Message: message}
}
