package domain

import (
	"errors"
	"fmt"
)

// Sentinel errors shared across services and repositories
var (
	ErrPollNotFound   = errors.New("poll not found")
	ErrVoterNotFound  = errors.New("voter not found")
	ErrReportNotFound = errors.New("report not found")

	// ErrPollHasVotes rejects metadata mutation after the first ballot.
	// Deactivation is the only state change still allowed.
	ErrPollHasVotes = errors.New("poll already has votes")

	ErrPollClosed    = errors.New("poll is not open for voting")
	ErrDuplicateVote = errors.New("voter has already cast a ballot for this poll")
	ErrNotEligible   = errors.New("voter is not an eligible chamber member")
)

// Ballot validation sub-reasons reported with InvalidBallot rejections
const (
	ReasonMissingSelection      = "missing_selection"
	ReasonMultipleSelections    = "multiple_selections"
	ReasonUnknownOption         = "unknown_option"
	ReasonDuplicateOption       = "duplicate_option"
	ReasonMissingRating         = "missing_rating"
	ReasonRatingOutOfRange      = "rating_out_of_range"
	ReasonRankingNotPermutation = "ranking_not_permutation"
	ReasonBudgetSumMismatch     = "budget_sum_mismatch"
	ReasonUnknownApprovalChoice = "unknown_approval_choice"
	ReasonMissingText           = "missing_text"
	ReasonUnexpectedContent     = "unexpected_content"
)

// BallotValidationError reports a ballot whose content shape does not match
// the poll's declared type.
type BallotValidationError struct {
	Reason string
}

func (e *BallotValidationError) Error() string {
	return fmt.Sprintf("invalid ballot: %s", e.Reason)
}

// NewBallotValidationError creates an invalid-ballot error with a sub-reason
func NewBallotValidationError(reason string) *BallotValidationError {
	return &BallotValidationError{Reason: reason}
}

// AsBallotValidationError unwraps err to a *BallotValidationError if present
func AsBallotValidationError(err error) (*BallotValidationError, bool) {
	var bve *BallotValidationError
	if errors.As(err, &bve) {
		return bve, true
	}
	return nil, false
}
