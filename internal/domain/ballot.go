package domain

import (
	"strings"
	"time"
)

// Ballot is the stored record of a cast vote. The content lives only in
// Ciphertext; the voter reference exists for the one-ballot-per-voter
// invariant, not for linking a voter to what they voted. Ballots are
// immutable and never deleted.
type Ballot struct {
	ID            string    `json:"id"`
	PollID        string    `json:"poll_id"`
	VoterID       string    `json:"voter_id"`
	Token         []byte    `json:"-"`
	TokenSalt     []byte    `json:"-"`
	Ciphertext    []byte    `json:"-"`
	IntegrityHash []byte    `json:"-"`
	Comment       string    `json:"comment,omitempty"`
	CastAt        time.Time `json:"cast_at"`
}

// OptionRank is one entry of a ranking ballot
type OptionRank struct {
	OptionID string `json:"option_id"`
	Rank     int    `json:"rank"`
}

// BallotPayload is the plaintext ballot content. Exactly the fields matching
// the poll type may be set; everything else must be zero.
type BallotPayload struct {
	OptionIDs   []string       `json:"option_ids,omitempty"`
	Rating      *int           `json:"rating,omitempty"`
	Rankings    []OptionRank   `json:"rankings,omitempty"`
	Allocations map[string]int `json:"allocations,omitempty"`
	Approval    string         `json:"approval,omitempty"`
	Text        string         `json:"text,omitempty"`
}

// CastVoteRequest is the inbound payload of a vote cast
type CastVoteRequest struct {
	Payload BallotPayload `json:"payload"`
	Comment string        `json:"comment,omitempty"`
}

// RatingScaleMin is the lower bound of the rating scale
const RatingScaleMin = 1

// ValidateBallotPayload checks the payload shape against the poll type and
// option set. Returns a *BallotValidationError with a sub-reason on failure.
// options must be the poll's full option set.
func ValidateBallotPayload(pollType PollType, payload *BallotPayload, options []Option, ratingMax int) error {
	known := make(map[string]bool, len(options))
	for _, opt := range options {
		known[opt.ID] = true
	}

	switch pollType {
	case PollTypeSingleChoice, PollTypeYesNo:
		if err := requireOnly(payload, fieldOptionIDs); err != nil {
			return err
		}
		if len(payload.OptionIDs) == 0 {
			return NewBallotValidationError(ReasonMissingSelection)
		}
		if len(payload.OptionIDs) > 1 {
			return NewBallotValidationError(ReasonMultipleSelections)
		}
		if !known[payload.OptionIDs[0]] {
			return NewBallotValidationError(ReasonUnknownOption)
		}

	case PollTypeMultiChoice:
		if err := requireOnly(payload, fieldOptionIDs); err != nil {
			return err
		}
		if len(payload.OptionIDs) == 0 {
			return NewBallotValidationError(ReasonMissingSelection)
		}
		seen := make(map[string]bool, len(payload.OptionIDs))
		for _, id := range payload.OptionIDs {
			if !known[id] {
				return NewBallotValidationError(ReasonUnknownOption)
			}
			if seen[id] {
				return NewBallotValidationError(ReasonDuplicateOption)
			}
			seen[id] = true
		}

	case PollTypeRating:
		if err := requireOnly(payload, fieldRating); err != nil {
			return err
		}
		if payload.Rating == nil {
			return NewBallotValidationError(ReasonMissingRating)
		}
		if *payload.Rating < RatingScaleMin || *payload.Rating > ratingMax {
			return NewBallotValidationError(ReasonRatingOutOfRange)
		}

	case PollTypeFreeText:
		if err := requireOnly(payload, fieldText); err != nil {
			return err
		}
		if strings.TrimSpace(payload.Text) == "" {
			return NewBallotValidationError(ReasonMissingText)
		}

	case PollTypeRanking:
		if err := requireOnly(payload, fieldRankings); err != nil {
			return err
		}
		// A valid ranking is a permutation of 1..N over all of the poll's
		// options: every option ranked exactly once, every rank used once.
		if len(payload.Rankings) != len(options) {
			return NewBallotValidationError(ReasonRankingNotPermutation)
		}
		rankedOptions := make(map[string]bool, len(payload.Rankings))
		usedRanks := make(map[int]bool, len(payload.Rankings))
		for _, entry := range payload.Rankings {
			if !known[entry.OptionID] {
				return NewBallotValidationError(ReasonUnknownOption)
			}
			if rankedOptions[entry.OptionID] {
				return NewBallotValidationError(ReasonRankingNotPermutation)
			}
			rankedOptions[entry.OptionID] = true
			if entry.Rank < 1 || entry.Rank > len(options) || usedRanks[entry.Rank] {
				return NewBallotValidationError(ReasonRankingNotPermutation)
			}
			usedRanks[entry.Rank] = true
		}

	case PollTypeApproval:
		if err := requireOnly(payload, fieldApproval); err != nil {
			return err
		}
		switch payload.Approval {
		case ApprovalApprove, ApprovalReject, ApprovalAbstain:
		case "":
			return NewBallotValidationError(ReasonMissingSelection)
		default:
			return NewBallotValidationError(ReasonUnknownApprovalChoice)
		}

	case PollTypeBudget:
		if err := requireOnly(payload, fieldAllocations); err != nil {
			return err
		}
		if len(payload.Allocations) == 0 {
			return NewBallotValidationError(ReasonMissingSelection)
		}
		sum := 0
		for id, pct := range payload.Allocations {
			if !known[id] {
				return NewBallotValidationError(ReasonUnknownOption)
			}
			if pct < 0 || pct > 100 {
				return NewBallotValidationError(ReasonBudgetSumMismatch)
			}
			sum += pct
		}
		if sum != 100 {
			return NewBallotValidationError(ReasonBudgetSumMismatch)
		}

	default:
		return NewBallotValidationError(ReasonUnexpectedContent)
	}

	return nil
}

type payloadField int

const (
	fieldOptionIDs payloadField = iota
	fieldRating
	fieldRankings
	fieldAllocations
	fieldApproval
	fieldText
)

// requireOnly rejects payloads that carry content belonging to another poll
// type. Keeps a rating from smuggling option selections and vice versa.
func requireOnly(payload *BallotPayload, allowed payloadField) error {
	if len(payload.OptionIDs) > 0 && allowed != fieldOptionIDs {
		return NewBallotValidationError(ReasonUnexpectedContent)
	}
	if payload.Rating != nil && allowed != fieldRating {
		return NewBallotValidationError(ReasonUnexpectedContent)
	}
	if len(payload.Rankings) > 0 && allowed != fieldRankings {
		return NewBallotValidationError(ReasonUnexpectedContent)
	}
	if len(payload.Allocations) > 0 && allowed != fieldAllocations {
		return NewBallotValidationError(ReasonUnexpectedContent)
	}
	if payload.Approval != "" && allowed != fieldApproval {
		return NewBallotValidationError(ReasonUnexpectedContent)
	}
	if payload.Text != "" && allowed != fieldText {
		return NewBallotValidationError(ReasonUnexpectedContent)
	}
	return nil
}
