package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func intPtr(v int) *int { return &v }

func testOptions(ids ...string) []Option {
	options := make([]Option, len(ids))
	for i, id := range ids {
		options[i] = Option{ID: id, Text: "Option " + id, Position: i + 1}
	}
	return options
}

func TestValidateBallotPayload(t *testing.T) {
	abc := testOptions("a", "b", "c")

	tests := []struct {
		name       string
		pollType   PollType
		payload    BallotPayload
		options    []Option
		wantReason string
	}{
		{
			name:     "single choice valid",
			pollType: PollTypeSingleChoice,
			payload:  BallotPayload{OptionIDs: []string{"a"}},
			options:  abc,
		},
		{
			name:       "single choice empty",
			pollType:   PollTypeSingleChoice,
			payload:    BallotPayload{},
			options:    abc,
			wantReason: ReasonMissingSelection,
		},
		{
			name:       "single choice two selections",
			pollType:   PollTypeSingleChoice,
			payload:    BallotPayload{OptionIDs: []string{"a", "b"}},
			options:    abc,
			wantReason: ReasonMultipleSelections,
		},
		{
			name:       "single choice unknown option",
			pollType:   PollTypeSingleChoice,
			payload:    BallotPayload{OptionIDs: []string{"zz"}},
			options:    abc,
			wantReason: ReasonUnknownOption,
		},
		{
			name:     "yes no behaves like single choice",
			pollType: PollTypeYesNo,
			payload:  BallotPayload{OptionIDs: []string{"b"}},
			options:  testOptions("a", "b"),
		},
		{
			name:     "multi choice several options",
			pollType: PollTypeMultiChoice,
			payload:  BallotPayload{OptionIDs: []string{"a", "c"}},
			options:  abc,
		},
		{
			name:       "multi choice empty",
			pollType:   PollTypeMultiChoice,
			payload:    BallotPayload{},
			options:    abc,
			wantReason: ReasonMissingSelection,
		},
		{
			name:       "multi choice repeated option",
			pollType:   PollTypeMultiChoice,
			payload:    BallotPayload{OptionIDs: []string{"a", "a"}},
			options:    abc,
			wantReason: ReasonDuplicateOption,
		},
		{
			name:     "rating in range",
			pollType: PollTypeRating,
			payload:  BallotPayload{Rating: intPtr(7)},
		},
		{
			name:       "rating missing",
			pollType:   PollTypeRating,
			payload:    BallotPayload{},
			wantReason: ReasonMissingRating,
		},
		{
			name:       "rating below scale",
			pollType:   PollTypeRating,
			payload:    BallotPayload{Rating: intPtr(0)},
			wantReason: ReasonRatingOutOfRange,
		},
		{
			name:       "rating above scale",
			pollType:   PollTypeRating,
			payload:    BallotPayload{Rating: intPtr(11)},
			wantReason: ReasonRatingOutOfRange,
		},
		{
			name:     "free text valid",
			pollType: PollTypeFreeText,
			payload:  BallotPayload{Text: "Hold the vote in March."},
		},
		{
			name:       "free text blank",
			pollType:   PollTypeFreeText,
			payload:    BallotPayload{Text: "   "},
			wantReason: ReasonMissingText,
		},
		{
			name:     "ranking full permutation",
			pollType: PollTypeRanking,
			payload: BallotPayload{Rankings: []OptionRank{
				{OptionID: "b", Rank: 1},
				{OptionID: "a", Rank: 2},
				{OptionID: "c", Rank: 3},
			}},
			options: abc,
		},
		{
			name:     "ranking missing an option",
			pollType: PollTypeRanking,
			payload: BallotPayload{Rankings: []OptionRank{
				{OptionID: "a", Rank: 1},
				{OptionID: "b", Rank: 2},
			}},
			options:    abc,
			wantReason: ReasonRankingNotPermutation,
		},
		{
			name:     "ranking repeated rank",
			pollType: PollTypeRanking,
			payload: BallotPayload{Rankings: []OptionRank{
				{OptionID: "a", Rank: 1},
				{OptionID: "b", Rank: 1},
				{OptionID: "c", Rank: 3},
			}},
			options:    abc,
			wantReason: ReasonRankingNotPermutation,
		},
		{
			name:     "ranking repeated option",
			pollType: PollTypeRanking,
			payload: BallotPayload{Rankings: []OptionRank{
				{OptionID: "a", Rank: 1},
				{OptionID: "a", Rank: 2},
				{OptionID: "c", Rank: 3},
			}},
			options:    abc,
			wantReason: ReasonRankingNotPermutation,
		},
		{
			name:     "ranking rank out of range",
			pollType: PollTypeRanking,
			payload: BallotPayload{Rankings: []OptionRank{
				{OptionID: "a", Rank: 1},
				{OptionID: "b", Rank: 2},
				{OptionID: "c", Rank: 4},
			}},
			options:    abc,
			wantReason: ReasonRankingNotPermutation,
		},
		{
			name:     "approval approve",
			pollType: PollTypeApproval,
			payload:  BallotPayload{Approval: ApprovalApprove},
		},
		{
			name:     "approval abstain",
			pollType: PollTypeApproval,
			payload:  BallotPayload{Approval: ApprovalAbstain},
		},
		{
			name:       "approval missing",
			pollType:   PollTypeApproval,
			payload:    BallotPayload{},
			wantReason: ReasonMissingSelection,
		},
		{
			name:       "approval unknown choice",
			pollType:   PollTypeApproval,
			payload:    BallotPayload{Approval: "veto"},
			wantReason: ReasonUnknownApprovalChoice,
		},
		{
			name:     "budget sums to one hundred",
			pollType: PollTypeBudget,
			payload:  BallotPayload{Allocations: map[string]int{"a": 60, "b": 30, "c": 10}},
			options:  abc,
		},
		{
			name:       "budget sums short",
			pollType:   PollTypeBudget,
			payload:    BallotPayload{Allocations: map[string]int{"a": 60, "b": 30}},
			options:    abc,
			wantReason: ReasonBudgetSumMismatch,
		},
		{
			name:       "budget negative share",
			pollType:   PollTypeBudget,
			payload:    BallotPayload{Allocations: map[string]int{"a": -10, "b": 110}},
			options:    abc,
			wantReason: ReasonBudgetSumMismatch,
		},
		{
			name:       "budget unknown option",
			pollType:   PollTypeBudget,
			payload:    BallotPayload{Allocations: map[string]int{"zz": 100}},
			options:    abc,
			wantReason: ReasonUnknownOption,
		},
		{
			name:       "budget empty",
			pollType:   PollTypeBudget,
			payload:    BallotPayload{},
			options:    abc,
			wantReason: ReasonMissingSelection,
		},
		{
			name:       "rating rejects smuggled selections",
			pollType:   PollTypeRating,
			payload:    BallotPayload{Rating: intPtr(5), OptionIDs: []string{"a"}},
			options:    abc,
			wantReason: ReasonUnexpectedContent,
		},
		{
			name:       "choice rejects smuggled text",
			pollType:   PollTypeSingleChoice,
			payload:    BallotPayload{OptionIDs: []string{"a"}, Text: "note"},
			options:    abc,
			wantReason: ReasonUnexpectedContent,
		},
		{
			name:       "unknown poll type",
			pollType:   "plurality",
			payload:    BallotPayload{},
			wantReason: ReasonUnexpectedContent,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateBallotPayload(tt.pollType, &tt.payload, tt.options, 10)
			if tt.wantReason == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			verr, ok := AsBallotValidationError(err)
			require.True(t, ok, "expected a ballot validation error, got %v", err)
			assert.Equal(t, tt.wantReason, verr.Reason)
		})
	}
}
