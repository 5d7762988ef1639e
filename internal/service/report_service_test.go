package service

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"chamber-v2/internal/domain"
	apperrors "chamber-v2/pkg/errors"
)

func sampleChoicePoll() (*domain.Poll, *domain.PollStatistics) {
	poll := &domain.Poll{
		ID:       "poll-1",
		Title:    "Office relocation",
		Type:     domain.PollTypeSingleChoice,
		StartsAt: time.Date(2026, 8, 1, 9, 0, 0, 0, time.UTC),
		EndsAt:   time.Date(2026, 8, 8, 17, 0, 0, 0, time.UTC),
	}
	options := []domain.Option{
		{ID: "a", Text: "Stay", Position: 1},
		{ID: "b", Text: "Move", Position: 2},
	}
	ballots := []domain.BallotView{
		{Payload: domain.BallotPayload{OptionIDs: []string{"b"}}},
		{Payload: domain.BallotPayload{OptionIDs: []string{"b"}}},
		{Payload: domain.BallotPayload{OptionIDs: []string{"b"}}},
		{Payload: domain.BallotPayload{OptionIDs: []string{"a"}}},
	}
	return poll, domain.ComputePollStatistics(poll, options, ballots, 1, 10)
}

func TestCheckReportVisibility(t *testing.T) {
	now := time.Date(2026, 8, 20, 12, 0, 0, 0, time.UTC)
	open := domain.Poll{
		ID:       "poll-1",
		Title:    "Still voting",
		Type:     domain.PollTypeSingleChoice,
		StartsAt: now.Add(-time.Hour),
		EndsAt:   now.Add(time.Hour),
		Active:   true,
	}

	t.Run("Open poll with private results is blocked", func(t *testing.T) {
		err := checkReportVisibility(&open, now)
		require.Error(t, err)
		appErr, ok := apperrors.AsAppError(err)
		require.True(t, ok)
		assert.Equal(t, apperrors.ErrorTypeNotEligible, appErr.Type)
	})

	t.Run("Open poll with public results is allowed", func(t *testing.T) {
		public := open
		public.ResultsPublic = true
		assert.NoError(t, checkReportVisibility(&public, now))
	})

	t.Run("Completed poll is allowed", func(t *testing.T) {
		completed := open
		completedAt := now.Add(-time.Minute)
		completed.CompletedAt = &completedAt
		assert.NoError(t, checkReportVisibility(&completed, now))
	})

	t.Run("Expired window is allowed even unmarked", func(t *testing.T) {
		expired := open
		expired.EndsAt = now.Add(-time.Minute)
		assert.NoError(t, checkReportVisibility(&expired, now))
	})
}

func TestRenderPollResults(t *testing.T) {
	poll, stats := sampleChoicePoll()

	content := RenderPollResults(poll, stats)

	assert.True(t, strings.HasPrefix(content, "# Poll results: Office relocation"))
	assert.Contains(t, content, "- Total votes: 4")
	assert.Contains(t, content, "- Unreadable ballots excluded: 1")
	assert.Contains(t, content, "- Move: 3 (75.0%)")
	assert.Contains(t, content, "- Stay: 1 (25.0%)")
	assert.Contains(t, content, "Winner: **Move**")
}

func TestRenderPollResultsTie(t *testing.T) {
	poll := &domain.Poll{ID: "poll-1", Title: "Split vote", Type: domain.PollTypeSingleChoice}
	options := []domain.Option{
		{ID: "a", Text: "Stay", Position: 1},
		{ID: "b", Text: "Move", Position: 2},
	}
	ballots := []domain.BallotView{
		{Payload: domain.BallotPayload{OptionIDs: []string{"a"}}},
		{Payload: domain.BallotPayload{OptionIDs: []string{"b"}}},
	}
	stats := domain.ComputePollStatistics(poll, options, ballots, 0, 10)

	content := RenderPollResults(poll, stats)

	assert.Contains(t, content, "No single winner: the leading options are tied.")
	assert.NotContains(t, content, "Winner: **")
}

func TestRenderDecisionAnalysis(t *testing.T) {
	poll, stats := sampleChoicePoll()

	content := RenderDecisionAnalysis(poll, stats)

	assert.True(t, strings.HasPrefix(content, "# Decision analysis: Office relocation"))
	assert.Contains(t, content, "## Interpretation")
	assert.Contains(t, content, "Consensus level 75.0%")
	assert.Contains(t, content, "**Medium** confidence")
	assert.Contains(t, content, "The outcome is well supported by the cast ballots.")
}

func TestRenderDecisionAnalysisQuorumMiss(t *testing.T) {
	poll := &domain.Poll{ID: "poll-1", Title: "Quorum miss", Type: domain.PollTypeApproval, Quorum: 5}
	ballots := []domain.BallotView{
		{Payload: domain.BallotPayload{Approval: domain.ApprovalApprove}},
		{Payload: domain.BallotPayload{Approval: domain.ApprovalApprove}},
	}
	stats := domain.ComputePollStatistics(poll, nil, ballots, 0, 10)

	content := RenderDecisionAnalysis(poll, stats)

	assert.Contains(t, content, "- Decision: APPROVED")
	assert.Contains(t, content, "quorum was not reached")
}

func TestRenderDecisionAnalysisEmptyPoll(t *testing.T) {
	poll := &domain.Poll{ID: "poll-1", Title: "Nobody came", Type: domain.PollTypeFreeText}
	stats := domain.ComputePollStatistics(poll, nil, nil, 0, 10)

	content := RenderDecisionAnalysis(poll, stats)

	assert.Contains(t, content, "No readable ballots were cast")
}
