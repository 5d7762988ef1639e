package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func choiceBallot(optionIDs ...string) BallotView {
	return BallotView{Payload: BallotPayload{OptionIDs: optionIDs}}
}

func ratingBallot(rating int) BallotView {
	return BallotView{Payload: BallotPayload{Rating: intPtr(rating)}}
}

func approvalBallot(choice string) BallotView {
	return BallotView{Payload: BallotPayload{Approval: choice}}
}

func TestComputePollStatisticsSplitChoice(t *testing.T) {
	// Two voters split evenly across two options: no winner, low confidence.
	poll := &Poll{ID: "p1", Type: PollTypeMultiChoice}
	options := testOptions("yes", "no")
	ballots := []BallotView{choiceBallot("yes"), choiceBallot("no")}

	stats := ComputePollStatistics(poll, options, ballots, 0, 10)

	assert.Equal(t, 2, stats.TotalVotes)
	assert.InDelta(t, 50.0, stats.ConsensusLevel, 0.001)
	assert.Equal(t, ConfidenceLow, stats.Confidence)
	require.NotNil(t, stats.Choice)
	assert.True(t, stats.Choice.Tie)
	assert.Nil(t, stats.Choice.Winner)
}

func TestComputePollStatisticsChoiceWinner(t *testing.T) {
	poll := &Poll{ID: "p1", Type: PollTypeSingleChoice}
	options := testOptions("a", "b", "c")
	ballots := []BallotView{
		choiceBallot("a"), choiceBallot("a"), choiceBallot("a"),
		choiceBallot("b"),
	}

	stats := ComputePollStatistics(poll, options, ballots, 0, 10)

	require.NotNil(t, stats.Choice)
	require.NotNil(t, stats.Choice.Winner)
	assert.Equal(t, "a", stats.Choice.Winner.OptionID)
	assert.Equal(t, 3, stats.Choice.Winner.Count)
	assert.InDelta(t, 75.0, stats.ConsensusLevel, 0.001)
	assert.Equal(t, ConfidenceMedium, stats.Confidence)
	assert.False(t, stats.Choice.Tie)
}

func TestComputePollStatisticsRating(t *testing.T) {
	// Ratings [8, 9, 10]: mean 9.0, median 9, stddev 1.0, consensus 80.
	poll := &Poll{ID: "p1", Type: PollTypeRating}
	ballots := []BallotView{ratingBallot(8), ratingBallot(9), ratingBallot(10)}

	stats := ComputePollStatistics(poll, nil, ballots, 0, 10)

	require.NotNil(t, stats.Rating)
	assert.InDelta(t, 9.0, stats.Rating.Mean, 0.001)
	assert.InDelta(t, 9.0, stats.Rating.Median, 0.001)
	assert.InDelta(t, 1.0, stats.Rating.StdDev, 0.001)
	assert.Equal(t, 8, stats.Rating.Min)
	assert.Equal(t, 10, stats.Rating.Max)
	assert.InDelta(t, 80.0, stats.ConsensusLevel, 0.001)
	assert.Equal(t, ConfidenceHigh, stats.Confidence)
}

func TestComputePollStatisticsRatingFullDistribution(t *testing.T) {
	// The distribution spans the whole scale, zero-count buckets included.
	poll := &Poll{ID: "p1", Type: PollTypeRating}
	ballots := []BallotView{ratingBallot(8), ratingBallot(9), ratingBallot(10)}

	stats := ComputePollStatistics(poll, nil, ballots, 0, 10)

	require.NotNil(t, stats.Rating)
	require.Len(t, stats.Rating.Distribution, 10)
	for v := 1; v <= 7; v++ {
		count, ok := stats.Rating.Distribution[v]
		assert.True(t, ok, "bucket %d missing", v)
		assert.Zero(t, count, "bucket %d", v)
	}
	assert.Equal(t, 1, stats.Rating.Distribution[8])
	assert.Equal(t, 1, stats.Rating.Distribution[9])
	assert.Equal(t, 1, stats.Rating.Distribution[10])

	// No ratings cast still yields every bucket of the scale.
	empty := ComputePollStatistics(poll, nil, nil, 0, 5)
	require.NotNil(t, empty.Rating)
	assert.Len(t, empty.Rating.Distribution, 5)
}

func TestComputePollStatisticsRatingSingleBallot(t *testing.T) {
	poll := &Poll{ID: "p1", Type: PollTypeRating}
	stats := ComputePollStatistics(poll, nil, []BallotView{ratingBallot(6)}, 0, 10)

	require.NotNil(t, stats.Rating)
	assert.Zero(t, stats.Rating.StdDev)
	assert.InDelta(t, 100.0, stats.ConsensusLevel, 0.001)
}

func TestComputePollStatisticsRatingEvenCountMedian(t *testing.T) {
	poll := &Poll{ID: "p1", Type: PollTypeRating}
	ballots := []BallotView{ratingBallot(4), ratingBallot(6), ratingBallot(7), ratingBallot(9)}

	stats := ComputePollStatistics(poll, nil, ballots, 0, 10)

	require.NotNil(t, stats.Rating)
	assert.InDelta(t, 6.5, stats.Rating.Median, 0.001)
}

func TestComputePollStatisticsApproval(t *testing.T) {
	// 6 approve, 3 reject, 1 abstain: approved with 60% consensus.
	poll := &Poll{ID: "p1", Type: PollTypeApproval}
	var ballots []BallotView
	for i := 0; i < 6; i++ {
		ballots = append(ballots, approvalBallot(ApprovalApprove))
	}
	for i := 0; i < 3; i++ {
		ballots = append(ballots, approvalBallot(ApprovalReject))
	}
	ballots = append(ballots, approvalBallot(ApprovalAbstain))

	stats := ComputePollStatistics(poll, nil, ballots, 0, 10)

	require.NotNil(t, stats.Approval)
	assert.Equal(t, DecisionApproved, stats.Approval.Decision)
	assert.Equal(t, 6, stats.Approval.Approve)
	assert.Equal(t, 3, stats.Approval.Reject)
	assert.Equal(t, 1, stats.Approval.Abstain)
	assert.InDelta(t, 60.0, stats.ConsensusLevel, 0.001)
	assert.Equal(t, ConfidenceMedium, stats.Confidence)
}

func TestComputePollStatisticsApprovalNoConsensus(t *testing.T) {
	poll := &Poll{ID: "p1", Type: PollTypeApproval}
	ballots := []BallotView{
		approvalBallot(ApprovalApprove),
		approvalBallot(ApprovalReject),
	}

	stats := ComputePollStatistics(poll, nil, ballots, 0, 10)

	require.NotNil(t, stats.Approval)
	assert.Equal(t, DecisionNoConsensus, stats.Approval.Decision)
}

func TestComputePollStatisticsRankingBorda(t *testing.T) {
	// With three options a first place earns 3 points, last place 1.
	poll := &Poll{ID: "p1", Type: PollTypeRanking}
	options := testOptions("a", "b", "c")
	ballots := []BallotView{
		{Payload: BallotPayload{Rankings: []OptionRank{
			{OptionID: "a", Rank: 1}, {OptionID: "b", Rank: 2}, {OptionID: "c", Rank: 3},
		}}},
		{Payload: BallotPayload{Rankings: []OptionRank{
			{OptionID: "a", Rank: 1}, {OptionID: "c", Rank: 2}, {OptionID: "b", Rank: 3},
		}}},
	}

	stats := ComputePollStatistics(poll, options, ballots, 0, 10)

	require.NotNil(t, stats.Ranking)
	require.NotNil(t, stats.Ranking.Winner)
	assert.Equal(t, "a", stats.Ranking.Winner.OptionID)
	assert.Equal(t, 6, stats.Ranking.Winner.Score)
	// Unanimous first place normalizes to full consensus.
	assert.InDelta(t, 100.0, stats.ConsensusLevel, 0.001)
}

func TestComputePollStatisticsRankingTie(t *testing.T) {
	poll := &Poll{ID: "p1", Type: PollTypeRanking}
	options := testOptions("a", "b")
	ballots := []BallotView{
		{Payload: BallotPayload{Rankings: []OptionRank{
			{OptionID: "a", Rank: 1}, {OptionID: "b", Rank: 2},
		}}},
		{Payload: BallotPayload{Rankings: []OptionRank{
			{OptionID: "b", Rank: 1}, {OptionID: "a", Rank: 2},
		}}},
	}

	stats := ComputePollStatistics(poll, options, ballots, 0, 10)

	require.NotNil(t, stats.Ranking)
	assert.True(t, stats.Ranking.Tie)
	assert.Nil(t, stats.Ranking.Winner)
}

func TestComputePollStatisticsBudget(t *testing.T) {
	poll := &Poll{ID: "p1", Type: PollTypeBudget}
	options := testOptions("infra", "events")
	ballots := []BallotView{
		{Payload: BallotPayload{Allocations: map[string]int{"infra": 80, "events": 20}}},
		{Payload: BallotPayload{Allocations: map[string]int{"infra": 60, "events": 40}}},
	}

	stats := ComputePollStatistics(poll, options, ballots, 0, 10)

	require.NotNil(t, stats.Budget)
	require.Len(t, stats.Budget.Allocations, 2)
	assert.InDelta(t, 70.0, stats.Budget.Allocations[0].MeanPct, 0.001)
	assert.InDelta(t, 30.0, stats.Budget.Allocations[1].MeanPct, 0.001)
	assert.InDelta(t, 70.0, stats.ConsensusLevel, 0.001)
}

func TestComputePollStatisticsFreeTextOrdering(t *testing.T) {
	// Responses come back sorted, never in cast order.
	poll := &Poll{ID: "p1", Type: PollTypeFreeText}
	ballots := []BallotView{
		{Payload: BallotPayload{Text: "zebra crossing"}},
		{Payload: BallotPayload{Text: "annual retreat"}},
		{Payload: BallotPayload{Text: "monthly sync"}},
	}

	stats := ComputePollStatistics(poll, nil, ballots, 0, 10)

	require.NotNil(t, stats.Text)
	assert.Equal(t, []string{"annual retreat", "monthly sync", "zebra crossing"}, stats.Text.Responses)
}

func TestComputePollStatisticsEmpty(t *testing.T) {
	poll := &Poll{ID: "p1", Type: PollTypeSingleChoice, Quorum: 2}
	stats := ComputePollStatistics(poll, testOptions("a", "b"), nil, 0, 10)

	assert.Zero(t, stats.TotalVotes)
	assert.False(t, stats.QuorumReached)
	assert.Zero(t, stats.ConsensusLevel)
	assert.Equal(t, ConfidenceLow, stats.Confidence)
	require.NotNil(t, stats.Choice)
	assert.Nil(t, stats.Choice.Winner)
	assert.Nil(t, stats.Timeline.FirstVoteAt)
}

func TestComputePollStatisticsQuorum(t *testing.T) {
	poll := &Poll{ID: "p1", Type: PollTypeSingleChoice, Quorum: 2}
	options := testOptions("a", "b")

	stats := ComputePollStatistics(poll, options, []BallotView{choiceBallot("a")}, 0, 10)
	assert.False(t, stats.QuorumReached)

	stats = ComputePollStatistics(poll, options, []BallotView{choiceBallot("a"), choiceBallot("a")}, 0, 10)
	assert.True(t, stats.QuorumReached)

	// Zero quorum is always reached, even with no ballots.
	noQuorum := &Poll{ID: "p2", Type: PollTypeSingleChoice}
	stats = ComputePollStatistics(noQuorum, options, nil, 0, 10)
	assert.True(t, stats.QuorumReached)
}

func TestComputePollStatisticsUnreadableCounted(t *testing.T) {
	poll := &Poll{ID: "p1", Type: PollTypeSingleChoice}
	options := testOptions("a", "b")

	stats := ComputePollStatistics(poll, options, []BallotView{choiceBallot("a")}, 2, 10)

	assert.Equal(t, 1, stats.TotalVotes)
	assert.Equal(t, 2, stats.UnreadableVotes)
}

func TestComputePollStatisticsTimeline(t *testing.T) {
	poll := &Poll{ID: "p1", Type: PollTypeFreeText}
	day1 := time.Date(2026, 8, 10, 9, 0, 0, 0, time.UTC)
	day2 := time.Date(2026, 8, 11, 17, 30, 0, 0, time.UTC)
	ballots := []BallotView{
		{Payload: BallotPayload{Text: "a"}, CastAt: day2},
		{Payload: BallotPayload{Text: "b"}, CastAt: day1},
		{Payload: BallotPayload{Text: "c"}, CastAt: day1.Add(time.Hour)},
	}

	stats := ComputePollStatistics(poll, nil, ballots, 0, 10)

	require.NotNil(t, stats.Timeline.FirstVoteAt)
	require.NotNil(t, stats.Timeline.LastVoteAt)
	assert.Equal(t, day1, *stats.Timeline.FirstVoteAt)
	assert.Equal(t, day2, *stats.Timeline.LastVoteAt)
	assert.Equal(t, day2.Sub(day1), stats.Timeline.Duration)
	assert.Equal(t, map[string]int{"2026-08-10": 2, "2026-08-11": 1}, stats.Timeline.VotesPerDay)
}

func TestComputePollStatisticsDeterministic(t *testing.T) {
	poll := &Poll{ID: "p1", Type: PollTypeSingleChoice}
	options := testOptions("a", "b", "c")
	ballots := []BallotView{choiceBallot("a"), choiceBallot("b"), choiceBallot("a")}

	first := ComputePollStatistics(poll, options, ballots, 0, 10)
	second := ComputePollStatistics(poll, options, ballots, 0, 10)

	assert.Equal(t, first, second)
}
