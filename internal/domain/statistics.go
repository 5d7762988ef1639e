package domain

import (
	"math"
	"sort"
	"time"
)

// DecisionConfidence buckets the consensus level for report rendering
const (
	ConfidenceHigh   = "High"
	ConfidenceMedium = "Medium"
	ConfidenceLow    = "Low"
)

// Approval decisions
const (
	DecisionApproved    = "APPROVED"
	DecisionRejected    = "REJECTED"
	DecisionNoConsensus = "NO_CONSENSUS"
)

// BallotView is one decrypted ballot as the aggregator sees it. The voter
// reference is gone by the time a ballot reaches aggregation.
type BallotView struct {
	Payload BallotPayload
	CastAt  time.Time
}

// OptionCount is a per-option tally for choice-style polls
type OptionCount struct {
	OptionID   string  `json:"option_id"`
	Text       string  `json:"text"`
	Count      int     `json:"count"`
	Percentage float64 `json:"percentage"`
}

// ChoiceStatistics aggregates single/multi-choice and yes/no polls
type ChoiceStatistics struct {
	Options []OptionCount `json:"options"`
	Winner  *OptionCount  `json:"winner,omitempty"`
	Tie     bool          `json:"tie"`
}

// RatingStatistics aggregates rating polls
type RatingStatistics struct {
	Mean         float64     `json:"mean"`
	Median       float64     `json:"median"`
	StdDev       float64     `json:"std_dev"`
	Min          int         `json:"min"`
	Max          int         `json:"max"`
	Distribution map[int]int `json:"distribution"`
}

// ApprovalStatistics aggregates approval polls
type ApprovalStatistics struct {
	Approve           int     `json:"approve"`
	Reject            int     `json:"reject"`
	Abstain           int     `json:"abstain"`
	ApprovePercentage float64 `json:"approve_percentage"`
	RejectPercentage  float64 `json:"reject_percentage"`
	AbstainPercentage float64 `json:"abstain_percentage"`
	Decision          string  `json:"decision"`
}

// OptionScore is a per-option Borda score for ranking polls
type OptionScore struct {
	OptionID string `json:"option_id"`
	Text     string `json:"text"`
	Score    int    `json:"score"`
}

// RankingStatistics aggregates ranking polls
type RankingStatistics struct {
	Scores []OptionScore `json:"scores"`
	Winner *OptionScore  `json:"winner,omitempty"`
	Tie    bool          `json:"tie"`
}

// OptionAllocation is a per-option mean budget share
type OptionAllocation struct {
	OptionID string  `json:"option_id"`
	Text     string  `json:"text"`
	MeanPct  float64 `json:"mean_pct"`
}

// BudgetStatistics aggregates budget-allocation polls
type BudgetStatistics struct {
	Allocations []OptionAllocation `json:"allocations"`
}

// TextStatistics aggregates free-text polls
type TextStatistics struct {
	Responses []string `json:"responses"`
}

// TimelineStatistics is computed once per poll and shared across report kinds
type TimelineStatistics struct {
	FirstVoteAt *time.Time     `json:"first_vote_at,omitempty"`
	LastVoteAt  *time.Time     `json:"last_vote_at,omitempty"`
	Duration    time.Duration  `json:"duration"`
	VotesPerDay map[string]int `json:"votes_per_day"`
}

// PollStatistics is the full aggregate for one poll. Exactly one of the
// per-type sections is populated, matching the poll type.
type PollStatistics struct {
	PollID          string              `json:"poll_id"`
	PollType        PollType            `json:"poll_type"`
	TotalVotes      int                 `json:"total_votes"`
	UnreadableVotes int                 `json:"unreadable_votes"`
	QuorumReached   bool                `json:"quorum_reached"`
	ConsensusLevel  float64             `json:"consensus_level"`
	Confidence      string              `json:"decision_confidence"`
	Choice          *ChoiceStatistics   `json:"choice,omitempty"`
	Rating          *RatingStatistics   `json:"rating,omitempty"`
	Approval        *ApprovalStatistics `json:"approval,omitempty"`
	Ranking         *RankingStatistics  `json:"ranking,omitempty"`
	Budget          *BudgetStatistics   `json:"budget,omitempty"`
	Text            *TextStatistics     `json:"text,omitempty"`
	Timeline        TimelineStatistics  `json:"timeline"`
}

// ComputePollStatistics aggregates the readable ballots of one poll. It never
// mutates its inputs, tolerates an empty ballot set, and is deterministic:
// the same inputs always yield the same aggregate. ratingMax is the upper
// bound of the rating scale; rating distributions carry every bucket in
// 1..ratingMax, including zero-count ones.
func ComputePollStatistics(poll *Poll, options []Option, ballots []BallotView, unreadable, ratingMax int) *PollStatistics {
	stats := &PollStatistics{
		PollID:          poll.ID,
		PollType:        poll.Type,
		TotalVotes:      len(ballots),
		UnreadableVotes: unreadable,
		QuorumReached:   poll.Quorum == 0 || len(ballots) >= poll.Quorum,
		Timeline:        computeTimeline(ballots),
	}

	switch poll.Type {
	case PollTypeSingleChoice, PollTypeMultiChoice, PollTypeYesNo:
		stats.Choice, stats.ConsensusLevel = computeChoice(options, ballots)
	case PollTypeRating:
		stats.Rating, stats.ConsensusLevel = computeRating(ballots, ratingMax)
	case PollTypeApproval:
		stats.Approval, stats.ConsensusLevel = computeApproval(ballots)
	case PollTypeRanking:
		stats.Ranking = computeRanking(options, ballots)
		stats.ConsensusLevel = rankingConsensus(stats.Ranking, len(ballots), len(options))
	case PollTypeBudget:
		stats.Budget = computeBudget(options, ballots)
		stats.ConsensusLevel = budgetConsensus(stats.Budget)
	case PollTypeFreeText:
		stats.Text = computeText(ballots)
	}

	stats.Confidence = confidenceFor(stats.ConsensusLevel)
	return stats
}

// confidenceFor buckets a 0-100 consensus level
func confidenceFor(consensus float64) string {
	switch {
	case consensus >= 80:
		return ConfidenceHigh
	case consensus >= 60:
		return ConfidenceMedium
	default:
		return ConfidenceLow
	}
}

func computeChoice(options []Option, ballots []BallotView) (*ChoiceStatistics, float64) {
	counts := make(map[string]int, len(options))
	for _, b := range ballots {
		for _, id := range b.Payload.OptionIDs {
			counts[id]++
		}
	}

	ordered := orderedOptions(options)
	result := &ChoiceStatistics{Options: make([]OptionCount, 0, len(ordered))}
	total := len(ballots)

	maxCount := 0
	for _, opt := range ordered {
		count := counts[opt.ID]
		pct := 0.0
		if total > 0 {
			pct = float64(count) / float64(total) * 100
		}
		result.Options = append(result.Options, OptionCount{
			OptionID:   opt.ID,
			Text:       opt.Text,
			Count:      count,
			Percentage: pct,
		})
		if count > maxCount {
			maxCount = count
		}
	}

	if maxCount == 0 {
		return result, 0
	}

	leaders := 0
	var winner *OptionCount
	for i := range result.Options {
		if result.Options[i].Count == maxCount {
			leaders++
			winner = &result.Options[i]
		}
	}
	// Ties have no single winner; the consensus level still reflects how
	// concentrated the leading outcome is.
	consensus := float64(maxCount) / float64(total) * 100
	if leaders > 1 {
		result.Tie = true
		return result, consensus
	}
	result.Winner = winner
	return result, consensus
}

func computeRating(ballots []BallotView, ratingMax int) (*RatingStatistics, float64) {
	ratings := make([]int, 0, len(ballots))
	for _, b := range ballots {
		if b.Payload.Rating != nil {
			ratings = append(ratings, *b.Payload.Rating)
		}
	}

	// The distribution spans the whole scale so readers see zero-count
	// buckets, not just the values that happened to be cast.
	result := &RatingStatistics{Distribution: make(map[int]int, ratingMax)}
	for v := 1; v <= ratingMax; v++ {
		result.Distribution[v] = 0
	}
	if len(ratings) == 0 {
		return result, 0
	}

	sort.Ints(ratings)
	result.Min = ratings[0]
	result.Max = ratings[len(ratings)-1]

	sum := 0
	for _, r := range ratings {
		sum += r
		result.Distribution[r]++
	}
	result.Mean = float64(sum) / float64(len(ratings))

	mid := len(ratings) / 2
	if len(ratings)%2 == 0 {
		result.Median = float64(ratings[mid-1]+ratings[mid]) / 2
	} else {
		result.Median = float64(ratings[mid])
	}

	result.StdDev = stdDev(ratings, result.Mean)

	consensus := math.Max(0, 100-20*result.StdDev)
	return result, consensus
}

// stdDev is the corrected (n-1) standard deviation; zero for a single rating
func stdDev(values []int, mean float64) float64 {
	if len(values) < 2 {
		return 0
	}
	var sumSq float64
	for _, v := range values {
		d := float64(v) - mean
		sumSq += d * d
	}
	return math.Sqrt(sumSq / float64(len(values)-1))
}

func computeApproval(ballots []BallotView) (*ApprovalStatistics, float64) {
	result := &ApprovalStatistics{Decision: DecisionNoConsensus}
	for _, b := range ballots {
		switch b.Payload.Approval {
		case ApprovalApprove:
			result.Approve++
		case ApprovalReject:
			result.Reject++
		case ApprovalAbstain:
			result.Abstain++
		}
	}

	total := result.Approve + result.Reject + result.Abstain
	if total == 0 {
		return result, 0
	}

	result.ApprovePercentage = float64(result.Approve) / float64(total) * 100
	result.RejectPercentage = float64(result.Reject) / float64(total) * 100
	result.AbstainPercentage = float64(result.Abstain) / float64(total) * 100

	switch {
	case result.ApprovePercentage > 50:
		result.Decision = DecisionApproved
	case result.RejectPercentage > 50:
		result.Decision = DecisionRejected
	}

	consensus := math.Max(result.ApprovePercentage,
		math.Max(result.RejectPercentage, result.AbstainPercentage))
	return result, consensus
}

func computeRanking(options []Option, ballots []BallotView) *RankingStatistics {
	scores := make(map[string]int, len(options))
	n := len(options)
	for _, b := range ballots {
		for _, entry := range b.Payload.Rankings {
			// Borda-style: first place earns n points, last place one.
			scores[entry.OptionID] += n - entry.Rank + 1
		}
	}

	ordered := orderedOptions(options)
	result := &RankingStatistics{Scores: make([]OptionScore, 0, len(ordered))}
	for _, opt := range ordered {
		result.Scores = append(result.Scores, OptionScore{
			OptionID: opt.ID,
			Text:     opt.Text,
			Score:    scores[opt.ID],
		})
	}
	sort.SliceStable(result.Scores, func(i, j int) bool {
		return result.Scores[i].Score > result.Scores[j].Score
	})

	if len(result.Scores) == 0 || result.Scores[0].Score == 0 {
		return result
	}
	if len(result.Scores) > 1 && result.Scores[1].Score == result.Scores[0].Score {
		result.Tie = true
		return result
	}
	result.Winner = &result.Scores[0]
	return result
}

// rankingConsensus normalizes the winning Borda score against the maximum a
// unanimous first-place ranking would earn.
func rankingConsensus(stats *RankingStatistics, totalBallots, optionCount int) float64 {
	if totalBallots == 0 || optionCount == 0 || len(stats.Scores) == 0 {
		return 0
	}
	best := stats.Scores[0].Score
	maxPossible := totalBallots * optionCount
	return float64(best) / float64(maxPossible) * 100
}

func computeBudget(options []Option, ballots []BallotView) *BudgetStatistics {
	sums := make(map[string]int, len(options))
	for _, b := range ballots {
		for id, pct := range b.Payload.Allocations {
			sums[id] += pct
		}
	}

	ordered := orderedOptions(options)
	result := &BudgetStatistics{Allocations: make([]OptionAllocation, 0, len(ordered))}
	for _, opt := range ordered {
		mean := 0.0
		if len(ballots) > 0 {
			mean = float64(sums[opt.ID]) / float64(len(ballots))
		}
		result.Allocations = append(result.Allocations, OptionAllocation{
			OptionID: opt.ID,
			Text:     opt.Text,
			MeanPct:  mean,
		})
	}
	return result
}

// budgetConsensus is the largest mean share; a flat split scores low
func budgetConsensus(stats *BudgetStatistics) float64 {
	best := 0.0
	for _, a := range stats.Allocations {
		if a.MeanPct > best {
			best = a.MeanPct
		}
	}
	return best
}

func computeText(ballots []BallotView) *TextStatistics {
	result := &TextStatistics{Responses: make([]string, 0, len(ballots))}
	for _, b := range ballots {
		if b.Payload.Text != "" {
			result.Responses = append(result.Responses, b.Payload.Text)
		}
	}
	// Responses sort lexicographically, never by cast order, so their
	// ordering leaks nothing about who voted when.
	sort.Strings(result.Responses)
	return result
}

func computeTimeline(ballots []BallotView) TimelineStatistics {
	timeline := TimelineStatistics{VotesPerDay: make(map[string]int)}
	if len(ballots) == 0 {
		return timeline
	}

	first := ballots[0].CastAt
	last := ballots[0].CastAt
	for _, b := range ballots {
		if b.CastAt.Before(first) {
			first = b.CastAt
		}
		if b.CastAt.After(last) {
			last = b.CastAt
		}
		timeline.VotesPerDay[b.CastAt.UTC().Format("2006-01-02")]++
	}

	timeline.FirstVoteAt = &first
	timeline.LastVoteAt = &last
	timeline.Duration = last.Sub(first)
	return timeline
}

// orderedOptions returns options sorted by display position without mutating
// the caller's slice.
func orderedOptions(options []Option) []Option {
	ordered := make([]Option, len(options))
	copy(ordered, options)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].Position < ordered[j].Position
	})
	return ordered
}
