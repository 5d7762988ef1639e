package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"chamber-v2/internal/domain"
	"chamber-v2/internal/repository"
	apperrors "chamber-v2/pkg/errors"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ReportService renders decision reports as markdown and stores them as
// immutable DecisionReport rows.
type ReportService struct {
	pollRepo   *repository.PollRepository
	reportRepo *repository.ReportRepository
	results    *ResultsService
	audit      *AuditService
	logger     *zap.Logger
}

func NewReportService(
	pollRepo *repository.PollRepository,
	reportRepo *repository.ReportRepository,
	results *ResultsService,
	audit *AuditService,
	logger *zap.Logger,
) *ReportService {
	return &ReportService{
		pollRepo:   pollRepo,
		reportRepo: reportRepo,
		results:    results,
		audit:      audit,
		logger:     logger,
	}
}

// GenerateReport renders and stores a report. Per-poll kinds require pollID;
// periodic summaries ignore it and use the request's period bounds.
func (s *ReportService) GenerateReport(ctx context.Context, actorID, pollID string, req *domain.GenerateReportRequest) (*domain.DecisionReport, error) {
	if !domain.ValidReportKind(req.Kind) {
		return nil, apperrors.NewValidationError("unknown report kind", nil)
	}

	report := &domain.DecisionReport{
		ID:           uuid.NewString(),
		Kind:         req.Kind,
		GeneratedBy:  actorID,
		Confidential: req.Confidential,
	}

	switch req.Kind {
	case domain.ReportKindPeriodicSummary:
		if req.PeriodEnd.IsZero() || !req.PeriodEnd.After(req.PeriodStart) {
			return nil, apperrors.NewValidationError("periodic summaries need a valid period", nil)
		}
		content, title, err := s.renderPeriodicSummary(ctx, actorID, req.PeriodStart, req.PeriodEnd)
		if err != nil {
			return nil, err
		}
		report.Title = title
		report.Content = content

	default:
		poll, err := s.pollRepo.GetPollByID(ctx, pollID)
		if err != nil {
			return nil, apperrors.NewStorageError("failed to load poll", err)
		}
		if poll == nil {
			return nil, apperrors.NewNotFoundError("poll not found")
		}
		if err := checkReportVisibility(poll, time.Now().UTC()); err != nil {
			return nil, err
		}

		stats, err := s.results.computeStatistics(ctx, poll, actorID)
		if err != nil {
			return nil, err
		}

		report.PollID = &poll.ID
		if req.Kind == domain.ReportKindDecisionAnalysis {
			report.Title = fmt.Sprintf("Decision analysis: %s", poll.Title)
			report.Content = RenderDecisionAnalysis(poll, stats)
		} else {
			report.Title = fmt.Sprintf("Poll results: %s", poll.Title)
			report.Content = RenderPollResults(poll, stats)
		}
	}

	if err := s.reportRepo.InsertReport(ctx, report); err != nil {
		return nil, apperrors.NewStorageError("failed to store report", err)
	}

	s.audit.RecordBestEffort(ctx, actorID, domain.AuditActionReportGenerated, pollID,
		fmt.Sprintf("generated %s report %q", report.Kind, report.Title))

	s.logger.Info("Report generated",
		zap.String("report_id", report.ID),
		zap.String("report_kind", string(report.Kind)))

	return report, nil
}

// checkReportVisibility applies the same gate as the results endpoint to
// per-poll report kinds. Tallies for an open poll with private results must
// not leak through a rendered report. Periodic summaries never hit this path;
// they only cover completed polls.
func checkReportVisibility(poll *domain.Poll, now time.Time) error {
	if !poll.CanViewResults(now) {
		return apperrors.NewNotEligibleError("results are not visible until the poll closes")
	}
	return nil
}

// GetReport gets a stored report by ID
func (s *ReportService) GetReport(ctx context.Context, reportID string) (*domain.DecisionReport, error) {
	report, err := s.reportRepo.GetReportByID(ctx, reportID)
	if err != nil {
		return nil, apperrors.NewStorageError("failed to load report", err)
	}
	if report == nil {
		return nil, apperrors.NewNotFoundError("report not found")
	}
	return report, nil
}

// ListReports lists stored reports for a poll, newest first
func (s *ReportService) ListReports(ctx context.Context, pollID string) ([]domain.DecisionReport, error) {
	reports, err := s.reportRepo.ListReportsByPoll(ctx, pollID)
	if err != nil {
		return nil, apperrors.NewStorageError("failed to list reports", err)
	}
	return reports, nil
}

func (s *ReportService) renderPeriodicSummary(ctx context.Context, actorID string, from, to time.Time) (content, title string, err error) {
	polls, err := s.pollRepo.ListPollsCompletedBetween(ctx, from, to)
	if err != nil {
		return "", "", apperrors.NewStorageError("failed to list polls for summary", err)
	}

	type pollSummary struct {
		poll  domain.Poll
		stats *domain.PollStatistics
	}
	summaries := make([]pollSummary, 0, len(polls))
	for i := range polls {
		stats, err := s.results.computeStatistics(ctx, &polls[i], actorID)
		if err != nil {
			return "", "", err
		}
		summaries = append(summaries, pollSummary{poll: polls[i], stats: stats})
	}

	title = fmt.Sprintf("Chamber summary %s to %s",
		from.UTC().Format("2006-01-02"), to.UTC().Format("2006-01-02"))

	var b strings.Builder
	fmt.Fprintf(&b, "# %s\n\n", title)
	fmt.Fprintf(&b, "%d poll(s) concluded in this period.\n\n", len(summaries))
	for _, s := range summaries {
		fmt.Fprintf(&b, "## %s\n\n", s.poll.Title)
		writeStatsSummary(&b, s.stats)
		b.WriteString("\n")
	}

	return b.String(), title, nil
}

// RenderPollResults renders the poll-results report body
func RenderPollResults(poll *domain.Poll, stats *domain.PollStatistics) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# Poll results: %s\n\n", poll.Title)
	if poll.Description != "" {
		fmt.Fprintf(&b, "%s\n\n", poll.Description)
	}
	fmt.Fprintf(&b, "- Type: %s\n", poll.Type)
	fmt.Fprintf(&b, "- Voting window: %s to %s\n\n",
		poll.StartsAt.UTC().Format(time.RFC3339), poll.EndsAt.UTC().Format(time.RFC3339))
	writeStatsSummary(&b, stats)
	writeTypeDetail(&b, stats)
	writeTimeline(&b, stats)
	return b.String()
}

// RenderDecisionAnalysis renders the decision-analysis report body, which
// adds the consensus interpretation on top of the raw results.
func RenderDecisionAnalysis(poll *domain.Poll, stats *domain.PollStatistics) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# Decision analysis: %s\n\n", poll.Title)
	writeStatsSummary(&b, stats)
	writeTypeDetail(&b, stats)

	b.WriteString("## Interpretation\n\n")
	fmt.Fprintf(&b, "Consensus level %.1f%% places this decision at **%s** confidence.\n",
		stats.ConsensusLevel, stats.Confidence)
	switch {
	case stats.TotalVotes == 0:
		b.WriteString("No readable ballots were cast; no decision can be derived.\n")
	case !stats.QuorumReached:
		b.WriteString("The configured quorum was not reached; treat the outcome as advisory.\n")
	case stats.Confidence == domain.ConfidenceLow:
		b.WriteString("Votes are spread across outcomes; consider a follow-up poll before acting.\n")
	default:
		b.WriteString("The outcome is well supported by the cast ballots.\n")
	}
	writeTimeline(&b, stats)
	return b.String()
}

func writeStatsSummary(b *strings.Builder, stats *domain.PollStatistics) {
	fmt.Fprintf(b, "- Total votes: %d\n", stats.TotalVotes)
	if stats.UnreadableVotes > 0 {
		fmt.Fprintf(b, "- Unreadable ballots excluded: %d\n", stats.UnreadableVotes)
	}
	fmt.Fprintf(b, "- Consensus level: %.1f\n", stats.ConsensusLevel)
	fmt.Fprintf(b, "- Decision confidence: %s\n", stats.Confidence)
	if stats.Approval != nil {
		fmt.Fprintf(b, "- Decision: %s\n", stats.Approval.Decision)
	}
}

func writeTypeDetail(b *strings.Builder, stats *domain.PollStatistics) {
	switch {
	case stats.Choice != nil:
		b.WriteString("\n## Votes per option\n\n")
		for _, opt := range stats.Choice.Options {
			fmt.Fprintf(b, "- %s: %d (%.1f%%)\n", opt.Text, opt.Count, opt.Percentage)
		}
		if stats.Choice.Winner != nil {
			fmt.Fprintf(b, "\nWinner: **%s**\n", stats.Choice.Winner.Text)
		} else if stats.Choice.Tie {
			b.WriteString("\nNo single winner: the leading options are tied.\n")
		}

	case stats.Rating != nil:
		b.WriteString("\n## Rating distribution\n\n")
		fmt.Fprintf(b, "- Mean: %.2f, median: %.1f, stddev: %.2f\n",
			stats.Rating.Mean, stats.Rating.Median, stats.Rating.StdDev)
		fmt.Fprintf(b, "- Range: %d to %d\n", stats.Rating.Min, stats.Rating.Max)

	case stats.Approval != nil:
		b.WriteString("\n## Approval breakdown\n\n")
		fmt.Fprintf(b, "- Approve: %d (%.1f%%)\n", stats.Approval.Approve, stats.Approval.ApprovePercentage)
		fmt.Fprintf(b, "- Reject: %d (%.1f%%)\n", stats.Approval.Reject, stats.Approval.RejectPercentage)
		fmt.Fprintf(b, "- Abstain: %d (%.1f%%)\n", stats.Approval.Abstain, stats.Approval.AbstainPercentage)

	case stats.Ranking != nil:
		b.WriteString("\n## Ranking scores\n\n")
		for _, score := range stats.Ranking.Scores {
			fmt.Fprintf(b, "- %s: %d\n", score.Text, score.Score)
		}
		if stats.Ranking.Winner != nil {
			fmt.Fprintf(b, "\nTop ranked: **%s**\n", stats.Ranking.Winner.Text)
		}

	case stats.Budget != nil:
		b.WriteString("\n## Mean allocation\n\n")
		for _, alloc := range stats.Budget.Allocations {
			fmt.Fprintf(b, "- %s: %.1f%%\n", alloc.Text, alloc.MeanPct)
		}

	case stats.Text != nil:
		fmt.Fprintf(b, "\n## Responses (%d)\n\n", len(stats.Text.Responses))
		for _, response := range stats.Text.Responses {
			fmt.Fprintf(b, "- %s\n", response)
		}
	}
}

func writeTimeline(b *strings.Builder, stats *domain.PollStatistics) {
	if stats.Timeline.FirstVoteAt == nil {
		return
	}
	b.WriteString("\n## Timeline\n\n")
	fmt.Fprintf(b, "- First vote: %s\n", stats.Timeline.FirstVoteAt.UTC().Format(time.RFC3339))
	fmt.Fprintf(b, "- Last vote: %s\n", stats.Timeline.LastVoteAt.UTC().Format(time.RFC3339))
	fmt.Fprintf(b, "- Voting duration: %s\n", stats.Timeline.Duration)
}
