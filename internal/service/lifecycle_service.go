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

// PollDetail is a poll with its options and computed lifecycle state
type PollDetail struct {
	Poll    domain.Poll      `json:"poll"`
	Options []domain.Option  `json:"options"`
	State   domain.PollState `json:"state"`
}

// LifecycleService creates polls and drives their state transitions. Every
// state change appends to the audit log.
type LifecycleService struct {
	pollRepo  *repository.PollRepository
	voterRepo *repository.VoterRepository
	audit     *AuditService
	logger    *zap.Logger
}

func NewLifecycleService(pollRepo *repository.PollRepository, voterRepo *repository.VoterRepository, audit *AuditService, logger *zap.Logger) *LifecycleService {
	return &LifecycleService{
		pollRepo:  pollRepo,
		voterRepo: voterRepo,
		audit:     audit,
		logger:    logger,
	}
}

// CreatePoll validates the request synchronously and persists the poll with
// its option set. Yes/no polls get the fixed option pair. Only active chamber
// members may create polls.
func (s *LifecycleService) CreatePoll(ctx context.Context, creatorID string, req *domain.CreatePollRequest) (*PollDetail, error) {
	now := time.Now().UTC()
	if err := domain.ValidatePollSpec(req, now); err != nil {
		return nil, apperrors.NewValidationError(err.Error(), nil)
	}

	creator, err := s.voterRepo.GetVoterByID(ctx, creatorID)
	if err != nil {
		return nil, apperrors.NewStorageError("failed to check creator eligibility", err)
	}
	if creator == nil || !creator.Active {
		return nil, apperrors.NewNotEligibleError("only active chamber members may create polls")
	}

	optionTexts := req.Options
	if req.Type == domain.PollTypeYesNo {
		optionTexts = domain.YesNoOptionTexts()
	}

	poll := &domain.Poll{
		ID:                 uuid.NewString(),
		Title:              req.Title,
		Description:        req.Description,
		Type:               req.Type,
		CreatedBy:          creatorID,
		StartsAt:           req.StartsAt,
		EndsAt:             req.EndsAt,
		Active:             !req.Draft,
		Quorum:             req.Quorum,
		RequireAllEligible: req.RequireAllEligible,
		AllowComments:      req.AllowComments,
		ResultsPublic:      req.ResultsPublic,
	}

	options, err := s.pollRepo.CreatePoll(ctx, poll, optionTexts)
	if err != nil {
		return nil, apperrors.NewStorageError("failed to create poll", err)
	}

	if err := s.audit.Record(ctx, creatorID, domain.AuditActionPollCreated, poll.ID,
		fmt.Sprintf("created %s poll %q", poll.Type, poll.Title)); err != nil {
		s.logger.Warn("Poll created but audit append failed",
			zap.String("poll_id", poll.ID),
			zap.Error(err))
	}

	s.logger.Info("Poll created",
		zap.String("poll_id", poll.ID),
		zap.String("poll_type", string(poll.Type)),
		zap.Time("starts_at", poll.StartsAt),
		zap.Time("ends_at", poll.EndsAt))

	return &PollDetail{Poll: *poll, Options: options, State: poll.State(now)}, nil
}

// GetPoll returns a poll with its options and computed state
func (s *LifecycleService) GetPoll(ctx context.Context, pollID string) (*PollDetail, error) {
	poll, err := s.pollRepo.GetPollByID(ctx, pollID)
	if err != nil {
		return nil, apperrors.NewStorageError("failed to load poll", err)
	}
	if poll == nil {
		return nil, apperrors.NewNotFoundError("poll not found")
	}

	options, err := s.pollRepo.GetOptionsByPollID(ctx, pollID)
	if err != nil {
		return nil, apperrors.NewStorageError("failed to load poll options", err)
	}

	return &PollDetail{Poll: *poll, Options: options, State: poll.State(time.Now().UTC())}, nil
}

// ListPolls lists polls with computed states, newest first
func (s *LifecycleService) ListPolls(ctx context.Context, limit int) ([]PollDetail, error) {
	polls, err := s.pollRepo.ListPolls(ctx, limit)
	if err != nil {
		return nil, apperrors.NewStorageError("failed to list polls", err)
	}

	now := time.Now().UTC()
	details := make([]PollDetail, 0, len(polls))
	for i := range polls {
		options, err := s.pollRepo.GetOptionsByPollID(ctx, polls[i].ID)
		if err != nil {
			return nil, apperrors.NewStorageError("failed to load poll options", err)
		}
		details = append(details, PollDetail{
			Poll:    polls[i],
			Options: options,
			State:   polls[i].State(now),
		})
	}

	return details, nil
}

// UpdatePoll rewrites poll metadata. Rejected once any ballot exists; the
// repository re-checks that inside the UPDATE itself.
func (s *LifecycleService) UpdatePoll(ctx context.Context, actorID, pollID string, req *domain.UpdatePollRequest) (*PollDetail, error) {
	poll, err := s.pollRepo.GetPollByID(ctx, pollID)
	if err != nil {
		return nil, apperrors.NewStorageError("failed to load poll", err)
	}
	if poll == nil {
		return nil, apperrors.NewNotFoundError("poll not found")
	}

	now := time.Now().UTC()
	if poll.IsTerminal(now) {
		return nil, apperrors.NewPollClosedError("poll is already closed")
	}

	// The option set is not editable here; only the title, window and quorum
	// need re-validation.
	if strings.TrimSpace(req.Title) == "" {
		return nil, apperrors.NewValidationError("title is required", nil)
	}
	if err := domain.ValidatePollWindow(req.StartsAt, req.EndsAt, req.Quorum, now); err != nil {
		return nil, apperrors.NewValidationError(err.Error(), nil)
	}

	updated := *poll
	updated.Title = req.Title
	updated.Description = req.Description
	updated.StartsAt = req.StartsAt
	updated.EndsAt = req.EndsAt
	updated.Active = req.Active
	updated.Quorum = req.Quorum
	updated.RequireAllEligible = req.RequireAllEligible
	updated.AllowComments = req.AllowComments
	updated.ResultsPublic = req.ResultsPublic

	ok, err := s.pollRepo.UpdatePollMetadata(ctx, &updated)
	if err != nil {
		return nil, apperrors.NewStorageError("failed to update poll", err)
	}
	if !ok {
		// The guarded UPDATE matched no row: a ballot arrived first.
		return nil, apperrors.NewValidationError(domain.ErrPollHasVotes.Error(), nil)
	}

	if err := s.audit.Record(ctx, actorID, domain.AuditActionPollUpdated, pollID,
		fmt.Sprintf("updated poll %q", updated.Title)); err != nil {
		s.logger.Warn("Poll updated but audit append failed",
			zap.String("poll_id", pollID),
			zap.Error(err))
	}

	options, err := s.pollRepo.GetOptionsByPollID(ctx, pollID)
	if err != nil {
		return nil, apperrors.NewStorageError("failed to load poll options", err)
	}

	return &PollDetail{Poll: updated, Options: options, State: updated.State(now)}, nil
}

// Deactivate closes a poll early. The only mutation allowed once ballots
// exist; the poll becomes terminal and no further votes are accepted.
func (s *LifecycleService) Deactivate(ctx context.Context, actorID, pollID string) (*PollDetail, error) {
	poll, err := s.pollRepo.GetPollByID(ctx, pollID)
	if err != nil {
		return nil, apperrors.NewStorageError("failed to load poll", err)
	}
	if poll == nil {
		return nil, apperrors.NewNotFoundError("poll not found")
	}

	now := time.Now().UTC()
	if poll.CompletedAt != nil {
		return nil, apperrors.NewPollClosedError("poll is already closed")
	}

	ok, err := s.pollRepo.DeactivatePoll(ctx, pollID, now)
	if err != nil {
		return nil, apperrors.NewStorageError("failed to deactivate poll", err)
	}
	if !ok {
		return nil, apperrors.NewPollClosedError("poll is already closed")
	}

	if err := s.audit.Record(ctx, actorID, domain.AuditActionPollDeactivated, pollID,
		fmt.Sprintf("deactivated poll %q before its scheduled end", poll.Title)); err != nil {
		s.logger.Warn("Poll deactivated but audit append failed",
			zap.String("poll_id", pollID),
			zap.Error(err))
	}

	s.logger.Info("Poll deactivated",
		zap.String("poll_id", pollID),
		zap.String("actor_id", actorID))

	return s.GetPoll(ctx, pollID)
}

// ListEligibleVoters lists the current chamber roster of active members
func (s *LifecycleService) ListEligibleVoters(ctx context.Context) ([]domain.Voter, error) {
	voters, err := s.voterRepo.ListActiveVoters(ctx)
	if err != nil {
		return nil, apperrors.NewStorageError("failed to list eligible voters", err)
	}
	return voters, nil
}

// CanViewResults reports whether the poll's aggregates may be shown now
func (s *LifecycleService) CanViewResults(poll *domain.Poll) bool {
	return poll.CanViewResults(time.Now().UTC())
}
