package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"chamber-v2/internal/crypto"
	"chamber-v2/internal/domain"
	"chamber-v2/internal/repository"
	apperrors "chamber-v2/pkg/errors"
	"chamber-v2/pkg/redis"

	"go.uber.org/zap"
)

// ResultsService computes per-poll aggregates from decrypted ballots. It
// never mutates stored data; decryption happens only here and in report
// generation, never on the cast path.
type ResultsService struct {
	pollRepo   *repository.PollRepository
	ballotRepo *repository.BallotRepository
	cryptoCtx  *crypto.Context
	redis      *redis.Client
	audit      *AuditService
	logger     *zap.Logger
	ratingMax  int
}

func NewResultsService(
	pollRepo *repository.PollRepository,
	ballotRepo *repository.BallotRepository,
	cryptoCtx *crypto.Context,
	redisClient *redis.Client,
	audit *AuditService,
	logger *zap.Logger,
	ratingMax int,
) *ResultsService {
	return &ResultsService{
		pollRepo:   pollRepo,
		ballotRepo: ballotRepo,
		cryptoCtx:  cryptoCtx,
		redis:      redisClient,
		audit:      audit,
		logger:     logger,
		ratingMax:  ratingMax,
	}
}

// ComputeStatistics aggregates the poll's ballots, enforcing the results
// visibility gate for the requesting actor.
func (s *ResultsService) ComputeStatistics(ctx context.Context, pollID, actorID string) (*domain.PollStatistics, error) {
	poll, err := s.pollRepo.GetPollByID(ctx, pollID)
	if err != nil {
		return nil, apperrors.NewStorageError("failed to load poll", err)
	}
	if poll == nil {
		return nil, apperrors.NewNotFoundError("poll not found")
	}

	if !poll.CanViewResults(time.Now().UTC()) {
		return nil, apperrors.NewNotEligibleError("results are not visible until the poll closes")
	}

	return s.computeStatistics(ctx, poll, actorID)
}

// computeStatistics does the aggregation without the visibility gate; report
// generation applies its own rules.
func (s *ResultsService) computeStatistics(ctx context.Context, poll *domain.Poll, actorID string) (*domain.PollStatistics, error) {
	if cached := s.cachedStatistics(ctx, poll.ID); cached != nil {
		return cached, nil
	}

	options, err := s.pollRepo.GetOptionsByPollID(ctx, poll.ID)
	if err != nil {
		return nil, apperrors.NewStorageError("failed to load poll options", err)
	}

	ballots, err := s.ballotRepo.ListBallotsByPoll(ctx, poll.ID)
	if err != nil {
		return nil, apperrors.NewStorageError("failed to load ballots", err)
	}

	views, unreadable := s.decryptBallots(ctx, poll.ID, actorID, ballots)
	stats := domain.ComputePollStatistics(poll, options, views, unreadable, s.ratingMax)

	s.cacheStatistics(ctx, poll.ID, stats)
	return stats, nil
}

// decryptBallots verifies and opens each stored ballot. An unreadable or
// tampered ballot is counted and skipped, never fatal for the whole set; each
// one is a security event and is audited as such.
func (s *ResultsService) decryptBallots(ctx context.Context, pollID, actorID string, ballots []domain.Ballot) ([]domain.BallotView, int) {
	views := make([]domain.BallotView, 0, len(ballots))
	unreadable := 0

	for i := range ballots {
		ballot := &ballots[i]

		payload, err := s.openBallot(pollID, ballot)
		if err != nil {
			unreadable++
			s.logger.Error("Stored ballot failed verification",
				zap.String("poll_id", pollID),
				zap.String("ballot_id", ballot.ID),
				zap.Error(err))
			s.audit.RecordBestEffort(ctx, actorID, domain.AuditActionCryptoFailure, pollID,
				fmt.Sprintf("stored ballot excluded from aggregates: %v", err))
			continue
		}

		views = append(views, domain.BallotView{Payload: *payload, CastAt: ballot.CastAt})
	}

	return views, unreadable
}

// openBallot checks one stored ballot before it may count: the eligibility
// token must recompute from the ballot's own fields, the integrity hash must
// match, and the ciphertext must decrypt.
func (s *ResultsService) openBallot(pollID string, ballot *domain.Ballot) (*domain.BallotPayload, error) {
	if err := s.cryptoCtx.VerifyEligibilityToken(ballot.Token, ballot.VoterID, pollID, ballot.CastAt, ballot.TokenSalt); err != nil {
		return nil, err
	}
	if err := crypto.VerifyIntegrity(ballot); err != nil {
		return nil, err
	}
	return s.cryptoCtx.DecryptPayload(ballot.Ciphertext)
}

func (s *ResultsService) cachedStatistics(ctx context.Context, pollID string) *domain.PollStatistics {
	if s.redis == nil {
		return nil
	}

	data, err := s.redis.Get(ctx, s.redis.KeyBuilder.KeyPollStatistics(pollID))
	if err != nil || data == "" {
		return nil
	}

	var stats domain.PollStatistics
	if err := json.Unmarshal([]byte(data), &stats); err != nil {
		return nil
	}
	return &stats
}

func (s *ResultsService) cacheStatistics(ctx context.Context, pollID string, stats *domain.PollStatistics) {
	if s.redis == nil {
		return
	}

	data, err := json.Marshal(stats)
	if err != nil {
		return
	}
	if err := s.redis.Set(ctx, s.redis.KeyBuilder.KeyPollStatistics(pollID), string(data), redis.TTLStatistics); err != nil {
		s.logger.Warn("Failed to cache poll statistics",
			zap.String("poll_id", pollID),
			zap.Error(err))
	}
}
