package service

import (
	"context"
	"fmt"
	"time"

	"chamber-v2/internal/crypto"
	"chamber-v2/internal/domain"
	"chamber-v2/internal/repository"
	"chamber-v2/pkg/database"
	apperrors "chamber-v2/pkg/errors"
	"chamber-v2/pkg/redis"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"
)

// CastVoteResult is returned after a successful cast. It carries no ballot
// content.
type CastVoteResult struct {
	BallotID      string    `json:"ballot_id"`
	PollID        string    `json:"poll_id"`
	CastAt        time.Time `json:"cast_at"`
	AutoCompleted bool      `json:"auto_completed"`
	Message       string    `json:"message"`
}

// VotingService enforces eligibility, the one-ballot-per-voter invariant and
// per-type ballot validation, then commits the ballot, its audit record and
// any auto-completion transition as a single transaction.
type VotingService struct {
	db         *database.PostgresDB
	pollRepo   *repository.PollRepository
	ballotRepo *repository.BallotRepository
	voterRepo  *repository.VoterRepository
	auditRepo  *repository.AuditRepository
	cryptoCtx  *crypto.Context
	redis      *redis.Client
	audit      *AuditService
	logger     *zap.Logger
	ratingMax  int
}

func NewVotingService(
	db *database.PostgresDB,
	pollRepo *repository.PollRepository,
	ballotRepo *repository.BallotRepository,
	voterRepo *repository.VoterRepository,
	auditRepo *repository.AuditRepository,
	cryptoCtx *crypto.Context,
	redisClient *redis.Client,
	audit *AuditService,
	logger *zap.Logger,
	ratingMax int,
) *VotingService {
	return &VotingService{
		db:         db,
		pollRepo:   pollRepo,
		ballotRepo: ballotRepo,
		voterRepo:  voterRepo,
		auditRepo:  auditRepo,
		cryptoCtx:  cryptoCtx,
		redis:      redisClient,
		audit:      audit,
		logger:     logger,
		ratingMax:  ratingMax,
	}
}

// CastVote casts a ballot for the voter on the poll. Either the ballot, its
// audit record and any lifecycle transition all persist, or none do.
func (s *VotingService) CastVote(ctx context.Context, pollID, voterID string, req *domain.CastVoteRequest) (*CastVoteResult, error) {
	// Fast duplicate path. The unique constraint inside the transaction is
	// the real guard; this only spares ciphertext work for repeat submits.
	if s.redis != nil {
		castKey := s.redis.KeyBuilder.KeyVoterCast(pollID, voterID)
		if exists, err := s.redis.Exists(ctx, castKey); err == nil && exists > 0 {
			return nil, apperrors.NewDuplicateVoteError("you have already voted on this poll")
		}

		// Short-lived inflight lock so a double-submitted request does
		// not run two casting transactions back to back.
		inflightKey := s.redis.KeyBuilder.KeyCastInflight(pollID, voterID)
		if acquired, err := s.redis.SetNX(ctx, inflightKey, "1", redis.TTLIdempotency); err == nil && !acquired {
			return nil, apperrors.NewDuplicateVoteError("a vote on this poll is already being processed")
		}
		defer func() {
			if err := s.redis.Delete(ctx, inflightKey); err != nil {
				s.logger.Warn("Failed to release inflight marker",
					zap.String("poll_id", pollID),
					zap.Error(err))
			}
		}()
	}

	options, err := s.pollRepo.GetOptionsByPollID(ctx, pollID)
	if err != nil {
		return nil, apperrors.NewStorageError("failed to load poll options", err)
	}

	now := time.Now().UTC()
	result := &CastVoteResult{PollID: pollID, CastAt: now}

	txErr := s.db.WithTx(ctx, func(tx pgx.Tx) error {
		poll, err := s.pollRepo.GetPollForUpdateTx(ctx, tx, pollID)
		if err != nil {
			return apperrors.NewStorageError("failed to load poll", err)
		}
		if poll == nil {
			return apperrors.NewNotFoundError("poll not found")
		}

		if !poll.IsOpen(now) {
			return apperrors.NewPollClosedError("poll is not open for voting")
		}

		eligible, err := s.voterRepo.IsEligibleTx(ctx, tx, voterID)
		if err != nil {
			return apperrors.NewStorageError("failed to check eligibility", err)
		}
		if !eligible {
			s.audit.RecordBestEffort(ctx, voterID, domain.AuditActionVoteRejected, pollID,
				"vote rejected: caller is not an active chamber member")
			return apperrors.NewNotEligibleError("only active chamber members may vote")
		}

		hasBallot, err := s.ballotRepo.HasBallotTx(ctx, tx, pollID, voterID)
		if err != nil {
			return apperrors.NewStorageError("failed to check existing ballot", err)
		}
		if hasBallot {
			return apperrors.NewDuplicateVoteError("you have already voted on this poll")
		}

		if err := domain.ValidateBallotPayload(poll.Type, &req.Payload, options, s.ratingMax); err != nil {
			reason := err.Error()
			details := map[string]interface{}{}
			if bve, ok := domain.AsBallotValidationError(err); ok {
				details["reason"] = bve.Reason
			}
			return apperrors.NewValidationError(reason, details)
		}
		if req.Comment != "" && !poll.AllowComments {
			return apperrors.NewValidationError("comments are not allowed on this poll", nil)
		}

		token, salt, err := s.cryptoCtx.NewEligibilityToken(voterID, pollID, now)
		if err != nil {
			return apperrors.NewCryptoError("failed to issue eligibility token", err)
		}
		ciphertext, err := s.cryptoCtx.EncryptPayload(&req.Payload)
		if err != nil {
			return apperrors.NewCryptoError("failed to encrypt ballot", err)
		}

		ballot := &domain.Ballot{
			ID:            uuid.NewString(),
			PollID:        pollID,
			VoterID:       voterID,
			Token:         token,
			TokenSalt:     salt,
			Ciphertext:    ciphertext,
			IntegrityHash: crypto.IntegrityHash(token, ciphertext, now),
			Comment:       req.Comment,
			CastAt:        now,
		}

		if err := s.ballotRepo.InsertBallotTx(ctx, tx, ballot); err != nil {
			if err == domain.ErrDuplicateVote {
				// A concurrent cast by the same voter won the race.
				return apperrors.NewDuplicateVoteError("you have already voted on this poll")
			}
			return apperrors.NewStorageError("failed to persist ballot", err)
		}
		result.BallotID = ballot.ID

		auditRecord := &domain.AuditRecord{
			ActorID:     voterID,
			Action:      domain.AuditActionVoteCast,
			PollID:      &pollID,
			Description: fmt.Sprintf("ballot cast on poll %q", poll.Title),
		}
		if err := s.auditRepo.InsertRecordTx(ctx, tx, auditRecord); err != nil {
			return apperrors.NewStorageError("failed to record audit entry", err)
		}

		// Auto-completion is re-evaluated on every cast, inside the same
		// transaction, so two simultaneous final voters cannot both miss it.
		if poll.RequireAllEligible {
			ballotCount, err := s.ballotRepo.CountBallotsTx(ctx, tx, pollID)
			if err != nil {
				return apperrors.NewStorageError("failed to count ballots", err)
			}
			eligibleCount, err := s.voterRepo.CountActiveVotersTx(ctx, tx)
			if err != nil {
				return apperrors.NewStorageError("failed to count eligible voters", err)
			}
			if ShouldAutoComplete(poll, ballotCount, eligibleCount) {
				if err := s.pollRepo.MarkAutoCompletedTx(ctx, tx, pollID, now); err != nil {
					return apperrors.NewStorageError("failed to auto-complete poll", err)
				}
				closeRecord := &domain.AuditRecord{
					ActorID:     voterID,
					Action:      domain.AuditActionPollAutoClosed,
					PollID:      &pollID,
					Description: fmt.Sprintf("poll %q auto-completed: all %d eligible voters have voted", poll.Title, eligibleCount),
				}
				if err := s.auditRepo.InsertRecordTx(ctx, tx, closeRecord); err != nil {
					return apperrors.NewStorageError("failed to record audit entry", err)
				}
				result.AutoCompleted = true
			}
		}

		return nil
	})
	if txErr != nil {
		return nil, txErr
	}

	s.afterCast(ctx, pollID, voterID)

	result.Message = "Ballot recorded"
	s.logger.Info("Ballot cast",
		zap.String("poll_id", pollID),
		zap.Bool("auto_completed", result.AutoCompleted))

	return result, nil
}

// ShouldAutoComplete decides the require-all-eligible transition from counts
// read inside the casting transaction.
func ShouldAutoComplete(poll *domain.Poll, ballotCount, eligibleCount int) bool {
	return poll.RequireAllEligible && eligibleCount > 0 && ballotCount >= eligibleCount
}

// HasVoted reports whether the voter has a ballot on the poll
func (s *VotingService) HasVoted(ctx context.Context, pollID, voterID string) (bool, error) {
	if s.redis != nil {
		castKey := s.redis.KeyBuilder.KeyVoterCast(pollID, voterID)
		if exists, err := s.redis.Exists(ctx, castKey); err == nil && exists > 0 {
			return true, nil
		}
	}

	voted, err := s.ballotRepo.HasBallot(ctx, pollID, voterID)
	if err != nil {
		return false, apperrors.NewStorageError("failed to check vote status", err)
	}
	return voted, nil
}

// afterCast updates caches once the transaction has committed. Cache failures
// are logged and ignored; the store is the source of truth.
func (s *VotingService) afterCast(ctx context.Context, pollID, voterID string) {
	if s.redis == nil {
		return
	}

	castKey := s.redis.KeyBuilder.KeyVoterCast(pollID, voterID)
	if err := s.redis.Set(ctx, castKey, "1", redis.TTLVoterCast); err != nil {
		s.logger.Warn("Failed to cache cast marker",
			zap.String("poll_id", pollID),
			zap.Error(err))
	}

	statsKey := s.redis.KeyBuilder.KeyPollStatistics(pollID)
	if err := s.redis.Delete(ctx, statsKey); err != nil {
		s.logger.Warn("Failed to invalidate cached statistics",
			zap.String("poll_id", pollID),
			zap.Error(err))
	}
}
