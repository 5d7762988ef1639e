package service

import (
	"context"

	"chamber-v2/internal/domain"
	"chamber-v2/internal/repository"

	"go.uber.org/zap"
)

// AuditService appends to and queries the chamber's append-only action log
type AuditService struct {
	auditRepo *repository.AuditRepository
	logger    *zap.Logger
}

func NewAuditService(auditRepo *repository.AuditRepository, logger *zap.Logger) *AuditService {
	return &AuditService{auditRepo: auditRepo, logger: logger}
}

// Record appends an action to the audit log. pollID may be empty for actions
// not tied to a poll.
func (s *AuditService) Record(ctx context.Context, actorID, action, pollID, description string) error {
	record := &domain.AuditRecord{
		ActorID:     actorID,
		Action:      action,
		Description: description,
	}
	if pollID != "" {
		record.PollID = &pollID
	}

	if err := s.auditRepo.InsertRecord(ctx, record); err != nil {
		s.logger.Error("Failed to append audit record",
			zap.String("action", action),
			zap.Error(err))
		return err
	}

	return nil
}

// RecordBestEffort appends an audit line for a rejection or security event.
// A failing append is logged but never masks the original outcome.
func (s *AuditService) RecordBestEffort(ctx context.Context, actorID, action, pollID, description string) {
	_ = s.Record(ctx, actorID, action, pollID, description)
}

// Query reads audit records matching the filter
func (s *AuditService) Query(ctx context.Context, filter *domain.AuditFilter) ([]domain.AuditRecord, error) {
	return s.auditRepo.QueryRecords(ctx, filter)
}
