package repository

import (
	"context"
	"fmt"

	"chamber-v2/internal/domain"
	"chamber-v2/pkg/database"

	"github.com/jackc/pgx/v5"
)

type ReportRepository struct {
	db *database.PostgresDB
}

func NewReportRepository(db *database.PostgresDB) *ReportRepository {
	return &ReportRepository{db: db}
}

// InsertReport stores a rendered report. Reports are immutable afterwards.
func (r *ReportRepository) InsertReport(ctx context.Context, report *domain.DecisionReport) error {
	query := `
		INSERT INTO decision_reports (id, poll_id, report_kind, title, generated_by, content, confidential)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING created_at
	`

	err := r.db.Pool.QueryRow(ctx, query,
		report.ID,
		report.PollID,
		report.Kind,
		report.Title,
		report.GeneratedBy,
		report.Content,
		report.Confidential,
	).Scan(&report.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert report: %w", err)
	}

	return nil
}

// GetReportByID gets a report by ID
func (r *ReportRepository) GetReportByID(ctx context.Context, reportID string) (*domain.DecisionReport, error) {
	var report domain.DecisionReport
	query := `
		SELECT id, poll_id, report_kind, title, generated_by, content, confidential, created_at
		FROM decision_reports
		WHERE id = $1
	`

	err := r.db.Pool.QueryRow(ctx, query, reportID).Scan(
		&report.ID,
		&report.PollID,
		&report.Kind,
		&report.Title,
		&report.GeneratedBy,
		&report.Content,
		&report.Confidential,
		&report.CreatedAt,
	)

	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get report: %w", err)
	}

	return &report, nil
}

// ListReportsByPoll lists a poll's reports newest first
func (r *ReportRepository) ListReportsByPoll(ctx context.Context, pollID string) ([]domain.DecisionReport, error) {
	query := `
		SELECT id, poll_id, report_kind, title, generated_by, content, confidential, created_at
		FROM decision_reports
		WHERE poll_id = $1
		ORDER BY created_at DESC
	`

	rows, err := r.db.Pool.Query(ctx, query, pollID)
	if err != nil {
		return nil, fmt.Errorf("failed to list reports: %w", err)
	}
	defer rows.Close()

	var reports []domain.DecisionReport
	for rows.Next() {
		var report domain.DecisionReport
		err := rows.Scan(
			&report.ID,
			&report.PollID,
			&report.Kind,
			&report.Title,
			&report.GeneratedBy,
			&report.Content,
			&report.Confidential,
			&report.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan report: %w", err)
		}
		reports = append(reports, report)
	}

	return reports, nil
}
