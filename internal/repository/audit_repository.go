package repository

import (
	"context"
	"fmt"
	"strings"

	"chamber-v2/internal/domain"
	"chamber-v2/pkg/database"

	"github.com/jackc/pgx/v5"
)

// AuditRepository appends to and queries the action log. There is no update
// or delete path, here or anywhere else.
type AuditRepository struct {
	db *database.PostgresDB
}

func NewAuditRepository(db *database.PostgresDB) *AuditRepository {
	return &AuditRepository{db: db}
}

// InsertRecord appends an audit record
func (r *AuditRepository) InsertRecord(ctx context.Context, record *domain.AuditRecord) error {
	query := `
		INSERT INTO audit_records (actor_id, action, poll_id, description)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at
	`

	err := r.db.Pool.QueryRow(ctx, query,
		record.ActorID,
		record.Action,
		record.PollID,
		record.Description,
	).Scan(&record.ID, &record.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert audit record: %w", err)
	}

	return nil
}

// InsertRecordTx appends an audit record inside an open transaction, so a
// cast and its audit line commit together.
func (r *AuditRepository) InsertRecordTx(ctx context.Context, tx pgx.Tx, record *domain.AuditRecord) error {
	query := `
		INSERT INTO audit_records (actor_id, action, poll_id, description)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at
	`

	err := tx.QueryRow(ctx, query,
		record.ActorID,
		record.Action,
		record.PollID,
		record.Description,
	).Scan(&record.ID, &record.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert audit record: %w", err)
	}

	return nil
}

// QueryRecords reads audit records newest first, narrowed by the filter
func (r *AuditRepository) QueryRecords(ctx context.Context, filter *domain.AuditFilter) ([]domain.AuditRecord, error) {
	var conditions []string
	var args []interface{}

	addCondition := func(clause string, value interface{}) {
		args = append(args, value)
		conditions = append(conditions, fmt.Sprintf(clause, len(args)))
	}

	if filter.ActorID != "" {
		addCondition("actor_id = $%d", filter.ActorID)
	}
	if filter.Action != "" {
		addCondition("action = $%d", filter.Action)
	}
	if filter.PollID != "" {
		addCondition("poll_id = $%d", filter.PollID)
	}
	if !filter.From.IsZero() {
		addCondition("created_at >= $%d", filter.From)
	}
	if !filter.To.IsZero() {
		addCondition("created_at <= $%d", filter.To)
	}

	query := `SELECT id, actor_id, action, poll_id, description, created_at FROM audit_records`
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query += " ORDER BY created_at DESC, id DESC"

	limit := filter.Limit
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	args = append(args, limit)
	query += fmt.Sprintf(" LIMIT $%d", len(args))

	rows, err := r.db.Pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query audit records: %w", err)
	}
	defer rows.Close()

	var records []domain.AuditRecord
	for rows.Next() {
		var record domain.AuditRecord
		err := rows.Scan(
			&record.ID,
			&record.ActorID,
			&record.Action,
			&record.PollID,
			&record.Description,
			&record.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan audit record: %w", err)
		}
		records = append(records, record)
	}

	return records, nil
}
