package repository

import (
	"context"
	"fmt"
	"time"

	"chamber-v2/internal/domain"
	"chamber-v2/pkg/database"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

type PollRepository struct {
	db *database.PostgresDB
}

func NewPollRepository(db *database.PostgresDB) *PollRepository {
	return &PollRepository{db: db}
}

const pollColumns = `
	id, title, description, poll_type, created_by, starts_at, ends_at,
	active, quorum, require_all_eligible, allow_comments, results_public,
	completed_at, auto_completed, created_at
`

func scanPoll(row pgx.Row) (*domain.Poll, error) {
	var poll domain.Poll
	err := row.Scan(
		&poll.ID,
		&poll.Title,
		&poll.Description,
		&poll.Type,
		&poll.CreatedBy,
		&poll.StartsAt,
		&poll.EndsAt,
		&poll.Active,
		&poll.Quorum,
		&poll.RequireAllEligible,
		&poll.AllowComments,
		&poll.ResultsPublic,
		&poll.CompletedAt,
		&poll.AutoCompleted,
		&poll.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &poll, nil
}

// CreatePoll persists a poll and its option set in one transaction
func (r *PollRepository) CreatePoll(ctx context.Context, poll *domain.Poll, optionTexts []string) ([]domain.Option, error) {
	options := make([]domain.Option, 0, len(optionTexts))

	err := r.db.WithTx(ctx, func(tx pgx.Tx) error {
		query := `
			INSERT INTO polls (
				id, title, description, poll_type, created_by, starts_at, ends_at,
				active, quorum, require_all_eligible, allow_comments, results_public
			)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
			RETURNING created_at
		`
		err := tx.QueryRow(ctx, query,
			poll.ID,
			poll.Title,
			poll.Description,
			poll.Type,
			poll.CreatedBy,
			poll.StartsAt,
			poll.EndsAt,
			poll.Active,
			poll.Quorum,
			poll.RequireAllEligible,
			poll.AllowComments,
			poll.ResultsPublic,
		).Scan(&poll.CreatedAt)
		if err != nil {
			return fmt.Errorf("failed to create poll: %w", err)
		}

		for i, text := range optionTexts {
			option := domain.Option{
				ID:       uuid.NewString(),
				PollID:   poll.ID,
				Text:     text,
				Position: i + 1,
			}
			_, err := tx.Exec(ctx,
				`INSERT INTO poll_options (id, poll_id, text, position) VALUES ($1, $2, $3, $4)`,
				option.ID, option.PollID, option.Text, option.Position,
			)
			if err != nil {
				return fmt.Errorf("failed to create poll option: %w", err)
			}
			options = append(options, option)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return options, nil
}

// GetPollByID gets a poll by ID
func (r *PollRepository) GetPollByID(ctx context.Context, pollID string) (*domain.Poll, error) {
	query := `SELECT ` + pollColumns + ` FROM polls WHERE id = $1`

	poll, err := scanPoll(r.db.Pool.QueryRow(ctx, query, pollID))
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get poll: %w", err)
	}

	return poll, nil
}

// GetPollForUpdateTx locks the poll row for the remainder of the casting
// transaction so the active flag and terminal markers cannot move underneath
// a concurrent cast.
func (r *PollRepository) GetPollForUpdateTx(ctx context.Context, tx pgx.Tx, pollID string) (*domain.Poll, error) {
	query := `SELECT ` + pollColumns + ` FROM polls WHERE id = $1 FOR UPDATE`

	poll, err := scanPoll(tx.QueryRow(ctx, query, pollID))
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to lock poll: %w", err)
	}

	return poll, nil
}

// ListPolls lists polls newest first
func (r *PollRepository) ListPolls(ctx context.Context, limit int) ([]domain.Poll, error) {
	if limit <= 0 {
		limit = 50
	}
	query := `SELECT ` + pollColumns + ` FROM polls ORDER BY created_at DESC LIMIT $1`

	rows, err := r.db.Pool.Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list polls: %w", err)
	}
	defer rows.Close()

	var polls []domain.Poll
	for rows.Next() {
		poll, err := scanPoll(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan poll: %w", err)
		}
		polls = append(polls, *poll)
	}

	return polls, nil
}

// ListPollsCompletedBetween lists polls whose voting window or completion
// falls in the given range, for periodic summary reports.
func (r *PollRepository) ListPollsCompletedBetween(ctx context.Context, from, to time.Time) ([]domain.Poll, error) {
	query := `
		SELECT ` + pollColumns + `
		FROM polls
		WHERE COALESCE(completed_at, ends_at) BETWEEN $1 AND $2
		ORDER BY COALESCE(completed_at, ends_at) ASC
	`

	rows, err := r.db.Pool.Query(ctx, query, from, to)
	if err != nil {
		return nil, fmt.Errorf("failed to list polls by period: %w", err)
	}
	defer rows.Close()

	var polls []domain.Poll
	for rows.Next() {
		poll, err := scanPoll(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan poll: %w", err)
		}
		polls = append(polls, *poll)
	}

	return polls, nil
}

// GetOptionsByPollID gets a poll's options in display order
func (r *PollRepository) GetOptionsByPollID(ctx context.Context, pollID string) ([]domain.Option, error) {
	query := `
		SELECT id, poll_id, text, position
		FROM poll_options
		WHERE poll_id = $1
		ORDER BY position ASC
	`

	rows, err := r.db.Pool.Query(ctx, query, pollID)
	if err != nil {
		return nil, fmt.Errorf("failed to get poll options: %w", err)
	}
	defer rows.Close()

	var options []domain.Option
	for rows.Next() {
		var option domain.Option
		if err := rows.Scan(&option.ID, &option.PollID, &option.Text, &option.Position); err != nil {
			return nil, fmt.Errorf("failed to scan poll option: %w", err)
		}
		options = append(options, option)
	}

	return options, nil
}

// UpdatePollMetadata rewrites mutable poll fields. The caller must have
// already verified the poll has no ballots; the WHERE clause re-checks it so
// a racing first vote keeps the metadata frozen.
func (r *PollRepository) UpdatePollMetadata(ctx context.Context, poll *domain.Poll) (bool, error) {
	query := `
		UPDATE polls
		SET title = $2, description = $3, starts_at = $4, ends_at = $5,
		    active = $6, quorum = $7, require_all_eligible = $8,
		    allow_comments = $9, results_public = $10
		WHERE id = $1
		  AND NOT EXISTS (SELECT 1 FROM ballots WHERE ballots.poll_id = polls.id)
	`

	tag, err := r.db.Pool.Exec(ctx, query,
		poll.ID,
		poll.Title,
		poll.Description,
		poll.StartsAt,
		poll.EndsAt,
		poll.Active,
		poll.Quorum,
		poll.RequireAllEligible,
		poll.AllowComments,
		poll.ResultsPublic,
	)
	if err != nil {
		return false, fmt.Errorf("failed to update poll: %w", err)
	}

	return tag.RowsAffected() == 1, nil
}

// DeactivatePoll flips active to false and records the terminal transition.
// The only mutation allowed once ballots exist.
func (r *PollRepository) DeactivatePoll(ctx context.Context, pollID string, at time.Time) (bool, error) {
	query := `
		UPDATE polls
		SET active = false, completed_at = COALESCE(completed_at, $2)
		WHERE id = $1 AND completed_at IS NULL
	`

	tag, err := r.db.Pool.Exec(ctx, query, pollID, at)
	if err != nil {
		return false, fmt.Errorf("failed to deactivate poll: %w", err)
	}

	return tag.RowsAffected() == 1, nil
}

// MarkAutoCompletedTx records the auto-completion transition inside the same
// transaction that inserted the triggering ballot.
func (r *PollRepository) MarkAutoCompletedTx(ctx context.Context, tx pgx.Tx, pollID string, at time.Time) error {
	query := `
		UPDATE polls
		SET completed_at = $2, auto_completed = true
		WHERE id = $1 AND completed_at IS NULL
	`

	if _, err := tx.Exec(ctx, query, pollID, at); err != nil {
		return fmt.Errorf("failed to mark poll auto-completed: %w", err)
	}
	return nil
}
