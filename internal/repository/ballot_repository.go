package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"chamber-v2/internal/domain"
	"chamber-v2/pkg/database"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// pgUniqueViolation is the PostgreSQL error code for unique constraint hits
const pgUniqueViolation = "23505"

type BallotRepository struct {
	db *database.PostgresDB
}

func NewBallotRepository(db *database.PostgresDB) *BallotRepository {
	return &BallotRepository{db: db}
}

// InsertBallotTx inserts a ballot inside the casting transaction. The unique
// constraint on (poll_id, voter_id) is the authoritative duplicate-cast
// guard: under concurrent casts by the same voter exactly one insert wins.
func (r *BallotRepository) InsertBallotTx(ctx context.Context, tx pgx.Tx, ballot *domain.Ballot) error {
	query := `
		INSERT INTO ballots (
			id, poll_id, voter_id, token, token_salt, ciphertext, integrity_hash, comment, cast_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, NULLIF($8, ''), $9)
	`

	_, err := tx.Exec(ctx, query,
		ballot.ID,
		ballot.PollID,
		ballot.VoterID,
		ballot.Token,
		ballot.TokenSalt,
		ballot.Ciphertext,
		ballot.IntegrityHash,
		ballot.Comment,
		ballot.CastAt,
	)
	if err != nil {
		if IsDuplicateBallot(err) {
			return domain.ErrDuplicateVote
		}
		return fmt.Errorf("failed to insert ballot: %w", err)
	}

	return nil
}

// IsDuplicateBallot reports whether err is the unique violation raised by a
// second ballot for the same (poll, voter) pair.
func IsDuplicateBallot(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
		return strings.Contains(pgErr.ConstraintName, "poll_id_voter_id")
	}
	return false
}

// HasBallotTx checks for an existing ballot inside the casting transaction.
// The insert's unique constraint remains the real guard; this check exists so
// routine duplicates are rejected before any ciphertext is produced.
func (r *BallotRepository) HasBallotTx(ctx context.Context, tx pgx.Tx, pollID, voterID string) (bool, error) {
	var exists bool
	query := `SELECT EXISTS (SELECT 1 FROM ballots WHERE poll_id = $1 AND voter_id = $2)`

	if err := tx.QueryRow(ctx, query, pollID, voterID).Scan(&exists); err != nil {
		return false, fmt.Errorf("failed to check existing ballot: %w", err)
	}

	return exists, nil
}

// CountBallotsTx counts the poll's ballots inside an open transaction, so the
// auto-completion check sees the ballot that was just inserted.
func (r *BallotRepository) CountBallotsTx(ctx context.Context, tx pgx.Tx, pollID string) (int, error) {
	var count int
	err := tx.QueryRow(ctx, `SELECT COUNT(*) FROM ballots WHERE poll_id = $1`, pollID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count ballots: %w", err)
	}
	return count, nil
}

// HasBallot reports whether the voter has already cast for the poll
func (r *BallotRepository) HasBallot(ctx context.Context, pollID, voterID string) (bool, error) {
	var exists bool
	query := `SELECT EXISTS (SELECT 1 FROM ballots WHERE poll_id = $1 AND voter_id = $2)`

	if err := r.db.Pool.QueryRow(ctx, query, pollID, voterID).Scan(&exists); err != nil {
		return false, fmt.Errorf("failed to check ballot: %w", err)
	}

	return exists, nil
}

// ListBallotsByPoll reads all stored ballots for aggregation. Rows come back
// in cast order; committed reads only, so a report running concurrently with
// a cast never sees a half-written ballot.
func (r *BallotRepository) ListBallotsByPoll(ctx context.Context, pollID string) ([]domain.Ballot, error) {
	query := `
		SELECT id, poll_id, voter_id, token, token_salt, ciphertext, integrity_hash,
		       COALESCE(comment, ''), cast_at
		FROM ballots
		WHERE poll_id = $1
		ORDER BY cast_at ASC
	`

	rows, err := r.db.Pool.Query(ctx, query, pollID)
	if err != nil {
		return nil, fmt.Errorf("failed to list ballots: %w", err)
	}
	defer rows.Close()

	var ballots []domain.Ballot
	for rows.Next() {
		var ballot domain.Ballot
		err := rows.Scan(
			&ballot.ID,
			&ballot.PollID,
			&ballot.VoterID,
			&ballot.Token,
			&ballot.TokenSalt,
			&ballot.Ciphertext,
			&ballot.IntegrityHash,
			&ballot.Comment,
			&ballot.CastAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan ballot: %w", err)
		}
		ballots = append(ballots, ballot)
	}

	return ballots, nil
}
