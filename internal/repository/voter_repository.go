package repository

import (
	"context"
	"fmt"

	"chamber-v2/internal/domain"
	"chamber-v2/pkg/database"

	"github.com/jackc/pgx/v5"
)

type VoterRepository struct {
	db *database.PostgresDB
}

func NewVoterRepository(db *database.PostgresDB) *VoterRepository {
	return &VoterRepository{db: db}
}

// GetVoterByID gets a voter by ID
func (r *VoterRepository) GetVoterByID(ctx context.Context, voterID string) (*domain.Voter, error) {
	var voter domain.Voter
	query := `
		SELECT id, display_name, active, created_at
		FROM voters
		WHERE id = $1
	`

	err := r.db.Pool.QueryRow(ctx, query, voterID).Scan(
		&voter.ID,
		&voter.DisplayName,
		&voter.Active,
		&voter.CreatedAt,
	)

	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get voter: %w", err)
	}

	return &voter, nil
}

// ListActiveVoters lists every currently eligible voter
func (r *VoterRepository) ListActiveVoters(ctx context.Context) ([]domain.Voter, error) {
	query := `
		SELECT id, display_name, active, created_at
		FROM voters
		WHERE active = true
		ORDER BY display_name ASC
	`

	rows, err := r.db.Pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list active voters: %w", err)
	}
	defer rows.Close()

	var voters []domain.Voter
	for rows.Next() {
		var voter domain.Voter
		if err := rows.Scan(&voter.ID, &voter.DisplayName, &voter.Active, &voter.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan voter: %w", err)
		}
		voters = append(voters, voter)
	}

	return voters, nil
}

// CountActiveVotersTx counts eligible voters inside an open transaction.
// Auto-completion must read this together with the ballot count it just
// changed, so both reads see the same snapshot.
func (r *VoterRepository) CountActiveVotersTx(ctx context.Context, tx pgx.Tx) (int, error) {
	var count int
	err := tx.QueryRow(ctx, `SELECT COUNT(*) FROM voters WHERE active = true`).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count active voters: %w", err)
	}
	return count, nil
}

// IsEligibleTx checks whether the voter is an active chamber member, inside
// the casting transaction.
func (r *VoterRepository) IsEligibleTx(ctx context.Context, tx pgx.Tx, voterID string) (bool, error) {
	var active bool
	err := tx.QueryRow(ctx, `SELECT active FROM voters WHERE id = $1`, voterID).Scan(&active)
	if err == pgx.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to check voter eligibility: %w", err)
	}
	return active, nil
}
