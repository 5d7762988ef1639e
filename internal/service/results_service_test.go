package service

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"chamber-v2/internal/crypto"
	"chamber-v2/internal/domain"
)

func newTestCryptoContext(t *testing.T) *crypto.Context {
	key := make([]byte, 32)
	for i := range key {
		key[i] = byte(i)
	}
	cryptoCtx, err := crypto.NewContext(key)
	require.NoError(t, err)
	return cryptoCtx
}

// storedBallot builds a ballot exactly as the cast path persists it.
func storedBallot(t *testing.T, cryptoCtx *crypto.Context, pollID, voterID string, castAt time.Time) *domain.Ballot {
	token, salt, err := cryptoCtx.NewEligibilityToken(voterID, pollID, castAt)
	require.NoError(t, err)

	ciphertext, err := cryptoCtx.EncryptPayload(&domain.BallotPayload{OptionIDs: []string{"opt-1"}})
	require.NoError(t, err)

	return &domain.Ballot{
		ID:            uuid.NewString(),
		PollID:        pollID,
		VoterID:       voterID,
		Token:         token,
		TokenSalt:     salt,
		Ciphertext:    ciphertext,
		IntegrityHash: crypto.IntegrityHash(token, ciphertext, castAt),
		CastAt:        castAt,
	}
}

func TestOpenBallot(t *testing.T) {
	cryptoCtx := newTestCryptoContext(t)
	svc := &ResultsService{cryptoCtx: cryptoCtx, logger: zap.NewNop()}
	castAt := time.Date(2026, 8, 20, 10, 0, 0, 0, time.UTC)

	t.Run("Valid ballot opens", func(t *testing.T) {
		ballot := storedBallot(t, cryptoCtx, "poll-1", "member-001", castAt)

		payload, err := svc.openBallot("poll-1", ballot)
		require.NoError(t, err)
		assert.Equal(t, []string{"opt-1"}, payload.OptionIDs)
	})

	t.Run("Token recorded for another voter is rejected", func(t *testing.T) {
		ballot := storedBallot(t, cryptoCtx, "poll-1", "member-001", castAt)
		ballot.VoterID = "member-002"

		_, err := svc.openBallot("poll-1", ballot)
		assert.ErrorIs(t, err, crypto.ErrInvalidToken)
	})

	t.Run("Token bound to another poll is rejected", func(t *testing.T) {
		ballot := storedBallot(t, cryptoCtx, "poll-1", "member-001", castAt)

		_, err := svc.openBallot("poll-2", ballot)
		assert.ErrorIs(t, err, crypto.ErrInvalidToken)
	})

	t.Run("Swapped salt is rejected", func(t *testing.T) {
		ballot := storedBallot(t, cryptoCtx, "poll-1", "member-001", castAt)
		other := storedBallot(t, cryptoCtx, "poll-1", "member-001", castAt)
		ballot.TokenSalt = other.TokenSalt

		_, err := svc.openBallot("poll-1", ballot)
		assert.ErrorIs(t, err, crypto.ErrInvalidToken)
	})

	t.Run("Tampered ciphertext fails integrity", func(t *testing.T) {
		ballot := storedBallot(t, cryptoCtx, "poll-1", "member-001", castAt)
		ballot.Ciphertext[len(ballot.Ciphertext)-1] ^= 0x01

		_, err := svc.openBallot("poll-1", ballot)
		assert.ErrorIs(t, err, crypto.ErrIntegrityFailure)
	})
}
