package crypto

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"time"

	"golang.org/x/crypto/hkdf"

	"chamber-v2/internal/domain"
)

// Errors surfaced by the crypto context. Callers treat ErrUnreadableBallot as
// a skip-and-count condition during aggregation, never a fatal one.
var (
	ErrInvalidToken     = errors.New("eligibility token verification failed")
	ErrUnreadableBallot = errors.New("ballot ciphertext is unreadable")
	ErrIntegrityFailure = errors.New("ballot integrity hash mismatch")
)

const (
	saltSize  = 16
	keySize   = 32
	tokenSize = sha256.Size
)

// Context holds the derived ballot-encryption and token keys. It is built
// once at process start from the configured master secret and passed by
// reference into the voting and report components; there is no package-level
// cipher state.
type Context struct {
	aead     cipher.AEAD
	tokenKey []byte
}

// NewContext derives the AES-256-GCM encryption key and the HMAC token key
// from the 32-byte master secret via HKDF-SHA256.
func NewContext(masterKey []byte) (*Context, error) {
	if len(masterKey) != keySize {
		return nil, fmt.Errorf("master key must be %d bytes, got %d", keySize, len(masterKey))
	}

	encKey, err := deriveKey(masterKey, "chamber/ballot-encryption/v1")
	if err != nil {
		return nil, err
	}
	tokenKey, err := deriveKey(masterKey, "chamber/eligibility-token/v1")
	if err != nil {
		return nil, err
	}

	block, err := aes.NewCipher(encKey)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize cipher: %w", err)
	}
	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize AEAD: %w", err)
	}

	return &Context{aead: aead, tokenKey: tokenKey}, nil
}

func deriveKey(masterKey []byte, info string) ([]byte, error) {
	key := make([]byte, keySize)
	r := hkdf.New(sha256.New, masterKey, nil, []byte(info))
	if _, err := io.ReadFull(r, key); err != nil {
		return nil, fmt.Errorf("failed to derive key: %w", err)
	}
	return key, nil
}

// NewEligibilityToken proves that a voter was eligible for a poll on a given
// date without storing anything beyond the keyed hash and its salt. A fresh
// random salt per invocation keeps tokens for the same (voter, poll, date)
// from being equal.
func (c *Context) NewEligibilityToken(voterID, pollID string, date time.Time) (token, salt []byte, err error) {
	salt = make([]byte, saltSize)
	if _, err := rand.Read(salt); err != nil {
		return nil, nil, fmt.Errorf("failed to generate token salt: %w", err)
	}
	return c.computeToken(voterID, pollID, date, salt), salt, nil
}

// VerifyEligibilityToken recomputes the token from the presented inputs and
// salt and compares in constant time.
func (c *Context) VerifyEligibilityToken(token []byte, voterID, pollID string, date time.Time, salt []byte) error {
	if len(token) != tokenSize || len(salt) != saltSize {
		return ErrInvalidToken
	}
	expected := c.computeToken(voterID, pollID, date, salt)
	if !hmac.Equal(token, expected) {
		return ErrInvalidToken
	}
	return nil
}

func (c *Context) computeToken(voterID, pollID string, date time.Time, salt []byte) []byte {
	mac := hmac.New(sha256.New, c.tokenKey)
	mac.Write([]byte(voterID))
	mac.Write([]byte{0})
	mac.Write([]byte(pollID))
	mac.Write([]byte{0})
	mac.Write([]byte(date.UTC().Format("2006-01-02")))
	mac.Write([]byte{0})
	mac.Write(salt)
	return mac.Sum(nil)
}

// EncryptPayload serializes and seals a ballot payload. The nonce is prefixed
// to the returned ciphertext.
func (c *Context) EncryptPayload(payload *domain.BallotPayload) ([]byte, error) {
	plaintext, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to serialize ballot payload: %w", err)
	}

	nonce := make([]byte, c.aead.NonceSize())
	if _, err := rand.Read(nonce); err != nil {
		return nil, fmt.Errorf("failed to generate nonce: %w", err)
	}

	return c.aead.Seal(nonce, nonce, plaintext, nil), nil
}

// DecryptPayload opens a stored ballot ciphertext. A corrupt ciphertext or a
// context built from the wrong master key yields ErrUnreadableBallot.
func (c *Context) DecryptPayload(ciphertext []byte) (*domain.BallotPayload, error) {
	if len(ciphertext) < c.aead.NonceSize() {
		return nil, ErrUnreadableBallot
	}
	nonce, sealed := ciphertext[:c.aead.NonceSize()], ciphertext[c.aead.NonceSize():]

	plaintext, err := c.aead.Open(nil, nonce, sealed, nil)
	if err != nil {
		return nil, ErrUnreadableBallot
	}

	var payload domain.BallotPayload
	if err := json.Unmarshal(plaintext, &payload); err != nil {
		return nil, ErrUnreadableBallot
	}
	return &payload, nil
}

// IntegrityHash is a keyless hash over (token, ciphertext, timestamp) stored
// alongside each ballot so later tampering with the ciphertext is detectable.
func IntegrityHash(token, ciphertext []byte, castAt time.Time) []byte {
	var ts [8]byte
	binary.BigEndian.PutUint64(ts[:], uint64(castAt.UTC().UnixNano()))

	h := sha256.New()
	h.Write(token)
	h.Write(ciphertext)
	h.Write(ts[:])
	return h.Sum(nil)
}

// VerifyIntegrity recomputes the integrity hash of a stored ballot and
// compares it against the recorded one.
func VerifyIntegrity(ballot *domain.Ballot) error {
	expected := IntegrityHash(ballot.Token, ballot.Ciphertext, ballot.CastAt)
	if !hmac.Equal(expected, ballot.IntegrityHash) {
		return ErrIntegrityFailure
	}
	return nil
}
