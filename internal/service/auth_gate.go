package service

import (
	"context"
	"fmt"

	"chamber-v2/internal/domain"

	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"
)

// AuthorizationGate is the single inbound authorization boundary. Every entry
// point resolves the caller through it and gets a typed result, never a
// transport-specific failure.
type AuthorizationGate interface {
	// Authenticate validates the presented credential and returns the
	// caller identity, or an error if the credential is missing or invalid.
	Authenticate(ctx context.Context, token string) (*domain.Caller, error)
}

// chamberClaims are the JWT claims issued by the host application
type chamberClaims struct {
	Name          string `json:"name"`
	ChamberMember bool   `json:"chamber_member"`
	jwt.RegisteredClaims
}

// JWTGate verifies HMAC-signed tokens from the host application
type JWTGate struct {
	secret []byte
	logger *zap.Logger
}

func NewJWTGate(secret string, logger *zap.Logger) *JWTGate {
	return &JWTGate{secret: []byte(secret), logger: logger}
}

// Authenticate parses and verifies the token and maps it to a caller
func (g *JWTGate) Authenticate(ctx context.Context, tokenString string) (*domain.Caller, error) {
	claims := &chamberClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return g.secret, nil
	})
	if err != nil {
		g.logger.Debug("Token validation failed", zap.Error(err))
		return nil, fmt.Errorf("invalid or expired token: %w", err)
	}
	if !token.Valid || claims.Subject == "" {
		return nil, fmt.Errorf("token has no subject")
	}

	return &domain.Caller{
		ID:            claims.Subject,
		Name:          claims.Name,
		ChamberMember: claims.ChamberMember,
	}, nil
}
