package auth

import (
	"context"
	"errors"
	"time"

	"github.com/nft-bazaar/bazaar/internal/identity"
)

// ErrTokenRevoked is returned for tokens issued before the last logout.
var ErrTokenRevoked = errors.New("token revoked")

// Service issues and verifies access tokens for participants.
type Service struct {
	secret []byte
	ttl    time.Duration
	repo   identity.Repository
	now    func() time.Time
}

// NewService builds a token service.
func NewService(secret string, ttl time.Duration, repo identity.Repository) *Service {
	return &Service{secret: []byte(secret), ttl: ttl, repo: repo, now: time.Now}
}

// Token is an issued access token.
type Token struct {
	AccessToken string
	ExpiresIn   int64
}

// Issue signs an access token for p at its current token version.
func (s *Service) Issue(p identity.Participant) (Token, error) {
	now := s.now()
	signed, err := SignHS256(Claims{
		Subject:   p.Address,
		Version:   p.TokenVersion,
		IssuedAt:  now.Unix(),
		ExpiresAt: now.Add(s.ttl).Unix(),
	}, s.secret)
	if err != nil {
		return Token{}, err
	}
	return Token{AccessToken: signed, ExpiresIn: int64(s.ttl.Seconds())}, nil
}

// Verify checks the token and returns the caller address it was issued to.
func (s *Service) Verify(ctx context.Context, token string) (string, error) {
	claims, err := ParseAndVerifyHS256(token, s.secret, s.now())
	if err != nil {
		return "", err
	}
	p, err := s.repo.FindByAddress(ctx, claims.Subject)
	if err != nil {
		return "", ErrInvalidToken
	}
	if p.TokenVersion != claims.Version {
		return "", ErrTokenRevoked
	}
	return p.Address, nil
}

// Logout bumps the participant's token version so older tokens stop verifying.
func (s *Service) Logout(ctx context.Context, address string) error {
	p, err := s.repo.FindByAddress(ctx, address)
	if err != nil {
		return err
	}
	return s.repo.UpdateTokenVersion(ctx, p.Address, p.TokenVersion+1)
}
