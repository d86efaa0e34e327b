package identity

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

const minPassphraseLen = 8

var (
	// ErrInvalidAddress is returned for empty or malformed addresses.
	ErrInvalidAddress = errors.New("address must be non-empty and contain no whitespace")
	// ErrWeakPassphrase is returned for passphrases shorter than the minimum.
	ErrWeakPassphrase = errors.New("passphrase must be at least 8 characters")
	// ErrInvalidCredentials is returned when the address or passphrase does not match.
	ErrInvalidCredentials = errors.New("invalid credentials")
)

// Service manages participant registration and authentication.
type Service struct {
	repo Repository
}

// NewService creates a new identity service.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// NormalizeAddress lowercases and trims an address so lookups are case-insensitive.
func NormalizeAddress(address string) (string, error) {
	address = strings.ToLower(strings.TrimSpace(address))
	if address == "" || strings.ContainsAny(address, " \t\r\n") {
		return "", ErrInvalidAddress
	}
	return address, nil
}

// Register stores a participant with a bcrypt-hashed passphrase.
func (s *Service) Register(ctx context.Context, creds Credentials) (Participant, error) {
	address, err := NormalizeAddress(creds.Address)
	if err != nil {
		return Participant{}, err
	}
	if len(creds.Passphrase) < minPassphraseLen {
		return Participant{}, ErrWeakPassphrase
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(creds.Passphrase), bcrypt.DefaultCost)
	if err != nil {
		return Participant{}, err
	}

	p := Participant{
		ID:             uuid.NewString(),
		Address:        address,
		PassphraseHash: hash,
		CreatedAt:      time.Now().UTC(),
	}
	if err := s.repo.Create(ctx, p); err != nil {
		return Participant{}, err
	}
	return p, nil
}

// Authenticate verifies the passphrase for an address.
func (s *Service) Authenticate(ctx context.Context, creds Credentials) (Participant, error) {
	address, err := NormalizeAddress(creds.Address)
	if err != nil {
		return Participant{}, ErrInvalidCredentials
	}
	p, err := s.repo.FindByAddress(ctx, address)
	if err != nil {
		if errors.Is(err, ErrParticipantNotFound) {
			return Participant{}, ErrInvalidCredentials
		}
		return Participant{}, err
	}
	if err := bcrypt.CompareHashAndPassword(p.PassphraseHash, []byte(creds.Passphrase)); err != nil {
		return Participant{}, ErrInvalidCredentials
	}
	return p, nil
}
