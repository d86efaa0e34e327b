package auth

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/nft-bazaar/bazaar/internal/identity"
)

func newTestService(t *testing.T) (*Service, identity.Participant) {
	t.Helper()
	repo := identity.NewMemoryRepository()
	p, err := identity.NewService(repo).Register(context.Background(), identity.Credentials{Address: "0xalice", Passphrase: "long enough"})
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	return NewService("test-secret", time.Minute, repo), p
}

func TestIssueAndVerify(t *testing.T) {
	svc, p := newTestService(t)

	token, err := svc.Issue(p)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	caller, err := svc.Verify(context.Background(), token.AccessToken)
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if caller != "0xalice" {
		t.Fatalf("expected 0xalice, got %s", caller)
	}
}

func TestVerifyRejectsTamperedAndExpired(t *testing.T) {
	svc, p := newTestService(t)
	ctx := context.Background()

	token, _ := svc.Issue(p)
	forged, err := SignHS256(Claims{Subject: p.Address, ExpiresAt: time.Now().Add(time.Hour).Unix()}, []byte("other-secret"))
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	if _, err := svc.Verify(ctx, forged); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected invalid token, got %v", err)
	}

	svc.now = func() time.Time { return time.Now().Add(2 * time.Minute) }
	if _, err := svc.Verify(ctx, token.AccessToken); !errors.Is(err, ErrTokenExpired) {
		t.Fatalf("expected expired token, got %v", err)
	}
}

func TestLogoutRevokesTokens(t *testing.T) {
	svc, p := newTestService(t)
	ctx := context.Background()

	token, _ := svc.Issue(p)
	if err := svc.Logout(ctx, p.Address); err != nil {
		t.Fatalf("logout: %v", err)
	}
	if _, err := svc.Verify(ctx, token.AccessToken); !errors.Is(err, ErrTokenRevoked) {
		t.Fatalf("expected revoked token, got %v", err)
	}
}
