package auth

import (
	"testing"
	"time"
)

func TestTokenRoundTrip(t *testing.T) {
	m, err := NewTokenManager("wakil", "test-secret")
	if err != nil {
		t.Fatal(err)
	}
	token, expiresAt, err := m.Generate("user-1")
	if err != nil {
		t.Fatal(err)
	}
	if token == "" {
		t.Fatal("empty token")
	}
	if !expiresAt.After(time.Now()) {
		t.Fatalf("token already expired: %v", expiresAt)
	}

	sub, err := m.Verify(token)
	if err != nil {
		t.Fatal(err)
	}
	if sub != "user-1" {
		t.Fatalf("unexpected subject: %s", sub)
	}
}

func TestTokenExpiry(t *testing.T) {
	now := time.Now().UTC()
	clock := func() time.Time { return now }
	m, err := NewTokenManager("wakil", "test-secret", WithTokenTTL(time.Minute), WithClock(clock))
	if err != nil {
		t.Fatal(err)
	}
	token, _, err := m.Generate("user-1")
	if err != nil {
		t.Fatal(err)
	}

	now = now.Add(2 * time.Minute)
	if _, err := m.Verify(token); err != ErrInvalidToken {
		t.Fatalf("expected ErrInvalidToken for expired token, got %v", err)
	}
}

func TestTokenWrongIssuerRejected(t *testing.T) {
	issuerA, _ := NewTokenManager("service-a", "test-secret")
	issuerB, _ := NewTokenManager("service-b", "test-secret")

	token, _, err := issuerA.Generate("user-1")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := issuerB.Verify(token); err != ErrInvalidToken {
		t.Fatalf("expected ErrInvalidToken for wrong issuer, got %v", err)
	}
}

func TestTokenGarbageRejected(t *testing.T) {
	m, _ := NewTokenManager("wakil", "test-secret")
	for _, raw := range []string{"", "  ", "not-a-token", "a.b.c"} {
		if _, err := m.Verify(raw); err != ErrInvalidToken {
			t.Fatalf("Verify(%q): expected ErrInvalidToken, got %v", raw, err)
		}
	}
}

func TestMissingSecret(t *testing.T) {
	if _, err := NewTokenManager("wakil", "   "); err == nil {
		t.Fatal("expected error for blank secret")
	}
}
