package authtoken

import (
	"errors"
	"testing"
	"time"
)

func TestMintAndVerify(t *testing.T) {
	m, err := NewMinter("test-secret", time.Hour)
	if err != nil {
		t.Fatalf("minter creation failed: %v", err)
	}

	token, err := m.Mint("42", "google")
	if err != nil {
		t.Fatalf("mint failed: %v", err)
	}

	claims, err := m.Verify(token)
	if err != nil {
		t.Fatalf("verify failed: %v", err)
	}
	if claims.Subject != "42" || claims.Provider != "google" {
		t.Fatalf("unexpected claims %+v", claims)
	}

	remaining := time.Until(claims.ExpiresAt.Time)
	if remaining < 59*time.Minute || remaining > time.Hour {
		t.Fatalf("expected roughly one hour lifetime, got %v", remaining)
	}
}

func TestMint_RequiresSubject(t *testing.T) {
	m, _ := NewMinter("test-secret", time.Hour)
	if _, err := m.Mint("  ", ""); err == nil {
		t.Fatalf("expected error for empty subject")
	}
}

func TestNewMinter_RequiresSecret(t *testing.T) {
	if _, err := NewMinter("  ", time.Hour); !errors.Is(err, ErrSecretMissing) {
		t.Fatalf("expected ErrSecretMissing, got %v", err)
	}
}

func TestVerify_RejectsForeignSignature(t *testing.T) {
	a, _ := NewMinter("secret-a", time.Hour)
	b, _ := NewMinter("secret-b", time.Hour)

	token, err := a.Mint("42", "")
	if err != nil {
		t.Fatalf("mint failed: %v", err)
	}
	if _, err := b.Verify(token); err == nil {
		t.Fatalf("expected verification failure with the wrong secret")
	}
}

func TestVerify_RejectsExpiredToken(t *testing.T) {
	m, _ := NewMinter("test-secret", -time.Minute)
	// TTL floor kicks in for non-positive values, so build a short-lived
	// minter explicitly.
	m.ttl = -time.Minute

	token, err := m.Mint("42", "")
	if err != nil {
		t.Fatalf("mint failed: %v", err)
	}
	if _, err := m.Verify(token); err == nil {
		t.Fatalf("expected expired token to fail verification")
	}
}
