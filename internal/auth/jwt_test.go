package auth

import (
	"strings"
	"testing"
	"time"
)

func TestAccessTokenRoundTrip(t *testing.T) {
	m := NewManager("test-secret", time.Hour)

	raw, err := m.GenerateAccessToken("user-1", "a@example.com", "admin")

	if err != nil {
		t.Fatalf("generate: %v", err)
	}

	claims, err := m.VerifyAccessToken(raw)

	if err != nil {
		t.Fatalf("verify: %v", err)
	}

	if claims.UserID != "user-1" {
		t.Errorf("got sub %q, want user-1", claims.UserID)
	}
	if claims.Email != "a@example.com" {
		t.Errorf("got email %q, want a@example.com", claims.Email)
	}
	if claims.Role != "admin" {
		t.Errorf("got role %q, want admin", claims.Role)
	}
	if claims.JTI == "" {
		t.Error("expected a jti")
	}
}

func TestExpiredTokenRejected(t *testing.T) {
	m := NewManager("test-secret", -time.Minute)

	raw, err := m.GenerateAccessToken("user-1", "a@example.com", "user")

	if err != nil {
		t.Fatalf("generate: %v", err)
	}

	_, err = m.VerifyAccessToken(raw)

	if err == nil {
		t.Fatal("expected expired token to be rejected")
	}
}

func TestTamperedTokenRejected(t *testing.T) {
	m := NewManager("test-secret", time.Hour)

	raw, err := m.GenerateAccessToken("user-1", "a@example.com", "user")

	if err != nil {
		t.Fatalf("generate: %v", err)
	}

	parts := strings.Split(raw, ".")

	if len(parts) != 3 {
		t.Fatalf("unexpected token shape: %q", raw)
	}

	prefix := "AAAA"

	if strings.HasPrefix(parts[2], prefix) {
		prefix = "BBBB"
	}

	tampered := parts[0] + "." + parts[1] + "." + prefix + parts[2][4:]

	_, err = m.VerifyAccessToken(tampered)

	if err == nil {
		t.Fatal("expected tampered token to be rejected")
	}
}

func TestWrongSecretRejected(t *testing.T) {
	issuer := NewManager("secret-a", time.Hour)
	verifier := NewManager("secret-b", time.Hour)

	raw, err := issuer.GenerateAccessToken("user-1", "a@example.com", "user")

	if err != nil {
		t.Fatalf("generate: %v", err)
	}

	_, err = verifier.VerifyAccessToken(raw)

	if err == nil {
		t.Fatal("expected token signed with another secret to be rejected")
	}
}
