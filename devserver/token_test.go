package devserver

import (
	"strings"
	"testing"
	"time"

	"github.com/kbukum/archivekit/identity"
)

func TestTokenRoundTrip(t *testing.T) {
	ts := newTokenService("test-secret", time.Hour)
	user := &userRecord{id: "u-1", name: "alice"}

	signed, expires, err := ts.issue(user, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if signed == "" {
		t.Fatal("expected a signed token")
	}
	if remaining := time.Until(expires); remaining < 55*time.Minute || remaining > time.Hour {
		t.Errorf("expiry %v not within the configured TTL", remaining)
	}

	claims, err := ts.verify(signed)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if claims.Subject != "u-1" || claims.UserName != "alice" {
		t.Errorf("claims = %q/%q, want u-1/alice", claims.Subject, claims.UserName)
	}
	if claims.ID == "" {
		t.Error("expected a token id claim")
	}
	if claims.ProjectID != "" {
		t.Errorf("root token carries project %q", claims.ProjectID)
	}
}

func TestTokenScopedClaims(t *testing.T) {
	ts := newTokenService("test-secret", time.Hour)
	user := &userRecord{id: "u-1", name: "alice"}

	signed, _, err := ts.issue(user, &identity.ProjectRef{ID: "p-1", Name: "sandbox"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	claims, err := ts.verify(signed)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if claims.ProjectID != "p-1" || claims.ProjectName != "sandbox" {
		t.Errorf("project claims = %q/%q, want p-1/sandbox", claims.ProjectID, claims.ProjectName)
	}
}

func TestTokenVerifyRejectsForeignSignature(t *testing.T) {
	issuer := newTokenService("secret-one", time.Hour)
	verifier := newTokenService("secret-two", time.Hour)

	signed, _, err := issuer.issue(&userRecord{id: "u-1", name: "alice"}, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := verifier.verify(signed); err == nil {
		t.Fatal("expected verification to fail for a foreign signature")
	}
}

func TestTokenVerifyRejectsExpired(t *testing.T) {
	ts := newTokenService("test-secret", -time.Minute)

	signed, _, err := ts.issue(&userRecord{id: "u-1", name: "alice"}, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := ts.verify(signed); err == nil {
		t.Fatal("expected verification to fail for an expired token")
	}
}

func TestTokenVerifyRejectsGarbage(t *testing.T) {
	ts := newTokenService("test-secret", time.Hour)
	for _, raw := range []string{"", "not-a-token", strings.Repeat("x", 64)} {
		if _, err := ts.verify(raw); err == nil {
			t.Errorf("verify(%q) accepted a malformed token", raw)
		}
	}
}
