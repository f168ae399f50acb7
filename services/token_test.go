package services

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

func TestTokenIssueAndValidate(t *testing.T) {
	svc := NewTokenService("secret", time.Hour)
	token, err := svc.Issue(42, "alice")
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	claims, ok := svc.Validate(token)
	if !ok {
		t.Fatalf("expected token to validate")
	}
	if claims.UserID != 42 || claims.LoginID != "alice" || claims.Subject != "42" {
		t.Fatalf("unexpected claims: %+v", claims)
	}
}

func TestTokenValidateRejects(t *testing.T) {
	svc := NewTokenService("secret", time.Hour)
	good, err := svc.Issue(1, "bob")
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}

	expired := NewTokenService("secret", time.Hour)
	expired.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }
	old, err := expired.Issue(1, "bob")
	if err != nil {
		t.Fatalf("Issue expired: %v", err)
	}

	otherKey, err := NewTokenService("other", time.Hour).Issue(1, "bob")
	if err != nil {
		t.Fatalf("Issue other key: %v", err)
	}

	none, err := jwt.NewWithClaims(jwt.SigningMethodNone, Claims{UserID: 1}).SignedString(jwt.UnsafeAllowNoneSignatureType)
	if err != nil {
		t.Fatalf("sign none: %v", err)
	}

	cases := map[string]string{
		"empty":       "",
		"garbage":     "not-a-token",
		"truncated":   good[:len(good)-4],
		"expired":     old,
		"wrong key":   otherKey,
		"alg none":    none,
		"extra parts": good + ".x",
	}
	for name, token := range cases {
		t.Run(name, func(t *testing.T) {
			if claims, ok := svc.Validate(token); ok || claims != nil {
				t.Fatalf("expected rejection, got %+v", claims)
			}
		})
	}
}
