package crypto

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const testSecret = "abcdefghijklmnopqrstuvwxyz123456"

func TestNewJwtRejectsShortKey(t *testing.T) {
	_, err := NewJwt(jwt.MapClaims{}, []byte("too-short"), time.Minute)
	if !errors.Is(err, ErrJwtInvalidSecretLength) {
		t.Errorf("expected ErrJwtInvalidSecretLength, got %v", err)
	}
}

func TestSessionTokenRoundTrip(t *testing.T) {
	token, err := NewJwtSessionToken("user123", "alice", "alice@example.com", "Alice A", testSecret, time.Minute)
	if err != nil {
		t.Fatalf("failed to create token: %v", err)
	}

	claims, err := ParseJwt(token, []byte(testSecret))
	if err != nil {
		t.Fatalf("failed to parse token: %v", err)
	}

	if err := ValidateSessionClaims(claims); err != nil {
		t.Fatalf("claims failed validation: %v", err)
	}

	checks := map[string]string{
		ClaimUserID:   "user123",
		ClaimUsername: "alice",
		ClaimEmail:    "alice@example.com",
		ClaimFullName: "Alice A",
		ClaimType:     ClaimTypeSession,
	}
	for key, want := range checks {
		if got := claims[key]; got != want {
			t.Errorf("claim %s: got %v, want %v", key, got, want)
		}
	}
}

func TestParseJwtExpired(t *testing.T) {
	token, err := NewJwtRefreshToken("user123", testSecret, -time.Minute)
	if err != nil {
		t.Fatalf("failed to create token: %v", err)
	}

	_, err = ParseJwt(token, []byte(testSecret))
	if !errors.Is(err, ErrJwtTokenExpired) {
		t.Errorf("expected ErrJwtTokenExpired, got %v", err)
	}
}

func TestParseJwtWrongKey(t *testing.T) {
	token, err := NewJwtRefreshToken("user123", testSecret, time.Minute)
	if err != nil {
		t.Fatalf("failed to create token: %v", err)
	}

	otherKey := []byte("zyxwvutsrqponmlkjihgfedcba654321")
	if _, err := ParseJwt(token, otherKey); err == nil {
		t.Error("expected error parsing with wrong key, got nil")
	}
}

func TestParseJwtTampered(t *testing.T) {
	token, err := NewJwtRegisterEmailToken("a@example.com", testSecret, time.Minute)
	if err != nil {
		t.Fatalf("failed to create token: %v", err)
	}

	parts := strings.Split(token, ".")
	if len(parts) != 3 {
		t.Fatalf("unexpected token shape: %d parts", len(parts))
	}
	tampered := parts[0] + ".eyJlbWFpbCI6ImF0dGFja2VyQGV4YW1wbGUuY29tIn0." + parts[2]

	if _, err := ParseJwt(tampered, []byte(testSecret)); err == nil {
		t.Error("expected error parsing tampered token, got nil")
	}
}

func TestParseJwtGarbage(t *testing.T) {
	for _, token := range []string{"", "not-a-jwt", "a.b", "a.b.c.d"} {
		if _, err := ParseJwt(token, []byte(testSecret)); err == nil {
			t.Errorf("expected error parsing %q, got nil", token)
		}
	}
}

func TestParseJwtUnverifiedReadsClaims(t *testing.T) {
	token, err := NewJwtPasswordResetToken("a@example.com", testSecret, time.Minute)
	if err != nil {
		t.Fatalf("failed to create token: %v", err)
	}

	claims, err := ParseJwtUnverified(token)
	if err != nil {
		t.Fatalf("failed to parse token: %v", err)
	}
	if claims[ClaimEmail] != "a@example.com" {
		t.Errorf("email claim: got %v", claims[ClaimEmail])
	}
	if claims[ClaimType] != ClaimTypePasswordReset {
		t.Errorf("type claim: got %v", claims[ClaimType])
	}
}

// A token minted for one purpose must fail the validator of every other
// purpose, regardless of payload overlap.
func TestCrossPurposeValidation(t *testing.T) {
	token, err := NewJwtVerifiedEmailToken("a@example.com", testSecret, time.Minute)
	if err != nil {
		t.Fatalf("failed to create token: %v", err)
	}
	claims, err := ParseJwtUnverified(token)
	if err != nil {
		t.Fatalf("failed to parse token: %v", err)
	}

	validators := map[string]func(jwt.MapClaims) error{
		"session":        ValidateSessionClaims,
		"refresh":        ValidateRefreshClaims,
		"register_email": ValidateRegisterEmailClaims,
		"email_change":   ValidateEmailChangeClaims,
		"password_reset": ValidatePasswordResetClaims,
		"verified_reset": ValidateVerifiedResetClaims,
	}
	for name, validate := range validators {
		if err := validate(claims); err == nil {
			t.Errorf("%s validator accepted a verified_email token", name)
		}
	}

	if err := ValidateVerifiedEmailClaims(claims); err != nil {
		t.Errorf("verified_email validator rejected its own token: %v", err)
	}
}

func TestValidateClaimsExpired(t *testing.T) {
	claims := jwt.MapClaims{
		ClaimType:      ClaimTypeSession,
		ClaimUserID:    "user123",
		ClaimIssuedAt:  time.Now().Add(-2 * time.Hour).Unix(),
		ClaimExpiresAt: time.Now().Add(-time.Hour).Unix(),
	}
	if err := ValidateSessionClaims(claims); !errors.Is(err, ErrJwtTokenExpired) {
		t.Errorf("expected ErrJwtTokenExpired, got %v", err)
	}
}

func TestValidateClaimsMissingFields(t *testing.T) {
	testCases := []struct {
		name   string
		claims jwt.MapClaims
	}{
		{"no type", jwt.MapClaims{ClaimUserID: "u", ClaimIssuedAt: time.Now().Unix(), ClaimExpiresAt: time.Now().Add(time.Hour).Unix()}},
		{"no user id", jwt.MapClaims{ClaimType: ClaimTypeSession, ClaimIssuedAt: time.Now().Unix(), ClaimExpiresAt: time.Now().Add(time.Hour).Unix()}},
		{"no exp", jwt.MapClaims{ClaimType: ClaimTypeSession, ClaimUserID: "u", ClaimIssuedAt: time.Now().Unix()}},
		{"no iat", jwt.MapClaims{ClaimType: ClaimTypeSession, ClaimUserID: "u", ClaimExpiresAt: time.Now().Add(time.Hour).Unix()}},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			if err := ValidateSessionClaims(tc.claims); err == nil {
				t.Error("expected error, got nil")
			}
		})
	}
}

func TestEmailChangeTokenCarriesNewEmail(t *testing.T) {
	token, err := NewJwtEmailChangeToken("user123", "new@example.com", testSecret, time.Minute)
	if err != nil {
		t.Fatalf("failed to create token: %v", err)
	}
	claims, err := ParseJwt(token, []byte(testSecret))
	if err != nil {
		t.Fatalf("failed to parse token: %v", err)
	}
	if err := ValidateEmailChangeClaims(claims); err != nil {
		t.Fatalf("claims failed validation: %v", err)
	}
	if claims[ClaimNewEmail] != "new@example.com" {
		t.Errorf("new_email claim: got %v", claims[ClaimNewEmail])
	}
}
