package crypto

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const (
	// MinKeyLength is the minimum required length for JWT signing keys.
	// 32 bytes (256 bits) is the minimum recommended length for HMAC-SHA256 keys
	// to provide sufficient security against brute force attacks.
	MinKeyLength = 32

	// JWT claim constants
	ClaimIssuedAt  = "iat"       // JWT Issued At claim key
	ClaimExpiresAt = "exp"       // JWT Expiration Time claim key
	ClaimUserID    = "user_id"   // JWT User ID claim key
	ClaimEmail     = "email"     // JWT Email claim key
	ClaimNewEmail  = "new_email" // JWT New Email claim key (email change flow)
	ClaimUsername  = "username"  // JWT Username claim key (access token profile snippet)
	ClaimFullName  = "full_name" // JWT Full Name claim key (access token profile snippet)
	ClaimType      = "type"      // JWT token purpose claim key
)

// Token purposes. Each purpose is signed with its own secret, so a token can
// never verify against a different purpose's key even if the payloads collide.
const (
	ClaimTypeSession       = "session"
	ClaimTypeRefresh       = "refresh"
	ClaimTypeRegisterEmail = "register_email"
	ClaimTypeVerifiedEmail = "verified_email"
	ClaimTypeEmailChange   = "email_change"
	ClaimTypePasswordReset = "password_reset"
	ClaimTypeVerifiedReset = "verified_reset"
)

var (
	// ErrJwtTokenExpired is returned when the token has expired
	ErrJwtTokenExpired = errors.New("token expired")
	// ErrJwtInvalidToken is returned when the token is invalid
	ErrJwtInvalidToken = errors.New("invalid token")
	// ErrJwtInvalidSigningMethod is returned when the signing method is not HS256
	ErrJwtInvalidSigningMethod = errors.New("unexpected signing method")
	// ErrJwtInvalidSecretLength is returned for invalid secret lengths
	ErrJwtInvalidSecretLength = errors.New("invalid secret length")
)

// ParseJwt verifies and parses a JWT and returns its claims.
// Returns a map[string]any that you can access like any other Go map:
//
//	email := claims[ClaimEmail].(string)
func ParseJwt(token string, verificationKey []byte) (jwt.MapClaims, error) {
	parser := jwt.NewParser(jwt.WithValidMethods([]string{"HS256"}))

	parsedToken, err := parser.Parse(token, func(t *jwt.Token) (any, error) {
		return verificationKey, nil
	})

	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrJwtTokenExpired
		}
		if errors.Is(err, jwt.ErrTokenSignatureInvalid) {
			return nil, ErrJwtInvalidSigningMethod
		}
		return nil, fmt.Errorf("%w: %w", ErrJwtInvalidToken, err)
	}

	if claims, ok := parsedToken.Claims.(jwt.MapClaims); ok && parsedToken.Valid {
		return claims, nil
	}

	return nil, ErrJwtInvalidToken
}

// ParseJwtUnverified parses a JWT without verifying the signature.
// Used to discard structurally invalid tokens fast and to read the claims
// needed to select the verification key. Callers must always follow up with
// ParseJwt before trusting anything in the returned claims.
func ParseJwtUnverified(token string) (jwt.MapClaims, error) {
	parser := jwt.NewParser()

	claims := jwt.MapClaims{}
	if _, _, err := parser.ParseUnverified(token, claims); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrJwtInvalidToken, err)
	}

	return claims, nil
}

// NewJwt generates a new JWT token with the provided claims.
// payload is jwt.MapClaims which is just map[string]any.
// The iat and exp claims are set here; callers provide everything else.
func NewJwt(payload jwt.MapClaims, signingKey []byte, duration time.Duration) (string, error) {
	if len(signingKey) < MinKeyLength {
		return "", ErrJwtInvalidSecretLength
	}

	now := time.Now()
	payload[ClaimIssuedAt] = now.Unix()
	payload[ClaimExpiresAt] = now.Add(duration).Unix()

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, payload)
	tokenString, err := token.SignedString(signingKey)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}

	return tokenString, nil
}

// NewJwtSessionToken creates an access token for request authorization.
// Besides the user id it carries a small profile snippet so callers can
// render identity without a store round trip.
//
// The signing key is the per-purpose secret alone, not a key derived from
// the user's credentials: a password change must leave existing sessions
// valid, so session tokens cannot be bound to the password hash.
func NewJwtSessionToken(userID, username, email, fullName, secret string, duration time.Duration) (string, error) {
	claims := jwt.MapClaims{
		ClaimUserID:   userID,
		ClaimUsername: username,
		ClaimEmail:    email,
		ClaimFullName: fullName,
		ClaimType:     ClaimTypeSession,
	}
	return NewJwt(claims, []byte(secret), duration)
}

// NewJwtRefreshToken creates a refresh token. It carries only the user id;
// everything else is reloaded from the store at rotation time.
func NewJwtRefreshToken(userID, secret string, duration time.Duration) (string, error) {
	claims := jwt.MapClaims{
		ClaimUserID: userID,
		ClaimType:   ClaimTypeRefresh,
	}
	return NewJwt(claims, []byte(secret), duration)
}

// NewJwtRegisterEmailToken creates the proof token issued by the first
// registration step. Possession proves the holder started registration for
// the embedded email.
func NewJwtRegisterEmailToken(email, secret string, duration time.Duration) (string, error) {
	claims := jwt.MapClaims{
		ClaimEmail: email,
		ClaimType:  ClaimTypeRegisterEmail,
	}
	return NewJwt(claims, []byte(secret), duration)
}

// NewJwtVerifiedEmailToken creates the proof token issued after a
// registration OTP was confirmed. Possession proves ownership of the email.
func NewJwtVerifiedEmailToken(email, secret string, duration time.Duration) (string, error) {
	claims := jwt.MapClaims{
		ClaimEmail: email,
		ClaimType:  ClaimTypeVerifiedEmail,
	}
	return NewJwt(claims, []byte(secret), duration)
}

// NewJwtEmailChangeToken creates the proof token for the email change flow.
// The new address travels inside the token, the OTP lives on the user record.
func NewJwtEmailChangeToken(userID, newEmail, secret string, duration time.Duration) (string, error) {
	claims := jwt.MapClaims{
		ClaimUserID:   userID,
		ClaimNewEmail: newEmail,
		ClaimType:     ClaimTypeEmailChange,
	}
	return NewJwt(claims, []byte(secret), duration)
}

// NewJwtPasswordResetToken creates the proof token issued by the first
// password reset step.
func NewJwtPasswordResetToken(email, secret string, duration time.Duration) (string, error) {
	claims := jwt.MapClaims{
		ClaimEmail: email,
		ClaimType:  ClaimTypePasswordReset,
	}
	return NewJwt(claims, []byte(secret), duration)
}

// NewJwtVerifiedResetToken creates the proof token issued after a reset OTP
// was confirmed. It is the only token complete-password-reset accepts.
func NewJwtVerifiedResetToken(email, secret string, duration time.Duration) (string, error) {
	claims := jwt.MapClaims{
		ClaimEmail: email,
		ClaimType:  ClaimTypeVerifiedReset,
	}
	return NewJwt(claims, []byte(secret), duration)
}
