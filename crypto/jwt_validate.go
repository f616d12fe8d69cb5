package crypto

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// The validators below check claims that were parsed without signature
// verification. They exist to reject malformed or mis-purposed tokens
// cheaply; the caller still verifies the signature with ParseJwt afterwards.

func validateCommonClaims(claims jwt.MapClaims, wantType string) error {
	typ, ok := claims[ClaimType].(string)
	if !ok || typ != wantType {
		return ErrJwtInvalidToken
	}

	if _, ok := claims[ClaimIssuedAt]; !ok {
		return ErrJwtInvalidToken
	}

	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return ErrJwtInvalidToken
	}
	if exp.Before(time.Now()) {
		return ErrJwtTokenExpired
	}

	return nil
}

func claimString(claims jwt.MapClaims, key string) (string, error) {
	v, ok := claims[key].(string)
	if !ok || v == "" {
		return "", ErrJwtInvalidToken
	}
	return v, nil
}

// ValidateSessionClaims checks the claims of an access token.
func ValidateSessionClaims(claims jwt.MapClaims) error {
	if err := validateCommonClaims(claims, ClaimTypeSession); err != nil {
		return err
	}
	_, err := claimString(claims, ClaimUserID)
	return err
}

// ValidateRefreshClaims checks the claims of a refresh token.
func ValidateRefreshClaims(claims jwt.MapClaims) error {
	if err := validateCommonClaims(claims, ClaimTypeRefresh); err != nil {
		return err
	}
	_, err := claimString(claims, ClaimUserID)
	return err
}

// ValidateRegisterEmailClaims checks the claims of a registration proof token.
func ValidateRegisterEmailClaims(claims jwt.MapClaims) error {
	if err := validateCommonClaims(claims, ClaimTypeRegisterEmail); err != nil {
		return err
	}
	_, err := claimString(claims, ClaimEmail)
	return err
}

// ValidateVerifiedEmailClaims checks the claims of a verified email proof token.
func ValidateVerifiedEmailClaims(claims jwt.MapClaims) error {
	if err := validateCommonClaims(claims, ClaimTypeVerifiedEmail); err != nil {
		return err
	}
	_, err := claimString(claims, ClaimEmail)
	return err
}

// ValidateEmailChangeClaims checks the claims of an email change proof token.
func ValidateEmailChangeClaims(claims jwt.MapClaims) error {
	if err := validateCommonClaims(claims, ClaimTypeEmailChange); err != nil {
		return err
	}
	if _, err := claimString(claims, ClaimUserID); err != nil {
		return err
	}
	_, err := claimString(claims, ClaimNewEmail)
	return err
}

// ValidatePasswordResetClaims checks the claims of a password reset proof token.
func ValidatePasswordResetClaims(claims jwt.MapClaims) error {
	if err := validateCommonClaims(claims, ClaimTypePasswordReset); err != nil {
		return err
	}
	_, err := claimString(claims, ClaimEmail)
	return err
}

// ValidateVerifiedResetClaims checks the claims of a verified reset proof token.
func ValidateVerifiedResetClaims(claims jwt.MapClaims) error {
	if err := validateCommonClaims(claims, ClaimTypeVerifiedReset); err != nil {
		return err
	}
	_, err := claimString(claims, ClaimEmail)
	return err
}
