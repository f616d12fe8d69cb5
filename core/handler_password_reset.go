package core

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/cliphive/cliphive/crypto"
)

// RequestPasswordResetHandler starts a password reset for an account named
// by email or username. Unknown identities are reported as not found; the
// account namespace of this service is public through registration anyway.
// Endpoint: POST /api/request-password-reset
// Authenticated: No
// Allowed Mimetype: application/json
func (a *App) RequestPasswordResetHandler(w http.ResponseWriter, r *http.Request) {
	if resp, err := a.Validator().ContentType(r, MimeTypeJSON); err != nil {
		WriteJsonError(w, resp)
		return
	}

	type request struct {
		Identity string `json:"identity"`
	}

	var req request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteJsonError(w, errorInvalidRequest)
		return
	}

	if req.Identity == "" {
		WriteJsonError(w, errorMissingFields)
		return
	}
	identity := strings.ToLower(req.Identity)

	user, err := a.DbAuth().GetUserByIdentity(identity)
	if err != nil {
		a.Logger().Error("failed to load user", "err", err)
		WriteJsonError(w, errorServiceUnavailable)
		return
	}
	if user == nil {
		WriteJsonError(w, errorNotFound)
		return
	}
	email := user.Email

	cfg := a.Config()
	cooldownKey := "password_reset:" + email
	if a.cooldownActive(cooldownKey) {
		WriteJsonError(w, errorTooManyRequests)
		return
	}

	otp, err := crypto.GenerateOtp()
	if err != nil {
		a.Logger().Error("failed to generate otp", "err", err)
		WriteJsonError(w, errorServiceUnavailable)
		return
	}

	// One pending reset per user: a new request overwrites the old code.
	err = a.DbAuth().SetResetOtp(user.ID, otp, time.Now().Add(cfg.Otp.PasswordResetDuration.Duration))
	if err != nil {
		a.Logger().Error("failed to store reset otp", "err", err)
		WriteJsonError(w, errorServiceUnavailable)
		return
	}

	if err := a.Mailer().SendOtp(r.Context(), email, "password_reset", otp); err != nil {
		a.Logger().Error("failed to send reset otp", "err", err)
		WriteJsonError(w, errorMailDelivery)
		return
	}
	a.startCooldown(cooldownKey, cfg.RateLimits.PasswordResetCooldown.Duration)

	token, err := crypto.NewJwtPasswordResetToken(email,
		cfg.Jwt.PasswordResetSecret, cfg.Jwt.PasswordResetTokenDuration.Duration)
	if err != nil {
		a.Logger().Error("failed to generate password reset token", "err", err)
		WriteJsonError(w, errorTokenGeneration)
		return
	}

	writeTokenResponse(w, http.StatusAccepted, CodeOkOtpSent, "A verification code is on its way",
		token, cfg.Jwt.PasswordResetTokenDuration.Duration)
}

// ConfirmPasswordResetHandler checks the reset code and exchanges the
// reset token for a verified reset token. The actual password write is a
// separate step so the client can collect the new password after the code
// has already been validated.
// Endpoint: POST /api/confirm-password-reset
// Authenticated: No
// Allowed Mimetype: application/json
func (a *App) ConfirmPasswordResetHandler(w http.ResponseWriter, r *http.Request) {
	if resp, err := a.Validator().ContentType(r, MimeTypeJSON); err != nil {
		WriteJsonError(w, resp)
		return
	}

	type request struct {
		Token string `json:"token"`
		Otp   string `json:"otp"`
	}

	var req request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteJsonError(w, errorInvalidRequest)
		return
	}

	token := workflowToken(r, req.Token)
	if token == "" || req.Otp == "" {
		WriteJsonError(w, errorMissingFields)
		return
	}

	claims, err := crypto.ParseJwtUnverified(token)
	if err != nil {
		WriteJsonError(w, errorJwtInvalidToken)
		return
	}
	if err := crypto.ValidatePasswordResetClaims(claims); err != nil {
		if errors.Is(err, crypto.ErrJwtTokenExpired) {
			WriteJsonError(w, errorJwtTokenExpired)
			return
		}
		WriteJsonError(w, errorJwtInvalidToken)
		return
	}

	cfg := a.Config()
	if _, err := crypto.ParseJwt(token, []byte(cfg.Jwt.PasswordResetSecret)); err != nil {
		if errors.Is(err, crypto.ErrJwtTokenExpired) {
			WriteJsonError(w, errorJwtTokenExpired)
			return
		}
		WriteJsonError(w, errorJwtInvalidToken)
		return
	}

	email := claims[crypto.ClaimEmail].(string)

	user, err := a.DbAuth().GetUserByEmail(email)
	if err != nil {
		a.Logger().Error("failed to load user", "err", err)
		WriteJsonError(w, errorServiceUnavailable)
		return
	}
	if user == nil {
		WriteJsonError(w, errorNotFound)
		return
	}

	if user.ResetOtp == "" || user.ResetOtp != req.Otp {
		WriteJsonError(w, errorInvalidOtp)
		return
	}
	if time.Now().After(user.ResetOtpExpiry) {
		if err := a.DbAuth().ClearResetOtp(user.ID); err != nil {
			a.Logger().Error("failed to clear expired reset otp", "err", err)
		}
		WriteJsonError(w, errorOtpExpired)
		return
	}

	// Single use: the code dies here whatever happens next.
	if err := a.DbAuth().ClearResetOtp(user.ID); err != nil {
		a.Logger().Error("failed to clear reset otp", "err", err)
		WriteJsonError(w, errorServiceUnavailable)
		return
	}

	verifiedToken, err := crypto.NewJwtVerifiedResetToken(email,
		cfg.Jwt.VerifiedResetSecret, cfg.Jwt.VerifiedResetTokenDuration.Duration)
	if err != nil {
		a.Logger().Error("failed to generate verified reset token", "err", err)
		WriteJsonError(w, errorTokenGeneration)
		return
	}

	writeTokenResponse(w, http.StatusOK, CodeOkOtpConfirmed, "Verification code confirmed",
		verifiedToken, cfg.Jwt.VerifiedResetTokenDuration.Duration)
}

// CompletePasswordResetHandler sets the new password named by a verified
// reset token and revokes the stored session.
// Endpoint: POST /api/complete-password-reset
// Authenticated: No
// Allowed Mimetype: application/json
func (a *App) CompletePasswordResetHandler(w http.ResponseWriter, r *http.Request) {
	if resp, err := a.Validator().ContentType(r, MimeTypeJSON); err != nil {
		WriteJsonError(w, resp)
		return
	}

	type request struct {
		Token           string `json:"token"`
		Password        string `json:"password"`
		PasswordConfirm string `json:"password_confirm"`
	}

	var req request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteJsonError(w, errorInvalidRequest)
		return
	}

	token := workflowToken(r, req.Token)
	if token == "" || req.Password == "" || req.PasswordConfirm == "" {
		WriteJsonError(w, errorMissingFields)
		return
	}
	if req.Password != req.PasswordConfirm {
		WriteJsonError(w, errorPasswordMismatch)
		return
	}
	if err := ValidatePassword(req.Password); err != nil {
		WriteJsonError(w, errorPasswordComplexity)
		return
	}

	claims, err := crypto.ParseJwtUnverified(token)
	if err != nil {
		WriteJsonError(w, errorJwtInvalidToken)
		return
	}
	if err := crypto.ValidateVerifiedResetClaims(claims); err != nil {
		if errors.Is(err, crypto.ErrJwtTokenExpired) {
			WriteJsonError(w, errorJwtTokenExpired)
			return
		}
		WriteJsonError(w, errorJwtInvalidToken)
		return
	}

	cfg := a.Config()
	if _, err := crypto.ParseJwt(token, []byte(cfg.Jwt.VerifiedResetSecret)); err != nil {
		if errors.Is(err, crypto.ErrJwtTokenExpired) {
			WriteJsonError(w, errorJwtTokenExpired)
			return
		}
		WriteJsonError(w, errorJwtInvalidToken)
		return
	}

	email := claims[crypto.ClaimEmail].(string)

	user, err := a.DbAuth().GetUserByEmail(email)
	if err != nil {
		a.Logger().Error("failed to load user", "err", err)
		WriteJsonError(w, errorServiceUnavailable)
		return
	}
	if user == nil {
		WriteJsonError(w, errorNotFound)
		return
	}

	hashedPassword, err := crypto.GenerateHash(req.Password)
	if err != nil {
		a.Logger().Error("failed to hash password", "err", err)
		WriteJsonError(w, errorServiceUnavailable)
		return
	}

	if err := a.DbAuth().UpdatePassword(user.ID, string(hashedPassword)); err != nil {
		a.Logger().Error("failed to update password", "err", err)
		WriteJsonError(w, errorServiceUnavailable)
		return
	}

	// A reset usually means the old credentials are suspect, so the stored
	// refresh token is revoked. Refusing service here would be wrong: the
	// password is already changed.
	if err := a.DbAuth().UpdateRefreshToken(user.ID, ""); err != nil {
		a.Logger().Error("failed to revoke session after reset", "user_id", user.ID, "err", err)
	}

	a.Logger().Info("password reset completed", "user_id", user.ID)
	WriteJsonOk(w, okPasswordReset)
}
