package core

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/cliphive/cliphive/crypto"
	"github.com/cliphive/cliphive/db"
)

// RequestEmailChangeHandler starts an email change for the authenticated
// user. The code goes to the NEW address, proving the user controls it.
// Endpoint: POST /api/request-email-change
// Authenticated: Yes
// Allowed Mimetype: application/json
func (a *App) RequestEmailChangeHandler(w http.ResponseWriter, r *http.Request) {
	user, resp, err := a.Auth().Authenticate(r)
	if err != nil {
		WriteJsonError(w, resp)
		return
	}

	if resp, err := a.Validator().ContentType(r, MimeTypeJSON); err != nil {
		WriteJsonError(w, resp)
		return
	}

	type request struct {
		NewEmail string `json:"new_email"`
		Password string `json:"password"`
	}

	var req request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteJsonError(w, errorInvalidRequest)
		return
	}

	if req.NewEmail == "" || req.Password == "" {
		WriteJsonError(w, errorMissingFields)
		return
	}
	if err := ValidateEmail(req.NewEmail); err != nil {
		WriteJsonError(w, errorInvalidEmail)
		return
	}
	newEmail := strings.ToLower(req.NewEmail)

	if newEmail == user.Email {
		WriteJsonError(w, errorInvalidRequest)
		return
	}

	// Changing the address is sensitive enough to reconfirm the password.
	// Checked before anything is written, so a wrong password leaves no
	// pending code behind.
	if !crypto.CheckPassword(req.Password, user.Password) {
		WriteJsonError(w, errorInvalidCredentials)
		return
	}

	cfg := a.Config()
	cooldownKey := "email_change:" + user.ID
	if a.cooldownActive(cooldownKey) {
		WriteJsonError(w, errorTooManyRequests)
		return
	}

	taken, err := a.DbAuth().GetUserByEmail(newEmail)
	if err != nil {
		a.Logger().Error("failed to check email availability", "err", err)
		WriteJsonError(w, errorServiceUnavailable)
		return
	}
	if taken != nil {
		WriteJsonError(w, errorEmailConflict)
		return
	}

	otp, err := crypto.GenerateOtp()
	if err != nil {
		a.Logger().Error("failed to generate otp", "err", err)
		WriteJsonError(w, errorServiceUnavailable)
		return
	}

	// One pending change per user: a new request overwrites the old code.
	err = a.DbAuth().SetEmailChangeOtp(user.ID, otp, time.Now().Add(cfg.Otp.EmailChangeDuration.Duration))
	if err != nil {
		a.Logger().Error("failed to store email change otp", "err", err)
		WriteJsonError(w, errorServiceUnavailable)
		return
	}

	if err := a.Mailer().SendOtp(r.Context(), newEmail, "email_change", otp); err != nil {
		a.Logger().Error("failed to send email change otp", "err", err)
		WriteJsonError(w, errorMailDelivery)
		return
	}
	a.startCooldown(cooldownKey, cfg.RateLimits.EmailChangeCooldown.Duration)

	// The new address lives in the token, the code on the user record.
	// Confirmation needs both plus the mailed code.
	token, err := crypto.NewJwtEmailChangeToken(user.ID, newEmail,
		cfg.Jwt.EmailChangeSecret, cfg.Jwt.EmailChangeTokenDuration.Duration)
	if err != nil {
		a.Logger().Error("failed to generate email change token", "err", err)
		WriteJsonError(w, errorTokenGeneration)
		return
	}

	writeTokenResponse(w, http.StatusAccepted, CodeOkOtpSent, "A verification code is on its way",
		token, cfg.Jwt.EmailChangeTokenDuration.Duration)
}

// ConfirmEmailChangeHandler applies the email change named by the token
// when the verification code matches. The token must belong to the
// authenticated caller.
// Endpoint: POST /api/confirm-email-change
// Authenticated: Yes
// Allowed Mimetype: application/json
func (a *App) ConfirmEmailChangeHandler(w http.ResponseWriter, r *http.Request) {
	user, resp, err := a.Auth().Authenticate(r)
	if err != nil {
		WriteJsonError(w, resp)
		return
	}

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

	// The bearer header carries the session token here, so only the body
	// and the workflow cookie are consulted for the proof token.
	token := sessionWorkflowToken(r, req.Token)
	if token == "" || req.Otp == "" {
		WriteJsonError(w, errorMissingFields)
		return
	}

	claims, err := crypto.ParseJwtUnverified(token)
	if err != nil {
		WriteJsonError(w, errorJwtInvalidToken)
		return
	}
	if err := crypto.ValidateEmailChangeClaims(claims); err != nil {
		if errors.Is(err, crypto.ErrJwtTokenExpired) {
			WriteJsonError(w, errorJwtTokenExpired)
			return
		}
		WriteJsonError(w, errorJwtInvalidToken)
		return
	}

	cfg := a.Config()
	if _, err := crypto.ParseJwt(token, []byte(cfg.Jwt.EmailChangeSecret)); err != nil {
		if errors.Is(err, crypto.ErrJwtTokenExpired) {
			WriteJsonError(w, errorJwtTokenExpired)
			return
		}
		WriteJsonError(w, errorJwtInvalidToken)
		return
	}

	newEmail := claims[crypto.ClaimNewEmail].(string)

	// A proof token is only good for the user it was minted for.
	if claims[crypto.ClaimUserID].(string) != user.ID {
		WriteJsonError(w, errorJwtInvalidToken)
		return
	}

	if user.EmailChangeOtp == "" || user.EmailChangeOtp != req.Otp {
		WriteJsonError(w, errorInvalidOtp)
		return
	}
	if time.Now().After(user.EmailChangeOtpExpiry) {
		// A lapsed code is dead, clear it so it cannot linger.
		if err := a.DbAuth().ClearEmailChangeOtp(user.ID); err != nil {
			a.Logger().Error("failed to clear expired email change otp", "err", err)
		}
		WriteJsonError(w, errorOtpExpired)
		return
	}

	// The code is spent before the write. If the write fails the client
	// restarts the flow; a half-used code never survives.
	if err := a.DbAuth().ClearEmailChangeOtp(user.ID); err != nil {
		a.Logger().Error("failed to clear email change otp", "err", err)
		WriteJsonError(w, errorServiceUnavailable)
		return
	}

	if err := a.DbAuth().UpdateEmail(user.ID, newEmail); err != nil {
		if errors.Is(err, db.ErrConstraintUnique) {
			// The address was taken while the code was in flight.
			WriteJsonError(w, errorEmailConflict)
			return
		}
		a.Logger().Error("failed to update email", "err", err)
		WriteJsonError(w, errorServiceUnavailable)
		return
	}

	a.Logger().Info("email changed", "user_id", user.ID)
	WriteJsonOk(w, okEmailChanged)
}
