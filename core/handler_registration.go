package core

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/cliphive/cliphive/crypto"
	"github.com/cliphive/cliphive/db"
	"github.com/google/uuid"
)

// BeginRegistrationHandler starts the registration workflow for an email
// address. It sends a verification code and returns the proof token the
// client needs for the confirmation step.
// Endpoint: POST /api/begin-registration
// Authenticated: No
// Allowed Mimetype: application/json
func (a *App) BeginRegistrationHandler(w http.ResponseWriter, r *http.Request) {
	if resp, err := a.Validator().ContentType(r, MimeTypeJSON); err != nil {
		WriteJsonError(w, resp)
		return
	}

	type request struct {
		Email string `json:"email"`
	}

	var req request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteJsonError(w, errorInvalidRequest)
		return
	}

	if req.Email == "" {
		WriteJsonError(w, errorMissingFields)
		return
	}
	if err := ValidateEmail(req.Email); err != nil {
		WriteJsonError(w, errorInvalidEmail)
		return
	}
	email := strings.ToLower(req.Email)

	cfg := a.Config()
	cooldownKey := "registration:" + email
	if a.cooldownActive(cooldownKey) {
		WriteJsonError(w, errorTooManyRequests)
		return
	}

	user, err := a.DbAuth().GetUserByEmail(email)
	if err != nil {
		a.Logger().Error("failed to check email availability", "err", err)
		WriteJsonError(w, errorServiceUnavailable)
		return
	}
	if user != nil {
		WriteJsonError(w, errorEmailConflict)
		return
	}

	otp, err := crypto.GenerateOtp()
	if err != nil {
		a.Logger().Error("failed to generate otp", "err", err)
		WriteJsonError(w, errorServiceUnavailable)
		return
	}

	// A restart for the same email replaces the previous attempt, so the
	// old code stops working the moment the new mail goes out.
	err = a.DbRegistration().UpsertRegistration(db.PendingRegistration{
		Email:     email,
		Otp:       otp,
		OtpExpiry: time.Now().Add(cfg.Otp.RegistrationDuration.Duration),
	})
	if err != nil {
		a.Logger().Error("failed to store pending registration", "err", err)
		WriteJsonError(w, errorServiceUnavailable)
		return
	}

	if err := a.Mailer().SendOtp(r.Context(), email, "registration", otp); err != nil {
		a.Logger().Error("failed to send registration otp", "err", err)
		WriteJsonError(w, errorMailDelivery)
		return
	}
	a.startCooldown(cooldownKey, cfg.RateLimits.RegistrationCooldown.Duration)

	token, err := crypto.NewJwtRegisterEmailToken(email,
		cfg.Jwt.RegisterEmailSecret, cfg.Jwt.RegisterEmailTokenDuration.Duration)
	if err != nil {
		a.Logger().Error("failed to generate registration token", "err", err)
		WriteJsonError(w, errorTokenGeneration)
		return
	}

	writeTokenResponse(w, http.StatusAccepted, CodeOkOtpSent, "A verification code is on its way",
		token, cfg.Jwt.RegisterEmailTokenDuration.Duration)
}

// ConfirmRegistrationHandler checks the verification code against the
// pending registration and exchanges the registration token for a verified
// email token.
// Endpoint: POST /api/confirm-registration
// Authenticated: No
// Allowed Mimetype: application/json
func (a *App) ConfirmRegistrationHandler(w http.ResponseWriter, r *http.Request) {
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
	if err := crypto.ValidateRegisterEmailClaims(claims); err != nil {
		if errors.Is(err, crypto.ErrJwtTokenExpired) {
			WriteJsonError(w, errorJwtTokenExpired)
			return
		}
		WriteJsonError(w, errorJwtInvalidToken)
		return
	}

	cfg := a.Config()
	if _, err := crypto.ParseJwt(token, []byte(cfg.Jwt.RegisterEmailSecret)); err != nil {
		if errors.Is(err, crypto.ErrJwtTokenExpired) {
			WriteJsonError(w, errorJwtTokenExpired)
			return
		}
		WriteJsonError(w, errorJwtInvalidToken)
		return
	}

	email := claims[crypto.ClaimEmail].(string)

	reg, err := a.DbRegistration().GetRegistration(email)
	if err != nil {
		a.Logger().Error("failed to load pending registration", "err", err)
		WriteJsonError(w, errorServiceUnavailable)
		return
	}
	if reg == nil || reg.Otp != req.Otp {
		WriteJsonError(w, errorInvalidOtp)
		return
	}
	// The row stays in place on expiry so a restarted flow can supersede it.
	if time.Now().After(reg.OtpExpiry) {
		WriteJsonError(w, errorOtpExpired)
		return
	}

	// Single use: the code dies here whatever happens next.
	if err := a.DbRegistration().DeleteRegistration(email); err != nil {
		a.Logger().Error("failed to delete pending registration", "err", err)
		WriteJsonError(w, errorServiceUnavailable)
		return
	}

	verifiedToken, err := crypto.NewJwtVerifiedEmailToken(email,
		cfg.Jwt.VerifiedEmailSecret, cfg.Jwt.VerifiedEmailTokenDuration.Duration)
	if err != nil {
		a.Logger().Error("failed to generate verified email token", "err", err)
		WriteJsonError(w, errorTokenGeneration)
		return
	}

	writeTokenResponse(w, http.StatusOK, CodeOkEmailVerified, "Email address verified",
		verifiedToken, cfg.Jwt.VerifiedEmailTokenDuration.Duration)
}

// CompleteRegistrationHandler creates the account named by a verified
// email token and opens the first session.
// Endpoint: POST /api/complete-registration
// Authenticated: No
// Allowed Mimetype: application/json
func (a *App) CompleteRegistrationHandler(w http.ResponseWriter, r *http.Request) {
	if resp, err := a.Validator().ContentType(r, MimeTypeJSON); err != nil {
		WriteJsonError(w, resp)
		return
	}

	type request struct {
		Token           string `json:"token"`
		Username        string `json:"username"`
		FullName        string `json:"full_name"`
		Password        string `json:"password"`
		PasswordConfirm string `json:"password_confirm"`
	}

	var req request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteJsonError(w, errorInvalidRequest)
		return
	}

	token := workflowToken(r, req.Token)
	if token == "" || req.Username == "" || req.Password == "" || req.PasswordConfirm == "" {
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
	if err := ValidateUsername(req.Username); err != nil {
		WriteJsonError(w, errorInvalidUsername)
		return
	}
	username := strings.ToLower(req.Username)

	claims, err := crypto.ParseJwtUnverified(token)
	if err != nil {
		WriteJsonError(w, errorJwtInvalidToken)
		return
	}
	if err := crypto.ValidateVerifiedEmailClaims(claims); err != nil {
		if errors.Is(err, crypto.ErrJwtTokenExpired) {
			WriteJsonError(w, errorJwtTokenExpired)
			return
		}
		WriteJsonError(w, errorJwtInvalidToken)
		return
	}

	cfg := a.Config()
	if _, err := crypto.ParseJwt(token, []byte(cfg.Jwt.VerifiedEmailSecret)); err != nil {
		if errors.Is(err, crypto.ErrJwtTokenExpired) {
			WriteJsonError(w, errorJwtTokenExpired)
			return
		}
		WriteJsonError(w, errorJwtInvalidToken)
		return
	}

	email := claims[crypto.ClaimEmail].(string)

	// The email can have been registered between confirmation and now.
	existing, err := a.DbAuth().GetUserByEmail(email)
	if err != nil {
		a.Logger().Error("failed to check email availability", "err", err)
		WriteJsonError(w, errorServiceUnavailable)
		return
	}
	if existing != nil {
		WriteJsonError(w, errorEmailConflict)
		return
	}

	// An early availability check gives a clean conflict answer; the unique
	// constraint below still catches a race.
	existing, err = a.DbAuth().GetUserByUsername(username)
	if err != nil {
		a.Logger().Error("failed to check username availability", "err", err)
		WriteJsonError(w, errorServiceUnavailable)
		return
	}
	if existing != nil {
		WriteJsonError(w, errorUsernameConflict)
		return
	}

	hashedPassword, err := crypto.GenerateHash(req.Password)
	if err != nil {
		a.Logger().Error("failed to hash password", "err", err)
		WriteJsonError(w, errorServiceUnavailable)
		return
	}

	user, err := a.DbAuth().CreateUser(db.User{
		ID:       uuid.NewString(),
		Username: username,
		Email:    email,
		FullName: req.FullName,
		Password: string(hashedPassword),
	})
	if err != nil {
		if errors.Is(err, db.ErrConstraintUnique) {
			// The email was checked above, so the username is the culprit
			// in all but a vanishingly small race.
			WriteJsonError(w, errorUsernameConflict)
			return
		}
		a.Logger().Error("failed to create user", "err", err)
		WriteJsonError(w, errorServiceUnavailable)
		return
	}

	a.Logger().Info("user registered", "user_id", user.ID, "username", user.Username)
	a.writeSessionResponse(w, http.StatusCreated, user)
}
