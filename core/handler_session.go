package core

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/cliphive/cliphive/crypto"
)

// LoginHandler authenticates with an identity (email or username) and a
// password and opens a session.
// Endpoint: POST /api/login
// Authenticated: No
// Allowed Mimetype: application/json
func (a *App) LoginHandler(w http.ResponseWriter, r *http.Request) {
	if resp, err := a.Validator().ContentType(r, MimeTypeJSON); err != nil {
		WriteJsonError(w, resp)
		return
	}

	type request struct {
		Identity string `json:"identity"`
		Password string `json:"password"`
	}

	var req request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteJsonError(w, errorInvalidRequest)
		return
	}

	if req.Identity == "" || req.Password == "" {
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

	if !crypto.CheckPassword(req.Password, user.Password) {
		WriteJsonError(w, errorInvalidCredentials)
		return
	}

	a.Logger().Info("login", "user_id", user.ID)
	a.writeSessionResponse(w, http.StatusOK, user)
}

// RefreshSessionHandler rotates a session pair. The presented refresh
// token must match the stored one byte for byte; anything else, including
// a previously rotated token, is rejected.
// Endpoint: POST /api/refresh-token
// Authenticated: No (possession of the refresh token is the credential)
// Allowed Mimetype: application/json
func (a *App) RefreshSessionHandler(w http.ResponseWriter, r *http.Request) {
	if resp, err := a.Validator().ContentType(r, MimeTypeJSON); err != nil {
		WriteJsonError(w, resp)
		return
	}

	type request struct {
		RefreshToken string `json:"refresh_token"`
	}

	var req request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		WriteJsonError(w, errorInvalidRequest)
		return
	}

	// Browser clients carry the token in the cookie instead of the body.
	if req.RefreshToken == "" {
		if c, err := r.Cookie(refreshTokenCookie); err == nil {
			req.RefreshToken = c.Value
		}
	}
	if req.RefreshToken == "" {
		WriteJsonError(w, errorMissingFields)
		return
	}

	claims, err := crypto.ParseJwtUnverified(req.RefreshToken)
	if err != nil {
		WriteJsonError(w, errorJwtInvalidToken)
		return
	}
	if err := crypto.ValidateRefreshClaims(claims); err != nil {
		if errors.Is(err, crypto.ErrJwtTokenExpired) {
			WriteJsonError(w, errorJwtTokenExpired)
			return
		}
		WriteJsonError(w, errorJwtInvalidToken)
		return
	}

	cfg := a.Config()
	if _, err := crypto.ParseJwt(req.RefreshToken, []byte(cfg.Jwt.RefreshSecret)); err != nil {
		if errors.Is(err, crypto.ErrJwtTokenExpired) {
			WriteJsonError(w, errorJwtTokenExpired)
			return
		}
		WriteJsonError(w, errorJwtInvalidToken)
		return
	}

	userID := claims[crypto.ClaimUserID].(string)
	user, err := a.DbAuth().GetUserById(userID)
	if err != nil {
		a.Logger().Error("failed to load user", "err", err)
		WriteJsonError(w, errorServiceUnavailable)
		return
	}
	if user == nil {
		WriteJsonError(w, errorJwtInvalidToken)
		return
	}

	// A well signed token that is not the stored one is either revoked or
	// already rotated. Either way it is dead.
	if user.RefreshToken == "" || user.RefreshToken != req.RefreshToken {
		a.Logger().Warn("refresh token mismatch", "user_id", user.ID)
		WriteJsonError(w, errorJwtInvalidToken)
		return
	}

	a.writeSessionResponse(w, http.StatusOK, user)
}

// LogoutHandler revokes the stored refresh token. The access token stays
// cryptographically valid until it expires; revocation means no new pair
// can be minted.
// Endpoint: POST /api/logout
// Authenticated: Yes
// Allowed Mimetype: application/json
func (a *App) LogoutHandler(w http.ResponseWriter, r *http.Request) {
	user, resp, err := a.Auth().Authenticate(r)
	if err != nil {
		WriteJsonError(w, resp)
		return
	}

	if err := a.DbAuth().UpdateRefreshToken(user.ID, ""); err != nil {
		a.Logger().Error("failed to clear refresh token", "user_id", user.ID, "err", err)
		WriteJsonError(w, errorServiceUnavailable)
		return
	}

	a.Logger().Info("logout", "user_id", user.ID)
	clearSessionCookies(w)
	WriteJsonOk(w, okLoggedOut)
}

// ChangePasswordHandler changes the password of the authenticated user.
// Existing sessions stay valid: session tokens are not bound to the
// password hash and the stored refresh token is left in place.
// Endpoint: POST /api/change-password
// Authenticated: Yes
// Allowed Mimetype: application/json
func (a *App) ChangePasswordHandler(w http.ResponseWriter, r *http.Request) {
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
		OldPassword        string `json:"old_password"`
		NewPassword        string `json:"new_password"`
		NewPasswordConfirm string `json:"new_password_confirm"`
	}

	var req request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteJsonError(w, errorInvalidRequest)
		return
	}

	if req.OldPassword == "" || req.NewPassword == "" || req.NewPasswordConfirm == "" {
		WriteJsonError(w, errorMissingFields)
		return
	}
	if req.NewPassword != req.NewPasswordConfirm {
		WriteJsonError(w, errorPasswordMismatch)
		return
	}
	if err := ValidatePassword(req.NewPassword); err != nil {
		WriteJsonError(w, errorPasswordComplexity)
		return
	}

	if !crypto.CheckPassword(req.OldPassword, user.Password) {
		WriteJsonError(w, errorInvalidCredentials)
		return
	}

	hashedPassword, err := crypto.GenerateHash(req.NewPassword)
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

	a.Logger().Info("password changed", "user_id", user.ID)
	WriteJsonOk(w, okPasswordChanged)
}
