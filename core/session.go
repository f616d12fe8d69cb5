package core

import (
	"net/http"
	"strings"
	"time"

	"github.com/cliphive/cliphive/crypto"
	"github.com/cliphive/cliphive/db"
)

// Session cookie names. Tokens always travel in the JSON body as well;
// the cookies exist for browser clients that cannot hold a bearer token.
const (
	accessTokenCookie   = "access_token"
	refreshTokenCookie  = "refresh_token"
	workflowTokenCookie = "workflow_token"
)

// workflowToken resolves the proof token for an unauthenticated flow
// step. The JSON body wins, then the bearer header, then the workflow
// cookie.
func workflowToken(r *http.Request, bodyToken string) string {
	if bodyToken != "" {
		return bodyToken
	}
	if h := r.Header.Get("Authorization"); strings.HasPrefix(h, "Bearer ") {
		return strings.TrimPrefix(h, "Bearer ")
	}
	if c, err := r.Cookie(workflowTokenCookie); err == nil {
		return c.Value
	}
	return ""
}

// sessionWorkflowToken is the variant for authenticated steps, where the
// bearer header holds the session token rather than a proof token.
func sessionWorkflowToken(r *http.Request, bodyToken string) string {
	if bodyToken != "" {
		return bodyToken
	}
	if c, err := r.Cookie(workflowTokenCookie); err == nil {
		return c.Value
	}
	return ""
}

// setSessionCookies mirrors the session pair into httpOnly cookies. The
// access cookie lapses with the token; the refresh cookie carries no
// explicit age because the expiry lives inside the signed payload.
func setSessionCookies(w http.ResponseWriter, accessToken, refreshToken string, accessMaxAge int) {
	http.SetCookie(w, &http.Cookie{
		Name:     accessTokenCookie,
		Value:    accessToken,
		Path:     "/",
		MaxAge:   accessMaxAge,
		HttpOnly: true,
		Secure:   true,
	})
	http.SetCookie(w, &http.Cookie{
		Name:     refreshTokenCookie,
		Value:    refreshToken,
		Path:     "/",
		HttpOnly: true,
		Secure:   true,
	})
}

func clearSessionCookies(w http.ResponseWriter) {
	for _, name := range []string{accessTokenCookie, refreshTokenCookie} {
		http.SetCookie(w, &http.Cookie{
			Name:     name,
			Value:    "",
			Path:     "/",
			MaxAge:   -1,
			HttpOnly: true,
			Secure:   true,
		})
	}
}

// writeSessionResponse mints a fresh access/refresh pair, persists the
// refresh token and writes the session response. Persisting before writing
// means a client never holds a refresh token the store does not know.
//
// Only one session survives per user: the stored token is overwritten, so
// any previously issued refresh token stops working on its next use. Two
// concurrent logins race on the column; the last writer wins and the
// loser's pair dies at its first refresh. That is accepted behavior.
func (a *App) writeSessionResponse(w http.ResponseWriter, status int, user *db.User) {
	cfg := a.Config()

	accessToken, err := crypto.NewJwtSessionToken(
		user.ID, user.Username, user.Email, user.FullName,
		cfg.Jwt.SessionSecret, cfg.Jwt.SessionTokenDuration.Duration)
	if err != nil {
		a.Logger().Error("failed to generate access token", "user_id", user.ID, "err", err)
		WriteJsonError(w, errorTokenGeneration)
		return
	}

	refreshToken, err := crypto.NewJwtRefreshToken(
		user.ID, cfg.Jwt.RefreshSecret, cfg.Jwt.RefreshTokenDuration.Duration)
	if err != nil {
		a.Logger().Error("failed to generate refresh token", "user_id", user.ID, "err", err)
		WriteJsonError(w, errorTokenGeneration)
		return
	}

	if err := a.DbAuth().UpdateRefreshToken(user.ID, refreshToken); err != nil {
		a.Logger().Error("failed to persist refresh token", "user_id", user.ID, "err", err)
		WriteJsonError(w, errorServiceUnavailable)
		return
	}

	expiresIn := int(cfg.Jwt.SessionTokenDuration.Duration / time.Second)
	setSessionCookies(w, accessToken, refreshToken, expiresIn)
	writeAuthResponse(w, status, accessToken, refreshToken, expiresIn, user)
}

// cooldownActive reports whether a code was sent recently for the key.
// Keys are "purpose:identifier".
func (a *App) cooldownActive(key string) bool {
	_, found := a.Cooldowns().Get(key)
	return found
}

// startCooldown is called only after a successful send, so a failed
// delivery never locks the client out of retrying.
func (a *App) startCooldown(key string, ttl time.Duration) {
	a.Cooldowns().SetWithTTL(key, true, 1, ttl)
}
