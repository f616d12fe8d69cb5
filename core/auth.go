package core

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/cliphive/cliphive/config"
	"github.com/cliphive/cliphive/crypto"
	"github.com/cliphive/cliphive/db"
)

// Authenticator defines the interface for request authentication
type Authenticator interface {
	Authenticate(r *http.Request) (*db.User, jsonResponse, error)
}

// DefaultAuthenticator implements Authenticator using the access token
// from the Authorization header
type DefaultAuthenticator struct {
	dbAuth         db.DbAuth
	logger         *slog.Logger
	configProvider *config.Provider
}

// NewDefaultAuthenticator creates a new DefaultAuthenticator instance
func NewDefaultAuthenticator(dbAuth db.DbAuth, logger *slog.Logger, configProvider *config.Provider) *DefaultAuthenticator {
	return &DefaultAuthenticator{
		dbAuth:         dbAuth,
		logger:         logger,
		configProvider: configProvider,
	}
}

var errAuthFailed = errors.New("authentication failed")

// Authenticate verifies the Bearer access token and loads the user it
// names. The claims are read unverified first to discard garbage cheaply;
// nothing is trusted until ParseJwt has checked the signature.
func (a *DefaultAuthenticator) Authenticate(r *http.Request) (*db.User, jsonResponse, error) {
	var tokenString string
	if authHeader := r.Header.Get("Authorization"); authHeader != "" {
		tokenString = strings.TrimPrefix(authHeader, "Bearer ")
		if tokenString == authHeader {
			return nil, errorInvalidTokenFormat, errAuthFailed
		}
	} else if c, err := r.Cookie(accessTokenCookie); err == nil {
		// Browser clients present the access token as a cookie.
		tokenString = c.Value
	} else {
		return nil, errorNoAuthHeader, errAuthFailed
	}

	claims, err := crypto.ParseJwtUnverified(tokenString)
	if err != nil {
		return nil, errorJwtInvalidToken, errAuthFailed
	}

	if err := crypto.ValidateSessionClaims(claims); err != nil {
		if errors.Is(err, crypto.ErrJwtTokenExpired) {
			return nil, errorJwtTokenExpired, errAuthFailed
		}
		return nil, errorJwtInvalidToken, errAuthFailed
	}

	cfg := a.configProvider.Get()
	if _, err := crypto.ParseJwt(tokenString, []byte(cfg.Jwt.SessionSecret)); err != nil {
		if errors.Is(err, crypto.ErrJwtTokenExpired) {
			return nil, errorJwtTokenExpired, errAuthFailed
		}
		return nil, errorJwtInvalidToken, errAuthFailed
	}

	userID := claims[crypto.ClaimUserID].(string)
	user, err := a.dbAuth.GetUserById(userID)
	if err != nil {
		a.logger.Error("failed to load user during authentication", "user_id", userID, "err", err)
		return nil, errorServiceUnavailable, errAuthFailed
	}
	if user == nil {
		return nil, errorJwtInvalidToken, errAuthFailed
	}

	return user, jsonResponse{}, nil
}
