package core

import (
	"net/http"
	"time"

	"github.com/cliphive/cliphive/db"
)

// This file defines the standardized response formats for the token issuing
// endpoints.
//
// Two shapes are standardized here:
// 1. Session responses - login, refresh, completed registration
// 2. Workflow token responses - the steps of the OTP gated flows
//
// Example session response:
// {
//   "status": 200,
//   "code": "ok_authentication",
//   "message": "Authentication successful",
//   "data": {
//     "token_type": "Bearer",
//     "access_token": "eyJhbGciOiJIUzI...",
//     "refresh_token": "eyJhbGciOiJIUzI...",
//     "expires_in": 2700,
//     "record": {
//       "id": "usr_123",
//       "username": "alice",
//       "email": "alice@example.com",
//       "full_name": "Alice A",
//       "avatar": ""
//     }
//   }
// }

const (
	CodeOkAuthentication = "ok_authentication"
)

// AuthRecord represents the user record in session responses.
// It deliberately omits the password hash, refresh token and OTP fields.
type AuthRecord struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
	FullName string `json:"full_name"`
	Avatar   string `json:"avatar"`
}

// AuthData represents the session response structure
type AuthData struct {
	TokenType    string     `json:"token_type"`
	AccessToken  string     `json:"access_token"`
	RefreshToken string     `json:"refresh_token"`
	ExpiresIn    int        `json:"expires_in"`
	Record       AuthRecord `json:"record"`
}

// NewAuthData creates a new AuthData instance
func NewAuthData(accessToken, refreshToken string, expiresIn int, user *db.User) *AuthData {
	return &AuthData{
		TokenType:    "Bearer",
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		ExpiresIn:    expiresIn,
		Record: AuthRecord{
			ID:       user.ID,
			Username: user.Username,
			Email:    user.Email,
			FullName: user.FullName,
			Avatar:   user.Avatar,
		},
	}
}

// writeAuthResponse writes a standardized session response
func writeAuthResponse(w http.ResponseWriter, status int, accessToken, refreshToken string, expiresIn int, user *db.User) {
	authData := NewAuthData(accessToken, refreshToken, expiresIn, user)
	response := JsonWithData{
		JsonBasic: JsonBasic{
			Status:  status,
			Code:    CodeOkAuthentication,
			Message: "Authentication successful",
		},
		Data: authData,
	}
	writeJsonWithData(w, response)
}

// TokenData carries a single workflow proof token.
type TokenData struct {
	Token string `json:"token"`
}

// writeTokenResponse writes a workflow step response carrying the proof
// token the client needs for the next step. The token is mirrored into an
// httpOnly cookie that lapses with the token, so browser clients can walk
// a flow without touching the body token.
func writeTokenResponse(w http.ResponseWriter, status int, code, message, token string, ttl time.Duration) {
	http.SetCookie(w, &http.Cookie{
		Name:     workflowTokenCookie,
		Value:    token,
		Path:     "/",
		MaxAge:   int(ttl / time.Second),
		HttpOnly: true,
		Secure:   true,
	})
	response := JsonWithData{
		JsonBasic: JsonBasic{
			Status:  status,
			Code:    code,
			Message: message,
		},
		Data: TokenData{Token: token},
	}
	writeJsonWithData(w, response)
}
