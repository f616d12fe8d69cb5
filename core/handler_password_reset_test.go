package core

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/cliphive/cliphive/crypto"
	"github.com/cliphive/cliphive/db"
	"github.com/cliphive/cliphive/db/mock"
)

func TestRequestPasswordReset(t *testing.T) {
	t.Run("HappyPath", func(t *testing.T) {
		user := testUser()
		var storedOtp string
		mockDb := &mock.Db{
			GetUserByIdentityFunc: func(identity string) (*db.User, error) { return user, nil },
			SetResetOtpFunc: func(userId, otp string, expiry time.Time) error {
				storedOtp = otp
				return nil
			},
		}
		app, mailer, _ := newTestApp(mockDb)

		rec := httptest.NewRecorder()
		app.RequestPasswordResetHandler(rec, newJsonRequest(t, "/api/request-password-reset", map[string]string{
			"identity": "alice@example.com",
		}))

		if rec.Code != http.StatusAccepted {
			t.Fatalf("got status %d, body %s", rec.Code, rec.Body.String())
		}

		mail := mailer.lastSent(t)
		if mail.email != "alice@example.com" || mail.purpose != "password_reset" || mail.otp != storedOtp {
			t.Errorf("unexpected mail %+v", mail)
		}

		var data TokenData
		decodeData(t, rec.Body, &data)
		if _, err := crypto.ParseJwt(data.Token, []byte(app.Config().Jwt.PasswordResetSecret)); err != nil {
			t.Fatalf("returned token does not verify: %v", err)
		}
	})

	t.Run("ByUsername", func(t *testing.T) {
		user := testUser()
		var lookedUp string
		mockDb := &mock.Db{
			GetUserByIdentityFunc: func(identity string) (*db.User, error) {
				lookedUp = identity
				return user, nil
			},
		}
		app, mailer, _ := newTestApp(mockDb)

		rec := httptest.NewRecorder()
		app.RequestPasswordResetHandler(rec, newJsonRequest(t, "/api/request-password-reset", map[string]string{
			"identity": "Alice",
		}))

		if rec.Code != http.StatusAccepted {
			t.Fatalf("got status %d, body %s", rec.Code, rec.Body.String())
		}
		if lookedUp != "alice" {
			t.Errorf("identity not normalized: %q", lookedUp)
		}
		// The code always goes to the account email, whatever named it.
		if mail := mailer.lastSent(t); mail.email != user.Email {
			t.Errorf("mail went to %q", mail.email)
		}
	})

	t.Run("UnknownIdentityNotFound", func(t *testing.T) {
		app, mailer, _ := newTestApp(&mock.Db{})

		rec := httptest.NewRecorder()
		app.RequestPasswordResetHandler(rec, newJsonRequest(t, "/api/request-password-reset", map[string]string{
			"identity": "nobody@example.com",
		}))

		if rec.Code != http.StatusNotFound {
			t.Fatalf("got status %d", rec.Code)
		}
		mailer.mu.Lock()
		defer mailer.mu.Unlock()
		if len(mailer.sent) != 0 {
			t.Error("mail sent for unknown identity")
		}
	})

	t.Run("CooldownActive", func(t *testing.T) {
		user := testUser()
		mockDb := &mock.Db{
			GetUserByIdentityFunc: func(identity string) (*db.User, error) { return user, nil },
		}
		app, _, cooldowns := newTestApp(mockDb)
		cooldowns.Set("password_reset:alice@example.com", true, 1)

		rec := httptest.NewRecorder()
		app.RequestPasswordResetHandler(rec, newJsonRequest(t, "/api/request-password-reset", map[string]string{
			"identity": "alice@example.com",
		}))

		if rec.Code != http.StatusTooManyRequests {
			t.Fatalf("got status %d", rec.Code)
		}
	})
}

func passwordResetToken(t *testing.T, app *App, email string) string {
	t.Helper()
	token, err := crypto.NewJwtPasswordResetToken(email,
		app.Config().Jwt.PasswordResetSecret, time.Minute)
	if err != nil {
		t.Fatalf("failed to create token: %v", err)
	}
	return token
}

func verifiedResetToken(t *testing.T, app *App, email string) string {
	t.Helper()
	token, err := crypto.NewJwtVerifiedResetToken(email,
		app.Config().Jwt.VerifiedResetSecret, time.Minute)
	if err != nil {
		t.Fatalf("failed to create token: %v", err)
	}
	return token
}

func TestConfirmPasswordReset(t *testing.T) {
	userWithOtp := func(otp string, expiry time.Time) *db.User {
		user := testUser()
		user.ResetOtp = otp
		user.ResetOtpExpiry = expiry
		return user
	}

	t.Run("HappyPath", func(t *testing.T) {
		user := userWithOtp("123456", time.Now().Add(time.Minute))
		cleared := false
		mockDb := &mock.Db{
			GetUserByEmailFunc: func(email string) (*db.User, error) { return user, nil },
			ClearResetOtpFunc: func(userId string) error {
				cleared = true
				return nil
			},
		}
		app, _, _ := newTestApp(mockDb)

		rec := httptest.NewRecorder()
		app.ConfirmPasswordResetHandler(rec, newJsonRequest(t, "/api/confirm-password-reset", map[string]string{
			"token": passwordResetToken(t, app, user.Email),
			"otp":   "123456",
		}))

		if rec.Code != http.StatusOK {
			t.Fatalf("got status %d, body %s", rec.Code, rec.Body.String())
		}
		if !cleared {
			t.Error("otp not cleared after use")
		}

		var data TokenData
		decodeData(t, rec.Body, &data)
		claims, err := crypto.ParseJwt(data.Token, []byte(app.Config().Jwt.VerifiedResetSecret))
		if err != nil {
			t.Fatalf("verified reset token does not verify: %v", err)
		}
		if claims[crypto.ClaimType] != crypto.ClaimTypeVerifiedReset {
			t.Errorf("token type: got %v", claims[crypto.ClaimType])
		}
	})

	t.Run("WrongOtp", func(t *testing.T) {
		user := userWithOtp("123456", time.Now().Add(time.Minute))
		mockDb := &mock.Db{
			GetUserByEmailFunc: func(email string) (*db.User, error) { return user, nil },
		}
		app, _, _ := newTestApp(mockDb)

		rec := httptest.NewRecorder()
		app.ConfirmPasswordResetHandler(rec, newJsonRequest(t, "/api/confirm-password-reset", map[string]string{
			"token": passwordResetToken(t, app, user.Email),
			"otp":   "654321",
		}))

		if rec.Code != http.StatusUnauthorized {
			t.Fatalf("got status %d", rec.Code)
		}
		if code := responseCode(t, rec.Body); code != CodeErrorInvalidOtp {
			t.Errorf("got code %q", code)
		}
	})

	t.Run("ExpiredOtpIsCleared", func(t *testing.T) {
		user := userWithOtp("123456", time.Now().Add(-time.Minute))
		cleared := false
		mockDb := &mock.Db{
			GetUserByEmailFunc: func(email string) (*db.User, error) { return user, nil },
			ClearResetOtpFunc: func(userId string) error {
				cleared = true
				return nil
			},
		}
		app, _, _ := newTestApp(mockDb)

		rec := httptest.NewRecorder()
		app.ConfirmPasswordResetHandler(rec, newJsonRequest(t, "/api/confirm-password-reset", map[string]string{
			"token": passwordResetToken(t, app, user.Email),
			"otp":   "123456",
		}))

		if rec.Code != http.StatusUnauthorized {
			t.Fatalf("got status %d", rec.Code)
		}
		if code := responseCode(t, rec.Body); code != CodeErrorExpired {
			t.Errorf("got code %q", code)
		}
		if !cleared {
			t.Error("expired otp must be cleared")
		}
	})

	t.Run("ExpiredToken", func(t *testing.T) {
		app, _, _ := newTestApp(&mock.Db{})

		token, err := crypto.NewJwtPasswordResetToken("alice@example.com",
			app.Config().Jwt.PasswordResetSecret, -time.Minute)
		if err != nil {
			t.Fatalf("failed to create token: %v", err)
		}

		rec := httptest.NewRecorder()
		app.ConfirmPasswordResetHandler(rec, newJsonRequest(t, "/api/confirm-password-reset", map[string]string{
			"token": token,
			"otp":   "123456",
		}))

		if rec.Code != http.StatusUnauthorized {
			t.Fatalf("got status %d", rec.Code)
		}
		if code := responseCode(t, rec.Body); code != CodeErrorExpired {
			t.Errorf("got code %q", code)
		}
	})

	t.Run("UserGone", func(t *testing.T) {
		// The account disappeared between request and confirm.
		app, _, _ := newTestApp(&mock.Db{})

		rec := httptest.NewRecorder()
		app.ConfirmPasswordResetHandler(rec, newJsonRequest(t, "/api/confirm-password-reset", map[string]string{
			"token": passwordResetToken(t, app, "gone@example.com"),
			"otp":   "123456",
		}))

		if rec.Code != http.StatusNotFound {
			t.Fatalf("got status %d", rec.Code)
		}
	})
}

func TestCompletePasswordReset(t *testing.T) {
	t.Run("HappyPath", func(t *testing.T) {
		user := testUser()
		user.RefreshToken = "some-live-refresh-token"
		var newHash string
		var refreshAfter = user.RefreshToken
		mockDb := &mock.Db{
			GetUserByEmailFunc: func(email string) (*db.User, error) { return user, nil },
			UpdatePasswordFunc: func(userId, newPassword string) error {
				newHash = newPassword
				return nil
			},
			UpdateRefreshTokenFunc: func(userId, token string) error {
				refreshAfter = token
				return nil
			},
		}
		app, _, _ := newTestApp(mockDb)

		rec := httptest.NewRecorder()
		app.CompletePasswordResetHandler(rec, newJsonRequest(t, "/api/complete-password-reset", map[string]string{
			"token":            verifiedResetToken(t, app, user.Email),
			"password":         "brand-new-password",
			"password_confirm": "brand-new-password",
		}))

		if rec.Code != http.StatusOK {
			t.Fatalf("got status %d, body %s", rec.Code, rec.Body.String())
		}
		if !crypto.CheckPassword("brand-new-password", newHash) {
			t.Error("stored hash does not match the new password")
		}
		// The reset revokes the stored session.
		if refreshAfter != "" {
			t.Errorf("refresh token not revoked: %q", refreshAfter)
		}
	})

	t.Run("ResetTokenRejected", func(t *testing.T) {
		// The pre-confirmation token must not reach the password write.
		user := testUser()
		mockDb := &mock.Db{
			GetUserByEmailFunc: func(email string) (*db.User, error) { return user, nil },
		}
		app, _, _ := newTestApp(mockDb)

		rec := httptest.NewRecorder()
		app.CompletePasswordResetHandler(rec, newJsonRequest(t, "/api/complete-password-reset", map[string]string{
			"token":            passwordResetToken(t, app, user.Email),
			"password":         "brand-new-password",
			"password_confirm": "brand-new-password",
		}))

		if rec.Code != http.StatusUnauthorized {
			t.Fatalf("got status %d", rec.Code)
		}
	})

	t.Run("PasswordPolicy", func(t *testing.T) {
		user := testUser()
		mockDb := &mock.Db{
			GetUserByEmailFunc: func(email string) (*db.User, error) { return user, nil },
		}
		app, _, _ := newTestApp(mockDb)
		token := verifiedResetToken(t, app, user.Email)

		testCases := []struct {
			name     string
			password string
			confirm  string
			code     string
		}{
			{"mismatch", "password123", "password124", CodeErrorPasswordMismatch},
			{"too short", "short", "short", CodeErrorPasswordComplexity},
		}
		for _, tc := range testCases {
			t.Run(tc.name, func(t *testing.T) {
				rec := httptest.NewRecorder()
				app.CompletePasswordResetHandler(rec, newJsonRequest(t, "/api/complete-password-reset", map[string]string{
					"token":            token,
					"password":         tc.password,
					"password_confirm": tc.confirm,
				}))
				if rec.Code != http.StatusBadRequest {
					t.Fatalf("got status %d", rec.Code)
				}
				if code := responseCode(t, rec.Body); code != tc.code {
					t.Errorf("got code %q, want %q", code, tc.code)
				}
			})
		}
	})
}
