package config

import (
	"time"

	"github.com/cliphive/cliphive/crypto"
)

// NewDefaultConfig creates a new Config with sensible defaults.
// All secret values are randomly generated.
func NewDefaultConfig() *Config {
	return &Config{
		DBFile: "cliphive.db",
		Jwt: Jwt{
			SessionSecret:              crypto.RandomString(32, crypto.AlphanumericAlphabet),
			SessionTokenDuration:       Duration{Duration: 45 * time.Minute},
			RefreshSecret:              crypto.RandomString(32, crypto.AlphanumericAlphabet),
			RefreshTokenDuration:       Duration{Duration: 7 * 24 * time.Hour},
			RegisterEmailSecret:        crypto.RandomString(32, crypto.AlphanumericAlphabet),
			RegisterEmailTokenDuration: Duration{Duration: 20 * time.Minute},
			VerifiedEmailSecret:        crypto.RandomString(32, crypto.AlphanumericAlphabet),
			VerifiedEmailTokenDuration: Duration{Duration: 20 * time.Minute},
			EmailChangeSecret:          crypto.RandomString(32, crypto.AlphanumericAlphabet),
			EmailChangeTokenDuration:   Duration{Duration: 1 * time.Hour},
			PasswordResetSecret:        crypto.RandomString(32, crypto.AlphanumericAlphabet),
			PasswordResetTokenDuration: Duration{Duration: 1 * time.Hour},
			VerifiedResetSecret:        crypto.RandomString(32, crypto.AlphanumericAlphabet),
			VerifiedResetTokenDuration: Duration{Duration: 15 * time.Minute},
		},
		Otp: Otp{
			RegistrationDuration:  Duration{Duration: 10 * time.Minute},
			EmailChangeDuration:   Duration{Duration: 10 * time.Minute},
			PasswordResetDuration: Duration{Duration: 10 * time.Minute},
		},
		RateLimits: RateLimits{
			RegistrationCooldown:  Duration{Duration: 1 * time.Minute},
			EmailChangeCooldown:   Duration{Duration: 1 * time.Minute},
			PasswordResetCooldown: Duration{Duration: 1 * time.Minute},
		},
		Server: Server{
			Addr:                    ":8080",
			BaseURL:                 "http://localhost:8080",
			ShutdownGracefulTimeout: Duration{Duration: 15 * time.Second},
			ReadTimeout:             Duration{Duration: 2 * time.Second},
			ReadHeaderTimeout:       Duration{Duration: 2 * time.Second},
			WriteTimeout:            Duration{Duration: 3 * time.Second},
			IdleTimeout:             Duration{Duration: 1 * time.Minute},
		},
		Smtp: Smtp{
			Enabled:     false,
			Host:        "smtp.gmail.com",
			Port:        587,
			FromName:    "ClipHive",
			FromAddress: "",
			Username:    "",
			Password:    "",
			UseStartTLS: true,
		},
		Endpoints: Endpoints{
			BeginRegistration:     "POST /api/begin-registration",
			ConfirmRegistration:   "POST /api/confirm-registration",
			CompleteRegistration:  "POST /api/complete-registration",
			RequestEmailChange:    "POST /api/request-email-change",
			ConfirmEmailChange:    "POST /api/confirm-email-change",
			RequestPasswordReset:  "POST /api/request-password-reset",
			ConfirmPasswordReset:  "POST /api/confirm-password-reset",
			CompletePasswordReset: "POST /api/complete-password-reset",
			Login:                 "POST /api/login",
			RefreshToken:          "POST /api/refresh-token",
			Logout:                "POST /api/logout",
			ChangePassword:        "POST /api/change-password",
		},
	}
}
