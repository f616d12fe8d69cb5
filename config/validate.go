package config

import (
	"errors"
	"fmt"

	"github.com/cliphive/cliphive/crypto"
)

// Validate checks a configuration for values that would break the service
// at runtime. It is called on initial load and on every reload.
func Validate(cfg *Config) error {
	if cfg == nil {
		return errors.New("config is nil")
	}

	if cfg.DBFile == "" {
		return errors.New("db_file must not be empty")
	}
	if cfg.Server.Addr == "" {
		return errors.New("server.addr must not be empty")
	}

	secrets := map[string]string{
		"jwt.session_secret":        cfg.Jwt.SessionSecret,
		"jwt.refresh_secret":        cfg.Jwt.RefreshSecret,
		"jwt.register_email_secret": cfg.Jwt.RegisterEmailSecret,
		"jwt.verified_email_secret": cfg.Jwt.VerifiedEmailSecret,
		"jwt.email_change_secret":   cfg.Jwt.EmailChangeSecret,
		"jwt.password_reset_secret": cfg.Jwt.PasswordResetSecret,
		"jwt.verified_reset_secret": cfg.Jwt.VerifiedResetSecret,
	}
	for name, secret := range secrets {
		if len(secret) < crypto.MinKeyLength {
			return fmt.Errorf("%s must be at least %d characters", name, crypto.MinKeyLength)
		}
	}

	durations := map[string]Duration{
		"jwt.session_token_duration":        cfg.Jwt.SessionTokenDuration,
		"jwt.refresh_token_duration":        cfg.Jwt.RefreshTokenDuration,
		"jwt.register_email_token_duration": cfg.Jwt.RegisterEmailTokenDuration,
		"jwt.verified_email_token_duration": cfg.Jwt.VerifiedEmailTokenDuration,
		"jwt.email_change_token_duration":   cfg.Jwt.EmailChangeTokenDuration,
		"jwt.password_reset_token_duration": cfg.Jwt.PasswordResetTokenDuration,
		"jwt.verified_reset_token_duration": cfg.Jwt.VerifiedResetTokenDuration,
		"otp.registration_duration":         cfg.Otp.RegistrationDuration,
		"otp.email_change_duration":         cfg.Otp.EmailChangeDuration,
		"otp.password_reset_duration":       cfg.Otp.PasswordResetDuration,
	}
	for name, d := range durations {
		if d.Duration <= 0 {
			return fmt.Errorf("%s must be positive", name)
		}
	}

	if cfg.Smtp.Enabled {
		if cfg.Smtp.Host == "" {
			return errors.New("smtp.host must not be empty when smtp is enabled")
		}
		if cfg.Smtp.Port <= 0 || cfg.Smtp.Port > 65535 {
			return fmt.Errorf("smtp.port %d out of range", cfg.Smtp.Port)
		}
		if cfg.Smtp.FromAddress == "" {
			return errors.New("smtp.from_address must not be empty when smtp is enabled")
		}
	}

	return nil
}
