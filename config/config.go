package config

import (
	"fmt"
	"time"
)

// Duration wraps time.Duration so TOML files can carry values like "45m"
// or "24h" as plain strings.
type Duration struct {
	time.Duration
}

func (d *Duration) UnmarshalText(text []byte) error {
	parsed, err := time.ParseDuration(string(text))
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", string(text), err)
	}
	d.Duration = parsed
	return nil
}

func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.Duration.String()), nil
}

// Jwt holds one secret and lifetime per token purpose. Keeping the purposes
// on separate secrets means a token can never verify under another
// purpose's key, whatever its payload says.
type Jwt struct {
	SessionSecret              string   `toml:"session_secret"`
	SessionTokenDuration       Duration `toml:"session_token_duration"`
	RefreshSecret              string   `toml:"refresh_secret"`
	RefreshTokenDuration       Duration `toml:"refresh_token_duration"`
	RegisterEmailSecret        string   `toml:"register_email_secret"`
	RegisterEmailTokenDuration Duration `toml:"register_email_token_duration"`
	VerifiedEmailSecret        string   `toml:"verified_email_secret"`
	VerifiedEmailTokenDuration Duration `toml:"verified_email_token_duration"`
	EmailChangeSecret          string   `toml:"email_change_secret"`
	EmailChangeTokenDuration   Duration `toml:"email_change_token_duration"`
	PasswordResetSecret        string   `toml:"password_reset_secret"`
	PasswordResetTokenDuration Duration `toml:"password_reset_token_duration"`
	VerifiedResetSecret        string   `toml:"verified_reset_secret"`
	VerifiedResetTokenDuration Duration `toml:"verified_reset_token_duration"`
}

// Otp holds the validity window of each one time code. These are distinct
// from the proof token lifetimes: a code can lapse while its workflow
// token is still good, which lets the client restart the step.
type Otp struct {
	RegistrationDuration  Duration `toml:"registration_duration"`
	EmailChangeDuration   Duration `toml:"email_change_duration"`
	PasswordResetDuration Duration `toml:"password_reset_duration"`
}

// RateLimits holds per-email cooldowns for the endpoints that send mail.
type RateLimits struct {
	RegistrationCooldown  Duration `toml:"registration_cooldown"`
	EmailChangeCooldown   Duration `toml:"email_change_cooldown"`
	PasswordResetCooldown Duration `toml:"password_reset_cooldown"`
}

type Server struct {
	Addr                    string   `toml:"addr"`
	BaseURL                 string   `toml:"base_url"`
	ShutdownGracefulTimeout Duration `toml:"shutdown_graceful_timeout"`
	ReadTimeout             Duration `toml:"read_timeout"`
	ReadHeaderTimeout       Duration `toml:"read_header_timeout"`
	WriteTimeout            Duration `toml:"write_timeout"`
	IdleTimeout             Duration `toml:"idle_timeout"`
}

type Smtp struct {
	Enabled     bool   `toml:"enabled"`
	Host        string `toml:"host"`
	Port        int    `toml:"port"`
	FromName    string `toml:"from_name"`
	FromAddress string `toml:"from_address"`
	Username    string `toml:"username"`
	Password    string `toml:"password"`
	UseStartTLS bool   `toml:"use_start_tls"`
}

// Endpoints maps every operation to its method and path. The router reads
// these, so a deployment can move the API surface without code changes.
type Endpoints struct {
	BeginRegistration     string `toml:"begin_registration"`
	ConfirmRegistration   string `toml:"confirm_registration"`
	CompleteRegistration  string `toml:"complete_registration"`
	RequestEmailChange    string `toml:"request_email_change"`
	ConfirmEmailChange    string `toml:"confirm_email_change"`
	RequestPasswordReset  string `toml:"request_password_reset"`
	ConfirmPasswordReset  string `toml:"confirm_password_reset"`
	CompletePasswordReset string `toml:"complete_password_reset"`
	Login                 string `toml:"login"`
	RefreshToken          string `toml:"refresh_token"`
	Logout                string `toml:"logout"`
	ChangePassword        string `toml:"change_password"`
}

type Config struct {
	DBFile     string     `toml:"db_file"`
	Jwt        Jwt        `toml:"jwt"`
	Otp        Otp        `toml:"otp"`
	RateLimits RateLimits `toml:"rate_limits"`
	Server     Server     `toml:"server"`
	Smtp       Smtp       `toml:"smtp"`
	Endpoints  Endpoints  `toml:"endpoints"`
}
