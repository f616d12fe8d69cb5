package core

import (
	"errors"
	"fmt"
	"net/http"
	"net/mail"
	"regexp"
	"strings"
)

// Validator defines an interface for request validation operations
type Validator interface {
	// ContentType checks if the request's Content-Type matches the allowed type
	ContentType(r *http.Request, allowedType string) (jsonResponse, error)
}

// DefaultValidator implements the Validator interface
type DefaultValidator struct{}

// NewValidator creates a new DefaultValidator instance
func NewValidator() Validator {
	return &DefaultValidator{}
}

// ContentType checks if the request's Content-Type matches the allowed type.
// Uses http.StatusUnsupportedMediaType (415) for invalid content types as
// per HTTP spec.
func (v *DefaultValidator) ContentType(r *http.Request, allowedType string) (jsonResponse, error) {
	errInvalidType := errors.New("invalid content type")
	contentType := r.Header.Get("Content-Type")
	if contentType == "" {
		return errorInvalidContentType, errInvalidType
	}

	// Content-Type may include charset or other parameters,
	// e.g. "application/json; charset=utf-8"
	mediaType := strings.Split(contentType, ";")[0]
	mediaType = strings.TrimSpace(mediaType)

	if mediaType != allowedType {
		return errorInvalidContentType, errInvalidType
	}

	return jsonResponse{}, nil
}

// ValidateEmail checks if an email address is valid according to RFC 5322
func ValidateEmail(email string) error {
	if _, err := mail.ParseAddress(email); err != nil {
		return fmt.Errorf("invalid email format: %w", err)
	}
	return nil
}

// Usernames cannot contain '@', which keeps them distinguishable from
// email addresses at login.
var usernameRegexp = regexp.MustCompile(`^[a-zA-Z0-9_-]+$`)

const (
	usernameMinLength = 3
	usernameMaxLength = 30
	passwordMinLength = 8
)

// ValidateUsername checks the username character set and length.
func ValidateUsername(username string) error {
	if len(username) < usernameMinLength || len(username) > usernameMaxLength {
		return fmt.Errorf("username must be between %d and %d characters", usernameMinLength, usernameMaxLength)
	}
	if !usernameRegexp.MatchString(username) {
		return errors.New("username may only contain letters, digits, underscore and hyphen")
	}
	return nil
}

// ValidatePassword checks the password length policy.
func ValidatePassword(password string) error {
	if len(password) < passwordMinLength {
		return fmt.Errorf("password must be at least %d characters", passwordMinLength)
	}
	return nil
}
