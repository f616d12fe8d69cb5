package core

import (
	"encoding/json"
	"net/http"
)

// Standard response codes
const (
	// oks
	CodeOkOtpSent         = "ok_otp_sent"
	CodeOkEmailVerified   = "ok_email_verified"
	CodeOkEmailChanged    = "ok_email_changed"
	CodeOkOtpConfirmed    = "ok_otp_confirmed"
	CodeOkPasswordReset   = "ok_password_reset"
	CodeOkPasswordChanged = "ok_password_changed"
	CodeOkLoggedOut       = "ok_logged_out"

	// errors
	CodeErrorInvalidRequest     = "err_invalid_input"
	CodeErrorMissingFields      = "err_missing_fields"
	CodeErrorInvalidEmail       = "err_invalid_email"
	CodeErrorInvalidUsername    = "err_invalid_username"
	CodeErrorPasswordComplexity = "err_password_complexity"
	CodeErrorPasswordMismatch   = "err_password_mismatch"
	CodeErrorInvalidCredentials = "err_invalid_credentials"
	CodeErrorInvalidOtp         = "err_invalid_otp"
	CodeErrorExpired            = "err_expired"
	CodeErrorNoAuthHeader       = "err_no_auth_header"
	CodeErrorInvalidTokenFormat = "err_invalid_token_format"
	CodeErrorJwtInvalidToken    = "err_invalid_token"
	CodeErrorNotFound           = "err_not_found"
	CodeErrorEmailConflict      = "err_email_conflict"
	CodeErrorUsernameConflict   = "err_username_conflict"
	CodeErrorInvalidContentType = "err_invalid_content_type"
	CodeErrorTooManyRequests    = "err_too_many_requests"
	CodeErrorTokenGeneration    = "err_token_generation"
	CodeErrorMailDelivery       = "err_mail_delivery"
	CodeErrorServiceUnavailable = "err_service_unavailable"
)

// precomputeBasicResponse marshals a short response once at package
// initialization so handlers only write the stored bytes.
func precomputeBasicResponse(status int, code, message string) jsonResponse {
	basic := JsonBasic{
		Status:  status,
		Code:    code,
		Message: message,
	}
	body, _ := json.Marshal(basic)
	return jsonResponse{status: status, body: body}
}

// Precomputed error and ok responses with status codes
var (
	// errors
	errorInvalidRequest     = precomputeBasicResponse(http.StatusBadRequest, CodeErrorInvalidRequest, "The request contains invalid data")
	errorMissingFields      = precomputeBasicResponse(http.StatusBadRequest, CodeErrorMissingFields, "Required fields are missing")
	errorInvalidEmail       = precomputeBasicResponse(http.StatusBadRequest, CodeErrorInvalidEmail, "Email address is not valid")
	errorInvalidUsername    = precomputeBasicResponse(http.StatusBadRequest, CodeErrorInvalidUsername, "Username may only contain letters, digits, underscore and hyphen")
	errorPasswordComplexity = precomputeBasicResponse(http.StatusBadRequest, CodeErrorPasswordComplexity, "Password must be at least 8 characters")
	errorPasswordMismatch   = precomputeBasicResponse(http.StatusBadRequest, CodeErrorPasswordMismatch, "Password and confirmation do not match")
	errorInvalidCredentials = precomputeBasicResponse(http.StatusUnauthorized, CodeErrorInvalidCredentials, "Invalid credentials provided")
	errorInvalidOtp         = precomputeBasicResponse(http.StatusUnauthorized, CodeErrorInvalidOtp, "Verification code is not valid")
	errorOtpExpired         = precomputeBasicResponse(http.StatusUnauthorized, CodeErrorExpired, "Verification code has expired")
	errorNoAuthHeader       = precomputeBasicResponse(http.StatusUnauthorized, CodeErrorNoAuthHeader, "Authorization header is missing")
	errorInvalidTokenFormat = precomputeBasicResponse(http.StatusUnauthorized, CodeErrorInvalidTokenFormat, "Authorization header format must be Bearer {token}")
	errorJwtInvalidToken    = precomputeBasicResponse(http.StatusUnauthorized, CodeErrorJwtInvalidToken, "Token is not valid")
	errorJwtTokenExpired    = precomputeBasicResponse(http.StatusUnauthorized, CodeErrorExpired, "Token has expired")
	errorNotFound           = precomputeBasicResponse(http.StatusNotFound, CodeErrorNotFound, "Requested resource not found")
	errorEmailConflict      = precomputeBasicResponse(http.StatusConflict, CodeErrorEmailConflict, "Email address is already registered")
	errorUsernameConflict   = precomputeBasicResponse(http.StatusConflict, CodeErrorUsernameConflict, "Username is already taken")
	errorInvalidContentType = precomputeBasicResponse(http.StatusUnsupportedMediaType, CodeErrorInvalidContentType, "Content-Type must be application/json")
	errorTooManyRequests    = precomputeBasicResponse(http.StatusTooManyRequests, CodeErrorTooManyRequests, "A code was sent recently. Please wait before requesting another")
	errorTokenGeneration    = precomputeBasicResponse(http.StatusInternalServerError, CodeErrorTokenGeneration, "Failed to generate token")
	errorMailDelivery       = precomputeBasicResponse(http.StatusServiceUnavailable, CodeErrorMailDelivery, "Could not deliver the verification code. Please try again")
	errorServiceUnavailable = precomputeBasicResponse(http.StatusServiceUnavailable, CodeErrorServiceUnavailable, "Service temporarily unavailable")

	// oks
	okEmailChanged    = precomputeBasicResponse(http.StatusOK, CodeOkEmailChanged, "Email address updated")
	okPasswordReset   = precomputeBasicResponse(http.StatusOK, CodeOkPasswordReset, "Password has been reset")
	okPasswordChanged = precomputeBasicResponse(http.StatusOK, CodeOkPasswordChanged, "Password updated")
	okLoggedOut       = precomputeBasicResponse(http.StatusOK, CodeOkLoggedOut, "Logged out")
)
