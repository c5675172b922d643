package events

import (
	"strings"

	"github.com/goliatone/go-errors"
)

const (
	TextCodeTokenMissing       = "auth_token_missing"
	TextCodeTokenExpired       = "auth_token_expired"
	TextCodeTokenMalformed     = "auth_token_malformed"
	TextCodeInvalidCredentials = "auth_invalid_credentials"
	TextCodeEmailNotVerified   = "auth_email_not_verified"
	TextCodeAdminRequired      = "auth_admin_required"
	TextCodeEmailRegistered    = "registration_email_taken"
	TextCodeRegistrationBusy   = "registration_in_progress"
	TextCodeRegistrationGone   = "registration_not_found"
	TextCodeInvalidCode        = "verification_invalid_code"
	TextCodeCodeExpired        = "verification_code_expired"
	TextCodeResetCodeInvalid   = "reset_invalid_code"
	TextCodeNotificationFailed = "notification_failed"
	TextCodeEmptyPassword      = "password_empty"
)

// ErrTokenMissing is returned when a protected route receives no token.
var ErrTokenMissing = errors.New("token not provided", errors.CategoryAuth).
	WithTextCode(TextCodeTokenMissing).
	WithCode(errors.CodeUnauthorized)

// ErrTokenExpired is returned for tokens past their expiry claim.
var ErrTokenExpired = errors.New("token expired", errors.CategoryAuth).
	WithTextCode(TextCodeTokenExpired).
	WithCode(errors.CodeUnauthorized)

// ErrTokenMalformed is returned for tokens that fail signature or
// structural checks for any reason other than expiry.
var ErrTokenMalformed = errors.New("invalid token", errors.CategoryAuth).
	WithTextCode(TextCodeTokenMalformed).
	WithCode(errors.CodeUnauthorized)

// ErrInvalidCredentials covers both an unknown email and a wrong
// password. The two cases must stay indistinguishable to the caller.
var ErrInvalidCredentials = errors.New("invalid email or password", errors.CategoryAuth).
	WithTextCode(TextCodeInvalidCredentials).
	WithCode(errors.CodeBadRequest)

// ErrEmailNotVerified is returned when a known account with a matching
// password has not completed email verification.
var ErrEmailNotVerified = errors.New("email not verified", errors.CategoryAuth).
	WithTextCode(TextCodeEmailNotVerified).
	WithCode(errors.CodeBadRequest)

// ErrAdminRequired is returned when an authenticated caller hits an
// admin route without the admin flag.
var ErrAdminRequired = errors.New("admin access required", errors.CategoryAuthz).
	WithTextCode(TextCodeAdminRequired).
	WithCode(errors.CodeForbidden)

// ErrEmailRegistered is returned when the email already belongs to a
// verified account.
var ErrEmailRegistered = errors.New("email already registered", errors.CategoryConflict).
	WithTextCode(TextCodeEmailRegistered).
	WithCode(errors.CodeBadRequest)

// ErrRegistrationInProgress is returned while an unexpired pending
// registration exists for the email.
var ErrRegistrationInProgress = errors.New("registration already in progress", errors.CategoryConflict).
	WithTextCode(TextCodeRegistrationBusy).
	WithCode(errors.CodeBadRequest)

// ErrRegistrationNotFound covers a missing pending registration and a
// promotion race lost to a concurrent verify.
var ErrRegistrationNotFound = errors.New("registration not found or expired", errors.CategoryNotFound).
	WithTextCode(TextCodeRegistrationGone).
	WithCode(errors.CodeBadRequest)

// ErrInvalidCode is returned when the supplied verification code does
// not match the stored one.
var ErrInvalidCode = errors.New("invalid verification code", errors.CategoryValidation).
	WithTextCode(TextCodeInvalidCode).
	WithCode(errors.CodeBadRequest)

// ErrCodeExpired is returned when the verification window has lapsed.
var ErrCodeExpired = errors.New("verification code expired", errors.CategoryValidation).
	WithTextCode(TextCodeCodeExpired).
	WithCode(errors.CodeBadRequest)

// ErrResetCodeInvalid is the single error for every failed reset
// finalization: wrong code, expired code, or no reset in flight.
var ErrResetCodeInvalid = errors.New("invalid or expired reset code", errors.CategoryValidation).
	WithTextCode(TextCodeResetCodeInvalid).
	WithCode(errors.CodeBadRequest)

// ErrNoEmptyString rejects empty passwords before they reach bcrypt.
var ErrNoEmptyString = errors.New("password cannot be empty", errors.CategoryValidation).
	WithTextCode(TextCodeEmptyPassword).
	WithCode(errors.CodeBadRequest)

// IsTokenExpiredError will check for expired tokens
func IsTokenExpiredError(err error) bool {
	if err == nil {
		return false
	}
	var richErr *errors.Error
	if errors.As(err, &richErr) && richErr.TextCode == TextCodeTokenExpired {
		return true
	}
	return strings.Contains(err.Error(), "token is expired")
}

// IsMalformedError will check for error message
func IsMalformedError(err error) bool {
	if err == nil {
		return false
	}
	var richErr *errors.Error
	if errors.As(err, &richErr) && richErr.TextCode == TextCodeTokenMalformed {
		return true
	}
	return strings.Contains(err.Error(), "token is malformed") ||
		strings.Contains(err.Error(), "missing or malformed JWT")
}
