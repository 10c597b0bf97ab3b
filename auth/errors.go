package auth

import (
	"github.com/goliatone/go-errors"
)

const (
	TextCodeInvalidCredentials = "invalid_credentials"
	TextCodeTokenExpired       = "token_expired"
	TextCodeTokenMalformed     = "token_malformed"
	TextCodeWrongTokenKind     = "wrong_token_kind"
	TextCodeSessionNotFound    = "session_not_found"
	TextCodeForbidden          = "forbidden"
	TextCodeAccountNotFound    = "account_not_found"
	TextCodeAccountExists      = "account_exists"
)

// ErrInvalidCredentials is returned for a failed login. The message is the
// same whether the username is unknown or the password is wrong.
var ErrInvalidCredentials = errors.New("invalid username or password", errors.CategoryAuth).
	WithTextCode(TextCodeInvalidCredentials).
	WithCode(errors.CodeUnauthorized)

// ErrTokenExpired is returned when a token is past its expiry.
var ErrTokenExpired = errors.New("token expired", errors.CategoryAuth).
	WithTextCode(TextCodeTokenExpired).
	WithCode(errors.CodeUnauthorized)

// ErrTokenMalformed is returned when a token is missing, altered, or signed
// with a different secret.
var ErrTokenMalformed = errors.New("invalid token", errors.CategoryAuth).
	WithTextCode(TextCodeTokenMalformed).
	WithCode(errors.CodeUnauthorized)

// ErrWrongTokenKind is returned when a token's embedded kind does not match
// the operation, e.g. an access token presented to the refresh endpoint.
var ErrWrongTokenKind = errors.New("wrong token kind", errors.CategoryAuth).
	WithTextCode(TextCodeWrongTokenKind).
	WithCode(errors.CodeUnauthorized)

// ErrSessionNotFound is returned when a refresh token has no live session
// record, i.e. it was already rotated away or revoked.
var ErrSessionNotFound = errors.New("session not found", errors.CategoryAuth).
	WithTextCode(TextCodeSessionNotFound).
	WithCode(errors.CodeUnauthorized)

// ErrForbidden is returned for a valid identity with insufficient role.
var ErrForbidden = errors.New("access denied, admins only", errors.CategoryAuthz).
	WithTextCode(TextCodeForbidden).
	WithCode(errors.CodeForbidden)

// ErrAccountNotFound is returned when a referenced account does not exist.
var ErrAccountNotFound = errors.New("account not found", errors.CategoryNotFound).
	WithTextCode(TextCodeAccountNotFound).
	WithCode(errors.CodeNotFound)

// ErrAccountExists is returned on a username or email uniqueness violation.
var ErrAccountExists = errors.New("username or email already exists", errors.CategoryConflict).
	WithTextCode(TextCodeAccountExists).
	WithCode(errors.CodeConflict)

func hasTextCode(err error, code string) bool {
	var richErr *errors.Error
	if !errors.As(err, &richErr) {
		return false
	}
	return richErr.TextCode == code
}

// IsTokenExpiredError will check for expired tokens
func IsTokenExpiredError(err error) bool {
	return hasTextCode(err, TextCodeTokenExpired)
}

// IsMalformedError will check for missing or malformed tokens
func IsMalformedError(err error) bool {
	return hasTextCode(err, TextCodeTokenMalformed)
}

// IsWrongKindError will check for kind mismatches
func IsWrongKindError(err error) bool {
	return hasTextCode(err, TextCodeWrongTokenKind)
}

// IsSessionNotFoundError will check for revoked or rotated-away sessions
func IsSessionNotFoundError(err error) bool {
	return hasTextCode(err, TextCodeSessionNotFound)
}

// IsInvalidCredentialsError will check for failed logins
func IsInvalidCredentialsError(err error) bool {
	return hasTextCode(err, TextCodeInvalidCredentials)
}
