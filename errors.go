package shareustc

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound is returned when a resource is not found
	ErrNotFound = errors.New("not found")
	// ErrInternal is returned when an internal error occurs
	ErrInternal = errors.New("internal error")
	// ErrUnauthorized is returned when authentication fails
	ErrUnauthorized = errors.New("unauthorized")
	// ErrForbidden is returned when an authenticated caller lacks the required role
	ErrForbidden = errors.New("forbidden")

	// ErrConfig is returned when static configuration required by an operation is missing or invalid.
	ErrConfig = errors.New("config error")
	// ErrValidation is returned when caller-supplied input is rejected before any network or crypto work.
	ErrValidation = errors.New("validation error")
	// ErrRequest is returned when the remote service could not be reached.
	ErrRequest = errors.New("request error")
	// ErrService is returned when the remote service answered with a failure or an unparseable body.
	ErrService = errors.New("service error")
)

// AuthErrorCode identifies why a request or token was not authenticated.
type AuthErrorCode string

const (
	AuthMissingCredentials   AuthErrorCode = "missing_credentials"
	AuthMalformedCredentials AuthErrorCode = "malformed_credentials"
	AuthMalformed            AuthErrorCode = "malformed_token"
	AuthSignatureInvalid     AuthErrorCode = "signature_invalid"
	AuthExpired              AuthErrorCode = "token_expired"
	AuthWrongType            AuthErrorCode = "wrong_token_type"
)

var authErrorMessages = map[AuthErrorCode]string{
	AuthMissingCredentials:   "Missing credentials",
	AuthMalformedCredentials: "Malformed credentials",
	AuthMalformed:            "Malformed token",
	AuthSignatureInvalid:     "Invalid token signature",
	AuthExpired:              "Token expired",
	AuthWrongType:            "Wrong token type",
}

// AuthError is returned by token verification and request authentication.
// Every AuthError matches ErrUnauthorized under errors.Is.
type AuthError struct {
	Code AuthErrorCode
	Err  error
}

func newAuthError(code AuthErrorCode, err error) *AuthError {
	return &AuthError{Code: code, Err: err}
}

// Message returns a client-safe description of the failure.
func (e *AuthError) Message() string {
	if msg, ok := authErrorMessages[e.Code]; ok {
		return msg
	}
	return string(e.Code)
}

func (e *AuthError) Error() string {
	if e.Err == nil {
		return e.Message()
	}
	return fmt.Sprintf("%s: %v", e.Message(), e.Err)
}

func (e *AuthError) Unwrap() error {
	return e.Err
}

// Is reports ErrUnauthorized as a match so callers can branch on the class of failure.
func (e *AuthError) Is(target error) bool {
	return target == ErrUnauthorized
}

// AuthErrorCodeOf extracts the AuthErrorCode from err, if any.
func AuthErrorCodeOf(err error) (AuthErrorCode, bool) {
	var authErr *AuthError
	if errors.As(err, &authErr) {
		return authErr.Code, true
	}
	return "", false
}
