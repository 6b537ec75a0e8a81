package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// Common error values for the tender client and its dev backend
var (
	// Authentication errors
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrMissingTokens      = errors.New("missing tokens")
	ErrNotAuthenticated   = errors.New("not authenticated")
	ErrUserBlocked        = errors.New("user is blocked")
	ErrUserNotFound       = errors.New("user not found")
	ErrUserExists         = errors.New("user already exists")
	ErrInvalidSMSCode     = errors.New("invalid sms code")

	// Token errors
	ErrInvalidToken        = errors.New("invalid token")
	ErrTokenExpired        = errors.New("token expired")
	ErrNoRefreshToken      = errors.New("no refresh token")
	ErrInvalidRefreshToken = errors.New("invalid refresh token")
	ErrRefreshTokenExpired = errors.New("refresh token expired")
	ErrRefreshFailed       = errors.New("token refresh failed")

	// Input errors
	ErrValidation = errors.New("validation failed")

	// General errors
	ErrNotFound = errors.New("not found")
	ErrInternal = errors.New("internal error")
)

// AuthError reports a failure of the session lifecycle: bad credentials,
// a malformed token payload, or a refresh that could not be completed.
type AuthError struct {
	Op     string // login, refresh, profile
	Detail string // server supplied detail, surfaced verbatim
	Err    error
}

func (e *AuthError) Error() string {
	msg := e.Op + ": "
	if e.Err != nil {
		msg += e.Err.Error()
	} else {
		msg += "authentication failed"
	}
	if e.Detail != "" {
		msg += ": " + e.Detail
	}
	return msg
}

func (e *AuthError) Unwrap() error {
	return e.Err
}

// ValidationError reports bad input before any work is attempted.
// Field is a path such as "groups[1].ranges[0].min".
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("validation failed: %s", e.Reason)
	}
	return fmt.Sprintf("validation failed: %s: %s", e.Field, e.Reason)
}

// Is lets errors.Is(err, ErrValidation) match any ValidationError.
func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

// Invalid builds a ValidationError with a formatted reason.
func Invalid(field, format string, args ...any) *ValidationError {
	return &ValidationError{Field: field, Reason: fmt.Sprintf(format, args...)}
}

// NetworkError is a generic request failure: a non-2xx status other than the
// 401s recovered by the session, or a transport error (StatusCode 0).
type NetworkError struct {
	StatusCode int
	Message    string
	Err        error
}

func (e *NetworkError) Error() string {
	if e.StatusCode == 0 {
		if e.Err != nil {
			return "network error: " + e.Err.Error()
		}
		return "network error: " + e.Message
	}
	if e.Message == "" {
		return fmt.Sprintf("HTTP %d: %s", e.StatusCode, http.StatusText(e.StatusCode))
	}
	return fmt.Sprintf("HTTP %d: %s", e.StatusCode, e.Message)
}

func (e *NetworkError) Unwrap() error {
	return e.Err
}

// IsStatus reports whether err carries a NetworkError with the given status.
func IsStatus(err error, code int) bool {
	var netErr *NetworkError
	if errors.As(err, &netErr) {
		return netErr.StatusCode == code
	}
	return false
}

// Wrapf wraps an error with context using fmt.Errorf
func Wrapf(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf(format+": %w", append(args, err)...)
}

// Is reports whether any error in err's chain matches target
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As finds the first error in err's chain that matches target
func As(err error, target interface{}) bool {
	return errors.As(err, target)
}
