package clientcli

import "errors"

// Errors for profile operations.
var (
	ErrProfileNotFound = errors.New("profile not found")
	ErrNoProfiles      = errors.New("no profiles configured")
)

// Errors for configuration validation.
var (
	ErrTokenRequired        = errors.New("access token is required")
	ErrRefreshTokenRequired = errors.New("refresh token is required")
	ErrConfigRequired       = errors.New("config is required")
)

// ErrNoKeys is returned by Delete when called without object keys.
var ErrNoKeys = errors.New("no object keys provided")
