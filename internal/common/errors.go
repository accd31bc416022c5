// Package common defines shared constants and sentinel errors used across
// the layers of the gossip session service. Callers should use errors.Is to
// match these values.
package common

import "errors"

var (
	// Repository-level errors.
	ErrorNotFound = errors.New("not found")
	ErrorConflict = errors.New("already exists")

	// Service-level errors (generic/internal flow control).
	ErrorInternal = errors.New("internal error")

	// Login errors.
	ErrInvalidCredentials = errors.New("invalid login or password")
	ErrUserNotFound       = errors.New("user not found")

	// Access token errors (invalid, forged or malformed token).
	ErrInvalidToken = errors.New("invalid token")
	ErrTokenExpired = errors.New("token expired")

	// Refresh token lifecycle errors.
	ErrRefreshNotFound = errors.New("refresh token not found")
	ErrRefreshExpired  = errors.New("refresh token expired")
	ErrRefreshRevoked  = errors.New("refresh token revoked")

	// ErrReuseDetected signals that an already-consumed refresh token was
	// presented again. This is a theft indicator, not ordinary invalidity:
	// by the time a caller sees it, every session of the owning user has
	// been revoked.
	ErrReuseDetected = errors.New("refresh token reuse detected")

	// ErrTokenIssuanceExhausted is returned when generating a unique refresh
	// token id kept colliding until the retry budget ran out.
	ErrTokenIssuanceExhausted = errors.New("refresh token issuance exhausted")
)
