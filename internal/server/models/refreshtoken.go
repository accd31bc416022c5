package models

import "time"

// TokenStatus is the lifecycle state of a refresh token row.
// Transitions: active -> used (normal rotation), active -> revoked (logout),
// used -> revoked (reuse-detection sweep). A used or revoked token never
// becomes active again.
type TokenStatus string

const (
	TokenStatusActive  TokenStatus = "active"
	TokenStatusUsed    TokenStatus = "used"
	TokenStatusRevoked TokenStatus = "revoked"
)

// RefreshToken is the persisted refresh token row. The ID is the bearer
// secret itself: an unguessable random string, unique per row.
type RefreshToken struct {
	ID        string
	UserID    string
	Status    TokenStatus
	ExpiresAt time.Time
	CreatedAt time.Time
}

// RotateOutcome classifies the result of a rotation attempt.
type RotateOutcome int

const (
	// RotatedOK: the token was active and unexpired, and this caller won the
	// transition to used. At most one caller ever observes this per token.
	RotatedOK RotateOutcome = iota

	// RotateNotFound: no row with this id exists.
	RotateNotFound

	// RotateExpired: the row is still active but past its expiry.
	RotateExpired

	// RotateRevoked: the row was revoked (logout or an earlier sweep).
	RotateRevoked

	// RotateAlreadyUsed: the row was already consumed by a previous rotation.
	// This is the reuse/theft signal.
	RotateAlreadyUsed
)

func (o RotateOutcome) String() string {
	switch o {
	case RotatedOK:
		return "rotated"
	case RotateNotFound:
		return "not_found"
	case RotateExpired:
		return "expired"
	case RotateRevoked:
		return "revoked"
	case RotateAlreadyUsed:
		return "already_used"
	default:
		return "unknown"
	}
}

// RotateResult carries the outcome of VerifyAndRotate. UserID is set for
// RotatedOK and RotateAlreadyUsed; the latter needs it so the caller can
// revoke the whole session family.
type RotateResult struct {
	Outcome RotateOutcome
	UserID  string
}
