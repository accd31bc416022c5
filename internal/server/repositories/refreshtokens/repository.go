// Package refreshtokens declares the repository contract for the refresh
// token state machine (active -> used -> revoked) backed by persistent
// storage.
package refreshtokens

import (
	"context"
	"time"

	"github.com/kw-00/gossip/internal/server/models"
)

// Repository defines operations over the refresh token lifecycle. The store
// is the single source of truth for token status: implementations must not
// cache status across calls.
type Repository interface {
	// Create mints a fresh token id for userID with an expiry of now+ttl and
	// inserts it as active. Id collisions are retried with a new id a bounded
	// number of times; common.ErrTokenIssuanceExhausted is returned when the
	// budget runs out and common.ErrUserNotFound when userID does not exist.
	// An existing row is never overwritten.
	Create(ctx context.Context, userID string, ttl time.Duration) (string, error)

	// VerifyAndRotate atomically transitions the row for id from active to
	// used, if and only if it is currently active and unexpired, and reports
	// what happened. Under concurrent calls with the same id, exactly one
	// caller observes RotatedOK; the persistence layer serializes the winner.
	// The returned error is reserved for infrastructure failures (the outcome
	// is then unknown, not invalid).
	VerifyAndRotate(ctx context.Context, id string) (*models.RotateResult, error)

	// Revoke sets the row for id to revoked. It is idempotent: revoking an
	// absent or already-revoked token succeeds.
	Revoke(ctx context.Context, id string) error

	// RevokeAll revokes every non-revoked token of userID. Used by the
	// reuse-detection response to kill the whole session family.
	RevokeAll(ctx context.Context, userID string) error
}
