// Package refreshtokens provides the PostgreSQL-backed refresh token store.
// The rotation step relies on a single conditional UPDATE so the database,
// not application locking, picks the winner under concurrent rotation of
// the same token.
package refreshtokens

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/kw-00/gossip/internal/common"
	"github.com/kw-00/gossip/internal/dbx"
	"github.com/kw-00/gossip/internal/server/models"
)

// tokenIDBytes is the entropy of a token id before hex encoding.
const tokenIDBytes = 32

// maxIDAttempts bounds the retry loop on id collisions.
const maxIDAttempts = 3

const (
	pgUniqueViolation     = "23505"
	pgForeignKeyViolation = "23503"
)

// PostgresRepository implements Repository over dbx.DBTX (satisfied by
// *sql.DB or *sql.Tx). The clock and the id generator are injectable so
// tests can pin both.
type PostgresRepository struct {
	db    dbx.DBTX
	now   func() time.Time
	newID func() (string, error)
}

// NewPostgresRepository constructs a repository bound to the given DBTX.
func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{
		db:  db,
		now: time.Now,
		newID: func() (string, error) {
			return common.MakeRandHexString(tokenIDBytes)
		},
	}
}

// Create inserts a new active token for userID. On a unique-constraint
// collision the insert is retried with a freshly generated id; the row that
// collided is left untouched.
func (r *PostgresRepository) Create(ctx context.Context, userID string, ttl time.Duration) (string, error) {
	query := `
		INSERT INTO refresh_tokens (id, user_id, status, expires_at, created_at)
		VALUES ($1, $2, 'active', $3, $4)
	`

	now := r.now()
	for attempt := 0; attempt < maxIDAttempts; attempt++ {
		id, err := r.newID()
		if err != nil {
			return "", fmt.Errorf("error generating token id: %w", err)
		}

		_, err = r.db.ExecContext(ctx, query, id, userID, now.Add(ttl), now)
		if err == nil {
			return id, nil
		}

		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) {
			switch pgErr.Code {
			case pgUniqueViolation:
				continue
			case pgForeignKeyViolation:
				return "", common.ErrUserNotFound
			}
		}
		return "", fmt.Errorf("db error: %w", err)
	}

	return "", common.ErrTokenIssuanceExhausted
}

// VerifyAndRotate performs the active->used transition as one conditional
// UPDATE. When the update matches no row, a follow-up read classifies why.
func (r *PostgresRepository) VerifyAndRotate(ctx context.Context, id string) (*models.RotateResult, error) {
	rotate := `
		UPDATE refresh_tokens
		SET status = 'used'
		WHERE id = $1 AND status = 'active' AND expires_at > $2
		RETURNING user_id
	`

	now := r.now()

	var userID string
	err := r.db.QueryRowContext(ctx, rotate, id, now).Scan(&userID)
	if err == nil {
		return &models.RotateResult{Outcome: models.RotatedOK, UserID: userID}, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("db error: %w", err)
	}

	return r.classify(ctx, id, now)
}

// classify explains a rotation that matched no row. The outcome reflects the
// row state observed after the failed update; if a concurrent caller consumed
// the token in between, the row reads as used here, which is exactly the
// reuse signal we want the loser to see.
func (r *PostgresRepository) classify(ctx context.Context, id string, now time.Time) (*models.RotateResult, error) {
	query := `
		SELECT user_id, status, expires_at
		FROM refresh_tokens
		WHERE id = $1
	`

	var (
		userID    string
		status    models.TokenStatus
		expiresAt time.Time
	)
	err := r.db.QueryRowContext(ctx, query, id).Scan(&userID, &status, &expiresAt)
	if errors.Is(err, sql.ErrNoRows) {
		return &models.RotateResult{Outcome: models.RotateNotFound}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	switch status {
	case models.TokenStatusRevoked:
		return &models.RotateResult{Outcome: models.RotateRevoked}, nil
	case models.TokenStatusUsed:
		return &models.RotateResult{Outcome: models.RotateAlreadyUsed, UserID: userID}, nil
	default:
		if !expiresAt.After(now) {
			return &models.RotateResult{Outcome: models.RotateExpired}, nil
		}
		// Active and unexpired yet the update missed it: a concurrent
		// rotation won between the two statements. Report it as consumed.
		return &models.RotateResult{Outcome: models.RotateAlreadyUsed, UserID: userID}, nil
	}
}

// Revoke marks the token revoked. Zero affected rows is still success, so
// logout stays idempotent.
func (r *PostgresRepository) Revoke(ctx context.Context, id string) error {
	query := `
		UPDATE refresh_tokens
		SET status = 'revoked'
		WHERE id = $1
	`
	if _, err := r.db.ExecContext(ctx, query, id); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

// RevokeAll revokes every active or used token of userID.
func (r *PostgresRepository) RevokeAll(ctx context.Context, userID string) error {
	query := `
		UPDATE refresh_tokens
		SET status = 'revoked'
		WHERE user_id = $1 AND status <> 'revoked'
	`
	if _, err := r.db.ExecContext(ctx, query, userID); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}
