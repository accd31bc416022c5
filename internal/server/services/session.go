// Package services contains the server-side business logic: SessionService
// orchestrates login, refresh and logout over the refresh token store and the
// access token codec, and UserService is the credential collaborator it
// authenticates against.
package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/kw-00/gossip/internal/common"
	"github.com/kw-00/gossip/internal/dbx"
	"github.com/kw-00/gossip/internal/logging"
	"github.com/kw-00/gossip/internal/server/auth"
	"github.com/kw-00/gossip/internal/server/config"
	"github.com/kw-00/gossip/internal/server/models"
	"github.com/kw-00/gossip/internal/server/repositories/repomanager"
)

// TokenPair bundles a short-lived access token and a long-lived refresh token
// id. The refresh id is the opaque secret the client stores; the access token
// is self-contained and verified without touching the store.
type TokenPair struct {
	AccessToken  string
	RefreshToken string
}

// CredentialVerifier is the boundary to the user-credential collaborator.
// This subsystem never sees password storage; it only asks "who is this".
type CredentialVerifier interface {
	// AuthenticateByPassword returns the user id for a matching login and
	// password, or common.ErrInvalidCredentials.
	AuthenticateByPassword(ctx context.Context, login, password string) (string, error)
}

// SessionService holds no session state of its own. The store is the single
// source of truth; the service only combines store transitions with token
// issuance.
type SessionService struct {
	db              *sql.DB
	repomanager     repomanager.RepositoryManager
	verifier        CredentialVerifier
	logger          logging.Logger
	jwtSecret       []byte
	accessValidity  time.Duration
	refreshValidity time.Duration
}

// NewSessionService constructs a SessionService from its collaborators and
// server config.
func NewSessionService(db *sql.DB, m repomanager.RepositoryManager, v CredentialVerifier, l logging.Logger, cfg *config.Config) *SessionService {
	return &SessionService{
		db:              db,
		repomanager:     m,
		verifier:        v,
		logger:          l.With("module", "session_service"),
		jwtSecret:       []byte(cfg.SecretKey),
		accessValidity:  cfg.AccessTokenValidityDuration,
		refreshValidity: cfg.RefreshTokenValidityDuration,
	}
}

// Login verifies the credentials with the collaborator and, on success,
// mints a fresh token pair. Failure modes stay distinct: invalid credentials,
// missing user at the store level, and an exhausted id-collision budget.
func (s *SessionService) Login(ctx context.Context, login, password string) (*TokenPair, error) {
	userID, err := s.verifier.AuthenticateByPassword(ctx, login, password)
	if err != nil {
		if errors.Is(err, common.ErrInvalidCredentials) {
			return nil, common.ErrInvalidCredentials
		}
		return nil, common.ErrorInternal
	}

	var pair *TokenPair
	if err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		var genErr error
		pair, genErr = s.generateTokenPair(ctx, userID, tx)
		return genErr
	}); err != nil {
		return nil, err
	}

	s.logger.Info(ctx, "login", "user_id", userID)
	return pair, nil
}

// Refresh rotates refreshID and returns a fresh pair. The rotation and the
// issuance of the replacement token run in one transaction, so a failed
// issuance rolls the old token back to active instead of stranding the
// client. On reuse detection the whole session family of the owning user is
// revoked before the distinguished error is returned; the sweep is a
// security action, not best-effort.
func (s *SessionService) Refresh(ctx context.Context, refreshID string) (*TokenPair, error) {
	var (
		res  *models.RotateResult
		pair *TokenPair
	)
	err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repo := s.repomanager.RefreshTokens(tx)
		r, err := repo.VerifyAndRotate(ctx, refreshID)
		if err != nil {
			return fmt.Errorf("error rotating refresh token: %w", err)
		}
		res = r
		if r.Outcome != models.RotatedOK {
			return nil
		}
		pair, err = s.generateTokenPair(ctx, r.UserID, tx)
		return err
	})
	if err != nil {
		return nil, err
	}

	switch res.Outcome {
	case models.RotatedOK:
		return pair, nil
	case models.RotateAlreadyUsed:
		// Theft signal: the token was consumed once already. Kill every
		// session of the owner, then report it as its own failure so the
		// caller can force a full re-login and alert.
		s.logger.Warn(ctx, "refresh token reuse detected, revoking session family", "user_id", res.UserID)
		if err := s.repomanager.RefreshTokens(s.db).RevokeAll(ctx, res.UserID); err != nil {
			return nil, fmt.Errorf("error revoking session family: %w", err)
		}
		return nil, common.ErrReuseDetected
	case models.RotateExpired:
		return nil, common.ErrRefreshExpired
	case models.RotateRevoked:
		return nil, common.ErrRefreshRevoked
	default:
		return nil, common.ErrRefreshNotFound
	}
}

// Logout revokes refreshID. Revocation is idempotent, so logging out twice
// or with an unknown id is not an error; only infrastructure failures
// propagate.
func (s *SessionService) Logout(ctx context.Context, refreshID string) error {
	repo := s.repomanager.RefreshTokens(s.db)
	if err := repo.Revoke(ctx, refreshID); err != nil {
		return fmt.Errorf("error revoking refresh token: %w", err)
	}
	return nil
}

func (s *SessionService) generateTokenPair(ctx context.Context, userID string, tx dbx.DBTX) (*TokenPair, error) {
	refreshRepo := s.repomanager.RefreshTokens(tx)
	refresh, err := refreshRepo.Create(ctx, userID, s.refreshValidity)
	if err != nil {
		if errors.Is(err, common.ErrUserNotFound) || errors.Is(err, common.ErrTokenIssuanceExhausted) {
			return nil, err
		}
		return nil, common.ErrorInternal
	}

	access, err := auth.IssueToken(userID, s.jwtSecret, s.accessValidity)
	if err != nil {
		return nil, common.ErrorInternal
	}

	return &TokenPair{AccessToken: access, RefreshToken: refresh}, nil
}
