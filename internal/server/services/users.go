package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"

	"github.com/kw-00/gossip/internal/common"
	"github.com/kw-00/gossip/internal/server/models"
	"github.com/kw-00/gossip/internal/server/repositories/repomanager"
)

// UserService owns user records and password checks. From the session
// subsystem's point of view it is the external credential collaborator; it
// lives here so the server is operable end to end.
type UserService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
}

func NewUserService(db *sql.DB, m repomanager.RepositoryManager) *UserService {
	return &UserService{db: db, repomanager: m}
}

// Register creates a user with a bcrypt-hashed password. A taken login maps
// to common.ErrorConflict.
func (s *UserService) Register(ctx context.Context, login, password string) (*models.User, error) {
	if login == "" || password == "" {
		return nil, common.ErrInvalidCredentials
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("error hashing password: %w", err)
	}

	repo := s.repomanager.Users(s.db)
	user, err := repo.Create(ctx, &models.User{Login: login, PasswordHash: string(hash)})
	if err != nil {
		if errors.Is(err, common.ErrorConflict) {
			return nil, common.ErrorConflict
		}
		return nil, fmt.Errorf("error creating user: %w", err)
	}
	return user, nil
}

// AuthenticateByPassword matches login+password to a user id. An unknown
// login and a wrong password are indistinguishable to the caller.
func (s *UserService) AuthenticateByPassword(ctx context.Context, login, password string) (string, error) {
	repo := s.repomanager.Users(s.db)
	user, err := repo.GetUserByLogin(ctx, login)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return "", common.ErrInvalidCredentials
		}
		return "", common.ErrorInternal
	}

	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) != nil {
		return "", common.ErrInvalidCredentials
	}

	return user.ID, nil
}
