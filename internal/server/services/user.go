// Package services contains server-side business logic. This file implements
// UserService, which handles registration, login and access token issue.
package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dmitrijs2005/filevault/internal/common"
	"github.com/dmitrijs2005/filevault/internal/logging"
	"github.com/dmitrijs2005/filevault/internal/server/auth"
	"github.com/dmitrijs2005/filevault/internal/server/models"
	"github.com/dmitrijs2005/filevault/internal/server/repositories/repomanager"
)

// TokenResponse is what a successful login hands back to the client.
type TokenResponse struct {
	AccessToken string
	TokenType   string
	ExpiresIn   int64
}

// UserService provides authentication-related operations:
// - Register: create users
// - Login: verify credentials and mint an access token
type UserService struct {
	repomanager                 repomanager.RepositoryManager
	hasher                      *auth.PasswordHasher
	tokens                      *auth.TokenService
	accessTokenValidityDuration time.Duration
	log                         logging.Logger
}

func NewUserService(m repomanager.RepositoryManager, hasher *auth.PasswordHasher, tokens *auth.TokenService,
	accessTokenValidityDuration time.Duration, log logging.Logger) *UserService {
	return &UserService{
		repomanager:                 m,
		hasher:                      hasher,
		tokens:                      tokens,
		accessTokenValidityDuration: accessTokenValidityDuration,
		log:                         log.With("module", "users"),
	}
}

// Register creates a user. The email and username are checked for
// duplicates up front; the unique constraints catch concurrent signups.
// The password is hashed before any write so no lock is held meanwhile.
func (s *UserService) Register(ctx context.Context, username, email, password string) (*models.User, error) {
	username = strings.TrimSpace(username)
	email = normalizeEmail(email)

	switch {
	case username == "":
		return nil, common.NewValidationError("username is required")
	case email == "":
		return nil, common.NewValidationError("email is required")
	case password == "":
		return nil, common.NewValidationError("password is required")
	}

	repo := s.repomanager.Users()

	if err := s.checkFree(ctx, "email", func() error { _, err := repo.GetByEmail(ctx, email); return err }); err != nil {
		return nil, err
	}
	if err := s.checkFree(ctx, "username", func() error { _, err := repo.GetByUsername(ctx, username); return err }); err != nil {
		return nil, err
	}

	hash, err := s.hasher.Hash(password)
	if err != nil {
		return nil, fmt.Errorf("%w: hash password: %v", common.ErrorInternal, err)
	}

	u, err := repo.Create(ctx, &models.User{UserName: username, Email: email, PasswordHash: hash})
	if err != nil {
		if errors.Is(err, common.ErrorDuplicate) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: create user: %v", common.ErrorInternal, err)
	}

	s.log.Info(ctx, "user registered", "user_id", u.ID)
	return u, nil
}

// checkFree turns a successful lookup into a DuplicateError for field.
func (s *UserService) checkFree(ctx context.Context, field string, lookup func() error) error {
	err := lookup()
	switch {
	case err == nil:
		return &common.DuplicateError{Field: field}
	case errors.Is(err, common.ErrorNotFound):
		return nil
	default:
		return fmt.Errorf("%w: lookup %s: %v", common.ErrorInternal, field, err)
	}
}

// FindByEmail returns the user with email or common.ErrorNotFound.
func (s *UserService) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	u, err := s.repomanager.Users().GetByEmail(ctx, normalizeEmail(email))
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("%w: %v", common.ErrorInternal, err)
	}
	return u, nil
}

// GetByID returns the user with id or common.ErrorNotFound.
func (s *UserService) GetByID(ctx context.Context, id int64) (*models.User, error) {
	u, err := s.repomanager.Users().GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("%w: %v", common.ErrorInternal, err)
	}
	return u, nil
}

// Login verifies the credentials and issues an access token. An unknown
// email and a wrong password both yield common.ErrorAuthentication, and both
// run one bcrypt comparison.
func (s *UserService) Login(ctx context.Context, email, password string) (*TokenResponse, error) {
	user, err := s.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			s.hasher.DummyVerify(password)
			return nil, common.ErrorAuthentication
		}
		return nil, err
	}

	if !s.hasher.Verify(password, user.PasswordHash) {
		s.log.Info(ctx, "login failed", "user_id", user.ID)
		return nil, common.ErrorAuthentication
	}

	token, err := s.tokens.Issue(user.ID, s.accessTokenValidityDuration)
	if err != nil {
		return nil, fmt.Errorf("%w: issue token: %v", common.ErrorInternal, err)
	}

	return &TokenResponse{
		AccessToken: token,
		TokenType:   common.TokenType,
		ExpiresIn:   int64(s.accessTokenValidityDuration / time.Second),
	}, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
