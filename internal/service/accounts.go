package service

import (
	"context"
	"errors"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/sirupsen/logrus"

	"github.com/pocketpet/api/internal/auth"
	"github.com/pocketpet/api/internal/logging"
	"github.com/pocketpet/api/internal/models"
	"github.com/pocketpet/api/internal/repository"
)

// LoginResult is returned by Login and Refresh
type LoginResult struct {
	User   *models.User
	Tokens *auth.TokenPair
}

// Accounts handles registration, login and sessions
type Accounts struct {
	users    repository.UserRepository
	hasher   *auth.Hasher
	tokens   *auth.TokenManager
	sessions SessionStore
	log      logrus.FieldLogger
	now      func() time.Time
}

// NewAccounts creates the account service
func NewAccounts(users repository.UserRepository, hasher *auth.Hasher, tokens *auth.TokenManager, sessions SessionStore, log logrus.FieldLogger) *Accounts {
	return &Accounts{
		users:    users,
		hasher:   hasher,
		tokens:   tokens,
		sessions: sessions,
		log:      logging.Component(log, "auth"),
		now:      time.Now,
	}
}

// Register creates a user with a bcrypt-hashed password
func (s *Accounts) Register(ctx context.Context, username, password string) (*models.User, error) {
	username = strings.TrimSpace(username)
	if err := validateRegistration(username, password); err != nil {
		return nil, err
	}

	hash, err := s.hasher.Hash(password)
	if err != nil {
		s.log.WithError(err).Error("failed to hash password")
		return nil, internalErr("Failed to create user", err)
	}

	user, err := s.users.Create(ctx, &models.User{Username: username, PasswordHash: hash})
	if err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, conflictErr("Username already exists", ErrUsernameTaken)
		}
		s.log.WithError(err).Error("failed to insert user")
		return nil, internalErr("Failed to create user", err)
	}

	s.log.WithFields(logrus.Fields{"user_id": user.ID, "username": user.Username}).Info("user registered")
	return user, nil
}

// Login verifies credentials, issues a token pair and records the session
func (s *Accounts) Login(ctx context.Context, username, password string) (*LoginResult, error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return nil, validationErr("Username and password are required", nil)
	}

	user, err := s.users.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, notFoundErr("User not found", ErrUserNotFound)
		}
		s.log.WithError(err).Error("failed to fetch user")
		return nil, internalErr("Failed to fetch user", err)
	}

	if err := s.hasher.Compare(user.PasswordHash, password); err != nil {
		s.log.WithField("username", username).Warn("login failed: password mismatch")
		return nil, authErr("Invalid username or password", ErrInvalidCredentials)
	}

	pair, err := s.startSession(ctx, user)
	if err != nil {
		return nil, err
	}

	s.log.WithFields(logrus.Fields{"user_id": user.ID, "session_id": pair.SessionID}).Info("user logged in")
	return &LoginResult{User: user, Tokens: pair}, nil
}

// Refresh exchanges a refresh token for a new pair. The old session is revoked.
func (s *Accounts) Refresh(ctx context.Context, refreshToken string) (*LoginResult, error) {
	if strings.TrimSpace(refreshToken) == "" {
		return nil, validationErr("Refresh token is required", nil)
	}

	claims, err := s.tokens.ValidateRefreshToken(refreshToken)
	if err != nil {
		return nil, authErr("Invalid refresh token", err)
	}

	live, err := s.sessions.SessionExists(ctx, claims.SessionID())
	if err != nil {
		s.log.WithError(err).Error("failed to check session")
		return nil, internalErr("Failed to refresh session", err)
	}
	if !live {
		return nil, authErr("Invalid refresh token", ErrSessionRevoked)
	}

	user, err := s.users.GetByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, authErr("User not found", ErrUserNotFound)
		}
		return nil, internalErr("Failed to fetch user", err)
	}

	if err := s.sessions.DeleteSession(ctx, claims.SessionID()); err != nil {
		s.log.WithError(err).Error("failed to revoke old session")
		return nil, internalErr("Failed to refresh session", err)
	}

	pair, err := s.startSession(ctx, user)
	if err != nil {
		return nil, err
	}

	s.log.WithField("user_id", user.ID).Info("token refreshed")
	return &LoginResult{User: user, Tokens: pair}, nil
}

// Logout revokes a session. Tokens carrying its id are rejected afterwards.
func (s *Accounts) Logout(ctx context.Context, sessionID string) error {
	if err := s.sessions.DeleteSession(ctx, sessionID); err != nil {
		s.log.WithError(err).Error("failed to delete session")
		return internalErr("Failed to log out", err)
	}
	s.log.WithField("session_id", sessionID).Info("user logged out")
	return nil
}

// Authenticate validates an access token and checks that its session is live
func (s *Accounts) Authenticate(ctx context.Context, accessToken string) (*auth.CustomClaims, error) {
	claims, err := s.tokens.ValidateAccessToken(accessToken)
	if err != nil {
		return nil, forbiddenErr("Invalid or expired token", err)
	}

	live, err := s.sessions.SessionExists(ctx, claims.SessionID())
	if err != nil {
		s.log.WithError(err).Error("failed to check session")
		return nil, internalErr("Failed to check session", err)
	}
	if !live {
		return nil, forbiddenErr("Session has been revoked", ErrSessionRevoked)
	}
	return claims, nil
}

func (s *Accounts) startSession(ctx context.Context, user *models.User) (*auth.TokenPair, error) {
	pair, err := s.tokens.IssuePair(user.ID, user.Username)
	if err != nil {
		s.log.WithError(err).Error("failed to generate tokens")
		return nil, internalErr("Failed to generate token", err)
	}

	session := &models.Session{
		ID:        pair.SessionID,
		UserID:    user.ID,
		Username:  user.Username,
		CreatedAt: s.now().UTC(),
		ExpiresAt: pair.RefreshExpiresAt,
	}
	if err := s.sessions.SetSession(ctx, session, s.tokens.RefreshTTL()); err != nil {
		s.log.WithError(err).Error("failed to store session")
		return nil, internalErr("Failed to create session", err)
	}
	return pair, nil
}

func validateRegistration(username, password string) error {
	if username == "" {
		return validationErr("Username is required", nil)
	}
	if utf8.RuneCountInString(username) > models.MaxNameLength {
		return validationErr("Username must not exceed 50 characters", nil)
	}
	if password == "" {
		return validationErr("Password is required", nil)
	}
	return nil
}
