package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Token types carried in the token_type claim
const (
	TokenTypeAccess  = "access"
	TokenTypeRefresh = "refresh"
)

var (
	// ErrInvalidToken is returned for any token that fails verification
	ErrInvalidToken = errors.New("invalid or expired token")
	// ErrWrongTokenType is returned when a refresh token is used as an access token or vice versa
	ErrWrongTokenType = errors.New("wrong token type")
)

// CustomClaims represents the JWT claims structure
type CustomClaims struct {
	UserID    int64  `json:"user_id"`
	Username  string `json:"username"`
	TokenType string `json:"token_type"`
	jwt.RegisteredClaims
}

// SessionID returns the session the token belongs to (the JTI claim)
func (c *CustomClaims) SessionID() string {
	return c.ID
}

// TokenPair is the result of a successful login or refresh
type TokenPair struct {
	AccessToken      string
	RefreshToken     string
	SessionID        string
	AccessExpiresAt  time.Time
	RefreshExpiresAt time.Time
}

// TokenManager signs and verifies HS256 tokens
type TokenManager struct {
	secret     []byte
	issuer     string
	accessTTL  time.Duration
	refreshTTL time.Duration
	now        func() time.Time
}

// NewTokenManager creates a TokenManager
func NewTokenManager(secret, issuer string, accessTTL, refreshTTL time.Duration) *TokenManager {
	return &TokenManager{
		secret:     []byte(secret),
		issuer:     issuer,
		accessTTL:  accessTTL,
		refreshTTL: refreshTTL,
		now:        time.Now,
	}
}

// RefreshTTL is how long a session stays valid
func (m *TokenManager) RefreshTTL() time.Duration {
	return m.refreshTTL
}

// IssuePair creates an access and a refresh token sharing a fresh session id
func (m *TokenManager) IssuePair(userID int64, username string) (*TokenPair, error) {
	sessionID := uuid.NewString()
	now := m.now()

	access, accessExp, err := m.sign(userID, username, sessionID, TokenTypeAccess, now, m.accessTTL)
	if err != nil {
		return nil, fmt.Errorf("sign access token: %w", err)
	}
	refresh, refreshExp, err := m.sign(userID, username, sessionID, TokenTypeRefresh, now, m.refreshTTL)
	if err != nil {
		return nil, fmt.Errorf("sign refresh token: %w", err)
	}

	return &TokenPair{
		AccessToken:      access,
		RefreshToken:     refresh,
		SessionID:        sessionID,
		AccessExpiresAt:  accessExp,
		RefreshExpiresAt: refreshExp,
	}, nil
}

func (m *TokenManager) sign(userID int64, username, sessionID, tokenType string, now time.Time, ttl time.Duration) (string, time.Time, error) {
	exp := now.Add(ttl)
	claims := CustomClaims{
		UserID:    userID,
		Username:  username,
		TokenType: tokenType,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(exp),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			Issuer:    m.issuer,
			Subject:   username,
			ID:        sessionID,
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString(m.secret)
	if err != nil {
		return "", time.Time{}, err
	}
	return tokenString, exp, nil
}

// ValidateAccessToken validates an access token and returns its claims
func (m *TokenManager) ValidateAccessToken(tokenString string) (*CustomClaims, error) {
	return m.validate(tokenString, TokenTypeAccess)
}

// ValidateRefreshToken validates a refresh token and returns its claims
func (m *TokenManager) ValidateRefreshToken(tokenString string) (*CustomClaims, error) {
	return m.validate(tokenString, TokenTypeRefresh)
}

func (m *TokenManager) validate(tokenString, tokenType string) (*CustomClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &CustomClaims{}, func(token *jwt.Token) (interface{}, error) {
		// Validate the signing method
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return m.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(m.issuer),
		jwt.WithTimeFunc(m.now),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	claims, ok := token.Claims.(*CustomClaims)
	if !ok || !token.Valid || claims.UserID == 0 || claims.ID == "" {
		return nil, ErrInvalidToken
	}
	if claims.TokenType != tokenType {
		return nil, ErrWrongTokenType
	}
	return claims, nil
}
