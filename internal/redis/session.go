package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/pocketpet/api/internal/models"
)

const activeUsersKey = "active_users"

func sessionKey(id string) string {
	return fmt.Sprintf("session:%s", id)
}

// SetSession stores a session in Redis with TTL and marks the user active
func (c *Client) SetSession(ctx context.Context, session *models.Session, ttl time.Duration) error {
	sessionJSON, err := json.Marshal(session)
	if err != nil {
		return fmt.Errorf("failed to marshal session data: %w", err)
	}

	pipe := c.TxPipeline()
	pipe.Set(ctx, sessionKey(session.ID), sessionJSON, ttl)
	pipe.SAdd(ctx, activeUsersKey, session.UserID)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to set session: %w", err)
	}
	return nil
}

// GetSession retrieves a session from Redis
func (c *Client) GetSession(ctx context.Context, id string) (*models.Session, error) {
	sessionJSON, err := c.Get(ctx, sessionKey(id)).Result()
	if err != nil {
		return nil, fmt.Errorf("session not found: %w", err)
	}

	var session models.Session
	if err := json.Unmarshal([]byte(sessionJSON), &session); err != nil {
		return nil, fmt.Errorf("failed to unmarshal session data: %w", err)
	}
	return &session, nil
}

// SessionExists reports whether the session is still stored
func (c *Client) SessionExists(ctx context.Context, id string) (bool, error) {
	n, err := c.Exists(ctx, sessionKey(id)).Result()
	if err != nil {
		return false, fmt.Errorf("failed to check session existence: %w", err)
	}
	return n > 0, nil
}

// DeleteSession removes a session (for logout and refresh rotation)
func (c *Client) DeleteSession(ctx context.Context, id string) error {
	session, err := c.GetSession(ctx, id)
	if err == nil {
		c.SRem(ctx, activeUsersKey, session.UserID)
	} else if !errors.Is(err, redis.Nil) {
		return err
	}

	if err := c.Del(ctx, sessionKey(id)).Err(); err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	return nil
}

// GetActiveUsersCount returns the number of users with a recorded session
func (c *Client) GetActiveUsersCount(ctx context.Context) (int64, error) {
	count, err := c.SCard(ctx, activeUsersKey).Result()
	if err != nil {
		return 0, fmt.Errorf("failed to get active users count: %w", err)
	}
	return count, nil
}
