package service

import (
	"context"
	"time"

	"github.com/pocketpet/api/internal/models"
)

// SessionStore records live sessions so tokens can be revoked before expiry
type SessionStore interface {
	SetSession(ctx context.Context, session *models.Session, ttl time.Duration) error
	SessionExists(ctx context.Context, id string) (bool, error)
	DeleteSession(ctx context.Context, id string) error
}

// Leaderboard ranks pets by level and xp
type Leaderboard interface {
	RecordPet(ctx context.Context, username string, pet *models.Pet) error
	TopPets(ctx context.Context, limit int64) ([]models.LeaderboardEntry, error)
	// GetPetRank returns 0 when the user's pet is not on the board
	GetPetRank(ctx context.Context, username string) (int64, error)
}

// Metrics receives pet activity counters
type Metrics interface {
	ObserveAction(action string, leveledUp bool)
	ObserveConflict()
	ObserveDecay(decayed, distressed int)
}

type nopMetrics struct{}

func (nopMetrics) ObserveAction(string, bool) {}
func (nopMetrics) ObserveConflict()           {}
func (nopMetrics) ObserveDecay(int, int)      {}
