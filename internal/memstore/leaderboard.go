package memstore

import (
	"context"
	"sort"
	"sync"

	"github.com/pocketpet/api/internal/models"
)

// Leaderboard ranks pets in memory by level, then xp
type Leaderboard struct {
	mu      sync.RWMutex
	entries map[string]models.LeaderboardEntry
}

// NewLeaderboard creates a Leaderboard
func NewLeaderboard() *Leaderboard {
	return &Leaderboard{entries: make(map[string]models.LeaderboardEntry)}
}

// RecordPet stores the pet's current standing under its owner's username
func (l *Leaderboard) RecordPet(ctx context.Context, username string, pet *models.Pet) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.entries[username] = models.LeaderboardEntry{
		Username: username,
		PetName:  pet.Name,
		PetType:  pet.Type,
		Level:    pet.Level,
		XP:       pet.XP,
	}
	return nil
}

// TopPets returns the best limit pets with 1-based ranks
func (l *Leaderboard) TopPets(ctx context.Context, limit int64) ([]models.LeaderboardEntry, error) {
	out := l.ranked()
	if limit > 0 && int64(len(out)) > limit {
		out = out[:limit]
	}
	for i := range out {
		out[i].Rank = int64(i + 1)
	}
	return out, nil
}

// GetPetRank returns the 1-based rank of a user's pet, or 0 if it is not ranked
func (l *Leaderboard) GetPetRank(ctx context.Context, username string) (int64, error) {
	for i, e := range l.ranked() {
		if e.Username == username {
			return int64(i + 1), nil
		}
	}
	return 0, nil
}

func (l *Leaderboard) ranked() []models.LeaderboardEntry {
	l.mu.RLock()
	out := make([]models.LeaderboardEntry, 0, len(l.entries))
	for _, e := range l.entries {
		out = append(out, e)
	}
	l.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		if out[i].Level != out[j].Level {
			return out[i].Level > out[j].Level
		}
		if out[i].XP != out[j].XP {
			return out[i].XP > out[j].XP
		}
		return out[i].Username < out[j].Username
	})
	return out
}
