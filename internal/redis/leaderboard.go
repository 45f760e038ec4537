package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/pocketpet/api/internal/models"
)

const (
	leaderboardPetsKey = "leaderboard:pets"
	leaderboardInfoKey = "leaderboard:pets:info"

	// levelWeight keeps level dominant over xp; xp never reaches a level's threshold
	levelWeight = 1_000_000
)

type petInfo struct {
	Name string         `json:"name"`
	Type models.PetType `json:"type"`
}

// PetScore packs level and xp into one sorted set score
func PetScore(level, xp int) float64 {
	return float64(level*levelWeight + xp)
}

// SplitScore reverses PetScore
func SplitScore(score float64) (level, xp int) {
	s := int(score)
	return s / levelWeight, s % levelWeight
}

// RecordPet stores the pet's standing under its owner's username
func (c *Client) RecordPet(ctx context.Context, username string, pet *models.Pet) error {
	info, err := json.Marshal(petInfo{Name: pet.Name, Type: pet.Type})
	if err != nil {
		return fmt.Errorf("failed to marshal pet info: %w", err)
	}

	pipe := c.TxPipeline()
	pipe.ZAdd(ctx, leaderboardPetsKey, redis.Z{
		Score:  PetScore(pet.Level, pet.XP),
		Member: username,
	})
	pipe.HSet(ctx, leaderboardInfoKey, username, info)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to record pet: %w", err)
	}
	return nil
}

// TopPets returns the top N pets, highest level and xp first
func (c *Client) TopPets(ctx context.Context, limit int64) ([]models.LeaderboardEntry, error) {
	players, err := c.ZRevRangeWithScores(ctx, leaderboardPetsKey, 0, limit-1).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to get top pets: %w", err)
	}
	if len(players) == 0 {
		return []models.LeaderboardEntry{}, nil
	}

	names := make([]string, len(players))
	for i, z := range players {
		names[i], _ = z.Member.(string)
	}
	infos, err := c.HMGet(ctx, leaderboardInfoKey, names...).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to get pet info: %w", err)
	}

	entries := make([]models.LeaderboardEntry, 0, len(players))
	for i, z := range players {
		level, xp := SplitScore(z.Score)
		entry := models.LeaderboardEntry{
			Rank:     int64(i + 1),
			Username: names[i],
			Level:    level,
			XP:       xp,
		}
		if raw, ok := infos[i].(string); ok {
			var info petInfo
			if json.Unmarshal([]byte(raw), &info) == nil {
				entry.PetName = info.Name
				entry.PetType = info.Type
			}
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

// GetPetRank returns the 1-based rank of a user's pet, or 0 if it is not ranked
func (c *Client) GetPetRank(ctx context.Context, username string) (int64, error) {
	rank, err := c.ZRevRank(ctx, leaderboardPetsKey, username).Result()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("failed to get pet rank: %w", err)
	}
	return rank + 1, nil
}
