package models

import "time"

// Session represents a logged-in session, keyed by the token's JTI
type Session struct {
	ID        string    `json:"id"`
	UserID    int64     `json:"user_id"`
	Username  string    `json:"username"`
	CreatedAt time.Time `json:"created_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

// LeaderboardEntry represents a pet's position on the leaderboard
type LeaderboardEntry struct {
	Rank     int64   `json:"rank"`
	Username string  `json:"username"`
	PetName  string  `json:"pet_name"`
	PetType  PetType `json:"pet_type"`
	Level    int     `json:"level"`
	XP       int     `json:"xp"`
}
