package models

import "time"

// MaxNameLength bounds usernames and pet names, in characters; the columns are VARCHAR(50)
const MaxNameLength = 50

// User represents a user account
type User struct {
	ID           int64     `json:"id" db:"id"`
	Username     string    `json:"username" db:"username"`
	PasswordHash string    `json:"-" db:"password_hash"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
}

// Pet represents the single pet owned by a user
type Pet struct {
	ID          int64     `json:"id" db:"id"`
	UserID      int64     `json:"user_id" db:"user_id"`
	Name        string    `json:"name" db:"name"`
	Type        PetType   `json:"type" db:"type"`
	Hunger      int       `json:"hunger" db:"hunger"`
	Happiness   int       `json:"happiness" db:"happiness"`
	Cleanliness int       `json:"cleanliness" db:"cleanliness"`
	Level       int       `json:"level" db:"level"`
	XP          int       `json:"xp" db:"xp"`
	Version     int64     `json:"-" db:"version"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time `json:"updated_at" db:"updated_at"`
}

// XPThreshold is the xp value at which the pet reaches its next level
func (p Pet) XPThreshold() int {
	return p.Level * 100
}
