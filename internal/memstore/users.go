// Package memstore keeps users, pets, sessions and the leaderboard in process
// memory. It backs STORAGE=memory and the HTTP tests.
package memstore

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/pocketpet/api/internal/models"
	"github.com/pocketpet/api/internal/repository"
)

type userRepo struct {
	mu         sync.RWMutex
	nextID     int64
	byID       map[int64]models.User
	byUsername map[string]int64
	now        func() time.Time
}

// NewUserRepo returns an in-memory repository.UserRepository
func NewUserRepo() repository.UserRepository {
	return &userRepo{
		byID:       make(map[int64]models.User),
		byUsername: make(map[string]int64),
		now:        time.Now,
	}
}

func (r *userRepo) Create(ctx context.Context, u *models.User) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	key := strings.TrimSpace(u.Username)
	if _, exists := r.byUsername[key]; exists {
		return nil, repository.ErrDuplicate
	}

	r.nextID++
	out := *u
	out.ID = r.nextID
	out.Username = key
	out.CreatedAt = r.now().UTC()

	r.byID[out.ID] = out
	r.byUsername[key] = out.ID
	return &out, nil
}

func (r *userRepo) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	id, ok := r.byUsername[username]
	if !ok {
		return nil, repository.ErrNotFound
	}
	u := r.byID[id]
	return &u, nil
}

func (r *userRepo) GetByID(ctx context.Context, id int64) (*models.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	u, ok := r.byID[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &u, nil
}
