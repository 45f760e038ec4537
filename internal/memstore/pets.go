package memstore

import (
	"context"
	"sort"
	"sync"

	"github.com/pocketpet/api/internal/models"
	"github.com/pocketpet/api/internal/repository"
)

type petRepo struct {
	mu       sync.RWMutex
	nextID   int64
	byUserID map[int64]models.Pet
}

// NewPetRepo returns an in-memory repository.PetRepository
func NewPetRepo() repository.PetRepository {
	return &petRepo{
		byUserID: make(map[int64]models.Pet),
	}
}

func (r *petRepo) Create(ctx context.Context, p *models.Pet) (*models.Pet, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.byUserID[p.UserID]; exists {
		return nil, repository.ErrDuplicate
	}

	r.nextID++
	out := *p
	out.ID = r.nextID
	if out.Version == 0 {
		out.Version = 1
	}
	r.byUserID[out.UserID] = out
	return &out, nil
}

func (r *petRepo) GetByUserID(ctx context.Context, userID int64) (*models.Pet, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	p, ok := r.byUserID[userID]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &p, nil
}

func (r *petRepo) UpdateStats(ctx context.Context, p *models.Pet) (*models.Pet, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	cur, ok := r.byUserID[p.UserID]
	if !ok {
		return nil, repository.ErrNotFound
	}
	if cur.Version != p.Version {
		return nil, repository.ErrVersionConflict
	}

	cur.Hunger = p.Hunger
	cur.Happiness = p.Happiness
	cur.Cleanliness = p.Cleanliness
	cur.Level = p.Level
	cur.XP = p.XP
	cur.UpdatedAt = p.UpdatedAt
	cur.Version++

	r.byUserID[cur.UserID] = cur
	return &cur, nil
}

func (r *petRepo) ListUserIDs(ctx context.Context) ([]int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ids := make([]int64, 0, len(r.byUserID))
	for id := range r.byUserID {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids, nil
}
