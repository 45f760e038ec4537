package memstore

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pocketpet/api/internal/models"
	"github.com/pocketpet/api/internal/repository"
)

func TestUserRepo(t *testing.T) {
	ctx := context.Background()
	repo := NewUserRepo()

	u, err := repo.Create(ctx, &models.User{Username: "alice", PasswordHash: "h"})
	require.NoError(t, err)
	assert.Equal(t, int64(1), u.ID)
	assert.False(t, u.CreatedAt.IsZero())

	_, err = repo.Create(ctx, &models.User{Username: "alice", PasswordHash: "x"})
	assert.ErrorIs(t, err, repository.ErrDuplicate)

	got, err := repo.GetByUsername(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, u.ID, got.ID)

	got, err = repo.GetByID(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, "alice", got.Username)

	_, err = repo.GetByUsername(ctx, "bob")
	assert.ErrorIs(t, err, repository.ErrNotFound)
	_, err = repo.GetByID(ctx, 42)
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestPetRepo_CreateAndGet(t *testing.T) {
	ctx := context.Background()
	repo := NewPetRepo()

	p, err := repo.Create(ctx, &models.Pet{UserID: 7, Name: "Rex", Type: models.PetTypeDog, Level: 1})
	require.NoError(t, err)
	assert.Equal(t, int64(1), p.Version)

	_, err = repo.Create(ctx, &models.Pet{UserID: 7, Name: "Rex2"})
	assert.ErrorIs(t, err, repository.ErrDuplicate)

	got, err := repo.GetByUserID(ctx, 7)
	require.NoError(t, err)
	assert.Equal(t, "Rex", got.Name)

	_, err = repo.GetByUserID(ctx, 8)
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestPetRepo_UpdateStatsChecksVersion(t *testing.T) {
	ctx := context.Background()
	repo := NewPetRepo()

	p, err := repo.Create(ctx, &models.Pet{UserID: 1, Name: "Rex", Hunger: 50, Level: 1})
	require.NoError(t, err)

	stale := *p
	p.Hunger = 65
	updated, err := repo.UpdateStats(ctx, p)
	require.NoError(t, err)
	assert.Equal(t, 65, updated.Hunger)
	assert.Equal(t, int64(2), updated.Version)

	stale.Hunger = 10
	_, err = repo.UpdateStats(ctx, &stale)
	assert.ErrorIs(t, err, repository.ErrVersionConflict)

	_, err = repo.UpdateStats(ctx, &models.Pet{UserID: 99, Version: 1})
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestPetRepo_ConcurrentUpdatesOnlyOneWinsPerVersion(t *testing.T) {
	ctx := context.Background()
	repo := NewPetRepo()
	p, err := repo.Create(ctx, &models.Pet{UserID: 1, Name: "Rex", Level: 1})
	require.NoError(t, err)

	const n = 20
	var wg sync.WaitGroup
	var mu sync.Mutex
	wins := 0
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			c := *p
			c.XP = 5
			if _, err := repo.UpdateStats(ctx, &c); err == nil {
				mu.Lock()
				wins++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, 1, wins)
}

func TestPetRepo_ListUserIDs(t *testing.T) {
	ctx := context.Background()
	repo := NewPetRepo()
	for _, id := range []int64{3, 1, 2} {
		_, err := repo.Create(ctx, &models.Pet{UserID: id})
		require.NoError(t, err)
	}

	ids, err := repo.ListUserIDs(ctx)
	require.NoError(t, err)
	assert.Equal(t, []int64{1, 2, 3}, ids)
}

func TestSessionStore(t *testing.T) {
	ctx := context.Background()
	s := NewSessionStore()
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return now }

	require.NoError(t, s.SetSession(ctx, &models.Session{ID: "a", UserID: 1}, time.Hour))

	ok, err := s.SessionExists(ctx, "a")
	require.NoError(t, err)
	assert.True(t, ok)

	now = now.Add(2 * time.Hour)
	ok, err = s.SessionExists(ctx, "a")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, s.SetSession(ctx, &models.Session{ID: "b", UserID: 1}, time.Hour))
	require.NoError(t, s.DeleteSession(ctx, "b"))
	ok, _ = s.SessionExists(ctx, "b")
	assert.False(t, ok)

	assert.NoError(t, s.DeleteSession(ctx, "missing"))
}

func TestLeaderboard_TopPets(t *testing.T) {
	ctx := context.Background()
	lb := NewLeaderboard()

	require.NoError(t, lb.RecordPet(ctx, "carol", &models.Pet{Name: "C", Level: 1, XP: 50}))
	require.NoError(t, lb.RecordPet(ctx, "alice", &models.Pet{Name: "A", Level: 2, XP: 0}))
	require.NoError(t, lb.RecordPet(ctx, "bob", &models.Pet{Name: "B", Level: 1, XP: 50}))
	require.NoError(t, lb.RecordPet(ctx, "dave", &models.Pet{Name: "D", Level: 1, XP: 5}))

	top, err := lb.TopPets(ctx, 3)
	require.NoError(t, err)
	require.Len(t, top, 3)
	assert.Equal(t, "alice", top[0].Username)
	assert.Equal(t, "bob", top[1].Username)
	assert.Equal(t, "carol", top[2].Username)
	assert.Equal(t, int64(3), top[2].Rank)

	// re-recording replaces the entry
	require.NoError(t, lb.RecordPet(ctx, "dave", &models.Pet{Name: "D", Level: 5}))
	top, err = lb.TopPets(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, "dave", top[0].Username)
	assert.Equal(t, 5, top[0].Level)
}

func TestLeaderboard_GetPetRank(t *testing.T) {
	ctx := context.Background()
	lb := NewLeaderboard()

	require.NoError(t, lb.RecordPet(ctx, "alice", &models.Pet{Level: 1, XP: 10}))
	require.NoError(t, lb.RecordPet(ctx, "bob", &models.Pet{Level: 2}))

	rank, err := lb.GetPetRank(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, int64(2), rank)

	rank, err = lb.GetPetRank(ctx, "nobody")
	require.NoError(t, err)
	assert.Zero(t, rank)
}
