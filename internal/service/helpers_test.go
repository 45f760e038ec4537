package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/pocketpet/api/internal/auth"
	"github.com/pocketpet/api/internal/logging"
	"github.com/pocketpet/api/internal/memstore"
	"github.com/pocketpet/api/internal/models"
	"github.com/pocketpet/api/internal/repository"
)

type fixture struct {
	users    repository.UserRepository
	pets     repository.PetRepository
	sessions *memstore.SessionStore
	board    *memstore.Leaderboard
	metrics  *countingMetrics
	accounts *Accounts
	petSvc   *Pets
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		users:    memstore.NewUserRepo(),
		pets:     memstore.NewPetRepo(),
		sessions: memstore.NewSessionStore(),
		board:    memstore.NewLeaderboard(),
		metrics:  &countingMetrics{actions: map[string]int{}},
	}
	log := logging.Discard()
	tokens := auth.NewTokenManager("test-secret", "virtualpet-api", time.Hour, 24*time.Hour)
	f.accounts = NewAccounts(f.users, auth.NewHasher(bcrypt.MinCost), tokens, f.sessions, log)
	f.petSvc = NewPets(f.users, f.pets, f.board, f.metrics, log)
	return f
}

func (f *fixture) registerUser(t *testing.T, name string) *models.User {
	t.Helper()
	u, err := f.accounts.Register(context.Background(), name, "secret1")
	if err != nil {
		t.Fatalf("register %s: %v", name, err)
	}
	return u
}

type countingMetrics struct {
	mu        sync.Mutex
	actions   map[string]int
	levelUps  int
	conflicts int
	decayed   int
}

func (m *countingMetrics) ObserveAction(action string, leveledUp bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.actions[action]++
	if leveledUp {
		m.levelUps++
	}
}

func (m *countingMetrics) ObserveConflict() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.conflicts++
}

func (m *countingMetrics) ObserveDecay(decayed, _ int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.decayed += decayed
}

// conflictingPets fails every UpdateStats with a version conflict
type conflictingPets struct {
	repository.PetRepository
	calls int
}

func (c *conflictingPets) UpdateStats(ctx context.Context, p *models.Pet) (*models.Pet, error) {
	c.calls++
	return nil, repository.ErrVersionConflict
}

type brokenBoard struct{}

func (brokenBoard) RecordPet(context.Context, string, *models.Pet) error {
	return errors.New("redis down")
}

func (brokenBoard) TopPets(context.Context, int64) ([]models.LeaderboardEntry, error) {
	return nil, errors.New("redis down")
}

func (brokenBoard) GetPetRank(context.Context, string) (int64, error) {
	return 0, errors.New("redis down")
}
