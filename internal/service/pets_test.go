package service

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pocketpet/api/internal/logging"
	"github.com/pocketpet/api/internal/models"
	"github.com/pocketpet/api/internal/petstate"
)

func TestCreatePet(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	u := f.registerUser(t, "alice")

	pet, err := f.petSvc.CreatePet(ctx, u.ID, "Rex", "dog")
	require.NoError(t, err)
	assert.Equal(t, u.ID, pet.UserID)
	assert.Equal(t, "Rex", pet.Name)
	assert.Equal(t, models.PetTypeDog, pet.Type)
	assert.Equal(t, 50, pet.Hunger)
	assert.Equal(t, 50, pet.Happiness)
	assert.Equal(t, 50, pet.Cleanliness)
	assert.Equal(t, 1, pet.Level)
	assert.Equal(t, 0, pet.XP)

	top, err := f.board.TopPets(ctx, 10)
	require.NoError(t, err)
	require.Len(t, top, 1)
	assert.Equal(t, "alice", top[0].Username)
}

func TestCreatePet_AlreadyHasPet(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	u := f.registerUser(t, "alice")

	_, err := f.petSvc.CreatePet(ctx, u.ID, "Rex", "dog")
	require.NoError(t, err)

	_, err = f.petSvc.CreatePet(ctx, u.ID, "Tom", "cat")
	assert.Equal(t, KindConflict, KindOf(err))
	assert.ErrorIs(t, err, ErrPetExists)

	pet, err := f.petSvc.GetPet(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, "Rex", pet.Name)
}

func TestCreatePet_Validation(t *testing.T) {
	f := newFixture(t)
	u := f.registerUser(t, "alice")

	_, err := f.petSvc.CreatePet(context.Background(), u.ID, "   ", "dog")
	assert.Equal(t, KindValidation, KindOf(err))

	_, err = f.petSvc.CreatePet(context.Background(), u.ID, "Rex", "hamster")
	assert.Equal(t, KindValidation, KindOf(err))

	_, err = f.petSvc.GetPet(context.Background(), u.ID)
	assert.Equal(t, KindNotFound, KindOf(err))
}

func TestGetPet_NotFound(t *testing.T) {
	f := newFixture(t)
	_, err := f.petSvc.GetPet(context.Background(), 99)
	assert.Equal(t, KindNotFound, KindOf(err))
	assert.ErrorIs(t, err, ErrPetNotFound)
}

func TestInteract_Feed(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	u := f.registerUser(t, "alice")
	_, err := f.petSvc.CreatePet(ctx, u.ID, "Rex", "dog")
	require.NoError(t, err)

	res, err := f.petSvc.Interact(ctx, u.ID, "feed")
	require.NoError(t, err)
	assert.False(t, res.LeveledUp)
	assert.Equal(t, 65, res.Pet.Hunger)
	assert.Equal(t, 55, res.Pet.Happiness)
	assert.Equal(t, 50, res.Pet.Cleanliness)
	assert.Equal(t, 5, res.Pet.XP)
	assert.Equal(t, 1, res.Pet.Level)
	assert.Equal(t, 1, f.metrics.actions["feed"])

	stored, err := f.petSvc.GetPet(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, res.Pet.Hunger, stored.Hunger)
}

func TestInteract_UnknownActionLeavesPetUnchanged(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	u := f.registerUser(t, "alice")
	before, err := f.petSvc.CreatePet(ctx, u.ID, "Rex", "dog")
	require.NoError(t, err)

	for _, action := range []string{"dance", "decay", ""} {
		_, err = f.petSvc.Interact(ctx, u.ID, action)
		assert.Equal(t, KindValidation, KindOf(err), action)
		assert.ErrorIs(t, err, ErrUnknownAction)
	}

	after, err := f.petSvc.GetPet(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, before.Hunger, after.Hunger)
	assert.Equal(t, before.Version, after.Version)
}

func TestInteract_NoPet(t *testing.T) {
	f := newFixture(t)
	u := f.registerUser(t, "alice")
	_, err := f.petSvc.Interact(context.Background(), u.ID, "feed")
	assert.Equal(t, KindNotFound, KindOf(err))
}

func TestInteract_LevelsUp(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	u := f.registerUser(t, "alice")
	_, err := f.petSvc.CreatePet(ctx, u.ID, "Rex", "dog")
	require.NoError(t, err)

	var last *InteractResult
	for i := 0; i < 20; i++ {
		last, err = f.petSvc.Interact(ctx, u.ID, "clean")
		require.NoError(t, err)
	}
	assert.True(t, last.LeveledUp)
	assert.Equal(t, 2, last.Pet.Level)
	assert.Equal(t, 0, last.Pet.XP)
	assert.Equal(t, 1, f.metrics.levelUps)

	top, err := f.petSvc.Leaderboard(ctx, 0)
	require.NoError(t, err)
	require.Len(t, top, 1)
	assert.Equal(t, 2, top[0].Level)
}

func TestInteract_ConcurrentFeedsDoNotLoseUpdates(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	u := f.registerUser(t, "alice")
	_, err := f.petSvc.CreatePet(ctx, u.ID, "Rex", "dog")
	require.NoError(t, err)

	const n = 10
	// each loss is caused by another writer's success, so n attempts always suffice
	f.petSvc.maxAttempts = n

	var wg sync.WaitGroup
	errs := make(chan error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.petSvc.Interact(ctx, u.ID, "feed")
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}

	pet, err := f.petSvc.GetPet(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, 5*n, pet.XP)
	assert.Equal(t, 100, pet.Hunger)
	assert.Equal(t, int64(n+1), pet.Version)
}

func TestInteract_GivesUpAfterMaxAttempts(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	u := f.registerUser(t, "alice")
	_, err := f.petSvc.CreatePet(ctx, u.ID, "Rex", "dog")
	require.NoError(t, err)

	pets := &conflictingPets{PetRepository: f.pets}
	svc := NewPets(f.users, pets, nil, f.metrics, logging.Discard())

	_, err = svc.Interact(ctx, u.ID, "play")
	assert.Equal(t, KindConflict, KindOf(err))
	assert.ErrorIs(t, err, ErrTooManyConflicts)
	assert.Equal(t, defaultMaxAttempts, pets.calls)
	assert.Equal(t, defaultMaxAttempts, f.metrics.conflicts)
}

func TestInteract_LeaderboardFailureIsIgnored(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	u := f.registerUser(t, "alice")
	svc := NewPets(f.users, f.pets, brokenBoard{}, nil, logging.Discard())

	_, err := svc.CreatePet(ctx, u.ID, "Rex", "dog")
	require.NoError(t, err)
	res, err := svc.Interact(ctx, u.ID, "feed")
	require.NoError(t, err)
	assert.Equal(t, 65, res.Pet.Hunger)

	_, err = svc.Leaderboard(ctx, 5)
	assert.Equal(t, KindInternal, KindOf(err))
}

func TestDecayAll(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	alice := f.registerUser(t, "alice")
	bob := f.registerUser(t, "bob")

	_, err := f.petSvc.CreatePet(ctx, alice.ID, "Rex", "dog")
	require.NoError(t, err)
	starving, err := f.petSvc.CreatePet(ctx, bob.ID, "Tom", "cat")
	require.NoError(t, err)

	starving.Hunger = 3
	_, err = f.pets.UpdateStats(ctx, starving)
	require.NoError(t, err)

	report, err := f.petSvc.DecayAll(ctx)
	require.NoError(t, err)
	assert.Equal(t, DecayReport{Decayed: 2, Distressed: 1}, report)
	assert.Equal(t, 2, f.metrics.decayed)

	rex, err := f.petSvc.GetPet(ctx, alice.ID)
	require.NoError(t, err)
	assert.Equal(t, 45, rex.Hunger)
	assert.Equal(t, 47, rex.Happiness)
	assert.Equal(t, 48, rex.Cleanliness)
	assert.Equal(t, 0, rex.XP)

	tom, err := f.petSvc.GetPet(ctx, bob.ID)
	require.NoError(t, err)
	assert.Equal(t, petstate.MinStat, tom.Hunger)
}

func TestLeaderboard_WithoutBoard(t *testing.T) {
	f := newFixture(t)
	svc := NewPets(f.users, f.pets, nil, nil, logging.Discard())
	top, err := svc.Leaderboard(context.Background(), 10)
	require.NoError(t, err)
	assert.Empty(t, top)
}

func TestStanding(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	alice := f.registerUser(t, "alice")
	bob := f.registerUser(t, "bob")

	_, err := f.petSvc.CreatePet(ctx, alice.ID, "Rex", "dog")
	require.NoError(t, err)
	_, err = f.petSvc.CreatePet(ctx, bob.ID, "Tom", "cat")
	require.NoError(t, err)
	_, err = f.petSvc.Interact(ctx, bob.ID, "feed")
	require.NoError(t, err)

	st, err := f.petSvc.Standing(ctx, bob.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), st.Rank)
	assert.Equal(t, "Tom", st.Pet.Name)

	st, err = f.petSvc.Standing(ctx, alice.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(2), st.Rank)
}

func TestStanding_RecordsMissingPet(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	u := f.registerUser(t, "alice")
	// created without a board, so the pet is absent from f.board
	_, err := NewPets(f.users, f.pets, nil, nil, logging.Discard()).CreatePet(ctx, u.ID, "Rex", "dog")
	require.NoError(t, err)

	st, err := f.petSvc.Standing(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), st.Rank)
}

func TestStanding_Errors(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	u := f.registerUser(t, "alice")

	_, err := f.petSvc.Standing(ctx, u.ID)
	assert.Equal(t, KindNotFound, KindOf(err))
	assert.ErrorIs(t, err, ErrPetNotFound)

	_, err = f.petSvc.CreatePet(ctx, u.ID, "Rex", "dog")
	require.NoError(t, err)

	_, err = NewPets(f.users, f.pets, nil, nil, logging.Discard()).Standing(ctx, u.ID)
	assert.ErrorIs(t, err, ErrNotRanked)

	_, err = NewPets(f.users, f.pets, brokenBoard{}, nil, logging.Discard()).Standing(ctx, u.ID)
	assert.Equal(t, KindInternal, KindOf(err))
}
