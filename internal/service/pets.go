package service

import (
	"context"
	"errors"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/pocketpet/api/internal/logging"
	"github.com/pocketpet/api/internal/models"
	"github.com/pocketpet/api/internal/petstate"
	"github.com/pocketpet/api/internal/repository"
)

const (
	defaultMaxAttempts      = 3
	defaultLeaderboardLimit = 10
	maxLeaderboardLimit     = 100
)

// InteractResult is the saved pet plus what the action triggered
type InteractResult struct {
	Pet       *models.Pet
	LeveledUp bool
}

// Standing is a pet with its leaderboard rank
type Standing struct {
	Rank int64
	Pet  *models.Pet
}

// DecayReport summarizes one decay sweep
type DecayReport struct {
	Decayed    int
	Distressed int
	Failed     int
}

// Pets owns pet adoption, interaction and decay
type Pets struct {
	users       repository.UserRepository
	pets        repository.PetRepository
	board       Leaderboard
	metrics     Metrics
	log         logrus.FieldLogger
	now         func() time.Time
	maxAttempts int
}

// NewPets creates the pet service. board and metrics may be nil.
func NewPets(users repository.UserRepository, pets repository.PetRepository, board Leaderboard, metrics Metrics, log logrus.FieldLogger) *Pets {
	if metrics == nil {
		metrics = nopMetrics{}
	}
	return &Pets{
		users:       users,
		pets:        pets,
		board:       board,
		metrics:     metrics,
		log:         logging.Component(log, "pets"),
		now:         time.Now,
		maxAttempts: defaultMaxAttempts,
	}
}

// GetPet returns the user's pet
func (s *Pets) GetPet(ctx context.Context, userID int64) (*models.Pet, error) {
	pet, err := s.pets.GetByUserID(ctx, userID)
	if err != nil {
		return nil, s.petLookupErr(err)
	}
	return pet, nil
}

// CreatePet adopts a pet for a user who does not have one yet
func (s *Pets) CreatePet(ctx context.Context, userID int64, name, petType string) (*models.Pet, error) {
	if _, err := s.pets.GetByUserID(ctx, userID); err == nil {
		return nil, conflictErr("User already has a pet", ErrPetExists)
	} else if !errors.Is(err, repository.ErrNotFound) {
		return nil, internalErr("Failed to check existing pet", err)
	}

	pet, err := petstate.NewPet(name, models.PetType(petType), s.now().UTC())
	if err != nil {
		return nil, validationErr(err.Error(), err)
	}
	pet.UserID = userID

	created, err := s.pets.Create(ctx, &pet)
	if err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, conflictErr("User already has a pet", ErrPetExists)
		}
		s.log.WithError(err).Error("failed to create pet")
		return nil, internalErr("Failed to create pet", err)
	}

	s.log.WithFields(logrus.Fields{"user_id": userID, "pet_id": created.ID, "type": created.Type}).Info("pet created")
	s.record(ctx, created)
	return created, nil
}

// Interact applies feed, play or clean to the user's pet. Concurrent writers
// are detected by the pet's version; the loser reloads and reapplies.
func (s *Pets) Interact(ctx context.Context, userID int64, actionName string) (*InteractResult, error) {
	action, err := petstate.ParseAction(actionName)
	if err != nil {
		return nil, validationErr("Invalid action. Must be feed, play, or clean", ErrUnknownAction)
	}

	for attempt := 1; attempt <= s.maxAttempts; attempt++ {
		current, err := s.pets.GetByUserID(ctx, userID)
		if err != nil {
			return nil, s.petLookupErr(err)
		}

		out, err := petstate.Apply(*current, action, petstate.DefaultRules)
		if err != nil {
			return nil, validationErr(err.Error(), ErrUnknownAction)
		}
		out.Pet.UpdatedAt = s.now().UTC()

		saved, err := s.pets.UpdateStats(ctx, &out.Pet)
		if errors.Is(err, repository.ErrVersionConflict) {
			s.metrics.ObserveConflict()
			s.log.WithFields(logrus.Fields{"user_id": userID, "attempt": attempt}).Debug("pet changed concurrently, retrying")
			continue
		}
		if err != nil {
			return nil, s.petLookupErr(err)
		}

		s.metrics.ObserveAction(string(action), out.LeveledUp)
		entry := s.log.WithFields(logrus.Fields{"user_id": userID, "action": action, "level": saved.Level, "xp": saved.XP})
		if out.LeveledUp {
			entry.Info("pet leveled up")
		} else {
			entry.Debug("pet interaction")
		}
		s.record(ctx, saved)
		return &InteractResult{Pet: saved, LeveledUp: out.LeveledUp}, nil
	}

	return nil, conflictErr("Pet was modified concurrently, please retry", ErrTooManyConflicts)
}

// DecayAll applies one decay tick to every pet
func (s *Pets) DecayAll(ctx context.Context) (DecayReport, error) {
	var report DecayReport

	ids, err := s.pets.ListUserIDs(ctx)
	if err != nil {
		return report, internalErr("Failed to list pets", err)
	}

	for _, id := range ids {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		distressed, err := s.decayOne(ctx, id)
		if err != nil {
			report.Failed++
			s.log.WithError(err).WithField("user_id", id).Warn("failed to decay pet")
			continue
		}
		report.Decayed++
		if distressed {
			report.Distressed++
		}
	}

	s.metrics.ObserveDecay(report.Decayed, report.Distressed)
	return report, nil
}

func (s *Pets) decayOne(ctx context.Context, userID int64) (bool, error) {
	for attempt := 1; attempt <= s.maxAttempts; attempt++ {
		current, err := s.pets.GetByUserID(ctx, userID)
		if err != nil {
			return false, err
		}

		out := petstate.Decay(*current)
		out.Pet.UpdatedAt = s.now().UTC()

		if _, err := s.pets.UpdateStats(ctx, &out.Pet); err != nil {
			if errors.Is(err, repository.ErrVersionConflict) {
				continue
			}
			return false, err
		}
		return out.Distress, nil
	}
	return false, ErrTooManyConflicts
}

// Leaderboard returns the top pets. limit is clamped to [1, 100].
func (s *Pets) Leaderboard(ctx context.Context, limit int64) ([]models.LeaderboardEntry, error) {
	if s.board == nil {
		return []models.LeaderboardEntry{}, nil
	}
	if limit <= 0 {
		limit = defaultLeaderboardLimit
	}
	if limit > maxLeaderboardLimit {
		limit = maxLeaderboardLimit
	}

	entries, err := s.board.TopPets(ctx, limit)
	if err != nil {
		s.log.WithError(err).Error("failed to read leaderboard")
		return nil, internalErr("Failed to fetch leaderboard", err)
	}
	return entries, nil
}

// Standing returns the caller's pet and its rank. A pet missing from the
// board, e.g. after a Redis flush, is recorded before ranking.
func (s *Pets) Standing(ctx context.Context, userID int64) (*Standing, error) {
	pet, err := s.GetPet(ctx, userID)
	if err != nil {
		return nil, err
	}
	if s.board == nil {
		return nil, notFoundErr("Leaderboard is not available", ErrNotRanked)
	}
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		s.log.WithError(err).WithField("user_id", userID).Error("failed to load user")
		return nil, internalErr("Failed to fetch rank", err)
	}

	rank, err := s.board.GetPetRank(ctx, user.Username)
	if err == nil && rank == 0 {
		if err = s.board.RecordPet(ctx, user.Username, pet); err == nil {
			rank, err = s.board.GetPetRank(ctx, user.Username)
		}
	}
	if err != nil {
		s.log.WithError(err).WithField("user_id", userID).Error("failed to read rank")
		return nil, internalErr("Failed to fetch rank", err)
	}
	if rank == 0 {
		return nil, notFoundErr("Pet is not ranked", ErrNotRanked)
	}
	return &Standing{Rank: rank, Pet: pet}, nil
}

// record updates the leaderboard. Failures are logged and otherwise ignored.
func (s *Pets) record(ctx context.Context, pet *models.Pet) {
	if s.board == nil {
		return
	}
	user, err := s.users.GetByID(ctx, pet.UserID)
	if err != nil {
		s.log.WithError(err).WithField("user_id", pet.UserID).Warn("leaderboard update skipped")
		return
	}
	if err := s.board.RecordPet(ctx, user.Username, pet); err != nil {
		s.log.WithError(err).WithField("user_id", pet.UserID).Warn("leaderboard update failed")
	}
}

func (s *Pets) petLookupErr(err error) error {
	if errors.Is(err, repository.ErrNotFound) {
		return notFoundErr("Pet not found", ErrPetNotFound)
	}
	s.log.WithError(err).Error("failed to load pet")
	return internalErr("Failed to load pet", err)
}
