package repository

import (
	"context"
	"errors"

	"github.com/pocketpet/api/internal/models"
)

var (
	// ErrNotFound is returned when a record does not exist
	ErrNotFound = errors.New("not found")
	// ErrDuplicate is returned when a unique constraint is violated
	ErrDuplicate = errors.New("duplicate")
	// ErrVersionConflict is returned when a pet changed since it was read
	ErrVersionConflict = errors.New("version conflict")
)

// UserRepository defines operations on User entities.
type UserRepository interface {
	Create(ctx context.Context, u *models.User) (*models.User, error)
	GetByUsername(ctx context.Context, username string) (*models.User, error)
	GetByID(ctx context.Context, id int64) (*models.User, error)
}

// PetRepository defines operations on Pet entities. A user owns at most one pet.
type PetRepository interface {
	Create(ctx context.Context, p *models.Pet) (*models.Pet, error)
	GetByUserID(ctx context.Context, userID int64) (*models.Pet, error)
	// UpdateStats persists the mutable stats if the stored version still equals
	// p.Version, and returns the pet with its new version.
	UpdateStats(ctx context.Context, p *models.Pet) (*models.Pet, error)
	ListUserIDs(ctx context.Context) ([]int64, error)
}
