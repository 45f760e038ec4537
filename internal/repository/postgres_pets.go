package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/pocketpet/api/internal/models"
)

const petColumns = `id, user_id, name, type, hunger, happiness, cleanliness, level, xp, version, created_at, updated_at`

// PetStore is the PostgreSQL PetRepository
type PetStore struct {
	db *sqlx.DB
}

// NewPetStore creates a PetStore
func NewPetStore(db *sqlx.DB) *PetStore {
	return &PetStore{db: db}
}

// Create inserts the pet. The UNIQUE constraint on user_id rejects a second pet.
func (r *PetStore) Create(ctx context.Context, p *models.Pet) (*models.Pet, error) {
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	query := `
		INSERT INTO pets (user_id, name, type, hunger, happiness, cleanliness, level, xp, version, created_at, updated_at)
		VALUES (:user_id, :name, :type, :hunger, :happiness, :cleanliness, :level, :xp, :version, :created_at, :updated_at)
		RETURNING ` + petColumns

	rows, err := r.db.NamedQueryContext(ctx, query, p)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, ErrDuplicate
		}
		return nil, err
	}
	defer rows.Close()

	if !rows.Next() {
		if err := rows.Err(); err != nil {
			if isUniqueViolation(err) {
				return nil, ErrDuplicate
			}
			return nil, err
		}
		return nil, sql.ErrNoRows
	}
	var out models.Pet
	if err := rows.StructScan(&out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (r *PetStore) GetByUserID(ctx context.Context, userID int64) (*models.Pet, error) {
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	var p models.Pet
	err := r.db.GetContext(ctx, &p, `SELECT `+petColumns+` FROM pets WHERE user_id = $1`, userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &p, nil
}

// UpdateStats is a compare-and-swap on the version column.
func (r *PetStore) UpdateStats(ctx context.Context, p *models.Pet) (*models.Pet, error) {
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	query := `
		UPDATE pets
		SET hunger = $3, happiness = $4, cleanliness = $5, level = $6, xp = $7,
			version = version + 1, updated_at = $8
		WHERE user_id = $1 AND version = $2
		RETURNING ` + petColumns

	var out models.Pet
	err := r.db.GetContext(ctx, &out, query,
		p.UserID, p.Version,
		p.Hunger, p.Happiness, p.Cleanliness, p.Level, p.XP,
		p.UpdatedAt,
	)
	if err == nil {
		return &out, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}

	// Nothing matched: either the pet is gone or someone else won the race.
	var exists bool
	if err := r.db.GetContext(ctx, &exists, `SELECT EXISTS (SELECT 1 FROM pets WHERE user_id = $1)`, p.UserID); err != nil {
		return nil, err
	}
	if !exists {
		return nil, ErrNotFound
	}
	return nil, ErrVersionConflict
}

func (r *PetStore) ListUserIDs(ctx context.Context) ([]int64, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	var ids []int64
	if err := r.db.SelectContext(ctx, &ids, `SELECT user_id FROM pets ORDER BY user_id`); err != nil {
		return nil, err
	}
	return ids, nil
}
