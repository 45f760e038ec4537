package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/pocketpet/api/internal/models"
)

const uniqueViolation = "23505"

// UserStore is the PostgreSQL UserRepository
type UserStore struct {
	db *sqlx.DB
}

// NewUserStore creates a UserStore
func NewUserStore(db *sqlx.DB) *UserStore {
	return &UserStore{db: db}
}

// Create inserts a user and returns it with its generated ID and timestamp.
func (r *UserStore) Create(ctx context.Context, u *models.User) (*models.User, error) {
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	out := *u
	query := `
		INSERT INTO users (username, password_hash)
		VALUES ($1, $2)
		RETURNING id, created_at
	`
	err := r.db.QueryRowxContext(ctx, query, u.Username, u.PasswordHash).Scan(&out.ID, &out.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, ErrDuplicate
		}
		return nil, err
	}
	return &out, nil
}

func (r *UserStore) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	return r.getOne(ctx, `SELECT id, username, password_hash, created_at FROM users WHERE username = $1`, username)
}

func (r *UserStore) GetByID(ctx context.Context, id int64) (*models.User, error) {
	return r.getOne(ctx, `SELECT id, username, password_hash, created_at FROM users WHERE id = $1`, id)
}

func (r *UserStore) getOne(ctx context.Context, query string, arg any) (*models.User, error) {
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	var u models.User
	if err := r.db.GetContext(ctx, &u, query, arg); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &u, nil
}

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == uniqueViolation
}
