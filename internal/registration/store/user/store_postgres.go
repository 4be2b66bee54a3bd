package user

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"enroll/internal/registration/models"
	"enroll/pkg/sentinel"
)

// PostgresStore persists users in PostgreSQL.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgres constructs a PostgreSQL-backed user store.
func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

// Insert creates a user row and returns it with the generated id and
// timestamps.
func (s *PostgresStore) Insert(ctx context.Context, name, email string) (models.User, error) {
	const query = `
		INSERT INTO users (name, email)
		VALUES ($1, $2)
		RETURNING id, name, email, created_at, updated_at, deleted_at
	`

	var u models.User
	err := s.db.QueryRowContext(ctx, query, name, email).Scan(
		&u.ID, &u.Name, &u.Email, &u.CreatedAt, &u.UpdatedAt, &u.DeletedAt,
	)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23505" {
			return models.User{}, fmt.Errorf("insert user %q: %w", email, sentinel.ErrConflict)
		}
		return models.User{}, fmt.Errorf("insert user: %w", err)
	}
	return u, nil
}

// FindByID loads a user row by id.
func (s *PostgresStore) FindByID(ctx context.Context, id int64) (models.User, error) {
	const query = `
		SELECT id, name, email, created_at, updated_at, deleted_at
		FROM users
		WHERE id = $1
	`

	var u models.User
	err := s.db.QueryRowContext(ctx, query, id).Scan(
		&u.ID, &u.Name, &u.Email, &u.CreatedAt, &u.UpdatedAt, &u.DeletedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return models.User{}, sentinel.ErrNotFound
	}
	if err != nil {
		return models.User{}, fmt.Errorf("find user %d: %w", id, err)
	}
	return u, nil
}
