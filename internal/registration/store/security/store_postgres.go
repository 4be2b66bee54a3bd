package security

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"enroll/pkg/sentinel"
)

// PostgresStore persists security records in PostgreSQL. Each method is a
// single statement on the shared pool; there is deliberately no transaction
// spanning them, consistency across the three writes is the pipeline's job.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgres constructs a PostgreSQL-backed security store.
func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) InsertPassword(ctx context.Context, userID int64, passwordHash, salt string) (int64, error) {
	const query = `
		INSERT INTO user_security_password (user_id, password_hash, salt)
		VALUES ($1, $2, $3)
		RETURNING id
	`

	var id int64
	err := s.db.QueryRowContext(ctx, query, userID, passwordHash, salt).Scan(&id)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23505" {
			return 0, fmt.Errorf("insert password for user %d: %w", userID, sentinel.ErrConflict)
		}
		return 0, fmt.Errorf("insert password for user %d: %w", userID, err)
	}
	return id, nil
}

func (s *PostgresStore) InsertHistory(ctx context.Context, userID int64, actionType string, ipAddress, deviceInfo *string) (int64, error) {
	const query = `
		INSERT INTO user_security_history (user_id, action_type, ip_address, device_info)
		VALUES ($1, $2, $3, $4)
		RETURNING id
	`

	var id int64
	err := s.db.QueryRowContext(ctx, query, userID, actionType, ipAddress, deviceInfo).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("insert security history for user %d: %w", userID, err)
	}
	return id, nil
}

// UpsertCounter resolves concurrent writers inside the database rather than
// with a read-modify-write cycle.
func (s *PostgresStore) UpsertCounter(ctx context.Context, counterType string) (int64, error) {
	const query = `
		INSERT INTO system_security_counter (counter_type, counter_value)
		VALUES ($1, 1)
		ON CONFLICT (counter_type)
		DO UPDATE SET
			counter_value = system_security_counter.counter_value + 1,
			updated_at = CURRENT_TIMESTAMP
		RETURNING counter_value
	`

	var value int64
	err := s.db.QueryRowContext(ctx, query, counterType).Scan(&value)
	if err != nil {
		return 0, fmt.Errorf("upsert counter %q: %w", counterType, err)
	}
	return value, nil
}
