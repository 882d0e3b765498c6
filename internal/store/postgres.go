package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/movienight/backend/internal/models"
)

// ErrDuplicateEmail is returned by CreateUser when the email is already taken.
var ErrDuplicateEmail = errors.New("email already registered")

// PostgresStore handles user credential CRUD against PostgreSQL.
type PostgresStore struct {
	pool *pgxpool.Pool
}

func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

// Migrate creates the users table if it doesn't exist.
func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS users (
			id         UUID PRIMARY KEY DEFAULT gen_random_uuid(),
			email      VARCHAR(255) UNIQUE NOT NULL,
			password   VARCHAR(255) NOT NULL,
			roles      TEXT[] NOT NULL DEFAULT '{user}',
			created_at TIMESTAMPTZ  DEFAULT NOW()
		)
	`)
	return err
}

// CreateUser inserts a user with the default role set. A duplicate email
// surfaces as ErrDuplicateEmail so the handler can answer 409.
func (s *PostgresStore) CreateUser(ctx context.Context, email, hashedPassword string) (*models.User, error) {
	var u models.User
	err := s.pool.QueryRow(ctx,
		`INSERT INTO users (email, password)
		 VALUES ($1, $2)
		 RETURNING id, email, roles, created_at`,
		email, hashedPassword,
	).Scan(&u.ID, &u.Email, &u.Roles, &u.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return nil, ErrDuplicateEmail
		}
		return nil, fmt.Errorf("create user: %w", err)
	}
	return &u, nil
}

// GetUserByEmail returns (nil, nil) when no user matches; sessions are keyed
// by email, so this is the lookup everything downstream of a token goes through.
func (s *PostgresStore) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	var u models.User
	err := s.pool.QueryRow(ctx,
		`SELECT id, email, password, roles, created_at FROM users WHERE email = $1`, email,
	).Scan(&u.ID, &u.Email, &u.Password, &u.Roles, &u.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// UpdatePassword overwrites the stored hash for the user with this email.
// Returns false when no row matched.
func (s *PostgresStore) UpdatePassword(ctx context.Context, email, hashedPassword string) (bool, error) {
	tag, err := s.pool.Exec(ctx,
		`UPDATE users SET password = $2 WHERE email = $1`, email, hashedPassword)
	if err != nil {
		return false, fmt.Errorf("update password: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

// GrantRole appends a role to the user's role set unless already present.
// Returns false when the user doesn't exist or already has the role.
func (s *PostgresStore) GrantRole(ctx context.Context, email, role string) (bool, error) {
	tag, err := s.pool.Exec(ctx,
		`UPDATE users SET roles = array_append(roles, $2)
		 WHERE email = $1 AND NOT ($2 = ANY(roles))`, email, role)
	if err != nil {
		return false, fmt.Errorf("grant role: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}
