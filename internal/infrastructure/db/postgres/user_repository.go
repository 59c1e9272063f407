package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/noosyn/product-api/internal/core/domain"
)

// uniqueViolation is the SQLSTATE raised by the users_username_key constraint.
const uniqueViolation = "23505"

// UserRepository implements ports.UserRepository on PostgreSQL.
type UserRepository struct {
	db *sql.DB
}

func NewUserRepository(db *sql.DB) *UserRepository {
	return &UserRepository{db: db}
}

func (r *UserRepository) FindByUsername(ctx context.Context, username string) (*domain.User, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	const q = `SELECT id::text, username, password_hash, role, created_at
	           FROM users WHERE username = $1`

	var (
		u    domain.User
		role string
	)
	err := r.db.QueryRowContext(ctx, q, username).Scan(&u.ID, &u.Username, &u.PasswordHash, &role, &u.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrUserNotFound
		}
		return nil, fmt.Errorf("find user: %w", err)
	}
	u.Role = domain.Role(role)
	return &u, nil
}

// Save inserts user. The UNIQUE constraint on username makes concurrent
// registrations of the same name fail with domain.ErrUsernameTaken.
func (r *UserRepository) Save(ctx context.Context, user *domain.User) (*domain.User, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	const q = `INSERT INTO users (username, password_hash, role, created_at)
	           VALUES ($1, $2, $3, $4)
	           RETURNING id::text`

	saved := *user
	err := r.db.QueryRowContext(ctx, q, user.Username, user.PasswordHash, string(user.Role), user.CreatedAt).Scan(&saved.ID)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return nil, domain.ErrUsernameTaken
		}
		return nil, fmt.Errorf("insert user: %w", err)
	}
	return &saved, nil
}
