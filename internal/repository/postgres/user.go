package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/ovasylenko/contacthub/internal/domain"
	"github.com/ovasylenko/contacthub/pkg/database"
	apperrors "github.com/ovasylenko/contacthub/pkg/errors"
)

// UserRepository implements repository.UserRepository using PostgreSQL.
type UserRepository struct {
	db database.DBTX
}

// NewUserRepository creates a new PostgreSQL-backed user repository.
func NewUserRepository(db database.DBTX) *UserRepository {
	return &UserRepository{db: db}
}

// Create inserts a new user into the database.
func (r *UserRepository) Create(ctx context.Context, u *domain.User) error {
	query := `
		INSERT INTO users (id, email, username, password_hash, is_verified, role, avatar_url, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`

	_, err := r.db.Exec(ctx, query,
		u.ID,
		u.Email,
		u.Username,
		u.PasswordHash,
		u.IsVerified,
		string(u.Role),
		u.AvatarURL,
		u.CreatedAt,
		u.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return apperrors.AlreadyExists("user", "email", u.Email)
		}
		return fmt.Errorf("insert user: %w", err)
	}

	return nil
}

// GetByID retrieves a user by their ID.
func (r *UserRepository) GetByID(ctx context.Context, id string) (*domain.User, error) {
	query := `
		SELECT id, email, username, password_hash, is_verified, role, avatar_url, created_at, updated_at
		FROM users
		WHERE id = $1`

	return r.scanUser(ctx, query, id)
}

// GetByUsername retrieves a user by their username.
func (r *UserRepository) GetByUsername(ctx context.Context, username string) (*domain.User, error) {
	query := `
		SELECT id, email, username, password_hash, is_verified, role, avatar_url, created_at, updated_at
		FROM users
		WHERE username = $1`

	return r.scanUser(ctx, query, username)
}

// GetByEmail retrieves a user by their email address.
func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	query := `
		SELECT id, email, username, password_hash, is_verified, role, avatar_url, created_at, updated_at
		FROM users
		WHERE email = $1`

	return r.scanUser(ctx, query, email)
}

// MarkVerified sets the email verification flag for the given email.
func (r *UserRepository) MarkVerified(ctx context.Context, email string) error {
	query := `UPDATE users SET is_verified = true, updated_at = $1 WHERE email = $2`

	ct, err := r.db.Exec(ctx, query, time.Now().UTC(), email)
	if err != nil {
		return fmt.Errorf("mark user verified: %w", err)
	}

	if ct.RowsAffected() == 0 {
		return apperrors.NotFound("user", email)
	}

	return nil
}

// UpdateAvatar sets the avatar URL for the given user.
func (r *UserRepository) UpdateAvatar(ctx context.Context, id, avatarURL string) error {
	query := `UPDATE users SET avatar_url = $1, updated_at = $2 WHERE id = $3`

	ct, err := r.db.Exec(ctx, query, avatarURL, time.Now().UTC(), id)
	if err != nil {
		return fmt.Errorf("update user avatar: %w", err)
	}

	if ct.RowsAffected() == 0 {
		return apperrors.NotFound("user", id)
	}

	return nil
}

// UpdatePassword replaces the stored password hash for the given user.
func (r *UserRepository) UpdatePassword(ctx context.Context, id, passwordHash string) error {
	query := `UPDATE users SET password_hash = $1, updated_at = $2 WHERE id = $3`

	ct, err := r.db.Exec(ctx, query, passwordHash, time.Now().UTC(), id)
	if err != nil {
		return fmt.Errorf("update user password: %w", err)
	}

	if ct.RowsAffected() == 0 {
		return apperrors.NotFound("user", id)
	}

	return nil
}

// scanUser is a helper that executes a query expected to return a single user row.
func (r *UserRepository) scanUser(ctx context.Context, query string, args ...any) (*domain.User, error) {
	var u domain.User
	var role string

	err := r.db.QueryRow(ctx, query, args...).Scan(
		&u.ID,
		&u.Email,
		&u.Username,
		&u.PasswordHash,
		&u.IsVerified,
		&role,
		&u.AvatarURL,
		&u.CreatedAt,
		&u.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("scan user: %w", err)
	}

	parsed, err := domain.ParseRole(role)
	if err != nil {
		return nil, fmt.Errorf("scan user: %w", err)
	}
	u.Role = parsed

	return &u, nil
}

// isUniqueViolation checks if the error is a PostgreSQL unique constraint violation (SQLSTATE 23505).
func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "23505")
}
