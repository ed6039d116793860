package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/ovasylenko/contacthub/internal/domain"
	"github.com/ovasylenko/contacthub/pkg/database"
	apperrors "github.com/ovasylenko/contacthub/pkg/errors"
)

// RefreshTokenRepository implements repository.RefreshTokenRepository using PostgreSQL.
type RefreshTokenRepository struct {
	db database.DBTX
}

// NewRefreshTokenRepository creates a new PostgreSQL-backed refresh token repository.
func NewRefreshTokenRepository(db database.DBTX) *RefreshTokenRepository {
	return &RefreshTokenRepository{db: db}
}

// Save stores a new refresh token ledger entry.
func (r *RefreshTokenRepository) Save(ctx context.Context, t *domain.RefreshToken) error {
	query := `
		INSERT INTO refresh_tokens (id, user_id, token_hash, created_at, expired_at, ip_address, user_agent)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`

	_, err := r.db.Exec(ctx, query,
		t.ID,
		t.UserID,
		t.TokenHash,
		t.CreatedAt,
		t.ExpiredAt,
		t.IPAddress,
		t.UserAgent,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return apperrors.AlreadyExists("refresh_token", "token_hash", t.TokenHash)
		}
		return fmt.Errorf("insert refresh token: %w", err)
	}

	return nil
}

// GetActive retrieves a token by hash only if it is neither revoked nor expired.
func (r *RefreshTokenRepository) GetActive(ctx context.Context, tokenHash string, now time.Time) (*domain.RefreshToken, error) {
	query := `
		SELECT id, user_id, token_hash, created_at, expired_at, revoked_at, COALESCE(ip_address, ''), COALESCE(user_agent, '')
		FROM refresh_tokens
		WHERE token_hash = $1 AND revoked_at IS NULL AND expired_at > $2`

	return r.scanToken(ctx, query, tokenHash, now)
}

// GetByHash retrieves a token record by its hash regardless of state.
func (r *RefreshTokenRepository) GetByHash(ctx context.Context, tokenHash string) (*domain.RefreshToken, error) {
	query := `
		SELECT id, user_id, token_hash, created_at, expired_at, revoked_at, COALESCE(ip_address, ''), COALESCE(user_agent, '')
		FROM refresh_tokens
		WHERE token_hash = $1`

	return r.scanToken(ctx, query, tokenHash)
}

// Revoke marks a token revoked. Already-revoked tokens are left untouched.
func (r *RefreshTokenRepository) Revoke(ctx context.Context, tokenHash string) error {
	query := `UPDATE refresh_tokens SET revoked_at = $1 WHERE token_hash = $2 AND revoked_at IS NULL`

	_, err := r.db.Exec(ctx, query, time.Now().UTC(), tokenHash)
	if err != nil {
		return fmt.Errorf("revoke refresh token: %w", err)
	}

	return nil
}

// RevokeAllForUser revokes every active token belonging to the user.
func (r *RefreshTokenRepository) RevokeAllForUser(ctx context.Context, userID string) error {
	query := `UPDATE refresh_tokens SET revoked_at = $1 WHERE user_id = $2 AND revoked_at IS NULL`

	_, err := r.db.Exec(ctx, query, time.Now().UTC(), userID)
	if err != nil {
		return fmt.Errorf("revoke refresh tokens by user: %w", err)
	}

	return nil
}

// DeleteStale removes tokens that expired or were revoked before the cutoff.
func (r *RefreshTokenRepository) DeleteStale(ctx context.Context, cutoff time.Time) (int64, error) {
	query := `DELETE FROM refresh_tokens WHERE expired_at < $1 OR revoked_at < $1`

	ct, err := r.db.Exec(ctx, query, cutoff)
	if err != nil {
		return 0, fmt.Errorf("delete stale refresh tokens: %w", err)
	}

	return ct.RowsAffected(), nil
}

func (r *RefreshTokenRepository) scanToken(ctx context.Context, query string, args ...any) (*domain.RefreshToken, error) {
	var t domain.RefreshToken

	err := r.db.QueryRow(ctx, query, args...).Scan(
		&t.ID,
		&t.UserID,
		&t.TokenHash,
		&t.CreatedAt,
		&t.ExpiredAt,
		&t.RevokedAt,
		&t.IPAddress,
		&t.UserAgent,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("scan refresh token: %w", err)
	}

	return &t, nil
}
