package repository

import (
	"context"
	"time"

	"github.com/ovasylenko/contacthub/internal/domain"
	"github.com/ovasylenko/contacthub/pkg/pagination"
)

// UserRepository defines the interface for user persistence operations.
type UserRepository interface {
	// Create inserts a new user into the store.
	Create(ctx context.Context, user *domain.User) error

	// GetByID retrieves a user by their unique identifier.
	GetByID(ctx context.Context, id string) (*domain.User, error)

	// GetByUsername retrieves a user by their username.
	GetByUsername(ctx context.Context, username string) (*domain.User, error)

	// GetByEmail retrieves a user by their email address.
	GetByEmail(ctx context.Context, email string) (*domain.User, error)

	// MarkVerified sets the email verification flag for the given email.
	MarkVerified(ctx context.Context, email string) error

	// UpdateAvatar sets the avatar URL for the given user.
	UpdateAvatar(ctx context.Context, id, avatarURL string) error

	// UpdatePassword replaces the stored password hash for the given user.
	UpdatePassword(ctx context.Context, id, passwordHash string) error
}

// RefreshTokenRepository defines the interface for the refresh-token ledger.
type RefreshTokenRepository interface {
	// Save stores a new refresh token ledger entry.
	Save(ctx context.Context, token *domain.RefreshToken) error

	// GetActive retrieves a token by hash only if it is neither revoked nor
	// expired at the given instant.
	GetActive(ctx context.Context, tokenHash string, now time.Time) (*domain.RefreshToken, error)

	// GetByHash retrieves a token record by its hash regardless of state.
	GetByHash(ctx context.Context, tokenHash string) (*domain.RefreshToken, error)

	// Revoke marks a token revoked. Revoking an already-revoked token is a no-op.
	Revoke(ctx context.Context, tokenHash string) error

	// RevokeAllForUser revokes every active token belonging to the user.
	RevokeAllForUser(ctx context.Context, userID string) error

	// DeleteStale removes tokens that expired or were revoked before the cutoff.
	DeleteStale(ctx context.Context, cutoff time.Time) (int64, error)
}

// ContactRepository defines the interface for contact persistence operations.
type ContactRepository interface {
	// Create inserts a new contact into the store.
	Create(ctx context.Context, contact *domain.Contact) error

	// GetByID retrieves a contact owned by the given user.
	GetByID(ctx context.Context, userID, id string) (*domain.Contact, error)

	// ListByUser returns one page of the user's contacts plus the total count.
	ListByUser(ctx context.Context, userID string, params pagination.Params) ([]domain.Contact, int64, error)

	// Update modifies an existing contact owned by the given user.
	Update(ctx context.Context, contact *domain.Contact) error

	// Delete removes a contact owned by the given user.
	Delete(ctx context.Context, userID, id string) error

	// Search returns the user's contacts whose name or email contains the query.
	Search(ctx context.Context, userID, query string, params pagination.Params) ([]domain.Contact, int64, error)

	// UpcomingBirthdays returns contacts with a birthday in the next N days.
	UpcomingBirthdays(ctx context.Context, userID string, days int) ([]domain.Contact, error)
}
