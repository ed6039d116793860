package service

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/ovasylenko/contacthub/internal/auth"
	"github.com/ovasylenko/contacthub/internal/domain"
	"github.com/ovasylenko/contacthub/internal/event"
	"github.com/ovasylenko/contacthub/internal/repository"
	apperrors "github.com/ovasylenko/contacthub/pkg/errors"
)

// bcryptCost is the cost factor for bcrypt password hashing.
const bcryptCost = 12

// Password length bounds, matching the registration schema.
const (
	minPasswordLength = 6
	maxPasswordLength = 30
)

// refreshSecretBytes is the entropy of the opaque refresh secret.
const refreshSecretBytes = 32

// Credential failures for not-found and wrong-password share one message so
// responses never reveal which part was wrong.
const msgBadCredentials = "incorrect username or password"

const msgUnverified = "email address not confirmed"

// RevocationCache is the deny list consulted on every access-token check.
type RevocationCache interface {
	Add(ctx context.Context, token string, ttl time.Duration) error
	Contains(ctx context.Context, token string) (bool, error)
}

// AvatarResolver derives a profile image URL from an email address.
type AvatarResolver interface {
	Resolve(ctx context.Context, email string) (string, error)
}

// AuthService implements authentication, token issuance, validation,
// rotation, and revocation.
type AuthService struct {
	userRepo   repository.UserRepository
	tokenRepo  repository.RefreshTokenRepository
	codec      *auth.Codec
	revocation RevocationCache
	avatars    AvatarResolver
	producer   *event.Producer
	refreshTTL time.Duration
	logger     *slog.Logger
}

// NewAuthService creates a new auth service.
func NewAuthService(
	userRepo repository.UserRepository,
	tokenRepo repository.RefreshTokenRepository,
	codec *auth.Codec,
	revocation RevocationCache,
	avatars AvatarResolver,
	producer *event.Producer,
	refreshTTL time.Duration,
	logger *slog.Logger,
) *AuthService {
	return &AuthService{
		userRepo:   userRepo,
		tokenRepo:  tokenRepo,
		codec:      codec,
		revocation: revocation,
		avatars:    avatars,
		producer:   producer,
		refreshTTL: refreshTTL,
		logger:     logger,
	}
}

// RegisterInput holds the parameters for registering a new user.
type RegisterInput struct {
	Email    string
	Username string
	Password string
}

// Register creates a new user account. Username and email conflicts are
// reported separately, username first.
func (s *AuthService) Register(ctx context.Context, input RegisterInput) (*domain.User, error) {
	if input.Email == "" {
		return nil, apperrors.InvalidInput("email is required")
	}
	if input.Username == "" {
		return nil, apperrors.InvalidInput("username is required")
	}
	if err := validatePassword(input.Password); err != nil {
		return nil, err
	}

	if _, err := s.userRepo.GetByUsername(ctx, input.Username); err == nil {
		return nil, apperrors.Conflict("user with this username already exists")
	}
	if _, err := s.userRepo.GetByEmail(ctx, input.Email); err == nil {
		return nil, apperrors.Conflict("user with this email already exists")
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcryptCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	// Best effort: a missing avatar never fails registration.
	avatarURL := ""
	if s.avatars != nil {
		avatarURL, err = s.avatars.Resolve(ctx, input.Email)
		if err != nil {
			s.logger.WarnContext(ctx, "failed to resolve avatar",
				slog.String("email", input.Email),
				slog.String("error", err.Error()),
			)
			avatarURL = ""
		}
	}

	now := time.Now().UTC()
	user := &domain.User{
		ID:           uuid.New().String(),
		Email:        input.Email,
		Username:     input.Username,
		PasswordHash: string(hashedPassword),
		IsVerified:   false,
		Role:         domain.RoleUser,
		AvatarURL:    avatarURL,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, fmt.Errorf("create user: %w", err)
	}

	// The email worker consumes this event and sends the confirmation link.
	verificationToken, err := s.codec.IssueEmailToken(user.Email)
	if err != nil {
		s.logger.ErrorContext(ctx, "failed to issue verification token",
			slog.String("user_id", user.ID),
			slog.String("error", err.Error()),
		)
	} else if err := s.producer.PublishUserRegistered(ctx, user, verificationToken); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish user.registered event",
			slog.String("user_id", user.ID),
			slog.String("error", err.Error()),
		)
	}

	s.logger.InfoContext(ctx, "user registered",
		slog.String("user_id", user.ID),
		slog.String("username", user.Username),
	)

	return user, nil
}

// Authenticate verifies a username/password pair. Unknown usernames and wrong
// passwords return the same message; only the unverified-email case is
// distinguished.
func (s *AuthService) Authenticate(ctx context.Context, username, password string) (*domain.User, error) {
	if username == "" || password == "" {
		return nil, apperrors.InvalidInput("username and password are required")
	}

	user, err := s.userRepo.GetByUsername(ctx, username)
	if err != nil {
		s.logger.InfoContext(ctx, "authentication failed: unknown username",
			slog.String("username", username),
		)
		return nil, apperrors.Unauthorized(msgBadCredentials)
	}

	if !user.IsVerified {
		s.logger.InfoContext(ctx, "authentication failed: email not confirmed",
			slog.String("user_id", user.ID),
		)
		return nil, apperrors.Unauthorized(msgUnverified)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		s.logger.InfoContext(ctx, "authentication failed: wrong password",
			slog.String("user_id", user.ID),
		)
		return nil, apperrors.Unauthorized(msgBadCredentials)
	}

	return user, nil
}

// Login authenticates and issues an access/refresh token pair.
func (s *AuthService) Login(ctx context.Context, username, password, ip, userAgent string) (*domain.TokenPair, error) {
	user, err := s.Authenticate(ctx, username, password)
	if err != nil {
		return nil, err
	}

	accessToken, err := s.IssueAccessToken(user.Username)
	if err != nil {
		return nil, err
	}

	refreshSecret, err := s.IssueRefreshToken(ctx, user.ID, ip, userAgent)
	if err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "user logged in",
		slog.String("user_id", user.ID),
	)

	return &domain.TokenPair{
		AccessToken:  accessToken,
		RefreshToken: refreshSecret,
		TokenType:    "bearer",
	}, nil
}

// IssueAccessToken creates a signed access token for the given username.
func (s *AuthService) IssueAccessToken(username string) (string, error) {
	token, err := s.codec.IssueAccessToken(username)
	if err != nil {
		return "", fmt.Errorf("issue access token: %w", err)
	}
	return token, nil
}

// IssueRefreshToken generates an opaque refresh secret, records its hash in
// the ledger, and returns the raw secret. The secret is never retrievable
// again.
func (s *AuthService) IssueRefreshToken(ctx context.Context, userID, ip, userAgent string) (string, error) {
	buf := make([]byte, refreshSecretBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generate refresh secret: %w", err)
	}
	secret := base64.RawURLEncoding.EncodeToString(buf)

	now := time.Now().UTC()
	token := &domain.RefreshToken{
		ID:        uuid.New().String(),
		UserID:    userID,
		TokenHash: hashSecret(secret),
		CreatedAt: now,
		ExpiredAt: now.Add(s.refreshTTL),
		IPAddress: ip,
		UserAgent: userAgent,
	}

	if err := s.tokenRepo.Save(ctx, token); err != nil {
		return "", fmt.Errorf("store refresh token: %w", err)
	}

	return secret, nil
}

// ValidateAccessToken decodes the token and consults the deny list, returning
// the subject username. A deny-listed token or an unreachable deny list never
// validates.
func (s *AuthService) ValidateAccessToken(ctx context.Context, token string) (string, error) {
	username, err := s.codec.DecodeAccessToken(token)
	if err != nil {
		return "", apperrors.Unauthorized("invalid or expired token")
	}

	revoked, err := s.revocation.Contains(ctx, token)
	if err != nil {
		return "", err
	}
	if revoked {
		return "", apperrors.Unauthorized("token has been revoked")
	}

	return username, nil
}

// GetCurrentUser validates the token and resolves the subject to a user.
func (s *AuthService) GetCurrentUser(ctx context.Context, token string) (*domain.User, error) {
	username, err := s.ValidateAccessToken(ctx, token)
	if err != nil {
		return nil, err
	}

	user, err := s.userRepo.GetByUsername(ctx, username)
	if err != nil {
		return nil, apperrors.Unauthorized("invalid or expired token")
	}

	return user, nil
}

// RotateRefreshToken exchanges a still-active refresh secret for a fresh
// access token. Expired, revoked, and unknown secrets are indistinguishable
// to the caller. The secret itself stays usable until its own expiry.
func (s *AuthService) RotateRefreshToken(ctx context.Context, secret string) (*domain.User, string, error) {
	record, err := s.tokenRepo.GetActive(ctx, hashSecret(secret), time.Now().UTC())
	if err != nil {
		return nil, "", apperrors.Unauthorized("invalid or expired refresh token")
	}

	user, err := s.userRepo.GetByID(ctx, record.UserID)
	if err != nil {
		return nil, "", apperrors.Unauthorized("invalid or expired refresh token")
	}

	accessToken, err := s.IssueAccessToken(user.Username)
	if err != nil {
		return nil, "", err
	}

	s.logger.InfoContext(ctx, "access token refreshed",
		slog.String("user_id", user.ID),
	)

	return user, accessToken, nil
}

// RevokeRefreshToken revokes the ledger record for the given secret. Unknown
// secrets fail; already-expired or already-revoked records revoke without
// error.
func (s *AuthService) RevokeRefreshToken(ctx context.Context, secret string) error {
	tokenHash := hashSecret(secret)

	record, err := s.tokenRepo.GetByHash(ctx, tokenHash)
	if err != nil {
		return apperrors.Unauthorized("invalid refresh token")
	}

	if err := s.tokenRepo.Revoke(ctx, tokenHash); err != nil {
		return fmt.Errorf("revoke refresh token: %w", err)
	}

	s.logger.InfoContext(ctx, "refresh token revoked",
		slog.String("user_id", record.UserID),
	)

	return nil
}

// RevokeAccessToken deny-lists the raw token for its remaining lifetime, so
// the cache entry self-expires with the token.
func (s *AuthService) RevokeAccessToken(ctx context.Context, token string) error {
	claims, err := s.codec.DecodeAccessClaims(token)
	if err != nil {
		// Expired or malformed tokens have nothing left to revoke.
		return nil
	}

	ttl := time.Until(claims.ExpiresAt.Time)
	return s.revocation.Add(ctx, token, ttl)
}

// ConfirmEmail validates an email token and marks the account verified.
// Confirming an already-verified account is a no-op.
func (s *AuthService) ConfirmEmail(ctx context.Context, token string) error {
	email, err := s.codec.DecodeEmailToken(token)
	if err != nil {
		return apperrors.Unauthorized("invalid or expired verification token")
	}

	user, err := s.userRepo.GetByEmail(ctx, email)
	if err != nil {
		return apperrors.Unauthorized("invalid or expired verification token")
	}

	if user.IsVerified {
		return nil
	}

	if err := s.userRepo.MarkVerified(ctx, email); err != nil {
		return fmt.Errorf("mark verified: %w", err)
	}

	s.logger.InfoContext(ctx, "email confirmed",
		slog.String("user_id", user.ID),
	)

	return nil
}

// RequestVerification re-sends a verification link for an unverified account.
// Unknown emails are accepted silently to avoid enumeration.
func (s *AuthService) RequestVerification(ctx context.Context, email string) error {
	user, err := s.userRepo.GetByEmail(ctx, email)
	if err != nil {
		s.logger.InfoContext(ctx, "verification requested for unknown email",
			slog.String("email", email),
		)
		return nil
	}

	if user.IsVerified {
		return nil
	}

	token, err := s.codec.IssueEmailToken(user.Email)
	if err != nil {
		return fmt.Errorf("issue verification token: %w", err)
	}

	if err := s.producer.PublishVerificationRequested(ctx, user, token); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish user.verification_requested event",
			slog.String("user_id", user.ID),
			slog.String("error", err.Error()),
		)
	}

	return nil
}

// RequestPasswordReset publishes a reset event carrying a fresh email token.
// Unknown emails are accepted silently to avoid enumeration.
func (s *AuthService) RequestPasswordReset(ctx context.Context, email string) error {
	user, err := s.userRepo.GetByEmail(ctx, email)
	if err != nil {
		s.logger.InfoContext(ctx, "password reset requested for unknown email",
			slog.String("email", email),
		)
		return nil
	}

	token, err := s.codec.IssueEmailToken(user.Email)
	if err != nil {
		return fmt.Errorf("issue reset token: %w", err)
	}

	if err := s.producer.PublishPasswordReset(ctx, user, token); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish user.password_reset event",
			slog.String("user_id", user.ID),
			slog.String("error", err.Error()),
		)
	}

	s.logger.InfoContext(ctx, "password reset requested",
		slog.String("user_id", user.ID),
	)

	return nil
}

// ResetPassword sets a new password using an email token and revokes every
// outstanding refresh token for the account.
func (s *AuthService) ResetPassword(ctx context.Context, token, newPassword string) error {
	if err := validatePassword(newPassword); err != nil {
		return err
	}

	email, err := s.codec.DecodeEmailToken(token)
	if err != nil {
		return apperrors.Unauthorized("invalid or expired reset token")
	}

	user, err := s.userRepo.GetByEmail(ctx, email)
	if err != nil {
		return apperrors.Unauthorized("invalid or expired reset token")
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcryptCost)
	if err != nil {
		return fmt.Errorf("hash new password: %w", err)
	}

	if err := s.userRepo.UpdatePassword(ctx, user.ID, string(hashedPassword)); err != nil {
		return fmt.Errorf("update password: %w", err)
	}

	if err := s.tokenRepo.RevokeAllForUser(ctx, user.ID); err != nil {
		s.logger.ErrorContext(ctx, "failed to revoke refresh tokens after password reset",
			slog.String("user_id", user.ID),
			slog.String("error", err.Error()),
		)
	}

	s.logger.InfoContext(ctx, "password reset completed",
		slog.String("user_id", user.ID),
	)

	return nil
}

// UpdateAvatar re-derives the avatar for the given user from their email.
func (s *AuthService) UpdateAvatar(ctx context.Context, userID string) (*domain.User, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("get user for avatar update: %w", err)
	}

	avatarURL, err := s.avatars.Resolve(ctx, user.Email)
	if err != nil {
		return nil, apperrors.ServiceUnavailable("avatar service unavailable")
	}

	if err := s.userRepo.UpdateAvatar(ctx, user.ID, avatarURL); err != nil {
		return nil, fmt.Errorf("update avatar: %w", err)
	}

	user.AvatarURL = avatarURL
	return user, nil
}

// PurgeStaleTokens deletes ledger rows that expired or were revoked before
// the retention window. Called by the background janitor.
func (s *AuthService) PurgeStaleTokens(ctx context.Context, retention time.Duration) (int64, error) {
	cutoff := time.Now().UTC().Add(-retention)
	n, err := s.tokenRepo.DeleteStale(ctx, cutoff)
	if err != nil {
		return 0, fmt.Errorf("purge stale tokens: %w", err)
	}

	if n > 0 {
		s.logger.InfoContext(ctx, "purged stale refresh tokens",
			slog.Int64("deleted", n),
		)
	}

	return n, nil
}

// RequireRole fails unless the user's role is in the allowed set. There is no
// role hierarchy: every call site enumerates the exact roles it accepts.
func RequireRole(user *domain.User, allowed ...domain.Role) error {
	if !user.Role.Valid() {
		return apperrors.Forbidden("insufficient permissions")
	}
	for _, role := range allowed {
		if user.Role == role {
			return nil
		}
	}
	return apperrors.Forbidden("insufficient permissions")
}

// hashSecret returns the SHA-256 hex digest of the refresh secret. The secret
// has full random entropy, so a fast hash is sufficient here.
func hashSecret(secret string) string {
	h := sha256.Sum256([]byte(secret))
	return hex.EncodeToString(h[:])
}

// validatePassword checks the password length bounds.
func validatePassword(password string) error {
	if len(password) < minPasswordLength {
		return apperrors.InvalidInput(fmt.Sprintf("password must be at least %d characters", minPasswordLength))
	}
	if len(password) > maxPasswordLength {
		return apperrors.InvalidInput(fmt.Sprintf("password must be at most %d characters", maxPasswordLength))
	}
	return nil
}
