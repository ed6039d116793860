// Package cache holds the Redis-backed access-token deny list.
package cache

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	apperrors "github.com/ovasylenko/contacthub/pkg/errors"
)

const denyListPrefix = "blacklist:"

// RevocationList records access tokens that were revoked before their natural
// expiry. Lookups fail closed: if Redis is unreachable, token validation is
// rejected rather than letting a possibly revoked token through.
type RevocationList struct {
	client  *redis.Client
	timeout time.Duration
	logger  *slog.Logger
}

// NewRevocationList creates a deny list over the given Redis client. Every
// Redis round trip is bounded by timeout.
func NewRevocationList(client *redis.Client, timeout time.Duration, logger *slog.Logger) *RevocationList {
	return &RevocationList{
		client:  client,
		timeout: timeout,
		logger:  logger,
	}
}

// Add places a token on the deny list for the given remaining lifetime. A
// non-positive TTL means the token already expired and nothing is stored.
func (l *RevocationList) Add(ctx context.Context, token string, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}

	ctx, cancel := context.WithTimeout(ctx, l.timeout)
	defer cancel()

	if err := l.client.Set(ctx, denyListPrefix+token, "true", ttl).Err(); err != nil {
		l.logger.ErrorContext(ctx, "failed to deny-list token",
			slog.String("error", err.Error()),
		)
		return apperrors.ServiceUnavailable("token revocation temporarily unavailable")
	}

	return nil
}

// Contains reports whether the token is on the deny list. An unreachable
// Redis is surfaced as an error, never as "not revoked".
func (l *RevocationList) Contains(ctx context.Context, token string) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, l.timeout)
	defer cancel()

	n, err := l.client.Exists(ctx, denyListPrefix+token).Result()
	if err != nil {
		l.logger.ErrorContext(ctx, "failed to check token deny list",
			slog.String("error", err.Error()),
		)
		return false, apperrors.ServiceUnavailable("token revocation check temporarily unavailable")
	}

	return n > 0, nil
}

// Ping verifies Redis connectivity for health reporting.
func (l *RevocationList) Ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, l.timeout)
	defer cancel()

	if err := l.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("ping redis: %w", err)
	}
	return nil
}
