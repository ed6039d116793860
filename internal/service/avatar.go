package service

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/ovasylenko/contacthub/pkg/httpclient"
)

const gravatarBase = "https://www.gravatar.com/avatar/"

// GravatarService resolves profile images from Gravatar. The existence probe
// runs through a circuit breaker so a slow or failing Gravatar cannot drag
// down registration.
type GravatarService struct {
	client  *httpclient.CircuitBreakerClient
	baseURL string
	size    int
	logger  *slog.Logger
}

// NewGravatarService creates a Gravatar-backed avatar resolver.
func NewGravatarService(client *httpclient.CircuitBreakerClient, logger *slog.Logger) *GravatarService {
	return &GravatarService{
		client:  client,
		baseURL: gravatarBase,
		size:    250,
		logger:  logger,
	}
}

// Resolve returns the Gravatar URL for the email if one exists, falling back
// to a generated identicon otherwise.
func (g *GravatarService) Resolve(ctx context.Context, email string) (string, error) {
	hash := emailHash(email)
	probeURL := fmt.Sprintf("%s%s?d=404", g.baseURL, hash)

	resp, err := g.client.Head(ctx, probeURL)
	if err != nil {
		return "", fmt.Errorf("probe gravatar: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusOK {
		return fmt.Sprintf("%s%s?s=%d", g.baseURL, hash, g.size), nil
	}

	return fmt.Sprintf("%s%s?s=%d&d=identicon", g.baseURL, hash, g.size), nil
}

// emailHash returns the MD5 hex digest Gravatar keys avatars by. MD5 is the
// protocol's addressing scheme, not a security boundary.
func emailHash(email string) string {
	normalized := strings.ToLower(strings.TrimSpace(email))
	sum := md5.Sum([]byte(normalized))
	return hex.EncodeToString(sum[:])
}
