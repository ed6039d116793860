package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Token validation errors. Callers distinguish an expired token from a
// malformed or tampered one via errors.Is.
var (
	ErrTokenExpired = errors.New("token expired")
	ErrTokenInvalid = errors.New("token invalid")
)

// AccessClaims represents the JWT claims for an access token. The subject
// carries the username.
type AccessClaims struct {
	jwt.RegisteredClaims
}

// EmailClaims represents the JWT claims for an email verification or
// password-reset token. The subject carries the email address.
type EmailClaims struct {
	jwt.RegisteredClaims
}

// Codec signs and verifies the JWT tokens issued by the service.
type Codec struct {
	secret       []byte
	accessExpiry time.Duration
	emailExpiry  time.Duration
}

// NewCodec creates a token codec with the given secret and expiry durations.
func NewCodec(secret string, accessExpiry, emailExpiry time.Duration) *Codec {
	return &Codec{
		secret:       []byte(secret),
		accessExpiry: accessExpiry,
		emailExpiry:  emailExpiry,
	}
}

// AccessTokenTTL returns the configured access token lifetime.
func (c *Codec) AccessTokenTTL() time.Duration {
	return c.accessExpiry
}

// IssueAccessToken creates a signed access token for the given username.
func (c *Codec) IssueAccessToken(username string) (string, error) {
	now := time.Now().UTC()
	claims := &AccessClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   username,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(c.accessExpiry)),
			Issuer:    "contacthub",
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signedToken, err := token.SignedString(c.secret)
	if err != nil {
		return "", fmt.Errorf("sign access token: %w", err)
	}

	return signedToken, nil
}

// IssueEmailToken creates a signed single-purpose token bound to an email
// address, used for verification and password-reset links.
func (c *Codec) IssueEmailToken(email string) (string, error) {
	now := time.Now().UTC()
	claims := &EmailClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   email,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(c.emailExpiry)),
			Issuer:    "contacthub",
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signedToken, err := token.SignedString(c.secret)
	if err != nil {
		return "", fmt.Errorf("sign email token: %w", err)
	}

	return signedToken, nil
}

// DecodeAccessToken parses and validates an access token, returning the
// username from the subject claim.
func (c *Codec) DecodeAccessToken(tokenString string) (string, error) {
	claims, err := c.DecodeAccessClaims(tokenString)
	if err != nil {
		return "", err
	}
	return claims.Subject, nil
}

// DecodeAccessClaims parses and validates an access token, returning the full
// claim set.
func (c *Codec) DecodeAccessClaims(tokenString string) (*AccessClaims, error) {
	claims := &AccessClaims{}
	if err := c.parse(tokenString, claims); err != nil {
		return nil, err
	}
	if claims.Subject == "" || claims.ExpiresAt == nil {
		return nil, ErrTokenInvalid
	}
	return claims, nil
}

// DecodeEmailToken parses and validates an email token, returning the email
// address from the subject claim.
func (c *Codec) DecodeEmailToken(tokenString string) (string, error) {
	claims := &EmailClaims{}
	if err := c.parse(tokenString, claims); err != nil {
		return "", err
	}
	if claims.Subject == "" {
		return "", ErrTokenInvalid
	}
	return claims.Subject, nil
}

func (c *Codec) parse(tokenString string, claims jwt.Claims) error {
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return c.secret, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return ErrTokenExpired
		}
		return fmt.Errorf("%w: %w", ErrTokenInvalid, err)
	}
	if !token.Valid {
		return ErrTokenInvalid
	}
	return nil
}
