package event

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/ovasylenko/contacthub/internal/domain"
	pkgkafka "github.com/ovasylenko/contacthub/pkg/kafka"
)

// Kafka topic constants for user domain events. The email worker consumes
// these and sends the actual verification and reset messages.
const (
	TopicUserRegistered            = "contacthub.user.registered"
	TopicUserVerificationRequested = "contacthub.user.verification_requested"
	TopicUserPasswordReset         = "contacthub.user.password_reset"
)

// Aggregate type constant.
const AggregateTypeUser = "user"

// Source identifier for events originating from this service.
const SourceContactHub = "contacthub"

// UserRegisteredData is the payload for a user.registered event. It carries
// the verification token the email worker embeds in the confirmation link.
type UserRegisteredData struct {
	ID                string `json:"id"`
	Email             string `json:"email"`
	Username          string `json:"username"`
	VerificationToken string `json:"verification_token"`
}

// VerificationRequestedData is the payload for a user.verification_requested event.
type VerificationRequestedData struct {
	ID                string `json:"id"`
	Email             string `json:"email"`
	VerificationToken string `json:"verification_token"`
}

// PasswordResetData is the payload for a user.password_reset event.
type PasswordResetData struct {
	ID         string `json:"id"`
	Email      string `json:"email"`
	ResetToken string `json:"reset_token"`
}

// Producer publishes user domain events to Kafka.
type Producer struct {
	kafka  *pkgkafka.Producer
	logger *slog.Logger
}

// NewProducer creates a new event producer.
func NewProducer(kafka *pkgkafka.Producer, logger *slog.Logger) *Producer {
	return &Producer{
		kafka:  kafka,
		logger: logger,
	}
}

// PublishUserRegistered publishes a user.registered event.
func (p *Producer) PublishUserRegistered(ctx context.Context, user *domain.User, verificationToken string) error {
	data := UserRegisteredData{
		ID:                user.ID,
		Email:             user.Email,
		Username:          user.Username,
		VerificationToken: verificationToken,
	}

	event, err := pkgkafka.NewEvent(TopicUserRegistered, user.ID, AggregateTypeUser, SourceContactHub, data)
	if err != nil {
		return fmt.Errorf("create user.registered event: %w", err)
	}

	if err := p.kafka.Publish(ctx, TopicUserRegistered, event); err != nil {
		return fmt.Errorf("publish user.registered event: %w", err)
	}

	p.logger.DebugContext(ctx, "published user.registered event",
		slog.String("user_id", user.ID),
		slog.String("email", user.Email),
	)

	return nil
}

// PublishVerificationRequested publishes a user.verification_requested event.
func (p *Producer) PublishVerificationRequested(ctx context.Context, user *domain.User, verificationToken string) error {
	data := VerificationRequestedData{
		ID:                user.ID,
		Email:             user.Email,
		VerificationToken: verificationToken,
	}

	event, err := pkgkafka.NewEvent(TopicUserVerificationRequested, user.ID, AggregateTypeUser, SourceContactHub, data)
	if err != nil {
		return fmt.Errorf("create user.verification_requested event: %w", err)
	}

	if err := p.kafka.Publish(ctx, TopicUserVerificationRequested, event); err != nil {
		return fmt.Errorf("publish user.verification_requested event: %w", err)
	}

	p.logger.DebugContext(ctx, "published user.verification_requested event",
		slog.String("user_id", user.ID),
		slog.String("email", user.Email),
	)

	return nil
}

// PublishPasswordReset publishes a user.password_reset event.
func (p *Producer) PublishPasswordReset(ctx context.Context, user *domain.User, resetToken string) error {
	data := PasswordResetData{
		ID:         user.ID,
		Email:      user.Email,
		ResetToken: resetToken,
	}

	event, err := pkgkafka.NewEvent(TopicUserPasswordReset, user.ID, AggregateTypeUser, SourceContactHub, data)
	if err != nil {
		return fmt.Errorf("create user.password_reset event: %w", err)
	}

	if err := p.kafka.Publish(ctx, TopicUserPasswordReset, event); err != nil {
		return fmt.Errorf("publish user.password_reset event: %w", err)
	}

	p.logger.DebugContext(ctx, "published user.password_reset event",
		slog.String("user_id", user.ID),
		slog.String("email", user.Email),
	)

	return nil
}
