package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/ovasylenko/contacthub/internal/domain"
	"github.com/ovasylenko/contacthub/internal/repository"
	apperrors "github.com/ovasylenko/contacthub/pkg/errors"
	"github.com/ovasylenko/contacthub/pkg/pagination"
)

// maxBirthdayWindow bounds the upcoming-birthdays lookahead.
const maxBirthdayWindow = 366

// ContactService implements the business logic for contact operations. Every
// operation is scoped to the owning user.
type ContactService struct {
	contactRepo repository.ContactRepository
	logger      *slog.Logger
}

// NewContactService creates a new contact service.
func NewContactService(contactRepo repository.ContactRepository, logger *slog.Logger) *ContactService {
	return &ContactService{
		contactRepo: contactRepo,
		logger:      logger,
	}
}

// ContactInput holds the parameters for creating or replacing a contact.
type ContactInput struct {
	FirstName      string
	LastName       string
	Email          string
	PhoneNumber    string
	Birthday       *time.Time
	AdditionalData string
}

// UpdateContactInput holds the parameters for a partial contact update.
type UpdateContactInput struct {
	FirstName      *string
	LastName       *string
	Email          *string
	PhoneNumber    *string
	Birthday       *time.Time
	AdditionalData *string
}

// Create adds a new contact to the user's address book.
func (s *ContactService) Create(ctx context.Context, userID string, input ContactInput) (*domain.Contact, error) {
	if input.FirstName == "" {
		return nil, apperrors.InvalidInput("first name is required")
	}
	if input.LastName == "" {
		return nil, apperrors.InvalidInput("last name is required")
	}

	now := time.Now().UTC()
	contact := &domain.Contact{
		ID:             uuid.New().String(),
		UserID:         userID,
		FirstName:      input.FirstName,
		LastName:       input.LastName,
		Email:          input.Email,
		PhoneNumber:    input.PhoneNumber,
		Birthday:       input.Birthday,
		AdditionalData: input.AdditionalData,
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	if err := s.contactRepo.Create(ctx, contact); err != nil {
		return nil, fmt.Errorf("create contact: %w", err)
	}

	s.logger.InfoContext(ctx, "contact created",
		slog.String("user_id", userID),
		slog.String("contact_id", contact.ID),
	)

	return contact, nil
}

// Get retrieves one of the user's contacts.
func (s *ContactService) Get(ctx context.Context, userID, contactID string) (*domain.Contact, error) {
	contact, err := s.contactRepo.GetByID(ctx, userID, contactID)
	if err != nil {
		return nil, fmt.Errorf("get contact: %w", err)
	}
	return contact, nil
}

// List returns one page of the user's contacts.
func (s *ContactService) List(ctx context.Context, userID string, params pagination.Params) (pagination.Result[domain.Contact], error) {
	contacts, total, err := s.contactRepo.ListByUser(ctx, userID, params)
	if err != nil {
		return pagination.Result[domain.Contact]{}, fmt.Errorf("list contacts: %w", err)
	}
	return pagination.NewResult(contacts, int(total), params), nil
}

// Update applies a partial update to one of the user's contacts.
func (s *ContactService) Update(ctx context.Context, userID, contactID string, input UpdateContactInput) (*domain.Contact, error) {
	contact, err := s.contactRepo.GetByID(ctx, userID, contactID)
	if err != nil {
		return nil, fmt.Errorf("get contact for update: %w", err)
	}

	if input.FirstName != nil {
		if *input.FirstName == "" {
			return nil, apperrors.InvalidInput("first name must not be empty")
		}
		contact.FirstName = *input.FirstName
	}
	if input.LastName != nil {
		if *input.LastName == "" {
			return nil, apperrors.InvalidInput("last name must not be empty")
		}
		contact.LastName = *input.LastName
	}
	if input.Email != nil {
		contact.Email = *input.Email
	}
	if input.PhoneNumber != nil {
		contact.PhoneNumber = *input.PhoneNumber
	}
	if input.Birthday != nil {
		contact.Birthday = input.Birthday
	}
	if input.AdditionalData != nil {
		contact.AdditionalData = *input.AdditionalData
	}

	if err := s.contactRepo.Update(ctx, contact); err != nil {
		return nil, fmt.Errorf("update contact: %w", err)
	}

	s.logger.InfoContext(ctx, "contact updated",
		slog.String("user_id", userID),
		slog.String("contact_id", contactID),
	)

	return contact, nil
}

// Delete removes one of the user's contacts.
func (s *ContactService) Delete(ctx context.Context, userID, contactID string) error {
	if err := s.contactRepo.Delete(ctx, userID, contactID); err != nil {
		return fmt.Errorf("delete contact: %w", err)
	}

	s.logger.InfoContext(ctx, "contact deleted",
		slog.String("user_id", userID),
		slog.String("contact_id", contactID),
	)

	return nil
}

// Search returns the user's contacts matching the query by name or email.
func (s *ContactService) Search(ctx context.Context, userID, query string, params pagination.Params) (pagination.Result[domain.Contact], error) {
	if query == "" {
		return pagination.Result[domain.Contact]{}, apperrors.InvalidInput("search query is required")
	}

	contacts, total, err := s.contactRepo.Search(ctx, userID, query, params)
	if err != nil {
		return pagination.Result[domain.Contact]{}, fmt.Errorf("search contacts: %w", err)
	}
	return pagination.NewResult(contacts, int(total), params), nil
}

// UpcomingBirthdays returns contacts with a birthday in the next days.
func (s *ContactService) UpcomingBirthdays(ctx context.Context, userID string, days int) ([]domain.Contact, error) {
	if days < 1 || days > maxBirthdayWindow {
		return nil, apperrors.InvalidInput(fmt.Sprintf("days must be between 1 and %d", maxBirthdayWindow))
	}

	contacts, err := s.contactRepo.UpcomingBirthdays(ctx, userID, days)
	if err != nil {
		return nil, fmt.Errorf("upcoming birthdays: %w", err)
	}
	return contacts, nil
}
