package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/ovasylenko/contacthub/internal/domain"
	apperrors "github.com/ovasylenko/contacthub/pkg/errors"
	"github.com/ovasylenko/contacthub/pkg/pagination"
)

// --- Mock Contact Repository ---

type mockContactRepository struct {
	mock.Mock
}

func (m *mockContactRepository) Create(ctx context.Context, contact *domain.Contact) error {
	args := m.Called(ctx, contact)
	return args.Error(0)
}

func (m *mockContactRepository) GetByID(ctx context.Context, userID, id string) (*domain.Contact, error) {
	args := m.Called(ctx, userID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Contact), args.Error(1)
}

func (m *mockContactRepository) ListByUser(ctx context.Context, userID string, params pagination.Params) ([]domain.Contact, int64, error) {
	args := m.Called(ctx, userID, params)
	return args.Get(0).([]domain.Contact), args.Get(1).(int64), args.Error(2)
}

func (m *mockContactRepository) Update(ctx context.Context, contact *domain.Contact) error {
	args := m.Called(ctx, contact)
	return args.Error(0)
}

func (m *mockContactRepository) Delete(ctx context.Context, userID, id string) error {
	args := m.Called(ctx, userID, id)
	return args.Error(0)
}

func (m *mockContactRepository) Search(ctx context.Context, userID, query string, params pagination.Params) ([]domain.Contact, int64, error) {
	args := m.Called(ctx, userID, query, params)
	return args.Get(0).([]domain.Contact), args.Get(1).(int64), args.Error(2)
}

func (m *mockContactRepository) UpcomingBirthdays(ctx context.Context, userID string, days int) ([]domain.Contact, error) {
	args := m.Called(ctx, userID, days)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Contact), args.Error(1)
}

func newTestContactService(repo *mockContactRepository) *ContactService {
	return NewContactService(repo, newTestLogger())
}

func strPtr(s string) *string {
	return &s
}

// --- Tests ---

func TestContactCreate_Success(t *testing.T) {
	repo := new(mockContactRepository)
	svc := newTestContactService(repo)

	var created *domain.Contact
	repo.On("Create", mock.Anything, mock.AnythingOfType("*domain.Contact")).
		Run(func(args mock.Arguments) {
			created = args.Get(1).(*domain.Contact)
		}).
		Return(nil)

	contact, err := svc.Create(context.Background(), "user-1", ContactInput{
		FirstName:   "Bob",
		LastName:    "Jones",
		Email:       "bob@example.com",
		PhoneNumber: "+380501234567",
	})

	require.NoError(t, err)
	assert.NotEmpty(t, contact.ID)
	assert.Equal(t, "user-1", contact.UserID)
	require.NotNil(t, created)
	assert.Equal(t, contact.ID, created.ID)
}

func TestContactCreate_MissingName(t *testing.T) {
	repo := new(mockContactRepository)
	svc := newTestContactService(repo)

	_, err := svc.Create(context.Background(), "user-1", ContactInput{LastName: "Jones"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperrors.ErrInvalidInput))

	_, err = svc.Create(context.Background(), "user-1", ContactInput{FirstName: "Bob"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperrors.ErrInvalidInput))

	repo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestContactGet_NotFound(t *testing.T) {
	repo := new(mockContactRepository)
	svc := newTestContactService(repo)

	repo.On("GetByID", mock.Anything, "user-1", "c-1").Return(nil, apperrors.ErrNotFound)

	_, err := svc.Get(context.Background(), "user-1", "c-1")
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperrors.ErrNotFound))
}

func TestContactList_ReturnsPageMetadata(t *testing.T) {
	repo := new(mockContactRepository)
	svc := newTestContactService(repo)

	params := pagination.Params{Page: 2, PerPage: 10, Offset: 10}
	contacts := []domain.Contact{{ID: "c-1"}, {ID: "c-2"}}
	repo.On("ListByUser", mock.Anything, "user-1", params).Return(contacts, int64(25), nil)

	result, err := svc.List(context.Background(), "user-1", params)
	require.NoError(t, err)
	assert.Len(t, result.Data, 2)
	assert.Equal(t, 25, result.TotalCount)
	assert.Equal(t, 2, result.Page)
}

func TestContactUpdate_PartialFields(t *testing.T) {
	repo := new(mockContactRepository)
	svc := newTestContactService(repo)

	existing := &domain.Contact{
		ID:          "c-1",
		UserID:      "user-1",
		FirstName:   "Bob",
		LastName:    "Jones",
		Email:       "bob@example.com",
		PhoneNumber: "+380501234567",
	}
	repo.On("GetByID", mock.Anything, "user-1", "c-1").Return(existing, nil)

	var updated *domain.Contact
	repo.On("Update", mock.Anything, mock.AnythingOfType("*domain.Contact")).
		Run(func(args mock.Arguments) {
			updated = args.Get(1).(*domain.Contact)
		}).
		Return(nil)

	contact, err := svc.Update(context.Background(), "user-1", "c-1", UpdateContactInput{
		Email: strPtr("robert@example.com"),
	})

	require.NoError(t, err)
	assert.Equal(t, "robert@example.com", contact.Email)
	// Untouched fields survive a partial update.
	assert.Equal(t, "Bob", contact.FirstName)
	assert.Equal(t, "+380501234567", contact.PhoneNumber)
	require.NotNil(t, updated)
	assert.Equal(t, "robert@example.com", updated.Email)
}

func TestContactUpdate_EmptyNameRejected(t *testing.T) {
	repo := new(mockContactRepository)
	svc := newTestContactService(repo)

	existing := &domain.Contact{ID: "c-1", UserID: "user-1", FirstName: "Bob", LastName: "Jones"}
	repo.On("GetByID", mock.Anything, "user-1", "c-1").Return(existing, nil)

	_, err := svc.Update(context.Background(), "user-1", "c-1", UpdateContactInput{
		FirstName: strPtr(""),
	})

	require.Error(t, err)
	assert.True(t, errors.Is(err, apperrors.ErrInvalidInput))
	repo.AssertNotCalled(t, "Update", mock.Anything, mock.Anything)
}

func TestContactDelete_Success(t *testing.T) {
	repo := new(mockContactRepository)
	svc := newTestContactService(repo)

	repo.On("Delete", mock.Anything, "user-1", "c-1").Return(nil)

	err := svc.Delete(context.Background(), "user-1", "c-1")
	assert.NoError(t, err)
	repo.AssertExpectations(t)
}

func TestContactSearch_EmptyQueryRejected(t *testing.T) {
	repo := new(mockContactRepository)
	svc := newTestContactService(repo)

	_, err := svc.Search(context.Background(), "user-1", "", pagination.Params{Page: 1, PerPage: 20})
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperrors.ErrInvalidInput))
	repo.AssertNotCalled(t, "Search", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestContactSearch_Success(t *testing.T) {
	repo := new(mockContactRepository)
	svc := newTestContactService(repo)

	params := pagination.Params{Page: 1, PerPage: 20}
	repo.On("Search", mock.Anything, "user-1", "bob", params).
		Return([]domain.Contact{{ID: "c-1", FirstName: "Bob"}}, int64(1), nil)

	result, err := svc.Search(context.Background(), "user-1", "bob", params)
	require.NoError(t, err)
	assert.Len(t, result.Data, 1)
	assert.Equal(t, 1, result.TotalCount)
}

func TestUpcomingBirthdays_WindowBounds(t *testing.T) {
	repo := new(mockContactRepository)
	svc := newTestContactService(repo)

	for _, days := range []int{0, -1, 367} {
		_, err := svc.UpcomingBirthdays(context.Background(), "user-1", days)
		require.Error(t, err)
		assert.True(t, errors.Is(err, apperrors.ErrInvalidInput))
	}

	repo.AssertNotCalled(t, "UpcomingBirthdays", mock.Anything, mock.Anything, mock.Anything)
}

func TestUpcomingBirthdays_Success(t *testing.T) {
	repo := new(mockContactRepository)
	svc := newTestContactService(repo)

	birthday := time.Date(1990, 6, 15, 0, 0, 0, 0, time.UTC)
	repo.On("UpcomingBirthdays", mock.Anything, "user-1", 7).
		Return([]domain.Contact{{ID: "c-1", Birthday: &birthday}}, nil)

	contacts, err := svc.UpcomingBirthdays(context.Background(), "user-1", 7)
	require.NoError(t, err)
	require.Len(t, contacts, 1)
}
