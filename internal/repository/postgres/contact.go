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
	"github.com/ovasylenko/contacthub/pkg/pagination"
)

const contactColumns = `id, user_id, first_name, last_name, COALESCE(email, ''), COALESCE(phone_number, ''), birthday, COALESCE(additional_data, ''), created_at, updated_at`

// ContactRepository implements repository.ContactRepository using PostgreSQL.
type ContactRepository struct {
	db database.DBTX
}

// NewContactRepository creates a new PostgreSQL-backed contact repository.
func NewContactRepository(db database.DBTX) *ContactRepository {
	return &ContactRepository{db: db}
}

// Create inserts a new contact into the database. Empty email and phone are
// stored as NULL so the per-owner uniqueness constraints ignore them.
func (r *ContactRepository) Create(ctx context.Context, c *domain.Contact) error {
	query := `
		INSERT INTO contacts (id, user_id, first_name, last_name, email, phone_number, birthday, additional_data, created_at, updated_at)
		VALUES ($1, $2, $3, $4, NULLIF($5, ''), NULLIF($6, ''), $7, $8, $9, $10)`

	_, err := r.db.Exec(ctx, query,
		c.ID,
		c.UserID,
		c.FirstName,
		c.LastName,
		c.Email,
		c.PhoneNumber,
		c.Birthday,
		c.AdditionalData,
		c.CreatedAt,
		c.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return apperrors.AlreadyExists("contact", "email", c.Email)
		}
		return fmt.Errorf("insert contact: %w", err)
	}

	return nil
}

// GetByID retrieves a contact owned by the given user.
func (r *ContactRepository) GetByID(ctx context.Context, userID, id string) (*domain.Contact, error) {
	query := fmt.Sprintf(`SELECT %s FROM contacts WHERE id = $1 AND user_id = $2`, contactColumns)

	var c domain.Contact
	err := r.db.QueryRow(ctx, query, id, userID).Scan(
		&c.ID,
		&c.UserID,
		&c.FirstName,
		&c.LastName,
		&c.Email,
		&c.PhoneNumber,
		&c.Birthday,
		&c.AdditionalData,
		&c.CreatedAt,
		&c.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("scan contact: %w", err)
	}

	return &c, nil
}

// ListByUser returns one page of the user's contacts plus the total count.
func (r *ContactRepository) ListByUser(ctx context.Context, userID string, params pagination.Params) ([]domain.Contact, int64, error) {
	var total int64
	if err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM contacts WHERE user_id = $1`, userID).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count contacts: %w", err)
	}

	query := fmt.Sprintf(`
		SELECT %s FROM contacts
		WHERE user_id = $1
		ORDER BY last_name, first_name
		LIMIT $2 OFFSET $3`, contactColumns)

	contacts, err := r.queryContacts(ctx, query, userID, params.PerPage, params.Offset)
	if err != nil {
		return nil, 0, err
	}

	return contacts, total, nil
}

// Update modifies an existing contact owned by the given user.
func (r *ContactRepository) Update(ctx context.Context, c *domain.Contact) error {
	c.UpdatedAt = time.Now().UTC()

	query := `
		UPDATE contacts
		SET first_name = $1, last_name = $2, email = NULLIF($3, ''), phone_number = NULLIF($4, ''),
		    birthday = $5, additional_data = $6, updated_at = $7
		WHERE id = $8 AND user_id = $9`

	ct, err := r.db.Exec(ctx, query,
		c.FirstName,
		c.LastName,
		c.Email,
		c.PhoneNumber,
		c.Birthday,
		c.AdditionalData,
		c.UpdatedAt,
		c.ID,
		c.UserID,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return apperrors.AlreadyExists("contact", "email", c.Email)
		}
		return fmt.Errorf("update contact: %w", err)
	}

	if ct.RowsAffected() == 0 {
		return apperrors.NotFound("contact", c.ID)
	}

	return nil
}

// Delete removes a contact owned by the given user.
func (r *ContactRepository) Delete(ctx context.Context, userID, id string) error {
	query := `DELETE FROM contacts WHERE id = $1 AND user_id = $2`

	ct, err := r.db.Exec(ctx, query, id, userID)
	if err != nil {
		return fmt.Errorf("delete contact: %w", err)
	}

	if ct.RowsAffected() == 0 {
		return apperrors.NotFound("contact", id)
	}

	return nil
}

// Search returns the user's contacts whose name or email contains the query.
func (r *ContactRepository) Search(ctx context.Context, userID, q string, params pagination.Params) ([]domain.Contact, int64, error) {
	pattern := "%" + q + "%"

	countQuery := `
		SELECT COUNT(*) FROM contacts
		WHERE user_id = $1
		  AND (first_name ILIKE $2 OR last_name ILIKE $2 OR first_name || ' ' || last_name ILIKE $2 OR email ILIKE $2)`

	var total int64
	if err := r.db.QueryRow(ctx, countQuery, userID, pattern).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count contact search: %w", err)
	}

	query := fmt.Sprintf(`
		SELECT %s FROM contacts
		WHERE user_id = $1
		  AND (first_name ILIKE $2 OR last_name ILIKE $2 OR first_name || ' ' || last_name ILIKE $2 OR email ILIKE $2)
		ORDER BY last_name, first_name
		LIMIT $3 OFFSET $4`, contactColumns)

	contacts, err := r.queryContacts(ctx, query, userID, pattern, params.PerPage, params.Offset)
	if err != nil {
		return nil, 0, err
	}

	return contacts, total, nil
}

// UpcomingBirthdays returns contacts with a birthday in the next N days,
// wrapping across the year boundary.
func (r *ContactRepository) UpcomingBirthdays(ctx context.Context, userID string, days int) ([]domain.Contact, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM contacts
		WHERE user_id = $1
		  AND birthday IS NOT NULL
		  AND (
		    (birthday + (date_part('year', age(birthday)) + 1) * INTERVAL '1 year')::date
		      BETWEEN CURRENT_DATE AND CURRENT_DATE + $2::int
		    OR (birthday + date_part('year', age(birthday)) * INTERVAL '1 year')::date
		      BETWEEN CURRENT_DATE AND CURRENT_DATE + $2::int
		  )
		ORDER BY last_name, first_name`, contactColumns)

	return r.queryContacts(ctx, query, userID, days)
}

func (r *ContactRepository) queryContacts(ctx context.Context, query string, args ...any) ([]domain.Contact, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query contacts: %w", err)
	}
	defer rows.Close()

	var contacts []domain.Contact
	for rows.Next() {
		var c domain.Contact
		if err := rows.Scan(
			&c.ID,
			&c.UserID,
			&c.FirstName,
			&c.LastName,
			&c.Email,
			&c.PhoneNumber,
			&c.Birthday,
			&c.AdditionalData,
			&c.CreatedAt,
			&c.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan contact row: %w", err)
		}
		contacts = append(contacts, c)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate contact rows: %w", err)
	}

	if contacts == nil {
		contacts = []domain.Contact{}
	}

	return contacts, nil
}
