package domain

import (
	"time"
)

// Contact represents one entry in a user's personal address book.
type Contact struct {
	ID             string     `json:"id"`
	UserID         string     `json:"user_id"`
	FirstName      string     `json:"first_name"`
	LastName       string     `json:"last_name"`
	Email          string     `json:"email,omitempty"`
	PhoneNumber    string     `json:"phone_number,omitempty"`
	Birthday       *time.Time `json:"birthday,omitempty"`
	AdditionalData string     `json:"additional_data,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
}

// FullName returns the contact's display name.
func (c *Contact) FullName() string {
	return c.FirstName + " " + c.LastName
}
