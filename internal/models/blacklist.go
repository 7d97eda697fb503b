package models

import (
	"time"

	"github.com/google/uuid"
)

// Blacklist is a named set of phone numbers an organization refuses to serve.
// Numbers behave as a set: adds suppress duplicates, removes of absent
// numbers are no-ops.
type Blacklist struct {
	ID             uuid.UUID `db:"id"`
	OrganizationID uuid.UUID `db:"organization_id"`
	Name           string    `db:"name"`
	Description    string    `db:"description"`
	PhoneNumbers   []string  `db:"phone_numbers"`
	CreatedAt      time.Time `db:"created_at"`
	UpdatedAt      time.Time `db:"updated_at"`
}
