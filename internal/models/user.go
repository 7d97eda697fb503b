package models

import (
	"time"

	"github.com/google/uuid"
)

// User is a dashboard operator account, always owned by one organization.
type User struct {
	ID             uuid.UUID `db:"id"`
	OrganizationID uuid.UUID `db:"organization_id"`
	Username       string    `db:"username"`
	Email          string    `db:"email"`
	Password       string    `db:"password"`
	CreatedAt      time.Time `db:"created_at"`
	UpdatedAt      time.Time `db:"updated_at"`
}

// Organization is the tenant boundary: every persisted entity belongs to
// exactly one organization and every query is scoped by its id.
type Organization struct {
	ID        uuid.UUID `db:"id"`
	Name      string    `db:"name"`
	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`
}
