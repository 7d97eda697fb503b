package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Integration connects an organization to an external channel or system.
// WhatsApp integrations carry the gateway instance name in Config; the
// webhook layer resolves the owning organization through it.
type Integration struct {
	ID             uuid.UUID       `db:"id"`
	OrganizationID uuid.UUID       `db:"organization_id"`
	Type           string          `db:"type"`
	Name           string          `db:"name"`
	Config         json.RawMessage `db:"config"`
	Status         string          `db:"status"`
	LastSyncAt     *time.Time      `db:"last_sync_at"`
	CreatedAt      time.Time       `db:"created_at"`
	UpdatedAt      time.Time       `db:"updated_at"`
}

// WhatsAppConfig is the Config payload for type=whatsapp integrations.
type WhatsAppConfig struct {
	Instance string `json:"instance"`
}
