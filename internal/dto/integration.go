package dto

import "encoding/json"

type CreateIntegrationRequest struct {
	Type   string          `json:"type" validate:"required,oneof=whatsapp telegram webchat"`
	Name   string          `json:"name" validate:"required"`
	Config json.RawMessage `json:"config"`
}

type UpdateIntegrationRequest struct {
	Name   string          `json:"name" validate:"required"`
	Config json.RawMessage `json:"config"`
	Status string          `json:"status" validate:"required,oneof=active inactive"`
}

type IntegrationResponse struct {
	ID         string          `json:"id"`
	Type       string          `json:"type"`
	Name       string          `json:"name"`
	Config     json.RawMessage `json:"config"`
	Status     string          `json:"status"`
	LastSyncAt string          `json:"last_sync_at,omitempty"`
	CreatedAt  string          `json:"created_at"`
	UpdatedAt  string          `json:"updated_at"`
}
