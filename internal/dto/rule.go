package dto

import "encoding/json"

type CreateRuleRequest struct {
	Name            string          `json:"name" validate:"required"`
	Description     string          `json:"description"`
	ConditionType   string          `json:"condition_type" validate:"required,oneof=blacklist vip keyword time sentiment"`
	ConditionConfig json.RawMessage `json:"condition_config"`
	ActionType      string          `json:"action_type" validate:"required,oneof=block transfer continue"`
	ActionConfig    json.RawMessage `json:"action_config"`
	Priority        int             `json:"priority"`
	IsActive        *bool           `json:"is_active"`
}

type UpdateRuleRequest struct {
	Name            string          `json:"name" validate:"required"`
	Description     string          `json:"description"`
	ConditionType   string          `json:"condition_type" validate:"required"`
	ConditionConfig json.RawMessage `json:"condition_config"`
	ActionType      string          `json:"action_type" validate:"required"`
	ActionConfig    json.RawMessage `json:"action_config"`
	Priority        int             `json:"priority"`
}

type RuleResponse struct {
	ID              string          `json:"id"`
	Name            string          `json:"name"`
	Description     string          `json:"description"`
	ConditionType   string          `json:"condition_type"`
	ConditionConfig json.RawMessage `json:"condition_config"`
	ActionType      string          `json:"action_type"`
	ActionConfig    json.RawMessage `json:"action_config"`
	Priority        int             `json:"priority"`
	IsActive        bool            `json:"is_active"`
	CreatedAt       string          `json:"created_at"`
	UpdatedAt       string          `json:"updated_at"`
}

type ToggleRuleResponse struct {
	ID       string `json:"id"`
	IsActive bool   `json:"is_active"`
}

type CreateBlacklistRequest struct {
	Name         string   `json:"name" validate:"required"`
	Description  string   `json:"description"`
	PhoneNumbers []string `json:"phone_numbers"`
}

type BlacklistNumberRequest struct {
	PhoneNumber string `json:"phone_number" validate:"required"`
}

type BlacklistResponse struct {
	ID           string   `json:"id"`
	Name         string   `json:"name"`
	Description  string   `json:"description"`
	PhoneNumbers []string `json:"phone_numbers"`
	CreatedAt    string   `json:"created_at"`
	UpdatedAt    string   `json:"updated_at"`
}

type EvaluateMessageRequest struct {
	PhoneNumber string `json:"phone_number" validate:"required"`
	Message     string `json:"message" validate:"required"`
}

type EvaluateMessageResponse struct {
	Action       string          `json:"action"`
	ActionConfig json.RawMessage `json:"action_config,omitempty"`
	RuleName     string          `json:"rule_name,omitempty"`
	Context      map[string]any  `json:"context,omitempty"`
}
