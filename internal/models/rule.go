package models

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

type ConditionType string

const (
	ConditionBlacklist ConditionType = "blacklist"
	ConditionVIP       ConditionType = "vip"
	ConditionKeyword   ConditionType = "keyword"
	ConditionTime      ConditionType = "time"
	ConditionSentiment ConditionType = "sentiment"
)

type ActionType string

const (
	ActionBlock    ActionType = "block"
	ActionTransfer ActionType = "transfer"
	ActionContinue ActionType = "continue"
)

// BusinessRule decides how an inbound message is handled. Active rules are
// evaluated in descending priority order; the first matching condition wins.
type BusinessRule struct {
	ID              uuid.UUID       `db:"id"`
	OrganizationID  uuid.UUID       `db:"organization_id"`
	Name            string          `db:"name"`
	Description     string          `db:"description"`
	ConditionType   ConditionType   `db:"condition_type"`
	ConditionConfig json.RawMessage `db:"condition_config"`
	ActionType      ActionType      `db:"action_type"`
	ActionConfig    json.RawMessage `db:"action_config"`
	Priority        int             `db:"priority"`
	IsActive        bool            `db:"is_active"`
	CreatedAt       time.Time       `db:"created_at"`
	UpdatedAt       time.Time       `db:"updated_at"`
}

// Condition is the closed set of rule condition kinds. Adding a kind means
// adding a case to ParseCondition and to the engine's evaluate switch.
type Condition interface {
	conditionType() ConditionType
}

// BlacklistCondition matches when the sender appears in any of the
// organization's blacklists. It carries no parameters.
type BlacklistCondition struct{}

// VIPCondition matches when any prior conversation of the sender carries one
// of the configured tags.
type VIPCondition struct {
	Tags []string `json:"tags"`
}

// KeywordCondition matches when any keyword occurs in the message
// (case-insensitive substring).
type KeywordCondition struct {
	Keywords []string `json:"keywords"`
}

// TimeCondition matches when the current time falls outside the configured
// business-hours window. Start > End describes an overnight window.
type TimeCondition struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

// SentimentCondition matches when the classified sentiment equals the target
// label with at least the configured confidence.
type SentimentCondition struct {
	Sentiment string  `json:"sentiment"`
	Threshold float64 `json:"threshold"`
}

func (BlacklistCondition) conditionType() ConditionType { return ConditionBlacklist }
func (VIPCondition) conditionType() ConditionType       { return ConditionVIP }
func (KeywordCondition) conditionType() ConditionType   { return ConditionKeyword }
func (TimeCondition) conditionType() ConditionType      { return ConditionTime }
func (SentimentCondition) conditionType() ConditionType { return ConditionSentiment }

// ParseCondition decodes a rule's condition config into its typed form,
// applying documented defaults. Malformed configs fail here, at load time,
// not during evaluation.
func ParseCondition(conditionType ConditionType, config json.RawMessage) (Condition, error) {
	if len(config) == 0 {
		config = json.RawMessage("{}")
	}

	switch conditionType {
	case ConditionBlacklist:
		return BlacklistCondition{}, nil

	case ConditionVIP:
		var cond VIPCondition
		if err := json.Unmarshal(config, &cond); err != nil {
			return nil, fmt.Errorf("invalid vip condition config: %w", err)
		}
		if len(cond.Tags) == 0 {
			cond.Tags = []string{"vip", "premium"}
		}
		return cond, nil

	case ConditionKeyword:
		var cond KeywordCondition
		if err := json.Unmarshal(config, &cond); err != nil {
			return nil, fmt.Errorf("invalid keyword condition config: %w", err)
		}
		if len(cond.Keywords) == 0 {
			return nil, fmt.Errorf("keyword condition requires at least one keyword")
		}
		return cond, nil

	case ConditionTime:
		cond := TimeCondition{Start: "08:00", End: "18:00"}
		if err := json.Unmarshal(config, &cond); err != nil {
			return nil, fmt.Errorf("invalid time condition config: %w", err)
		}
		if _, err := ParseClock(cond.Start); err != nil {
			return nil, fmt.Errorf("invalid time condition start: %w", err)
		}
		if _, err := ParseClock(cond.End); err != nil {
			return nil, fmt.Errorf("invalid time condition end: %w", err)
		}
		return cond, nil

	case ConditionSentiment:
		cond := SentimentCondition{Sentiment: "negative", Threshold: 0.7}
		if err := json.Unmarshal(config, &cond); err != nil {
			return nil, fmt.Errorf("invalid sentiment condition config: %w", err)
		}
		return cond, nil
	}

	return nil, fmt.Errorf("unknown condition type %q", conditionType)
}

// Condition returns the rule's typed condition.
func (r *BusinessRule) Condition() (Condition, error) {
	return ParseCondition(r.ConditionType, r.ConditionConfig)
}

// ParseClock parses an "HH:MM" value into minutes since midnight.
func ParseClock(value string) (int, error) {
	t, err := time.Parse("15:04", value)
	if err != nil {
		return 0, fmt.Errorf("expected HH:MM, got %q", value)
	}
	return t.Hour()*60 + t.Minute(), nil
}

// ValidConditionType reports whether the value names a known condition kind.
func ValidConditionType(v string) bool {
	switch ConditionType(v) {
	case ConditionBlacklist, ConditionVIP, ConditionKeyword, ConditionTime, ConditionSentiment:
		return true
	}
	return false
}

// ValidActionType reports whether the value names a known action kind.
func ValidActionType(v string) bool {
	switch ActionType(v) {
	case ActionBlock, ActionTransfer, ActionContinue:
		return true
	}
	return false
}

// RuleEvaluationResult is the outcome of evaluating an organization's rules
// against one message. It is consumed immediately and never persisted.
type RuleEvaluationResult struct {
	Action       ActionType      `json:"action"`
	ActionConfig json.RawMessage `json:"action_config,omitempty"`
	RuleName     string          `json:"rule_name,omitempty"`
	Context      map[string]any  `json:"context"`
}
