package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"nexa/internal/dto"
	"nexa/internal/models"
	"nexa/internal/repository"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ErrInvalidRule marks a rule payload the engine could never evaluate.
var ErrInvalidRule = errors.New("invalid rule")

// RuleService owns the lifecycle of business rules and blacklists. Condition
// configs are validated on write so the engine only ever loads parseable
// rules.
type RuleService struct {
	ruleRepo      *repository.RuleRepository
	blacklistRepo *repository.BlacklistRepository
	logger        *zap.Logger
}

func NewRuleService(ruleRepo *repository.RuleRepository, blacklistRepo *repository.BlacklistRepository, logger *zap.Logger) *RuleService {
	return &RuleService{
		ruleRepo:      ruleRepo,
		blacklistRepo: blacklistRepo,
		logger:        logger,
	}
}

func (s *RuleService) CreateRule(ctx context.Context, organizationID uuid.UUID, req *dto.CreateRuleRequest) (*models.BusinessRule, error) {
	if !models.ValidConditionType(req.ConditionType) {
		return nil, fmt.Errorf("%w: unknown condition type %q", ErrInvalidRule, req.ConditionType)
	}
	if !models.ValidActionType(req.ActionType) {
		return nil, fmt.Errorf("%w: unknown action type %q", ErrInvalidRule, req.ActionType)
	}
	if _, err := models.ParseCondition(models.ConditionType(req.ConditionType), req.ConditionConfig); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidRule, err)
	}

	isActive := true
	if req.IsActive != nil {
		isActive = *req.IsActive
	}

	now := time.Now()
	rule := &models.BusinessRule{
		ID:              uuid.New(),
		OrganizationID:  organizationID,
		Name:            req.Name,
		Description:     req.Description,
		ConditionType:   models.ConditionType(req.ConditionType),
		ConditionConfig: req.ConditionConfig,
		ActionType:      models.ActionType(req.ActionType),
		ActionConfig:    req.ActionConfig,
		Priority:        req.Priority,
		IsActive:        isActive,
		CreatedAt:       now,
		UpdatedAt:       now,
	}

	if err := s.ruleRepo.Create(ctx, rule); err != nil {
		return nil, err
	}

	s.logger.Info("Rule created",
		zap.String("rule_id", rule.ID.String()),
		zap.String("name", rule.Name),
		zap.String("condition", string(rule.ConditionType)),
	)

	return rule, nil
}

func (s *RuleService) ListRules(ctx context.Context, organizationID uuid.UUID) ([]*models.BusinessRule, error) {
	return s.ruleRepo.ListByOrganization(ctx, organizationID)
}

func (s *RuleService) GetRule(ctx context.Context, organizationID, id uuid.UUID) (*models.BusinessRule, error) {
	return s.ruleRepo.GetByID(ctx, organizationID, id)
}

func (s *RuleService) UpdateRule(ctx context.Context, organizationID, id uuid.UUID, req *dto.UpdateRuleRequest) (*models.BusinessRule, error) {
	rule, err := s.ruleRepo.GetByID(ctx, organizationID, id)
	if err != nil {
		return nil, err
	}

	if !models.ValidConditionType(req.ConditionType) {
		return nil, fmt.Errorf("%w: unknown condition type %q", ErrInvalidRule, req.ConditionType)
	}
	if !models.ValidActionType(req.ActionType) {
		return nil, fmt.Errorf("%w: unknown action type %q", ErrInvalidRule, req.ActionType)
	}
	if _, err := models.ParseCondition(models.ConditionType(req.ConditionType), req.ConditionConfig); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidRule, err)
	}

	rule.Name = req.Name
	rule.Description = req.Description
	rule.ConditionType = models.ConditionType(req.ConditionType)
	rule.ConditionConfig = req.ConditionConfig
	rule.ActionType = models.ActionType(req.ActionType)
	rule.ActionConfig = req.ActionConfig
	rule.Priority = req.Priority
	rule.UpdatedAt = time.Now()

	if err := s.ruleRepo.Update(ctx, rule); err != nil {
		return nil, err
	}

	return rule, nil
}

func (s *RuleService) ToggleRule(ctx context.Context, organizationID, id uuid.UUID) (bool, error) {
	return s.ruleRepo.Toggle(ctx, organizationID, id)
}

func (s *RuleService) DeleteRule(ctx context.Context, organizationID, id uuid.UUID) error {
	return s.ruleRepo.Delete(ctx, organizationID, id)
}

func (s *RuleService) CreateBlacklist(ctx context.Context, organizationID uuid.UUID, req *dto.CreateBlacklistRequest) (*models.Blacklist, error) {
	now := time.Now()
	bl := &models.Blacklist{
		ID:             uuid.New(),
		OrganizationID: organizationID,
		Name:           req.Name,
		Description:    req.Description,
		PhoneNumbers:   dedupe(req.PhoneNumbers),
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	if err := s.blacklistRepo.Create(ctx, bl); err != nil {
		return nil, err
	}

	return bl, nil
}

func (s *RuleService) ListBlacklists(ctx context.Context, organizationID uuid.UUID) ([]*models.Blacklist, error) {
	return s.blacklistRepo.ListByOrganization(ctx, organizationID)
}

func (s *RuleService) GetBlacklist(ctx context.Context, organizationID, id uuid.UUID) (*models.Blacklist, error) {
	return s.blacklistRepo.GetByID(ctx, organizationID, id)
}

// AddBlacklistNumber adds a number to the list. Adding an already listed
// number is a no-op and returns the unchanged set.
func (s *RuleService) AddBlacklistNumber(ctx context.Context, organizationID, id uuid.UUID, phoneNumber string) ([]string, error) {
	return s.blacklistRepo.AddNumber(ctx, organizationID, id, phoneNumber)
}

func (s *RuleService) RemoveBlacklistNumber(ctx context.Context, organizationID, id uuid.UUID, phoneNumber string) ([]string, error) {
	return s.blacklistRepo.RemoveNumber(ctx, organizationID, id, phoneNumber)
}

func (s *RuleService) DeleteBlacklist(ctx context.Context, organizationID, id uuid.UUID) error {
	return s.blacklistRepo.Delete(ctx, organizationID, id)
}

func dedupe(values []string) []string {
	seen := make(map[string]bool, len(values))
	var out []string
	for _, v := range values {
		if v == "" || seen[v] {
			continue
		}
		seen[v] = true
		out = append(out, v)
	}
	return out
}
