package handlers

import (
	"context"
	"errors"
	"time"

	"nexa/internal/dto"
	"nexa/internal/models"
	"nexa/internal/repository"
	"nexa/internal/service"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type RuleHandler struct {
	ruleService *service.RuleService
	engine      *service.RulesEngine
	logger      *zap.Logger
}

func NewRuleHandler(ruleService *service.RuleService, engine *service.RulesEngine, logger *zap.Logger) *RuleHandler {
	return &RuleHandler{
		ruleService: ruleService,
		engine:      engine,
		logger:      logger,
	}
}

// CreateRule godoc
// @Summary Create a business rule
// @Tags rules
// @Accept json
// @Produce json
// @Param request body dto.CreateRuleRequest true "Rule definition"
// @Security Bearer
// @Success 201 {object} dto.RuleResponse
// @Failure 400 {object} map[string]string
// @Router /api/rules [post]
func (h *RuleHandler) CreateRule(c *fiber.Ctx) error {
	organizationID, err := getOrganizationID(c)
	if err != nil {
		return unauthorized(c)
	}

	var req dto.CreateRuleRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}
	if req.Name == "" {
		return badRequest(c, "Name is required")
	}

	rule, err := h.ruleService.CreateRule(c.Context(), organizationID, &req)
	if err != nil {
		if errors.Is(err, service.ErrInvalidRule) {
			return badRequest(c, err.Error())
		}
		h.logger.Error("Failed to create rule", zap.Error(err))
		return internalError(c, "Failed to create rule")
	}

	return c.Status(fiber.StatusCreated).JSON(ruleResponse(rule))
}

// ListRules godoc
// @Summary List business rules
// @Tags rules
// @Produce json
// @Security Bearer
// @Success 200 {array} dto.RuleResponse
// @Router /api/rules [get]
func (h *RuleHandler) ListRules(c *fiber.Ctx) error {
	organizationID, err := getOrganizationID(c)
	if err != nil {
		return unauthorized(c)
	}

	rules, err := h.ruleService.ListRules(c.Context(), organizationID)
	if err != nil {
		h.logger.Error("Failed to list rules", zap.Error(err))
		return internalError(c, "Failed to list rules")
	}

	resp := make([]dto.RuleResponse, 0, len(rules))
	for _, rule := range rules {
		resp = append(resp, ruleResponse(rule))
	}
	return c.JSON(resp)
}

// GetRule godoc
// @Summary Get one business rule
// @Tags rules
// @Produce json
// @Param id path string true "Rule ID"
// @Security Bearer
// @Success 200 {object} dto.RuleResponse
// @Failure 404 {object} map[string]string
// @Router /api/rules/{id} [get]
func (h *RuleHandler) GetRule(c *fiber.Ctx) error {
	organizationID, err := getOrganizationID(c)
	if err != nil {
		return unauthorized(c)
	}
	id, err := parseIDParam(c, "id")
	if err != nil {
		return badRequest(c, "Invalid rule id")
	}

	rule, err := h.ruleService.GetRule(c.Context(), organizationID, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return notFound(c, "Rule not found")
		}
		h.logger.Error("Failed to get rule", zap.Error(err))
		return internalError(c, "Failed to get rule")
	}

	return c.JSON(ruleResponse(rule))
}

// UpdateRule godoc
// @Summary Update a business rule
// @Tags rules
// @Accept json
// @Produce json
// @Param id path string true "Rule ID"
// @Param request body dto.UpdateRuleRequest true "Rule definition"
// @Security Bearer
// @Success 200 {object} dto.RuleResponse
// @Failure 400 {object} map[string]string
// @Failure 404 {object} map[string]string
// @Router /api/rules/{id} [put]
func (h *RuleHandler) UpdateRule(c *fiber.Ctx) error {
	organizationID, err := getOrganizationID(c)
	if err != nil {
		return unauthorized(c)
	}
	id, err := parseIDParam(c, "id")
	if err != nil {
		return badRequest(c, "Invalid rule id")
	}

	var req dto.UpdateRuleRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}

	rule, err := h.ruleService.UpdateRule(c.Context(), organizationID, id, &req)
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrNotFound):
			return notFound(c, "Rule not found")
		case errors.Is(err, service.ErrInvalidRule):
			return badRequest(c, err.Error())
		}
		h.logger.Error("Failed to update rule", zap.Error(err))
		return internalError(c, "Failed to update rule")
	}

	return c.JSON(ruleResponse(rule))
}

// ToggleRule godoc
// @Summary Toggle a rule's active flag
// @Tags rules
// @Produce json
// @Param id path string true "Rule ID"
// @Security Bearer
// @Success 200 {object} dto.ToggleRuleResponse
// @Failure 404 {object} map[string]string
// @Router /api/rules/{id}/toggle [post]
func (h *RuleHandler) ToggleRule(c *fiber.Ctx) error {
	organizationID, err := getOrganizationID(c)
	if err != nil {
		return unauthorized(c)
	}
	id, err := parseIDParam(c, "id")
	if err != nil {
		return badRequest(c, "Invalid rule id")
	}

	isActive, err := h.ruleService.ToggleRule(c.Context(), organizationID, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return notFound(c, "Rule not found")
		}
		h.logger.Error("Failed to toggle rule", zap.Error(err))
		return internalError(c, "Failed to toggle rule")
	}

	return c.JSON(dto.ToggleRuleResponse{ID: id.String(), IsActive: isActive})
}

// DeleteRule godoc
// @Summary Delete a business rule
// @Tags rules
// @Param id path string true "Rule ID"
// @Security Bearer
// @Success 204
// @Failure 404 {object} map[string]string
// @Router /api/rules/{id} [delete]
func (h *RuleHandler) DeleteRule(c *fiber.Ctx) error {
	organizationID, err := getOrganizationID(c)
	if err != nil {
		return unauthorized(c)
	}
	id, err := parseIDParam(c, "id")
	if err != nil {
		return badRequest(c, "Invalid rule id")
	}

	if err := h.ruleService.DeleteRule(c.Context(), organizationID, id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return notFound(c, "Rule not found")
		}
		h.logger.Error("Failed to delete rule", zap.Error(err))
		return internalError(c, "Failed to delete rule")
	}

	return c.SendStatus(fiber.StatusNoContent)
}

// EvaluateMessage godoc
// @Summary Dry-run the rule engine against a message
// @Tags rules
// @Accept json
// @Produce json
// @Param request body dto.EvaluateMessageRequest true "Message to evaluate"
// @Security Bearer
// @Success 200 {object} dto.EvaluateMessageResponse
// @Failure 400 {object} map[string]string
// @Router /api/rules/evaluate [post]
func (h *RuleHandler) EvaluateMessage(c *fiber.Ctx) error {
	organizationID, err := getOrganizationID(c)
	if err != nil {
		return unauthorized(c)
	}

	var req dto.EvaluateMessageRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}
	if req.PhoneNumber == "" || req.Message == "" {
		return badRequest(c, "phone_number and message are required")
	}

	result, err := h.engine.Evaluate(c.Context(), organizationID, req.PhoneNumber, req.Message)
	if err != nil {
		h.logger.Error("Rule evaluation failed", zap.Error(err))
		return internalError(c, "Evaluation failed")
	}

	return c.JSON(dto.EvaluateMessageResponse{
		Action:       string(result.Action),
		ActionConfig: result.ActionConfig,
		RuleName:     result.RuleName,
		Context:      result.Context,
	})
}

// CreateBlacklist godoc
// @Summary Create a blacklist
// @Tags blacklists
// @Accept json
// @Produce json
// @Param request body dto.CreateBlacklistRequest true "Blacklist definition"
// @Security Bearer
// @Success 201 {object} dto.BlacklistResponse
// @Failure 400 {object} map[string]string
// @Router /api/rules/blacklists [post]
func (h *RuleHandler) CreateBlacklist(c *fiber.Ctx) error {
	organizationID, err := getOrganizationID(c)
	if err != nil {
		return unauthorized(c)
	}

	var req dto.CreateBlacklistRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}
	if req.Name == "" {
		return badRequest(c, "Name is required")
	}

	bl, err := h.ruleService.CreateBlacklist(c.Context(), organizationID, &req)
	if err != nil {
		h.logger.Error("Failed to create blacklist", zap.Error(err))
		return internalError(c, "Failed to create blacklist")
	}

	return c.Status(fiber.StatusCreated).JSON(blacklistResponse(bl))
}

// ListBlacklists godoc
// @Summary List blacklists
// @Tags blacklists
// @Produce json
// @Security Bearer
// @Success 200 {array} dto.BlacklistResponse
// @Router /api/rules/blacklists [get]
func (h *RuleHandler) ListBlacklists(c *fiber.Ctx) error {
	organizationID, err := getOrganizationID(c)
	if err != nil {
		return unauthorized(c)
	}

	lists, err := h.ruleService.ListBlacklists(c.Context(), organizationID)
	if err != nil {
		h.logger.Error("Failed to list blacklists", zap.Error(err))
		return internalError(c, "Failed to list blacklists")
	}

	resp := make([]dto.BlacklistResponse, 0, len(lists))
	for _, bl := range lists {
		resp = append(resp, blacklistResponse(bl))
	}
	return c.JSON(resp)
}

// AddBlacklistNumber godoc
// @Summary Add a phone number to a blacklist
// @Tags blacklists
// @Accept json
// @Produce json
// @Param id path string true "Blacklist ID"
// @Param request body dto.BlacklistNumberRequest true "Phone number"
// @Security Bearer
// @Success 200 {object} map[string][]string
// @Failure 404 {object} map[string]string
// @Router /api/rules/blacklists/{id}/numbers [post]
func (h *RuleHandler) AddBlacklistNumber(c *fiber.Ctx) error {
	return h.mutateBlacklistNumbers(c, h.ruleService.AddBlacklistNumber)
}

// RemoveBlacklistNumber godoc
// @Summary Remove a phone number from a blacklist
// @Tags blacklists
// @Accept json
// @Produce json
// @Param id path string true "Blacklist ID"
// @Param request body dto.BlacklistNumberRequest true "Phone number"
// @Security Bearer
// @Success 200 {object} map[string][]string
// @Failure 404 {object} map[string]string
// @Router /api/rules/blacklists/{id}/numbers [delete]
func (h *RuleHandler) RemoveBlacklistNumber(c *fiber.Ctx) error {
	return h.mutateBlacklistNumbers(c, h.ruleService.RemoveBlacklistNumber)
}

// DeleteBlacklist godoc
// @Summary Delete a blacklist
// @Tags blacklists
// @Param id path string true "Blacklist ID"
// @Security Bearer
// @Success 204
// @Failure 404 {object} map[string]string
// @Router /api/rules/blacklists/{id} [delete]
func (h *RuleHandler) DeleteBlacklist(c *fiber.Ctx) error {
	organizationID, err := getOrganizationID(c)
	if err != nil {
		return unauthorized(c)
	}
	id, err := parseIDParam(c, "id")
	if err != nil {
		return badRequest(c, "Invalid blacklist id")
	}

	if err := h.ruleService.DeleteBlacklist(c.Context(), organizationID, id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return notFound(c, "Blacklist not found")
		}
		h.logger.Error("Failed to delete blacklist", zap.Error(err))
		return internalError(c, "Failed to delete blacklist")
	}

	return c.SendStatus(fiber.StatusNoContent)
}

func (h *RuleHandler) mutateBlacklistNumbers(c *fiber.Ctx, op func(ctx context.Context, organizationID, id uuid.UUID, phoneNumber string) ([]string, error)) error {
	organizationID, err := getOrganizationID(c)
	if err != nil {
		return unauthorized(c)
	}
	id, err := parseIDParam(c, "id")
	if err != nil {
		return badRequest(c, "Invalid blacklist id")
	}

	var req dto.BlacklistNumberRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}
	if req.PhoneNumber == "" {
		return badRequest(c, "phone_number is required")
	}

	numbers, err := op(c.Context(), organizationID, id, req.PhoneNumber)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return notFound(c, "Blacklist not found")
		}
		h.logger.Error("Failed to update blacklist numbers", zap.Error(err))
		return internalError(c, "Failed to update blacklist")
	}

	return c.JSON(fiber.Map{"phone_numbers": numbers})
}

func ruleResponse(rule *models.BusinessRule) dto.RuleResponse {
	return dto.RuleResponse{
		ID:              rule.ID.String(),
		Name:            rule.Name,
		Description:     rule.Description,
		ConditionType:   string(rule.ConditionType),
		ConditionConfig: rule.ConditionConfig,
		ActionType:      string(rule.ActionType),
		ActionConfig:    rule.ActionConfig,
		Priority:        rule.Priority,
		IsActive:        rule.IsActive,
		CreatedAt:       rule.CreatedAt.Format(time.RFC3339),
		UpdatedAt:       rule.UpdatedAt.Format(time.RFC3339),
	}
}

func blacklistResponse(bl *models.Blacklist) dto.BlacklistResponse {
	return dto.BlacklistResponse{
		ID:           bl.ID.String(),
		Name:         bl.Name,
		Description:  bl.Description,
		PhoneNumbers: bl.PhoneNumbers,
		CreatedAt:    bl.CreatedAt.Format(time.RFC3339),
		UpdatedAt:    bl.UpdatedAt.Format(time.RFC3339),
	}
}

func badRequest(c *fiber.Ctx, msg string) error {
	return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": msg})
}

func notFound(c *fiber.Ctx, msg string) error {
	return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": msg})
}

func unauthorized(c *fiber.Ctx) error {
	return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Unauthorized"})
}

func internalError(c *fiber.Ctx, msg string) error {
	return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": msg})
}
