package handlers

import (
	"errors"
	"time"

	"nexa/internal/dto"
	"nexa/internal/models"
	"nexa/internal/repository"
	"nexa/internal/service"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

type IntegrationHandler struct {
	integrationService *service.IntegrationService
	logger             *zap.Logger
}

func NewIntegrationHandler(integrationService *service.IntegrationService, logger *zap.Logger) *IntegrationHandler {
	return &IntegrationHandler{
		integrationService: integrationService,
		logger:             logger,
	}
}

// Create godoc
// @Summary Register a channel integration
// @Tags integrations
// @Accept json
// @Produce json
// @Param request body dto.CreateIntegrationRequest true "Integration definition"
// @Security Bearer
// @Success 201 {object} dto.IntegrationResponse
// @Failure 400 {object} map[string]string
// @Router /api/integrations [post]
func (h *IntegrationHandler) Create(c *fiber.Ctx) error {
	organizationID, err := getOrganizationID(c)
	if err != nil {
		return unauthorized(c)
	}

	var req dto.CreateIntegrationRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}
	if req.Type == "" || req.Name == "" {
		return badRequest(c, "type and name are required")
	}

	integration, err := h.integrationService.Create(c.Context(), organizationID, &req)
	if err != nil {
		if errors.Is(err, service.ErrInvalidIntegration) {
			return badRequest(c, err.Error())
		}
		h.logger.Error("Failed to create integration", zap.Error(err))
		return internalError(c, "Failed to create integration")
	}

	return c.Status(fiber.StatusCreated).JSON(integrationResponse(integration))
}

// List godoc
// @Summary List channel integrations
// @Tags integrations
// @Produce json
// @Security Bearer
// @Success 200 {array} dto.IntegrationResponse
// @Router /api/integrations [get]
func (h *IntegrationHandler) List(c *fiber.Ctx) error {
	organizationID, err := getOrganizationID(c)
	if err != nil {
		return unauthorized(c)
	}

	integrations, err := h.integrationService.List(c.Context(), organizationID)
	if err != nil {
		h.logger.Error("Failed to list integrations", zap.Error(err))
		return internalError(c, "Failed to list integrations")
	}

	resp := make([]dto.IntegrationResponse, 0, len(integrations))
	for _, integration := range integrations {
		resp = append(resp, integrationResponse(integration))
	}
	return c.JSON(resp)
}

// Update godoc
// @Summary Update a channel integration
// @Tags integrations
// @Accept json
// @Produce json
// @Param id path string true "Integration ID"
// @Param request body dto.UpdateIntegrationRequest true "Integration changes"
// @Security Bearer
// @Success 200 {object} dto.IntegrationResponse
// @Failure 404 {object} map[string]string
// @Router /api/integrations/{id} [put]
func (h *IntegrationHandler) Update(c *fiber.Ctx) error {
	organizationID, err := getOrganizationID(c)
	if err != nil {
		return unauthorized(c)
	}
	id, err := parseIDParam(c, "id")
	if err != nil {
		return badRequest(c, "Invalid integration id")
	}

	var req dto.UpdateIntegrationRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}

	integration, err := h.integrationService.Update(c.Context(), organizationID, id, &req)
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrNotFound):
			return notFound(c, "Integration not found")
		case errors.Is(err, service.ErrInvalidIntegration):
			return badRequest(c, err.Error())
		}
		h.logger.Error("Failed to update integration", zap.Error(err))
		return internalError(c, "Failed to update integration")
	}

	return c.JSON(integrationResponse(integration))
}

// Delete godoc
// @Summary Delete a channel integration
// @Tags integrations
// @Param id path string true "Integration ID"
// @Security Bearer
// @Success 204
// @Failure 404 {object} map[string]string
// @Router /api/integrations/{id} [delete]
func (h *IntegrationHandler) Delete(c *fiber.Ctx) error {
	organizationID, err := getOrganizationID(c)
	if err != nil {
		return unauthorized(c)
	}
	id, err := parseIDParam(c, "id")
	if err != nil {
		return badRequest(c, "Invalid integration id")
	}

	if err := h.integrationService.Delete(c.Context(), organizationID, id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return notFound(c, "Integration not found")
		}
		h.logger.Error("Failed to delete integration", zap.Error(err))
		return internalError(c, "Failed to delete integration")
	}

	return c.SendStatus(fiber.StatusNoContent)
}

func integrationResponse(integration *models.Integration) dto.IntegrationResponse {
	resp := dto.IntegrationResponse{
		ID:        integration.ID.String(),
		Type:      integration.Type,
		Name:      integration.Name,
		Config:    integration.Config,
		Status:    integration.Status,
		CreatedAt: integration.CreatedAt.Format(time.RFC3339),
		UpdatedAt: integration.UpdatedAt.Format(time.RFC3339),
	}
	if integration.LastSyncAt != nil {
		resp.LastSyncAt = integration.LastSyncAt.Format(time.RFC3339)
	}
	return resp
}
