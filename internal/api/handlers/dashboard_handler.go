package handlers

import (
	"nexa/internal/service"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

type DashboardHandler struct {
	dashboardService *service.DashboardService
	logger           *zap.Logger
}

func NewDashboardHandler(dashboardService *service.DashboardService, logger *zap.Logger) *DashboardHandler {
	return &DashboardHandler{
		dashboardService: dashboardService,
		logger:           logger,
	}
}

// Stats godoc
// @Summary Dashboard statistics
// @Description Current month totals plus the last seven days of inbound traffic
// @Tags dashboard
// @Produce json
// @Security Bearer
// @Success 200 {object} dto.DashboardStatsResponse
// @Router /api/dashboard/stats [get]
func (h *DashboardHandler) Stats(c *fiber.Ctx) error {
	organizationID, err := getOrganizationID(c)
	if err != nil {
		return unauthorized(c)
	}

	stats, err := h.dashboardService.Stats(c.Context(), organizationID)
	if err != nil {
		h.logger.Error("Failed to load dashboard stats", zap.Error(err))
		return internalError(c, "Failed to load stats")
	}

	return c.JSON(stats)
}
