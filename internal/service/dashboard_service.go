package service

import (
	"context"

	"nexa/internal/dto"
	"nexa/internal/repository"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// DashboardService aggregates usage numbers for the operator dashboard.
type DashboardService struct {
	dashboard *repository.DashboardRepository
	logger    *zap.Logger
}

func NewDashboardService(dashboard *repository.DashboardRepository, logger *zap.Logger) *DashboardService {
	return &DashboardService{
		dashboard: dashboard,
		logger:    logger,
	}
}

// Stats returns the current month's totals plus the last seven days of
// inbound traffic.
func (s *DashboardService) Stats(ctx context.Context, organizationID uuid.UUID) (*dto.DashboardStatsResponse, error) {
	monthly, err := s.dashboard.MonthlyStats(ctx, organizationID)
	if err != nil {
		return nil, err
	}

	daily, err := s.dashboard.DailyMessageVolume(ctx, organizationID, 7)
	if err != nil {
		return nil, err
	}

	resp := &dto.DashboardStatsResponse{
		TotalConversations: monthly.TotalConversations,
		TotalMessages:      monthly.TotalMessages,
		AIHandled:          monthly.AIHandled,
		Transferred:        monthly.Transferred,
		DailyVolume:        make([]dto.DailyVolumeItem, 0, len(daily)),
	}
	// Transferred conversations flip to handled_by=human, so AIHandled
	// already counts only the ones the AI kept.
	if monthly.TotalConversations > 0 {
		resp.AIResolutionRate = float64(monthly.AIHandled) / float64(monthly.TotalConversations)
	}

	for _, day := range daily {
		resp.DailyVolume = append(resp.DailyVolume, dto.DailyVolumeItem{
			Date:  day.Day.Format("2006-01-02"),
			Count: day.Count,
		})
	}

	return resp, nil
}
