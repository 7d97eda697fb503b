package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"nexa/internal/dto"
	"nexa/internal/models"
	"nexa/internal/repository"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ErrInvalidIntegration marks an integration payload that cannot work, e.g. a
// WhatsApp integration without its gateway instance.
var ErrInvalidIntegration = errors.New("invalid integration")

type IntegrationService struct {
	integrations *repository.IntegrationRepository
	logger       *zap.Logger
}

func NewIntegrationService(integrations *repository.IntegrationRepository, logger *zap.Logger) *IntegrationService {
	return &IntegrationService{
		integrations: integrations,
		logger:       logger,
	}
}

func (s *IntegrationService) Create(ctx context.Context, organizationID uuid.UUID, req *dto.CreateIntegrationRequest) (*models.Integration, error) {
	config := req.Config
	if len(config) == 0 {
		config = json.RawMessage("{}")
	}
	if err := validateIntegrationConfig(req.Type, config); err != nil {
		return nil, err
	}

	now := time.Now()
	integration := &models.Integration{
		ID:             uuid.New(),
		OrganizationID: organizationID,
		Type:           req.Type,
		Name:           req.Name,
		Config:         config,
		Status:         "active",
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	if err := s.integrations.Create(ctx, integration); err != nil {
		return nil, err
	}

	s.logger.Info("Integration created",
		zap.String("integration_id", integration.ID.String()),
		zap.String("type", integration.Type),
	)

	return integration, nil
}

func (s *IntegrationService) List(ctx context.Context, organizationID uuid.UUID) ([]*models.Integration, error) {
	return s.integrations.ListByOrganization(ctx, organizationID)
}

func (s *IntegrationService) Get(ctx context.Context, organizationID, id uuid.UUID) (*models.Integration, error) {
	return s.integrations.GetByID(ctx, organizationID, id)
}

func (s *IntegrationService) Update(ctx context.Context, organizationID, id uuid.UUID, req *dto.UpdateIntegrationRequest) (*models.Integration, error) {
	integration, err := s.integrations.GetByID(ctx, organizationID, id)
	if err != nil {
		return nil, err
	}

	config := req.Config
	if len(config) == 0 {
		config = integration.Config
	}
	if err := validateIntegrationConfig(integration.Type, config); err != nil {
		return nil, err
	}

	integration.Name = req.Name
	integration.Config = config
	integration.Status = req.Status
	integration.UpdatedAt = time.Now()

	if err := s.integrations.Update(ctx, integration); err != nil {
		return nil, err
	}

	return integration, nil
}

func (s *IntegrationService) Delete(ctx context.Context, organizationID, id uuid.UUID) error {
	return s.integrations.Delete(ctx, organizationID, id)
}

func validateIntegrationConfig(integrationType string, config json.RawMessage) error {
	if integrationType != "whatsapp" {
		return nil
	}

	var wa models.WhatsAppConfig
	if err := json.Unmarshal(config, &wa); err != nil {
		return fmt.Errorf("%w: malformed config: %v", ErrInvalidIntegration, err)
	}
	if wa.Instance == "" {
		return fmt.Errorf("%w: whatsapp integration requires config.instance", ErrInvalidIntegration)
	}
	return nil
}
