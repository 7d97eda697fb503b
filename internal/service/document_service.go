package service

import (
	"context"

	"nexa/internal/models"
	"nexa/internal/repository"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// DocumentService exposes the knowledge base to the API: listing, deletion
// and semantic search. Ingestion itself lives in IngestService.
type DocumentService struct {
	documents *repository.DocumentRepository
	retrieval *RetrievalService
	logger    *zap.Logger
}

func NewDocumentService(documents *repository.DocumentRepository, retrieval *RetrievalService, logger *zap.Logger) *DocumentService {
	return &DocumentService{
		documents: documents,
		retrieval: retrieval,
		logger:    logger,
	}
}

func (s *DocumentService) List(ctx context.Context, organizationID uuid.UUID) ([]*models.Document, error) {
	return s.documents.ListTopLevel(ctx, organizationID)
}

func (s *DocumentService) Get(ctx context.Context, organizationID, id uuid.UUID) (*models.Document, error) {
	return s.documents.GetByID(ctx, organizationID, id)
}

// Delete removes a document and all of its chunks.
func (s *DocumentService) Delete(ctx context.Context, organizationID, id uuid.UUID) error {
	if err := s.documents.Delete(ctx, organizationID, id); err != nil {
		return err
	}

	s.logger.Info("Document deleted",
		zap.String("document_id", id.String()),
	)

	return nil
}

// Search runs a semantic query over the organization's knowledge base.
func (s *DocumentService) Search(ctx context.Context, organizationID uuid.UUID, query string, limit int) ([]models.DocumentMatch, error) {
	return s.retrieval.SearchDefault(ctx, organizationID, query, limit)
}
