package service

import (
	"context"
	"fmt"

	"nexa/internal/models"
	"nexa/pkg/config"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// queryEmbedder turns a query into its embedding vector.
type queryEmbedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// documentSearcher runs the vector similarity query against stored chunks.
type documentSearcher interface {
	SearchSimilar(ctx context.Context, organizationID uuid.UUID, embedding []float32, threshold float64, limit int) ([]models.DocumentMatch, error)
}

// RetrievalService answers knowledge base queries with the chunks most
// similar to the query embedding.
type RetrievalService struct {
	embedder  queryEmbedder
	documents documentSearcher
	config    *config.RAGConfig
	logger    *zap.Logger
}

func NewRetrievalService(embedder queryEmbedder, documents documentSearcher, cfg *config.RAGConfig, logger *zap.Logger) *RetrievalService {
	return &RetrievalService{
		embedder:  embedder,
		documents: documents,
		config:    cfg,
		logger:    logger,
	}
}

// Search embeds the query and returns chunks above the threshold, most
// similar first. No match is an empty result, not an error.
func (s *RetrievalService) Search(ctx context.Context, organizationID uuid.UUID, query string, threshold float64, limit int) ([]models.DocumentMatch, error) {
	if limit <= 0 {
		limit = s.config.TopK
	}

	embedding, err := s.embedder.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to embed query: %w", err)
	}

	matches, err := s.documents.SearchSimilar(ctx, organizationID, embedding, threshold, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to search documents: %w", err)
	}

	s.logger.Debug("Knowledge search completed",
		zap.String("query", query),
		zap.Float64("threshold", threshold),
		zap.Int("results", len(matches)),
	)

	return matches, nil
}

// SearchDefault runs Search with the search endpoint's default threshold.
func (s *RetrievalService) SearchDefault(ctx context.Context, organizationID uuid.UUID, query string, limit int) ([]models.DocumentMatch, error) {
	return s.Search(ctx, organizationID, query, s.config.SearchThreshold, limit)
}
