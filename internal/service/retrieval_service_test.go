package service

import (
	"context"
	"errors"
	"testing"

	"nexa/internal/models"
	"nexa/pkg/config"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeQueryEmbedder struct {
	vector []float32
	err    error
}

func (f *fakeQueryEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	return f.vector, f.err
}

type fakeSearcher struct {
	matches   []models.DocumentMatch
	err       error
	threshold float64
	limit     int
}

func (f *fakeSearcher) SearchSimilar(ctx context.Context, organizationID uuid.UUID, embedding []float32, threshold float64, limit int) ([]models.DocumentMatch, error) {
	f.threshold = threshold
	f.limit = limit
	return f.matches, f.err
}

func testRAGConfig() *config.RAGConfig {
	return &config.RAGConfig{
		SearchThreshold:  0.5,
		ComposeThreshold: 0.7,
		TopK:             5,
		HistoryTurns:     10,
	}
}

func TestRetrievalSearchReturnsMatches(t *testing.T) {
	searcher := &fakeSearcher{matches: []models.DocumentMatch{
		{ID: uuid.New(), Filename: "faq.txt", Content: "Refunds take 5 days.", Similarity: 0.91},
	}}
	svc := NewRetrievalService(&fakeQueryEmbedder{vector: []float32{1}}, searcher, testRAGConfig(), zap.NewNop())

	matches, err := svc.Search(context.Background(), uuid.New(), "refund time", 0.7, 3)

	require.NoError(t, err)
	require.Len(t, matches, 1)
	assert.Equal(t, "faq.txt", matches[0].Filename)
	assert.Equal(t, 0.7, searcher.threshold)
	assert.Equal(t, 3, searcher.limit)
}

func TestRetrievalSearchEmptyIsNotError(t *testing.T) {
	svc := NewRetrievalService(&fakeQueryEmbedder{vector: []float32{1}}, &fakeSearcher{}, testRAGConfig(), zap.NewNop())

	matches, err := svc.Search(context.Background(), uuid.New(), "unknown topic", 0.5, 5)

	require.NoError(t, err)
	assert.Empty(t, matches)
}

func TestRetrievalSearchDefaultLimit(t *testing.T) {
	searcher := &fakeSearcher{}
	svc := NewRetrievalService(&fakeQueryEmbedder{vector: []float32{1}}, searcher, testRAGConfig(), zap.NewNop())

	_, err := svc.Search(context.Background(), uuid.New(), "q", 0.5, 0)

	require.NoError(t, err)
	assert.Equal(t, 5, searcher.limit)
}

func TestRetrievalSearchDefaultThreshold(t *testing.T) {
	searcher := &fakeSearcher{}
	svc := NewRetrievalService(&fakeQueryEmbedder{vector: []float32{1}}, searcher, testRAGConfig(), zap.NewNop())

	_, err := svc.SearchDefault(context.Background(), uuid.New(), "q", 3)

	require.NoError(t, err)
	assert.Equal(t, 0.5, searcher.threshold)
}

func TestRetrievalSearchEmbedFailure(t *testing.T) {
	svc := NewRetrievalService(&fakeQueryEmbedder{err: errors.New("quota")}, &fakeSearcher{}, testRAGConfig(), zap.NewNop())

	_, err := svc.Search(context.Background(), uuid.New(), "q", 0.5, 5)

	assert.Error(t, err)
}
