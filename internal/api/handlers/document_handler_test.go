package handlers

import (
	"context"
	"net/http/httptest"
	"strings"
	"testing"

	"nexa/internal/models"
	"nexa/internal/service"
	"nexa/pkg/config"
	"nexa/pkg/workers"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type stubDocumentStore struct {
	created  []*models.Document
	failedID uuid.UUID
	failed   string
}

func (s *stubDocumentStore) Create(ctx context.Context, doc *models.Document) error {
	s.created = append(s.created, doc)
	return nil
}

func (s *stubDocumentStore) CreateChunk(ctx context.Context, chunk *models.Document) error {
	return nil
}

func (s *stubDocumentStore) MarkReady(ctx context.Context, id uuid.UUID, preview string, metadata models.DocumentMetadata) error {
	return nil
}

func (s *stubDocumentStore) MarkError(ctx context.Context, id uuid.UUID, message string) error {
	s.failedID = id
	s.failed = message
	return nil
}

type stubEmbedder struct{}

func (stubEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	return []float32{0.1}, nil
}

// A crawl whose background processing cannot be queued must not leave the
// parent document stuck in processing state.
func TestCrawlMarksDocumentFailedWhenQueueRejects(t *testing.T) {
	store := &stubDocumentStore{}
	ingest := service.NewIngestService(store, service.NewExtractionService(zap.NewNop()),
		stubEmbedder{}, &config.IngestConfig{ChunkSize: 1000, ChunkOverlap: 200, EmbedWorkers: 1}, zap.NewNop())

	pool := workers.NewPool(1, zap.NewNop())
	pool.Start()
	pool.Shutdown()

	h := NewDocumentHandler(nil, ingest, pool, 1<<20, zap.NewNop())

	app := fiber.New()
	app.Post("/crawl", func(c *fiber.Ctx) error {
		c.Locals("organizationID", uuid.New())
		return h.Crawl(c)
	})

	req := httptest.NewRequest("POST", "/crawl", strings.NewReader(`{"url":"https://example.com/faq"}`))
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusInternalServerError, resp.StatusCode)

	require.Len(t, store.created, 1)
	assert.Equal(t, store.created[0].ID, store.failedID)
	assert.NotEmpty(t, store.failed)
}
