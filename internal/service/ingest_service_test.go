package service

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"nexa/internal/models"
	"nexa/pkg/config"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeDocumentWriter struct {
	mu      sync.Mutex
	parent  *models.Document
	chunks  []*models.Document
	ready   bool
	preview string
	meta    models.DocumentMetadata
	failed  string

	chunkErr error
}

func (f *fakeDocumentWriter) Create(ctx context.Context, doc *models.Document) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.parent = doc
	return nil
}

func (f *fakeDocumentWriter) CreateChunk(ctx context.Context, chunk *models.Document) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.chunkErr != nil {
		return f.chunkErr
	}
	f.chunks = append(f.chunks, chunk)
	return nil
}

func (f *fakeDocumentWriter) MarkReady(ctx context.Context, id uuid.UUID, preview string, metadata models.DocumentMetadata) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.ready = true
	f.preview = preview
	f.meta = metadata
	return nil
}

func (f *fakeDocumentWriter) MarkError(ctx context.Context, id uuid.UUID, message string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failed = message
	return nil
}

func testIngestConfig() *config.IngestConfig {
	return &config.IngestConfig{
		ChunkSize:      1000,
		ChunkOverlap:   200,
		EmbedWorkers:   4,
		MaxUploadBytes: 50 * 1024 * 1024,
	}
}

func newTestIngest(writer *fakeDocumentWriter, embedder queryEmbedder) *IngestService {
	return NewIngestService(writer, NewExtractionService(zap.NewNop()), embedder, testIngestConfig(), zap.NewNop())
}

func TestIngestFileChunksAndEmbeds(t *testing.T) {
	writer := &fakeDocumentWriter{}
	svc := newTestIngest(writer, &fakeQueryEmbedder{vector: []float32{0.5}})
	text := strings.Repeat("x", 2500)

	doc, err := svc.IngestFile(context.Background(), uuid.New(), "manual.txt", "txt", []byte(text))

	require.NoError(t, err)
	require.NotNil(t, writer.parent)
	assert.True(t, writer.ready)
	assert.Equal(t, models.DocumentStatusReady, doc.Status)

	require.Len(t, writer.chunks, 3)
	indices := map[int]bool{}
	for _, chunk := range writer.chunks {
		require.NotNil(t, chunk.ChunkIndex)
		indices[*chunk.ChunkIndex] = true
		assert.Equal(t, doc.ID, *chunk.ParentDocumentID)
		assert.Equal(t, []float32{0.5}, chunk.Embedding)
		assert.Equal(t, models.DocumentStatusReady, chunk.Status)
		assert.Contains(t, chunk.Filename, "manual.txt [Parte ")
	}
	assert.Equal(t, map[int]bool{0: true, 1: true, 2: true}, indices)

	assert.Equal(t, 3, writer.meta.TotalChunks)
	assert.Equal(t, text[:1000]+"...", writer.preview)
}

func TestIngestFileShortTextSingleChunk(t *testing.T) {
	writer := &fakeDocumentWriter{}
	svc := newTestIngest(writer, &fakeQueryEmbedder{vector: []float32{1}})

	_, err := svc.IngestFile(context.Background(), uuid.New(), "faq.txt", "txt",
		[]byte("Refunds are processed within five business days."))

	require.NoError(t, err)
	require.Len(t, writer.chunks, 1)
	assert.Equal(t, 1, writer.meta.TotalChunks)
	assert.Equal(t, "Refunds are processed within five business days.", writer.preview)
}

func TestIngestFileUnsupportedFormat(t *testing.T) {
	writer := &fakeDocumentWriter{}
	svc := newTestIngest(writer, &fakeQueryEmbedder{vector: []float32{1}})

	_, err := svc.IngestFile(context.Background(), uuid.New(), "photo.png", "png", []byte{0x89})

	require.Error(t, err)
	assert.NotEmpty(t, writer.failed, "parent document must be marked errored")
	assert.False(t, writer.ready)
}

func TestIngestFileEmbeddingFailure(t *testing.T) {
	writer := &fakeDocumentWriter{}
	svc := newTestIngest(writer, &fakeQueryEmbedder{err: errors.New("quota exhausted")})

	_, err := svc.IngestFile(context.Background(), uuid.New(), "faq.txt", "txt",
		[]byte("Some knowledge worth embedding."))

	require.Error(t, err)
	assert.Contains(t, writer.failed, "quota exhausted")
	assert.False(t, writer.ready)
}

func TestIngestFileChunkWriteFailure(t *testing.T) {
	writer := &fakeDocumentWriter{chunkErr: errors.New("db down")}
	svc := newTestIngest(writer, &fakeQueryEmbedder{vector: []float32{1}})

	_, err := svc.IngestFile(context.Background(), uuid.New(), "faq.txt", "txt",
		[]byte("Some knowledge worth embedding."))

	require.Error(t, err)
	assert.Contains(t, writer.failed, "db down")
}

func TestIngestURLRejectsInvalid(t *testing.T) {
	writer := &fakeDocumentWriter{}
	svc := newTestIngest(writer, &fakeQueryEmbedder{vector: []float32{1}})

	_, err := svc.IngestURL(context.Background(), uuid.New(), "not-a-url")
	assert.Error(t, err)
	assert.Nil(t, writer.parent, "nothing should be persisted for an invalid URL")

	_, err = svc.IngestURL(context.Background(), uuid.New(), "ftp://example.com/file")
	assert.Error(t, err)
}
