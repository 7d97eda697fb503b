package service

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"path"
	"time"

	"nexa/internal/models"
	"nexa/pkg/config"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const previewLength = 1000

// documentWriter is the slice of the document repository the ingest pipeline
// needs.
type documentWriter interface {
	Create(ctx context.Context, doc *models.Document) error
	CreateChunk(ctx context.Context, chunk *models.Document) error
	MarkReady(ctx context.Context, id uuid.UUID, preview string, metadata models.DocumentMetadata) error
	MarkError(ctx context.Context, id uuid.UUID, message string) error
}

// IngestService runs the knowledge ingestion pipeline: extract text, chunk
// it, embed every chunk and persist the results.
type IngestService struct {
	documents  documentWriter
	extraction *ExtractionService
	chunker    *Chunker
	embedder   queryEmbedder
	httpClient *http.Client
	config     *config.IngestConfig
	logger     *zap.Logger
}

func NewIngestService(documents documentWriter, extraction *ExtractionService, embedder queryEmbedder, cfg *config.IngestConfig, logger *zap.Logger) *IngestService {
	return &IngestService{
		documents:  documents,
		extraction: extraction,
		chunker:    NewChunker(cfg.ChunkSize, cfg.ChunkOverlap),
		embedder:   embedder,
		httpClient: &http.Client{Timeout: 30 * time.Second},
		config:     cfg,
		logger:     logger,
	}
}

// RegisterFile creates the parent document in processing state. The caller
// responds with it immediately and runs ProcessFile on a worker.
func (s *IngestService) RegisterFile(ctx context.Context, organizationID uuid.UUID, filename, fileType string, size int64) (*models.Document, error) {
	return s.createParent(ctx, organizationID, filename, fileType, size, "")
}

// ProcessFile extracts, chunks and embeds a registered upload.
func (s *IngestService) ProcessFile(ctx context.Context, doc *models.Document, data []byte) error {
	text, err := s.extraction.ExtractFile(doc.Filename, data)
	if err != nil {
		s.fail(ctx, doc.ID, err)
		return err
	}
	return s.process(ctx, doc, text, "")
}

// Abandon marks a registered document as failed when its processing never
// got scheduled, so it does not sit in processing state forever.
func (s *IngestService) Abandon(ctx context.Context, doc *models.Document, cause error) {
	s.fail(ctx, doc.ID, cause)
}

// IngestFile registers and processes an upload in one call.
func (s *IngestService) IngestFile(ctx context.Context, organizationID uuid.UUID, filename, fileType string, data []byte) (*models.Document, error) {
	doc, err := s.RegisterFile(ctx, organizationID, filename, fileType, int64(len(data)))
	if err != nil {
		return nil, err
	}
	if err := s.ProcessFile(ctx, doc, data); err != nil {
		return doc, err
	}
	return doc, nil
}

// RegisterURL creates the parent document for a page crawl. The URL is
// validated here so a bad one fails before anything is persisted.
func (s *IngestService) RegisterURL(ctx context.Context, organizationID uuid.UUID, pageURL string) (*models.Document, error) {
	parsed, err := url.ParseRequestURI(pageURL)
	if err != nil || (parsed.Scheme != "http" && parsed.Scheme != "https") {
		return nil, fmt.Errorf("invalid URL %q", pageURL)
	}

	filename := parsed.Host + path.Clean("/"+parsed.Path)
	return s.createParent(ctx, organizationID, filename, "html", 0, pageURL)
}

// ProcessURL fetches the page and feeds its visible text through the same
// pipeline as an uploaded file.
func (s *IngestService) ProcessURL(ctx context.Context, doc *models.Document, pageURL string) error {
	text, err := s.fetchPage(ctx, pageURL)
	if err != nil {
		s.fail(ctx, doc.ID, err)
		return err
	}
	return s.process(ctx, doc, text, pageURL)
}

// IngestURL registers and processes a page crawl in one call.
func (s *IngestService) IngestURL(ctx context.Context, organizationID uuid.UUID, pageURL string) (*models.Document, error) {
	doc, err := s.RegisterURL(ctx, organizationID, pageURL)
	if err != nil {
		return nil, err
	}
	if err := s.ProcessURL(ctx, doc, pageURL); err != nil {
		return doc, err
	}
	return doc, nil
}

func (s *IngestService) createParent(ctx context.Context, organizationID uuid.UUID, filename, fileType string, size int64, sourceURL string) (*models.Document, error) {
	now := time.Now()
	doc := &models.Document{
		ID:             uuid.New(),
		OrganizationID: organizationID,
		Filename:       filename,
		FileType:       fileType,
		FileSizeBytes:  size,
		Status:         models.DocumentStatusProcessing,
		Metadata:       models.DocumentMetadata{SourceURL: sourceURL},
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if err := s.documents.Create(ctx, doc); err != nil {
		return nil, fmt.Errorf("failed to register document: %w", err)
	}
	return doc, nil
}

// process chunks the text, embeds every chunk concurrently and flips the
// parent to ready. Any failure flips it to error instead; chunks written
// before the failure are superseded by the parent's error status.
func (s *IngestService) process(ctx context.Context, doc *models.Document, text, sourceURL string) error {
	chunks := s.chunker.Split(text)
	if len(chunks) == 0 {
		err := ErrNoText
		s.fail(ctx, doc.ID, err)
		return err
	}

	group, groupCtx := errgroup.WithContext(ctx)
	group.SetLimit(s.config.EmbedWorkers)

	for i, chunk := range chunks {
		group.Go(func() error {
			embedding, err := s.embedder.Embed(groupCtx, chunk)
			if err != nil {
				return fmt.Errorf("failed to embed chunk %d: %w", i, err)
			}

			index := i
			now := time.Now()
			return s.documents.CreateChunk(groupCtx, &models.Document{
				ID:               uuid.New(),
				OrganizationID:   doc.OrganizationID,
				Filename:         fmt.Sprintf("%s [Parte %d]", doc.Filename, i+1),
				FileType:         doc.FileType,
				Content:          chunk,
				Embedding:        embedding,
				ChunkIndex:       &index,
				ParentDocumentID: &doc.ID,
				Status:           models.DocumentStatusReady,
				CreatedAt:        now,
				UpdatedAt:        now,
			})
		})
	}

	if err := group.Wait(); err != nil {
		s.fail(ctx, doc.ID, err)
		return err
	}

	preview := text
	if len([]rune(preview)) > previewLength {
		preview = string([]rune(preview)[:previewLength]) + "..."
	}

	metadata := models.DocumentMetadata{
		TotalChunks: len(chunks),
		SourceURL:   sourceURL,
	}
	if err := s.documents.MarkReady(ctx, doc.ID, preview, metadata); err != nil {
		return fmt.Errorf("failed to finalize document: %w", err)
	}

	doc.Status = models.DocumentStatusReady
	doc.Metadata = metadata

	s.logger.Info("Document ingested",
		zap.String("document_id", doc.ID.String()),
		zap.String("filename", doc.Filename),
		zap.Int("chunks", len(chunks)),
	)

	return nil
}

func (s *IngestService) fetchPage(ctx context.Context, pageURL string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return "", fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("User-Agent", "nexa-crawler/1.0")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to fetch %s: %w", pageURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("fetch %s: unexpected status %d", pageURL, resp.StatusCode)
	}

	limited := io.LimitReader(resp.Body, s.config.MaxUploadBytes)
	return s.extraction.ExtractHTML(limited)
}

// fail marks the parent document as errored. It uses a detached context so a
// cancelled ingest still records its failure.
func (s *IngestService) fail(ctx context.Context, id uuid.UUID, cause error) {
	markCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()

	if err := s.documents.MarkError(markCtx, id, cause.Error()); err != nil {
		s.logger.Error("Failed to record document error",
			zap.String("document_id", id.String()),
			zap.Error(err),
		)
	}
}
