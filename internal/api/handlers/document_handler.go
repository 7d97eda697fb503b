package handlers

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"nexa/internal/dto"
	"nexa/internal/models"
	"nexa/internal/repository"
	"nexa/internal/service"
	"nexa/pkg/workers"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

type DocumentHandler struct {
	docService    *service.DocumentService
	ingestService *service.IngestService
	pool          *workers.Pool
	maxUpload     int64
	logger        *zap.Logger
}

func NewDocumentHandler(docService *service.DocumentService, ingestService *service.IngestService, pool *workers.Pool, maxUpload int64, logger *zap.Logger) *DocumentHandler {
	return &DocumentHandler{
		docService:    docService,
		ingestService: ingestService,
		pool:          pool,
		maxUpload:     maxUpload,
		logger:        logger,
	}
}

// Upload godoc
// @Summary Upload a knowledge base document
// @Description Accepts txt, csv, pdf or docx up to the configured size limit. Processing runs in the background; poll the document until its status is ready.
// @Tags documents
// @Accept multipart/form-data
// @Produce json
// @Param file formData file true "Document file"
// @Security Bearer
// @Success 202 {object} dto.DocumentResponse
// @Failure 400 {object} map[string]string
// @Failure 413 {object} map[string]string
// @Router /api/documents/upload [post]
func (h *DocumentHandler) Upload(c *fiber.Ctx) error {
	organizationID, err := getOrganizationID(c)
	if err != nil {
		return unauthorized(c)
	}

	file, err := c.FormFile("file")
	if err != nil {
		return badRequest(c, "File is required")
	}
	if file.Size > h.maxUpload {
		return c.Status(fiber.StatusRequestEntityTooLarge).JSON(fiber.Map{
			"error": fmt.Sprintf("File exceeds the %d byte limit", h.maxUpload),
		})
	}

	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(file.Filename), "."))
	if !supportedUpload(ext) {
		return badRequest(c, "Unsupported file type, expected txt, csv, pdf or docx")
	}

	src, err := file.Open()
	if err != nil {
		return badRequest(c, "Failed to open file")
	}
	defer src.Close()

	data, err := io.ReadAll(io.LimitReader(src, h.maxUpload+1))
	if err != nil {
		h.logger.Error("Failed to read upload", zap.Error(err))
		return internalError(c, "Failed to read file")
	}
	if int64(len(data)) > h.maxUpload {
		return c.Status(fiber.StatusRequestEntityTooLarge).JSON(fiber.Map{
			"error": fmt.Sprintf("File exceeds the %d byte limit", h.maxUpload),
		})
	}

	doc, err := h.ingestService.RegisterFile(c.Context(), organizationID, file.Filename, ext, int64(len(data)))
	if err != nil {
		h.logger.Error("Failed to register document", zap.Error(err))
		return internalError(c, "Failed to register document")
	}

	if err := h.pool.Submit(func(ctx context.Context) error {
		return h.ingestService.ProcessFile(ctx, doc, data)
	}); err != nil {
		h.logger.Error("Failed to queue document processing", zap.Error(err))
		h.ingestService.Abandon(c.Context(), doc, err)
		return internalError(c, "Failed to queue document processing")
	}

	return c.Status(fiber.StatusAccepted).JSON(documentResponse(doc))
}

// Crawl godoc
// @Summary Ingest a web page into the knowledge base
// @Tags documents
// @Accept json
// @Produce json
// @Param request body dto.CrawlURLRequest true "Page URL"
// @Security Bearer
// @Success 202 {object} dto.DocumentResponse
// @Failure 400 {object} map[string]string
// @Router /api/documents/crawl [post]
func (h *DocumentHandler) Crawl(c *fiber.Ctx) error {
	organizationID, err := getOrganizationID(c)
	if err != nil {
		return unauthorized(c)
	}

	var req dto.CrawlURLRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}
	if req.URL == "" {
		return badRequest(c, "url is required")
	}

	doc, err := h.ingestService.RegisterURL(c.Context(), organizationID, req.URL)
	if err != nil {
		return badRequest(c, "Invalid URL")
	}

	pageURL := req.URL
	if err := h.pool.Submit(func(ctx context.Context) error {
		return h.ingestService.ProcessURL(ctx, doc, pageURL)
	}); err != nil {
		h.logger.Error("Failed to queue crawl", zap.Error(err))
		h.ingestService.Abandon(c.Context(), doc, err)
		return internalError(c, "Failed to queue crawl")
	}

	return c.Status(fiber.StatusAccepted).JSON(documentResponse(doc))
}

// List godoc
// @Summary List knowledge base documents
// @Tags documents
// @Produce json
// @Security Bearer
// @Success 200 {array} dto.DocumentResponse
// @Router /api/documents [get]
func (h *DocumentHandler) List(c *fiber.Ctx) error {
	organizationID, err := getOrganizationID(c)
	if err != nil {
		return unauthorized(c)
	}

	docs, err := h.docService.List(c.Context(), organizationID)
	if err != nil {
		h.logger.Error("Failed to list documents", zap.Error(err))
		return internalError(c, "Failed to list documents")
	}

	resp := make([]dto.DocumentResponse, 0, len(docs))
	for _, doc := range docs {
		resp = append(resp, documentResponse(doc))
	}
	return c.JSON(resp)
}

// Get godoc
// @Summary Get one document
// @Tags documents
// @Produce json
// @Param id path string true "Document ID"
// @Security Bearer
// @Success 200 {object} dto.DocumentResponse
// @Failure 404 {object} map[string]string
// @Router /api/documents/{id} [get]
func (h *DocumentHandler) Get(c *fiber.Ctx) error {
	organizationID, err := getOrganizationID(c)
	if err != nil {
		return unauthorized(c)
	}
	id, err := parseIDParam(c, "id")
	if err != nil {
		return badRequest(c, "Invalid document id")
	}

	doc, err := h.docService.Get(c.Context(), organizationID, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return notFound(c, "Document not found")
		}
		h.logger.Error("Failed to get document", zap.Error(err))
		return internalError(c, "Failed to get document")
	}

	return c.JSON(documentResponse(doc))
}

// Delete godoc
// @Summary Delete a document and its chunks
// @Tags documents
// @Param id path string true "Document ID"
// @Security Bearer
// @Success 204
// @Failure 404 {object} map[string]string
// @Router /api/documents/{id} [delete]
func (h *DocumentHandler) Delete(c *fiber.Ctx) error {
	organizationID, err := getOrganizationID(c)
	if err != nil {
		return unauthorized(c)
	}
	id, err := parseIDParam(c, "id")
	if err != nil {
		return badRequest(c, "Invalid document id")
	}

	if err := h.docService.Delete(c.Context(), organizationID, id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return notFound(c, "Document not found")
		}
		h.logger.Error("Failed to delete document", zap.Error(err))
		return internalError(c, "Failed to delete document")
	}

	return c.SendStatus(fiber.StatusNoContent)
}

// Search godoc
// @Summary Semantic search over the knowledge base
// @Tags documents
// @Accept json
// @Produce json
// @Param request body dto.SearchRequest true "Search query"
// @Security Bearer
// @Success 200 {object} dto.SearchResponse
// @Failure 400 {object} map[string]string
// @Router /api/documents/search [post]
func (h *DocumentHandler) Search(c *fiber.Ctx) error {
	organizationID, err := getOrganizationID(c)
	if err != nil {
		return unauthorized(c)
	}

	var req dto.SearchRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}
	if strings.TrimSpace(req.Query) == "" {
		return badRequest(c, "query is required")
	}

	matches, err := h.docService.Search(c.Context(), organizationID, req.Query, req.Limit)
	if err != nil {
		h.logger.Error("Search failed", zap.Error(err))
		return internalError(c, "Search failed")
	}

	results := make([]dto.SearchMatch, 0, len(matches))
	for _, match := range matches {
		results = append(results, dto.SearchMatch{
			ID:         match.ID.String(),
			Filename:   match.Filename,
			Content:    match.Content,
			Similarity: match.Similarity,
		})
	}

	return c.JSON(dto.SearchResponse{Query: req.Query, Results: results})
}

func supportedUpload(ext string) bool {
	switch ext {
	case "txt", "csv", "pdf", "docx":
		return true
	}
	return false
}

func documentResponse(doc *models.Document) dto.DocumentResponse {
	return dto.DocumentResponse{
		ID:          doc.ID.String(),
		Filename:    doc.Filename,
		FileType:    doc.FileType,
		FileSize:    doc.FileSizeBytes,
		Status:      string(doc.Status),
		Preview:     doc.Content,
		TotalChunks: doc.Metadata.TotalChunks,
		SourceURL:   doc.Metadata.SourceURL,
		Error:       doc.ErrorMessage,
		CreatedAt:   doc.CreatedAt.Format(time.RFC3339),
		UpdatedAt:   doc.UpdatedAt.Format(time.RFC3339),
	}
}
