package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"nexa/internal/models"

	"github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pgvector/pgvector-go"
	"go.uber.org/zap"
)

type DocumentRepository struct {
	db     *pgxpool.Pool
	logger *zap.Logger
}

func NewDocumentRepository(db *pgxpool.Pool, logger *zap.Logger) *DocumentRepository {
	return &DocumentRepository{
		db:     db,
		logger: logger,
	}
}

// documentColumns deliberately excludes the embedding vector; no read path
// needs it back and chunk vectors are large.
var documentColumns = []string{
	"id", "organization_id", "conversation_id", "filename", "file_type",
	"file_size_bytes", "content", "chunk_index", "parent_document_id",
	"status", "error_message", "metadata", "created_at", "updated_at",
}

// Create inserts a top-level document record (no embedding, processing state).
func (r *DocumentRepository) Create(ctx context.Context, doc *models.Document) error {
	metadata, err := json.Marshal(doc.Metadata)
	if err != nil {
		return fmt.Errorf("failed to encode metadata: %w", err)
	}

	query := squirrel.Insert("documents").
		Columns(documentColumns...).
		Values(doc.ID, doc.OrganizationID, doc.ConversationID, doc.Filename, doc.FileType,
			doc.FileSizeBytes, doc.Content, doc.ChunkIndex, doc.ParentDocumentID,
			doc.Status, doc.ErrorMessage, metadata, doc.CreatedAt, doc.UpdatedAt).
		PlaceholderFormat(squirrel.Dollar)

	sql, args, err := query.ToSql()
	if err != nil {
		return err
	}

	_, err = r.db.Exec(ctx, sql, args...)
	return err
}

// CreateChunk inserts an embedded chunk record under its parent document.
func (r *DocumentRepository) CreateChunk(ctx context.Context, chunk *models.Document) error {
	if chunk.ParentDocumentID == nil || chunk.ChunkIndex == nil {
		return fmt.Errorf("chunk requires parent_document_id and chunk_index")
	}

	query := squirrel.Insert("documents").
		Columns("id", "organization_id", "conversation_id", "filename", "file_type",
			"content", "embedding", "chunk_index", "parent_document_id",
			"status", "created_at", "updated_at").
		Values(chunk.ID, chunk.OrganizationID, chunk.ConversationID, chunk.Filename, chunk.FileType,
			chunk.Content, pgvector.NewVector(chunk.Embedding), chunk.ChunkIndex, chunk.ParentDocumentID,
			models.DocumentStatusReady, chunk.CreatedAt, chunk.UpdatedAt).
		PlaceholderFormat(squirrel.Dollar)

	sql, args, err := query.ToSql()
	if err != nil {
		return err
	}

	_, err = r.db.Exec(ctx, sql, args...)
	return err
}

func (r *DocumentRepository) GetByID(ctx context.Context, organizationID, id uuid.UUID) (*models.Document, error) {
	query := squirrel.Select(documentColumns...).
		From("documents").
		Where(squirrel.Eq{"id": id, "organization_id": organizationID}).
		PlaceholderFormat(squirrel.Dollar)

	sql, args, err := query.ToSql()
	if err != nil {
		return nil, err
	}

	doc, err := scanDocument(r.db.QueryRow(ctx, sql, args...))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	return doc, err
}

// ListTopLevel returns the organization's parent documents, newest first.
func (r *DocumentRepository) ListTopLevel(ctx context.Context, organizationID uuid.UUID) ([]*models.Document, error) {
	query := squirrel.Select(documentColumns...).
		From("documents").
		Where(squirrel.Eq{"organization_id": organizationID}).
		Where("parent_document_id IS NULL").
		OrderBy("created_at DESC").
		PlaceholderFormat(squirrel.Dollar)

	sql, args, err := query.ToSql()
	if err != nil {
		return nil, err
	}

	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var documents []*models.Document
	for rows.Next() {
		doc, err := scanDocument(rows)
		if err != nil {
			return nil, err
		}
		documents = append(documents, doc)
	}

	return documents, rows.Err()
}

// MarkReady completes ingestion: stores the content preview and metadata and
// flips the parent to ready.
func (r *DocumentRepository) MarkReady(ctx context.Context, id uuid.UUID, preview string, metadata models.DocumentMetadata) error {
	encoded, err := json.Marshal(metadata)
	if err != nil {
		return fmt.Errorf("failed to encode metadata: %w", err)
	}

	query := squirrel.Update("documents").
		Set("content", preview).
		Set("status", models.DocumentStatusReady).
		Set("error_message", "").
		Set("metadata", encoded).
		Set("updated_at", squirrel.Expr("NOW()")).
		Where(squirrel.Eq{"id": id}).
		PlaceholderFormat(squirrel.Dollar)

	sql, args, err := query.ToSql()
	if err != nil {
		return err
	}

	_, err = r.db.Exec(ctx, sql, args...)
	return err
}

// MarkError records a terminal ingestion failure on the parent document.
func (r *DocumentRepository) MarkError(ctx context.Context, id uuid.UUID, message string) error {
	query := squirrel.Update("documents").
		Set("status", models.DocumentStatusError).
		Set("error_message", message).
		Set("updated_at", squirrel.Expr("NOW()")).
		Where(squirrel.Eq{"id": id}).
		PlaceholderFormat(squirrel.Dollar)

	sql, args, err := query.ToSql()
	if err != nil {
		return err
	}

	_, err = r.db.Exec(ctx, sql, args...)
	return err
}

// Delete removes a document and cascades to its chunks.
func (r *DocumentRepository) Delete(ctx context.Context, organizationID, id uuid.UUID) error {
	chunks := squirrel.Delete("documents").
		Where(squirrel.Eq{"parent_document_id": id, "organization_id": organizationID}).
		PlaceholderFormat(squirrel.Dollar)

	sql, args, err := chunks.ToSql()
	if err != nil {
		return err
	}
	if _, err := r.db.Exec(ctx, sql, args...); err != nil {
		return err
	}

	parent := squirrel.Delete("documents").
		Where(squirrel.Eq{"id": id, "organization_id": organizationID}).
		PlaceholderFormat(squirrel.Dollar)

	sql, args, err = parent.ToSql()
	if err != nil {
		return err
	}

	tag, err := r.db.Exec(ctx, sql, args...)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// SearchSimilar runs cosine nearest-neighbor search over the organization's
// chunk records, returning hits at or above the similarity threshold,
// closest first.
func (r *DocumentRepository) SearchSimilar(ctx context.Context, organizationID uuid.UUID, embedding []float32, threshold float64, limit int) ([]models.DocumentMatch, error) {
	vec := pgvector.NewVector(embedding)

	query := squirrel.Select("id", "filename", "content").
		Column(squirrel.Expr("1 - (embedding <=> ?) AS similarity", vec)).
		From("documents").
		Where(squirrel.Eq{"organization_id": organizationID}).
		Where("parent_document_id IS NOT NULL").
		Where(squirrel.Expr("1 - (embedding <=> ?) >= ?", vec, threshold)).
		OrderByClause("embedding <=> ?", vec).
		Limit(uint64(limit)).
		PlaceholderFormat(squirrel.Dollar)

	sql, args, err := query.ToSql()
	if err != nil {
		return nil, err
	}

	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var matches []models.DocumentMatch
	for rows.Next() {
		var m models.DocumentMatch
		if err := rows.Scan(&m.ID, &m.Filename, &m.Content, &m.Similarity); err != nil {
			return nil, err
		}
		matches = append(matches, m)
	}

	return matches, rows.Err()
}

func scanDocument(row pgx.Row) (*models.Document, error) {
	var doc models.Document
	var metadata []byte
	err := row.Scan(
		&doc.ID, &doc.OrganizationID, &doc.ConversationID, &doc.Filename, &doc.FileType,
		&doc.FileSizeBytes, &doc.Content, &doc.ChunkIndex, &doc.ParentDocumentID,
		&doc.Status, &doc.ErrorMessage, &metadata, &doc.CreatedAt, &doc.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if len(metadata) > 0 {
		if err := json.Unmarshal(metadata, &doc.Metadata); err != nil {
			return nil, fmt.Errorf("failed to decode metadata: %w", err)
		}
	}
	return &doc, nil
}
