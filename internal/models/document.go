package models

import (
	"time"

	"github.com/google/uuid"
)

type DocumentStatus string

const (
	DocumentStatusProcessing DocumentStatus = "processing"
	DocumentStatusReady      DocumentStatus = "ready"
	DocumentStatusError      DocumentStatus = "error"
)

// Document is either a top-level knowledge-base entry (ParentDocumentID nil)
// or one of its embedded chunks (ParentDocumentID set, ChunkIndex >= 0).
// A top-level document is created in processing state and moves to ready or
// error exactly once; deleting it cascades to its chunks.
type Document struct {
	ID               uuid.UUID        `db:"id"`
	OrganizationID   uuid.UUID        `db:"organization_id"`
	ConversationID   *uuid.UUID       `db:"conversation_id"`
	Filename         string           `db:"filename"`
	FileType         string           `db:"file_type"`
	FileSizeBytes    int64            `db:"file_size_bytes"`
	Content          string           `db:"content"`
	Embedding        []float32        `db:"embedding"`
	ChunkIndex       *int             `db:"chunk_index"`
	ParentDocumentID *uuid.UUID       `db:"parent_document_id"`
	Status           DocumentStatus   `db:"status"`
	ErrorMessage     string           `db:"error_message"`
	Metadata         DocumentMetadata `db:"metadata"`
	CreatedAt        time.Time        `db:"created_at"`
	UpdatedAt        time.Time        `db:"updated_at"`
}

// DocumentMetadata is recorded on the parent document when ingestion
// completes.
type DocumentMetadata struct {
	TotalChunks int    `json:"total_chunks,omitempty"`
	SourceURL   string `json:"source_url,omitempty"`
}

// DocumentMatch is one nearest-neighbor search hit.
type DocumentMatch struct {
	ID         uuid.UUID `json:"id"`
	Filename   string    `json:"filename"`
	Content    string    `json:"content"`
	Similarity float64   `json:"similarity"`
}
