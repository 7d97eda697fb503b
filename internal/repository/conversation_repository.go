package repository

import (
	"context"
	"errors"
	"strings"

	"nexa/internal/models"

	"github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

type ConversationRepository struct {
	db     *pgxpool.Pool
	logger *zap.Logger
}

func NewConversationRepository(db *pgxpool.Pool, logger *zap.Logger) *ConversationRepository {
	return &ConversationRepository{
		db:     db,
		logger: logger,
	}
}

var conversationColumns = []string{
	"id", "organization_id", "client_phone", "client_name", "channel",
	"status", "handled_by", "tags", "created_at", "updated_at",
}

func (r *ConversationRepository) Create(ctx context.Context, conv *models.Conversation) error {
	query := squirrel.Insert("conversations").
		Columns(conversationColumns...).
		Values(conv.ID, conv.OrganizationID, conv.ClientPhone, conv.ClientName, conv.Channel,
			conv.Status, conv.HandledBy, conv.Tags, conv.CreatedAt, conv.UpdatedAt).
		PlaceholderFormat(squirrel.Dollar)

	sql, args, err := query.ToSql()
	if err != nil {
		return err
	}

	_, err = r.db.Exec(ctx, sql, args...)
	return err
}

func (r *ConversationRepository) GetByID(ctx context.Context, organizationID, id uuid.UUID) (*models.Conversation, error) {
	query := squirrel.Select(conversationColumns...).
		From("conversations").
		Where(squirrel.Eq{"id": id, "organization_id": organizationID}).
		PlaceholderFormat(squirrel.Dollar)

	sql, args, err := query.ToSql()
	if err != nil {
		return nil, err
	}

	conv, err := scanConversation(r.db.QueryRow(ctx, sql, args...))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	return conv, err
}

// ListByOrganization returns conversations newest-activity first, optionally
// filtered by status.
func (r *ConversationRepository) ListByOrganization(ctx context.Context, organizationID uuid.UUID, status models.ConversationStatus) ([]*models.Conversation, error) {
	query := squirrel.Select(conversationColumns...).
		From("conversations").
		Where(squirrel.Eq{"organization_id": organizationID}).
		OrderBy("updated_at DESC").
		PlaceholderFormat(squirrel.Dollar)

	if status != "" {
		query = query.Where(squirrel.Eq{"status": status})
	}

	sql, args, err := query.ToSql()
	if err != nil {
		return nil, err
	}

	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var conversations []*models.Conversation
	for rows.Next() {
		conv, err := scanConversation(rows)
		if err != nil {
			return nil, err
		}
		conversations = append(conversations, conv)
	}

	return conversations, rows.Err()
}

// FindActiveByPhone returns the client's active conversation, or ErrNotFound.
func (r *ConversationRepository) FindActiveByPhone(ctx context.Context, organizationID uuid.UUID, clientPhone string) (*models.Conversation, error) {
	query := squirrel.Select(conversationColumns...).
		From("conversations").
		Where(squirrel.Eq{
			"organization_id": organizationID,
			"client_phone":    clientPhone,
			"status":          models.ConversationActive,
		}).
		OrderBy("created_at DESC").
		Limit(1).
		PlaceholderFormat(squirrel.Dollar)

	sql, args, err := query.ToSql()
	if err != nil {
		return nil, err
	}

	conv, err := scanConversation(r.db.QueryRow(ctx, sql, args...))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	return conv, err
}

// Transfer hands the conversation to a human agent.
func (r *ConversationRepository) Transfer(ctx context.Context, organizationID, id uuid.UUID) (*models.Conversation, error) {
	query := squirrel.Update("conversations").
		Set("handled_by", models.HandledByHuman).
		Set("status", models.ConversationTransferred).
		Set("updated_at", squirrel.Expr("NOW()")).
		Where(squirrel.Eq{"id": id, "organization_id": organizationID}).
		Suffix("RETURNING " + joinColumns(conversationColumns)).
		PlaceholderFormat(squirrel.Dollar)

	sql, args, err := query.ToSql()
	if err != nil {
		return nil, err
	}

	conv, err := scanConversation(r.db.QueryRow(ctx, sql, args...))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	return conv, err
}

// SenderHasTag reports whether any of the sender's conversations carries one
// of the given tags.
func (r *ConversationRepository) SenderHasTag(ctx context.Context, organizationID uuid.UUID, clientPhone string, tags []string) (bool, error) {
	sql := `SELECT EXISTS (
		SELECT 1 FROM conversations
		WHERE organization_id = $1 AND client_phone = $2 AND tags && $3
	)`

	var exists bool
	err := r.db.QueryRow(ctx, sql, organizationID, clientPhone, tags).Scan(&exists)
	return exists, err
}

func (r *ConversationRepository) CreateMessage(ctx context.Context, msg *models.Message) error {
	query := squirrel.Insert("messages").
		Columns("id", "conversation_id", "content", "sender", "created_at").
		Values(msg.ID, msg.ConversationID, msg.Content, msg.Sender, msg.CreatedAt).
		PlaceholderFormat(squirrel.Dollar)

	sql, args, err := query.ToSql()
	if err != nil {
		return err
	}

	_, err = r.db.Exec(ctx, sql, args...)
	return err
}

// ListMessages returns the conversation's messages oldest-first, capped at
// limit when limit > 0.
func (r *ConversationRepository) ListMessages(ctx context.Context, conversationID uuid.UUID, limit int) ([]*models.Message, error) {
	query := squirrel.Select("id", "conversation_id", "content", "sender", "created_at").
		From("messages").
		Where(squirrel.Eq{"conversation_id": conversationID}).
		OrderBy("created_at ASC").
		PlaceholderFormat(squirrel.Dollar)

	if limit > 0 {
		query = query.Limit(uint64(limit))
	}

	sql, args, err := query.ToSql()
	if err != nil {
		return nil, err
	}

	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var messages []*models.Message
	for rows.Next() {
		var msg models.Message
		if err := rows.Scan(&msg.ID, &msg.ConversationID, &msg.Content, &msg.Sender, &msg.CreatedAt); err != nil {
			return nil, err
		}
		messages = append(messages, &msg)
	}

	return messages, rows.Err()
}

// ListRecentMessages returns the last n messages of the conversation in
// chronological order.
func (r *ConversationRepository) ListRecentMessages(ctx context.Context, conversationID uuid.UUID, n int) ([]*models.Message, error) {
	sql := `SELECT id, conversation_id, content, sender, created_at
		FROM (
			SELECT id, conversation_id, content, sender, created_at
			FROM messages
			WHERE conversation_id = $1
			ORDER BY created_at DESC
			LIMIT $2
		) recent
		ORDER BY created_at ASC`

	rows, err := r.db.Query(ctx, sql, conversationID, n)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var messages []*models.Message
	for rows.Next() {
		var msg models.Message
		if err := rows.Scan(&msg.ID, &msg.ConversationID, &msg.Content, &msg.Sender, &msg.CreatedAt); err != nil {
			return nil, err
		}
		messages = append(messages, &msg)
	}

	return messages, rows.Err()
}

func scanConversation(row pgx.Row) (*models.Conversation, error) {
	var conv models.Conversation
	err := row.Scan(
		&conv.ID, &conv.OrganizationID, &conv.ClientPhone, &conv.ClientName, &conv.Channel,
		&conv.Status, &conv.HandledBy, &conv.Tags, &conv.CreatedAt, &conv.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &conv, nil
}

func joinColumns(columns []string) string {
	return strings.Join(columns, ", ")
}
