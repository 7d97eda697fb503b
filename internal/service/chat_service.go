package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"nexa/internal/models"
	"nexa/internal/repository"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ErrConversationClosed rejects writes to a closed conversation.
var ErrConversationClosed = errors.New("conversation is closed")

// ChatService exposes conversations to the operator dashboard and runs the
// AI auto-reply for messages arriving through the API.
type ChatService struct {
	conversations *repository.ConversationRepository
	engine        *AIEngine
	logger        *zap.Logger
}

func NewChatService(conversations *repository.ConversationRepository, engine *AIEngine, logger *zap.Logger) *ChatService {
	return &ChatService{
		conversations: conversations,
		engine:        engine,
		logger:        logger,
	}
}

func (s *ChatService) ListConversations(ctx context.Context, organizationID uuid.UUID, status models.ConversationStatus) ([]*models.Conversation, error) {
	return s.conversations.ListByOrganization(ctx, organizationID, status)
}

func (s *ChatService) GetConversation(ctx context.Context, organizationID, id uuid.UUID) (*models.Conversation, error) {
	return s.conversations.GetByID(ctx, organizationID, id)
}

func (s *ChatService) ListMessages(ctx context.Context, organizationID, conversationID uuid.UUID) ([]*models.Message, error) {
	if _, err := s.conversations.GetByID(ctx, organizationID, conversationID); err != nil {
		return nil, err
	}
	return s.conversations.ListMessages(ctx, conversationID, 0)
}

// SendMessage appends a message to the conversation. A client message in an
// AI-handled conversation also triggers the auto-reply; the returned slice
// holds everything that was appended, in order.
func (s *ChatService) SendMessage(ctx context.Context, organizationID, conversationID uuid.UUID, sender models.MessageSender, content string) ([]*models.Message, error) {
	conv, err := s.conversations.GetByID(ctx, organizationID, conversationID)
	if err != nil {
		return nil, err
	}
	if conv.Status == models.ConversationClosed {
		return nil, ErrConversationClosed
	}

	msg := &models.Message{
		ID:             uuid.New(),
		ConversationID: conversationID,
		Content:        content,
		Sender:         sender,
		CreatedAt:      time.Now(),
	}
	if err := s.conversations.CreateMessage(ctx, msg); err != nil {
		return nil, fmt.Errorf("failed to save message: %w", err)
	}
	appended := []*models.Message{msg}

	if sender != models.SenderClient || conv.HandledBy != models.HandledByAI {
		return appended, nil
	}

	reply := s.engine.ComposeReply(ctx, ComposeInput{
		OrganizationID: organizationID,
		ConversationID: conversationID,
		Message:        content,
	})

	aiMsg := &models.Message{
		ID:             uuid.New(),
		ConversationID: conversationID,
		Content:        reply,
		Sender:         models.SenderAI,
		CreatedAt:      time.Now(),
	}
	if err := s.conversations.CreateMessage(ctx, aiMsg); err != nil {
		return nil, fmt.Errorf("failed to save AI reply: %w", err)
	}

	return append(appended, aiMsg), nil
}

// Transfer hands the conversation to a human agent.
func (s *ChatService) Transfer(ctx context.Context, organizationID, conversationID uuid.UUID) (*models.Conversation, error) {
	conv, err := s.conversations.Transfer(ctx, organizationID, conversationID)
	if err != nil {
		return nil, err
	}

	s.logger.Info("Conversation transferred",
		zap.String("conversation_id", conversationID.String()),
	)

	return conv, nil
}

// Summarize produces a hand-over summary for the conversation.
func (s *ChatService) Summarize(ctx context.Context, organizationID, conversationID uuid.UUID) (string, error) {
	if _, err := s.conversations.GetByID(ctx, organizationID, conversationID); err != nil {
		return "", err
	}
	return s.engine.SummarizeConversation(ctx, conversationID)
}
