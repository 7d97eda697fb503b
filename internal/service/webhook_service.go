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

// ErrUnknownInstance means no WhatsApp integration claims the gateway
// instance that sent the webhook.
var ErrUnknownInstance = errors.New("unknown integration instance")

// InboundMessage is one client message delivered by a channel gateway,
// already stripped of transport framing.
type InboundMessage struct {
	Instance    string
	ClientPhone string
	ClientName  string
	Text        string
}

// InboundOutcome reports what the pipeline decided for one message.
type InboundOutcome struct {
	Action         models.ActionType
	RuleName       string
	ConversationID uuid.UUID
	Reply          string
}

type integrationResolver interface {
	FindWhatsAppByInstance(ctx context.Context, instance string) (*models.Integration, error)
	FindByID(ctx context.Context, id uuid.UUID) (*models.Integration, error)
	TouchLastSync(ctx context.Context, id uuid.UUID) error
}

type conversationStore interface {
	FindActiveByPhone(ctx context.Context, organizationID uuid.UUID, clientPhone string) (*models.Conversation, error)
	Create(ctx context.Context, conv *models.Conversation) error
	CreateMessage(ctx context.Context, msg *models.Message) error
	Transfer(ctx context.Context, organizationID, id uuid.UUID) (*models.Conversation, error)
}

type ruleEvaluator interface {
	Evaluate(ctx context.Context, organizationID uuid.UUID, phoneNumber, message string) (*models.RuleEvaluationResult, error)
}

type replyComposer interface {
	ComposeReply(ctx context.Context, input ComposeInput) string
}

// WebhookService drives the inbound message pipeline: resolve the
// organization, run the rules, persist the exchange and draft the AI reply.
type WebhookService struct {
	integrations  integrationResolver
	conversations conversationStore
	engine        ruleEvaluator
	composer      replyComposer
	logger        *zap.Logger
}

func NewWebhookService(integrations integrationResolver, conversations conversationStore, engine ruleEvaluator, composer replyComposer, logger *zap.Logger) *WebhookService {
	return &WebhookService{
		integrations:  integrations,
		conversations: conversations,
		engine:        engine,
		composer:      composer,
		logger:        logger,
	}
}

// HandleInbound processes one client message end to end. A blocked message
// leaves no trace; everything else lands in a conversation.
func (s *WebhookService) HandleInbound(ctx context.Context, inbound InboundMessage) (*InboundOutcome, error) {
	integration, err := s.integrations.FindWhatsAppByInstance(ctx, inbound.Instance)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, fmt.Errorf("%w: %s", ErrUnknownInstance, inbound.Instance)
		}
		return nil, fmt.Errorf("failed to resolve integration: %w", err)
	}
	organizationID := integration.OrganizationID

	if err := s.integrations.TouchLastSync(ctx, integration.ID); err != nil {
		s.logger.Warn("Failed to touch integration sync time", zap.Error(err))
	}

	result, err := s.engine.Evaluate(ctx, organizationID, inbound.ClientPhone, inbound.Text)
	if err != nil {
		return nil, fmt.Errorf("rule evaluation failed: %w", err)
	}

	if result.Action == models.ActionBlock {
		s.logger.Info("Message blocked by rule",
			zap.String("rule", result.RuleName),
			zap.String("phone", inbound.ClientPhone),
		)
		return &InboundOutcome{Action: models.ActionBlock, RuleName: result.RuleName}, nil
	}

	conv, err := s.findOrCreateConversation(ctx, organizationID, inbound)
	if err != nil {
		return nil, err
	}

	if err := s.saveMessage(ctx, conv.ID, models.SenderClient, inbound.Text); err != nil {
		return nil, fmt.Errorf("failed to save client message: %w", err)
	}

	outcome := &InboundOutcome{
		Action:         result.Action,
		RuleName:       result.RuleName,
		ConversationID: conv.ID,
	}

	if result.Action == models.ActionTransfer {
		if _, err := s.conversations.Transfer(ctx, organizationID, conv.ID); err != nil {
			return nil, fmt.Errorf("failed to transfer conversation: %w", err)
		}
		s.logger.Info("Conversation transferred to human",
			zap.String("conversation_id", conv.ID.String()),
			zap.String("rule", result.RuleName),
		)
		return outcome, nil
	}

	// Continue: only the AI replies, and only while it still owns the
	// conversation.
	if conv.HandledBy != models.HandledByAI {
		return outcome, nil
	}

	isVIP, _ := result.Context["is_vip"].(bool)
	reply := s.composer.ComposeReply(ctx, ComposeInput{
		OrganizationID: organizationID,
		ConversationID: conv.ID,
		Message:        inbound.Text,
		IsVIP:          isVIP,
	})

	if err := s.saveMessage(ctx, conv.ID, models.SenderAI, reply); err != nil {
		return nil, fmt.Errorf("failed to save AI reply: %w", err)
	}

	outcome.Reply = reply
	return outcome, nil
}

// HandleERP acknowledges a push from an external ERP system. The payload is
// recorded in the log and the integration's sync time advances; nothing else
// consumes ERP data yet.
func (s *WebhookService) HandleERP(ctx context.Context, integrationID uuid.UUID, payload []byte) error {
	integration, err := s.integrations.FindByID(ctx, integrationID)
	if err != nil {
		return fmt.Errorf("failed to resolve integration: %w", err)
	}

	s.logger.Info("ERP webhook received",
		zap.String("integration_id", integration.ID.String()),
		zap.String("organization_id", integration.OrganizationID.String()),
		zap.ByteString("payload", payload),
	)

	if err := s.integrations.TouchLastSync(ctx, integration.ID); err != nil {
		return fmt.Errorf("failed to touch integration sync time: %w", err)
	}
	return nil
}

func (s *WebhookService) findOrCreateConversation(ctx context.Context, organizationID uuid.UUID, inbound InboundMessage) (*models.Conversation, error) {
	conv, err := s.conversations.FindActiveByPhone(ctx, organizationID, inbound.ClientPhone)
	if err == nil {
		return conv, nil
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return nil, fmt.Errorf("failed to look up conversation: %w", err)
	}

	now := time.Now()
	conv = &models.Conversation{
		ID:             uuid.New(),
		OrganizationID: organizationID,
		ClientPhone:    inbound.ClientPhone,
		ClientName:     inbound.ClientName,
		Channel:        "whatsapp",
		Status:         models.ConversationActive,
		HandledBy:      models.HandledByAI,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if err := s.conversations.Create(ctx, conv); err != nil {
		return nil, fmt.Errorf("failed to create conversation: %w", err)
	}

	s.logger.Info("Conversation started",
		zap.String("conversation_id", conv.ID.String()),
		zap.String("phone", inbound.ClientPhone),
	)

	return conv, nil
}

func (s *WebhookService) saveMessage(ctx context.Context, conversationID uuid.UUID, sender models.MessageSender, content string) error {
	return s.conversations.CreateMessage(ctx, &models.Message{
		ID:             uuid.New(),
		ConversationID: conversationID,
		Content:        content,
		Sender:         sender,
		CreatedAt:      time.Now(),
	})
}
