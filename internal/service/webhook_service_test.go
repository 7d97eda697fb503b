package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"nexa/internal/models"
	"nexa/internal/repository"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeIntegrations struct {
	integration *models.Integration
	err         error
	touched     bool
}

func (f *fakeIntegrations) FindWhatsAppByInstance(ctx context.Context, instance string) (*models.Integration, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.integration, nil
}

func (f *fakeIntegrations) FindByID(ctx context.Context, id uuid.UUID) (*models.Integration, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.integration, nil
}

func (f *fakeIntegrations) TouchLastSync(ctx context.Context, id uuid.UUID) error {
	f.touched = true
	return nil
}

type fakeConversations struct {
	existing    *models.Conversation
	created     *models.Conversation
	messages    []*models.Message
	transferred bool
}

func (f *fakeConversations) FindActiveByPhone(ctx context.Context, organizationID uuid.UUID, clientPhone string) (*models.Conversation, error) {
	if f.existing == nil {
		return nil, repository.ErrNotFound
	}
	return f.existing, nil
}

func (f *fakeConversations) Create(ctx context.Context, conv *models.Conversation) error {
	f.created = conv
	return nil
}

func (f *fakeConversations) CreateMessage(ctx context.Context, msg *models.Message) error {
	f.messages = append(f.messages, msg)
	return nil
}

func (f *fakeConversations) Transfer(ctx context.Context, organizationID, id uuid.UUID) (*models.Conversation, error) {
	f.transferred = true
	return &models.Conversation{ID: id, Status: models.ConversationTransferred, HandledBy: models.HandledByHuman}, nil
}

type fakeEvaluator struct {
	result *models.RuleEvaluationResult
	err    error
}

func (f *fakeEvaluator) Evaluate(ctx context.Context, organizationID uuid.UUID, phoneNumber, message string) (*models.RuleEvaluationResult, error) {
	return f.result, f.err
}

type fakeComposer struct {
	reply string
	input ComposeInput
	calls int
}

func (f *fakeComposer) ComposeReply(ctx context.Context, input ComposeInput) string {
	f.calls++
	f.input = input
	return f.reply
}

func testIntegration() *models.Integration {
	return &models.Integration{
		ID:             uuid.New(),
		OrganizationID: uuid.New(),
		Type:           "whatsapp",
	}
}

func continueResult() *models.RuleEvaluationResult {
	return &models.RuleEvaluationResult{Action: models.ActionContinue, Context: map[string]any{}}
}

func inbound() InboundMessage {
	return InboundMessage{
		Instance:    "acme-main",
		ClientPhone: "+5511999990000",
		ClientName:  "Maria",
		Text:        "How long do refunds take?",
	}
}

func TestHandleInboundNewConversationAIReplies(t *testing.T) {
	integrations := &fakeIntegrations{integration: testIntegration()}
	conversations := &fakeConversations{}
	composer := &fakeComposer{reply: "Refunds take 5 business days."}
	svc := NewWebhookService(integrations, conversations, &fakeEvaluator{result: continueResult()}, composer, zap.NewNop())

	outcome, err := svc.HandleInbound(context.Background(), inbound())

	require.NoError(t, err)
	assert.Equal(t, models.ActionContinue, outcome.Action)
	assert.Equal(t, "Refunds take 5 business days.", outcome.Reply)
	assert.True(t, integrations.touched)

	require.NotNil(t, conversations.created)
	assert.Equal(t, "whatsapp", conversations.created.Channel)
	assert.Equal(t, models.HandledByAI, conversations.created.HandledBy)
	assert.Equal(t, "Maria", conversations.created.ClientName)

	require.Len(t, conversations.messages, 2)
	assert.Equal(t, models.SenderClient, conversations.messages[0].Sender)
	assert.Equal(t, "How long do refunds take?", conversations.messages[0].Content)
	assert.Equal(t, models.SenderAI, conversations.messages[1].Sender)
}

func TestHandleInboundBlockLeavesNoTrace(t *testing.T) {
	integrations := &fakeIntegrations{integration: testIntegration()}
	conversations := &fakeConversations{}
	evaluator := &fakeEvaluator{result: &models.RuleEvaluationResult{
		Action:   models.ActionBlock,
		RuleName: "spam numbers",
	}}
	composer := &fakeComposer{}
	svc := NewWebhookService(integrations, conversations, evaluator, composer, zap.NewNop())

	outcome, err := svc.HandleInbound(context.Background(), inbound())

	require.NoError(t, err)
	assert.Equal(t, models.ActionBlock, outcome.Action)
	assert.Equal(t, "spam numbers", outcome.RuleName)
	assert.Nil(t, conversations.created)
	assert.Empty(t, conversations.messages)
	assert.Equal(t, 0, composer.calls)
}

func TestHandleInboundTransfer(t *testing.T) {
	integrations := &fakeIntegrations{integration: testIntegration()}
	conversations := &fakeConversations{}
	evaluator := &fakeEvaluator{result: &models.RuleEvaluationResult{
		Action:   models.ActionTransfer,
		RuleName: "escalate cancellations",
	}}
	composer := &fakeComposer{}
	svc := NewWebhookService(integrations, conversations, evaluator, composer, zap.NewNop())

	outcome, err := svc.HandleInbound(context.Background(), inbound())

	require.NoError(t, err)
	assert.Equal(t, models.ActionTransfer, outcome.Action)
	assert.True(t, conversations.transferred)
	assert.Equal(t, 0, composer.calls, "no AI reply on transfer")

	require.Len(t, conversations.messages, 1, "client message is still recorded")
	assert.Equal(t, models.SenderClient, conversations.messages[0].Sender)
}

func TestHandleInboundHumanOwnedConversationSilent(t *testing.T) {
	integrations := &fakeIntegrations{integration: testIntegration()}
	conversations := &fakeConversations{existing: &models.Conversation{
		ID:        uuid.New(),
		Status:    models.ConversationTransferred,
		HandledBy: models.HandledByHuman,
		CreatedAt: time.Now(),
	}}
	composer := &fakeComposer{reply: "should not be sent"}
	svc := NewWebhookService(integrations, conversations, &fakeEvaluator{result: continueResult()}, composer, zap.NewNop())

	outcome, err := svc.HandleInbound(context.Background(), inbound())

	require.NoError(t, err)
	assert.Empty(t, outcome.Reply)
	assert.Equal(t, 0, composer.calls)
	require.Len(t, conversations.messages, 1, "client message saved for the human agent")
}

func TestHandleInboundVIPContextReachesComposer(t *testing.T) {
	integrations := &fakeIntegrations{integration: testIntegration()}
	conversations := &fakeConversations{}
	evaluator := &fakeEvaluator{result: &models.RuleEvaluationResult{
		Action:  models.ActionContinue,
		Context: map[string]any{"is_vip": true},
	}}
	composer := &fakeComposer{reply: "Right away!"}
	svc := NewWebhookService(integrations, conversations, evaluator, composer, zap.NewNop())

	_, err := svc.HandleInbound(context.Background(), inbound())

	require.NoError(t, err)
	assert.True(t, composer.input.IsVIP)
}

func TestHandleInboundUnknownInstance(t *testing.T) {
	integrations := &fakeIntegrations{err: repository.ErrNotFound}
	svc := NewWebhookService(integrations, &fakeConversations{}, &fakeEvaluator{result: continueResult()}, &fakeComposer{}, zap.NewNop())

	_, err := svc.HandleInbound(context.Background(), inbound())

	assert.ErrorIs(t, err, ErrUnknownInstance)
}

func TestHandleERPTouchesSyncTime(t *testing.T) {
	integration := testIntegration()
	integrations := &fakeIntegrations{integration: integration}
	svc := NewWebhookService(integrations, &fakeConversations{}, &fakeEvaluator{result: continueResult()}, &fakeComposer{}, zap.NewNop())

	err := svc.HandleERP(context.Background(), integration.ID, []byte(`{"orders":[{"id":1}]}`))

	require.NoError(t, err)
	assert.True(t, integrations.touched)
}

func TestHandleERPUnknownIntegration(t *testing.T) {
	integrations := &fakeIntegrations{err: repository.ErrNotFound}
	svc := NewWebhookService(integrations, &fakeConversations{}, &fakeEvaluator{result: continueResult()}, &fakeComposer{}, zap.NewNop())

	err := svc.HandleERP(context.Background(), uuid.New(), []byte(`{}`))

	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestHandleInboundEvaluationFailure(t *testing.T) {
	integrations := &fakeIntegrations{integration: testIntegration()}
	evaluator := &fakeEvaluator{err: errors.New("db down")}
	svc := NewWebhookService(integrations, &fakeConversations{}, evaluator, &fakeComposer{}, zap.NewNop())

	_, err := svc.HandleInbound(context.Background(), inbound())

	assert.Error(t, err)
}
