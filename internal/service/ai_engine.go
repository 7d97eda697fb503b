package service

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"nexa/internal/models"
	"nexa/pkg/config"
	"nexa/pkg/retry"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// FallbackReply is sent when generation fails after retries. The client must
// always receive something, so composition degrades to this instead of
// surfacing an error.
const FallbackReply = "Sorry, I am having technical difficulties at the moment. " +
	"One of our agents will assist you shortly."

// messageHistory loads a conversation's messages, oldest first.
type messageHistory interface {
	ListMessages(ctx context.Context, conversationID uuid.UUID, limit int) ([]*models.Message, error)
	ListRecentMessages(ctx context.Context, conversationID uuid.UUID, n int) ([]*models.Message, error)
}

// knowledgeSearcher retrieves relevant knowledge chunks for a query.
type knowledgeSearcher interface {
	Search(ctx context.Context, organizationID uuid.UUID, query string, threshold float64, limit int) ([]models.DocumentMatch, error)
}

// restrictionLister loads the active rules whose names and descriptions are
// injected into the prompt as standing restrictions.
type restrictionLister interface {
	ListActiveByOrganization(ctx context.Context, organizationID uuid.UUID) ([]*models.BusinessRule, error)
}

// ComposeInput carries everything the engine needs to draft one reply.
type ComposeInput struct {
	OrganizationID uuid.UUID
	ConversationID uuid.UUID
	Message        string
	IsVIP          bool
}

// AIEngine drafts customer-facing replies grounded in the organization's
// knowledge base and runs the auxiliary classification prompts.
type AIEngine struct {
	generator TextGenerator
	retrieval knowledgeSearcher
	history   messageHistory
	rules     restrictionLister
	config    *config.RAGConfig
	policy    retry.Policy
	logger    *zap.Logger
}

func NewAIEngine(generator TextGenerator, retrieval knowledgeSearcher, history messageHistory, rules restrictionLister, cfg *config.RAGConfig, logger *zap.Logger) *AIEngine {
	return &AIEngine{
		generator: generator,
		retrieval: retrieval,
		history:   history,
		rules:     rules,
		config:    cfg,
		policy:    providerRetryPolicy(),
		logger:    logger,
	}
}

// ComposeReply drafts a reply for the inbound message. Retrieval and history
// failures degrade to a prompt without that section; generation failure
// degrades to the fixed fallback reply.
func (e *AIEngine) ComposeReply(ctx context.Context, input ComposeInput) string {
	knowledge, err := e.retrieval.Search(ctx, input.OrganizationID, input.Message,
		e.config.ComposeThreshold, 3)
	if err != nil {
		e.logger.Warn("Knowledge retrieval failed, composing without context", zap.Error(err))
	}

	var history []*models.Message
	if input.ConversationID != uuid.Nil {
		history, err = e.history.ListRecentMessages(ctx, input.ConversationID, e.config.HistoryTurns)
		if err != nil {
			e.logger.Warn("History load failed, composing without history", zap.Error(err))
		}
	}

	restrictions, err := e.rules.ListActiveByOrganization(ctx, input.OrganizationID)
	if err != nil {
		e.logger.Warn("Rule load failed, composing without restrictions", zap.Error(err))
	}

	prompt := e.buildPrompt(input, knowledge, history, restrictions)

	reply, err := e.generate(ctx, prompt)
	if err != nil {
		e.logger.Error("Reply generation failed, using fallback", zap.Error(err))
		return FallbackReply
	}

	return strings.TrimSpace(reply)
}

func (e *AIEngine) buildPrompt(input ComposeInput, knowledge []models.DocumentMatch, history []*models.Message, restrictions []*models.BusinessRule) string {
	var b strings.Builder

	b.WriteString("You are Nexa, a customer support assistant. ")
	b.WriteString("Answer the client's message helpfully and concisely, in the client's language. ")
	b.WriteString("Base your answer only on the company knowledge below. ")
	b.WriteString("If the knowledge does not cover the question, say so and offer to connect a human agent.\n\n")

	if len(restrictions) > 0 {
		b.WriteString("Business rules that must always be respected:\n")
		for _, rule := range restrictions {
			b.WriteString("- ")
			b.WriteString(rule.Name)
			if rule.Description != "" {
				b.WriteString(": ")
				b.WriteString(rule.Description)
			}
			b.WriteString("\n")
		}
		b.WriteString("\n")
	}

	if len(knowledge) > 0 {
		b.WriteString("Company knowledge:\n")
		parts := make([]string, len(knowledge))
		for i, match := range knowledge {
			parts[i] = match.Content
		}
		b.WriteString(strings.Join(parts, "\n\n---\n\n"))
		b.WriteString("\n\n")
	}

	if len(history) > 0 {
		b.WriteString("Conversation so far:\n")
		for _, msg := range history {
			b.WriteString(string(msg.Sender))
			b.WriteString(": ")
			b.WriteString(msg.Content)
			b.WriteString("\n")
		}
		b.WriteString("\n")
	}

	if input.IsVIP {
		b.WriteString("This is a VIP client. Be especially attentive and offer priority treatment.\n\n")
	}

	b.WriteString("Client message: ")
	b.WriteString(input.Message)

	return b.String()
}

// AnalyzeSentiment classifies the emotional tone of a message. Provider or
// parse failures fall back to a neutral result so rule evaluation never
// blocks on it.
func (e *AIEngine) AnalyzeSentiment(ctx context.Context, message string) (*models.Sentiment, error) {
	prompt := fmt.Sprintf(`Classify the sentiment of this customer message.
Reply with only a JSON object: {"sentiment": "positive"|"neutral"|"negative", "score": 0.0-1.0, "keywords": [...]}.
Score is your confidence in the label.

Message: %s`, message)

	raw, err := e.generate(ctx, prompt)
	if err != nil {
		e.logger.Warn("Sentiment analysis failed, defaulting to neutral", zap.Error(err))
		return neutralSentiment(), nil
	}

	var sentiment models.Sentiment
	if err := json.Unmarshal([]byte(stripCodeFence(raw)), &sentiment); err != nil {
		e.logger.Warn("Sentiment response was not valid JSON, defaulting to neutral",
			zap.String("response", raw),
		)
		return neutralSentiment(), nil
	}
	if sentiment.Sentiment == "" {
		return neutralSentiment(), nil
	}
	if sentiment.Keywords == nil {
		sentiment.Keywords = []string{}
	}

	return &sentiment, nil
}

// SummarizeConversation produces a short operator-facing summary of the
// conversation so far.
func (e *AIEngine) SummarizeConversation(ctx context.Context, conversationID uuid.UUID) (string, error) {
	history, err := e.history.ListMessages(ctx, conversationID, 0)
	if err != nil {
		return "", fmt.Errorf("failed to load conversation: %w", err)
	}
	if len(history) == 0 {
		return "", fmt.Errorf("conversation has no messages")
	}

	var b strings.Builder
	b.WriteString("Summarize this customer support conversation in a few sentences ")
	b.WriteString("for the agent taking it over. Mention the client's issue and its current state.\n\n")
	for _, msg := range history {
		b.WriteString(string(msg.Sender))
		b.WriteString(": ")
		b.WriteString(msg.Content)
		b.WriteString("\n")
	}

	summary, err := e.generate(ctx, b.String())
	if err != nil {
		return "", fmt.Errorf("failed to summarize conversation: %w", err)
	}

	return strings.TrimSpace(summary), nil
}

func (e *AIEngine) generate(ctx context.Context, prompt string) (string, error) {
	var out string
	err := e.policy.Do(ctx, func(ctx context.Context) error {
		result, err := e.generator.GenerateText(ctx, prompt)
		if err != nil {
			return err
		}
		out = result
		return nil
	})
	return out, err
}

func neutralSentiment() *models.Sentiment {
	return &models.Sentiment{
		Sentiment: "neutral",
		Score:     0.5,
		Keywords:  []string{},
	}
}

// stripCodeFence removes a surrounding markdown code fence, which chat models
// like to wrap JSON in despite instructions.
func stripCodeFence(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}
