package handlers

import (
	"errors"
	"time"

	"nexa/internal/dto"
	"nexa/internal/models"
	"nexa/internal/repository"
	"nexa/internal/service"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

type ChatHandler struct {
	chatService *service.ChatService
	logger      *zap.Logger
}

func NewChatHandler(chatService *service.ChatService, logger *zap.Logger) *ChatHandler {
	return &ChatHandler{
		chatService: chatService,
		logger:      logger,
	}
}

// ListConversations godoc
// @Summary List conversations
// @Tags chat
// @Produce json
// @Param status query string false "Filter by status: active, transferred, closed"
// @Security Bearer
// @Success 200 {array} dto.ConversationResponse
// @Router /api/chat/conversations [get]
func (h *ChatHandler) ListConversations(c *fiber.Ctx) error {
	organizationID, err := getOrganizationID(c)
	if err != nil {
		return unauthorized(c)
	}

	status := models.ConversationStatus(c.Query("status"))
	conversations, err := h.chatService.ListConversations(c.Context(), organizationID, status)
	if err != nil {
		h.logger.Error("Failed to list conversations", zap.Error(err))
		return internalError(c, "Failed to list conversations")
	}

	resp := make([]dto.ConversationResponse, 0, len(conversations))
	for _, conv := range conversations {
		resp = append(resp, conversationResponse(conv))
	}
	return c.JSON(resp)
}

// GetConversation godoc
// @Summary Get one conversation
// @Tags chat
// @Produce json
// @Param id path string true "Conversation ID"
// @Security Bearer
// @Success 200 {object} dto.ConversationResponse
// @Failure 404 {object} map[string]string
// @Router /api/chat/conversations/{id} [get]
func (h *ChatHandler) GetConversation(c *fiber.Ctx) error {
	organizationID, err := getOrganizationID(c)
	if err != nil {
		return unauthorized(c)
	}
	id, err := parseIDParam(c, "id")
	if err != nil {
		return badRequest(c, "Invalid conversation id")
	}

	conv, err := h.chatService.GetConversation(c.Context(), organizationID, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return notFound(c, "Conversation not found")
		}
		h.logger.Error("Failed to get conversation", zap.Error(err))
		return internalError(c, "Failed to get conversation")
	}

	return c.JSON(conversationResponse(conv))
}

// ListMessages godoc
// @Summary List a conversation's messages
// @Tags chat
// @Produce json
// @Param id path string true "Conversation ID"
// @Security Bearer
// @Success 200 {array} dto.MessageResponse
// @Failure 404 {object} map[string]string
// @Router /api/chat/conversations/{id}/messages [get]
func (h *ChatHandler) ListMessages(c *fiber.Ctx) error {
	organizationID, err := getOrganizationID(c)
	if err != nil {
		return unauthorized(c)
	}
	id, err := parseIDParam(c, "id")
	if err != nil {
		return badRequest(c, "Invalid conversation id")
	}

	messages, err := h.chatService.ListMessages(c.Context(), organizationID, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return notFound(c, "Conversation not found")
		}
		h.logger.Error("Failed to list messages", zap.Error(err))
		return internalError(c, "Failed to list messages")
	}

	resp := make([]dto.MessageResponse, 0, len(messages))
	for _, msg := range messages {
		resp = append(resp, messageResponse(msg))
	}
	return c.JSON(resp)
}

// SendMessage godoc
// @Summary Append a message to a conversation
// @Description A client message in an AI-handled conversation also returns the generated reply.
// @Tags chat
// @Accept json
// @Produce json
// @Param id path string true "Conversation ID"
// @Param request body dto.SendMessageRequest true "Message"
// @Security Bearer
// @Success 201 {array} dto.MessageResponse
// @Failure 400 {object} map[string]string
// @Failure 404 {object} map[string]string
// @Router /api/chat/conversations/{id}/messages [post]
func (h *ChatHandler) SendMessage(c *fiber.Ctx) error {
	organizationID, err := getOrganizationID(c)
	if err != nil {
		return unauthorized(c)
	}
	id, err := parseIDParam(c, "id")
	if err != nil {
		return badRequest(c, "Invalid conversation id")
	}

	var req dto.SendMessageRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}
	if req.Content == "" {
		return badRequest(c, "content is required")
	}
	sender := models.MessageSender(req.Sender)
	if sender != models.SenderClient && sender != models.SenderAgent {
		return badRequest(c, "sender must be client or agent")
	}

	messages, err := h.chatService.SendMessage(c.Context(), organizationID, id, sender, req.Content)
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrNotFound):
			return notFound(c, "Conversation not found")
		case errors.Is(err, service.ErrConversationClosed):
			return badRequest(c, "Conversation is closed")
		}
		h.logger.Error("Failed to send message", zap.Error(err))
		return internalError(c, "Failed to send message")
	}

	resp := make([]dto.MessageResponse, 0, len(messages))
	for _, msg := range messages {
		resp = append(resp, messageResponse(msg))
	}
	return c.Status(fiber.StatusCreated).JSON(resp)
}

// Transfer godoc
// @Summary Transfer a conversation to a human agent
// @Tags chat
// @Produce json
// @Param id path string true "Conversation ID"
// @Security Bearer
// @Success 200 {object} dto.ConversationResponse
// @Failure 404 {object} map[string]string
// @Router /api/chat/conversations/{id}/transfer [post]
func (h *ChatHandler) Transfer(c *fiber.Ctx) error {
	organizationID, err := getOrganizationID(c)
	if err != nil {
		return unauthorized(c)
	}
	id, err := parseIDParam(c, "id")
	if err != nil {
		return badRequest(c, "Invalid conversation id")
	}

	conv, err := h.chatService.Transfer(c.Context(), organizationID, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return notFound(c, "Conversation not found")
		}
		h.logger.Error("Failed to transfer conversation", zap.Error(err))
		return internalError(c, "Failed to transfer conversation")
	}

	return c.JSON(conversationResponse(conv))
}

// Summarize godoc
// @Summary Summarize a conversation for hand-over
// @Tags chat
// @Produce json
// @Param id path string true "Conversation ID"
// @Security Bearer
// @Success 200 {object} dto.SummarizeResponse
// @Failure 404 {object} map[string]string
// @Router /api/chat/conversations/{id}/summarize [post]
func (h *ChatHandler) Summarize(c *fiber.Ctx) error {
	organizationID, err := getOrganizationID(c)
	if err != nil {
		return unauthorized(c)
	}
	id, err := parseIDParam(c, "id")
	if err != nil {
		return badRequest(c, "Invalid conversation id")
	}

	summary, err := h.chatService.Summarize(c.Context(), organizationID, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return notFound(c, "Conversation not found")
		}
		h.logger.Error("Failed to summarize conversation", zap.Error(err))
		return internalError(c, "Failed to summarize conversation")
	}

	return c.JSON(dto.SummarizeResponse{
		ConversationID: id.String(),
		Summary:        summary,
	})
}

func conversationResponse(conv *models.Conversation) dto.ConversationResponse {
	return dto.ConversationResponse{
		ID:          conv.ID.String(),
		ClientPhone: conv.ClientPhone,
		ClientName:  conv.ClientName,
		Status:      string(conv.Status),
		HandledBy:   string(conv.HandledBy),
		Tags:        conv.Tags,
		CreatedAt:   conv.CreatedAt.Format(time.RFC3339),
		UpdatedAt:   conv.UpdatedAt.Format(time.RFC3339),
	}
}

func messageResponse(msg *models.Message) dto.MessageResponse {
	return dto.MessageResponse{
		ID:             msg.ID.String(),
		ConversationID: msg.ConversationID.String(),
		Sender:         string(msg.Sender),
		Content:        msg.Content,
		CreatedAt:      msg.CreatedAt.Format(time.RFC3339),
	}
}
