package handlers

import (
	"context"
	"errors"
	"strings"

	"nexa/internal/dto"
	"nexa/internal/repository"
	"nexa/internal/service"
	"nexa/pkg/workers"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

type WebhookHandler struct {
	webhookService *service.WebhookService
	pool           *workers.Pool
	logger         *zap.Logger
}

func NewWebhookHandler(webhookService *service.WebhookService, pool *workers.Pool, logger *zap.Logger) *WebhookHandler {
	return &WebhookHandler{
		webhookService: webhookService,
		pool:           pool,
		logger:         logger,
	}
}

// WhatsApp godoc
// @Summary Receive a WhatsApp gateway webhook
// @Description Accepts the gateway payload, queues processing and returns immediately. Echo messages and non-message events are acknowledged and dropped.
// @Tags webhooks
// @Accept json
// @Produce json
// @Success 200 {object} dto.WebhookResponse
// @Failure 400 {object} map[string]string
// @Router /webhooks/whatsapp [post]
func (h *WebhookHandler) WhatsApp(c *fiber.Ctx) error {
	var payload dto.WhatsAppWebhook
	if err := c.BodyParser(&payload); err != nil {
		return badRequest(c, "Invalid webhook payload")
	}

	// The gateway echoes our own outbound messages back; drop them.
	if payload.Data.Key.FromMe {
		return c.JSON(dto.WebhookResponse{Status: "ignored"})
	}

	text := payload.Data.Message.Text()
	if payload.Instance == "" || text == "" {
		return c.JSON(dto.WebhookResponse{Status: "ignored"})
	}

	inbound := service.InboundMessage{
		Instance:    payload.Instance,
		ClientPhone: phoneFromJID(payload.Data.Key.RemoteJID),
		ClientName:  payload.Data.PushName,
		Text:        text,
	}
	if inbound.ClientPhone == "" {
		return badRequest(c, "Missing sender")
	}

	if err := h.pool.Submit(func(ctx context.Context) error {
		outcome, err := h.webhookService.HandleInbound(ctx, inbound)
		if err != nil {
			h.logger.Error("Inbound message processing failed",
				zap.String("instance", inbound.Instance),
				zap.Error(err),
			)
			return err
		}
		h.logger.Info("Inbound message processed",
			zap.String("instance", inbound.Instance),
			zap.String("action", string(outcome.Action)),
		)
		return nil
	}); err != nil {
		h.logger.Error("Failed to queue inbound message", zap.Error(err))
		return internalError(c, "Failed to queue message")
	}

	return c.JSON(dto.WebhookResponse{Status: "accepted"})
}

// ERP godoc
// @Summary Receive a generic ERP webhook
// @Description Acknowledges a push from an external system tied to an integration and advances its sync time.
// @Tags webhooks
// @Accept json
// @Produce json
// @Param id path string true "Integration ID"
// @Success 200 {object} dto.WebhookResponse
// @Failure 404 {object} map[string]string
// @Router /webhooks/erp/{id} [post]
func (h *WebhookHandler) ERP(c *fiber.Ctx) error {
	id, err := parseIDParam(c, "id")
	if err != nil {
		return badRequest(c, "Invalid integration id")
	}

	if err := h.webhookService.HandleERP(c.Context(), id, c.Body()); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return notFound(c, "Integration not found")
		}
		h.logger.Error("ERP webhook failed", zap.Error(err))
		return internalError(c, "Failed to process webhook")
	}

	return c.JSON(dto.WebhookResponse{Status: "ok"})
}

// phoneFromJID turns "5511999990000@s.whatsapp.net" into "+5511999990000".
func phoneFromJID(jid string) string {
	number, _, _ := strings.Cut(jid, "@")
	if number == "" {
		return ""
	}
	if !strings.HasPrefix(number, "+") {
		number = "+" + number
	}
	return number
}
