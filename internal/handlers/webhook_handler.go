package handlers

import (
	"log"

	"github.com/gofiber/fiber/v2"

	"storefront/internal/services"
)

// WebhookHandler receives payment-gateway notifications.
//
// Response contract: malformed payloads, unrelated topics, and unknown
// payments/orders are acknowledged with 200 so the gateway never retries
// them into a backlog. Only transient reconciliation failures (credentials
// missing, gateway unreachable, persistence errors) answer 5xx, which
// triggers the gateway's redelivery.
type WebhookHandler struct {
	reconciler *services.ReconcileService
}

// NewWebhookHandler creates a new WebhookHandler.
func NewWebhookHandler(reconciler *services.ReconcileService) *WebhookHandler {
	return &WebhookHandler{reconciler: reconciler}
}

// RegisterRoutes registers the webhook route with the Fiber app.
func (h *WebhookHandler) RegisterRoutes(router fiber.Router) {
	router.Post("/payments/webhook", h.HandlePaymentWebhook)
}

type webhookBody struct {
	Type string `json:"type"`
	Data struct {
		ID string `json:"id"`
	} `json:"data"`
}

// HandlePaymentWebhook processes one delivery, accepting both the JSON body
// form {type, data:{id}} and the query-parameter form ?topic=payment&id=.
func (h *WebhookHandler) HandlePaymentWebhook(c *fiber.Ctx) error {
	topic := c.Query("topic")
	paymentID := c.Query("id")

	var body webhookBody
	if err := c.BodyParser(&body); err == nil && body.Type != "" {
		topic = body.Type
		paymentID = body.Data.ID
	}

	if topic == "" && paymentID == "" {
		// Nothing recognizable; acknowledge so it is not redelivered.
		return c.Status(fiber.StatusOK).JSON(fiber.Map{"status": "ignored"})
	}

	notification := services.Notification{Topic: topic, PaymentID: paymentID}
	if err := h.reconciler.HandleNotification(c.UserContext(), notification); err != nil {
		log.Printf("Transient failure reconciling payment %s: %v", paymentID, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"status": "retry"})
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{"status": "ok"})
}
