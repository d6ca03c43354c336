package handlers

import (
	"errors"
	"time"

	"agrofresh-gh/internal/core/services"
	"agrofresh-gh/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
)

// WebhookHandler handles inbound delivery provider callbacks
type WebhookHandler struct {
	deliveryService *services.DeliveryService
}

// NewWebhookHandler creates a new webhook handler
func NewWebhookHandler(deliveryService *services.DeliveryService) *WebhookHandler {
	return &WebhookHandler{deliveryService: deliveryService}
}

// SendstackWebhookRequest represents a delivery status callback
type SendstackWebhookRequest struct {
	TrackingID string `json:"trackingId"`
	Status     string `json:"status"`
	ETA        string `json:"eta"`
}

// Sendstack receives delivery status callbacks
// @Summary Sendstack delivery webhook
// @Description Update an order's delivery status from a provider callback, matched by tracking number.
// @Tags Webhooks
// @Accept json
// @Produce json
// @Param body body SendstackWebhookRequest true "Delivery callback"
// @Success 200 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /webhooks/sendstack [post]
func (h *WebhookHandler) Sendstack(c *fiber.Ctx) error {
	var req SendstackWebhookRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}

	if req.TrackingID == "" {
		return response.BadRequest(c, "trackingId is required")
	}
	if req.Status == "" {
		return response.BadRequest(c, "status is required")
	}

	var eta *time.Time
	if req.ETA != "" {
		if parsed, err := time.Parse(time.RFC3339, req.ETA); err == nil {
			eta = &parsed
		}
	}

	order, err := h.deliveryService.ApplySendstackWebhook(c.Context(), req.TrackingID, req.Status, eta)
	if err != nil {
		if errors.Is(err, services.ErrTrackingNotFound) {
			return response.NotFound(c, "Tracking number not found")
		}
		return response.InternalServerError(c, "Failed to process delivery webhook")
	}

	return response.Success(c, "Delivery status updated successfully", order.ToResponse())
}
