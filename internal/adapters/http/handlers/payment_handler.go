package handlers

import (
	"encoding/json"
	"errors"

	"agrofresh-gh/internal/core/services"
	"agrofresh-gh/internal/pkg/response"
	"agrofresh-gh/internal/pkg/validator"

	"github.com/gofiber/fiber/v2"
)

// PaymentHandler handles payment endpoints
type PaymentHandler struct {
	paymentService *services.PaymentService
}

// NewPaymentHandler creates a new payment handler
func NewPaymentHandler(paymentService *services.PaymentService) *PaymentHandler {
	return &PaymentHandler{paymentService: paymentService}
}

// SimulateRequest represents a simulated payment outcome body
type SimulateRequest struct {
	Outcome string `json:"outcome"`
}

// Create initiates a payment
// @Summary Initiate payment
// @Description Start a checkout for an order. Returns the payment with a short-lived session.
// @Tags Payments
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body services.CreatePaymentInput true "Payment data"
// @Success 201 {object} response.Response
// @Failure 400 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /payments [post]
func (h *PaymentHandler) Create(c *fiber.Ctx) error {
	buyerID, ok := c.Locals("userID").(uint)
	if !ok {
		return response.Unauthorized(c, "Unauthorized")
	}

	var req services.CreatePaymentInput
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}

	if err := validator.Struct(&req); err != nil {
		return response.BadRequest(c, err.Error())
	}

	checkout, err := h.paymentService.Create(c.Context(), buyerID, &req)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrInvalidPaymentMethod):
			return response.BadRequest(c, "Invalid payment method")
		case errors.Is(err, services.ErrOrderNotFound):
			return response.NotFound(c, "Order not found")
		case errors.Is(err, services.ErrNotOrderParty):
			return response.Forbidden(c, "You are not a party to this order")
		default:
			return response.InternalServerError(c, "Failed to initiate payment")
		}
	}

	return response.Created(c, "Payment initiated successfully", checkout)
}

// History returns the caller's payments
// @Summary Payment history
// @Description Buyers see payments made, farmers payments received, admins everything.
// @Tags Payments
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Response
// @Router /payments/history [get]
func (h *PaymentHandler) History(c *fiber.Ctx) error {
	userID, ok := c.Locals("userID").(uint)
	if !ok {
		return response.Unauthorized(c, "Unauthorized")
	}
	role, _ := c.Locals("role").(string)

	payments, err := h.paymentService.History(c.Context(), userID, role)
	if err != nil {
		return response.InternalServerError(c, "Failed to get payment history")
	}

	return response.Success(c, "Payment history retrieved successfully", payments)
}

// GetStatus returns a payment's current state
// @Summary Get payment status
// @Tags Payments
// @Produce json
// @Security BearerAuth
// @Param id path int true "Payment ID"
// @Success 200 {object} response.Response
// @Failure 403 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /payments/{id}/status [get]
func (h *PaymentHandler) GetStatus(c *fiber.Ctx) error {
	userID, ok := c.Locals("userID").(uint)
	if !ok {
		return response.Unauthorized(c, "Unauthorized")
	}
	role, _ := c.Locals("role").(string)

	paymentID, err := c.ParamsInt("id")
	if err != nil || paymentID < 1 {
		return response.BadRequest(c, "Invalid payment ID")
	}

	payment, err := h.paymentService.GetStatus(c.Context(), uint(paymentID), userID, role)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrPaymentNotFound):
			return response.NotFound(c, "Payment not found")
		case errors.Is(err, services.ErrNotPaymentParty):
			return response.Forbidden(c, "You are not a party to this payment")
		default:
			return response.InternalServerError(c, "Failed to get payment status")
		}
	}

	return response.Success(c, "Payment status retrieved successfully", payment)
}

// Simulate completes or fails a payment without a provider
// @Summary Simulate payment outcome
// @Description Drive a payment to success or failure for demos and mobile money methods with no sandbox.
// @Tags Payments
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Payment ID"
// @Param body body SimulateRequest false "Outcome (success or failed)"
// @Success 200 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /payments/{id}/simulate [post]
func (h *PaymentHandler) Simulate(c *fiber.Ctx) error {
	paymentID, err := c.ParamsInt("id")
	if err != nil || paymentID < 1 {
		return response.BadRequest(c, "Invalid payment ID")
	}

	var req SimulateRequest
	_ = c.BodyParser(&req)

	payment, err := h.paymentService.Simulate(c.Context(), uint(paymentID), req.Outcome)
	if err != nil {
		if errors.Is(err, services.ErrPaymentNotFound) {
			return response.NotFound(c, "Payment not found")
		}
		return response.InternalServerError(c, "Failed to simulate payment")
	}

	return response.Success(c, "Payment simulated successfully", payment)
}

// Cancel cancels a pending payment
// @Summary Cancel payment
// @Description Cancel a payment that is still pending or processing. Buyer only.
// @Tags Payments
// @Produce json
// @Security BearerAuth
// @Param id path int true "Payment ID"
// @Success 200 {object} response.Response
// @Failure 403 {object} response.Response
// @Failure 409 {object} response.Response
// @Router /payments/{id}/cancel [put]
func (h *PaymentHandler) Cancel(c *fiber.Ctx) error {
	buyerID, ok := c.Locals("userID").(uint)
	if !ok {
		return response.Unauthorized(c, "Unauthorized")
	}

	paymentID, err := c.ParamsInt("id")
	if err != nil || paymentID < 1 {
		return response.BadRequest(c, "Invalid payment ID")
	}

	payment, err := h.paymentService.Cancel(c.Context(), uint(paymentID), buyerID)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrPaymentNotFound):
			return response.NotFound(c, "Payment not found")
		case errors.Is(err, services.ErrNotPaymentParty):
			return response.Forbidden(c, "You are not a party to this payment")
		case errors.Is(err, services.ErrPaymentNotCancelable):
			return response.Conflict(c, "Payment can no longer be cancelled")
		default:
			return response.InternalServerError(c, "Failed to cancel payment")
		}
	}

	return response.Success(c, "Payment cancelled successfully", payment)
}

// Webhook receives provider payment status callbacks
// @Summary Payment provider webhook
// @Description Apply a provider status callback to a payment located by reference.
// @Tags Webhooks
// @Accept json
// @Produce json
// @Param body body services.WebhookInput true "Provider callback"
// @Success 200 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /payments/webhook [post]
func (h *PaymentHandler) Webhook(c *fiber.Ctx) error {
	var req services.WebhookInput
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}

	if req.ReferenceID == "" {
		return response.BadRequest(c, "reference_id is required")
	}
	if req.Status == "" {
		return response.BadRequest(c, "status is required")
	}

	// Keep the full raw payload for the audit log
	var raw map[string]interface{}
	if err := json.Unmarshal(c.Body(), &raw); err == nil {
		req.Raw = raw
	}

	payment, err := h.paymentService.HandleWebhook(c.Context(), &req)
	if err != nil {
		if errors.Is(err, services.ErrPaymentNotFound) {
			return response.NotFound(c, "Payment not found")
		}
		return response.InternalServerError(c, "Failed to process webhook")
	}

	return response.Success(c, "Webhook processed successfully", payment)
}
