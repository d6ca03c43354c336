package handlers

import (
	"agrofresh-gh/internal/core/services"
	"agrofresh-gh/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
)

// PayoutHandler handles farmer payout endpoints
type PayoutHandler struct {
	payoutService *services.PayoutService
}

// NewPayoutHandler creates a new payout handler
func NewPayoutHandler(payoutService *services.PayoutService) *PayoutHandler {
	return &PayoutHandler{payoutService: payoutService}
}

// GetPayouts returns the farmer's payout summary
// @Summary Get payouts
// @Description Payout view derived from completed payments, net of platform commission.
// @Tags Payouts
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Response
// @Failure 403 {object} response.Response
// @Router /payouts [get]
func (h *PayoutHandler) GetPayouts(c *fiber.Ctx) error {
	farmerID, ok := c.Locals("userID").(uint)
	if !ok {
		return response.Unauthorized(c, "Unauthorized")
	}

	summary, err := h.payoutService.GetFarmerPayouts(c.Context(), farmerID)
	if err != nil {
		return response.InternalServerError(c, "Failed to get payouts")
	}

	return response.Success(c, "Payouts retrieved successfully", summary)
}
