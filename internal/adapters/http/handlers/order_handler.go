package handlers

import (
	"errors"

	"agrofresh-gh/internal/core/services"
	"agrofresh-gh/internal/pkg/response"
	"agrofresh-gh/internal/pkg/validator"

	"github.com/gofiber/fiber/v2"
)

// OrderHandler handles order endpoints
type OrderHandler struct {
	orderService *services.OrderService
}

// NewOrderHandler creates a new order handler
func NewOrderHandler(orderService *services.OrderService) *OrderHandler {
	return &OrderHandler{orderService: orderService}
}

// Create places an order
// @Summary Place order
// @Description Place an order for a crop. The selling farmer is resolved from the crop and a delivery is booked.
// @Tags Orders
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body services.CreateOrderInput true "Order data"
// @Success 201 {object} response.Response
// @Failure 400 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /orders [post]
func (h *OrderHandler) Create(c *fiber.Ctx) error {
	buyerID, ok := c.Locals("userID").(uint)
	if !ok {
		return response.Unauthorized(c, "Unauthorized")
	}

	var req services.CreateOrderInput
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}

	if err := validator.Struct(&req); err != nil {
		return response.BadRequest(c, err.Error())
	}

	order, err := h.orderService.Create(c.Context(), buyerID, &req)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrCropNotFound):
			return response.NotFound(c, "Crop not found")
		case errors.Is(err, services.ErrCropUnavailable):
			return response.BadRequest(c, "Crop is not available for ordering")
		default:
			return response.InternalServerError(c, "Failed to place order")
		}
	}

	return response.Created(c, "Order placed successfully", order)
}

// List returns the caller's orders
// @Summary List orders
// @Description Buyers see purchases, farmers see sales, admins see everything.
// @Tags Orders
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Response
// @Router /orders [get]
func (h *OrderHandler) List(c *fiber.Ctx) error {
	userID, ok := c.Locals("userID").(uint)
	if !ok {
		return response.Unauthorized(c, "Unauthorized")
	}
	role, _ := c.Locals("role").(string)

	orders, err := h.orderService.List(c.Context(), userID, role)
	if err != nil {
		return response.InternalServerError(c, "Failed to list orders")
	}

	return response.Success(c, "Orders retrieved successfully", orders)
}

// Get returns one order
// @Summary Get order
// @Tags Orders
// @Produce json
// @Security BearerAuth
// @Param id path int true "Order ID"
// @Success 200 {object} response.Response
// @Failure 403 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /orders/{id} [get]
func (h *OrderHandler) Get(c *fiber.Ctx) error {
	userID, ok := c.Locals("userID").(uint)
	if !ok {
		return response.Unauthorized(c, "Unauthorized")
	}
	role, _ := c.Locals("role").(string)

	orderID, err := c.ParamsInt("id")
	if err != nil || orderID < 1 {
		return response.BadRequest(c, "Invalid order ID")
	}

	order, err := h.orderService.Get(c.Context(), uint(orderID), userID, role)
	if err != nil {
		return orderError(c, err, "Failed to get order")
	}

	return response.Success(c, "Order retrieved successfully", order)
}

// UpdateStatus updates an order's status and optionally its quantity
// @Summary Update order
// @Description Change order status and quantity. Any party to the order may set any status.
// @Tags Orders
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Order ID"
// @Param body body services.UpdateOrderInput true "New status and optional quantity"
// @Success 200 {object} response.Response
// @Failure 400 {object} response.Response
// @Failure 403 {object} response.Response
// @Router /orders/{id}/status [put]
func (h *OrderHandler) UpdateStatus(c *fiber.Ctx) error {
	userID, ok := c.Locals("userID").(uint)
	if !ok {
		return response.Unauthorized(c, "Unauthorized")
	}
	role, _ := c.Locals("role").(string)

	orderID, err := c.ParamsInt("id")
	if err != nil || orderID < 1 {
		return response.BadRequest(c, "Invalid order ID")
	}

	var req services.UpdateOrderInput
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}
	if req.Status == "" {
		return response.BadRequest(c, "Status is required")
	}
	if req.Quantity != nil && *req.Quantity < 1 {
		return response.BadRequest(c, "Quantity must be positive")
	}

	order, err := h.orderService.UpdateStatus(c.Context(), uint(orderID), userID, role, &req)
	if err != nil {
		if errors.Is(err, services.ErrInvalidOrderState) {
			return response.BadRequest(c, "Invalid order status")
		}
		return orderError(c, err, "Failed to update order status")
	}

	return response.Success(c, "Order status updated successfully", order)
}

// Cancel cancels an order
// @Summary Cancel order
// @Tags Orders
// @Produce json
// @Security BearerAuth
// @Param id path int true "Order ID"
// @Success 200 {object} response.Response
// @Failure 403 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /orders/{id}/cancel [put]
func (h *OrderHandler) Cancel(c *fiber.Ctx) error {
	userID, ok := c.Locals("userID").(uint)
	if !ok {
		return response.Unauthorized(c, "Unauthorized")
	}
	role, _ := c.Locals("role").(string)

	orderID, err := c.ParamsInt("id")
	if err != nil || orderID < 1 {
		return response.BadRequest(c, "Invalid order ID")
	}

	order, err := h.orderService.Cancel(c.Context(), uint(orderID), userID, role)
	if err != nil {
		return orderError(c, err, "Failed to cancel order")
	}

	return response.Success(c, "Order cancelled successfully", order)
}

// Delete removes an order (admin)
// @Summary Delete order
// @Tags Admin
// @Produce json
// @Security BearerAuth
// @Param id path int true "Order ID"
// @Success 200 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /admin/orders/{id} [delete]
func (h *OrderHandler) Delete(c *fiber.Ctx) error {
	orderID, err := c.ParamsInt("id")
	if err != nil || orderID < 1 {
		return response.BadRequest(c, "Invalid order ID")
	}

	if err := h.orderService.Delete(c.Context(), uint(orderID)); err != nil {
		if errors.Is(err, services.ErrOrderNotFound) {
			return response.NotFound(c, "Order not found")
		}
		return response.InternalServerError(c, "Failed to delete order")
	}

	return response.Success(c, "Order deleted successfully", nil)
}

// BookDelivery rebooks delivery for an order
// @Summary Rebook delivery
// @Description Books (or rebooks) delivery for an order with the delivery provider.
// @Tags Orders
// @Produce json
// @Security BearerAuth
// @Param id path int true "Order ID"
// @Success 200 {object} response.Response
// @Failure 403 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /orders/{id}/delivery [post]
func (h *OrderHandler) BookDelivery(c *fiber.Ctx) error {
	userID, ok := c.Locals("userID").(uint)
	if !ok {
		return response.Unauthorized(c, "Unauthorized")
	}
	role, _ := c.Locals("role").(string)

	orderID, err := c.ParamsInt("id")
	if err != nil || orderID < 1 {
		return response.BadRequest(c, "Invalid order ID")
	}

	order, err := h.orderService.BookDelivery(c.Context(), uint(orderID), userID, role)
	if err != nil {
		return orderError(c, err, "Failed to book delivery")
	}

	return response.Success(c, "Delivery booked successfully", order)
}

// GetTracking returns the delivery tracking timeline for an order
// @Summary Get order tracking
// @Description Returns the delivery milestone timeline for an order.
// @Tags Orders
// @Produce json
// @Security BearerAuth
// @Param id path int true "Order ID"
// @Success 200 {object} response.Response
// @Failure 403 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /orders/{id}/tracking [get]
func (h *OrderHandler) GetTracking(c *fiber.Ctx) error {
	userID, ok := c.Locals("userID").(uint)
	if !ok {
		return response.Unauthorized(c, "Unauthorized")
	}
	role, _ := c.Locals("role").(string)

	orderID, err := c.ParamsInt("id")
	if err != nil || orderID < 1 {
		return response.BadRequest(c, "Invalid order ID")
	}

	tracking, err := h.orderService.GetTracking(c.Context(), uint(orderID), userID, role)
	if err != nil {
		return orderError(c, err, "Failed to get tracking")
	}

	return response.Success(c, "Tracking retrieved successfully", tracking)
}

// GetSalesReport returns the farmer's settled sales
// @Summary Get sales report
// @Description Aggregate of the farmer's completed and paid orders.
// @Tags Orders
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Response
// @Failure 403 {object} response.Response
// @Router /orders/sales-report [get]
func (h *OrderHandler) GetSalesReport(c *fiber.Ctx) error {
	farmerID, ok := c.Locals("userID").(uint)
	if !ok {
		return response.Unauthorized(c, "Unauthorized")
	}

	report, err := h.orderService.GetSalesReport(c.Context(), farmerID)
	if err != nil {
		return response.InternalServerError(c, "Failed to build sales report")
	}

	return response.Success(c, "Sales report retrieved successfully", report)
}

// orderError maps common order service errors onto HTTP responses
func orderError(c *fiber.Ctx, err error, fallback string) error {
	switch {
	case errors.Is(err, services.ErrOrderNotFound):
		return response.NotFound(c, "Order not found")
	case errors.Is(err, services.ErrNotOrderParty):
		return response.Forbidden(c, "You are not a party to this order")
	default:
		return response.InternalServerError(c, fallback)
	}
}
