package handlers

import (
	"agrofresh-gh/internal/adapters/persistence/repositories"
	"agrofresh-gh/internal/core/services"
	"agrofresh-gh/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
)

// AdminHandler handles admin console endpoints
type AdminHandler struct {
	dashboardService *services.DashboardService
	paymentService   *services.PaymentService
	settingRepo      repositories.SettingRepository
}

// NewAdminHandler creates a new admin handler
func NewAdminHandler(
	dashboardService *services.DashboardService,
	paymentService *services.PaymentService,
	settingRepo repositories.SettingRepository,
) *AdminHandler {
	return &AdminHandler{
		dashboardService: dashboardService,
		paymentService:   paymentService,
		settingRepo:      settingRepo,
	}
}

// SettingsRequest is a key/value map of platform settings to update
type SettingsRequest map[string]string

// GetStats returns the admin dashboard overview
// @Summary Dashboard stats
// @Tags Admin
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Response
// @Failure 403 {object} response.Response
// @Router /admin/stats [get]
func (h *AdminHandler) GetStats(c *fiber.Ctx) error {
	stats, err := h.dashboardService.GetStats(c.Context())
	if err != nil {
		return response.InternalServerError(c, "Failed to get dashboard stats")
	}

	return response.Success(c, "Dashboard stats retrieved successfully", stats)
}

// GetActivity returns the recent activity feed
// @Summary Recent activity
// @Tags Admin
// @Produce json
// @Security BearerAuth
// @Param limit query int false "Feed size"
// @Success 200 {object} response.Response
// @Failure 403 {object} response.Response
// @Router /admin/activity [get]
func (h *AdminHandler) GetActivity(c *fiber.Ctx) error {
	limit := c.QueryInt("limit", 10)

	feed, err := h.dashboardService.GetRecentActivity(c.Context(), limit)
	if err != nil {
		return response.InternalServerError(c, "Failed to get activity feed")
	}

	return response.Success(c, "Activity retrieved successfully", feed)
}

// ListPayments returns every payment on the platform
// @Summary List all payments
// @Tags Admin
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Response
// @Failure 403 {object} response.Response
// @Router /admin/payments [get]
func (h *AdminHandler) ListPayments(c *fiber.Ctx) error {
	userID, ok := c.Locals("userID").(uint)
	if !ok {
		return response.Unauthorized(c, "Unauthorized")
	}
	role, _ := c.Locals("role").(string)

	payments, err := h.paymentService.History(c.Context(), userID, role)
	if err != nil {
		return response.InternalServerError(c, "Failed to list payments")
	}

	return response.Success(c, "Payments retrieved successfully", payments)
}

// GetSettings returns platform settings
// @Summary Get platform settings
// @Tags Admin
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Response
// @Failure 403 {object} response.Response
// @Router /admin/settings [get]
func (h *AdminHandler) GetSettings(c *fiber.Ctx) error {
	settings, err := h.settingRepo.GetAll(c.Context())
	if err != nil {
		return response.InternalServerError(c, "Failed to get settings")
	}

	out := make(map[string]string, len(settings))
	for _, setting := range settings {
		out[setting.Key] = setting.Value
	}

	return response.Success(c, "Settings retrieved successfully", out)
}

// UpdateSettings upserts platform settings
// @Summary Update platform settings
// @Tags Admin
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body SettingsRequest true "Settings to update"
// @Success 200 {object} response.Response
// @Failure 400 {object} response.Response
// @Failure 403 {object} response.Response
// @Router /admin/settings [put]
func (h *AdminHandler) UpdateSettings(c *fiber.Ctx) error {
	var req SettingsRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}
	if len(req) == 0 {
		return response.BadRequest(c, "No settings provided")
	}

	for key, value := range req {
		if err := h.settingRepo.Upsert(c.Context(), key, value); err != nil {
			return response.InternalServerError(c, "Failed to update settings")
		}
	}

	return response.Success(c, "Settings updated successfully", nil)
}
