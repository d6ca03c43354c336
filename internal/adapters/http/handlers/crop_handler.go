package handlers

import (
	"errors"
	"mime/multipart"
	"strconv"

	"agrofresh-gh/internal/core/services"
	"agrofresh-gh/internal/pkg/pagination"
	"agrofresh-gh/internal/pkg/response"
	"agrofresh-gh/internal/pkg/upload"
	"agrofresh-gh/internal/pkg/validator"

	"github.com/gofiber/fiber/v2"
)

// CropHandler handles crop listing endpoints
type CropHandler struct {
	cropService *services.CropService
}

// NewCropHandler creates a new crop handler
func NewCropHandler(cropService *services.CropService) *CropHandler {
	return &CropHandler{cropService: cropService}
}

// Create lists a new crop
// @Summary Create crop listing
// @Description List a crop for sale. Accepts JSON or multipart form with an image file.
// @Tags Crops
// @Accept json
// @Accept multipart/form-data
// @Produce json
// @Security BearerAuth
// @Param body body services.CreateCropInput true "Crop data"
// @Success 201 {object} response.Response
// @Failure 400 {object} response.Response
// @Failure 403 {object} response.Response
// @Router /crops [post]
func (h *CropHandler) Create(c *fiber.Ctx) error {
	farmerID, ok := c.Locals("userID").(uint)
	if !ok {
		return response.Unauthorized(c, "Unauthorized")
	}

	req, file, err := parseCropCreate(c)
	if err != nil {
		return response.BadRequest(c, err.Error())
	}

	if err := validator.Struct(req); err != nil {
		return response.BadRequest(c, err.Error())
	}

	crop, err := h.cropService.Create(c.Context(), c, farmerID, req, file)
	if err != nil {
		switch {
		case errors.Is(err, upload.ErrFileTooLarge):
			return response.BadRequest(c, "Image file is too large")
		case errors.Is(err, upload.ErrInvalidFileType):
			return response.BadRequest(c, "Image must be an image file")
		default:
			return response.InternalServerError(c, "Failed to create crop listing")
		}
	}

	return response.Created(c, "Crop listed successfully", crop)
}

// List returns marketplace crops
// @Summary List crops
// @Description Browse crop listings. Listings older than 7 days are purged before reading.
// @Tags Crops
// @Produce json
// @Param page query int false "Page number"
// @Param limit query int false "Items per page"
// @Param farmer_id query int false "Filter by farmer"
// @Param mine query bool false "Only the caller's own listings (requires auth)"
// @Success 200 {object} response.Response
// @Router /crops [get]
func (h *CropHandler) List(c *fiber.Ctx) error {
	params := pagination.GetParams(c)

	var farmerID *uint
	if raw := c.Query("farmer_id"); raw != "" {
		id, err := strconv.Atoi(raw)
		if err != nil || id < 1 {
			return response.BadRequest(c, "Invalid farmer_id")
		}
		fid := uint(id)
		farmerID = &fid
	}

	if c.Query("mine") == "1" {
		userID, ok := c.Locals("userID").(uint)
		if !ok {
			return response.Unauthorized(c, "Unauthorized")
		}
		farmerID = &userID
	}

	crops, meta, err := h.cropService.List(c.Context(), farmerID, params)
	if err != nil {
		return response.InternalServerError(c, "Failed to list crops")
	}

	return response.Success(c, "Crops retrieved successfully", fiber.Map{
		"crops": crops,
		"meta":  meta,
	})
}

// Get returns a single crop listing
// @Summary Get crop
// @Tags Crops
// @Produce json
// @Param id path int true "Crop ID"
// @Success 200 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /crops/{id} [get]
func (h *CropHandler) Get(c *fiber.Ctx) error {
	cropID, err := c.ParamsInt("id")
	if err != nil || cropID < 1 {
		return response.BadRequest(c, "Invalid crop ID")
	}

	crop, err := h.cropService.Get(c.Context(), uint(cropID))
	if err != nil {
		if errors.Is(err, services.ErrCropNotFound) {
			return response.NotFound(c, "Crop not found")
		}
		return response.InternalServerError(c, "Failed to get crop")
	}

	return response.Success(c, "Crop retrieved successfully", crop)
}

// Update edits a crop listing
// @Summary Update crop
// @Description Update a crop listing. Farmers may edit only their own listings.
// @Tags Crops
// @Accept json
// @Accept multipart/form-data
// @Produce json
// @Security BearerAuth
// @Param id path int true "Crop ID"
// @Param body body services.UpdateCropInput true "Crop fields"
// @Success 200 {object} response.Response
// @Failure 403 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /crops/{id} [put]
func (h *CropHandler) Update(c *fiber.Ctx) error {
	userID, ok := c.Locals("userID").(uint)
	if !ok {
		return response.Unauthorized(c, "Unauthorized")
	}
	role, _ := c.Locals("role").(string)

	cropID, err := c.ParamsInt("id")
	if err != nil || cropID < 1 {
		return response.BadRequest(c, "Invalid crop ID")
	}

	var req services.UpdateCropInput
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}

	if err := validator.Struct(&req); err != nil {
		return response.BadRequest(c, err.Error())
	}

	// Multipart requests may also carry a replacement image
	file, _ := c.FormFile("image")

	crop, err := h.cropService.Update(c.Context(), c, uint(cropID), userID, role, &req, file)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrCropNotFound):
			return response.NotFound(c, "Crop not found")
		case errors.Is(err, services.ErrNotCropOwner):
			return response.Forbidden(c, "You do not own this crop listing")
		case errors.Is(err, upload.ErrFileTooLarge):
			return response.BadRequest(c, "Image file is too large")
		case errors.Is(err, upload.ErrInvalidFileType):
			return response.BadRequest(c, "Image must be an image file")
		default:
			return response.InternalServerError(c, "Failed to update crop")
		}
	}

	return response.Success(c, "Crop updated successfully", crop)
}

// Delete removes a crop listing
// @Summary Delete crop
// @Tags Crops
// @Produce json
// @Security BearerAuth
// @Param id path int true "Crop ID"
// @Success 200 {object} response.Response
// @Failure 403 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /crops/{id} [delete]
func (h *CropHandler) Delete(c *fiber.Ctx) error {
	userID, ok := c.Locals("userID").(uint)
	if !ok {
		return response.Unauthorized(c, "Unauthorized")
	}
	role, _ := c.Locals("role").(string)

	cropID, err := c.ParamsInt("id")
	if err != nil || cropID < 1 {
		return response.BadRequest(c, "Invalid crop ID")
	}

	if err := h.cropService.Delete(c.Context(), uint(cropID), userID, role); err != nil {
		switch {
		case errors.Is(err, services.ErrCropNotFound):
			return response.NotFound(c, "Crop not found")
		case errors.Is(err, services.ErrNotCropOwner):
			return response.Forbidden(c, "You do not own this crop listing")
		default:
			return response.InternalServerError(c, "Failed to delete crop")
		}
	}

	return response.Success(c, "Crop deleted successfully", nil)
}

// parseCropCreate reads a crop creation request from JSON or multipart form
func parseCropCreate(c *fiber.Ctx) (*services.CreateCropInput, *multipart.FileHeader, error) {
	req := &services.CreateCropInput{}

	if file, err := c.FormFile("image"); err == nil && file != nil {
		// Multipart form: fields come as strings
		req.Name = c.FormValue("name")
		req.Description = c.FormValue("description")
		req.Unit = c.FormValue("unit")
		req.ExpiryDate = c.FormValue("expiry_date")
		req.Price, _ = strconv.ParseFloat(c.FormValue("price"), 64)
		req.Quantity, _ = strconv.Atoi(c.FormValue("quantity"))
		return req, file, nil
	}

	if err := c.BodyParser(req); err != nil {
		return nil, nil, errors.New("invalid request body")
	}
	return req, nil, nil
}
