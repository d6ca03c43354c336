package services

import (
	"context"
	"errors"
	"log"
	"mime/multipart"
	"time"

	"agrofresh-gh/internal/adapters/persistence/models"
	"agrofresh-gh/internal/adapters/persistence/repositories"
	"agrofresh-gh/internal/config"
	"agrofresh-gh/internal/pkg/pagination"
	"agrofresh-gh/internal/pkg/upload"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

// Crop errors
var (
	ErrCropNotFound = errors.New("crop not found")
	ErrNotCropOwner = errors.New("you do not own this crop listing")
)

// CropListingMaxAge is how long a crop listing stays on the marketplace
// before it is purged as stale produce.
const CropListingMaxAge = 7 * 24 * time.Hour

// CropService handles crop listing business logic
type CropService struct {
	cropRepo repositories.CropRepository
	cfg      *config.Config
}

// NewCropService creates a new crop service
func NewCropService(cropRepo repositories.CropRepository, cfg *config.Config) *CropService {
	return &CropService{
		cropRepo: cropRepo,
		cfg:      cfg,
	}
}

// CreateCropInput represents crop creation input
type CreateCropInput struct {
	Name        string  `json:"name" validate:"required,min=2,max=100"`
	Description string  `json:"description"`
	Price       float64 `json:"price" validate:"required,gt=0"`
	Quantity    int     `json:"quantity" validate:"required,gt=0"`
	Unit        string  `json:"unit"`
	ExpiryDate  string  `json:"expiry_date"`
	ImageURL    string  `json:"image_url"`
}

// UpdateCropInput represents crop update input. Only provided fields change.
type UpdateCropInput struct {
	Name        *string  `json:"name" validate:"omitempty,min=2,max=100"`
	Description *string  `json:"description"`
	Price       *float64 `json:"price" validate:"omitempty,gt=0"`
	Quantity    *int     `json:"quantity" validate:"omitempty,gte=0"`
	Unit        *string  `json:"unit"`
	ExpiryDate  *string  `json:"expiry_date"`
	Available   *bool    `json:"available"`
	ImageURL    *string  `json:"image_url"`
}

// Create creates a crop listing for the farmer. The image can arrive either
// as a multipart file or as an external URL; the file wins when both exist.
func (s *CropService) Create(ctx context.Context, c *fiber.Ctx, farmerID uint, input *CreateCropInput, file *multipart.FileHeader) (*models.CropResponse, error) {
	crop := &models.Crop{
		FarmerID:    farmerID,
		Name:        input.Name,
		Description: input.Description,
		Price:       input.Price,
		Quantity:    input.Quantity,
		Unit:        input.Unit,
		Available:   true,
		Image:       input.ImageURL,
	}

	if crop.Unit == "" {
		crop.Unit = "kg"
	}

	if input.ExpiryDate != "" {
		expiry, err := parseDate(input.ExpiryDate)
		if err != nil {
			return nil, err
		}
		crop.ExpiryDate = expiry
	}

	if file != nil {
		path, err := upload.Save(c, file, s.cfg.Upload.Dir, "crops", s.cfg.Upload.MaxSizeMB)
		if err != nil {
			return nil, err
		}
		crop.Image = path
	}

	if err := s.cropRepo.Create(ctx, crop); err != nil {
		return nil, err
	}

	log.Printf("🌽 Crop listed: %s by farmer %d", crop.Name, farmerID)

	// Reload with the farmer relation for the response
	created, err := s.cropRepo.GetByID(ctx, crop.ID)
	if err != nil {
		return crop.ToResponse(), nil
	}
	return created.ToResponse(), nil
}

// List lists marketplace crops with pagination. Stale listings are purged
// before reading so buyers never see produce older than a week.
func (s *CropService) List(ctx context.Context, farmerID *uint, params *pagination.Params) ([]*models.CropResponse, *pagination.Meta, error) {
	if _, err := s.PurgeStale(ctx); err != nil {
		return nil, nil, err
	}

	crops, total, err := s.cropRepo.List(ctx, farmerID, params.Offset, params.Limit)
	if err != nil {
		return nil, nil, err
	}

	responses := make([]*models.CropResponse, 0, len(crops))
	for _, crop := range crops {
		responses = append(responses, crop.ToResponse())
	}

	return responses, pagination.GetMeta(params, total), nil
}

// Get returns a single crop listing
func (s *CropService) Get(ctx context.Context, cropID uint) (*models.CropResponse, error) {
	crop, err := s.cropRepo.GetByID(ctx, cropID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrCropNotFound
		}
		return nil, err
	}
	return crop.ToResponse(), nil
}

// Update updates a crop listing. Admins may edit any listing; farmers only
// their own.
func (s *CropService) Update(ctx context.Context, c *fiber.Ctx, cropID, actorID uint, actorRole string, input *UpdateCropInput, file *multipart.FileHeader) (*models.CropResponse, error) {
	crop, err := s.cropRepo.GetByID(ctx, cropID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrCropNotFound
		}
		return nil, err
	}

	if actorRole != models.RoleAdmin && crop.FarmerID != actorID {
		return nil, ErrNotCropOwner
	}

	if input.Name != nil {
		crop.Name = *input.Name
	}
	if input.Description != nil {
		crop.Description = *input.Description
	}
	if input.Price != nil {
		crop.Price = *input.Price
	}
	if input.Quantity != nil {
		crop.Quantity = *input.Quantity
	}
	if input.Unit != nil {
		crop.Unit = *input.Unit
	}
	if input.Available != nil {
		crop.Available = *input.Available
	}
	if input.ImageURL != nil {
		crop.Image = *input.ImageURL
	}
	if input.ExpiryDate != nil {
		if *input.ExpiryDate == "" {
			crop.ExpiryDate = nil
		} else {
			expiry, err := parseDate(*input.ExpiryDate)
			if err != nil {
				return nil, err
			}
			crop.ExpiryDate = expiry
		}
	}

	if file != nil {
		path, err := upload.Save(c, file, s.cfg.Upload.Dir, "crops", s.cfg.Upload.MaxSizeMB)
		if err != nil {
			return nil, err
		}
		crop.Image = path
	}

	if err := s.cropRepo.Update(ctx, crop); err != nil {
		return nil, err
	}

	return crop.ToResponse(), nil
}

// Delete removes a crop listing. Admins may delete any listing; farmers only
// their own.
func (s *CropService) Delete(ctx context.Context, cropID, actorID uint, actorRole string) error {
	crop, err := s.cropRepo.GetByID(ctx, cropID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrCropNotFound
		}
		return err
	}

	if actorRole != models.RoleAdmin && crop.FarmerID != actorID {
		return ErrNotCropOwner
	}

	if err := s.cropRepo.Delete(ctx, cropID); err != nil {
		return err
	}

	log.Printf("🗑️ Crop deleted: %d (%s)", crop.ID, crop.Name)
	return nil
}

// PurgeStale removes crop listings older than CropListingMaxAge
func (s *CropService) PurgeStale(ctx context.Context) (int64, error) {
	cutoff := time.Now().Add(-CropListingMaxAge)
	purged, err := s.cropRepo.DeleteOlderThan(ctx, cutoff)
	if err != nil {
		return 0, err
	}
	if purged > 0 {
		log.Printf("🧹 Purged %d stale crop listings", purged)
	}
	return purged, nil
}

// parseDate parses a YYYY-MM-DD date string
func parseDate(value string) (*time.Time, error) {
	t, err := time.Parse("2006-01-02", value)
	if err != nil {
		return nil, errors.New("invalid date format, expected YYYY-MM-DD")
	}
	return &t, nil
}
