package repositories

import (
	"context"
	"time"

	"agrofresh-gh/internal/adapters/persistence/models"

	"gorm.io/gorm"
)

// cropRepository implements CropRepository interface
type cropRepository struct {
	db *gorm.DB
}

// NewCropRepository creates a new crop repository
func NewCropRepository(db *gorm.DB) CropRepository {
	return &cropRepository{db: db}
}

// Create creates a new crop listing
func (r *cropRepository) Create(ctx context.Context, crop *models.Crop) error {
	return r.db.WithContext(ctx).Create(crop).Error
}

// GetByID gets a crop by ID with its farmer preloaded
func (r *cropRepository) GetByID(ctx context.Context, id uint) (*models.Crop, error) {
	var crop models.Crop
	err := r.db.WithContext(ctx).Preload("Farmer").Where("id = ?", id).First(&crop).Error
	if err != nil {
		return nil, err
	}
	return &crop, nil
}

// Update updates a crop
func (r *cropRepository) Update(ctx context.Context, crop *models.Crop) error {
	return r.db.WithContext(ctx).Save(crop).Error
}

// Delete deletes a crop
func (r *cropRepository) Delete(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Delete(&models.Crop{}, id).Error
}

// List lists crops with pagination, newest first. When farmerID is non-nil
// only that farmer's listings are returned.
func (r *cropRepository) List(ctx context.Context, farmerID *uint, offset, limit int) ([]*models.Crop, int64, error) {
	var crops []*models.Crop
	var total int64

	query := r.db.WithContext(ctx).Model(&models.Crop{})
	if farmerID != nil {
		query = query.Where("farmer_id = ?", *farmerID)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if err := query.Preload("Farmer").
		Order("created_at DESC").
		Offset(offset).Limit(limit).
		Find(&crops).Error; err != nil {
		return nil, 0, err
	}

	return crops, total, nil
}

// DeleteOlderThan removes crop listings created before the cutoff and returns
// how many rows went away.
func (r *cropRepository) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	result := r.db.WithContext(ctx).
		Where("created_at < ?", cutoff).
		Delete(&models.Crop{})
	return result.RowsAffected, result.Error
}
