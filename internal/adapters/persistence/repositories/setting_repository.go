package repositories

import (
	"context"
	"errors"

	"agrofresh-gh/internal/adapters/persistence/models"

	"gorm.io/gorm"
)

// settingRepository implements SettingRepository interface
type settingRepository struct {
	db *gorm.DB
}

// NewSettingRepository creates a new setting repository
func NewSettingRepository(db *gorm.DB) SettingRepository {
	return &settingRepository{db: db}
}

// GetAll returns every platform setting
func (r *settingRepository) GetAll(ctx context.Context) ([]*models.PlatformSetting, error) {
	var settings []*models.PlatformSetting
	err := r.db.WithContext(ctx).Order("`key`").Find(&settings).Error
	return settings, err
}

// Upsert creates or updates a setting by key
func (r *settingRepository) Upsert(ctx context.Context, key, value string) error {
	var setting models.PlatformSetting
	err := r.db.WithContext(ctx).Where("`key` = ?", key).First(&setting).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return r.db.WithContext(ctx).Create(&models.PlatformSetting{Key: key, Value: value}).Error
		}
		return err
	}

	setting.Value = value
	return r.db.WithContext(ctx).Save(&setting).Error
}
