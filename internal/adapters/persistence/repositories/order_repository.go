package repositories

import (
	"context"
	"time"

	"agrofresh-gh/internal/adapters/persistence/models"

	"gorm.io/gorm"
)

// orderRepository implements OrderRepository interface
type orderRepository struct {
	db *gorm.DB
}

// NewOrderRepository creates a new order repository
func NewOrderRepository(db *gorm.DB) OrderRepository {
	return &orderRepository{db: db}
}

// Create creates a new order
func (r *orderRepository) Create(ctx context.Context, order *models.Order) error {
	return r.db.WithContext(ctx).Create(order).Error
}

// GetByID gets an order by ID with its relations preloaded
func (r *orderRepository) GetByID(ctx context.Context, id uint) (*models.Order, error) {
	var order models.Order
	err := r.db.WithContext(ctx).
		Preload("Buyer").Preload("Farmer").Preload("Crop").
		Where("id = ?", id).
		First(&order).Error
	if err != nil {
		return nil, err
	}
	return &order, nil
}

// GetByTrackingNumber gets an order by its delivery tracking number
func (r *orderRepository) GetByTrackingNumber(ctx context.Context, trackingNumber string) (*models.Order, error) {
	var order models.Order
	err := r.db.WithContext(ctx).
		Where("tracking_number = ?", trackingNumber).
		First(&order).Error
	if err != nil {
		return nil, err
	}
	return &order, nil
}

// Update updates an order
func (r *orderRepository) Update(ctx context.Context, order *models.Order) error {
	return r.db.WithContext(ctx).Save(order).Error
}

// Delete deletes an order
func (r *orderRepository) Delete(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Delete(&models.Order{}, id).Error
}

// ListByBuyer lists a buyer's orders, newest first
func (r *orderRepository) ListByBuyer(ctx context.Context, buyerID uint) ([]*models.Order, error) {
	var orders []*models.Order
	err := r.db.WithContext(ctx).
		Preload("Farmer").Preload("Crop").
		Where("buyer_id = ?", buyerID).
		Order("created_at DESC").
		Find(&orders).Error
	return orders, err
}

// ListByFarmer lists a farmer's orders (as seller), newest first
func (r *orderRepository) ListByFarmer(ctx context.Context, farmerID uint) ([]*models.Order, error) {
	var orders []*models.Order
	err := r.db.WithContext(ctx).
		Preload("Buyer").Preload("Crop").
		Where("farmer_id = ?", farmerID).
		Order("created_at DESC").
		Find(&orders).Error
	return orders, err
}

// ListAll lists every order, newest first
func (r *orderRepository) ListAll(ctx context.Context) ([]*models.Order, error) {
	var orders []*models.Order
	err := r.db.WithContext(ctx).
		Preload("Buyer").Preload("Farmer").Preload("Crop").
		Order("created_at DESC").
		Find(&orders).Error
	return orders, err
}

// ListByFarmerAndStatuses lists a farmer's orders filtered by status set
func (r *orderRepository) ListByFarmerAndStatuses(ctx context.Context, farmerID uint, statuses []string) ([]*models.Order, error) {
	var orders []*models.Order
	err := r.db.WithContext(ctx).
		Preload("Buyer").Preload("Crop").
		Where("farmer_id = ? AND status IN ?", farmerID, statuses).
		Order("created_at DESC").
		Find(&orders).Error
	return orders, err
}

// DeleteCancelledBefore removes cancelled orders older than the cutoff
func (r *orderRepository) DeleteCancelledBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	result := r.db.WithContext(ctx).
		Where("status = ? AND updated_at < ?", models.OrderStatusCancelled, cutoff).
		Delete(&models.Order{})
	return result.RowsAffected, result.Error
}

// DeleteOlderThan removes orders created before the cutoff
func (r *orderRepository) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	result := r.db.WithContext(ctx).
		Where("created_at < ?", cutoff).
		Delete(&models.Order{})
	return result.RowsAffected, result.Error
}
