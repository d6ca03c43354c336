package repositories

import (
	"context"
	"time"

	"agrofresh-gh/internal/adapters/persistence/models"

	"gorm.io/gorm"
)

// paymentRepository implements PaymentRepository interface
type paymentRepository struct {
	db *gorm.DB
}

// NewPaymentRepository creates a new payment repository
func NewPaymentRepository(db *gorm.DB) PaymentRepository {
	return &paymentRepository{db: db}
}

// Create creates a new payment
func (r *paymentRepository) Create(ctx context.Context, payment *models.Payment) error {
	return r.db.WithContext(ctx).Create(payment).Error
}

// GetByID gets a payment by ID
func (r *paymentRepository) GetByID(ctx context.Context, id uint) (*models.Payment, error) {
	var payment models.Payment
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&payment).Error
	if err != nil {
		return nil, err
	}
	return &payment, nil
}

// GetByReferenceID gets a payment by its generated reference
func (r *paymentRepository) GetByReferenceID(ctx context.Context, referenceID string) (*models.Payment, error) {
	var payment models.Payment
	err := r.db.WithContext(ctx).Where("reference_id = ?", referenceID).First(&payment).Error
	if err != nil {
		return nil, err
	}
	return &payment, nil
}

// Update updates a payment
func (r *paymentRepository) Update(ctx context.Context, payment *models.Payment) error {
	return r.db.WithContext(ctx).Save(payment).Error
}

// ListByBuyer lists a buyer's payments, newest first
func (r *paymentRepository) ListByBuyer(ctx context.Context, buyerID uint) ([]*models.Payment, error) {
	var payments []*models.Payment
	err := r.db.WithContext(ctx).
		Where("buyer_id = ?", buyerID).
		Order("created_at DESC").
		Find(&payments).Error
	return payments, err
}

// ListByFarmer lists payments towards a farmer, newest first
func (r *paymentRepository) ListByFarmer(ctx context.Context, farmerID uint) ([]*models.Payment, error) {
	var payments []*models.Payment
	err := r.db.WithContext(ctx).
		Where("farmer_id = ?", farmerID).
		Order("created_at DESC").
		Find(&payments).Error
	return payments, err
}

// ListByFarmerAndStatuses lists a farmer's payments filtered by status set
func (r *paymentRepository) ListByFarmerAndStatuses(ctx context.Context, farmerID uint, statuses []string) ([]*models.Payment, error) {
	var payments []*models.Payment
	err := r.db.WithContext(ctx).
		Where("farmer_id = ? AND status IN ?", farmerID, statuses).
		Order("created_at DESC").
		Find(&payments).Error
	return payments, err
}

// ListAll lists every payment, newest first
func (r *paymentRepository) ListAll(ctx context.Context) ([]*models.Payment, error) {
	var payments []*models.Payment
	err := r.db.WithContext(ctx).
		Order("created_at DESC").
		Find(&payments).Error
	return payments, err
}

// CreateSession creates a new payment session
func (r *paymentRepository) CreateSession(ctx context.Context, session *models.PaymentSession) error {
	return r.db.WithContext(ctx).Create(session).Error
}

// GetSessionByPaymentID gets the session linked to a payment
func (r *paymentRepository) GetSessionByPaymentID(ctx context.Context, paymentID uint) (*models.PaymentSession, error) {
	var session models.PaymentSession
	err := r.db.WithContext(ctx).Where("payment_id = ?", paymentID).First(&session).Error
	if err != nil {
		return nil, err
	}
	return &session, nil
}

// UpdateSession updates a payment session
func (r *paymentRepository) UpdateSession(ctx context.Context, session *models.PaymentSession) error {
	return r.db.WithContext(ctx).Save(session).Error
}

// ExpireStaleSessions marks pending sessions past their expiry as expired
func (r *paymentRepository) ExpireStaleSessions(ctx context.Context, now time.Time) (int64, error) {
	result := r.db.WithContext(ctx).Model(&models.PaymentSession{}).
		Where("status = ? AND expires_at < ?", models.SessionStatusPending, now).
		Update("status", models.SessionStatusExpired)
	return result.RowsAffected, result.Error
}

// CreateWebhookLog appends a raw webhook payload to the audit log
func (r *paymentRepository) CreateWebhookLog(ctx context.Context, webhook *models.PaymentWebhook) error {
	return r.db.WithContext(ctx).Create(webhook).Error
}
