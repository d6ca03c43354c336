package repositories

import (
	"context"
	"time"

	"agrofresh-gh/internal/adapters/persistence/models"
)

// UserRepository defines user repository interface
type UserRepository interface {
	Create(ctx context.Context, user *models.User) error
	GetByID(ctx context.Context, id uint) (*models.User, error)
	GetByEmailAndRole(ctx context.Context, email, role string) (*models.User, error)
	GetAllByEmail(ctx context.Context, email string) ([]*models.User, error)
	GetByVerificationToken(ctx context.Context, token string) (*models.User, error)
	Update(ctx context.Context, user *models.User) error
	Delete(ctx context.Context, id uint) error
	List(ctx context.Context, offset, limit int) ([]*models.User, int64, error)
	ExistsByEmailAndRole(ctx context.Context, email, role string) (bool, error)
	CountByRole(ctx context.Context, role string) (int64, error)
}

// RefreshTokenRepository defines refresh token repository interface
type RefreshTokenRepository interface {
	Create(ctx context.Context, token *models.RefreshToken) error
	GetByTokenHash(ctx context.Context, tokenHash string) (*models.RefreshToken, error)
	Revoke(ctx context.Context, id uint) error
	RevokeByTokenHash(ctx context.Context, tokenHash string) error
	RevokeAllByUserID(ctx context.Context, userID uint) error
	DeleteExpired(ctx context.Context) error
}

// CropRepository defines crop repository interface
type CropRepository interface {
	Create(ctx context.Context, crop *models.Crop) error
	GetByID(ctx context.Context, id uint) (*models.Crop, error)
	Update(ctx context.Context, crop *models.Crop) error
	Delete(ctx context.Context, id uint) error
	List(ctx context.Context, farmerID *uint, offset, limit int) ([]*models.Crop, int64, error)
	DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error)
}

// OrderRepository defines order repository interface
type OrderRepository interface {
	Create(ctx context.Context, order *models.Order) error
	GetByID(ctx context.Context, id uint) (*models.Order, error)
	GetByTrackingNumber(ctx context.Context, trackingNumber string) (*models.Order, error)
	Update(ctx context.Context, order *models.Order) error
	Delete(ctx context.Context, id uint) error
	ListByBuyer(ctx context.Context, buyerID uint) ([]*models.Order, error)
	ListByFarmer(ctx context.Context, farmerID uint) ([]*models.Order, error)
	ListAll(ctx context.Context) ([]*models.Order, error)
	ListByFarmerAndStatuses(ctx context.Context, farmerID uint, statuses []string) ([]*models.Order, error)
	DeleteCancelledBefore(ctx context.Context, cutoff time.Time) (int64, error)
	DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error)
}

// PaymentRepository defines payment repository interface, covering payments,
// payment sessions, and the webhook audit log.
type PaymentRepository interface {
	Create(ctx context.Context, payment *models.Payment) error
	GetByID(ctx context.Context, id uint) (*models.Payment, error)
	GetByReferenceID(ctx context.Context, referenceID string) (*models.Payment, error)
	Update(ctx context.Context, payment *models.Payment) error
	ListByBuyer(ctx context.Context, buyerID uint) ([]*models.Payment, error)
	ListByFarmer(ctx context.Context, farmerID uint) ([]*models.Payment, error)
	ListByFarmerAndStatuses(ctx context.Context, farmerID uint, statuses []string) ([]*models.Payment, error)
	ListAll(ctx context.Context) ([]*models.Payment, error)

	CreateSession(ctx context.Context, session *models.PaymentSession) error
	GetSessionByPaymentID(ctx context.Context, paymentID uint) (*models.PaymentSession, error)
	UpdateSession(ctx context.Context, session *models.PaymentSession) error
	ExpireStaleSessions(ctx context.Context, now time.Time) (int64, error)

	CreateWebhookLog(ctx context.Context, webhook *models.PaymentWebhook) error
}

// SettingRepository defines platform settings repository interface
type SettingRepository interface {
	GetAll(ctx context.Context) ([]*models.PlatformSetting, error)
	Upsert(ctx context.Context, key, value string) error
}
