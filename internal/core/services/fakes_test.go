package services

import (
	"context"
	"time"

	"agrofresh-gh/internal/adapters/persistence/models"
	"agrofresh-gh/internal/pkg/pagination"

	"gorm.io/gorm"
)

// In-memory repository fakes for service tests.

func testPaginationParams() *pagination.Params {
	return &pagination.Params{Page: 1, Limit: 20, Offset: 0}
}

type fakeCropRepo struct {
	crops  map[uint]*models.Crop
	nextID uint
}

func newFakeCropRepo() *fakeCropRepo {
	return &fakeCropRepo{crops: map[uint]*models.Crop{}, nextID: 1}
}

func (r *fakeCropRepo) Create(ctx context.Context, crop *models.Crop) error {
	crop.ID = r.nextID
	r.nextID++
	if crop.CreatedAt.IsZero() {
		crop.CreatedAt = time.Now()
	}
	r.crops[crop.ID] = crop
	return nil
}

func (r *fakeCropRepo) GetByID(ctx context.Context, id uint) (*models.Crop, error) {
	crop, ok := r.crops[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return crop, nil
}

func (r *fakeCropRepo) Update(ctx context.Context, crop *models.Crop) error {
	r.crops[crop.ID] = crop
	return nil
}

func (r *fakeCropRepo) Delete(ctx context.Context, id uint) error {
	delete(r.crops, id)
	return nil
}

func (r *fakeCropRepo) List(ctx context.Context, farmerID *uint, offset, limit int) ([]*models.Crop, int64, error) {
	var out []*models.Crop
	for _, crop := range r.crops {
		if farmerID != nil && crop.FarmerID != *farmerID {
			continue
		}
		out = append(out, crop)
	}
	return out, int64(len(out)), nil
}

func (r *fakeCropRepo) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	var removed int64
	for id, crop := range r.crops {
		if crop.CreatedAt.Before(cutoff) {
			delete(r.crops, id)
			removed++
		}
	}
	return removed, nil
}

type fakeOrderRepo struct {
	orders map[uint]*models.Order
	nextID uint
}

func newFakeOrderRepo() *fakeOrderRepo {
	return &fakeOrderRepo{orders: map[uint]*models.Order{}, nextID: 1}
}

func (r *fakeOrderRepo) Create(ctx context.Context, order *models.Order) error {
	order.ID = r.nextID
	r.nextID++
	if order.CreatedAt.IsZero() {
		order.CreatedAt = time.Now()
	}
	r.orders[order.ID] = order
	return nil
}

func (r *fakeOrderRepo) GetByID(ctx context.Context, id uint) (*models.Order, error) {
	order, ok := r.orders[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return order, nil
}

func (r *fakeOrderRepo) GetByTrackingNumber(ctx context.Context, trackingNumber string) (*models.Order, error) {
	for _, order := range r.orders {
		if order.TrackingNumber == trackingNumber {
			return order, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *fakeOrderRepo) Update(ctx context.Context, order *models.Order) error {
	r.orders[order.ID] = order
	return nil
}

func (r *fakeOrderRepo) Delete(ctx context.Context, id uint) error {
	delete(r.orders, id)
	return nil
}

func (r *fakeOrderRepo) ListByBuyer(ctx context.Context, buyerID uint) ([]*models.Order, error) {
	var out []*models.Order
	for _, order := range r.orders {
		if order.BuyerID == buyerID {
			out = append(out, order)
		}
	}
	return out, nil
}

func (r *fakeOrderRepo) ListByFarmer(ctx context.Context, farmerID uint) ([]*models.Order, error) {
	var out []*models.Order
	for _, order := range r.orders {
		if order.FarmerID == farmerID {
			out = append(out, order)
		}
	}
	return out, nil
}

func (r *fakeOrderRepo) ListAll(ctx context.Context) ([]*models.Order, error) {
	var out []*models.Order
	for _, order := range r.orders {
		out = append(out, order)
	}
	return out, nil
}

func (r *fakeOrderRepo) ListByFarmerAndStatuses(ctx context.Context, farmerID uint, statuses []string) ([]*models.Order, error) {
	var out []*models.Order
	for _, order := range r.orders {
		if order.FarmerID != farmerID {
			continue
		}
		for _, status := range statuses {
			if order.Status == status {
				out = append(out, order)
				break
			}
		}
	}
	return out, nil
}

func (r *fakeOrderRepo) DeleteCancelledBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	var removed int64
	for id, order := range r.orders {
		if order.Status == models.OrderStatusCancelled && order.UpdatedAt.Before(cutoff) {
			delete(r.orders, id)
			removed++
		}
	}
	return removed, nil
}

func (r *fakeOrderRepo) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	var removed int64
	for id, order := range r.orders {
		if order.CreatedAt.Before(cutoff) {
			delete(r.orders, id)
			removed++
		}
	}
	return removed, nil
}

type fakePaymentRepo struct {
	payments map[uint]*models.Payment
	sessions map[uint]*models.PaymentSession
	webhooks []*models.PaymentWebhook
	nextID   uint
}

func newFakePaymentRepo() *fakePaymentRepo {
	return &fakePaymentRepo{
		payments: map[uint]*models.Payment{},
		sessions: map[uint]*models.PaymentSession{},
		nextID:   1,
	}
}

func (r *fakePaymentRepo) Create(ctx context.Context, payment *models.Payment) error {
	payment.ID = r.nextID
	r.nextID++
	r.payments[payment.ID] = payment
	return nil
}

func (r *fakePaymentRepo) GetByID(ctx context.Context, id uint) (*models.Payment, error) {
	payment, ok := r.payments[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return payment, nil
}

func (r *fakePaymentRepo) GetByReferenceID(ctx context.Context, referenceID string) (*models.Payment, error) {
	for _, payment := range r.payments {
		if payment.ReferenceID == referenceID {
			return payment, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *fakePaymentRepo) Update(ctx context.Context, payment *models.Payment) error {
	r.payments[payment.ID] = payment
	return nil
}

func (r *fakePaymentRepo) ListByBuyer(ctx context.Context, buyerID uint) ([]*models.Payment, error) {
	var out []*models.Payment
	for _, payment := range r.payments {
		if payment.BuyerID == buyerID {
			out = append(out, payment)
		}
	}
	return out, nil
}

func (r *fakePaymentRepo) ListByFarmer(ctx context.Context, farmerID uint) ([]*models.Payment, error) {
	var out []*models.Payment
	for _, payment := range r.payments {
		if payment.FarmerID == farmerID {
			out = append(out, payment)
		}
	}
	return out, nil
}

func (r *fakePaymentRepo) ListByFarmerAndStatuses(ctx context.Context, farmerID uint, statuses []string) ([]*models.Payment, error) {
	var out []*models.Payment
	for _, payment := range r.payments {
		if payment.FarmerID != farmerID {
			continue
		}
		for _, status := range statuses {
			if payment.Status == status {
				out = append(out, payment)
				break
			}
		}
	}
	return out, nil
}

func (r *fakePaymentRepo) ListAll(ctx context.Context) ([]*models.Payment, error) {
	var out []*models.Payment
	for _, payment := range r.payments {
		out = append(out, payment)
	}
	return out, nil
}

func (r *fakePaymentRepo) CreateSession(ctx context.Context, session *models.PaymentSession) error {
	session.ID = uint(len(r.sessions) + 1)
	r.sessions[session.PaymentID] = session
	return nil
}

func (r *fakePaymentRepo) GetSessionByPaymentID(ctx context.Context, paymentID uint) (*models.PaymentSession, error) {
	session, ok := r.sessions[paymentID]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return session, nil
}

func (r *fakePaymentRepo) UpdateSession(ctx context.Context, session *models.PaymentSession) error {
	r.sessions[session.PaymentID] = session
	return nil
}

func (r *fakePaymentRepo) ExpireStaleSessions(ctx context.Context, now time.Time) (int64, error) {
	var expired int64
	for _, session := range r.sessions {
		if session.Status == models.SessionStatusPending && session.ExpiresAt.Before(now) {
			session.Status = models.SessionStatusExpired
			expired++
		}
	}
	return expired, nil
}

func (r *fakePaymentRepo) CreateWebhookLog(ctx context.Context, webhook *models.PaymentWebhook) error {
	r.webhooks = append(r.webhooks, webhook)
	return nil
}
