package services

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"time"

	"agrofresh-gh/internal/adapters/persistence/models"
	"agrofresh-gh/internal/adapters/persistence/repositories"

	"gorm.io/gorm"
)

// Order errors
var (
	ErrOrderNotFound     = errors.New("order not found")
	ErrNotOrderParty     = errors.New("you are not a party to this order")
	ErrCropUnavailable   = errors.New("crop is not available for ordering")
	ErrInvalidOrderState = errors.New("invalid order status")
)

// OrderService handles order business logic
type OrderService struct {
	orderRepo   repositories.OrderRepository
	cropRepo    repositories.CropRepository
	paymentRepo repositories.PaymentRepository
	delivery    *DeliveryService
}

// NewOrderService creates a new order service
func NewOrderService(
	orderRepo repositories.OrderRepository,
	cropRepo repositories.CropRepository,
	paymentRepo repositories.PaymentRepository,
	delivery *DeliveryService,
) *OrderService {
	return &OrderService{
		orderRepo:   orderRepo,
		cropRepo:    cropRepo,
		paymentRepo: paymentRepo,
		delivery:    delivery,
	}
}

// CreateOrderInput represents order creation input. DeliveryInfo carries the
// buyer's drop-off details (name, address, phone, notes) as free-form JSON.
type CreateOrderInput struct {
	CropID       uint                   `json:"crop_id" validate:"required"`
	Quantity     int                    `json:"quantity" validate:"required,gt=0"`
	DeliveryInfo map[string]interface{} `json:"delivery_info"`
}

// UpdateOrderInput represents order update input. Quantity is optional and
// only changes when provided.
type UpdateOrderInput struct {
	Status   string `json:"status" validate:"required"`
	Quantity *int   `json:"quantity" validate:"omitempty,gt=0"`
}

// SalesReport aggregates a farmer's settled orders
type SalesReport struct {
	TotalOrders  int                     `json:"total_orders"`
	TotalUnits   int                     `json:"total_units"`
	TotalRevenue float64                 `json:"total_revenue"`
	Orders       []*models.OrderResponse `json:"orders"`
}

// validOrderStatuses is the accepted status vocabulary. Transitions are
// deliberately unconstrained: sellers routinely walk statuses backwards to
// correct mistakes.
var validOrderStatuses = map[string]bool{
	models.OrderStatusPending:   true,
	models.OrderStatusConfirmed: true,
	models.OrderStatusPreparing: true,
	models.OrderStatusReady:     true,
	models.OrderStatusShipped:   true,
	models.OrderStatusDelivered: true,
	models.OrderStatusCompleted: true,
	models.OrderStatusPaid:      true,
	models.OrderStatusCancelled: true,
}

// Create places an order for a crop. The selling farmer is resolved from the
// crop at creation so the order survives the crop listing's later purge.
// Ordering does not decrement crop quantity; farmers reconcile stock when
// confirming.
func (s *OrderService) Create(ctx context.Context, buyerID uint, input *CreateOrderInput) (*models.OrderResponse, error) {
	crop, err := s.cropRepo.GetByID(ctx, input.CropID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrCropNotFound
		}
		return nil, err
	}

	if !crop.Available {
		return nil, ErrCropUnavailable
	}

	cropID := crop.ID
	order := &models.Order{
		BuyerID:  buyerID,
		FarmerID: crop.FarmerID,
		CropID:   &cropID,
		Quantity: input.Quantity,
		Status:   models.OrderStatusPending,
	}

	if input.DeliveryInfo != nil {
		blob, err := json.Marshal(input.DeliveryInfo)
		if err != nil {
			return nil, err
		}
		order.DeliveryInfo = string(blob)
	}

	if err := s.orderRepo.Create(ctx, order); err != nil {
		return nil, err
	}

	// Book the delivery; a provider outage falls back to local tracking
	booking := s.delivery.BookDelivery(ctx, order, input.DeliveryInfo)
	order.TrackingNumber = booking.TrackingNumber
	order.TrackingURL = booking.TrackingURL
	order.DeliveryStatus = booking.DeliveryStatus
	order.DeliveryETA = booking.DeliveryETA

	if booking.Fallback {
		order.DeliveryInfo = mergeDeliveryInfo(order.DeliveryInfo, map[string]interface{}{"fallback": true})
	}

	if err := s.orderRepo.Update(ctx, order); err != nil {
		return nil, err
	}

	log.Printf("🛒 Order %d placed: crop %d x%d by buyer %d", order.ID, crop.ID, input.Quantity, buyerID)

	created, err := s.orderRepo.GetByID(ctx, order.ID)
	if err != nil {
		return order.ToResponse(), nil
	}
	return created.ToResponse(), nil
}

// List returns orders scoped by the caller's role: buyers see their
// purchases, farmers their sales, admins everything.
func (s *OrderService) List(ctx context.Context, userID uint, role string) ([]*models.OrderResponse, error) {
	var orders []*models.Order
	var err error

	switch role {
	case models.RoleBuyer:
		orders, err = s.orderRepo.ListByBuyer(ctx, userID)
	case models.RoleFarmer:
		orders, err = s.orderRepo.ListByFarmer(ctx, userID)
	case models.RoleAdmin:
		orders, err = s.orderRepo.ListAll(ctx)
	default:
		return nil, ErrInvalidRole
	}
	if err != nil {
		return nil, err
	}

	responses := make([]*models.OrderResponse, 0, len(orders))
	for _, order := range orders {
		responses = append(responses, order.ToResponse())
	}
	return responses, nil
}

// Get returns an order. Only the buyer, the farmer, or an admin may view it.
func (s *OrderService) Get(ctx context.Context, orderID, userID uint, role string) (*models.OrderResponse, error) {
	order, err := s.getParty(ctx, orderID, userID, role)
	if err != nil {
		return nil, err
	}
	return order.ToResponse(), nil
}

// UpdateStatus updates an order's status and optionally its quantity. Any
// party to the order may change it; any status from the vocabulary is
// accepted.
func (s *OrderService) UpdateStatus(ctx context.Context, orderID, userID uint, role string, input *UpdateOrderInput) (*models.OrderResponse, error) {
	if !validOrderStatuses[input.Status] {
		return nil, ErrInvalidOrderState
	}

	order, err := s.getParty(ctx, orderID, userID, role)
	if err != nil {
		return nil, err
	}

	order.Status = input.Status
	if input.Quantity != nil {
		order.Quantity = *input.Quantity
	}

	if err := s.orderRepo.Update(ctx, order); err != nil {
		return nil, err
	}

	log.Printf("📦 Order %d status: %s", order.ID, input.Status)
	return order.ToResponse(), nil
}

// Cancel marks an order cancelled. The buyer, farmer, or an admin may do it.
func (s *OrderService) Cancel(ctx context.Context, orderID, userID uint, role string) (*models.OrderResponse, error) {
	order, err := s.getParty(ctx, orderID, userID, role)
	if err != nil {
		return nil, err
	}

	order.Status = models.OrderStatusCancelled
	if err := s.orderRepo.Update(ctx, order); err != nil {
		return nil, err
	}

	log.Printf("📦 Order %d cancelled by user %d", order.ID, userID)
	return order.ToResponse(), nil
}

// Delete removes an order (admin only; handlers enforce the role)
func (s *OrderService) Delete(ctx context.Context, orderID uint) error {
	if _, err := s.orderRepo.GetByID(ctx, orderID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrOrderNotFound
		}
		return err
	}
	return s.orderRepo.Delete(ctx, orderID)
}

// BookDelivery (re)books delivery for an order, replacing any earlier booking.
// Used when the original booking fell back to local tracking and the provider
// is available again.
func (s *OrderService) BookDelivery(ctx context.Context, orderID, userID uint, role string) (*models.OrderResponse, error) {
	order, err := s.getParty(ctx, orderID, userID, role)
	if err != nil {
		return nil, err
	}

	booking := s.delivery.BookDelivery(ctx, order, order.DeliveryInfoMap())
	order.TrackingNumber = booking.TrackingNumber
	order.TrackingURL = booking.TrackingURL
	order.DeliveryStatus = booking.DeliveryStatus
	order.DeliveryETA = booking.DeliveryETA

	if booking.Fallback {
		order.DeliveryInfo = mergeDeliveryInfo(order.DeliveryInfo, map[string]interface{}{"fallback": true})
	}

	if err := s.orderRepo.Update(ctx, order); err != nil {
		return nil, err
	}

	log.Printf("🚚 Delivery rebooked for order %d: %s", order.ID, order.TrackingNumber)
	return order.ToResponse(), nil
}

// GetTracking returns the delivery tracking view for an order
func (s *OrderService) GetTracking(ctx context.Context, orderID, userID uint, role string) (*TrackingInfo, error) {
	order, err := s.getParty(ctx, orderID, userID, role)
	if err != nil {
		return nil, err
	}
	return s.delivery.GetTracking(ctx, order), nil
}

// GetSalesReport aggregates a farmer's settled orders (completed or paid)
func (s *OrderService) GetSalesReport(ctx context.Context, farmerID uint) (*SalesReport, error) {
	statuses := []string{models.OrderStatusCompleted, models.OrderStatusPaid}
	orders, err := s.orderRepo.ListByFarmerAndStatuses(ctx, farmerID, statuses)
	if err != nil {
		return nil, err
	}

	report := &SalesReport{
		Orders: make([]*models.OrderResponse, 0, len(orders)),
	}

	for _, order := range orders {
		report.TotalOrders++
		report.TotalUnits += order.Quantity
		if order.Crop != nil {
			report.TotalRevenue += order.Crop.Price * float64(order.Quantity)
		}
		report.Orders = append(report.Orders, order.ToResponse())
	}

	// Crop rows may be gone by purge; fall back to settled payment amounts
	if report.TotalRevenue == 0 && report.TotalOrders > 0 {
		payments, err := s.paymentRepo.ListByFarmerAndStatuses(ctx, farmerID, []string{models.PaymentStatusCompleted})
		if err == nil {
			for _, p := range payments {
				report.TotalRevenue += p.Amount
			}
		}
	}

	return report, nil
}

// getParty loads an order and checks the caller is the buyer, the farmer, or
// an admin.
func (s *OrderService) getParty(ctx context.Context, orderID, userID uint, role string) (*models.Order, error) {
	order, err := s.orderRepo.GetByID(ctx, orderID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrOrderNotFound
		}
		return nil, err
	}

	if role != models.RoleAdmin && order.BuyerID != userID && order.FarmerID != userID {
		return nil, ErrNotOrderParty
	}

	return order, nil
}

// mergeDeliveryInfo merges extra keys into a delivery_info JSON blob
func mergeDeliveryInfo(blob string, extra map[string]interface{}) string {
	info := map[string]interface{}{}
	if blob != "" {
		_ = json.Unmarshal([]byte(blob), &info)
	}
	for k, v := range extra {
		info[k] = v
	}
	merged, err := json.Marshal(info)
	if err != nil {
		return blob
	}
	return string(merged)
}

// CleanupCancelled removes cancelled orders older than the retention window
func (s *OrderService) CleanupCancelled(ctx context.Context, retention time.Duration) (int64, error) {
	return s.orderRepo.DeleteCancelledBefore(ctx, time.Now().Add(-retention))
}

// CleanupOld removes orders older than the retention window regardless of
// status
func (s *OrderService) CleanupOld(ctx context.Context, retention time.Duration) (int64, error) {
	return s.orderRepo.DeleteOlderThan(ctx, time.Now().Add(-retention))
}
