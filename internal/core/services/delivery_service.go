package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"time"

	"agrofresh-gh/internal/adapters/persistence/models"
	"agrofresh-gh/internal/adapters/persistence/repositories"
	"agrofresh-gh/internal/config"

	"gorm.io/gorm"
)

// Delivery errors
var (
	ErrTrackingNotFound = errors.New("tracking number not found")
)

// Delivery milestones as reported on tracking pages, in progression order.
var deliveryMilestones = []string{
	"Order Placed",
	"Dispatched",
	"In Transit",
	"Delivered",
}

// Pickup hub for all deliveries. Farmers drop produce at the Accra
// aggregation center and Sendstack handles the last mile.
const (
	pickupAddress = "AgroFresh GH Hub, 12 Oxford Street, Osu, Accra"
	pickupPhone   = "+233302000000"
	pickupName    = "AgroFresh GH"
)

// DeliveryService books deliveries with Sendstack and tracks them. When the
// provider is unreachable a local fallback tracking number keeps checkout
// flowing.
type DeliveryService struct {
	orderRepo repositories.OrderRepository
	cfg       *config.Config
	client    *http.Client
}

// NewDeliveryService creates a new delivery service
func NewDeliveryService(orderRepo repositories.OrderRepository, cfg *config.Config) *DeliveryService {
	return &DeliveryService{
		orderRepo: orderRepo,
		cfg:       cfg,
		client: &http.Client{
			Timeout: 15 * time.Second,
		},
	}
}

// Booking holds the tracking details assigned to an order
type Booking struct {
	TrackingNumber string     `json:"tracking_number"`
	TrackingURL    string     `json:"tracking_url"`
	DeliveryStatus string     `json:"delivery_status"`
	DeliveryETA    *time.Time `json:"delivery_eta,omitempty"`
	Fallback       bool       `json:"fallback"`
}

// TrackingEvent is one milestone on the tracking timeline
type TrackingEvent struct {
	Status    string    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
	Completed bool      `json:"completed"`
}

// TrackingInfo is the full tracking view for an order
type TrackingInfo struct {
	OrderID        uint            `json:"order_id"`
	TrackingNumber string          `json:"tracking_number"`
	TrackingURL    string          `json:"tracking_url,omitempty"`
	DeliveryStatus string          `json:"delivery_status"`
	DeliveryETA    *time.Time      `json:"delivery_eta,omitempty"`
	History        []TrackingEvent `json:"history"`
}

// sendstackDeliveryRequest is the provider's booking payload
type sendstackDeliveryRequest struct {
	PickupName    string `json:"pickupName"`
	PickupAddress string `json:"pickupAddress"`
	PickupPhone   string `json:"pickupPhone"`
	DropName      string `json:"dropName"`
	DropAddress   string `json:"dropAddress"`
	DropPhone     string `json:"dropPhone"`
	Reference     string `json:"reference"`
}

// sendstackDeliveryResponse is the subset of the provider's response we use
type sendstackDeliveryResponse struct {
	Status bool `json:"status"`
	Data   struct {
		Deliveries []struct {
			TrackingID  string `json:"trackingId"`
			TrackingURL string `json:"trackingUrl"`
			Status      string `json:"status"`
			ETA         string `json:"eta"`
		} `json:"deliveries"`
	} `json:"data"`
}

// BookDelivery books a delivery for the order. deliveryInfo carries the
// buyer's drop details (name, address, phone). Provider failures degrade to a
// fallback booking instead of failing the order.
func (s *DeliveryService) BookDelivery(ctx context.Context, order *models.Order, deliveryInfo map[string]interface{}) *Booking {
	booking, err := s.bookWithSendstack(ctx, order, deliveryInfo)
	if err != nil {
		log.Printf("⚠️ Sendstack booking failed for order %d: %v (using fallback tracking)", order.ID, err)
		return fallbackBooking()
	}
	return booking
}

// bookWithSendstack calls the provider's delivery creation endpoint
func (s *DeliveryService) bookWithSendstack(ctx context.Context, order *models.Order, deliveryInfo map[string]interface{}) (*Booking, error) {
	if s.cfg.Sendstack.AppID == "" || s.cfg.Sendstack.AppSecret == "" {
		return nil, errors.New("sendstack credentials not configured")
	}

	payload := sendstackDeliveryRequest{
		PickupName:    pickupName,
		PickupAddress: pickupAddress,
		PickupPhone:   pickupPhone,
		DropName:      stringField(deliveryInfo, "name"),
		DropAddress:   stringField(deliveryInfo, "address"),
		DropPhone:     stringField(deliveryInfo, "phone"),
		Reference:     fmt.Sprintf("ORDER-%d", order.ID),
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.cfg.Sendstack.BaseURL+"/deliveries", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("app_id", s.cfg.Sendstack.AppID)
	req.Header.Set("app_secret", s.cfg.Sendstack.AppSecret)

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return nil, fmt.Errorf("sendstack returned %d: %s", resp.StatusCode, string(respBody))
	}

	var result sendstackDeliveryResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, err
	}

	if len(result.Data.Deliveries) == 0 || result.Data.Deliveries[0].TrackingID == "" {
		return nil, errors.New("sendstack response missing tracking id")
	}

	delivery := result.Data.Deliveries[0]

	booking := &Booking{
		TrackingNumber: delivery.TrackingID,
		TrackingURL:    delivery.TrackingURL,
		DeliveryStatus: delivery.Status,
	}
	if booking.TrackingURL == "" {
		booking.TrackingURL = fmt.Sprintf("%s/%s", s.cfg.Sendstack.TrackURL, delivery.TrackingID)
	}
	if booking.DeliveryStatus == "" {
		booking.DeliveryStatus = deliveryMilestones[0]
	}
	if delivery.ETA != "" {
		if eta, err := time.Parse(time.RFC3339, delivery.ETA); err == nil {
			booking.DeliveryETA = &eta
		}
	}

	log.Printf("🚚 Delivery booked for order %d: %s", order.ID, booking.TrackingNumber)
	return booking, nil
}

// fallbackBooking generates a local tracking number when the provider is down
func fallbackBooking() *Booking {
	return &Booking{
		TrackingNumber: fmt.Sprintf("SS%d", time.Now().UnixMilli()),
		DeliveryStatus: deliveryMilestones[0],
		Fallback:       true,
	}
}

// GetTracking returns the tracking timeline for an order. The history is
// derived from the order's current delivery status: every milestone up to and
// including it is marked completed with a timestamp stepped back from now.
func (s *DeliveryService) GetTracking(ctx context.Context, order *models.Order) *TrackingInfo {
	status := order.DeliveryStatus
	if status == "" {
		status = deliveryMilestones[0]
	}

	rank := milestoneRank(status)
	now := time.Now()

	history := make([]TrackingEvent, 0, len(deliveryMilestones))
	for i, milestone := range deliveryMilestones {
		event := TrackingEvent{
			Status:    milestone,
			Completed: i <= rank,
		}
		if event.Completed {
			// Completed milestones are spaced 6 hours apart ending now
			event.Timestamp = now.Add(-time.Duration(rank-i) * 6 * time.Hour)
		}
		history = append(history, event)
	}

	return &TrackingInfo{
		OrderID:        order.ID,
		TrackingNumber: order.TrackingNumber,
		TrackingURL:    order.TrackingURL,
		DeliveryStatus: status,
		DeliveryETA:    order.DeliveryETA,
		History:        history,
	}
}

// ApplySendstackWebhook updates an order's delivery state from a provider
// status callback, matched by tracking number.
func (s *DeliveryService) ApplySendstackWebhook(ctx context.Context, trackingNumber, status string, eta *time.Time) (*models.Order, error) {
	order, err := s.orderRepo.GetByTrackingNumber(ctx, trackingNumber)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTrackingNotFound
		}
		return nil, err
	}

	order.DeliveryStatus = status
	if eta != nil {
		order.DeliveryETA = eta
	}
	if milestoneRank(status) == len(deliveryMilestones)-1 {
		order.Status = models.OrderStatusDelivered
	}

	if err := s.orderRepo.Update(ctx, order); err != nil {
		return nil, err
	}

	log.Printf("🚚 Delivery update for order %d: %s", order.ID, status)
	return order, nil
}

// milestoneRank maps a delivery status onto the milestone ladder. Unknown
// statuses rank as the first milestone.
func milestoneRank(status string) int {
	for i, milestone := range deliveryMilestones {
		if milestone == status {
			return i
		}
	}
	return 0
}

// stringField pulls a string value out of a loosely typed JSON map
func stringField(m map[string]interface{}, key string) string {
	if m == nil {
		return ""
	}
	if v, ok := m[key].(string); ok {
		return v
	}
	return ""
}
