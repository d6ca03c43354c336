package services

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"agrofresh-gh/internal/adapters/persistence/models"
	"agrofresh-gh/internal/adapters/persistence/repositories"

	"gorm.io/gorm"
)

// Payment errors
var (
	ErrPaymentNotFound      = errors.New("payment not found")
	ErrNotPaymentParty      = errors.New("you are not a party to this payment")
	ErrPaymentNotCancelable = errors.New("payment can no longer be cancelled")
	ErrInvalidPaymentMethod = errors.New("invalid payment method")
)

// SessionTTL is how long a checkout session stays payable
const SessionTTL = 30 * time.Minute

// PaymentService handles payment business logic
type PaymentService struct {
	paymentRepo repositories.PaymentRepository
	orderRepo   repositories.OrderRepository
	cropRepo    repositories.CropRepository
}

// NewPaymentService creates a new payment service
func NewPaymentService(
	paymentRepo repositories.PaymentRepository,
	orderRepo repositories.OrderRepository,
	cropRepo repositories.CropRepository,
) *PaymentService {
	return &PaymentService{
		paymentRepo: paymentRepo,
		orderRepo:   orderRepo,
		cropRepo:    cropRepo,
	}
}

// CreatePaymentInput represents payment initiation input
type CreatePaymentInput struct {
	OrderID uint    `json:"order_id" validate:"required"`
	Method  string  `json:"method" validate:"required"`
	Amount  float64 `json:"amount" validate:"omitempty,gt=0"`
}

// WebhookInput represents a provider payment status callback
type WebhookInput struct {
	ReferenceID string                 `json:"reference_id" validate:"required"`
	Status      string                 `json:"status" validate:"required"`
	Raw         map[string]interface{} `json:"-"`
}

// CheckoutResponse is returned when a payment is initiated
type CheckoutResponse struct {
	Payment   *models.PaymentResponse `json:"payment"`
	SessionID string                  `json:"session_id"`
	ExpiresAt time.Time               `json:"expires_at"`
}

// validPaymentMethods is the accepted method vocabulary
var validPaymentMethods = map[string]bool{
	models.PaymentMethodMTNMomo:      true,
	models.PaymentMethodVodafoneCash: true,
	models.PaymentMethodAirtelTigo:   true,
	models.PaymentMethodCard:         true,
	models.PaymentMethodBankTransfer: true,
}

// Create initiates a payment for the buyer's order. The amount defaults to
// crop price times ordered quantity when the caller leaves it zero.
func (s *PaymentService) Create(ctx context.Context, buyerID uint, input *CreatePaymentInput) (*CheckoutResponse, error) {
	if !validPaymentMethods[input.Method] {
		return nil, ErrInvalidPaymentMethod
	}

	order, err := s.orderRepo.GetByID(ctx, input.OrderID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrOrderNotFound
		}
		return nil, err
	}

	if order.BuyerID != buyerID {
		return nil, ErrNotOrderParty
	}

	amount := input.Amount
	if amount == 0 && order.Crop != nil {
		amount = order.Crop.Price * float64(order.Quantity)
	}

	payment := &models.Payment{
		OrderID:     order.ID,
		BuyerID:     order.BuyerID,
		FarmerID:    order.FarmerID,
		Amount:      amount,
		Method:      input.Method,
		Status:      models.PaymentStatusPending,
		ReferenceID: generateReference(),
	}

	if err := s.paymentRepo.Create(ctx, payment); err != nil {
		return nil, err
	}

	sessionID, err := generateSessionID()
	if err != nil {
		return nil, err
	}

	session := &models.PaymentSession{
		SessionID: sessionID,
		PaymentID: payment.ID,
		Status:    models.SessionStatusPending,
		ExpiresAt: time.Now().Add(SessionTTL),
	}

	if err := s.paymentRepo.CreateSession(ctx, session); err != nil {
		return nil, err
	}

	log.Printf("💳 Payment initiated: %s (GHS %.2f via %s)", payment.ReferenceID, amount, input.Method)

	return &CheckoutResponse{
		Payment:   payment.ToResponse(),
		SessionID: session.SessionID,
		ExpiresAt: session.ExpiresAt,
	}, nil
}

// GetStatus returns a payment's current state. Only the buyer, the farmer,
// or an admin may view it.
func (s *PaymentService) GetStatus(ctx context.Context, paymentID, userID uint, role string) (*models.PaymentResponse, error) {
	payment, err := s.getParty(ctx, paymentID, userID, role)
	if err != nil {
		return nil, err
	}
	return payment.ToResponse(), nil
}

// History returns payments scoped by the caller's role
func (s *PaymentService) History(ctx context.Context, userID uint, role string) ([]*models.PaymentResponse, error) {
	var payments []*models.Payment
	var err error

	switch role {
	case models.RoleBuyer:
		payments, err = s.paymentRepo.ListByBuyer(ctx, userID)
	case models.RoleFarmer:
		payments, err = s.paymentRepo.ListByFarmer(ctx, userID)
	case models.RoleAdmin:
		payments, err = s.paymentRepo.ListAll(ctx)
	default:
		return nil, ErrInvalidRole
	}
	if err != nil {
		return nil, err
	}

	responses := make([]*models.PaymentResponse, 0, len(payments))
	for _, payment := range payments {
		responses = append(responses, payment.ToResponse())
	}
	return responses, nil
}

// HandleWebhook applies a provider status callback to a payment, located by
// reference. The raw payload lands in the audit log whatever happens to the
// status. Replays of terminal states are absorbed without changing anything
// except provider_response.
func (s *PaymentService) HandleWebhook(ctx context.Context, input *WebhookInput) (*models.PaymentResponse, error) {
	payment, err := s.paymentRepo.GetByReferenceID(ctx, input.ReferenceID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPaymentNotFound
		}
		return nil, err
	}

	if input.Raw != nil {
		if blob, err := json.Marshal(input.Raw); err == nil {
			s.appendWebhookLog(ctx, payment.ID, string(blob))
			payment.ProviderResponse = mergeProviderResponse(payment.ProviderResponse, input.Raw)
		}
	}

	mapped := mapProviderStatus(input.Status)
	if mapped != "" && !payment.IsTerminal() {
		payment.Status = mapped

		if mapped == models.PaymentStatusCompleted {
			now := time.Now()
			payment.CompletedAt = &now
			s.settle(ctx, payment)
		} else {
			s.closeSession(ctx, payment.ID)
		}
	}

	if err := s.paymentRepo.Update(ctx, payment); err != nil {
		return nil, err
	}

	log.Printf("💳 Webhook applied to %s: %s -> %s", payment.ReferenceID, input.Status, payment.Status)
	return payment.ToResponse(), nil
}

// Simulate completes or fails a payment without a provider, for demos and
// mobile money methods with no sandbox. The caller must be authenticated but
// ownership is not checked.
func (s *PaymentService) Simulate(ctx context.Context, paymentID uint, outcome string) (*models.PaymentResponse, error) {
	payment, err := s.paymentRepo.GetByID(ctx, paymentID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPaymentNotFound
		}
		return nil, err
	}

	if outcome == "" {
		outcome = "success"
	}

	return s.HandleWebhook(ctx, &WebhookInput{
		ReferenceID: payment.ReferenceID,
		Status:      outcome,
		Raw: map[string]interface{}{
			"simulated": true,
			"outcome":   outcome,
			"at":        time.Now().Format(time.RFC3339),
		},
	})
}

// Cancel cancels a pending or processing payment. Only the paying buyer may
// cancel.
func (s *PaymentService) Cancel(ctx context.Context, paymentID, buyerID uint) (*models.PaymentResponse, error) {
	payment, err := s.paymentRepo.GetByID(ctx, paymentID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPaymentNotFound
		}
		return nil, err
	}

	if payment.BuyerID != buyerID {
		return nil, ErrNotPaymentParty
	}

	if payment.Status != models.PaymentStatusPending && payment.Status != models.PaymentStatusProcessing {
		return nil, ErrPaymentNotCancelable
	}

	payment.Status = models.PaymentStatusCancelled
	if err := s.paymentRepo.Update(ctx, payment); err != nil {
		return nil, err
	}

	s.closeSession(ctx, payment.ID)

	log.Printf("💳 Payment cancelled: %s", payment.ReferenceID)
	return payment.ToResponse(), nil
}

// ExpireStaleSessions marks pending sessions past their deadline as expired
func (s *PaymentService) ExpireStaleSessions(ctx context.Context) (int64, error) {
	return s.paymentRepo.ExpireStaleSessions(ctx, time.Now())
}

// getParty loads a payment and checks the caller is the buyer, the farmer,
// or an admin.
func (s *PaymentService) getParty(ctx context.Context, paymentID, userID uint, role string) (*models.Payment, error) {
	payment, err := s.paymentRepo.GetByID(ctx, paymentID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPaymentNotFound
		}
		return nil, err
	}

	if role != models.RoleAdmin && payment.BuyerID != userID && payment.FarmerID != userID {
		return nil, ErrNotPaymentParty
	}

	return payment, nil
}

// settle propagates a completed payment onto its order and session
func (s *PaymentService) settle(ctx context.Context, payment *models.Payment) {
	if order, err := s.orderRepo.GetByID(ctx, payment.OrderID); err == nil {
		order.Status = models.OrderStatusPaid
		if err := s.orderRepo.Update(ctx, order); err != nil {
			log.Printf("⚠️ Failed to mark order %d paid: %v", order.ID, err)
		}
	}

	if session, err := s.paymentRepo.GetSessionByPaymentID(ctx, payment.ID); err == nil {
		session.Status = models.SessionStatusCompleted
		if err := s.paymentRepo.UpdateSession(ctx, session); err != nil {
			log.Printf("⚠️ Failed to complete session for payment %d: %v", payment.ID, err)
		}
	}
}

// closeSession marks a payment's checkout session cancelled once the payment
// reaches a terminal state other than completed
func (s *PaymentService) closeSession(ctx context.Context, paymentID uint) {
	session, err := s.paymentRepo.GetSessionByPaymentID(ctx, paymentID)
	if err != nil {
		return
	}
	session.Status = models.SessionStatusCancelled
	if err := s.paymentRepo.UpdateSession(ctx, session); err != nil {
		log.Printf("⚠️ Failed to close session for payment %d: %v", paymentID, err)
	}
}

// appendWebhookLog stores a raw webhook payload; failures only log
func (s *PaymentService) appendWebhookLog(ctx context.Context, paymentID uint, payload string) {
	webhook := &models.PaymentWebhook{
		PaymentID: paymentID,
		Payload:   payload,
	}
	if err := s.paymentRepo.CreateWebhookLog(ctx, webhook); err != nil {
		log.Printf("⚠️ Failed to log webhook for payment %d: %v", paymentID, err)
	}
}

// mapProviderStatus maps provider status vocabulary onto ours. Unknown
// statuses map to empty, which leaves the payment untouched.
func mapProviderStatus(status string) string {
	switch status {
	case "success", "completed":
		return models.PaymentStatusCompleted
	case "failed", "error":
		return models.PaymentStatusFailed
	case "cancelled":
		return models.PaymentStatusCancelled
	default:
		return ""
	}
}

// mergeProviderResponse folds a new payload into the stored provider_response
func mergeProviderResponse(blob string, extra map[string]interface{}) string {
	merged := map[string]interface{}{}
	if blob != "" {
		_ = json.Unmarshal([]byte(blob), &merged)
	}
	for k, v := range extra {
		merged[k] = v
	}
	out, err := json.Marshal(merged)
	if err != nil {
		return blob
	}
	return string(out)
}

// generateReference builds a unique payment reference
func generateReference() string {
	suffix := make([]byte, 4)
	_, _ = rand.Read(suffix)
	return fmt.Sprintf("AGRO-%d-%s", time.Now().UnixMilli(), hex.EncodeToString(suffix))
}

// generateSessionID builds a 64 character hex session identifier
func generateSessionID() (string, error) {
	raw := make([]byte, 32)
	if _, err := rand.Read(raw); err != nil {
		return "", err
	}
	return hex.EncodeToString(raw), nil
}
