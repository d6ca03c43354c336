package services

import (
	"context"
	"strconv"

	"agrofresh-gh/internal/adapters/persistence/models"
	"agrofresh-gh/internal/adapters/persistence/repositories"
)

// Default platform commission when the setting row is missing or unreadable
const defaultCommissionRate = 5.0

// PayoutService derives farmer payouts from settled payments. There is no
// payout ledger table; the view is recomputed from payments on every read.
type PayoutService struct {
	paymentRepo repositories.PaymentRepository
	settingRepo repositories.SettingRepository
}

// NewPayoutService creates a new payout service
func NewPayoutService(paymentRepo repositories.PaymentRepository, settingRepo repositories.SettingRepository) *PayoutService {
	return &PayoutService{
		paymentRepo: paymentRepo,
		settingRepo: settingRepo,
	}
}

// PayoutLine is one settled payment from the farmer's point of view
type PayoutLine struct {
	PaymentID   uint    `json:"payment_id"`
	OrderID     uint    `json:"order_id"`
	ReferenceID string  `json:"reference_id"`
	Gross       float64 `json:"gross"`
	Commission  float64 `json:"commission"`
	Net         float64 `json:"net"`
	CompletedAt string  `json:"completed_at,omitempty"`
}

// PayoutSummary is the farmer's full payout view. TotalPending is the gross
// of payments still in flight, not yet subject to commission.
type PayoutSummary struct {
	CommissionRate float64      `json:"commission_rate"`
	TotalGross     float64      `json:"total_gross"`
	TotalNet       float64      `json:"total_net"`
	TotalPending   float64      `json:"total_pending"`
	Lines          []PayoutLine `json:"lines"`
}

// GetFarmerPayouts computes the payout view for a farmer from completed
// payments, net of the platform commission.
func (s *PayoutService) GetFarmerPayouts(ctx context.Context, farmerID uint) (*PayoutSummary, error) {
	payments, err := s.paymentRepo.ListByFarmerAndStatuses(ctx, farmerID, []string{models.PaymentStatusCompleted})
	if err != nil {
		return nil, err
	}

	rate := s.commissionRate(ctx)

	summary := &PayoutSummary{
		CommissionRate: rate,
		Lines:          make([]PayoutLine, 0, len(payments)),
	}

	for _, p := range payments {
		commission := p.Amount * rate / 100
		line := PayoutLine{
			PaymentID:   p.ID,
			OrderID:     p.OrderID,
			ReferenceID: p.ReferenceID,
			Gross:       p.Amount,
			Commission:  commission,
			Net:         p.Amount - commission,
		}
		if p.CompletedAt != nil {
			line.CompletedAt = p.CompletedAt.Format("2006-01-02 15:04:05")
		}

		summary.TotalGross += line.Gross
		summary.TotalNet += line.Net
		summary.Lines = append(summary.Lines, line)
	}

	inFlight, err := s.paymentRepo.ListByFarmerAndStatuses(ctx, farmerID, []string{
		models.PaymentStatusPending,
		models.PaymentStatusProcessing,
	})
	if err != nil {
		return nil, err
	}
	for _, p := range inFlight {
		summary.TotalPending += p.Amount
	}

	return summary, nil
}

// commissionRate reads the platform commission setting, defaulting on error
func (s *PayoutService) commissionRate(ctx context.Context) float64 {
	settings, err := s.settingRepo.GetAll(ctx)
	if err != nil {
		return defaultCommissionRate
	}
	for _, setting := range settings {
		if setting.Key == "commission_rate" {
			if rate, err := strconv.ParseFloat(setting.Value, 64); err == nil {
				return rate
			}
		}
	}
	return defaultCommissionRate
}
