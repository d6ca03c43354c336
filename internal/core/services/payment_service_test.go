package services

import (
	"context"
	"testing"
	"time"

	"agrofresh-gh/internal/adapters/persistence/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newPaymentServiceForTest() (*PaymentService, *fakePaymentRepo, *fakeOrderRepo, *fakeCropRepo) {
	paymentRepo := newFakePaymentRepo()
	orderRepo := newFakeOrderRepo()
	cropRepo := newFakeCropRepo()
	return NewPaymentService(paymentRepo, orderRepo, cropRepo), paymentRepo, orderRepo, cropRepo
}

func seedOrderWithCrop(t *testing.T, orderRepo *fakeOrderRepo, cropRepo *fakeCropRepo) *models.Order {
	t.Helper()

	crop := &models.Crop{FarmerID: 2, Name: "Tomatoes", Price: 12.50, Quantity: 100, Available: true}
	require.NoError(t, cropRepo.Create(context.Background(), crop))

	cropID := crop.ID
	order := &models.Order{
		BuyerID:  1,
		FarmerID: 2,
		CropID:   &cropID,
		Quantity: 4,
		Status:   models.OrderStatusPending,
		Crop:     crop,
	}
	require.NoError(t, orderRepo.Create(context.Background(), order))
	return order
}

func TestCreatePayment(t *testing.T) {
	svc, paymentRepo, orderRepo, cropRepo := newPaymentServiceForTest()
	order := seedOrderWithCrop(t, orderRepo, cropRepo)

	checkout, err := svc.Create(context.Background(), 1, &CreatePaymentInput{
		OrderID: order.ID,
		Method:  models.PaymentMethodMTNMomo,
	})
	require.NoError(t, err)

	// Amount defaults to crop price x quantity
	assert.InDelta(t, 50.0, checkout.Payment.Amount, 0.001)
	assert.Equal(t, models.PaymentStatusPending, checkout.Payment.Status)
	assert.Regexp(t, `^AGRO-\d+-[0-9a-f]{8}$`, checkout.Payment.ReferenceID)

	// Session is 64 hex chars and expires roughly 30 minutes out
	assert.Regexp(t, `^[0-9a-f]{64}$`, checkout.SessionID)
	assert.WithinDuration(t, time.Now().Add(SessionTTL), checkout.ExpiresAt, 5*time.Second)

	session, err := paymentRepo.GetSessionByPaymentID(context.Background(), checkout.Payment.ID)
	require.NoError(t, err)
	assert.Equal(t, models.SessionStatusPending, session.Status)
}

func TestCreatePaymentRejectsWrongBuyer(t *testing.T) {
	svc, _, orderRepo, cropRepo := newPaymentServiceForTest()
	order := seedOrderWithCrop(t, orderRepo, cropRepo)

	_, err := svc.Create(context.Background(), 99, &CreatePaymentInput{
		OrderID: order.ID,
		Method:  models.PaymentMethodCard,
	})
	assert.ErrorIs(t, err, ErrNotOrderParty)
}

func TestCreatePaymentRejectsUnknownMethod(t *testing.T) {
	svc, _, _, _ := newPaymentServiceForTest()

	_, err := svc.Create(context.Background(), 1, &CreatePaymentInput{
		OrderID: 1,
		Method:  "cowries",
	})
	assert.ErrorIs(t, err, ErrInvalidPaymentMethod)
}

func TestWebhookCompletesPayment(t *testing.T) {
	svc, paymentRepo, orderRepo, cropRepo := newPaymentServiceForTest()
	order := seedOrderWithCrop(t, orderRepo, cropRepo)

	checkout, err := svc.Create(context.Background(), 1, &CreatePaymentInput{
		OrderID: order.ID,
		Method:  models.PaymentMethodMTNMomo,
	})
	require.NoError(t, err)

	result, err := svc.HandleWebhook(context.Background(), &WebhookInput{
		ReferenceID: checkout.Payment.ReferenceID,
		Status:      "success",
		Raw:         map[string]interface{}{"provider_txn": "MP123"},
	})
	require.NoError(t, err)

	assert.Equal(t, models.PaymentStatusCompleted, result.Status)
	assert.NotNil(t, result.CompletedAt)

	// Order flips to paid, session completes, webhook is logged
	updatedOrder, err := orderRepo.GetByID(context.Background(), order.ID)
	require.NoError(t, err)
	assert.Equal(t, models.OrderStatusPaid, updatedOrder.Status)

	session, err := paymentRepo.GetSessionByPaymentID(context.Background(), checkout.Payment.ID)
	require.NoError(t, err)
	assert.Equal(t, models.SessionStatusCompleted, session.Status)

	assert.Len(t, paymentRepo.webhooks, 1)
}

func TestWebhookStatusMapping(t *testing.T) {
	tests := []struct {
		provider string
		want     string
	}{
		{"success", models.PaymentStatusCompleted},
		{"completed", models.PaymentStatusCompleted},
		{"failed", models.PaymentStatusFailed},
		{"error", models.PaymentStatusFailed},
		{"cancelled", models.PaymentStatusCancelled},
	}

	for _, tt := range tests {
		t.Run(tt.provider, func(t *testing.T) {
			svc, _, orderRepo, cropRepo := newPaymentServiceForTest()
			order := seedOrderWithCrop(t, orderRepo, cropRepo)

			checkout, err := svc.Create(context.Background(), 1, &CreatePaymentInput{
				OrderID: order.ID,
				Method:  models.PaymentMethodCard,
			})
			require.NoError(t, err)

			result, err := svc.HandleWebhook(context.Background(), &WebhookInput{
				ReferenceID: checkout.Payment.ReferenceID,
				Status:      tt.provider,
			})
			require.NoError(t, err)
			assert.Equal(t, tt.want, result.Status)
		})
	}
}

func TestGetStatusPartyCheck(t *testing.T) {
	svc, _, orderRepo, cropRepo := newPaymentServiceForTest()
	order := seedOrderWithCrop(t, orderRepo, cropRepo)

	checkout, err := svc.Create(context.Background(), 1, &CreatePaymentInput{
		OrderID: order.ID,
		Method:  models.PaymentMethodMTNMomo,
	})
	require.NoError(t, err)

	// Buyer, farmer, and admin may view
	result, err := svc.GetStatus(context.Background(), checkout.Payment.ID, 1, models.RoleBuyer)
	require.NoError(t, err)
	assert.Equal(t, checkout.Payment.ReferenceID, result.ReferenceID)

	_, err = svc.GetStatus(context.Background(), checkout.Payment.ID, 2, models.RoleFarmer)
	assert.NoError(t, err)

	_, err = svc.GetStatus(context.Background(), checkout.Payment.ID, 99, models.RoleAdmin)
	assert.NoError(t, err)

	// Strangers may not
	_, err = svc.GetStatus(context.Background(), checkout.Payment.ID, 42, models.RoleBuyer)
	assert.ErrorIs(t, err, ErrNotPaymentParty)

	_, err = svc.GetStatus(context.Background(), 999, 1, models.RoleBuyer)
	assert.ErrorIs(t, err, ErrPaymentNotFound)
}

func TestWebhookFailureClosesSession(t *testing.T) {
	for _, provider := range []string{"failed", "cancelled"} {
		t.Run(provider, func(t *testing.T) {
			svc, paymentRepo, orderRepo, cropRepo := newPaymentServiceForTest()
			order := seedOrderWithCrop(t, orderRepo, cropRepo)

			checkout, err := svc.Create(context.Background(), 1, &CreatePaymentInput{
				OrderID: order.ID,
				Method:  models.PaymentMethodCard,
			})
			require.NoError(t, err)

			_, err = svc.HandleWebhook(context.Background(), &WebhookInput{
				ReferenceID: checkout.Payment.ReferenceID,
				Status:      provider,
			})
			require.NoError(t, err)

			// The checkout session is closed, not left for the expiry cron
			session, err := paymentRepo.GetSessionByPaymentID(context.Background(), checkout.Payment.ID)
			require.NoError(t, err)
			assert.Equal(t, models.SessionStatusCancelled, session.Status)
		})
	}
}

func TestWebhookUnknownStatusLeavesPaymentUntouched(t *testing.T) {
	svc, _, orderRepo, cropRepo := newPaymentServiceForTest()
	order := seedOrderWithCrop(t, orderRepo, cropRepo)

	checkout, err := svc.Create(context.Background(), 1, &CreatePaymentInput{
		OrderID: order.ID,
		Method:  models.PaymentMethodCard,
	})
	require.NoError(t, err)

	result, err := svc.HandleWebhook(context.Background(), &WebhookInput{
		ReferenceID: checkout.Payment.ReferenceID,
		Status:      "on_hold",
	})
	require.NoError(t, err)
	assert.Equal(t, models.PaymentStatusPending, result.Status)
}

func TestWebhookReplayDoesNotReopenTerminalPayment(t *testing.T) {
	svc, paymentRepo, orderRepo, cropRepo := newPaymentServiceForTest()
	order := seedOrderWithCrop(t, orderRepo, cropRepo)

	checkout, err := svc.Create(context.Background(), 1, &CreatePaymentInput{
		OrderID: order.ID,
		Method:  models.PaymentMethodMTNMomo,
	})
	require.NoError(t, err)

	_, err = svc.HandleWebhook(context.Background(), &WebhookInput{
		ReferenceID: checkout.Payment.ReferenceID,
		Status:      "success",
	})
	require.NoError(t, err)

	// A late "failed" replay must not reopen the completed payment
	result, err := svc.HandleWebhook(context.Background(), &WebhookInput{
		ReferenceID: checkout.Payment.ReferenceID,
		Status:      "failed",
		Raw:         map[string]interface{}{"late": true},
	})
	require.NoError(t, err)
	assert.Equal(t, models.PaymentStatusCompleted, result.Status)

	// But provider_response still absorbed the payload
	payment, err := paymentRepo.GetByID(context.Background(), checkout.Payment.ID)
	require.NoError(t, err)
	assert.Contains(t, payment.ProviderResponse, "late")
}

func TestSimulateSuccess(t *testing.T) {
	svc, _, orderRepo, cropRepo := newPaymentServiceForTest()
	order := seedOrderWithCrop(t, orderRepo, cropRepo)

	checkout, err := svc.Create(context.Background(), 1, &CreatePaymentInput{
		OrderID: order.ID,
		Method:  models.PaymentMethodVodafoneCash,
	})
	require.NoError(t, err)

	result, err := svc.Simulate(context.Background(), checkout.Payment.ID, "")
	require.NoError(t, err)

	assert.Equal(t, models.PaymentStatusCompleted, result.Status)
	assert.NotNil(t, result.CompletedAt)
}

func TestCancelPayment(t *testing.T) {
	svc, _, orderRepo, cropRepo := newPaymentServiceForTest()
	order := seedOrderWithCrop(t, orderRepo, cropRepo)

	checkout, err := svc.Create(context.Background(), 1, &CreatePaymentInput{
		OrderID: order.ID,
		Method:  models.PaymentMethodCard,
	})
	require.NoError(t, err)

	// Someone else's cancel is rejected
	_, err = svc.Cancel(context.Background(), checkout.Payment.ID, 99)
	assert.ErrorIs(t, err, ErrNotPaymentParty)

	// Buyer cancels a pending payment
	result, err := svc.Cancel(context.Background(), checkout.Payment.ID, 1)
	require.NoError(t, err)
	assert.Equal(t, models.PaymentStatusCancelled, result.Status)

	// Cancelling again is rejected, it is already terminal
	_, err = svc.Cancel(context.Background(), checkout.Payment.ID, 1)
	assert.ErrorIs(t, err, ErrPaymentNotCancelable)
}

func TestExpireStaleSessions(t *testing.T) {
	svc, paymentRepo, orderRepo, cropRepo := newPaymentServiceForTest()
	order := seedOrderWithCrop(t, orderRepo, cropRepo)

	checkout, err := svc.Create(context.Background(), 1, &CreatePaymentInput{
		OrderID: order.ID,
		Method:  models.PaymentMethodCard,
	})
	require.NoError(t, err)

	// Push the session past its deadline
	session, err := paymentRepo.GetSessionByPaymentID(context.Background(), checkout.Payment.ID)
	require.NoError(t, err)
	session.ExpiresAt = time.Now().Add(-time.Minute)

	expired, err := svc.ExpireStaleSessions(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(1), expired)
	assert.Equal(t, models.SessionStatusExpired, session.Status)
}
