package services

import (
	"context"
	"testing"

	"agrofresh-gh/internal/adapters/persistence/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSettingRepo struct {
	settings map[string]string
}

func newFakeSettingRepo() *fakeSettingRepo {
	return &fakeSettingRepo{settings: map[string]string{}}
}

func (r *fakeSettingRepo) GetAll(ctx context.Context) ([]*models.PlatformSetting, error) {
	var out []*models.PlatformSetting
	for key, value := range r.settings {
		out = append(out, &models.PlatformSetting{Key: key, Value: value})
	}
	return out, nil
}

func (r *fakeSettingRepo) Upsert(ctx context.Context, key, value string) error {
	r.settings[key] = value
	return nil
}

func TestGetFarmerPayouts(t *testing.T) {
	paymentRepo := newFakePaymentRepo()
	settingRepo := newFakeSettingRepo()
	settingRepo.settings["commission_rate"] = "10"
	svc := NewPayoutService(paymentRepo, settingRepo)

	payments := []*models.Payment{
		{FarmerID: 2, BuyerID: 1, Amount: 100, Status: models.PaymentStatusCompleted, ReferenceID: "AGRO-1-aa"},
		{FarmerID: 2, BuyerID: 4, Amount: 50, Status: models.PaymentStatusCompleted, ReferenceID: "AGRO-2-bb"},
		{FarmerID: 2, BuyerID: 1, Amount: 30, Status: models.PaymentStatusProcessing, ReferenceID: "AGRO-3-cc"},
		{FarmerID: 2, BuyerID: 1, Amount: 20, Status: models.PaymentStatusFailed, ReferenceID: "AGRO-4-dd"},
		{FarmerID: 9, BuyerID: 1, Amount: 999, Status: models.PaymentStatusCompleted, ReferenceID: "AGRO-5-ee"},
	}
	for _, p := range payments {
		require.NoError(t, paymentRepo.Create(context.Background(), p))
	}

	summary, err := svc.GetFarmerPayouts(context.Background(), 2)
	require.NoError(t, err)

	assert.InDelta(t, 10.0, summary.CommissionRate, 0.001)
	require.Len(t, summary.Lines, 2)
	assert.InDelta(t, 150.0, summary.TotalGross, 0.001)
	assert.InDelta(t, 135.0, summary.TotalNet, 0.001)

	// Payments still in flight are reported separately; failed ones are not
	assert.InDelta(t, 30.0, summary.TotalPending, 0.001)
}

func TestGetFarmerPayoutsDefaultsCommission(t *testing.T) {
	paymentRepo := newFakePaymentRepo()
	svc := NewPayoutService(paymentRepo, newFakeSettingRepo())

	require.NoError(t, paymentRepo.Create(context.Background(), &models.Payment{
		FarmerID: 2, BuyerID: 1, Amount: 200, Status: models.PaymentStatusCompleted, ReferenceID: "AGRO-6-ff",
	}))

	summary, err := svc.GetFarmerPayouts(context.Background(), 2)
	require.NoError(t, err)

	assert.InDelta(t, defaultCommissionRate, summary.CommissionRate, 0.001)
	assert.InDelta(t, 190.0, summary.TotalNet, 0.001)
	assert.InDelta(t, 0.0, summary.TotalPending, 0.001)
}
