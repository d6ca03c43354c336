package services

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"agrofresh-gh/internal/adapters/persistence/models"
	"agrofresh-gh/internal/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sendstackConfig(baseURL string) *config.Config {
	return &config.Config{
		Sendstack: config.SendstackConfig{
			BaseURL:   baseURL,
			AppID:     "app-id",
			AppSecret: "app-secret",
			TrackURL:  "https://app.sendstack.africa/tracking",
		},
	}
}

func TestBookDeliveryWithProvider(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/deliveries", r.URL.Path)
		assert.Equal(t, "app-id", r.Header.Get("app_id"))
		assert.Equal(t, "app-secret", r.Header.Get("app_secret"))

		var req map[string]interface{}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "Kofi Boateng", req["dropName"])

		json.NewEncoder(w).Encode(map[string]interface{}{
			"status": true,
			"data": map[string]interface{}{
				"deliveries": []map[string]interface{}{
					{
						"trackingId":  "SND-778899",
						"trackingUrl": "https://app.sendstack.africa/tracking/SND-778899",
						"status":      "Order Placed",
					},
				},
			},
		})
	}))
	defer server.Close()

	svc := NewDeliveryService(newFakeOrderRepo(), sendstackConfig(server.URL))

	booking := svc.BookDelivery(context.Background(), &models.Order{ID: 1}, map[string]interface{}{
		"name":    "Kofi Boateng",
		"address": "14 Ring Road, Accra",
		"phone":   "+233201234567",
	})

	assert.Equal(t, "SND-778899", booking.TrackingNumber)
	assert.Equal(t, "https://app.sendstack.africa/tracking/SND-778899", booking.TrackingURL)
	assert.Equal(t, "Order Placed", booking.DeliveryStatus)
	assert.False(t, booking.Fallback)
}

func TestBookDeliveryFallsBackOnProviderError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "upstream exploded", http.StatusBadGateway)
	}))
	defer server.Close()

	svc := NewDeliveryService(newFakeOrderRepo(), sendstackConfig(server.URL))

	booking := svc.BookDelivery(context.Background(), &models.Order{ID: 1}, nil)

	assert.True(t, booking.Fallback)
	assert.True(t, strings.HasPrefix(booking.TrackingNumber, "SS"))
	assert.Equal(t, "Order Placed", booking.DeliveryStatus)
}

func TestBookDeliveryFallsBackWithoutCredentials(t *testing.T) {
	svc := NewDeliveryService(newFakeOrderRepo(), &config.Config{})

	booking := svc.BookDelivery(context.Background(), &models.Order{ID: 1}, nil)

	assert.True(t, booking.Fallback)
	assert.True(t, strings.HasPrefix(booking.TrackingNumber, "SS"))
}

func TestGetTrackingHistory(t *testing.T) {
	svc := NewDeliveryService(newFakeOrderRepo(), &config.Config{})

	info := svc.GetTracking(context.Background(), &models.Order{
		ID:             3,
		TrackingNumber: "SND-1",
		DeliveryStatus: "Dispatched",
	})

	require.Len(t, info.History, 4)
	assert.Equal(t, "Order Placed", info.History[0].Status)
	assert.True(t, info.History[0].Completed)
	assert.True(t, info.History[1].Completed)
	assert.False(t, info.History[2].Completed)
	assert.False(t, info.History[3].Completed)

	// Completed milestones carry timestamps, future ones do not
	assert.False(t, info.History[1].Timestamp.IsZero())
	assert.True(t, info.History[2].Timestamp.IsZero())
}

func TestGetTrackingDefaultsEmptyStatus(t *testing.T) {
	svc := NewDeliveryService(newFakeOrderRepo(), &config.Config{})

	info := svc.GetTracking(context.Background(), &models.Order{ID: 4})

	assert.Equal(t, "Order Placed", info.DeliveryStatus)
	assert.True(t, info.History[0].Completed)
	assert.False(t, info.History[1].Completed)
}

func TestApplySendstackWebhook(t *testing.T) {
	orderRepo := newFakeOrderRepo()
	svc := NewDeliveryService(orderRepo, &config.Config{})

	order := &models.Order{
		BuyerID:        1,
		FarmerID:       2,
		Quantity:       1,
		Status:         models.OrderStatusShipped,
		TrackingNumber: "SND-42",
		DeliveryStatus: "In Transit",
	}
	require.NoError(t, orderRepo.Create(context.Background(), order))

	eta := time.Now().Add(2 * time.Hour)
	updated, err := svc.ApplySendstackWebhook(context.Background(), "SND-42", "Delivered", &eta)
	require.NoError(t, err)

	assert.Equal(t, "Delivered", updated.DeliveryStatus)
	assert.Equal(t, models.OrderStatusDelivered, updated.Status)
	require.NotNil(t, updated.DeliveryETA)

	_, err = svc.ApplySendstackWebhook(context.Background(), "NO-SUCH", "Delivered", nil)
	assert.ErrorIs(t, err, ErrTrackingNotFound)
}
