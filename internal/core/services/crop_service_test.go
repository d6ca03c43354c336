package services

import (
	"context"
	"testing"
	"time"

	"agrofresh-gh/internal/adapters/persistence/models"
	"agrofresh-gh/internal/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newCropServiceForTest() (*CropService, *fakeCropRepo) {
	repo := newFakeCropRepo()
	return NewCropService(repo, &config.Config{}), repo
}

func TestCreateCrop(t *testing.T) {
	svc, _ := newCropServiceForTest()

	crop, err := svc.Create(context.Background(), nil, 7, &CreateCropInput{
		Name:       "Plantain",
		Price:      8.00,
		Quantity:   50,
		ExpiryDate: "2026-09-15",
	}, nil)
	require.NoError(t, err)

	assert.Equal(t, uint(7), crop.FarmerID)
	assert.Equal(t, "kg", crop.Unit)
	assert.True(t, crop.Available)
	require.NotNil(t, crop.ExpiryDate)
	assert.Equal(t, "2026-09-15", crop.ExpiryDate.Format("2006-01-02"))
}

func TestCreateCropRejectsBadDate(t *testing.T) {
	svc, _ := newCropServiceForTest()

	_, err := svc.Create(context.Background(), nil, 7, &CreateCropInput{
		Name:       "Plantain",
		Price:      8.00,
		Quantity:   50,
		ExpiryDate: "15/09/2026",
	}, nil)
	assert.Error(t, err)
}

func TestListPurgesStaleListings(t *testing.T) {
	svc, repo := newCropServiceForTest()

	fresh := &models.Crop{FarmerID: 1, Name: "Okra", Price: 5, Quantity: 10, CreatedAt: time.Now().Add(-time.Hour)}
	stale := &models.Crop{FarmerID: 1, Name: "Old Cassava", Price: 3, Quantity: 20, CreatedAt: time.Now().Add(-8 * 24 * time.Hour)}
	require.NoError(t, repo.Create(context.Background(), fresh))
	require.NoError(t, repo.Create(context.Background(), stale))

	crops, _, err := svc.List(context.Background(), nil, testPaginationParams())
	require.NoError(t, err)

	require.Len(t, crops, 1)
	assert.Equal(t, "Okra", crops[0].Name)

	_, err = repo.GetByID(context.Background(), stale.ID)
	assert.Error(t, err)
}

func TestUpdateCropOwnership(t *testing.T) {
	svc, repo := newCropServiceForTest()

	crop := &models.Crop{FarmerID: 1, Name: "Yam", Price: 10, Quantity: 30}
	require.NoError(t, repo.Create(context.Background(), crop))

	newPrice := 12.0

	// Another farmer may not edit it
	_, err := svc.Update(context.Background(), nil, crop.ID, 2, models.RoleFarmer, &UpdateCropInput{Price: &newPrice}, nil)
	assert.ErrorIs(t, err, ErrNotCropOwner)

	// The owner may
	updated, err := svc.Update(context.Background(), nil, crop.ID, 1, models.RoleFarmer, &UpdateCropInput{Price: &newPrice}, nil)
	require.NoError(t, err)
	assert.Equal(t, 12.0, updated.Price)

	// And so may an admin
	available := false
	updated, err = svc.Update(context.Background(), nil, crop.ID, 99, models.RoleAdmin, &UpdateCropInput{Available: &available}, nil)
	require.NoError(t, err)
	assert.False(t, updated.Available)
}

func TestDeleteCropOwnership(t *testing.T) {
	svc, repo := newCropServiceForTest()

	crop := &models.Crop{FarmerID: 1, Name: "Maize", Price: 4, Quantity: 200}
	require.NoError(t, repo.Create(context.Background(), crop))

	err := svc.Delete(context.Background(), crop.ID, 2, models.RoleFarmer)
	assert.ErrorIs(t, err, ErrNotCropOwner)

	err = svc.Delete(context.Background(), crop.ID, 1, models.RoleFarmer)
	require.NoError(t, err)

	err = svc.Delete(context.Background(), crop.ID, 1, models.RoleFarmer)
	assert.ErrorIs(t, err, ErrCropNotFound)
}
