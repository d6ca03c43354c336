package repositories

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// newMockDB opens a gorm connection backed by sqlmock, mirroring the
// production connection settings.
func newMockDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	t.Helper()

	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { sqlDB.Close() })

	db, err := gorm.Open(mysql.New(mysql.Config{
		Conn:                      sqlDB,
		SkipInitializeWithVersion: true,
	}), &gorm.Config{
		SkipDefaultTransaction: true,
		Logger:                 logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	return db, mock
}

func TestCropRepositoryGetByIDNotFound(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewCropRepository(db)

	mock.ExpectQuery("SELECT \\* FROM `crops`").
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	_, err := repo.GetByID(context.Background(), 42)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCropRepositoryDeleteOlderThan(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewCropRepository(db)

	mock.ExpectExec("DELETE FROM `crops`").
		WillReturnResult(sqlmock.NewResult(0, 3))

	removed, err := repo.DeleteOlderThan(context.Background(), time.Now().Add(-7*24*time.Hour))
	require.NoError(t, err)
	assert.Equal(t, int64(3), removed)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepositoryExistsByEmailAndRole(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewUserRepository(db)

	mock.ExpectQuery("SELECT count\\(\\*\\) FROM `users`").
		WithArgs("ama@example.com", "farmer").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

	exists, err := repo.ExistsByEmailAndRole(context.Background(), "ama@example.com", "farmer")
	require.NoError(t, err)
	assert.True(t, exists)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSettingRepositoryGetAll(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewSettingRepository(db)

	rows := sqlmock.NewRows([]string{"id", "key", "value"}).
		AddRow(1, "commission_rate", "5").
		AddRow(2, "currency", "GHS")

	mock.ExpectQuery("SELECT \\* FROM `platform_settings`").
		WillReturnRows(rows)

	settings, err := repo.GetAll(context.Background())
	require.NoError(t, err)
	require.Len(t, settings, 2)
	assert.Equal(t, "commission_rate", settings[0].Key)
	assert.Equal(t, "GHS", settings[1].Value)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSettingRepositoryUpsertInserts(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewSettingRepository(db)

	// No existing row, so Upsert inserts
	mock.ExpectQuery("SELECT \\* FROM `platform_settings`").
		WillReturnRows(sqlmock.NewRows([]string{"id"}))
	mock.ExpectExec("INSERT INTO `platform_settings`").
		WillReturnResult(sqlmock.NewResult(1, 1))

	err := repo.Upsert(context.Background(), "delivery_base_fee", "15")
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPaymentRepositoryExpireStaleSessions(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewPaymentRepository(db)

	mock.ExpectExec("UPDATE `payment_sessions`").
		WillReturnResult(sqlmock.NewResult(0, 2))

	expired, err := repo.ExpireStaleSessions(context.Background(), time.Now())
	require.NoError(t, err)
	assert.Equal(t, int64(2), expired)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestOrderRepositoryDeleteCancelledBefore(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewOrderRepository(db)

	mock.ExpectExec("DELETE FROM `orders`").
		WillReturnResult(sqlmock.NewResult(0, 1))

	removed, err := repo.DeleteCancelledBefore(context.Background(), time.Now().Add(-90*24*time.Hour))
	require.NoError(t, err)
	assert.Equal(t, int64(1), removed)
	assert.NoError(t, mock.ExpectationsWereMet())
}
