package services

import (
	"context"
	"log"
	"time"

	"agrofresh-gh/internal/adapters/persistence/repositories"
	"agrofresh-gh/internal/config"

	"github.com/robfig/cron/v3"
	"gorm.io/gorm"
)

// CancelledOrderRetention is how long cancelled orders are kept before the
// nightly sweep removes them.
const CancelledOrderRetention = 90 * 24 * time.Hour

// OrderRetention is how long any order is kept before the nightly sweep
// removes it, settled or not.
const OrderRetention = 90 * 24 * time.Hour

// CronService runs the scheduled maintenance jobs: crop purge, session
// expiry, token and order cleanup.
type CronService struct {
	cron             *cron.Cron
	cropService      *CropService
	paymentService   *PaymentService
	orderService     *OrderService
	refreshTokenRepo repositories.RefreshTokenRepository
}

// NewCronService creates a new cron service with its own repository wiring
func NewCronService(db *gorm.DB, cfg *config.Config) *CronService {
	cropRepo := repositories.NewCropRepository(db)
	orderRepo := repositories.NewOrderRepository(db)
	paymentRepo := repositories.NewPaymentRepository(db)

	deliveryService := NewDeliveryService(orderRepo, cfg)

	return &CronService{
		cron:             cron.New(),
		cropService:      NewCropService(cropRepo, cfg),
		paymentService:   NewPaymentService(paymentRepo, orderRepo, cropRepo),
		orderService:     NewOrderService(orderRepo, cropRepo, paymentRepo, deliveryService),
		refreshTokenRepo: repositories.NewRefreshTokenRepository(db),
	}
}

// Start registers and starts the scheduled jobs
func (s *CronService) Start() {
	// Purge stale crop listings nightly at 02:00
	s.cron.AddFunc("0 2 * * *", s.purgeStaleCrops)

	// Remove old cancelled orders and stale orders nightly at 02:30
	s.cron.AddFunc("30 2 * * *", s.cleanupOldOrders)

	// Remove expired refresh tokens nightly at 03:00
	s.cron.AddFunc("0 3 * * *", s.cleanupExpiredTokens)

	// Expire stale payment sessions every 10 minutes
	s.cron.AddFunc("*/10 * * * *", s.expirePaymentSessions)

	s.cron.Start()
	log.Println("⏰ Cron jobs scheduled")
}

// Stop stops the scheduler and waits for running jobs
func (s *CronService) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	log.Println("⏰ Cron jobs stopped")
}

func (s *CronService) purgeStaleCrops() {
	ctx, cancel := jobContext()
	defer cancel()

	if _, err := s.cropService.PurgeStale(ctx); err != nil {
		log.Printf("⚠️ Crop purge job failed: %v", err)
	}
}

func (s *CronService) cleanupOldOrders() {
	ctx, cancel := jobContext()
	defer cancel()

	cancelled, err := s.orderService.CleanupCancelled(ctx, CancelledOrderRetention)
	if err != nil {
		log.Printf("⚠️ Cancelled order cleanup failed: %v", err)
	} else if cancelled > 0 {
		log.Printf("🧹 Removed %d old cancelled orders", cancelled)
	}

	stale, err := s.orderService.CleanupOld(ctx, OrderRetention)
	if err != nil {
		log.Printf("⚠️ Stale order cleanup failed: %v", err)
	} else if stale > 0 {
		log.Printf("🧹 Removed %d stale orders", stale)
	}
}

func (s *CronService) cleanupExpiredTokens() {
	ctx, cancel := jobContext()
	defer cancel()

	if err := s.refreshTokenRepo.DeleteExpired(ctx); err != nil {
		log.Printf("⚠️ Refresh token cleanup failed: %v", err)
	}
}

func (s *CronService) expirePaymentSessions() {
	ctx, cancel := jobContext()
	defer cancel()

	expired, err := s.paymentService.ExpireStaleSessions(ctx)
	if err != nil {
		log.Printf("⚠️ Session expiry job failed: %v", err)
		return
	}
	if expired > 0 {
		log.Printf("🧹 Expired %d stale payment sessions", expired)
	}
}

func jobContext() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), 2*time.Minute)
}
