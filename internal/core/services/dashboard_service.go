package services

import (
	"context"
	"sort"

	"agrofresh-gh/internal/adapters/persistence/models"

	"gorm.io/gorm"
)

// DashboardService builds the admin console overview. It queries the
// database directly because the numbers span every table.
type DashboardService struct {
	db *gorm.DB
}

// NewDashboardService creates a new dashboard service
func NewDashboardService(db *gorm.DB) *DashboardService {
	return &DashboardService{db: db}
}

// StatCard is one headline number on the admin dashboard
type StatCard struct {
	Label  string  `json:"label"`
	Value  float64 `json:"value"`
	Change string  `json:"change"`
}

// DashboardStats is the admin overview payload
type DashboardStats struct {
	TotalUsers    int64      `json:"total_users"`
	TotalFarmers  int64      `json:"total_farmers"`
	TotalBuyers   int64      `json:"total_buyers"`
	TotalCrops    int64      `json:"total_crops"`
	TotalOrders   int64      `json:"total_orders"`
	PendingOrders int64      `json:"pending_orders"`
	TotalRevenue  float64    `json:"total_revenue"`
	Cards         []StatCard `json:"cards"`
}

// ActivityItem is one row in the recent activity feed
type ActivityItem struct {
	Type      string `json:"type"`
	Message   string `json:"message"`
	Timestamp string `json:"timestamp"`
}

// GetStats returns the admin dashboard headline numbers
func (s *DashboardService) GetStats(ctx context.Context) (*DashboardStats, error) {
	stats := &DashboardStats{}
	db := s.db.WithContext(ctx)

	if err := db.Model(&models.User{}).Count(&stats.TotalUsers).Error; err != nil {
		return nil, err
	}
	if err := db.Model(&models.User{}).Where("role = ?", models.RoleFarmer).Count(&stats.TotalFarmers).Error; err != nil {
		return nil, err
	}
	if err := db.Model(&models.User{}).Where("role = ?", models.RoleBuyer).Count(&stats.TotalBuyers).Error; err != nil {
		return nil, err
	}
	if err := db.Model(&models.Crop{}).Count(&stats.TotalCrops).Error; err != nil {
		return nil, err
	}
	if err := db.Model(&models.Order{}).Count(&stats.TotalOrders).Error; err != nil {
		return nil, err
	}
	if err := db.Model(&models.Order{}).Where("status = ?", models.OrderStatusPending).Count(&stats.PendingOrders).Error; err != nil {
		return nil, err
	}

	var revenue *float64
	if err := db.Model(&models.Payment{}).
		Where("status = ?", models.PaymentStatusCompleted).
		Select("SUM(amount)").
		Scan(&revenue).Error; err != nil {
		return nil, err
	}
	if revenue != nil {
		stats.TotalRevenue = *revenue
	}

	// Trend figures are fixed placeholders until month-over-month data lands
	stats.Cards = []StatCard{
		{Label: "Total Users", Value: float64(stats.TotalUsers), Change: "+12%"},
		{Label: "Active Listings", Value: float64(stats.TotalCrops), Change: "+8%"},
		{Label: "Orders", Value: float64(stats.TotalOrders), Change: "+23%"},
		{Label: "Revenue (GHS)", Value: stats.TotalRevenue, Change: "+5%"},
	}

	return stats, nil
}

// GetRecentActivity returns the latest registrations, listings and orders as
// a merged feed for the admin console.
func (s *DashboardService) GetRecentActivity(ctx context.Context, limit int) ([]ActivityItem, error) {
	if limit <= 0 || limit > 50 {
		limit = 10
	}

	db := s.db.WithContext(ctx)
	feed := make([]ActivityItem, 0, limit*3)

	var users []models.User
	if err := db.Order("created_at DESC").Limit(limit).Find(&users).Error; err != nil {
		return nil, err
	}
	for _, u := range users {
		feed = append(feed, ActivityItem{
			Type:      "user_registered",
			Message:   u.Name + " joined as " + u.Role,
			Timestamp: u.CreatedAt.Format("2006-01-02 15:04:05"),
		})
	}

	var crops []models.Crop
	if err := db.Preload("Farmer").Order("created_at DESC").Limit(limit).Find(&crops).Error; err != nil {
		return nil, err
	}
	for _, c := range crops {
		item := ActivityItem{
			Type:      "crop_listed",
			Message:   c.Name + " listed",
			Timestamp: c.CreatedAt.Format("2006-01-02 15:04:05"),
		}
		if c.Farmer != nil {
			item.Message = c.Name + " listed by " + c.Farmer.Name
		}
		feed = append(feed, item)
	}

	var orders []models.Order
	if err := db.Preload("Buyer").Order("created_at DESC").Limit(limit).Find(&orders).Error; err != nil {
		return nil, err
	}
	for _, o := range orders {
		item := ActivityItem{
			Type:      "order_placed",
			Message:   "Order placed",
			Timestamp: o.CreatedAt.Format("2006-01-02 15:04:05"),
		}
		if o.Buyer != nil {
			item.Message = "Order placed by " + o.Buyer.Name
		}
		feed = append(feed, item)
	}

	// Newest first across all three sources
	sort.Slice(feed, func(i, j int) bool {
		return feed[i].Timestamp > feed[j].Timestamp
	})

	if len(feed) > limit {
		feed = feed[:limit]
	}
	return feed, nil
}
