package models

import (
	"encoding/json"
	"time"

	"gorm.io/gorm"
)

// ============================================================
// Roles & Statuses
// ============================================================

// User roles. "vendor" is accepted on the wire for backwards compatibility
// and normalized to RoleAdmin before it ever reaches the database.
const (
	RoleFarmer = "farmer"
	RoleBuyer  = "buyer"
	RoleAdmin  = "admin"
)

// User account statuses
const (
	UserStatusActive   = "Active"
	UserStatusInactive = "Inactive"
)

// Order statuses
const (
	OrderStatusPending   = "pending"
	OrderStatusConfirmed = "confirmed"
	OrderStatusPreparing = "preparing"
	OrderStatusReady     = "ready"
	OrderStatusShipped   = "shipped"
	OrderStatusDelivered = "delivered"
	OrderStatusCompleted = "completed"
	OrderStatusPaid      = "paid"
	OrderStatusCancelled = "cancelled"
)

// Payment statuses
const (
	PaymentStatusPending    = "pending"
	PaymentStatusProcessing = "processing"
	PaymentStatusCompleted  = "completed"
	PaymentStatusFailed     = "failed"
	PaymentStatusCancelled  = "cancelled"
	PaymentStatusRefunded   = "refunded"
)

// Payment methods
const (
	PaymentMethodMTNMomo      = "mtn_momo"
	PaymentMethodVodafoneCash = "vodafone_cash"
	PaymentMethodAirtelTigo   = "airteltigo_money"
	PaymentMethodCard         = "card"
	PaymentMethodBankTransfer = "bank_transfer"
)

// Payment session statuses
const (
	SessionStatusPending   = "pending"
	SessionStatusCompleted = "completed"
	SessionStatusCancelled = "cancelled"
	SessionStatusExpired   = "expired"
)

// ============================================================
// Users & Auth Tables
// ============================================================

// User represents users table. The same email may register once per role,
// hence the composite unique index on (email, role).
type User struct {
	ID                uint       `gorm:"primaryKey" json:"id"`
	Name              string     `gorm:"size:100;not null" json:"name"`
	Email             string     `gorm:"size:100;not null;uniqueIndex:idx_users_email_role" json:"email"`
	Role              string     `gorm:"size:20;not null;uniqueIndex:idx_users_email_role" json:"role"`
	Password          string     `gorm:"size:255;not null" json:"-"`
	Location          string     `gorm:"size:100" json:"location"`
	Phone             string     `gorm:"size:20" json:"phone"`
	Bio               string     `gorm:"type:text" json:"bio"`
	Avatar            string     `gorm:"size:255" json:"avatar"`
	PendingEmail      string     `gorm:"size:100" json:"-"`
	VerificationToken string     `gorm:"size:64;index" json:"-"`
	Status            string     `gorm:"size:20;default:'Active'" json:"status"`
	LastLogin         *time.Time `json:"last_login"`
	CreatedAt         time.Time  `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt         time.Time  `gorm:"autoUpdateTime" json:"updated_at"`
}

func (User) TableName() string {
	return "users"
}

// UserResponse DTO
type UserResponse struct {
	ID               uint       `json:"id"`
	Name             string     `json:"name"`
	Email            string     `json:"email"`
	Role             string     `json:"role"`
	Location         string     `json:"location"`
	Phone            string     `json:"phone"`
	Bio              string     `json:"bio"`
	Avatar           string     `json:"avatar"`
	Status           string     `json:"status"`
	EmailUnverified  bool       `json:"email_unverified,omitempty"`
	LastLogin        *time.Time `json:"last_login"`
	CreatedAt        time.Time  `json:"created_at"`
}

func (u *User) ToResponse() *UserResponse {
	return &UserResponse{
		ID:              u.ID,
		Name:            u.Name,
		Email:           u.Email,
		Role:            u.Role,
		Location:        u.Location,
		Phone:           u.Phone,
		Bio:             u.Bio,
		Avatar:          u.Avatar,
		Status:          u.Status,
		EmailUnverified: u.PendingEmail != "",
		LastLogin:       u.LastLogin,
		CreatedAt:       u.CreatedAt,
	}
}

// RefreshToken represents refresh_tokens table
type RefreshToken struct {
	ID        uint       `gorm:"primaryKey" json:"id"`
	UserID    uint       `gorm:"index;not null" json:"user_id"`
	TokenHash string     `gorm:"size:255;not null;index" json:"-"`
	ExpiresAt time.Time  `gorm:"not null" json:"expires_at"`
	CreatedAt time.Time  `gorm:"autoCreateTime" json:"created_at"`
	RevokedAt *time.Time `gorm:"index" json:"revoked_at"`
	User      User       `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`
}

func (RefreshToken) TableName() string {
	return "refresh_tokens"
}

func (rt *RefreshToken) IsRevoked() bool {
	return rt.RevokedAt != nil
}

func (rt *RefreshToken) IsExpired() bool {
	return time.Now().After(rt.ExpiresAt)
}

// ============================================================
// Marketplace Tables
// ============================================================

// Crop represents crops table. Each crop belongs to exactly one farmer and is
// removed when that farmer's account is deleted.
type Crop struct {
	ID          uint       `gorm:"primaryKey" json:"id"`
	FarmerID    uint       `gorm:"not null;index" json:"farmer_id"`
	Name        string     `gorm:"size:100;not null" json:"name"`
	Description string     `gorm:"type:text" json:"description"`
	Price       float64    `gorm:"type:decimal(10,2);not null" json:"price"`
	Quantity    int        `gorm:"not null" json:"quantity"`
	Unit        string     `gorm:"size:20;default:'kg'" json:"unit"`
	ExpiryDate  *time.Time `gorm:"type:date" json:"expiry_date"`
	Available   bool       `gorm:"default:true" json:"available"`
	Image       string     `gorm:"size:255" json:"image"`
	CreatedAt   time.Time  `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt   time.Time  `gorm:"autoUpdateTime" json:"updated_at"`

	// Relations
	Farmer *User `gorm:"foreignKey:FarmerID;constraint:OnDelete:CASCADE" json:"farmer,omitempty"`
}

func (Crop) TableName() string {
	return "crops"
}

// CropResponse DTO joined with the owning farmer's name and location
type CropResponse struct {
	ID             uint       `json:"id"`
	FarmerID       uint       `json:"farmer_id"`
	FarmerName     string     `json:"farmer_name,omitempty"`
	FarmerLocation string     `json:"farmer_location,omitempty"`
	Name           string     `json:"name"`
	Description    string     `json:"description"`
	Price          float64    `json:"price"`
	Quantity       int        `json:"quantity"`
	Unit           string     `json:"unit"`
	ExpiryDate     *time.Time `json:"expiry_date"`
	Available      bool       `json:"available"`
	Image          string     `json:"image"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
}

func (cr *Crop) ToResponse() *CropResponse {
	resp := &CropResponse{
		ID:          cr.ID,
		FarmerID:    cr.FarmerID,
		Name:        cr.Name,
		Description: cr.Description,
		Price:       cr.Price,
		Quantity:    cr.Quantity,
		Unit:        cr.Unit,
		ExpiryDate:  cr.ExpiryDate,
		Available:   cr.Available,
		Image:       cr.Image,
		CreatedAt:   cr.CreatedAt,
		UpdatedAt:   cr.UpdatedAt,
	}

	if cr.Farmer != nil {
		resp.FarmerName = cr.Farmer.Name
		resp.FarmerLocation = cr.Farmer.Location
	}

	return resp
}

// Order represents orders table. One order per cart line item; farmer_id is
// copied from the crop's owner at creation. CropID is nullable because crop
// listings are purged after 7 days while orders live on.
type Order struct {
	ID             uint       `gorm:"primaryKey" json:"id"`
	BuyerID        uint       `gorm:"not null;index" json:"buyer_id"`
	FarmerID       uint       `gorm:"not null;index" json:"farmer_id"`
	CropID         *uint      `gorm:"index" json:"crop_id"`
	Quantity       int        `gorm:"not null" json:"quantity"`
	DeliveryInfo   string     `gorm:"type:json" json:"-"`
	Status         string     `gorm:"size:20;not null;default:'pending'" json:"status"`
	TrackingNumber string     `gorm:"size:50;index" json:"tracking_number"`
	TrackingURL    string     `gorm:"size:255" json:"tracking_url"`
	DeliveryStatus string     `gorm:"size:50" json:"delivery_status"`
	DeliveryETA    *time.Time `json:"delivery_eta"`
	CreatedAt      time.Time  `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt      time.Time  `gorm:"autoUpdateTime" json:"updated_at"`

	// Relations
	Buyer  *User `gorm:"foreignKey:BuyerID;constraint:OnDelete:CASCADE" json:"buyer,omitempty"`
	Farmer *User `gorm:"foreignKey:FarmerID;constraint:OnDelete:CASCADE" json:"farmer,omitempty"`
	Crop   *Crop `gorm:"foreignKey:CropID;constraint:OnDelete:SET NULL" json:"crop,omitempty"`
}

func (Order) TableName() string {
	return "orders"
}

// OrderResponse DTO
type OrderResponse struct {
	ID             uint                   `json:"id"`
	BuyerID        uint                   `json:"buyer_id"`
	BuyerName      string                 `json:"buyer_name,omitempty"`
	FarmerID       uint                   `json:"farmer_id"`
	FarmerName     string                 `json:"farmer_name,omitempty"`
	CropID         *uint                  `json:"crop_id"`
	CropName       string                 `json:"crop_name,omitempty"`
	Quantity       int                    `json:"quantity"`
	DeliveryInfo   map[string]interface{} `json:"delivery_info,omitempty"`
	Status         string                 `json:"status"`
	TrackingNumber string                 `json:"tracking_number,omitempty"`
	TrackingURL    string                 `json:"tracking_url,omitempty"`
	DeliveryStatus string                 `json:"delivery_status,omitempty"`
	DeliveryETA    *time.Time             `json:"delivery_eta,omitempty"`
	CreatedAt      time.Time              `json:"created_at"`
	UpdatedAt      time.Time              `json:"updated_at"`
}

func (o *Order) ToResponse() *OrderResponse {
	resp := &OrderResponse{
		ID:             o.ID,
		BuyerID:        o.BuyerID,
		FarmerID:       o.FarmerID,
		CropID:         o.CropID,
		Quantity:       o.Quantity,
		Status:         o.Status,
		TrackingNumber: o.TrackingNumber,
		TrackingURL:    o.TrackingURL,
		DeliveryStatus: o.DeliveryStatus,
		DeliveryETA:    o.DeliveryETA,
		CreatedAt:      o.CreatedAt,
		UpdatedAt:      o.UpdatedAt,
	}

	if o.Buyer != nil {
		resp.BuyerName = o.Buyer.Name
	}
	if o.Farmer != nil {
		resp.FarmerName = o.Farmer.Name
	}
	if o.Crop != nil {
		resp.CropName = o.Crop.Name
	}

	resp.DeliveryInfo = o.DeliveryInfoMap()

	return resp
}

// DeliveryInfoMap decodes the delivery_info JSON blob. Returns nil when the
// blob is empty or malformed.
func (o *Order) DeliveryInfoMap() map[string]interface{} {
	if o.DeliveryInfo == "" {
		return nil
	}

	var info map[string]interface{}
	if err := json.Unmarshal([]byte(o.DeliveryInfo), &info); err != nil {
		return nil
	}
	return info
}

// NormalizeRole maps legacy role names onto the canonical set. The original
// frontend used "vendor" and "admin" interchangeably for the platform role.
func NormalizeRole(role string) string {
	if role == "vendor" {
		return RoleAdmin
	}
	return role
}

// IsValidRole reports whether role is one of the canonical roles
func IsValidRole(role string) bool {
	switch role {
	case RoleFarmer, RoleBuyer, RoleAdmin:
		return true
	}
	return false
}

// ============================================================
// Payment Tables
// ============================================================

// Payment represents payments table. Immutable once completed; only
// provider_response keeps absorbing webhook payloads after that.
type Payment struct {
	ID               uint       `gorm:"primaryKey" json:"id"`
	OrderID          uint       `gorm:"not null;index" json:"order_id"`
	BuyerID          uint       `gorm:"not null;index" json:"buyer_id"`
	FarmerID         uint       `gorm:"not null;index" json:"farmer_id"`
	Amount           float64    `gorm:"type:decimal(10,2);not null" json:"amount"`
	Method           string     `gorm:"size:30;not null" json:"method"`
	Status           string     `gorm:"size:20;not null;default:'pending'" json:"status"`
	ReferenceID      string     `gorm:"size:50;uniqueIndex;not null" json:"reference_id"`
	ProviderResponse string     `gorm:"type:json" json:"-"`
	CompletedAt      *time.Time `json:"completed_at"`
	CreatedAt        time.Time  `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt        time.Time  `gorm:"autoUpdateTime" json:"updated_at"`

	// Relations
	Order  *Order `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE" json:"order,omitempty"`
	Buyer  *User  `gorm:"foreignKey:BuyerID;constraint:OnDelete:CASCADE" json:"buyer,omitempty"`
	Farmer *User  `gorm:"foreignKey:FarmerID;constraint:OnDelete:CASCADE" json:"farmer,omitempty"`
}

func (Payment) TableName() string {
	return "payments"
}

// PaymentResponse DTO
type PaymentResponse struct {
	ID          uint       `json:"id"`
	OrderID     uint       `json:"order_id"`
	BuyerID     uint       `json:"buyer_id"`
	FarmerID    uint       `json:"farmer_id"`
	Amount      float64    `json:"amount"`
	Method      string     `json:"method"`
	Status      string     `json:"status"`
	ReferenceID string     `json:"reference_id"`
	CompletedAt *time.Time `json:"completed_at"`
	CreatedAt   time.Time  `json:"created_at"`
}

func (p *Payment) ToResponse() *PaymentResponse {
	return &PaymentResponse{
		ID:          p.ID,
		OrderID:     p.OrderID,
		BuyerID:     p.BuyerID,
		FarmerID:    p.FarmerID,
		Amount:      p.Amount,
		Method:      p.Method,
		Status:      p.Status,
		ReferenceID: p.ReferenceID,
		CompletedAt: p.CompletedAt,
		CreatedAt:   p.CreatedAt,
	}
}

// IsTerminal reports whether the payment reached a final state
func (p *Payment) IsTerminal() bool {
	switch p.Status {
	case PaymentStatusCompleted, PaymentStatusFailed, PaymentStatusCancelled, PaymentStatusRefunded:
		return true
	}
	return false
}

// PaymentSession represents payment_sessions table, the short-lived
// correlation record between a checkout attempt and a payment row.
type PaymentSession struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	SessionID string    `gorm:"size:64;uniqueIndex;not null" json:"session_id"`
	PaymentID uint      `gorm:"not null;index" json:"payment_id"`
	Status    string    `gorm:"size:20;not null;default:'pending'" json:"status"`
	ExpiresAt time.Time `gorm:"not null" json:"expires_at"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`

	// Relations
	Payment *Payment `gorm:"foreignKey:PaymentID;constraint:OnDelete:CASCADE" json:"payment,omitempty"`
}

func (PaymentSession) TableName() string {
	return "payment_sessions"
}

func (ps *PaymentSession) IsExpired() bool {
	return time.Now().After(ps.ExpiresAt)
}

// PaymentWebhook represents payment_webhooks table, an append-only audit log
// of raw inbound webhook payloads.
type PaymentWebhook struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	PaymentID uint      `gorm:"not null;index" json:"payment_id"`
	Payload   string    `gorm:"type:json" json:"payload"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`

	// Relations
	Payment *Payment `gorm:"foreignKey:PaymentID;constraint:OnDelete:CASCADE" json:"-"`
}

func (PaymentWebhook) TableName() string {
	return "payment_webhooks"
}

// ============================================================
// Platform Settings
// ============================================================

// PlatformSetting represents platform_settings table (admin console settings)
type PlatformSetting struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Key       string    `gorm:"size:50;uniqueIndex;not null" json:"key"`
	Value     string    `gorm:"type:text" json:"value"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func (PlatformSetting) TableName() string {
	return "platform_settings"
}

// ============================================================
// Auto Migration
// ============================================================

// AutoMigrate runs auto migration for all tables
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&User{},
		&RefreshToken{},
		&Crop{},
		&Order{},
		&Payment{},
		&PaymentSession{},
		&PaymentWebhook{},
		&PlatformSetting{},
	)
}
