package models

import "time"

const (
	PurchaseStatusPending   = "pending"
	PurchaseStatusCompleted = "completed"
	PurchaseStatusFailed    = "failed"
	PurchaseStatusRefunded  = "refunded"
)

const (
	PackageKindHours   = "hours"
	PackageKindPremium = "premium"
)

// CreditPackage is a purchasable product: either a tutoring hour bundle or a
// premium subscription plan. StripePriceID links it to the provider catalog.
type CreditPackage struct {
	ID            uint      `json:"id" gorm:"primaryKey"`
	Name          string    `json:"name" gorm:"not null"`
	Description   string    `json:"description"`
	Kind          string    `json:"kind" gorm:"not null;default:'hours'"`
	Hours         float64   `json:"hours"`
	Tier          Tier      `json:"tier"`
	Price         float64   `json:"price" gorm:"not null"`
	StripePriceID string    `json:"stripe_price_id"`
	IsActive      bool      `json:"is_active" gorm:"default:true"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// UserPurchase tracks a checkout session from creation to settlement.
type UserPurchase struct {
	ID              uint      `json:"id" gorm:"primaryKey"`
	UserID          uint      `json:"user_id" gorm:"not null"`
	PackageID       uint      `json:"package_id" gorm:"not null"`
	Hours           float64   `json:"hours"`
	Tier            Tier      `json:"tier"`
	Price           float64   `json:"price" gorm:"not null"`
	StripeSessionID string    `json:"stripe_session_id" gorm:"unique;not null"`
	Status          string    `json:"status" gorm:"not null;default:'pending'"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// PaymentRecord is an append-only record of money received. It feeds
// reporting and the refund path, never entitlement derivation.
type PaymentRecord struct {
	ID              uint      `json:"id" gorm:"primaryKey"`
	UserID          uint      `json:"user_id" gorm:"index;not null"`
	Amount          float64   `json:"amount" gorm:"not null"`
	Currency        string    `json:"currency" gorm:"not null;default:'usd'"`
	Status          string    `json:"status" gorm:"not null"`
	Description     string    `json:"description"`
	StripePaymentID string    `json:"stripe_payment_id" gorm:"index"`
	PackageHours    float64   `json:"package_hours"`
	CreatedAt       time.Time `json:"created_at"`
}

// ProcessedEvent is the idempotency barrier for webhook delivery. Stripe
// retries events, so a replayed event ID must not be applied twice.
type ProcessedEvent struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	EventID   string    `json:"event_id" gorm:"uniqueIndex;not null"`
	EventType string    `json:"event_type" gorm:"not null"`
	CreatedAt time.Time `json:"created_at"`
}

type CheckoutSession struct {
	ID  string `json:"id"`
	URL string `json:"url"`
}
