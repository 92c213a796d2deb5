package models

import "time"

// SessionCredit is the per-user running balance of purchasable tutoring hours.
// Hours must always equal TotalPurchased - TotalUsed.
type SessionCredit struct {
	ID             uint      `json:"id" gorm:"primaryKey"`
	UserID         uint      `json:"user_id" gorm:"uniqueIndex;not null"`
	Hours          float64   `json:"hours" gorm:"not null;default:0"`
	TotalPurchased float64   `json:"total_purchased" gorm:"not null;default:0"`
	TotalUsed      float64   `json:"total_used" gorm:"not null;default:0"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

const (
	TransactionPurchase = "PURCHASE"
	TransactionUse      = "USE"
	TransactionRefund   = "REFUND"
)

// HourTransaction is an append-only audit row. One row per ledger mutation,
// with BalanceAfter == BalanceBefore + Hours.
type HourTransaction struct {
	ID              uint      `json:"id" gorm:"primaryKey"`
	Type            string    `json:"type" gorm:"not null"`
	Hours           float64   `json:"hours" gorm:"not null"`
	BalanceBefore   float64   `json:"balance_before" gorm:"not null"`
	BalanceAfter    float64   `json:"balance_after" gorm:"not null"`
	Description     string    `json:"description"`
	StripePaymentID string    `json:"stripe_payment_id"`
	SessionRef      string    `json:"session_ref"`
	UserID          uint      `json:"user_id" gorm:"index;not null"`
	CreditID        uint      `json:"credit_id" gorm:"not null"`
	CreatedAt       time.Time `json:"created_at"`
}

type UseHoursRequest struct {
	Hours       float64 `json:"hours" validate:"required,gt=0"`
	Description string  `json:"description"`
	SessionRef  string  `json:"session_ref"`
}

type AdjustHoursRequest struct {
	UserID      uint    `json:"user_id" validate:"required"`
	Hours       float64 `json:"hours" validate:"required,gt=0"`
	Description string  `json:"description"`
}
