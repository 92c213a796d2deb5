package models

import (
	"time"
)

type User struct {
	ID                uint       `json:"id" gorm:"primaryKey"`
	FullName          string     `json:"full_name" gorm:"not null"`
	Email             string     `json:"email" gorm:"unique;not null"`
	Role              string     `json:"role" gorm:"not null;default:'parent'"`
	IsAdmin           bool       `json:"is_admin" gorm:"not null;default:false"`
	IsPremium         bool       `json:"is_premium" gorm:"not null;default:false"`
	PremiumSince      *time.Time `json:"premium_since"`
	PremiumValidUntil *time.Time `json:"premium_valid_until"`
	StripeCustomerID  string     `json:"stripe_customer_id" gorm:"index"`
	CreatedAt         time.Time  `json:"created_at"`
	UpdatedAt         time.Time  `json:"updated_at"`
}
