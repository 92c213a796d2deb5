package models

import "time"

// Tier is a named subscription duration bucket.
type Tier string

const (
	TierMonthly    Tier = "monthly"
	TierQuarterly  Tier = "quarterly"
	TierSemiannual Tier = "semiannual"
	TierAnnual     Tier = "annual"
)

// MonthsForTier returns the premium validity window a tier buys.
func MonthsForTier(tier Tier) int {
	switch tier {
	case TierQuarterly:
		return 3
	case TierSemiannual:
		return 6
	case TierAnnual:
		return 12
	default:
		return 1
	}
}

const (
	PremiumReasonSubscription = "direct_subscription"
	PremiumReasonTutoring     = "tutoring_package"
	PremiumReasonAdmin        = "admin_granted"
)

// PremiumStatus is the derived answer to "does this user have premium right
// now, and why".
type PremiumStatus struct {
	IsPremium  bool       `json:"is_premium"`
	Reason     string     `json:"reason,omitempty"`
	ValidUntil *time.Time `json:"valid_until,omitempty"`
}

// GrantPremiumRequest is the back-office manual premium grant.
type GrantPremiumRequest struct {
	UserID uint   `json:"user_id" validate:"required"`
	Tier   string `json:"tier" validate:"required,premium_tier"`
}
