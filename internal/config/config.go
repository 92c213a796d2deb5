package config

import (
	"encoding/json"
	"log"
	"os"

	"github.com/brightpath/tutoring-backend/internal/models"
)

type StripeConfig struct {
	SecretKey     string
	WebhookSecret string
}

type R2Config struct {
	AccountID       string
	AccessKeyID     string
	SecretAccessKey string
	Bucket          string
}

// PriceTable maps provider price IDs to purchase intent. It is configuration
// data: the classifier receives it at construction and never mutates it.
type PriceTable struct {
	Hours map[string]float64     `json:"hours"`
	Tiers map[string]models.Tier `json:"tiers"`
}

type Config struct {
	Environment    string
	DatabaseURL    string
	Stripe         StripeConfig
	R2             R2Config
	AdminTokenHash string
	Prices         PriceTable
}

func LoadConfig() *Config {
	cfg := &Config{
		Environment: os.Getenv("APP_ENV"),
		DatabaseURL: os.Getenv("DATABASE_URL"),
		Stripe: StripeConfig{
			SecretKey:     os.Getenv("STRIPE_SECRET_KEY"),
			WebhookSecret: os.Getenv("STRIPE_WEBHOOK_SECRET"),
		},
		AdminTokenHash: os.Getenv("ADMIN_TOKEN_HASH"),
		Prices:         defaultPriceTable(),
	}
	if cfg.Environment == "" {
		cfg.Environment = "development"
	}

	cfg.R2.AccountID = os.Getenv("R2_ACCOUNT_ID")
	cfg.R2.AccessKeyID = os.Getenv("R2_ACCESS_KEY_ID")
	cfg.R2.SecretAccessKey = os.Getenv("R2_SECRET_ACCESS_KEY")
	cfg.R2.Bucket = os.Getenv("R2_BUCKET")

	// Optional overrides so environments can swap the price catalog without
	// a rebuild.
	if raw := os.Getenv("PRICE_HOURS_TABLE"); raw != "" {
		var hours map[string]float64
		if err := json.Unmarshal([]byte(raw), &hours); err != nil {
			log.Fatalf("invalid PRICE_HOURS_TABLE: %v", err)
		}
		cfg.Prices.Hours = hours
	}
	if raw := os.Getenv("PREMIUM_PRICE_TABLE"); raw != "" {
		var tiers map[string]models.Tier
		if err := json.Unmarshal([]byte(raw), &tiers); err != nil {
			log.Fatalf("invalid PREMIUM_PRICE_TABLE: %v", err)
		}
		cfg.Prices.Tiers = tiers
	}

	return cfg
}

func defaultPriceTable() PriceTable {
	return PriceTable{
		Hours: map[string]float64{
			"price_5_hours":  5,
			"price_10_hours": 10,
			"price_20_hours": 20,
			"price_40_hours": 40,
		},
		Tiers: map[string]models.Tier{
			"price_premium_monthly":    models.TierMonthly,
			"price_premium_quarterly":  models.TierQuarterly,
			"price_premium_semiannual": models.TierSemiannual,
			"price_premium_annual":     models.TierAnnual,
		},
	}
}
