package service

import (
	"testing"

	"github.com/brightpath/tutoring-backend/internal/config"
	"github.com/brightpath/tutoring-backend/internal/models"
	"github.com/stripe/stripe-go/v74"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

func testPriceTable() config.PriceTable {
	return config.PriceTable{
		Hours: map[string]float64{
			"price_5_hours":  5,
			"price_10_hours": 10,
			"price_20_hours": 20,
		},
		Tiers: map[string]models.Tier{
			"price_premium_monthly": models.TierMonthly,
			"price_premium_annual":  models.TierAnnual,
		},
	}
}

func TestClassifyItem(t *testing.T) {
	c := NewClassifier(testPriceTable(), zap.NewNop())

	tests := []struct {
		name        string
		priceID     string
		description string
		quantity    int64
		wantKind    ClassificationKind
		wantHours   float64
		wantTier    models.Tier
		wantFromKw  bool
	}{
		{
			name:      "hour package by price ID",
			priceID:   "price_10_hours",
			quantity:  1,
			wantKind:  KindHourPackage,
			wantHours: 10,
		},
		{
			name:     "premium tier by price ID",
			priceID:  "price_premium_annual",
			quantity: 1,
			wantKind: KindPremiumSubscription,
			wantTier: models.TierAnnual,
		},
		{
			name:        "price ID wins over keyword",
			priceID:     "price_5_hours",
			description: "Premium Gold Upgrade",
			quantity:    1,
			wantKind:    KindHourPackage,
			wantHours:   5,
		},
		{
			name:        "keyword fallback tutoring package",
			priceID:     "price_legacy_unknown",
			description: "Platinum Tutoring Package",
			quantity:    25,
			wantKind:    KindHourPackage,
			wantHours:   25,
			wantFromKw:  true,
		},
		{
			name:        "keyword fallback premium",
			priceID:     "price_legacy_unknown",
			description: "Gold Membership",
			quantity:    1,
			wantKind:    KindPremiumSubscription,
			wantTier:    models.TierMonthly,
			wantFromKw:  true,
		},
		{
			name:        "keyword matching is case-insensitive",
			priceID:     "",
			description: "10 HOUR bundle",
			quantity:    10,
			wantKind:    KindHourPackage,
			wantHours:   10,
			wantFromKw:  true,
		},
		{
			name:        "unrecognized",
			priceID:     "price_tshirt",
			description: "Branded T-Shirt",
			quantity:    2,
			wantKind:    KindUnrecognized,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := c.ClassifyItem(tt.priceID, tt.description, tt.quantity)
			assert.Equal(t, tt.wantKind, got.Kind)
			assert.Equal(t, tt.wantHours, got.Hours)
			assert.Equal(t, tt.wantTier, got.Tier)
			assert.Equal(t, tt.wantFromKw, got.FromKeyword)
		})
	}
}

func TestClassifyIsDeterministic(t *testing.T) {
	c := NewClassifier(testPriceTable(), zap.NewNop())

	first := c.ClassifyItem("price_legacy", "Summit Tutoring Package", 5)
	for i := 0; i < 10; i++ {
		assert.Equal(t, first, c.ClassifyItem("price_legacy", "Summit Tutoring Package", 5))
	}
}

func TestClassifyPreservesOrder(t *testing.T) {
	c := NewClassifier(testPriceTable(), zap.NewNop())

	items := []*stripe.LineItem{
		{Price: &stripe.Price{ID: "price_10_hours"}, Quantity: 1},
		{Price: &stripe.Price{ID: "price_tshirt"}, Description: "Branded T-Shirt", Quantity: 1},
		{Price: &stripe.Price{ID: "price_premium_monthly"}, Quantity: 1},
	}

	got := c.Classify(items)
	assert.Len(t, got, 3)
	assert.Equal(t, KindHourPackage, got[0].Kind)
	assert.Equal(t, KindUnrecognized, got[1].Kind)
	assert.Equal(t, KindPremiumSubscription, got[2].Kind)
}

func TestClassifyNilPrice(t *testing.T) {
	c := NewClassifier(testPriceTable(), zap.NewNop())

	got := c.Classify([]*stripe.LineItem{{Description: "Mystery item", Quantity: 1}})
	assert.Len(t, got, 1)
	assert.Equal(t, KindUnrecognized, got[0].Kind)
}
