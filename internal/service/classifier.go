package service

import (
	"strings"

	"github.com/brightpath/tutoring-backend/internal/config"
	"github.com/brightpath/tutoring-backend/internal/models"
	"github.com/stripe/stripe-go/v74"
	"go.uber.org/zap"
)

type ClassificationKind int

const (
	KindUnrecognized ClassificationKind = iota
	KindHourPackage
	KindPremiumSubscription
)

// Classification is the derived intent of one purchased line item.
type Classification struct {
	Kind        ClassificationKind
	Hours       float64
	Tier        models.Tier
	PriceID     string
	Description string
	// FromKeyword marks the low-confidence fallback path: the price ID was
	// not in the configured table and the product description matched a
	// keyword instead.
	FromKeyword bool
}

// Classifier maps line items to purchase intent. The price table is injected
// configuration; an exact price-ID match always wins over the keyword
// fallback, and anything matching neither is Unrecognized and skipped.
type Classifier struct {
	prices config.PriceTable
	logger *zap.Logger
}

func NewClassifier(prices config.PriceTable, logger *zap.Logger) *Classifier {
	return &Classifier{
		prices: prices,
		logger: logger,
	}
}

// Classify returns one classification per line item, in input order.
func (c *Classifier) Classify(items []*stripe.LineItem) []Classification {
	classifications := make([]Classification, 0, len(items))
	for _, item := range items {
		priceID := ""
		if item.Price != nil {
			priceID = item.Price.ID
		}
		classifications = append(classifications, c.ClassifyItem(priceID, item.Description, item.Quantity))
	}
	return classifications
}

func (c *Classifier) ClassifyItem(priceID, description string, quantity int64) Classification {
	// Exact price-ID lookups first.
	if hours, ok := c.prices.Hours[priceID]; ok {
		return Classification{
			Kind:        KindHourPackage,
			Hours:       hours,
			PriceID:     priceID,
			Description: description,
		}
	}
	if tier, ok := c.prices.Tiers[priceID]; ok {
		return Classification{
			Kind:        KindPremiumSubscription,
			Tier:        tier,
			PriceID:     priceID,
			Description: description,
		}
	}

	// Keyword fallback over the product description. Historical and test
	// price IDs are not always registered in the table; this path is
	// approximate, so every hit is logged for manual audit.
	name := strings.ToLower(description)
	if keyword, ok := matchKeyword(name, "tutoring", "package", "hour"); ok {
		hours := float64(quantity)
		c.logger.Warn("classified line item by keyword fallback",
			zap.String("price_id", priceID),
			zap.String("description", description),
			zap.String("keyword", keyword),
			zap.String("intent", "hour_package"),
			zap.Float64("hours", hours),
		)
		return Classification{
			Kind:        KindHourPackage,
			Hours:       hours,
			PriceID:     priceID,
			Description: description,
			FromKeyword: true,
		}
	}
	if keyword, ok := matchKeyword(name, "premium", "gold"); ok {
		c.logger.Warn("classified line item by keyword fallback",
			zap.String("price_id", priceID),
			zap.String("description", description),
			zap.String("keyword", keyword),
			zap.String("intent", "premium_subscription"),
		)
		return Classification{
			Kind:        KindPremiumSubscription,
			Tier:        models.TierMonthly,
			PriceID:     priceID,
			Description: description,
			FromKeyword: true,
		}
	}

	return Classification{
		Kind:        KindUnrecognized,
		PriceID:     priceID,
		Description: description,
	}
}

func matchKeyword(name string, keywords ...string) (string, bool) {
	for _, keyword := range keywords {
		if strings.Contains(name, keyword) {
			return keyword, true
		}
	}
	return "", false
}
