package database

import (
	"log"

	"github.com/brightpath/tutoring-backend/internal/models"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func NewDatabase(databaseURL string) *gorm.DB {
	if databaseURL == "" {
		log.Fatal("DATABASE_URL is not set")
	}

	db, err := gorm.Open(postgres.Open(databaseURL), &gorm.Config{})
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	if err := db.AutoMigrate(
		&models.User{},
		&models.SessionCredit{},
		&models.HourTransaction{},
		&models.PaymentRecord{},
		&models.ProcessedEvent{},
		&models.CreditPackage{},
		&models.UserPurchase{},
	); err != nil {
		log.Fatalf("Failed to migrate database: %v", err)
	}

	seedCreditPackages(db)

	return db
}

// seedCreditPackages inserts the sellable catalog if it is not present yet.
func seedCreditPackages(db *gorm.DB) {
	packages := []models.CreditPackage{
		{
			Name:          "Summit Package",
			Description:   "5 hours of 1-on-1 tutoring, includes 3 months premium",
			Kind:          models.PackageKindHours,
			Hours:         5,
			Price:         299,
			StripePriceID: "price_5_hours",
			IsActive:      true,
		},
		{
			Name:          "Vantage Package",
			Description:   "10 hours of 1-on-1 tutoring, includes 6 months premium",
			Kind:          models.PackageKindHours,
			Hours:         10,
			Price:         549,
			StripePriceID: "price_10_hours",
			IsActive:      true,
		},
		{
			Name:          "Platinum Package",
			Description:   "20 hours of 1-on-1 tutoring, includes 12 months premium",
			Kind:          models.PackageKindHours,
			Hours:         20,
			Price:         999,
			StripePriceID: "price_20_hours",
			IsActive:      true,
		},
		{
			Name:          "Premium Monthly",
			Description:   "Full platform access, billed monthly",
			Kind:          models.PackageKindPremium,
			Tier:          models.TierMonthly,
			Price:         29.99,
			StripePriceID: "price_premium_monthly",
			IsActive:      true,
		},
		{
			Name:          "Premium Quarterly",
			Description:   "Full platform access, billed every 3 months",
			Kind:          models.PackageKindPremium,
			Tier:          models.TierQuarterly,
			Price:         74.99,
			StripePriceID: "price_premium_quarterly",
			IsActive:      true,
		},
		{
			Name:          "Premium Annual",
			Description:   "Full platform access, billed yearly",
			Kind:          models.PackageKindPremium,
			Tier:          models.TierAnnual,
			Price:         239.99,
			StripePriceID: "price_premium_annual",
			IsActive:      true,
		},
	}

	for _, pkg := range packages {
		var count int64
		db.Model(&models.CreditPackage{}).Where("name = ?", pkg.Name).Count(&count)
		if count == 0 {
			if err := db.Create(&pkg).Error; err != nil {
				log.Fatalf("Failed to seed credit package: %v", err)
			}
		}
	}
}
