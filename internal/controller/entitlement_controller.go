package controller

import (
	"github.com/brightpath/tutoring-backend/internal/models"
	"github.com/brightpath/tutoring-backend/internal/service"
)

type EntitlementController struct {
	entitlementService *service.EntitlementService
}

func NewEntitlementController(entitlementService *service.EntitlementService) *EntitlementController {
	return &EntitlementController{
		entitlementService: entitlementService,
	}
}

func (c *EntitlementController) GetBalance(userID uint) (*models.SessionCredit, error) {
	return c.entitlementService.GetBalance(userID)
}

func (c *EntitlementController) GetTransactions(userID uint) ([]models.HourTransaction, error) {
	return c.entitlementService.GetTransactions(userID)
}

func (c *EntitlementController) UseHours(userID uint, hours float64, description, sessionRef string) (*models.HourTransaction, error) {
	return c.entitlementService.UseHours(userID, hours, description, sessionRef)
}

func (c *EntitlementController) GrantHours(userID uint, hours float64, description string) (*models.HourTransaction, error) {
	return c.entitlementService.GrantHours(userID, hours, description)
}

func (c *EntitlementController) RefundHours(userID uint, hours float64, description string) (*models.HourTransaction, error) {
	return c.entitlementService.RefundHours(userID, hours, description)
}

func (c *EntitlementController) GrantPremium(userID uint, tier models.Tier) error {
	return c.entitlementService.GrantPremiumTier(userID, tier)
}

func (c *EntitlementController) PremiumStatus(userID uint) (*models.PremiumStatus, error) {
	return c.entitlementService.PremiumStatus(userID)
}

func (c *EntitlementController) ReconcilePremiumStatus(userID uint) error {
	return c.entitlementService.CheckAndUpdatePremiumStatus(userID)
}
