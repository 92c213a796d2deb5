package controller

import (
	"github.com/brightpath/tutoring-backend/internal/models"
	"github.com/brightpath/tutoring-backend/internal/service"
)

type CreditPackageController struct {
	packageService *service.PackageService
}

func NewCreditPackageController(packageService *service.PackageService) *CreditPackageController {
	return &CreditPackageController{
		packageService: packageService,
	}
}

func (c *CreditPackageController) GetAllPackages() ([]models.CreditPackage, error) {
	return c.packageService.GetAllPackages()
}

func (c *CreditPackageController) GetPackageByID(id uint) (*models.CreditPackage, error) {
	return c.packageService.GetPackageByID(id)
}
