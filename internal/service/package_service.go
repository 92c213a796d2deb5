package service

import (
	"github.com/brightpath/tutoring-backend/internal/models"
)

type PackageService struct {
	packageRepo PackageStore
}

func NewPackageService(packageRepo PackageStore) *PackageService {
	return &PackageService{
		packageRepo: packageRepo,
	}
}

func (s *PackageService) GetAllPackages() ([]models.CreditPackage, error) {
	return s.packageRepo.GetAll()
}

func (s *PackageService) GetPackageByID(id uint) (*models.CreditPackage, error) {
	return s.packageRepo.GetByID(id)
}
