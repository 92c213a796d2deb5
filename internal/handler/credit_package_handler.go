package handler

import (
	"strconv"

	"github.com/brightpath/tutoring-backend/internal/controller"
	"github.com/brightpath/tutoring-backend/internal/models"
	"github.com/gofiber/fiber/v2"
)

type CreditPackageHandler struct {
	packageController *controller.CreditPackageController
}

func NewCreditPackageHandler(packageController *controller.CreditPackageController) *CreditPackageHandler {
	return &CreditPackageHandler{
		packageController: packageController,
	}
}

func (h *CreditPackageHandler) GetAllPackages(c *fiber.Ctx) error {
	packages, err := h.packageController.GetAllPackages()
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(models.ErrorResponse(err.Error()))
	}

	return c.JSON(models.SuccessResponse(packages, ""))
}

func (h *CreditPackageHandler) GetPackageByID(c *fiber.Ctx) error {
	id, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(models.ErrorResponse("Invalid package ID"))
	}

	creditPackage, err := h.packageController.GetPackageByID(uint(id))
	if err != nil {
		return c.Status(fiber.StatusNotFound).JSON(models.ErrorResponse("Package not found"))
	}

	return c.JSON(models.SuccessResponse(creditPackage, ""))
}
