package handler

import (
	"errors"

	"github.com/brightpath/tutoring-backend/internal/controller"
	"github.com/brightpath/tutoring-backend/internal/models"
	"github.com/brightpath/tutoring-backend/internal/repository"
	"github.com/brightpath/tutoring-backend/pkg/utils"
	"github.com/gofiber/fiber/v2"
)

type CreditHandler struct {
	entitlementController *controller.EntitlementController
	validator             *utils.Validator
}

func NewCreditHandler(entitlementController *controller.EntitlementController, validator *utils.Validator) *CreditHandler {
	return &CreditHandler{
		entitlementController: entitlementController,
		validator:             validator,
	}
}

func (h *CreditHandler) GetBalance(c *fiber.Ctx) error {
	userID, ok := c.Locals("userID").(uint)
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(models.ErrorResponse("User not authenticated"))
	}

	credit, err := h.entitlementController.GetBalance(userID)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(models.ErrorResponse(err.Error()))
	}

	return c.JSON(models.SuccessResponse(credit, ""))
}

func (h *CreditHandler) GetTransactions(c *fiber.Ctx) error {
	userID, ok := c.Locals("userID").(uint)
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(models.ErrorResponse("User not authenticated"))
	}

	transactions, err := h.entitlementController.GetTransactions(userID)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(models.ErrorResponse(err.Error()))
	}

	return c.JSON(models.SuccessResponse(transactions, ""))
}

func (h *CreditHandler) UseHours(c *fiber.Ctx) error {
	userID, ok := c.Locals("userID").(uint)
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(models.ErrorResponse("User not authenticated"))
	}

	var req models.UseHoursRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(models.ErrorResponse("Invalid request body"))
	}
	if err := h.validator.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(models.ErrorResponse(err.Error()))
	}

	tx, err := h.entitlementController.UseHours(userID, req.Hours, req.Description, req.SessionRef)
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrNoCreditBalance):
			return c.Status(fiber.StatusNotFound).JSON(models.ErrorResponse(err.Error()))
		case errors.Is(err, repository.ErrInsufficientHours):
			return c.Status(fiber.StatusBadRequest).JSON(models.ErrorResponse(err.Error()))
		default:
			return c.Status(fiber.StatusInternalServerError).JSON(models.ErrorResponse(err.Error()))
		}
	}

	return c.JSON(models.SuccessResponse(tx, "Hours deducted"))
}

func (h *CreditHandler) GetPremiumStatus(c *fiber.Ctx) error {
	userID, ok := c.Locals("userID").(uint)
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(models.ErrorResponse("User not authenticated"))
	}

	status, err := h.entitlementController.PremiumStatus(userID)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(models.ErrorResponse(err.Error()))
	}

	return c.JSON(models.SuccessResponse(status, ""))
}
