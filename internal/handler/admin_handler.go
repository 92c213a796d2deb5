package handler

import (
	"errors"
	"strconv"

	"github.com/brightpath/tutoring-backend/internal/controller"
	"github.com/brightpath/tutoring-backend/internal/models"
	"github.com/brightpath/tutoring-backend/internal/repository"
	"github.com/brightpath/tutoring-backend/internal/service"
	"github.com/brightpath/tutoring-backend/pkg/utils"
	"github.com/gofiber/fiber/v2"
)

// AdminHandler serves the scheduler/back-office surface: manual ledger
// adjustments and on-demand premium reconciliation.
type AdminHandler struct {
	entitlementController *controller.EntitlementController
	validator             *utils.Validator
}

func NewAdminHandler(entitlementController *controller.EntitlementController, validator *utils.Validator) *AdminHandler {
	return &AdminHandler{
		entitlementController: entitlementController,
		validator:             validator,
	}
}

func (h *AdminHandler) GrantHours(c *fiber.Ctx) error {
	var req models.AdjustHoursRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(models.ErrorResponse("Invalid request body"))
	}
	if err := h.validator.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(models.ErrorResponse(err.Error()))
	}

	tx, err := h.entitlementController.GrantHours(req.UserID, req.Hours, req.Description)
	if err != nil {
		if errors.Is(err, service.ErrUserNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(models.ErrorResponse(err.Error()))
		}
		return c.Status(fiber.StatusInternalServerError).JSON(models.ErrorResponse(err.Error()))
	}

	return c.JSON(models.SuccessResponse(tx, "Hours granted"))
}

func (h *AdminHandler) RefundHours(c *fiber.Ctx) error {
	var req models.AdjustHoursRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(models.ErrorResponse("Invalid request body"))
	}
	if err := h.validator.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(models.ErrorResponse(err.Error()))
	}

	tx, err := h.entitlementController.RefundHours(req.UserID, req.Hours, req.Description)
	if err != nil {
		if errors.Is(err, repository.ErrNoCreditBalance) {
			return c.Status(fiber.StatusNotFound).JSON(models.ErrorResponse(err.Error()))
		}
		return c.Status(fiber.StatusInternalServerError).JSON(models.ErrorResponse(err.Error()))
	}

	return c.JSON(models.SuccessResponse(tx, "Hours refunded"))
}

func (h *AdminHandler) GrantPremium(c *fiber.Ctx) error {
	var req models.GrantPremiumRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(models.ErrorResponse("Invalid request body"))
	}
	if err := h.validator.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(models.ErrorResponse(err.Error()))
	}

	if err := h.entitlementController.GrantPremium(req.UserID, models.Tier(req.Tier)); err != nil {
		if errors.Is(err, service.ErrUserNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(models.ErrorResponse(err.Error()))
		}
		return c.Status(fiber.StatusInternalServerError).JSON(models.ErrorResponse(err.Error()))
	}

	return c.JSON(models.SuccessResponse(nil, "Premium granted"))
}

// ReconcilePremium is the hook for the external scheduler; the service
// itself never runs this on a timer.
func (h *AdminHandler) ReconcilePremium(c *fiber.Ctx) error {
	userID, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(models.ErrorResponse("Invalid user ID"))
	}

	if err := h.entitlementController.ReconcilePremiumStatus(uint(userID)); err != nil {
		if errors.Is(err, service.ErrUserNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(models.ErrorResponse(err.Error()))
		}
		return c.Status(fiber.StatusInternalServerError).JSON(models.ErrorResponse(err.Error()))
	}

	return c.JSON(models.SuccessResponse(nil, "Premium status reconciled"))
}
