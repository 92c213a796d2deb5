package handler

import (
	"errors"
	"strconv"

	"github.com/brightpath/tutoring-backend/internal/controller"
	"github.com/brightpath/tutoring-backend/internal/service"
	"github.com/brightpath/tutoring-backend/pkg/payment"
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

type PaymentHandler struct {
	paymentController *controller.PaymentController
	webhookSecret     string
	logger            *zap.Logger
}

func NewPaymentHandler(paymentController *controller.PaymentController, webhookSecret string, logger *zap.Logger) *PaymentHandler {
	return &PaymentHandler{
		paymentController: paymentController,
		webhookSecret:     webhookSecret,
		logger:            logger,
	}
}

// HandleStripeWebhook is the inbound server-to-server entry point. A bad
// signature is rejected before anything is read from the payload; processing
// errors map to 400 (bad metadata), 404 (unknown user) or 500.
func (h *PaymentHandler) HandleStripeWebhook(c *fiber.Ctx) error {
	payload := c.Body()
	signatureHeader := c.Get("Stripe-Signature")

	event, err := payment.VerifyWebhookEvent(payload, signatureHeader, h.webhookSecret)
	if err != nil {
		h.logger.Warn("webhook signature verification failed", zap.Error(err))
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "invalid signature",
		})
	}

	if err := h.paymentController.HandleStripeWebhook(&event, payload); err != nil {
		h.logger.Error("webhook processing failed",
			zap.String("event_id", event.ID),
			zap.String("event_type", string(event.Type)),
			zap.Error(err),
		)

		status := fiber.StatusInternalServerError
		switch {
		case errors.Is(err, service.ErrMissingUserID):
			status = fiber.StatusBadRequest
		case errors.Is(err, service.ErrUserNotFound):
			status = fiber.StatusNotFound
		}
		return c.Status(status).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	return c.JSON(fiber.Map{
		"received": true,
	})
}

func (h *PaymentHandler) CreateCheckoutSession(c *fiber.Ctx) error {
	packageID, err := strconv.ParseUint(c.Params("packageId"), 10, 32)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"error":   "Invalid package ID",
		})
	}

	userID, ok := c.Locals("userID").(uint)
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"success": false,
			"error":   "User not authenticated",
		})
	}

	session, err := h.paymentController.CreateCheckoutSession(userID, uint(packageID))
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"error":   err.Error(),
		})
	}

	return c.JSON(fiber.Map{
		"success": true,
		"data":    session,
	})
}

func (h *PaymentHandler) GetPurchaseHistory(c *fiber.Ctx) error {
	userID, ok := c.Locals("userID").(uint)
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"success": false,
			"error":   "User not authenticated",
		})
	}

	purchases, err := h.paymentController.GetUserPurchaseHistory(userID)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"error":   err.Error(),
		})
	}

	return c.JSON(fiber.Map{
		"success": true,
		"data":    purchases,
	})
}
