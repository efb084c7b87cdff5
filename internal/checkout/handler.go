package checkout

import (
	"github.com/gofiber/fiber/v2"
	"github.com/phamduchai/agrimart-backend/internal/apperr"
	"github.com/phamduchai/agrimart-backend/internal/user"
)

// Handler exposes the checkout endpoint. Clients pass an Idempotency-Key
// header so a retried request cannot place a second order.
type Handler struct {
	orchestrator *Orchestrator
}

func NewHandler(o *Orchestrator) *Handler {
	return &Handler{orchestrator: o}
}

func (h *Handler) RegisterProtectedRoutes(app *fiber.App) {
	app.Post("/api/v1/checkout", h.placeOrder)
}

func (h *Handler) placeOrder(c *fiber.Ctx) error {
	userID, err := user.GetUserIDFromCtx(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"message": "unauthorized"})
	}

	payload := new(PlaceOrderRequest)
	if err := c.BodyParser(payload); err != nil {
		return apperr.Respond(c, apperr.Validation(err.Error()))
	}
	payload.IdempotencyKey = c.Get("Idempotency-Key")

	ord, err := h.orchestrator.PlaceOrder(userID, *payload)
	if err != nil {
		return apperr.Respond(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(ord)
}
