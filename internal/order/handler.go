package order

import (
	"github.com/gofiber/fiber/v2"
	"github.com/phamduchai/agrimart-backend/internal/apperr"
	"github.com/phamduchai/agrimart-backend/internal/user"
)

// Handler exposes order reads and the lifecycle operations used by payment
// and fulfillment collaborators. Order creation is not here; only the
// checkout orchestrator creates orders.
type Handler struct {
	service *Service
}

func NewHandler(s *Service) *Handler {
	return &Handler{service: s}
}

func (h *Handler) RegisterProtectedRoutes(app *fiber.App) {
	app.Get("/api/v1/orders", h.listMine)
	app.Get("/api/v1/orders/:id", h.getByID)
	app.Put("/api/v1/orders/:id/status", h.transitionStatus)
	app.Put("/api/v1/orders/:id/pay", h.markPaid)
	app.Put("/api/v1/orders/:id/deliver", h.markDelivered)
}

func (h *Handler) listMine(c *fiber.Ctx) error {
	userID, err := user.GetUserIDFromCtx(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"message": "unauthorized"})
	}
	orders, err := h.service.ListByUser(userID)
	if err != nil {
		return apperr.Respond(c, err)
	}
	return c.JSON(orders)
}

func (h *Handler) getByID(c *fiber.Ctx) error {
	userID, err := user.GetUserIDFromCtx(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"message": "unauthorized"})
	}
	o, err := h.service.GetForUser(c.Params("id"), userID)
	if err != nil {
		return apperr.Respond(c, err)
	}
	return c.JSON(o)
}

type transitionRequest struct {
	Status string `json:"status"`
	Reason string `json:"reason,omitempty"`
}

func (h *Handler) transitionStatus(c *fiber.Ctx) error {
	if _, err := user.GetUserIDFromCtx(c); err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"message": "unauthorized"})
	}

	payload := new(transitionRequest)
	if err := c.BodyParser(payload); err != nil {
		return apperr.Respond(c, apperr.Validation(err.Error()))
	}

	var (
		o   Order
		err error
	)
	if Status(payload.Status) == StatusCancelled {
		o, err = h.service.Cancel(c.Params("id"), payload.Reason)
	} else {
		o, err = h.service.TransitionStatus(c.Params("id"), Status(payload.Status))
	}
	if err != nil {
		return apperr.Respond(c, err)
	}
	return c.JSON(o)
}

type markPaidRequest struct {
	PaymentRef string `json:"paymentRef"`
}

func (h *Handler) markPaid(c *fiber.Ctx) error {
	if _, err := user.GetUserIDFromCtx(c); err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"message": "unauthorized"})
	}

	payload := new(markPaidRequest)
	if err := c.BodyParser(payload); err != nil {
		return apperr.Respond(c, apperr.Validation(err.Error()))
	}

	o, err := h.service.MarkPaid(c.Params("id"), payload.PaymentRef)
	if err != nil {
		return apperr.Respond(c, err)
	}
	return c.JSON(o)
}

func (h *Handler) markDelivered(c *fiber.Ctx) error {
	if _, err := user.GetUserIDFromCtx(c); err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"message": "unauthorized"})
	}

	o, err := h.service.MarkDelivered(c.Params("id"))
	if err != nil {
		return apperr.Respond(c, err)
	}
	return c.JSON(o)
}
