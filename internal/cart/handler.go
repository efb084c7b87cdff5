package cart

import (
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/phamduchai/agrimart-backend/internal/apperr"
	"github.com/phamduchai/agrimart-backend/internal/user"
)

// Handler delegates cart operations to the cart service. Every operation has
// its own request shape; there is no partial-document merging.
type Handler struct {
	service *Service
}

func NewHandler(s *Service) *Handler {
	return &Handler{service: s}
}

func (h *Handler) RegisterProtectedRoutes(app *fiber.App) {
	app.Get("/api/v1/cart", h.getCart)
	app.Post("/api/v1/cart/items", h.addItem)
	app.Put("/api/v1/cart/items/:productId", h.setQuantity)
	app.Delete("/api/v1/cart/items/:productId", h.removeItem)
	app.Delete("/api/v1/cart", h.clear)
}

type AddItemRequest struct {
	ProductID int `json:"productId"`
	Quantity  int `json:"quantity"`
}

type SetQuantityRequest struct {
	Quantity int `json:"quantity"`
}

func (h *Handler) getCart(c *fiber.Ctx) error {
	userID, err := user.GetUserIDFromCtx(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"message": "unauthorized"})
	}

	view, err := h.service.Get(userID)
	if err != nil {
		return apperr.Respond(c, err)
	}
	return c.JSON(view)
}

func (h *Handler) addItem(c *fiber.Ctx) error {
	userID, err := user.GetUserIDFromCtx(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"message": "unauthorized"})
	}

	payload := new(AddItemRequest)
	if err := c.BodyParser(payload); err != nil {
		return apperr.Respond(c, apperr.Validation(err.Error()))
	}
	if payload.ProductID <= 0 {
		return apperr.Respond(c, apperr.Validation("invalid productId"))
	}

	view, err := h.service.AddItem(userID, payload.ProductID, payload.Quantity)
	if err != nil {
		return apperr.Respond(c, err)
	}
	return c.JSON(view)
}

func (h *Handler) setQuantity(c *fiber.Ctx) error {
	userID, err := user.GetUserIDFromCtx(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"message": "unauthorized"})
	}

	productID, err := strconv.Atoi(c.Params("productId"))
	if err != nil || productID <= 0 {
		return apperr.Respond(c, apperr.Validation("invalid productId"))
	}
	payload := new(SetQuantityRequest)
	if err := c.BodyParser(payload); err != nil {
		return apperr.Respond(c, apperr.Validation(err.Error()))
	}

	view, err := h.service.SetItemQuantity(userID, productID, payload.Quantity)
	if err != nil {
		return apperr.Respond(c, err)
	}
	return c.JSON(view)
}

func (h *Handler) removeItem(c *fiber.Ctx) error {
	userID, err := user.GetUserIDFromCtx(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"message": "unauthorized"})
	}

	productID, err := strconv.Atoi(c.Params("productId"))
	if err != nil || productID <= 0 {
		return apperr.Respond(c, apperr.Validation("invalid productId"))
	}

	view, err := h.service.RemoveItem(userID, productID)
	if err != nil {
		return apperr.Respond(c, err)
	}
	return c.JSON(view)
}

func (h *Handler) clear(c *fiber.Ctx) error {
	userID, err := user.GetUserIDFromCtx(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"message": "unauthorized"})
	}

	if err := h.service.Clear(userID); err != nil {
		return apperr.Respond(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}
