package product

import (
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/phamduchai/agrimart-backend/internal/apperr"
)

// Handler exposes the catalog read model plus thin admin mutations.
type Handler struct {
	service *Service
}

func NewHandler(s *Service) *Handler {
	return &Handler{service: s}
}

func (h *Handler) RegisterPublicRoutes(app *fiber.App) {
	app.Get("/api/v1/products", h.list)
	app.Get("/api/v1/products/:id", h.getByID)
}

func (h *Handler) RegisterProtectedRoutes(app *fiber.App) {
	app.Post("/api/v1/products", h.create)
	app.Put("/api/v1/products/:id", h.update)
}

func (h *Handler) list(c *fiber.Ctx) error {
	products, err := h.service.List()
	if err != nil {
		return apperr.Respond(c, err)
	}
	return c.JSON(products)
}

func (h *Handler) getByID(c *fiber.Ctx) error {
	id, err := strconv.Atoi(c.Params("id"))
	if err != nil || id <= 0 {
		return apperr.Respond(c, apperr.Validation("invalid product id"))
	}
	p, err := h.service.GetByID(id)
	if err != nil {
		return apperr.Respond(c, err)
	}
	return c.JSON(p)
}

func (h *Handler) create(c *fiber.Ctx) error {
	payload := new(Product)
	if err := c.BodyParser(payload); err != nil {
		return apperr.Respond(c, apperr.Validation(err.Error()))
	}
	if payload.Name == "" || payload.Price < 0 || payload.CountInStock < 0 {
		return apperr.Respond(c, apperr.Validation("name required, price and stock must be non-negative"))
	}
	created, err := h.service.Create(*payload)
	if err != nil {
		return apperr.Respond(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(created)
}

func (h *Handler) update(c *fiber.Ctx) error {
	id, err := strconv.Atoi(c.Params("id"))
	if err != nil || id <= 0 {
		return apperr.Respond(c, apperr.Validation("invalid product id"))
	}
	payload := new(Product)
	if err := c.BodyParser(payload); err != nil {
		return apperr.Respond(c, apperr.Validation(err.Error()))
	}
	updated, err := h.service.Update(id, *payload)
	if err != nil {
		return apperr.Respond(c, err)
	}
	return c.JSON(updated)
}
