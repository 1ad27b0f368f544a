package handlers

import (
	"medimart/internal/domain"
	"medimart/internal/services"

	"github.com/gofiber/fiber/v2"
)

type CartHandler struct {
	Cart *services.CartService
}

// GET /api/cart
func (h *CartHandler) View(c *fiber.Ctx) error {
	cv, err := h.Cart.View(c.UserContext(), currentUser(c).ID)
	if err != nil {
		return fail(c, "cart.view", err, "Failed to fetch cart")
	}
	return c.JSON(cv)
}

// POST /api/cart
func (h *CartHandler) Save(c *fiber.Ctx) error {
	var in struct {
		Items domain.CartItems `json:"items"`
	}
	if err := c.BodyParser(&in); err != nil {
		return badRequest(c, "invalid body")
	}
	cart, err := h.Cart.Save(c.UserContext(), currentUser(c).ID, in.Items)
	if err != nil {
		return fail(c, "cart.save", err, "Failed to save cart")
	}
	return c.JSON(cart)
}

// DELETE /api/cart
func (h *CartHandler) Clear(c *fiber.Ctx) error {
	if err := h.Cart.Clear(c.UserContext(), currentUser(c).ID); err != nil {
		return fail(c, "cart.clear", err, "Failed to clear cart")
	}
	return c.JSON(fiber.Map{"message": "Cart cleared"})
}
