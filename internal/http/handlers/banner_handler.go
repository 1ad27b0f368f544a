package handlers

import (
	applog "medimart/internal/log"
	"medimart/internal/services"

	"github.com/gofiber/fiber/v2"
)

type BannerHandler struct {
	Banners *services.BannerService
}

// GET /api/banners
func (h *BannerHandler) Live(c *fiber.Ctx) error {
	list, err := h.Banners.Live(c.UserContext(), c.Query("seller"))
	if err != nil {
		return fail(c, "banners.list", err, "Failed to fetch banners.")
	}
	return c.JSON(list)
}

// GET /api/banners/all
func (h *BannerHandler) All(c *fiber.Ctx) error {
	list, err := h.Banners.All(c.UserContext(), c.Query("seller"))
	if err != nil {
		return fail(c, "admin.banners.list", err, "Failed to fetch all banners.")
	}
	return c.JSON(list)
}

// POST /api/banners
func (h *BannerHandler) Create(c *fiber.Ctx) error {
	var in services.BannerInput
	if err := c.BodyParser(&in); err != nil {
		return badRequest(c, "invalid body")
	}
	b, err := h.Banners.Create(c.UserContext(), currentUser(c), in)
	if err != nil {
		return fail(c, "banners.create", err, "Failed to create banner.")
	}
	applog.Audit(c, "banners.create", map[string]any{"banner_id": b.ID, "status": b.Status})
	return c.JSON(b)
}

// PATCH /api/banners/:id/toggle
func (h *BannerHandler) Toggle(c *fiber.Ctx) error {
	b, err := h.Banners.Toggle(c.UserContext(), c.Params("id"))
	if err != nil {
		return fail(c, "admin.banners.toggle", err, "Failed to toggle banner.")
	}
	applog.Audit(c, "admin.banners.toggle", map[string]any{"banner_id": b.ID, "slide": b.Slide})
	return c.JSON(b)
}

// PUT /api/banners/:id
func (h *BannerHandler) Edit(c *fiber.Ctx) error {
	var in services.BannerInput
	if err := c.BodyParser(&in); err != nil {
		return badRequest(c, "invalid body")
	}
	b, err := h.Banners.Edit(c.UserContext(), currentUser(c), c.Params("id"), in)
	if err != nil {
		return fail(c, "banners.edit", err, "Failed to edit banner.")
	}
	applog.Audit(c, "banners.edit", map[string]any{"banner_id": b.ID})
	return c.JSON(b)
}

// DELETE /api/banners/:id
func (h *BannerHandler) Delete(c *fiber.Ctx) error {
	id := c.Params("id")
	if err := h.Banners.Delete(c.UserContext(), currentUser(c), id); err != nil {
		return fail(c, "banners.delete", err, "Failed to delete ad request.")
	}
	applog.Audit(c, "banners.delete", map[string]any{"banner_id": id})
	return c.JSON(fiber.Map{"message": "Ad request deleted."})
}

// GET /api/ads
func (h *BannerHandler) Ads(c *fiber.Ctx) error {
	list, err := h.Banners.Ads(c.UserContext())
	if err != nil {
		return fail(c, "ads.list", err, "Server error")
	}
	return c.JSON(list)
}

// POST /api/ads
func (h *BannerHandler) CreateAd(c *fiber.Ctx) error {
	var in services.BannerInput
	if err := c.BodyParser(&in); err != nil {
		return badRequest(c, "invalid body")
	}
	b, err := h.Banners.CreateAd(c.UserContext(), in)
	if err != nil {
		return fail(c, "admin.ads.create", err, "Server error")
	}
	applog.Audit(c, "admin.ads.create", map[string]any{"banner_id": b.ID})
	return c.Status(fiber.StatusCreated).JSON(b)
}
