package handlers

import (
	applog "medimart/internal/log"
	"medimart/internal/repos"
	"medimart/internal/services"
	"medimart/internal/validate"

	"github.com/gofiber/fiber/v2"
)

type ProductHandler struct {
	Catalog *services.CatalogService
}

// GET /api/products
func (h *ProductHandler) List(c *fiber.Ctx) error {
	q := services.ProductQuery{
		ProductFilter: repos.ProductFilter{
			Name:         c.Query("name"),
			Generic:      c.Query("generic"),
			Company:      c.Query("company"),
			DiscountOnly: c.Query("discount") == "true",
		},
		Page:  validate.Int(c.Query("page"), 1, 0),
		Limit: validate.Int(c.Query("limit"), 10, 100),
		Sort:  c.Query("sort", "createdAt"),
		Order: c.Query("order", "desc"),
	}
	page, err := h.Catalog.ListProducts(c.UserContext(), q)
	if err != nil {
		return fail(c, "products.list", err, "Failed to fetch products")
	}
	return c.JSON(page)
}

// GET /api/products/discounted
func (h *ProductHandler) Discounted(c *fiber.Ctx) error {
	prods, err := h.Catalog.Discounted(c.UserContext(), validate.Int(c.Query("limit"), 10, 100))
	if err != nil {
		return fail(c, "products.discounted", err, "Failed to fetch discounted products")
	}
	return c.JSON(prods)
}

// GET /api/products/category/:categoryId and /api/medicines/category/:categoryId
func (h *ProductHandler) ByCategory(c *fiber.Ctx) error {
	prods, err := h.Catalog.ByCategory(c.UserContext(), c.Params("categoryId"))
	if err != nil {
		return fail(c, "products.by_category", err, "Server error")
	}
	return c.JSON(prods)
}

// GET /api/medicines
func (h *ProductHandler) Medicines(c *fiber.Ctx) error {
	meds, err := h.Catalog.ListMedicines(c.UserContext())
	if err != nil {
		return fail(c, "medicines.list", err, "Server error")
	}
	return c.JSON(meds)
}

// GET /api/medicines/:id
func (h *ProductHandler) Get(c *fiber.Ctx) error {
	p, err := h.Catalog.GetProduct(c.UserContext(), c.Params("id"))
	if err != nil {
		return fail(c, "medicines.get", err, "Failed to fetch medicine")
	}
	return c.JSON(p)
}

func (h *ProductHandler) create(c *fiber.Ctx, status int) error {
	var in services.ProductInput
	if err := c.BodyParser(&in); err != nil {
		return badRequest(c, "invalid body")
	}
	p, err := h.Catalog.CreateProduct(c.UserContext(), currentUser(c), in)
	if err != nil {
		return fail(c, "products.create", err, "Failed to add medicine")
	}
	applog.Audit(c, "products.create", map[string]any{"product_id": p.ID})
	return c.Status(status).JSON(p)
}

// POST /api/products
func (h *ProductHandler) Create(c *fiber.Ctx) error { return h.create(c, fiber.StatusOK) }

// POST /api/medicines
func (h *ProductHandler) CreateMedicine(c *fiber.Ctx) error { return h.create(c, fiber.StatusCreated) }

// PATCH /api/products/:id and PUT /api/medicines/:id
func (h *ProductHandler) Update(c *fiber.Ctx) error {
	var in services.ProductInput
	if err := c.BodyParser(&in); err != nil {
		return badRequest(c, "invalid body")
	}
	p, err := h.Catalog.UpdateProduct(c.UserContext(), currentUser(c), c.Params("id"), in)
	if err != nil {
		return fail(c, "products.update", err, "Failed to update medicine")
	}
	applog.Audit(c, "products.update", map[string]any{"product_id": p.ID})
	return c.JSON(p)
}

// DELETE /api/medicines/:id
func (h *ProductHandler) Delete(c *fiber.Ctx) error {
	p, err := h.Catalog.DeleteProduct(c.UserContext(), currentUser(c), c.Params("id"))
	if err != nil {
		return fail(c, "products.delete", err, "Failed to delete medicine")
	}
	applog.Audit(c, "products.delete", map[string]any{"product_id": p.ID})
	return c.JSON(fiber.Map{"message": "Medicine deleted", "med": p})
}

type CategoryHandler struct {
	Catalog *services.CatalogService
}

// GET /api/categories
func (h *CategoryHandler) List(c *fiber.Ctx) error {
	cats, err := h.Catalog.ListCategories(c.UserContext())
	if err != nil {
		return fail(c, "categories.list", err, "Failed to fetch categories")
	}
	return c.JSON(cats)
}

// POST /api/categories
func (h *CategoryHandler) Create(c *fiber.Ctx) error {
	var in services.CategoryInput
	if err := c.BodyParser(&in); err != nil {
		return badRequest(c, "invalid body")
	}
	cat, err := h.Catalog.CreateCategory(c.UserContext(), in)
	if err != nil {
		return fail(c, "admin.categories.create", err, "Failed to create category")
	}
	applog.Audit(c, "admin.categories.create", map[string]any{"category_id": cat.ID, "name": cat.Name})
	return c.JSON(cat)
}

// PUT /api/categories/:id
func (h *CategoryHandler) Update(c *fiber.Ctx) error {
	var in services.CategoryInput
	if err := c.BodyParser(&in); err != nil {
		return badRequest(c, "invalid body")
	}
	cat, err := h.Catalog.UpdateCategory(c.UserContext(), c.Params("id"), in)
	if err != nil {
		return fail(c, "admin.categories.update", err, "Failed to update category")
	}
	applog.Audit(c, "admin.categories.update", map[string]any{"category_id": cat.ID, "name": cat.Name})
	return c.JSON(cat)
}

// DELETE /api/categories/:id
func (h *CategoryHandler) Delete(c *fiber.Ctx) error {
	id := c.Params("id")
	if err := h.Catalog.DeleteCategory(c.UserContext(), id); err != nil {
		return fail(c, "admin.categories.delete", err, "Failed to delete category")
	}
	applog.Audit(c, "admin.categories.delete", map[string]any{"category_id": id})
	return c.JSON(fiber.Map{"message": "Deleted"})
}
