package handlers

import (
	"errors"

	applog "medimart/internal/log"
	"medimart/internal/services"
	"medimart/internal/validate"

	"github.com/gofiber/fiber/v2"
)

type UserHandler struct {
	Users  *services.UserService
	Orders *services.OrderService
}

// POST /api/auth/sync
func (h *UserHandler) Sync(c *fiber.Ctx) error {
	var in services.Profile
	if err := c.BodyParser(&in); err != nil {
		return badRequest(c, "invalid body")
	}
	u, created, err := h.Users.Sync(c.UserContext(), currentSubject(c), in)
	if err != nil {
		if errors.Is(err, services.ErrForbidden) {
			applog.Security(c, "auth.sync.uid_mismatch", map[string]any{"body_uid": in.FirebaseUID})
		}
		return fail(c, "auth.sync", err, "Failed to sync user")
	}
	c.Locals(localUserID, u.ID)
	applog.Audit(c, "auth.sync", map[string]any{"user_id": u.ID, "created": created})
	return c.JSON(u)
}

// GET /api/users
func (h *UserHandler) List(c *fiber.Ctx) error {
	users, err := h.Users.List(c.UserContext())
	if err != nil {
		return fail(c, "users.list", err, "Failed to fetch users")
	}
	return c.JSON(users)
}

// POST /api/users
func (h *UserHandler) Signup(c *fiber.Ctx) error {
	var in services.Profile
	if err := c.BodyParser(&in); err != nil {
		return badRequest(c, "invalid body")
	}
	if _, ok := validate.Email(in.Email); !ok {
		return badRequest(c, "valid email is required")
	}
	u, err := h.Users.Signup(c.UserContext(), in)
	if errors.Is(err, services.ErrConflict) && u != nil {
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{"message": "User already exists", "user": u})
	}
	if err != nil {
		return fail(c, "users.signup", err, "Failed to create user")
	}
	applog.Audit(c, "users.signup", map[string]any{"user_id": u.ID, "role": u.Role})
	return c.Status(fiber.StatusCreated).JSON(u)
}

// GET /api/users/counts
func (h *UserHandler) Counts(c *fiber.Ctx) error {
	counts, err := h.Users.Counts(c.UserContext())
	if err != nil {
		return fail(c, "users.counts", err, "Failed to fetch counts")
	}
	return c.JSON(counts)
}

// GET /api/users/seller-requests
func (h *UserHandler) SellerRequests(c *fiber.Ctx) error {
	users, err := h.Users.SellerRequests(c.UserContext())
	if err != nil {
		return fail(c, "users.seller_requests", err, "Failed to fetch seller requests")
	}
	return c.JSON(users)
}

// GET /api/users/firebase/:uid
func (h *UserHandler) ByFirebaseUID(c *fiber.Ctx) error {
	uid, ok := validate.UID(c.Params("uid"))
	if !ok {
		return badRequest(c, "invalid uid")
	}
	u, err := h.Users.ByFirebaseUID(c.UserContext(), uid)
	if err != nil {
		return fail(c, "users.by_uid", err, "Failed to fetch user")
	}
	return c.JSON(u)
}

// GET /api/users/id/:id
func (h *UserHandler) ByID(c *fiber.Ctx) error {
	u, err := h.Users.ByID(c.UserContext(), c.Params("id"))
	if err != nil {
		return fail(c, "users.by_id", err, "Failed to fetch user")
	}
	return c.JSON(u)
}

// GET /api/users/:identifier
func (h *UserHandler) Lookup(c *fiber.Ctx) error {
	u, err := h.Users.Lookup(c.UserContext(), c.Params("identifier"))
	if err != nil {
		return fail(c, "users.lookup", err, "Failed to fetch user")
	}
	return c.JSON(u)
}

// GET /api/users/payments/:userId
func (h *UserHandler) Payments(c *fiber.Ctx) error {
	pays, err := h.Orders.ForUser(c.UserContext(), currentUser(c), c.Params("userId"))
	if err != nil {
		return fail(c, "users.payments", err, "Failed to fetch payments")
	}
	return c.JSON(pays)
}

// GET /api/users/seller-payments/:sellerId
func (h *UserHandler) SellerPayments(c *fiber.Ctx) error {
	pays, err := h.Orders.ForSeller(c.UserContext(), currentUser(c), c.Params("sellerId"))
	if err != nil {
		return fail(c, "users.seller_payments", err, "Failed to fetch seller payments")
	}
	return c.JSON(pays)
}

// POST /api/users/request-seller
func (h *UserHandler) RequestSeller(c *fiber.Ctx) error {
	u, err := h.Users.RequestSeller(c.UserContext(), currentUser(c))
	if err != nil {
		return fail(c, "users.request_seller", err, "Failed to submit seller request.")
	}
	applog.Audit(c, "users.request_seller", map[string]any{"user_id": u.ID})
	return c.JSON(fiber.Map{"message": "Seller request submitted successfully.", "user": u})
}

// PATCH /api/users/:id
func (h *UserHandler) UpdateProfile(c *fiber.Ctx) error {
	var in services.ProfilePatch
	if err := c.BodyParser(&in); err != nil {
		return badRequest(c, "invalid body")
	}
	if in.Username != nil {
		name, ok := validate.Name(*in.Username)
		if !ok {
			return badRequest(c, "invalid username")
		}
		in.Username = &name
	}
	u, err := h.Users.UpdateProfile(c.UserContext(), currentUser(c), c.Params("id"), in)
	if err != nil {
		return fail(c, "users.update", err, "Failed to update user")
	}
	return c.JSON(u)
}

// PATCH /api/users/:id/role
func (h *UserHandler) SetRole(c *fiber.Ctx) error {
	var in struct {
		Role string `json:"role"`
	}
	if err := c.BodyParser(&in); err != nil {
		return badRequest(c, "invalid body")
	}
	u, err := h.Users.SetRole(c.UserContext(), c.Params("id"), in.Role)
	if err != nil {
		return fail(c, "admin.users.role", err, "Failed to update role")
	}
	applog.Audit(c, "admin.users.role", map[string]any{"target": u.ID, "role": u.Role})
	return c.JSON(u)
}

// PATCH /api/users/:id/approve-seller
func (h *UserHandler) ApproveSeller(c *fiber.Ctx) error {
	u, err := h.Users.ApproveSeller(c.UserContext(), c.Params("id"))
	if err != nil {
		return fail(c, "admin.users.approve_seller", err, "Failed to approve seller")
	}
	applog.Audit(c, "admin.users.approve_seller", map[string]any{"target": u.ID})
	return c.JSON(u)
}

// PATCH /api/users/:id/reject-seller
func (h *UserHandler) RejectSeller(c *fiber.Ctx) error {
	u, err := h.Users.RejectSeller(c.UserContext(), c.Params("id"))
	if err != nil {
		return fail(c, "admin.users.reject_seller", err, "Failed to reject seller")
	}
	applog.Audit(c, "admin.users.reject_seller", map[string]any{"target": u.ID})
	return c.JSON(u)
}

// POST /api/seller/sync
func (h *UserHandler) SyncSeller(c *fiber.Ctx) error {
	var in services.Profile
	if err := c.BodyParser(&in); err != nil {
		return badRequest(c, "invalid body")
	}
	u, created, err := h.Users.SyncSeller(c.UserContext(), currentUser(c), in)
	if err != nil {
		return fail(c, "seller.sync", err, "Failed to sync seller")
	}
	applog.Audit(c, "seller.sync", map[string]any{"target": u.ID, "created": created})
	if created {
		return c.Status(fiber.StatusCreated).JSON(fiber.Map{"message": "Seller created", "user": u})
	}
	return c.JSON(fiber.Map{"message": "Seller updated", "user": u})
}
