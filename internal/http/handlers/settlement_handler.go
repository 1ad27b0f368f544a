package handlers

import (
	applog "medimart/internal/log"
	"medimart/internal/services"

	"github.com/gofiber/fiber/v2"
)

type SettlementHandler struct {
	Settlements *services.SettlementService
}

// GET /api/sellerpayments
func (h *SettlementHandler) List(c *fiber.Ctx) error {
	list, err := h.Settlements.List(c.UserContext(), currentUser(c))
	if err != nil {
		return fail(c, "sellerpayments.list", err, "Failed to fetch seller payments")
	}
	return c.JSON(list)
}

// GET /api/sellerpayments/debug/all
func (h *SettlementHandler) Debug(c *fiber.Ctx) error {
	list, err := h.Settlements.ListRaw(c.UserContext())
	if err != nil {
		return fail(c, "sellerpayments.debug", err, "Failed to fetch debug seller payments")
	}
	return c.JSON(list)
}

// PATCH /api/sellerpayments/:id/accept
func (h *SettlementHandler) AcceptSellerPayment(c *fiber.Ctx) error {
	sp, err := h.Settlements.AcceptSellerPayment(c.UserContext(), c.Params("id"))
	if err != nil {
		return fail(c, "admin.sellerpayments.accept", err, "Failed to accept seller payment")
	}
	applog.Audit(c, "admin.sellerpayments.accept", map[string]any{"seller_payment_id": sp.ID, "amount": sp.Amount})
	return c.JSON(sp)
}

// GET /api/adminPaymentRequests
func (h *SettlementHandler) Requests(c *fiber.Ctx) error {
	list, err := h.Settlements.ListRequests(c.UserContext())
	if err != nil {
		return fail(c, "admin.requests.list", err, "Failed to fetch admin payment requests")
	}
	return c.JSON(list)
}

// PATCH /api/adminPaymentRequests/:id/accept
func (h *SettlementHandler) AcceptRequest(c *fiber.Ctx) error {
	req, err := h.Settlements.AcceptRequest(c.UserContext(), c.Params("id"))
	if err != nil {
		return fail(c, "admin.requests.accept", err, "Failed to accept admin payment request")
	}
	applog.Audit(c, "admin.requests.accept", map[string]any{"request_id": req.ID, "seller_payment_id": req.SellerPayment})
	return c.JSON(req)
}

type ReportHandler struct {
	Reports *services.ReportService
}

// GET /api/admin/stats
func (h *ReportHandler) AdminStats(c *fiber.Ctx) error {
	st, err := h.Reports.AdminStats(c.UserContext())
	if err != nil {
		return fail(c, "admin.stats", err, "Server error")
	}
	return c.JSON(st)
}

// GET /api/seller/stats
func (h *ReportHandler) SellerStats(c *fiber.Ctx) error {
	st, err := h.Reports.SellerStats(c.UserContext(), currentUser(c).ID)
	if err != nil {
		return fail(c, "seller.stats", err, "Server error")
	}
	return c.JSON(st)
}
