package handlers

import (
	"time"

	applog "medimart/internal/log"
	"medimart/internal/services"
	"medimart/internal/validate"

	"github.com/gofiber/fiber/v2"
)

type PaymentHandler struct {
	Orders *services.OrderService
}

// POST /api/payments/create-payment-intent
func (h *PaymentHandler) CreateIntent(c *fiber.Ctx) error {
	var in struct {
		Amount int64 `json:"amount"`
	}
	if err := c.BodyParser(&in); err != nil {
		return badRequest(c, "invalid body")
	}
	secret, err := h.Orders.CreateIntent(c.UserContext(), in.Amount)
	if err != nil {
		return fail(c, "payments.intent", err, "Payment intent creation failed")
	}
	return c.JSON(fiber.Map{"clientSecret": secret})
}

// POST /api/payments
func (h *PaymentHandler) Checkout(c *fiber.Ctx) error {
	var in services.CheckoutInput
	if err := c.BodyParser(&in); err != nil {
		return badRequest(c, "invalid body")
	}
	pay, err := h.Orders.Checkout(c.UserContext(), currentUser(c), in)
	if err != nil {
		return fail(c, "payments.checkout", err, "Payment storage failed")
	}
	applog.Audit(c, "payments.checkout", map[string]any{
		"payment_id": pay.ID, "amount": pay.Amount, "items": len(pay.Items), "status": pay.Status,
	})
	return c.JSON(pay)
}

// GET /api/payments
func (h *PaymentHandler) List(c *fiber.Ctx) error {
	pays, err := h.Orders.ListFor(c.UserContext(), currentUser(c))
	if err != nil {
		return fail(c, "payments.list", err, "Failed to fetch payments")
	}
	return c.JSON(pays)
}

// PATCH /api/payments/:id/accept
func (h *PaymentHandler) Accept(c *fiber.Ctx) error {
	pay, err := h.Orders.Accept(c.UserContext(), c.Params("id"))
	if err != nil {
		return fail(c, "admin.payments.accept", err, "Payment acceptance failed")
	}
	applog.Audit(c, "admin.payments.accept", map[string]any{"payment_id": pay.ID})
	return c.JSON(pay)
}

// GET /api/seller/payments
func (h *PaymentHandler) SellerPayments(c *fiber.Ctx) error {
	pays, err := h.Orders.SellerPayments(c.UserContext(), currentUser(c).ID)
	if err != nil {
		return fail(c, "seller.payments", err, "Server error")
	}
	return c.JSON(pays)
}

// GET /api/sales and /api/sales/sales
func (h *PaymentHandler) Sales(c *fiber.Ctx) error {
	var from, to time.Time
	if s := c.Query("from"); s != "" {
		t, ok := validate.Date(s)
		if !ok {
			return badRequest(c, "invalid from date")
		}
		from = t
	}
	if s := c.Query("to"); s != "" {
		t, ok := validate.Date(s)
		if !ok {
			return badRequest(c, "invalid to date")
		}
		to = t
	}
	pays, err := h.Orders.SalesReport(c.UserContext(), from, to)
	if err != nil {
		return fail(c, "admin.sales", err, "Failed to fetch sales")
	}
	return c.JSON(pays)
}

type InvoiceHandler struct {
	Invoices *services.InvoiceService
}

// GET /api/invoice?userId=<subject>
func (h *InvoiceHandler) List(c *fiber.Ctx) error {
	uid := c.Query("userId")
	if uid != "" {
		var ok bool
		if uid, ok = validate.UID(uid); !ok {
			return badRequest(c, "invalid userId")
		}
	}
	invs, err := h.Invoices.ListForSubject(c.UserContext(), uid)
	if err != nil {
		return fail(c, "invoices.list", err, "Failed to fetch invoices")
	}
	return c.JSON(fiber.Map{"invoices": invs})
}

// GET /api/invoice/:paymentId
func (h *InvoiceHandler) Get(c *fiber.Ctx) error {
	inv, err := h.Invoices.Lookup(c.UserContext(), c.Params("paymentId"))
	if err != nil {
		return fail(c, "invoices.get", err, "Failed to fetch invoice")
	}
	return c.JSON(inv)
}

// POST /api/invoice
func (h *InvoiceHandler) Generate(c *fiber.Ctx) error {
	var in struct {
		PaymentID string `json:"paymentId"`
	}
	if err := c.BodyParser(&in); err != nil {
		return badRequest(c, "invalid body")
	}
	inv, err := h.Invoices.Generate(c.UserContext(), in.PaymentID)
	if err != nil {
		return fail(c, "invoices.generate", err, "Failed to generate invoice")
	}
	applog.Audit(c, "invoices.generate", map[string]any{"invoice_id": inv.ID, "payment_id": inv.Payment})
	return c.JSON(inv)
}
