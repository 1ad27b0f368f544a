package handlers

import (
	"medimart/internal/domain"

	"github.com/gofiber/fiber/v2"
)

// Register mounts every API route on r (normally the /api group).
func (d *Deps) Register(r fiber.Router) {
	auth := d.Gate.RequireAuth()
	admin := RequireRole(domain.RoleAdmin)
	seller := RequireRole(domain.RoleSeller)
	sellerOrAdmin := RequireRole(domain.RoleSeller, domain.RoleAdmin)
	shopper := RequireRole(domain.RoleUser)

	r.Post("/auth/sync", d.Gate.VerifyToken(), d.UserHandler.Sync)

	// Users: fixed paths before /users/:identifier.
	u := d.UserHandler
	r.Get("/users", auth, admin, u.List)
	r.Post("/users", u.Signup)
	r.Get("/users/counts", u.Counts)
	r.Get("/users/seller-requests", auth, admin, u.SellerRequests)
	r.Get("/users/firebase/:uid", u.ByFirebaseUID)
	r.Get("/users/id/:id", u.ByID)
	r.Get("/users/payments/:userId", auth, u.Payments)
	r.Get("/users/seller-payments/:sellerId", auth, u.SellerPayments)
	r.Post("/users/request-seller", auth, u.RequestSeller)
	r.Patch("/users/:id/role", auth, admin, u.SetRole)
	r.Patch("/users/:id/approve-seller", auth, admin, u.ApproveSeller)
	r.Patch("/users/:id/reject-seller", auth, admin, u.RejectSeller)
	r.Patch("/users/:id", auth, u.UpdateProfile)
	r.Get("/users/:identifier", u.Lookup)

	p := d.ProductHandler
	r.Get("/products", p.List)
	r.Get("/products/discounted", p.Discounted)
	r.Get("/products/category/:categoryId", p.ByCategory)
	r.Post("/products", auth, sellerOrAdmin, p.Create)
	r.Patch("/products/:id", auth, sellerOrAdmin, p.Update)

	r.Get("/medicines", p.Medicines)
	r.Post("/medicines", auth, seller, p.CreateMedicine)
	r.Get("/medicines/category/:categoryId", p.ByCategory)
	r.Get("/medicines/:id", p.Get)
	r.Put("/medicines/:id", auth, seller, p.Update)
	r.Delete("/medicines/:id", auth, seller, p.Delete)

	cat := d.CategoryHandler
	r.Get("/categories", cat.List)
	r.Post("/categories", auth, admin, cat.Create)
	r.Put("/categories/:id", auth, admin, cat.Update)
	r.Delete("/categories/:id", auth, admin, cat.Delete)

	pay := d.PaymentHandler
	r.Post("/payments/create-payment-intent", auth, pay.CreateIntent)
	r.Post("/payments", auth, pay.Checkout)
	r.Get("/payments", auth, pay.List)
	r.Patch("/payments/:id/accept", auth, admin, pay.Accept)

	inv := d.InvoiceHandler
	r.Get("/invoice", auth, inv.List)
	r.Get("/invoice/:paymentId", auth, inv.Get)
	r.Post("/invoice", auth, inv.Generate)

	b := d.BannerHandler
	r.Get("/banners", b.Live)
	r.Get("/banners/all", auth, admin, b.All)
	r.Post("/banners", auth, sellerOrAdmin, b.Create)
	r.Patch("/banners/:id/toggle", auth, admin, b.Toggle)
	r.Put("/banners/:id", auth, sellerOrAdmin, b.Edit)
	r.Delete("/banners/:id", auth, sellerOrAdmin, b.Delete)
	r.Get("/ads", b.Ads)
	r.Post("/ads", auth, admin, b.CreateAd)

	r.Get("/sales", auth, admin, pay.Sales)
	r.Get("/sales/sales", auth, admin, pay.Sales)

	r.Post("/upload", d.UploadHandler.Upload)

	rep := d.ReportHandler
	r.Get("/admin/stats", auth, admin, rep.AdminStats)
	r.Get("/seller/stats", auth, seller, rep.SellerStats)
	r.Get("/seller/payments", auth, seller, pay.SellerPayments)
	r.Post("/seller/sync", auth, sellerOrAdmin, u.SyncSeller)

	s := d.SettlementHandler
	r.Get("/adminPaymentRequests", auth, admin, s.Requests)
	r.Patch("/adminPaymentRequests/:id/accept", auth, admin, s.AcceptRequest)
	r.Get("/sellerpayments", auth, sellerOrAdmin, s.List)
	r.Get("/sellerpayments/debug/all", auth, admin, s.Debug)
	r.Patch("/sellerpayments/:id/accept", auth, admin, s.AcceptSellerPayment)

	c := d.CartHandler
	r.Get("/cart", auth, shopper, c.View)
	r.Post("/cart", auth, shopper, c.Save)
	r.Delete("/cart", auth, shopper, c.Clear)
}
