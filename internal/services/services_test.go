package services_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"medimart/internal/domain"
	"medimart/internal/repos"
	"medimart/internal/services"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubProcessor struct {
	amount   int64
	currency string
	err      error
}

func (p *stubProcessor) CreateIntent(_ context.Context, amount int64, currency string) (string, error) {
	p.amount, p.currency = amount, currency
	if p.err != nil {
		return "", p.err
	}
	return "pi_test_secret", nil
}

type env struct {
	db       *sqlx.DB
	users    *repos.UserRepo
	prods    *repos.ProductRepo
	pays     *repos.PaymentRepo
	invs     *repos.InvoiceRepo
	sets     *repos.SettlementRepo
	banners  *repos.BannerRepo
	proc     *stubProcessor
	orders   *services.OrderService
	invoices *services.InvoiceService
	settle   *services.SettlementService
	reports  *services.ReportService
	catalog  *services.CatalogService
	people   *services.UserService
	ads      *services.BannerService
	cart     *services.CartService
}

func newEnv(t *testing.T) *env {
	t.Helper()
	db, err := repos.OpenDB(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	e := &env{
		db:      db,
		users:   repos.NewUserRepo(db),
		prods:   repos.NewProductRepo(db),
		pays:    repos.NewPaymentRepo(db),
		invs:    repos.NewInvoiceRepo(db),
		sets:    repos.NewSettlementRepo(db),
		banners: repos.NewBannerRepo(db),
		proc:    &stubProcessor{},
	}
	e.orders = services.NewOrderService(e.pays, e.invs, e.sets, e.prods, e.users, e.proc, "usd")
	e.invoices = services.NewInvoiceService(e.invs, e.pays, e.users, e.prods)
	e.settle = services.NewSettlementService(e.sets, e.invs, e.users, e.prods)
	e.reports = services.NewReportService(e.users, e.pays, e.banners, e.sets, e.prods)
	e.catalog = services.NewCatalogService(repos.NewCategoryRepo(db), e.prods)
	e.people = services.NewUserService(e.users)
	e.ads = services.NewBannerService(e.banners, e.prods, e.users)
	e.cart = services.NewCartService(repos.NewCartRepo(db), e.prods)
	return e
}

func (e *env) user(t *testing.T, uid, role string) *domain.User {
	t.Helper()
	u := &domain.User{FirebaseUID: uid, Username: uid, Email: uid + "@example.com", Role: role, IsActive: true}
	require.NoError(t, e.users.Create(context.Background(), u))
	return u
}

func (e *env) product(t *testing.T, seller *domain.User, name string, price float64) *domain.Product {
	t.Helper()
	p := &domain.Product{Name: name, Price: price}
	if seller != nil {
		p.Seller = seller.ID
	}
	require.NoError(t, e.prods.Create(context.Background(), p))
	return p
}

func TestCheckoutFansOutPerSeller(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t)
	buyer := e.user(t, "buyer", domain.RoleUser)
	sellerA := e.user(t, "seller-a", domain.RoleSeller)
	sellerB := e.user(t, "seller-b", domain.RoleSeller)
	pa := e.product(t, sellerA, "Napa", 10)
	pb := e.product(t, sellerB, "Seclo", 5)

	pay, err := e.orders.Checkout(ctx, buyer, services.CheckoutInput{
		Items: []domain.LineItem{
			{Product: pa.ID, Quantity: 2, Price: 10},
			{Product: pb.ID, Quantity: 1, Price: 5},
		},
		Status: domain.PaymentPaid,
		Amount: 25,
	})
	require.NoError(t, err)
	assert.Equal(t, 25.0, pay.Amount)
	assert.Equal(t, buyer.ID, pay.User)

	inv, err := e.invs.ByPayment(ctx, pay.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.PaymentPending, inv.Status)
	assert.Equal(t, 25.0, inv.Total)
	assert.Regexp(t, `^INV-\d+$`, inv.InvoiceNumber)

	sps, err := e.sets.ListSellerPayments(ctx)
	require.NoError(t, err)
	require.Len(t, sps, 2)
	amounts := map[string]float64{}
	for _, sp := range sps {
		amounts[sp.Seller] = sp.Amount
		assert.Equal(t, inv.ID, sp.Invoice)
		assert.Equal(t, domain.SettlementPending, sp.Status)
	}
	assert.Equal(t, 20.0, amounts[sellerA.ID])
	assert.Equal(t, 5.0, amounts[sellerB.ID])

	reqs, err := e.sets.ListAdminRequests(ctx)
	require.NoError(t, err)
	require.Len(t, reqs, 2)
	for _, r := range reqs {
		assert.Equal(t, domain.RequestPending, r.Status)
	}
}

func TestCheckoutSkipsUnresolvedSellers(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t)
	buyer := e.user(t, "buyer", domain.RoleUser)
	orphan := e.product(t, nil, "Orphan", 4)

	pay, err := e.orders.Checkout(ctx, buyer, services.CheckoutInput{
		Items: []domain.LineItem{
			{Product: orphan.ID, Quantity: 1, Price: 4},
			{Product: repos.NewID(), Quantity: 1, Price: 6},
		},
		Amount: 10,
	})
	require.NoError(t, err)
	assert.Len(t, pay.Items, 2)
	assert.Equal(t, domain.PaymentPending, pay.Status)

	sps, err := e.sets.ListSellerPayments(ctx)
	require.NoError(t, err)
	assert.Empty(t, sps)
	_, err = e.invs.ByPayment(ctx, pay.ID)
	assert.NoError(t, err)
}

func TestCheckoutRejectsBadInput(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t)
	buyer := e.user(t, "buyer", domain.RoleUser)

	_, err := e.orders.Checkout(ctx, buyer, services.CheckoutInput{Status: "refunded"})
	assert.ErrorIs(t, err, services.ErrValidation)
	_, err = e.orders.Checkout(ctx, buyer, services.CheckoutInput{Items: []domain.LineItem{{Product: "x", Quantity: 1}}})
	assert.ErrorIs(t, err, services.ErrValidation)

	n, err := e.pays.Count(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestCreateIntent(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t)

	secret, err := e.orders.CreateIntent(ctx, 2500)
	require.NoError(t, err)
	assert.Equal(t, "pi_test_secret", secret)
	assert.Equal(t, int64(2500), e.proc.amount)
	assert.Equal(t, "usd", e.proc.currency)

	_, err = e.orders.CreateIntent(ctx, 0)
	assert.ErrorIs(t, err, services.ErrValidation)

	e.proc.err = errors.New("card_declined: secret detail")
	_, err = e.orders.CreateIntent(ctx, 100)
	assert.ErrorIs(t, err, services.ErrUpstream)
	assert.Equal(t, "Payment intent creation failed", services.Message(err, ""))

	e.orders.Processor = nil
	_, err = e.orders.CreateIntent(ctx, 100)
	assert.ErrorIs(t, err, services.ErrUpstream)
}

func TestListForScopesByRole(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t)
	buyer := e.user(t, "buyer", domain.RoleUser)
	other := e.user(t, "other", domain.RoleUser)
	seller := e.user(t, "seller", domain.RoleSeller)
	admin := e.user(t, "admin", domain.RoleAdmin)
	p := e.product(t, seller, "Napa", 10)

	_, err := e.orders.Checkout(ctx, buyer, services.CheckoutInput{Items: []domain.LineItem{{Product: p.ID, Quantity: 1, Price: 10}}, Amount: 10})
	require.NoError(t, err)
	_, err = e.orders.Checkout(ctx, other, services.CheckoutInput{Amount: 0})
	require.NoError(t, err)

	mine, err := e.orders.ListFor(ctx, buyer)
	require.NoError(t, err)
	require.Len(t, mine, 1)
	require.NotNil(t, mine[0].Items[0].Product)
	assert.Equal(t, "Napa", mine[0].Items[0].Product.Name)

	sold, err := e.orders.ListFor(ctx, seller)
	require.NoError(t, err)
	assert.Len(t, sold, 1)

	all, err := e.orders.ListFor(ctx, admin)
	require.NoError(t, err)
	assert.Len(t, all, 2)

	_, err = e.orders.ForUser(ctx, other, buyer.ID)
	assert.ErrorIs(t, err, services.ErrForbidden)
	_, err = e.orders.ForSeller(ctx, buyer, seller.ID)
	assert.ErrorIs(t, err, services.ErrForbidden)
}

func TestSalesReportWindow(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t)
	buyer := e.user(t, "buyer", domain.RoleUser)
	old := &domain.Payment{User: buyer.ID, Status: domain.PaymentPaid, Date: time.Now().UTC().AddDate(0, -2, 0)}
	require.NoError(t, e.pays.Create(ctx, old))
	require.NoError(t, e.pays.Create(ctx, &domain.Payment{User: buyer.ID, Status: domain.PaymentPaid}))

	from := time.Now().UTC().AddDate(0, -1, 0)
	to := time.Now().UTC().Add(time.Hour)
	recent, err := e.orders.SalesReport(ctx, from, to)
	require.NoError(t, err)
	assert.Len(t, recent, 1)

	// One bound alone does not filter.
	all, err := e.orders.SalesReport(ctx, from, time.Time{})
	require.NoError(t, err)
	assert.Len(t, all, 2)

	_, err = e.orders.SalesReport(ctx, to, from)
	assert.ErrorIs(t, err, services.ErrValidation)
}

func TestInvoiceLookupByPaymentOrInvoiceID(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t)
	buyer := e.user(t, "buyer", domain.RoleUser)
	pay := &domain.Payment{User: buyer.ID, Status: domain.PaymentPaid, Amount: 12}
	require.NoError(t, e.pays.Create(ctx, pay))

	inv, err := e.invoices.Generate(ctx, pay.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.PaymentPaid, inv.Status)
	assert.Equal(t, 12.0, inv.Total)

	byPay, err := e.invoices.Lookup(ctx, pay.ID)
	require.NoError(t, err)
	assert.Equal(t, inv.ID, byPay.ID)
	require.NotNil(t, byPay.User)
	assert.Equal(t, buyer.Email, byPay.User.Email)

	byID, err := e.invoices.Lookup(ctx, inv.ID)
	require.NoError(t, err)
	assert.Equal(t, inv.ID, byID.ID)

	_, err = e.invoices.Lookup(ctx, repos.NewID())
	assert.ErrorIs(t, err, services.ErrNotFound)
	_, err = e.invoices.Generate(ctx, repos.NewID())
	assert.ErrorIs(t, err, services.ErrNotFound)
}

func TestInvoicesForSubject(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t)
	buyer := e.user(t, "buyer", domain.RoleUser)
	pay := &domain.Payment{User: buyer.ID, Status: domain.PaymentPending}
	require.NoError(t, e.pays.Create(ctx, pay))
	_, err := e.invoices.Generate(ctx, pay.ID)
	require.NoError(t, err)

	list, err := e.invoices.ListForSubject(ctx, "buyer")
	require.NoError(t, err)
	assert.Len(t, list, 1)

	_, err = e.invoices.ListForSubject(ctx, "")
	assert.ErrorIs(t, err, services.ErrValidation)
	_, err = e.invoices.ListForSubject(ctx, "nobody")
	assert.ErrorIs(t, err, services.ErrNotFound)
}

func TestAdminStats(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t)
	buyer := e.user(t, "buyer", domain.RoleUser)
	require.NoError(t, e.pays.Create(ctx, &domain.Payment{
		User:   buyer.ID,
		Status: domain.PaymentPaid,
		Items: domain.LineItems{
			{Product: repos.NewID(), Quantity: 1, Price: 10},
			{Product: repos.NewID(), Quantity: 1, Price: 5},
		},
	}))
	_, err := e.sets.CreatePair(ctx, &domain.SellerPayment{Seller: repos.NewID(), Invoice: repos.NewID(), Amount: 7})
	require.NoError(t, err)

	st, err := e.reports.AdminStats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 15.0, st.TotalSales)
	assert.Equal(t, 15.0, st.Paid)
	assert.Equal(t, 7.0, st.Pending)
	assert.Equal(t, 1, st.TotalUsers)
	assert.Equal(t, 1, st.TotalPayments)
}

func TestSellerStatsFallsBackToPaymentStatus(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t)
	buyer := e.user(t, "buyer", domain.RoleUser)
	seller := e.user(t, "seller", domain.RoleSeller)
	p := e.product(t, seller, "Napa", 10)

	require.NoError(t, e.pays.Create(ctx, &domain.Payment{User: buyer.ID, Status: domain.PaymentPaid,
		Items: domain.LineItems{{Product: p.ID, Quantity: 2, Price: 10}}}))
	require.NoError(t, e.pays.Create(ctx, &domain.Payment{User: buyer.ID, Status: domain.PaymentPending,
		Items: domain.LineItems{{Product: p.ID, Price: 10}}}))

	st, err := e.reports.SellerStats(ctx, seller.ID)
	require.NoError(t, err)
	assert.Equal(t, 30.0, st.TotalSales)
	assert.Equal(t, 20.0, st.Paid)
	assert.Equal(t, 10.0, st.Pending)

	// Once settlements exist they decide paid and pending.
	sp := &domain.SellerPayment{Seller: seller.ID, Invoice: repos.NewID(), Amount: 8}
	_, err = e.sets.CreatePair(ctx, sp)
	require.NoError(t, err)
	_, err = e.settle.AcceptSellerPayment(ctx, sp.ID)
	require.NoError(t, err)

	st, err = e.reports.SellerStats(ctx, seller.ID)
	require.NoError(t, err)
	assert.Equal(t, 30.0, st.TotalSales)
	assert.Equal(t, 8.0, st.Paid)
	assert.Equal(t, 0.0, st.Pending)
}

func TestSettlementListScopes(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t)
	buyer := e.user(t, "buyer", domain.RoleUser)
	sellerA := e.user(t, "seller-a", domain.RoleSeller)
	sellerB := e.user(t, "seller-b", domain.RoleSeller)
	admin := e.user(t, "admin", domain.RoleAdmin)
	pa := e.product(t, sellerA, "Napa", 10)
	pb := e.product(t, sellerB, "Seclo", 5)
	_, err := e.orders.Checkout(ctx, buyer, services.CheckoutInput{Items: []domain.LineItem{
		{Product: pa.ID, Quantity: 1, Price: 10},
		{Product: pb.ID, Quantity: 1, Price: 5},
	}, Amount: 15})
	require.NoError(t, err)

	all, err := e.settle.List(ctx, admin)
	require.NoError(t, err)
	assert.Len(t, all, 2)

	own, err := e.settle.List(ctx, sellerA)
	require.NoError(t, err)
	require.Len(t, own, 1)
	assert.Equal(t, 10.0, own[0].Amount)
	require.NotNil(t, own[0].Invoice)

	_, err = e.settle.List(ctx, buyer)
	assert.ErrorIs(t, err, services.ErrForbidden)

	reqs, err := e.settle.ListRequests(ctx)
	require.NoError(t, err)
	require.Len(t, reqs, 2)
	got, err := e.settle.AcceptRequest(ctx, reqs[0].ID)
	require.NoError(t, err)
	assert.Equal(t, domain.RequestAccepted, got.Status)

	_, err = e.settle.AcceptRequest(ctx, "bogus")
	assert.ErrorIs(t, err, services.ErrNotFound)
}

func TestProductOwnershipIsNotFound(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t)
	owner := e.user(t, "owner", domain.RoleSeller)
	stranger := e.user(t, "stranger", domain.RoleSeller)
	admin := e.user(t, "admin", domain.RoleAdmin)

	name := "Napa"
	price := services.Number(3)
	p, err := e.catalog.CreateProduct(ctx, owner, services.ProductInput{Name: &name, Price: &price})
	require.NoError(t, err)
	assert.Equal(t, owner.ID, p.Seller)

	renamed := "Napa Extra"
	_, err = e.catalog.UpdateProduct(ctx, stranger, p.ID, services.ProductInput{Name: &renamed})
	assert.ErrorIs(t, err, services.ErrNotFound)
	_, err = e.catalog.DeleteProduct(ctx, stranger, p.ID)
	assert.ErrorIs(t, err, services.ErrNotFound)

	got, err := e.catalog.UpdateProduct(ctx, admin, p.ID, services.ProductInput{Name: &renamed})
	require.NoError(t, err)
	assert.Equal(t, "Napa Extra", got.Name)
	assert.Equal(t, owner.ID, got.Seller)

	_, err = e.catalog.DeleteProduct(ctx, owner, p.ID)
	require.NoError(t, err)
	_, err = e.catalog.GetProduct(ctx, p.ID)
	assert.ErrorIs(t, err, services.ErrNotFound)
}

func TestSignupConflictReturnsExisting(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t)
	first, err := e.people.Signup(ctx, services.Profile{FirebaseUID: "u1", Email: "a@example.com", Role: domain.RoleSeller})
	require.NoError(t, err)
	assert.Equal(t, domain.RoleSeller, first.Role)

	again, err := e.people.Signup(ctx, services.Profile{FirebaseUID: "u2", Email: "A@example.com"})
	assert.ErrorIs(t, err, services.ErrConflict)
	require.NotNil(t, again)
	assert.Equal(t, first.ID, again.ID)

	_, err = e.people.Signup(ctx, services.Profile{FirebaseUID: "u3", Email: "c@example.com", Role: domain.RoleAdmin})
	assert.ErrorIs(t, err, services.ErrValidation)
}

func TestSyncUsesTokenSubject(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t)

	_, _, err := e.people.Sync(ctx, "subject-1", services.Profile{FirebaseUID: "someone-else", Email: "x@example.com"})
	assert.ErrorIs(t, err, services.ErrForbidden)

	u, created, err := e.people.Sync(ctx, "subject-1", services.Profile{Email: "x@example.com", Name: "Rahim"})
	require.NoError(t, err)
	assert.True(t, created)
	assert.Equal(t, "Rahim", u.Username)
	assert.Equal(t, domain.RoleUser, u.Role)

	u, created, err = e.people.Sync(ctx, "subject-1", services.Profile{PhotoURL: "/uploads/me.png"})
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, "x@example.com", u.Email)
	assert.Equal(t, "/uploads/me.png", u.PhotoURL)

	_, err = e.people.Authenticate(ctx, "ghost")
	assert.ErrorIs(t, err, services.ErrNotProvisioned)
}

func TestEmptySubjectIsUnauthenticated(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t)

	_, _, err := e.people.Sync(ctx, "", services.Profile{Email: "anon@example.com"})
	assert.ErrorIs(t, err, services.ErrUnauthenticated)
	_, err = e.people.Authenticate(ctx, "")
	assert.ErrorIs(t, err, services.ErrUnauthenticated)

	n, err := e.users.Count(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestSellerRequestLifecycle(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t)
	u := e.user(t, "shopper", domain.RoleUser)

	_, err := e.people.RequestSeller(ctx, u)
	require.NoError(t, err)
	_, err = e.people.RequestSeller(ctx, u)
	assert.ErrorIs(t, err, services.ErrValidation)

	pending, err := e.people.SellerRequests(ctx)
	require.NoError(t, err)
	assert.Len(t, pending, 1)

	approved, err := e.people.ApproveSeller(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.RoleSeller, approved.Role)
	assert.False(t, approved.SellerRequested)

	counts, err := e.people.Counts(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, counts.Customers)
	assert.Equal(t, 1, counts.Sellers)
}

func TestBannerRules(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t)
	seller := e.user(t, "seller", domain.RoleSeller)
	other := e.user(t, "other", domain.RoleSeller)
	admin := e.user(t, "admin", domain.RoleAdmin)

	in := services.BannerInput{Title: "Winter sale", Image: "/uploads/w.png", Description: "20% off"}
	req, err := e.ads.Create(ctx, seller, in)
	require.NoError(t, err)
	assert.Equal(t, domain.BannerPending, req.Status)
	assert.False(t, req.Slide)

	live, err := e.ads.Create(ctx, admin, in)
	require.NoError(t, err)
	assert.Equal(t, domain.BannerLive, live.Status)
	assert.True(t, live.Slide)

	_, err = e.ads.Create(ctx, seller, services.BannerInput{Title: "no image"})
	assert.ErrorIs(t, err, services.ErrValidation)

	_, err = e.ads.Edit(ctx, other, req.ID, services.BannerInput{Title: "mine now"})
	assert.ErrorIs(t, err, services.ErrForbidden)
	_, err = e.ads.Edit(ctx, admin, req.ID, services.BannerInput{Title: "admin edit"})
	assert.ErrorIs(t, err, services.ErrForbidden)
	edited, err := e.ads.Edit(ctx, seller, req.ID, services.BannerInput{Title: "Spring sale"})
	require.NoError(t, err)
	assert.Equal(t, "Spring sale", edited.Title)

	toggled, err := e.ads.Toggle(ctx, req.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.BannerLive, toggled.Status)
	assert.ErrorIs(t, e.ads.Delete(ctx, seller, req.ID), services.ErrForbidden)
	require.NoError(t, e.ads.Delete(ctx, admin, req.ID))
}

func TestCartRejectsBadLines(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t)
	u := e.user(t, "shopper", domain.RoleUser)
	p := e.product(t, nil, "Napa", 2)

	_, err := e.cart.Save(ctx, u.ID, domain.CartItems{{Product: p.ID, Quantity: 0}})
	assert.ErrorIs(t, err, services.ErrValidation)
	_, err = e.cart.Save(ctx, u.ID, domain.CartItems{{Product: "nope", Quantity: 1}})
	assert.ErrorIs(t, err, services.ErrValidation)

	_, err = e.cart.Save(ctx, u.ID, domain.CartItems{{Product: p.ID, Quantity: 2}})
	require.NoError(t, err)
	v, err := e.cart.View(ctx, u.ID)
	require.NoError(t, err)
	assert.NotNil(t, v)
}
