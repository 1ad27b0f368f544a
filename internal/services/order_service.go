package services

import (
	"context"
	"fmt"
	"time"

	"medimart/internal/domain"
	"medimart/internal/metrics"
	"medimart/internal/payments"
	"medimart/internal/repos"
	"medimart/internal/telemetry"

	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/attribute"
)

// OrderService records checkouts and fans them out into seller settlements.
type OrderService struct {
	Payments    *repos.PaymentRepo
	Invoices    *repos.InvoiceRepo
	Settlements *repos.SettlementRepo
	Prods       *repos.ProductRepo
	Users       *repos.UserRepo
	Processor   payments.Processor
	Currency    string
}

func NewOrderService(pays *repos.PaymentRepo, invs *repos.InvoiceRepo, sets *repos.SettlementRepo,
	prods *repos.ProductRepo, users *repos.UserRepo, proc payments.Processor, currency string) *OrderService {
	return &OrderService{
		Payments:    pays,
		Invoices:    invs,
		Settlements: sets,
		Prods:       prods,
		Users:       users,
		Processor:   proc,
		Currency:    currency,
	}
}

func (s *OrderService) populator() populator {
	return populator{Users: s.Users, Products: s.Prods}
}

// CheckoutInput is the client's record of a completed card payment.
type CheckoutInput struct {
	Items           []domain.LineItem `json:"items"`
	Status          string            `json:"status"`
	Amount          float64           `json:"amount"`
	PaymentIntentID string            `json:"paymentIntentId"`
	Method          string            `json:"method"`
}

func (in *CheckoutInput) validate() error {
	switch in.Status {
	case "":
		in.Status = domain.PaymentPending
	case domain.PaymentPending, domain.PaymentPaid:
	default:
		return fail(ErrValidation, "invalid payment status %q", in.Status)
	}
	for _, it := range in.Items {
		if !repos.ValidID(it.Product) {
			return fail(ErrValidation, "invalid product id %q", it.Product)
		}
		if it.Quantity < 0 || it.Price < 0 {
			return fail(ErrValidation, "quantity and price must not be negative")
		}
	}
	return nil
}

// SellerShare is one seller's portion of a checkout.
type SellerShare struct {
	Seller string
	Amount decimal.Decimal
}

// partition groups items by the current seller of their product, in first-seen
// order. Items whose product or seller cannot be resolved are left out.
func partition(items domain.LineItems, prods map[string]*domain.Product) []SellerShare {
	idx := map[string]int{}
	var out []SellerShare
	for _, it := range items {
		p, ok := prods[it.Product]
		if !ok || p.Seller == "" {
			continue
		}
		line := decimal.NewFromFloat(it.Price).Mul(decimal.NewFromInt(int64(it.Quantity)))
		i, seen := idx[p.Seller]
		if !seen {
			idx[p.Seller] = len(out)
			out = append(out, SellerShare{Seller: p.Seller, Amount: line})
			continue
		}
		out[i].Amount = out[i].Amount.Add(line)
	}
	return out
}

// Checkout stores the payment, one pending invoice, and a SellerPayment plus
// AdminPaymentRequest per seller. Writes are sequential; a failure part way
// leaves the earlier records in place.
func (s *OrderService) Checkout(ctx context.Context, buyer *domain.User, in CheckoutInput) (pay *domain.Payment, err error) {
	ctx, span := telemetry.Tracer().Start(ctx, "order.checkout")
	defer func() {
		telemetry.RecordError(span, err)
		span.End()
		outcome := "ok"
		if err != nil {
			outcome = "error"
		}
		metrics.CheckoutCounter.WithLabelValues(outcome).Inc()
	}()

	if err := in.validate(); err != nil {
		return nil, err
	}
	items := domain.LineItems(in.Items)
	if items == nil {
		items = domain.LineItems{}
	}

	pay = &domain.Payment{
		User:            buyer.ID,
		Items:           items,
		Status:          in.Status,
		Amount:          in.Amount,
		PaymentIntentID: in.PaymentIntentID,
		Method:          in.Method,
	}
	if err := s.Payments.Create(ctx, pay); err != nil {
		return nil, fmt.Errorf("store payment: %w", err)
	}
	span.SetAttributes(attribute.String("payment.id", pay.ID), attribute.Int("payment.items", len(items)))

	pids := make([]string, 0, len(items))
	for _, it := range items {
		pids = append(pids, it.Product)
	}
	prods, err := s.Prods.ByIDs(ctx, uniq(pids))
	if err != nil {
		return nil, fmt.Errorf("resolve products: %w", err)
	}
	shares := partition(items, prods)

	inv := &domain.Invoice{
		Payment: pay.ID,
		User:    buyer.ID,
		Items:   items,
		Total:   pay.Amount,
		Status:  domain.PaymentPending,
	}
	if err := s.Invoices.Create(ctx, inv); err != nil {
		return nil, fmt.Errorf("store invoice: %w", err)
	}

	for _, sh := range shares {
		sp := &domain.SellerPayment{
			Seller:  sh.Seller,
			Invoice: inv.ID,
			Amount:  sh.Amount.InexactFloat64(),
			Status:  domain.SettlementPending,
		}
		if _, err := s.Settlements.CreatePair(ctx, sp); err != nil {
			return nil, fmt.Errorf("store settlement for seller %s: %w", sh.Seller, err)
		}
		metrics.SettlementsCreated.Inc()
	}
	span.SetAttributes(attribute.Int("checkout.sellers", len(shares)))
	return pay, nil
}

// CreateIntent asks the processor for a client secret; amount is in minor units.
func (s *OrderService) CreateIntent(ctx context.Context, amount int64) (string, error) {
	if amount <= 0 {
		return "", fail(ErrValidation, "amount must be positive")
	}
	if s.Processor == nil {
		return "", fail(ErrUpstream, "Payment processor not configured")
	}
	secret, err := s.Processor.CreateIntent(ctx, amount, s.Currency)
	if err != nil {
		return "", &Error{Kind: ErrUpstream, Msg: "Payment intent creation failed"}
	}
	return secret, nil
}

// ListFor scopes the payment listing by role: admins see everything, sellers
// see payments containing one of their products, users see their own.
func (s *OrderService) ListFor(ctx context.Context, actor *domain.User) ([]PaymentView, error) {
	var list []domain.Payment
	var err error
	if actor.Role == domain.RoleUser {
		list, err = s.Payments.ListByUser(ctx, actor.ID)
	} else {
		list, err = s.Payments.List(ctx)
	}
	if err != nil {
		return nil, err
	}
	if actor.Role == domain.RoleSeller {
		if list, err = s.withSellerItems(ctx, list, actor.ID); err != nil {
			return nil, err
		}
	}
	return s.populator().payments(ctx, list)
}

func (s *OrderService) withSellerItems(ctx context.Context, list []domain.Payment, seller string) ([]domain.Payment, error) {
	var pids []string
	for _, p := range list {
		for _, it := range p.Items {
			pids = append(pids, it.Product)
		}
	}
	prods, err := s.Prods.ByIDs(ctx, uniq(pids))
	if err != nil {
		return nil, err
	}
	out := make([]domain.Payment, 0, len(list))
	for _, p := range list {
		if hasSellerItem(p.Items, prods, seller) {
			out = append(out, p)
		}
	}
	return out, nil
}

// SellerPayments lists payments containing one of seller's products.
func (s *OrderService) SellerPayments(ctx context.Context, seller string) ([]PaymentView, error) {
	list, err := s.Payments.List(ctx)
	if err != nil {
		return nil, err
	}
	if list, err = s.withSellerItems(ctx, list, seller); err != nil {
		return nil, err
	}
	return s.populator().payments(ctx, list)
}

// ForUser returns a user's payments; only the user or an admin may look.
func (s *OrderService) ForUser(ctx context.Context, actor *domain.User, userID string) ([]domain.Payment, error) {
	if actor.Role != domain.RoleAdmin && actor.ID != userID {
		return nil, fail(ErrForbidden, "Forbidden: Access denied")
	}
	return s.Payments.ListByUser(ctx, userID)
}

// ForSeller returns payments trimmed to the items sold by sellerID; payments
// left with no items are dropped.
func (s *OrderService) ForSeller(ctx context.Context, actor *domain.User, sellerID string) ([]PaymentView, error) {
	if actor.Role != domain.RoleAdmin && actor.ID != sellerID {
		return nil, fail(ErrForbidden, "Forbidden: Access denied")
	}
	views, err := s.SellerPayments(ctx, sellerID)
	if err != nil {
		return nil, err
	}
	out := make([]PaymentView, 0, len(views))
	for _, v := range views {
		kept := make([]ItemView, 0, len(v.Items))
		for _, it := range v.Items {
			if it.Product != nil && it.Product.Seller != nil && it.Product.Seller.ID == sellerID {
				kept = append(kept, it)
			}
		}
		if len(kept) > 0 {
			v.Items = kept
			out = append(out, v)
		}
	}
	return out, nil
}

// Accept marks a payment paid.
func (s *OrderService) Accept(ctx context.Context, id string) (*domain.Payment, error) {
	if err := checkID(id, "Payment"); err != nil {
		return nil, err
	}
	if err := s.Payments.UpdateStatus(ctx, id, domain.PaymentPaid); err != nil {
		return nil, notFoundAs(err, "Payment")
	}
	p, err := s.Payments.Get(ctx, id)
	return p, notFoundAs(err, "Payment")
}

// SalesReport lists payments with buyer and products populated. Both bounds
// must be set for the date window to apply.
func (s *OrderService) SalesReport(ctx context.Context, from, to time.Time) ([]PaymentView, error) {
	var list []domain.Payment
	var err error
	if !from.IsZero() && !to.IsZero() {
		if to.Before(from) {
			return nil, fail(ErrValidation, "from must not be after to")
		}
		list, err = s.Payments.ListBetween(ctx, from, to)
	} else {
		list, err = s.Payments.List(ctx)
	}
	if err != nil {
		return nil, err
	}
	return s.populator().payments(ctx, list)
}
