package services

import (
	"context"
	"errors"

	"medimart/internal/domain"
	"medimart/internal/repos"
)

type InvoiceService struct {
	Invoices *repos.InvoiceRepo
	Payments *repos.PaymentRepo
	Users    *repos.UserRepo
	Prods    *repos.ProductRepo
}

func NewInvoiceService(invs *repos.InvoiceRepo, pays *repos.PaymentRepo, users *repos.UserRepo, prods *repos.ProductRepo) *InvoiceService {
	return &InvoiceService{Invoices: invs, Payments: pays, Users: users, Prods: prods}
}

// Generate snapshots a payment into a new invoice carrying the payment's status.
func (s *InvoiceService) Generate(ctx context.Context, paymentID string) (*domain.Invoice, error) {
	if err := checkID(paymentID, "Payment"); err != nil {
		return nil, err
	}
	pay, err := s.Payments.Get(ctx, paymentID)
	if err != nil {
		return nil, notFoundAs(err, "Payment")
	}
	items := make(domain.LineItems, len(pay.Items))
	copy(items, pay.Items)
	inv := &domain.Invoice{
		Payment: pay.ID,
		User:    pay.User,
		Items:   items,
		Total:   pay.Amount,
		Status:  pay.Status,
	}
	if err := s.Invoices.Create(ctx, inv); err != nil {
		return nil, err
	}
	return inv, nil
}

// resolve finds an invoice by payment reference, then by its own id.
func (s *InvoiceService) resolve(ctx context.Context, key string) (*domain.Invoice, error) {
	inv, err := s.Invoices.ByPayment(ctx, key)
	if err == nil {
		return inv, nil
	}
	if !errors.Is(err, repos.ErrNotFound) {
		return nil, err
	}
	inv, err = s.Invoices.ByID(ctx, key)
	return inv, notFoundAs(err, "Invoice")
}

// Lookup returns the invoice for key with its buyer and products populated.
func (s *InvoiceService) Lookup(ctx context.Context, key string) (*InvoiceView, error) {
	inv, err := s.resolve(ctx, key)
	if err != nil {
		return nil, err
	}
	p := populator{Users: s.Users, Products: s.Prods}
	l, err := p.load(ctx, []domain.LineItems{inv.Items}, inv.User)
	if err != nil {
		return nil, err
	}
	return invoiceView(inv, l), nil
}

// ListForSubject returns invoices of the user with the given subject id, newest first.
func (s *InvoiceService) ListForSubject(ctx context.Context, uid string) ([]domain.Invoice, error) {
	if uid == "" {
		return nil, fail(ErrValidation, "userId is required")
	}
	u, err := s.Users.ByFirebaseUID(ctx, uid)
	if err != nil {
		return nil, notFoundAs(err, "User")
	}
	return s.Invoices.ListByUser(ctx, u.ID)
}
