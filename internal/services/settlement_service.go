package services

import (
	"context"
	"time"

	"medimart/internal/domain"
	"medimart/internal/metrics"
	"medimart/internal/repos"
	"medimart/internal/telemetry"

	"go.opentelemetry.io/otel/attribute"
)

// SettlementService manages seller payouts and their admin requests.
type SettlementService struct {
	Settlements *repos.SettlementRepo
	Invoices    *repos.InvoiceRepo
	Users       *repos.UserRepo
	Prods       *repos.ProductRepo
}

func NewSettlementService(sets *repos.SettlementRepo, invs *repos.InvoiceRepo, users *repos.UserRepo, prods *repos.ProductRepo) *SettlementService {
	return &SettlementService{Settlements: sets, Invoices: invs, Users: users, Prods: prods}
}

// SellerPaymentView is a seller payment joined with its seller and invoice.
type SellerPaymentView struct {
	ID        string          `json:"_id"`
	Seller    *domain.UserRef `json:"seller"`
	Invoice   *InvoiceView    `json:"invoice"`
	Amount    float64         `json:"amount"`
	Status    string          `json:"status"`
	CreatedAt time.Time       `json:"createdAt"`
	PaidAt    *time.Time      `json:"paidAt,omitempty"`
}

type AdminRequestView struct {
	ID            string             `json:"_id"`
	SellerPayment *SellerPaymentView `json:"sellerPayment"`
	Status        string             `json:"status"`
	CreatedAt     time.Time          `json:"createdAt"`
	AcceptedAt    *time.Time         `json:"acceptedAt,omitempty"`
}

func (s *SettlementService) join(ctx context.Context, list []domain.SellerPayment) ([]SellerPaymentView, error) {
	invIDs := make([]string, 0, len(list))
	userIDs := make([]string, 0, len(list))
	for _, sp := range list {
		invIDs = append(invIDs, sp.Invoice)
		userIDs = append(userIDs, sp.Seller)
	}
	invs, err := s.Invoices.ByIDs(ctx, uniq(invIDs))
	if err != nil {
		return nil, err
	}
	items := make([]domain.LineItems, 0, len(invs))
	for _, inv := range invs {
		items = append(items, inv.Items)
		userIDs = append(userIDs, inv.User)
	}
	l, err := populator{Users: s.Users, Products: s.Prods}.load(ctx, items, userIDs...)
	if err != nil {
		return nil, err
	}

	out := make([]SellerPaymentView, 0, len(list))
	for _, sp := range list {
		v := SellerPaymentView{
			ID:        sp.ID,
			Seller:    l.userRef(sp.Seller),
			Amount:    sp.Amount,
			Status:    sp.Status,
			CreatedAt: sp.CreatedAt,
			PaidAt:    sp.PaidAt,
		}
		if inv, ok := invs[sp.Invoice]; ok {
			v.Invoice = invoiceView(inv, l)
		}
		out = append(out, v)
	}
	return out, nil
}

// List scopes seller payments: admins see all, sellers their own.
func (s *SettlementService) List(ctx context.Context, actor *domain.User) ([]SellerPaymentView, error) {
	var list []domain.SellerPayment
	var err error
	switch actor.Role {
	case domain.RoleAdmin:
		list, err = s.Settlements.ListSellerPayments(ctx)
	case domain.RoleSeller:
		list, err = s.Settlements.ListSellerPaymentsBySeller(ctx, actor.ID)
	default:
		return nil, fail(ErrForbidden, "Forbidden")
	}
	if err != nil {
		return nil, err
	}
	return s.join(ctx, list)
}

// ListRaw returns seller payments without any joins.
func (s *SettlementService) ListRaw(ctx context.Context) ([]domain.SellerPayment, error) {
	return s.Settlements.ListSellerPayments(ctx)
}

func (s *SettlementService) ListRequests(ctx context.Context) ([]AdminRequestView, error) {
	reqs, err := s.Settlements.ListAdminRequests(ctx)
	if err != nil {
		return nil, err
	}
	ids := make([]string, 0, len(reqs))
	for _, r := range reqs {
		ids = append(ids, r.SellerPayment)
	}
	sps, err := s.Settlements.SellerPaymentsByIDs(ctx, uniq(ids))
	if err != nil {
		return nil, err
	}
	flat := make([]domain.SellerPayment, 0, len(sps))
	for _, sp := range sps {
		flat = append(flat, *sp)
	}
	joined, err := s.join(ctx, flat)
	if err != nil {
		return nil, err
	}
	byID := make(map[string]*SellerPaymentView, len(joined))
	for i := range joined {
		byID[joined[i].ID] = &joined[i]
	}

	out := make([]AdminRequestView, 0, len(reqs))
	for _, r := range reqs {
		out = append(out, AdminRequestView{
			ID:            r.ID,
			SellerPayment: byID[r.SellerPayment],
			Status:        r.Status,
			CreatedAt:     r.CreatedAt,
			AcceptedAt:    r.AcceptedAt,
		})
	}
	return out, nil
}

// AcceptSellerPayment pays a seller and accepts the matching admin request.
func (s *SettlementService) AcceptSellerPayment(ctx context.Context, id string) (*domain.SellerPayment, error) {
	ctx, span := telemetry.Tracer().Start(ctx, "settlement.accept_seller_payment")
	defer span.End()
	span.SetAttributes(attribute.String("seller_payment.id", id))

	if err := checkID(id, "Seller payment"); err != nil {
		return nil, err
	}
	sp, err := s.Settlements.AcceptSellerPayment(ctx, id)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, notFoundAs(err, "Seller payment")
	}
	metrics.SettlementsAccepted.WithLabelValues("seller_payment").Inc()
	return sp, nil
}

// AcceptRequest accepts an admin request and pays its seller payment.
func (s *SettlementService) AcceptRequest(ctx context.Context, id string) (*domain.AdminPaymentRequest, error) {
	ctx, span := telemetry.Tracer().Start(ctx, "settlement.accept_admin_request")
	defer span.End()
	span.SetAttributes(attribute.String("admin_request.id", id))

	if err := checkID(id, "Request"); err != nil {
		return nil, err
	}
	req, err := s.Settlements.AcceptAdminRequest(ctx, id)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, notFoundAs(err, "Request")
	}
	metrics.SettlementsAccepted.WithLabelValues("admin_request").Inc()
	return req, nil
}
