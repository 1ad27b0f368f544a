package repos

import (
	"context"
	"time"

	"medimart/internal/domain"

	"github.com/jmoiron/sqlx"
)

// SettlementRepo stores seller payouts and the admin requests that track them.
type SettlementRepo struct{ db *sqlx.DB }

func NewSettlementRepo(db *sqlx.DB) *SettlementRepo { return &SettlementRepo{db: db} }

const (
	sellerPaymentCols = `id, seller_id, invoice_id, amount, status, created_at, paid_at`
	adminRequestCols  = `id, seller_payment_id, status, created_at, accepted_at`
)

// CreatePair writes one SellerPayment and the AdminPaymentRequest pointing at it.
func (r *SettlementRepo) CreatePair(ctx context.Context, sp *domain.SellerPayment) (*domain.AdminPaymentRequest, error) {
	now := time.Now().UTC()
	if sp.ID == "" {
		sp.ID = NewID()
	}
	if sp.Status == "" {
		sp.Status = domain.SettlementPending
	}
	sp.CreatedAt = now
	if _, err := r.db.NamedExecContext(ctx, `
	  INSERT INTO seller_payments(`+sellerPaymentCols+`)
	  VALUES(:id, :seller_id, :invoice_id, :amount, :status, :created_at, :paid_at)
	`, sp); err != nil {
		return nil, err
	}

	req := &domain.AdminPaymentRequest{
		ID:            NewID(),
		SellerPayment: sp.ID,
		Status:        domain.RequestPending,
		CreatedAt:     now,
	}
	if _, err := r.db.NamedExecContext(ctx, `
	  INSERT INTO admin_payment_requests(`+adminRequestCols+`)
	  VALUES(:id, :seller_payment_id, :status, :created_at, :accepted_at)
	`, req); err != nil {
		return nil, err
	}
	return req, nil
}

func (r *SettlementRepo) SellerPayment(ctx context.Context, id string) (*domain.SellerPayment, error) {
	var sp domain.SellerPayment
	if err := r.db.GetContext(ctx, &sp, `SELECT `+sellerPaymentCols+` FROM seller_payments WHERE id = ?`, id); err != nil {
		return nil, notFound(err)
	}
	return &sp, nil
}

func (r *SettlementRepo) AdminRequest(ctx context.Context, id string) (*domain.AdminPaymentRequest, error) {
	var req domain.AdminPaymentRequest
	if err := r.db.GetContext(ctx, &req, `SELECT `+adminRequestCols+` FROM admin_payment_requests WHERE id = ?`, id); err != nil {
		return nil, notFound(err)
	}
	return &req, nil
}

// RequestForSellerPayment finds the admin request tracking a seller payment.
func (r *SettlementRepo) RequestForSellerPayment(ctx context.Context, spID string) (*domain.AdminPaymentRequest, error) {
	var req domain.AdminPaymentRequest
	if err := r.db.GetContext(ctx, &req, `
	  SELECT `+adminRequestCols+` FROM admin_payment_requests
	  WHERE seller_payment_id = ? ORDER BY created_at LIMIT 1`, spID); err != nil {
		return nil, notFound(err)
	}
	return &req, nil
}

func (r *SettlementRepo) ListSellerPayments(ctx context.Context) ([]domain.SellerPayment, error) {
	out := []domain.SellerPayment{}
	err := r.db.SelectContext(ctx, &out, `SELECT `+sellerPaymentCols+` FROM seller_payments ORDER BY created_at DESC, id DESC`)
	return out, err
}

func (r *SettlementRepo) ListSellerPaymentsBySeller(ctx context.Context, sellerID string) ([]domain.SellerPayment, error) {
	out := []domain.SellerPayment{}
	err := r.db.SelectContext(ctx, &out, `
	  SELECT `+sellerPaymentCols+` FROM seller_payments
	  WHERE seller_id = ? ORDER BY created_at DESC, id DESC`, sellerID)
	return out, err
}

func (r *SettlementRepo) ListAdminRequests(ctx context.Context) ([]domain.AdminPaymentRequest, error) {
	out := []domain.AdminPaymentRequest{}
	err := r.db.SelectContext(ctx, &out, `SELECT `+adminRequestCols+` FROM admin_payment_requests ORDER BY created_at DESC, id DESC`)
	return out, err
}

// SellerPaymentsByStatus returns all seller payments in one state.
func (r *SettlementRepo) SellerPaymentsByStatus(ctx context.Context, status string) ([]domain.SellerPayment, error) {
	out := []domain.SellerPayment{}
	err := r.db.SelectContext(ctx, &out, `SELECT `+sellerPaymentCols+` FROM seller_payments WHERE status = ?`, status)
	return out, err
}

func (r *SettlementRepo) SellerPaymentsByIDs(ctx context.Context, ids []string) (map[string]*domain.SellerPayment, error) {
	out := map[string]*domain.SellerPayment{}
	if len(ids) == 0 {
		return out, nil
	}
	q, args, err := sqlx.In(`SELECT `+sellerPaymentCols+` FROM seller_payments WHERE id IN (?)`, ids)
	if err != nil {
		return nil, err
	}
	var rows []domain.SellerPayment
	if err := r.db.SelectContext(ctx, &rows, q, args...); err != nil {
		return nil, err
	}
	for i := range rows {
		out[rows[i].ID] = &rows[i]
	}
	return out, nil
}

// AcceptSellerPayment marks a seller payment paid and its admin request
// accepted in one transaction. Re-accepting rewrites the timestamps.
func (r *SettlementRepo) AcceptSellerPayment(ctx context.Context, spID string) (*domain.SellerPayment, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback() }()

	now := time.Now().UTC()
	if err := markPaid(ctx, tx, spID, now); err != nil {
		return nil, err
	}
	if _, err := tx.ExecContext(ctx, `
	  UPDATE admin_payment_requests SET status = ?, accepted_at = ?
	  WHERE seller_payment_id = ?`, domain.RequestAccepted, now, spID); err != nil {
		return nil, err
	}

	var sp domain.SellerPayment
	if err := tx.GetContext(ctx, &sp, `SELECT `+sellerPaymentCols+` FROM seller_payments WHERE id = ?`, spID); err != nil {
		return nil, notFound(err)
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return &sp, nil
}

// AcceptAdminRequest marks an admin request accepted and its seller payment
// paid in one transaction.
func (r *SettlementRepo) AcceptAdminRequest(ctx context.Context, reqID string) (*domain.AdminPaymentRequest, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback() }()

	var req domain.AdminPaymentRequest
	if err := tx.GetContext(ctx, &req, `SELECT `+adminRequestCols+` FROM admin_payment_requests WHERE id = ?`, reqID); err != nil {
		return nil, notFound(err)
	}
	now := time.Now().UTC()
	if _, err := tx.ExecContext(ctx, `
	  UPDATE admin_payment_requests SET status = ?, accepted_at = ? WHERE id = ?`,
		domain.RequestAccepted, now, reqID); err != nil {
		return nil, err
	}
	// A request whose seller payment is gone is still accepted.
	if err := markPaid(ctx, tx, req.SellerPayment, now); err != nil && err != ErrNotFound {
		return nil, err
	}
	req.Status = domain.RequestAccepted
	req.AcceptedAt = &now
	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return &req, nil
}

func markPaid(ctx context.Context, ex execer, spID string, at time.Time) error {
	res, err := ex.ExecContext(ctx, `UPDATE seller_payments SET status = ?, paid_at = ? WHERE id = ?`,
		domain.SettlementPaid, at, spID)
	return affectedOrNotFound(res, err)
}
