package repos

import (
	"context"
	"time"

	"medimart/internal/domain"

	"github.com/jmoiron/sqlx"
)

type PaymentRepo struct{ db *sqlx.DB }

func NewPaymentRepo(db *sqlx.DB) *PaymentRepo { return &PaymentRepo{db: db} }

const paymentCols = `id, user_id, items, status, amount, payment_intent_id, method, date`

// Create inserts a payment header with its line items.
func (r *PaymentRepo) Create(ctx context.Context, p *domain.Payment) error {
	if p.ID == "" {
		p.ID = NewID()
	}
	if p.Date.IsZero() {
		p.Date = time.Now().UTC()
	}
	if p.Items == nil {
		p.Items = domain.LineItems{}
	}
	_, err := r.db.NamedExecContext(ctx, `
	  INSERT INTO payments(`+paymentCols+`)
	  VALUES(:id, :user_id, :items, :status, :amount, :payment_intent_id, :method, :date)
	`, p)
	return err
}

func (r *PaymentRepo) Get(ctx context.Context, id string) (*domain.Payment, error) {
	var p domain.Payment
	if err := r.db.GetContext(ctx, &p, `SELECT `+paymentCols+` FROM payments WHERE id = ?`, id); err != nil {
		return nil, notFound(err)
	}
	return &p, nil
}

// List returns every payment, newest first.
func (r *PaymentRepo) List(ctx context.Context) ([]domain.Payment, error) {
	out := []domain.Payment{}
	err := r.db.SelectContext(ctx, &out, `SELECT `+paymentCols+` FROM payments ORDER BY date DESC, id DESC`)
	return out, err
}

// ListByUser returns the payments made by one local user id.
func (r *PaymentRepo) ListByUser(ctx context.Context, userID string) ([]domain.Payment, error) {
	out := []domain.Payment{}
	err := r.db.SelectContext(ctx, &out, `SELECT `+paymentCols+` FROM payments WHERE user_id = ? ORDER BY date DESC, id DESC`, userID)
	return out, err
}

// ListBetween filters on date; a zero bound is open.
func (r *PaymentRepo) ListBetween(ctx context.Context, from, to time.Time) ([]domain.Payment, error) {
	all, err := r.List(ctx)
	if err != nil {
		return nil, err
	}
	out := all[:0]
	for _, p := range all {
		if !from.IsZero() && p.Date.Before(from) {
			continue
		}
		if !to.IsZero() && p.Date.After(to) {
			continue
		}
		out = append(out, p)
	}
	return out, nil
}

// ListByStatus returns payments in one lifecycle state.
func (r *PaymentRepo) ListByStatus(ctx context.Context, status string) ([]domain.Payment, error) {
	out := []domain.Payment{}
	err := r.db.SelectContext(ctx, &out, `SELECT `+paymentCols+` FROM payments WHERE status = ? ORDER BY date DESC`, status)
	return out, err
}

func (r *PaymentRepo) UpdateStatus(ctx context.Context, id, status string) error {
	res, err := r.db.ExecContext(ctx, `UPDATE payments SET status = ? WHERE id = ?`, status, id)
	return affectedOrNotFound(res, err)
}

func (r *PaymentRepo) Count(ctx context.Context) (int, error) {
	var n int
	err := r.db.GetContext(ctx, &n, `SELECT COUNT(*) FROM payments`)
	return n, err
}
