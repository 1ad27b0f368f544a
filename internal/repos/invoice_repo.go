package repos

import (
	"context"
	"fmt"
	"time"

	"medimart/internal/domain"

	"github.com/jmoiron/sqlx"
)

type InvoiceRepo struct{ db *sqlx.DB }

func NewInvoiceRepo(db *sqlx.DB) *InvoiceRepo { return &InvoiceRepo{db: db} }

const invoiceCols = `id, payment_id, invoice_number, date, user_id, items, total, status`

// InvoiceNumber formats the human-facing number from a creation instant.
// Two invoices created in the same millisecond share a number.
func InvoiceNumber(t time.Time) string { return fmt.Sprintf("INV-%d", t.UnixMilli()) }

func (r *InvoiceRepo) Create(ctx context.Context, inv *domain.Invoice) error {
	if inv.ID == "" {
		inv.ID = NewID()
	}
	if inv.Date.IsZero() {
		inv.Date = time.Now().UTC()
	}
	if inv.InvoiceNumber == "" {
		inv.InvoiceNumber = InvoiceNumber(inv.Date)
	}
	if inv.Items == nil {
		inv.Items = domain.LineItems{}
	}
	_, err := r.db.NamedExecContext(ctx, `
	  INSERT INTO invoices(`+invoiceCols+`)
	  VALUES(:id, :payment_id, :invoice_number, :date, :user_id, :items, :total, :status)
	`, inv)
	return err
}

func (r *InvoiceRepo) ByID(ctx context.Context, id string) (*domain.Invoice, error) {
	var inv domain.Invoice
	if err := r.db.GetContext(ctx, &inv, `SELECT `+invoiceCols+` FROM invoices WHERE id = ?`, id); err != nil {
		return nil, notFound(err)
	}
	return &inv, nil
}

// ByPayment returns the first invoice stored for a payment, which for a
// checkout is the pending invoice written at intake.
func (r *InvoiceRepo) ByPayment(ctx context.Context, paymentID string) (*domain.Invoice, error) {
	var inv domain.Invoice
	if err := r.db.GetContext(ctx, &inv, `
	  SELECT `+invoiceCols+` FROM invoices WHERE payment_id = ?
	  ORDER BY rowid ASC LIMIT 1`, paymentID); err != nil {
		return nil, notFound(err)
	}
	return &inv, nil
}

func (r *InvoiceRepo) ListByUser(ctx context.Context, userID string) ([]domain.Invoice, error) {
	out := []domain.Invoice{}
	err := r.db.SelectContext(ctx, &out, `SELECT `+invoiceCols+` FROM invoices WHERE user_id = ? ORDER BY date DESC, id DESC`, userID)
	return out, err
}

func (r *InvoiceRepo) ByIDs(ctx context.Context, ids []string) (map[string]*domain.Invoice, error) {
	out := map[string]*domain.Invoice{}
	if len(ids) == 0 {
		return out, nil
	}
	q, args, err := sqlx.In(`SELECT `+invoiceCols+` FROM invoices WHERE id IN (?)`, ids)
	if err != nil {
		return nil, err
	}
	var rows []domain.Invoice
	if err := r.db.SelectContext(ctx, &rows, q, args...); err != nil {
		return nil, err
	}
	for i := range rows {
		out[rows[i].ID] = &rows[i]
	}
	return out, nil
}
