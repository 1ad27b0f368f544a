package repos

import (
	"context"
	"time"

	"medimart/internal/domain"

	"github.com/jmoiron/sqlx"
)

type CartRepo struct{ db *sqlx.DB }

func NewCartRepo(db *sqlx.DB) *CartRepo { return &CartRepo{db: db} }

// ByUser returns the user's cart, or an empty unsaved cart if none exists.
func (r *CartRepo) ByUser(ctx context.Context, userID string) (*domain.Cart, error) {
	var c domain.Cart
	err := r.db.GetContext(ctx, &c, `SELECT id, user_id, items, updated_at FROM carts WHERE user_id = ?`, userID)
	if err != nil {
		if notFound(err) == ErrNotFound {
			return &domain.Cart{User: userID, Items: domain.CartItems{}}, nil
		}
		return nil, err
	}
	if c.Items == nil {
		c.Items = domain.CartItems{}
	}
	return &c, nil
}

// Replace overwrites the user's cart items, creating the cart on first use.
func (r *CartRepo) Replace(ctx context.Context, userID string, items domain.CartItems) (*domain.Cart, error) {
	if items == nil {
		items = domain.CartItems{}
	}
	now := time.Now().UTC()
	if _, err := r.db.ExecContext(ctx, `
	  INSERT INTO carts(id, user_id, items, updated_at) VALUES(?, ?, ?, ?)
	  ON CONFLICT(user_id) DO UPDATE SET items = excluded.items, updated_at = excluded.updated_at
	`, NewID(), userID, items, now); err != nil {
		return nil, err
	}
	return r.ByUser(ctx, userID)
}

func (r *CartRepo) Clear(ctx context.Context, userID string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM carts WHERE user_id = ?`, userID)
	return err
}
