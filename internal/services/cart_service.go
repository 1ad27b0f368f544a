package services

import (
	"context"
	"time"

	"medimart/internal/domain"
	"medimart/internal/repos"
)

type CartService struct {
	Carts *repos.CartRepo
	Prods *repos.ProductRepo
}

func NewCartService(carts *repos.CartRepo, prods *repos.ProductRepo) *CartService {
	return &CartService{Carts: carts, Prods: prods}
}

type CartLine struct {
	Product   *domain.Product `json:"product"`
	ProductID string          `json:"productId"`
	Quantity  int             `json:"quantity"`
}

type CartView struct {
	ID        string     `json:"_id,omitempty"`
	User      string     `json:"user,omitempty"`
	Items     []CartLine `json:"items"`
	UpdatedAt time.Time  `json:"updatedAt,omitempty"`
}

func (s *CartService) view(ctx context.Context, c *domain.Cart) (*CartView, error) {
	pids := make([]string, 0, len(c.Items))
	for _, it := range c.Items {
		pids = append(pids, it.Product)
	}
	prods, err := s.Prods.ByIDs(ctx, uniq(pids))
	if err != nil {
		return nil, err
	}
	v := &CartView{ID: c.ID, User: c.User, Items: make([]CartLine, 0, len(c.Items)), UpdatedAt: c.UpdatedAt}
	for _, it := range c.Items {
		v.Items = append(v.Items, CartLine{Product: prods[it.Product], ProductID: it.Product, Quantity: it.Quantity})
	}
	return v, nil
}

// View returns the user's cart with products populated; an absent cart is empty.
func (s *CartService) View(ctx context.Context, userID string) (*CartView, error) {
	c, err := s.Carts.ByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	return s.view(ctx, c)
}

// Save replaces the cart contents wholesale.
func (s *CartService) Save(ctx context.Context, userID string, items domain.CartItems) (*domain.Cart, error) {
	for _, it := range items {
		if !repos.ValidID(it.Product) {
			return nil, fail(ErrValidation, "invalid product id %q", it.Product)
		}
		if it.Quantity < 1 {
			return nil, fail(ErrValidation, "quantity must be at least 1")
		}
	}
	return s.Carts.Replace(ctx, userID, items)
}

func (s *CartService) Clear(ctx context.Context, userID string) error {
	return s.Carts.Clear(ctx, userID)
}
