package services

import (
	"context"
	"time"

	"medimart/internal/domain"
	"medimart/internal/repos"
)

// ProductRef is a line item's product resolved against the current catalog.
type ProductRef struct {
	ID     string          `json:"_id"`
	Name   string          `json:"name"`
	Price  float64         `json:"price"`
	Seller *domain.UserRef `json:"seller,omitempty"`
}

// ItemView is a line item with its product populated; Product is null when
// the product no longer exists.
type ItemView struct {
	Product   *ProductRef `json:"product"`
	ProductID string      `json:"productId"`
	Quantity  int         `json:"quantity"`
	Price     float64     `json:"price"`
}

type PaymentView struct {
	ID              string          `json:"_id"`
	User            *domain.UserRef `json:"user"`
	Items           []ItemView      `json:"items"`
	Status          string          `json:"status"`
	Amount          float64         `json:"amount"`
	PaymentIntentID string          `json:"paymentIntentId,omitempty"`
	Method          string          `json:"method,omitempty"`
	Date            time.Time       `json:"date"`
}

type InvoiceView struct {
	ID            string          `json:"_id"`
	Payment       string          `json:"payment"`
	InvoiceNumber string          `json:"invoiceNumber"`
	Date          time.Time       `json:"date"`
	User          *domain.UserRef `json:"user"`
	Items         []ItemView      `json:"items"`
	Total         float64         `json:"total"`
	Status        string          `json:"status"`
}

// populator resolves ids in line items and headers to their current records.
type populator struct {
	Users    *repos.UserRepo
	Products *repos.ProductRepo
}

type lookups struct {
	users    map[string]*domain.User
	products map[string]*domain.Product
}

func (l lookups) userRef(id string) *domain.UserRef {
	if u, ok := l.users[id]; ok {
		return u.Ref()
	}
	return nil
}

func (l lookups) items(in domain.LineItems) []ItemView {
	out := make([]ItemView, 0, len(in))
	for _, it := range in {
		v := ItemView{ProductID: it.Product, Quantity: it.Quantity, Price: it.Price}
		if p, ok := l.products[it.Product]; ok {
			v.Product = &ProductRef{ID: p.ID, Name: p.Name, Price: p.Price, Seller: l.userRef(p.Seller)}
		}
		out = append(out, v)
	}
	return out
}

// load fetches every product referenced by items, their sellers and the extra user ids.
func (p populator) load(ctx context.Context, items []domain.LineItems, userIDs ...string) (lookups, error) {
	var pids []string
	for _, li := range items {
		for _, it := range li {
			pids = append(pids, it.Product)
		}
	}
	prods, err := p.Products.ByIDs(ctx, uniq(pids))
	if err != nil {
		return lookups{}, err
	}
	for _, pr := range prods {
		if pr.Seller != "" {
			userIDs = append(userIDs, pr.Seller)
		}
	}
	users, err := p.Users.ByIDs(ctx, uniq(userIDs))
	if err != nil {
		return lookups{}, err
	}
	return lookups{users: users, products: prods}, nil
}

func (p populator) payments(ctx context.Context, list []domain.Payment) ([]PaymentView, error) {
	items := make([]domain.LineItems, 0, len(list))
	uids := make([]string, 0, len(list))
	for _, pay := range list {
		items = append(items, pay.Items)
		uids = append(uids, pay.User)
	}
	l, err := p.load(ctx, items, uids...)
	if err != nil {
		return nil, err
	}
	out := make([]PaymentView, 0, len(list))
	for _, pay := range list {
		out = append(out, PaymentView{
			ID:              pay.ID,
			User:            l.userRef(pay.User),
			Items:           l.items(pay.Items),
			Status:          pay.Status,
			Amount:          pay.Amount,
			PaymentIntentID: pay.PaymentIntentID,
			Method:          pay.Method,
			Date:            pay.Date,
		})
	}
	return out, nil
}

func invoiceView(inv *domain.Invoice, l lookups) *InvoiceView {
	return &InvoiceView{
		ID:            inv.ID,
		Payment:       inv.Payment,
		InvoiceNumber: inv.InvoiceNumber,
		Date:          inv.Date,
		User:          l.userRef(inv.User),
		Items:         l.items(inv.Items),
		Total:         inv.Total,
		Status:        inv.Status,
	}
}

func uniq(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if id == "" {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

// hasSellerItem reports whether any item's current product belongs to seller.
func hasSellerItem(items domain.LineItems, prods map[string]*domain.Product, seller string) bool {
	for _, it := range items {
		if p, ok := prods[it.Product]; ok && p.Seller == seller {
			return true
		}
	}
	return false
}
