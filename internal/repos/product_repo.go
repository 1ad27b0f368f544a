package repos

import (
	"context"
	"strings"
	"time"

	"medimart/internal/domain"

	"github.com/jmoiron/sqlx"
)

type ProductRepo struct{ db *sqlx.DB }

func NewProductRepo(db *sqlx.DB) *ProductRepo { return &ProductRepo{db: db} }

const productCols = `id, name, generic, description, brand, image, category_id, company, mass_unit,
    price, discount, seller_id, stock, is_advertised, created_at`

// ProductFilter narrows a catalog listing. Text fields are case-insensitive substrings.
type ProductFilter struct {
	Name         string
	Generic      string
	Company      string
	DiscountOnly bool
}

// sortColumns maps API sort keys to columns; anything else falls back to created_at.
var sortColumns = map[string]string{
	"createdAt": "created_at",
	"name":      "name",
	"price":     "price",
	"discount":  "discount",
	"stock":     "stock",
	"company":   "company",
	"generic":   "generic",
}

func (f ProductFilter) where() (string, []any) {
	where := []string{"1=1"}
	args := []any{}
	like := func(col, v string) {
		if v != "" {
			where = append(where, "LOWER("+col+") LIKE ?")
			args = append(args, "%"+strings.ToLower(v)+"%")
		}
	}
	like("name", f.Name)
	like("generic", f.Generic)
	like("company", f.Company)
	if f.DiscountOnly {
		where = append(where, "discount > 0")
	}
	return strings.Join(where, " AND "), args
}

// Search returns one page of matching products and the total match count.
func (r *ProductRepo) Search(ctx context.Context, f ProductFilter, sort string, desc bool, limit, offset int) ([]domain.Product, int, error) {
	where, args := f.where()

	var total int
	if err := r.db.GetContext(ctx, &total, `SELECT COUNT(*) FROM products WHERE `+where, args...); err != nil {
		return nil, 0, err
	}

	col, ok := sortColumns[sort]
	if !ok {
		col = "created_at"
	}
	dir := "ASC"
	if desc {
		dir = "DESC"
	}
	out := []domain.Product{}
	err := r.db.SelectContext(ctx, &out, `
	  SELECT `+productCols+`
	  FROM products
	  WHERE `+where+`
	  ORDER BY `+col+` `+dir+`, id `+dir+`
	  LIMIT ? OFFSET ?`, append(args, limit, offset)...)
	return out, total, err
}

func (r *ProductRepo) All(ctx context.Context) ([]domain.Product, error) {
	out := []domain.Product{}
	err := r.db.SelectContext(ctx, &out, `SELECT `+productCols+` FROM products ORDER BY created_at DESC, id DESC`)
	return out, err
}

func (r *ProductRepo) ByCategory(ctx context.Context, catID string) ([]domain.Product, error) {
	out := []domain.Product{}
	err := r.db.SelectContext(ctx, &out, `SELECT `+productCols+` FROM products WHERE category_id = ? ORDER BY created_at DESC, id DESC`, catID)
	return out, err
}

// Discounted lists products with a discount, largest first.
func (r *ProductRepo) Discounted(ctx context.Context, limit int) ([]domain.Product, error) {
	out := []domain.Product{}
	err := r.db.SelectContext(ctx, &out, `
	  SELECT `+productCols+` FROM products
	  WHERE discount > 0
	  ORDER BY discount DESC, created_at DESC
	  LIMIT ?`, limit)
	return out, err
}

func (r *ProductRepo) Get(ctx context.Context, id string) (*domain.Product, error) {
	var p domain.Product
	if err := r.db.GetContext(ctx, &p, `SELECT `+productCols+` FROM products WHERE id = ?`, id); err != nil {
		return nil, notFound(err)
	}
	return &p, nil
}

// GetOwned only matches when the product belongs to seller.
func (r *ProductRepo) GetOwned(ctx context.Context, id, seller string) (*domain.Product, error) {
	var p domain.Product
	if err := r.db.GetContext(ctx, &p, `SELECT `+productCols+` FROM products WHERE id = ? AND seller_id = ?`, id, seller); err != nil {
		return nil, notFound(err)
	}
	return &p, nil
}

// ByIDs loads products keyed by id; unknown ids are skipped.
func (r *ProductRepo) ByIDs(ctx context.Context, ids []string) (map[string]*domain.Product, error) {
	out := map[string]*domain.Product{}
	if len(ids) == 0 {
		return out, nil
	}
	q, args, err := sqlx.In(`SELECT `+productCols+` FROM products WHERE id IN (?)`, ids)
	if err != nil {
		return nil, err
	}
	var rows []domain.Product
	if err := r.db.SelectContext(ctx, &rows, q, args...); err != nil {
		return nil, err
	}
	for i := range rows {
		out[rows[i].ID] = &rows[i]
	}
	return out, nil
}

func (r *ProductRepo) Create(ctx context.Context, p *domain.Product) error {
	if p.ID == "" {
		p.ID = NewID()
	}
	if p.CreatedAt.IsZero() {
		p.CreatedAt = time.Now().UTC()
	}
	_, err := r.db.NamedExecContext(ctx, `
	  INSERT INTO products(`+productCols+`)
	  VALUES(:id, :name, :generic, :description, :brand, :image, :category_id, :company, :mass_unit,
	    :price, :discount, :seller_id, :stock, :is_advertised, :created_at)
	`, p)
	return err
}

// Save rewrites the editable columns; seller and created_at are kept.
func (r *ProductRepo) Save(ctx context.Context, p *domain.Product) error {
	res, err := r.db.NamedExecContext(ctx, `
	  UPDATE products SET name=:name, generic=:generic, description=:description, brand=:brand,
	    image=:image, category_id=:category_id, company=:company, mass_unit=:mass_unit,
	    price=:price, discount=:discount, stock=:stock, is_advertised=:is_advertised
	  WHERE id=:id
	`, p)
	return affectedOrNotFound(res, err)
}

// DeleteOwned removes the product only when it belongs to seller.
func (r *ProductRepo) DeleteOwned(ctx context.Context, id, seller string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM products WHERE id = ? AND seller_id = ?`, id, seller)
	return affectedOrNotFound(res, err)
}
