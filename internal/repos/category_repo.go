package repos

import (
	"context"

	"medimart/internal/domain"

	"github.com/jmoiron/sqlx"
)

type CategoryRepo struct{ db *sqlx.DB }

func NewCategoryRepo(db *sqlx.DB) *CategoryRepo { return &CategoryRepo{db: db} }

// List returns every category with its product count computed at read time.
func (r *CategoryRepo) List(ctx context.Context) ([]domain.Category, error) {
	out := []domain.Category{}
	err := r.db.SelectContext(ctx, &out, `
	  SELECT c.id, c.name, c.image,
	    (SELECT COUNT(*) FROM products p WHERE p.category_id = c.id) AS medicine_count
	  FROM categories c
	  ORDER BY c.name
	`)
	return out, err
}

func (r *CategoryRepo) Get(ctx context.Context, id string) (*domain.Category, error) {
	var c domain.Category
	if err := r.db.GetContext(ctx, &c, `SELECT id, name, image FROM categories WHERE id = ?`, id); err != nil {
		return nil, notFound(err)
	}
	return &c, nil
}

// ByIDs loads categories keyed by id; unknown ids are skipped.
func (r *CategoryRepo) ByIDs(ctx context.Context, ids []string) (map[string]*domain.Category, error) {
	out := map[string]*domain.Category{}
	if len(ids) == 0 {
		return out, nil
	}
	q, args, err := sqlx.In(`SELECT id, name, image FROM categories WHERE id IN (?)`, ids)
	if err != nil {
		return nil, err
	}
	var rows []domain.Category
	if err := r.db.SelectContext(ctx, &rows, q, args...); err != nil {
		return nil, err
	}
	for i := range rows {
		out[rows[i].ID] = &rows[i]
	}
	return out, nil
}

func (r *CategoryRepo) Create(ctx context.Context, c *domain.Category) error {
	if c.ID == "" {
		c.ID = NewID()
	}
	_, err := r.db.ExecContext(ctx, `INSERT INTO categories(id, name, image) VALUES(?, ?, ?)`, c.ID, c.Name, c.Image)
	if isUniqueViolation(err) {
		return ErrDuplicate
	}
	return err
}

func (r *CategoryRepo) Update(ctx context.Context, c *domain.Category) error {
	res, err := r.db.ExecContext(ctx, `UPDATE categories SET name = ?, image = ? WHERE id = ?`, c.Name, c.Image, c.ID)
	if isUniqueViolation(err) {
		return ErrDuplicate
	}
	return affectedOrNotFound(res, err)
}

func (r *CategoryRepo) Delete(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM categories WHERE id = ?`, id)
	return err
}
