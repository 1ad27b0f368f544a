package repos

import (
	"context"

	"medimart/internal/domain"

	"github.com/jmoiron/sqlx"
)

type BannerRepo struct{ db *sqlx.DB }

func NewBannerRepo(db *sqlx.DB) *BannerRepo { return &BannerRepo{db: db} }

const bannerCols = `id, title, image, description, product_id, seller_id, slide, status`

// BannerFilter selects banners; empty fields match everything.
type BannerFilter struct {
	Seller string
	Status string
}

func (r *BannerRepo) List(ctx context.Context, f BannerFilter) ([]domain.Banner, error) {
	q := `SELECT ` + bannerCols + ` FROM banners WHERE 1=1`
	args := []any{}
	if f.Seller != "" {
		q += ` AND seller_id = ?`
		args = append(args, f.Seller)
	}
	if f.Status != "" {
		q += ` AND status = ?`
		args = append(args, f.Status)
	}
	out := []domain.Banner{}
	err := r.db.SelectContext(ctx, &out, q+` ORDER BY rowid DESC`, args...)
	return out, err
}

func (r *BannerRepo) Get(ctx context.Context, id string) (*domain.Banner, error) {
	var b domain.Banner
	if err := r.db.GetContext(ctx, &b, `SELECT `+bannerCols+` FROM banners WHERE id = ?`, id); err != nil {
		return nil, notFound(err)
	}
	return &b, nil
}

func (r *BannerRepo) Create(ctx context.Context, b *domain.Banner) error {
	if b.ID == "" {
		b.ID = NewID()
	}
	if b.Status == "" {
		b.Status = domain.BannerPending
	}
	_, err := r.db.NamedExecContext(ctx, `
	  INSERT INTO banners(`+bannerCols+`)
	  VALUES(:id, :title, :image, :description, :product_id, :seller_id, :slide, :status)
	`, b)
	return err
}

func (r *BannerRepo) Save(ctx context.Context, b *domain.Banner) error {
	res, err := r.db.NamedExecContext(ctx, `
	  UPDATE banners SET title=:title, image=:image, description=:description,
	    product_id=:product_id, slide=:slide, status=:status
	  WHERE id=:id
	`, b)
	return affectedOrNotFound(res, err)
}

func (r *BannerRepo) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM banners WHERE id = ?`, id)
	return affectedOrNotFound(res, err)
}

func (r *BannerRepo) Count(ctx context.Context) (int, error) {
	var n int
	err := r.db.GetContext(ctx, &n, `SELECT COUNT(*) FROM banners`)
	return n, err
}
