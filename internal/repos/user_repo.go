package repos

import (
	"context"
	"time"

	"medimart/internal/domain"

	"github.com/jmoiron/sqlx"
)

type UserRepo struct{ DB *sqlx.DB }

func NewUserRepo(db *sqlx.DB) *UserRepo { return &UserRepo{DB: db} }

const userCols = `id,firebase_uid,username,email,role,photo_url,is_active,seller_requested,created_at,updated_at`

func (r *UserRepo) get(ctx context.Context, where string, args ...any) (*domain.User, error) {
	var u domain.User
	if err := r.DB.GetContext(ctx, &u, `SELECT `+userCols+` FROM users WHERE `+where, args...); err != nil {
		return nil, notFound(err)
	}
	return &u, nil
}

func (r *UserRepo) ByFirebaseUID(ctx context.Context, uid string) (*domain.User, error) {
	return r.get(ctx, `firebase_uid=?`, uid)
}

func (r *UserRepo) ByID(ctx context.Context, id string) (*domain.User, error) {
	return r.get(ctx, `id=?`, id)
}

// ByUIDOrEmail finds an account that would collide with a new signup.
func (r *UserRepo) ByUIDOrEmail(ctx context.Context, uid, email string) (*domain.User, error) {
	return r.get(ctx, `firebase_uid=? OR LOWER(email)=LOWER(?) LIMIT 1`, uid, email)
}

func (r *UserRepo) Create(ctx context.Context, u *domain.User) error {
	now := time.Now().UTC()
	if u.ID == "" {
		u.ID = NewID()
	}
	if u.Role == "" {
		u.Role = domain.RoleUser
	}
	u.CreatedAt, u.UpdatedAt = now, now
	_, err := r.DB.NamedExecContext(ctx, `
		INSERT INTO users(`+userCols+`)
		VALUES(:id,:firebase_uid,:username,:email,:role,:photo_url,:is_active,:seller_requested,:created_at,:updated_at)
	`, u)
	if isUniqueViolation(err) {
		return ErrDuplicate
	}
	return err
}

// Update writes every mutable column; firebase_uid is never rewritten.
func (r *UserRepo) Update(ctx context.Context, u *domain.User) error {
	u.UpdatedAt = time.Now().UTC()
	res, err := r.DB.NamedExecContext(ctx, `
		UPDATE users SET username=:username, email=:email, role=:role, photo_url=:photo_url,
		  is_active=:is_active, seller_requested=:seller_requested, updated_at=:updated_at
		WHERE id=:id
	`, u)
	if isUniqueViolation(err) {
		return ErrDuplicate
	}
	return affectedOrNotFound(res, err)
}

func (r *UserRepo) List(ctx context.Context) ([]domain.User, error) {
	out := []domain.User{}
	err := r.DB.SelectContext(ctx, &out, `SELECT `+userCols+` FROM users ORDER BY created_at`)
	return out, err
}

// ListSellerRequests returns plain users waiting for seller approval.
func (r *UserRepo) ListSellerRequests(ctx context.Context) ([]domain.User, error) {
	out := []domain.User{}
	err := r.DB.SelectContext(ctx, &out, `SELECT `+userCols+` FROM users WHERE seller_requested=1 AND role='user' ORDER BY created_at`)
	return out, err
}

func (r *UserRepo) Count(ctx context.Context) (int, error) {
	var n int
	err := r.DB.GetContext(ctx, &n, `SELECT COUNT(*) FROM users`)
	return n, err
}

func (r *UserRepo) CountByRole(ctx context.Context, role string) (int, error) {
	var n int
	err := r.DB.GetContext(ctx, &n, `SELECT COUNT(*) FROM users WHERE role=?`, role)
	return n, err
}

// ByIDs loads users keyed by id; unknown ids are skipped.
func (r *UserRepo) ByIDs(ctx context.Context, ids []string) (map[string]*domain.User, error) {
	out := map[string]*domain.User{}
	if len(ids) == 0 {
		return out, nil
	}
	q, args, err := sqlx.In(`SELECT `+userCols+` FROM users WHERE id IN (?)`, ids)
	if err != nil {
		return nil, err
	}
	var rows []domain.User
	if err := r.DB.SelectContext(ctx, &rows, q, args...); err != nil {
		return nil, err
	}
	for i := range rows {
		out[rows[i].ID] = &rows[i]
	}
	return out, nil
}
