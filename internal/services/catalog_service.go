package services

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"strings"

	"medimart/internal/domain"
	"medimart/internal/repos"
)

type CatalogService struct {
	Cats  *repos.CategoryRepo
	Prods *repos.ProductRepo
}

func NewCatalogService(cats *repos.CategoryRepo, prods *repos.ProductRepo) *CatalogService {
	return &CatalogService{Cats: cats, Prods: prods}
}

// Number accepts a JSON number or a numeric string.
type Number float64

func (n *Number) UnmarshalJSON(b []byte) error {
	s := strings.Trim(string(b), `"`)
	if s == "" || s == "null" {
		*n = 0
		return nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return fail(ErrValidation, "invalid number %q", s)
	}
	*n = Number(f)
	return nil
}

// ProductInput carries product fields from a request; nil means absent.
type ProductInput struct {
	Name         *string `json:"name"`
	Generic      *string `json:"generic"`
	Description  *string `json:"description"`
	Brand        *string `json:"brand"`
	Image        *string `json:"image"`
	Category     *string `json:"category"`
	Company      *string `json:"company"`
	MassUnit     *string `json:"massUnit"`
	Price        *Number `json:"price"`
	Discount     *Number `json:"discount"`
	Stock        *Number `json:"stock"`
	IsAdvertised *bool   `json:"isAdvertised"`
}

// applyEditable copies the fields an owner may change after creation.
func (in ProductInput) applyEditable(p *domain.Product) {
	set := func(dst *string, v *string) {
		if v != nil {
			*dst = *v
		}
	}
	set(&p.Name, in.Name)
	set(&p.Generic, in.Generic)
	set(&p.Description, in.Description)
	set(&p.Image, in.Image)
	set(&p.Category, in.Category)
	set(&p.Company, in.Company)
	set(&p.MassUnit, in.MassUnit)
	if in.Price != nil {
		p.Price = float64(*in.Price)
	}
	if in.Discount != nil {
		p.Discount = float64(*in.Discount)
	}
	if in.Stock != nil {
		p.Stock = int(*in.Stock)
	}
}

func validateProduct(p *domain.Product) error {
	if p.Price < 0 {
		return fail(ErrValidation, "price must not be negative")
	}
	if p.Discount < 0 {
		return fail(ErrValidation, "discount must not be negative")
	}
	if p.Category != "" && !repos.ValidID(p.Category) {
		return fail(ErrValidation, "invalid category id")
	}
	return nil
}

// ProductQuery is a catalog listing request.
type ProductQuery struct {
	repos.ProductFilter
	Page  int
	Limit int
	Sort  string
	Order string
}

type ProductPage struct {
	Products   []domain.Product `json:"products"`
	TotalPages int              `json:"totalPages"`
}

const maxPageSize = 100

func (s *CatalogService) ListProducts(ctx context.Context, q ProductQuery) (ProductPage, error) {
	if q.Page < 1 {
		q.Page = 1
	}
	if q.Limit <= 0 {
		q.Limit = 10
	}
	if q.Limit > maxPageSize {
		q.Limit = maxPageSize
	}
	if q.Sort == "" {
		q.Sort = "createdAt"
	}
	desc := q.Order != "asc"
	products, total, err := s.Prods.Search(ctx, q.ProductFilter, q.Sort, desc, q.Limit, (q.Page-1)*q.Limit)
	if err != nil {
		return ProductPage{}, err
	}
	return ProductPage{Products: products, TotalPages: (total + q.Limit - 1) / q.Limit}, nil
}

func (s *CatalogService) Discounted(ctx context.Context, limit int) ([]domain.Product, error) {
	if limit <= 0 {
		limit = 10
	}
	return s.Prods.Discounted(ctx, limit)
}

func (s *CatalogService) ByCategory(ctx context.Context, catID string) ([]domain.Product, error) {
	return s.Prods.ByCategory(ctx, catID)
}

func (s *CatalogService) GetProduct(ctx context.Context, id string) (*domain.Product, error) {
	if err := checkID(id, "Medicine"); err != nil {
		return nil, err
	}
	p, err := s.Prods.Get(ctx, id)
	return p, notFoundAs(err, "Medicine")
}

type CategoryRef struct {
	ID   string `json:"_id"`
	Name string `json:"name"`
}

// MedicineView is a product with its category populated.
type MedicineView struct {
	domain.Product
	Category *CategoryRef `json:"category"`
}

func (s *CatalogService) ListMedicines(ctx context.Context) ([]MedicineView, error) {
	prods, err := s.Prods.All(ctx)
	if err != nil {
		return nil, err
	}
	ids := make([]string, 0, len(prods))
	for _, p := range prods {
		ids = append(ids, p.Category)
	}
	cats, err := s.Cats.ByIDs(ctx, uniq(ids))
	if err != nil {
		return nil, err
	}
	out := make([]MedicineView, 0, len(prods))
	for _, p := range prods {
		v := MedicineView{Product: p}
		if c, ok := cats[p.Category]; ok {
			v.Category = &CategoryRef{ID: c.ID, Name: c.Name}
		}
		out = append(out, v)
	}
	return out, nil
}

// CreateProduct stamps the requester as seller.
func (s *CatalogService) CreateProduct(ctx context.Context, seller *domain.User, in ProductInput) (*domain.Product, error) {
	p := &domain.Product{Seller: seller.ID}
	in.applyEditable(p)
	if in.Brand != nil {
		p.Brand = *in.Brand
	}
	if in.IsAdvertised != nil {
		p.IsAdvertised = *in.IsAdvertised
	}
	if err := validateProduct(p); err != nil {
		return nil, err
	}
	if err := s.Prods.Create(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

// UpdateProduct applies the editable fields. Admins may edit any product;
// everyone else only sees their own, so a stranger's product is NotFound.
func (s *CatalogService) UpdateProduct(ctx context.Context, actor *domain.User, id string, in ProductInput) (*domain.Product, error) {
	if err := checkID(id, "Medicine"); err != nil {
		return nil, err
	}
	var p *domain.Product
	var err error
	if actor.Role == domain.RoleAdmin {
		p, err = s.Prods.Get(ctx, id)
	} else {
		p, err = s.Prods.GetOwned(ctx, id, actor.ID)
	}
	if err != nil {
		if errors.Is(err, repos.ErrNotFound) {
			return nil, fail(ErrNotFound, "Medicine not found or not yours")
		}
		return nil, err
	}
	in.applyEditable(p)
	if err := validateProduct(p); err != nil {
		return nil, err
	}
	if err := s.Prods.Save(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

// DeleteProduct removes one of the seller's own products.
func (s *CatalogService) DeleteProduct(ctx context.Context, seller *domain.User, id string) (*domain.Product, error) {
	if err := checkID(id, "Medicine"); err != nil {
		return nil, err
	}
	p, err := s.Prods.GetOwned(ctx, id, seller.ID)
	if err == nil {
		err = s.Prods.DeleteOwned(ctx, id, seller.ID)
	}
	if errors.Is(err, repos.ErrNotFound) {
		return nil, fail(ErrNotFound, "Medicine not found or not yours")
	}
	if err != nil {
		return nil, err
	}
	return p, nil
}

func (s *CatalogService) ListCategories(ctx context.Context) ([]domain.Category, error) {
	return s.Cats.List(ctx)
}

type CategoryInput struct {
	Name  string `json:"name"`
	Image string `json:"image"`
}

func (in CategoryInput) validate() error {
	if strings.TrimSpace(in.Name) == "" {
		return fail(ErrValidation, "name is required")
	}
	return nil
}

func (s *CatalogService) CreateCategory(ctx context.Context, in CategoryInput) (*domain.Category, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}
	c := &domain.Category{Name: strings.TrimSpace(in.Name), Image: in.Image}
	if err := s.Cats.Create(ctx, c); err != nil {
		return nil, categoryErr(err)
	}
	return c, nil
}

func (s *CatalogService) UpdateCategory(ctx context.Context, id string, in CategoryInput) (*domain.Category, error) {
	if err := checkID(id, "Category"); err != nil {
		return nil, err
	}
	if err := in.validate(); err != nil {
		return nil, err
	}
	c := &domain.Category{ID: id, Name: strings.TrimSpace(in.Name), Image: in.Image}
	if err := s.Cats.Update(ctx, c); err != nil {
		return nil, categoryErr(err)
	}
	return c, nil
}

func (s *CatalogService) DeleteCategory(ctx context.Context, id string) error {
	return s.Cats.Delete(ctx, id)
}

func categoryErr(err error) error {
	switch {
	case errors.Is(err, repos.ErrDuplicate):
		return fail(ErrValidation, "Category name already exists")
	case errors.Is(err, repos.ErrNotFound):
		return fail(ErrNotFound, "Category not found")
	}
	return err
}

var _ json.Unmarshaler = (*Number)(nil)
