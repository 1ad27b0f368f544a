package services

import (
	"context"
	"strings"

	"medimart/internal/domain"
	"medimart/internal/repos"
)

type BannerService struct {
	Banners *repos.BannerRepo
	Prods   *repos.ProductRepo
	Users   *repos.UserRepo
}

func NewBannerService(banners *repos.BannerRepo, prods *repos.ProductRepo, users *repos.UserRepo) *BannerService {
	return &BannerService{Banners: banners, Prods: prods, Users: users}
}

// BannerView is a banner with product and seller populated.
type BannerView struct {
	domain.Banner
	Product *domain.Product `json:"product"`
	Seller  *domain.UserRef `json:"seller"`
}

func (s *BannerService) populate(ctx context.Context, list []domain.Banner) ([]BannerView, error) {
	var pids, uids []string
	for _, b := range list {
		pids = append(pids, b.Product)
		uids = append(uids, b.Seller)
	}
	prods, err := s.Prods.ByIDs(ctx, uniq(pids))
	if err != nil {
		return nil, err
	}
	users, err := s.Users.ByIDs(ctx, uniq(uids))
	if err != nil {
		return nil, err
	}
	out := make([]BannerView, 0, len(list))
	for _, b := range list {
		v := BannerView{Banner: b, Product: prods[b.Product]}
		if u, ok := users[b.Seller]; ok {
			v.Seller = u.Ref()
		}
		out = append(out, v)
	}
	return out, nil
}

// Live lists banners shown to shoppers, optionally for one seller.
func (s *BannerService) Live(ctx context.Context, seller string) ([]BannerView, error) {
	list, err := s.Banners.List(ctx, repos.BannerFilter{Seller: seller, Status: domain.BannerLive})
	if err != nil {
		return nil, err
	}
	return s.populate(ctx, list)
}

func (s *BannerService) All(ctx context.Context, seller string) ([]BannerView, error) {
	list, err := s.Banners.List(ctx, repos.BannerFilter{Seller: seller})
	if err != nil {
		return nil, err
	}
	return s.populate(ctx, list)
}

// Ads lists every banner unpopulated.
func (s *BannerService) Ads(ctx context.Context) ([]domain.Banner, error) {
	return s.Banners.List(ctx, repos.BannerFilter{})
}

type BannerInput struct {
	Title       string `json:"title"`
	Image       string `json:"image"`
	Description string `json:"description"`
	Product     string `json:"product"`
	Seller      string `json:"seller"`
	Slide       bool   `json:"slide"`
	Status      string `json:"status"`
}

// Create files a banner for actor. Admin banners go live on the slider at
// once; seller banners wait as pending requests.
func (s *BannerService) Create(ctx context.Context, actor *domain.User, in BannerInput) (*domain.Banner, error) {
	if strings.TrimSpace(in.Title) == "" || in.Image == "" || in.Description == "" {
		return nil, fail(ErrValidation, "Title, image, and description are required.")
	}
	if in.Product != "" && !repos.ValidID(in.Product) {
		return nil, fail(ErrValidation, "invalid product id")
	}
	b := &domain.Banner{
		Title:       in.Title,
		Image:       in.Image,
		Description: in.Description,
		Product:     in.Product,
		Seller:      actor.ID,
		Status:      domain.BannerPending,
	}
	if actor.Role == domain.RoleAdmin {
		b.Slide, b.Status = true, domain.BannerLive
	}
	if err := s.Banners.Create(ctx, b); err != nil {
		return nil, err
	}
	return b, nil
}

// CreateAd stores an admin-authored banner as given.
func (s *BannerService) CreateAd(ctx context.Context, in BannerInput) (*domain.Banner, error) {
	if strings.TrimSpace(in.Title) == "" {
		return nil, fail(ErrValidation, "title is required")
	}
	switch in.Status {
	case "":
		in.Status = domain.BannerPending
	case domain.BannerPending, domain.BannerLive:
	default:
		return nil, fail(ErrValidation, "invalid status %q", in.Status)
	}
	b := &domain.Banner{
		Title:       in.Title,
		Image:       in.Image,
		Description: in.Description,
		Product:     in.Product,
		Seller:      in.Seller,
		Slide:       in.Slide,
		Status:      in.Status,
	}
	if err := s.Banners.Create(ctx, b); err != nil {
		return nil, err
	}
	return b, nil
}

func (s *BannerService) get(ctx context.Context, id string) (*domain.Banner, error) {
	if err := checkID(id, "Banner"); err != nil {
		return nil, err
	}
	b, err := s.Banners.Get(ctx, id)
	return b, notFoundAs(err, "Banner")
}

// Toggle flips the slider flag; status follows it.
func (s *BannerService) Toggle(ctx context.Context, id string) (*domain.Banner, error) {
	b, err := s.get(ctx, id)
	if err != nil {
		return nil, err
	}
	b.Slide = !b.Slide
	b.Status = domain.BannerPending
	if b.Slide {
		b.Status = domain.BannerLive
	}
	if err := s.Banners.Save(ctx, b); err != nil {
		return nil, err
	}
	return b, nil
}

// ownsPending reports whether a non-admin may change b.
func ownsPending(actor *domain.User, b *domain.Banner) bool {
	return b.Seller != "" && b.Seller == actor.ID && b.Status == domain.BannerPending
}

// Edit updates non-empty fields. Admins may edit only banners they created;
// sellers only their own pending requests.
func (s *BannerService) Edit(ctx context.Context, actor *domain.User, id string, in BannerInput) (*domain.Banner, error) {
	b, err := s.get(ctx, id)
	if err != nil {
		return nil, err
	}
	if actor.Role == domain.RoleAdmin {
		if b.Seller == "" || b.Seller != actor.ID {
			return nil, fail(ErrForbidden, "You can only edit banners you created.")
		}
	} else if !ownsPending(actor, b) {
		return nil, fail(ErrForbidden, "You can only edit your own pending ad requests.")
	}
	if in.Title != "" {
		b.Title = in.Title
	}
	if in.Image != "" {
		b.Image = in.Image
	}
	if in.Description != "" {
		b.Description = in.Description
	}
	if err := s.Banners.Save(ctx, b); err != nil {
		return nil, err
	}
	return b, nil
}

// Delete removes a banner. Admins may delete any; sellers only their own pending requests.
func (s *BannerService) Delete(ctx context.Context, actor *domain.User, id string) error {
	b, err := s.get(ctx, id)
	if err != nil {
		return err
	}
	if actor.Role != domain.RoleAdmin && !ownsPending(actor, b) {
		return fail(ErrForbidden, "You can only delete your own pending ad requests.")
	}
	return notFoundAs(s.Banners.Delete(ctx, id), "Banner")
}
