package services

import (
	"context"
	"errors"
	"strings"

	"medimart/internal/domain"
	"medimart/internal/repos"
)

// UserService mirrors identity-provider accounts and manages roles.
type UserService struct {
	Users *repos.UserRepo
}

func NewUserService(users *repos.UserRepo) *UserService {
	return &UserService{Users: users}
}

// Authenticate resolves a verified subject to its local user.
func (s *UserService) Authenticate(ctx context.Context, subject string) (*domain.User, error) {
	if subject == "" {
		return nil, fail(ErrUnauthenticated, "Invalid or expired token")
	}
	u, err := s.Users.ByFirebaseUID(ctx, subject)
	if errors.Is(err, repos.ErrNotFound) {
		return nil, fail(ErrNotProvisioned, "User not found in database")
	}
	return u, err
}

// Profile is the client-supplied part of an account.
type Profile struct {
	FirebaseUID string `json:"firebaseUid"`
	Username    string `json:"username"`
	Name        string `json:"name"`
	Email       string `json:"email"`
	PhotoURL    string `json:"photoURL"`
	Role        string `json:"role"`
}

func (p Profile) displayName() string {
	if p.Username != "" {
		return p.Username
	}
	return p.Name
}

// Sync provisions or refreshes the caller's own user from a verified subject.
// A body uid that names someone else is refused.
func (s *UserService) Sync(ctx context.Context, subject string, p Profile) (*domain.User, bool, error) {
	if subject == "" {
		return nil, false, fail(ErrUnauthenticated, "Invalid or expired token")
	}
	if p.FirebaseUID != "" && p.FirebaseUID != subject {
		return nil, false, fail(ErrForbidden, "firebaseUid does not match token")
	}
	u, err := s.Users.ByFirebaseUID(ctx, subject)
	switch {
	case err == nil:
		applyProfile(u, p)
		if err := s.Users.Update(ctx, u); err != nil {
			return nil, false, duplicateEmail(err)
		}
		return u, false, nil
	case errors.Is(err, repos.ErrNotFound):
		if strings.TrimSpace(p.Email) == "" {
			return nil, false, fail(ErrValidation, "email is required")
		}
		u = &domain.User{FirebaseUID: subject, Role: domain.RoleUser, IsActive: true}
		applyProfile(u, p)
		if err := s.Users.Create(ctx, u); err != nil {
			return nil, false, duplicateEmail(err)
		}
		return u, true, nil
	default:
		return nil, false, err
	}
}

func applyProfile(u *domain.User, p Profile) {
	if n := p.displayName(); n != "" {
		u.Username = n
	}
	if p.Email != "" {
		u.Email = p.Email
	}
	if p.PhotoURL != "" {
		u.PhotoURL = p.PhotoURL
	}
}

func duplicateEmail(err error) error {
	if errors.Is(err, repos.ErrDuplicate) {
		return fail(ErrConflict, "email already in use")
	}
	return err
}

// Signup registers a new account as user or seller. An existing uid or email
// yields ErrConflict together with the existing record.
func (s *UserService) Signup(ctx context.Context, p Profile) (*domain.User, error) {
	if p.FirebaseUID == "" || strings.TrimSpace(p.Email) == "" {
		return nil, fail(ErrValidation, "firebaseUid and email are required")
	}
	role := p.Role
	if role == "" {
		role = domain.RoleUser
	}
	if role != domain.RoleUser && role != domain.RoleSeller {
		return nil, fail(ErrValidation, "role must be user or seller")
	}

	existing, err := s.Users.ByUIDOrEmail(ctx, p.FirebaseUID, p.Email)
	if err == nil {
		return existing, fail(ErrConflict, "user already exists")
	}
	if !errors.Is(err, repos.ErrNotFound) {
		return nil, err
	}

	u := &domain.User{FirebaseUID: p.FirebaseUID, Role: role, IsActive: true}
	applyProfile(u, p)
	if err := s.Users.Create(ctx, u); err != nil {
		if errors.Is(err, repos.ErrDuplicate) {
			return nil, fail(ErrConflict, "user already exists")
		}
		return nil, err
	}
	return u, nil
}

// SyncSeller upserts an account as seller. Sellers may only sync themselves.
func (s *UserService) SyncSeller(ctx context.Context, actor *domain.User, p Profile) (*domain.User, bool, error) {
	if p.FirebaseUID == "" {
		return nil, false, fail(ErrValidation, "firebaseUid is required")
	}
	if actor.Role != domain.RoleAdmin && actor.FirebaseUID != p.FirebaseUID {
		return nil, false, fail(ErrForbidden, "cannot sync another account")
	}
	u, err := s.Users.ByFirebaseUID(ctx, p.FirebaseUID)
	switch {
	case err == nil:
		applyProfile(u, p)
		if err := s.Users.Update(ctx, u); err != nil {
			return nil, false, duplicateEmail(err)
		}
		return u, false, nil
	case errors.Is(err, repos.ErrNotFound):
		if strings.TrimSpace(p.Email) == "" {
			return nil, false, fail(ErrValidation, "email is required")
		}
		u = &domain.User{FirebaseUID: p.FirebaseUID, Role: domain.RoleSeller, IsActive: true}
		applyProfile(u, p)
		if err := s.Users.Create(ctx, u); err != nil {
			return nil, false, duplicateEmail(err)
		}
		return u, true, nil
	default:
		return nil, false, err
	}
}

func (s *UserService) List(ctx context.Context) ([]domain.User, error) {
	return s.Users.List(ctx)
}

func (s *UserService) SellerRequests(ctx context.Context) ([]domain.User, error) {
	return s.Users.ListSellerRequests(ctx)
}

type UserCounts struct {
	Customers int `json:"customers"`
	Sellers   int `json:"sellers"`
}

func (s *UserService) Counts(ctx context.Context) (UserCounts, error) {
	var c UserCounts
	var err error
	if c.Customers, err = s.Users.CountByRole(ctx, domain.RoleUser); err != nil {
		return c, err
	}
	c.Sellers, err = s.Users.CountByRole(ctx, domain.RoleSeller)
	return c, err
}

func (s *UserService) ByFirebaseUID(ctx context.Context, uid string) (*domain.User, error) {
	u, err := s.Users.ByFirebaseUID(ctx, uid)
	return u, notFoundAs(err, "User")
}

func (s *UserService) ByID(ctx context.Context, id string) (*domain.User, error) {
	if err := checkID(id, "User"); err != nil {
		return nil, err
	}
	u, err := s.Users.ByID(ctx, id)
	return u, notFoundAs(err, "User")
}

// Lookup tries the identifier as a subject id first, then as a record id.
func (s *UserService) Lookup(ctx context.Context, identifier string) (*domain.User, error) {
	u, err := s.Users.ByFirebaseUID(ctx, identifier)
	if err == nil {
		return u, nil
	}
	if !errors.Is(err, repos.ErrNotFound) {
		return nil, err
	}
	return s.ByID(ctx, identifier)
}

// RequestSeller flags a plain user as wanting the seller role.
func (s *UserService) RequestSeller(ctx context.Context, u *domain.User) (*domain.User, error) {
	if u.Role != domain.RoleUser {
		return nil, fail(ErrValidation, "Already a seller or admin")
	}
	if u.SellerRequested {
		return nil, fail(ErrValidation, "Seller request already pending")
	}
	u.SellerRequested = true
	if err := s.Users.Update(ctx, u); err != nil {
		return nil, err
	}
	return u, nil
}

// ProfilePatch holds optional profile edits; nil fields are left alone.
type ProfilePatch struct {
	Username *string `json:"username"`
	PhotoURL *string `json:"photoURL"`
}

// UpdateProfile lets users edit themselves and admins edit anyone.
func (s *UserService) UpdateProfile(ctx context.Context, actor *domain.User, id string, p ProfilePatch) (*domain.User, error) {
	if actor.ID != id && actor.Role != domain.RoleAdmin {
		return nil, fail(ErrForbidden, "Forbidden")
	}
	u, err := s.ByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if p.Username != nil {
		u.Username = *p.Username
	}
	if p.PhotoURL != nil {
		u.PhotoURL = *p.PhotoURL
	}
	if err := s.Users.Update(ctx, u); err != nil {
		return nil, err
	}
	return u, nil
}

func (s *UserService) SetRole(ctx context.Context, id, role string) (*domain.User, error) {
	if !domain.ValidRole(role) {
		return nil, fail(ErrValidation, "Invalid role")
	}
	return s.mutate(ctx, id, func(u *domain.User) {
		u.Role = role
		if role != domain.RoleUser {
			u.SellerRequested = false
		}
	})
}

func (s *UserService) ApproveSeller(ctx context.Context, id string) (*domain.User, error) {
	return s.mutate(ctx, id, func(u *domain.User) {
		u.Role = domain.RoleSeller
		u.SellerRequested = false
	})
}

func (s *UserService) RejectSeller(ctx context.Context, id string) (*domain.User, error) {
	return s.mutate(ctx, id, func(u *domain.User) { u.SellerRequested = false })
}

func (s *UserService) mutate(ctx context.Context, id string, fn func(*domain.User)) (*domain.User, error) {
	u, err := s.ByID(ctx, id)
	if err != nil {
		return nil, err
	}
	fn(u)
	if err := s.Users.Update(ctx, u); err != nil {
		return nil, err
	}
	return u, nil
}
