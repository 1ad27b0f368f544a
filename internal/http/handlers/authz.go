package handlers

import (
	"errors"
	"strings"

	"medimart/internal/domain"
	"medimart/internal/identity"
	applog "medimart/internal/log"
	"medimart/internal/services"

	"github.com/gofiber/fiber/v2"
)

const (
	localUser    = "user"
	localUserID  = "user_id"
	localSubject = "subject"
	localDev     = "dev"
)

// Gate checks bearer tokens against the identity provider and the local user table.
type Gate struct {
	Verifier identity.Verifier
	Users    *services.UserService
}

// bearer extracts a well-formed JWT-shaped token from the Authorization header.
func bearer(c *fiber.Ctx) (string, bool) {
	h := c.Get(fiber.HeaderAuthorization)
	if !strings.HasPrefix(h, "Bearer ") {
		return "", false
	}
	tok := strings.TrimSpace(strings.TrimPrefix(h, "Bearer "))
	if len(strings.Split(tok, ".")) != 3 {
		return "", false
	}
	return tok, true
}

func unauthorized(c *fiber.Ctx, msg string) error {
	return c.Status(fiber.StatusUnauthorized).JSON(errorBody{Message: msg})
}

// subject returns the verified token subject. On failure it has already
// written the 401 response and ok is false.
func (g *Gate) subject(c *fiber.Ctx) (sub string, ok bool, err error) {
	tok, found := bearer(c)
	if !found {
		applog.Security(c, "auth.token.missing", nil)
		return "", false, unauthorized(c, "No token provided")
	}
	sub, verr := g.Verifier.Verify(c.UserContext(), tok)
	if verr != nil || sub == "" {
		reason := "empty subject"
		if verr != nil {
			reason = verr.Error()
		}
		applog.Security(c, "auth.token.invalid", map[string]any{"reason": reason})
		return "", false, unauthorized(c, "Invalid or expired token")
	}
	return sub, true, nil
}

// VerifyToken attaches only the verified subject; it guards provisioning.
func (g *Gate) VerifyToken() fiber.Handler {
	return func(c *fiber.Ctx) error {
		sub, ok, err := g.subject(c)
		if !ok {
			return err
		}
		c.Locals(localSubject, sub)
		return c.Next()
	}
}

// RequireAuth attaches the local user mirrored for the token's subject.
func (g *Gate) RequireAuth() fiber.Handler {
	return func(c *fiber.Ctx) error {
		sub, ok, err := g.subject(c)
		if !ok {
			return err
		}
		u, err := g.Users.Authenticate(c.UserContext(), sub)
		if err != nil {
			if errors.Is(err, services.ErrNotProvisioned) {
				applog.Security(c, "auth.user.unprovisioned", map[string]any{"subject": sub})
				return unauthorized(c, "User not found in database")
			}
			return fail(c, "auth.user.lookup", err, "Server error")
		}
		c.Locals(localSubject, sub)
		c.Locals(localUser, u)
		c.Locals(localUserID, u.ID)
		return c.Next()
	}
}

// RequireRole admits the attached user only if its role is one of roles.
// A missing user is refused.
func RequireRole(roles ...string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		u := currentUser(c)
		if u == nil || u.Role == "" || !hasRole(u.Role, roles) {
			fields := map[string]any{"required": roles}
			if u != nil {
				fields["role"] = u.Role
			}
			applog.Security(c, "access.denied.role", fields)
			return c.Status(fiber.StatusForbidden).JSON(errorBody{Message: "Forbidden: insufficient role"})
		}
		return c.Next()
	}
}

func hasRole(role string, roles []string) bool {
	for _, r := range roles {
		if r == role {
			return true
		}
	}
	return false
}

func currentUser(c *fiber.Ctx) *domain.User {
	u, _ := c.Locals(localUser).(*domain.User)
	return u
}

func currentSubject(c *fiber.Ctx) string {
	s, _ := c.Locals(localSubject).(string)
	return s
}
