package middleware

import (
	"context"
	"strings"

	"github.com/gofiber/fiber/v2"

	"compliancehub/internal/model"
)

const (
	// ActorLocalKey is the key used to store the authenticated user in
	// Fiber's context locals.
	ActorLocalKey = "actor"
)

// ActorResolver turns a bearer token into the authoritative user record.
type ActorResolver interface {
	Resolve(ctx context.Context, token string) (*model.User, error)
}

// Auth parses the Authorization header, resolves the actor and stores it in
// context locals. Requests without a valid bearer token get 401 before any
// handler runs.
func Auth(resolver ActorResolver) fiber.Handler {
	return func(c *fiber.Ctx) error {
		header := c.Get(fiber.HeaderAuthorization)
		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || token == "" {
			return fiber.NewError(fiber.StatusUnauthorized, "missing bearer token")
		}

		user, err := resolver.Resolve(c.UserContext(), token)
		if err != nil {
			return fiber.NewError(fiber.StatusUnauthorized, "invalid bearer token")
		}

		c.Locals(ActorLocalKey, user)
		return c.Next()
	}
}

// ActorFromCtx extracts the authenticated user stored by Auth.
func ActorFromCtx(c *fiber.Ctx) *model.User {
	if v := c.Locals(ActorLocalKey); v != nil {
		if u, ok := v.(*model.User); ok {
			return u
		}
	}
	return nil
}
