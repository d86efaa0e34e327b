package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/gofiber/fiber/v2"
)

const callerLocal = "caller"

// TokenVerifier resolves a bearer token to the caller address it was issued to.
type TokenVerifier interface {
	Verify(ctx context.Context, token string) (string, error)
}

// CallerAuth authenticates the bearer token and stores the caller address in
// the "caller" local for handlers.
func CallerAuth(verifier TokenVerifier) fiber.Handler {
	return func(c *fiber.Ctx) error {
		authz := c.Get(fiber.HeaderAuthorization)
		if len(authz) < len("Bearer ") || !strings.EqualFold(authz[:len("Bearer ")], "bearer ") {
			return fiber.NewError(http.StatusUnauthorized, "missing bearer token")
		}
		token := strings.TrimSpace(authz[len("Bearer "):])
		caller, err := verifier.Verify(c.UserContext(), token)
		if err != nil {
			return fiber.NewError(http.StatusUnauthorized, err.Error())
		}
		c.Locals(callerLocal, caller)
		return c.Next()
	}
}
